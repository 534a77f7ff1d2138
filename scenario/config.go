// SPDX-License-Identifier: GPL-3.0-or-later

package scenario

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rbmk-project/common/runtimex"
	"gopkg.in/yaml.v3"
)

// DefaultTickPeriod is the tick period used when the config omits it.
const DefaultTickPeriod = 10 * time.Millisecond

// Device kinds.
const (
	// KindAntenna selects a half-duplex [*device.Antenna].
	KindAntenna = "antenna"

	// KindWired selects a full-duplex [*device.Wired].
	KindWired = "wired"
)

// ErrInvalidConfig wraps every validation error.
var ErrInvalidConfig = errors.New("invalid scenario config")

// Config describes a simulated network and the traffic to inject.
//
// Devices are identified by name across the whole config: listing the
// same device name under two ethers attaches one shared device to both,
// which makes it a bridge.
type Config struct {
	// TickPeriod is the wall-clock duration of a tick.
	TickPeriod time.Duration `yaml:"tickPeriod"`

	// Ticks is the number of network ticks to run.
	Ticks int `yaml:"ticks"`

	// Realtime runs the ticks on the background goroutine instead
	// of stepping them synchronously.
	Realtime bool `yaml:"realtime"`

	// Ethers contains the ethers in tick order.
	Ethers []EtherConfig `yaml:"ethers"`

	// Send contains the bytes to enqueue before running.
	Send []SendConfig `yaml:"send"`
}

// EtherConfig describes an ether.
type EtherConfig struct {
	// Name is the unique ether name.
	Name string `yaml:"name"`

	// Devices contains the devices in registration order.
	Devices []DeviceConfig `yaml:"devices"`
}

// DeviceConfig describes a device attached to an ether.
type DeviceConfig struct {
	// Name is the device name.
	Name string `yaml:"name"`

	// Kind is [KindAntenna] or [KindWired]. Empty means [KindAntenna].
	Kind string `yaml:"kind"`
}

// SendConfig describes bytes a device enqueues on its RX pin.
type SendConfig struct {
	// Device is the sending device name.
	Device string `yaml:"device"`

	// Data contains the bytes to send.
	Data string `yaml:"data"`
}

// Parse decodes and validates a YAML config. Unknown fields are
// rejected.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("cannot decode scenario: %w", err)
	}
	if cfg.TickPeriod == 0 {
		cfg.TickPeriod = DefaultTickPeriod
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads and parses the YAML config at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// MustLoad is like [Load] but panics on error.
func MustLoad(path string) *Config {
	return runtimex.Try1(Load(path))
}

// invalid returns an error wrapping [ErrInvalidConfig].
func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}

// validate returns an error if the configuration is not valid.
func (cfg *Config) validate() error {
	if cfg.TickPeriod < time.Millisecond {
		return invalid("tick period must be at least 1ms, got %s", cfg.TickPeriod)
	}
	if cfg.Ticks < 1 {
		return invalid("ticks must be positive, got %d", cfg.Ticks)
	}
	if len(cfg.Ethers) < 1 {
		return invalid("at least one ether is required")
	}
	kinds, err := cfg.deviceKinds()
	if err != nil {
		return err
	}
	for _, send := range cfg.Send {
		if _, found := kinds[send.Device]; !found {
			return invalid("send: unknown device %q", send.Device)
		}
	}
	return nil
}

// deviceKinds validates ethers and devices and maps every device
// name to its kind.
func (cfg *Config) deviceKinds() (map[string]string, error) {
	ethers := make(map[string]struct{})
	kinds := make(map[string]string)
	for _, ec := range cfg.Ethers {
		if ec.Name == "" {
			return nil, invalid("ether name is empty")
		}
		if _, dup := ethers[ec.Name]; dup {
			return nil, invalid("duplicate ether %q", ec.Name)
		}
		ethers[ec.Name] = struct{}{}

		for _, dc := range ec.Devices {
			if dc.Name == "" {
				return nil, invalid("ether %q: device name is empty", ec.Name)
			}
			kind := dc.kind()
			if kind != KindAntenna && kind != KindWired {
				return nil, invalid("device %q: unknown kind %q", dc.Name, dc.Kind)
			}
			if prev, found := kinds[dc.Name]; found && prev != kind {
				return nil, invalid("device %q: kind %q conflicts with %q", dc.Name, kind, prev)
			}
			kinds[dc.Name] = kind
		}
	}
	return kinds, nil
}

// kind returns the device kind applying the default.
func (dc *DeviceConfig) kind() string {
	if dc.Kind == "" {
		return KindAntenna
	}
	return dc.Kind
}
