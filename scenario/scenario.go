// SPDX-License-Identifier: GPL-3.0-or-later

/*
Package scenario builds and runs a simulated network described by a
YAML file such as:

	tickPeriod: 5ms
	ticks: 10
	ethers:
	  - name: north
	    devices:
	      - name: bridge
	      - name: sender
	  - name: south
	    devices:
	      - name: bridge
	      - name: gateway
	        kind: wired
	send:
	  - device: sender
	    data: "hi"

The devices only move bytes: there is no protocol logic, so running a
scenario shows what each device picked up from the medium.
*/
package scenario

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"github.com/rbmk-project/common/runtimex"
	"github.com/rbmk-project/ethersim/closepool"
	"github.com/rbmk-project/ethersim/device"
	"github.com/rbmk-project/ethersim/netsim"
)

// Scenario is a network built from a [*Config].
//
// Construct using [New].
type Scenario struct {
	// config is the validated config.
	config *Config

	// devices maps device names to devices.
	devices map[string]device.Driver

	// logger is the optional structured logger.
	logger *slog.Logger

	// pool detaches the devices and stops the simulator on close.
	pool *closepool.Pool

	// sim is the network simulator.
	sim *netsim.Simulator
}

// Reception is what a device received while running.
type Reception struct {
	// Device is the device name.
	Device string

	// Data contains the received bytes in order.
	Data []byte
}

// New builds the network described by cfg. The logger may be nil.
func New(cfg *Config, logger *slog.Logger) (*Scenario, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	sim := netsim.New(cfg.TickPeriod)
	sim.Logger = logger
	pool := &closepool.Pool{}
	devices := make(map[string]device.Driver)
	for _, ec := range cfg.Ethers {
		es := sim.CreateEther(ec.Name)
		for _, dc := range ec.Devices {
			dev, found := devices[dc.Name]
			if !found {
				dev = newDevice(&dc)
				devices[dc.Name] = dev
			}
			es.RegisterDriver(dev)
			pool.AddFunc(func() error {
				es.UnregisterDriver(dc.Name)
				return nil
			})
		}
	}
	pool.Add(sim)
	s := &Scenario{
		config:  cfg,
		devices: devices,
		logger:  logger,
		pool:    pool,
		sim:     sim,
	}
	if logger != nil {
		logger.Info(
			"scenarioReady",
			slog.Int("ethers", len(cfg.Ethers)),
			slog.Int("devices", len(devices)),
			slog.Int("bridges", len(s.Bridges())),
		)
	}
	return s, nil
}

// MustNew is like [New] but panics on error.
func MustNew(cfg *Config, logger *slog.Logger) *Scenario {
	return runtimex.Try1(New(cfg, logger))
}

// newDevice creates the device described by dc.
func newDevice(dc *DeviceConfig) device.Driver {
	if dc.kind() == KindWired {
		return device.NewWired(dc.Name)
	}
	return device.NewAntenna(dc.Name)
}

// Simulator returns the underlying network simulator.
func (s *Scenario) Simulator() *netsim.Simulator {
	return s.sim
}

// Device returns the device with the given name.
func (s *Scenario) Device(name string) (device.Driver, bool) {
	dev, found := s.devices[name]
	return dev, found
}

// DeviceNames returns the sorted device names.
func (s *Scenario) DeviceNames() []string {
	names := make([]string, 0, len(s.devices))
	for name := range s.devices {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Bridges returns the sorted names of the devices attached to more
// than one ether.
func (s *Scenario) Bridges() []string {
	counts := make(map[string]int)
	for _, ec := range s.config.Ethers {
		local := make(map[string]struct{})
		for _, dc := range ec.Devices {
			if _, dup := local[dc.Name]; !dup {
				local[dc.Name] = struct{}{}
				counts[dc.Name]++
			}
		}
	}
	var names []string
	for name, count := range counts {
		if count > 1 {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names
}

// Run enqueues the configured traffic and runs the configured number
// of ticks. In realtime mode, the simulation goroutine may complete a
// few more ticks than configured before it stops.
//
// Run returns the context error when the context is done first.
func (s *Scenario) Run(ctx context.Context) error {
	for _, send := range s.config.Send {
		dev := s.devices[send.Device]
		for _, b := range []byte(send.Data) {
			dev.ToRxPin(b)
		}
	}

	t0 := time.Now()
	if s.logger != nil {
		s.logger.InfoContext(
			ctx,
			"scenarioRunStart",
			slog.Int("ticks", s.config.Ticks),
			slog.Bool("realtime", s.config.Realtime),
			slog.Time("t", t0),
		)
	}

	var err error
	if s.config.Realtime {
		err = s.runRealtime(ctx)
	} else {
		err = s.runStepped(ctx)
	}

	if s.logger != nil {
		s.logger.InfoContext(
			ctx,
			"scenarioRunDone",
			slog.Any("err", err),
			slog.Uint64("ticks", s.sim.Ticks()),
			slog.Time("t0", t0),
			slog.Time("t", time.Now()),
		)
	}
	return err
}

// runStepped runs the ticks synchronously.
func (s *Scenario) runStepped(ctx context.Context) error {
	for i := 0; i < s.config.Ticks; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.sim.Step()
	}
	return nil
}

// runRealtime runs the ticks on the simulation goroutine.
func (s *Scenario) runRealtime(ctx context.Context) error {
	target := s.sim.Ticks() + uint64(s.config.Ticks)
	s.sim.Start()
	defer s.sim.Stop()

	poll := time.NewTicker(s.config.TickPeriod)
	defer poll.Stop()
	for s.sim.Ticks() < target {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-poll.C:
		}
	}
	return nil
}

// Received drains and returns what every device received, sorted
// by device name.
func (s *Scenario) Received() []Reception {
	var out []Reception
	for _, name := range s.DeviceNames() {
		dev := s.devices[name]
		rx := Reception{Device: name, Data: []byte{}}
		for {
			b, ok := dev.FromTxPin()
			if !ok {
				break
			}
			rx.Data = append(rx.Data, b)
		}
		out = append(out, rx)
	}
	return out
}

// Close stops the simulation goroutine, if running, and then detaches
// every device from its ethers.
func (s *Scenario) Close() error {
	return s.pool.Close()
}
