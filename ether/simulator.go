// SPDX-License-Identifier: GPL-3.0-or-later

package ether

import (
	"log/slog"
	"slices"
	"sync"

	"github.com/rbmk-project/ethersim/device"
)

// Simulator is a named ether whose devices may be attached and
// detached at any time, modeling one coverage zone.
//
// Registered devices are shared handles: the same device may be
// registered with several [*Simulator] at once, modeling a node whose
// antenna reaches two zones.
//
// Construct using [NewSimulator].
type Simulator struct {
	// Logger is the optional structured logger. If this field
	// is nil, we will not be emitting structured logs.
	Logger *slog.Logger

	// devs contains the registered devices in registration order.
	devs []device.Driver

	// mu protects devs.
	mu sync.Mutex

	// name is the ether name.
	name string
}

// NewSimulator creates a new [*Simulator] without devices.
func NewSimulator(name string) *Simulator {
	return &Simulator{name: name}
}

// Name returns the ether name.
func (es *Simulator) Name() string {
	return es.name
}

// CreateDriver creates a new half-duplex device. The device is
// not registered: use RegisterDriver to attach it.
func (es *Simulator) CreateDriver(name string) *device.Antenna {
	return device.NewAntenna(name)
}

// RegisterDriver attaches dev after every device already registered.
func (es *Simulator) RegisterDriver(dev device.Driver) {
	es.mu.Lock()
	es.devs = append(es.devs, dev)
	es.mu.Unlock()
}

// UnregisterDriver detaches every device with the given name. It
// does nothing when no such device is registered.
func (es *Simulator) UnregisterDriver(name string) {
	es.mu.Lock()
	es.devs = slices.DeleteFunc(es.devs, func(dev device.Driver) bool {
		return dev.Name() == name
	})
	es.mu.Unlock()
}

// Driver returns the first registered device with the given name.
func (es *Simulator) Driver(name string) (device.Driver, bool) {
	es.mu.Lock()
	defer es.mu.Unlock()
	for _, dev := range es.devs {
		if dev.Name() == name {
			return dev, true
		}
	}
	return nil, false
}

// Drivers returns the registered devices in registration order.
func (es *Simulator) Drivers() []device.Driver {
	es.mu.Lock()
	defer es.mu.Unlock()
	return slices.Clone(es.devs)
}

// StartTick starts a tick on every registered device.
func (es *Simulator) StartTick() {
	for _, dev := range es.Drivers() {
		dev.StartTick()
	}
}

// Simulate arbitrates the medium for the current tick and delivers
// the winning byte, if any, to every registered device.
func (es *Simulator) Simulate() {
	es.SimulateBridged(nil)
}

// SimulateBridged is like Simulate but devices in bridges that are
// not transmitting relay the byte they have received so far in the
// current tick, typically on another ether simulated earlier.
func (es *Simulator) SimulateBridged(bridges Bridges) {
	devs := es.Drivers()
	arb := arbitrate(devs, bridges)
	if !arb.found {
		return
	}
	if arb.transmitters > 1 && es.Logger != nil {
		es.Logger.Debug(
			"etherCollision",
			slog.String("ether", es.name),
			slog.Int("transmitters", arb.transmitters),
			slog.Int("winner", int(arb.current)),
		)
	}
	fanout(devs, arb.current)
}

// EndTick ends the current tick on every registered device.
func (es *Simulator) EndTick() {
	for _, dev := range es.Drivers() {
		dev.EndTick()
	}
}
