// SPDX-License-Identifier: GPL-3.0-or-later

/*
Package ether models a shared transmission medium.

Within one tick every device attached to an ether observes the same
byte. When more than one device transmits, the byte of the device
attached last wins: this is a deliberately simple, deterministic
collision rule, not a model of radio physics.

A tick has three phases: StartTick on every device, Simulate, and
EndTick on every device. The phases are public so that a caller
driving several ethers can run StartTick on all of them before
simulating any, which is what lets a device attached to two ethers
relay a byte from one to the other within the same tick.

[*Ether] drives a fixed set of devices. [*Simulator] is a named,
mutable registry of shared device handles.
*/
package ether

import "github.com/rbmk-project/ethersim/device"

// Ether is a medium shared by a fixed set of devices.
//
// Construct using [New].
type Ether struct {
	// devs contains the attached devices in attach order.
	devs []device.Driver
}

// New creates a new [*Ether] connecting the given devices.
func New(devs ...device.Driver) *Ether {
	return &Ether{devs: append([]device.Driver{}, devs...)}
}

// StartTick starts a tick on every attached device.
func (e *Ether) StartTick() {
	for _, dev := range e.devs {
		dev.StartTick()
	}
}

// Simulate arbitrates the medium for the current tick and delivers
// the winning byte, if any, to every attached device.
//
// The caller must run StartTick before and EndTick after.
func (e *Ether) Simulate() {
	if arb := arbitrate(e.devs, nil); arb.found {
		fanout(e.devs, arb.current)
	}
}

// EndTick ends the current tick on every attached device.
func (e *Ether) EndTick() {
	for _, dev := range e.devs {
		dev.EndTick()
	}
}

// arbitration is the result of reading the medium.
type arbitration struct {
	// current is the winning byte.
	current byte

	// found tells whether current is set.
	found bool

	// transmitters counts the devices with a byte on the medium.
	transmitters int
}

// arbitrate reads every device in order and returns the byte of the
// last device that has one on the medium.
//
// A device in bridges that is not transmitting puts on the medium the
// byte it has received so far in this tick, if any.
func arbitrate(devs []device.Driver, bridges Bridges) arbitration {
	var arb arbitration
	for _, dev := range devs {
		b, ok := dev.FromNetworkSide()
		if !ok {
			b, ok = bridges.relayed(dev)
		}
		if ok {
			arb.current, arb.found = b, true
			arb.transmitters++
		}
	}
	return arb
}

// fanout delivers b to every device, transmitters included.
func fanout(devs []device.Driver, b byte) {
	for _, dev := range devs {
		dev.ToNetworkSide(b)
	}
}
