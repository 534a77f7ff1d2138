// SPDX-License-Identifier: GPL-3.0-or-later

// Package mocks contains mocks for the ethersim interfaces.
package mocks

import "github.com/rbmk-project/ethersim/device"

// Driver allows mocking a [device.Driver] and a [device.Relayer].
//
// Leaving a field nil makes the corresponding method behave like an
// idle device that never receives anything.
type Driver struct {
	MockFromNetworkSide func() (byte, bool)
	MockToNetworkSide   func(b byte)
	MockFromTxPin       func() (byte, bool)
	MockToRxPin         func(b byte)
	MockStartTick       func()
	MockEndTick         func()
	MockReadable        func() bool
	MockWritable        func() bool
	MockName            func() string
	MockRelayed         func() (byte, bool)
}

var (
	_ device.Driver  = &Driver{}
	_ device.Relayer = &Driver{}
)

// FromNetworkSide calls MockFromNetworkSide.
func (d *Driver) FromNetworkSide() (byte, bool) {
	if d.MockFromNetworkSide == nil {
		return 0, false
	}
	return d.MockFromNetworkSide()
}

// ToNetworkSide calls MockToNetworkSide.
func (d *Driver) ToNetworkSide(b byte) {
	if d.MockToNetworkSide != nil {
		d.MockToNetworkSide(b)
	}
}

// FromTxPin calls MockFromTxPin.
func (d *Driver) FromTxPin() (byte, bool) {
	if d.MockFromTxPin == nil {
		return 0, false
	}
	return d.MockFromTxPin()
}

// ToRxPin calls MockToRxPin.
func (d *Driver) ToRxPin(b byte) {
	if d.MockToRxPin != nil {
		d.MockToRxPin(b)
	}
}

// StartTick calls MockStartTick.
func (d *Driver) StartTick() {
	if d.MockStartTick != nil {
		d.MockStartTick()
	}
}

// EndTick calls MockEndTick.
func (d *Driver) EndTick() {
	if d.MockEndTick != nil {
		d.MockEndTick()
	}
}

// Readable calls MockReadable.
func (d *Driver) Readable() bool {
	return d.MockReadable != nil && d.MockReadable()
}

// Writable calls MockWritable.
func (d *Driver) Writable() bool {
	return d.MockWritable == nil || d.MockWritable()
}

// Name calls MockName.
func (d *Driver) Name() string {
	if d.MockName == nil {
		return ""
	}
	return d.MockName()
}

// Relayed calls MockRelayed.
func (d *Driver) Relayed() (byte, bool) {
	if d.MockRelayed == nil {
		return 0, false
	}
	return d.MockRelayed()
}
