// SPDX-License-Identifier: GPL-3.0-or-later

package ether

import "github.com/rbmk-project/ethersim/device"

// Bridges is a set of devices registered in more than one ether.
//
// The nil value is an empty set.
type Bridges map[device.Driver]struct{}

// FindBridges returns the devices registered in more than one of
// the given ethers. Registering a device twice in the same ether
// does not make it a bridge.
func FindBridges(ethers ...*Simulator) Bridges {
	seen := make(map[device.Driver]int)
	for _, es := range ethers {
		local := make(map[device.Driver]struct{})
		for _, dev := range es.Drivers() {
			if _, dup := local[dev]; dup {
				continue
			}
			local[dev] = struct{}{}
			seen[dev]++
		}
	}
	bridges := Bridges{}
	for dev, count := range seen {
		if count > 1 {
			bridges[dev] = struct{}{}
		}
	}
	return bridges
}

// Contains returns whether dev is in the set.
func (b Bridges) Contains(dev device.Driver) bool {
	_, found := b[dev]
	return found
}

// relayed returns the byte a bridge device has picked up in the
// current tick. Devices outside the set, or not implementing
// [device.Relayer], relay nothing.
func (b Bridges) relayed(dev device.Driver) (byte, bool) {
	if !b.Contains(dev) {
		return 0, false
	}
	relayer, ok := dev.(device.Relayer)
	if !ok {
		return 0, false
	}
	return relayer.Relayed()
}
