// SPDX-License-Identifier: GPL-3.0-or-later

package device

import "sync"

// Antenna is a half-duplex [Driver], modeling a radio modem.
//
// Construct using [NewAntenna].
type Antenna struct {
	// fromNetwork holds bytes received from the medium.
	fromNetwork queue

	// mu provides mutual exclusion.
	mu sync.Mutex

	// name is the device name.
	name string

	// state is the antenna state in the current tick.
	state AntennaState

	// tick is the tick state.
	tick TickState

	// toNetwork holds bytes waiting to be transmitted.
	toNetwork queue
}

var (
	_ Driver  = &Antenna{}
	_ Relayer = &Antenna{}
)

// NewAntenna creates a new idle [*Antenna] with the given name.
func NewAntenna(name string) *Antenna {
	return &Antenna{name: name}
}

// Name implements [Driver].
func (a *Antenna) Name() string {
	return a.name
}

// FromNetworkSide implements [Driver].
func (a *Antenna) FromNetworkSide() (byte, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.tick == InTick && a.state.Mode == Transmit {
		return a.state.Byte, true
	}
	return 0, false
}

// ToNetworkSide implements [Driver].
//
// The byte is dropped outside of a tick and while transmitting. Within
// a tick the last delivered byte wins.
func (a *Antenna) ToNetworkSide(b byte) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.tick != InTick || a.state.Mode == Transmit {
		return
	}
	a.state = AntennaState{Mode: Receive, Byte: b}
}

// Relayed implements [Relayer].
func (a *Antenna) Relayed() (byte, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.tick == InTick && a.state.Mode == Receive {
		return a.state.Byte, true
	}
	return 0, false
}

// FromTxPin implements [Driver].
func (a *Antenna) FromTxPin() (byte, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.fromNetwork.pop()
}

// ToRxPin implements [Driver].
func (a *Antenna) ToRxPin(b byte) {
	a.mu.Lock()
	a.toNetwork.push(b)
	a.mu.Unlock()
}

// StartTick implements [Driver].
//
// The antenna transmits the next queued byte, if any, and otherwise
// stays idle, ready to receive.
func (a *Antenna) StartTick() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.tick == InTick {
		return
	}
	a.state = AntennaState{Mode: Idle}
	if b, ok := a.toNetwork.pop(); ok {
		a.state = AntennaState{Mode: Transmit, Byte: b}
	}
	a.tick = InTick
}

// EndTick implements [Driver].
func (a *Antenna) EndTick() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.tick == OffTick {
		return
	}
	if a.state.Mode == Receive {
		a.fromNetwork.push(a.state.Byte)
	}
	a.state = AntennaState{Mode: Idle}
	a.tick = OffTick
}

// Readable implements [Driver].
func (a *Antenna) Readable() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return !a.fromNetwork.empty()
}

// Writable implements [Driver]. The queue is unbounded.
func (a *Antenna) Writable() bool {
	return true
}

// State returns the antenna and tick states.
func (a *Antenna) State() (AntennaState, TickState) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state, a.tick
}

// Read drains received bytes into buf without blocking. It returns
// zero and a nil error when nothing has been received.
func (a *Antenna) Read(buf []byte) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.fromNetwork.drain(buf), nil
}

// Write enqueues every byte in buf for transmission.
func (a *Antenna) Write(buf []byte) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, b := range buf {
		a.toNetwork.push(b)
	}
	return len(buf), nil
}
