// SPDX-License-Identifier: GPL-3.0-or-later

package device

import "sync"

// Wired is a full-duplex [Driver], modeling a wired modem.
//
// Construct using [NewWired].
type Wired struct {
	// fromNetwork holds bytes received from the medium.
	fromNetwork queue

	// inbound is the byte received in the current tick.
	inbound byte

	// hasInbound tells whether inbound is set.
	hasInbound bool

	// mu provides mutual exclusion.
	mu sync.Mutex

	// name is the device name.
	name string

	// outbound is the byte transmitted in the current tick.
	outbound byte

	// hasOutbound tells whether outbound is set.
	hasOutbound bool

	// tick is the tick state.
	tick TickState

	// toNetwork holds bytes waiting to be transmitted.
	toNetwork queue
}

var (
	_ Driver  = &Wired{}
	_ Relayer = &Wired{}
)

// NewWired creates a new [*Wired] with the given name.
func NewWired(name string) *Wired {
	return &Wired{name: name}
}

// Name implements [Driver].
func (w *Wired) Name() string {
	return w.name
}

// FromNetworkSide implements [Driver].
func (w *Wired) FromNetworkSide() (byte, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.tick == InTick && w.hasOutbound {
		return w.outbound, true
	}
	return 0, false
}

// ToNetworkSide implements [Driver].
//
// The byte is accepted whenever the device is inside a tick, whether
// or not it is also transmitting. The last delivered byte wins.
func (w *Wired) ToNetworkSide(b byte) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.tick != InTick {
		return
	}
	w.inbound, w.hasInbound = b, true
}

// Relayed implements [Relayer].
func (w *Wired) Relayed() (byte, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.tick == InTick && w.hasInbound {
		return w.inbound, true
	}
	return 0, false
}

// FromTxPin implements [Driver].
func (w *Wired) FromTxPin() (byte, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.fromNetwork.pop()
}

// ToRxPin implements [Driver].
func (w *Wired) ToRxPin(b byte) {
	w.mu.Lock()
	w.toNetwork.push(b)
	w.mu.Unlock()
}

// StartTick implements [Driver].
func (w *Wired) StartTick() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.tick == InTick {
		return
	}
	w.hasInbound = false
	w.outbound, w.hasOutbound = w.toNetwork.pop()
	w.tick = InTick
}

// EndTick implements [Driver].
func (w *Wired) EndTick() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.tick == OffTick {
		return
	}
	if w.hasInbound {
		w.fromNetwork.push(w.inbound)
		w.hasInbound = false
	}
	w.hasOutbound = false
	w.tick = OffTick
}

// Readable implements [Driver].
func (w *Wired) Readable() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return !w.fromNetwork.empty()
}

// Writable implements [Driver]. The queue is unbounded.
func (w *Wired) Writable() bool {
	return true
}

// TickState returns the tick state.
func (w *Wired) TickState() TickState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.tick
}

// Read drains received bytes into buf without blocking. It returns
// zero and a nil error when nothing has been received.
func (w *Wired) Read(buf []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.fromNetwork.drain(buf), nil
}

// Write enqueues every byte in buf for transmission.
func (w *Wired) Write(buf []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, b := range buf {
		w.toNetwork.push(b)
	}
	return len(buf), nil
}
