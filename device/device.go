// SPDX-License-Identifier: GPL-3.0-or-later

/*
Package device models the transceivers attached to a simulated ether.

A [Driver] has two sides. The network side faces the medium and is
driven by an ether once per tick. The pin side faces the protocol layer
and exposes two unbounded FIFO byte queues: bytes waiting to be sent
(written with ToRxPin) and bytes received from the medium (read with
FromTxPin).

Two variants are provided. [*Antenna] is half-duplex: within one tick it
either transmits or receives, never both. [*Wired] is full-duplex: it
may transmit and receive within the same tick.

	              (network side)
	                    |
	   +----------------|----------------+
	   |  device        |                |
	   |       +--<-- toNetwork <---+    |
	   |       |                    |    |
	   |       +-->-- fromNetwork --|--+ |
	   |                            |  | |
	   |              RX pin -------+  | |
	   |              TX pin ----------+ |
	   +---------------------------------+
	                (pin side)

Each device guards its state with its own mutex, so a protocol node may
use the pin side from its own goroutine while a simulator drives the
network side.
*/
package device

import (
	"fmt"

	"github.com/gammazero/deque"
)

// Driver is the capability set every simulated transceiver implements.
type Driver interface {
	// FromNetworkSide returns the byte this device is broadcasting in
	// the current tick. It returns false when the device is idle, is
	// receiving, or is not inside a tick.
	FromNetworkSide() (byte, bool)

	// ToNetworkSide delivers a byte observed on the medium.
	ToNetworkSide(b byte)

	// FromTxPin pops the next byte received from the medium.
	FromTxPin() (byte, bool)

	// ToRxPin enqueues a byte for transmission.
	ToRxPin(b byte)

	// StartTick begins a tick. Calling it twice is a no-op.
	StartTick()

	// EndTick ends a tick. Calling it twice is a no-op.
	EndTick()

	// Readable returns whether FromTxPin would return a byte.
	Readable() bool

	// Writable returns whether ToRxPin would accept a byte.
	Writable() bool

	// Name returns the stable device name.
	Name() string
}

// Relayer is implemented by devices that can report the byte they
// picked up from the medium during the current tick. Ethers use it to
// relay traffic through a device registered in more than one ether.
type Relayer interface {
	Relayed() (byte, bool)
}

// TickState tells whether a device is inside a tick.
type TickState uint8

const (
	// OffTick is the state between EndTick and StartTick.
	OffTick TickState = iota

	// InTick is the state between StartTick and EndTick.
	InTick
)

// String returns the string representation of the tick state.
func (ts TickState) String() string {
	switch ts {
	case OffTick:
		return "off-tick"
	case InTick:
		return "in-tick"
	default:
		return "unknown"
	}
}

// AntennaMode is the direction an [*Antenna] occupies in a tick.
type AntennaMode uint8

const (
	// Idle means the antenna is neither transmitting nor receiving.
	Idle AntennaMode = iota

	// Transmit means the antenna is broadcasting a byte.
	Transmit

	// Receive means the antenna has picked up a byte.
	Receive
)

// String returns the string representation of the antenna mode.
func (m AntennaMode) String() string {
	switch m {
	case Idle:
		return "idle"
	case Transmit:
		return "transmit"
	case Receive:
		return "receive"
	default:
		return "unknown"
	}
}

// AntennaState is the state of an [*Antenna] within a tick.
//
// Byte is only meaningful when Mode is [Transmit] or [Receive].
type AntennaState struct {
	// Mode is the occupied direction.
	Mode AntennaMode

	// Byte is the byte being transmitted or received.
	Byte byte
}

// String returns the string representation of the antenna state.
func (s AntennaState) String() string {
	if s.Mode == Idle {
		return s.Mode.String()
	}
	return fmt.Sprintf("%s(0x%02x)", s.Mode, s.Byte)
}

// queue is an unbounded FIFO of bytes.
//
// The zero value is ready to use.
type queue struct {
	q deque.Deque[byte]
}

// push appends a byte at the back.
func (q *queue) push(b byte) {
	q.q.PushBack(b)
}

// pop removes the byte at the front.
func (q *queue) pop() (byte, bool) {
	if q.q.Len() <= 0 {
		return 0, false
	}
	return q.q.PopFront(), true
}

// drain pops up to len(buf) bytes into buf.
func (q *queue) drain(buf []byte) int {
	var count int
	for count < len(buf) {
		b, ok := q.pop()
		if !ok {
			break
		}
		buf[count] = b
		count++
	}
	return count
}

// empty returns whether the queue has no bytes.
func (q *queue) empty() bool {
	return q.q.Len() <= 0
}
