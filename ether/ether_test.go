// SPDX-License-Identifier: GPL-3.0-or-later

package ether

import (
	"testing"

	"github.com/rbmk-project/ethersim/device"
	"github.com/rbmk-project/ethersim/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tick runs one full tick over an [*Ether].
func tick(e *Ether) {
	e.StartTick()
	e.Simulate()
	e.EndTick()
}

// mustRead pops one byte from the device TX pin.
func mustRead(t *testing.T, dev device.Driver) byte {
	t.Helper()
	b, ok := dev.FromTxPin()
	require.True(t, ok, "device %s has nothing to read", dev.Name())
	return b
}

func TestEther(t *testing.T) {
	t.Run("a byte reaches every other device", func(t *testing.T) {
		d1, d2, d3 := device.NewAntenna("1"), device.NewAntenna("2"), device.NewWired("3")
		e := New(d1, d2, d3)
		d1.ToRxPin('a')

		tick(e)

		assert.False(t, d1.Readable())
		assert.Equal(t, byte('a'), mustRead(t, d2))
		assert.Equal(t, byte('a'), mustRead(t, d3))
	})

	t.Run("the last transmitter wins a collision", func(t *testing.T) {
		d1, d2, d3 := device.NewAntenna("1"), device.NewAntenna("2"), device.NewAntenna("3")
		e := New(d1, d2, d3)
		d1.ToRxPin(0x41)
		d2.ToRxPin(0x42)

		e.StartTick()
		e.Simulate()
		for _, dev := range []device.Driver{d1, d2, d3} {
			b, ok := dev.FromNetworkSide()
			if ok {
				assert.Contains(t, []byte{0x41, 0x42}, b)
			}
		}
		e.EndTick()

		// Only the listener hears the medium, and it hears the winner.
		assert.Equal(t, byte(0x42), mustRead(t, d3))
		assert.False(t, d1.Readable())
		assert.False(t, d2.Readable())
	})

	t.Run("every device observes the winning byte", func(t *testing.T) {
		var observed []byte
		transmitter := func(b byte) *mocks.Driver {
			return &mocks.Driver{
				MockFromNetworkSide: func() (byte, bool) { return b, true },
				MockToNetworkSide:   func(b byte) { observed = append(observed, b) },
			}
		}
		listener := &mocks.Driver{
			MockToNetworkSide: func(b byte) { observed = append(observed, b) },
		}
		e := New(transmitter(0x41), transmitter(0x42), listener)

		e.Simulate()

		assert.Equal(t, []byte{0x42, 0x42, 0x42}, observed)
	})

	t.Run("a full-duplex transmitter hears the winner", func(t *testing.T) {
		d1, d2 := device.NewWired("1"), device.NewWired("2")
		e := New(d1, d2)
		d1.ToRxPin(0x41)
		d2.ToRxPin(0x42)

		tick(e)

		assert.Equal(t, byte(0x42), mustRead(t, d1))
		assert.Equal(t, byte(0x42), mustRead(t, d2))
	})

	t.Run("nothing is delivered on a silent medium", func(t *testing.T) {
		var delivered int
		dev := &mocks.Driver{MockToNetworkSide: func(byte) { delivered++ }}
		e := New(dev, dev)

		e.Simulate()

		assert.Equal(t, 0, delivered)
	})

	t.Run("simulate does not change tick state", func(t *testing.T) {
		var ticks int
		dev := &mocks.Driver{
			MockStartTick: func() { ticks++ },
			MockEndTick:   func() { ticks++ },
		}
		e := New(dev)
		e.Simulate()
		assert.Equal(t, 0, ticks)
		tick(e)
		assert.Equal(t, 2, ticks)
	})

	t.Run("a message crosses the medium byte by byte", func(t *testing.T) {
		sender, receiver := device.NewAntenna("s"), device.NewAntenna("r")
		e := New(sender, receiver)
		_, err := sender.Write([]byte("hello"))
		require.NoError(t, err)

		for i := 0; i < 5; i++ {
			tick(e)
		}

		buf := make([]byte, 16)
		count, err := receiver.Read(buf)
		require.NoError(t, err)
		assert.Equal(t, "hello", string(buf[:count]))
	})
}

func TestArbitrate(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		arb := arbitrate(nil, nil)
		assert.False(t, arb.found)
		assert.Equal(t, 0, arb.transmitters)
	})

	t.Run("counts transmitters", func(t *testing.T) {
		on := &mocks.Driver{MockFromNetworkSide: func() (byte, bool) { return 7, true }}
		off := &mocks.Driver{}
		arb := arbitrate([]device.Driver{on, off, on}, nil)
		assert.True(t, arb.found)
		assert.Equal(t, byte(7), arb.current)
		assert.Equal(t, 2, arb.transmitters)
	})

	t.Run("bridges relay what they received", func(t *testing.T) {
		bridge := &mocks.Driver{MockRelayed: func() (byte, bool) { return 0x10, true }}
		other := &mocks.Driver{MockRelayed: func() (byte, bool) { return 0x20, true }}

		arb := arbitrate([]device.Driver{bridge, other}, Bridges{bridge: {}})
		assert.True(t, arb.found)
		assert.Equal(t, byte(0x10), arb.current)

		arb = arbitrate([]device.Driver{bridge, other}, nil)
		assert.False(t, arb.found)
	})
}
