// SPDX-License-Identifier: GPL-3.0-or-later

package device

import (
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAntenna(t *testing.T) {
	t.Run("nothing to send", func(t *testing.T) {
		dev := NewAntenna("a")
		dev.StartTick()
		_, ok := dev.FromNetworkSide()
		assert.False(t, ok)
		dev.EndTick()

		_, ok = dev.FromTxPin()
		assert.False(t, ok)
	})

	t.Run("bytes are sent in FIFO order", func(t *testing.T) {
		dev := NewAntenna("a")
		dev.ToRxPin('a')
		dev.ToRxPin('b')

		for _, expect := range []byte{'a', 'b'} {
			dev.StartTick()
			b, ok := dev.FromNetworkSide()
			require.True(t, ok)
			assert.Equal(t, expect, b)
			dev.EndTick()
		}

		dev.StartTick()
		_, ok := dev.FromNetworkSide()
		assert.False(t, ok)
		dev.EndTick()
	})

	t.Run("received bytes reach the TX pin in order", func(t *testing.T) {
		dev := NewAntenna("a")
		for _, b := range []byte{'a', 'b'} {
			dev.StartTick()
			dev.ToNetworkSide(b)
			dev.EndTick()
		}

		b, ok := dev.FromTxPin()
		require.True(t, ok)
		assert.Equal(t, byte('a'), b)
		b, ok = dev.FromTxPin()
		require.True(t, ok)
		assert.Equal(t, byte('b'), b)
		_, ok = dev.FromTxPin()
		assert.False(t, ok)
	})

	t.Run("last received byte in a tick wins", func(t *testing.T) {
		dev := NewAntenna("a")
		dev.StartTick()
		dev.ToNetworkSide('a')
		dev.ToNetworkSide('b')
		dev.ToNetworkSide('c')
		dev.EndTick()

		b, ok := dev.FromTxPin()
		require.True(t, ok)
		assert.Equal(t, byte('c'), b)
		_, ok = dev.FromTxPin()
		assert.False(t, ok)
	})

	t.Run("a transmitting antenna ignores the medium", func(t *testing.T) {
		dev := NewAntenna("a")
		dev.ToRxPin('x')

		dev.StartTick()
		dev.ToNetworkSide('y')
		b, ok := dev.FromNetworkSide()
		require.True(t, ok)
		assert.Equal(t, byte('x'), b)
		_, ok = dev.Relayed()
		assert.False(t, ok)
		dev.EndTick()

		assert.False(t, dev.Readable())
	})

	t.Run("enqueuing during a receiving tick sends on the next tick", func(t *testing.T) {
		dev := NewAntenna("a")
		dev.StartTick()
		dev.ToNetworkSide('a')
		dev.ToRxPin('b')
		dev.EndTick()

		received, ok := dev.FromTxPin()
		require.True(t, ok)

		dev.StartTick()
		sent, ok := dev.FromNetworkSide()
		require.True(t, ok)
		dev.EndTick()

		assert.Equal(t, byte('a'), received)
		assert.Equal(t, byte('b'), sent)
	})

	t.Run("the medium is ignored outside of a tick", func(t *testing.T) {
		dev := NewAntenna("a")
		dev.ToNetworkSide('a')
		dev.StartTick()
		dev.EndTick()
		assert.False(t, dev.Readable())

		dev.ToRxPin('b')
		_, ok := dev.FromNetworkSide()
		assert.False(t, ok)
	})

	t.Run("tick transitions are idempotent", func(t *testing.T) {
		dev := NewAntenna("a")
		dev.ToRxPin('a')
		dev.ToRxPin('b')

		dev.StartTick()
		dev.StartTick()
		state, tick := dev.State()
		assert.Equal(t, AntennaState{Mode: Transmit, Byte: 'a'}, state)
		assert.Equal(t, InTick, tick)

		dev.EndTick()
		dev.EndTick()
		state, tick = dev.State()
		assert.Equal(t, AntennaState{Mode: Idle}, state)
		assert.Equal(t, OffTick, tick)

		dev.StartTick()
		b, ok := dev.FromNetworkSide()
		require.True(t, ok)
		assert.Equal(t, byte('b'), b)
		dev.EndTick()
	})

	t.Run("relayed reports the byte picked up in this tick", func(t *testing.T) {
		dev := NewAntenna("a")
		dev.StartTick()
		_, ok := dev.Relayed()
		assert.False(t, ok)
		dev.ToNetworkSide(0x10)
		b, ok := dev.Relayed()
		require.True(t, ok)
		assert.Equal(t, byte(0x10), b)
		dev.EndTick()

		_, ok = dev.Relayed()
		assert.False(t, ok)
	})

	t.Run("readable and writable", func(t *testing.T) {
		dev := NewAntenna("a")
		assert.False(t, dev.Readable())
		assert.True(t, dev.Writable())

		dev.StartTick()
		dev.ToNetworkSide('a')
		dev.EndTick()
		assert.True(t, dev.Readable())
	})

	t.Run("name", func(t *testing.T) {
		assert.Equal(t, "modem-1", NewAntenna("modem-1").Name())
	})
}

func TestAntennaReadWrite(t *testing.T) {
	t.Run("write queues every byte", func(t *testing.T) {
		dev := NewAntenna("a")
		count, err := dev.Write([]byte("hi"))
		require.NoError(t, err)
		assert.Equal(t, 2, count)

		var sent []byte
		for i := 0; i < 3; i++ {
			dev.StartTick()
			if b, ok := dev.FromNetworkSide(); ok {
				sent = append(sent, b)
			}
			dev.EndTick()
		}
		assert.Equal(t, []byte("hi"), sent)
	})

	t.Run("read drains at most len(buf) bytes", func(t *testing.T) {
		dev := NewAntenna("a")
		for _, b := range []byte("abc") {
			dev.StartTick()
			dev.ToNetworkSide(b)
			dev.EndTick()
		}

		buf := make([]byte, 2)
		count, err := dev.Read(buf)
		require.NoError(t, err)
		assert.Equal(t, 2, count)
		assert.Equal(t, []byte("ab"), buf)

		count, err = dev.Read(buf)
		require.NoError(t, err)
		assert.Equal(t, 1, count)
		assert.Equal(t, byte('c'), buf[0])

		count, err = dev.Read(buf)
		require.NoError(t, err)
		assert.Equal(t, 0, count)
	})

	t.Run("implements io.ReadWriter", func(t *testing.T) {
		var _ io.ReadWriter = NewAntenna("a")
	})
}

func TestAntennaConcurrentPins(t *testing.T) {
	dev := NewAntenna("a")
	const count = 100

	wg := &sync.WaitGroup{}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < count; i++ {
			dev.ToRxPin(byte(i))
		}
	}()

	var sent []byte
	for len(sent) < count {
		dev.StartTick()
		if b, ok := dev.FromNetworkSide(); ok {
			sent = append(sent, b)
		}
		dev.EndTick()
	}
	wg.Wait()

	for i, b := range sent {
		assert.Equal(t, byte(i), b)
	}
}
