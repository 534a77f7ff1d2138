// SPDX-License-Identifier: GPL-3.0-or-later

// Package closepool tears down a simulated network in a single
// operation, undoing the setup steps in reverse order.
package closepool

import (
	"errors"
	"io"
	"slices"
	"sync"
)

// Func adapts a teardown function to [io.Closer].
type Func func() error

var _ io.Closer = Func(nil)

// Close implements [io.Closer].
func (fx Func) Close() error {
	return fx()
}

// Pool collects teardown steps.
//
// The zero value is ready to use.
type Pool struct {
	// closers contains the steps in registration order.
	closers []io.Closer

	// mu provides mutual exclusion.
	mu sync.Mutex
}

// Add registers an [io.Closer], such as a [*netsim.Simulator].
func (p *Pool) Add(c io.Closer) {
	p.mu.Lock()
	p.closers = append(p.closers, c)
	p.mu.Unlock()
}

// AddFunc registers a teardown function, such as one detaching a
// device from an ether.
func (p *Pool) AddFunc(fx func() error) {
	p.Add(Func(fx))
}

// Len returns the number of pending steps.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.closers)
}

// Close runs every step, last registered first, and forgets them, so a
// second Close is a no-op. A failing step does not prevent the others
// from running: the returned error joins all the failures.
func (p *Pool) Close() error {
	p.mu.Lock()
	closers := p.closers
	p.closers = nil
	p.mu.Unlock()

	var errv []error
	for _, c := range slices.Backward(closers) {
		if err := c.Close(); err != nil {
			errv = append(errv, err)
		}
	}
	return errors.Join(errv...)
}
