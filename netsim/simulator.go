// SPDX-License-Identifier: GPL-3.0-or-later

package netsim

import (
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/rbmk-project/common/runtimex"
	"github.com/rbmk-project/ethersim/ether"
)

var (
	// ErrRunning indicates that the simulation goroutine is running.
	ErrRunning = errors.New("netsim: simulation is running")

	// ErrStopped indicates that the simulation goroutine is not running.
	ErrStopped = errors.New("netsim: simulation is not running")

	// ErrTickPeriod indicates an invalid tick period.
	ErrTickPeriod = errors.New("netsim: tick period must be at least one millisecond")
)

// Simulator advances a set of [*ether.Simulator] in lockstep.
//
// A simulator is either stopped or running. While stopped, the caller
// owns the ethers and may create and look them up. While running, a
// background goroutine owns the ethers and ticks them once per tick
// period; calling any configuration method panics.
//
// A [*Simulator] is not safe for concurrent use by multiple goroutines.
// The devices registered with its ethers are, so protocol code may use
// them while the simulation is running.
//
// Construct using [New].
type Simulator struct {
	// Logger is the optional structured logger. If this field
	// is nil, we will not be emitting structured logs. Do not
	// modify this field while the simulation is running.
	Logger *slog.Logger

	// TimeNow is an optional function that returns the current time.
	// If this field is nil, the [time.Now] function will be used.
	TimeNow func() time.Time

	// done returns the ethers when the goroutine exits. It is
	// non-nil only while the simulation is running.
	done chan []*ether.Simulator

	// eof is closed to stop the goroutine.
	eof chan struct{}

	// ethers contains the ethers in creation order. It is nil
	// while the goroutine owns them.
	ethers []*ether.Simulator

	// period is the wall-clock duration of a tick.
	period time.Duration

	// t0 is when the simulation was last started.
	t0 time.Time

	// ticks counts the completed network ticks.
	ticks atomic.Uint64
}

var _ io.Closer = &Simulator{}

// New creates a new, stopped [*Simulator] with the given tick period.
//
// This function panics if the period is shorter than one millisecond.
func New(period time.Duration) *Simulator {
	runtimex.Try0(validatePeriod(period))
	return &Simulator{period: period}
}

// validatePeriod returns an error if the tick period is not valid.
func validatePeriod(period time.Duration) error {
	if period < time.Millisecond {
		return ErrTickPeriod
	}
	return nil
}

// TickPeriod returns the tick period.
func (ns *Simulator) TickPeriod() time.Duration {
	return ns.period
}

// Ticks returns the number of completed network ticks. It is safe to
// call this method while the simulation is running.
func (ns *Simulator) Ticks() uint64 {
	return ns.ticks.Load()
}

// Running returns whether the simulation goroutine is running.
func (ns *Simulator) Running() bool {
	return ns.done != nil
}

// checkStopped returns [ErrRunning] if the simulation is running.
func (ns *Simulator) checkStopped() error {
	if ns.Running() {
		return ErrRunning
	}
	return nil
}

// checkRunning returns [ErrStopped] if the simulation is stopped.
func (ns *Simulator) checkRunning() error {
	if !ns.Running() {
		return ErrStopped
	}
	return nil
}

// CreateEther creates a new [*ether.Simulator] and returns it. The new
// ether is ticked after every ether created before it.
//
// This method panics if the simulation is running.
func (ns *Simulator) CreateEther(name string) *ether.Simulator {
	runtimex.Try0(ns.checkStopped())
	es := ether.NewSimulator(name)
	es.Logger = ns.Logger
	ns.ethers = append(ns.ethers, es)
	return es
}

// Ether returns the first ether with the given name.
//
// This method panics if the simulation is running.
func (ns *Simulator) Ether(name string) (*ether.Simulator, bool) {
	runtimex.Try0(ns.checkStopped())
	for _, es := range ns.ethers {
		if es.Name() == name {
			return es, true
		}
	}
	return nil, false
}

// Ethers returns the ethers in creation order.
//
// This method panics if the simulation is running.
func (ns *Simulator) Ethers() []*ether.Simulator {
	runtimex.Try0(ns.checkStopped())
	return append([]*ether.Simulator{}, ns.ethers...)
}

// Step runs a single network tick synchronously.
//
// This method panics if the simulation is running.
func (ns *Simulator) Step() {
	runtimex.Try0(ns.checkStopped())
	ns.tick(ns.ethers)
}

// tick runs a network tick. Every phase runs on every ether before the
// next phase starts on any, so a device registered with two ethers can
// carry a byte from the first to the second within the same tick.
func (ns *Simulator) tick(ethers []*ether.Simulator) {
	bridges := ether.FindBridges(ethers...)
	for _, es := range ethers {
		es.StartTick()
	}
	for _, es := range ethers {
		es.SimulateBridged(bridges)
	}
	for _, es := range ethers {
		es.EndTick()
	}
	ns.ticks.Add(1)
}

// Start hands the ethers over to a new background goroutine that
// ticks them once per tick period until Stop is called.
//
// This method panics if the simulation is already running.
func (ns *Simulator) Start() {
	runtimex.Try0(ns.checkStopped())
	ethers := ns.ethers
	ns.ethers = nil
	ns.eof = make(chan struct{})
	ns.done = make(chan []*ether.Simulator, 1)
	ns.t0 = ns.timeNow()
	if ns.Logger != nil {
		ns.Logger.Info(
			"simulationStart",
			slog.Int("ethers", len(ethers)),
			slog.Duration("tickPeriod", ns.period),
			slog.Time("t", ns.t0),
		)
	}
	go ns.loop(ethers, ns.eof, ns.done)
}

// loop is the simulation goroutine. It returns the ethers through done.
func (ns *Simulator) loop(ethers []*ether.Simulator, eof <-chan struct{}, done chan<- []*ether.Simulator) {
	defer func() { done <- ethers }()
	ticker := time.NewTicker(ns.period)
	defer ticker.Stop()
	for {
		select {
		case <-eof:
			return
		case <-ticker.C:
		}

		// A pending stop wins over a tick that is due.
		select {
		case <-eof:
			return
		default:
		}

		ns.tick(ethers)
	}
}

// Stop stops the background goroutine and takes the ethers back. It
// blocks until the goroutine has completed the tick in progress, if any.
//
// This method panics if the simulation is not running.
func (ns *Simulator) Stop() {
	runtimex.Try0(ns.checkRunning())
	close(ns.eof)
	ns.ethers = <-ns.done
	ns.eof, ns.done = nil, nil
	if ns.Logger != nil {
		ns.Logger.Info(
			"simulationDone",
			slog.Int("ethers", len(ns.ethers)),
			slog.Uint64("ticks", ns.Ticks()),
			slog.Time("t0", ns.t0),
			slog.Time("t", ns.timeNow()),
		)
	}
}

// Close stops the simulation if it is running and otherwise does
// nothing, so that a [*Simulator] can be used as an [io.Closer].
func (ns *Simulator) Close() error {
	if ns.Running() {
		ns.Stop()
	}
	return nil
}

// timeNow returns the current time.
func (ns *Simulator) timeNow() time.Time {
	if ns.TimeNow != nil {
		return ns.TimeNow()
	}
	return time.Now()
}
