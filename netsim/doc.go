// SPDX-License-Identifier: GPL-3.0-or-later

/*
Package netsim drives a set of ethers with a common clock.

# Usage

The [New] function creates a [*Simulator] ticking at the given period.
Use [*Simulator.CreateEther] to add ethers and register devices with
each ether. A device registered with more than one ether is a bridge:
the byte it receives in one ether is relayed into the ethers that come
after it within the same tick.

There are two ways to advance the simulation:

- [*Simulator.Step] runs exactly one tick on the calling goroutine
and is the right choice for deterministic tests;

- [*Simulator.Start] hands the ethers to a background goroutine that
ticks once per period until [*Simulator.Stop].

While the background goroutine is running, the ethers belong to it,
and calling [*Simulator.CreateEther], [*Simulator.Ether], or
[*Simulator.Step] panics. Devices remain usable from any goroutine
because every device serializes access with its own mutex.

# Tick phases

Each tick runs StartTick on every ether, then Simulate on every ether
in creation order, then EndTick on every ether. Running the phases
across all ethers, rather than one ether at a time, is what allows a
bridge to relay a byte within the tick.

This package contains examples showing how to use it.
*/
package netsim
