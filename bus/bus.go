// Package bus defines the narrow contract a host must implement so the
// cpu package can interpret Z80 machine code against real memory and I/O.
package bus

// Bus abstracts memory, I/O and timing for the CPU. Every method is
// synchronous and infallible from the CPU's point of view: a bus that
// cannot service a request resolves or panics at its own layer.
//
// Call ordering is part of the contract. A 16-bit write, for instance,
// must be observed by the bus as two discrete 8-bit writes in the order
// the CPU issues them, not folded into one 16-bit store.
type Bus interface {
	// FetchOpcode reads the byte at addr as part of an M1 cycle. The
	// bus bills 4 T-states (more for prefixed/IO M1s, per the CPU's own
	// accounting via AddressOnBus).
	FetchOpcode(addr uint16) uint8

	// Peek8 reads a byte from addr, billing 3 T-states.
	Peek8(addr uint16) uint8
	// Poke8 writes v to addr, billing 3 T-states.
	Poke8(addr uint16, v uint8)

	// Peek16 reads a little-endian word at addr,addr+1, billing 2x3
	// T-states.
	Peek16(addr uint16) uint16
	// Poke16 writes w to addr,addr+1 low byte first, billing 2x3
	// T-states.
	Poke16(addr uint16, w uint16)

	// InPort reads a byte from the given 16-bit port.
	InPort(port uint16) uint8
	// OutPort writes v to the given 16-bit port.
	OutPort(port uint16, v uint8)

	// AddressOnBus holds addr on the bus for n idle T-states. Used for
	// internal CPU work that has no associated memory transaction
	// (pre-decrement before a stack write, refresh cycles, and the
	// like) and for any contention model the host wants to apply.
	AddressOnBus(addr uint16, tstates int)

	// Breakpoint notifies the host that PC is about to execute addr
	// and a breakpoint has been armed there. The host may mutate CPU
	// state from within this callback (e.g. to halt emulation).
	Breakpoint(addr uint16)

	// ExecDone notifies the host that one instruction has finished.
	ExecDone()
}

// NopBus embeds into a Bus implementation that does not care about
// breakpoints or instruction-done notifications, so it does not have to
// define empty methods itself.
type NopBus struct{}

func (NopBus) Breakpoint(uint16) {}
func (NopBus) ExecDone()         {}
