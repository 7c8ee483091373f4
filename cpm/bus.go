// Package cpm implements the minimal CP/M 2.2 BDOS shim (console output
// and program exit, functions 0, 2 and 9) that the ZEXALL/ZEXDOC
// conformance suites expect, over a flat 64 KiB memory image. It is the
// external collaborator described by the Bus Interface, not part of the
// CPU interpreter itself.
package cpm

import (
	"fmt"
	"io"

	"github.com/jmchacon/z80/cpu"
)

// FlatBus is a bus.Bus implementation over an unbanked 64 KiB address
// space, with CP/M BDOS functions 0 (exit), 2 (console character out)
// and 9 (print $-terminated string) trapped via a breakpoint at address
// 5, exactly as a CP/M machine vectors BDOS calls through a fixed entry
// point. It carries no I/O devices: in-port reads return 0xFF, out-port
// writes are discarded, matching a bare CP/M test harness with no
// peripherals attached.
type FlatBus struct {
	mem [65536]byte

	// Out receives console output from BDOS functions 2 and 9.
	// NewFlatBus sets it to io.Discard when given nil.
	Out io.Writer

	// Done is set once BDOS function 0 (system reset) is called.
	Done bool

	tstates uint64
	chip    *cpu.CPU
}

// NewFlatBus returns a FlatBus writing console output to out. If out is
// nil, output is discarded.
func NewFlatBus(out io.Writer) *FlatBus {
	if out == nil {
		out = io.Discard
	}
	return &FlatBus{Out: out}
}

// AttachCPU wires the bus to the CPU whose registers the BDOS shim
// inspects when the address-5 breakpoint fires. Call it once, after
// cpu.Init, before the first Step.
func (b *FlatBus) AttachCPU(c *cpu.CPU) {
	b.chip = c
	c.SetBreakpoint(5, true)
}

// LoadCOM installs a .com-style binary at 0x100 and arms the CP/M
// entry/exit vectors: a JP 0x100 at address 0 (the program's usual
// entry), and a RET at address 5 (BDOS call site; the breakpoint armed
// by AttachCPU intercepts the call before this RET executes).
func (b *FlatBus) LoadCOM(data []byte) {
	b.mem[0] = 0xC3 // JP nn
	b.mem[1] = 0x00
	b.mem[2] = 0x01
	b.mem[5] = 0xC9 // RET
	copy(b.mem[0x100:], data)
}

// TStates reports the running T-state count, for use with
// cpu.CPU.RunUntil.
func (b *FlatBus) TStates() uint64 { return b.tstates }

func (b *FlatBus) FetchOpcode(addr uint16) uint8 {
	b.tstates += 4
	return b.mem[addr]
}

func (b *FlatBus) Peek8(addr uint16) uint8 {
	b.tstates += 3
	return b.mem[addr]
}

func (b *FlatBus) Poke8(addr uint16, v uint8) {
	b.tstates += 3
	b.mem[addr] = v
}

func (b *FlatBus) Peek16(addr uint16) uint16 {
	lo := b.Peek8(addr)
	hi := b.Peek8(addr + 1)
	return uint16(hi)<<8 | uint16(lo)
}

func (b *FlatBus) Poke16(addr uint16, w uint16) {
	b.Poke8(addr, uint8(w))
	b.Poke8(addr+1, uint8(w>>8))
}

func (b *FlatBus) InPort(uint16) uint8 {
	b.tstates += 4
	return 0xFF
}

func (b *FlatBus) OutPort(uint16, uint8) {
	b.tstates += 4
}

func (b *FlatBus) AddressOnBus(_ uint16, tstates int) {
	b.tstates += uint64(tstates)
}

// Breakpoint services the CP/M BDOS calls this harness understands.
// Any other armed breakpoint (none, by default) would also land here;
// this implementation only ever arms address 5.
func (b *FlatBus) Breakpoint(addr uint16) {
	if addr != 5 || b.chip == nil {
		return
	}
	switch b.chip.C {
	case 0: // System reset: stop the run.
		b.Done = true
	case 2: // Console output: character in E.
		fmt.Fprintf(b.Out, "%c", b.chip.E)
	case 9: // Print $-terminated string at (DE).
		a := b.chip.DE()
		for b.mem[a] != '$' {
			fmt.Fprintf(b.Out, "%c", b.mem[a])
			a++
		}
	}
}

func (b *FlatBus) ExecDone() {}
