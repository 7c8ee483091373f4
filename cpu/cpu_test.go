package cpu

import (
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/go-test/deep"

	"github.com/jmchacon/z80/bus"
)

// testBus is a flat 64 KiB memory double implementing bus.Bus, used the
// way the teacher's flatMemory backs cpu_test.go: no contention, no
// I/O devices beyond an optional port table, T-states merely counted.
type testBus struct {
	mem     [65536]uint8
	tstates uint64
	inPorts map[uint16]uint8
	outLog  []outEvent
	bp      func(uint16)
}

type outEvent struct {
	port uint16
	v    uint8
}

func newTestBus() *testBus { return &testBus{} }

func (b *testBus) load(addr uint16, data []byte) {
	copy(b.mem[addr:], data)
}

func (b *testBus) FetchOpcode(addr uint16) uint8 { b.tstates += 4; return b.mem[addr] }
func (b *testBus) Peek8(addr uint16) uint8       { b.tstates += 3; return b.mem[addr] }
func (b *testBus) Poke8(addr uint16, v uint8)    { b.tstates += 3; b.mem[addr] = v }
func (b *testBus) Peek16(addr uint16) uint16 {
	return uint16(b.Peek8(addr)) | uint16(b.Peek8(addr+1))<<8
}
func (b *testBus) Poke16(addr uint16, w uint16) {
	b.Poke8(addr, uint8(w))
	b.Poke8(addr+1, uint8(w>>8))
}
func (b *testBus) InPort(port uint16) uint8 { b.tstates += 4; return b.inPorts[port] }
func (b *testBus) OutPort(port uint16, v uint8) {
	b.tstates += 4
	b.outLog = append(b.outLog, outEvent{port, v})
}
func (b *testBus) AddressOnBus(_ uint16, n int) { b.tstates += uint64(n) }
func (b *testBus) Breakpoint(addr uint16) {
	if b.bp != nil {
		b.bp(addr)
	}
}
func (b *testBus) ExecDone() {}

func newCPU(t *testing.T, program []byte) (*CPU, *testBus) {
	t.Helper()
	tb := newTestBus()
	tb.load(0, program)
	c, err := Init(&ChipDef{Bus: tb})
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	return c, tb
}

func steps(c *CPU, n int) {
	for i := 0; i < n; i++ {
		c.Step()
	}
}

// Scenario 1: LD A,0x2A; LD B,1; ADD A,B; HALT.
func TestScenarioAddHalt(t *testing.T) {
	c, _ := newCPU(t, []byte{0x3E, 0x2A, 0x06, 0x01, 0x80, 0x76})
	c.SP = 0x4000
	steps(c, 4)
	if !c.Halted() {
		t.Fatalf("expected halted, got state dump:\n%s", spew.Sdump(c))
	}
	if c.A != 0x2B || c.B != 1 || c.PC != 0x0005 {
		t.Errorf("got A=%#x B=%#x PC=%#x, want A=0x2b B=1 PC=0x5", c.A, c.B, c.PC)
	}
	f := c.GetF()
	if f&FlagN != 0 || f&FlagH != 0 || f&FlagC != 0 || f&FlagZ != 0 || f&FlagS != 0 || f&FlagPV != 0 {
		t.Errorf("unexpected flags %#08b", f)
	}
}

// Scenario 2: LD HL,0x1234; PUSH HL; POP HL.
func TestScenarioPushPop(t *testing.T) {
	c, tb := newCPU(t, []byte{0x21, 0x34, 0x12, 0xE5, 0xE1})
	c.SP = 0x4000
	steps(c, 3)
	if c.HL() != 0x1234 || c.SP != 0x4000 {
		t.Errorf("got HL=%#x SP=%#x, want HL=0x1234 SP=0x4000", c.HL(), c.SP)
	}
	if tb.mem[0x3FFE] != 0x34 || tb.mem[0x3FFF] != 0x12 {
		t.Errorf("stack bytes wrong: %#x %#x", tb.mem[0x3FFE], tb.mem[0x3FFF])
	}
}

// Scenario 3: LD A,0x99; ADD A,1; DAA.
func TestScenarioDAA(t *testing.T) {
	c, _ := newCPU(t, []byte{0x3E, 0x99, 0xC6, 0x01, 0x27})
	c.SP = 0x4000
	steps(c, 3)
	if c.A != 0x00 {
		t.Fatalf("A=%#x, want 0", c.A)
	}
	f := c.GetF()
	if f&FlagC == 0 || f&FlagH == 0 || f&FlagZ == 0 || f&FlagN != 0 {
		t.Errorf("flags %#08b, want C=1 H=1 Z=1 N=0", f)
	}
}

// Scenario 4: LDIR from 0x0100..0x0102 to 0x0200..0x0202.
func TestScenarioLDIR(t *testing.T) {
	c, tb := newCPU(t, []byte{0xED, 0xB0})
	c.SetBC(3)
	c.SetHL(0x0100)
	c.SetDE(0x0200)
	c.SP = 0x4000
	tb.load(0x0100, []byte{0xAA, 0xBB, 0xCC})

	steps(c, 3) // one LDIR pass per Step; PC rewinds onto LDIR until BC reaches 0
	if got, want := tb.mem[0x0200:0x0203], []byte{0xAA, 0xBB, 0xCC}; deep.Equal(got, want) != nil {
		t.Errorf("diff copying bytes: %v", deep.Equal(got, want))
	}
	if c.BC() != 0 || c.HL() != 0x0103 || c.DE() != 0x0203 {
		t.Errorf("got BC=%#x HL=%#x DE=%#x", c.BC(), c.HL(), c.DE())
	}
	if c.flag(FlagPV) {
		t.Errorf("P/V should clear once BC reaches 0")
	}
}

// Scenario 5: IM1, IFF1 set, INT line held high at a step boundary.
func TestScenarioMaskableInterrupt(t *testing.T) {
	c, _ := newCPU(t, nil)
	c.SP = 0x4000
	c.IFF1 = true
	c.SetIM(IM1)
	c.SetINTLine(true)

	before := c.bus.(*testBus).tstates
	c.Step()
	after := c.bus.(*testBus).tstates

	if c.PC != 0x0038 || c.SP != 0x3FFE || c.IFF1 || c.IFF2 {
		t.Errorf("got PC=%#x SP=%#x IFF1=%v IFF2=%v", c.PC, c.SP, c.IFF1, c.IFF2)
	}
	if after-before < 13 {
		t.Errorf("billed %d T-states servicing INT, want >= 13", after-before)
	}
}

// Scenario 6: A=0x8A, H=0x25; INC H.
func TestScenarioIncH(t *testing.T) {
	c, _ := newCPU(t, []byte{0x24})
	c.A = 0x8A
	c.H = 0x25
	oldCarry := c.carry
	c.Step()
	if c.H != 0x26 || c.A != 0x8A {
		t.Errorf("got H=%#x A=%#x, want H=0x26 A=0x8a", c.H, c.A)
	}
	if c.carry != oldCarry {
		t.Errorf("INC must not touch carry")
	}
	f := c.GetF()
	if f&FlagZ != 0 || f&FlagS != 0 || f&FlagH != 0 || f&FlagPV != 0 || f&FlagN != 0 {
		t.Errorf("flags %#08b, want Z=S=H=P/V=N=0", f)
	}
	if f&(Flag5|Flag3) != 0x26&(Flag5|Flag3) {
		t.Errorf("bits 5/3 not copied from result")
	}
}

func TestRoundTripRegisterPairs(t *testing.T) {
	c, _ := newCPU(t, nil)
	for _, v := range []uint16{0x0000, 0x1234, 0xFFFF, 0x8001} {
		c.SetBC(v)
		if c.BC() != v {
			t.Errorf("BC round-trip %#x -> %#x", v, c.BC())
		}
		c.SetDE(v)
		if c.DE() != v {
			t.Errorf("DE round-trip %#x -> %#x", v, c.DE())
		}
		c.SetHL(v)
		if c.HL() != v {
			t.Errorf("HL round-trip %#x -> %#x", v, c.HL())
		}
		c.IX = v
		if c.IX != v {
			t.Errorf("IX round-trip failed")
		}
		c.SP = v
		if c.SP != v {
			t.Errorf("SP round-trip failed")
		}
	}
}

func TestGetFSetFIdentity(t *testing.T) {
	c, _ := newCPU(t, nil)
	for v := 0; v < 256; v++ {
		c.SetF(uint8(v))
		if got := c.GetF(); got != uint8(v) {
			t.Fatalf("SetF(%#08b) then GetF() = %#08b", v, got)
		}
	}
}

func TestPushPopRoundTrip(t *testing.T) {
	c, _ := newCPU(t, nil)
	c.SP = 0x8000
	want := uint16(0xBEEF)
	c.push(want)
	if c.SP != 0x7FFE {
		t.Fatalf("SP after push = %#x", c.SP)
	}
	got := c.pop()
	if got != want || c.SP != 0x8000 {
		t.Errorf("push/pop round trip: got %#x SP=%#x", got, c.SP)
	}
}

func TestExDEHLTwiceIsIdentity(t *testing.T) {
	c, _ := newCPU(t, []byte{0xEB, 0xEB})
	c.SetDE(0x1111)
	c.SetHL(0x2222)
	steps(c, 2)
	if c.DE() != 0x1111 || c.HL() != 0x2222 {
		t.Errorf("EX DE,HL twice not identity: DE=%#x HL=%#x", c.DE(), c.HL())
	}
}

func TestCPLTwiceIsIdentityOnA(t *testing.T) {
	c, _ := newCPU(t, []byte{0x2F, 0x2F})
	c.A = 0x3C
	steps(c, 2)
	if c.A != 0x3C {
		t.Errorf("CPL twice changed A: %#x", c.A)
	}
}

func TestNegTwiceIsIdentityOnA(t *testing.T) {
	c, _ := newCPU(t, []byte{0xED, 0x44, 0xED, 0x44})
	for _, a := range []uint8{0x01, 0x7F, 0x80, 0xFF} {
		c.A = a
		c.PC = 0
		steps(c, 2)
		if c.A != a {
			t.Errorf("NEG twice on %#x gave %#x", a, c.A)
		}
	}
}

func TestRIncrementsAcrossPrefixChain(t *testing.T) {
	// DD DD DD 00: three DD prefixes collapse to the last, then NOP.
	c, _ := newCPU(t, []byte{0xDD, 0xDD, 0xDD, 0x00})
	c.SetR(0)
	c.Step()
	if got := c.GetR(); got != 4 {
		t.Errorf("R after DD DD DD 00 = %d, want 4", got)
	}
}

func TestRIncrementsForDDCB(t *testing.T) {
	// DD CB 00 06: RLC (IX+0) with no dual-write target.
	c, _ := newCPU(t, []byte{0xDD, 0xCB, 0x00, 0x06})
	c.SetR(0)
	c.Step()
	if got := c.GetR(); got != 2 {
		t.Errorf("R after DD CB d op = %d, want 2", got)
	}
}

func TestHaltHoldsUntilInterrupt(t *testing.T) {
	c, _ := newCPU(t, []byte{0x76})
	c.SP = 0x4000
	c.IFF1 = true
	c.SetIM(IM1)
	c.Step()
	if !c.Halted() || c.PC != 0 {
		t.Fatalf("expected halted at PC=0, got halted=%v PC=%#x", c.Halted(), c.PC)
	}
	c.SetINTLine(true)
	c.Step()
	if c.Halted() {
		t.Errorf("HALT should clear once an interrupt is accepted")
	}
	if c.PC != 0x0038 {
		t.Errorf("PC after accepted interrupt = %#x, want 0x38", c.PC)
	}
}

func TestLastFlagQTracksPriorFlagQ(t *testing.T) {
	// NOP (doesn't write flags) then INC A (does).
	c, _ := newCPU(t, []byte{0x00, 0x3C, 0x00})
	c.Step() // NOP: flagQ false, lastFlagQ <- false
	if c.lastFlagQ {
		t.Fatalf("lastFlagQ should be false after a NOP")
	}
	c.Step() // INC A: flagQ true, lastFlagQ <- true
	if !c.lastFlagQ {
		t.Fatalf("lastFlagQ should be true after INC A")
	}
	c.Step() // NOP again: lastFlagQ <- false
	if c.lastFlagQ {
		t.Fatalf("lastFlagQ should be false after a trailing NOP")
	}
}

func TestCCFBits53FollowFlagQRule(t *testing.T) {
	// OR A (writes F, so flagQ true for CCF's lastFlagQ) then CCF: bits
	// 5/3 must come from A alone.
	c, _ := newCPU(t, []byte{0xB7, 0x3F})
	c.A = 0x28 // bits 5 and 3 both set in A
	steps(c, 2)
	if f := c.GetF(); f&(Flag5|Flag3) != 0x28 {
		t.Errorf("CCF bits 5/3 = %#08b, want 0x28 (from A)", f&(Flag5|Flag3))
	}
}

func TestBitNHLUsesMEMPTRForBits53(t *testing.T) {
	c, tb := newCPU(t, []byte{0x21, 0x00, 0x80, 0xCB, 0x46}) // LD HL,0x8000; BIT 0,(HL)
	tb.mem[0x8000] = 0x01
	steps(c, 2)
	if f := c.GetF(); f&(Flag5|Flag3) != uint8(c.MEMPTR>>8)&(Flag5|Flag3) {
		t.Errorf("BIT n,(HL) bits 5/3 = %#08b, want from MEMPTR high byte %#08b", f&(Flag5|Flag3), uint8(c.MEMPTR>>8)&(Flag5|Flag3))
	}
}

func TestJPHLDoesNotTouchMEMPTR(t *testing.T) {
	c, _ := newCPU(t, []byte{0x21, 0x34, 0x12, 0xE9}) // LD HL,0x1234; JP (HL)
	c.MEMPTR = 0xBEEF
	steps(c, 2)
	if c.MEMPTR != 0xBEEF {
		t.Errorf("JP (HL) changed MEMPTR to %#x", c.MEMPTR)
	}
	if c.PC != 0x1234 {
		t.Errorf("JP (HL) landed at %#x, want 0x1234", c.PC)
	}
}

func TestUndocumentedIXHalves(t *testing.T) {
	// LD IX,0x3040; INC IXh; DEC IXl.
	c, _ := newCPU(t, []byte{0xDD, 0x21, 0x40, 0x30, 0xDD, 0x24, 0xDD, 0x2D})
	steps(c, 3)
	if c.IX != 0x313F {
		t.Errorf("IX = %#x, want 0x313f", c.IX)
	}
}

func TestDDCBDualWrite(t *testing.T) {
	// LD IX,0x0000; (IX+2) is then set to 0x80 directly; DD CB 02 00:
	// RLC (IX+2),B dual write.
	c, tb := newCPU(t, []byte{0xDD, 0x21, 0x00, 0x00, 0xDD, 0xCB, 0x02, 0x00})
	steps(c, 1)
	tb.mem[0x0002] = 0x80
	c.Step()
	want := uint8(0x01) // RLC 0x80 -> 0x01, carry out set
	if tb.mem[0x0002] != want {
		t.Errorf("memory not updated: got %#x want %#x", tb.mem[0x0002], want)
	}
	if c.B != want {
		t.Errorf("dual write to B missing: got %#x want %#x", c.B, want)
	}
	if !c.carry {
		t.Errorf("carry should be set from the shifted-out bit 7")
	}
}

func TestSLLSetsBitZero(t *testing.T) {
	c, _ := newCPU(t, []byte{0xCB, 0x30}) // SLL B
	c.B = 0x00
	c.Step()
	if c.B != 0x01 {
		t.Errorf("SLL B on 0 = %#x, want 1", c.B)
	}
}

func TestOutCZeroWritesZero(t *testing.T) {
	c, tb := newCPU(t, []byte{0xED, 0x71}) // OUT (C),0
	c.SetBC(0x00FE)
	c.Step()
	if len(tb.outLog) != 1 || tb.outLog[0].v != 0 {
		t.Fatalf("OUT (C),0 wrote %#v, want a single zero byte", tb.outLog)
	}
}

func TestINCHLWrapsTo16Bits(t *testing.T) {
	c, _ := newCPU(t, []byte{0x23}) // INC HL
	c.SetHL(0xFFFF)
	c.Step()
	if c.HL() != 0x0000 {
		t.Errorf("HL wrap: got %#x", c.HL())
	}
}

func TestRGetSetComposesR7(t *testing.T) {
	c, _ := newCPU(t, nil)
	c.SetR(0xFF)
	if c.GetR() != 0xFF {
		t.Fatalf("R round trip: got %#x", c.GetR())
	}
	c.bumpR()
	if got := c.GetR(); got != 0x80 {
		t.Errorf("R after bump from 0xff = %#x, want 0x80 (r7 preserved, low 7 wrap to 0)", got)
	}
}
