package cpu

// execUnprefixed dispatches the 256-entry unprefixed opcode table. It is
// also the fallback target for any DD/FD-prefixed opcode that does not
// reference HL, H or L: such an opcode "forgets" the prefix and runs
// exactly as written here.
func (c *CPU) execUnprefixed(op uint8) {
	if op >= 0x40 && op <= 0x7F {
		if op == 0x76 {
			c.halt()
			return
		}
		dst, src := (op>>3)&7, op&7
		c.writeR8(dst, c.readR8(src))
		return
	}
	if op >= 0x80 && op <= 0xBF {
		c.aluOp((op>>3)&7, c.readR8(op&7))
		return
	}

	switch op {
	case 0x00: // NOP
	case 0x01: // LD BC,nn
		c.SetBC(c.imm16())
	case 0x02: // LD (BC),A
		c.bus.Poke8(c.BC(), c.A)
		c.MEMPTR = uint16(c.A)<<8 | uint16(uint8(c.BC()+1))
	case 0x03: // INC BC
		c.SetBC(c.BC() + 1)
	case 0x04: // INC B
		c.B = c.inc8(c.B)
	case 0x05: // DEC B
		c.B = c.dec8(c.B)
	case 0x06: // LD B,n
		c.B = c.imm8()
	case 0x07:
		c.rlca()
	case 0x08: // EX AF,AF'
		c.A, c.A2 = c.A2, c.A
		f, f2 := c.GetF(), c.F2
		c.SetF(f2)
		c.F2 = f
	case 0x09: // ADD HL,BC
		c.SetHL(c.addHL16WithBus(c.HL(), c.BC()))
	case 0x0A: // LD A,(BC)
		c.A = c.bus.Peek8(c.BC())
		c.MEMPTR = c.BC() + 1
	case 0x0B:
		c.SetBC(c.BC() - 1)
	case 0x0C:
		c.C = c.inc8(c.C)
	case 0x0D:
		c.C = c.dec8(c.C)
	case 0x0E:
		c.C = c.imm8()
	case 0x0F:
		c.rrca()

	case 0x10: // DJNZ e
		c.bus.AddressOnBus(c.pairIR(), 1)
		e := int8(c.imm8())
		c.B--
		if c.B != 0 {
			c.jumpRelative(e)
		}
	case 0x11:
		c.SetDE(c.imm16())
	case 0x12:
		c.bus.Poke8(c.DE(), c.A)
		c.MEMPTR = uint16(c.A)<<8 | uint16(uint8(c.DE()+1))
	case 0x13:
		c.SetDE(c.DE() + 1)
	case 0x14:
		c.D = c.inc8(c.D)
	case 0x15:
		c.D = c.dec8(c.D)
	case 0x16:
		c.D = c.imm8()
	case 0x17:
		c.rla()
	case 0x18: // JR e
		e := int8(c.imm8())
		c.jumpRelative(e)
	case 0x19:
		c.SetHL(c.addHL16WithBus(c.HL(), c.DE()))
	case 0x1A:
		c.A = c.bus.Peek8(c.DE())
		c.MEMPTR = c.DE() + 1
	case 0x1B:
		c.SetDE(c.DE() - 1)
	case 0x1C:
		c.E = c.inc8(c.E)
	case 0x1D:
		c.E = c.dec8(c.E)
	case 0x1E:
		c.E = c.imm8()
	case 0x1F:
		c.rra()

	case 0x20:
		e := int8(c.imm8())
		if !c.flag(FlagZ) {
			c.jumpRelative(e)
		}
	case 0x21:
		c.SetHL(c.imm16())
	case 0x22:
		addr := c.imm16()
		c.bus.Poke16(addr, c.HL())
		c.MEMPTR = addr + 1
	case 0x23:
		c.SetHL(c.HL() + 1)
	case 0x24:
		c.H = c.inc8(c.H)
	case 0x25:
		c.H = c.dec8(c.H)
	case 0x26:
		c.H = c.imm8()
	case 0x27:
		c.daa()
	case 0x28:
		e := int8(c.imm8())
		if c.flag(FlagZ) {
			c.jumpRelative(e)
		}
	case 0x29:
		c.SetHL(c.addHL16WithBus(c.HL(), c.HL()))
	case 0x2A:
		addr := c.imm16()
		c.SetHL(c.bus.Peek16(addr))
		c.MEMPTR = addr + 1
	case 0x2B:
		c.SetHL(c.HL() - 1)
	case 0x2C:
		c.L = c.inc8(c.L)
	case 0x2D:
		c.L = c.dec8(c.L)
	case 0x2E:
		c.L = c.imm8()
	case 0x2F:
		c.cpl()

	case 0x30:
		e := int8(c.imm8())
		if !c.flag(FlagC) {
			c.jumpRelative(e)
		}
	case 0x31:
		c.SP = c.imm16()
	case 0x32:
		addr := c.imm16()
		c.bus.Poke8(addr, c.A)
		c.MEMPTR = uint16(c.A)<<8 | uint16(uint8(addr+1))
	case 0x33:
		c.SP++
	case 0x34:
		addr := c.HL()
		v := c.bus.Peek8(addr)
		c.bus.AddressOnBus(addr, 1)
		c.bus.Poke8(addr, c.inc8(v))
	case 0x35:
		addr := c.HL()
		v := c.bus.Peek8(addr)
		c.bus.AddressOnBus(addr, 1)
		c.bus.Poke8(addr, c.dec8(v))
	case 0x36:
		addr := c.HL()
		n := c.imm8()
		c.bus.Poke8(addr, n)
	case 0x37:
		c.scf()
	case 0x38:
		e := int8(c.imm8())
		if c.flag(FlagC) {
			c.jumpRelative(e)
		}
	case 0x39:
		c.SetHL(c.addHL16WithBus(c.HL(), c.SP))
	case 0x3A:
		addr := c.imm16()
		c.A = c.bus.Peek8(addr)
		c.MEMPTR = addr + 1
	case 0x3B:
		c.SP--
	case 0x3C:
		c.A = c.inc8(c.A)
	case 0x3D:
		c.A = c.dec8(c.A)
	case 0x3E:
		c.A = c.imm8()
	case 0x3F:
		c.ccf()

	case 0xC0:
		c.retCond(0)
	case 0xC1:
		c.SetBC(c.pop())
	case 0xC2:
		c.jpCond(0)
	case 0xC3:
		c.MEMPTR = c.imm16()
		c.PC = c.MEMPTR
	case 0xC4:
		c.callCond(0)
	case 0xC5:
		c.bus.AddressOnBus(c.pairIR(), 1)
		c.push(c.BC())
	case 0xC6:
		c.add(c.imm8())
	case 0xC7:
		c.rst(0x00)
	case 0xC8:
		c.retCond(1)
	case 0xC9:
		c.PC = c.pop()
		c.MEMPTR = c.PC
	case 0xCA:
		c.jpCond(1)
	case 0xCC:
		c.callCond(1)
	case 0xCD:
		c.call()
	case 0xCE:
		c.adc(c.imm8())
	case 0xCF:
		c.rst(0x08)

	case 0xD0:
		c.retCond(2)
	case 0xD1:
		c.SetDE(c.pop())
	case 0xD2:
		c.jpCond(2)
	case 0xD3: // OUT (n),A
		n := c.imm8()
		port := uint16(c.A)<<8 | uint16(n)
		c.bus.OutPort(port, c.A)
		c.MEMPTR = uint16(c.A)<<8 | uint16(uint8(n+1))
	case 0xD4:
		c.callCond(2)
	case 0xD5:
		c.bus.AddressOnBus(c.pairIR(), 1)
		c.push(c.DE())
	case 0xD6:
		c.sub(c.imm8())
	case 0xD7:
		c.rst(0x10)
	case 0xD8:
		c.retCond(3)
	case 0xD9: // EXX
		c.B, c.B2 = c.B2, c.B
		c.C, c.C2 = c.C2, c.C
		c.D, c.D2 = c.D2, c.D
		c.E, c.E2 = c.E2, c.E
		c.H, c.H2 = c.H2, c.H
		c.L, c.L2 = c.L2, c.L
	case 0xDA:
		c.jpCond(3)
	case 0xDB: // IN A,(n)
		n := c.imm8()
		port := uint16(c.A)<<8 | uint16(n)
		c.A = c.bus.InPort(port)
		c.MEMPTR = port + 1
	case 0xDC:
		c.callCond(3)
	case 0xDE:
		c.sbc(c.imm8())
	case 0xDF:
		c.rst(0x18)

	case 0xE0:
		c.retCond(4)
	case 0xE1:
		c.SetHL(c.pop())
	case 0xE2:
		c.jpCond(4)
	case 0xE3: // EX (SP),HL
		c.exSPIndirect16(func() uint16 { return c.HL() }, func(v uint16) { c.SetHL(v) })
	case 0xE4:
		c.callCond(4)
	case 0xE5:
		c.bus.AddressOnBus(c.pairIR(), 1)
		c.push(c.HL())
	case 0xE6:
		c.and(c.imm8())
	case 0xE7:
		c.rst(0x20)
	case 0xE8:
		c.retCond(5)
	case 0xE9: // JP (HL): no MEMPTR change
		c.PC = c.HL()
	case 0xEA:
		c.jpCond(5)
	case 0xEB: // EX DE,HL
		d, e := c.D, c.E
		c.D, c.E = c.H, c.L
		c.H, c.L = d, e
	case 0xEC:
		c.callCond(5)
	case 0xEE:
		c.xor(c.imm8())
	case 0xEF:
		c.rst(0x28)

	case 0xF0:
		c.retCond(6)
	case 0xF1:
		c.SetAF(c.pop())
	case 0xF2:
		c.jpCond(6)
	case 0xF3: // DI
		c.IFF1, c.IFF2 = false, false
	case 0xF4:
		c.callCond(6)
	case 0xF5:
		c.bus.AddressOnBus(c.pairIR(), 1)
		c.push(c.AF())
	case 0xF6:
		c.or(c.imm8())
	case 0xF7:
		c.rst(0x30)
	case 0xF8:
		c.retCond(7)
	case 0xF9: // LD SP,HL
		c.bus.AddressOnBus(c.pairIR(), 2)
		c.SP = c.HL()
	case 0xFA:
		c.jpCond(7)
	case 0xFB: // EI
		c.IFF1, c.IFF2 = true, true
		c.state = awaitingEI
	case 0xFC:
		c.callCond(7)
	case 0xFE:
		c.cp(c.imm8())
	case 0xFF:
		c.rst(0x38)
	}
}

func (c *CPU) imm8() uint8 {
	v := c.bus.Peek8(c.PC)
	c.PC++
	return v
}

func (c *CPU) imm16() uint16 {
	v := c.bus.Peek16(c.PC)
	c.PC += 2
	return v
}

// addHL16WithBus performs ADD HL,rr plus the documented internal-work
// idle cycles the real CPU spends walking the ALU a second time for the
// 16-bit add (7 extra T-states with IR on the bus, billed as one
// AddressOnBus call).
func (c *CPU) addHL16WithBus(reg, oper uint16) uint16 {
	c.bus.AddressOnBus(c.pairIR(), 7)
	return c.add16(reg, oper)
}

func (c *CPU) jumpRelative(e int8) {
	c.bus.AddressOnBus(c.PC, 5)
	c.PC = uint16(int32(c.PC) + int32(e))
	c.MEMPTR = c.PC
}

func (c *CPU) retCond(code uint8) {
	c.bus.AddressOnBus(c.pairIR(), 1)
	if c.testCond(code) {
		c.PC = c.pop()
		c.MEMPTR = c.PC
	}
}

func (c *CPU) jpCond(code uint8) {
	addr := c.imm16()
	c.MEMPTR = addr
	if c.testCond(code) {
		c.PC = addr
	}
}

func (c *CPU) callCond(code uint8) {
	addr := c.imm16()
	c.MEMPTR = addr
	if c.testCond(code) {
		c.bus.AddressOnBus(c.PC, 1)
		c.push(c.PC)
		c.PC = addr
	}
}

func (c *CPU) call() {
	addr := c.imm16()
	c.MEMPTR = addr
	c.bus.AddressOnBus(c.PC, 1)
	c.push(c.PC)
	c.PC = addr
}

func (c *CPU) rst(addr uint16) {
	c.bus.AddressOnBus(c.pairIR(), 1)
	c.push(c.PC)
	c.PC = addr
	c.MEMPTR = addr
}

func (c *CPU) halt() {
	c.PC--
	c.state = halted
}

// exSPIndirect16 implements EX (SP),HL/IX/IY: the two bytes at (SP) are
// swapped with the named register, high byte written at the higher
// address, low byte at SP, each a discrete bus write (never merged).
func (c *CPU) exSPIndirect16(get func() uint16, set func(uint16)) {
	old := get()
	lo := c.bus.Peek8(c.SP)
	hi := c.bus.Peek8(c.SP + 1)
	c.bus.AddressOnBus(c.SP+1, 1)
	c.bus.Poke8(c.SP+1, uint8(old>>8))
	c.bus.Poke8(c.SP, uint8(old))
	c.bus.AddressOnBus(c.SP, 2)
	set(uint16(hi)<<8 | uint16(lo))
	c.MEMPTR = get()
}
