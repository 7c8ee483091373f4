package cpu

// rotateShift dispatches the eight CB rotate/shift operations in their
// canonical table order: RLC, RRC, RL, RR, SLA, SRA, SLL, SRL.
func (c *CPU) rotateShift(which uint8, v uint8) uint8 {
	switch which {
	case 0:
		return c.rlc(v)
	case 1:
		return c.rrc(v)
	case 2:
		return c.rl(v)
	case 3:
		return c.rr(v)
	case 4:
		return c.sla(v)
	case 5:
		return c.sra(v)
	case 6:
		return c.sll(v)
	default:
		return c.srl(v)
	}
}

// execCB dispatches the plain (non-indexed) CB table: rotate/shift,
// BIT, RES and SET, each addressing its operand through the standard
// 3-bit register field (6 meaning (HL)).
func (c *CPU) execCB(op uint8) {
	x := op >> 6
	y := (op >> 3) & 7
	z := op & 7
	v := c.readR8(z)

	switch x {
	case 0:
		if z == 6 {
			c.bus.AddressOnBus(c.HL(), 1)
		}
		c.writeR8(z, c.rotateShift(y, v))
	case 1:
		bits53 := v
		if z == 6 {
			bits53 = uint8(c.MEMPTR >> 8)
		}
		c.bitTest(uint(y), v, bits53)
	case 2:
		if z == 6 {
			c.bus.AddressOnBus(c.HL(), 1)
		}
		c.writeR8(z, v&^(1<<y))
	case 3:
		if z == 6 {
			c.bus.AddressOnBus(c.HL(), 1)
		}
		c.writeR8(z, v|(1<<y))
	}
}

// execDDFDCB dispatches the DD/FD-CB sub-table. The displacement and
// sub-opcode bytes are ordinary memory reads, not M1 opcode fetches (R
// is not incremented for either): the instruction's two M1 cycles are
// the DD/FD prefix and the CB prefix that preceded this call. Every
// rotate/RES/SET form writes the result back to memory and, unless the
// register field names (HL) itself, also to the named register (the
// undocumented dual write).
func (c *CPU) execDDFDCB(idx *uint16) {
	d := int8(c.bus.Peek8(c.PC))
	c.PC++
	op := c.bus.Peek8(c.PC)
	c.PC++
	addr := c.dispAddr(idx, d)
	c.bus.AddressOnBus(c.PC-1, 2)

	v := c.bus.Peek8(addr)
	x := op >> 6
	y := (op >> 3) & 7
	z := op & 7

	switch x {
	case 0:
		res := c.rotateShift(y, v)
		c.bus.Poke8(addr, res)
		if z != 6 {
			c.writeR8(z, res)
		}
	case 1:
		c.bitTest(uint(y), v, uint8(addr>>8))
	case 2:
		res := v &^ (1 << y)
		c.bus.Poke8(addr, res)
		if z != 6 {
			c.writeR8(z, res)
		}
	case 3:
		res := v | (1 << y)
		c.bus.Poke8(addr, res)
		if z != 6 {
			c.writeR8(z, res)
		}
	}
}
