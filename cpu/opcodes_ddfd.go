package cpu

// execMain is the top of primary dispatch: it resolves DD/FD/ED/CB
// prefixes (recursively, since a chain of DD/FD prefixes collapses to
// the most recent one) before handing off to the unprefixed, CB, ED or
// indexed tables.
func (c *CPU) execMain(op uint8) {
	switch op {
	case 0xDD:
		c.execPrefixedDDFD(&c.IX)
	case 0xFD:
		c.execPrefixedDDFD(&c.IY)
	case 0xCB:
		c.execCB(c.fetchM1())
	case 0xED:
		c.execED(c.fetchM1())
	default:
		c.execUnprefixed(op)
	}
}

// execPrefixedDDFD consumes an arbitrarily long run of DD/FD prefixes
// (only the last one matters) and dispatches the opcode that follows,
// either through the indexed table, the ED table (DD ED / FD ED is
// equivalent to plain ED, the index prefix having no effect there), or
// the DD/FD-CB sub-table.
func (c *CPU) execPrefixedDDFD(idx *uint16) {
	op2 := c.fetchM1()
	for op2 == 0xDD || op2 == 0xFD {
		if op2 == 0xDD {
			idx = &c.IX
		} else {
			idx = &c.IY
		}
		op2 = c.fetchM1()
	}
	switch op2 {
	case 0xED:
		c.execED(c.fetchM1())
	case 0xCB:
		c.execDDFDCB(idx)
	default:
		c.execIndexed(idx, op2)
	}
}

func (c *CPU) fetchDisp() int8 {
	d := int8(c.bus.Peek8(c.PC))
	c.PC++
	return d
}

func (c *CPU) dispAddr(idx *uint16, d int8) uint16 {
	addr := *idx + uint16(int16(d))
	c.MEMPTR = addr
	return addr
}

// readIndexedReg/writeIndexedReg decode the 3-bit register field the
// same way readR8/writeR8 do, except codes 4 and 5 (H, L) are redirected
// to the high/low half of *idx. Code 6 ((HL)) must never reach these
// helpers: the caller is responsible for resolving it to a displaced
// memory access instead, since an (HL)-referencing opcode leaves the
// *other* operand (if H or L) pointed at the real H/L register, not at
// idx's halves.
func (c *CPU) readIndexedReg(code uint8, idx *uint16) uint8 {
	switch code {
	case 4:
		return uint8(*idx >> 8)
	case 5:
		return uint8(*idx)
	default:
		return c.readR8(code)
	}
}

func (c *CPU) writeIndexedReg(code uint8, idx *uint16, v uint8) {
	switch code {
	case 4:
		*idx = uint16(v)<<8 | *idx&0xFF
	case 5:
		*idx = *idx&0xFF00 | uint16(v)
	default:
		c.writeR8(code, v)
	}
}

// execIndexed is the DD/FD opcode table: IX/IY substituted for HL
// wherever the unprefixed opcode references HL, H or L; every other
// opcode "forgets" the prefix and runs identically to execUnprefixed.
func (c *CPU) execIndexed(idx *uint16, op2 uint8) {
	if op2 >= 0x40 && op2 <= 0x7F && op2 != 0x76 {
		dst, src := (op2>>3)&7, op2&7
		if dst == 6 || src == 6 {
			d := c.fetchDisp()
			addr := c.dispAddr(idx, d)
			c.bus.AddressOnBus(c.PC-1, 5)
			if dst == 6 {
				c.bus.Poke8(addr, c.readR8(src))
			} else {
				c.writeR8(dst, c.bus.Peek8(addr))
			}
			return
		}
		c.writeIndexedReg(dst, idx, c.readIndexedReg(src, idx))
		return
	}
	if op2 >= 0x80 && op2 <= 0xBF {
		src := op2 & 7
		var v uint8
		if src == 6 {
			d := c.fetchDisp()
			addr := c.dispAddr(idx, d)
			c.bus.AddressOnBus(c.PC-1, 5)
			v = c.bus.Peek8(addr)
		} else {
			v = c.readIndexedReg(src, idx)
		}
		c.aluOp((op2>>3)&7, v)
		return
	}

	switch op2 {
	case 0x09:
		*idx = c.addHL16WithBus(*idx, c.BC())
	case 0x19:
		*idx = c.addHL16WithBus(*idx, c.DE())
	case 0x21:
		*idx = c.imm16()
	case 0x22:
		addr := c.imm16()
		c.bus.Poke16(addr, *idx)
		c.MEMPTR = addr + 1
	case 0x23:
		*idx++
	case 0x24:
		hi := c.inc8(uint8(*idx >> 8))
		*idx = uint16(hi)<<8 | *idx&0xFF
	case 0x25:
		hi := c.dec8(uint8(*idx >> 8))
		*idx = uint16(hi)<<8 | *idx&0xFF
	case 0x26:
		v := c.imm8()
		*idx = uint16(v)<<8 | *idx&0xFF
	case 0x29:
		*idx = c.addHL16WithBus(*idx, *idx)
	case 0x2A:
		addr := c.imm16()
		*idx = c.bus.Peek16(addr)
		c.MEMPTR = addr + 1
	case 0x2B:
		*idx--
	case 0x2C:
		lo := c.inc8(uint8(*idx))
		*idx = *idx&0xFF00 | uint16(lo)
	case 0x2D:
		lo := c.dec8(uint8(*idx))
		*idx = *idx&0xFF00 | uint16(lo)
	case 0x2E:
		v := c.imm8()
		*idx = *idx&0xFF00 | uint16(v)
	case 0x34:
		d := c.fetchDisp()
		addr := c.dispAddr(idx, d)
		c.bus.AddressOnBus(c.PC-1, 5)
		v := c.bus.Peek8(addr)
		c.bus.AddressOnBus(addr, 1)
		c.bus.Poke8(addr, c.inc8(v))
	case 0x35:
		d := c.fetchDisp()
		addr := c.dispAddr(idx, d)
		c.bus.AddressOnBus(c.PC-1, 5)
		v := c.bus.Peek8(addr)
		c.bus.AddressOnBus(addr, 1)
		c.bus.Poke8(addr, c.dec8(v))
	case 0x36:
		d := c.fetchDisp()
		addr := c.dispAddr(idx, d)
		n := c.imm8()
		c.bus.AddressOnBus(c.PC-1, 2)
		c.bus.Poke8(addr, n)
	case 0x39:
		*idx = c.addHL16WithBus(*idx, c.SP)
	case 0xE1:
		*idx = c.pop()
	case 0xE3:
		c.exSPIndirect16(func() uint16 { return *idx }, func(v uint16) { *idx = v })
	case 0xE5:
		c.bus.AddressOnBus(c.pairIR(), 1)
		c.push(*idx)
	case 0xE9:
		c.PC = *idx
	case 0xF9:
		c.bus.AddressOnBus(c.pairIR(), 2)
		c.SP = *idx
	default:
		// Not an IX/IY-involving opcode: the prefix is forgotten and
		// this runs exactly as the unprefixed table says, having
		// already cost the prefix's own M1 fetch.
		c.execUnprefixed(op2)
	}
}
