package cpu

// execED dispatches the ED-prefixed table: 16-bit adc/sbc to HL, I/O
// and memory-block transfer/search instructions, the I/R/interrupt
// control group, and RRD/RLD. Any opcode not named here is undefined
// and executes as two NOPs, per the bus already having billed the M1
// fetch for both the ED byte and this opcode byte.
func (c *CPU) execED(op uint8) {
	x := op >> 6
	y := (op >> 3) & 7
	z := op & 7
	p := y >> 1
	q := y & 1

	if x == 1 {
		switch z {
		case 0: // IN r[y],(C); y==6 is the undocumented flags-only form
			v := c.inPortC()
			if y != 6 {
				c.writeR8(y, v)
			}
		case 1: // OUT (C),r[y]; y==6 writes 0 by this implementation's choice
			var v uint8
			if y != 6 {
				v = c.readR8(y)
			}
			port := c.BC()
			c.bus.OutPort(port, v)
			c.MEMPTR = port + 1
		case 2:
			c.bus.AddressOnBus(c.pairIR(), 7)
			reg, oper := c.HL(), c.readRP(p)
			if q == 0 {
				c.SetHL(c.sbc16(reg, oper))
			} else {
				c.SetHL(c.adc16(reg, oper))
			}
		case 3:
			addr := c.imm16()
			if q == 0 {
				c.bus.Poke16(addr, c.readRP(p))
			} else {
				c.writeRP(p, c.bus.Peek16(addr))
			}
			c.MEMPTR = addr + 1
		case 4:
			c.neg()
		case 5: // RETN (q==0) / RETI (q==1): both restore IFF1<-IFF2
			c.PC = c.pop()
			c.MEMPTR = c.PC
			c.IFF1 = c.IFF2
		case 6:
			switch y & 3 {
			case 0, 1:
				c.im = IM0
			case 2:
				c.im = IM1
			default:
				c.im = IM2
			}
		case 7:
			c.execEDMisc(y)
		}
		return
	}

	if x == 2 && z <= 3 && y >= 4 {
		c.execBlock(y, z)
		return
	}

	// Undefined ED opcode: two NOPs worth of nothing.
}

func (c *CPU) execEDMisc(y uint8) {
	switch y {
	case 0: // LD I,A
		c.bus.AddressOnBus(c.pairIR(), 1)
		c.I = c.A
	case 1: // LD R,A
		c.bus.AddressOnBus(c.pairIR(), 1)
		c.SetR(c.A)
	case 2: // LD A,I
		c.bus.AddressOnBus(c.pairIR(), 1)
		c.A = c.I
		c.setLDAIRFlags(c.I)
	case 3: // LD A,R
		c.bus.AddressOnBus(c.pairIR(), 1)
		r := c.GetR()
		c.A = r
		c.setLDAIRFlags(r)
	case 4:
		c.rrd()
	case 5:
		c.rld()
	default:
		// undefined; NOP
	}
}

// setLDAIRFlags implements the shared flag update for LD A,I and LD A,R:
// S, Z, bits 5/3 from the value; P/V <- IFF2; H, N cleared; C unchanged.
func (c *CPU) setLDAIRFlags(v uint8) {
	flags := sz53nAdd[v] &^ FlagH
	if c.IFF2 {
		flags |= FlagPV
	}
	c.flags = flags
	c.flagQ = true
}

func (c *CPU) inPortC() uint8 {
	port := c.BC()
	v := c.bus.InPort(port)
	c.MEMPTR = port + 1
	c.flags = sz53pnAdd[v]
	c.flagQ = true
	return v
}

func (c *CPU) rrd() {
	addr := c.HL()
	v := c.bus.Peek8(addr)
	c.bus.AddressOnBus(addr, 4)
	newA := c.A&0xF0 | v&0x0F
	newV := c.A<<4 | v>>4
	c.A = newA
	c.bus.Poke8(addr, newV)
	c.MEMPTR = addr + 1
	c.flags = sz53pnAdd[c.A]
	c.flagQ = true
}

func (c *CPU) rld() {
	addr := c.HL()
	v := c.bus.Peek8(addr)
	c.bus.AddressOnBus(addr, 4)
	newA := c.A&0xF0 | v>>4
	newV := v<<4 | c.A&0x0F
	c.A = newA
	c.bus.Poke8(addr, newV)
	c.MEMPTR = addr + 1
	c.flags = sz53pnAdd[c.A]
	c.flagQ = true
}

// execBlock dispatches the sixteen block transfer/search/I-O
// instructions: y selects LDI/LDD/LDIR/LDDR-style repetition (4-7), z
// selects the family (transfer, compare, input, output).
func (c *CPU) execBlock(y, z uint8) {
	repeat := y == 6 || y == 7
	decrement := y == 5 || y == 7
	switch z {
	case 0:
		c.blockTransfer(decrement)
		if repeat && c.BC() != 0 {
			c.bus.AddressOnBus(c.DE(), 5)
			c.PC -= 2
			c.MEMPTR = c.PC + 1
		}
	case 1:
		c.blockCompare(decrement)
		if repeat && c.BC() != 0 && !c.flag(FlagZ) {
			c.bus.AddressOnBus(c.HL(), 5)
			c.PC -= 2
			c.MEMPTR = c.PC + 1
		}
	case 2:
		c.blockInput(decrement)
		if repeat && c.B != 0 {
			c.bus.AddressOnBus(c.HL(), 5)
			c.PC -= 2
			c.MEMPTR = c.PC + 1
		}
	case 3:
		c.blockOutput(decrement)
		if repeat && c.B != 0 {
			c.bus.AddressOnBus(c.BC(), 5)
			c.PC -= 2
			c.MEMPTR = c.PC + 1
		}
	}
}

// blockTransfer implements LDI (decrement=false) and LDD (true). Bits
// 5/3 come from (A + the transferred byte): bit 1 feeds bit 5, bit 3
// feeds bit 3.
func (c *CPU) blockTransfer(decrement bool) {
	v := c.bus.Peek8(c.HL())
	c.bus.Poke8(c.DE(), v)
	c.bus.AddressOnBus(c.DE(), 2)
	if decrement {
		c.SetHL(c.HL() - 1)
		c.SetDE(c.DE() - 1)
	} else {
		c.SetHL(c.HL() + 1)
		c.SetDE(c.DE() + 1)
	}
	c.SetBC(c.BC() - 1)

	n := v + c.A
	flags := c.flags &^ (FlagN | FlagH | Flag5 | Flag3 | FlagPV)
	if c.BC() != 0 {
		flags |= FlagPV
	}
	flags |= n & Flag3
	if n&0x02 != 0 {
		flags |= Flag5
	}
	c.flags = flags
	c.flagQ = true
}

// blockCompare implements CPI (decrement=false) and CPD (true).
func (c *CPU) blockCompare(decrement bool) {
	v := c.bus.Peek8(c.HL())
	c.bus.AddressOnBus(c.HL(), 5)
	res := c.A - v
	halfCarry := (c.A^v^res)&0x10 != 0

	if decrement {
		c.SetHL(c.HL() - 1)
		c.MEMPTR--
	} else {
		c.SetHL(c.HL() + 1)
		c.MEMPTR++
	}
	c.SetBC(c.BC() - 1)

	n := res
	if halfCarry {
		n--
	}
	flags := uint8(FlagN)
	if res == 0 {
		flags |= FlagZ
	}
	if res&0x80 != 0 {
		flags |= FlagS
	}
	if halfCarry {
		flags |= FlagH
	}
	if c.BC() != 0 {
		flags |= FlagPV
	}
	flags |= n & Flag3
	if n&0x02 != 0 {
		flags |= Flag5
	}
	c.flags = flags
	c.flagQ = true
}

// blockInput implements INI (decrement=false) and IND (true).
func (c *CPU) blockInput(decrement bool) {
	c.bus.AddressOnBus(c.pairIR(), 1)
	port := c.BC()
	v := c.bus.InPort(port)
	c.MEMPTR = port + 1
	c.bus.Poke8(c.HL(), v)
	if decrement {
		c.SetHL(c.HL() - 1)
	} else {
		c.SetHL(c.HL() + 1)
	}
	newB := c.B - 1

	var k uint16
	if decrement {
		k = uint16(v) + uint16((c.C-1)&0xFF)
	} else {
		k = uint16(v) + uint16((c.C+1)&0xFF)
	}
	c.B = newB
	c.SetF(blockIOFlags(newB, v, k))
	c.flagQ = true
}

// blockOutput implements OUTI (decrement=false) and OUTD (true).
func (c *CPU) blockOutput(decrement bool) {
	newB := c.B - 1
	c.B = newB
	v := c.bus.Peek8(c.HL())
	c.bus.AddressOnBus(c.pairIR(), 1)
	port := c.BC()
	c.bus.OutPort(port, v)
	c.MEMPTR = port + 1
	if decrement {
		c.SetHL(c.HL() - 1)
	} else {
		c.SetHL(c.HL() + 1)
	}

	k := uint16(v) + uint16(c.L)
	c.SetF(blockIOFlags(newB, v, k))
	c.flagQ = true
}

// blockIOFlags implements the shared undocumented flag rule for
// INI/IND/OUTI/OUTD, as documented by Sean Young: N from bit 7 of the
// transferred byte, H/C from whether (byte + the relevant index byte)
// overflows a byte, P/V from the parity of ((that sum & 7) xor B').
func blockIOFlags(newB, v uint8, k uint16) uint8 {
	flags := sz53nAdd[newB] &^ Flag3 &^ Flag5
	flags |= newB & (Flag5 | Flag3)
	if v&0x80 != 0 {
		flags |= FlagN
	}
	if k > 0xFF {
		flags |= FlagH | FlagC
	}
	if evenParity(uint8(k&7) ^ newB) {
		flags |= FlagPV
	}
	return flags
}
