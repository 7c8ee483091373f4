package cpu

// readR8/writeR8 decode a 3-bit register field as it appears in the
// unprefixed and CB tables: 0-5 are B,C,D,E,H,L, 6 is (HL), 7 is A.
func (c *CPU) readR8(code uint8) uint8 {
	switch code {
	case 0:
		return c.B
	case 1:
		return c.C
	case 2:
		return c.D
	case 3:
		return c.E
	case 4:
		return c.H
	case 5:
		return c.L
	case 6:
		return c.bus.Peek8(c.HL())
	default:
		return c.A
	}
}

func (c *CPU) writeR8(code uint8, v uint8) {
	switch code {
	case 0:
		c.B = v
	case 1:
		c.C = v
	case 2:
		c.D = v
	case 3:
		c.E = v
	case 4:
		c.H = v
	case 5:
		c.L = v
	case 6:
		c.bus.Poke8(c.HL(), v)
	default:
		c.A = v
	}
}

// readRP/writeRP decode a 2-bit pair field where 3 means SP: BC, DE, HL,
// SP.
func (c *CPU) readRP(code uint8) uint16 {
	switch code & 3 {
	case 0:
		return c.BC()
	case 1:
		return c.DE()
	case 2:
		return c.HL()
	default:
		return c.SP
	}
}

func (c *CPU) writeRP(code uint8, v uint16) {
	switch code & 3 {
	case 0:
		c.SetBC(v)
	case 1:
		c.SetDE(v)
	case 2:
		c.SetHL(v)
	default:
		c.SP = v
	}
}

// readRP2/writeRP2 decode a 2-bit pair field where 3 means AF, used by
// PUSH/POP: BC, DE, HL, AF.
func (c *CPU) readRP2(code uint8) uint16 {
	switch code & 3 {
	case 0:
		return c.BC()
	case 1:
		return c.DE()
	case 2:
		return c.HL()
	default:
		return c.AF()
	}
}

func (c *CPU) writeRP2(code uint8, v uint16) {
	switch code & 3 {
	case 0:
		c.SetBC(v)
	case 1:
		c.SetDE(v)
	case 2:
		c.SetHL(v)
	default:
		c.SetAF(v)
	}
}

// testCond evaluates one of the eight condition codes: NZ, Z, NC, C,
// PO, PE, P, M.
func (c *CPU) testCond(code uint8) bool {
	switch code {
	case 0:
		return !c.flag(FlagZ)
	case 1:
		return c.flag(FlagZ)
	case 2:
		return !c.flag(FlagC)
	case 3:
		return c.flag(FlagC)
	case 4:
		return !c.flag(FlagPV)
	case 5:
		return c.flag(FlagPV)
	case 6:
		return !c.flag(FlagS)
	default:
		return c.flag(FlagS)
	}
}

// aluOp dispatches the eight ALU operations in their canonical table
// order: ADD, ADC, SUB, SBC, AND, XOR, OR, CP.
func (c *CPU) aluOp(which uint8, operand uint8) {
	switch which {
	case 0:
		c.add(operand)
	case 1:
		c.adc(operand)
	case 2:
		c.sub(operand)
	case 3:
		c.sbc(operand)
	case 4:
		c.and(operand)
	case 5:
		c.xor(operand)
	case 6:
		c.or(operand)
	default:
		c.cp(operand)
	}
}
