package cpu

// This file implements the primitive operations on A and on flags that
// the opcode handlers compose. Each writes flags exactly as silicon
// does; none of them can fail.

func (c *CPU) add(operand uint8) {
	sum := uint16(c.A) + uint16(operand)
	res := uint8(sum)
	h := (c.A^operand^res)&0x10 != 0
	v := ^(c.A^operand)&(c.A^res)&0x80 != 0
	flags := sz53nAdd[res]
	if h {
		flags |= FlagH
	}
	if v {
		flags |= FlagPV
	}
	c.flags = flags
	c.carry = sum > 0xFF
	c.A = res
	c.flagQ = true
}

func (c *CPU) adc(operand uint8) {
	var cin uint16
	if c.carry {
		cin = 1
	}
	sum := uint16(c.A) + uint16(operand) + cin
	res := uint8(sum)
	h := (c.A^operand^res)&0x10 != 0
	v := ^(c.A^operand)&(c.A^res)&0x80 != 0
	flags := sz53nAdd[res]
	if h {
		flags |= FlagH
	}
	if v {
		flags |= FlagPV
	}
	c.flags = flags
	c.carry = sum > 0xFF
	c.A = res
	c.flagQ = true
}

func (c *CPU) sub(operand uint8) {
	diff := int(c.A) - int(operand)
	res := uint8(diff)
	h := (c.A^operand^res)&0x10 != 0
	v := (c.A^operand)&(c.A^res)&0x80 != 0
	flags := sz53nSub[res]
	if h {
		flags |= FlagH
	}
	if v {
		flags |= FlagPV
	}
	c.flags = flags
	c.carry = diff < 0
	c.A = res
	c.flagQ = true
}

func (c *CPU) sbc(operand uint8) {
	cin := 0
	if c.carry {
		cin = 1
	}
	diff := int(c.A) - int(operand) - cin
	res := uint8(diff)
	h := (c.A^operand^res)&0x10 != 0
	v := (c.A^operand)&(c.A^res)&0x80 != 0
	flags := sz53nSub[res]
	if h {
		flags |= FlagH
	}
	if v {
		flags |= FlagPV
	}
	c.flags = flags
	c.carry = diff < 0
	c.A = res
	c.flagQ = true
}

// cp compares A against operand without writing A; bits 5/3 come from
// the operand rather than from the result.
func (c *CPU) cp(operand uint8) {
	diff := int(c.A) - int(operand)
	res := uint8(diff)
	h := (c.A^operand^res)&0x10 != 0
	v := (c.A^operand)&(c.A^res)&0x80 != 0
	flags := sz53nSub[res]&^(Flag5|Flag3) | operand&(Flag5|Flag3)
	if h {
		flags |= FlagH
	}
	if v {
		flags |= FlagPV
	}
	c.flags = flags
	c.carry = diff < 0
	c.flagQ = true
}

func (c *CPU) and(operand uint8) {
	c.A &= operand
	c.flags = sz53pnAdd[c.A] | FlagH
	c.carry = false
	c.flagQ = true
}

func (c *CPU) or(operand uint8) {
	c.A |= operand
	c.flags = sz53pnAdd[c.A]
	c.carry = false
	c.flagQ = true
}

func (c *CPU) xor(operand uint8) {
	c.A ^= operand
	c.flags = sz53pnAdd[c.A]
	c.carry = false
	c.flagQ = true
}

func (c *CPU) inc8(x uint8) uint8 {
	res := x + 1
	flags := sz53nAdd[res]
	if res&0x0F == 0x00 {
		flags |= FlagH
	}
	if res == 0x80 {
		flags |= FlagPV
	}
	c.flags = flags
	c.flagQ = true
	return res
}

func (c *CPU) dec8(x uint8) uint8 {
	res := x - 1
	flags := sz53nSub[res]
	if res&0x0F == 0x0F {
		flags |= FlagH
	}
	if res == 0x7F {
		flags |= FlagPV
	}
	c.flags = flags
	c.flagQ = true
	return res
}

func (c *CPU) add16(reg, oper uint16) uint16 {
	sum := uint32(reg) + uint32(oper)
	res := uint16(sum)
	h := (reg^oper^res)&0x1000 != 0
	flags := c.flags &^ (FlagN | FlagH | Flag5 | Flag3)
	flags |= uint8(res>>8) & (Flag5 | Flag3)
	if h {
		flags |= FlagH
	}
	c.flags = flags
	c.carry = sum > 0xFFFF
	c.MEMPTR = reg + 1
	c.flagQ = true
	return res
}

func (c *CPU) adc16(reg, oper uint16) uint16 {
	var cin uint32
	if c.carry {
		cin = 1
	}
	sum := uint32(reg) + uint32(oper) + cin
	res := uint16(sum)
	h := (reg^oper^res)&0x1000 != 0
	v := ^(reg^oper)&(reg^res)&0x8000 != 0
	var flags uint8
	if res&0x8000 != 0 {
		flags |= FlagS
	}
	if res == 0 {
		flags |= FlagZ
	}
	flags |= uint8(res>>8) & (Flag5 | Flag3)
	if h {
		flags |= FlagH
	}
	if v {
		flags |= FlagPV
	}
	c.flags = flags
	c.carry = sum > 0xFFFF
	c.MEMPTR = reg + 1
	c.flagQ = true
	return res
}

func (c *CPU) sbc16(reg, oper uint16) uint16 {
	var cin int32
	if c.carry {
		cin = 1
	}
	diff := int32(reg) - int32(oper) - cin
	res := uint16(diff)
	h := (reg^oper^res)&0x1000 != 0
	v := (reg^oper)&(reg^res)&0x8000 != 0
	flags := uint8(FlagN)
	if res&0x8000 != 0 {
		flags |= FlagS
	}
	if res == 0 {
		flags |= FlagZ
	}
	flags |= uint8(res>>8) & (Flag5 | Flag3)
	if h {
		flags |= FlagH
	}
	if v {
		flags |= FlagPV
	}
	c.flags = flags
	c.carry = diff < 0
	c.MEMPTR = reg + 1
	c.flagQ = true
	return res
}

func (c *CPU) setRotateFlags(res uint8, carryOut bool) {
	c.flags = sz53pnAdd[res]
	c.carry = carryOut
	c.flagQ = true
}

func (c *CPU) rlc(x uint8) uint8 {
	carryOut := x&0x80 != 0
	res := x << 1
	if carryOut {
		res |= 1
	}
	c.setRotateFlags(res, carryOut)
	return res
}

func (c *CPU) rl(x uint8) uint8 {
	carryOut := x&0x80 != 0
	res := x << 1
	if c.carry {
		res |= 1
	}
	c.setRotateFlags(res, carryOut)
	return res
}

func (c *CPU) rrc(x uint8) uint8 {
	carryOut := x&1 != 0
	res := x >> 1
	if carryOut {
		res |= 0x80
	}
	c.setRotateFlags(res, carryOut)
	return res
}

func (c *CPU) rr(x uint8) uint8 {
	carryOut := x&1 != 0
	res := x >> 1
	if c.carry {
		res |= 0x80
	}
	c.setRotateFlags(res, carryOut)
	return res
}

func (c *CPU) sla(x uint8) uint8 {
	carryOut := x&0x80 != 0
	res := x << 1
	c.setRotateFlags(res, carryOut)
	return res
}

func (c *CPU) sra(x uint8) uint8 {
	carryOut := x&1 != 0
	res := (x >> 1) | (x & 0x80)
	c.setRotateFlags(res, carryOut)
	return res
}

// sll is the undocumented shift-left-logical variant that always sets
// bit 0 of the result to 1.
func (c *CPU) sll(x uint8) uint8 {
	carryOut := x&0x80 != 0
	res := (x << 1) | 1
	c.setRotateFlags(res, carryOut)
	return res
}

func (c *CPU) srl(x uint8) uint8 {
	carryOut := x&1 != 0
	res := x >> 1
	c.setRotateFlags(res, carryOut)
	return res
}

func (c *CPU) rlca() {
	carryOut := c.A&0x80 != 0
	c.A <<= 1
	if carryOut {
		c.A |= 1
	}
	c.flags = c.flags&^(FlagH|FlagN|Flag5|Flag3) | c.A&(Flag5|Flag3)
	c.carry = carryOut
	c.flagQ = true
}

func (c *CPU) rrca() {
	carryOut := c.A&1 != 0
	c.A >>= 1
	if carryOut {
		c.A |= 0x80
	}
	c.flags = c.flags&^(FlagH|FlagN|Flag5|Flag3) | c.A&(Flag5|Flag3)
	c.carry = carryOut
	c.flagQ = true
}

func (c *CPU) rla() {
	carryOut := c.A&0x80 != 0
	oldCarry := c.carry
	c.A <<= 1
	if oldCarry {
		c.A |= 1
	}
	c.flags = c.flags&^(FlagH|FlagN|Flag5|Flag3) | c.A&(Flag5|Flag3)
	c.carry = carryOut
	c.flagQ = true
}

func (c *CPU) rra() {
	carryOut := c.A&1 != 0
	oldCarry := c.carry
	c.A >>= 1
	if oldCarry {
		c.A |= 0x80
	}
	c.flags = c.flags&^(FlagH|FlagN|Flag5|Flag3) | c.A&(Flag5|Flag3)
	c.carry = carryOut
	c.flagQ = true
}

// neg implements NEG: A := 0 - A.
func (c *CPU) neg() {
	operand := c.A
	res := uint8(0 - operand)
	h := operand&0x0F != 0
	v := operand == 0x80
	flags := sz53nSub[res]
	if h {
		flags |= FlagH
	}
	if v {
		flags |= FlagPV
	}
	c.flags = flags
	c.carry = operand != 0
	c.A = res
	c.flagQ = true
}

// cpl implements CPL: A := ^A. H and N are forced to 1; S, Z, P/V, C are
// unchanged; bits 5/3 come from the new A.
func (c *CPU) cpl() {
	c.A = ^c.A
	c.flags = c.flags&^(Flag5|Flag3) | c.A&(Flag5|Flag3) | FlagH | FlagN
	c.flagQ = true
}

// ccf implements CCF: C inverts, H takes the old carry, N clears; bits
// 5/3 follow the documented flagQ-gated rule (Young/Rak): if the
// previous instruction wrote F, bits 5/3 come from A alone, otherwise
// from (F | A).
func (c *CPU) ccf() {
	oldF := c.GetF()
	oldCarry := c.carry
	c.carry = !oldCarry
	c.setFlag(FlagH, oldCarry)
	c.setFlag(FlagN, false)
	var regQPrev uint8
	if c.lastFlagQ {
		regQPrev = oldF
	}
	bits53 := (regQPrev ^ oldF | c.A) & (Flag5 | Flag3)
	c.flags = c.flags&^(Flag5|Flag3) | bits53
	c.flagQ = true
}

// scf implements SCF: C sets, H and N clear; bits 5/3 follow the same
// rule as ccf.
func (c *CPU) scf() {
	oldF := c.GetF()
	c.carry = true
	c.setFlag(FlagH, false)
	c.setFlag(FlagN, false)
	var regQPrev uint8
	if c.lastFlagQ {
		regQPrev = oldF
	}
	bits53 := (regQPrev ^ oldF | c.A) & (Flag5 | Flag3)
	c.flags = c.flags&^(Flag5|Flag3) | bits53
	c.flagQ = true
}

// daa adjusts A to valid packed BCD after an add or subtract.
func (c *CPU) daa() {
	a := c.A
	cf := c.carry
	hf := c.flag(FlagH)
	nf := c.flag(FlagN)

	var add uint8
	if hf || a&0x0F > 9 {
		add = 0x06
	}
	if cf || a > 0x99 {
		add |= 0x60
		cf = true
	}

	var hfNew bool
	if nf {
		hfNew = hf && a&0x0F < 6
		a -= add
	} else {
		hfNew = a&0x0F > 9
		a += add
	}

	c.A = a
	flags := sz53pnAdd[a]
	if hfNew {
		flags |= FlagH
	}
	if nf {
		flags |= FlagN
	}
	c.flags = flags
	c.carry = cf
	c.flagQ = true
}

// bitTest implements BIT n,x. bits53Source supplies the byte bits 5/3
// are copied from, per the caller's addressing mode: x itself for the
// register forms, MEMPTR's high byte for BIT n,(HL), or the high byte of
// the (IX/IY+d) effective address.
func (c *CPU) bitTest(n uint, x, bits53Source uint8) {
	zero := x&(1<<n) == 0
	flags := uint8(FlagH)
	if zero {
		flags |= FlagZ | FlagPV
	}
	if n == 7 && x&0x80 != 0 {
		flags |= FlagS
	}
	flags |= bits53Source & (Flag5 | Flag3)
	c.flags = flags
	c.flagQ = true
}
