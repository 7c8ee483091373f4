package cpm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmchacon/z80/cpu"
)

func TestLoadCOMArmsEntryAndExitVectors(t *testing.T) {
	b := NewFlatBus(nil)
	b.LoadCOM([]byte{0x00, 0x00})

	assert.Equal(t, uint8(0xC3), b.mem[0], "JP opcode at reset vector")
	assert.Equal(t, uint16(0x0100), uint16(b.mem[1])|uint16(b.mem[2])<<8, "JP target")
	assert.Equal(t, uint8(0xC9), b.mem[5], "RET at BDOS entry point")
}

func TestBDOSFunction2WritesOneCharacter(t *testing.T) {
	var out strings.Builder
	b := NewFlatBus(&out)
	chip, err := cpu.Init(&cpu.ChipDef{Bus: b})
	require.NoError(t, err)
	b.AttachCPU(chip)

	chip.C = 2
	chip.E = 'Q'
	b.Breakpoint(5)

	assert.Equal(t, "Q", out.String())
	assert.False(t, b.Done)
}

func TestBDOSFunction9PrintsUntilDollar(t *testing.T) {
	var out strings.Builder
	b := NewFlatBus(&out)
	chip, err := cpu.Init(&cpu.ChipDef{Bus: b})
	require.NoError(t, err)
	b.AttachCPU(chip)

	msg := "hello$"
	copy(b.mem[0x200:], msg)
	chip.C = 9
	chip.SetDE(0x200)
	b.Breakpoint(5)

	assert.Equal(t, "hello", out.String())
}

func TestBDOSFunction0SetsDone(t *testing.T) {
	b := NewFlatBus(nil)
	chip, err := cpu.Init(&cpu.ChipDef{Bus: b})
	require.NoError(t, err)
	b.AttachCPU(chip)

	chip.C = 0
	b.Breakpoint(5)

	assert.True(t, b.Done)
}

func TestBreakpointIgnoresOtherAddresses(t *testing.T) {
	var out strings.Builder
	b := NewFlatBus(&out)
	chip, err := cpu.Init(&cpu.ChipDef{Bus: b})
	require.NoError(t, err)
	b.AttachCPU(chip)

	chip.C = 2
	chip.E = 'X'
	b.Breakpoint(0x1234)

	assert.Empty(t, out.String(), "only address 5 is a BDOS call site")
	assert.False(t, b.Done)
}

func TestInPortDefaultsToFF(t *testing.T) {
	b := NewFlatBus(nil)
	assert.Equal(t, uint8(0xFF), b.InPort(0x00FE), "bare harness has no peripherals")
}

func TestTStatesAccumulateAcrossBusOps(t *testing.T) {
	b := NewFlatBus(nil)
	before := b.TStates()
	b.FetchOpcode(0)
	b.Peek8(1)
	b.Poke8(2, 0x00)
	b.InPort(0)
	b.OutPort(0, 0)
	b.AddressOnBus(0, 5)
	assert.Equal(t, before+4+3+3+4+4+5, b.TStates())
}
