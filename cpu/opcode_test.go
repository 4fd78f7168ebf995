package cpu

import (
	"math/bits"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSignExtend(t *testing.T) {
	assert := assert.New(t)

	for width := uint(1); width <= 16; width++ {
		shift := 16 - width
		for x := 0; x < 1<<width; x++ {
			v := uint16(x)
			// Shifting through int16 replicates the sign bit.
			expected := uint16(int16(v<<shift) >> shift)
			assert.Equal(expected, SignExtend(v, width), "width %d value %#x", width, x)
		}
	}
}

func TestSignExtendExamples(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		value uint16
		bits  uint
		out   uint16
	}){
		{0x1f, 5, 0xffff}, // -1
		{0x0f, 5, 0x000f}, // +15
		{0x10, 5, 0xfff0}, // -16
		{0x1ff, 9, 0xffff},
		{0x0ff, 9, 0x00ff},
		{0x100, 9, 0xff00},
		{0x7ff, 11, 0xffff},
		{0x3ff, 11, 0x03ff},
		{0x01, 1, 0xffff},
		{0x00, 1, 0x0000},
	}

	for _, entry := range table {
		assert.Equal(entry.out, SignExtend(entry.value, entry.bits), "%#x/%d", entry.value, entry.bits)
	}
}

func TestClassifyFlag(t *testing.T) {
	assert := assert.New(t)

	for v := 0; v < 1<<16; v++ {
		fl := ClassifyFlag(uint16(v))

		switch {
		case v == 0:
			assert.Equal(FLAG_ZERO, fl)
		case v>>15 != 0:
			assert.Equal(FLAG_NEGATIVE, fl)
		default:
			assert.Equal(FLAG_POSITIVE, fl)
		}

		// One-hot invariant.
		assert.Equal(1, bits.OnesCount16(uint16(fl)), "value %#x", v)
	}
}

func TestInstrDecode(t *testing.T) {
	assert := assert.New(t)

	// ADD r1, r2, #-5
	in := MakeOperateImm(OP_ADD, REG_R1, REG_R2, -5)
	assert.Equal(OP_ADD, in.Op())
	assert.Equal(REG_R1, in.DR())
	assert.Equal(REG_R2, in.SR1())
	assert.True(in.ImmBit())
	assert.Equal(uint16(0xfffb), in.Imm5())

	// AND r3, r4, r5
	in = MakeOperate(OP_AND, REG_R3, REG_R4, REG_R5)
	assert.Equal(OP_AND, in.Op())
	assert.False(in.ImmBit())
	assert.Equal(REG_R5, in.SR2())

	// BRnz #-2
	in = MakeBranch(FLAG_NEGATIVE|FLAG_ZERO, -2)
	assert.Equal(OP_BRANCH, in.Op())
	assert.Equal(FLAG_NEGATIVE|FLAG_ZERO, in.NZP())
	assert.Equal(uint16(0xfffe), in.PCOffset9())

	// JSR #1023
	in = MakeJumpR(1023)
	assert.Equal(OP_JUMPR, in.Op())
	assert.True(in.LongBit())
	assert.Equal(uint16(1023), in.PCOffset11())

	// JSRR r6
	in = MakeJumpRR(REG_R6)
	assert.Equal(OP_JUMPR, in.Op())
	assert.False(in.LongBit())
	assert.Equal(REG_R6, in.BaseR())

	// LDR r0, r6, #-32
	in = MakeBased(OP_LOADR, REG_R0, REG_R6, -32)
	assert.Equal(OP_LOADR, in.Op())
	assert.Equal(REG_R6, in.BaseR())
	assert.Equal(uint16(0xffe0), in.Offset6())

	// TRAP x25
	in = MakeTrap(TRAP_HALT)
	assert.Equal(OP_TRAP, in.Op())
	assert.Equal(TRAP_HALT, in.Vector())
}

func TestInstrDecodeWords(t *testing.T) {
	assert := assert.New(t)

	// Literal instruction words.
	table := [](struct {
		word Instr
		out  string
	}){
		{0x1021, "add r0 r0 #1"},
		{0x1000, "add r0 r0 r0"},
		{0x903f, "not r0 r0"},
		{0x0bfd, "brnp #-3"},
		{0xc1c0, "jmp r7"},
		{0xf025, "halt"},
	}

	for _, entry := range table {
		assert.Equal(entry.out, entry.word.String(), "%#04x", uint16(entry.word))
	}
}

func TestOpcodeNames(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("br", OP_BRANCH.String())
	assert.Equal("add", OP_ADD.String())
	assert.Equal("rti", OP_RTI.String())
	assert.Equal("res", OP_RES.String())
	assert.Equal("trap", OP_TRAP.String())
	assert.Equal(OP_TRAP, Instr(0xf025).Op())
	assert.Equal("nzp", (FLAG_NEGATIVE | FLAG_ZERO | FLAG_POSITIVE).String())
	assert.Equal("cond", REG_COND.String())
}
