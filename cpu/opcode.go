package cpu

import (
	"fmt"
)

// Reg is a register file index.
type Reg int

const (
	REG_R0    = Reg(0) // r0
	REG_R1    = Reg(1) // r1
	REG_R2    = Reg(2) // r2
	REG_R3    = Reg(3) // r3
	REG_R4    = Reg(4) // r4
	REG_R5    = Reg(5) // r5
	REG_R6    = Reg(6) // r6
	REG_R7    = Reg(7) // r7
	REG_PC    = Reg(8) // pc
	REG_COND  = Reg(9) // cond
	REG_COUNT = 10
)

var regNames = [REG_COUNT]string{
	"r0", "r1", "r2", "r3", "r4", "r5", "r6", "r7", "pc", "cond",
}

// String returns the register mnemonic.
func (r Reg) String() string {
	if r < 0 || int(r) >= len(regNames) {
		return fmt.Sprintf("r?%d", int(r))
	}
	return regNames[r]
}

// InstrClass is the 4-bit instruction class in the top nibble of an
// instruction word.
type InstrClass int

const (
	OP_BRANCH = InstrClass(0)  // br
	OP_ADD    = InstrClass(1)  // add
	OP_LOAD   = InstrClass(2)  // ld
	OP_STORE  = InstrClass(3)  // st
	OP_JUMPR  = InstrClass(4)  // jsr
	OP_AND    = InstrClass(5)  // and
	OP_LOADR  = InstrClass(6)  // ldr
	OP_STORER = InstrClass(7)  // str
	OP_RTI    = InstrClass(8)  // rti
	OP_NOT    = InstrClass(9)  // not
	OP_LOADI  = InstrClass(10) // ldi
	OP_STOREI = InstrClass(11) // sti
	OP_JUMP   = InstrClass(12) // jmp
	OP_RES    = InstrClass(13) // res
	OP_LEA    = InstrClass(14) // lea
	OP_TRAP   = InstrClass(15) // trap
)

var opNames = [16]string{
	"br", "add", "ld", "st", "jsr", "and", "ldr", "str",
	"rti", "not", "ldi", "sti", "jmp", "res", "lea", "trap",
}

// String returns the opcode mnemonic.
func (op InstrClass) String() string {
	if op < 0 || int(op) >= len(opNames) {
		return fmt.Sprintf("op?%d", int(op))
	}
	return opNames[op]
}

// Flag is the one-hot condition state stored in the cond register.
// Exactly one of the three bits is set after any flag-updating
// instruction.
type Flag uint16

const (
	FLAG_POSITIVE = Flag(1 << 0) // p
	FLAG_ZERO     = Flag(1 << 1) // z
	FLAG_NEGATIVE = Flag(1 << 2) // n
)

// String returns the branch-condition suffix for the flag bits.
func (fl Flag) String() (out string) {
	if fl&FLAG_NEGATIVE != 0 {
		out += "n"
	}
	if fl&FLAG_ZERO != 0 {
		out += "z"
	}
	if fl&FLAG_POSITIVE != 0 {
		out += "p"
	}
	return
}

// ClassifyFlag derives the condition flag for a 16-bit result:
// zero if the result is zero, negative if bit 15 is set, positive
// otherwise.
func ClassifyFlag(value uint16) Flag {
	switch {
	case value == 0:
		return FLAG_ZERO
	case value>>15 != 0:
		return FLAG_NEGATIVE
	default:
		return FLAG_POSITIVE
	}
}

// TrapVector is the 8-bit service selector of a TRAP instruction.
type TrapVector uint16

const (
	TRAP_GETC  = TrapVector(0x20) // getc
	TRAP_OUT   = TrapVector(0x21) // out
	TRAP_PUTS  = TrapVector(0x22) // puts
	TRAP_IN    = TrapVector(0x23) // in
	TRAP_PUTSP = TrapVector(0x24) // putsp
	TRAP_HALT  = TrapVector(0x25) // halt
)

var trapNames = map[TrapVector]string{
	TRAP_GETC:  "getc",
	TRAP_OUT:   "out",
	TRAP_PUTS:  "puts",
	TRAP_IN:    "in",
	TRAP_PUTSP: "putsp",
	TRAP_HALT:  "halt",
}

// String returns the trap service name.
func (tv TrapVector) String() string {
	name, ok := trapNames[tv]
	if !ok {
		return fmt.Sprintf("trap?%#02x", uint16(tv))
	}
	return name
}

// SignExtend widens the low bits of value to a 16-bit two's-complement
// value by replicating bit bits-1 into all higher bits.
func SignExtend(value uint16, bits uint) uint16 {
	if (value>>(bits-1))&1 != 0 {
		value |= 0xffff << bits
	}
	return value
}

// Instr is a single 16-bit LC-3 instruction word. Field extraction is
// purely positional; register fields are always 3 bits wide and offset
// fields are sign extended to 16 bits on decode.
type Instr uint16

// Op returns the opcode from the top nibble.
func (in Instr) Op() InstrClass {
	return InstrClass(in >> 12)
}

// DR returns the destination (or store source) register field.
func (in Instr) DR() Reg {
	return Reg((in >> 9) & 0x7)
}

// SR1 returns the first source register field.
func (in Instr) SR1() Reg {
	return Reg((in >> 6) & 0x7)
}

// SR2 returns the second source register field of the register form
// of ADD and AND.
func (in Instr) SR2() Reg {
	return Reg(in & 0x7)
}

// BaseR returns the base register field of JMP, JSRR, LDR and STR.
func (in Instr) BaseR() Reg {
	return Reg((in >> 6) & 0x7)
}

// ImmBit reports whether ADD or AND use the immediate form.
func (in Instr) ImmBit() bool {
	return (in>>5)&1 != 0
}

// LongBit reports whether JSR uses the pc-relative long-offset form.
func (in Instr) LongBit() bool {
	return (in>>11)&1 != 0
}

// Imm5 returns the sign-extended 5-bit immediate.
func (in Instr) Imm5() uint16 {
	return SignExtend(uint16(in)&0x1f, 5)
}

// Offset6 returns the sign-extended 6-bit base offset.
func (in Instr) Offset6() uint16 {
	return SignExtend(uint16(in)&0x3f, 6)
}

// PCOffset9 returns the sign-extended 9-bit pc-relative offset.
func (in Instr) PCOffset9() uint16 {
	return SignExtend(uint16(in)&0x1ff, 9)
}

// PCOffset11 returns the sign-extended 11-bit pc-relative offset of
// the long form of JSR.
func (in Instr) PCOffset11() uint16 {
	return SignExtend(uint16(in)&0x7ff, 11)
}

// NZP returns the branch condition mask of BR.
func (in Instr) NZP() Flag {
	return Flag((in >> 9) & 0x7)
}

// Vector returns the trap vector from the low 8 bits.
func (in Instr) Vector() TrapVector {
	return TrapVector(in & 0xff)
}

// MakeOperate encodes the register form of ADD or AND.
func MakeOperate(op InstrClass, dr, sr1, sr2 Reg) Instr {
	return Instr(uint16(op)<<12 | uint16(dr)<<9 | uint16(sr1)<<6 | uint16(sr2))
}

// MakeOperateImm encodes the immediate form of ADD or AND.
func MakeOperateImm(op InstrClass, dr, sr1 Reg, imm int) Instr {
	return Instr(uint16(op)<<12 | uint16(dr)<<9 | uint16(sr1)<<6 | 1<<5 | uint16(imm)&0x1f)
}

// MakeNot encodes NOT; the unused low bits are all ones.
func MakeNot(dr, sr Reg) Instr {
	return Instr(uint16(OP_NOT)<<12 | uint16(dr)<<9 | uint16(sr)<<6 | 0x3f)
}

// MakeBranch encodes BR with a condition mask and 9-bit pc offset.
func MakeBranch(nzp Flag, offset int) Instr {
	return Instr(uint16(OP_BRANCH)<<12 | uint16(nzp)<<9 | uint16(offset)&0x1ff)
}

// MakeJump encodes JMP through a base register. Base r7 is RET.
func MakeJump(base Reg) Instr {
	return Instr(uint16(OP_JUMP)<<12 | uint16(base)<<6)
}

// MakeJumpR encodes the long pc-relative form of JSR.
func MakeJumpR(offset int) Instr {
	return Instr(uint16(OP_JUMPR)<<12 | 1<<11 | uint16(offset)&0x7ff)
}

// MakeJumpRR encodes the register form of JSR (JSRR).
func MakeJumpRR(base Reg) Instr {
	return Instr(uint16(OP_JUMPR)<<12 | uint16(base)<<6)
}

// MakePCRel encodes LD, LDI, LEA, ST or STI with a 9-bit pc offset.
func MakePCRel(op InstrClass, r Reg, offset int) Instr {
	return Instr(uint16(op)<<12 | uint16(r)<<9 | uint16(offset)&0x1ff)
}

// MakeBased encodes LDR or STR with a base register and 6-bit offset.
func MakeBased(op InstrClass, r, base Reg, offset int) Instr {
	return Instr(uint16(op)<<12 | uint16(r)<<9 | uint16(base)<<6 | uint16(offset)&0x3f)
}

// MakeTrap encodes TRAP with a service vector.
func MakeTrap(vector TrapVector) Instr {
	return Instr(uint16(OP_TRAP)<<12 | uint16(vector)&0xff)
}

// signed reinterprets a sign-extended 16-bit field as a Go int.
func signed(value uint16) int {
	return int(int16(value))
}

// String returns the assembly language representation of the
// instruction word.
func (in Instr) String() (out string) {
	op := in.Op()

	switch op {
	case OP_ADD, OP_AND:
		if in.ImmBit() {
			out = fmt.Sprintf("%v %v %v #%d", op, in.DR(), in.SR1(), signed(in.Imm5()))
		} else {
			out = fmt.Sprintf("%v %v %v %v", op, in.DR(), in.SR1(), in.SR2())
		}
	case OP_NOT:
		out = fmt.Sprintf("%v %v %v", op, in.DR(), in.SR1())
	case OP_BRANCH:
		out = fmt.Sprintf("%v%v #%d", op, in.NZP(), signed(in.PCOffset9()))
	case OP_JUMP:
		out = fmt.Sprintf("%v %v", op, in.BaseR())
	case OP_JUMPR:
		if in.LongBit() {
			out = fmt.Sprintf("%v #%d", op, signed(in.PCOffset11()))
		} else {
			out = fmt.Sprintf("jsrr %v", in.BaseR())
		}
	case OP_LOAD, OP_LOADI, OP_LEA, OP_STORE, OP_STOREI:
		out = fmt.Sprintf("%v %v #%d", op, in.DR(), signed(in.PCOffset9()))
	case OP_LOADR, OP_STORER:
		out = fmt.Sprintf("%v %v %v #%d", op, in.DR(), in.BaseR(), signed(in.Offset6()))
	case OP_TRAP:
		out = in.Vector().String()
	default:
		out = op.String()
	}

	return
}
