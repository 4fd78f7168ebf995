package cpu

import (
	"encoding/binary"
	"iter"
)

// LinkKind selects how a pending label reference is patched into an
// assembled word during the link pass.
type LinkKind int

const (
	LINK_NONE       = LinkKind(0) // No label reference.
	LINK_PCOFFSET9  = LinkKind(1) // 9-bit pc-relative offset.
	LINK_PCOFFSET11 = LinkKind(2) // 11-bit pc-relative offset.
	LINK_ABSOLUTE   = LinkKind(3) // Full 16-bit address (.fill).
)

// Opcode represents a line of assembled code with its source location
// and generated words.
type Opcode struct {
	LineNo    int
	Addr      uint16
	Words     []string
	Instrs    []uint16
	LinkLabel string
	LinkKind  LinkKind
}

// Program is an assembled program: an origin address and the opcodes
// laid out contiguously from it.
type Program struct {
	Origin  uint16
	Opcodes []Opcode
}

// Debug returns the opcode covering addr, or nil.
func (prog *Program) Debug(addr uint16) (op *Opcode) {
	for n := range prog.Opcodes {
		o := &prog.Opcodes[n]
		if addr >= o.Addr && addr < o.Addr+uint16(len(o.Instrs)) {
			op = o
			break
		}
	}

	return
}

// Size returns the number of assembled words.
func (prog *Program) Size() (size int) {
	for _, op := range prog.Opcodes {
		size += len(op.Instrs)
	}

	return
}

// Words returns an iterator over the assembled (address, word) pairs.
func (prog *Program) Words() iter.Seq2[uint16, uint16] {
	return func(yield func(addr uint16, word uint16) bool) {
		for _, op := range prog.Opcodes {
			for n, word := range op.Instrs {
				if !yield(op.Addr+uint16(n), word) {
					return
				}
			}
		}
	}
}

// Binary returns the object image: big-endian 16-bit words with the
// origin as the leading word, the format the image loader expects.
func (prog *Program) Binary() (bin []byte) {
	bin = binary.BigEndian.AppendUint16(bin, prog.Origin)
	for _, word := range prog.Words() {
		bin = binary.BigEndian.AppendUint16(bin, word)
	}

	return
}
