// Copyright 2026, CrazyMerlyn <crazymerlyn@users.noreply.github.com>

// Package emulator wires the LC-3 machine to its console and loads
// program images into memory before execution starts.
package emulator

import (
	"encoding/binary"
	"io"
	"iter"

	"github.com/crazymerlyn/lc3/console"
	"github.com/crazymerlyn/lc3/cpu"
	"github.com/crazymerlyn/lc3/internal"
)

// Emulator state. Machine + console + optional program listing.
type Emulator struct {
	Verbose      bool            // If set, enables verbose logging.
	*cpu.Machine                 // Reference to the machine simulation.
	Program      *cpu.Program    // Currently loaded program listing, if assembled here.
	Console      console.Console // Console backing the trap services.
}

// NewEmulator creates a new emulator. The console streams are left
// unset; callers attach stdin/stdout or test buffers.
func NewEmulator() (emu *Emulator) {
	emu = &Emulator{}
	emu.Machine = cpu.NewMachine(&emu.Console)

	return
}

// Defines returns an iterator over all of the defines.
func (emu *Emulator) Defines() iter.Seq2[string, string] {
	return internal.IterSeq2Concat(
		emu.Machine.Defines(),
		emu.Console.Defines(),
	)
}

// LoadImage installs a program image into memory: big-endian 16-bit
// words, the first of which is the origin address. The pc is set to
// the origin.
func (emu *Emulator) LoadImage(input io.Reader) (origin uint16, err error) {
	data, err := io.ReadAll(input)
	if err != nil {
		return
	}
	if len(data) < 2 || len(data)%2 != 0 {
		err = ErrImageTruncated
		return
	}

	origin = binary.BigEndian.Uint16(data[:2])
	addr := origin
	for at := 2; at < len(data); at += 2 {
		emu.Mem.Write(addr, binary.BigEndian.Uint16(data[at:at+2]))
		addr++
	}
	emu.Reg[cpu.REG_PC] = origin

	return
}

// LoadProgram installs an assembled program into memory and sets the
// pc to its origin.
func (emu *Emulator) LoadProgram(prog *cpu.Program) {
	emu.Program = prog
	for addr, word := range prog.Words() {
		emu.Mem.Write(addr, word)
	}
	emu.Reg[cpu.REG_PC] = prog.Origin
}

// LineNo returns the source line number for the executing
// instruction, or 0 when no program listing is loaded.
func (emu *Emulator) LineNo() (lineno int) {
	if emu.Program == nil {
		return
	}
	op := emu.Program.Debug(emu.Reg[cpu.REG_PC])
	if op != nil {
		lineno = op.LineNo
	}

	return
}

// Run executes instructions until the machine halts. Fatal errors are
// wrapped with the pc and source line of the faulting instruction.
func (emu *Emulator) Run() (err error) {
	emu.Machine.Verbose = emu.Verbose

	for done := false; !done; {
		pc := emu.Reg[cpu.REG_PC]
		lineno := emu.LineNo()
		done, err = emu.Step()
		if err != nil {
			err = &ErrRuntime{Pc: pc, LineNo: lineno, Err: err}
			return
		}
	}

	return
}
