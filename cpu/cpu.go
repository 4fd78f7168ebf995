// Copyright 2026, CrazyMerlyn <crazymerlyn@users.noreply.github.com>

package cpu

import (
	"errors"
	"fmt"
	"iter"
	"log"
	"maps"

	"github.com/crazymerlyn/lc3/console"
)

var _machine_defines = map[string]string{
	"MEMORY_SIZE":            fmt.Sprintf("%#x", MEMORY_SIZE),
	"TRAP_TABLE_ORIGIN":      fmt.Sprintf("%#x", TRAP_TABLE_ORIGIN),
	"INTERRUPT_TABLE_ORIGIN": fmt.Sprintf("%#x", INTERRUPT_TABLE_ORIGIN),
	"SYSTEM_ORIGIN":          fmt.Sprintf("%#x", SYSTEM_ORIGIN),
	"USER_ORIGIN":            fmt.Sprintf("%#x", USER_ORIGIN),
	"TRAP_GETC":              fmt.Sprintf("%#x", uint16(TRAP_GETC)),
	"TRAP_OUT":               fmt.Sprintf("%#x", uint16(TRAP_OUT)),
	"TRAP_PUTS":              fmt.Sprintf("%#x", uint16(TRAP_PUTS)),
	"TRAP_IN":                fmt.Sprintf("%#x", uint16(TRAP_IN)),
	"TRAP_PUTSP":             fmt.Sprintf("%#x", uint16(TRAP_PUTSP)),
	"TRAP_HALT":              fmt.Sprintf("%#x", uint16(TRAP_HALT)),
}

// Machine is the simulation context for one LC-3 processor: the
// register file, the memory, and the console the trap services talk
// to. It is exclusively owned by its execution loop; external callers
// may only install a program image before Run and inspect state after
// it returns.
type Machine struct {
	Verbose bool // Set to enable verbose logging.

	Console *console.Console // Console for the trap services.

	Reg [REG_COUNT]uint16 // Register file: r0-r7, pc, cond.
	Mem Memory            // Flat 65536-word memory.

	Ticks int // Executed instruction counter.

	halted bool
}

// NewMachine creates a machine wired to a console, reset to the
// default program origin.
func NewMachine(con *console.Console) (m *Machine) {
	m = &Machine{
		Console: con,
	}
	m.Reset(USER_ORIGIN)

	return
}

// Defines for the machine.
func (m *Machine) Defines() iter.Seq2[string, string] {
	return maps.All(_machine_defines)
}

// Reset clears the registers and memory, sets the pc to origin, and
// leaves the condition flags in the zero state.
func (m *Machine) Reset(origin uint16) {
	if m.Verbose {
		log.Printf("cpu: reset to %#04x", origin)
	}

	clear(m.Reg[:])
	clear(m.Mem[:])
	m.Reg[REG_PC] = origin
	m.Reg[REG_COND] = uint16(FLAG_ZERO)
	m.Ticks = 0
	m.halted = false
}

// Halted reports whether the machine has reached the terminal state.
func (m *Machine) Halted() bool {
	return m.halted
}

// String returns the current machine state as a string.
func (m *Machine) String() (text string) {
	for r := REG_R0; r < REG_COUNT; r++ {
		var strval string
		switch r {
		case REG_COND:
			strval = Flag(m.Reg[r]).String()
		default:
			strval = fmt.Sprintf("%04X", m.Reg[r])
		}
		text += fmt.Sprintf("% 5s: %v\n", r.String(), strval)
	}

	return
}

// updateFlags sets the condition register from the value in r.
func (m *Machine) updateFlags(r Reg) {
	m.Reg[REG_COND] = uint16(ClassifyFlag(m.Reg[r]))
}

// Step executes a single instruction cycle: fetch the word at the pc,
// advance the pc, decode, dispatch. The pc increment happens before
// any pc-relative offset is computed; every pc-relative target is
// relative to the address of the next instruction. Returns done once
// the machine has halted.
func (m *Machine) Step() (done bool, err error) {
	if m.halted {
		done = true
		return
	}

	in := Instr(m.Mem.Read(m.Reg[REG_PC]))
	m.Reg[REG_PC]++

	return m.Execute(in)
}

// Run steps until the machine halts or a fatal error occurs.
func (m *Machine) Run() (err error) {
	for done := m.halted; !done; {
		done, err = m.Step()
		if err != nil {
			return
		}
	}

	return
}

// Execute executes a single fetched instruction. The pc has already
// been advanced past the instruction word.
func (m *Machine) Execute(in Instr) (done bool, err error) {
	defer func() {
		if err != nil {
			err = errors.Join(ErrInstr(in), err)
		}
	}()
	if m.Verbose {
		log.Printf("%04x: %v", m.Reg[REG_PC]-1, in)
	}

	m.Ticks += 1

	switch in.Op() {
	case OP_ADD:
		dr := in.DR()
		if in.ImmBit() {
			m.Reg[dr] = m.Reg[in.SR1()] + in.Imm5()
		} else {
			m.Reg[dr] = m.Reg[in.SR1()] + m.Reg[in.SR2()]
		}
		m.updateFlags(dr)

	case OP_AND:
		dr := in.DR()
		if in.ImmBit() {
			m.Reg[dr] = m.Reg[in.SR1()] & in.Imm5()
		} else {
			m.Reg[dr] = m.Reg[in.SR1()] & m.Reg[in.SR2()]
		}
		m.updateFlags(dr)

	case OP_NOT:
		dr := in.DR()
		m.Reg[dr] = ^m.Reg[in.SR1()]
		m.updateFlags(dr)

	case OP_BRANCH:
		if uint16(in.NZP())&m.Reg[REG_COND] != 0 {
			m.Reg[REG_PC] += in.PCOffset9()
		}

	case OP_JUMP:
		m.Reg[REG_PC] = m.Reg[in.BaseR()]

	case OP_JUMPR:
		// Link first: r7 gets the already advanced pc.
		m.Reg[REG_R7] = m.Reg[REG_PC]
		if in.LongBit() {
			m.Reg[REG_PC] += in.PCOffset11()
		} else {
			m.Reg[REG_PC] = m.Reg[in.BaseR()]
		}

	case OP_LOAD:
		dr := in.DR()
		m.Reg[dr] = m.Mem.Read(m.Reg[REG_PC] + in.PCOffset9())
		m.updateFlags(dr)

	case OP_LOADI:
		dr := in.DR()
		m.Reg[dr] = m.Mem.Read(m.Mem.Read(m.Reg[REG_PC] + in.PCOffset9()))
		m.updateFlags(dr)

	case OP_LOADR:
		dr := in.DR()
		m.Reg[dr] = m.Mem.Read(m.Reg[in.BaseR()] + in.Offset6())
		m.updateFlags(dr)

	case OP_LEA:
		dr := in.DR()
		m.Reg[dr] = m.Reg[REG_PC] + in.PCOffset9()
		m.updateFlags(dr)

	case OP_STORE:
		m.Mem.Write(m.Reg[REG_PC]+in.PCOffset9(), m.Reg[in.DR()])

	case OP_STOREI:
		m.Mem.Write(m.Mem.Read(m.Reg[REG_PC]+in.PCOffset9()), m.Reg[in.DR()])

	case OP_STORER:
		m.Mem.Write(m.Reg[in.BaseR()]+in.Offset6(), m.Reg[in.DR()])

	case OP_TRAP:
		done, err = m.trap(in.Vector())

	case OP_RTI, OP_RES:
		err = ErrIllegalOpcode
	}

	return
}
