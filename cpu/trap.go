package cpu

import (
	"errors"
	"log"
)

// Prompt and halt notice emitted by the IN and HALT services.
const (
	IN_PROMPT   = "Enter a character: "
	HALT_NOTICE = "HALT\n"
)

// trap dispatches a TRAP instruction to one of the six console
// services. Any other vector is a fatal decode error.
func (m *Machine) trap(vector TrapVector) (done bool, err error) {
	if m.Verbose {
		log.Printf("trap: %v", vector)
	}

	switch vector {
	case TRAP_GETC:
		err = m.trapGetc()
	case TRAP_OUT:
		err = m.Console.WriteByte(byte(m.Reg[REG_R0]))
	case TRAP_PUTS:
		err = m.trapPuts()
	case TRAP_IN:
		err = m.Console.WriteString(IN_PROMPT)
		if err == nil {
			err = m.trapGetc()
		}
	case TRAP_PUTSP:
		err = m.trapPutsp()
	case TRAP_HALT:
		err = m.Console.WriteString(HALT_NOTICE)
		m.halted = true
		done = true
	default:
		err = errors.Join(ErrUndefinedTrap, errors.New(vector.String()))
	}

	return
}

// trapGetc blocks on one input byte and stores it zero-extended into
// r0. The condition flags are not updated.
func (m *Machine) trapGetc() (err error) {
	b, err := m.Console.ReadByte()
	if err != nil {
		return
	}
	m.Reg[REG_R0] = uint16(b)

	return
}

// trapPuts writes the low 8 bits of each word starting at the address
// in r0, one character per word, stopping at the first zero word.
func (m *Machine) trapPuts() (err error) {
	for addr := m.Reg[REG_R0]; ; addr++ {
		word := m.Mem.Read(addr)
		if word == 0 {
			return
		}
		err = m.Console.WriteByte(byte(word))
		if err != nil {
			return
		}
	}
}

// trapPutsp writes two packed characters per word starting at the
// address in r0: the low 8 bits first, then the high 8 bits if they
// are nonzero. Stops at the first zero word.
func (m *Machine) trapPutsp() (err error) {
	for addr := m.Reg[REG_R0]; ; addr++ {
		word := m.Mem.Read(addr)
		if word == 0 {
			return
		}
		err = m.Console.WriteByte(byte(word))
		if err != nil {
			return
		}
		if word>>8 != 0 {
			err = m.Console.WriteByte(byte(word >> 8))
			if err != nil {
				return
			}
		}
	}
}
