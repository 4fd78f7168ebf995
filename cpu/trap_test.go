package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/crazymerlyn/lc3/console"
)

func TestTrapGetc(t *testing.T) {
	assert := assert.New(t)

	m, out := newTestMachine("A")
	m.Reg[REG_COND] = uint16(FLAG_POSITIVE)

	done, err := m.Execute(MakeTrap(TRAP_GETC))
	assert.NoError(err)
	assert.False(done)
	assert.Equal(uint16('A'), m.Reg[REG_R0])
	// GETC does not echo and does not update the flags.
	assert.Equal("", out.String())
	assert.Equal(uint16(FLAG_POSITIVE), m.Reg[REG_COND])
}

func TestTrapGetcExhausted(t *testing.T) {
	assert := assert.New(t)

	m, _ := newTestMachine("")

	_, err := m.Execute(MakeTrap(TRAP_GETC))
	assert.ErrorIs(err, console.ErrInputExhausted)
}

func TestTrapOut(t *testing.T) {
	assert := assert.New(t)

	m, out := newTestMachine("")
	// Only the low 8 bits of r0 are written.
	m.Reg[REG_R0] = 0xff42

	_, err := m.Execute(MakeTrap(TRAP_OUT))
	assert.NoError(err)
	assert.Equal("B", out.String())
}

func TestTrapPuts(t *testing.T) {
	assert := assert.New(t)

	m, out := newTestMachine("")
	m.Mem.LoadWords(0x4000, []uint16{'H', 'i', 0, 'X'})
	m.Reg[REG_R0] = 0x4000

	_, err := m.Execute(MakeTrap(TRAP_PUTS))
	assert.NoError(err)
	assert.Equal("Hi", out.String())
}

func TestTrapIn(t *testing.T) {
	assert := assert.New(t)

	m, out := newTestMachine("q")

	_, err := m.Execute(MakeTrap(TRAP_IN))
	assert.NoError(err)
	assert.Equal(IN_PROMPT, out.String())
	assert.Equal(uint16('q'), m.Reg[REG_R0])
}

func TestTrapInExhausted(t *testing.T) {
	assert := assert.New(t)

	m, out := newTestMachine("")

	_, err := m.Execute(MakeTrap(TRAP_IN))
	assert.ErrorIs(err, console.ErrInputExhausted)
	assert.Equal(IN_PROMPT, out.String())
}

func TestTrapPutsp(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		name  string
		words []uint16
		out   string
	}){
		{"packed", []uint16{'H' | 'i'<<8, '!', 0}, "Hi!"},
		{"odd", []uint16{'o' | 'k'<<8, 0}, "ok"},
		{"empty", []uint16{0, 'X'}, ""},
	}

	for _, entry := range table {
		m, out := newTestMachine("")
		m.Mem.LoadWords(0x4000, entry.words)
		m.Reg[REG_R0] = 0x4000

		_, err := m.Execute(MakeTrap(TRAP_PUTSP))
		assert.NoError(err, entry.name)
		assert.Equal(entry.out, out.String(), entry.name)
	}
}

func TestTrapHalt(t *testing.T) {
	assert := assert.New(t)

	m, out := newTestMachine("")

	done, err := m.Execute(MakeTrap(TRAP_HALT))
	assert.NoError(err)
	assert.True(done)
	assert.True(m.Halted())
	assert.Equal(HALT_NOTICE, out.String())
}

func TestTrapUndefined(t *testing.T) {
	assert := assert.New(t)

	for _, vector := range []TrapVector{0x00, 0x1f, 0x26, 0xff} {
		m, _ := newTestMachine("")

		done, err := m.Execute(MakeTrap(vector))
		assert.False(done, "vector %#02x", uint16(vector))
		assert.ErrorIs(err, ErrUndefinedTrap, "vector %#02x", uint16(vector))
		assert.ErrorIs(err, ErrInstr(0), "vector %#02x", uint16(vector))
	}
}
