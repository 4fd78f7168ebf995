package cpu

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// doAssemble assembles a program from source lines.
func doAssemble(t *testing.T, lines ...string) *Program {
	t.Helper()

	asm := &Assembler{}
	prog, err := asm.Parse(strings.NewReader(strings.Join(lines, "\n")))
	if err != nil {
		t.Fatalf("%v", err)
	}

	return prog
}

// progWords flattens the assembled words.
func progWords(prog *Program) (words []uint16) {
	for _, word := range prog.Words() {
		words = append(words, word)
	}

	return
}

func TestAssembleBasic(t *testing.T) {
	assert := assert.New(t)

	prog := doAssemble(t,
		".orig x3000",
		"add r0, r0, #1",
		"halt",
		".end",
	)

	assert.Equal(uint16(0x3000), prog.Origin)
	assert.Equal([]uint16{0x1021, 0xf025}, progWords(prog))
	assert.Equal(2, prog.Size())
}

func TestAssembleForwardLabel(t *testing.T) {
	assert := assert.New(t)

	prog := doAssemble(t,
		".orig x3000",
		"lea r0, msg",
		"puts",
		"halt",
		`msg: .stringz "Hi"`,
	)

	assert.Equal([]uint16{
		0xe002, // lea r0, msg
		0xf022, // puts
		0xf025, // halt
		'H', 'i', 0,
	}, progWords(prog))

	// Binary image: big-endian words, origin first.
	assert.Equal([]byte{
		0x30, 0x00,
		0xe0, 0x02,
		0xf0, 0x22,
		0xf0, 0x25,
		0x00, 'H',
		0x00, 'i',
		0x00, 0x00,
	}, prog.Binary())

	op := prog.Debug(0x3004)
	assert.NotNil(op)
	assert.Equal(5, op.LineNo)
}

func TestAssembleBackwardLabel(t *testing.T) {
	assert := assert.New(t)

	prog := doAssemble(t,
		".orig x3000",
		"and r1, r1, #0",
		"add r1, r1, #3",
		"loop: add r1, r1, #-1",
		"brp loop",
		"halt",
	)

	assert.Equal([]uint16{
		0x5260, // and r1, r1, #0
		0x1263, // add r1, r1, #3
		0x127f, // add r1, r1, #-1
		0x03fe, // brp loop (-2)
		0xf025, // halt
	}, progWords(prog))
}

func TestAssembleDataDirectives(t *testing.T) {
	assert := assert.New(t)

	prog := doAssemble(t,
		".orig x3000",
		"lea r0, data",
		"ldi r1, ptr",
		"halt",
		"data: .blkw 2",
		"ptr: .fill data",
	)

	assert.Equal([]uint16{
		0xe002, // lea r0, data
		0xa203, // ldi r1, ptr
		0xf025, // halt
		0, 0, // data
		0x3003, // ptr
	}, progWords(prog))
}

func TestAssembleFlow(t *testing.T) {
	assert := assert.New(t)

	prog := doAssemble(t,
		".orig x3000",
		"jsr sub   ; call",
		"halt",
		"sub: add r0, r0, #1",
		"ret",
		"jsrr r3",
		"jmp r2",
	)

	assert.Equal([]uint16{
		0x4801, // jsr sub (+1)
		0xf025, // halt
		0x1021, // add r0, r0, #1
		0xc1c0, // ret
		0x40c0, // jsrr r3
		0xc080, // jmp r2
	}, progWords(prog))
}

func TestAssembleEquates(t *testing.T) {
	assert := assert.New(t)

	prog := doAssemble(t,
		".orig x3000",
		".equ COUNT #3",
		"add r0, r0, COUNT",
		".fill $(COUNT + 2)",
		".fill TRAP_HALT ; system define",
		"trap TRAP_OUT",
	)

	assert.Equal([]uint16{
		0x1023, // add r0, r0, #3
		0x0005, // $(COUNT + 2)
		0x0025,
		0xf021, // trap x21
	}, progWords(prog))
}

func TestAssemblePredefine(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}
	asm.Predefine("ORIGIN", "x4000")
	prog, err := asm.Parse(strings.NewReader(".orig ORIGIN\nhalt\n"))
	assert.NoError(err)
	assert.Equal(uint16(0x4000), prog.Origin)
}

func TestAssembleCharAndString(t *testing.T) {
	assert := assert.New(t)

	prog := doAssemble(t,
		".orig x3000",
		".fill 'A'",
		".fill '\\n'",
		`str: .stringz "a;b"`,
	)

	assert.Equal([]uint16{'A', '\n', 'a', ';', 'b', 0}, progWords(prog))
}

func TestAssembleErrors(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		name  string
		lines []string
		err   error
	}){
		{"no_orig", []string{"add r0, r0, #1"}, ErrOriginMissing},
		{"empty", []string{""}, ErrOriginMissing},
		{"dup_orig", []string{".orig x3000", ".orig x3000"}, ErrOriginDuplicate},
		{"bad_reg", []string{".orig x3000", "add rx, r0, #1"}, ErrRegisterInvalid},
		{"imm_range", []string{".orig x3000", "add r0, r0, #16"}, ErrOperandRange},
		{"offset6_range", []string{".orig x3000", "ldr r0, r1, #32"}, ErrOperandRange},
		{"bad_vector", []string{".orig x3000", "trap x100"}, ErrVectorInvalid},
		{"bad_mnemonic", []string{".orig x3000", "frob r0"}, ErrMnemonic("frob")},
		{"missing_label", []string{".orig x3000", "ld r0, nope"}, ErrLabelMissing("nope")},
		{"dup_label", []string{".orig x3000", "a: halt", "a: halt"}, ErrLabelDuplicate},
		{"dup_equ", []string{".orig x3000", ".equ A 1", ".equ A 2"}, ErrEquateDuplicate},
		{"bad_string", []string{".orig x3000", `.stringz "unterminated`}, ErrStringSyntax},
		{"bad_number", []string{".orig x3000", ".blkw zz9"}, ErrParseNumber("zz9")},
		{"operands", []string{".orig x3000", "add r0, r0"}, ErrOperandMissing},
		{"extra", []string{".orig x3000", "ret r0"}, ErrOperandExtra},
	}

	for _, entry := range table {
		asm := &Assembler{}
		_, err := asm.Parse(strings.NewReader(strings.Join(entry.lines, "\n")))
		assert.ErrorIs(err, entry.err, entry.name)

		var syntax ErrSyntax
		assert.ErrorAs(err, &syntax, entry.name)
	}
}

func TestAssembleOffsetRange(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}
	_, err := asm.Parse(strings.NewReader(strings.Join([]string{
		".orig x3000",
		"ld r0, far",
		".blkw 300",
		"far: .fill 1",
	}, "\n")))
	assert.ErrorIs(err, ErrOperandRange)
}

func TestAssembleStopsAtEnd(t *testing.T) {
	assert := assert.New(t)

	prog := doAssemble(t,
		".orig x3000",
		"halt",
		".end",
		"garbage beyond the end",
	)

	assert.Equal([]uint16{0xf025}, progWords(prog))
}

func TestAssembleRunRoundTrip(t *testing.T) {
	assert := assert.New(t)

	prog := doAssemble(t,
		".orig x3000",
		"lea r0, msg",
		"puts",
		"halt",
		`msg: .stringz "Hello, world!"`,
	)

	m, out := newTestMachine("")
	for addr, word := range prog.Words() {
		m.Mem.Write(addr, word)
	}
	m.Reg[REG_PC] = prog.Origin

	err := m.Run()
	assert.NoError(err)
	assert.Equal("Hello, world!"+HALT_NOTICE, out.String())
}
