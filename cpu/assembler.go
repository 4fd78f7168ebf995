// Copyright 2026, CrazyMerlyn <crazymerlyn@users.noreply.github.com>

package cpu

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// Assembler is a two pass assembler for the LC-3 instruction set.
// The first pass parses and encodes each line and records label
// addresses; the second pass patches label references into offset and
// address fields.
type Assembler struct {
	Verbose bool     // If set, verbosely logs the assembler actions.
	Opcode  []Opcode // List of generated opcodes.

	predefine map[string]string // Predefines
	Label     map[string]uint16 // Map of labels to addresses.
	Equate    map[string]string // Map of equates.

	origin    uint16
	hasOrigin bool
	ended     bool
}

// Predefine defines a new equate or redefines an existing equate.
func (asm *Assembler) Predefine(equ string, value string) {
	if asm.predefine == nil {
		asm.predefine = map[string]string{equ: value}
	} else {
		asm.predefine[equ] = value
	}
}

// regMap is a map of register names to register file indexes.
var regMap = map[string]Reg{
	"r0": REG_R0,
	"r1": REG_R1,
	"r2": REG_R2,
	"r3": REG_R3,
	"r4": REG_R4,
	"r5": REG_R5,
	"r6": REG_R6,
	"r7": REG_R7,
}

// nzpMap maps branch mnemonics to their condition masks.
var nzpMap = map[string]Flag{
	"br":    FLAG_NEGATIVE | FLAG_ZERO | FLAG_POSITIVE,
	"brn":   FLAG_NEGATIVE,
	"brz":   FLAG_ZERO,
	"brp":   FLAG_POSITIVE,
	"brnz":  FLAG_NEGATIVE | FLAG_ZERO,
	"brnp":  FLAG_NEGATIVE | FLAG_POSITIVE,
	"brzp":  FLAG_ZERO | FLAG_POSITIVE,
	"brnzp": FLAG_NEGATIVE | FLAG_ZERO | FLAG_POSITIVE,
}

// trapAliasMap maps trap service aliases to their vectors.
var trapAliasMap = map[string]TrapVector{
	"getc":  TRAP_GETC,
	"out":   TRAP_OUT,
	"puts":  TRAP_PUTS,
	"in":    TRAP_IN,
	"putsp": TRAP_PUTSP,
	"halt":  TRAP_HALT,
}

// parseNumber parses an LC-3 numeric literal: '#' marks decimal, a
// leading 'x' marks hexadecimal, and bare values follow the usual Go
// prefixes. A leading '-' negates.
func parseNumber(word string) (value int64, ok bool) {
	w := strings.ToLower(strings.TrimPrefix(word, "#"))
	neg := strings.HasPrefix(w, "-")
	if neg {
		w = w[1:]
	}
	if len(w) == 0 {
		return
	}

	var v uint64
	var err error
	if len(w) > 1 && w[0] == 'x' {
		v, err = strconv.ParseUint(w[1:], 16, 17)
	} else {
		v, err = strconv.ParseUint(w, 0, 17)
	}
	if err != nil {
		return
	}

	value = int64(v)
	if neg {
		value = -value
	}
	ok = true

	return
}

// valueOf returns the 16-bit value of a numeric word, wrapping
// negative values into two's complement.
func (asm *Assembler) valueOf(word string) (value uint16, err error) {
	v, ok := parseNumber(word)
	if !ok || v > 0xffff || v < -0x8000 {
		err = ErrParseNumber(word)
		return
	}
	value = uint16(v)

	return
}

// regOf returns the register file index of a register word.
func (asm *Assembler) regOf(word string) (r Reg, err error) {
	r, ok := regMap[strings.ToLower(word)]
	if !ok {
		err = ErrRegisterInvalid
	}

	return
}

// encodeOffset range checks a signed offset against a field width and
// returns its masked encoding.
func encodeOffset(offset int, bits uint) (enc uint16, err error) {
	limit := 1 << (bits - 1)
	if offset < -limit || offset >= limit {
		err = ErrOperandRange
		return
	}
	enc = uint16(offset) & (1<<bits - 1)

	return
}

// offsetOrLabel encodes a pc-relative operand: a numeric word is a
// raw offset, anything else is a label reference patched in the link
// pass.
func (asm *Assembler) offsetOrLabel(word string, bits uint) (enc uint16, label string, err error) {
	value, ok := parseNumber(word)
	if !ok {
		label = word
		return
	}
	enc, err = encodeOffset(int(value), bits)

	return
}

// parenEval does compile-time $(...) evaluations
func (asm *Assembler) parenEval(expr string) (value uint16, err error) {
	thread := starlark.Thread{}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{}
	for key, str := range asm.Equate {
		var value16 uint16
		value16, err = asm.valueOf(str)
		if err != nil {
			// Ignore non-integer equates. They may be registers
			// or something else.
			err = nil
			continue
		}
		pred[key] = starlark.MakeInt(int(value16))
	}
	prog := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
		return
	}
	st_rc, ok := dict["rc"]
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int, ok := st_rc.(starlark.Int)
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int64, ok := st_int.Int64()
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	value = uint16(st_int64)
	return
}

// currentAddr gets the address the next assembled word will occupy.
func (asm *Assembler) currentAddr() uint16 {
	if len(asm.Opcode) == 0 {
		return asm.origin
	}

	last := asm.Opcode[len(asm.Opcode)-1]

	return last.Addr + uint16(len(last.Instrs))
}

// parseLine parses a single source line: extract any string literal,
// strip the comment, expand character and $(...) values, substitute
// equates, record labels, and hand the remaining words to parseWords.
func (asm *Assembler) parseLine(line string, lineno int) (err error) {
	// Set line number.
	asm.Equate["LINENO"] = fmt.Sprintf("%v", lineno)

	// Pull out a string literal before comment stripping; it may
	// contain ';'.
	var stringLit string
	var hasString bool
	if idx := strings.IndexByte(line, '"'); idx >= 0 {
		var quoted string
		quoted, err = strconv.QuotedPrefix(line[idx:])
		if err != nil {
			err = ErrStringSyntax
			return
		}
		stringLit, err = strconv.Unquote(quoted)
		if err != nil {
			err = ErrStringSyntax
			return
		}
		hasString = true
		line = line[:idx] + line[idx+len(quoted):]
	}

	line = strings.TrimSpace(strings.Split(line, ";")[0])

	// Do 'x' evaluations
	re := regexp.MustCompile(`'\\?[^']'`)
	line = re.ReplaceAllStringFunc(line, func(word string) string {
		str := word[1 : len(word)-1]
		if str[0] == '\\' {
			switch str[1:] {
			case "\\":
				str = "\\"
			case "n":
				str = "\n"
			case "r":
				str = "\r"
			case "0":
				str = "\x00"
			case "e":
				str = "\033"
			default:
				return word
			}
		} else if len(str) != 1 {
			return word
		}
		return fmt.Sprintf("%v", str[0])
	})

	// Do $() evaluations
	re = regexp.MustCompile(`\$\([^\$]*\)`)
	line = re.ReplaceAllStringFunc(line, func(str string) string {
		value, _err := asm.parenEval(str[2 : len(str)-1])
		if _err != nil {
			err = _err
		}
		return fmt.Sprintf("%#v", value)
	})
	if err != nil {
		return
	}

	line = strings.ReplaceAll(line, ",", " ")
	words := slices.DeleteFunc(strings.Split(line, " "), func(a string) bool { return len(a) == 0 })

	if len(words) == 0 && !hasString {
		return
	}

	// .equ CONST VALUE
	if len(words) > 0 && strings.ToLower(words[0]) == ".equ" {
		if len(words) != 3 {
			err = ErrEquateSyntax
			return
		}
		_, ok := asm.Equate[words[1]]
		if ok {
			err = ErrEquateDuplicate
			return
		}
		asm.Equate[words[1]] = words[2]
		return
	}

	for n, word := range words {
		// Check for equate next
		equate, ok := asm.Equate[word]
		if ok {
			words[n] = equate
		}
	}

	for len(words) > 0 && strings.HasSuffix(words[0], ":") {
		label := words[0][:len(words[0])-1]
		_, ok := asm.Label[label]
		if ok {
			err = ErrLabelDuplicate
			return
		}

		if asm.Label == nil {
			asm.Label = make(map[string]uint16, 16)
		}
		asm.Label[label] = asm.currentAddr()
		words = words[1:]
	}

	if len(words) == 0 && !hasString {
		return
	}

	return asm.parseWords(words, lineno, stringLit, hasString)
}

// parseWords evaluates the words in a line of assembly text.
func (asm *Assembler) parseWords(words []string, lineno int, stringLit string, hasString bool) (err error) {
	if len(words) == 0 {
		err = ErrOperandMissing
		return
	}

	var instrs []uint16
	var label string
	kind := LINK_NONE

	mnemonic := strings.ToLower(words[0])
	operands := words[1:]

	switch mnemonic {
	case ".orig":
		if asm.hasOrigin {
			err = ErrOriginDuplicate
			return
		}
		if len(operands) != 1 {
			err = ErrOperandMissing
			return
		}
		asm.origin, err = asm.valueOf(operands[0])
		if err != nil {
			return
		}
		asm.hasOrigin = true
		return

	case ".end":
		asm.ended = true
		return
	}

	if !asm.hasOrigin {
		err = ErrOriginMissing
		return
	}

	switch mnemonic {
	case ".fill":
		if len(operands) != 1 {
			err = ErrOperandMissing
			return
		}
		var value uint16
		if _, numeric := parseNumber(operands[0]); numeric {
			value, err = asm.valueOf(operands[0])
			if err != nil {
				return
			}
		} else {
			label = operands[0]
			kind = LINK_ABSOLUTE
		}
		instrs = []uint16{value}

	case ".blkw":
		if len(operands) != 1 {
			err = ErrOperandMissing
			return
		}
		var count uint16
		count, err = asm.valueOf(operands[0])
		if err != nil {
			return
		}
		instrs = make([]uint16, count)

	case ".stringz":
		if !hasString || len(operands) != 0 {
			err = ErrStringSyntax
			return
		}
		for _, c := range []byte(stringLit) {
			instrs = append(instrs, uint16(c))
		}
		instrs = append(instrs, 0)

	default:
		var in Instr
		in, label, kind, err = asm.encodeInstr(mnemonic, operands)
		if err != nil {
			return
		}
		instrs = []uint16{uint16(in)}
	}

	if asm.Verbose {
		log.Printf("asm: %04x: %v", asm.currentAddr(), words)
	}

	asm.Opcode = append(asm.Opcode, Opcode{
		LineNo:    lineno,
		Addr:      asm.currentAddr(),
		Words:     slices.Clone(words),
		Instrs:    instrs,
		LinkLabel: label,
		LinkKind:  kind,
	})

	return
}

// encodeInstr encodes a single instruction mnemonic with its
// operands, returning any pending label reference for the link pass.
func (asm *Assembler) encodeInstr(mnemonic string, operands []string) (in Instr, label string, kind LinkKind, err error) {
	if nzp, is_br := nzpMap[mnemonic]; is_br {
		if len(operands) != 1 {
			err = ErrOperandMissing
			return
		}
		var enc uint16
		enc, label, err = asm.offsetOrLabel(operands[0], 9)
		if err != nil {
			return
		}
		if label != "" {
			kind = LINK_PCOFFSET9
		}
		in = MakeBranch(nzp, 0) | Instr(enc)
		return
	}

	if vector, is_trap := trapAliasMap[mnemonic]; is_trap {
		if len(operands) != 0 {
			err = ErrOperandExtra
			return
		}
		in = MakeTrap(vector)
		return
	}

	switch mnemonic {
	case "add", "and":
		op := OP_ADD
		if mnemonic == "and" {
			op = OP_AND
		}
		if len(operands) != 3 {
			err = ErrOperandMissing
			return
		}
		var dr, sr1 Reg
		dr, err = asm.regOf(operands[0])
		if err != nil {
			return
		}
		sr1, err = asm.regOf(operands[1])
		if err != nil {
			return
		}
		if sr2, is_reg := regMap[strings.ToLower(operands[2])]; is_reg {
			in = MakeOperate(op, dr, sr1, sr2)
			return
		}
		value, numeric := parseNumber(operands[2])
		if !numeric {
			err = ErrParseNumber(operands[2])
			return
		}
		_, err = encodeOffset(int(value), 5)
		if err != nil {
			return
		}
		in = MakeOperateImm(op, dr, sr1, int(value))

	case "not":
		if len(operands) != 2 {
			err = ErrOperandMissing
			return
		}
		var dr, sr Reg
		dr, err = asm.regOf(operands[0])
		if err != nil {
			return
		}
		sr, err = asm.regOf(operands[1])
		if err != nil {
			return
		}
		in = MakeNot(dr, sr)

	case "jmp", "jsrr":
		if len(operands) != 1 {
			err = ErrOperandMissing
			return
		}
		var base Reg
		base, err = asm.regOf(operands[0])
		if err != nil {
			return
		}
		if mnemonic == "jmp" {
			in = MakeJump(base)
		} else {
			in = MakeJumpRR(base)
		}

	case "ret":
		if len(operands) != 0 {
			err = ErrOperandExtra
			return
		}
		in = MakeJump(REG_R7)

	case "jsr":
		if len(operands) != 1 {
			err = ErrOperandMissing
			return
		}
		var enc uint16
		enc, label, err = asm.offsetOrLabel(operands[0], 11)
		if err != nil {
			return
		}
		if label != "" {
			kind = LINK_PCOFFSET11
		}
		in = MakeJumpR(0) | Instr(enc)

	case "ld", "ldi", "lea", "st", "sti":
		ops := map[string]InstrClass{
			"ld": OP_LOAD, "ldi": OP_LOADI, "lea": OP_LEA,
			"st": OP_STORE, "sti": OP_STOREI,
		}
		if len(operands) != 2 {
			err = ErrOperandMissing
			return
		}
		var r Reg
		r, err = asm.regOf(operands[0])
		if err != nil {
			return
		}
		var enc uint16
		enc, label, err = asm.offsetOrLabel(operands[1], 9)
		if err != nil {
			return
		}
		if label != "" {
			kind = LINK_PCOFFSET9
		}
		in = MakePCRel(ops[mnemonic], r, 0) | Instr(enc)

	case "ldr", "str":
		op := OP_LOADR
		if mnemonic == "str" {
			op = OP_STORER
		}
		if len(operands) != 3 {
			err = ErrOperandMissing
			return
		}
		var r, base Reg
		r, err = asm.regOf(operands[0])
		if err != nil {
			return
		}
		base, err = asm.regOf(operands[1])
		if err != nil {
			return
		}
		value, numeric := parseNumber(operands[2])
		if !numeric {
			err = ErrParseNumber(operands[2])
			return
		}
		_, err = encodeOffset(int(value), 6)
		if err != nil {
			return
		}
		in = MakeBased(op, r, base, int(value))

	case "trap":
		if len(operands) != 1 {
			err = ErrOperandMissing
			return
		}
		var vector uint16
		vector, err = asm.valueOf(operands[0])
		if err != nil {
			return
		}
		if vector > 0xff {
			err = ErrVectorInvalid
			return
		}
		in = MakeTrap(TrapVector(vector))

	case "rti":
		if len(operands) != 0 {
			err = ErrOperandExtra
			return
		}
		in = Instr(uint16(OP_RTI) << 12)

	default:
		err = ErrMnemonic(mnemonic)
	}

	return
}

// Parse parses an input stream into a Program.
func (asm *Assembler) Parse(input io.Reader) (prog *Program, err error) {
	scanner := bufio.NewScanner(input)

	var line string
	var lineno int

	defer func() {
		if err != nil {
			err = ErrSyntax{LineNo: lineno, Line: line, Err: err}
		}
	}()

	clear(asm.Label)
	asm.Opcode = asm.Opcode[:0]
	asm.origin = 0
	asm.hasOrigin = false
	asm.ended = false

	asm.Equate = maps.Clone(_machine_defines)
	asm.Equate["LINENO"] = "0"
	for attr, val := range asm.predefine {
		asm.Equate[attr] = val
	}

	for scanner.Scan() {
		line = scanner.Text()
		lineno += 1

		if asm.ended {
			break
		}

		if asm.Verbose {
			log.Printf("%v: %v\n", lineno, line)
		}

		err = asm.parseLine(line, lineno)
		if err != nil {
			return
		}
	}

	if !asm.hasOrigin {
		err = ErrOriginMissing
		return
	}

	// Final linking of label references.
	for n := range asm.Opcode {
		op := &asm.Opcode[n]

		if len(op.LinkLabel) == 0 {
			continue
		}
		target, found := asm.Label[op.LinkLabel]
		if !found {
			err = ErrLabelMissing(op.LinkLabel)
			lineno, line = op.LineNo, strings.Join(op.Words, " ")
			return
		}

		last := len(op.Instrs) - 1
		switch op.LinkKind {
		case LINK_ABSOLUTE:
			op.Instrs[last] = target
		case LINK_PCOFFSET9, LINK_PCOFFSET11:
			bits := uint(9)
			if op.LinkKind == LINK_PCOFFSET11 {
				bits = 11
			}
			// Offsets are relative to the instruction after the
			// reference, matching the post-fetch pc.
			offset := int(target) - (int(op.Addr) + last + 1)
			var enc uint16
			enc, err = encodeOffset(offset, bits)
			if err != nil {
				lineno, line = op.LineNo, strings.Join(op.Words, " ")
				return
			}
			op.Instrs[last] |= enc
		}
	}

	prog = &Program{
		Origin:  asm.origin,
		Opcodes: slices.Clone(asm.Opcode),
	}

	return
}
