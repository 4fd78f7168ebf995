package cpu

import (
	"errors"

	"github.com/crazymerlyn/lc3/translate"
)

var f = translate.From

var (
	// Machine errors
	ErrIllegalOpcode = errors.New(f("illegal opcode"))
	ErrUndefinedTrap = errors.New(f("undefined trap"))

	// Assembler errors
	ErrOriginMissing   = errors.New(f(".orig missing"))
	ErrOriginDuplicate = errors.New(f(".orig duplicated"))
	ErrEquateSyntax    = errors.New(f(".equ syntax"))
	ErrEquateDuplicate = errors.New(f(".equ duplicated"))
	ErrLabelDuplicate  = errors.New(f("label duplicated"))
	ErrStringSyntax    = errors.New(f(".stringz syntax"))
	ErrOperandMissing  = errors.New(f("operand missing"))
	ErrOperandExtra    = errors.New(f("excessive operands"))
	ErrOperandRange    = errors.New(f("operand out of range"))
	ErrRegisterInvalid = errors.New(f("register invalid"))
	ErrVectorInvalid   = errors.New(f("trap vector invalid"))
)

// ErrInstr reports the instruction word that triggered a fatal
// execution error.
type ErrInstr Instr

func (ei ErrInstr) Error() string {
	return f("bad instruction 0x%04x %v", uint16(ei), Instr(ei).String())
}

func (ei ErrInstr) Is(err error) (ok bool) {
	_, ok = err.(ErrInstr)
	return
}

// ErrMnemonic reports an unknown opcode mnemonic or directive.
type ErrMnemonic string

func (em ErrMnemonic) Error() string {
	return f("'%v' is not an opcode or directive", string(em))
}

// ErrLabelMissing reports a reference to an undefined label.
type ErrLabelMissing string

func (el ErrLabelMissing) Error() string {
	return f("label %v missing", string(el))
}

// ErrParseNumber reports a malformed numeric literal.
type ErrParseNumber string

func (err ErrParseNumber) Error() string {
	return f("'%v' is not a number", string(err))
}

// ErrParseExpression reports a malformed $(...) expression.
type ErrParseExpression string

func (err ErrParseExpression) Error() string {
	return f("$(%v) is not a valid expression", string(err))
}

// ErrSyntax wraps an assembler error with its source location.
type ErrSyntax struct {
	LineNo int
	Line   string
	Err    error
}

func (err ErrSyntax) Error() string {
	return f("line %d '%v' %v", err.LineNo, err.Line, err.Err)
}

func (err ErrSyntax) Unwrap() error {
	return err.Err
}
