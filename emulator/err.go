package emulator

import (
	"errors"

	"github.com/crazymerlyn/lc3/translate"
)

var f = translate.From

var (
	// Image loader errors
	ErrImageTruncated = errors.New(f("image truncated"))
)

// ErrRuntime indicates the location of a runtime error.
type ErrRuntime struct {
	Pc     uint16
	LineNo int
	Err    error
}

func (err *ErrRuntime) Error() string {
	if err.LineNo != 0 {
		return f("pc %#04x line %d %v", err.Pc, err.LineNo, err.Err)
	}
	return f("pc %#04x %v", err.Pc, err.Err)
}

func (err *ErrRuntime) Unwrap() error {
	return err.Err
}
