package console

import (
	"errors"

	"github.com/crazymerlyn/lc3/translate"
)

var f = translate.From

var (
	// Console errors
	ErrInputExhausted = errors.New(f("input exhausted"))
)
