// Package console provides the blocking byte console the LC-3 trap
// services perform I/O through. It wraps an io.Reader for input and an
// io.Writer for output; all transfers are byte oriented, not Unicode
// aware.
package console

import (
	"errors"
	"io"
	"iter"
	"maps"
)

// Console is a blocking character console. GETC and IN block the
// entire execution loop on ReadByte until one byte is available.
type Console struct {
	Input  io.Reader
	Output io.Writer
}

// Defines returns an iter of defines for the console.
func (con *Console) Defines() iter.Seq2[string, string] {
	return maps.All(map[string]string{})
}

// ReadByte blocks on a single byte from the input stream. End of
// input is fatal for the core; it surfaces as ErrInputExhausted.
func (con *Console) ReadByte() (b byte, err error) {
	var one [1]byte
	_, err = io.ReadFull(con.Input, one[:])
	if err != nil {
		err = errors.Join(ErrInputExhausted, err)
		return
	}
	b = one[0]

	return
}

// WriteByte writes a single byte to the output stream.
func (con *Console) WriteByte(b byte) (err error) {
	_, err = con.Output.Write([]byte{b})
	return
}

// WriteString writes a string to the output stream.
func (con *Console) WriteString(s string) (err error) {
	_, err = io.WriteString(con.Output, s)
	return
}
