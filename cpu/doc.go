// Package cpu implements the processor and assembler for the LC-3 system.
//
// The machine consists of eight 16-bit general-purpose registers (r0-r7),
// a program counter, a one-hot condition flag register, and a flat memory
// of 65536 16-bit words shared by code and data. Instructions are 16 bits
// wide with a 4-bit opcode in the top nibble; all address and register
// arithmetic wraps modulo 65536.
//
// The assembler provides a two-pass assembly language for the LC-3
// instruction set, supporting labels, equates, trap aliases, and
// compile-time expression evaluation.
package cpu
