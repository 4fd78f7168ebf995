package cpu

const (
	MEMORY_SIZE = 1 << 16 // Words of addressable memory.
)

// Memory layout origins. The core itself does not distinguish these
// regions; they exist for loaders and assembler symbols.
const (
	TRAP_TABLE_ORIGIN      = 0x0000 // Trap vector table.
	INTERRUPT_TABLE_ORIGIN = 0x0100 // Interrupt vector table (unused).
	SYSTEM_ORIGIN          = 0x0200 // System space.
	USER_ORIGIN            = 0x3000 // Default program origin.
)

// Memory is the flat word-addressed store shared by code and data.
// Addresses are 16 bits wide, so all address arithmetic wraps modulo
// MEMORY_SIZE and no computed address is ever out of range.
type Memory [MEMORY_SIZE]uint16

// Read returns the word at addr.
func (mem *Memory) Read(addr uint16) uint16 {
	return mem[addr]
}

// Write stores value at addr.
func (mem *Memory) Write(addr uint16, value uint16) {
	mem[addr] = value
}

// LoadWords copies words into memory starting at origin, wrapping at
// the address space boundary.
func (mem *Memory) LoadWords(origin uint16, words []uint16) {
	addr := origin
	for _, word := range words {
		mem[addr] = word
		addr++
	}
}
