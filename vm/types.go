// Package vm implements a small single-accumulator virtual machine: a CPU,
// a memory bus, RAM, and an orchestrator that wires them together with a
// clock and interrupt delivery.
package vm

// Cell is the VM's native word: a signed, fixed-width integer holding
// opcodes, operands, and accumulator values. Arithmetic wraps modulo 2^16.
type Cell int16

// Address indexes a position on the Bus. It shares Cell's bit width so any
// Cell can be reinterpreted as an Address and vice versa.
type Address uint16

// True and False are the canonical boolean Cells produced by comparison and
// logical instructions.
const (
	False Cell = 0
	True  Cell = 1
)

// Bool reports whether c is true under the VM's boolean convention: zero is
// false, anything else is true.
func (c Cell) Bool() bool { return c != 0 }

// FromBool converts a Go bool into the canonical True/False Cell.
func FromBool(b bool) Cell {
	if b {
		return True
	}
	return False
}

// Addr reinterprets a Cell as an Address.
func (c Cell) Addr() Address { return Address(uint16(c)) }

// Cell reinterprets an Address as a Cell.
func (a Address) Cell() Cell { return Cell(int16(uint16(a))) }

// AddressRange is a half-open interval [Start, End) over the address space.
type AddressRange struct {
	Start Address
	End   Address
}

// NewAddressRange builds an AddressRange, panicking if start > end: an
// inverted range is a programming error in the caller, not a runtime fault.
func NewAddressRange(start, end Address) AddressRange {
	if start > end {
		panic("vm: invalid address range: start > end")
	}
	return AddressRange{Start: start, End: end}
}

// Len reports the number of addresses the range covers.
func (r AddressRange) Len() int { return int(r.End) - int(r.Start) }

// Contains reports whether addr falls within [Start, End).
func (r AddressRange) Contains(addr Address) bool {
	return addr >= r.Start && addr < r.End
}
