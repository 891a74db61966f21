package vm

import "fmt"

// BusFault is returned when a read or write addresses a position with no
// attached slave.
type BusFault struct {
	Addr Address
}

func (e *BusFault) Error() string {
	return fmt.Sprintf("bus fault: no slave attached at address %#04x", uint16(e.Addr))
}

// DeviceFault is a slave-defined runtime error, e.g. a write to a read-only
// peripheral. It propagates through the Bus unchanged.
type DeviceFault struct {
	Addr Address
	Msg  string
}

func (e *DeviceFault) Error() string {
	return fmt.Sprintf("device fault at %#04x: %s", uint16(e.Addr), e.Msg)
}

// SegmentationFault wraps a recovered panic from inside a CPU cycle: an
// out-of-range RAM index, an integer divide by zero, and similar
// programming errors all surface this way rather than through the Bus's
// error returns. The run loop is the only place that recovers these.
type SegmentationFault struct {
	Cause any
}

func (e *SegmentationFault) Error() string {
	return fmt.Sprintf("segmentation fault: %v", e.Cause)
}

// InvalidInstructionError reports an opcode with no entry in the dispatch
// table. The CPU itself turns this into SW interrupt code 1; the error type
// exists so the condition has a name outside the interrupt protocol too.
type InvalidInstructionError struct {
	Opcode Cell
}

func (e *InvalidInstructionError) Error() string {
	return fmt.Sprintf("invalid instruction: opcode %#02x", uint16(e.Opcode))
}

// CompilationError is a source-time assembler error, always annotated with
// the 1-based line on which it occurred.
type CompilationError struct {
	Line int
	Msg  string
}

func (e *CompilationError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}
