package vm

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/davecgh/go-spew/spew"
)

// VM wires RAM and peripherals onto a Bus, owns the CPU, and drives the
// run loop: clock, throttling, and the halt/breakpoint protocol.
type VM struct {
	bus *Bus
	ram *RAM
	cpu *CPU

	diag io.Writer // throttling notices and breakpoint dumps
}

// Peripheral pairs a Slave with the size of the address window it occupies
// on the bus.
type Peripheral struct {
	Size int
	Slave Slave
}

// NewVM builds a VM: a Bus with RAM attached at [0, ramSize), followed by
// each peripheral in declaration order at the next contiguous range.
func NewVM(ramSize int, peripherals ...Peripheral) *VM {
	bus := NewBus()
	ram := NewRAM(ramSize)
	bus.Attach(NewAddressRange(0, Address(ramSize)), ram)

	next := Address(ramSize)
	for _, p := range peripherals {
		bus.Attach(NewAddressRange(next, next+Address(p.Size)), p.Slave)
		next += Address(p.Size)
	}

	return &VM{
		bus:  bus,
		ram:  ram,
		cpu:  NewCPU(bus),
		diag: os.Stderr,
	}
}

// SetDiagnosticWriter overrides where throttling notices and breakpoint
// dumps go; tests use this to capture output instead of writing to stderr.
func (vm *VM) SetDiagnosticWriter(w io.Writer) { vm.diag = w }

// Reset zeroes RAM and every CPU register.
func (vm *VM) Reset() {
	vm.ram.Clear()
	vm.cpu.Reset()
}

// LoadProgram writes image into RAM starting at address 0. It panics if
// image is longer than RAM's capacity: an oversized image is a caller
// error the embedder is expected to have checked before calling.
func (vm *VM) LoadProgram(image []Cell) {
	if len(image) > vm.ram.Len() {
		panic(fmt.Sprintf("vm: program of %d cells exceeds ram capacity %d", len(image), vm.ram.Len()))
	}
	vm.ram.LoadImage(image)
}

// Read returns the bus-visible value at addr, for test and debug
// inspection only.
func (vm *VM) Read(addr Address) (Cell, error) {
	return vm.bus.Read(addr)
}

// CPU exposes the underlying CPU for tests and debug tooling that need to
// inspect register state directly.
func (vm *VM) CPU() *CPU { return vm.cpu }

// Run drives the CPU until a Halt software interrupt, returning nil, or
// until a non-reserved software interrupt or fault ends it, returning the
// interrupt code (as a Cell wrapped in RunInterrupt) or the fault. If
// frequency is 0 or less, the CPU runs as fast as possible; otherwise each
// micro-step is throttled to 1/frequency seconds. In both cases a clock
// goroutine raises the top-level IRQ once per wall-clock second while Run
// executes; it is always joined before Run returns.
func (vm *VM) Run(frequency int) (Cell, error) {
	done := make(chan struct{})
	clockDone := make(chan struct{})
	go vm.clock(done, clockDone)
	defer func() {
		close(done)
		<-clockDone
	}()

	if frequency <= 0 {
		return vm.runUnthrottled()
	}
	return vm.runThrottled(frequency)
}

func (vm *VM) clock(done <-chan struct{}, finished chan<- struct{}) {
	defer close(finished)
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	level := vm.cpu.IRQLevels() - 1
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			vm.cpu.RaiseIRQ(level)
		}
	}
}

func (vm *VM) runUnthrottled() (code Cell, err error) {
	defer recoverSegfault(&err)
	for {
		res := vm.cpu.Step()
		switch res.kind {
		case resultContinue:
			continue
		case resultFault:
			return 0, res.err
		case resultSWInterrupt:
			if halt, code, err := vm.handleInterrupt(res.code); halt {
				return code, err
			}
		}
	}
}

func (vm *VM) runThrottled(frequency int) (code Cell, err error) {
	defer recoverSegfault(&err)
	period := time.Second / time.Duration(frequency)
	for {
		start := time.Now()
		res := vm.cpu.Step()
		switch res.kind {
		case resultFault:
			return 0, res.err
		case resultSWInterrupt:
			if halt, code, ierr := vm.handleInterrupt(res.code); halt {
				return code, ierr
			}
		}

		elapsed := time.Since(start)
		if remaining := period - elapsed; remaining >= 0 {
			time.Sleep(remaining)
		} else {
			effectiveHz := float64(time.Second) / float64(elapsed)
			fmt.Fprintf(vm.diag, "%s\nthrottling to %.2f Hz\n", spew.Sdump(vm.cpu), effectiveHz)
		}
	}
}

// handleInterrupt reacts to a software interrupt surfaced by CPU.Step:
// Halt ends the run loop successfully, Breakpoint prints state and
// resumes, everything else surfaces to the caller of Run.
func (vm *VM) handleInterrupt(code Cell) (halt bool, result Cell, err error) {
	switch code {
	case SWHalt:
		return true, 0, nil
	case SWBreakpoint:
		vm.breakpoint()
		return false, 0, nil
	default:
		return true, code, &RunInterrupt{Code: code}
	}
}

func (vm *VM) breakpoint() {
	fmt.Fprintln(vm.diag, spew.Sdump(vm.cpu))
	fmt.Fprintln(vm.diag, spew.Sdump(vm.ram))
}

// recoverSegfault turns a panic from inside the run loop (RAM out of
// bounds, integer divide by zero) into a SegmentationFault returned through
// err, instead of crashing the whole process.
func recoverSegfault(err *error) {
	if r := recover(); r != nil {
		*err = &SegmentationFault{Cause: r}
	}
}

// RunInterrupt is the non-reserved software interrupt code surfaced as
// Run's result.
type RunInterrupt struct {
	Code Cell
}

func (e *RunInterrupt) Error() string {
	return fmt.Sprintf("unhandled software interrupt %d", int16(e.Code))
}
