package vm

// Opcodes, in the same layout spec'd for the assembler's mnemonic table.
const (
	OpInt Cell = 0x00

	OpLd  Cell = 0x01
	OpSt  Cell = 0x02
	OpAdd Cell = 0x03
	OpNeg Cell = 0x04
	OpMul Cell = 0x05
	OpDiv Cell = 0x06

	OpEq  Cell = 0x07
	OpGt  Cell = 0x08
	OpNot Cell = 0x09
	OpAnd Cell = 0x0a
	OpOr  Cell = 0x0b

	OpJmp Cell = 0x0c
	OpJif Cell = 0x0d

	OpA0A  Cell = 0x10
	OpA0V  Cell = 0x11
	OpARAM Cell = 0x12
	OpASta Cell = 0x13
	OpComp Cell = 0x14
	OpExt  Cell = 0x15

	OpStk  Cell = 0x70
	OpPush Cell = 0x71
	OpPop  Cell = 0x72
	OpHih  Cell = 0x73 // sets the hardware-interrupt-handler table base (extension, see cpu.go)
	OpIhr  Cell = 0x74 // returns from a dispatched hardware interrupt (extension, see cpu.go)

	OpSqrt Cell = 0xe1

	OpNoop Cell = 0xff
)

// Operation-mode bits, see CPU.OM.
const (
	omA0ValueType    Cell = 1 << 0
	omAddressingMode Cell = 1 << 1
	omCompatMode     Cell = 1 << 2
)

// Reserved software-interrupt codes.
const (
	SWHalt              Cell = 0
	SWInvalidInstruction Cell = 1
	SWBreakpoint        Cell = 2
)

type instrHandler func(c *CPU) stepResult

type instrEntry struct {
	mnemonic string
	argCount int
	handler  instrHandler
}

// dispatchTable is the static, opcode-indexed instruction table: the
// systems-language replacement for a decorator-populated registry.
var dispatchTable [256]instrEntry

// mnemonicTable is shared by the CPU's dispatch table and the assembler's
// parser: a single module-scoped constant table of mnemonic -> (opcode,
// arg count), in place of the source's mutable global registration.
var mnemonicTable = []struct {
	mnemonic string
	opcode   Cell
	argCount int
	handler  instrHandler
}{
	{"Int", OpInt, 1, hInt},

	{"Ld", OpLd, 1, hLd},
	{"St", OpSt, 1, hSt},
	{"Add", OpAdd, 1, hAdd},
	{"Neg", OpNeg, 0, hNeg},
	{"Mul", OpMul, 1, hMul},
	{"Div", OpDiv, 1, hDiv},

	{"Eq", OpEq, 1, hEq},
	{"Gt", OpGt, 1, hGt},
	{"Not", OpNot, 0, hNot},
	{"And", OpAnd, 1, hAnd},
	{"Or", OpOr, 1, hOr},

	{"Jmp", OpJmp, 1, hJmp},
	{"Jif", OpJif, 1, hJif},

	{"A0A", OpA0A, 0, hA0A},
	{"A0V", OpA0V, 0, hA0V},
	{"ARAM", OpARAM, 0, hARAM},
	{"ASta", OpASta, 0, hASta},
	{"Comp", OpComp, 0, hComp},
	{"Ext", OpExt, 0, hExt},

	{"Stk", OpStk, 1, hStk},
	{"Push", OpPush, 0, hPush},
	{"Pop", OpPop, 1, hPop},
	{"Hih", OpHih, 1, hHih},
	{"Ihr", OpIhr, 0, hIhr},

	{"Sqrt", OpSqrt, 0, hSqrt},

	{"Noop", OpNoop, 0, hNoop},
}

// mnemonicByName is the assembler's view of the same table: mnemonic name
// to (opcode, arg count), keyed the way the parser needs it.
var mnemonicByName = map[string]struct {
	opcode   Cell
	argCount int
}{}

func init() {
	for _, e := range mnemonicTable {
		dispatchTable[uint8(e.opcode)] = instrEntry{
			mnemonic: e.mnemonic,
			argCount: e.argCount,
			handler:  e.handler,
		}
		mnemonicByName[e.mnemonic] = struct {
			opcode   Cell
			argCount int
		}{opcode: e.opcode, argCount: e.argCount}
	}
}

// compatMode reports whether c's CompatibilityMode bit selects the raw
// operand A0 (true) rather than the resolved value V0 (false).
func compatMode(c *CPU) bool { return c.OM&omCompatMode == 0 }

func hNoop(c *CPU) stepResult { return contResult() }

func hInt(c *CPU) stepResult {
	if compatMode(c) {
		return swResult(c.A0)
	}
	return swResult(c.V0)
}

func hLd(c *CPU) stepResult {
	c.AC = c.V0
	return contResult()
}

func hSt(c *CPU) stepResult {
	target := c.V0.Addr()
	if compatMode(c) {
		target = c.A0.Addr()
	}
	if err := c.bus.Write(target, c.AC); err != nil {
		return faultResult(err)
	}
	return contResult()
}

func hAdd(c *CPU) stepResult {
	c.AC += c.V0
	return contResult()
}

func hNeg(c *CPU) stepResult {
	c.AC = -c.AC
	return contResult()
}

func hMul(c *CPU) stepResult {
	c.AC *= c.V0
	return contResult()
}

func hDiv(c *CPU) stepResult {
	c.AC /= c.V0 // panics on division by zero; recovered by the run loop
	return contResult()
}

func hEq(c *CPU) stepResult {
	c.AC = FromBool(c.AC == c.V0)
	return contResult()
}

func hGt(c *CPU) stepResult {
	c.AC = FromBool(c.AC > c.V0)
	return contResult()
}

func hNot(c *CPU) stepResult {
	c.AC = FromBool(c.AC == False)
	return contResult()
}

func hAnd(c *CPU) stepResult {
	c.AC = FromBool(c.AC.Bool() && c.V0.Bool())
	return contResult()
}

func hOr(c *CPU) stepResult {
	c.AC = FromBool(c.AC.Bool() || c.V0.Bool())
	return contResult()
}

func hJmp(c *CPU) stepResult {
	if compatMode(c) {
		c.IA = c.A0.Addr()
	} else {
		c.IA = c.V0.Addr()
	}
	return contResult()
}

func hJif(c *CPU) stepResult {
	if c.AC.Bool() {
		if compatMode(c) {
			c.IA = c.A0.Addr()
		} else {
			c.IA = c.V0.Addr()
		}
	}
	return contResult()
}

func hA0A(c *CPU) stepResult {
	c.OM &^= omA0ValueType
	return contResult()
}

func hA0V(c *CPU) stepResult {
	c.OM |= omA0ValueType
	return contResult()
}

func hARAM(c *CPU) stepResult {
	c.OM &^= omAddressingMode
	return contResult()
}

func hASta(c *CPU) stepResult {
	c.OM |= omAddressingMode
	return contResult()
}

func hComp(c *CPU) stepResult {
	c.OM &^= omCompatMode
	return contResult()
}

func hExt(c *CPU) stepResult {
	c.OM |= omCompatMode
	return contResult()
}

func hStk(c *CPU) stepResult {
	c.SP = c.V0.Addr()
	return contResult()
}

func hPush(c *CPU) stepResult {
	if err := c.bus.Write(c.SP, c.AC); err != nil {
		return faultResult(err)
	}
	c.SP++
	return contResult()
}

func hPop(c *CPU) stepResult {
	c.SP -= c.V0.Addr()
	return contResult()
}

func hHih(c *CPU) stepResult {
	// Hih is an extension beyond the core ISA table, so its A0/V0 choice is
	// ours to define; it mirrors Jmp so a handler-table label can be
	// passed directly as an address without an extra level of indirection.
	if compatMode(c) {
		c.hihBase = c.A0.Addr()
	} else {
		c.hihBase = c.V0.Addr()
	}
	return contResult()
}

func hIhr(c *CPU) stepResult {
	c.SP--
	ret, err := c.bus.Read(c.SP)
	if err != nil {
		return faultResult(err)
	}
	c.IA = ret.Addr()
	c.inIRQ = false
	return contResult()
}

func hSqrt(c *CPU) stepResult {
	c.AC = isqrt(c.AC)
	return contResult()
}

// isqrt returns floor(sqrt(|v|)) as a Cell, the integer-only resolution of
// Sqrt's behavior on a signed accumulator.
func isqrt(v Cell) Cell {
	n := int64(v)
	if n < 0 {
		n = -n
	}
	if n == 0 {
		return 0
	}
	x := n
	for {
		y := (x + n/x) / 2
		if y >= x {
			break
		}
		x = y
	}
	return Cell(x)
}
