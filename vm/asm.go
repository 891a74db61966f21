package vm

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	identifierRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z_0-9]*$`)
	offsetLineRe = regexp.MustCompile(`^Offset\s+(\S+)$`)
	labelLineRe  = regexp.MustCompile(`^([A-Za-z_][A-Za-z_0-9]*):$`)
	numberRe     = regexp.MustCompile(`^[+-]?(?:0[xX][0-9a-fA-F]+|[0-9]+)$`)
)

type lineKind int

const (
	lnEmpty lineKind = iota
	lnOffset
	lnLabel
	lnValue
	lnInstr
)

type parsedLine struct {
	kind     lineKind
	lineNo   int
	offset   Address
	label    string
	value    Cell
	mnemonic string
	args     []string
}

// Compile translates assembly source into a flat image of Cells, ready to
// be loaded into RAM at address 0. It is a two-pass translation: pass one
// fixes label addresses, pass two resolves and emits every Cell.
func Compile(source string) ([]Cell, error) {
	rawLines := strings.Split(source, "\n")
	parsed := make([]parsedLine, 0, len(rawLines))
	for i, raw := range rawLines {
		pl, err := parseLine(raw, i+1)
		if err != nil {
			return nil, err
		}
		parsed = append(parsed, pl)
	}

	labels, err := resolveLabels(parsed)
	if err != nil {
		return nil, err
	}
	return emit(parsed, labels)
}

func resolveLabels(parsed []parsedLine) (map[string]Address, error) {
	offset := Address(0)
	labels := make(map[string]Address)
	for _, pl := range parsed {
		switch pl.kind {
		case lnOffset:
			if pl.offset < offset {
				return nil, &CompilationError{Line: pl.lineNo, Msg: fmt.Sprintf("invalid offset %d at %d", pl.offset, offset)}
			}
			offset = pl.offset
		case lnInstr:
			offset += Address(1 + len(pl.args))
		case lnValue:
			offset++
		case lnLabel:
			if _, exists := labels[pl.label]; exists {
				return nil, &CompilationError{Line: pl.lineNo, Msg: fmt.Sprintf("label %s duplicated", pl.label)}
			}
			labels[pl.label] = offset
		}
	}
	return labels, nil
}

func emit(parsed []parsedLine, labels map[string]Address) ([]Cell, error) {
	var out []Cell
	offset := Address(0)
	for _, pl := range parsed {
		switch pl.kind {
		case lnOffset:
			for offset < pl.offset {
				out = append(out, 0)
				offset++
			}
		case lnValue:
			out = append(out, pl.value)
			offset++
		case lnInstr:
			entry := mnemonicByName[pl.mnemonic]
			out = append(out, entry.opcode)
			for _, arg := range pl.args {
				resolved, err := resolveOperand(arg, labels, pl.lineNo)
				if err != nil {
					return nil, err
				}
				out = append(out, resolved)
			}
			offset += Address(1 + len(pl.args))
		}
	}
	return out, nil
}

func parseLine(raw string, lineNo int) (parsedLine, error) {
	line := raw
	if idx := strings.IndexByte(line, '#'); idx >= 0 {
		line = line[:idx]
	}
	line = strings.TrimSpace(line)

	if line == "" {
		return parsedLine{kind: lnEmpty, lineNo: lineNo}, nil
	}
	if m := offsetLineRe.FindStringSubmatch(line); m != nil {
		addr, err := parseAddressLiteral(m[1], lineNo)
		if err != nil {
			return parsedLine{}, err
		}
		return parsedLine{kind: lnOffset, lineNo: lineNo, offset: addr}, nil
	}
	if m := labelLineRe.FindStringSubmatch(line); m != nil {
		return parsedLine{kind: lnLabel, lineNo: lineNo, label: m[1]}, nil
	}
	if numberRe.MatchString(line) {
		v, err := parseNumberLiteral(line, lineNo)
		if err != nil {
			return parsedLine{}, err
		}
		return parsedLine{kind: lnValue, lineNo: lineNo, value: v}, nil
	}

	fields := strings.Fields(line)
	mnemonic := fields[0]
	entry, ok := mnemonicByName[mnemonic]
	if !ok {
		return parsedLine{}, &CompilationError{Line: lineNo, Msg: fmt.Sprintf("invalid instruction %s", mnemonic)}
	}
	args := fields[1:]
	if len(args) != entry.argCount {
		return parsedLine{}, &CompilationError{Line: lineNo, Msg: fmt.Sprintf(
			"instruction %s takes %d arguments, %d given", mnemonic, entry.argCount, len(args))}
	}
	return parsedLine{kind: lnInstr, lineNo: lineNo, mnemonic: mnemonic, args: args}, nil
}

// resolveOperand turns one instruction operand token into its Cell value:
// either a numeric literal or a label reference, both spelled the same way
// a label definition is (trailing colon), disambiguated purely by where
// the token appears in the line.
func resolveOperand(tok string, labels map[string]Address, lineNo int) (Cell, error) {
	if strings.HasSuffix(tok, ":") {
		name := strings.TrimSuffix(tok, ":")
		if identifierRe.MatchString(name) {
			addr, ok := labels[name]
			if !ok {
				return 0, &CompilationError{Line: lineNo, Msg: fmt.Sprintf("invalid label %s:", name)}
			}
			return addr.Cell(), nil
		}
	}
	return parseNumberLiteral(tok, lineNo)
}

func parseRawInt(tok string, lineNo int) (int64, error) {
	t := tok
	sign := int64(1)
	switch {
	case strings.HasPrefix(t, "+"):
		t = t[1:]
	case strings.HasPrefix(t, "-"):
		sign = -1
		t = t[1:]
	}
	base := 10
	if strings.HasPrefix(t, "0x") || strings.HasPrefix(t, "0X") {
		base = 16
		t = t[2:]
	}
	v, err := strconv.ParseInt(t, base, 64)
	if err != nil {
		return 0, &CompilationError{Line: lineNo, Msg: fmt.Sprintf("invalid number value %s", tok)}
	}
	return sign * v, nil
}

func parseNumberLiteral(tok string, lineNo int) (Cell, error) {
	v, err := parseRawInt(tok, lineNo)
	if err != nil {
		return 0, err
	}
	c := Cell(v)
	if int64(c) != v {
		return 0, &CompilationError{Line: lineNo, Msg: fmt.Sprintf("value %d is out of range", v)}
	}
	return c, nil
}

func parseAddressLiteral(tok string, lineNo int) (Address, error) {
	v, err := parseRawInt(tok, lineNo)
	if err != nil {
		return 0, err
	}
	a := Address(uint16(v))
	if int64(a) != v {
		return 0, &CompilationError{Line: lineNo, Msg: fmt.Sprintf("value %d is out of range", v)}
	}
	return a, nil
}
