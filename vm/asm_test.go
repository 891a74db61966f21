package vm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileEmitsOpcodesAndData(t *testing.T) {
	image, err := Compile(`
		Ld 253
		Add 254
		St 255
		Int 0
	`)
	require.NoError(t, err)
	assert.Equal(t, []Cell{OpLd, 253, OpAdd, 254, OpSt, 255, OpInt, 0}, image)
}

func TestCompileLabelResolution(t *testing.T) {
	image, err := Compile(`
		Jmp skip:
		Int 1
	skip:
		Int 0
	`)
	require.NoError(t, err)
	// Jmp, skip-address(4), Int, 1, Int, 0
	require.Len(t, image, 6)
	assert.Equal(t, Cell(4), image[1])
}

func TestCompileOffsetPadsWithZeros(t *testing.T) {
	image, err := Compile(`
		Offset 4
		1
	`)
	require.NoError(t, err)
	assert.Equal(t, []Cell{0, 0, 0, 0, 1}, image)
}

func TestCompileNonMonotonicOffsetIsCompilationError(t *testing.T) {
	_, err := Compile("Offset 5\nOffset 3")
	require.Error(t, err)
	var cerr *CompilationError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, 2, cerr.Line)
}

func TestCompileUnresolvedLabelIsCompilationError(t *testing.T) {
	_, err := Compile("Ld missing:")
	require.Error(t, err)
	var cerr *CompilationError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, 1, cerr.Line)
}

func TestCompileDuplicateLabelIsCompilationError(t *testing.T) {
	_, err := Compile("a:\n1\na:\n2")
	require.Error(t, err)
	var cerr *CompilationError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, 3, cerr.Line)
}

func TestCompileWrongArityIsCompilationError(t *testing.T) {
	_, err := Compile("Ld")
	require.Error(t, err)
	var cerr *CompilationError
	require.ErrorAs(t, err, &cerr)
}

func TestCompileOutOfRangeNumberIsCompilationError(t *testing.T) {
	_, err := Compile("100000")
	require.Error(t, err)
	var cerr *CompilationError
	require.ErrorAs(t, err, &cerr)
}

func TestCompileHexLiteral(t *testing.T) {
	image, err := Compile("St 0xf1")
	require.NoError(t, err)
	assert.Equal(t, []Cell{OpSt, 0xf1}, image)
}

func TestCompileCommentsAndBlankLinesIgnored(t *testing.T) {
	image, err := Compile(`
		# a comment
		Int 0  # trailing comment

	`)
	require.NoError(t, err)
	assert.Equal(t, []Cell{OpInt, 0}, image)
}
