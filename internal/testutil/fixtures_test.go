package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/parallel-boggle/internal/game/board"
)

func TestFixedSolution_MatchesSolver(t *testing.T) {
	t.Parallel()

	b, err := board.FromRows(FixedRows...)
	require.NoError(t, err)
	assert.Equal(t, FixedSolution, board.Solve(b, SmallDictionary()))
}

func TestTripleDictionary(t *testing.T) {
	t.Parallel()

	dict := TripleDictionary()
	assert.Equal(t, 26*26*26, dict.Len())
	v, ok := dict.Value("zzz")
	assert.True(t, ok)
	assert.Equal(t, 1, v)
}
