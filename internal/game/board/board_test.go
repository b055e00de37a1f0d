package board

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/parallel-boggle/internal/apperrors"
	"github.com/palemoky/parallel-boggle/internal/game/dictionary"
)

func testBoard(t *testing.T) Board {
	t.Helper()
	b, err := FromRows("CATS", "XODE", "QRZN", "WVBK")
	require.NoError(t, err)
	return b
}

// allTriples 所有三字母组合，任意棋盘都能解出大量单词
func allTriples() *dictionary.Dictionary {
	words := make([]string, 0, 26*26*26)
	for a := 'a'; a <= 'z'; a++ {
		for b := 'a'; b <= 'z'; b++ {
			for c := 'a'; c <= 'z'; c++ {
				words = append(words, string([]rune{a, b, c}))
			}
		}
	}
	return dictionary.New(words)
}

func TestGenerate(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewPCG(1, 2))
	for range 200 {
		b := Generate(rng)
		vowelCount := 0
		for cell := range Cells {
			l := b.At(cell)
			assert.True(t, l >= 'A' && l <= 'Z')
			if l == 'A' || l == 'E' || l == 'I' || l == 'O' || l == 'U' || l == 'Y' {
				vowelCount++
			}
		}
		assert.GreaterOrEqual(t, vowelCount, VowelCells)
	}
}

func TestSpecRoundTrip(t *testing.T) {
	t.Parallel()

	b := testBoard(t)
	assert.Equal(t, "C A T S,X O D E,Q R Z N,W V B K", b.Spec())

	parsed, err := ParseSpec(b.Spec())
	require.NoError(t, err)
	assert.Equal(t, b, parsed)

	parsed, err = ParseSpec(b.Spec() + ",")
	require.NoError(t, err)
	assert.Equal(t, b, parsed)

	assert.Equal(t, []string{"CATS", "XODE", "QRZN", "WVBK"}, b.Rows())
}

func TestParseSpec_Invalid(t *testing.T) {
	t.Parallel()

	for _, spec := range []string{
		"",
		"A B C D,E F G H,I J K L",
		"A B C D,E F G H,I J K L,M N O",
		"A B C D,E F G H,I J K L,M N O p",
		"AB B C D,E F G H,I J K L,M N O P",
	} {
		_, err := ParseSpec(spec)
		assert.Error(t, err, spec)
	}
}

func TestSolve(t *testing.T) {
	t.Parallel()

	dict := dictionary.New([]string{"cat", "cats", "act", "toad", "code", "rod", "tot", "zebra", "ox"})
	words := Solve(testBoard(t), dict)

	assert.Equal(t, []string{"cat", "cats", "code", "rod", "toad"}, words)
}

func TestSolve_Properties(t *testing.T) {
	t.Parallel()

	dict := dictionary.Default()
	rng := rand.New(rand.NewPCG(7, 11))
	for range 50 {
		b := Generate(rng)
		words := Solve(b, dict)
		for _, w := range words {
			assert.GreaterOrEqual(t, len(w), 3, w)
			assert.LessOrEqual(t, len(w), 8, w)
			assert.True(t, dict.Contains(w), w)
			assert.True(t, Reachable(b, w), "%s on %s", w, b)
		}
		assert.Equal(t, words, Solve(b, dict), "solve must be idempotent")
	}
}

func TestSolve_MatchesBruteForce(t *testing.T) {
	t.Parallel()

	dict := dictionary.Default()
	rng := rand.New(rand.NewPCG(3, 5))
	for range 10 {
		b := Generate(rng)
		var want []string
		for _, w := range dict.Words() {
			if len(w) <= 8 && Reachable(b, w) {
				want = append(want, w)
			}
		}
		assert.ElementsMatch(t, want, Solve(b, dict))
	}
}

func TestReachable(t *testing.T) {
	t.Parallel()

	b := testBoard(t)
	assert.True(t, Reachable(b, "toad"))
	assert.True(t, Reachable(b, "cats"))
	assert.False(t, Reachable(b, "act"))
	assert.False(t, Reachable(b, "tot"))
	assert.False(t, Reachable(b, ""))
}

func TestCreate_MinWords(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewPCG(42, 42))
	b, words, err := Create(rng, allTriples(), 15, 0)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(words), 15)
	assert.Equal(t, words, Solve(b, allTriples()))
}

func TestCreate_GivesUpAfterMaxAttempts(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewPCG(1, 1))
	_, _, err := Create(rng, dictionary.New(nil), 15, 25)
	assert.ErrorIs(t, err, apperrors.ErrBoardGeneration)
}

func TestCreate_Liveness(t *testing.T) {
	t.Parallel()

	dict := dictionary.Default()
	rng := rand.New(rand.NewPCG(2024, 1))
	hits := 0
	for range 1000 {
		if len(Solve(Generate(rng), dict)) >= 15 {
			hits++
		}
	}
	assert.Positive(t, hits)
}
