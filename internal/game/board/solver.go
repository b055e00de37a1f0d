package board

import (
	"fmt"
	"math/rand/v2"
	"slices"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/palemoky/parallel-boggle/internal/apperrors"
	"github.com/palemoky/parallel-boggle/internal/game/dictionary"
)

// neighbors 每个格子的 8 邻域
var neighbors = func() [Cells][]int {
	var n [Cells][]int
	for cell := range Cells {
		r, c := cell/Size, cell%Size
		for dr := -1; dr <= 1; dr++ {
			for dc := -1; dc <= 1; dc++ {
				if dr == 0 && dc == 0 {
					continue
				}
				nr, nc := r+dr, c+dc
				if nr >= 0 && nr < Size && nc >= 0 && nc < Size {
					n[cell] = append(n[cell], nr*Size+nc)
				}
			}
		}
	}
	return n
}()

// Solve 枚举棋盘上所有可拼出的词典单词，结果去重并排序
func Solve(b Board, dict *dictionary.Dictionary) []string {
	found := make(map[string]struct{})
	for cell := range Cells {
		var used [Cells]bool
		search(b, dict, cell, used, nil, found)
	}
	words := lo.Keys(found)
	slices.Sort(words)
	return words
}

// search 深度优先搜索；used 按值传递，兄弟分支互不影响
func search(b Board, dict *dictionary.Dictionary, cell int, used [Cells]bool, prefix []byte, found map[string]struct{}) {
	used[cell] = true
	word := append(prefix, b.At(cell)+('a'-'A'))
	w := string(word)

	if len(word) >= dictionary.MinWordLength && dict.Contains(w) {
		found[w] = struct{}{}
	}
	if len(word) >= dictionary.MaxWordLength || !dict.HasPrefix(w) {
		return
	}
	for _, next := range neighbors[cell] {
		if !used[next] {
			search(b, dict, next, used, word, found)
		}
	}
}

// Reachable 检查单词能否沿 8 邻域、不重复格子地在棋盘上拼出
func Reachable(b Board, word string) bool {
	if len(word) == 0 {
		return false
	}
	var walk func(cell, i int, used [Cells]bool) bool
	walk = func(cell, i int, used [Cells]bool) bool {
		if b.At(cell)+('a'-'A') != word[i] {
			return false
		}
		if i == len(word)-1 {
			return true
		}
		used[cell] = true
		for _, next := range neighbors[cell] {
			if !used[next] && walk(next, i+1, used) {
				return true
			}
		}
		return false
	}
	for cell := range Cells {
		if walk(cell, 0, [Cells]bool{}) {
			return true
		}
	}
	return false
}

// Create 反复生成棋盘直到解词数不少于 minWords。
// maxAttempts 为 0 时不限次数；否则超过次数返回 ErrBoardGeneration。
func Create(rng *rand.Rand, dict *dictionary.Dictionary, minWords, maxAttempts int) (Board, []string, error) {
	for attempt := 1; maxAttempts <= 0 || attempt <= maxAttempts; attempt++ {
		b := Generate(rng)
		words := Solve(b, dict)
		if len(words) >= minWords {
			log.Debug().Int("attempts", attempt).Int("words", len(words)).Str("board", b.Spec()).Msg("🎲 棋盘已生成")
			return b, words, nil
		}
	}
	return Board{}, nil, fmt.Errorf("%d 次尝试后仍不足 %d 个解词: %w", maxAttempts, minWords, apperrors.ErrBoardGeneration)
}
