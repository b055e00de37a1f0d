//go:build !production

package testutil

import (
	"github.com/palemoky/parallel-boggle/internal/game/dictionary"
	"github.com/palemoky/parallel-boggle/internal/game/session"
)

// FixedRows 测试用固定棋盘
var FixedRows = []string{"CATS", "XODE", "QRZN", "WVBK"}

// FixedSolution FixedRows 在 SmallDictionary 下的解
var FixedSolution = []string{"cat", "cats", "code", "rod", "toad"}

// SmallDictionary 与 FixedRows 配套的小词典
func SmallDictionary() *dictionary.Dictionary {
	return dictionary.New([]string{"cat", "cats", "act", "toad", "code", "rod", "tot", "zebra", "ox"})
}

// TripleDictionary 包含所有三字母组合，任意棋盘都能轻松满足最少单词数
func TripleDictionary() *dictionary.Dictionary {
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

// SampleSnapshot 固定棋盘上的会话快照
func SampleSnapshot(id int, owner string) *session.Snapshot {
	return &session.Snapshot{
		ID:               id,
		Rows:             FixedRows,
		Solution:         FixedSolution,
		Players:          []session.Player{{Name: owner}},
		Owner:            owner,
		RequiredPlayers:  2,
		RoundsPerSession: 3,
		State:            "awaiting_players",
	}
}
