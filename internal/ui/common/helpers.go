// Package common provides shared terminal rendering for the console and bot.
package common

import (
	"strings"

	"github.com/samber/lo"
)

// nameWidth is the widest player name shown in tables.
const nameWidth = 16

// TruncateName truncates a player name to maxLen runes, marking the cut with an ellipsis.
func TruncateName(name string, maxLen int) string {
	runes := []rune(name)
	if len(runes) > maxLen {
		return string(runes[:maxLen-1]) + "…"
	}
	return name
}

// JoinNames joins truncated player names with commas.
func JoinNames(names []string) string {
	return strings.Join(lo.Map(names, func(n string, _ int) string {
		return TruncateName(n, nameWidth)
	}), ",")
}
