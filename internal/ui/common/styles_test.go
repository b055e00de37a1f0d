package common

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/palemoky/parallel-boggle/internal/game/session"
	"github.com/palemoky/parallel-boggle/internal/records"
)

func TestRenderBoard(t *testing.T) {
	t.Parallel()

	out := RenderBoard([]string{"CATS", "XODE", "QRZN", "WVBK"})
	for _, letter := range []string{"C", "X", "Q", "K"} {
		assert.Contains(t, out, letter)
	}
}

func TestRenderStatus(t *testing.T) {
	t.Parallel()

	assert.Contains(t, RenderStatus(0, nil), "no active sessions")

	out := RenderStatus(3, []session.Status{{ID: 7, Owner: "alice", Players: []string{"alice", "bob"}, RequiredPlayers: 3, State: "awaiting_players"}})
	assert.Contains(t, out, "#7")
	assert.Contains(t, out, "2/3 players")
	assert.Contains(t, out, "alice,bob")
}

func TestRenderRecords(t *testing.T) {
	t.Parallel()

	out := RenderRecords(records.Snapshot{BestWord: "strength", BestWordScore: 11, HighScore: 42, HighScorer: "alice", GamesCompleted: 2})
	assert.Contains(t, out, "strength (11)")
	assert.Contains(t, out, "42 by alice")
	assert.Contains(t, out, "Games completed: 2")
}
