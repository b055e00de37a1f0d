package storage

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLeaderboardManager(t *testing.T) (*LeaderboardManager, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { _ = client.Close() })

	return NewLeaderboardManager(client), mr
}

func TestLeaderboard_RecordGameResult_NewPlayer(t *testing.T) {
	t.Parallel()

	lm, _ := newTestLeaderboardManager(t)
	ctx := context.Background()

	require.NoError(t, lm.RecordGameResult(ctx, "alice", 12, true))

	stats, err := lm.GetPlayerStats(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, stats)
	assert.Equal(t, "alice", stats.PlayerName)
	assert.Equal(t, 1, stats.TotalGames)
	assert.Equal(t, 1, stats.Wins)
	assert.Equal(t, 12, stats.TotalScore)
	assert.Equal(t, 12, stats.BestScore)
	assert.Positive(t, stats.LastPlayedAt)
}

func TestLeaderboard_BestScoreOnlyGrows(t *testing.T) {
	t.Parallel()

	lm, _ := newTestLeaderboardManager(t)
	ctx := context.Background()

	require.NoError(t, lm.RecordGameResult(ctx, "alice", 12, true))
	require.NoError(t, lm.RecordGameResult(ctx, "alice", 5, false))

	stats, err := lm.GetPlayerStats(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalGames)
	assert.Equal(t, 1, stats.Wins)
	assert.Equal(t, 17, stats.TotalScore)
	assert.Equal(t, 12, stats.BestScore)
}

func TestLeaderboard_GetLeaderboard(t *testing.T) {
	t.Parallel()

	lm, _ := newTestLeaderboardManager(t)
	ctx := context.Background()

	require.NoError(t, lm.RecordGameResult(ctx, "alice", 12, true))
	require.NoError(t, lm.RecordGameResult(ctx, "bob", 20, true))
	require.NoError(t, lm.RecordGameResult(ctx, "carol", 3, false))

	entries, err := lm.GetLeaderboard(ctx, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, LeaderboardEntry{Rank: 1, PlayerName: "bob", BestScore: 20, TotalGames: 1, Wins: 1}, entries[0])
	assert.Equal(t, "alice", entries[1].PlayerName)

	daily, err := lm.GetDailyLeaderboard(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, daily, 3)
}

func TestLeaderboard_GetPlayerRank(t *testing.T) {
	t.Parallel()

	lm, _ := newTestLeaderboardManager(t)
	ctx := context.Background()

	require.NoError(t, lm.RecordGameResult(ctx, "alice", 12, true))
	require.NoError(t, lm.RecordGameResult(ctx, "bob", 20, true))

	rank, err := lm.GetPlayerRank(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(2), rank)

	rank, err = lm.GetPlayerRank(ctx, "nobody")
	require.NoError(t, err)
	assert.Equal(t, int64(-1), rank)
}

func TestLeaderboard_UnknownPlayerStats(t *testing.T) {
	t.Parallel()

	lm, _ := newTestLeaderboardManager(t)
	stats, err := lm.GetPlayerStats(context.Background(), "ghost")
	assert.NoError(t, err)
	assert.Nil(t, stats)
}
