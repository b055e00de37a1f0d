package storage

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/samber/lo"
)

const (
	// Redis key
	playerStatsKey   = "player:stats:"
	leaderboardKey   = "leaderboard:score"
	dailyLeaderboard = "leaderboard:daily:"
)

// PlayerStats 玩家跨会话统计
type PlayerStats struct {
	PlayerName   string `json:"player_name"`
	TotalGames   int    `json:"total_games"`
	Wins         int    `json:"wins"`
	TotalScore   int    `json:"total_score"`
	BestScore    int    `json:"best_score"`
	LastPlayedAt int64  `json:"last_played_at"`
}

// LeaderboardEntry 排行榜条目
type LeaderboardEntry struct {
	Rank       int    `json:"rank"`
	PlayerName string `json:"player_name"`
	BestScore  int    `json:"best_score"`
	TotalGames int    `json:"total_games"`
	Wins       int    `json:"wins"`
}

// LeaderboardManager 排行榜管理器：按玩家单局最高分排名
type LeaderboardManager struct {
	redis *redis.Client
}

// NewLeaderboardManager 创建排行榜管理器
func NewLeaderboardManager(client *redis.Client) *LeaderboardManager {
	return &LeaderboardManager{redis: client}
}

// RecordGameResult 记录一局的最终得分
func (lm *LeaderboardManager) RecordGameResult(ctx context.Context, playerName string, score int, isWinner bool) error {
	key := playerStatsKey + playerName
	now := time.Now()

	pipe := lm.redis.TxPipeline()
	pipe.HSet(ctx, key, "player_name", playerName, "last_played_at", now.Unix())
	pipe.HIncrBy(ctx, key, "total_games", 1)
	pipe.HIncrBy(ctx, key, "total_score", int64(score))
	if isWinner {
		pipe.HIncrBy(ctx, key, "wins", 1)
	}
	// GT：只在新分数更高时更新
	pipe.ZAddArgs(ctx, leaderboardKey, redis.ZAddArgs{
		GT:      true,
		Members: []redis.Z{{Score: float64(score), Member: playerName}},
	})
	dailyKey := dailyLeaderboard + now.Format("2006-01-02")
	pipe.ZAddArgs(ctx, dailyKey, redis.ZAddArgs{
		GT:      true,
		Members: []redis.Z{{Score: float64(score), Member: playerName}},
	})
	// 设置过期时间（2天）
	pipe.Expire(ctx, dailyKey, 48*time.Hour)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("记录 %s 的成绩失败: %w", playerName, err)
	}
	return nil
}

// GetPlayerStats 获取玩家统计，不存在时返回 nil
func (lm *LeaderboardManager) GetPlayerStats(ctx context.Context, playerName string) (*PlayerStats, error) {
	data, err := lm.redis.HGetAll(ctx, playerStatsKey+playerName).Result()
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}

	stats := &PlayerStats{
		PlayerName:   data["player_name"],
		TotalGames:   atoi(data["total_games"]),
		Wins:         atoi(data["wins"]),
		TotalScore:   atoi(data["total_score"]),
		LastPlayedAt: int64(atoi(data["last_played_at"])),
	}
	best, err := lm.redis.ZScore(ctx, leaderboardKey, playerName).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, err
	}
	stats.BestScore = int(best)
	return stats, nil
}

// GetLeaderboard 获取总排行榜（从高到低）
func (lm *LeaderboardManager) GetLeaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	return lm.leaderboard(ctx, leaderboardKey, limit)
}

// GetDailyLeaderboard 获取当日排行榜
func (lm *LeaderboardManager) GetDailyLeaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	return lm.leaderboard(ctx, dailyLeaderboard+time.Now().Format("2006-01-02"), limit)
}

func (lm *LeaderboardManager) leaderboard(ctx context.Context, key string, limit int) ([]LeaderboardEntry, error) {
	if limit <= 0 {
		limit = 10
	}
	results, err := lm.redis.ZRevRangeWithScores(ctx, key, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	entries := lo.Map(results, func(z redis.Z, i int) LeaderboardEntry {
		name, _ := z.Member.(string)
		return LeaderboardEntry{Rank: i + 1, PlayerName: name, BestScore: int(z.Score)}
	})
	for i := range entries {
		stats, err := lm.GetPlayerStats(ctx, entries[i].PlayerName)
		if err != nil || stats == nil {
			continue
		}
		entries[i].TotalGames = stats.TotalGames
		entries[i].Wins = stats.Wins
	}
	return entries, nil
}

// GetPlayerRank 获取玩家排名，未上榜返回 -1
func (lm *LeaderboardManager) GetPlayerRank(ctx context.Context, playerName string) (int64, error) {
	rank, err := lm.redis.ZRevRank(ctx, leaderboardKey, playerName).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return -1, nil // 未上榜
		}
		return -1, err
	}
	return rank + 1, nil // Redis 排名从 0 开始
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
