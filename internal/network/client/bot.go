package client

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/palemoky/parallel-boggle/internal/apperrors"
	"github.com/palemoky/parallel-boggle/internal/protocol"
)

const defaultRounds = 3

// Bot 自动玩家：请求开始，在回合时间内随机提交解中的单词，回合结束后同步统计
type Bot struct {
	game Game
	name string
	rng  *rand.Rand

	roundDuration time.Duration
	submitEvery   time.Duration
}

// BotOption Bot 可选项
type BotOption func(*Bot)

// WithRoundDuration 每回合提交单词的时长
func WithRoundDuration(d time.Duration) BotOption {
	return func(b *Bot) { b.roundDuration = d }
}

// WithSubmitInterval 两次提交之间的间隔
func WithSubmitInterval(d time.Duration) BotOption {
	return func(b *Bot) { b.submitEvery = d }
}

// WithRand 指定随机源
func WithRand(rng *rand.Rand) BotOption {
	return func(b *Bot) { b.rng = rng }
}

// NewBot 创建自动玩家
func NewBot(game Game, name string, opts ...BotOption) *Bot {
	b := &Bot{
		game:          game,
		name:          name,
		rng:           rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		roundDuration: 60 * time.Second,
		submitEvery:   500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Game 底层客户端
func (b *Bot) Game() Game {
	return b.game
}

// Name 玩家名
func (b *Bot) Name() string {
	return b.name
}

// Result 一局的结果
type Result struct {
	SessionID int
	Board     []string
	Rounds    []protocol.StatsInfo // 每回合结束时的统计
}

// Final 最后一回合的统计
func (r Result) Final() protocol.StatsInfo {
	if len(r.Rounds) == 0 {
		return protocol.StatsInfo{}
	}
	return r.Rounds[len(r.Rounds)-1]
}

// Create 创建 players 人的会话并打完整局
func (b *Bot) Create(ctx context.Context, players int) (Result, error) {
	info, err := b.game.CreateSession(ctx, players, b.name)
	if err != nil {
		return Result{}, err
	}
	log.Info().Int("session", info.SessionID).Str("player", b.name).Int("words", len(info.Solution)).Msg("🏠 已创建会话")
	return b.Play(ctx, info)
}

// Join 加入已有会话并打完整局
func (b *Bot) Join(ctx context.Context, id int) (Result, error) {
	info, err := b.game.JoinSession(ctx, id, b.name)
	if err != nil {
		return Result{}, err
	}
	log.Info().Int("session", id).Str("player", b.name).Msg("👤 已加入会话")
	return b.Play(ctx, info)
}

// Play 在已加入的会话中打完剩余回合
func (b *Bot) Play(ctx context.Context, info protocol.SessionInfo) (Result, error) {
	rounds := info.RoundsPerSession
	if rounds <= 0 {
		rounds = defaultRounds
	}
	res := Result{SessionID: info.SessionID, Board: info.Board}

	for round := info.RoundsCompleted; round < rounds; round++ {
		if err := b.game.RequestStart(ctx, info.SessionID); err != nil {
			return res, err
		}
		log.Debug().Int("session", info.SessionID).Str("player", b.name).Int("round", round+1).Msg("🚦 回合开始")

		if err := b.submitWords(ctx, info); err != nil {
			return res, err
		}

		stats, err := b.game.GetSessionStatistics(ctx, info.SessionID, b.name)
		if err != nil {
			return res, err
		}
		res.Rounds = append(res.Rounds, stats)
		log.Info().Int("session", info.SessionID).Str("player", b.name).Int("round", round+1).
			Int("score", stats.Score).Int("rank", stats.Rank).Msg("🏁 回合结束")
	}
	return res, nil
}

// submitWords 在回合时间内随机提交解中的单词，重复提交会被扣分
func (b *Bot) submitWords(ctx context.Context, info protocol.SessionInfo) error {
	if len(info.Solution) == 0 {
		return nil
	}

	roundCtx, cancel := context.WithTimeout(ctx, b.roundDuration)
	defer cancel()
	ticker := time.NewTicker(b.submitEvery)
	defer ticker.Stop()

	for {
		select {
		case <-roundCtx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		word := info.Solution[b.rng.IntN(len(info.Solution))]
		stats, err := b.game.SubmitWord(ctx, info.SessionID, b.name, word)
		switch {
		case errors.Is(err, apperrors.ErrInvalidWord):
			continue
		case err != nil:
			return err
		}
		log.Debug().Str("player", b.name).Str("word", word).Int("points", stats.LatestPoints).Int("score", stats.Score).Msg("✏️ 提交单词")
	}
}
