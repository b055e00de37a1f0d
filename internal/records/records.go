package records

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/palemoky/parallel-boggle/internal/game/session"
)

// Snapshot 服务器记录的值快照
type Snapshot struct {
	BestWord       string `json:"best_word"`
	BestWordScore  int    `json:"best_word_score"`
	HighScore      int    `json:"high_score"`
	HighScorer     string `json:"high_scorer"`
	GamesCompleted int    `json:"games_completed"`
	NewWords       int    `json:"new_words"`
	RepeatedWords  int    `json:"repeated_words"`
}

// Records 服务器生命周期内的汇总记录，所有读写都在 mu 下进行
type Records struct {
	repo Repository

	mu   sync.Mutex
	snap Snapshot
}

// New 创建记录，repo 为 nil 时不支持保存与加载
func New(repo Repository) *Records {
	return &Records{repo: repo}
}

// UpdateRecords 汇总会话并合并到服务器记录
func (r *Records) UpdateRecords(s *session.Session) {
	sum := s.Summary()
	r.Merge(sum)
	log.Info().Int("session", s.ID).Int("games", r.Snapshot().GamesCompleted).Msg("📊 服务器记录已更新")
}

// Merge 合并一局的汇总：最佳单词与最高分只在严格更高时替换，计数累加
func (r *Records) Merge(sum session.Summary) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if sum.BestWord != "" && sum.BestWordScore > r.snap.BestWordScore {
		r.snap.BestWord = sum.BestWord
		r.snap.BestWordScore = sum.BestWordScore
	}
	if sum.Winner != "" && sum.WinnerScore > r.snap.HighScore {
		r.snap.HighScore = sum.WinnerScore
		r.snap.HighScorer = sum.Winner
	}
	r.snap.GamesCompleted++
	r.snap.NewWords += sum.NewWords
	r.snap.RepeatedWords += sum.RepeatedWords
}

// Snapshot 当前记录
func (r *Records) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snap
}

// Restore 用快照覆盖当前记录
func (r *Records) Restore(snap Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snap = snap
}

// Clear 清空记录
func (r *Records) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snap = Snapshot{}
	log.Info().Msg("🧹 服务器记录已清空")
}

// Save 持久化当前记录
func (r *Records) Save(ctx context.Context) error {
	if r.repo == nil {
		return ErrNoRepository
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	blob, err := Encode(r.snap)
	if err != nil {
		return err
	}
	if err := r.repo.Save(ctx, blob); err != nil {
		return fmt.Errorf("保存记录失败: %w", err)
	}
	log.Info().Int("bytes", len(blob)).Msg("💾 服务器记录已保存")
	return nil
}

// Load 从持久化存储恢复记录
func (r *Records) Load(ctx context.Context) error {
	if r.repo == nil {
		return ErrNoRepository
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	blob, err := r.repo.Load(ctx)
	if err != nil {
		return err
	}
	snap, err := Decode(blob)
	if err != nil {
		return err
	}
	r.snap = snap
	log.Info().Int("games", snap.GamesCompleted).Msg("📂 服务器记录已加载")
	return nil
}
