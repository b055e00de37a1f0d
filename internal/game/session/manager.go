package session

import (
	"context"
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/palemoky/parallel-boggle/internal/apperrors"
	"github.com/palemoky/parallel-boggle/internal/config"
	"github.com/palemoky/parallel-boggle/internal/game/board"
	"github.com/palemoky/parallel-boggle/internal/game/dictionary"
	"github.com/palemoky/parallel-boggle/internal/network/server/storage"
)

const (
	cleanupInterval = time.Minute
	storeTimeout    = 5 * time.Second
)

// RecordKeeper 会话结算时接收汇总的服务器记录
type RecordKeeper interface {
	UpdateRecords(s *Session)
}

// Status 管理端展示的会话概况
type Status struct {
	ID              int       `json:"session_id"`
	Owner           string    `json:"owner"`
	Players         []string  `json:"players"`
	RequiredPlayers int       `json:"required_players"`
	State           string    `json:"state"`
	RoundsCompleted int       `json:"rounds_completed"`
	Solutions       int       `json:"solutions"`
	LastActive      time.Time `json:"last_active"`
}

// roundBarriers 每个会话的回合开始/结束屏障
type roundBarriers struct {
	start *Barrier
	end   *Barrier
}

// Manager 会话管理器：分配 ID、索引会话、驱动回合屏障与结算
type Manager struct {
	cfg         config.GameConfig
	dict        *dictionary.Dictionary
	records     RecordKeeper
	store       *storage.RedisStore
	leaderboard *storage.LeaderboardManager

	idMu   sync.Mutex
	lastID int

	sessions map[int]*Session
	barriers map[int]*roundBarriers
	mu       sync.RWMutex

	done      chan struct{}
	closeOnce sync.Once
}

// Option 管理器可选项
type Option func(*Manager)

// WithRecords 设置结算记录
func WithRecords(r RecordKeeper) Option {
	return func(m *Manager) { m.records = r }
}

// WithStore 设置 Redis 会话镜像
func WithStore(rs *storage.RedisStore) Option {
	return func(m *Manager) { m.store = rs }
}

// WithLeaderboard 设置排行榜
func WithLeaderboard(lm *storage.LeaderboardManager) Option {
	return func(m *Manager) { m.leaderboard = lm }
}

// NewManager 创建会话管理器并启动空闲会话清理协程
func NewManager(cfg config.GameConfig, dict *dictionary.Dictionary, opts ...Option) *Manager {
	if cfg.RoundsPerSession <= 0 {
		cfg.RoundsPerSession = 3
	}
	if cfg.MinWords <= 0 {
		cfg.MinWords = 15
	}
	m := &Manager{
		cfg:      cfg,
		dict:     dict,
		sessions: make(map[int]*Session),
		barriers: make(map[int]*roundBarriers),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}

	go m.cleanupLoop()

	return m
}

// CreateSession 创建会话，创建者作为第一名玩家加入
func (m *Manager) CreateSession(ctx context.Context, numPlayers int, creator string) (*Snapshot, error) {
	if numPlayers < 2 || (m.cfg.MaxPlayers > 0 && numPlayers > m.cfg.MaxPlayers) {
		return nil, apperrors.ErrInvalidPlayerCount
	}
	if err := validateName(creator); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	b, words, err := board.Create(rng, m.dict, m.cfg.MinWords, m.cfg.MaxBoardAttempts)
	if err != nil {
		log.Error().Err(err).Str("player", creator).Msg("❌ 生成棋盘失败")
		return nil, err
	}

	// 棋盘生成成功后才分配 ID，保证 ID 连续
	id := m.nextID()
	s := newSession(id, b, words, m.dict, numPlayers, m.cfg.RoundsPerSession, creator)
	bp := &roundBarriers{
		start: NewBarrier(numPlayers, s.beginRound),
		end:   NewBarrier(numPlayers, func() { m.completeRound(s) }),
	}

	m.mu.Lock()
	m.sessions[id] = s
	m.barriers[id] = bp
	m.mu.Unlock()

	m.persist(s)

	log.Info().Int("session", id).Str("player", creator).Int("required", numPlayers).
		Int("solutions", len(words)).Msg("🏠 会话已创建")

	return s.Snapshot(), nil
}

// JoinSession 加入会话
func (m *Manager) JoinSession(ctx context.Context, id int, name string) (*Snapshot, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	s, err := m.lookup(id)
	if err != nil {
		return nil, err
	}
	if err := s.AddPlayer(name); err != nil {
		return nil, err
	}

	m.persist(s)
	log.Info().Int("session", id).Str("player", name).Int("players", s.PlayerCount()).Msg("👤 玩家加入会话")

	return s.Snapshot(), nil
}

// RequestStart 阻塞直到会话所有玩家都请求开始
func (m *Manager) RequestStart(ctx context.Context, id int) error {
	s, bp, err := m.lookupWithBarriers(id)
	if err != nil {
		return err
	}

	s.awaitStart()
	if err := m.await(ctx, s, bp.start, "start"); err != nil {
		return err
	}
	log.Debug().Int("session", id).Int("round", s.RoundsCompleted()+1).Msg("🚦 回合开始")
	return nil
}

// SubmitWord 提交单词
func (m *Manager) SubmitWord(ctx context.Context, id int, player, word string) (Response, error) {
	s, err := m.lookup(id)
	if err != nil {
		return Response{}, err
	}
	resp, err := s.Submit(player, word)
	if err != nil {
		log.Debug().Err(err).Int("session", id).Str("player", player).Str("word", word).Msg("单词被拒绝")
		return Response{}, err
	}

	m.persist(s)
	return resp, nil
}

// GetStatistics 查询实时统计
func (m *Manager) GetStatistics(ctx context.Context, id int, player string) (Response, error) {
	s, err := m.lookup(id)
	if err != nil {
		return Response{}, err
	}
	return s.Stats(player)
}

// GetSessionStatistics 回合结束屏障：所有玩家到齐后回合计数加一，
// 每个人拿到同一份回合结束时的统计。最后一回合结束时自动结算会话
func (m *Manager) GetSessionStatistics(ctx context.Context, id int, player string) (Response, error) {
	s, bp, err := m.lookupWithBarriers(id)
	if err != nil {
		return Response{}, err
	}
	if !s.HasPlayer(player) {
		return Response{}, apperrors.ErrPlayerNotFound
	}

	s.awaitRoundEnd()
	if err := m.await(ctx, s, bp.end, "end"); err != nil {
		return Response{}, err
	}
	return s.RoundResult(player)
}

// FinalizeSession 结算会话并移出索引，每个会话只能结算一次
func (m *Manager) FinalizeSession(ctx context.Context, id int) error {
	s, err := m.lookup(id)
	if err != nil {
		return err
	}
	if !m.finalize(s) {
		return apperrors.ErrInvalidSession
	}
	return nil
}

// AbortSession 管理员中止会话，不写入记录
func (m *Manager) AbortSession(id int, reason string) bool {
	s, err := m.lookup(id)
	if err != nil {
		return false
	}
	return m.abort(s, reason)
}

// GetSession 获取会话
func (m *Manager) GetSession(id int) *Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessions[id]
}

// ActiveSessions 活跃会话概况，按 ID 排序
func (m *Manager) ActiveSessions() []Status {
	m.mu.RLock()
	sessions := lo.Values(m.sessions)
	m.mu.RUnlock()

	statuses := lo.Map(sessions, func(s *Session, _ int) Status {
		s.mu.RLock()
		defer s.mu.RUnlock()
		return Status{
			ID:              s.ID,
			Owner:           s.Owner,
			Players:         slices.Clone(s.order),
			RequiredPlayers: s.Required,
			State:           s.state.String(),
			RoundsCompleted: s.roundsCompleted,
			Solutions:       len(s.solution),
			LastActive:      s.lastActive,
		}
	})
	slices.SortFunc(statuses, func(a, b Status) int { return a.ID - b.ID })
	return statuses
}

// ActiveCount 活跃会话数
func (m *Manager) ActiveCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Close 停止清理协程并中止所有会话
func (m *Manager) Close() {
	m.closeOnce.Do(func() {
		close(m.done)

		m.mu.RLock()
		sessions := lo.Values(m.sessions)
		m.mu.RUnlock()

		for _, s := range sessions {
			m.abort(s, "服务器关闭")
		}
	})
}

// --- 内部方法 ---

// nextID 分配下一个会话 ID，唯一的全局串行点
func (m *Manager) nextID() int {
	m.idMu.Lock()
	defer m.idMu.Unlock()
	m.lastID++
	return m.lastID
}

func (m *Manager) lookup(id int) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, apperrors.ErrInvalidSession
	}
	return s, nil
}

func (m *Manager) lookupWithBarriers(id int) (*Session, *roundBarriers, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	bp, hasBarriers := m.barriers[id]
	if !ok || !hasBarriers {
		return nil, nil, apperrors.ErrInvalidSession
	}
	return s, bp, nil
}

// await 在屏障上等待，超时或连接断开时中止会话
func (m *Manager) await(ctx context.Context, s *Session, b *Barrier, which string) error {
	if timeout := m.cfg.BarrierTimeoutDuration(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	if err := b.Await(ctx); err != nil {
		log.Warn().Err(err).Int("session", s.ID).Str("barrier", which).Msg("⚠️ 回合同步失败")
		m.settle(s, StateAborted, fmt.Sprintf("%s barrier broken", which))
		return err
	}
	return nil
}

// completeRound 回合结束屏障的 action，在放行等待者之前执行
func (m *Manager) completeRound(s *Session) {
	done := s.completeRound()
	log.Info().Int("session", s.ID).Int("round", s.RoundsCompleted()).Msg("🏁 回合结束")
	if done {
		m.finalize(s)
	}
}

// finalize 移出索引、写入记录，只有第一次调用生效
func (m *Manager) finalize(s *Session) bool {
	return m.settle(s, StateFinalized, "")
}

// settle 移出索引并把会话写入记录与排行榜。
// 回合同步失败的会话以 aborted 状态结算，已得分数照常计入
func (m *Manager) settle(s *Session, state State, reason string) bool {
	if !m.remove(s.ID, s) {
		return false
	}
	if !s.end(state) {
		return false
	}

	if m.records != nil {
		m.records.UpdateRecords(s)
	}
	m.recordLeaderboard(s)
	m.unpersist(s)

	sum := s.Summary()
	ev := log.Info()
	if state == StateAborted {
		ev = log.Warn().Str("reason", reason)
	}
	ev.Int("session", s.ID).Str("state", state.String()).Str("winner", sum.Winner).
		Int("score", sum.WinnerScore).Str("best_word", sum.BestWord).Msg("🏆 会话已结算")
	return true
}

// abort 中止会话并打破屏障，不写入记录（空闲过期、管理员中止、服务器关闭）
func (m *Manager) abort(s *Session, reason string) bool {
	if !m.remove(s.ID, s) {
		return false
	}
	if !s.end(StateAborted) {
		return false
	}
	m.unpersist(s)
	log.Warn().Int("session", s.ID).Str("reason", reason).Msg("🧹 会话已中止")
	return true
}

// remove 从索引删除并关闭屏障；屏障在管理器锁外关闭
func (m *Manager) remove(id int, s *Session) bool {
	m.mu.Lock()
	current, ok := m.sessions[id]
	if !ok || current != s {
		m.mu.Unlock()
		return false
	}
	bp := m.barriers[id]
	delete(m.sessions, id)
	delete(m.barriers, id)
	m.mu.Unlock()

	if bp != nil {
		bp.start.Break()
		bp.end.Break()
	}
	return true
}

// persist 异步保存会话镜像。同一会话的写入在 mirrorMu 下串行，
// 过期快照与终止后的写入会被丢弃，不会覆盖删除
func (m *Manager) persist(s *Session) {
	if m.store == nil {
		return
	}
	seq := s.mirrorSeq.Add(1)
	data := s.ToSessionData()
	go func() {
		s.mirrorMu.Lock()
		defer s.mirrorMu.Unlock()
		if seq <= s.mirrored || s.State().Terminal() {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()
		if err := m.store.SaveSession(ctx, data); err != nil {
			log.Warn().Err(err).Int("session", data.ID).Msg("保存会话到 Redis 失败")
			return
		}
		s.mirrored = seq
	}()
}

// PurgeStaleMirrors 删除 Redis 中不属于当前进程活跃会话的镜像，返回删除数量
func (m *Manager) PurgeStaleMirrors(ctx context.Context) (int, error) {
	if m.store == nil {
		return 0, nil
	}
	ids, err := m.store.GetAllSessionIDs(ctx)
	if err != nil {
		return 0, err
	}

	m.mu.RLock()
	stale := lo.Filter(ids, func(id int, _ int) bool {
		_, ok := m.sessions[id]
		return !ok
	})
	m.mu.RUnlock()

	for _, id := range stale {
		if err := m.store.DeleteSession(ctx, id); err != nil {
			return 0, err
		}
	}
	if len(stale) > 0 {
		log.Info().Int("count", len(stale)).Msg("🧹 已清理过期会话镜像")
	}
	return len(stale), nil
}

// unpersist 删除会话镜像，调用前会话已进入终止状态
func (m *Manager) unpersist(s *Session) {
	if m.store == nil {
		return
	}
	go func() {
		s.mirrorMu.Lock()
		defer s.mirrorMu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()
		if err := m.store.DeleteSession(ctx, s.ID); err != nil {
			log.Warn().Err(err).Int("session", s.ID).Msg("从 Redis 删除会话失败")
		}
	}()
}

func (m *Manager) recordLeaderboard(s *Session) {
	if m.leaderboard == nil {
		return
	}
	players := s.Players()
	winner := s.Summary().Winner
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()
		for _, p := range players {
			if err := m.leaderboard.RecordGameResult(ctx, p.Name, p.Score, p.Name == winner); err != nil {
				log.Warn().Err(err).Str("player", p.Name).Msg("更新排行榜失败")
			}
		}
	}()
}

// cleanupLoop 定期清理空闲会话
func (m *Manager) cleanupLoop() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case now := <-ticker.C:
			m.cleanup(now)
		}
	}
}

// cleanup 中止空闲超时的会话
func (m *Manager) cleanup(now time.Time) int {
	timeout := m.cfg.SessionTimeoutDuration()
	if timeout <= 0 {
		return 0
	}

	m.mu.RLock()
	idle := lo.Filter(lo.Values(m.sessions), func(s *Session, _ int) bool {
		return now.Sub(s.LastActive()) > timeout
	})
	m.mu.RUnlock()

	n := 0
	for _, s := range idle {
		if m.abort(s, "空闲超时") {
			n++
		}
	}
	return n
}

func validateName(name string) error {
	if strings.TrimSpace(name) == "" || strings.ContainsAny(name, "|\r\n") {
		return apperrors.ErrInvalidMessage
	}
	return nil
}
