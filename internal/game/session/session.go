package session

import (
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/samber/lo"

	"github.com/palemoky/parallel-boggle/internal/apperrors"
	"github.com/palemoky/parallel-boggle/internal/game/board"
	"github.com/palemoky/parallel-boggle/internal/game/dictionary"
)

// Response 提交单词或查询统计的结果
type Response struct {
	LatestPoints int  `json:"latest_points"`
	Score        int  `json:"score"`
	HighScore    int  `json:"high_score"`
	Rank         int  `json:"rank"`
	Round        int  `json:"rounds_completed"`
	Finished     bool `json:"finished"`
}

// Summary 会话汇总，结算时写入服务器记录
type Summary struct {
	Winner        string
	WinnerScore   int
	BestWord      string
	BestWordScore int
	NewWords      int
	RepeatedWords int
}

// Snapshot 会话的值快照，供两种协议序列化
type Snapshot struct {
	ID               int         `json:"session_id"`
	Board            board.Board `json:"-"`
	Rows             []string    `json:"board"`
	Solution         []string    `json:"solution"`
	Players          []Player    `json:"players"`
	Owner            string      `json:"owner"`
	RequiredPlayers  int         `json:"required_players"`
	RoundsCompleted  int         `json:"rounds_completed"`
	RoundsPerSession int         `json:"rounds_per_session"`
	State            string      `json:"state"`
}

// Session 一局游戏：棋盘、解词集合、玩家与提交记录。
// 所有状态都在 mu 保护下读写。
type Session struct {
	ID       int
	Board    board.Board
	Owner    string
	Required int
	Rounds   int

	dict        *dictionary.Dictionary
	solution    []string
	solutionSet map[string]struct{}

	players map[string]*Player
	order   []string
	ledger  map[string]int

	state           State
	roundsCompleted int
	roundResults    map[string]Response
	createdAt       time.Time
	lastActive      time.Time

	mu sync.RWMutex

	// Redis 镜像写入串行化：mirrorSeq 为最新快照序号，mirrored 为已写入的序号
	mirrorMu  sync.Mutex
	mirrorSeq atomic.Uint64
	mirrored  uint64
}

func newSession(id int, b board.Board, solution []string, dict *dictionary.Dictionary, required, rounds int, owner string) *Session {
	now := time.Now()
	s := &Session{
		ID:          id,
		Board:       b,
		Owner:       owner,
		Required:    required,
		Rounds:      rounds,
		dict:        dict,
		solution:    solution,
		solutionSet: lo.SliceToMap(solution, func(w string) (string, struct{}) { return w, struct{}{} }),
		players:     make(map[string]*Player, required),
		order:       make([]string, 0, required),
		ledger:      make(map[string]int),
		state:       StateCreated,
		createdAt:   now,
		lastActive:  now,
	}
	s.players[owner] = newPlayer(owner)
	s.order = append(s.order, owner)
	s.state = StateAwaitingPlayers
	return s
}

// AddPlayer 加入玩家
func (s *Session) AddPlayer(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Terminal() {
		return apperrors.ErrInvalidSession
	}
	if len(s.players) >= s.Required {
		return apperrors.ErrSessionFull
	}
	if _, exists := s.players[name]; exists {
		return apperrors.ErrDuplicatePlayer
	}

	s.players[name] = newPlayer(name)
	s.order = append(s.order, name)
	s.lastActive = time.Now()
	return nil
}

// HasPlayer 玩家是否在会话中
func (s *Session) HasPlayer(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.players[name]
	return ok
}

// Submit 提交单词：首次提交得词典分，之后每次重复得 -(已重复次数)
func (s *Session) Submit(name, word string) (Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.players[name]
	if !ok {
		return Response{}, apperrors.ErrPlayerNotFound
	}
	key := strings.ToLower(strings.TrimSpace(word))
	if _, ok := s.solutionSet[key]; !ok {
		return Response{}, apperrors.ErrInvalidWord
	}

	var points int
	count := s.ledger[key] + 1
	if count == 1 {
		v, ok := s.dict.Value(key)
		if !ok {
			return Response{}, apperrors.ErrInvalidWord
		}
		points = v
	} else {
		points = -(count - 1)
	}
	s.ledger[key] = count
	p.apply(key, points, count > 1)
	s.lastActive = time.Now()

	resp := s.responseLocked(p)
	resp.LatestPoints = points
	return resp, nil
}

// Stats 当前排名与分数，不提交单词
func (s *Session) Stats(name string) (Response, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.players[name]
	if !ok {
		return Response{}, apperrors.ErrPlayerNotFound
	}
	return s.responseLocked(p), nil
}

// RoundResult 最近一次回合结束时冻结的统计
func (s *Session) RoundResult(name string) (Response, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if resp, ok := s.roundResults[name]; ok {
		return resp, nil
	}
	p, ok := s.players[name]
	if !ok {
		return Response{}, apperrors.ErrPlayerNotFound
	}
	return s.responseLocked(p), nil
}

// responseLocked 排名 = 1 + 严格更高分的玩家数
func (s *Session) responseLocked(p *Player) Response {
	high := p.Score
	rank := 1
	for _, other := range s.players {
		if other.Score > high {
			high = other.Score
		}
		if other.Score > p.Score {
			rank++
		}
	}
	return Response{
		Score:     p.Score,
		HighScore: high,
		Rank:      rank,
		Round:     s.roundsCompleted,
		Finished:  s.roundsCompleted >= s.Rounds || s.state.Terminal(),
	}
}

// Ledger 单词提交次数
func (s *Session) Ledger(word string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ledger[strings.ToLower(word)]
}

// Solution 解词列表（已排序，只读）
func (s *Session) Solution() []string {
	return s.solution
}

// ValidWord 单词是否在解词集合中
func (s *Session) ValidWord(word string) bool {
	_, ok := s.solutionSet[strings.ToLower(word)]
	return ok
}

// State 当前状态
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// RoundsCompleted 已完成回合数
func (s *Session) RoundsCompleted() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.roundsCompleted
}

// PlayerCount 当前人数
func (s *Session) PlayerCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.players)
}

// LastActive 最近活动时间
func (s *Session) LastActive() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastActive
}

// Players 按加入顺序返回玩家副本
func (s *Session) Players() []Player {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.playersLocked()
}

func (s *Session) playersLocked() []Player {
	return lo.Map(s.order, func(name string, _ int) Player { return *s.players[name] })
}

// Summary 汇总各玩家成绩：最高分者为胜者，最高的个人最佳单词为本局最佳单词，
// 新词与重复词次数求和。比较均为严格大于，平分保留先出现者
func (s *Session) Summary() Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var sum Summary
	for _, name := range s.order {
		p := s.players[name]
		if p.Score > sum.WinnerScore {
			sum.Winner = p.Name
			sum.WinnerScore = p.Score
		}
		if p.BestWord != "" && p.BestWordPoints > sum.BestWordScore {
			sum.BestWord = p.BestWord
			sum.BestWordScore = p.BestWordPoints
		}
		sum.NewWords += p.NewWords
		sum.RepeatedWords += p.RepeatedWords
	}
	return sum
}

// Snapshot 会话的值快照
func (s *Session) Snapshot() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return &Snapshot{
		ID:               s.ID,
		Board:            s.Board,
		Rows:             s.Board.Rows(),
		Solution:         s.solution,
		Players:          s.playersLocked(),
		Owner:            s.Owner,
		RequiredPlayers:  s.Required,
		RoundsCompleted:  s.roundsCompleted,
		RoundsPerSession: s.Rounds,
		State:            s.state.String(),
	}
}

// --- 状态流转（由 Manager 驱动） ---

func (s *Session) awaitStart() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.state.Terminal() && s.state != StateInRound {
		s.state = StateRoundBarrierWait
	}
	s.lastActive = time.Now()
}

func (s *Session) beginRound() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.state.Terminal() {
		s.state = StateInRound
	}
	s.lastActive = time.Now()
}

func (s *Session) awaitRoundEnd() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.state.Terminal() {
		s.state = StateRoundEndBarrierWait
	}
	s.lastActive = time.Now()
}

// completeRound 回合计数加一并冻结本回合统计，返回是否已打满全部回合
func (s *Session) completeRound() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.roundsCompleted++
	s.lastActive = time.Now()
	done := s.roundsCompleted >= s.Rounds
	if !done && !s.state.Terminal() {
		s.state = StateRoundBarrierWait
	}
	s.roundResults = make(map[string]Response, len(s.players))
	for name, p := range s.players {
		s.roundResults[name] = s.responseLocked(p)
	}
	return done
}

// end 进入终止状态，返回是否由本次调用完成转换
func (s *Session) end(state State) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Terminal() {
		return false
	}
	s.state = state
	return true
}
