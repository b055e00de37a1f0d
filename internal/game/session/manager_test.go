package session

import (
	"context"
	"errors"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/parallel-boggle/internal/apperrors"
	"github.com/palemoky/parallel-boggle/internal/config"
	"github.com/palemoky/parallel-boggle/internal/game/dictionary"
	"github.com/palemoky/parallel-boggle/internal/network/server/storage"
)

// threeLetterDict 所有三字母组合，任意棋盘都有足够多的解
var threeLetterDict = sync.OnceValue(func() *dictionary.Dictionary {
	words := make([]string, 0, 26*26*26)
	for a := 'a'; a <= 'z'; a++ {
		for b := 'a'; b <= 'z'; b++ {
			for c := 'a'; c <= 'z'; c++ {
				words = append(words, string([]rune{a, b, c}))
			}
		}
	}
	return dictionary.New(words)
})

type fakeRecords struct {
	mu        sync.Mutex
	summaries []Summary
}

func (f *fakeRecords) UpdateRecords(s *Session) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.summaries = append(f.summaries, s.Summary())
}

func (f *fakeRecords) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.summaries)
}

func testGameConfig() config.GameConfig {
	return config.GameConfig{
		MinWords:         15,
		RoundsPerSession: 3,
		MaxPlayers:       8,
		BarrierTimeout:   5,
	}
}

func newTestManager(t *testing.T, opts ...Option) *Manager {
	t.Helper()
	m := NewManager(testGameConfig(), threeLetterDict(), opts...)
	t.Cleanup(m.Close)
	return m
}

func TestManager_CreateSession(t *testing.T) {
	t.Parallel()

	m := newTestManager(t)
	ctx := context.Background()

	snap, err := m.CreateSession(ctx, 2, "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, snap.ID)
	assert.GreaterOrEqual(t, len(snap.Solution), 15)
	assert.Equal(t, "alice", snap.Owner)
	require.Len(t, snap.Players, 1)
	assert.Equal(t, "alice", snap.Players[0].Name)
	assert.Len(t, snap.Rows, 4)

	snap2, err := m.CreateSession(ctx, 3, "bob")
	require.NoError(t, err)
	assert.Equal(t, 2, snap2.ID)
	assert.Equal(t, 2, m.ActiveCount())
}

func TestManager_CreateSessionInvalid(t *testing.T) {
	t.Parallel()

	m := newTestManager(t)
	ctx := context.Background()

	for _, n := range []int{-1, 0, 1, 9} {
		_, err := m.CreateSession(ctx, n, "alice")
		assert.ErrorIs(t, err, apperrors.ErrInvalidPlayerCount, "players=%d", n)
	}
	_, err := m.CreateSession(ctx, 2, "")
	assert.ErrorIs(t, err, apperrors.ErrInvalidMessage)
	_, err = m.CreateSession(ctx, 2, "a|b")
	assert.ErrorIs(t, err, apperrors.ErrInvalidMessage)
	assert.Zero(t, m.ActiveCount())
}

func TestManager_BoardGenerationFailureKeepsIDsGapless(t *testing.T) {
	t.Parallel()

	cfg := testGameConfig()
	cfg.MaxBoardAttempts = 3
	m := NewManager(cfg, dictionary.New(nil))
	t.Cleanup(m.Close)

	_, err := m.CreateSession(context.Background(), 2, "alice")
	assert.ErrorIs(t, err, apperrors.ErrBoardGeneration)

	m.dict = threeLetterDict()
	snap, err := m.CreateSession(context.Background(), 2, "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, snap.ID)
}

func TestManager_ConcurrentIDsAreGapless(t *testing.T) {
	t.Parallel()

	m := newTestManager(t)
	const n = 40

	ids := make([]int, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Go(func() {
			snap, err := m.CreateSession(context.Background(), 2, "p")
			assert.NoError(t, err)
			ids[i] = snap.ID
		})
	}
	wg.Wait()

	slices.Sort(ids)
	for i, id := range ids {
		assert.Equal(t, i+1, id)
	}
}

func TestManager_JoinSession(t *testing.T) {
	t.Parallel()

	m := newTestManager(t)
	ctx := context.Background()
	snap, err := m.CreateSession(ctx, 2, "alice")
	require.NoError(t, err)

	_, err = m.JoinSession(ctx, 99, "bob")
	assert.ErrorIs(t, err, apperrors.ErrInvalidSession)

	_, err = m.JoinSession(ctx, snap.ID, "alice")
	assert.ErrorIs(t, err, apperrors.ErrDuplicatePlayer)

	joined, err := m.JoinSession(ctx, snap.ID, "bob")
	require.NoError(t, err)
	assert.Len(t, joined.Players, 2)
	assert.Equal(t, snap.Rows, joined.Rows)

	_, err = m.JoinSession(ctx, snap.ID, "carol")
	assert.ErrorIs(t, err, apperrors.ErrSessionFull)
}

func TestManager_SubmitAndStatistics(t *testing.T) {
	t.Parallel()

	m := newTestManager(t)
	ctx := context.Background()
	snap, err := m.CreateSession(ctx, 2, "alice")
	require.NoError(t, err)
	_, err = m.JoinSession(ctx, snap.ID, "bob")
	require.NoError(t, err)

	word := snap.Solution[0]
	resp, err := m.SubmitWord(ctx, snap.ID, "alice", word)
	require.NoError(t, err)
	assert.Equal(t, 1, resp.LatestPoints)

	resp, err = m.SubmitWord(ctx, snap.ID, "bob", word)
	require.NoError(t, err)
	assert.Equal(t, -1, resp.LatestPoints)
	assert.Equal(t, 2, resp.Rank)

	resp, err = m.SubmitWord(ctx, snap.ID, "bob", word)
	require.NoError(t, err)
	assert.Equal(t, -2, resp.LatestPoints)
	assert.Equal(t, -3, resp.Score)

	_, err = m.SubmitWord(ctx, snap.ID, "bob", "qq")
	assert.ErrorIs(t, err, apperrors.ErrInvalidWord)
	_, err = m.SubmitWord(ctx, 42, "bob", word)
	assert.ErrorIs(t, err, apperrors.ErrInvalidSession)

	stats, err := m.GetStatistics(ctx, snap.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Score)
	assert.Equal(t, 1, stats.HighScore)
	assert.Equal(t, 1, stats.Rank)

	_, err = m.GetStatistics(ctx, snap.ID, "nobody")
	assert.ErrorIs(t, err, apperrors.ErrPlayerNotFound)
}

func TestManager_RequestStartBlocksUntilAllArrive(t *testing.T) {
	t.Parallel()

	m := newTestManager(t)
	ctx := context.Background()
	snap, err := m.CreateSession(ctx, 3, "alice")
	require.NoError(t, err)
	_, err = m.JoinSession(ctx, snap.ID, "bob")
	require.NoError(t, err)
	_, err = m.JoinSession(ctx, snap.ID, "carol")
	require.NoError(t, err)

	var returned atomic.Int32
	var wg sync.WaitGroup
	for range 2 {
		wg.Go(func() {
			assert.NoError(t, m.RequestStart(ctx, snap.ID))
			returned.Add(1)
		})
	}

	s := m.GetSession(snap.ID)
	require.Eventually(t, func() bool { return s.State() == StateRoundBarrierWait }, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, returned.Load(), "no caller may return before the third arrives")

	require.NoError(t, m.RequestStart(ctx, snap.ID))
	wg.Wait()
	assert.EqualValues(t, 2, returned.Load())
	assert.Equal(t, StateInRound, s.State())
}

// playRound 所有玩家请求开始、提交一个单词、然后在回合结束屏障上汇合
func playRound(t *testing.T, m *Manager, id int, players []string, word string) []Response {
	t.Helper()
	ctx := context.Background()

	results := make([]Response, len(players))
	var wg sync.WaitGroup
	for i, name := range players {
		wg.Go(func() {
			if !assert.NoError(t, m.RequestStart(ctx, id)) {
				return
			}
			_, _ = m.SubmitWord(ctx, id, name, word)
			resp, err := m.GetSessionStatistics(ctx, id, name)
			assert.NoError(t, err)
			results[i] = resp
		})
	}
	wg.Wait()
	return results
}

func TestManager_FinalizedAfterThreeRounds(t *testing.T) {
	t.Parallel()

	records := &fakeRecords{}
	m := newTestManager(t, WithRecords(records))
	ctx := context.Background()
	snap, err := m.CreateSession(ctx, 2, "alice")
	require.NoError(t, err)
	_, err = m.JoinSession(ctx, snap.ID, "bob")
	require.NoError(t, err)
	players := []string{"alice", "bob"}
	s := m.GetSession(snap.ID)

	for round := 1; round <= 2; round++ {
		results := playRound(t, m, snap.ID, players, snap.Solution[round])
		for _, r := range results {
			assert.Equal(t, round, r.Round)
			assert.False(t, r.Finished)
		}
		assert.Equal(t, round, s.RoundsCompleted())
		assert.NotNil(t, m.GetSession(snap.ID), "session must survive round %d", round)
		assert.Zero(t, records.count())
	}

	results := playRound(t, m, snap.ID, players, snap.Solution[3])
	assert.Equal(t, results[0].HighScore, results[1].HighScore)
	for _, r := range results {
		assert.Equal(t, 3, r.Round)
		assert.True(t, r.Finished)
	}

	assert.Equal(t, StateFinalized, s.State())
	assert.Nil(t, m.GetSession(snap.ID))
	assert.Equal(t, 1, records.count())

	_, err = m.GetStatistics(ctx, snap.ID, "alice")
	assert.ErrorIs(t, err, apperrors.ErrInvalidSession)
	assert.ErrorIs(t, m.FinalizeSession(ctx, snap.ID), apperrors.ErrInvalidSession)
	assert.ErrorIs(t, m.RequestStart(ctx, snap.ID), apperrors.ErrInvalidSession)
}

func TestManager_FinalizeSessionOnce(t *testing.T) {
	t.Parallel()

	records := &fakeRecords{}
	m := newTestManager(t, WithRecords(records))
	ctx := context.Background()
	snap, err := m.CreateSession(ctx, 2, "alice")
	require.NoError(t, err)

	require.NoError(t, m.FinalizeSession(ctx, snap.ID))
	assert.ErrorIs(t, m.FinalizeSession(ctx, snap.ID), apperrors.ErrInvalidSession)
	assert.Equal(t, 1, records.count())

	_, err = m.JoinSession(ctx, snap.ID, "bob")
	assert.ErrorIs(t, err, apperrors.ErrInvalidSession)
}

func TestManager_FinalizeReleasesWaiters(t *testing.T) {
	t.Parallel()

	m := newTestManager(t)
	ctx := context.Background()
	snap, err := m.CreateSession(ctx, 2, "alice")
	require.NoError(t, err)

	errs := make(chan error, 1)
	go func() { errs <- m.RequestStart(ctx, snap.ID) }()
	s := m.GetSession(snap.ID)
	require.Eventually(t, func() bool { return s.State() == StateRoundBarrierWait }, time.Second, 5*time.Millisecond)

	require.NoError(t, m.FinalizeSession(ctx, snap.ID))
	select {
	case err := <-errs:
		assert.ErrorIs(t, err, apperrors.ErrBarrierFailure)
	case <-time.After(time.Second):
		t.Fatal("waiter still blocked after finalize")
	}
	assert.Equal(t, StateFinalized, s.State())
}

func TestManager_DisconnectAbortsSession(t *testing.T) {
	t.Parallel()

	records := &fakeRecords{}
	m := newTestManager(t, WithRecords(records))
	bg := context.Background()
	snap, err := m.CreateSession(bg, 3, "alice")
	require.NoError(t, err)
	_, err = m.JoinSession(bg, snap.ID, "bob")
	require.NoError(t, err)
	s := m.GetSession(snap.ID)

	errs := make(chan error, 1)
	go func() { errs <- m.RequestStart(bg, snap.ID) }()

	ctx, cancel := context.WithCancel(bg)
	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()
	err = m.RequestStart(ctx, snap.ID)
	assert.ErrorIs(t, err, apperrors.ErrBarrierFailure)

	select {
	case err := <-errs:
		assert.ErrorIs(t, err, apperrors.ErrBarrierFailure)
	case <-time.After(time.Second):
		t.Fatal("remaining waiter wedged")
	}

	// 同步失败的会话以 aborted 状态结算，只写入一次记录
	assert.Equal(t, StateAborted, s.State())
	assert.Nil(t, m.GetSession(snap.ID))
	assert.Equal(t, 1, records.count())
	assert.ErrorIs(t, m.FinalizeSession(bg, snap.ID), apperrors.ErrInvalidSession)
	assert.Equal(t, 1, records.count())
}

func TestManager_BarrierFailureKeepsScores(t *testing.T) {
	t.Parallel()

	records := &fakeRecords{}
	cfg := testGameConfig()
	cfg.BarrierTimeout = 1
	m := NewManager(cfg, threeLetterDict(), WithRecords(records))
	t.Cleanup(m.Close)

	ctx := context.Background()
	snap, err := m.CreateSession(ctx, 2, "alice")
	require.NoError(t, err)
	_, err = m.SubmitWord(ctx, snap.ID, "alice", snap.Solution[0])
	require.NoError(t, err)

	// bob 从未加入，开始屏障超时
	err = m.RequestStart(ctx, snap.ID)
	assert.ErrorIs(t, err, apperrors.ErrBarrierFailure)

	require.Equal(t, 1, records.count())
	sum := records.summaries[0]
	assert.Equal(t, "alice", sum.Winner)
	assert.Equal(t, 1, sum.WinnerScore)
	assert.Equal(t, 1, sum.NewWords)
}

func TestManager_BarrierTimeout(t *testing.T) {
	t.Parallel()

	cfg := testGameConfig()
	cfg.BarrierTimeout = 1
	m := NewManager(cfg, threeLetterDict())
	t.Cleanup(m.Close)

	snap, err := m.CreateSession(context.Background(), 2, "alice")
	require.NoError(t, err)

	start := time.Now()
	err = m.RequestStart(context.Background(), snap.ID)
	assert.ErrorIs(t, err, apperrors.ErrBarrierFailure)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.GreaterOrEqual(t, time.Since(start), 900*time.Millisecond)
	assert.Nil(t, m.GetSession(snap.ID))
}

func TestManager_GetSessionStatisticsRequiresPlayer(t *testing.T) {
	t.Parallel()

	m := newTestManager(t)
	snap, err := m.CreateSession(context.Background(), 2, "alice")
	require.NoError(t, err)

	_, err = m.GetSessionStatistics(context.Background(), snap.ID, "mallory")
	assert.ErrorIs(t, err, apperrors.ErrPlayerNotFound)
	assert.NotNil(t, m.GetSession(snap.ID))
}

func TestManager_CleanupIdleSessions(t *testing.T) {
	t.Parallel()

	records := &fakeRecords{}
	cfg := testGameConfig()
	cfg.SessionTimeout = 1
	m := NewManager(cfg, threeLetterDict(), WithRecords(records))
	t.Cleanup(m.Close)

	snap, err := m.CreateSession(context.Background(), 2, "alice")
	require.NoError(t, err)

	assert.Zero(t, m.cleanup(time.Now()))
	assert.Equal(t, 1, m.cleanup(time.Now().Add(2*time.Minute)))
	assert.Nil(t, m.GetSession(snap.ID))
	assert.Zero(t, records.count(), "idle sessions expire without a record")
}

func TestManager_ActiveSessionsAndClose(t *testing.T) {
	t.Parallel()

	m := NewManager(testGameConfig(), threeLetterDict())
	ctx := context.Background()
	for _, owner := range []string{"alice", "bob", "carol"} {
		_, err := m.CreateSession(ctx, 2, owner)
		require.NoError(t, err)
	}

	statuses := m.ActiveSessions()
	require.Len(t, statuses, 3)
	assert.Equal(t, []int{1, 2, 3}, []int{statuses[0].ID, statuses[1].ID, statuses[2].ID})
	assert.Equal(t, "bob", statuses[1].Owner)
	assert.Equal(t, []string{"bob"}, statuses[1].Players)
	assert.Equal(t, "awaiting_players", statuses[1].State)

	m.Close()
	m.Close()
	assert.Zero(t, m.ActiveCount())
}

func TestManager_MirrorsToRedis(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	store := storage.NewRedisStore(client)
	lb := storage.NewLeaderboardManager(client)

	m := newTestManager(t, WithStore(store), WithLeaderboard(lb))
	ctx := context.Background()
	snap, err := m.CreateSession(ctx, 2, "alice")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		data, err := store.LoadSession(ctx, snap.ID)
		return err == nil && data != nil && data.Owner == "alice" && data.SolutionSize == len(snap.Solution)
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, m.FinalizeSession(ctx, snap.ID))
	require.Eventually(t, func() bool {
		data, _ := store.LoadSession(ctx, snap.ID)
		rank, _ := lb.GetPlayerRank(ctx, "alice")
		return data == nil && rank == 1
	}, time.Second, 10*time.Millisecond)
}

func TestManager_PurgeStaleMirrors(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	store := storage.NewRedisStore(client)
	ctx := context.Background()

	// 上一个进程留下的镜像
	require.NoError(t, store.SaveSession(ctx, &storage.SessionData{ID: 900, Owner: "ghost"}))

	m := newTestManager(t, WithStore(store))
	snap, err := m.CreateSession(ctx, 2, "alice")
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		data, err := store.LoadSession(ctx, snap.ID)
		return err == nil && data != nil
	}, time.Second, 10*time.Millisecond)

	n, err := m.PurgeStaleMirrors(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	ids, err := store.GetAllSessionIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{snap.ID}, ids)

	n, err = newTestManager(t).PurgeStaleMirrors(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestManager_MirrorNotResurrectedAfterFinalize(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	store := storage.NewRedisStore(client)

	m := newTestManager(t, WithStore(store))
	ctx := context.Background()

	for range 20 {
		snap, err := m.CreateSession(ctx, 2, "alice")
		require.NoError(t, err)
		for _, w := range snap.Solution[:10] {
			_, err := m.SubmitWord(ctx, snap.ID, "alice", w)
			require.NoError(t, err)
		}
		require.NoError(t, m.FinalizeSession(ctx, snap.ID))
	}

	// 终止后的写入被丢弃，删除之后不会再出现镜像
	require.Eventually(t, func() bool {
		ids, err := store.GetAllSessionIDs(ctx)
		return err == nil && len(ids) == 0
	}, 2*time.Second, 10*time.Millisecond)
	assert.Never(t, func() bool {
		ids, _ := store.GetAllSessionIDs(ctx)
		return len(ids) > 0
	}, 200*time.Millisecond, 20*time.Millisecond)
}
