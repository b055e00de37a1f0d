//go:build !production

package testutil

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/palemoky/parallel-boggle/internal/game/session"
)

// MockGameService 实现 types.GameService 的 mock
type MockGameService struct {
	mock.Mock
}

func (m *MockGameService) CreateSession(ctx context.Context, numPlayers int, creator string) (*session.Snapshot, error) {
	args := m.Called(ctx, numPlayers, creator)
	return snapshotArg(args, 0), args.Error(1)
}

func (m *MockGameService) JoinSession(ctx context.Context, id int, name string) (*session.Snapshot, error) {
	args := m.Called(ctx, id, name)
	return snapshotArg(args, 0), args.Error(1)
}

func (m *MockGameService) RequestStart(ctx context.Context, id int) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockGameService) SubmitWord(ctx context.Context, id int, player, word string) (session.Response, error) {
	args := m.Called(ctx, id, player, word)
	return args.Get(0).(session.Response), args.Error(1)
}

func (m *MockGameService) GetStatistics(ctx context.Context, id int, player string) (session.Response, error) {
	args := m.Called(ctx, id, player)
	return args.Get(0).(session.Response), args.Error(1)
}

func (m *MockGameService) GetSessionStatistics(ctx context.Context, id int, player string) (session.Response, error) {
	args := m.Called(ctx, id, player)
	return args.Get(0).(session.Response), args.Error(1)
}

func (m *MockGameService) FinalizeSession(ctx context.Context, id int) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func snapshotArg(args mock.Arguments, i int) *session.Snapshot {
	if args.Get(i) == nil {
		return nil
	}
	return args.Get(i).(*session.Snapshot)
}
