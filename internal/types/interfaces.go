package types

import (
	"context"

	"github.com/palemoky/parallel-boggle/internal/game/session"
	"github.com/palemoky/parallel-boggle/internal/protocol"
)

// GameService 游戏核心服务接口，两种传输协议共用（用于打破循环依赖）
type GameService interface {
	CreateSession(ctx context.Context, numPlayers int, creator string) (*session.Snapshot, error)
	JoinSession(ctx context.Context, id int, name string) (*session.Snapshot, error)
	RequestStart(ctx context.Context, id int) error
	SubmitWord(ctx context.Context, id int, player, word string) (session.Response, error)
	GetStatistics(ctx context.Context, id int, player string) (session.Response, error)
	GetSessionStatistics(ctx context.Context, id int, player string) (session.Response, error)
	FinalizeSession(ctx context.Context, id int) error
}

// ClientInterface 定义 websocket 客户端接口
type ClientInterface interface {
	GetID() string
	SendMessage(msg *protocol.Message)
	Close()
}

var _ GameService = (*session.Manager)(nil)
