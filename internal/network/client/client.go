package client

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/palemoky/parallel-boggle/internal/apperrors"
	"github.com/palemoky/parallel-boggle/internal/protocol"
	"github.com/palemoky/parallel-boggle/internal/protocol/codec"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// 握手超时
	handshakeTimeout = 10 * time.Second
)

// ErrClosed 客户端已关闭
var ErrClosed = fmt.Errorf("%w: connection closed", apperrors.ErrTransportFailure)

// Game 两种传输协议客户端的共同操作
type Game interface {
	CreateSession(ctx context.Context, numPlayers int, name string) (protocol.SessionInfo, error)
	JoinSession(ctx context.Context, id int, name string) (protocol.SessionInfo, error)
	RequestStart(ctx context.Context, id int) error
	SubmitWord(ctx context.Context, id int, player, word string) (protocol.StatsInfo, error)
	GetStatistics(ctx context.Context, id int, player string) (protocol.StatsInfo, error)
	GetSessionStatistics(ctx context.Context, id int, player string) (protocol.StatsInfo, error)
	FinalizeSession(ctx context.Context, id int) error
	Close() error
}

var (
	_ Game = (*RPCClient)(nil)
	_ Game = (*LineClient)(nil)
)

// RPCClient websocket RPC 客户端，按请求 ID 配对响应，可并发调用
type RPCClient struct {
	ServerURL    string
	ConnectionID string
	RoundSeconds int

	// 网络延迟（毫秒）
	Latency atomic.Int64

	conn  *websocket.Conn
	send  chan []byte
	done  chan struct{}
	ready chan struct{}

	nextID  atomic.Uint64
	pending map[uint64]chan *protocol.Message

	mu     sync.Mutex
	closed bool
}

// DialRPC 连接服务器并等待 connected 消息
func DialRPC(ctx context.Context, serverURL string) (*RPCClient, error) {
	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, serverURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrTransportFailure, err)
	}

	c := &RPCClient{
		ServerURL: serverURL,
		conn:      conn,
		send:      make(chan []byte, 256),
		done:      make(chan struct{}),
		ready:     make(chan struct{}),
		pending:   make(map[uint64]chan *protocol.Message),
	}

	// 启动读写协程
	go c.readPump()
	go c.writePump()

	select {
	case <-c.ready:
		return c, nil
	case <-c.done:
		return nil, ErrClosed
	case <-ctx.Done():
		_ = c.Close()
		return nil, ctx.Err()
	}
}

// Call 发送请求并等待同 ID 的响应，错误响应转为 GameError
func (c *RPCClient) Call(ctx context.Context, msgType protocol.MessageType, payload any) (*protocol.Message, error) {
	id := c.nextID.Add(1)
	msg, err := codec.NewReply(id, msgType, payload)
	if err != nil {
		return nil, err
	}
	data, err := codec.Encode(msg)
	if err != nil {
		return nil, err
	}

	reply := make(chan *protocol.Message, 1)
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	c.pending[id] = reply
	c.mu.Unlock()
	defer c.forget(id)

	select {
	case c.send <- data:
	case <-c.done:
		return nil, ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case resp := <-reply:
		if resp.Type == protocol.MsgError {
			return nil, codec.ErrorFromPayload(resp)
		}
		return resp, nil
	case <-c.done:
		return nil, ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *RPCClient) forget(id uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.pending, id)
}

// deliver 把响应交给等待中的调用方
func (c *RPCClient) deliver(msg *protocol.Message) bool {
	c.mu.Lock()
	ch, ok := c.pending[msg.ID]
	c.mu.Unlock()
	if !ok {
		return false
	}
	ch <- msg
	return true
}

// Close 关闭连接，等待中的调用返回 ErrClosed
func (c *RPCClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	close(c.done)
	return c.conn.Close()
}

// IsConnected 是否已连接
func (c *RPCClient) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.closed
}

// Done 连接关闭时关闭
func (c *RPCClient) Done() <-chan struct{} {
	return c.done
}

// errUnexpectedReply 响应类型与请求不匹配
var errUnexpectedReply = errors.New("unexpected reply type")
