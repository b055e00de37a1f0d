package server

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/palemoky/parallel-boggle/internal/logger"
	"github.com/palemoky/parallel-boggle/internal/protocol"
	"github.com/palemoky/parallel-boggle/internal/protocol/codec"
	"github.com/palemoky/parallel-boggle/internal/types"
)

const (
	// 写入超时
	writeWait = 10 * time.Second

	// 读取超时（pong 等待时间）
	pongWait = 60 * time.Second

	// ping 发送间隔（必须小于 pongWait）
	pingPeriod = (pongWait * 9) / 10

	// 消息最大大小
	maxMessageSize = 4096
)

var _ types.ClientInterface = (*Client)(nil)

// Client 一个 websocket RPC 连接
//
// 每个请求在独立的 goroutine 中处理，阻塞在回合同步上的请求不会卡住读循环。
// 连接断开时取消 ctx，所有在途请求随之退出。
type Client struct {
	ID string
	IP string

	server  *Server
	conn    *websocket.Conn
	send    chan []byte
	limiter *rate.Limiter

	ctx      context.Context
	cancel   context.CancelFunc
	inflight sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

// NewClient 创建新客户端
func NewClient(s *Server, conn *websocket.Conn) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		ID:      uuid.New().String(),
		server:  s,
		conn:    conn,
		send:    make(chan []byte, 256),
		limiter: NewCommandLimiter(s.config.Security.CommandsPerSecond, s.config.Security.Burst),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// GetID 连接 ID
func (c *Client) GetID() string {
	return c.ID
}

// ReadPump 从 WebSocket 读取消息
func (c *Client) ReadPump() {
	defer func() {
		c.handleDisconnect()
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Warn().Err(err).Str("conn", c.ID).Msg("读取错误")
			}
			return
		}

		msg, err := codec.Decode(data)
		if err != nil {
			log.Debug().Err(err).Str("conn", c.ID).Msg("消息解析错误")
			c.SendMessage(codec.NewErrorMessage(0, protocol.ErrCodeInvalidMsg))
			continue
		}

		// 消息速率限制检查
		if !c.limiter.Allow() {
			log.Warn().Str("conn", c.ID).Str("remote", c.IP).Msg("⚠️ 消息过于频繁")
			c.SendMessage(codec.NewErrorMessage(msg.ID, protocol.ErrCodeRateLimit))
			codec.PutMessage(msg)
			continue
		}

		c.inflight.Go(func() {
			defer codec.PutMessage(msg)
			defer func() {
				if r := recover(); r != nil {
					logger.LogPanic(r)
					c.SendMessage(codec.NewErrorMessage(msg.ID, protocol.ErrCodeUnknown))
				}
			}()
			c.SendMessage(c.server.handler.Handle(c.ctx, msg))
		})
	}
}

// WritePump 向 WebSocket 写入消息
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// 通道已关闭
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SendMessage 发送消息给客户端
func (c *Client) SendMessage(msg *protocol.Message) {
	data, err := codec.Encode(msg)
	if err != nil {
		log.Error().Err(err).Str("type", string(msg.Type)).Msg("消息编码错误")
		return
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return
	}

	select {
	case c.send <- data:
	default:
		// 发送缓冲区已满，断开连接
		log.Warn().Str("conn", c.ID).Msg("发送缓冲区已满")
		go c.Close()
	}
}

// handleDisconnect 取消在途请求并注销连接
func (c *Client) handleDisconnect() {
	c.cancel()
	c.inflight.Wait()
	c.server.UnregisterClient(c.ID)
	c.Close()
}

// Close 关闭客户端连接
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		c.cancel()
		close(c.send)
	}
}
