package client

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/palemoky/parallel-boggle/internal/apperrors"
	"github.com/palemoky/parallel-boggle/internal/protocol"
	"github.com/palemoky/parallel-boggle/internal/protocol/line"
)

// LineClient 行协议客户端
//
// 一条持久连接上串行收发命令。任何 I/O 错误都会关闭连接并返回
// ErrTransportFailure，下一条命令重新建立连接，失败的命令本身不会重试。
type LineClient struct {
	addr     string
	attempts int

	mu   sync.Mutex
	conn net.Conn
	r    *bufio.Reader
}

// NewLineClient 创建客户端，首次命令时才建立连接
func NewLineClient(addr string) *LineClient {
	return &LineClient{addr: addr, attempts: maxReconnectAttempts}
}

// Do 发送一条命令并读取一行响应，ctx 结束时关闭连接
func (c *LineClient) Do(ctx context.Context, cmd line.Command) (line.Reply, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		conn, err := dialWithBackoff(ctx, c.addr, c.attempts)
		if err != nil {
			return line.Reply{}, err
		}
		c.conn = conn
		c.r = bufio.NewReader(conn)
	}

	conn := c.conn
	stop := context.AfterFunc(ctx, func() { _ = conn.SetDeadline(time.Now()) })
	defer stop()

	if _, err := fmt.Fprintf(conn, "%s\n", cmd.Encode()); err != nil {
		return line.Reply{}, c.fail(ctx, err)
	}
	raw, err := c.r.ReadString('\n')
	if err != nil {
		return line.Reply{}, c.fail(ctx, err)
	}
	return line.ParseReply(raw)
}

// fail 关闭连接并包装为传输错误
func (c *LineClient) fail(ctx context.Context, err error) error {
	_ = c.conn.Close()
	c.conn, c.r = nil, nil
	if ctxErr := ctx.Err(); ctxErr != nil {
		err = ctxErr
	}
	log.Debug().Err(err).Str("remote", c.addr).Msg("行协议连接已关闭")
	return fmt.Errorf("%w: %w", apperrors.ErrTransportFailure, err)
}

// Close 关闭连接
func (c *LineClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn, c.r = nil, nil
	return err
}

// --- 便捷方法 ---

// CreateSession 创建会话
func (c *LineClient) CreateSession(ctx context.Context, numPlayers int, name string) (protocol.SessionInfo, error) {
	return c.session(ctx, line.Command{Code: line.CodeCreateSession, Arg: numPlayers, Player: name}, name)
}

// JoinSession 加入会话
func (c *LineClient) JoinSession(ctx context.Context, id int, name string) (protocol.SessionInfo, error) {
	return c.session(ctx, line.Command{Code: line.CodeJoinSession, Arg: id, Player: name}, name)
}

// RequestStart 请求开始回合
func (c *LineClient) RequestStart(ctx context.Context, id int) error {
	_, err := c.Do(ctx, line.Command{Code: line.CodeRequestStart, Arg: id})
	return err
}

// SubmitWord 提交单词
func (c *LineClient) SubmitWord(ctx context.Context, id int, player, word string) (protocol.StatsInfo, error) {
	return c.stats(ctx, line.Command{Code: line.CodeSubmitWord, Arg: id, Player: player, Word: word})
}

// GetStatistics 实时统计
func (c *LineClient) GetStatistics(ctx context.Context, id int, player string) (protocol.StatsInfo, error) {
	return c.stats(ctx, line.Command{Code: line.CodeGetStatistics, Arg: id, Player: player})
}

// GetSessionStatistics 回合结束统计
func (c *LineClient) GetSessionStatistics(ctx context.Context, id int, player string) (protocol.StatsInfo, error) {
	return c.stats(ctx, line.Command{Code: line.CodeGetSessionStatistics, Arg: id, Player: player})
}

// FinalizeSession 结算会话
func (c *LineClient) FinalizeSession(ctx context.Context, id int) error {
	_, err := c.Do(ctx, line.Command{Code: line.CodeFinalizeSession, Arg: id})
	return err
}

// session 行协议的会话响应只有 ID、棋盘和解，其余字段由请求补全
func (c *LineClient) session(ctx context.Context, cmd line.Command, name string) (protocol.SessionInfo, error) {
	reply, err := c.Do(ctx, cmd)
	if err != nil {
		return protocol.SessionInfo{}, err
	}
	info, err := reply.Session()
	if err != nil {
		return protocol.SessionInfo{}, err
	}
	if cmd.Code == line.CodeCreateSession {
		info.Owner = name
		info.RequiredPlayers = cmd.Arg
	}
	return info, nil
}

func (c *LineClient) stats(ctx context.Context, cmd line.Command) (protocol.StatsInfo, error) {
	reply, err := c.Do(ctx, cmd)
	if err != nil {
		return protocol.StatsInfo{}, err
	}
	return reply.Stats()
}
