package client

import (
	"context"
	"fmt"
	"time"

	"github.com/palemoky/parallel-boggle/internal/protocol"
	"github.com/palemoky/parallel-boggle/internal/protocol/codec"
)

// --- 便捷方法 ---

// CreateSession 创建会话
func (c *RPCClient) CreateSession(ctx context.Context, numPlayers int, name string) (protocol.SessionInfo, error) {
	return callAs[protocol.SessionInfo](ctx, c, protocol.MsgCreateSession, protocol.CreateSessionPayload{
		NumPlayers: numPlayers,
		PlayerName: name,
	})
}

// JoinSession 加入会话
func (c *RPCClient) JoinSession(ctx context.Context, id int, name string) (protocol.SessionInfo, error) {
	return callAs[protocol.SessionInfo](ctx, c, protocol.MsgJoinSession, protocol.JoinSessionPayload{
		SessionID:  id,
		PlayerName: name,
	})
}

// RequestStart 请求开始回合，阻塞直到所有玩家就绪
func (c *RPCClient) RequestStart(ctx context.Context, id int) error {
	_, err := c.Call(ctx, protocol.MsgRequestStart, protocol.SessionIDPayload{SessionID: id})
	return err
}

// SubmitWord 提交单词
func (c *RPCClient) SubmitWord(ctx context.Context, id int, player, word string) (protocol.StatsInfo, error) {
	return callAs[protocol.StatsInfo](ctx, c, protocol.MsgSubmitWord, protocol.SubmitWordPayload{
		SessionID:  id,
		PlayerName: player,
		Word:       word,
	})
}

// GetStatistics 实时统计
func (c *RPCClient) GetStatistics(ctx context.Context, id int, player string) (protocol.StatsInfo, error) {
	return callAs[protocol.StatsInfo](ctx, c, protocol.MsgGetStatistics, protocol.StatisticsPayload{
		SessionID:  id,
		PlayerName: player,
	})
}

// GetSessionStatistics 回合结束统计，阻塞直到所有玩家到齐
func (c *RPCClient) GetSessionStatistics(ctx context.Context, id int, player string) (protocol.StatsInfo, error) {
	return callAs[protocol.StatsInfo](ctx, c, protocol.MsgGetSessionStatistics, protocol.StatisticsPayload{
		SessionID:  id,
		PlayerName: player,
	})
}

// FinalizeSession 结算会话
func (c *RPCClient) FinalizeSession(ctx context.Context, id int) error {
	_, err := c.Call(ctx, protocol.MsgFinalizeSession, protocol.SessionIDPayload{SessionID: id})
	return err
}

// Ping 发送心跳，返回往返延迟
func (c *RPCClient) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if _, err := c.Call(ctx, protocol.MsgPing, protocol.PingPayload{Timestamp: start.UnixMilli()}); err != nil {
		return 0, err
	}
	return time.Since(start), nil
}

func callAs[T any](ctx context.Context, c *RPCClient, msgType protocol.MessageType, payload any) (T, error) {
	var zero T
	reply, err := c.Call(ctx, msgType, payload)
	if err != nil {
		return zero, err
	}
	if reply.Type != protocol.ResultType(msgType) {
		return zero, fmt.Errorf("%w: %s", errUnexpectedReply, reply.Type)
	}
	out, err := codec.ParsePayload[T](reply)
	if err != nil {
		return zero, err
	}
	return *out, nil
}
