package server

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/palemoky/parallel-boggle/internal/apperrors"
	"github.com/palemoky/parallel-boggle/internal/game/session"
	"github.com/palemoky/parallel-boggle/internal/protocol"
	"github.com/palemoky/parallel-boggle/internal/protocol/codec"
	"github.com/palemoky/parallel-boggle/internal/protocol/convert"
	"github.com/palemoky/parallel-boggle/internal/protocol/line"
	"github.com/palemoky/parallel-boggle/internal/types"
)

// Handler 消息处理器，RPC 与行协议共用同一个游戏服务
type Handler struct {
	game types.GameService
}

// NewHandler 创建处理器
func NewHandler(game types.GameService) *Handler {
	return &Handler{game: game}
}

// Handle 处理一条 RPC 消息并返回响应，可能阻塞在回合同步上
func (h *Handler) Handle(ctx context.Context, msg *protocol.Message) *protocol.Message {
	var (
		result any
		err    error
	)

	switch msg.Type {
	case protocol.MsgPing:
		result, err = h.handlePing(msg)
	case protocol.MsgCreateSession:
		result, err = handleSession(msg, func(p protocol.CreateSessionPayload) (*session.Snapshot, error) {
			return h.game.CreateSession(ctx, p.NumPlayers, p.PlayerName)
		})
	case protocol.MsgJoinSession:
		result, err = handleSession(msg, func(p protocol.JoinSessionPayload) (*session.Snapshot, error) {
			return h.game.JoinSession(ctx, p.SessionID, p.PlayerName)
		})
	case protocol.MsgRequestStart:
		result, err = handleVoid(msg, func(p protocol.SessionIDPayload) error {
			return h.game.RequestStart(ctx, p.SessionID)
		})
	case protocol.MsgFinalizeSession:
		result, err = handleVoid(msg, func(p protocol.SessionIDPayload) error {
			return h.game.FinalizeSession(ctx, p.SessionID)
		})
	case protocol.MsgSubmitWord:
		result, err = handleStats(msg, func(p protocol.SubmitWordPayload) (session.Response, error) {
			return h.game.SubmitWord(ctx, p.SessionID, p.PlayerName, p.Word)
		})
	case protocol.MsgGetStatistics:
		result, err = handleStats(msg, func(p protocol.StatisticsPayload) (session.Response, error) {
			return h.game.GetStatistics(ctx, p.SessionID, p.PlayerName)
		})
	case protocol.MsgGetSessionStatistics:
		result, err = handleStats(msg, func(p protocol.StatisticsPayload) (session.Response, error) {
			return h.game.GetSessionStatistics(ctx, p.SessionID, p.PlayerName)
		})
	default:
		log.Warn().Str("type", string(msg.Type)).Msg("未知消息类型")
		return codec.NewErrorMessage(msg.ID, protocol.ErrCodeInvalidMsg)
	}

	if err != nil {
		return codec.NewErrorMessageFromError(msg.ID, err)
	}
	reply, err := codec.NewReply(msg.ID, protocol.ResultType(msg.Type), result)
	if err != nil {
		log.Error().Err(err).Str("type", string(msg.Type)).Msg("响应编码失败")
		return codec.NewErrorMessage(msg.ID, protocol.ErrCodeUnknown)
	}
	return reply
}

// handlePing 处理心跳消息
func (h *Handler) handlePing(msg *protocol.Message) (any, error) {
	payload, err := codec.ParsePayload[protocol.PingPayload](msg)
	if err != nil {
		return nil, apperrors.ErrInvalidMessage
	}
	return protocol.PongPayload{
		ClientTimestamp: payload.Timestamp,
		ServerTimestamp: time.Now().UnixMilli(),
	}, nil
}

func handleSession[P any](msg *protocol.Message, call func(P) (*session.Snapshot, error)) (any, error) {
	p, err := codec.ParsePayload[P](msg)
	if err != nil {
		return nil, apperrors.ErrInvalidMessage
	}
	snap, err := call(*p)
	if err != nil {
		return nil, err
	}
	return convert.SnapshotToInfo(snap), nil
}

func handleStats[P any](msg *protocol.Message, call func(P) (session.Response, error)) (any, error) {
	p, err := codec.ParsePayload[P](msg)
	if err != nil {
		return nil, apperrors.ErrInvalidMessage
	}
	resp, err := call(*p)
	if err != nil {
		return nil, err
	}
	return convert.ResponseToStats(resp), nil
}

func handleVoid[P any](msg *protocol.Message, call func(P) error) (any, error) {
	p, err := codec.ParsePayload[P](msg)
	if err != nil {
		return nil, apperrors.ErrInvalidMessage
	}
	if err := call(*p); err != nil {
		return nil, err
	}
	return struct{}{}, nil
}

// HandleLine 处理一行命令并返回响应行（不含换行）
func (h *Handler) HandleLine(ctx context.Context, raw string) string {
	cmd, err := line.Parse(raw)
	if err != nil {
		return line.FormatError(err)
	}

	switch cmd.Code {
	case line.CodeCreateSession:
		return lineSession(h.game.CreateSession(ctx, cmd.Arg, cmd.Player))
	case line.CodeJoinSession:
		return lineSession(h.game.JoinSession(ctx, cmd.Arg, cmd.Player))
	case line.CodeRequestStart:
		return lineVoid(h.game.RequestStart(ctx, cmd.Arg))
	case line.CodeFinalizeSession:
		return lineVoid(h.game.FinalizeSession(ctx, cmd.Arg))
	case line.CodeSubmitWord:
		return lineStats(h.game.SubmitWord(ctx, cmd.Arg, cmd.Player, cmd.Word))
	case line.CodeGetStatistics:
		return lineStats(h.game.GetStatistics(ctx, cmd.Arg, cmd.Player))
	case line.CodeGetSessionStatistics:
		return lineStats(h.game.GetSessionStatistics(ctx, cmd.Arg, cmd.Player))
	default:
		return line.FormatError(line.ErrUnknownCommand)
	}
}

func lineSession(snap *session.Snapshot, err error) string {
	if err != nil {
		return line.FormatError(err)
	}
	return line.FormatSession(convert.SnapshotToInfo(snap))
}

func lineStats(resp session.Response, err error) string {
	if err != nil {
		return line.FormatError(err)
	}
	return line.FormatStats(convert.ResponseToStats(resp))
}

func lineVoid(err error) string {
	if err != nil {
		return line.FormatError(err)
	}
	return line.FormatProcessed()
}
