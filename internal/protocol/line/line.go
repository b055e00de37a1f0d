// Package line implements the pipe-delimited text protocol used by the raw
// socket front end. One request per line: `<code>|<int>|<string>`.
package line

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/palemoky/parallel-boggle/internal/apperrors"
	"github.com/palemoky/parallel-boggle/internal/game/board"
	"github.com/palemoky/parallel-boggle/internal/protocol"
)

// Code 命令码
type Code int

const (
	CodeCreateSession        Code = 1
	CodeRequestStart         Code = 2
	CodeSubmitWord           Code = 3
	CodeGetStatistics        Code = 4
	CodeFinalizeSession      Code = 5
	CodeJoinSession          Code = 6
	CodeGetSessionStatistics Code = 7
)

const (
	sep          = "|"
	wordSep      = ","
	statusFail   = "0"
	statusOK     = "1"
	processedMsg = "Command processed"
	unknownMsg   = "Command not recognized"
)

// ErrUnknownCommand 命令码不在 1..7 范围内
var ErrUnknownCommand = errors.New(unknownMsg)

// String 命令名，用于日志
func (c Code) String() string {
	switch c {
	case CodeCreateSession:
		return string(protocol.MsgCreateSession)
	case CodeRequestStart:
		return string(protocol.MsgRequestStart)
	case CodeSubmitWord:
		return string(protocol.MsgSubmitWord)
	case CodeGetStatistics:
		return string(protocol.MsgGetStatistics)
	case CodeFinalizeSession:
		return string(protocol.MsgFinalizeSession)
	case CodeJoinSession:
		return string(protocol.MsgJoinSession)
	case CodeGetSessionStatistics:
		return string(protocol.MsgGetSessionStatistics)
	default:
		return "unknown"
	}
}

// Command 解析后的请求
//
// Arg 在创建会话时是人数，其余命令是会话 ID。
type Command struct {
	Code   Code
	Arg    int
	Player string
	Word   string
}

// Parse 解析一行请求，末尾的换行会被去掉
func Parse(raw string) (Command, error) {
	raw = strings.TrimRight(raw, "\r\n")
	parts := strings.SplitN(raw, sep, 4)

	code, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return Command{}, ErrUnknownCommand
	}
	cmd := Command{Code: Code(code)}
	if cmd.Code < CodeCreateSession || cmd.Code > CodeGetSessionStatistics {
		return cmd, ErrUnknownCommand
	}

	if len(parts) < 2 {
		return cmd, fmt.Errorf("%w: missing argument", apperrors.ErrInvalidMessage)
	}
	if cmd.Arg, err = strconv.Atoi(strings.TrimSpace(parts[1])); err != nil {
		return cmd, fmt.Errorf("%w: %q is not a number", apperrors.ErrInvalidMessage, parts[1])
	}

	switch cmd.Code {
	case CodeRequestStart, CodeFinalizeSession:
		return cmd, nil
	case CodeSubmitWord:
		if len(parts) < 4 {
			return cmd, fmt.Errorf("%w: expected username and word", apperrors.ErrInvalidMessage)
		}
		cmd.Player, cmd.Word = parts[2], parts[3]
	default:
		if len(parts) < 3 {
			return cmd, fmt.Errorf("%w: missing username", apperrors.ErrInvalidMessage)
		}
		// 用户名不允许包含分隔符，多出来的字段直接并入交给校验拒绝
		cmd.Player = strings.Join(parts[2:], sep)
	}
	return cmd, nil
}

// Encode 编码为请求行（不含换行）
func (c Command) Encode() string {
	head := strconv.Itoa(int(c.Code)) + sep + strconv.Itoa(c.Arg)
	switch c.Code {
	case CodeRequestStart, CodeFinalizeSession:
		return head
	case CodeSubmitWord:
		return head + sep + c.Player + sep + c.Word
	default:
		return head + sep + c.Player
	}
}

// --- Responses ---

// FormatSession 会话响应：1|<id>|<board spec>|<w1,w2,...>
func FormatSession(info protocol.SessionInfo) string {
	b, err := board.FromRows(info.Board...)
	spec := strings.Join(info.Board, wordSep)
	if err == nil {
		spec = b.Spec()
	}
	return strings.Join([]string{
		statusOK,
		strconv.Itoa(info.SessionID),
		spec,
		strings.Join(info.Solution, wordSep),
	}, sep)
}

// FormatStats 统计响应：1|<latest>|<score>|<high>|<rank>
func FormatStats(s protocol.StatsInfo) string {
	return strings.Join([]string{
		statusOK,
		strconv.Itoa(s.LatestPoints),
		strconv.Itoa(s.Score),
		strconv.Itoa(s.HighScore),
		strconv.Itoa(s.Rank),
	}, sep)
}

// FormatProcessed 无返回值命令的成功响应
func FormatProcessed() string {
	return statusOK + sep + processedMsg
}

// FormatError 失败响应，GameError 只输出其标准消息，分隔符与换行会被替换
func FormatError(err error) string {
	var ge *apperrors.GameError
	msg := unknownMsg
	switch {
	case err == nil, errors.Is(err, ErrUnknownCommand):
	case errors.As(err, &ge):
		msg = sanitize(ge.Message)
	default:
		msg = sanitize(err.Error())
	}
	return statusFail + sep + msg
}

func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '|', '\r', '\n':
			return ' '
		}
		return r
	}, s)
}

// --- Reply parsing (client side) ---

// Reply 服务端的一行响应
type Reply struct {
	Fields []string
}

// ParseReply 解析响应行，失败响应转成 GameError
func ParseReply(raw string) (Reply, error) {
	raw = strings.TrimRight(raw, "\r\n")
	status, rest, found := strings.Cut(raw, sep)
	switch {
	case status == statusFail:
		return Reply{}, replyError(rest)
	case status != statusOK || !found:
		return Reply{}, fmt.Errorf("%w: malformed reply %q", apperrors.ErrInvalidMessage, raw)
	}
	return Reply{Fields: strings.Split(rest, sep)}, nil
}

// replyError 按已知消息还原错误码
func replyError(msg string) error {
	if msg == unknownMsg {
		return ErrUnknownCommand
	}
	for code, text := range protocol.ErrorMessages {
		if text == msg {
			return apperrors.New(code, msg)
		}
	}
	return apperrors.New(protocol.ErrCodeUnknown, msg)
}

// Session 解析会话响应
func (r Reply) Session() (protocol.SessionInfo, error) {
	if len(r.Fields) != 3 {
		return protocol.SessionInfo{}, fmt.Errorf("%w: session reply has %d fields", apperrors.ErrInvalidMessage, len(r.Fields))
	}
	id, err := strconv.Atoi(r.Fields[0])
	if err != nil {
		return protocol.SessionInfo{}, fmt.Errorf("%w: bad session id %q", apperrors.ErrInvalidMessage, r.Fields[0])
	}
	b, err := board.ParseSpec(r.Fields[1])
	if err != nil {
		return protocol.SessionInfo{}, fmt.Errorf("%w: %w", apperrors.ErrInvalidMessage, err)
	}

	var solution []string
	for w := range strings.SplitSeq(r.Fields[2], wordSep) {
		if w != "" {
			solution = append(solution, w)
		}
	}
	return protocol.SessionInfo{SessionID: id, Board: b.Rows(), Solution: solution}, nil
}

// Stats 解析统计响应
func (r Reply) Stats() (protocol.StatsInfo, error) {
	if len(r.Fields) != 4 {
		return protocol.StatsInfo{}, fmt.Errorf("%w: statistics reply has %d fields", apperrors.ErrInvalidMessage, len(r.Fields))
	}
	nums := make([]int, len(r.Fields))
	for i, f := range r.Fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			return protocol.StatsInfo{}, fmt.Errorf("%w: %q is not a number", apperrors.ErrInvalidMessage, f)
		}
		nums[i] = n
	}
	return protocol.StatsInfo{LatestPoints: nums[0], Score: nums[1], HighScore: nums[2], Rank: nums[3]}, nil
}
