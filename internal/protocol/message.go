package protocol

import "encoding/json"

// Message 基础消息结构。ID 由客户端生成，响应原样带回用于配对
type Message struct {
	ID      uint64          `json:"id,omitempty"`
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// MessageType 消息类型
type MessageType string

// 客户端 → 服务端 消息类型
const (
	MsgPing MessageType = "ping" // 心跳 ping

	// 会话操作
	MsgCreateSession        MessageType = "create_session"         // 创建会话
	MsgJoinSession          MessageType = "join_session"           // 加入会话
	MsgRequestStart         MessageType = "request_start"          // 请求开始回合（阻塞）
	MsgSubmitWord           MessageType = "submit_word"            // 提交单词
	MsgGetStatistics        MessageType = "get_statistics"         // 实时统计
	MsgFinalizeSession      MessageType = "finalize_session"       // 结算会话
	MsgGetSessionStatistics MessageType = "get_session_statistics" // 回合结束统计（阻塞）
)

// 服务端 → 客户端 消息类型
const (
	MsgConnected MessageType = "connected" // 连接成功
	MsgPong      MessageType = "pong"      // 心跳 pong

	MsgCreateSessionResult        MessageType = "create_session_result"
	MsgJoinSessionResult          MessageType = "join_session_result"
	MsgRequestStartResult         MessageType = "request_start_result"
	MsgSubmitWordResult           MessageType = "submit_word_result"
	MsgGetStatisticsResult        MessageType = "get_statistics_result"
	MsgFinalizeSessionResult      MessageType = "finalize_session_result"
	MsgGetSessionStatisticsResult MessageType = "get_session_statistics_result"

	// 错误
	MsgError MessageType = "error" // 错误消息
)

// ResultType 请求类型对应的结果类型
func ResultType(t MessageType) MessageType {
	if t == MsgPing {
		return MsgPong
	}
	return t + "_result"
}
