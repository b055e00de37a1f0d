package protocol

// 错误码
const (
	ErrCodeUnknown    = 1000
	ErrCodeInvalidMsg = 1001
	ErrCodeRateLimit  = 1002 // 速率限制

	// 会话
	ErrCodeInvalidSession     = 2001
	ErrCodeSessionFull        = 2002
	ErrCodeInvalidPlayerCount = 2003
	ErrCodeDuplicatePlayer    = 2004
	ErrCodePlayerNotFound     = 2005

	// 回合
	ErrCodeInvalidWord    = 3001
	ErrCodeBarrierFailure = 3002 // 回合同步失败

	// 服务端 / 传输
	ErrCodeBoardGeneration   = 5001
	ErrCodeTransportFailure  = 5002
	ErrCodeServerMaintenance = 5003 // 服务器维护中
	ErrCodeServerFull        = 5004
)

// ErrorMessages 错误码对应的消息
//
// 文本会直接出现在行协议的 `0|<message>` 响应中，因此保持英文且不含 `|`。
var ErrorMessages = map[int]string{
	ErrCodeUnknown:            "unknown error",
	ErrCodeInvalidMsg:         "invalid message",
	ErrCodeRateLimit:          "too many requests",
	ErrCodeInvalidSession:     "invalid session id",
	ErrCodeSessionFull:        "session full",
	ErrCodeInvalidPlayerCount: "invalid player count",
	ErrCodeDuplicatePlayer:    "username already taken in this session",
	ErrCodePlayerNotFound:     "player not in session",
	ErrCodeInvalidWord:        "invalid word",
	ErrCodeBarrierFailure:     "round synchronization failed",
	ErrCodeBoardGeneration:    "could not generate a playable board",
	ErrCodeTransportFailure:   "transport failure",
	ErrCodeServerMaintenance:  "server under maintenance",
	ErrCodeServerFull:         "server full",
}
