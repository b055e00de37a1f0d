package protocol

// --- 客户端请求 Payloads ---

// PingPayload 心跳请求
type PingPayload struct {
	Timestamp int64 `json:"timestamp"` // 客户端时间戳（毫秒）
}

// CreateSessionPayload 创建会话
type CreateSessionPayload struct {
	NumPlayers int    `json:"num_players"`
	PlayerName string `json:"player_name"`
}

// JoinSessionPayload 加入会话
type JoinSessionPayload struct {
	SessionID  int    `json:"session_id"`
	PlayerName string `json:"player_name"`
}

// SessionIDPayload 只带会话 ID 的请求（request_start / finalize_session）
type SessionIDPayload struct {
	SessionID int `json:"session_id"`
}

// SubmitWordPayload 提交单词
type SubmitWordPayload struct {
	SessionID  int    `json:"session_id"`
	PlayerName string `json:"player_name"`
	Word       string `json:"word"`
}

// StatisticsPayload 查询统计（get_statistics / get_session_statistics）
type StatisticsPayload struct {
	SessionID  int    `json:"session_id"`
	PlayerName string `json:"player_name"`
}

// --- 服务端响应 Payloads ---

// ConnectedPayload 连接成功响应
type ConnectedPayload struct {
	ConnectionID string `json:"connection_id"`
	RoundSeconds int    `json:"round_seconds"` // 客户端计时用的回合时长
}

// PongPayload 心跳响应
type PongPayload struct {
	ClientTimestamp int64 `json:"client_timestamp"`
	ServerTimestamp int64 `json:"server_timestamp"`
}

// PlayerInfo 玩家信息
type PlayerInfo struct {
	Name           string `json:"name"`
	Score          int    `json:"score"`
	BestWord       string `json:"best_word,omitempty"`
	BestWordPoints int    `json:"best_word_points"`
	NewWords       int    `json:"new_words"`
	RepeatedWords  int    `json:"repeated_words"`
}

// SessionInfo 会话快照
type SessionInfo struct {
	SessionID        int          `json:"session_id"`
	Board            []string     `json:"board"` // 每行 4 个大写字母
	Solution         []string     `json:"solution"`
	Players          []PlayerInfo `json:"players"`
	Owner            string       `json:"owner"`
	RequiredPlayers  int          `json:"required_players"`
	RoundsCompleted  int          `json:"rounds_completed"`
	RoundsPerSession int          `json:"rounds_per_session"`
	State            string       `json:"state"`
}

// StatsInfo 提交单词与统计查询的结果
type StatsInfo struct {
	LatestPoints    int  `json:"latest_points"`
	Score           int  `json:"score"`
	HighScore       int  `json:"high_score"`
	Rank            int  `json:"rank"`
	RoundsCompleted int  `json:"rounds_completed"`
	Finished        bool `json:"finished"`
}

// ErrorPayload 错误信息
type ErrorPayload struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
