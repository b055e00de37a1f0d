package apperrors

import (
	"errors"

	"github.com/palemoky/parallel-boggle/internal/protocol"
)

// GameError 游戏错误（会话、回合、传输共享）
type GameError struct {
	Code    int
	Message string
}

func (e *GameError) Error() string {
	return e.Message
}

// Is 按错误码匹配，包装后的同类错误也能被 errors.Is 识别
func (e *GameError) Is(target error) bool {
	var t *GameError
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

// 预定义错误
var (
	ErrInvalidSession     = newGameError(protocol.ErrCodeInvalidSession)
	ErrSessionFull        = newGameError(protocol.ErrCodeSessionFull)
	ErrInvalidPlayerCount = newGameError(protocol.ErrCodeInvalidPlayerCount)
	ErrDuplicatePlayer    = newGameError(protocol.ErrCodeDuplicatePlayer)
	ErrPlayerNotFound     = newGameError(protocol.ErrCodePlayerNotFound)
	ErrInvalidWord        = newGameError(protocol.ErrCodeInvalidWord)
	ErrBarrierFailure     = newGameError(protocol.ErrCodeBarrierFailure)
	ErrBoardGeneration    = newGameError(protocol.ErrCodeBoardGeneration)
	ErrTransportFailure   = newGameError(protocol.ErrCodeTransportFailure)
	ErrInvalidMessage     = newGameError(protocol.ErrCodeInvalidMsg)
	ErrRateLimited        = newGameError(protocol.ErrCodeRateLimit)
	ErrServerMaintenance  = newGameError(protocol.ErrCodeServerMaintenance)
	ErrServerFull         = newGameError(protocol.ErrCodeServerFull)
)

func newGameError(code int) *GameError {
	return &GameError{Code: code, Message: protocol.ErrorMessages[code]}
}

// New 创建带自定义文本的错误
func New(code int, message string) *GameError {
	return &GameError{Code: code, Message: message}
}

// CodeOf 返回错误对应的错误码，非 GameError 一律视为未知错误
func CodeOf(err error) int {
	var ge *GameError
	if errors.As(err, &ge) {
		return ge.Code
	}
	return protocol.ErrCodeUnknown
}
