package codec

import (
	"encoding/json"
	"errors"

	"github.com/palemoky/parallel-boggle/internal/apperrors"
	"github.com/palemoky/parallel-boggle/internal/protocol"
)

// NewMessage 创建一个新消息
func NewMessage(msgType protocol.MessageType, payload any) (*protocol.Message, error) {
	var data json.RawMessage
	if payload != nil {
		var err error
		data, err = json.Marshal(payload)
		if err != nil {
			return nil, err
		}
	}
	return &protocol.Message{
		Type:    msgType,
		Payload: data,
	}, nil
}

// MustNewMessage 创建消息，失败时 panic
func MustNewMessage(msgType protocol.MessageType, payload any) *protocol.Message {
	msg, err := NewMessage(msgType, payload)
	if err != nil {
		panic(err)
	}
	return msg
}

// NewReply 创建带请求 ID 的响应
func NewReply(id uint64, msgType protocol.MessageType, payload any) (*protocol.Message, error) {
	msg, err := NewMessage(msgType, payload)
	if err != nil {
		return nil, err
	}
	msg.ID = id
	return msg, nil
}

// Encode 将消息编码为 JSON 字节
func Encode(msg *protocol.Message) ([]byte, error) {
	buf := GetBuffer()
	defer PutBuffer(buf)

	if err := json.NewEncoder(buf).Encode(msg); err != nil {
		return nil, err
	}
	// Encoder 会追加换行
	out := make([]byte, buf.Len()-1)
	copy(out, buf.Bytes())
	return out, nil
}

// Decode 从 JSON 字节解码消息到池化的 Message，用完后调用 PutMessage
func Decode(data []byte) (*protocol.Message, error) {
	msg := GetMessage()
	if err := json.Unmarshal(data, msg); err != nil {
		PutMessage(msg)
		return nil, err
	}
	return msg, nil
}

// ParsePayload 解析消息的 Payload 到指定类型
func ParsePayload[T any](msg *protocol.Message) (*T, error) {
	var payload T
	if len(msg.Payload) == 0 {
		return &payload, nil
	}
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// NewErrorMessage 创建错误消息
func NewErrorMessage(id uint64, code int) *protocol.Message {
	return NewErrorMessageWithText(id, code, protocol.ErrorMessages[code])
}

// NewErrorMessageWithText 创建带自定义文本的错误消息
func NewErrorMessageWithText(id uint64, code int, text string) *protocol.Message {
	msg, _ := NewReply(id, protocol.MsgError, protocol.ErrorPayload{
		Code:    code,
		Message: text,
	})
	return msg
}

// NewErrorMessageFromError 将任意错误转换为错误消息，非 GameError 只返回通用文本
func NewErrorMessageFromError(id uint64, err error) *protocol.Message {
	var ge *apperrors.GameError
	if errors.As(err, &ge) {
		return NewErrorMessageWithText(id, ge.Code, ge.Message)
	}
	return NewErrorMessage(id, protocol.ErrCodeUnknown)
}

// ErrorFromPayload 将错误消息还原为 GameError
func ErrorFromPayload(msg *protocol.Message) error {
	p, err := ParsePayload[protocol.ErrorPayload](msg)
	if err != nil {
		return apperrors.ErrInvalidMessage
	}
	return apperrors.New(p.Code, p.Message)
}
