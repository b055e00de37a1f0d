package codec

import (
	"bytes"
	"sync"

	"github.com/palemoky/parallel-boggle/internal/protocol"
)

const (
	// 会话响应带完整解列表，常见大小在 1KB 以内
	initialBufferSize = 1024
	// 超过该容量的缓冲区不放回池中，避免长期占用内存
	maxPooledBufferSize = 64 * 1024
)

// 消息与编码缓冲区对象池
var (
	messagePool = sync.Pool{
		New: func() any { return new(protocol.Message) },
	}

	bufferPool = sync.Pool{
		New: func() any { return bytes.NewBuffer(make([]byte, 0, initialBufferSize)) },
	}
)

// GetMessage 从池中取一个空 Message
func GetMessage() *protocol.Message {
	return messagePool.Get().(*protocol.Message)
}

// PutMessage 清空后放回池中，调用后不得再使用 msg
func PutMessage(msg *protocol.Message) {
	if msg == nil {
		return
	}
	*msg = protocol.Message{}
	messagePool.Put(msg)
}

// GetBuffer 从池中取一个空缓冲区
func GetBuffer() *bytes.Buffer {
	return bufferPool.Get().(*bytes.Buffer)
}

// PutBuffer 重置后放回池中，过大的缓冲区直接丢弃
func PutBuffer(buf *bytes.Buffer) {
	if buf == nil || buf.Cap() > maxPooledBufferSize {
		return
	}
	buf.Reset()
	bufferPool.Put(buf)
}
