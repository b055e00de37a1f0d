package codec

import (
	"bytes"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/parallel-boggle/internal/apperrors"
	"github.com/palemoky/parallel-boggle/internal/protocol"
)

func TestMessagePool_GetPut(t *testing.T) {
	t.Parallel()

	msg := GetMessage()
	assert.NotNil(t, msg)

	msg.ID = 9
	msg.Type = "test"
	msg.Payload = []byte("data")
	PutMessage(msg)

	// Get again - should be reset
	msg2 := GetMessage()
	assert.NotNil(t, msg2)
	assert.Zero(t, msg2.ID)
	assert.Empty(t, msg2.Type)
	assert.Nil(t, msg2.Payload)
}

func TestPools_PutNil(t *testing.T) {
	t.Parallel()

	assert.NotPanics(t, func() {
		PutMessage(nil)
		PutBuffer(nil)
	})
}

func TestBufferPool_DropsOversized(t *testing.T) {
	t.Parallel()

	// 超大缓冲区不回池，之后取到的缓冲区容量不会超过上限
	big := bytes.NewBuffer(make([]byte, 0, maxPooledBufferSize+1))
	PutBuffer(big)

	buf := GetBuffer()
	defer PutBuffer(buf)
	assert.NotSame(t, big, buf)
	assert.Zero(t, buf.Len())
	assert.LessOrEqual(t, buf.Cap(), maxPooledBufferSize)
}

func TestBufferPool_Concurrent(t *testing.T) {
	t.Parallel()

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Go(func() {
			buf := GetBuffer()
			assert.Zero(t, buf.Len())
			fmt.Fprintf(buf, "payload-%d", i)
			PutBuffer(buf)
		})
	}
	wg.Wait()
}

func TestEncodeDecode(t *testing.T) {
	t.Parallel()

	msg, err := NewReply(7, protocol.MsgSubmitWord, protocol.SubmitWordPayload{SessionID: 3, PlayerName: "alice", Word: "toad"})
	require.NoError(t, err)

	data, err := Encode(msg)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "\n")

	decoded, err := Decode(data)
	require.NoError(t, err)
	defer PutMessage(decoded)
	assert.Equal(t, uint64(7), decoded.ID)
	assert.Equal(t, protocol.MsgSubmitWord, decoded.Type)

	p, err := ParsePayload[protocol.SubmitWordPayload](decoded)
	require.NoError(t, err)
	assert.Equal(t, "toad", p.Word)
	assert.Equal(t, 3, p.SessionID)

	_, err = Decode([]byte("{broken"))
	assert.Error(t, err)
}

func TestParsePayload_Empty(t *testing.T) {
	t.Parallel()

	p, err := ParsePayload[protocol.PingPayload](&protocol.Message{Type: protocol.MsgPing})
	require.NoError(t, err)
	assert.Zero(t, p.Timestamp)
}

func TestMustNewMessage_Panics(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() { MustNewMessage(protocol.MsgPing, make(chan int)) })
}

func TestErrorMessages(t *testing.T) {
	t.Parallel()

	wrapped := fmt.Errorf("%w: %w", apperrors.ErrBarrierFailure, errors.New("deadline"))
	msg := NewErrorMessageFromError(5, wrapped)
	assert.Equal(t, protocol.MsgError, msg.Type)
	assert.Equal(t, uint64(5), msg.ID)

	err := ErrorFromPayload(msg)
	assert.ErrorIs(t, err, apperrors.ErrBarrierFailure)
	assert.Equal(t, "round synchronization failed", err.Error())

	generic := NewErrorMessageFromError(6, errors.New("secret internals"))
	p, err := ParsePayload[protocol.ErrorPayload](generic)
	require.NoError(t, err)
	assert.Equal(t, protocol.ErrCodeUnknown, p.Code)
	assert.Equal(t, "unknown error", p.Message)
}

func TestResultType(t *testing.T) {
	t.Parallel()

	assert.Equal(t, protocol.MsgCreateSessionResult, protocol.ResultType(protocol.MsgCreateSession))
	assert.Equal(t, protocol.MsgGetSessionStatisticsResult, protocol.ResultType(protocol.MsgGetSessionStatistics))
	assert.Equal(t, protocol.MsgPong, protocol.ResultType(protocol.MsgPing))
}
