package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/palemoky/parallel-boggle/internal/protocol"
)

func TestGameError_IsMatchesByCode(t *testing.T) {
	t.Parallel()

	wrapped := fmt.Errorf("join session 7: %w", ErrSessionFull)
	assert.True(t, errors.Is(wrapped, ErrSessionFull))
	assert.False(t, errors.Is(wrapped, ErrInvalidSession))

	custom := New(protocol.ErrCodeBarrierFailure, "start barrier broken")
	assert.True(t, errors.Is(custom, ErrBarrierFailure))
	assert.Equal(t, "start barrier broken", custom.Error())
}

func TestCodeOf(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"sentinel", ErrInvalidWord, protocol.ErrCodeInvalidWord},
		{"wrapped", fmt.Errorf("submit: %w", ErrInvalidSession), protocol.ErrCodeInvalidSession},
		{"plain error", errors.New("boom"), protocol.ErrCodeUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, CodeOf(tt.err))
		})
	}
}

func TestSentinelMessagesAreWireSafe(t *testing.T) {
	t.Parallel()

	for _, err := range []*GameError{
		ErrInvalidSession, ErrSessionFull, ErrInvalidPlayerCount, ErrDuplicatePlayer,
		ErrPlayerNotFound, ErrInvalidWord, ErrBarrierFailure, ErrBoardGeneration, ErrTransportFailure,
	} {
		assert.NotEmpty(t, err.Message)
		assert.NotContains(t, err.Message, "|")
	}
}
