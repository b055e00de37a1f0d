package server

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/parallel-boggle/internal/game/session"
)

func TestConsole_Commands(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)

	var out bytes.Buffer
	c := NewConsole(ts.Server, &out)
	ctx := context.Background()

	_, err := ts.manager.CreateSession(ctx, 2, "alice")
	require.NoError(t, err)

	assert.False(t, c.Execute(ctx, "print status"))
	assert.Contains(t, out.String(), "owner=alice")

	ts.records.Merge(session.Summary{Winner: "alice", WinnerScore: 7, BestWord: "stone", BestWordScore: 2})
	out.Reset()
	assert.False(t, c.Execute(ctx, "  PRINT   records "))
	assert.Contains(t, out.String(), "stone (2)")

	out.Reset()
	c.Execute(ctx, "save records")
	c.Execute(ctx, "clear records")
	assert.Zero(t, ts.records.Snapshot().GamesCompleted)
	c.Execute(ctx, "load records")
	assert.Equal(t, 1, ts.records.Snapshot().GamesCompleted)
	assert.Contains(t, out.String(), "records saved")
	assert.Contains(t, out.String(), "records loaded")

	out.Reset()
	assert.False(t, c.Execute(ctx, "dance"))
	assert.Contains(t, out.String(), "unknown command: dance")
}

func TestConsole_RunStopsServer(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)

	var out bytes.Buffer
	c := NewConsole(ts.Server, &out)
	err := c.Run(context.Background(), strings.NewReader("print status\nstop server\nprint records\n"))
	require.NoError(t, err)
	assert.Contains(t, out.String(), "stopping server")
	assert.NotContains(t, out.String(), "服务器记录")

	select {
	case err := <-ts.done:
		assert.NoError(t, err)
		ts.done <- err
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
