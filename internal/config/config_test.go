package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_ValidConfig(t *testing.T) {
	t.Parallel()

	content := `
server:
  host: "127.0.0.1"
  port: 8080
  line_port: 9090
  max_connections: 50

game:
  min_words: 20
  max_board_attempts: 500
  rounds_per_session: 5
  max_players: 4
  barrier_timeout: 90
  session_timeout: 15
  round_seconds: 45

records:
  backend: "redis"
  path: "/tmp/records.bin"

redis:
  enabled: true
  addr: "redis:6379"
  password: "secret"
  db: 1

security:
  commands_per_second: 5
  burst: 7
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0o600))

	cfg, err := Load(configPath)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 9090, cfg.Server.LinePort)
	assert.Equal(t, 50, cfg.Server.MaxConnections)
	assert.Equal(t, 20, cfg.Game.MinWords)
	assert.Equal(t, 500, cfg.Game.MaxBoardAttempts)
	assert.Equal(t, 5, cfg.Game.RoundsPerSession)
	assert.Equal(t, 4, cfg.Game.MaxPlayers)
	assert.Equal(t, "redis", cfg.Records.Backend)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, "secret", cfg.Redis.Password)
	assert.Equal(t, 1, cfg.Redis.DB)
	assert.Equal(t, 5, cfg.Security.CommandsPerSecond)
	assert.Equal(t, 7, cfg.Security.Burst)
}

func TestLoad_FileNotFound(t *testing.T) {
	t.Parallel()

	cfg, err := Load("/nonexistent/path/config.yaml")
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoad_InvalidYAML(t *testing.T) {
	t.Parallel()

	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("server: [unclosed"), 0o600))

	cfg, err := Load(configPath)
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoad_PartialConfigGetsDefaults(t *testing.T) {
	t.Parallel()

	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("server:\n  port: 7000\n"), 0o600))

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, 7001, cfg.Server.LinePort)
	assert.Equal(t, 15, cfg.Game.MinWords)
	assert.Equal(t, 3, cfg.Game.RoundsPerSession)
	assert.Equal(t, "file", cfg.Records.Backend)
	assert.Equal(t, 40, cfg.Security.Burst)
	assert.False(t, cfg.Security.TrustProxy)
	assert.Equal(t, []string{"127.0.0.0/8", "::1/128"}, cfg.Security.AdminAllow)
}

func TestDurations(t *testing.T) {
	t.Parallel()

	g := GameConfig{BarrierTimeout: 90, SessionTimeout: 15, RoundSeconds: 60}
	assert.Equal(t, 90*time.Second, g.BarrierTimeoutDuration())
	assert.Equal(t, 15*time.Minute, g.SessionTimeoutDuration())
	assert.Equal(t, time.Minute, g.RoundDuration())
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("BOGGLE_LINE_PORT", "4242")
	t.Setenv("REDIS_ADDR", "cache:6380")
	t.Setenv("LOG_LEVEL", "debug")

	cfg := Default()

	assert.Equal(t, 4242, cfg.Server.LinePort)
	assert.Equal(t, "cache:6380", cfg.Redis.Addr)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "debug", cfg.Log.Level)
}
