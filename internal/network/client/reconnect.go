package client

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/palemoky/parallel-boggle/internal/apperrors"
)

const (
	// 最大重连次数
	maxReconnectAttempts = 5
	// 重连间隔
	reconnectInterval = 200 * time.Millisecond
	// 最大退避
	maxBackoff = 5 * time.Second
)

// dialWithBackoff 建立 TCP 连接，失败时指数退避重试
func dialWithBackoff(ctx context.Context, addr string, attempts int) (net.Conn, error) {
	var (
		d       net.Dialer
		lastErr error
	)
	backoff := reconnectInterval
	attempts = max(attempts, 1)

	for attempt := 1; attempt <= attempts; attempt++ {
		conn, err := d.DialContext(ctx, "tcp", addr)
		if err == nil {
			if attempt > 1 {
				log.Info().Str("remote", addr).Int("attempt", attempt).Msg("✅ 重连成功")
			}
			return conn, nil
		}
		lastErr = err
		if attempt == attempts {
			break
		}
		log.Debug().Err(err).Str("remote", addr).Int("attempt", attempt).Msg("🔄 连接失败，稍后重试")

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		// 计算下一次退避时间
		backoff = min(backoff*2, maxBackoff)
	}
	return nil, fmt.Errorf("%w: dial %s: %w", apperrors.ErrTransportFailure, addr, lastErr)
}
