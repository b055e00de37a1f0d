package server

import (
	"bufio"
	"context"
	"errors"
	"net"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/palemoky/parallel-boggle/internal/apperrors"
	"github.com/palemoky/parallel-boggle/internal/logger"
	"github.com/palemoky/parallel-boggle/internal/protocol"
	"github.com/palemoky/parallel-boggle/internal/protocol/line"
)

// maxLineSize 单行命令最大长度
const maxLineSize = 4096

// serveLine 行协议监听循环，直到 listener 关闭
func (s *Server) serveLine(ctx context.Context, ln net.Listener) error {
	var conns sync.WaitGroup
	defer conns.Wait()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) || ctx.Err() != nil {
				return nil
			}
			log.Warn().Err(err).Msg("行协议 accept 失败")
			continue
		}

		ip := hostOf(conn.RemoteAddr().String())
		if err := s.admit(ip); err != nil {
			_, _ = conn.Write([]byte(line.FormatError(err) + "\n"))
			_ = conn.Close()
			continue
		}

		conns.Go(func() {
			defer s.release()
			s.handleLineConn(ctx, conn)
		})
	}
}

// handleLineConn 处理一个行协议连接上的多条命令
//
// 读协程独立运行。对端关闭写端（EOF）时已读到的命令照常执行并回写响应；
// 读出错或回写失败时取消 ctx，正在等待回合同步的命令随之返回。
func (s *Server) handleLineConn(parent context.Context, conn net.Conn) {
	id := uuid.New().String()
	remote := conn.RemoteAddr().String()
	ctx, cancel := context.WithCancel(parent)
	defer func() {
		cancel()
		_ = conn.Close()
		s.untrackLine(id)
		log.Info().Str("conn", id).Str("remote", remote).Msg("❌ 行协议连接已断开")
	}()
	s.trackLine(id, conn)
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()
	log.Info().Str("conn", id).Str("remote", remote).Msg("✅ 行协议连接已建立")

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(conn)
		scanner.Buffer(make([]byte, 0, 512), maxLineSize)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		if err := scanner.Err(); err != nil {
			log.Debug().Err(err).Str("conn", id).Msg("行协议读取失败")
			cancel()
		}
	}()

	limiter := NewCommandLimiter(s.config.Security.CommandsPerSecond, s.config.Security.Burst)
	w := bufio.NewWriter(conn)
	for raw := range lines {
		if raw == "" {
			continue
		}

		var reply string
		if !limiter.Allow() {
			reply = line.FormatError(apperrors.ErrRateLimited)
		} else {
			reply = s.runLine(ctx, id, raw)
		}

		if _, err := w.WriteString(reply + "\n"); err != nil {
			return
		}
		if err := w.Flush(); err != nil {
			return
		}
	}
}

// runLine 执行单条命令，panic 转为失败响应
func (s *Server) runLine(ctx context.Context, id, raw string) (reply string) {
	defer func() {
		if r := recover(); r != nil {
			logger.LogPanic(r)
			reply = line.FormatError(apperrors.New(protocol.ErrCodeUnknown, "internal error"))
		}
	}()
	log.Debug().Str("conn", id).Str("cmd", raw).Msg("行协议命令")
	return s.handler.HandleLine(ctx, raw)
}
