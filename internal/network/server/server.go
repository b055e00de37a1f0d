package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"runtime"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/palemoky/parallel-boggle/internal/apperrors"
	"github.com/palemoky/parallel-boggle/internal/config"
	"github.com/palemoky/parallel-boggle/internal/game/session"
	"github.com/palemoky/parallel-boggle/internal/network/server/storage"
	"github.com/palemoky/parallel-boggle/internal/protocol"
	"github.com/palemoky/parallel-boggle/internal/protocol/codec"
	"github.com/palemoky/parallel-boggle/internal/records"
	"github.com/palemoky/parallel-boggle/internal/types"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // 允许所有来源，生产环境需要限制
	},
}

// Server 同时提供 websocket RPC、行协议与管理接口
type Server struct {
	config      *config.Config
	manager     *session.Manager
	records     *records.Records
	leaderboard *storage.LeaderboardManager
	handler     *Handler
	router      chi.Router

	clients   map[string]*Client
	clientsMu sync.RWMutex

	lineConns map[string]net.Conn
	lineMu    sync.Mutex

	// 连接控制
	connLimiter    *RateLimiter
	maxConnections int
	semaphore      chan struct{} // 信号量控制并发连接数

	// 维护模式
	maintenanceMode bool
	maintenanceMu   sync.RWMutex

	stopOnce sync.Once
	stopCh   chan struct{}
}

// Option 服务器可选项
type Option func(*Server)

// WithLeaderboard 启用 /leaderboard 接口
func WithLeaderboard(lb *storage.LeaderboardManager) Option {
	return func(s *Server) { s.leaderboard = lb }
}

// WithGameService 替换处理请求的游戏服务（测试用）
func WithGameService(game types.GameService) Option {
	return func(s *Server) { s.handler = NewHandler(game) }
}

// NewServer 创建服务器实例
func NewServer(cfg *config.Config, m *session.Manager, rec *records.Records, opts ...Option) *Server {
	s := &Server{
		config:         cfg,
		manager:        m,
		records:        rec,
		handler:        NewHandler(m),
		clients:        make(map[string]*Client),
		lineConns:      make(map[string]net.Conn),
		connLimiter:    NewRateLimiter(cfg.Security.CommandsPerSecond, cfg.Security.Burst),
		maxConnections: cfg.Server.MaxConnections,
		semaphore:      make(chan struct{}, cfg.Server.MaxConnections),
		stopCh:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.routes()

	log.Info().
		Int("commands_per_second", cfg.Security.CommandsPerSecond).
		Int("burst", cfg.Security.Burst).
		Int("max_connections", cfg.Server.MaxConnections).
		Msg("🔒 安全配置")
	return s
}

// Router HTTP 路由（测试用）
func (s *Server) Router() http.Handler {
	return s.router
}

// Start 按配置监听 HTTP 与行协议端口，阻塞直到 ctx 结束或调用 Stop
func (s *Server) Start(ctx context.Context) error {
	var lc net.ListenConfig
	httpAddr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	lineAddr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.LinePort)

	httpLn, err := lc.Listen(ctx, "tcp", httpAddr)
	if err != nil {
		return fmt.Errorf("监听 %s 失败: %w", httpAddr, err)
	}
	lineLn, err := lc.Listen(ctx, "tcp", lineAddr)
	if err != nil {
		_ = httpLn.Close()
		return fmt.Errorf("监听 %s 失败: %w", lineAddr, err)
	}
	return s.Serve(ctx, httpLn, lineLn)
}

// Serve 在给定的 listener 上提供服务
func (s *Server) Serve(ctx context.Context, httpLn, lineLn net.Listener) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	httpSrv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second, // 防止 Slowloris 攻击
		IdleTimeout:       60 * time.Second,
	}

	log.Info().
		Str("rpc", "ws://"+httpLn.Addr().String()+"/ws").
		Str("line", lineLn.Addr().String()).
		Int("cpus", runtime.NumCPU()).
		Msg("🚀 服务器启动")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := httpSrv.Serve(httpLn); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http 服务异常: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return s.serveLine(gctx, lineLn)
	})
	g.Go(func() error {
		s.monitorStats(gctx)
		return nil
	})
	g.Go(func() error {
		select {
		case <-gctx.Done():
		case <-s.stopCh:
		}

		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancelShutdown()
		_ = lineLn.Close()
		s.closeConnections()
		cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})

	err := g.Wait()
	log.Info().Msg("服务器已关闭")
	return err
}

// Stop 停止服务，可重复调用
func (s *Server) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}

// handleWebSocket 处理 WebSocket 连接
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	// 获取真实客户端IP
	clientIP := GetClientIP(r, s.config.Security.TrustProxy)

	if err := s.admit(clientIP); err != nil {
		status := http.StatusServiceUnavailable
		if errors.Is(err, apperrors.ErrRateLimited) {
			status = http.StatusTooManyRequests
		}
		http.Error(w, err.Error(), status)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.release()
		log.Warn().Err(err).Msg("WebSocket 升级失败")
		return
	}

	client := NewClient(s, conn)
	client.IP = clientIP
	s.RegisterClient(client.ID, client)

	client.SendMessage(codec.MustNewMessage(protocol.MsgConnected, protocol.ConnectedPayload{
		ConnectionID: client.ID,
		RoundSeconds: s.config.Game.RoundSeconds,
	}))
	log.Info().Str("conn", client.ID).Str("remote", clientIP).Msg("✅ RPC 连接已建立")

	go func() {
		defer s.release()
		client.ReadPump()
	}()
	go client.WritePump()
}

// admit 新连接准入，成功时占用一个连接名额，需配对调用 release
func (s *Server) admit(ip string) error {
	// 维护模式检查（最优先）
	if s.IsMaintenanceMode() {
		log.Info().Str("remote", ip).Msg("🔧 维护模式，拒绝新连接")
		return apperrors.ErrServerMaintenance
	}

	// 速率限制检查
	if !s.connLimiter.Allow(ip) {
		return apperrors.ErrRateLimited
	}

	// 连接数限制检查
	select {
	case s.semaphore <- struct{}{}:
		return nil
	default:
		log.Warn().Int("max", s.maxConnections).Str("remote", ip).Msg("🚫 达到最大连接数限制")
		return apperrors.ErrServerFull
	}
}

// release 释放连接名额
func (s *Server) release() {
	<-s.semaphore
}

// RegisterClient 注册客户端
func (s *Server) RegisterClient(id string, client *Client) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	s.clients[id] = client
}

// UnregisterClient 注销客户端
func (s *Server) UnregisterClient(id string) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()

	if _, ok := s.clients[id]; ok {
		delete(s.clients, id)
		log.Info().Str("conn", id).Msg("❌ RPC 连接已断开")
	}
}

func (s *Server) trackLine(id string, conn net.Conn) {
	s.lineMu.Lock()
	defer s.lineMu.Unlock()
	s.lineConns[id] = conn
}

func (s *Server) untrackLine(id string) {
	s.lineMu.Lock()
	defer s.lineMu.Unlock()
	delete(s.lineConns, id)
}

// GetOnlineCount 当前连接数（RPC + 行协议）
func (s *Server) GetOnlineCount() int {
	s.clientsMu.RLock()
	rpc := len(s.clients)
	s.clientsMu.RUnlock()

	s.lineMu.Lock()
	defer s.lineMu.Unlock()
	return rpc + len(s.lineConns)
}

// closeConnections 关闭所有客户端连接
func (s *Server) closeConnections() {
	s.clientsMu.RLock()
	for _, client := range s.clients {
		client.Close()
	}
	s.clientsMu.RUnlock()

	s.lineMu.Lock()
	for _, conn := range s.lineConns {
		_ = conn.Close()
	}
	s.lineMu.Unlock()
}

// monitorStats 定期输出服务器状态并清理限流记录
func (s *Server) monitorStats(ctx context.Context) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			var m runtime.MemStats
			runtime.ReadMemStats(&m)
			s.connLimiter.Cleanup(now)

			log.Info().
				Int("online", s.GetOnlineCount()).
				Int("sessions", s.manager.ActiveCount()).
				Int("goroutines", runtime.NumGoroutine()).
				Int("active_conns", len(s.semaphore)).
				Float64("mem_mb", float64(m.Alloc)/1024/1024).
				Msg("📊 [监控]")
		}
	}
}

// EnterMaintenanceMode 进入维护模式，拒绝新连接
func (s *Server) EnterMaintenanceMode() {
	s.maintenanceMu.Lock()
	s.maintenanceMode = true
	s.maintenanceMu.Unlock()

	log.Info().Msg("🔧 进入维护模式：停止接受新连接")
}

// IsMaintenanceMode 检查是否在维护模式
func (s *Server) IsMaintenanceMode() bool {
	s.maintenanceMu.RLock()
	defer s.maintenanceMu.RUnlock()
	return s.maintenanceMode
}

// GracefulShutdown 进入维护模式，等待进行中的会话结束后停止服务
func (s *Server) GracefulShutdown(timeout, interval time.Duration) {
	s.EnterMaintenanceMode()

	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for time.Now().Before(deadline) {
		active := s.manager.ActiveCount()
		if active == 0 {
			log.Info().Msg("✅ 所有会话已结束")
			break
		}
		log.Info().Int("sessions", active).Msg("⏳ 等待会话结束...")
		<-ticker.C
	}

	if active := s.manager.ActiveCount(); active > 0 {
		log.Warn().Int("sessions", active).Msg("⚠️ 超时，仍有会话进行中，强制关闭")
	}
	s.Stop()
}
