package server

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// RateLimiter 按 IP 限制新连接速率
type RateLimiter struct {
	limiters map[string]*limiterEntry
	mu       sync.Mutex

	limit rate.Limit
	burst int

	idleTTL time.Duration // 超过该时长未访问的记录会被清理
}

type limiterEntry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// NewRateLimiter 创建速率限制器，perSecond <= 0 时按每秒 1 次处理
func NewRateLimiter(perSecond, burst int) *RateLimiter {
	if perSecond <= 0 {
		perSecond = 1
	}
	if burst <= 0 {
		burst = perSecond
	}
	return &RateLimiter{
		limiters: make(map[string]*limiterEntry),
		limit:    rate.Every(time.Second / time.Duration(perSecond)),
		burst:    burst,
		idleTTL:  10 * time.Minute,
	}
}

// Allow 检查是否允许请求
func (rl *RateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	e, ok := rl.limiters[ip]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.limiters[ip] = e
	}
	e.lastAccess = time.Now()
	rl.mu.Unlock()

	if !e.limiter.Allow() {
		log.Warn().Str("remote", ip).Msg("⚠️ 连接过于频繁")
		return false
	}
	return true
}

// Len 当前跟踪的 IP 数
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.limiters)
}

// Cleanup 清理长时间未访问的记录，返回清理数量
func (rl *RateLimiter) Cleanup(now time.Time) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	removed := 0
	for ip, e := range rl.limiters {
		if now.Sub(e.lastAccess) > rl.idleTTL {
			delete(rl.limiters, ip)
			removed++
		}
	}
	return removed
}

// NewCommandLimiter 单个连接的命令限流器
func NewCommandLimiter(perSecond, burst int) *rate.Limiter {
	if perSecond <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	return rate.NewLimiter(rate.Limit(perSecond), max(burst, 1))
}

// --- 辅助函数 ---

// GetClientIP 获取客户端 IP；只有 trustProxy 时才读取代理头，否则以 TCP 对端为准
func GetClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
			// 取第一个 IP（最原始的客户端）
			first, _, _ := strings.Cut(forwarded, ",")
			return strings.TrimSpace(first)
		}
		if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
			return realIP
		}
	}
	return hostOf(r.RemoteAddr)
}

// AdminGuard 按 TCP 对端地址限制管理接口的访问来源，不看代理头
type AdminGuard struct {
	allow []netip.Prefix
}

// NewAdminGuard 解析允许的网段，无效项记录日志后跳过
func NewAdminGuard(cidrs []string) *AdminGuard {
	g := &AdminGuard{}
	for _, c := range cidrs {
		prefix, err := netip.ParsePrefix(c)
		if err != nil {
			log.Warn().Err(err).Str("cidr", c).Msg("忽略无效的管理网段")
			continue
		}
		g.allow = append(g.allow, prefix.Masked())
	}
	return g
}

// Allowed 对端地址是否在允许的网段内
func (g *AdminGuard) Allowed(remoteAddr string) bool {
	addr, err := netip.ParseAddr(hostOf(remoteAddr))
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, p := range g.allow {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// Middleware 拒绝不在允许网段内的请求
func (g *AdminGuard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !g.Allowed(r.RemoteAddr) {
			log.Warn().Str("remote", r.RemoteAddr).Str("path", r.URL.Path).Msg("🚫 拒绝管理接口访问")
			writeError(w, http.StatusForbidden, "forbidden")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// hostOf 去掉地址中的端口
func hostOf(addr string) string {
	ip, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return ip
}
