package server

import (
	"context"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	// idleRecordTTL 连接记录闲置超过该时长且未封禁时被清理
	idleRecordTTL = 10 * time.Minute
	// maxMessageWarnings 超速次数超过该值后断开连接
	maxMessageWarnings = 5
)

// window 固定时间窗口计数器
type window struct {
	start time.Time
	n     int
}

// hit 计数一次并返回窗口内的累计次数，窗口过期则重新开始
func (w *window) hit(now time.Time, span time.Duration) int {
	if w.start.IsZero() || now.Sub(w.start) >= span {
		w.start = now
		w.n = 0
	}
	w.n++
	return w.n
}

// --- 握手速率限制 ---

// RateLimiter 按 IP 限制 WebSocket 握手频率，超过秒级或分钟级配额后封禁一段时间
type RateLimiter struct {
	mu    sync.RWMutex
	peers map[string]*peerRecord

	perSecond       int
	perMinute       int
	banDuration     time.Duration
	cleanupInterval time.Duration
	now             func() time.Time
}

type peerRecord struct {
	second      window
	minute      window
	lastSeen    time.Time
	bannedUntil time.Time
}

// NewRateLimiter 创建握手速率限制器
func NewRateLimiter(maxPerSecond, maxPerMinute int, banDuration time.Duration) *RateLimiter {
	return &RateLimiter{
		peers:           make(map[string]*peerRecord),
		perSecond:       maxPerSecond,
		perMinute:       maxPerMinute,
		banDuration:     banDuration,
		cleanupInterval: 5 * time.Minute,
		now:             time.Now,
	}
}

// Allow 记录一次握手并判断是否放行；封禁期内的 IP 不计数
func (rl *RateLimiter) Allow(ip string) bool {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	rec, ok := rl.peers[ip]
	if !ok {
		rec = &peerRecord{}
		rl.peers[ip] = rec
	}
	if now.Before(rec.bannedUntil) {
		return false
	}
	rec.lastSeen = now

	overSecond := rec.second.hit(now, time.Second) > rl.perSecond
	overMinute := rec.minute.hit(now, time.Minute) > rl.perMinute
	if !overSecond && !overMinute {
		return true
	}

	rec.bannedUntil = now.Add(rl.banDuration)
	logrus.WithFields(logrus.Fields{
		"ip":         ip,
		"ban":        rl.banDuration,
		"per_second": overSecond,
		"per_minute": overMinute,
	}).Warn("handshake quota exceeded, ip banned")
	return false
}

// IsBanned 检查 IP 是否处于封禁期
func (rl *RateLimiter) IsBanned(ip string) bool {
	now := rl.now()

	rl.mu.RLock()
	defer rl.mu.RUnlock()

	rec, ok := rl.peers[ip]
	return ok && now.Before(rec.bannedUntil)
}

// Run 定期清理闲置记录，直到 ctx 结束
func (rl *RateLimiter) Run(ctx context.Context) {
	ticker := time.NewTicker(rl.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := rl.sweep(now); n > 0 {
				logrus.WithField("removed", n).Debug("rate limiter records swept")
			}
		}
	}
}

// sweep 删除闲置且不在封禁期的记录，返回删除数量
func (rl *RateLimiter) sweep(now time.Time) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	removed := 0
	for ip, rec := range rl.peers {
		if now.Sub(rec.lastSeen) > idleRecordTTL && !now.Before(rec.bannedUntil) {
			delete(rl.peers, ip)
			removed++
		}
	}
	return removed
}

// --- 来源验证 ---

// OriginChecker 校验浏览器握手的 Origin 头
type OriginChecker struct {
	allowed  map[string]struct{}
	allowAll bool
}

// NewOriginChecker 创建来源验证器，列表中出现 "*" 即放行所有来源
func NewOriginChecker(origins []string) *OriginChecker {
	oc := &OriginChecker{allowed: make(map[string]struct{}, len(origins))}
	for _, origin := range origins {
		origin = strings.ToLower(strings.TrimSpace(origin))
		if origin == "*" {
			oc.allowAll = true
			continue
		}
		if origin != "" {
			oc.allowed[origin] = struct{}{}
		}
	}
	return oc
}

// Check 校验请求来源；没有 Origin 头的非浏览器客户端直接放行
func (oc *OriginChecker) Check(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if oc.allowAll || origin == "" {
		return true
	}
	_, ok := oc.allowed[strings.ToLower(origin)]
	return ok
}

// GetClientIP 获取客户端 IP，优先使用代理头中最原始的地址
func GetClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		return strings.TrimSpace(first)
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// --- 消息速率限制 ---

// MessageRateLimiter 按连接限制每秒消息数，超过一半配额开始警告，超限计入警告次数
type MessageRateLimiter struct {
	mu    sync.RWMutex
	conns map[string]*connRecord

	perSecond int
	warnAbove int
	now       func() time.Time
}

type connRecord struct {
	second   window
	warnings int
}

// NewMessageRateLimiter 创建消息速率限制器
func NewMessageRateLimiter(maxPerSecond int) *MessageRateLimiter {
	return &MessageRateLimiter{
		conns:     make(map[string]*connRecord),
		perSecond: maxPerSecond,
		warnAbove: maxPerSecond / 2,
		now:       time.Now,
	}
}

// AllowMessage 记录一条消息，返回是否处理以及是否需要提醒客户端降速
func (ml *MessageRateLimiter) AllowMessage(clientID string) (allowed bool, warning bool) {
	now := ml.now()

	ml.mu.Lock()
	defer ml.mu.Unlock()

	rec, ok := ml.conns[clientID]
	if !ok {
		rec = &connRecord{}
		ml.conns[clientID] = rec
	}

	switch n := rec.second.hit(now, time.Second); {
	case n > ml.perSecond:
		rec.warnings++
		return false, true
	case n > ml.warnAbove:
		return true, true
	default:
		return true, false
	}
}

// GetWarningCount 获取连接的超限次数
func (ml *MessageRateLimiter) GetWarningCount(clientID string) int {
	ml.mu.RLock()
	defer ml.mu.RUnlock()

	if rec, ok := ml.conns[clientID]; ok {
		return rec.warnings
	}
	return 0
}

// ShouldDisconnect 超限次数过多时断开
func (ml *MessageRateLimiter) ShouldDisconnect(clientID string) bool {
	return ml.GetWarningCount(clientID) > maxMessageWarnings
}

// RemoveClient 连接关闭后移除记录
func (ml *MessageRateLimiter) RemoveClient(clientID string) {
	ml.mu.Lock()
	defer ml.mu.Unlock()
	delete(ml.conns, clientID)
}
