package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/palemoky/stranded/internal/config"
	"github.com/palemoky/stranded/internal/game/room"
	"github.com/palemoky/stranded/internal/server/handler"
	"github.com/palemoky/stranded/internal/server/registry"
	"github.com/palemoky/stranded/internal/server/storage"
)

// Server WebSocket 服务器
type Server struct {
	config      *config.Config
	redis       *redis.Client
	redisStore  *storage.RedisStore
	registry    *registry.Registry
	roomManager *room.RoomManager
	handler     *handler.Handler
	verifier    *TokenVerifier
	upgrader    websocket.Upgrader

	clients   map[string]*Client
	clientsMu sync.RWMutex

	// 安全组件
	rateLimiter    *RateLimiter
	originChecker  *OriginChecker
	messageLimiter *MessageRateLimiter

	// 连接控制
	maxConnections int
	semaphore      chan struct{}

	closeOnce sync.Once
}

// NewServer 创建服务器实例，rdb 为 nil 时不写房间目录镜像
func NewServer(cfg *config.Config, rdb *redis.Client) *Server {
	if !cfg.Redis.Enabled {
		rdb = nil
	}

	s := &Server{
		config:     cfg,
		redis:      rdb,
		redisStore: storage.NewRedisStore(rdb),
		registry:   registry.New(),
		verifier:   NewTokenVerifier(cfg.Auth.JWTSecret),
		clients:    make(map[string]*Client),
		rateLimiter: NewRateLimiter(
			cfg.Security.RateLimit.MaxPerSecond,
			cfg.Security.RateLimit.MaxPerMinute,
			cfg.Security.RateLimit.BanDurationTime(),
		),
		originChecker:  NewOriginChecker(cfg.Security.AllowedOrigins),
		messageLimiter: NewMessageRateLimiter(cfg.Security.MessageLimit.MaxPerSecond),
		maxConnections: cfg.Server.MaxConnections,
		semaphore:      make(chan struct{}, cfg.Server.MaxConnections),
	}

	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.originChecker.Check,
	}

	s.roomManager = room.NewRoomManager(s.registry, s.redisStore, cfg.Game.StartingOxygen)
	s.handler = handler.NewHandler(handler.HandlerDeps{
		Registry:    s.registry,
		RoomManager: s.roomManager,
	})

	logrus.WithFields(logrus.Fields{
		"connect_limit":   cfg.Security.RateLimit.MaxPerSecond,
		"message_limit":   cfg.Security.MessageLimit.MaxPerSecond,
		"max_connections": cfg.Server.MaxConnections,
		"auth":            s.verifier.Enabled(),
		"redis":           s.redisStore.Enabled(),
	}).Info("server configured")
	return s
}

// Router HTTP 路由
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/ws", s.handleWebSocket)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/rooms", s.handleListRooms).Methods(http.MethodGet)
	r.HandleFunc("/rooms/{code}", s.handleGetRoom).Methods(http.MethodGet)
	return r
}

// handleWebSocket 处理 WebSocket 握手
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	clientIP := GetClientIP(r)
	log := logrus.WithField("ip", clientIP)

	// 连接数限制，连接断开时释放
	select {
	case s.semaphore <- struct{}{}:
	default:
		log.WithField("max", s.maxConnections).Warn("connection limit reached")
		http.Error(w, "Server Full", http.StatusServiceUnavailable)
		return
	}
	accepted := false
	defer func() {
		if !accepted {
			<-s.semaphore
		}
	}()

	if !s.originChecker.Check(r) {
		log.WithField("origin", r.Header.Get("Origin")).Warn("origin rejected")
		http.Error(w, "Origin not allowed", http.StatusForbidden)
		return
	}

	if !s.rateLimiter.Allow(clientIP) {
		log.Warn("connecting too often")
		http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
		return
	}

	var identity *Identity
	if s.verifier.Enabled() {
		id, err := s.verifier.Verify(r.URL.Query().Get("token"))
		if err != nil {
			log.WithError(err).Warn("identity token rejected")
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		identity = id
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Warn("websocket upgrade failed")
		return
	}
	accepted = true

	client := NewClient(s, conn, clientIP, identity)
	s.registerClient(client)
	s.handler.OnConnect(client)
	client.log.Info("client connected")

	go client.WritePump()
	go client.ReadPump()
}

// handleHealth 健康检查接口
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleListRooms 房间列表
func (s *Server) handleListRooms(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.roomManager.ListRooms())
}

// handleGetRoom 单个房间快照
func (s *Server) handleGetRoom(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.roomManager.GetRoomSnapshot(mux.Vars(r)["code"])
	if !ok {
		http.Error(w, "room not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.WithError(err).Warn("write json response")
	}
}

// registerClient 注册客户端
func (s *Server) registerClient(client *Client) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	s.clients[client.ID] = client
}

// unregisterClient 注销客户端并释放连接名额
func (s *Server) unregisterClient(client *Client) {
	s.clientsMu.Lock()
	_, ok := s.clients[client.ID]
	delete(s.clients, client.ID)
	s.clientsMu.Unlock()

	if ok {
		<-s.semaphore
		client.log.Info("client disconnected")
	}
}

// GetOnlineCount 在线连接数
func (s *Server) GetOnlineCount() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}

// httpServer 带超时的 http.Server
func (s *Server) httpServer() *http.Server {
	return &http.Server{
		Addr:              s.config.Server.Addr(),
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
