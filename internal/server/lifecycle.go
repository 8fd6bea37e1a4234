package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const (
	monitorInterval = 30 * time.Second
	shutdownTimeout = 5 * time.Second
)

// Run 启动服务器，ctx 结束时优雅关闭
func (s *Server) Run(ctx context.Context) error {
	if err := s.prepareStore(ctx); err != nil {
		return err
	}

	srv := s.httpServer()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logrus.WithFields(logrus.Fields{
			"addr": srv.Addr,
			"cpus": runtime.NumCPU(),
		}).Info("server listening on ws://" + srv.Addr + "/ws")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		s.rateLimiter.Run(gctx)
		return nil
	})

	g.Go(func() error {
		s.monitorStats(gctx, monitorInterval)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logrus.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		s.Close()
		if err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}

// prepareStore 检查 Redis 并清理不在内存中的房间镜像
func (s *Server) prepareStore(ctx context.Context) error {
	if !s.redisStore.Enabled() {
		return nil
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.redisStore.Ping(pingCtx); err != nil {
		return fmt.Errorf("redis unavailable: %w", err)
	}

	purged, err := s.redisStore.PurgeRooms(ctx, s.roomManager.HasRoom)
	if err != nil {
		return fmt.Errorf("purge stale rooms: %w", err)
	}
	if purged > 0 {
		logrus.WithField("count", purged).Info("purged stale room mirrors")
	}
	return nil
}

// Close 关闭所有连接并停止房间镜像
func (s *Server) Close() {
	s.closeOnce.Do(func() {
		s.clientsMu.RLock()
		clients := make([]*Client, 0, len(s.clients))
		for _, c := range s.clients {
			clients = append(clients, c)
		}
		s.clientsMu.RUnlock()

		for _, c := range clients {
			c.Close()
		}
		s.roomManager.Close()
		logrus.WithField("clients", len(clients)).Info("server closed")
	})
}

// monitorStats 定期输出服务器状态
func (s *Server) monitorStats(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			logrus.WithFields(s.stats()).Info("server stats")
		}
	}
}

// stats 当前运行指标
func (s *Server) stats() logrus.Fields {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return logrus.Fields{
		"online":      s.GetOnlineCount(),
		"registered":  s.registry.Count(),
		"rooms":       s.roomManager.GetRoomCount(),
		"games":       s.roomManager.GetActiveGamesCount(),
		"goroutines":  runtime.NumGoroutine(),
		"connections": fmt.Sprintf("%d/%d", len(s.semaphore), s.maxConnections),
		"mem_mb":      float64(m.Alloc) / 1024 / 1024,
	}
}
