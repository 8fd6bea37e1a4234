package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/palemoky/stranded/internal/config"
	"github.com/palemoky/stranded/internal/logger"
	"github.com/palemoky/stranded/internal/server"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "配置文件路径")
	envPath := flag.String("env", ".env", ".env 文件路径")
	flag.Parse()

	if err := run(*configPath, *envPath); err != nil {
		logrus.WithError(err).Error("server stopped with error")
		os.Exit(1)
	}
	logrus.Info("server stopped")
}

func run(configPath, envPath string) error {
	if err := config.LoadDotEnv(envPath); err != nil {
		return err
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logrus.WithError(err).Warn("failed to load config file, using defaults")
		cfg = config.Default()
		if err := cfg.ApplyEnv(); err != nil {
			return err
		}
	}

	if err := logger.Init(cfg.Log); err != nil {
		return err
	}
	defer logger.Close()

	var rdb *redis.Client
	if cfg.Redis.Enabled {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer func() { _ = rdb.Close() }()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return server.NewServer(cfg, rdb).Run(ctx)
}
