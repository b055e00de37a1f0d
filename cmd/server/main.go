package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/palemoky/parallel-boggle/internal/config"
	"github.com/palemoky/parallel-boggle/internal/game/dictionary"
	"github.com/palemoky/parallel-boggle/internal/game/session"
	"github.com/palemoky/parallel-boggle/internal/logger"
	"github.com/palemoky/parallel-boggle/internal/network/server"
	"github.com/palemoky/parallel-boggle/internal/network/server/storage"
	"github.com/palemoky/parallel-boggle/internal/records"
)

const (
	shutdownTimeout  = 30 * time.Second
	shutdownInterval = time.Second
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "配置文件路径")
	withConsole := flag.Bool("console", false, "启用标准输入管理控制台")
	flag.Parse()

	config.LoadDotEnv()

	// 加载配置
	cfg, err := config.Load(*configPath)
	if err != nil {
		cfg = config.Default()
	}
	if err := logger.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
		log.Warn().Err(err).Msg("日志配置无效，使用默认配置")
	}
	if err != nil {
		log.Warn().Err(err).Str("path", *configPath).Msg("加载配置文件失败，使用默认配置")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dict := dictionary.LoadOrDefault(cfg.Dictionary.Path)

	var (
		store *storage.RedisStore
		lb    *storage.LeaderboardManager
	)
	if cfg.Redis.Enabled {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer func() { _ = client.Close() }()

		store = storage.NewRedisStore(client)
		if err := store.Ping(ctx); err != nil {
			log.Fatal().Err(err).Str("addr", cfg.Redis.Addr).Msg("连接 Redis 失败")
		}
		lb = storage.NewLeaderboardManager(client)
		log.Info().Str("addr", cfg.Redis.Addr).Msg("✅ Redis 已连接")
	}

	rec := records.New(recordsRepository(cfg, store))
	if err := rec.Load(ctx); err != nil && !errors.Is(err, records.ErrNoSnapshot) {
		log.Warn().Err(err).Msg("加载服务器记录失败")
	}

	opts := []session.Option{session.WithRecords(rec)}
	var srvOpts []server.Option
	if store != nil {
		opts = append(opts, session.WithStore(store), session.WithLeaderboard(lb))
		srvOpts = append(srvOpts, server.WithLeaderboard(lb))
	}
	manager := session.NewManager(cfg.Game, dict, opts...)
	defer manager.Close()

	if _, err := manager.PurgeStaleMirrors(ctx); err != nil {
		log.Warn().Err(err).Msg("清理会话镜像失败")
	}

	srv := server.NewServer(cfg, manager, rec, srvOpts...)

	// 收到信号后等待进行中的会话结束
	go func() {
		<-ctx.Done()
		log.Info().Msg("正在关闭服务器...")
		srv.GracefulShutdown(shutdownTimeout, shutdownInterval)
	}()

	if *withConsole {
		go func() {
			if err := server.NewConsole(srv, os.Stdout).Run(ctx, os.Stdin); err != nil && !errors.Is(err, context.Canceled) {
				log.Warn().Err(err).Msg("控制台已退出")
			}
		}()
	}

	log.Info().Int("words", dict.Len()).Msg("🎮 单词搜索服务器启动中...")
	if err := srv.Start(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("服务器启动失败")
	}

	if err := rec.Save(context.Background()); err != nil {
		log.Warn().Err(err).Msg("保存服务器记录失败")
	}
	log.Info().Msg("👋 服务器已关闭")
}

func recordsRepository(cfg *config.Config, store *storage.RedisStore) records.Repository {
	if cfg.Records.Backend == "redis" {
		if store != nil {
			return records.NewRedisRepository(store)
		}
		log.Warn().Msg("记录后端为 redis 但未启用 Redis，改用文件")
	}
	return records.NewFileRepository(cfg.Records.Path)
}
