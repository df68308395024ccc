package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"sudooom.tetrecs/internal/api"
	"sudooom.tetrecs/internal/config"
	"sudooom.tetrecs/internal/game"
	"sudooom.tetrecs/internal/handler"
	"sudooom.tetrecs/internal/health"
	tetrecsNats "sudooom.tetrecs/internal/nats"
	"sudooom.tetrecs/internal/repository"
	"sudooom.tetrecs/internal/router"
	"sudooom.tetrecs/internal/service"
	"sudooom.tetrecs/internal/task"
)

func main() {
	configPath := "configs/config.yaml"
	if p := os.Getenv("TETRECS_CONFIG"); p != "" {
		configPath = p
	}

	// 加载配置
	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Error("Failed to load config", "path", configPath, "error", err)
		os.Exit(1)
	}

	// 初始化日志
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(cfg.App.LogLevel),
	}))
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 连接 NATS
	natsClient, err := tetrecsNats.NewClient(cfg.NATS, cfg.App.Name)
	if err != nil {
		logger.Error("Failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer natsClient.Close()
	logger.Info("Connected to NATS", "url", cfg.NATS.URL)

	// 连接 Redis
	redisClient := connectRedis(cfg.Redis)
	defer redisClient.Close()
	logger.Info("Connected to Redis", "host", cfg.Redis.Host)

	// 连接数据库
	results, dbPing, err := openResults(ctx, cfg.Database)
	if err != nil {
		logger.Error("Failed to open result store", "driver", cfg.Database.Driver, "error", err)
		os.Exit(1)
	}
	defer results.Close()
	if err := results.Migrate(ctx); err != nil {
		logger.Error("Failed to migrate result store", "error", err)
		os.Exit(1)
	}
	logger.Info("Result store ready", "driver", cfg.Database.Driver)

	// 循环计时调度
	scheduler := task.NewScheduler(task.Config{
		TickInterval: cfg.Loop.TickInterval,
		SlotCount:    cfg.Loop.SlotCount,
		WorkerCount:  cfg.Loop.WorkerCount,
	})
	if err := scheduler.Start(); err != nil {
		logger.Error("Failed to start scheduler", "error", err)
		os.Exit(1)
	}

	// 初始化服务
	publisher := tetrecsNats.NewMessagePublisher(natsClient.Conn())
	scoreboard := service.NewScoreboard(redisClient, cfg.Game.HighScores)
	manager := game.NewGameManager(cfg.Game.MaxGames, cfg.Game.EvictTimeout, cfg.Game.EvictInterval)
	gameService := game.NewGameService(manager, publisher, scheduler, scoreboard, results, game.ServiceConfig{
		Cols:          cfg.Game.Cols,
		Rows:          cfg.Game.Rows,
		MaxBoardSize:  cfg.Game.MaxBoardSize,
		Lives:         cfg.Game.Lives,
		RecordTimeout: cfg.Game.RecordTimeout,
	})

	// 创建消息处理器
	msgHandler := handler.NewMessageHandler(
		handler.NewGameHandler(gameService),
		handler.NewChatHandler(publisher),
		publisher,
	)

	// 启动订阅者
	subscriber := tetrecsNats.NewMessageSubscriber(natsClient.Conn(), msgHandler, tetrecsNats.SubscriberConfig{
		WorkerCount: cfg.NATS.WorkerCount,
		BufferSize:  cfg.NATS.BufferSize,
	})
	if err := subscriber.Start(ctx); err != nil {
		logger.Error("Failed to start subscriber", "error", err)
		os.Exit(1)
	}

	// HTTP 查询接口与健康检查
	healthChecker := health.NewChecker(natsClient, func(ctx context.Context) error {
		return redisClient.Ping(ctx).Err()
	}, dbPing).WithLoop(scheduler)
	engine := router.SetupRouter(
		cfg.HTTP,
		healthChecker,
		api.NewScoreHandler(scoreboard),
		api.NewResultHandler(results),
		api.NewGameHandler(gameService),
	)
	server := &http.Server{
		Addr:    cfg.HTTP.Addr,
		Handler: engine,
	}
	go func() {
		logger.Info("HTTP server started", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server failed", "error", err)
		}
	}()

	logger.Info("Tetrecs service started", "name", cfg.App.Name)

	// 优雅退出
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP server shutdown failed", "error", err)
	}
	cancel()
	if err := subscriber.Stop(); err != nil {
		logger.Warn("Subscriber stop failed", "error", err)
	}
	// 结束进行中的游戏，等待结算写入完成后再断开存储
	if err := manager.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Game manager shutdown incomplete", "error", err)
	}
	gameService.Wait()
	scheduler.Stop()

	logger.Info("Tetrecs service stopped")
}

func parseLevel(level string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo
	}
	return l
}

// connectRedis 连接 Redis
func connectRedis(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

// openResults 按驱动打开战绩库，同时返回探活函数
func openResults(ctx context.Context, cfg config.DatabaseConfig) (repository.ResultRepository, health.PingFunc, error) {
	switch cfg.Driver {
	case "postgres":
		pool, err := connectDatabase(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		return repository.NewPgResultRepository(pool), pool.Ping, nil
	case "sqlite", "":
		repo, err := repository.NewSQLiteResultRepository(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		return repo, repo.Ping, nil
	default:
		return nil, nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// connectDatabase 连接 PostgreSQL
func connectDatabase(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.Name,
	)

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}

	poolConfig.MaxConns = int32(cfg.MaxOpenConns)
	poolConfig.MinConns = int32(cfg.MaxIdleConns)
	poolConfig.MaxConnLifetime = cfg.ConnMaxLifetime
	poolConfig.MaxConnIdleTime = 10 * time.Minute

	return pgxpool.NewWithConfig(ctx, poolConfig)
}
