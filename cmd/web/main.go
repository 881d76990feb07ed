// Package main は Web フロントエンドサーバーのエントリーポイントです。
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/mygo-web/internal/auth"
	"github.com/yourusername/mygo-web/internal/authform"
	"github.com/yourusername/mygo-web/internal/config"
	"github.com/yourusername/mygo-web/internal/inflight"
	"github.com/yourusername/mygo-web/internal/logging"
	"github.com/yourusername/mygo-web/internal/userapi"
	"github.com/yourusername/mygo-web/internal/web"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// 設定の読み込み
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Ginのモードを設定
	gin.SetMode(cfg.GinMode)

	logger, err := logging.New(cfg.LogLevel, cfg.GinMode)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped with error", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	api, err := userapi.NewClient(cfg.UserAPIBaseURL,
		userapi.WithTimeout(cfg.UserAPITimeout),
		userapi.WithLogger(logger.Named("userapi")),
	)
	if err != nil {
		return err
	}

	guard, closeGuard, err := newGuard(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeGuard()

	reducer := authform.Reducer{RedirectDelay: cfg.RedirectDelay, HomePath: authform.HomePath}
	manager := auth.NewManager(cfg, logger.Named("auth"))
	handler := web.NewHandler(api, manager, guard, reducer, logger.Named("web"))

	router, err := web.NewRouter(cfg, handler, manager, logger)
	if err != nil {
		return err
	}

	// 認証APIの応答待ちに上限を設けないため WriteTimeout は設定しない
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting web server", zap.String("addr", srv.Addr), zap.String("mode", cfg.GinMode))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down web server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

// newGuard は REDIS_URL が設定されていれば Redis、なければプロセス内の送信ロックを返します。
func newGuard(ctx context.Context, cfg *config.Config, logger *zap.Logger) (inflight.Guard, func(), error) {
	if cfg.RedisURL == "" {
		logger.Info("using in-memory submit guard")
		return inflight.NewMemoryGuard(), func() {}, nil
	}

	rdb, err := inflight.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("using redis submit guard", zap.Duration("ttl", cfg.SubmitLockTTL))
	return inflight.NewRedisGuard(rdb, cfg.SubmitLockTTL), func() {
		if err := rdb.Close(); err != nil {
			logger.Warn("failed to close redis client", zap.Error(err))
		}
	}, nil
}
