package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pribylovaa/go-auth-service/internal/cache"
	"github.com/pribylovaa/go-auth-service/internal/config"
	"github.com/pribylovaa/go-auth-service/internal/i18n"
	"github.com/pribylovaa/go-auth-service/internal/reaper"
	"github.com/pribylovaa/go-auth-service/internal/security"
	"github.com/pribylovaa/go-auth-service/internal/service"
	"github.com/pribylovaa/go-auth-service/internal/storage/postgres"
	transport "github.com/pribylovaa/go-auth-service/internal/transport/http"
)

// Константы для определения окружения.
const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "path to config file")
	flag.Parse()

	cfg := config.MustLoad(configPath)

	log := setupLogger(cfg.Env)
	slog.SetDefault(log)
	log.Info("starting application", "env", cfg.Env)

	// Корневой контекст по сигналам.
	rootCtx, rootCancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	// Подключение к БД c таймаутом.
	dbCtx, dbCancel := context.WithTimeout(rootCtx, 10*time.Second)
	str, err := postgres.New(dbCtx, cfg.DB.DatabaseURL)
	dbCancel()
	if err != nil {
		log.Error("postgres_connect_failed", slog.String("err", err.Error()))
		rootCancel()
		os.Exit(1)
	}
	log.Info("postgres_connected")

	// Сервис.
	hasher := security.NewBcryptHasher(cfg.Auth.BcryptCost)
	srvc := service.New(str, cfg.Auth, hasher)
	log.Info("service_initialized")

	// Кэш сессий опционален: без Redis сервис полностью работоспособен,
	// каждая проверка сессии просто ходит в Postgres.
	var scache cache.SessionCache
	if cfg.Redis.RedisURL != "" {
		scache, err = cache.NewRedisCache(rootCtx, cfg.Redis.RedisURL, "")
		if err != nil {
			log.Warn("redis_connect_failed, continuing without session cache",
				slog.String("err", err.Error()))
		} else {
			srvc.SetSessionCache(scache)
			log.Info("redis_connected")
		}
	}

	var ready int32 // 0 — not ready; 1 — ready
	opsAddr := cfg.Ops.Addr()

	mux := http.NewServeMux()
	mux.HandleFunc("/livez", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		if atomic.LoadInt32(&ready) == 1 {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
			return
		}
		http.Error(w, "not ready", http.StatusServiceUnavailable)
	})

	mux.Handle("/metrics", promhttp.Handler())

	opsSrv := &http.Server{
		Addr:              opsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("ops_listen_start", "addr", opsAddr)
		if err := opsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("ops_serve_failed", slog.String("err", err.Error()))
		}
	}()

	// Фоновая очистка просроченных и отозванных сессий.
	rp := reaper.New(str, log, cfg.Reaper.Interval, cfg.Reaper.Retention)
	go rp.Run(rootCtx)

	// REST API.
	msgs := i18n.New()
	handler := transport.NewRouter(srvc, msgs, transport.Options{
		Logger:  log,
		Timeout: cfg.Timeouts.Service,
	})

	addr := cfg.HTTP.Addr()
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		log.Error("http_listen_failed",
			slog.String("addr", addr),
			slog.String("err", err.Error()),
		)
		rootCancel()
		str.Close()
		os.Exit(1)
	}
	log.Info("http_listen_start", slog.String("addr", addr))

	apiSrv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	// Сервис готов: readiness=1.
	atomic.StoreInt32(&ready, 1)

	serveErrCh := make(chan error, 1)
	go func() {
		if err := apiSrv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErrCh <- err
		}
		close(serveErrCh)
	}()

	// Ожидание сигнала завершения или фатальной ошибки сервера.
	select {
	case <-rootCtx.Done():
		log.Info("shutdown_requested")
	case err := <-serveErrCh:
		if err != nil {
			log.Error("http_serve_failed", slog.String("err", err.Error()))
		}
	}

	// Снимаем ready.
	atomic.StoreInt32(&ready, 0)

	// Graceful stop с таймаутом.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)

	if err := apiSrv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http_force_stop", slog.String("err", err.Error()))
		_ = apiSrv.Close()
	} else {
		log.Info("http_stopped")
	}

	// Грейсфул остановка служебного HTTP.
	_ = opsSrv.Shutdown(context.Background())

	// Явная очистка перед выходом.
	shutdownCancel()
	rootCancel()
	if scache != nil {
		_ = scache.Close()
	}
	str.Close()

	log.Info("service_stopped")
	os.Exit(0)
}

// setupLogger настраивает slog по окружению.
func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	default:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	}

	return log
}
