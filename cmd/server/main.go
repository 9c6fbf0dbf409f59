package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/npezzotti/basic-chat/internal/api"
	"github.com/npezzotti/basic-chat/internal/config"
	"github.com/npezzotti/basic-chat/internal/database"
	"github.com/npezzotti/basic-chat/internal/logging"
	"github.com/npezzotti/basic-chat/internal/server"
	"github.com/npezzotti/basic-chat/internal/stats"
	"github.com/npezzotti/basic-chat/web"
)

type stringSliceFlag []string

func (s *stringSliceFlag) String() string {
	return strings.Join(*s, ",")
}

func (s *stringSliceFlag) Set(value string) error {
	*s = append(*s, strings.Split(value, ",")...)
	return nil
}

var (
	addr              string
	dbDriver          string
	dsn               string
	reconcileInterval time.Duration
	logLevel          string
	logDev            bool
	allowedOrigins    stringSliceFlag
)

func main() {
	// a missing .env file is fine, the environment and flags still apply
	_ = godotenv.Load()

	flag.StringVar(&addr, "addr", config.Env("CHAT_ADDR", "localhost:8000"), "server address")
	flag.StringVar(&dbDriver, "db-driver", config.Env("CHAT_DB_DRIVER", database.DriverSQLite), "database driver (sqlite3 or postgres)")
	flag.StringVar(&dsn, "dsn", config.Env("CHAT_DSN", "database.sqlite"), "database connection string")
	flag.DurationVar(&reconcileInterval, "reconcile-interval", config.EnvDuration("CHAT_RECONCILE_INTERVAL", time.Minute), "how often username bindings are checked against the store")
	flag.StringVar(&logLevel, "log-level", config.Env("LOG_LEVEL", "info"), "log level")
	flag.BoolVar(&logDev, "log-dev", config.EnvBool("LOG_DEV", false), "human readable development logging")
	flag.Var(&allowedOrigins, "allowed-origins", "comma-separated list of allowed origins for CORS")
	flag.Parse()

	if len(allowedOrigins) == 0 {
		if v := config.Env("CHAT_ALLOWED_ORIGINS", ""); v != "" {
			allowedOrigins.Set(v)
		}
	}

	zl, err := logging.New(logLevel, logDev)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer zl.Sync()
	logger := zl.Sugar()

	cfg, err := config.NewConfig(addr, dbDriver, dsn, allowedOrigins, reconcileInterval)
	if err != nil {
		logger.Fatalw("config", "error", err)
	}

	openCtx, cancelOpen := context.WithTimeout(context.Background(), 30*time.Second)
	store, err := database.Open(openCtx, cfg.DatabaseDriver, cfg.DatabaseDSN, logger)
	cancelOpen()
	if err != nil {
		logger.Fatalw("db open", "driver", cfg.DatabaseDriver, "error", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Errorw("db close", "error", err)
		}
	}()

	templates, err := web.NewTemplateCache()
	if err != nil {
		logger.Fatalw("templates", "error", err)
	}

	mux := http.NewServeMux()

	statsUpdater := stats.NewStatsUpdater(mux)

	chatServer, err := server.NewChatServer(logger, store, statsUpdater, cfg.ReconcileInterval)
	if err != nil {
		logger.Fatalw("new chat server", "error", err)
	}

	srv := api.NewGoChatApp(mux, logger, chatServer, store, templates, cfg)

	statsUpdater.Run()

	go chatServer.Run()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigs:
		logger.Infow("received signal", "signal", sig.String())
	case err := <-errCh:
		logger.Errorw("server", "error", err)
	}

	shutDownCtx, cancel := context.WithTimeout(
		context.Background(),
		10*time.Second,
	)
	defer cancel()

	shutdown(shutDownCtx, logger, srv, chatServer, statsUpdater)
	logger.Info("shutdown complete")
}
