package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/npezzotti/basic-chat/internal/config"
	"github.com/npezzotti/basic-chat/internal/database"
	"github.com/npezzotti/basic-chat/internal/logging"
	"github.com/npezzotti/basic-chat/internal/server"
	"github.com/npezzotti/basic-chat/web"
	"go.uber.org/zap"
)

type GoChatApp struct {
	log            *zap.SugaredLogger
	db             database.Repository
	mux            *http.Server
	cs             *server.ChatServer
	templates      web.TemplateCache
	allowedOrigins []string
}

func NewGoChatApp(mux *http.ServeMux, logger *zap.SugaredLogger, cs *server.ChatServer, db database.Repository, tc web.TemplateCache, cfg *config.Config) *GoChatApp {
	s := &GoChatApp{
		log:            logger,
		db:             db,
		cs:             cs,
		templates:      tc,
		allowedOrigins: cfg.AllowedOrigins,
	}

	mux.HandleFunc("GET /login", s.loginPage)
	mux.HandleFunc("GET /{$}", s.redirectToLogin)
	mux.HandleFunc("POST /{$}", s.enterChat)
	mux.HandleFunc("GET /checkUsername", s.checkUsername)
	mux.HandleFunc("POST /checkUsername", s.checkUsername)
	mux.HandleFunc("GET /ws", s.serveWs)
	mux.HandleFunc("GET /healthz", s.healthz)
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(web.Static())))
	mux.HandleFunc("/", s.notFound)

	h := handlers.CORS(
		handlers.MaxAge(3600),
		handlers.AllowedOrigins(cfg.AllowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Origin", "Content-Type", "Accept"}),
	)(mux)

	h = s.errorHandler(h)
	h = handlers.CombinedLoggingHandler(logging.Writer(logger), h)

	srv := &http.Server{
		Addr:    cfg.ServerAddr,
		Handler: h,
	}

	s.mux = srv
	return s
}

func (s *GoChatApp) Handler() http.Handler {
	return s.mux.Handler
}

func (s *GoChatApp) Start() error {
	s.log.Infof("starting server on %s", s.mux.Addr)
	return s.mux.ListenAndServe()
}

func (s *GoChatApp) Shutdown(ctx context.Context) error {
	s.log.Info("shutting down HTTP server...")
	if err := s.mux.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	return nil
}
