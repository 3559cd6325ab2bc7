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
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"

	docs "github.com/tazhibayda/mytinerary/docs"
	"github.com/tazhibayda/mytinerary/internal/auth"
	"github.com/tazhibayda/mytinerary/internal/config"
	httpapi "github.com/tazhibayda/mytinerary/internal/http"
	applog "github.com/tazhibayda/mytinerary/internal/log"
	"github.com/tazhibayda/mytinerary/internal/metrics"
	"github.com/tazhibayda/mytinerary/internal/oauth"
	"github.com/tazhibayda/mytinerary/internal/queue"
	"github.com/tazhibayda/mytinerary/internal/repo"
	"github.com/tazhibayda/mytinerary/internal/security"
)

type backend interface {
	auth.UserStore
	httpapi.StateStore
	httpapi.Pinger
}

// @title Mytinerary API
// @version 0.1.0
// @description Accounts, sessions and favorites for the mytinerary travel app.
// @schemes http https
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, err := applog.Init(cfg.Debug)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	if cfg.TracingEnabled {
		tracer.Start(tracer.WithService(cfg.ServiceName))
		defer tracer.Stop()
	}
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var store backend
	if cfg.MongoURI == repo.MemoryURI {
		logger.Warn("using the in-memory store, data is lost on restart")
		store = repo.NewMemoryStore()
	} else {
		ms, err := repo.NewStore(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			logger.Fatal("mongo connect", zap.Error(err))
		}
		defer ms.Close(context.Background())
		if err := ms.EnsureIndexes(ctx); err != nil {
			logger.Fatal("mongo indexes", zap.Error(err))
		}
		store = ms
	}

	issuer, err := security.NewIssuer(cfg.JWTSecret)
	if err != nil {
		logger.Fatal("token issuer", zap.Error(err))
	}
	hasher := security.NewHasher(cfg.BcryptCost, cfg.HashConcurrency)

	var pub queue.Publisher = queue.NewNoop()
	if cfg.RabbitURL != "" {
		rp, err := queue.NewRabbit(cfg.RabbitURL, cfg.EventsExchange)
		if err != nil {
			logger.Fatal("rabbit", zap.Error(err))
		}
		pub = rp
	} else {
		logger.Info("RABBIT_URL not set, events are dropped")
	}
	defer pub.Close()

	ident, err := auth.ParseIdentifier(cfg.LoginIdentifier)
	if err != nil {
		logger.Fatal("login identifier", zap.Error(err))
	}
	svc := auth.NewService(store, hasher, issuer, pub, ident, logger.Named("auth"))

	h := httpapi.NewHandler(svc, store, logger.Named("http"))
	h.States = store
	h.FrontendURL = cfg.FrontendURL
	h.FailureURL = cfg.OAuthFailureURL

	if cfg.RateLimitPerMin > 0 {
		if cfg.RedisAddr != "" {
			rds := repo.NewRedis(cfg.RedisAddr)
			defer rds.Close()
			if err := rds.Ping(ctx); err != nil {
				logger.Warn("redis unavailable, limiter fails open until it recovers", zap.Error(err))
			}
			h.Limiter = httpapi.NewRedisLimiter(rds, cfg.RateLimitPerMin, httpapi.LoginWindow)
		} else {
			h.Limiter = httpapi.NewMemoryLimiter(cfg.RateLimitPerMin, httpapi.LoginWindow)
		}
	}

	if cfg.GoogleEnabled() {
		h.Google = oauth.NewGoogle(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL, cfg.OAuthStateSecret)
	} else {
		logger.Info("google login disabled")
	}

	docs.SwaggerInfo.BasePath = "/"
	r := httpapi.NewRouter(h, cfg.ServiceName)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	srvErr := make(chan error, 1)
	go func() { srvErr <- srv.ListenAndServe() }()
	logger.Info("listening", zap.String("addr", srv.Addr), zap.String("login_identifier", string(svc.Identifier())))

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case s := <-sig:
		logger.Info("shutting down", zap.String("signal", s.String()))
	case err := <-srvErr:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", zap.Error(err))
		}
	}

	shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
	defer done()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
}
