package api

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/valyala/fasthttp"

	"github.com/praveen001/planner/internal/api/ratelimit"
	"github.com/praveen001/planner/internal/config"
	"github.com/praveen001/planner/internal/migrations"
	"github.com/praveen001/planner/internal/services"
)

// Server is the HTTP server wrapping the planner services.
type Server struct {
	srv      *fasthttp.Server
	addr     string
	conf     *config.Config
	services *services.Services
	limiter  ratelimit.Limiter
}

// New reads config, runs pending migrations and wires the services
// behind a fasthttp server.
func New() *Server {
	conf := config.ReadConfig()

	m, err := migrations.NewMigrator()
	if err != nil {
		panic("unable to create migrator")
	}

	err = m.Up(0)
	if err != nil {
		panic("unable to run migrations")
	}

	s := &Server{
		srv:      &fasthttp.Server{},
		addr:     fmt.Sprintf("0.0.0.0:%s", conf.PORT),
		conf:     conf,
		services: services.NewServices(conf),
		limiter:  newLimiter(conf),
	}

	s.srv.Handler = s.initNewRoutes()

	return s
}

// newLimiter picks the rate limiter backend. Redis when configured so
// limits hold across replicas, otherwise per-process in-memory buckets.
func newLimiter(conf *config.Config) ratelimit.Limiter {
	if conf.RATE_LIMIT_PER_MIN <= 0 {
		return nil
	}

	if conf.REDIS_ADDR != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     conf.REDIS_ADDR,
			Password: conf.REDIS_PASSWORD,
		})

		limiter := ratelimit.NewRedisLimiter(client, "planner:ratelimit", conf.RATE_LIMIT_PER_MIN, time.Minute)
		if err := limiter.Ping(context.Background()); err != nil {
			slog.Warn("Redis unreachable, falling back to in-memory rate limiting", slog.Any("error", err))
			return ratelimit.NewMemoryLimiter(conf.RATE_LIMIT_PER_MIN, time.Minute)
		}

		return limiter
	}

	return ratelimit.NewMemoryLimiter(conf.RATE_LIMIT_PER_MIN, time.Minute)
}

// Start the rest server
func (s *Server) Start() {
	slog.Info("Starting REST server...")
	go func() {
		if err := s.srv.ListenAndServe(s.addr); err != nil {
			slog.Error("Server shutdown", slog.Any("error", err))
		}
	}()
	slog.Info("REST server started!", slog.String("addr", s.addr))

	// Listen for OS interrupts
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	// Block till we receive an interrupt
	<-c
	slog.Info("Received interrupt...")

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	s.shutdown(ctx)
}

// shutdown shuts down the rest server and releases the rate limiter
func (s *Server) shutdown(ctx context.Context) {
	slog.Info("Gracefully shutting down REST server...")
	if err := s.srv.Shutdown(); err != nil {
		slog.Error("Failed to shutdown the server", slog.Any("error", err))
	}

	switch l := s.limiter.(type) {
	case *ratelimit.MemoryLimiter:
		l.Stop()
	case *ratelimit.RedisLimiter:
		if err := l.Close(); err != nil {
			slog.Error("Failed to close rate limiter", slog.Any("error", err))
		}
	}

	slog.Info("REST server shutdown!")
}
