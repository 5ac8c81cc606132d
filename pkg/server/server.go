package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

const stopWaitTime = 5 * time.Second

type Config struct {
	Host string `env:"HOST" envDefault:"localhost"`
	Port string `env:"PORT" envDefault:"7070"`
}

// Server wraps an http.Server with context-driven graceful shutdown.
type Server struct {
	ctx    context.Context
	cancel context.CancelFunc
	name   string
	server *http.Server
	logger *slog.Logger
}

func New(ctx context.Context, cancel context.CancelFunc, name string, cfg Config, handler http.Handler, logger *slog.Logger) *Server {
	addr := fmt.Sprintf("%s:%s", cfg.Host, cfg.Port)

	return &Server{
		ctx:    ctx,
		cancel: cancel,
		name:   name,
		server: &http.Server{Addr: addr, Handler: handler},
		logger: logger,
	}
}

func (s *Server) Start() error {
	errCh := make(chan error)
	s.logger.Info(fmt.Sprintf("%s service http server listening at %s", s.name, s.server.Addr))

	go func() {
		errCh <- s.server.ListenAndServe()
	}()

	select {
	case <-s.ctx.Done():
		return s.Stop()
	case err := <-errCh:
		s.cancel()

		return err
	}
}

func (s *Server) Stop() error {
	defer s.cancel()

	ctx, cancel := context.WithTimeout(context.Background(), stopWaitTime)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		s.logger.Error(fmt.Sprintf("%s service http server error during shutdown: %v", s.name, err))

		return fmt.Errorf("%s service http server error during shutdown: %w", s.name, err)
	}
	s.logger.Info(fmt.Sprintf("%s service http server shutdown complete", s.name))

	return nil
}

// StopSignalHandler blocks until the context ends or a termination signal
// arrives, then stops the given servers.
func StopSignalHandler(ctx context.Context, cancel context.CancelFunc, logger *slog.Logger, svcName string, servers ...*Server) error {
	var err error
	c := make(chan os.Signal, 2)
	signal.Notify(c, syscall.SIGINT, syscall.SIGABRT, syscall.SIGTERM)
	select {
	case sig := <-c:
		defer cancel()
		for _, server := range servers {
			err = server.Stop()
		}
		logger.Info(fmt.Sprintf("%s service shutdown by signal: %s", svcName, sig))

		return err
	case <-ctx.Done():
		return nil
	}
}
