// Package server runs the daemon's IPC endpoint: one connection per
// request, line-delimited JSON in both directions, each connection handled
// on its own goroutine with the pipeline from the request flow.
package server

import (
	"context"
	"errors"
	"net"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/jg-phare/nudge/internal/log"
	"github.com/jg-phare/nudge/pkg/cache"
	"github.com/jg-phare/nudge/pkg/config"
	nudgectx "github.com/jg-phare/nudge/pkg/context"
	"github.com/jg-phare/nudge/pkg/llm"
	"github.com/jg-phare/nudge/pkg/paths"
	"github.com/jg-phare/nudge/pkg/protocol"
	"github.com/jg-phare/nudge/pkg/session"
	"github.com/jg-phare/nudge/pkg/shellmode"
)

// completeFunc matches llm.Complete; swapped out in tests.
type completeFunc func(ctx context.Context, buffer string, mode shellmode.Mode, data *nudgectx.Data, cfg *config.Config) (string, error)

// diagnoseFunc matches llm.Diagnose.
type diagnoseFunc func(ctx context.Context, req *protocol.DiagnosisRequest, data *nudgectx.Data, cfg *config.Config) (string, string, error)

// Server accepts connections and orchestrates the completion pipeline.
type Server struct {
	cfg      atomic.Pointer[config.Config]
	cache    *cache.Cache
	sessions *session.Store
	gatherer atomic.Pointer[nudgectx.Gatherer]

	// SocketPath overrides the default endpoint (tests).
	SocketPath string

	complete completeFunc
	diagnose diagnoseFunc
}

// New builds a server around an immutable config snapshot.
func New(cfg *config.Config) *Server {
	s := &Server{
		cache:      cache.New(cfg.Cache),
		sessions:   session.NewStore(),
		SocketPath: paths.SocketPath(),
		complete:   llm.Complete,
		diagnose:   llm.Diagnose,
	}
	s.cfg.Store(cfg)
	s.gatherer.Store(nudgectx.NewGatherer(cfg))
	return s
}

// Reload swaps in a new config snapshot; in-flight requests keep the old one.
func (s *Server) Reload(cfg *config.Config) {
	s.cfg.Store(cfg)
	s.gatherer.Store(nudgectx.NewGatherer(cfg))
}

// Sessions exposes the session store (diagnostics).
func (s *Server) Sessions() *session.Store {
	return s.sessions
}

// Run binds the endpoint and accepts until ctx is done. In-flight
// connections get to finish; the socket file is removed on the way out.
func (s *Server) Run(ctx context.Context) error {
	ln, err := listen(s.SocketPath)
	if err != nil {
		return err
	}
	log.Info("listening", zap.String("endpoint", s.SocketPath))

	var wg sync.WaitGroup
	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				break
			}
			log.Error("accept failed", zap.Error(err))
			continue
		}

		wg.Add(1)
		go func(c net.Conn) {
			defer wg.Done()
			s.handleConn(ctx, c)
		}(conn)
	}

	wg.Wait()
	cleanupEndpoint(s.SocketPath)
	log.Info("daemon shutdown complete")
	return nil
}
