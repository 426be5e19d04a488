package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"cogentcore.org/core/base/ordmap"
	"github.com/vk/bufcompose/internal/contributor"
	"github.com/vk/bufcompose/internal/registry"
	"github.com/zishang520/socket.io/v2/socket"
)

// MemberPrefix prefixes the roster entry a socket holds in the system it
// joined.
const MemberPrefix = "remote:"

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// Server serves contributors over socket.io.
type Server struct {
	reg    *registry.Registry
	logger *slog.Logger
	io     *socket.Server
	cancel func()

	mu       sync.Mutex
	sessions *ordmap.Map[string, *session]
}

type session struct {
	id      string
	client  *socket.Socket
	adapter *contributor.Adapter

	mu     sync.Mutex
	joined string
}

func (s *session) member() string {
	return MemberPrefix + s.id
}

// New creates a server backed by reg.
func New(reg *registry.Registry, opts ...Option) *Server {
	s := &Server{
		reg:      reg,
		logger:   slog.Default(),
		io:       socket.NewServer(nil, nil),
		sessions: ordmap.New[string, *session](),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.cancel = reg.Subscribe(s.handle)
	s.io.On("connection", func(clients ...any) {
		client, ok := clients[0].(*socket.Socket)
		if !ok {
			return
		}
		s.connect(client)
	})
	return s
}

// Handler returns the socket.io HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.io.ServeHandler(nil)
}

// Sessions returns the number of connected contributors.
func (s *Server) Sessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions.Len()
}

// Serve listens on addr until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.ServeListener(ctx, ln)
}

// ServeListener serves on ln until ctx is cancelled.
func (s *Server) ServeListener(ctx context.Context, ln net.Listener) error {
	mux := http.NewServeMux()
	mux.Handle("/socket.io/", s.Handler())

	srv := &http.Server{Handler: mux}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Contributor server listening.", "address", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("contributor server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.logger.Info("Shutting down contributor server...")
	s.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("contributor server shutdown failed: %w", err)
	}
	return nil
}

// Close disconnects every contributor and stops listening to the registry.
func (s *Server) Close() {
	s.cancel()
	s.mu.Lock()
	sessions := s.sessions.Values()
	s.mu.Unlock()

	for _, sess := range sessions {
		s.leave(sess)
	}
	s.io.Close(nil)
}

func (s *Server) connect(client *socket.Socket) {
	id := string(client.Id())
	logger := s.logger.With("socket", id)

	sess := &session{id: id, client: client}
	sess.adapter = contributor.New(s.reg, id,
		contributor.WithLogger(s.logger),
		contributor.WithOnChange(func(a *contributor.Adapter) {
			client.Emit(EventComposed, composedOf(a))
		}),
	)

	s.mu.Lock()
	s.sessions.Add(id, sess)
	s.mu.Unlock()
	logger.Info("Contributor connected.")

	client.On(EventJoin, func(args ...any) {
		system, err := toString(args)
		if err != nil || system == "" {
			s.reject(client, EventJoin, fmt.Errorf("invalid system name: %v", err))
			return
		}
		s.join(sess, system)
	})
	client.On(EventStructure, func(args ...any) {
		decls, err := toStrings(args)
		if err != nil {
			s.reject(client, EventStructure, err)
			return
		}
		sess.adapter.SetDeclarations(decls)
		sess.adapter.Evaluate()
	})
	client.On(EventDefines, func(args ...any) {
		defines, err := toStrings(args)
		if err != nil {
			s.reject(client, EventDefines, err)
			return
		}
		sess.adapter.SetDefines(defines)
		sess.adapter.Evaluate()
	})
	client.On(EventEmitCount, func(args ...any) {
		n, err := toCount(args)
		if err != nil {
			s.reject(client, EventEmitCount, err)
			return
		}
		sess.adapter.SetEmitCount(n)
		sess.adapter.Evaluate()
	})
	client.On(EventSync, func(...any) {
		sess.adapter.Evaluate()
		client.Emit(EventSynced, composedOf(sess.adapter))
	})
	client.On("disconnect", func(reason ...any) {
		logger.Info("Contributor disconnected.", "reason", reason)
		s.leave(sess)
	})

	client.Emit(EventSystems, s.reg.Names())
}

// join makes the socket a member of system and points its contributions
// there.
func (s *Server) join(sess *session, system string) {
	sess.mu.Lock()
	prev := sess.joined
	sess.joined = system
	sess.mu.Unlock()

	if prev == system {
		return
	}
	s.logger.Debug("Contributor joining system.", "socket", sess.id, "system", system)
	sess.adapter.SetSystem(system)
	s.reg.Add(system, sess.member())
	sess.adapter.Evaluate()
}

func (s *Server) leave(sess *session) {
	s.mu.Lock()
	ok := s.sessions.DeleteKey(sess.id)
	s.mu.Unlock()
	if !ok {
		return
	}

	sess.adapter.Close()
	sess.mu.Lock()
	joined := sess.joined
	sess.mu.Unlock()
	if joined != "" {
		s.reg.Release(joined, sess.member())
	}
}

func (s *Server) reject(client *socket.Socket, event string, err error) {
	s.logger.Warn("Rejected contributor event.", "socket", string(client.Id()), "event", event, "error", err)
	client.Emit(EventRejected, map[string]any{"event": event, "error": err.Error()})
}

// handle broadcasts the system list after a structural change. Adapters
// rebind themselves.
func (s *Server) handle(ev registry.Event) {
	if !ev.IsStructural() {
		return
	}
	s.io.Emit(EventSystems, s.reg.Names())
}

func composedOf(a *contributor.Adapter) Composed {
	system, _ := a.Bound()
	return Composed{
		Contributor:  a.ID(),
		System:       system,
		Output:       a.Output(),
		ElementCount: a.ElementCount(),
		Stride:       a.Stride(),
	}
}
