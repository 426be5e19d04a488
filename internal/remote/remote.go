// Package remote pushes a contributor to a bufcompose server over socket.io
// and follows the composed output the server sends back.
package remote

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"sync/atomic"

	"github.com/vk/bufcompose/internal/ctxlog"
	"github.com/vk/bufcompose/internal/server"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

// Contribution is what a remote contributor publishes.
type Contribution struct {
	System    string
	Structure []string
	Defines   []string
	EmitCount int
}

// Options tunes a connection.
type Options struct {
	Namespace          string
	InsecureSkipVerify bool
}

// Session is a connected remote contributor.
type Session struct {
	io     *socket.Socket
	logger *slog.Logger

	mu       sync.Mutex
	composed server.Composed
	systems  []string
	updates  chan server.Composed
	closed   atomic.Bool
}

type result struct {
	composed server.Composed
	err      error
}

// Dial connects to rawURL, publishes c and waits until the server confirms
// it with the composed output.
func Dial(ctx context.Context, rawURL string, c Contribution, o Options) (*Session, error) {
	logger := ctxlog.FromContext(ctx).With("url", rawURL, "system", c.System)

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, fmt.Errorf("URL '%s' must include a scheme and host", rawURL)
	}

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	opts := socket.DefaultOptions()
	if parsedURL.Path != "" && parsedURL.Path != "/" {
		opts.SetPath(parsedURL.Path)
	}
	if o.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification")
		opts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))

	namespace := o.Namespace
	if namespace == "" {
		namespace = "/"
	}
	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket(namespace, opts)

	s := &Session{
		io:      io,
		logger:  logger,
		updates: make(chan server.Composed, 16),
	}
	done := make(chan result, 1)
	var synced atomic.Bool

	io.On(types.EventName("connect"), func(...any) {
		logger.Debug("Connected to contributor server.", "sid", io.Id())
		io.Emit(server.EventJoin, c.System)
		io.Emit(server.EventDefines, c.Defines)
		io.Emit(server.EventEmitCount, c.EmitCount)
		io.Emit(server.EventStructure, c.Structure)
		io.Emit(server.EventSync)
	})
	io.On(types.EventName("connect_error"), func(errs ...any) {
		err := fmt.Errorf("connection failed")
		if len(errs) > 0 {
			if e, ok := errs[0].(error); ok {
				err = fmt.Errorf("connection failed: %w", e)
			}
		}
		deliver(done, result{err: err})
	})
	io.On(types.EventName(server.EventRejected), func(args ...any) {
		var detail any
		if len(args) > 0 {
			detail = args[0]
		}
		logger.Warn("Server rejected an event.", "detail", detail)
	})
	io.On(types.EventName(server.EventSystems), func(args ...any) {
		if len(args) == 0 {
			return
		}
		names, ok := args[0].([]any)
		if !ok {
			return
		}
		systems := make([]string, 0, len(names))
		for _, n := range names {
			if name, ok := n.(string); ok {
				systems = append(systems, name)
			}
		}
		s.mu.Lock()
		s.systems = systems
		s.mu.Unlock()
	})
	io.On(types.EventName(server.EventSynced), func(args ...any) {
		if len(args) == 0 {
			return
		}
		composed, err := server.DecodeComposed(args[0])
		if err == nil {
			s.store(composed)
		}
		if synced.CompareAndSwap(false, true) {
			deliver(done, result{composed: composed, err: err})
		}
	})
	io.On(types.EventName(server.EventComposed), func(args ...any) {
		if len(args) == 0 {
			return
		}
		composed, err := server.DecodeComposed(args[0])
		if err != nil {
			logger.Warn("Ignoring malformed composed event.", "error", err)
			return
		}
		s.store(composed)
	})

	io.Connect()

	select {
	case <-ctx.Done():
		io.Disconnect()
		return nil, fmt.Errorf("waiting for server confirmation: %w", ctx.Err())
	case res := <-done:
		if res.err != nil {
			io.Disconnect()
			return nil, res.err
		}
		logger.Info("Contributor synchronized.", "bound", res.composed.System, "element_count", res.composed.ElementCount)
		return s, nil
	}
}

// deliver hands the first outcome to Dial and drops later ones.
func deliver(done chan<- result, res result) bool {
	select {
	case done <- res:
		return true
	default:
		return false
	}
}

func (s *Session) store(c server.Composed) {
	s.mu.Lock()
	s.composed = c
	s.mu.Unlock()
	if s.closed.Load() {
		return
	}
	select {
	case s.updates <- c:
	default:
	}
}

// Composed returns the most recent composed output.
func (s *Session) Composed() server.Composed {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.composed
}

// Systems returns the system names last broadcast by the server.
func (s *Session) Systems() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.systems...)
}

// Updates delivers composed outputs as they arrive. Slow readers miss
// intermediate values.
func (s *Session) Updates() <-chan server.Composed {
	return s.updates
}

// Close disconnects from the server, which withdraws the contribution.
func (s *Session) Close() {
	if !s.closed.CompareAndSwap(false, true) {
		return
	}
	s.logger.Debug("Disconnecting contributor session")
	s.io.Disconnect()
}
