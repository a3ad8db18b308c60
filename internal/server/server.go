// Package server implements the listener and accept loop (C7): admission
// control, graceful shutdown, and the server-wide counters the dispatcher's
// INFO command and the optional health endpoint both read.
package server

import (
	"context"
	"crypto/tls"
	"log"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shaikh-shahid/redistill/internal/command"
	"github.com/shaikh-shahid/redistill/internal/conn"
	"github.com/shaikh-shahid/redistill/internal/eviction"
	"github.com/shaikh-shahid/redistill/internal/store"
)

// Version is the reported server version (INFO's redis_version field).
const Version = "7.0.0-redistill"

// Options configures a Server. Zero value is usable for tests: no TLS, no
// connection cap, no rate limit, the §5 default idle timeout.
type Options struct {
	Bind string // e.g. "127.0.0.1:6379"

	MaxConnections      int
	ConnectionRateLimit int // connections/sec; 0 disables
	ConnectionTimeout   time.Duration

	BatchSize      int
	BufferPoolSize int
	BufferSize     int

	TLSEnabled  bool
	TLSCertPath string
	TLSKeyPath  string
	TLSLoader   TLSLoader // nil selects FileTLSLoader

	TCPNoDelay   bool
	TCPKeepAlive time.Duration
}

// Server owns the listener, the shared dispatcher, and the counters that
// back INFO and the health endpoint (§3's "Server state").
type Server struct {
	opt        Options
	store      *store.Store
	dispatcher *command.Dispatcher
	pool       *conn.BufferPool
	limiter    *tokenBucket
	tlsConfig  *tls.Config

	listener net.Listener
	startAt  time.Time

	cmdCounter *CommandCounter

	active   atomic.Int64
	total    atomic.Int64
	rejected atomic.Int64

	wg       sync.WaitGroup
	shutdown chan struct{}
	once     sync.Once
}

// New constructs a Server. The caller is responsible for wiring the
// returned *Server into the dispatcher's Options.Stats before commands are
// dispatched, since the dispatcher's INFO command reads it.
func New(s *store.Store, dispatcher *command.Dispatcher, opt Options) (*Server, error) {
	if opt.ConnectionTimeout <= 0 {
		opt.ConnectionTimeout = conn.DefaultIdleTimeout
	}

	srv := &Server{
		opt:        opt,
		store:      s,
		dispatcher: dispatcher,
		pool:       conn.NewBufferPool(opt.BufferPoolSize, opt.BufferSize),
		limiter:    newTokenBucket(opt.ConnectionRateLimit),
		cmdCounter: &CommandCounter{},
		shutdown:   make(chan struct{}),
	}

	if opt.TLSEnabled {
		loader := opt.TLSLoader
		if loader == nil {
			loader = FileTLSLoader{}
		}
		cfg, err := loader.Load(opt.TLSCertPath, opt.TLSKeyPath)
		if err != nil {
			return nil, err
		}
		srv.tlsConfig = cfg
	}

	return srv, nil
}

// Listen binds the configured address, wrapping it in TLS if enabled.
func (s *Server) Listen() error {
	ln, err := net.Listen("tcp", s.opt.Bind)
	if err != nil {
		return err
	}
	if s.tlsConfig != nil {
		ln = tls.NewListener(ln, s.tlsConfig)
	}
	s.listener = ln
	s.startAt = time.Now()
	return nil
}

// Serve runs the accept loop until Shutdown is called or the listener
// errors. Blocks the calling goroutine.
func (s *Server) Serve(eng *eviction.Engine) error {
	evictCtx, cancelEvict := context.WithCancel(context.Background())
	if eng != nil {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			eng.Run(evictCtx)
		}()
	}
	defer cancelEvict()

	for {
		c, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.shutdown:
				cancelEvict()
				s.wg.Wait()
				return nil
			default:
				return err
			}
		}
		s.handleAccept(c)
	}
}

func (s *Server) handleAccept(c net.Conn) {
	if s.opt.MaxConnections > 0 && s.active.Load() >= int64(s.opt.MaxConnections) {
		s.rejected.Add(1)
		c.Close()
		return
	}
	if !s.limiter.allow() {
		s.rejected.Add(1)
		c.Close()
		return
	}

	if tc, ok := c.(*net.TCPConn); ok {
		tc.SetNoDelay(s.opt.TCPNoDelay)
		if s.opt.TCPKeepAlive > 0 {
			tc.SetKeepAlive(true)
			tc.SetKeepAlivePeriod(s.opt.TCPKeepAlive)
		}
	}

	s.active.Add(1)
	s.total.Add(1)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.active.Add(-1)
		defer func() {
			if r := recover(); r != nil {
				log.Printf("redistill: connection %s panicked: %v", c.RemoteAddr(), r)
				c.Close()
			}
		}()

		served := make(chan struct{})
		defer close(served)
		go func() {
			select {
			case <-s.shutdown:
				c.Close()
			case <-served:
			}
		}()

		pipeline := conn.New(c, s.dispatcher, s.pool, conn.Options{
			BatchSize:   s.opt.BatchSize,
			IdleTimeout: s.opt.ConnectionTimeout,
		})
		if err := pipeline.Serve(); err != nil {
			log.Printf("redistill: connection %s closed: %v", c.RemoteAddr(), err)
		}
	}()
}

// Shutdown stops accepting new connections, closes every open connection's
// socket so its task exits once its current command has been dispatched, and
// waits (bounded by ctx) for those tasks to finish (§4.7).
func (s *Server) Shutdown(ctx context.Context) error {
	s.once.Do(func() { close(s.shutdown) })
	if s.listener != nil {
		s.listener.Close()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// AttachDispatcher wires dispatcher into srv after construction, for the
// common case where the dispatcher's own Options.Stats must be srv itself
// (a dependency cycle New can't resolve in one call). Must be called
// before Serve.
func AttachDispatcher(srv *Server, dispatcher *command.Dispatcher) {
	srv.dispatcher = dispatcher
}

// Store returns the store.Store backing this server, for callers (like
// the metrics reporter) that need a counter the Stats interface doesn't
// expose directly.
func (s *Server) Store() *store.Store { return s.store }

// Addr returns the listener's bound address. Only valid after Listen.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// The following methods implement command.Stats, read by the dispatcher's
// INFO command, and are also used directly by the health endpoint.

func (s *Server) Uptime() int64 {
	if s.startAt.IsZero() {
		return 0
	}
	return int64(time.Since(s.startAt).Seconds())
}

func (s *Server) Version() string            { return Version }
func (s *Server) ActiveConnections() int64   { return s.active.Load() }
func (s *Server) TotalConnections() int64    { return s.total.Load() }
func (s *Server) RejectedConnections() int64 { return s.rejected.Load() }
func (s *Server) TotalCommands() int64       { return s.cmdCounter.Total() }

func (s *Server) UsedMemory() int64   { return s.store.UsedMemory() }
func (s *Server) MaxMemory() int64    { return s.store.MaxMemory() }
func (s *Server) EvictedKeys() uint64 { return s.store.EvictedKeys() }

// CommandMetrics returns the Metrics implementation that must feed the
// dispatcher so TotalCommands() reflects real traffic; combine it with a
// richer Metrics (e.g. internal/metrics.Adapter) via NewFanoutMetrics
// before passing it to command.Options.Metrics.
func (s *Server) CommandMetrics() *CommandCounter { return s.cmdCounter }

var _ command.Stats = (*Server)(nil)
