package wsconn

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
)

// ErrListenerClosed is returned by Accept once the Listener has been closed.
var ErrListenerClosed = errors.New("wsconn: listener closed")

// Accepted is one admitted connection, handed out by Accept.
type Accepted struct {
	Conn       *Conn
	RemoteAddr string
}

// Listener serves a single HTTP path, upgrades every request to a
// WebSocket, rate-limits by remote address, and hands accepted connections
// out through Accept — mirroring chatgear.Listener's blocking-Accept shape
// over a real net.Listener instead of an MQTT broker.
type Listener struct {
	httpLn   net.Listener
	server   *http.Server
	limiter  *ConnRateLimiter
	acceptCh chan *Accepted

	mu     sync.Mutex
	closed bool
}

// ListenConfig configures a Listener.
type ListenConfig struct {
	Addr      string
	Path      string
	RateLimit ConnRateLimitConfig

	// DebugPath, if set, is registered on the same HTTP server and routed to
	// DebugHandler instead of the WebSocket upgrade. Leave both empty to skip
	// registering a debug route.
	DebugPath    string
	DebugHandler http.Handler
}

// Listen starts an HTTP server on cfg.Addr and begins accepting WebSocket
// upgrades on cfg.Path. It returns immediately; call Accept in a loop to
// drain connections.
func Listen(cfg ListenConfig) (*Listener, error) {
	if cfg.Path == "" {
		cfg.Path = "/"
	}

	httpLn, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return nil, fmt.Errorf("wsconn: listen %s: %w", cfg.Addr, err)
	}

	l := &Listener{
		httpLn:   httpLn,
		limiter:  NewConnRateLimiter(cfg.RateLimit),
		acceptCh: make(chan *Accepted, 32),
	}

	mux := http.NewServeMux()
	mux.HandleFunc(cfg.Path, l.handleUpgrade)
	if cfg.DebugPath != "" && cfg.DebugHandler != nil {
		mux.Handle(cfg.DebugPath, cfg.DebugHandler)
	}
	l.server = &http.Server{Handler: mux}

	go func() {
		_ = l.server.Serve(httpLn)
	}()

	return l, nil
}

func (l *Listener) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	addr := r.RemoteAddr
	if !l.limiter.Allow(addr) {
		http.Error(w, "too many connection attempts", http.StatusTooManyRequests)
		return
	}

	c, err := Upgrade(w, r)
	if err != nil {
		return
	}

	l.mu.Lock()
	closed := l.closed
	l.mu.Unlock()
	if closed {
		c.Close()
		return
	}

	select {
	case l.acceptCh <- &Accepted{Conn: c, RemoteAddr: addr}:
	default:
		c.Close()
	}
}

// Accept blocks until a new connection is admitted or the Listener closes.
func (l *Listener) Accept() (*Accepted, error) {
	accepted, ok := <-l.acceptCh
	if !ok {
		return nil, ErrListenerClosed
	}
	return accepted, nil
}

// Close stops accepting new connections and shuts down the HTTP server.
func (l *Listener) Close() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	l.mu.Unlock()

	close(l.acceptCh)
	l.limiter.Close()
	return l.server.Shutdown(context.Background())
}

// Addr returns the listener's bound address.
func (l *Listener) Addr() string {
	return l.httpLn.Addr().String()
}
