// Package wsconn carries orchestrator sessions over WebSocket connections:
// a Sink that writes outbound frames to the socket, a read loop that feeds
// inbound frames to an orchestrator.Orchestrator, and an Accept-style
// listener that hands each new connection to the caller. The read/write
// split and close-once teardown follow openai-realtime's WebSocketSession;
// Accept() blocking until a connection arrives follows chatgear's Listener.
package wsconn

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/haivivi/voxcortex/pkg/orchestrator"
)

// Conn wraps one upgraded WebSocket connection. It implements
// orchestrator.Sink and drives a readLoop that calls onFrame for every
// inbound message.
type Conn struct {
	ws        *websocket.Conn
	writeMu   sync.Mutex
	closeOnce sync.Once
	closeCh   chan struct{}
}

func newConn(ws *websocket.Conn) *Conn {
	return &Conn{ws: ws, closeCh: make(chan struct{})}
}

// Send implements orchestrator.Sink by writing one JSON text frame.
func (c *Conn) Send(f *orchestrator.OutboundFrame) error {
	data, err := f.Encode()
	if err != nil {
		return fmt.Errorf("wsconn: encode frame: %w", err)
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.ws.WriteMessage(websocket.TextMessage, data)
}

// Close closes the underlying connection exactly once.
func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closeCh)
		err = c.ws.Close()
	})
	return err
}

// readLoop reads frames off the socket and hands each to onFrame until the
// connection errors or closes. It returns once the socket is done.
func (c *Conn) readLoop(onFrame func([]byte)) {
	for {
		select {
		case <-c.closeCh:
			return
		default:
		}

		_, data, err := c.ws.ReadMessage()
		if err != nil {
			return
		}
		onFrame(data)
	}
}

// Serve runs a Conn's read loop against orch until the socket closes or ctx
// is cancelled, then tears both down. It blocks until the session ends.
func Serve(ctx context.Context, orch *orchestrator.Orchestrator, c *Conn) {
	orch.Start(ctx)

	done := make(chan struct{})
	go func() {
		defer close(done)
		c.readLoop(orch.HandleFrame)
	}()

	select {
	case <-done:
	case <-ctx.Done():
	}

	orch.Close()
	c.Close()
	<-done
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Upgrade promotes an HTTP request to a WebSocket connection and wraps it
// in a Conn. Callers typically pass the result straight to Serve.
func Upgrade(w http.ResponseWriter, r *http.Request) (*Conn, error) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, fmt.Errorf("wsconn: upgrade: %w", err)
	}
	ws.SetReadDeadline(time.Time{})
	return newConn(ws), nil
}
