package wsconn

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/haivivi/voxcortex/pkg/orchestrator"
)

func TestListenerAcceptAndServeRoundTrip(t *testing.T) {
	ln, err := Listen(ListenConfig{Addr: "127.0.0.1:0", Path: "/ws", RateLimit: DefaultConnRateLimitConfig()})
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()

	url := fmt.Sprintf("ws://%s/ws", ln.Addr())
	client, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("client dial: %v", err)
	}
	defer client.Close()

	accepted, err := ln.Accept()
	if err != nil {
		t.Fatalf("Accept: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	orch := orchestrator.New("sess-ws", orchestrator.DefaultConfig(), orchestrator.DefaultLogger("test: "),
		accepted.Conn, nopSTT{}, nopLLM{}, nopTTS{})

	done := make(chan struct{})
	go func() { defer close(done); Serve(ctx, orch, accepted.Conn) }()

	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := client.ReadMessage()
	if err != nil {
		t.Fatalf("client read: %v", err)
	}

	var frame orchestrator.OutboundFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		t.Fatalf("unmarshal frame: %v", err)
	}
	if frame.Event != orchestrator.OutboundConnected {
		t.Fatalf("first frame event = %q, want %q", frame.Event, orchestrator.OutboundConnected)
	}

	cancel()
	<-done
}

type nopSTT struct{}

func (nopSTT) Transcribe(ctx context.Context, blob []byte) (string, error) { return "", nil }

type nopTTS struct{}

func (nopTTS) Synthesize(ctx context.Context, sentence string) ([]byte, error) { return nil, nil }

type nopLLM struct{}

func (nopLLM) Stream(ctx context.Context, history []orchestrator.Turn) (orchestrator.TokenStream, error) {
	return nopStream{}, nil
}

type nopStream struct{}

func (nopStream) Next(ctx context.Context) (string, error) { return "", orchestrator.ErrStreamDone }
func (nopStream) Close() error                             { return nil }
