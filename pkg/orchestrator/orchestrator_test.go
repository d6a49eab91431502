package orchestrator

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/haivivi/voxcortex/pkg/encoding"
)

// --- fakes ---

type sttFunc func(ctx context.Context, blob []byte) (string, error)

func (f sttFunc) Transcribe(ctx context.Context, blob []byte) (string, error) { return f(ctx, blob) }

type ttsFunc func(ctx context.Context, sentence string) ([]byte, error)

func (f ttsFunc) Synthesize(ctx context.Context, sentence string) ([]byte, error) { return f(ctx, sentence) }

type llmFunc func(ctx context.Context, history []Turn) (TokenStream, error)

func (f llmFunc) Stream(ctx context.Context, history []Turn) (TokenStream, error) { return f(ctx, history) }

type tokenSliceStream struct {
	tokens []string
	i      int
}

func (s *tokenSliceStream) Next(ctx context.Context) (string, error) {
	if s.i >= len(s.tokens) {
		return "", ErrStreamDone
	}
	tok := s.tokens[s.i]
	s.i++
	return tok, nil
}

func (s *tokenSliceStream) Close() error { return nil }

type fakeSink struct {
	ch chan *OutboundFrame
}

func newFakeSink() *fakeSink { return &fakeSink{ch: make(chan *OutboundFrame, 256)} }

func (s *fakeSink) Send(f *OutboundFrame) error {
	s.ch <- f
	return nil
}

func (s *fakeSink) waitFor(t *testing.T, event OutboundEvent, timeout time.Duration) *OutboundFrame {
	t.Helper()
	deadline := time.After(timeout)
	for {
		select {
		case f := <-s.ch:
			if f.Event == event {
				return f
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %q frame", event)
			return nil
		}
	}
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.STTMinBlobBytes = 1
	cfg.DecisionDebounce = 5 * time.Millisecond
	return cfg
}

func waitUntil(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func speechStartFrame(t *testing.T) []byte {
	b, err := json.Marshal(InboundFrame{Type: InboundSpeechStart})
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func speechEndFrame(t *testing.T, audio []byte) []byte {
	b, err := json.Marshal(&InboundFrame{Type: InboundSpeechEnd, Audio: encoding.StdBase64Data(audio)})
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func playbackCompleteFrame(t *testing.T) []byte {
	b, err := json.Marshal(InboundFrame{Type: InboundPlaybackComplete})
	if err != nil {
		t.Fatal(err)
	}
	return b
}

// --- Scenario A: clean turn ---

func TestScenarioACleanTurn(t *testing.T) {
	stt := sttFunc(func(ctx context.Context, blob []byte) (string, error) {
		return "what is the weather", nil
	})
	llm := llmFunc(func(ctx context.Context, history []Turn) (TokenStream, error) {
		return &tokenSliceStream{tokens: []string{"It is sunny."}}, nil
	})
	tts := ttsFunc(func(ctx context.Context, sentence string) ([]byte, error) {
		return []byte("audio:" + sentence), nil
	})

	sink := newFakeSink()
	orch := New("sess-a", testConfig(), DefaultLogger("test: "), sink, stt, llm, tts)
	orch.Start(context.Background())
	defer orch.Close()

	sink.waitFor(t, OutboundConnected, time.Second)

	orch.HandleFrame(speechStartFrame(t))
	orch.HandleFrame(speechEndFrame(t, []byte("blob1")))

	sink.waitFor(t, OutboundPlayAudio, time.Second)

	// The client reports playback complete once the run has finished; only
	// that report returns playback_status and response_in_progress to idle.
	waitUntil(t, time.Second, func() bool { return orch.Snapshot().Agent == StatusIdle })
	orch.HandleFrame(playbackCompleteFrame(t))

	waitUntil(t, time.Second, func() bool { return orch.IsSystemIdle() })

	hist := orch.Snapshot()
	if hist.Agent != StatusIdle {
		t.Fatalf("agent status = %v, want idle", hist.Agent)
	}

	orch.mu.Lock()
	history := append([]Turn(nil), orch.chatHistory...)
	orch.mu.Unlock()

	if len(history) != 2 {
		t.Fatalf("history = %+v, want 2 turns", history)
	}
	if history[0].Role != RoleUser || history[0].Content != "what is the weather" {
		t.Fatalf("history[0] = %+v", history[0])
	}
	if history[1].Role != RoleAgent || history[1].Content != "It is sunny." {
		t.Fatalf("history[1] = %+v", history[1])
	}
}

// --- client_playback_complete returns playback_status to Idle ---

func TestClientPlaybackCompleteRestoresSystemIdle(t *testing.T) {
	orch, _ := newIdleOrchestrator(t, "sess-playback-complete")

	// Simulate the state left behind once the Egress Pump has drained the
	// audio-output queue: it stops touching playback_status at the
	// end-of-utterance sentinel (spec.md §4.7), so playback_status is still
	// Active and response_in_progress is still true until the client
	// reports completion.
	orch.mu.Lock()
	orch.setAgentStatus(StatusIdle)
	orch.setPlaybackStatus(StatusActive)
	orch.clientPlaybackActive = true
	orch.responseInProgress = true
	orch.mu.Unlock()

	if orch.IsSystemIdle() {
		t.Fatal("expected system not idle before client_playback_complete")
	}

	orch.HandleFrame(playbackCompleteFrame(t))

	waitUntil(t, time.Second, func() bool { return orch.IsSystemIdle() })

	orch.mu.Lock()
	playback := orch.playbackStatus
	clientActive := orch.clientPlaybackActive
	responseInProgress := orch.responseInProgress
	orch.mu.Unlock()

	if playback != StatusIdle {
		t.Fatalf("playback_status = %v, want Idle", playback)
	}
	if clientActive {
		t.Fatal("client_playback_active should be false after client_playback_complete")
	}
	if responseInProgress {
		t.Fatal("response_in_progress should be false after client_playback_complete with no new turn running")
	}
}

// --- Scenario F: backchannel while idle is a new turn ---

func TestScenarioFBackchannelWhileIdleIsNewTurn(t *testing.T) {
	stt := sttFunc(func(ctx context.Context, blob []byte) (string, error) {
		return "okay", nil
	})
	llm := llmFunc(func(ctx context.Context, history []Turn) (TokenStream, error) {
		return &tokenSliceStream{tokens: []string{"Sure thing."}}, nil
	})
	tts := ttsFunc(func(ctx context.Context, sentence string) ([]byte, error) {
		return []byte("audio:" + sentence), nil
	})

	sink := newFakeSink()
	orch := New("sess-f", testConfig(), DefaultLogger("test: "), sink, stt, llm, tts)
	orch.Start(context.Background())
	defer orch.Close()

	sink.waitFor(t, OutboundConnected, time.Second)

	if !orch.IsSystemIdle() {
		t.Fatal("expected system idle before any input")
	}

	orch.HandleFrame(speechEndFrame(t, []byte("blob1")))

	sink.waitFor(t, OutboundPlayAudio, time.Second)

	orch.mu.Lock()
	history := append([]Turn(nil), orch.chatHistory...)
	orch.mu.Unlock()

	if len(history) != 2 || history[0].Content != "okay" {
		t.Fatalf("expected backchannel-while-idle to be treated as a new turn, got %+v", history)
	}
}

// --- Scenario B: real barge-in mid-streaming ---

func TestScenarioBRealBargeInMidStreaming(t *testing.T) {
	var transcript atomic.Value
	transcript.Store("what is the weather")
	stt := sttFunc(func(ctx context.Context, blob []byte) (string, error) {
		return transcript.Load().(string), nil
	})
	llm := llmFunc(func(ctx context.Context, history []Turn) (TokenStream, error) {
		last := history[len(history)-1].Content
		if last == "actually tell me a joke" || strings.Contains(last, "actually tell me a joke") {
			return &tokenSliceStream{tokens: []string{"Why did the chicken cross the road?"}}, nil
		}
		// Multi-token first response; only the last token ends the sentence,
		// so its single play_audio arrives once the tokens are consumed.
		return &tokenSliceStream{tokens: []string{"It is ", "sunny ", "and warm today."}}, nil
	})
	tts := ttsFunc(func(ctx context.Context, sentence string) ([]byte, error) {
		return []byte("audio:" + sentence), nil
	})

	sink := newFakeSink()
	orch := New("sess-b", testConfig(), DefaultLogger("test: "), sink, stt, llm, tts)
	orch.Start(context.Background())
	defer orch.Close()

	sink.waitFor(t, OutboundConnected, time.Second)

	orch.HandleFrame(speechStartFrame(t))
	orch.HandleFrame(speechEndFrame(t, []byte("blob1")))

	sink.waitFor(t, OutboundPlayAudio, time.Second)

	// Interrupt while the first reply is still playing (playback Active,
	// response in progress).
	transcript.Store("actually tell me a joke")
	orch.HandleFrame(speechStartFrame(t))

	sink.waitFor(t, OutboundStopPlayback, time.Second)

	orch.HandleFrame(speechEndFrame(t, []byte("blob2")))

	sink.waitFor(t, OutboundPlayAudio, time.Second)
	waitUntil(t, time.Second, func() bool { return orch.Snapshot().Agent == StatusIdle })
	orch.HandleFrame(playbackCompleteFrame(t))
	waitUntil(t, time.Second, func() bool { return orch.IsSystemIdle() })

	orch.mu.Lock()
	history := append([]Turn(nil), orch.chatHistory...)
	orch.mu.Unlock()

	if len(history) < 2 {
		t.Fatalf("history = %+v, want at least a reconciled user turn and a joke reply", history)
	}
	if history[0].Role != RoleUser || !strings.Contains(history[0].Content, "actually tell me a joke") {
		t.Fatalf("history[0] = %+v, want reconciled user turn containing the interruption's utterance", history[0])
	}
	last := history[len(history)-1]
	if last.Role != RoleAgent || !strings.Contains(last.Content, "chicken") {
		t.Fatalf("history[last] = %+v, want the joke reply", last)
	}
}

// --- Scenario C / D: false-alarm resolution (Table 1), tested directly
// against resolveFalseAlarmLocked to avoid racing the live egress pump's
// drain rate against the test's queue-population timing. ---

func newIdleOrchestrator(t *testing.T, id string) (*Orchestrator, *fakeSink) {
	t.Helper()
	stt := sttFunc(func(ctx context.Context, blob []byte) (string, error) { return "", nil })
	llm := llmFunc(func(ctx context.Context, history []Turn) (TokenStream, error) {
		return &tokenSliceStream{}, nil
	})
	tts := ttsFunc(func(ctx context.Context, sentence string) ([]byte, error) { return nil, nil })

	sink := newFakeSink()
	orch := New(id, testConfig(), DefaultLogger("test: "), sink, stt, llm, tts)
	orch.Start(context.Background())
	t.Cleanup(orch.Close)
	sink.waitFor(t, OutboundConnected, time.Second)
	return orch, sink
}

func TestScenarioCBackchannelDuringPlayback(t *testing.T) {
	orch, sink := newIdleOrchestrator(t, "sess-c")

	// Stop the workers so the egress pump cannot drain the seeded audio item
	// before resolveFalseAlarmLocked inspects the queue.
	orch.cancel()
	orch.wg.Wait()

	orch.mu.Lock()
	orch.chatHistory = []Turn{{Role: RoleUser, Content: "what is the weather"}, {Role: RoleAgent, Content: "It is sunny."}}
	historyBefore := len(orch.chatHistory)
	orch.audioOutputQueue.Push(orch.ctx, Payload([]byte("remaining-sentence-audio")))
	orch.setPlaybackStatus(StatusPaused)
	orch.interruption = InterruptionActive
	orch.resolveFalseAlarmLocked()
	historyAfter := len(orch.chatHistory)
	playback := orch.playbackStatus
	interruption := orch.interruption
	orch.mu.Unlock()

	sink.waitFor(t, OutboundPlaybackResume, time.Second)

	if historyAfter != historyBefore {
		t.Fatalf("backchannel during playback must not change history: before=%d after=%d", historyBefore, historyAfter)
	}
	if playback != StatusActive {
		t.Fatalf("playback_status = %v, want Active (queue still had items)", playback)
	}
	if interruption != InterruptionIdle {
		t.Fatalf("interruption = %v, want Idle after resolution", interruption)
	}
}

func TestScenarioDBackchannelAfterAudioFinished(t *testing.T) {
	orch, sink := newIdleOrchestrator(t, "sess-d")

	orch.mu.Lock()
	orch.chatHistory = []Turn{{Role: RoleUser, Content: "what is the weather"}, {Role: RoleAgent, Content: "It is sunny."}}
	historyBefore := len(orch.chatHistory)
	// Audio-output queue is empty: the client already finished playing.
	orch.setPlaybackStatus(StatusPaused)
	orch.interruption = InterruptionActive
	orch.resolveFalseAlarmLocked()
	historyAfter := len(orch.chatHistory)
	playback := orch.playbackStatus
	orch.mu.Unlock()

	sink.waitFor(t, OutboundPlaybackResume, time.Second)

	if historyAfter != historyBefore {
		t.Fatalf("backchannel after audio finished must not change history: before=%d after=%d", historyBefore, historyAfter)
	}
	if playback != StatusIdle {
		t.Fatalf("playback_status = %v, want Idle (queue was already empty)", playback)
	}
}

// --- MaxHistoryTurns eviction ---

func TestAppendHistoryLockedEvictsOldestFirst(t *testing.T) {
	stt := sttFunc(func(ctx context.Context, blob []byte) (string, error) { return "", nil })
	llm := llmFunc(func(ctx context.Context, history []Turn) (TokenStream, error) {
		return &tokenSliceStream{}, nil
	})
	tts := ttsFunc(func(ctx context.Context, sentence string) ([]byte, error) { return nil, nil })

	cfg := testConfig()
	cfg.MaxHistoryTurns = 3

	sink := newFakeSink()
	orch := New("sess-history-cap", cfg, DefaultLogger("test: "), sink, stt, llm, tts)
	orch.Start(context.Background())
	defer orch.Close()
	sink.waitFor(t, OutboundConnected, time.Second)

	orch.mu.Lock()
	for i := 0; i < 5; i++ {
		orch.appendHistoryLocked(Turn{Role: RoleUser, Content: strconv.Itoa(i)})
	}
	history := append([]Turn(nil), orch.chatHistory...)
	orch.mu.Unlock()

	if len(history) != 3 {
		t.Fatalf("history len = %d, want 3 (capped)", len(history))
	}
	if history[0].Content != "2" || history[1].Content != "3" || history[2].Content != "4" {
		t.Fatalf("history = %+v, want oldest-first eviction leaving [2 3 4]", history)
	}
}

func TestDecisionTaskReconciliationRespectsMaxHistoryTurns(t *testing.T) {
	stt := sttFunc(func(ctx context.Context, blob []byte) (string, error) { return "five", nil })
	llm := llmFunc(func(ctx context.Context, history []Turn) (TokenStream, error) {
		return &tokenSliceStream{}, nil
	})
	tts := ttsFunc(func(ctx context.Context, sentence string) ([]byte, error) { return nil, nil })

	cfg := testConfig()
	cfg.MaxHistoryTurns = 2

	sink := newFakeSink()
	orch := New("sess-decision-history-cap", cfg, DefaultLogger("test: "), sink, stt, llm, tts)
	orch.Start(context.Background())
	defer orch.Close()
	sink.waitFor(t, OutboundConnected, time.Second)

	orch.mu.Lock()
	orch.chatHistory = []Turn{
		{Role: RoleUser, Content: "one"},
		{Role: RoleAgent, Content: "two"},
		{Role: RoleUser, Content: "three"},
		{Role: RoleAgent, Content: "four"},
	}
	orch.mu.Unlock()

	orch.HandleFrame(speechEndFrame(t, []byte("blob1")))

	waitUntil(t, time.Second, func() bool {
		orch.mu.Lock()
		defer orch.mu.Unlock()
		return len(orch.chatHistory) <= 2
	})

	orch.mu.Lock()
	n := len(orch.chatHistory)
	orch.mu.Unlock()
	if n > 2 {
		t.Fatalf("chat history = %d entries after reconciliation, want <= 2 (MaxHistoryTurns)", n)
	}
}

// --- Scenario E: tool cancellation on interruption ---

func TestScenarioEToolCancellationOnInterruption(t *testing.T) {
	stt := sttFunc(func(ctx context.Context, blob []byte) (string, error) { return "ignored", nil })
	tts := ttsFunc(func(ctx context.Context, sentence string) ([]byte, error) { return []byte(sentence), nil })
	llm := llmFunc(func(ctx context.Context, history []Turn) (TokenStream, error) {
		return &tokenSliceStream{tokens: []string{"working on it."}}, nil
	})

	sink := newFakeSink()
	orch := New("sess-e", testConfig(), DefaultLogger("test: "), sink, stt, llm, tts)
	orch.Start(context.Background())
	defer orch.Close()

	sink.waitFor(t, OutboundConnected, time.Second)

	var cancelled bool
	id := orch.registry.Register("slow_tool", func() { cancelled = true }, nil)
	if orch.registry.Len() != 1 {
		t.Fatal("expected tool registered")
	}

	// Force a non-idle state so speech_start is treated as an interruption,
	// not a new turn.
	orch.mu.Lock()
	orch.setAgentStatus(StatusProcessing)
	orch.responseInProgress = true
	orch.mu.Unlock()

	orch.HandleFrame(speechStartFrame(t))

	waitUntil(t, time.Second, func() bool { return orch.registry.Len() == 1 && cancelled })

	if !cancelled {
		t.Fatal("expected tool cancel hook to be invoked on interruption")
	}

	orch.registry.Unregister(id)
	if orch.registry.Len() != 0 {
		t.Fatal("expected tool registry empty after unregister")
	}
}
