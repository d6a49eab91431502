// Package echo provides trivial STT, LLM, and TTS collaborators that
// satisfy the orchestrator's collaborator contracts without calling any
// external provider. They exist for local demos and tests: STT returns a
// canned or blob-derived transcript, LLM echoes the latest user turn back
// token-by-token, and TTS returns the sentence's bytes as "audio".
package echo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/haivivi/voxcortex/pkg/orchestrator"
)

// STT transcribes every blob to a fixed string, or derives one from the
// blob's length when Transcript is empty. Useful for driving the
// orchestrator's pipeline in tests without a real speech recognizer.
type STT struct {
	Transcript string
}

func (s *STT) Transcribe(ctx context.Context, blob []byte) (string, error) {
	if s.Transcript != "" {
		return s.Transcript, nil
	}
	return fmt.Sprintf("heard %d bytes of audio", len(blob)), nil
}

// TTS returns the sentence's own bytes as a stand-in for synthesized audio.
type TTS struct{}

func (TTS) Synthesize(ctx context.Context, sentence string) ([]byte, error) {
	return []byte(sentence), nil
}

// LLM replies by echoing the last user turn, split into words and fed one
// token per word. A positive WordDelay waits that long before each word so
// callers can observe streaming and mid-stream cancellation without a real
// model in the loop; the zero value streams without delay.
type LLM struct {
	WordDelay time.Duration
}

func (l *LLM) Stream(ctx context.Context, history []orchestrator.Turn) (orchestrator.TokenStream, error) {
	var last string
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == orchestrator.RoleUser {
			last = history[i].Content
			break
		}
	}
	if last == "" {
		return &wordStream{}, nil
	}
	words := strings.Fields("you said: " + last)
	for i := range words {
		if i > 0 {
			words[i] = " " + words[i]
		}
	}
	if n := len(words); n > 0 {
		words[n-1] += "."
	}
	return &wordStream{words: words, delay: l.WordDelay}, nil
}

type wordStream struct {
	words []string
	delay time.Duration
	i     int
}

func (w *wordStream) Next(ctx context.Context) (string, error) {
	if w.i >= len(w.words) {
		return "", orchestrator.ErrStreamDone
	}
	if w.delay > 0 {
		select {
		case <-time.After(w.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	tok := w.words[w.i]
	w.i++
	return tok, nil
}

func (w *wordStream) Close() error { return nil }
