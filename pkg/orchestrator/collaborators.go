package orchestrator

import (
	"context"
	"errors"
)

// ErrStreamDone is returned by TokenStream.Next once the stream has no more
// tokens. Grounded on genx.ErrDone's sentinel-via-errors.Is idiom.
var ErrStreamDone = errors.New("orchestrator: token stream done")

// STT is the speech-to-text collaborator contract (spec.md §6.2): one call
// per audio blob, no streaming. An empty string (with nil error) means the
// blob transcribed to silence.
type STT interface {
	Transcribe(ctx context.Context, blob []byte) (string, error)
}

// TTS is the text-to-speech collaborator contract (spec.md §6.2): one call
// per sentence, no streaming within a sentence. The returned bytes are
// opaque encoded audio, passed through to the client untouched.
type TTS interface {
	Synthesize(ctx context.Context, sentence string) ([]byte, error)
}

// TokenStream is a single LLM run's token feed. Next returns ErrStreamDone
// (via errors.Is) once exhausted. The Agent Runner polls Next in a loop and
// checks the cancel signal between calls (spec.md §4.5); Close releases any
// underlying resources and is always called exactly once by the runner.
type TokenStream interface {
	Next(ctx context.Context) (token string, err error)
	Close() error
}

// LLM is the streaming language-model collaborator contract (spec.md §6.2).
// Tool calls the model makes are expected to be resolved by the
// implementation before tokens reach the runner — from the Agent Runner's
// point of view the stream is pure text, per spec.md §4.5.
type LLM interface {
	Stream(ctx context.Context, history []Turn) (TokenStream, error)
}
