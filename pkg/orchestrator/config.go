package orchestrator

import "time"

// Config is the full set of knobs from spec.md §6.4, plus the supplemented
// MaxHistoryTurns cap (SPEC_FULL.md "Supplemented Features", grounded on
// spec.md §9's note that unbounded chat_history growth is a known defect
// implementers should expose a cap for).
type Config struct {
	// STTMinBlobBytes is the minimum audio blob size treated as non-silence
	// (spec.md §4.3, §9 — left as a config knob rather than a constant
	// since the right threshold is codec-dependent).
	STTMinBlobBytes int

	// DecisionDebounce is the Decision Task's coalescing wait (spec.md §4.4).
	DecisionDebounce time.Duration

	// Queue capacities (spec.md §4.2).
	STTJobQueueCap     int
	TextStreamQueueCap int
	AudioOutputQueueCap int

	// Backchannel is the closed set used by the Prompt Generator's
	// is_backchannel rule (spec.md §4.10).
	Backchannel map[string]struct{}

	// LLMRequestTimeout bounds a single Agent Runner's external LLM call.
	LLMRequestTimeout time.Duration

	// ToolCancelGrace is the tool cancellation grace period. It is loaded
	// from the config file but not read by the orchestrator: Close and
	// OnUserStartsSpeaking call ToolRegistry.CancelAll and return without
	// waiting for cancelled tools to unregister.
	ToolCancelGrace time.Duration

	// MaxHistoryTurns caps chat_history length with oldest-first eviction.
	// Zero means unbounded.
	MaxHistoryTurns int
}

// defaultBackchannelSet is the literal set from spec.md §4.10 — authoritative
// over original_source's looser/differently-worded phrase list.
func defaultBackchannelSet() map[string]struct{} {
	words := []string{
		"uh-huh", "uhuh", "uh huh", "mm-hmm", "mmhmm", "mm hmm",
		"yeah", "yep", "yup", "okay", "ok", "k", "right", "sure",
		"got it", "i see", "go ahead",
	}
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// DefaultConfig returns a Config with every field populated so a zero-value
// FileConfig (see pkg/config) can overlay cleanly onto it.
func DefaultConfig() Config {
	return Config{
		STTMinBlobBytes:     5000,
		DecisionDebounce:    50 * time.Millisecond,
		STTJobQueueCap:      8,
		TextStreamQueueCap:  50,
		AudioOutputQueueCap: 20,
		Backchannel:         defaultBackchannelSet(),
		LLMRequestTimeout:   30 * time.Second,
		ToolCancelGrace:     2 * time.Second,
		MaxHistoryTurns:     0,
	}
}
