package orchestrator

import "fmt"

// Status is the common value space shared by the stage statuses. Each stage
// only ever holds a subset of these values; see the *Allowed sets below.
type Status int

const (
	StatusIdle Status = iota
	StatusProcessing
	StatusStreaming
	StatusActive
	StatusPaused
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusProcessing:
		return "processing"
	case StatusStreaming:
		return "streaming"
	case StatusActive:
		return "active"
	case StatusPaused:
		return "paused"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

func (s Status) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// sttAllowed, agentAllowed, ttsAllowed, playbackAllowed document the legal
// value subset per stage (spec.md §3). Enforced by the setters on
// Orchestrator rather than by distinct Go types, to keep the status model's
// single Status enum shared across all stages the way spec.md describes it.
var (
	sttAllowed      = map[Status]bool{StatusIdle: true, StatusProcessing: true}
	agentAllowed    = map[Status]bool{StatusIdle: true, StatusProcessing: true, StatusStreaming: true}
	ttsAllowed      = map[Status]bool{StatusIdle: true, StatusProcessing: true, StatusStreaming: true}
	playbackAllowed = map[Status]bool{StatusIdle: true, StatusActive: true, StatusPaused: true}
)

// InterruptionStatus is the soft lock coordinating the Decision Task.
type InterruptionStatus int

const (
	InterruptionIdle InterruptionStatus = iota
	InterruptionProcessing
	InterruptionActive
)

func (s InterruptionStatus) String() string {
	switch s {
	case InterruptionIdle:
		return "idle"
	case InterruptionProcessing:
		return "processing"
	case InterruptionActive:
		return "active"
	default:
		return fmt.Sprintf("interruption(%d)", int(s))
	}
}

func (s InterruptionStatus) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// snapshot is a consistent, lock-free-to-read copy of the statuses and
// booleans relevant to is_system_idle and to interruption-handling
// decisions. Always produced under the session lock (see session.go).
type snapshot struct {
	STT                                  Status
	Agent                                Status
	TTS                                  Status
	Playback                             Status
	Interruption                         InterruptionStatus
	ClientPlaybackActive                 bool
	ClientPlaybackWasActiveBeforeInterrupt bool
	ResponseInProgress                   bool
	GenerationID                         uint64
}

// isSystemIdle implements spec.md §3 invariant 1.
func (s snapshot) isSystemIdle() bool {
	return s.STT == StatusIdle &&
		s.Agent == StatusIdle &&
		s.TTS == StatusIdle &&
		s.Playback == StatusIdle &&
		!s.ClientPlaybackActive &&
		!s.ResponseInProgress
}
