package orchestrator

import (
	"time"

	"github.com/haivivi/voxcortex/pkg/jsontime"
)

// ToolStatusView is the JSON-facing view of one active tool execution
// (spec.md §4.9 debug introspection, SPEC_FULL.md's supplemented
// "tool registry debug introspection" feature). Elapsed uses
// jsontime.Duration so it renders as a human string ("1.2s") rather than a
// raw nanosecond count.
type ToolStatusView struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	StartedAt time.Time         `json:"started_at"`
	Elapsed   jsontime.Duration `json:"elapsed"`
	Cancelled bool              `json:"cancelled"`
}

// DebugStatus is a point-in-time snapshot of one session, suitable for a
// JSON debug/introspection endpoint.
type DebugStatus struct {
	SessionID            string             `json:"session_id"`
	STT                  Status             `json:"stt"`
	Agent                Status             `json:"agent"`
	TTS                  Status             `json:"tts"`
	Playback             Status             `json:"playback"`
	Interruption         InterruptionStatus `json:"interruption"`
	ClientPlaybackActive bool               `json:"client_playback_active"`
	ResponseInProgress   bool               `json:"response_in_progress"`
	GenerationID         uint64             `json:"generation_id"`
	AudioGenerationTag   uint64             `json:"audio_generation_tag"`
	ChatHistoryLen       int                `json:"chat_history_len"`
	ActiveTools          []ToolStatusView   `json:"active_tools"`
}

// DebugStatus returns a snapshot of this session for introspection. It
// never blocks on external calls.
func (o *Orchestrator) DebugStatus() DebugStatus {
	snap := o.Snapshot()

	o.mu.Lock()
	historyLen := len(o.chatHistory)
	audioGenerationTag := o.currentAudioGenerationTag
	o.mu.Unlock()

	active := o.registry.Active()
	tools := make([]ToolStatusView, len(active))
	for i, t := range active {
		tools[i] = ToolStatusView{
			ID:        t.ID,
			Name:      t.Name,
			StartedAt: t.StartedAt,
			Elapsed:   jsontime.Duration(t.Elapsed()),
			Cancelled: t.Cancelled,
		}
	}

	return DebugStatus{
		SessionID:            o.id,
		STT:                  snap.STT,
		Agent:                snap.Agent,
		TTS:                  snap.TTS,
		Playback:             snap.Playback,
		Interruption:         snap.Interruption,
		ClientPlaybackActive: snap.ClientPlaybackActive,
		ResponseInProgress:   snap.ResponseInProgress,
		GenerationID:         snap.GenerationID,
		AudioGenerationTag:   audioGenerationTag,
		ChatHistoryLen:       historyLen,
		ActiveTools:          tools,
	}
}
