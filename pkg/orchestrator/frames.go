package orchestrator

import (
	"encoding/json"
	"errors"

	"github.com/haivivi/voxcortex/pkg/encoding"
)

// InboundType enumerates the client→server frame types (spec.md §6.1).
type InboundType string

const (
	InboundSpeechStart      InboundType = "speech_start"
	InboundSpeechEnd        InboundType = "speech_end"
	InboundPlaybackStarted  InboundType = "client_playback_started"
	InboundPlaybackComplete InboundType = "client_playback_complete"
)

// InboundFrame is one client→server JSON frame. Unknown fields are ignored
// by json.Unmarshal's default behavior; unknown Type values are the
// caller's responsibility to log-and-drop (spec.md §4.11), since deciding
// that requires dispatch context this type doesn't have.
type InboundFrame struct {
	Type      InboundType            `json:"type"`
	Audio     encoding.StdBase64Data `json:"audio,omitempty"`
	Timestamp *int64                 `json:"timestamp,omitempty"`
}

// DecodeInbound parses one inbound frame. A frame with no type or malformed
// JSON is a ProtocolViolation.
func DecodeInbound(data []byte) (*InboundFrame, error) {
	var f InboundFrame
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, ProtocolViolationErr(err)
	}
	if f.Type == "" {
		return nil, ProtocolViolationErr(errors.New("frame missing \"type\""))
	}
	return &f, nil
}

// DecodedAudio returns the Audio field's raw bytes (already decoded by
// json.Unmarshal via encoding.StdBase64Data).
func (f *InboundFrame) DecodedAudio() ([]byte, error) {
	return []byte(f.Audio), nil
}

// OutboundEvent enumerates the server→client frame types (spec.md §6.1).
type OutboundEvent string

const (
	OutboundConnected      OutboundEvent = "connected"
	OutboundPlayAudio      OutboundEvent = "play_audio"
	OutboundStopPlayback   OutboundEvent = "stop_playback"
	OutboundPlaybackResume OutboundEvent = "playback_resume"
	OutboundPlaybackReset  OutboundEvent = "playback_reset"
	OutboundTranscript     OutboundEvent = "transcript"
	OutboundAgentResponse  OutboundEvent = "agent_response"
	OutboundError          OutboundEvent = "error"
)

// OutboundFrame is one server→client JSON frame.
type OutboundFrame struct {
	Event     OutboundEvent          `json:"event"`
	Message   string                 `json:"message,omitempty"`
	SessionID string                 `json:"session_id,omitempty"`
	Audio     encoding.StdBase64Data `json:"audio,omitempty"`
	Text      string                 `json:"text,omitempty"`
}

// Encode serializes the frame as one JSON object.
func (f *OutboundFrame) Encode() ([]byte, error) {
	return json.Marshal(f)
}

func connectedFrame(sessionID string) *OutboundFrame {
	return &OutboundFrame{Event: OutboundConnected, Message: "connected", SessionID: sessionID}
}

func playAudioFrame(audio []byte) *OutboundFrame {
	return &OutboundFrame{Event: OutboundPlayAudio, Audio: encoding.StdBase64Data(audio)}
}

func stopPlaybackFrame() *OutboundFrame {
	return &OutboundFrame{Event: OutboundStopPlayback}
}

func playbackResumeFrame() *OutboundFrame {
	return &OutboundFrame{Event: OutboundPlaybackResume}
}

func playbackResetFrame() *OutboundFrame {
	return &OutboundFrame{Event: OutboundPlaybackReset}
}

func transcriptFrame(text string) *OutboundFrame {
	return &OutboundFrame{Event: OutboundTranscript, Text: text}
}

func agentResponseFrame(text string) *OutboundFrame {
	return &OutboundFrame{Event: OutboundAgentResponse, Text: text}
}

func errorFrame(message string) *OutboundFrame {
	return &OutboundFrame{Event: OutboundError, Message: message}
}
