package orchestrator

import (
	"context"
	"sync"
)

// Sink is the outbound half of the carrier contract (spec.md §6.1): encode
// and deliver one frame. The orchestrator core never imports a transport
// package directly — pkg/wsconn implements Sink over gorilla/websocket, the
// way spec.md §1 treats the carrier as an external collaborator.
type Sink interface {
	Send(frame *OutboundFrame) error
}

// Orchestrator is one session's state machine (spec.md §2, §3). Every field
// below is private and touched only through the session lock (mu) or
// through the internally-synchronized Queue/ToolRegistry types, per the
// shared-resource policy in spec.md §5.
type Orchestrator struct {
	id  string
	cfg Config
	log Logger

	sink Sink
	stt  STT
	llm  LLM
	tts  TTS

	prompt   *PromptGenerator
	registry *ToolRegistry

	sttJobQueue      *Queue[[]byte]
	textStreamQueue  *Queue[StreamItem[string]]
	audioOutputQueue *Queue[StreamItem[[]byte]]

	mu sync.Mutex

	sttStatus      Status
	agentStatus    Status
	ttsStatus      Status
	playbackStatus Status
	interruption   InterruptionStatus

	clientPlaybackActive                  bool
	clientPlaybackWasActiveBeforeInterrupt bool
	responseInProgress                    bool

	generationID              uint64
	currentAudioGenerationTag uint64

	chatHistory   []Turn
	sttOutputList []string

	agentCancelSignal bool

	decisionLive bool
	agentLive    bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New constructs a session Orchestrator. Start must be called once before
// any inbound frame is handled.
func New(id string, cfg Config, log Logger, sink Sink, stt STT, llm LLM, tts TTS) *Orchestrator {
	return &Orchestrator{
		id:  id,
		cfg: cfg,
		log: log,

		sink: sink,
		stt:  stt,
		llm:  llm,
		tts:  tts,

		prompt:   NewPromptGenerator(cfg.Backchannel),
		registry: NewToolRegistry(),

		sttJobQueue:      NewQueue[[]byte](cfg.STTJobQueueCap),
		textStreamQueue:  NewQueue[StreamItem[string]](cfg.TextStreamQueueCap),
		audioOutputQueue: NewQueue[StreamItem[[]byte]](cfg.AudioOutputQueueCap),
	}
}

// ID returns the session id used in logs and the "connected" frame.
func (o *Orchestrator) ID() string { return o.id }

// snapshotLocked must be called with mu held.
func (o *Orchestrator) snapshotLocked() snapshot {
	return snapshot{
		STT:                                    o.sttStatus,
		Agent:                                  o.agentStatus,
		TTS:                                    o.ttsStatus,
		Playback:                               o.playbackStatus,
		Interruption:                           o.interruption,
		ClientPlaybackActive:                   o.clientPlaybackActive,
		ClientPlaybackWasActiveBeforeInterrupt: o.clientPlaybackWasActiveBeforeInterrupt,
		ResponseInProgress:                     o.responseInProgress,
		GenerationID:                           o.generationID,
	}
}

// Snapshot returns a consistent copy of the statuses and booleans.
func (o *Orchestrator) Snapshot() snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.snapshotLocked()
}

// IsSystemIdle implements spec.md §4.1's pure predicate.
func (o *Orchestrator) IsSystemIdle() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.snapshotLocked().isSystemIdle()
}

func (o *Orchestrator) setSTTStatus(s Status) {
	if !sttAllowed[s] {
		o.log.ErrorPrintf("illegal stt status %s", s)
		return
	}
	o.sttStatus = s
}

func (o *Orchestrator) setAgentStatus(s Status) {
	if !agentAllowed[s] {
		o.log.ErrorPrintf("illegal agent status %s", s)
		return
	}
	o.agentStatus = s
}

func (o *Orchestrator) setTTSStatus(s Status) {
	if !ttsAllowed[s] {
		o.log.ErrorPrintf("illegal tts status %s", s)
		return
	}
	o.ttsStatus = s
}

func (o *Orchestrator) setPlaybackStatus(s Status) {
	if !playbackAllowed[s] {
		o.log.ErrorPrintf("illegal playback status %s", s)
		return
	}
	o.playbackStatus = s
}

func (o *Orchestrator) appendHistoryLocked(t Turn) {
	o.chatHistory = append(o.chatHistory, t)
	if o.cfg.MaxHistoryTurns > 0 {
		for len(o.chatHistory) > o.cfg.MaxHistoryTurns {
			o.chatHistory = o.chatHistory[1:]
		}
	}
}

// send best-effort delivers a frame and logs (never panics) on failure —
// a dead sink is a Fatal condition handled at the session-lifecycle level,
// not at each call site.
func (o *Orchestrator) send(f *OutboundFrame) {
	if err := o.sink.Send(f); err != nil {
		o.log.WarnPrintf("send %s failed: %v", f.Event, err)
	}
}
