package orchestrator

import "context"

// Start brings up the session's workers (spec.md §4.11 Session Lifecycle)
// and sends the "connected" frame. parent's cancellation tears the session
// down the same as an explicit Close.
func (o *Orchestrator) Start(parent context.Context) {
	o.ctx, o.cancel = context.WithCancel(parent)

	o.send(connectedFrame(o.id))

	o.wg.Add(3)
	go func() { defer o.wg.Done(); o.sttWorker(o.ctx) }()
	go func() { defer o.wg.Done(); o.ttsWorker(o.ctx) }()
	go func() { defer o.wg.Done(); o.egressPump(o.ctx) }()
}

// HandleFrame maps one inbound frame to the corresponding orchestrator
// method (spec.md §4.11 Event Router). Malformed frames and unknown types
// are logged and ignored — never fatal.
func (o *Orchestrator) HandleFrame(data []byte) {
	frame, err := DecodeInbound(data)
	if err != nil {
		o.log.WarnPrintf("dropping malformed frame: %v", err)
		return
	}

	switch frame.Type {
	case InboundSpeechStart:
		o.OnUserStartsSpeaking()

	case InboundSpeechEnd:
		audio, err := frame.DecodedAudio()
		if err != nil {
			o.log.WarnPrintf("dropping speech_end with bad audio: %v", err)
			return
		}
		o.OnUserEndsSpeaking(audio)

	case InboundPlaybackStarted:
		o.mu.Lock()
		o.clientPlaybackActive = true
		o.mu.Unlock()

	case InboundPlaybackComplete:
		o.mu.Lock()
		o.clientPlaybackActive = false
		// The Egress Pump deliberately stops touching playback_status once it
		// sees the end-of-utterance sentinel (spec.md §4.7); this handler is
		// where it returns to Idle, mirroring
		// original_source/src/server/audio_playback.py's
		// AudioPlaybackWorker._run() auto-reset on queue drain.
		o.setPlaybackStatus(StatusIdle)
		// response_in_progress is cleared only if a new response cycle
		// hasn't already started underneath this playback report (spec.md
		// §3's "response_in_progress" note; original_source's
		// on_client_playback_complete keeps it true in that race rather
		// than clobbering the newer run's state).
		if o.agentStatus == StatusIdle {
			o.responseInProgress = false
		} else {
			o.log.DebugPrintf("keeping response_in_progress=true: agent already running a new turn")
		}
		o.mu.Unlock()

	default:
		o.log.WarnPrintf("dropping unknown frame type %q", frame.Type)
	}
}

// Close implements spec.md §4.11's disconnect teardown: stop workers,
// cancel any live Agent Runner/Decision Task, cancel all tools, drain
// queues. It is idempotent-safe to call once; a second call is a no-op
// beyond re-cancelling an already-cancelled context.
func (o *Orchestrator) Close() {
	if o.cancel != nil {
		o.cancel()
	}
	o.wg.Wait()

	o.registry.CancelAll()

	o.sttJobQueue.Clear()
	o.textStreamQueue.Clear()
	o.audioOutputQueue.Clear()

	o.mu.Lock()
	o.sttOutputList = nil
	o.mu.Unlock()
}
