package orchestrator

// OnUserStartsSpeaking implements spec.md §4.8.
func (o *Orchestrator) OnUserStartsSpeaking() {
	o.mu.Lock()
	snap := o.snapshotLocked()
	if snap.isSystemIdle() {
		o.mu.Unlock()
		o.log.DebugPrintf("speech_start while idle: treated as a new turn")
		return
	}
	o.log.DebugPrintf("speech_start during activity: stt=%s agent=%s tts=%s playback=%s interruption=%s",
		snap.STT, snap.Agent, snap.TTS, snap.Playback, snap.Interruption)

	o.clientPlaybackWasActiveBeforeInterrupt = o.clientPlaybackActive
	if o.agentStatus == StatusProcessing || o.agentStatus == StatusStreaming {
		// Pre-streaming (Processing): the runner will notice the signal at
		// its next checkpoint, restore agent_status itself, and return.
		// Streaming: allowed to drain into the now-cleared queues until its
		// sentinel, but still signalled so it can exit early.
		o.agentCancelSignal = true
	}
	o.mu.Unlock()

	o.send(stopPlaybackFrame())

	o.audioOutputQueue.Clear()
	o.textStreamQueue.Clear()
	o.registry.CancelAll()
	o.sttJobQueue.Clear()

	o.mu.Lock()
	o.sttOutputList = nil
	o.setPlaybackStatus(StatusPaused)
	o.clientPlaybackActive = false
	o.interruption = InterruptionActive
	o.mu.Unlock()
}

// OnUserEndsSpeaking implements spec.md §4.8. The STT worker → Decision Task
// path takes over from here.
func (o *Orchestrator) OnUserEndsSpeaking(audio []byte) {
	if len(audio) == 0 {
		o.log.DebugPrintf("speech_end with empty audio buffer, skipping stt job")
		return
	}
	if err := o.sttJobQueue.Push(o.ctx, audio); err != nil {
		o.log.WarnPrintf("speech_end: failed to enqueue audio: %v", err)
	}
}
