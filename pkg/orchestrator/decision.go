package orchestrator

import (
	"context"
	"time"
)

// spawnDecisionTask launches the debounced single-shot Decision Task
// (spec.md §4.4) if one is not already live (invariant 5: at most one per
// session).
func (o *Orchestrator) spawnDecisionTask() {
	o.mu.Lock()
	if o.decisionLive {
		o.mu.Unlock()
		return
	}
	o.decisionLive = true
	o.mu.Unlock()

	go func() {
		defer func() {
			o.mu.Lock()
			o.decisionLive = false
			o.mu.Unlock()
		}()
		o.runDecisionTask(o.ctx)
	}()
}

func (o *Orchestrator) runDecisionTask(ctx context.Context) {
	select {
	case <-time.After(o.cfg.DecisionDebounce):
	case <-ctx.Done():
		return
	}

	o.mu.Lock()

	// Step 1: busy guard.
	if (o.agentStatus == StatusProcessing || o.agentStatus == StatusStreaming) && o.interruption != InterruptionActive {
		o.mu.Unlock()
		return
	}

	// Step 2: merge transcripts.
	fragments := o.sttOutputList
	utterance := o.prompt.Merge(fragments)
	underInterruption := o.interruption != InterruptionIdle

	// Step 3: classify. A fully empty utterance with no interruption state
	// to resolve is treated as background noise and is a complete no-op —
	// this resolves an ambiguity spec.md's prose leaves implicit, grounded on original_source's stt_worker "ignoring empty
	// STT (just noise)" branch and required by spec.md §8's boundary
	// behavior that a sub-threshold/empty transcript never mutates history.
	if utterance == "" && !underInterruption {
		o.mu.Unlock()
		return
	}

	isFalseAlarm := false
	if utterance == "" && underInterruption {
		isFalseAlarm = true
	} else if underInterruption && o.prompt.IsBackchannel(utterance) {
		isFalseAlarm = true
	}

	if isFalseAlarm {
		o.resolveFalseAlarmLocked()
		o.mu.Unlock()
		return
	}

	// Step 4: history reconciliation, step 5: new-input execution.
	o.chatHistory = o.prompt.Reconcile(o.chatHistory, utterance, underInterruption)
	if o.cfg.MaxHistoryTurns > 0 {
		for len(o.chatHistory) > o.cfg.MaxHistoryTurns {
			o.chatHistory = o.chatHistory[1:]
		}
	}

	o.sttOutputList = nil
	// The signal is set and cleared again below within this one lock hold,
	// so no runner observes it; an older runner stops because it sees the
	// bumped generationID at its next between-token check.
	o.agentCancelSignal = true
	o.audioOutputQueue.Clear()
	o.generationID++
	genID := o.generationID
	o.currentAudioGenerationTag = genID
	o.setPlaybackStatus(StatusIdle)
	o.setAgentStatus(StatusProcessing)
	o.interruption = InterruptionIdle
	o.responseInProgress = false
	o.agentCancelSignal = false // the new run starts clean
	historySnapshot := make([]Turn, len(o.chatHistory))
	copy(historySnapshot, o.chatHistory)

	o.mu.Unlock()

	o.spawnAgentRunner(historySnapshot, genID)
}

// resolveFalseAlarmLocked implements spec.md §4.4 step 6 / Table 1. Must be
// called with mu held.
func (o *Orchestrator) resolveFalseAlarmLocked() {
	audioPending := o.audioOutputQueue.HasItems()
	wasActiveBefore := o.clientPlaybackWasActiveBeforeInterrupt

	switch o.playbackStatus {
	case StatusPaused:
		if audioPending {
			o.setPlaybackStatus(StatusActive)
		} else {
			o.setPlaybackStatus(StatusIdle)
		}
		o.clientPlaybackActive = true
		o.mu.Unlock()
		o.send(playbackResumeFrame())
		o.mu.Lock()

	case StatusIdle:
		if wasActiveBefore {
			o.mu.Unlock()
			o.send(playbackResumeFrame())
			o.mu.Lock()
		} else if len(o.chatHistory) > 0 && o.chatHistory[len(o.chatHistory)-1].Role == RoleUser {
			// Proceed as if new-input with the pending user tail
			// (Table 1, Idle/false row): no playback_resume, dispatch a run over
			// the existing history as-is. This is spec.md §5's "starting a
			// new response after an interruption with pending user turn" —
			// playback_reset must precede the next play_audio so the client
			// discards any stale paused/queued audio from the abandoned run.
			o.agentCancelSignal = true
			o.audioOutputQueue.Clear()
			o.generationID++
			genID := o.generationID
			o.currentAudioGenerationTag = genID
			o.setAgentStatus(StatusProcessing)
			o.responseInProgress = false
			o.agentCancelSignal = false
			historySnapshot := make([]Turn, len(o.chatHistory))
			copy(historySnapshot, o.chatHistory)
			o.mu.Unlock()
			o.send(playbackResetFrame())
			o.spawnAgentRunner(historySnapshot, genID)
			o.mu.Lock()
		}

	case StatusActive:
		// No egress; already resumed elsewhere.
	}

	o.interruption = InterruptionIdle
	o.clientPlaybackWasActiveBeforeInterrupt = false
	o.sttOutputList = nil
}
