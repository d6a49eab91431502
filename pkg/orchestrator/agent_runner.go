package orchestrator

import (
	"context"
	"errors"
	"strings"
)

const terminalPunctuation = ".!?\n"

// spawnAgentRunner launches one Agent Runner invocation for generation
// genID over the given chat-history snapshot (spec.md §4.5). It is always
// called with the session lock already released.
func (o *Orchestrator) spawnAgentRunner(history []Turn, genID uint64) {
	go o.runAgentRunner(history, genID)
}

// currentGeneration reads generationID under the session lock.
func (o *Orchestrator) currentGeneration() uint64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.generationID
}

// cancelRequested reads agent_cancel_signal under the session lock.
func (o *Orchestrator) cancelRequested() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.agentCancelSignal
}

func (o *Orchestrator) runAgentRunner(history []Turn, genID uint64) {
	// response_in_progress is true from agent invocation until the client
	// reports playback complete (spec.md §3), mirroring
	// original_source/src/server/orchestrator.py's run_agent_flow setting it
	// at the very start of the invocation.
	o.mu.Lock()
	if o.generationID == genID {
		o.responseInProgress = true
	}
	o.mu.Unlock()

	ctx, cancel := context.WithTimeout(o.ctx, o.cfg.LLMRequestTimeout)
	defer cancel()

	stream, err := o.llm.Stream(ctx, history)
	if err != nil {
		o.log.WarnPrintf("agent run %d: llm stream start failed: %v", genID, TransientExternalErr(err))
		o.finishStaleOrIdle(genID)
		return
	}
	defer stream.Close()

	var sentenceBuf strings.Builder
	var fullResponse strings.Builder
	firstToken := true

	for {
		// Check staleness/cancellation between tokens (spec.md §4.5, §9's
		// stricter generation_id check).
		if o.currentGeneration() != genID {
			// A newer generation already owns agent_status; this run
			// quietly discards itself without touching shared state.
			return
		}
		if o.cancelRequested() {
			o.mu.Lock()
			if o.generationID == genID {
				o.setAgentStatus(StatusIdle)
			}
			o.mu.Unlock()
			return
		}

		token, err := stream.Next(ctx)
		if err != nil {
			if errors.Is(err, ErrStreamDone) {
				break
			}
			o.log.WarnPrintf("agent run %d: token stream error: %v", genID, TransientExternalErr(err))
			break
		}

		if firstToken {
			firstToken = false
			o.mu.Lock()
			if o.generationID == genID {
				o.setAgentStatus(StatusStreaming)
			}
			o.mu.Unlock()
		}

		sentenceBuf.WriteString(token)
		fullResponse.WriteString(token)

		if strings.ContainsAny(token, terminalPunctuation) {
			if sentence := strings.TrimSpace(sentenceBuf.String()); sentence != "" {
				if err := o.textStreamQueue.Push(o.ctx, Payload(sentence)); err != nil {
					return
				}
				o.send(agentResponseFrame(sentence))
			}
			sentenceBuf.Reset()
		}
	}

	if sentence := strings.TrimSpace(sentenceBuf.String()); sentence != "" {
		if err := o.textStreamQueue.Push(o.ctx, Payload(sentence)); err == nil {
			o.send(agentResponseFrame(sentence))
		}
	}
	_ = o.textStreamQueue.Push(o.ctx, EndOfUtterance[string]())

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.generationID != genID {
		return
	}
	if response := strings.TrimSpace(fullResponse.String()); response != "" {
		o.appendHistoryLocked(Turn{Role: RoleAgent, Content: response})
	}
	o.setAgentStatus(StatusIdle)
}

// finishStaleOrIdle restores agent_status to Idle unless a newer generation
// has already taken over.
func (o *Orchestrator) finishStaleOrIdle(genID uint64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.generationID == genID {
		o.setAgentStatus(StatusIdle)
	}
}
