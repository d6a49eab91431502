package orchestrator

import "context"

// sttWorker implements spec.md §4.3. It never cancels peer components.
func (o *Orchestrator) sttWorker(ctx context.Context) {
	for {
		blob, err := o.sttJobQueue.Pop(ctx)
		if err != nil {
			return
		}

		o.mu.Lock()
		o.setSTTStatus(StatusProcessing)
		o.mu.Unlock()

		transcript := o.transcribe(ctx, blob)

		o.mu.Lock()
		o.setSTTStatus(StatusIdle)
		if transcript != "" {
			o.sttOutputList = append(o.sttOutputList, transcript)
		}
		decisionAlreadyLive := o.decisionLive
		o.mu.Unlock()

		if transcript != "" {
			o.send(transcriptFrame(transcript))
		}

		if !decisionAlreadyLive {
			o.spawnDecisionTask()
		}
	}
}

// transcribe applies the sub-threshold-silence rule (spec.md §4.3, §9) and
// calls the STT collaborator, logging and treating any failure as no
// transcript (TransientExternal, spec.md §7).
func (o *Orchestrator) transcribe(ctx context.Context, blob []byte) string {
	if len(blob) < o.cfg.STTMinBlobBytes {
		o.log.DebugPrintf("dropping sub-threshold audio blob (%d bytes)", len(blob))
		return ""
	}

	text, err := o.stt.Transcribe(ctx, blob)
	if err != nil {
		o.log.WarnPrintf("stt transcribe failed: %v", TransientExternalErr(err))
		return ""
	}
	return text
}
