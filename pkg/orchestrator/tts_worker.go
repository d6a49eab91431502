package orchestrator

import "context"

// ttsWorker implements spec.md §4.6.
func (o *Orchestrator) ttsWorker(ctx context.Context) {
	for {
		item, err := o.textStreamQueue.Pop(ctx)
		if err != nil {
			return
		}

		if item.Done {
			if err := o.audioOutputQueue.Push(ctx, EndOfUtterance[[]byte]()); err != nil {
				return
			}
			o.mu.Lock()
			o.setTTSStatus(StatusIdle)
			o.mu.Unlock()
			continue
		}

		o.mu.Lock()
		o.setTTSStatus(StatusProcessing)
		o.mu.Unlock()

		audio, err := o.tts.Synthesize(ctx, item.Value)
		if err != nil {
			o.log.WarnPrintf("tts synthesize failed: %v", TransientExternalErr(err))
		} else if err := o.audioOutputQueue.Push(ctx, Payload(audio)); err != nil {
			return
		}

		o.mu.Lock()
		if o.textStreamQueue.Len() > 0 {
			o.setTTSStatus(StatusStreaming)
		} else {
			o.setTTSStatus(StatusIdle)
		}
		o.mu.Unlock()
	}
}
