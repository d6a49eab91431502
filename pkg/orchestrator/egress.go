package orchestrator

import "context"

// egressPump implements spec.md §4.7. It tracks server-side playback_status
// but never client_playback_active — that mirror is driven exclusively by
// inbound client_playback_started / client_playback_complete frames.
func (o *Orchestrator) egressPump(ctx context.Context) {
	for {
		item, err := o.audioOutputQueue.Pop(ctx)
		if err != nil {
			return
		}

		if item.Done {
			// Stop changing playback state; the client will eventually
			// report complete.
			continue
		}

		o.mu.Lock()
		o.setPlaybackStatus(StatusActive)
		o.mu.Unlock()

		o.send(playAudioFrame(item.Value))
	}
}
