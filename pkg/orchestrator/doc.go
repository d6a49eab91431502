// Package orchestrator implements the per-session conversation state
// machine of a full-duplex voice assistant: it mediates between a client
// (voice-activity events and encoded audio) and three external
// collaborators — speech-to-text, a streaming tool-calling language model,
// and text-to-speech — while correctly distinguishing a true barge-in from
// a backchannel acknowledgement ("uh-huh") during an in-progress response.
package orchestrator
