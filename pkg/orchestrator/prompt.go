package orchestrator

import "strings"

// PromptGenerator is the pure helper of spec.md §4.10: merging STT
// fragments, classifying backchannels, and reconciling chat history across
// an interruption. It holds no state beyond its configured backchannel set,
// grounded on original_source/src/server/prompt_generator.py's
// PromptGenerator — with its false_alarm_phrases list replaced by
// spec.md §4.10's literal, authoritative set (the original's list differs
// in wording and is not load-bearing here).
type PromptGenerator struct {
	backchannel map[string]struct{}
}

// NewPromptGenerator constructs a PromptGenerator over the given
// backchannel set (case-insensitive membership).
func NewPromptGenerator(backchannel map[string]struct{}) *PromptGenerator {
	return &PromptGenerator{backchannel: backchannel}
}

// Merge joins transcript fragments into one utterance, collapsing internal
// whitespace to single spaces (spec.md §4.4 step 2, §4.10).
func (p *PromptGenerator) Merge(fragments []string) string {
	joined := strings.Join(fragments, " ")
	return strings.Join(strings.Fields(joined), " ")
}

// IsBackchannel implements spec.md §4.10's rule: exact membership in the
// closed set, lower-cased and stripped; or, for utterances of at most two
// tokens, substring containment of any set member.
func (p *PromptGenerator) IsBackchannel(utterance string) bool {
	norm := strings.ToLower(strings.TrimSpace(utterance))
	if norm == "" {
		return false
	}
	if _, ok := p.backchannel[norm]; ok {
		return true
	}
	tokens := strings.Fields(norm)
	if len(tokens) > 2 {
		return false
	}
	for phrase := range p.backchannel {
		if strings.Contains(norm, phrase) {
			return true
		}
	}
	return false
}

// Reconcile implements spec.md §4.4 step 4: new-input history reconciliation.
// underInterruption selects between the interruption-path merge-or-append
// rule and the plain "append a new user turn" rule.
func (p *PromptGenerator) Reconcile(history []Turn, utterance string, underInterruption bool) []Turn {
	out := make([]Turn, len(history))
	copy(out, history)

	if !underInterruption {
		return append(out, Turn{Role: RoleUser, Content: utterance})
	}

	if len(out) > 0 && out[len(out)-1].Role == RoleAgent {
		out = out[:len(out)-1]
	}

	if len(out) > 0 && out[len(out)-1].Role == RoleUser {
		last := out[len(out)-1]
		out[len(out)-1] = Turn{Role: RoleUser, Content: last.Content + " " + utterance}
		return out
	}

	return append(out, Turn{Role: RoleUser, Content: utterance})
}
