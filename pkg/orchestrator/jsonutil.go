package orchestrator

import (
	"encoding/json"

	"github.com/kaptinlin/jsonrepair"
)

// unmarshalJSON is the defensive tool-call argument parse: an LLM emits
// mostly-valid-but-occasionally-malformed JSON, so a syntax error triggers
// one repair-and-retry pass before giving up. Grounded on genx.unmarshalJSON
// (pkg/genx/json.go), which applies the same repair-on-*json.SyntaxError
// retry using the same library.
func unmarshalJSON(data []byte, v any) error {
	err := json.Unmarshal(data, v)
	if err == nil {
		return nil
	}
	if _, ok := err.(*json.SyntaxError); ok {
		fixed, rerr := jsonrepair.JSONRepair(string(data))
		if rerr != nil {
			return rerr
		}
		return json.Unmarshal([]byte(fixed), v)
	}
	return err
}
