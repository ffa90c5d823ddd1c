package replay

import (
	"encoding/json"
	"fmt"
	"time"
)

// EffectRecord is one captured external interaction.
//
// Records are immutable once created. SequenceIndex strictly increases per
// recorder instance while recording, starting at 0; it preserves the total
// order of effects within a run even when two effects share an intent.
//
// The JSON field names are the manifest wire format and must not change.
type EffectRecord struct {
	EffectType    string         `json:"effect_type"`
	Intent        map[string]any `json:"intent"`
	Result        map[string]any `json:"result"`
	CapturedAt    time.Time      `json:"captured_at"`
	SequenceIndex int            `json:"sequence_index"`
	Success       bool           `json:"success"`
	ErrorMessage  *string        `json:"error_message"`
}

// Clone returns a deep copy of the record. Intent and Result are
// JSON-shaped maps, so the copy round-trips through encoding/json;
// mutating the clone never reaches the original.
func (r EffectRecord) Clone() EffectRecord {
	out := r
	out.Intent = cloneJSONMap(r.Intent)
	out.Result = cloneJSONMap(r.Result)
	if r.ErrorMessage != nil {
		msg := *r.ErrorMessage
		out.ErrorMessage = &msg
	}
	return out
}

// cloneJSONMap deep-copies a JSON-shaped map. A nil input stays nil so
// `null` survives serialization round trips unchanged.
func cloneJSONMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		// JSON-shaped maps always marshal; reaching here means a caller
		// smuggled a non-JSON value (channel, func) into an intent.
		panic(fmt.Sprintf("effect payload is not JSON-shaped: %v", err))
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		panic(fmt.Sprintf("effect payload round-trip failed: %v", err))
	}
	return out
}
