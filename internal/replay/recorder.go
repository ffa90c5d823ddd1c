package replay

import (
	"fmt"

	"github.com/roach88/encore/internal/canonical"
)

// EffectRecorder records external interactions while recording and answers
// them from captured records while replaying.
//
// Call sites stay mode-agnostic: Record always constructs and returns a
// record, but only a RECORDING-mode recorder retains it. ReplayResult only
// answers in REPLAYING mode; in every other case it reports no match and
// the caller decides whether that is fatal.
//
// Replay matching keys records by (effect_type, canonical intent hash)
// into a FIFO queue per key, consumed in order. A second call with an
// identical intent therefore replays the second recorded occurrence, not
// the first one again.
//
// Not internally thread-safe: one recorder per concurrent execution
// context. Concurrent recording requires independent sessions.
type EffectRecorder struct {
	mode    Mode
	clock   TimeService
	records []EffectRecord
	nextSeq int

	// queues holds REPLAYING-mode records awaiting consumption,
	// keyed by effect_type + 0x00 + intent hash.
	queues map[string][]EffectRecord
}

// NewEffectRecorder creates a recorder for a production or recording
// session. Captured timestamps come from clock, keeping records
// reproducible when the clock itself is virtualized.
func NewEffectRecorder(mode Mode, clock TimeService) *EffectRecorder {
	return &EffectRecorder{
		mode:  mode,
		clock: clock,
	}
}

// NewReplayRecorder creates a REPLAYING-mode recorder preloaded with
// previously captured records. Records are cloned on the way in; the
// caller's slice stays untouched.
//
// Returns an error if any record's intent cannot be canonically hashed.
func NewReplayRecorder(clock TimeService, records []EffectRecord) (*EffectRecorder, error) {
	r := &EffectRecorder{
		mode:    ModeReplaying,
		clock:   clock,
		records: make([]EffectRecord, 0, len(records)),
		queues:  make(map[string][]EffectRecord),
	}

	for i, rec := range records {
		key, err := replayKey(rec.EffectType, rec.Intent)
		if err != nil {
			return nil, fmt.Errorf("effect record %d: %w", i, err)
		}
		clone := rec.Clone()
		r.records = append(r.records, clone)
		r.queues[key] = append(r.queues[key], clone)
	}

	return r, nil
}

// Mode returns the recorder's mode.
func (r *EffectRecorder) Mode() Mode {
	return r.mode
}

// Record captures a successful effect interaction.
//
// A record is always constructed and returned; it is appended to internal
// storage, with a strictly increasing sequence index, only when the
// recorder is in RECORDING mode.
func (r *EffectRecorder) Record(effectType string, intent, result map[string]any) EffectRecord {
	return r.record(effectType, intent, result, true, nil)
}

// RecordFailure captures a failed effect interaction. The result holds
// whatever partial response the effect produced; errorMessage carries the
// failure text so a replayed run can observe the same failure.
func (r *EffectRecorder) RecordFailure(effectType string, intent, result map[string]any, errorMessage string) EffectRecord {
	return r.record(effectType, intent, result, false, &errorMessage)
}

func (r *EffectRecorder) record(effectType string, intent, result map[string]any, success bool, errorMessage *string) EffectRecord {
	rec := EffectRecord{
		EffectType:    effectType,
		Intent:        cloneJSONMap(intent),
		Result:        cloneJSONMap(result),
		CapturedAt:    r.clock.Now(),
		SequenceIndex: r.nextSeq,
		Success:       success,
	}
	if errorMessage != nil {
		msg := *errorMessage
		rec.ErrorMessage = &msg
	}

	if r.mode == ModeRecording {
		r.records = append(r.records, rec)
		r.nextSeq++
	}

	return rec
}

// ReplayResult returns the recorded result for the next occurrence of
// (effectType, intent), consuming it from the replay queue.
//
// Returns (nil, false) when the recorder is not in REPLAYING mode, when no
// matching record remains, or when the intent cannot be hashed. All three
// look the same to the caller: no recorded counterpart exists.
func (r *EffectRecorder) ReplayResult(effectType string, intent map[string]any) (map[string]any, bool) {
	if r.mode != ModeReplaying {
		return nil, false
	}

	key, err := replayKey(effectType, intent)
	if err != nil {
		return nil, false
	}

	queue := r.queues[key]
	if len(queue) == 0 {
		return nil, false
	}

	rec := queue[0]
	r.queues[key] = queue[1:]

	return cloneJSONMap(rec.Result), true
}

// Records returns a defensive deep copy of the retained records, in
// capture order. Mutating the returned slice or its payloads never
// reaches recorder-internal state.
func (r *EffectRecorder) Records() []EffectRecord {
	out := make([]EffectRecord, len(r.records))
	for i, rec := range r.records {
		out[i] = rec.Clone()
	}
	return out
}

// Remaining returns the number of preloaded records not yet consumed by
// ReplayResult. Zero for non-replaying recorders.
func (r *EffectRecorder) Remaining() int {
	n := 0
	for _, q := range r.queues {
		n += len(q)
	}
	return n
}

// replayKey computes the FIFO queue key for an effect call.
func replayKey(effectType string, intent map[string]any) (string, error) {
	h, err := canonical.IntentHash(intent)
	if err != nil {
		return "", fmt.Errorf("hash intent for effect %q: %w", effectType, err)
	}
	return effectType + "\x00" + h, nil
}
