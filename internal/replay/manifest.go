package replay

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Manifest is a pure-JSON snapshot of a session, sufficient to
// reconstruct a deterministic replay.
//
// Wire format (four top-level keys): session_id (string UUID),
// time_frozen_at (ISO-8601), rng_seed (integer), effect_records (ordered
// array). A manifest round-tripped through a standard JSON encoder and
// back into RestoreSession reconstructs an equivalent session.
//
// Manifests are produced on demand and never auto-persisted; a hosting
// service decides where they live.
type Manifest struct {
	SessionID     string         `json:"session_id"`
	TimeFrozenAt  time.Time      `json:"time_frozen_at"`
	RngSeed       int64          `json:"rng_seed"`
	EffectRecords []EffectRecord `json:"effect_records"`
}

// CaptureManifest snapshots a session into a manifest.
//
// This is a pure read: it never mutates session state and is safe to call
// mid-recording. The snapshot freezes replay time at the session's
// reference instant and deep-copies the captured effect records.
func (e *Executor) CaptureManifest(s *Session) *Manifest {
	return &Manifest{
		SessionID:     s.ID.String(),
		TimeFrozenAt:  s.StartedAt,
		RngSeed:       s.Seed(),
		EffectRecords: s.Effects.Records(),
	}
}

// RestoreSession reconstructs a replaying session from a manifest.
// The new session gets its own identity; the manifest's session_id is
// preserved as the replay's original-session provenance.
func (e *Executor) RestoreSession(m *Manifest) (*Session, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}

	origID, err := uuid.Parse(m.SessionID)
	if err != nil {
		return nil, fmt.Errorf("invalid manifest session_id %q: %w", m.SessionID, err)
	}

	return e.NewReplaySession(m.TimeFrozenAt, m.RngSeed, m.EffectRecords, &origID)
}

// ParseManifest decodes and validates manifest JSON.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Encode serializes the manifest to indented JSON.
func (m *Manifest) Encode() ([]byte, error) {
	// effect_records must serialize as [] rather than null for consumers
	// that expect the four-key wire shape.
	if m.EffectRecords == nil {
		clone := *m
		clone.EffectRecords = []EffectRecord{}
		return json.MarshalIndent(&clone, "", "  ")
	}
	return json.MarshalIndent(m, "", "  ")
}

// Validate checks the manifest's structural invariants: a parseable
// session_id, a non-zero frozen instant, and strictly increasing
// effect-record sequence indexes starting at 0.
func (m *Manifest) Validate() error {
	if m.SessionID == "" {
		return fmt.Errorf("manifest: session_id is required")
	}
	if _, err := uuid.Parse(m.SessionID); err != nil {
		return fmt.Errorf("manifest: session_id %q is not a UUID", m.SessionID)
	}
	if m.TimeFrozenAt.IsZero() {
		return fmt.Errorf("manifest: time_frozen_at is required")
	}
	for i, rec := range m.EffectRecords {
		if rec.SequenceIndex != i {
			return fmt.Errorf("manifest: effect record %d has sequence_index %d", i, rec.SequenceIndex)
		}
		if rec.EffectType == "" {
			return fmt.Errorf("manifest: effect record %d is missing effect_type", i)
		}
	}
	return nil
}
