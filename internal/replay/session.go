package replay

import (
	"time"

	"github.com/google/uuid"
)

// Mode selects how a session treats time, randomness, and effects.
type Mode string

const (
	// ModeProduction uses the real clock, a nondeterministically seeded
	// RNG, and a pass-through effect recorder: effects execute against
	// real implementations and nothing is captured or stubbed.
	ModeProduction Mode = "production"

	// ModeRecording uses the real clock and a seeded RNG, and captures
	// every effect call for later replay.
	ModeRecording Mode = "recording"

	// ModeReplaying freezes time, reseeds the RNG, and answers effect
	// calls from previously captured records.
	ModeReplaying Mode = "replaying"
)

// Session bundles the time, randomness, and effect services for one
// logical run, all sharing one mode.
//
// A Session is created once per run by an Executor factory and discarded
// after; Mode is immutable after creation. ID is identity only and never
// influences execution.
//
// Single-owner: never share a session (or its EffectRecorder) across
// concurrently-executing runs.
type Session struct {
	// ID uniquely identifies this session.
	ID uuid.UUID

	// Mode is the session's execution mode, fixed at creation.
	Mode Mode

	// Time is the session's time source.
	Time TimeService

	// Rng is the session's randomness source.
	Rng RngService

	// Effects is the session's effect recorder.
	Effects *EffectRecorder

	// StartedAt is the session's reference instant: creation time for
	// production and recording sessions, the frozen instant for replaying
	// sessions. Manifest capture freezes replay time at this value.
	StartedAt time.Time

	// OriginalSessionID links a replaying session back to the recording
	// session it reproduces. Nil for production and recording sessions.
	OriginalSessionID *uuid.UUID
}

// Seed returns the session's RNG seed.
func (s *Session) Seed() int64 {
	return s.Rng.Seed()
}
