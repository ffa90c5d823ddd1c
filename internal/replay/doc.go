// Package replay implements the record/replay determinism layer.
//
// # Determinism Model
//
// Three sources of nondeterminism are virtualized behind a Session:
//
//   - Time: hooks read "now" from the session's TimeService. A replaying
//     session returns one frozen instant on every call.
//   - Randomness: hooks draw floats from the session's RngService. The
//     generator is seeded, so the same seed reproduces the same sequence.
//   - External effects: hooks route externally observable interactions
//     through the session's EffectRecorder, which captures them while
//     recording and answers from the captured records while replaying.
//
// # Recording and Replay Flow
//
//	[Recording run] → hooks draw time/rng, record effects
//	                → CaptureManifest produces a pure-JSON snapshot
//	                → manifest is persisted by the hosting service
//
//	[Replay run]    → RestoreSession rebuilds a replaying session from
//	                  the manifest (frozen time, reseeded rng, preloaded
//	                  effect records)
//	                → the identical call sequence reproduces, call for
//	                  call, every timestamp, random draw, and effect
//	                  result observed during recording
//
// # Effect Matching
//
// Recorded effects are keyed by (effect_type, canonical hash of intent)
// into a FIFO queue per key, consumed in order. Structurally equal intents
// hash identically regardless of map iteration order (canonical JSON,
// UTF-16 key ordering, NFC-normalized strings), and a repeated identical
// call consumes the next recorded occurrence rather than replaying the
// first one forever. An effect with no remaining recorded counterpart
// yields no result; whether that is fatal is the caller's decision.
//
// # Ownership
//
// A Session and its EffectRecorder are single-owner: one concurrent
// execution context per session. Concurrent runs must each construct an
// independent session.
package replay
