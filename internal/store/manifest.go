package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/encore/internal/replay"
)

// ErrNotFound is returned when no archived manifest exists for a session.
var ErrNotFound = errors.New("manifest not found")

// ErrAlreadyArchived is returned when a manifest for the session is
// already in the archive. Manifests are immutable; re-archiving the same
// session is a caller error, not an upsert.
var ErrAlreadyArchived = errors.New("manifest already archived")

// ArchiveEntry summarizes one archived manifest.
type ArchiveEntry struct {
	SessionID    string    `json:"session_id"`
	TimeFrozenAt time.Time `json:"time_frozen_at"`
	RngSeed      int64     `json:"rng_seed"`
	EffectCount  int       `json:"effect_count"`
	ArchivedAt   time.Time `json:"archived_at"`
}

// SaveManifest archives a manifest with all its effect records in a
// single transaction: either the whole manifest persists or none of it.
func (s *Store) SaveManifest(ctx context.Context, m *replay.Manifest) error {
	if err := m.Validate(); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO manifests (session_id, time_frozen_at, rng_seed, archived_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (session_id) DO NOTHING
	`, m.SessionID, m.TimeFrozenAt.UTC().Format(time.RFC3339Nano), m.RngSeed,
		time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("insert manifest: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("rows affected: %w", err)
	} else if n == 0 {
		return fmt.Errorf("session %s: %w", m.SessionID, ErrAlreadyArchived)
	}

	for _, rec := range m.EffectRecords {
		intent, err := json.Marshal(rec.Intent)
		if err != nil {
			return fmt.Errorf("marshal intent for record %d: %w", rec.SequenceIndex, err)
		}
		result, err := json.Marshal(rec.Result)
		if err != nil {
			return fmt.Errorf("marshal result for record %d: %w", rec.SequenceIndex, err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO effect_records
				(session_id, sequence_index, effect_type, intent, result, captured_at, success, error_message)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, m.SessionID, rec.SequenceIndex, rec.EffectType, string(intent), string(result),
			rec.CapturedAt.UTC().Format(time.RFC3339Nano), rec.Success, rec.ErrorMessage)
		if err != nil {
			return fmt.Errorf("insert effect record %d: %w", rec.SequenceIndex, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// LoadManifest reads an archived manifest back into replayable form.
// Effect records are returned in sequence order.
func (s *Store) LoadManifest(ctx context.Context, sessionID string) (*replay.Manifest, error) {
	var frozenAt string
	var seed int64
	err := s.db.QueryRowContext(ctx, `
		SELECT time_frozen_at, rng_seed FROM manifests WHERE session_id = ?
	`, sessionID).Scan(&frozenAt, &seed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("session %s: %w", sessionID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read manifest row: %w", err)
	}

	t, err := time.Parse(time.RFC3339Nano, frozenAt)
	if err != nil {
		return nil, fmt.Errorf("parse time_frozen_at %q: %w", frozenAt, err)
	}

	records, err := s.loadEffectRecords(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	return &replay.Manifest{
		SessionID:     sessionID,
		TimeFrozenAt:  t,
		RngSeed:       seed,
		EffectRecords: records,
	}, nil
}

// loadEffectRecords reads a session's effect records ordered by
// sequence_index, reconstructing the capture order exactly.
func (s *Store) loadEffectRecords(ctx context.Context, sessionID string) ([]replay.EffectRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT sequence_index, effect_type, intent, result, captured_at, success, error_message
		FROM effect_records
		WHERE session_id = ?
		ORDER BY sequence_index ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query effect records: %w", err)
	}
	defer rows.Close()

	records := make([]replay.EffectRecord, 0)
	for rows.Next() {
		var rec replay.EffectRecord
		var intent, result, capturedAt string
		var errorMessage sql.NullString

		if err := rows.Scan(&rec.SequenceIndex, &rec.EffectType, &intent, &result,
			&capturedAt, &rec.Success, &errorMessage); err != nil {
			return nil, fmt.Errorf("scan effect record: %w", err)
		}

		if err := json.Unmarshal([]byte(intent), &rec.Intent); err != nil {
			return nil, fmt.Errorf("unmarshal intent for record %d: %w", rec.SequenceIndex, err)
		}
		if err := json.Unmarshal([]byte(result), &rec.Result); err != nil {
			return nil, fmt.Errorf("unmarshal result for record %d: %w", rec.SequenceIndex, err)
		}
		rec.CapturedAt, err = time.Parse(time.RFC3339Nano, capturedAt)
		if err != nil {
			return nil, fmt.Errorf("parse captured_at for record %d: %w", rec.SequenceIndex, err)
		}
		if errorMessage.Valid {
			msg := errorMessage.String
			rec.ErrorMessage = &msg
		}

		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate effect records: %w", err)
	}

	return records, nil
}

// ListManifests returns summaries of all archived manifests, newest first.
func (s *Store) ListManifests(ctx context.Context) ([]ArchiveEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT m.session_id, m.time_frozen_at, m.rng_seed, m.archived_at,
		       COUNT(e.session_id)
		FROM manifests m
		LEFT JOIN effect_records e ON e.session_id = m.session_id
		GROUP BY m.session_id
		ORDER BY m.archived_at DESC, m.session_id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query manifests: %w", err)
	}
	defer rows.Close()

	entries := make([]ArchiveEntry, 0)
	for rows.Next() {
		var e ArchiveEntry
		var frozenAt, archivedAt string
		if err := rows.Scan(&e.SessionID, &frozenAt, &e.RngSeed, &archivedAt, &e.EffectCount); err != nil {
			return nil, fmt.Errorf("scan manifest row: %w", err)
		}
		if e.TimeFrozenAt, err = time.Parse(time.RFC3339Nano, frozenAt); err != nil {
			return nil, fmt.Errorf("parse time_frozen_at: %w", err)
		}
		if e.ArchivedAt, err = time.Parse(time.RFC3339Nano, archivedAt); err != nil {
			return nil, fmt.Errorf("parse archived_at: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate manifests: %w", err)
	}

	return entries, nil
}
