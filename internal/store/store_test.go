package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/encore/internal/replay"
	"github.com/roach88/encore/internal/testutil"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "encore.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func testManifest(sessionID string) *replay.Manifest {
	errMsg := "connection reset"
	return &replay.Manifest{
		SessionID:    sessionID,
		TimeFrozenAt: testutil.Epoch,
		RngSeed:      42,
		EffectRecords: []replay.EffectRecord{
			{
				EffectType:    "http_call",
				Intent:        map[string]any{"url": "https://api.example.com/users"},
				Result:        map[string]any{"status": float64(200)},
				CapturedAt:    testutil.Epoch,
				SequenceIndex: 0,
				Success:       true,
			},
			{
				EffectType:    "http_call",
				Intent:        map[string]any{"url": "https://api.example.com/orders"},
				Result:        nil,
				CapturedAt:    testutil.Epoch.Add(time.Second),
				SequenceIndex: 1,
				Success:       false,
				ErrorMessage:  &errMsg,
			},
		},
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "encore.db")

	st, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	st, err = Open(path)
	require.NoError(t, err)
	defer st.Close()

	var version int
	require.NoError(t, st.DB().QueryRow("PRAGMA user_version").Scan(&version))
	assert.Equal(t, currentSchemaVersion, version)
}

func TestSaveAndLoadManifest(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	want := testManifest("00000000-0000-4000-8000-000000000001")
	require.NoError(t, st.SaveManifest(ctx, want))

	got, err := st.LoadManifest(ctx, want.SessionID)
	require.NoError(t, err)

	assert.Equal(t, want.SessionID, got.SessionID)
	assert.True(t, got.TimeFrozenAt.Equal(want.TimeFrozenAt))
	assert.Equal(t, want.RngSeed, got.RngSeed)
	require.Len(t, got.EffectRecords, 2)

	first := got.EffectRecords[0]
	assert.Equal(t, 0, first.SequenceIndex)
	assert.Equal(t, "http_call", first.EffectType)
	assert.Equal(t, map[string]any{"url": "https://api.example.com/users"}, first.Intent)
	assert.Equal(t, map[string]any{"status": float64(200)}, first.Result)
	assert.True(t, first.Success)
	assert.Nil(t, first.ErrorMessage)

	second := got.EffectRecords[1]
	assert.Equal(t, 1, second.SequenceIndex)
	assert.False(t, second.Success)
	require.NotNil(t, second.ErrorMessage)
	assert.Equal(t, "connection reset", *second.ErrorMessage)

	// The reloaded manifest passes validation and restores cleanly.
	require.NoError(t, got.Validate())
	restored, err := replay.NewExecutor().RestoreSession(got)
	require.NoError(t, err)
	assert.Equal(t, replay.ModeReplaying, restored.Mode)
}

func TestSaveManifestRejectsDuplicate(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	m := testManifest("00000000-0000-4000-8000-000000000001")
	require.NoError(t, st.SaveManifest(ctx, m))

	err := st.SaveManifest(ctx, m)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAlreadyArchived)

	// The failed save left exactly one archived copy.
	entries, err := st.ListManifests(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestSaveManifestValidates(t *testing.T) {
	st := openTestStore(t)

	err := st.SaveManifest(context.Background(), &replay.Manifest{
		SessionID:    "not-a-uuid",
		TimeFrozenAt: testutil.Epoch,
	})
	assert.Error(t, err)
}

func TestLoadManifestNotFound(t *testing.T) {
	st := openTestStore(t)

	_, err := st.LoadManifest(context.Background(), "00000000-0000-4000-8000-000000000099")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSaveManifestWithoutEffects(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	m := &replay.Manifest{
		SessionID:    "00000000-0000-4000-8000-000000000002",
		TimeFrozenAt: testutil.Epoch,
		RngSeed:      7,
	}
	require.NoError(t, st.SaveManifest(ctx, m))

	got, err := st.LoadManifest(ctx, m.SessionID)
	require.NoError(t, err)
	assert.Empty(t, got.EffectRecords)

	entries, err := st.ListManifests(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 0, entries[0].EffectCount)
}

func TestListManifests(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.SaveManifest(ctx, testManifest("00000000-0000-4000-8000-000000000001")))
	require.NoError(t, st.SaveManifest(ctx, &replay.Manifest{
		SessionID:    "00000000-0000-4000-8000-000000000002",
		TimeFrozenAt: testutil.Epoch.Add(time.Hour),
		RngSeed:      7,
	}))

	entries, err := st.ListManifests(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	byID := map[string]ArchiveEntry{}
	for _, e := range entries {
		byID[e.SessionID] = e
		assert.False(t, e.ArchivedAt.IsZero())
	}

	first := byID["00000000-0000-4000-8000-000000000001"]
	assert.Equal(t, 2, first.EffectCount)
	assert.Equal(t, int64(42), first.RngSeed)
	assert.True(t, first.TimeFrozenAt.Equal(testutil.Epoch))

	second := byID["00000000-0000-4000-8000-000000000002"]
	assert.Equal(t, 0, second.EffectCount)
}

func TestListManifestsEmpty(t *testing.T) {
	st := openTestStore(t)

	entries, err := st.ListManifests(context.Background())
	require.NoError(t, err)
	assert.Empty(t, entries)
}
