package cli

import (
	"bytes"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/encore/internal/canonical"
	"github.com/roach88/encore/internal/replay"
)

// verifyDraws is the number of random floats compared between two
// sessions restored from the same manifest.
const verifyDraws = 64

// VerifyOptions holds flags for the verify command.
type VerifyOptions struct {
	*RootOptions
}

// CheckResult is one determinism check in the verify output.
type CheckResult struct {
	Name   string `json:"name"`
	OK     bool   `json:"ok"`
	Detail string `json:"detail,omitempty"`
}

// VerifyResult is the overall verify output.
type VerifyResult struct {
	SessionID     string        `json:"session_id"`
	Checks        []CheckResult `json:"checks"`
	Deterministic bool          `json:"deterministic"`
}

// NewVerifyCommand creates the verify command.
func NewVerifyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &VerifyOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "verify <manifest.json>",
		Short: "Verify a manifest replays deterministically",
		Long: `Rebuild a replay session from the manifest twice and verify that
time, randomness, and recorded effects reproduce exactly.

Checks:
  time     every Now() call returns the manifest's frozen instant
  rng      two restored sessions produce identical draw sequences
  effects  each recorded effect replays its recorded result, in order

Exit codes:
  0 - manifest replays deterministically
  1 - determinism verification failed
  2 - command error (file not found, malformed manifest, etc.)

Examples:
  encore verify run.manifest.json
  encore verify run.manifest.json --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(opts, cmd, args[0])
		},
	}

	return cmd
}

func runVerify(opts *VerifyOptions, cmd *cobra.Command, path string) error {
	manifest, err := loadManifestFile(path)
	if err != nil {
		return err
	}

	result, err := VerifyManifest(manifest)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to verify manifest", err)
	}

	if opts.Format == "json" {
		resp := CLIResponse{Status: "ok", Data: result}
		if !result.Deterministic {
			resp.Status = "error"
			resp.Error = &CLIError{
				Code:    "E_DETERMINISM",
				Message: "determinism verification failed",
			}
		}
		if err := writeJSON(cmd.OutOrStdout(), resp); err != nil {
			return err
		}
		if !result.Deterministic {
			return NewExitError(ExitFailure, "determinism verification failed")
		}
		return nil
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Verifying session %s\n\n", result.SessionID)
	for _, check := range result.Checks {
		status := "✓"
		if !check.OK {
			status = "✗"
		}
		fmt.Fprintf(w, "%s %s\n", status, check.Name)
		if check.Detail != "" && (opts.Verbose || !check.OK) {
			fmt.Fprintf(w, "  %s\n", check.Detail)
		}
	}
	fmt.Fprintln(w)

	if result.Deterministic {
		fmt.Fprintln(w, "✓ Manifest replays deterministically")
		return nil
	}

	fmt.Fprintln(w, "✗ Determinism verification failed")
	return NewExitError(ExitFailure, "determinism verification failed")
}

// VerifyManifest rebuilds replay sessions from the manifest and runs the
// determinism checks. A non-nil error means the checks could not run at
// all; check failures are reported in the result.
func VerifyManifest(m *replay.Manifest) (*VerifyResult, error) {
	exec := replay.NewExecutor()

	first, err := exec.RestoreSession(m)
	if err != nil {
		return nil, fmt.Errorf("restore session: %w", err)
	}
	second, err := exec.RestoreSession(m)
	if err != nil {
		return nil, fmt.Errorf("restore session: %w", err)
	}

	result := &VerifyResult{SessionID: m.SessionID, Deterministic: true}
	addCheck := func(c CheckResult) {
		result.Checks = append(result.Checks, c)
		if !c.OK {
			result.Deterministic = false
		}
	}

	addCheck(checkFrozenTime(first, m))
	addCheck(checkRngSequence(first, second))
	addCheck(checkEffectReplay(first, m))

	return result, nil
}

// checkFrozenTime verifies every Now() call returns the frozen instant.
func checkFrozenTime(s *replay.Session, m *replay.Manifest) CheckResult {
	check := CheckResult{Name: "time", OK: true}
	want := m.TimeFrozenAt.UTC()
	for i := 0; i < 3; i++ {
		if got := s.Time.Now(); !got.Equal(want) {
			check.OK = false
			check.Detail = fmt.Sprintf("Now() returned %s, want %s",
				got.Format(time.RFC3339Nano), want.Format(time.RFC3339Nano))
			return check
		}
	}
	check.Detail = fmt.Sprintf("frozen at %s", want.Format(time.RFC3339Nano))
	return check
}

// checkRngSequence verifies two sessions restored from the same manifest
// produce identical draw sequences.
func checkRngSequence(a, b *replay.Session) CheckResult {
	check := CheckResult{Name: "rng", OK: true}
	for i := 0; i < verifyDraws; i++ {
		x, y := a.Rng.Float64(), b.Rng.Float64()
		if x != y {
			check.OK = false
			check.Detail = fmt.Sprintf("draw %d diverged: %v != %v", i, x, y)
			return check
		}
	}
	check.Detail = fmt.Sprintf("%d draws identical", verifyDraws)
	return check
}

// checkEffectReplay replays every recorded effect in capture order and
// verifies each answers with its recorded result.
func checkEffectReplay(s *replay.Session, m *replay.Manifest) CheckResult {
	check := CheckResult{Name: "effects", OK: true}

	for _, rec := range m.EffectRecords {
		got, ok := s.Effects.ReplayResult(rec.EffectType, rec.Intent)
		if !ok {
			check.OK = false
			check.Detail = fmt.Sprintf("record %d (%s): no replay result", rec.SequenceIndex, rec.EffectType)
			return check
		}
		if !jsonEqual(got, rec.Result) {
			check.OK = false
			check.Detail = fmt.Sprintf("record %d (%s): replayed result differs", rec.SequenceIndex, rec.EffectType)
			return check
		}
	}

	if remaining := s.Effects.Remaining(); remaining != 0 {
		check.OK = false
		check.Detail = fmt.Sprintf("%d recorded effects left unconsumed", remaining)
		return check
	}

	check.Detail = fmt.Sprintf("%d effects replayed", len(m.EffectRecords))
	return check
}

// jsonEqual compares two JSON-shaped maps by their canonical bytes,
// ignoring map iteration order and number representation differences.
func jsonEqual(a, b map[string]any) bool {
	if a == nil && b == nil {
		return true
	}
	ab, err := canonical.Marshal(nonNil(a))
	if err != nil {
		return false
	}
	bb, err := canonical.Marshal(nonNil(b))
	if err != nil {
		return false
	}
	return bytes.Equal(ab, bb)
}

func nonNil(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}
