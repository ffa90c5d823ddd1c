package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/encore/internal/replay"
)

// InspectOptions holds flags for the inspect command.
type InspectOptions struct {
	*RootOptions
}

// ManifestSummary is the inspect command's output shape.
type ManifestSummary struct {
	SessionID    string          `json:"session_id"`
	TimeFrozenAt time.Time       `json:"time_frozen_at"`
	RngSeed      int64           `json:"rng_seed"`
	EffectCount  int             `json:"effect_count"`
	Effects      []EffectSummary `json:"effects,omitempty"`
}

// EffectSummary is one effect record in the inspect output.
type EffectSummary struct {
	SequenceIndex int    `json:"sequence_index"`
	EffectType    string `json:"effect_type"`
	Success       bool   `json:"success"`
	ErrorMessage  string `json:"error_message,omitempty"`
}

// NewInspectCommand creates the inspect command.
func NewInspectCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InspectOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "inspect <manifest.json>",
		Short: "Summarize a replay manifest",
		Long: `Parse a manifest file and print its session identity, frozen time,
RNG seed, and effect records.

Examples:
  encore inspect run.manifest.json
  encore inspect run.manifest.json --format json
  encore inspect run.manifest.json -v`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(opts, cmd, args[0])
		},
	}

	return cmd
}

func runInspect(opts *InspectOptions, cmd *cobra.Command, path string) error {
	manifest, err := loadManifestFile(path)
	if err != nil {
		return err
	}

	summary := ManifestSummary{
		SessionID:    manifest.SessionID,
		TimeFrozenAt: manifest.TimeFrozenAt,
		RngSeed:      manifest.RngSeed,
		EffectCount:  len(manifest.EffectRecords),
	}
	for _, rec := range manifest.EffectRecords {
		es := EffectSummary{
			SequenceIndex: rec.SequenceIndex,
			EffectType:    rec.EffectType,
			Success:       rec.Success,
		}
		if rec.ErrorMessage != nil {
			es.ErrorMessage = *rec.ErrorMessage
		}
		summary.Effects = append(summary.Effects, es)
	}

	if opts.Format == "json" {
		return writeJSON(cmd.OutOrStdout(), CLIResponse{Status: "ok", Data: summary})
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Session:      %s\n", summary.SessionID)
	fmt.Fprintf(w, "Frozen at:    %s\n", summary.TimeFrozenAt.Format(time.RFC3339Nano))
	fmt.Fprintf(w, "RNG seed:     %d\n", summary.RngSeed)
	fmt.Fprintf(w, "Effects:      %d\n", summary.EffectCount)

	if opts.Verbose {
		for _, e := range summary.Effects {
			status := "ok"
			if !e.Success {
				status = fmt.Sprintf("failed: %s", e.ErrorMessage)
			}
			fmt.Fprintf(w, "  [%d] %s (%s)\n", e.SequenceIndex, e.EffectType, status)
		}
	}

	return nil
}

// loadManifestFile reads and parses a manifest JSON file, mapping
// filesystem and parse failures to command errors.
func loadManifestFile(path string) (*replay.Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to read manifest", err)
	}
	manifest, err := replay.ParseManifest(data)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to parse manifest", err)
	}
	return manifest, nil
}
