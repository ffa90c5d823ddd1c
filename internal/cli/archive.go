package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/encore/internal/store"
)

// ArchiveOptions holds flags for the archive command.
type ArchiveOptions struct {
	*RootOptions
	Database string
}

// ArchiveOutcome is the archive command's output shape.
type ArchiveOutcome struct {
	SessionID   string `json:"session_id"`
	EffectCount int    `json:"effect_count"`
	Database    string `json:"database"`
}

// NewArchiveCommand creates the archive command.
func NewArchiveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ArchiveOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "archive <manifest.json>",
		Short: "Store a manifest in the archive database",
		Long: `Parse a manifest file and persist it into the SQLite archive.
Manifests are immutable; archiving the same session twice is an error.

Examples:
  encore archive run.manifest.json --db ./encore.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runArchive(opts, cmd, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite archive database (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runArchive(opts *ArchiveOptions, cmd *cobra.Command, path string) error {
	manifest, err := loadManifestFile(path)
	if err != nil {
		return err
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open archive database", err)
	}
	defer st.Close()

	if err := st.SaveManifest(context.Background(), manifest); err != nil {
		if errors.Is(err, store.ErrAlreadyArchived) {
			return WrapExitError(ExitFailure, "manifest already archived", err)
		}
		return WrapExitError(ExitCommandError, "failed to archive manifest", err)
	}

	outcome := ArchiveOutcome{
		SessionID:   manifest.SessionID,
		EffectCount: len(manifest.EffectRecords),
		Database:    opts.Database,
	}

	if opts.Format == "json" {
		return writeJSON(cmd.OutOrStdout(), CLIResponse{Status: "ok", Data: outcome})
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Archived session %s (%d effects) to %s\n",
		outcome.SessionID, outcome.EffectCount, outcome.Database)
	return nil
}
