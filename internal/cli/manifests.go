package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/encore/internal/store"
)

// ManifestsOptions holds flags for the manifests command.
type ManifestsOptions struct {
	*RootOptions
	Database string
}

// ManifestsResult is the manifests command's output shape.
type ManifestsResult struct {
	Manifests []store.ArchiveEntry `json:"manifests"`
	Total     int                  `json:"total"`
}

// NewManifestsCommand creates the manifests command.
func NewManifestsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ManifestsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "manifests",
		Short: "List archived manifests",
		Long: `List every manifest in the SQLite archive, newest first.

Examples:
  encore manifests --db ./encore.db
  encore manifests --db ./encore.db --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runManifests(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite archive database (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runManifests(opts *ManifestsOptions, cmd *cobra.Command) error {
	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open archive database", err)
	}
	defer st.Close()

	entries, err := st.ListManifests(context.Background())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list manifests", err)
	}

	result := ManifestsResult{Manifests: entries, Total: len(entries)}

	if opts.Format == "json" {
		return writeJSON(cmd.OutOrStdout(), CLIResponse{Status: "ok", Data: result})
	}

	w := cmd.OutOrStdout()
	if result.Total == 0 {
		fmt.Fprintln(w, "No manifests archived.")
		return nil
	}

	fmt.Fprintf(w, "Archive: %d manifest(s)\n\n", result.Total)
	for _, e := range result.Manifests {
		fmt.Fprintf(w, "%s\n", e.SessionID)
		fmt.Fprintf(w, "  Frozen at: %s\n", e.TimeFrozenAt.Format(time.RFC3339Nano))
		fmt.Fprintf(w, "  RNG seed:  %d\n", e.RngSeed)
		fmt.Fprintf(w, "  Effects:   %d\n", e.EffectCount)
		if opts.Verbose {
			fmt.Fprintf(w, "  Archived:  %s\n", e.ArchivedAt.Format(time.RFC3339Nano))
		}
		fmt.Fprintln(w)
	}

	return nil
}
