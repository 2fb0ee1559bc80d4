package main

import (
	"errors"
	"fmt"

	"github.com/artpar/mira/adapters/sqlite"
	"github.com/artpar/mira/config"
	"github.com/artpar/mira/core/formatter"
	"github.com/artpar/mira/ports"
	"github.com/spf13/cobra"
)

var diagnosticsCmd = &cobra.Command{
	Use:   "diagnostics",
	Short: "List journaled discovery diagnostics",
	Long: `List the discovery diagnostics written to the journal by previous runs,
newest first.

Examples:
  mira diagnostics
  mira diagnostics --limit 20
  mira diagnostics --module dev.mira.example -o json`,
	RunE: runDiagnostics,
}

var (
	diagLimit  int
	diagModule string
)

func init() {
	rootCmd.AddCommand(diagnosticsCmd)

	diagnosticsCmd.Flags().IntVar(&diagLimit, "limit", 50, "maximum entries (0 = all)")
	diagnosticsCmd.Flags().StringVar(&diagModule, "module", "", "only this module's diagnostics")
}

func runDiagnostics(cmd *cobra.Command, args []string) error {
	f, opts, err := printer()
	if err != nil {
		return err
	}

	cfg, err := config.LoadWithFallback(cfgFile)
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}
	if !cfg.Journal.Enabled {
		return errors.New("diagnostic journal is disabled (journal.enabled: false)")
	}

	db, err := sqlite.Open(cfg.Journal.DSN)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.Migrate(); err != nil {
		return fmt.Errorf("migrate journal: %w", err)
	}

	journal := sqlite.NewJournal(db)
	ctx := cmd.Context()

	var recs []ports.DiagnosticRecord
	if diagModule != "" {
		recs, err = journal.ListByModule(ctx, diagModule)
		if diagLimit > 0 && len(recs) > diagLimit {
			recs = recs[:diagLimit]
		}
	} else {
		recs, err = journal.List(ctx, diagLimit)
	}
	if err != nil {
		return fmt.Errorf("list diagnostics: %w", err)
	}

	listing := formatter.Listing{
		Name:    "diagnostics",
		Columns: []string{"created_at", "module", "entity", "code", "message"},
	}
	return f.FormatList(cmd.OutOrStdout(), listing, diagnosticRecords(recs), opts)
}
