package main

import (
	"fmt"
	"os"

	"github.com/artpar/mira/adapters/loader"
	"github.com/artpar/mira/adapters/sqlite"
	"github.com/artpar/mira/config"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration before deployment",
	Long: `Validate the mira configuration file.

Checks:
  - YAML syntax is valid
  - Values are in range
  - The load manifest parses and names known plugins
  - The journal database is writable (optional)

Examples:
  mira validate
  mira validate --check-journal --config /etc/mira/mira.yaml`,
	RunE: runValidate,
}

var validateCheckJournal bool

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().BoolVar(&validateCheckJournal, "check-journal", false, "check if the journal database is writable")
}

func runValidate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Validating %s...\n\n", cfgFile)

	if _, err := os.Stat(cfgFile); os.IsNotExist(err) {
		fmt.Fprintf(out, "  %s Config file exists\n", crossMark)
		return fmt.Errorf("config file not found: %s", cfgFile)
	}
	fmt.Fprintf(out, "  %s Config file exists\n", checkMark)

	cfg, err := config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(out, "  %s Config syntax valid\n", crossMark)
		return fmt.Errorf("config error: %w", err)
	}
	fmt.Fprintf(out, "  %s Config syntax valid\n", checkMark)

	fmt.Fprintf(out, "  %s Logging: %s (%s)\n", checkMark, cfg.Logging.Level, cfg.Logging.Format)
	fmt.Fprintf(out, "  %s Listen: %s\n", checkMark, cfg.HTTP.Addr())
	if cfg.Journal.Enabled {
		fmt.Fprintf(out, "  %s Journal: %s (retention %s)\n", checkMark, cfg.Journal.DSN, cfg.Journal.Retention)
	} else {
		fmt.Fprintf(out, "  %s Journal: disabled\n", checkMark)
	}

	if cfg.Plugins.Manifest != "" {
		manifest, err := loader.LoadManifest(cfg.Plugins.Manifest)
		if err != nil {
			fmt.Fprintf(out, "  %s Load manifest valid\n", crossMark)
			return err
		}
		plan, err := loader.New(loader.Default(), manifest, zerolog.Nop()).Plan()
		if err != nil {
			fmt.Fprintf(out, "  %s Load manifest plugins known\n", crossMark)
			fmt.Fprintf(out, "      Error: %v\n", err)
		} else {
			fmt.Fprintf(out, "  %s Load manifest: %d plugins\n", checkMark, len(plan))
		}
	} else {
		fmt.Fprintf(out, "  %s Plugins: whole catalog (%d)\n", checkMark, loader.Default().Len())
	}

	if validateCheckJournal && cfg.Journal.Enabled {
		if err := checkJournalWritable(cfg.Journal.DSN); err != nil {
			fmt.Fprintf(out, "  %s Journal writable\n", crossMark)
			fmt.Fprintf(out, "      Error: %v\n", err)
		} else {
			fmt.Fprintf(out, "  %s Journal writable\n", checkMark)
		}
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Configuration is valid.")
	return nil
}

func checkJournalWritable(dsn string) error {
	db, err := sqlite.Open(dsn)
	if err != nil {
		return err
	}
	defer db.Close()
	return db.Migrate()
}

const (
	checkMark = "\033[32m✓\033[0m"
	crossMark = "\033[31m✗\033[0m"
)
