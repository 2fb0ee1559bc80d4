package main

import (
	"fmt"

	"github.com/artpar/mira/adapters/loader"
	"github.com/artpar/mira/config"
	"github.com/artpar/mira/core/formatter"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var pluginsCmd = &cobra.Command{
	Use:   "plugins",
	Short: "List the compiled-in plugin catalog",
	Long: `List every plugin compiled into this binary and whether the current
configuration would load it.

Examples:
  mira plugins
  mira plugins -o json`,
	RunE: runPlugins,
}

func init() {
	rootCmd.AddCommand(pluginsCmd)
}

func runPlugins(cmd *cobra.Command, args []string) error {
	f, opts, err := printer()
	if err != nil {
		return err
	}

	cfg, err := config.LoadWithFallback(cfgFile)
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	var manifest *loader.Manifest
	if cfg.Plugins.Manifest != "" {
		if manifest, err = loader.LoadManifest(cfg.Plugins.Manifest); err != nil {
			return err
		}
	}

	catalog := loader.Default()
	plan, planErr := loader.New(catalog, manifest, zerolog.Nop()).Plan()
	order := make(map[string]int, len(plan))
	for i, guid := range plan {
		order[guid] = i + 1
	}

	records := make([]map[string]any, 0, catalog.Len())
	for _, guid := range catalog.Sorted() {
		rec := map[string]any{"guid": guid, "load": order[guid] > 0}
		if n := order[guid]; n > 0 {
			rec["order"] = n
		}
		records = append(records, rec)
	}

	listing := formatter.Listing{Name: "plugins", Columns: []string{"guid", "load", "order"}}
	if err := f.FormatList(cmd.OutOrStdout(), listing, records, opts); err != nil {
		return err
	}
	if planErr != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", planErr)
	}
	return nil
}
