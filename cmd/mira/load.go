package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/artpar/mira/bootstrap"
	"github.com/artpar/mira/core/formatter"
	"github.com/spf13/cobra"
)

var loadCmd = &cobra.Command{
	Use:   "load [section]",
	Short: "Load every plugin and print what was registered",
	Long: `Run the registration pipeline over the plugin catalog (or the load
manifest) and print the result.

Sections:
  summary (default), modules, roles, modifiers, buttons, game_modes,
  options, cosmetics, colors, events

Examples:
  mira load
  mira load roles
  mira load options -o yaml
  mira load modules --columns guid,state`,
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: sectionNames(),
	RunE:      runLoad,
}

func init() {
	rootCmd.AddCommand(loadCmd)
}

func sectionNames() []string {
	names := []string{"summary"}
	for name := range sections {
		names = append(names, name)
	}
	sort.Strings(names[1:])
	return names
}

func runLoad(cmd *cobra.Command, args []string) error {
	name := "summary"
	if len(args) == 1 {
		name = args[0]
	}
	sec, known := sections[name]
	if name != "summary" && !known {
		return fmt.Errorf("unknown section %q (available: %s)", name, strings.Join(sectionNames(), ", "))
	}

	f, opts, err := printer()
	if err != nil {
		return err
	}

	app, err := bootstrap.New(bootstrap.Options{
		ConfigPath: cfgFile,
		Version:    version,
		LogOutput:  os.Stderr,
	})
	if err != nil {
		return fmt.Errorf("error initializing: %w", err)
	}
	defer app.Shutdown()

	if err := app.Load(cmd.Context()); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
	}

	out := cmd.OutOrStdout()
	c := app.Coordinator
	if name == "summary" {
		return f.FormatRecord(out, formatter.Listing{Name: "summary"}, summaryRecord(c.Capabilities().Summary(), c), opts)
	}
	return f.FormatList(out, sec.listing, sec.records(c), opts)
}
