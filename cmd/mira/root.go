package main

import (
	"fmt"
	"os"

	"github.com/artpar/mira/core/formatter"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile      string
	outputFormat string
	columns      []string
	noHeader     bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "mira",
	Short: "Extension composition runtime",
	Long: `mira loads compiled-in extensions, discovers what they declare and
registers it: event handlers, roles, modifiers, buttons, game modes,
options and colors.

Quick start:
  mira plugins      # List the plugin catalog
  mira load         # Load every plugin and print a summary
  mira serve        # Load and serve the introspection API

Inspection:
  mira load roles -o json
  mira diagnostics --module dev.mira.example
  mira validate`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "mira.yaml", "config file path")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table", "output format (table, json, yaml)")
	rootCmd.PersistentFlags().StringSliceVar(&columns, "columns", nil, "columns to print")
	rootCmd.PersistentFlags().BoolVar(&noHeader, "no-header", false, "omit the table header")
}

// printer returns the selected formatter and options.
func printer() (formatter.Formatter, formatter.FormatOptions, error) {
	f, err := formatter.Lookup(outputFormat)
	if err != nil {
		return nil, formatter.FormatOptions{}, err
	}
	return f, formatter.FormatOptions{Columns: columns, NoHeader: noHeader}, nil
}
