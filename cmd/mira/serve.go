package main

import (
	"fmt"

	"github.com/artpar/mira/bootstrap"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Load plugins and serve the introspection API",
	Long: `Load every planned plugin, then serve the read-only introspection API
until interrupted.

The server will:
  - Load configuration from mira.yaml (or --config)
  - Or load configuration from MIRA_* environment variables
  - Open the diagnostic journal
  - Register every plugin in the catalog (or the load manifest)
  - Reload logging.level and journal.retention on file change or SIGHUP

Environment variables:
  MIRA_LOG_LEVEL          - Log level: trace, debug, info, warn, error
  MIRA_LOG_FORMAT         - Log format: json or console
  MIRA_PLUGINS_MANIFEST   - Load manifest path
  MIRA_JOURNAL_ENABLED    - Enable the diagnostic journal (default: true)
  MIRA_JOURNAL_DSN        - Journal database path (default: mira.db)
  MIRA_HTTP_HOST          - Listen host (default: 127.0.0.1)
  MIRA_HTTP_PORT          - Listen port (default: 8089)

Examples:
  mira serve
  mira serve --config /etc/mira/mira.yaml`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	app, err := bootstrap.New(bootstrap.Options{
		ConfigPath: cfgFile,
		Version:    version,
	})
	if err != nil {
		return fmt.Errorf("error initializing: %w", err)
	}

	// Run (blocks until shutdown)
	return app.Run(cmd.Context())
}
