package main

import (
	"github.com/spf13/cobra"

	"marquee/internal/daemonrun"
)

// newServeCommand runs the API server in the foreground, sharing marqueed's
// startup path.
func newServeCommand(ctx *commandContext) *cobra.Command {
	var logLevel string
	var skipPreflight bool
	cmd := &cobra.Command{
		Use:    "serve",
		Short:  "Run the HTTP API in the foreground",
		Hidden: true,
		Args:   cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return daemonrun.Run(cmd.Context(), cfg, daemonrun.Options{
				LogLevel:      logLevel,
				SkipPreflight: skipPreflight,
			})
		},
	}
	cmd.Flags().StringVar(&logLevel, "log-level", "", "Override logging.level")
	cmd.Flags().BoolVar(&skipPreflight, "skip-preflight", false, "Skip startup readiness checks")
	return cmd
}
