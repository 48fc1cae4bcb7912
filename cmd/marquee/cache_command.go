package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"marquee/internal/daemonrun"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the TMDB response cache",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "purge",
		Short: "Drop every cached TMDB response",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return ctx.withServices(func(svc *daemonrun.Components) error {
				if svc.Cache == nil {
					fmt.Fprintln(cmd.OutOrStdout(), "TMDB cache disabled")
					return nil
				}
				if err := svc.Cache.Purge(); err != nil {
					return fmt.Errorf("purge tmdb cache: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "TMDB cache purged")
				return nil
			})
		},
	})
	return cmd
}
