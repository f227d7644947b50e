package main

import (
	"github.com/spf13/cobra"

	"cropdoc/internal/articulation"
	"cropdoc/internal/usage"
)

func newUsageCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "usage",
		Short: "Show classifier token usage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tracker, err := usage.NewTracker(usagePath())
			if err != nil {
				return err
			}
			return articulation.RenderUsage(cmd.OutOrStdout(), tracker.Stats())
		},
	}
}
