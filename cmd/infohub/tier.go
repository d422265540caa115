package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"infohub/internal/service/points"
)

var tierCmd = &cobra.Command{
	Use:   "tier [points]",
	Short: "Show the loyalty tier for a points balance",
	Args:  cobra.ExactArgs(1),
	RunE:  runTier,
}

func init() {
	rootCmd.AddCommand(tierCmd)
}

func runTier(cmd *cobra.Command, args []string) error {
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid points %q: %w", args[0], err)
	}
	tier := points.TierFor(n)
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "tier: %s (%s)\n", tier.Name, tier.Label)
	fmt.Fprintf(out, "progress: %d%%\n", points.Progress(n))
	if toNext := points.PointsToNext(n); toNext > 0 {
		fmt.Fprintf(out, "to next: %d\n", toNext)
	}
	return nil
}
