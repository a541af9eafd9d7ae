package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dchrnv/neurograph-core/internal/replay"
)

var (
	replayFixturePath string
	replayCheck       bool
)

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Replay a recorded observation fixture through the learning pipeline",
	RunE: func(cmd *cobra.Command, args []string) error {
		if replayFixturePath == "" {
			return fmt.Errorf("--fixture is required")
		}
		f, err := replay.LoadFixture(replayFixturePath)
		if err != nil {
			return err
		}

		res, err := replay.Run(f)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if f.Description != "" {
			fmt.Fprintln(out, f.Description)
		}
		fmt.Fprintf(out, "events=%d outcomes=%d cooccurrences=%d sweeps=%d decay_ticks=%d\n",
			res.Events, res.Outcomes, res.CoOccurrences, res.Sweeps, res.DecayTicks)
		fmt.Fprintf(out, "proposals=%d accepted=%d rejected=%d population=%d\n",
			res.Proposals, res.Accepted, res.Rejected, res.Population)

		if replayCheck {
			if err := res.Matches(f.Expected); err != nil {
				return fmt.Errorf("expectation failed: %w", err)
			}
			fmt.Fprintln(out, "expectations satisfied")
		}
		return nil
	},
}

func init() {
	replayCmd.Flags().StringVar(&replayFixturePath, "fixture", "", "path to fixture JSON")
	replayCmd.Flags().BoolVar(&replayCheck, "check", false, "fail unless the fixture's expected results match")
}
