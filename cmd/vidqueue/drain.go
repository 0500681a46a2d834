package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func drainCmd(g *globals) *cobra.Command {
	var (
		once    bool
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "drain",
		Short: "Pull, process and report until the queue is empty",
		Long: `drain runs pull/process/report passes until a pull returns no
messages. With --once it runs a single pass, which is what a scheduled
trigger should call.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			eng, _, err := g.build()
			if err != nil {
				return err
			}
			defer eng.Close()

			ctx := cmd.Context()
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}

			run := eng.Consumer().Drain
			if once {
				run = eng.Consumer().RunOnce
			}
			res, err := run(ctx)

			fmt.Fprintf(cmd.OutOrStdout(), "pulled=%d acked=%d retried=%d unreported=%d elapsed=%s\n",
				res.Pulled, res.Summary.Acked, res.Summary.Retried, res.Summary.Unreported,
				res.Elapsed.Round(time.Millisecond))
			return err
		},
	}

	cmd.Flags().BoolVar(&once, "once", false, "run a single pass")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "overall time limit (0 means none)")
	return cmd
}
