package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/xraph/vidqueue/dlq"
)

func dlqCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dlq",
		Short: "Inspect and replay dead-lettered messages (redis backend)",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List dead letters, oldest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDLQ(g, func(svc *dlq.Service) error {
				entries, err := svc.List(cmd.Context())
				if err != nil {
					return err
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "POS\tACTION\tVALID\tBODY")
				for _, e := range entries {
					fmt.Fprintf(w, "%d\t%s\t%t\t%s\n", e.Position, e.Job.Action(), e.Valid(), e.Body)
				}
				return w.Flush()
			})
		},
	}

	var limit int
	replay := &cobra.Command{
		Use:   "replay",
		Short: "Send dead letters back to the ready queue",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDLQ(g, func(svc *dlq.Service) error {
				n, err := svc.Replay(cmd.Context(), limit)
				fmt.Fprintf(cmd.OutOrStdout(), "replayed %d\n", n)
				return err
			})
		},
	}
	replay.Flags().IntVar(&limit, "max", 0, "replay at most this many (0 means all)")

	purge := &cobra.Command{
		Use:   "purge",
		Short: "Delete every dead letter",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDLQ(g, func(svc *dlq.Service) error {
				n, err := svc.Purge(cmd.Context())
				fmt.Fprintf(cmd.OutOrStdout(), "purged %d\n", n)
				return err
			})
		},
	}

	cmd.AddCommand(list, replay, purge)
	return cmd
}

// withDLQ builds an engine and runs fn against its dead-letter store.
func withDLQ(g *globals, fn func(*dlq.Service) error) error {
	eng, logger, err := g.build()
	if err != nil {
		return err
	}
	defer eng.Close()

	store, ok := eng.Transport().(dlq.Store)
	if !ok {
		return fmt.Errorf("queue backend %q keeps no dead letters", eng.Config().Queue.Backend)
	}
	return fn(dlq.NewService(store, eng.Transport(), dlq.WithLogger(logger)))
}
