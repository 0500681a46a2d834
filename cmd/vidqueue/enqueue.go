package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/xraph/vidqueue/job"
)

// enqueueFlags are the fields accepted by the enqueue command.
type enqueueFlags struct {
	action  string
	uid     string
	source  string
	name    string
	creator string
	lang    string
	notes   []string
}

// payload builds the job payload named by --action.
func (f enqueueFlags) payload() (job.Payload, error) {
	action, ok := job.ParseAction(f.action)
	if !ok {
		return nil, fmt.Errorf("unknown action %q (want one of %v)", f.action, job.Actions())
	}
	switch action {
	case job.ActionFetchFromURL:
		return job.FetchFromURL{Source: f.source, Creator: f.creator, Name: f.name}, nil
	case job.ActionEnableDownload:
		return job.EnableDownload{UID: f.uid}, nil
	default:
		return job.EnableCaptions{UID: f.uid, Language: f.lang}, nil
	}
}

// toJob assembles the job and stamps it with a note.
func (f enqueueFlags) toJob(now time.Time) (job.Job, error) {
	p, err := f.payload()
	if err != nil {
		return job.Job{}, err
	}
	j := job.New(p, f.notes...)
	return j.WithNote("Enqueued from the command line at %s", now.UTC().Format(time.RFC3339)), nil
}

func enqueueCmd(g *globals) *cobra.Command {
	f := enqueueFlags{}

	cmd := &cobra.Command{
		Use:   "enqueue",
		Short: "Send one job to the queue",
		Example: `  vidqueue enqueue --action fetch-from-url --source https://example.com/a.mp4
  vidqueue enqueue --action enable-captions --uid 6b9e68b0 --lang de`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			j, err := f.toJob(time.Now())
			if err != nil {
				return err
			}

			eng, _, err := g.build()
			if err != nil {
				return err
			}
			defer eng.Close()

			if err := eng.Enqueue(cmd.Context(), j); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "enqueued %s\n", j.Action())
			return nil
		},
	}

	cmd.Flags().StringVar(&f.action, "action", "", "job action: fetch-from-url, enable-download or enable-captions")
	cmd.Flags().StringVar(&f.uid, "uid", "", "video UID (download and captions)")
	cmd.Flags().StringVar(&f.source, "source", "", "source URL (fetch)")
	cmd.Flags().StringVar(&f.name, "name", "untitled", "video name (fetch)")
	cmd.Flags().StringVar(&f.creator, "creator", "vidqueue", "creator (fetch)")
	cmd.Flags().StringVar(&f.lang, "lang", "", "captions language (default from config)")
	cmd.Flags().StringArrayVar(&f.notes, "note", nil, "diagnostic note, repeatable")
	_ = cmd.MarkFlagRequired("action")
	return cmd
}
