package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/mpremote-tools/mpfs/internal/events"
)

func newEventsCmd(s streams) *cobra.Command {
	var typeFilter, subjectFilter, sinceFlag string
	var limit int
	var follow, jsonOut bool

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Show the audit log of device mutations",
		Long: `Show deletes, wipes, uploads, resets and package installs recorded in
the event log, including those cancelled at the confirmation prompt.

With --follow, keep running and print new events as JSON lines.`,
		Example: `  mpfs events
  mpfs events --type device.file_deleted --since 1h
  mpfs events --follow`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter := events.Filter{Type: typeFilter, Subject: subjectFilter, Limit: limit}
			if sinceFlag != "" {
				d, err := time.ParseDuration(sinceFlag)
				if err != nil {
					s.errorf("events", "invalid --since %q: %v", sinceFlag, err)
					return errExit
				}
				filter.Since = time.Now().Add(-d)
			}
			return withApp(cmd.Context(), s, "events", func(a *app) int {
				if follow {
					return followEvents(cmd.Context(), a.events, filter, s)
				}
				evts, err := a.events.List(filter)
				if err != nil {
					s.errorf("events", "%v", err)
					return 1
				}
				if jsonOut {
					return printEventsJSON(evts, s)
				}
				printEventsTable(evts, s)
				return 0
			})
		},
	}
	cmd.Flags().StringVar(&typeFilter, "type", "", "filter by event type (e.g. device.file_deleted)")
	cmd.Flags().StringVar(&subjectFilter, "subject", "", "filter by device path or package name")
	cmd.Flags().StringVar(&sinceFlag, "since", "", "show events since duration ago (e.g. 1h, 30m)")
	cmd.Flags().IntVar(&limit, "limit", 0, "show only the last N matching events")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "wait for new events")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "print JSON lines")
	return cmd
}

func printEventsTable(evts []events.Event, s streams) {
	if len(evts) == 0 {
		fmt.Fprintln(s.out, "No events.") //nolint:errcheck // best-effort stdout
		return
	}
	tw := tabwriter.NewWriter(s.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SEQ\tTYPE\tSTATUS\tSUBJECT\tMESSAGE\tTIME") //nolint:errcheck // best-effort stdout
	for _, e := range evts {
		msg := e.Message
		if len(msg) > 40 {
			msg = msg[:37] + "..."
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n", //nolint:errcheck // best-effort stdout
			e.Seq, e.Type, e.Status, e.Subject, msg,
			e.Ts.Local().Format("2006-01-02 15:04:05"),
		)
	}
	tw.Flush() //nolint:errcheck // best-effort stdout
}

func printEventsJSON(evts []events.Event, s streams) int {
	enc := json.NewEncoder(s.out)
	for _, e := range evts {
		if err := enc.Encode(e); err != nil {
			s.errorf("events", "%v", err)
			return 1
		}
	}
	return 0
}

// followEvents prints events recorded after the current head until ctx
// ends.
func followEvents(ctx context.Context, p events.Provider, filter events.Filter, s streams) int {
	head, err := p.LatestSeq()
	if err != nil {
		s.errorf("events", "%v", err)
		return 1
	}
	w, err := p.Watch(ctx, head)
	if err != nil {
		s.errorf("events", "%v", err)
		return 1
	}
	defer w.Close() //nolint:errcheck // poll watcher holds nothing
	enc := json.NewEncoder(s.out)
	for {
		e, err := w.Next()
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return 0
		}
		if err != nil {
			s.errorf("events", "%v", err)
			return 1
		}
		if filter.Type != "" && e.Type != filter.Type {
			continue
		}
		if filter.Subject != "" && e.Subject != filter.Subject {
			continue
		}
		enc.Encode(e) //nolint:errcheck // best-effort stdout
	}
}
