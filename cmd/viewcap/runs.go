package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/hazyhaar/viewcap/viewcap"
)

var (
	green = color.New(color.FgGreen).SprintFunc()
	red   = color.New(color.FgRed).SprintFunc()
	gray  = color.New(color.FgHiBlack).SprintFunc()
)

func newRunsCmd(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recent export runs from the journal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.Journal.Path == "" {
				return fmt.Errorf("viewcap: no journal configured (journal.path or VIEWCAP_JOURNAL)")
			}
			j, err := viewcap.OpenJournal(a.cfg.Journal.Path)
			if err != nil {
				return err
			}
			defer j.Close()

			runs, err := j.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			printRuns(runs)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "number of runs to show")
	return cmd
}

func printRuns(runs []viewcap.RunRecord) {
	if len(runs) == 0 {
		fmt.Println(gray("no runs recorded"))
		return
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "STARTED\tPAGES\tSTOP\tOUTPUT\tURL")
	for _, r := range runs {
		stop := r.Stop
		switch {
		case r.FinishedAt.IsZero():
			stop = "unfinished"
		case r.Error != "":
			stop = red(stop)
		default:
			stop = green(stop)
		}
		fmt.Fprintf(w, "%s\t%d/%d\t%s\t%s\t%s\n",
			r.StartedAt.Format(time.DateTime), r.Frames, r.Total, stop, r.Output, r.URL)
	}
	w.Flush()
}
