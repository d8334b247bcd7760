package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dukerupert/callagent/internal/apiclient"
	"github.com/dukerupert/callagent/internal/model"
	"github.com/dukerupert/callagent/internal/notify"
	"github.com/dukerupert/callagent/internal/pagination"
)

// fetchLimit is the server page size used before client-side filtering.
const fetchLimit = 500

type callFlags struct {
	orgID, status, direction string
	sentiment, search        string
	from, to                 string
	refresh                  bool
}

func (f *callFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.orgID, "org", "", "organization id")
	cmd.Flags().StringVar(&f.status, "status", "", "call status")
	cmd.Flags().StringVar(&f.direction, "direction", "", "inbound or outbound")
	cmd.Flags().StringVar(&f.sentiment, "sentiment", "", "analysis sentiment")
	cmd.Flags().StringVar(&f.search, "search", "", "match phone number, caller name or summary")
	cmd.Flags().StringVar(&f.from, "from", "", "start date, YYYY-MM-DD")
	cmd.Flags().StringVar(&f.to, "to", "", "end date (exclusive), YYYY-MM-DD")
	cmd.Flags().BoolVar(&f.refresh, "refresh", false, "bypass the cache")
}

// load fetches calls narrowed server-side, then applies every filter locally
// since older backends ignore the status and direction parameters.
func (f *callFlags) load(cmd *cobra.Command, a *app) ([]model.Call, error) {
	from, err := parseDate(f.from)
	if err != nil {
		return nil, err
	}
	to, err := parseDate(f.to)
	if err != nil {
		return nil, err
	}

	page, err := a.api.ListCalls(cmd.Context(), apiclient.CallQuery{
		OrganizationID: f.orgID,
		Status:         f.status,
		Direction:      f.direction,
		Limit:          fetchLimit,
	}, f.refresh)
	if err != nil {
		return nil, err
	}
	if page.Total > len(page.Calls) {
		a.logger.Warn("call history truncated", "fetched", len(page.Calls), "total", page.Total)
	}

	return apiclient.FilterCalls(page.Calls, apiclient.CallFilter{
		Status:    f.status,
		Direction: f.direction,
		Sentiment: f.sentiment,
		Search:    f.search,
		From:      from,
		To:        to,
	}), nil
}

func newCallsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "calls",
		Short: "Browse call history",
	}
	cmd.AddCommand(newCallsListCmd(a), newCallsStatsCmd(a), newCallsFiltersCmd(a), newCallsExportCmd(a))
	return cmd
}

func newCallsListCmd(a *app) *cobra.Command {
	var f callFlags
	var page, perPage int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List calls",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			calls, err := f.load(cmd, a)
			if err != nil {
				return err
			}
			if len(calls) == 0 {
				fmt.Fprintln(a.out, "No calls match")
				return nil
			}

			p := pagination.New(len(calls), perPage, page)
			tw := newTable(a.out, "STARTED", "DIRECTION", "STATUS", "PHONE", "CALLER", "DURATION", "SENTIMENT")
			for _, c := range pagination.Slice(calls, p) {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
					formatTime(c.StartedAt), c.Direction, c.Status, c.PhoneNumber,
					orDash(c.CallerName), formatDuration(c.Duration), orDash(c.Sentiment))
			}
			tw.Flush()
			fmt.Fprintln(a.out, pageFooter(p))
			return nil
		},
	}
	f.register(cmd)
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().IntVar(&perPage, "per-page", pagination.DefaultItemsPerPage, "items per page")
	return cmd
}

func newCallsStatsCmd(a *app) *cobra.Command {
	var orgID string
	var refresh bool
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show call statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.api.CallStats(cmd.Context(), orgID, refresh)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Total calls:      %d\n", s.TotalCalls)
			fmt.Fprintf(a.out, "Completed:        %d\n", s.CompletedCalls)
			fmt.Fprintf(a.out, "Failed:           %d\n", s.FailedCalls)
			fmt.Fprintf(a.out, "Success rate:     %.1f%%\n", s.SuccessRate)
			fmt.Fprintf(a.out, "Total duration:   %s\n", formatDuration(s.TotalDuration))
			fmt.Fprintf(a.out, "Average duration: %s\n", formatDuration(int(s.AverageDuration)))
			return nil
		},
	}
	cmd.Flags().StringVar(&orgID, "org", "", "organization id")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "bypass the cache")
	return cmd
}

func newCallsFiltersCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "filters",
		Short: "Show the values accepted by the call filters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := a.api.CallFilterOptions(cmd.Context(), false)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Statuses:   %v\n", opts.Statuses)
			fmt.Fprintf(a.out, "Directions: %v\n", opts.Directions)
			fmt.Fprintf(a.out, "Sentiments: %v\n", opts.Sentiments)
			return nil
		},
	}
}

func newCallsExportCmd(a *app) *cobra.Command {
	var f callFlags
	var dir string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export calls as CSV to a directory or S3",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			calls, err := f.load(cmd, a)
			if err != nil {
				return err
			}
			location, err := a.exporter(dir).Export(cmd.Context(), calls)
			if err != nil {
				a.notifier.Notify(notify.LevelError, "Export failed")
				return err
			}
			a.notifier.Notify(notify.LevelSuccess, fmt.Sprintf("Exported %d calls to %s", len(calls), location))
			return nil
		},
	}
	f.register(cmd)
	cmd.Flags().StringVar(&dir, "dir", "", "output directory when S3 is not configured")
	return cmd
}
