package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dukerupert/callagent/internal/calendar"
	"github.com/dukerupert/callagent/internal/model"
)

func newCalendarCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "calendar",
		Aliases: []string{"cal"},
		Short:   "Google Calendar integration",
	}
	cmd.AddCommand(
		newCalendarStatusCmd(a),
		newCalendarConnectCmd(a),
		newCalendarCompleteCmd(a),
		newCalendarDisconnectCmd(a),
		newCalendarTestCmd(a),
		newCalendarEventsCmd(a),
		newCalendarAvailabilityCmd(a),
		newCalendarBookCmd(a),
		newCalendarCancelCmd(a),
	)
	return cmd
}

func newCalendarStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether a calendar is linked",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st := a.calendarClient().CheckStatus(cmd.Context())
			if !st.Connected {
				fmt.Fprintln(a.out, "Not Connected")
				if st.Message != "" {
					fmt.Fprintln(a.out, dimStyle.Render(st.Message))
				}
				return nil
			}
			fmt.Fprintf(a.out, "Connected:  %s\n", activeStyle.Render(orDash(st.CalendarName)))
			fmt.Fprintf(a.out, "Calendar:   %s\n", orDash(st.CalendarID))
			fmt.Fprintf(a.out, "Timezone:   %s\n", orDash(st.Timezone))
			fmt.Fprintf(a.out, "Last sync:  %s\n", orDash(st.LastSync))
			return nil
		},
	}
}

func newCalendarConnectCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "connect <org-id>",
		Short: "Start linking a Google Calendar",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := a.calendarClient().ConnectGoogle(cmd.Context(), args[0])
			return err
		},
	}
}

func newCalendarCompleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "complete <code> [state]",
		Short: "Finish linking with the code from the OAuth redirect",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			state := ""
			if len(args) == 2 {
				state = args[1]
			}
			return a.calendarClient().CompleteOAuth(cmd.Context(), args[0], state)
		},
	}
}

func newCalendarDisconnectCmd(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "disconnect",
		Short: "Unlink the calendar",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes && !a.confirm("Disconnect Google Calendar?") {
				fmt.Fprintln(a.out, "Cancelled")
				return nil
			}
			return a.calendarClient().Disconnect(cmd.Context())
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip confirmation")
	return cmd
}

func newCalendarTestCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "test",
		Short: "Verify the linked calendar is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.calendarClient().TestConnection(cmd.Context())
		},
	}
}

func newCalendarEventsCmd(a *app) *cobra.Command {
	var from, to string
	cmd := &cobra.Command{
		Use:   "events",
		Short: "List upcoming events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := parseDate(from)
			if err != nil {
				return err
			}
			end, err := parseDate(to)
			if err != nil {
				return err
			}

			c := a.calendarClient()
			if st := c.Start(cmd.Context()); !st.Calendar.Connected {
				return calendar.ErrNotConnected
			}
			if err := c.EventsErr(); err != nil {
				return err
			}
			events := c.Events()
			if !start.IsZero() || !end.IsZero() {
				if events, err = c.FetchEvents(cmd.Context(), start, end); err != nil {
					return err
				}
			}
			printEvents(a, events)
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "start date, YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&to, "to", "", "end date, YYYY-MM-DD (default 30 days after start)")
	return cmd
}

func printEvents(a *app, events []model.CalendarEvent) {
	if len(events) == 0 {
		fmt.Fprintln(a.out, "No events")
		return
	}
	tw := newTable(a.out, "WHEN", "TITLE", "ATTENDEES", "ID")
	for _, e := range events {
		when := formatTime(e.Start) + " - " + e.End.Local().Format("15:04")
		if e.AllDay {
			when = e.Start.Format(time.DateOnly) + " (all day)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", when, e.Title, orDash(strings.Join(e.Attendees, ", ")), e.ID)
	}
	tw.Flush()
}

func newCalendarAvailabilityCmd(a *app) *cobra.Command {
	var duration int
	var pref string
	cmd := &cobra.Command{
		Use:   "availability <date>",
		Short: "List free slots on a date (YYYY-MM-DD)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := parseDate(args[0]); err != nil {
				return err
			}
			slots, err := a.calendarClient().CheckAvailability(cmd.Context(), args[0], duration, pref)
			if err != nil {
				return err
			}
			for _, s := range slots {
				fmt.Fprintf(a.out, "%s  (%d min)\n", s.DisplayTime, s.Duration)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&duration, "duration", 30, "appointment length in minutes")
	cmd.Flags().StringVar(&pref, "prefer", "", "time preference: morning, afternoon, evening")
	return cmd
}

func newCalendarBookCmd(a *app) *cobra.Command {
	var req model.BookingRequest
	cmd := &cobra.Command{
		Use:   "book",
		Short: "Book an appointment",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.calendarClient().Book(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Event ID: %s\n", orDash(res.EventID))
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&req.Service, "service", "", "service name")
	f.StringVar(&req.Date, "date", "", "date, YYYY-MM-DD")
	f.StringVar(&req.Time, "time", "", "start time, HH:MM")
	f.IntVar(&req.Duration, "duration", 30, "length in minutes")
	f.StringVar(&req.CustomerName, "name", "", "customer name")
	f.StringVar(&req.CustomerPhone, "phone", "", "customer phone")
	f.StringVar(&req.CustomerEmail, "email", "", "customer email")
	f.StringVar(&req.Notes, "notes", "", "notes for the event")
	return cmd
}

func newCalendarCancelCmd(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "cancel <event-id>",
		Short: "Cancel an appointment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes && !a.confirm(fmt.Sprintf("Cancel appointment %s?", args[0])) {
				fmt.Fprintln(a.out, "Cancelled")
				return nil
			}
			return a.calendarClient().Cancel(cmd.Context(), args[0])
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip confirmation")
	return cmd
}
