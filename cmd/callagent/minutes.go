package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/dukerupert/callagent/internal/model"
	"github.com/dukerupert/callagent/internal/notify"
	"github.com/dukerupert/callagent/internal/realtime"
)

func renderBalance(orgID string, b model.MinuteBalance) string {
	return realtime.RenderBalance(orgID, b)
}

func newMinutesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "minutes",
		Short: "Manage call-minute balances",
	}
	cmd.AddCommand(
		newMinutesShowCmd(a),
		newMinutesAllocateCmd(a),
		newMinutesActivateCmd(a),
		newMinutesDeactivateCmd(a),
	)
	return cmd
}

func newMinutesShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <org-id>...",
		Short: "Show minute balances",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, id := range args {
				bal, err := a.api.OrganizationMinutes(cmd.Context(), id)
				if err != nil {
					return err
				}
				fmt.Fprintln(a.out, renderBalance(id, bal))
			}
			return nil
		},
	}
}

func newMinutesAllocateCmd(a *app) *cobra.Command {
	var notes string
	cmd := &cobra.Command{
		Use:     "allocate <org-id> <minutes>",
		Short:   "Add minutes to an organization",
		Args:    cobra.ExactArgs(2),
		PreRunE: requireAdmin,
		RunE: func(cmd *cobra.Command, args []string) error {
			minutes, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("invalid minutes %q", args[1])
			}
			bal, err := a.api.AllocateMinutes(cmd.Context(), model.MinuteAllocation{
				OrganizationID: args[0],
				Minutes:        minutes,
				Notes:          notes,
			})
			if err != nil {
				a.notifier.Notify(notify.LevelError, "Failed to allocate minutes")
				return err
			}
			a.notifier.Notify(notify.LevelSuccess, fmt.Sprintf("Allocated %s minutes", args[1]))
			fmt.Fprintln(a.out, renderBalance(args[0], *bal))
			return nil
		},
	}
	cmd.Flags().StringVar(&notes, "notes", "", "allocation note")
	return cmd
}

func newMinutesActivateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "activate <org-id>",
		Short:   "Enable calling for an organization",
		Args:    cobra.ExactArgs(1),
		PreRunE: requireAdmin,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.api.ActivateMinutes(cmd.Context(), args[0]); err != nil {
				a.notifier.Notify(notify.LevelError, "Failed to activate minutes")
				return err
			}
			a.notifier.Notify(notify.LevelSuccess, "Minutes activated")
			return nil
		},
	}
}

func newMinutesDeactivateCmd(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:     "deactivate <org-id>",
		Short:   "Stop calling for an organization",
		Args:    cobra.ExactArgs(1),
		PreRunE: requireAdmin,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes && !a.confirm(fmt.Sprintf("Deactivate call minutes for %s?", args[0])) {
				fmt.Fprintln(a.out, "Cancelled")
				return nil
			}
			if err := a.api.DeactivateMinutes(cmd.Context(), args[0]); err != nil {
				a.notifier.Notify(notify.LevelError, "Failed to deactivate minutes")
				return err
			}
			a.notifier.Notify(notify.LevelSuccess, "Minutes deactivated")
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip confirmation")
	return cmd
}
