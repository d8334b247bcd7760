package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dukerupert/callagent/internal/model"
	"github.com/dukerupert/callagent/internal/notify"
	"github.com/dukerupert/callagent/internal/pagination"
)

func newOrgsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "orgs",
		Aliases: []string{"organizations"},
		Short:   "Manage organizations",
	}
	cmd.AddCommand(newOrgsListCmd(a), newOrgsShowCmd(a), newOrgsUpdateCmd(a))
	return cmd
}

func newOrgsListCmd(a *app) *cobra.Command {
	var (
		refresh       bool
		page, perPage int
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List organizations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			orgs, err := a.api.ListOrganizations(cmd.Context(), refresh)
			if err != nil {
				return err
			}
			p := pagination.New(len(orgs), perPage, page)

			tw := newTable(a.out, "ID", "NAME", "EMAIL", "STATUS", "CREATED")
			for _, o := range pagination.Slice(orgs, p) {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", o.ID, o.Name, orDash(o.Email), activeLabel(o.IsActive), formatTime(o.CreatedAt))
			}
			tw.Flush()
			fmt.Fprintln(a.out, pageFooter(p))
			return nil
		},
	}
	cmd.Flags().BoolVar(&refresh, "refresh", false, "bypass the cache")
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().IntVar(&perPage, "per-page", pagination.DefaultItemsPerPage, "items per page")
	return cmd
}

func newOrgsShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <org-id>",
		Short: "Show an organization and its minute balance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			org, err := a.api.GetOrganization(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			bal, err := a.api.OrganizationMinutes(cmd.Context(), org.ID)
			if err != nil {
				a.logger.Warn("minutes unavailable", "error", err)
			}

			fmt.Fprintf(a.out, "%s\n", headerStyle.Render(org.Name))
			fmt.Fprintf(a.out, "ID:      %s\n", org.ID)
			fmt.Fprintf(a.out, "Email:   %s\n", orDash(org.Email))
			fmt.Fprintf(a.out, "Phone:   %s\n", orDash(org.Phone))
			fmt.Fprintf(a.out, "Status:  %s\n", activeLabel(org.IsActive))
			fmt.Fprintf(a.out, "Created: %s\n", formatTime(org.CreatedAt))
			fmt.Fprintf(a.out, "Minutes: %s\n", renderBalance(org.ID, bal))
			return nil
		},
	}
}

func newOrgsUpdateCmd(a *app) *cobra.Command {
	var name, email, phone, status string
	var active, inactive bool
	cmd := &cobra.Command{
		Use:     "update <org-id>",
		Short:   "Update organization details",
		Args:    cobra.ExactArgs(1),
		PreRunE: requireAdmin,
		RunE: func(cmd *cobra.Command, args []string) error {
			var upd model.OrganizationUpdate
			flags := cmd.Flags()
			if flags.Changed("name") {
				upd.Name = &name
			}
			if flags.Changed("email") {
				upd.Email = &email
			}
			if flags.Changed("phone") {
				upd.Phone = &phone
			}
			if flags.Changed("status") {
				upd.Status = &status
			}
			switch {
			case active && inactive:
				return errors.New("--active and --inactive are mutually exclusive")
			case active:
				upd.IsActive = &active
			case inactive:
				v := false
				upd.IsActive = &v
			}
			if upd == (model.OrganizationUpdate{}) {
				return errors.New("nothing to update")
			}

			org, err := a.api.UpdateOrganization(cmd.Context(), args[0], upd)
			if err != nil {
				a.notifier.Notify(notify.LevelError, "Failed to update organization")
				return err
			}
			a.notifier.Notify(notify.LevelSuccess, fmt.Sprintf("Updated %s", org.Name))
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "organization name")
	cmd.Flags().StringVar(&email, "email", "", "contact email")
	cmd.Flags().StringVar(&phone, "phone", "", "contact phone")
	cmd.Flags().StringVar(&status, "status", "", "status label")
	cmd.Flags().BoolVar(&active, "active", false, "mark active")
	cmd.Flags().BoolVar(&inactive, "inactive", false, "mark inactive")
	return cmd
}
