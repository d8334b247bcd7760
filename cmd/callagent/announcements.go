package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dukerupert/callagent/internal/model"
	"github.com/dukerupert/callagent/internal/notify"
)

func newAnnouncementsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "announcements",
		Aliases: []string{"ann"},
		Short:   "Manage dashboard announcements",
	}
	cmd.AddCommand(
		newAnnouncementsListCmd(a),
		newAnnouncementsCreateCmd(a),
		newAnnouncementsUpdateCmd(a),
		newAnnouncementsDeleteCmd(a),
	)
	return cmd
}

func newAnnouncementsListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List announcements",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := a.api.ListAnnouncements(cmd.Context())
			if err != nil {
				return err
			}
			if len(list) == 0 {
				fmt.Fprintln(a.out, "No announcements")
				return nil
			}
			tw := newTable(a.out, "ID", "TITLE", "PRIORITY", "STATUS", "UPDATED")
			for _, an := range list {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", an.ID, an.Title, orDash(an.Priority), activeLabel(an.IsActive), formatTime(an.UpdatedAt))
			}
			return tw.Flush()
		},
	}
}

type announcementFlags struct {
	title, content, priority string
	inactive                 bool
}

func (f *announcementFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.title, "title", "", "title")
	cmd.Flags().StringVar(&f.content, "content", "", "body text")
	cmd.Flags().StringVar(&f.priority, "priority", "", "priority: low, normal, high")
	cmd.Flags().BoolVar(&f.inactive, "inactive", false, "hide from the dashboard")
}

func (f *announcementFlags) input() model.AnnouncementInput {
	return model.AnnouncementInput{
		Title:    f.title,
		Content:  f.content,
		Priority: f.priority,
		IsActive: !f.inactive,
	}
}

func newAnnouncementsCreateCmd(a *app) *cobra.Command {
	var f announcementFlags
	cmd := &cobra.Command{
		Use:     "create",
		Short:   "Publish an announcement",
		Args:    cobra.NoArgs,
		PreRunE: requireAdmin,
		RunE: func(cmd *cobra.Command, args []string) error {
			an, err := a.api.CreateAnnouncement(cmd.Context(), f.input())
			if err != nil {
				a.notifier.Notify(notify.LevelError, "Failed to create announcement")
				return err
			}
			a.notifier.Notify(notify.LevelSuccess, fmt.Sprintf("Created announcement %s", an.ID))
			return nil
		},
	}
	f.register(cmd)
	return cmd
}

func newAnnouncementsUpdateCmd(a *app) *cobra.Command {
	var f announcementFlags
	cmd := &cobra.Command{
		Use:     "update <id>",
		Short:   "Replace an announcement",
		Args:    cobra.ExactArgs(1),
		PreRunE: requireAdmin,
		RunE: func(cmd *cobra.Command, args []string) error {
			if f.title == "" {
				return errors.New("--title is required")
			}
			if _, err := a.api.UpdateAnnouncement(cmd.Context(), args[0], f.input()); err != nil {
				a.notifier.Notify(notify.LevelError, "Failed to update announcement")
				return err
			}
			a.notifier.Notify(notify.LevelSuccess, "Announcement updated")
			return nil
		},
	}
	f.register(cmd)
	return cmd
}

func newAnnouncementsDeleteCmd(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:     "delete <id>",
		Short:   "Delete an announcement",
		Args:    cobra.ExactArgs(1),
		PreRunE: requireAdmin,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes && !a.confirm(fmt.Sprintf("Delete announcement %s?", args[0])) {
				fmt.Fprintln(a.out, "Cancelled")
				return nil
			}
			if err := a.api.DeleteAnnouncement(cmd.Context(), args[0]); err != nil {
				a.notifier.Notify(notify.LevelError, "Failed to delete announcement")
				return err
			}
			a.notifier.Notify(notify.LevelSuccess, "Announcement deleted")
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip confirmation")
	return cmd
}
