package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dukerupert/callagent/internal/auth"
	"github.com/dukerupert/callagent/internal/notify"
)

func newLoginCmd(a *app) *cobra.Command {
	var username, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in as a super admin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if username == "" {
				username = a.readLine("Username: ")
			}
			if password == "" {
				password = a.readLine("Password: ")
			}
			if username == "" || password == "" {
				return errors.New("username and password are required")
			}

			resp, err := a.api.Login(cmd.Context(), username, password)
			if err != nil {
				a.notifier.Notify(notify.LevelError, "Login failed")
				return err
			}
			sess, err := a.auth.Save(cmd.Context(), *resp)
			if err != nil {
				return err
			}
			a.notifier.Notify(notify.LevelSuccess, fmt.Sprintf("Signed in as %s", sess.User.Username))
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "admin username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "admin password (prompted when omitted)")
	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.auth.Logout(cmd.Context()); err != nil {
				return err
			}
			a.notifier.Notify(notify.LevelSuccess, "Signed out")
			return nil
		},
	}
}

// requireAdmin rejects a command unless setup loaded a super-admin session.
func requireAdmin(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if _, ok := auth.FromContext(ctx); !ok {
		return fmt.Errorf("%w: run callagent login", auth.ErrNotAuthenticated)
	}
	if !auth.IsSuperAdmin(ctx) {
		return fmt.Errorf("%s is not a super admin", orDash(auth.Username(ctx)))
	}
	return nil
}

func newWhoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in admin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, ok := auth.FromContext(cmd.Context())
			if !ok {
				fmt.Fprintln(a.out, "Not signed in")
				return nil
			}
			fmt.Fprintf(a.out, "User:      %s\n", orDash(auth.Username(cmd.Context())))
			fmt.Fprintf(a.out, "Role:      %s\n", orDash(sess.User.Role))
			fmt.Fprintf(a.out, "Signed in: %s\n", formatTime(sess.IssuedAt()))
			return nil
		},
	}
}
