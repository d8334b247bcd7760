package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "callagent",
		Short: "Admin console for the CallAgent AI platform",
		Long: `callagent manages organizations, call-minute balances, announcements,
call history, leads and calendar bookings on a CallAgent AI backend.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}
	root.SetIn(a.in)
	root.SetOut(a.out)
	root.SetErr(a.errOut)

	root.PersistentFlags().StringVarP(&a.cfgFile, "config", "c", "", "config file (default is $XDG_CONFIG_HOME/callagent/callagent.yaml)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")
	root.PersistentFlags().BoolVarP(&a.quiet, "quiet", "q", false, "send notifications to the log instead of the terminal")

	root.AddCommand(
		newLoginCmd(a),
		newLogoutCmd(a),
		newWhoamiCmd(a),
		newOrgsCmd(a),
		newMinutesCmd(a),
		newAnnouncementsCmd(a),
		newCallsCmd(a),
		newLeadsCmd(a),
		newCalendarCmd(a),
		newWatchCmd(a),
		newContactCmd(a),
	)
	return root
}
