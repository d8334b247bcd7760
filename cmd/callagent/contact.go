package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dukerupert/callagent/internal/contact"
	"github.com/dukerupert/callagent/internal/notify"
)

func newContactCmd(a *app) *cobra.Command {
	var s contact.Submission
	var enterprise bool
	cmd := &cobra.Command{
		Use:   "contact",
		Short: "Send a contact or enterprise inquiry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := a.contactClient()
			if !c.Configured() {
				return fmt.Errorf("set web3forms.access_key or NEXT_PUBLIC_WEB3FORMS_ACCESS_KEY")
			}
			s.Kind = contact.KindContact
			if enterprise {
				s.Kind = contact.KindEnterprise
			}
			if err := c.Submit(cmd.Context(), s); err != nil {
				a.notifier.Notify(notify.LevelError, "Message not sent")
				return err
			}
			a.notifier.Notify(notify.LevelSuccess, "Message sent. We'll be in touch soon.")
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&s.Name, "name", "", "your name")
	f.StringVar(&s.Email, "email", "", "reply address")
	f.StringVar(&s.Company, "company", "", "company")
	f.StringVar(&s.Phone, "phone", "", "phone")
	f.StringVar(&s.Subject, "subject", "", "subject")
	f.StringVar(&s.Message, "message", "", "message")
	f.StringVar(&s.CallVolume, "call-volume", "", "expected monthly call volume")
	f.BoolVar(&enterprise, "enterprise", false, "send as an enterprise inquiry")
	return cmd
}
