package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dukerupert/callagent/internal/pagination"
)

func newLeadsCmd(a *app) *cobra.Command {
	var (
		refresh       bool
		page, perPage int
	)
	cmd := &cobra.Command{
		Use:   "leads",
		Short: "List captured leads",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			leads, err := a.api.ListLeads(cmd.Context(), refresh)
			if err != nil {
				return err
			}
			p := pagination.New(len(leads), perPage, page)
			tw := newTable(a.out, "NAME", "PHONE", "EMAIL", "STATUS", "SOURCE", "CREATED")
			for _, l := range pagination.Slice(leads, p) {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
					l.Name, orDash(l.Phone), orDash(l.Email), orDash(l.Status), orDash(l.Source), formatTime(l.CreatedAt))
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
