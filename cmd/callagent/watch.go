package main

import (
	"errors"
	"fmt"
	"sync"

	"github.com/spf13/cobra"

	"github.com/dukerupert/callagent/internal/realtime"
)

func newWatchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch <org-id>...",
		Short: "Stream live minute balances",
		Long: `Prints the current balance of each organization, then every update
pushed by the backend until interrupted. A dropped stream is retried
every 3 seconds, at most 5 times.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			sink := realtime.NewTerminalSink(a.out)

			for _, id := range args {
				bal, err := a.api.OrganizationMinutes(ctx, id)
				if err != nil {
					a.logger.Warn("initial balance unavailable", "organization_id", id, "error", err)
					continue
				}
				sink.OnBalanceUpdate(id, bal)
			}

			m := realtime.NewManager(func(orgID string) (*realtime.Client, error) {
				return realtime.NewClient(a.cfg.API.CallURL, orgID,
					realtime.WithSink(sink),
					realtime.WithNotifier(a.notifier),
					realtime.WithLogger(a.logger),
					realtime.WithHTTPClient(a.streamClient()),
				)
			}, a.logger)
			defer m.CloseAll()

			var clients []*realtime.Client
			for _, id := range args {
				c, err := m.Register(ctx, id)
				if err != nil {
					return fmt.Errorf("watch %s: %w", id, err)
				}
				clients = append(clients, c)
			}

			allDone := make(chan struct{})
			var wg sync.WaitGroup
			for _, c := range clients {
				wg.Add(1)
				go func() {
					defer wg.Done()
					<-c.Done()
				}()
			}
			go func() {
				wg.Wait()
				close(allDone)
			}()

			select {
			case <-ctx.Done():
			case <-allDone:
			}
			// cancellation also ends every stream, so check it first
			if ctx.Err() != nil {
				fmt.Fprintln(a.out, "\nStopping...")
				return nil
			}
			return errors.New("all streams stopped")
		},
	}
}
