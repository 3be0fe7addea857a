package cli

import (
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/helptoken/helptoken/internal/app/bootstrap"
	"github.com/helptoken/helptoken/internal/authz"
	"github.com/helptoken/helptoken/internal/metrics"
	"github.com/helptoken/helptoken/internal/models"
	"github.com/helptoken/helptoken/internal/rabbitmq"
	"github.com/helptoken/helptoken/internal/services/settlement"
)

func newSettlementsCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settlements",
		Short: "Inspect and retry ledger settlement records",
	}
	cmd.AddCommand(newSettlementsListCommand(a), newSettlementsRetryCommand(a))
	return cmd
}

func newSettlementsListCommand(a *app) *cobra.Command {
	var (
		status string
		limit  int
		offset int
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List settlement records, optionally filtered by status",
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, err := a.identity()
			if err != nil {
				return err
			}
			cfg, err := a.config()
			if err != nil {
				return err
			}
			store, err := a.openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			rec := bootstrap.Reconciler(cfg, a.logger(cmd.ErrOrStderr()), store, nil, authz.NewGuard(), metrics.NewNoop())
			records, err := rec.List(cmd.Context(), id, models.SettlementStatus(status), limit, offset)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tSESSION\tSTATUS\tATTEMPTS\tNEXT ATTEMPT\tLAST ERROR")
			for _, r := range records {
				fmt.Fprintf(w, "%d\t%d\t%s\t%d\t%s\t%s\n",
					r.ID, r.SessionID, r.Status, r.Attempts, r.NextAttemptAt.Format(time.RFC3339), r.LastError)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "pending, confirmed or failed")
	cmd.Flags().IntVar(&limit, "limit", 50, "page size")
	cmd.Flags().IntVar(&offset, "offset", 0, "page offset")
	return cmd
}

func newSettlementsRetryCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "retry SETTLEMENT_ID",
		Short: "Reset a failed settlement record so it is attempted again",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settlementID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid settlement id %q: %w", args[0], err)
			}
			id, err := a.identity()
			if err != nil {
				return err
			}
			cfg, err := a.config()
			if err != nil {
				return err
			}
			store, err := a.openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			log := a.logger(cmd.ErrOrStderr())
			rec := bootstrap.Reconciler(cfg, log, store, nil, authz.NewGuard(), metrics.NewNoop())
			if cfg.RabbitMQ.URL != "" {
				conn, err := rabbitmq.Connect(cfg.RabbitMQ.URL, 1, 0)
				if err != nil {
					return err
				}
				defer conn.Close()
				ch, err := rabbitmq.SetupChannel(conn, cfg.Exchange, rabbitmq.SettlementQueues(cfg.Queue, cfg.RoutingKey))
				if err != nil {
					return err
				}
				defer ch.Close()
				rec.NotifyRetriesVia(settlement.NewQueueNotifier(ch, cfg.Exchange, cfg.RoutingKey))
			}

			r, err := rec.Retry(cmd.Context(), id, settlementID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "settlement %d is pending again (session %d)\n", r.ID, r.SessionID)
			return nil
		},
	}
}
