package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/helptoken/helptoken/internal/authz"
	"github.com/helptoken/helptoken/internal/metrics"
	"github.com/helptoken/helptoken/internal/models"
	"github.com/helptoken/helptoken/internal/services/accounting"
)

func newAuditCommand(a *app) *cobra.Command {
	var userUID string
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Compare stored balances with the transaction journal",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.config()
			if err != nil {
				return err
			}
			store, err := a.openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			engine := accounting.NewEngine(a.logger(cmd.ErrOrStderr()), store, authz.NewGuard(), metrics.NewNoop())

			var mismatches []models.AuditResult
			if userUID != "" {
				res, err := engine.Audit(cmd.Context(), userUID)
				if err != nil {
					return err
				}
				if res.Mismatch {
					mismatches = append(mismatches, *res)
				}
			} else {
				mismatches, err = engine.AuditAll(cmd.Context())
				if err != nil {
					return err
				}
			}

			if len(mismatches) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "all balances match the journal")
				return nil
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "USER\tBALANCE\tJOURNAL")
			for _, m := range mismatches {
				fmt.Fprintf(w, "%s\t%s\t%s\n", m.UserUID, m.Balance, m.Journal)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			return fmt.Errorf("%d balance(s) do not match the journal", len(mismatches))
		},
	}
	cmd.Flags().StringVar(&userUID, "user", "", "audit a single user uid")
	return cmd
}
