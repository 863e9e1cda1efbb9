package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	financeservices "github.com/iota-uz/precinct/modules/finance/services"
	"github.com/iota-uz/precinct/pkg/authz"
	"github.com/iota-uz/precinct/pkg/composables"
)

func newLedgerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Treasury ledger maintenance",
	}
	cmd.AddCommand(newLedgerVerifyCmd())
	return cmd
}

type ledgerOutput struct {
	Tenant     string `json:"tenant"`
	Consistent bool   `json:"consistent"`
	Pools      any    `json:"pools"`
}

func newLedgerVerifyCmd() *cobra.Command {
	var tenantID string
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check that stored balances equal the ledger sums",
		RunE: func(cmd *cobra.Command, args []string) error {
			tid, err := uuid.Parse(tenantID)
			if err != nil {
				return fmt.Errorf("invalid --tenant: %w", err)
			}
			rt, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			ctx := composables.WithTenantID(cmd.Context(), tid)
			if rt.pool != nil {
				ctx = composables.WithPool(ctx, rt.pool)
			}
			svc := rt.app.Service(financeservices.TreasuryService{}).(*financeservices.TreasuryService)
			result, err := svc.VerifyLedger(ctx, authz.System(tid))
			if err != nil {
				return err
			}
			ok := financeservices.Consistent(result)
			if err := writeJSON(ledgerOutput{Tenant: tid.String(), Consistent: ok, Pools: result}); err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("ledger drift detected for tenant %s", tid)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&tenantID, "tenant", "", "Tenant UUID (required)")
	_ = cmd.MarkFlagRequired("tenant")
	return cmd
}
