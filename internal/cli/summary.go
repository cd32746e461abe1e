package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/investtrack/internal/store"
	"github.com/mesh-intelligence/investtrack/pkg/types"
)

func newSummaryCmd(a *app) *cobra.Command {
	var currency string
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Aggregate the latest entry of every active investment",
		Long: `Summary sums total invested, obtained and benefit over the last entry of
each active investment. Amounts are added as plain numbers; investments in
different currencies are not converted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withInvestments(cmd.Context(), func(s *store.Store, invs []*types.Investment) error {
				sum := types.Summarize(invs, s.Now())
				if a.flags.jsonMode {
					return printJSON(cmd.OutOrStdout(), sum)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, "invested:     ", formatMoney(sum.Invested, currency))
				fmt.Fprintln(out, "obtained:     ", formatMoney(sum.Obtained, currency))
				fmt.Fprintln(out, "benefit:      ", formatMoney(sum.Benefit, currency))
				fmt.Fprintln(out, "profitability:", formatRatio(sum.Profitability))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&currency, "currency", "EUR", "currency code used to display totals")
	return cmd
}
