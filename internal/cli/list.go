package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/investtrack/internal/store"
	"github.com/mesh-intelligence/investtrack/pkg/types"
)

func newListCmd(a *app) *cobra.Command {
	var activeOnly bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List investments with their latest amounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withInvestments(cmd.Context(), func(s *store.Store, invs []*types.Investment) error {
				now := s.Now()
				shown := make([]*types.Investment, 0, len(invs))
				for _, inv := range invs {
					if activeOnly && !inv.IsActive(now) {
						continue
					}
					shown = append(shown, inv)
				}

				if a.flags.jsonMode {
					return printJSON(cmd.OutOrStdout(), shown)
				}

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tNAME\tSTART\tEND\tACTIVE\tINVESTED\tOBTAINED\tPROFITABILITY")
				for _, inv := range shown {
					invested, obtained, profit := "-", "-", "-"
					if last := inv.LastEntry(); last != nil {
						invested = formatMoney(last.TotalInvested(), inv.Currency)
						obtained = formatMoney(last.Obtained(), inv.Currency)
						profit = formatRatio(last.Profitability())
					}
					fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%t\t%s\t%s\t%s\n",
						inv.ID, inv.Name, formatDate(inv.Start), formatDate(inv.End),
						inv.IsActive(now), invested, obtained, profit)
				}
				return w.Flush()
			})
		},
	}
	cmd.Flags().BoolVar(&activeOnly, "active", false, "only show investments that have not ended")
	return cmd
}
