package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/investtrack/internal/store"
	"github.com/mesh-intelligence/investtrack/pkg/types"
)

func newShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <investment>",
		Short: "Show an investment with its entries and forecasts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withInvestments(cmd.Context(), func(s *store.Store, invs []*types.Investment) error {
				inv, err := findInvestment(invs, args[0])
				if err != nil {
					return userErr(err)
				}
				if a.flags.jsonMode {
					return printJSON(cmd.OutOrStdout(), inv)
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "%s (#%d)\n", inv.Name, inv.ID)
				if inv.Description != "" {
					fmt.Fprintln(out, inv.Description)
				}
				fmt.Fprintf(out, "currency: %s  start: %s  end: %s  reinvested: %t  active: %t\n\n",
					inv.Currency, formatDate(inv.Start), formatDate(inv.End), inv.Reinvested, inv.IsActive(s.Now()))

				w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "ENTRY\tDATE\tINITIAL\tREINVESTED\tPROFITABILITY\tOBTAINED\tBENEFIT\tCOMMENTS")
				for _, e := range inv.Entries {
					fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
						e.ID, formatDate(&e.Date),
						formatMoney(e.InitialInvested(), inv.Currency),
						formatMoney(e.ReinvestedAmount(), inv.Currency),
						formatRatio(e.Profitability()),
						formatMoney(e.Obtained(), inv.Currency),
						formatMoney(e.Benefit(), inv.Currency),
						e.Comments)
				}
				if err := w.Flush(); err != nil {
					return err
				}

				if len(inv.Forecasts) == 0 {
					return nil
				}
				fmt.Fprintln(out)
				return writeForecasts(out, inv.Forecasts)
			})
		},
	}
}
