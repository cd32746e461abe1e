package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/investtrack/internal/store"
	"github.com/mesh-intelligence/investtrack/pkg/types"
)

// investmentFlags are the editable fields of an investment.
type investmentFlags struct {
	name        string
	description string
	currency    string
	start       string
	end         string
	reinvested  bool
}

func (f *investmentFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.description, "description", "", "free-text description")
	cmd.Flags().StringVar(&f.currency, "currency", "EUR", "ISO currency code")
	cmd.Flags().StringVar(&f.start, "start", "", "start date (yyyy-mm-dd)")
	cmd.Flags().StringVar(&f.end, "end", "", "end date (yyyy-mm-dd), empty while active")
	cmd.Flags().BoolVar(&f.reinvested, "reinvested", false, "gains are reinvested")
}

// apply copies the flags the user set onto inv.
func (f *investmentFlags) apply(cmd *cobra.Command, inv *types.Investment) error {
	changed := cmd.Flags().Changed
	if changed("name") {
		inv.Name = f.name
	}
	if changed("description") {
		inv.Description = f.description
	}
	if changed("currency") || inv.Currency == "" {
		inv.Currency = f.currency
	}
	if changed("start") {
		t, err := parseDate(f.start)
		if err != nil {
			return err
		}
		inv.Start = t
	}
	if changed("end") {
		t, err := parseDate(f.end)
		if err != nil {
			return err
		}
		inv.End = t
	}
	if changed("reinvested") {
		inv.Reinvested = f.reinvested
	}
	return nil
}

func newInvestmentCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "investment",
		Aliases: []string{"inv"},
		Short:   "Add, update or delete investments",
	}
	cmd.AddCommand(newInvestmentAddCmd(a))
	cmd.AddCommand(newInvestmentUpdateCmd(a))
	cmd.AddCommand(newInvestmentDeleteCmd(a))
	return cmd
}

func newInvestmentAddCmd(a *app) *cobra.Command {
	var f investmentFlags
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add an investment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var added *types.Investment
			err := a.mutate(cmd.Context(), func(s *store.Store, invs []*types.Investment) ([]*types.Investment, error) {
				if _, err := findInvestment(invs, args[0]); err == nil {
					return nil, userErr(fmt.Errorf("%w: %q", types.ErrDuplicateName, args[0]))
				}
				inv := &types.Investment{Name: args[0]}
				if err := f.apply(cmd, inv); err != nil {
					return nil, userErr(err)
				}
				if inv.Start == nil {
					now := s.Now()
					inv.Start = &now
				}
				inv.ID = s.Sequence().Investments.Next()
				added = inv
				return append(invs, inv), nil
			})
			if err != nil {
				return err
			}
			return report(a, cmd, added, "added investment %q (#%d)\n", added.Name, added.ID)
		},
	}
	f.register(cmd)
	return cmd
}

func newInvestmentUpdateCmd(a *app) *cobra.Command {
	var f investmentFlags
	cmd := &cobra.Command{
		Use:   "update <name>",
		Short: "Change fields of an investment",
		Long: `Update changes only the fields given as flags. Renaming moves the entries
to a table under the new name; the old entries table is deleted by the same
write.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var updated *types.Investment
			err := a.mutate(cmd.Context(), func(s *store.Store, invs []*types.Investment) ([]*types.Investment, error) {
				inv, err := findInvestment(invs, args[0])
				if err != nil {
					return nil, userErr(err)
				}
				if f.name != "" && f.name != inv.Name {
					if _, err := findInvestment(invs, f.name); err == nil {
						return nil, userErr(fmt.Errorf("%w: %q", types.ErrDuplicateName, f.name))
					}
				}
				if err := f.apply(cmd, inv); err != nil {
					return nil, userErr(err)
				}
				updated = inv
				return invs, nil
			})
			if err != nil {
				return err
			}
			return report(a, cmd, updated, "updated investment %q (#%d)\n", updated.Name, updated.ID)
		},
	}
	f.register(cmd)
	cmd.Flags().StringVar(&f.name, "name", "", "new name")
	return cmd
}

func newInvestmentDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete an investment with its entries and forecasts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var deleted *types.Investment
			err := a.mutate(cmd.Context(), func(_ *store.Store, invs []*types.Investment) ([]*types.Investment, error) {
				inv, err := findInvestment(invs, args[0])
				if err != nil {
					return nil, userErr(err)
				}
				deleted = inv
				out := make([]*types.Investment, 0, len(invs)-1)
				for _, other := range invs {
					if other != inv {
						out = append(out, other)
					}
				}
				return out, nil
			})
			if err != nil {
				return err
			}
			return report(a, cmd, deleted, "deleted investment %q (#%d)\n", deleted.Name, deleted.ID)
		},
	}
}

// report prints v as JSON in --json mode and the formatted message otherwise.
func report(a *app, cmd *cobra.Command, v any, format string, args ...any) error {
	if a.flags.jsonMode {
		return printJSON(cmd.OutOrStdout(), v)
	}
	_, err := fmt.Fprintf(cmd.OutOrStdout(), format, args...)
	return err
}
