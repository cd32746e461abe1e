package cli

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/investtrack/internal/store"
	"github.com/mesh-intelligence/investtrack/pkg/types"
)

func newEntryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "entry",
		Short: "Record or remove dated entries of an investment",
	}
	cmd.AddCommand(newEntryAddCmd(a))
	cmd.AddCommand(newEntryUpdateCmd(a))
	cmd.AddCommand(newEntryDeleteCmd(a))
	return cmd
}

func newEntryAddCmd(a *app) *cobra.Command {
	var date, initial, reinvested, profitability, comments string
	cmd := &cobra.Command{
		Use:   "add <investment>",
		Short: "Append an entry to an investment",
		Long: `Add appends an entry. Amounts accept plain numbers ("1000.50") or
spreadsheet text ("1.000,50 €"). Profitability is a fraction ("0.05") or a
percentage ("5%").`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := parseDate(date)
			if err != nil {
				return userErr(err)
			}
			ini, err := parseAmount(initial)
			if err != nil {
				return userErr(err)
			}
			rei, err := parseAmount(reinvested)
			if err != nil {
				return userErr(err)
			}
			prof, err := parseRatio(profitability)
			if err != nil {
				return userErr(err)
			}

			var added *types.InvestmentEntry
			err = a.mutate(cmd.Context(), func(s *store.Store, invs []*types.Investment) ([]*types.Investment, error) {
				inv, err := findInvestment(invs, args[0])
				if err != nil {
					return nil, userErr(err)
				}
				when := s.Now()
				if d != nil {
					when = *d
				}
				e := types.NewInvestmentEntry(when, ini, rei, prof, comments)
				e.ID = s.Sequence().Entries.Next()
				inv.AddEntry(e)
				added = e
				return invs, nil
			})
			if err != nil {
				return err
			}
			return report(a, cmd, added, "added entry #%d to %q\n", added.ID, args[0])
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "entry date (yyyy-mm-dd, default now)")
	cmd.Flags().StringVar(&initial, "initial", "", "initial amount invested")
	cmd.Flags().StringVar(&reinvested, "reinvested", "", "amount reinvested")
	cmd.Flags().StringVar(&profitability, "profitability", "", "profitability as a fraction or percentage")
	cmd.Flags().StringVar(&comments, "comments", "", "free-text comments")
	_ = cmd.MarkFlagRequired("initial")
	return cmd
}

// findEntry returns the entry of inv with the given id.
func findEntry(inv *types.Investment, id int64) (*types.InvestmentEntry, error) {
	for _, e := range inv.Entries {
		if e.ID == id {
			return e, nil
		}
	}
	return nil, fmt.Errorf("entry %d of %q: %w", id, inv.Name, types.ErrNotFound)
}

func newEntryUpdateCmd(a *app) *cobra.Command {
	var date, initial, reinvested, profitability, comments string
	cmd := &cobra.Command{
		Use:   "update <investment> <entry-id>",
		Short: "Change fields of an entry",
		Long: `Update changes only the fields given as flags. Obtained amount and
benefit are recomputed from the new amounts.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return userErr(fmt.Errorf("invalid entry id %q", args[1]))
			}
			changed := cmd.Flags().Changed

			var updated *types.InvestmentEntry
			err = a.mutate(cmd.Context(), func(_ *store.Store, invs []*types.Investment) ([]*types.Investment, error) {
				inv, err := findInvestment(invs, args[0])
				if err != nil {
					return nil, userErr(err)
				}
				e, err := findEntry(inv, id)
				if err != nil {
					return nil, userErr(err)
				}

				ini, rei, prof := e.InitialInvested(), e.ReinvestedAmount(), e.Profitability()
				if changed("initial") {
					if ini, err = parseAmount(initial); err != nil {
						return nil, userErr(err)
					}
				}
				if changed("reinvested") {
					if rei, err = parseAmount(reinvested); err != nil {
						return nil, userErr(err)
					}
				}
				if changed("profitability") {
					if prof, err = parseRatio(profitability); err != nil {
						return nil, userErr(err)
					}
				}
				if changed("date") {
					d, err := parseDate(date)
					if err != nil {
						return nil, userErr(err)
					}
					if d == nil {
						return nil, userErr(errors.New("entry date cannot be empty"))
					}
					e.Date = *d
				}
				if changed("comments") {
					e.Comments = comments
				}
				e.SetAmounts(ini, rei, prof)
				updated = e
				return invs, nil
			})
			if err != nil {
				return err
			}
			return report(a, cmd, updated, "updated entry #%d of %q\n", updated.ID, args[0])
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "entry date (yyyy-mm-dd)")
	cmd.Flags().StringVar(&initial, "initial", "", "initial amount invested")
	cmd.Flags().StringVar(&reinvested, "reinvested", "", "amount reinvested")
	cmd.Flags().StringVar(&profitability, "profitability", "", "profitability as a fraction or percentage")
	cmd.Flags().StringVar(&comments, "comments", "", "free-text comments")
	return cmd
}

func newEntryDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <investment> <entry-id>",
		Short: "Remove an entry from an investment",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return userErr(fmt.Errorf("invalid entry id %q", args[1]))
			}
			err = a.mutate(cmd.Context(), func(_ *store.Store, invs []*types.Investment) ([]*types.Investment, error) {
				inv, err := findInvestment(invs, args[0])
				if err != nil {
					return nil, userErr(err)
				}
				kept := inv.Entries[:0]
				for _, e := range inv.Entries {
					if e.ID != id {
						kept = append(kept, e)
					}
				}
				if len(kept) == len(inv.Entries) {
					return nil, userErr(fmt.Errorf("entry %d of %q: %w", id, inv.Name, types.ErrNotFound))
				}
				inv.Entries = kept
				return invs, nil
			})
			if err != nil {
				return err
			}
			return report(a, cmd, map[string]any{"investment": args[0], "deleted_entry": id},
				"deleted entry #%d from %q\n", id, args[0])
		},
	}
}
