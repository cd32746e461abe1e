package cli

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/investtrack/internal/codec"
	"github.com/mesh-intelligence/investtrack/internal/store"
	"github.com/mesh-intelligence/investtrack/pkg/types"
)

func newForecastCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "forecast",
		Short: "Manage scenario forecasts of investments",
	}
	cmd.AddCommand(newForecastAddCmd(a))
	cmd.AddCommand(newForecastUpdateCmd(a))
	cmd.AddCommand(newForecastDeleteCmd(a))
	cmd.AddCommand(newForecastListCmd(a))
	return cmd
}

// parseRates converts SCENARIO=ratio flag pairs into scenario rates.
func parseRates(in map[string]string) (map[types.Scenario]float64, error) {
	rates := make(map[types.Scenario]float64, len(in))
	for k, v := range in {
		sc, err := types.ParseScenario(k)
		if err != nil {
			return nil, err
		}
		r, err := parseRatio(v)
		if err != nil {
			return nil, err
		}
		rates[sc] = r
	}
	return rates, nil
}

func newForecastAddCmd(a *app) *cobra.Command {
	var name, start, end string
	var rates map[string]string
	cmd := &cobra.Command{
		Use:   "add <investment>",
		Short: "Attach a forecast to an investment",
		Long: `Add attaches a forecast. Rates are given per scenario, for example
  --rate PESSIMIST=-2% --rate NEUTRAL=0.03 --rate OPTIMIST=8%
Scenarios left out default to zero.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sr, err := parseRates(rates)
			if err != nil {
				return userErr(err)
			}
			from, err := parseDate(start)
			if err != nil {
				return userErr(err)
			}
			to, err := parseDate(end)
			if err != nil {
				return userErr(err)
			}

			var added *types.Forecast
			err = a.mutate(cmd.Context(), func(s *store.Store, invs []*types.Investment) ([]*types.Investment, error) {
				inv, err := findInvestment(invs, args[0])
				if err != nil {
					return nil, userErr(err)
				}
				now := s.Now()
				f := &types.Forecast{
					ID:            s.Sequence().Forecasts.Next(),
					Name:          name,
					Start:         from,
					End:           to,
					ScenarioRates: sr,
					CreatedAt:     &now,
					UpdatedAt:     &now,
				}
				f.Normalize()
				inv.AddForecast(f)
				added = f
				return invs, nil
			})
			if err != nil {
				return err
			}
			return report(a, cmd, added, "added forecast #%d to %q\n", added.ID, args[0])
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "forecast name")
	cmd.Flags().StringVar(&start, "start", "", "projection start (yyyy-mm-dd)")
	cmd.Flags().StringVar(&end, "end", "", "projection end (yyyy-mm-dd)")
	cmd.Flags().StringToStringVar(&rates, "rate", nil, "scenario rate as SCENARIO=ratio, repeatable")
	return cmd
}

// findForecast returns the forecast of inv with the given id.
func findForecast(inv *types.Investment, id int64) (*types.Forecast, error) {
	for _, f := range inv.Forecasts {
		if f.ID == id {
			return f, nil
		}
	}
	return nil, fmt.Errorf("forecast %d of %q: %w", id, inv.Name, types.ErrNotFound)
}

func newForecastUpdateCmd(a *app) *cobra.Command {
	var name, start, end string
	var rates map[string]string
	cmd := &cobra.Command{
		Use:   "update <investment> <forecast-id>",
		Short: "Change fields of a forecast",
		Long: `Update changes only the fields given as flags. Each --rate replaces the
rate of its scenario; other scenarios keep theirs. The update time is set to
now.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return userErr(fmt.Errorf("invalid forecast id %q", args[1]))
			}
			sr, err := parseRates(rates)
			if err != nil {
				return userErr(err)
			}
			changed := cmd.Flags().Changed
			var from, to *time.Time
			if changed("start") {
				if from, err = parseDate(start); err != nil {
					return userErr(err)
				}
			}
			if changed("end") {
				if to, err = parseDate(end); err != nil {
					return userErr(err)
				}
			}

			var updated *types.Forecast
			err = a.mutate(cmd.Context(), func(s *store.Store, invs []*types.Investment) ([]*types.Investment, error) {
				inv, err := findInvestment(invs, args[0])
				if err != nil {
					return nil, userErr(err)
				}
				f, err := findForecast(inv, id)
				if err != nil {
					return nil, userErr(err)
				}
				if changed("name") {
					f.Name = name
				}
				if changed("start") {
					f.Start = from
				}
				if changed("end") {
					f.End = to
				}
				f.Normalize()
				for sc, r := range sr {
					f.ScenarioRates[sc] = r
				}
				now := s.Now()
				f.UpdatedAt = &now
				updated = f
				return invs, nil
			})
			if err != nil {
				return err
			}
			return report(a, cmd, updated, "updated forecast #%d of %q\n", updated.ID, args[0])
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "forecast name")
	cmd.Flags().StringVar(&start, "start", "", "projection start (yyyy-mm-dd), empty to clear")
	cmd.Flags().StringVar(&end, "end", "", "projection end (yyyy-mm-dd), empty to clear")
	cmd.Flags().StringToStringVar(&rates, "rate", nil, "scenario rate as SCENARIO=ratio, repeatable")
	return cmd
}

func newForecastDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <investment> <forecast-id>",
		Short: "Remove a forecast from an investment",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return userErr(fmt.Errorf("invalid forecast id %q", args[1]))
			}
			err = a.mutate(cmd.Context(), func(_ *store.Store, invs []*types.Investment) ([]*types.Investment, error) {
				inv, err := findInvestment(invs, args[0])
				if err != nil {
					return nil, userErr(err)
				}
				kept := make([]*types.Forecast, 0, len(inv.Forecasts))
				for _, f := range inv.Forecasts {
					if f.ID != id {
						kept = append(kept, f)
					}
				}
				if len(kept) == len(inv.Forecasts) {
					return nil, userErr(fmt.Errorf("forecast %d of %q: %w", id, inv.Name, types.ErrNotFound))
				}
				inv.Forecasts = kept
				return invs, nil
			})
			if err != nil {
				return err
			}
			return report(a, cmd, map[string]any{"investment": args[0], "deleted_forecast": id},
				"deleted forecast #%d from %q\n", id, args[0])
		},
	}
}

func newForecastListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every row of the forecasts table",
		Long: `List reads the forecasts table on its own, including forecasts whose
investment no longer exists.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, closeFn, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			forecasts, err := s.ReadForecasts(cmd.Context())
			if err != nil {
				return fmt.Errorf("read forecasts: %w", err)
			}
			sort.SliceStable(forecasts, func(i, j int) bool { return forecasts[i].ID < forecasts[j].ID })
			if a.flags.jsonMode {
				return printJSON(cmd.OutOrStdout(), forecasts)
			}
			return writeForecasts(cmd.OutOrStdout(), forecasts)
		},
	}
}

// writeForecasts prints forecasts as a table.
func writeForecasts(out io.Writer, forecasts []*types.Forecast) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "FORECAST\tINVESTMENT\tNAME\tSTART\tEND\tRATES")
	for _, f := range forecasts {
		fmt.Fprintf(w, "%d\t%d\t%s\t%s\t%s\t%s\n",
			f.ID, f.InvestmentID, f.Name, formatDate(f.Start), formatDate(f.End),
			codec.FormatScenarioRates(f.ScenarioRates))
	}
	return w.Flush()
}
