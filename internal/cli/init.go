package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/investtrack/internal/store"
	"github.com/mesh-intelligence/investtrack/pkg/types"
)

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a default config and create the investments table",
		Long: `Init writes config.yaml to the config directory when it does not exist,
then reads the store once so a missing investments table is created.
Running it again is harmless.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			written, err := writeConfigIfMissing(a.configDir, a.cfg)
			if err != nil {
				return sysErr(err)
			}

			var n int
			err = a.withInvestments(cmd.Context(), func(_ *store.Store, invs []*types.Investment) error {
				n = len(invs)
				return nil
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if written {
				fmt.Fprintln(out, "wrote config to", a.configDir)
			}
			fmt.Fprintf(out, "%s backend ready, %d investments\n", a.cfg.Backend, n)
			return nil
		},
	}
}
