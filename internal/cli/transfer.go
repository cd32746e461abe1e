// Export and import of the whole store as JSON Lines.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/investtrack/internal/jsonl"
	"github.com/mesh-intelligence/investtrack/internal/store"
	"github.com/mesh-intelligence/investtrack/pkg/types"
)

func newExportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "export <file>",
		Short: "Write every investment to a JSON Lines file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withInvestments(cmd.Context(), func(_ *store.Store, invs []*types.Investment) error {
				if err := jsonl.Export(args[0], invs); err != nil {
					return sysErr(fmt.Errorf("export: %w", err))
				}
				return report(a, cmd, map[string]any{"file": args[0], "investments": len(invs)},
					"exported %d investments to %s\n", len(invs), args[0])
			})
		},
	}
}

func newImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Replace the store contents with a JSON Lines file",
		Long: `Import reads investments from a file written by export and writes them as
the new contents of the store. Tables of investments missing from the file
are deleted. Lines that do not decode are skipped and counted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			imported, skipped, err := jsonl.Import(args[0])
			if err != nil {
				return userErr(fmt.Errorf("import: %w", err))
			}
			err = a.mutate(cmd.Context(), func(_ *store.Store, _ []*types.Investment) ([]*types.Investment, error) {
				return imported, nil
			})
			if err != nil {
				return err
			}
			return report(a, cmd, map[string]any{"file": args[0], "investments": len(imported), "skipped": skipped},
				"imported %d investments from %s (%d lines skipped)\n", len(imported), args[0], skipped)
		},
	}
}
