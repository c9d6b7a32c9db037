package commands

import (
	"context"
	"encoding/csv"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/budgetbook/internal/mappings"
	"github.com/cleared-dev/budgetbook/internal/model"
)

func newMappingsCommand(dataDir *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mappings",
		Short: "Inspect and extend the merchant mappings",
	}
	cmd.AddCommand(newMappingsListCommand(dataDir), newMappingsAddCommand(dataDir))
	return cmd
}

func newMappingsListCommand(dataDir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List mappings in match order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), *dataDir, cmd.ErrOrStderr(), func(ctx context.Context, a *app) error {
				all, err := a.mappings.LoadAll(ctx)
				if err != nil {
					return err
				}
				w := csv.NewWriter(cmd.OutOrStdout())
				for _, m := range all {
					if err := w.Write(mappings.MarshalMapping(m)); err != nil {
						return err
					}
				}
				w.Flush()
				return w.Error()
			})
		},
	}
}

func newMappingsAddCommand(dataDir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "add <fragment> <category> <subcategory>",
		Short: "Append a mapping",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			m := model.CategoryMapping{MerchantFragment: args[0], Category: args[1], SubCategory: args[2]}
			return withApp(cmd.Context(), *dataDir, cmd.ErrOrStderr(), func(ctx context.Context, a *app) error {
				if err := mappings.Validate(m); err != nil {
					return err
				}
				if !a.categories.Exists(m.Category, m.SubCategory) {
					return fmt.Errorf("unknown subcategory %s/%s", m.Category, m.SubCategory)
				}
				if err := a.mappings.Append(ctx, m); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added mapping %q -> %s/%s\n", m.MerchantFragment, m.Category, m.SubCategory)
				return nil
			})
		},
	}
}
