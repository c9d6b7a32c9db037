package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/cleared-dev/budgetbook/internal/budgets"
	"github.com/cleared-dev/budgetbook/internal/categories"
	"github.com/cleared-dev/budgetbook/internal/config"
	"github.com/cleared-dev/budgetbook/internal/decisions"
	"github.com/cleared-dev/budgetbook/internal/gitops"
	"github.com/cleared-dev/budgetbook/internal/mappings"
	"github.com/cleared-dev/budgetbook/internal/model"
	"github.com/cleared-dev/budgetbook/internal/uploads"
)

type initOptions struct {
	users       []string
	budgetStart string
	git         bool
}

func newInitCommand() *cobra.Command {
	var opts initOptions

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new budgetbook data directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			return runInit(cmd.Context(), cmd.OutOrStdout(), absDir, opts)
		},
	}

	cmd.Flags().StringSliceVar(&opts.users, "user", nil, "participant name, repeatable (required)")
	_ = cmd.MarkFlagRequired("user")
	cmd.Flags().StringVar(&opts.budgetStart, "budget-start", "", "start date of the first budget period (default: January 1st of this year)")
	cmd.Flags().BoolVar(&opts.git, "git", true, "initialize a git repository and commit the skeleton")

	return cmd
}

func runInit(ctx context.Context, out io.Writer, dir string, opts initOptions) error {
	if _, err := os.Stat(config.Path(dir)); err == nil {
		return fmt.Errorf("%s already exists", config.Path(dir))
	}

	start := time.Date(time.Now().Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	if opts.budgetStart != "" {
		d, err := time.Parse(model.DateFormat, opts.budgetStart)
		if err != nil {
			return fmt.Errorf("invalid --budget-start: %w", err)
		}
		start = d
	}

	cfg := config.Default(opts.users...)
	if err := cfg.Validate(); err != nil {
		return err
	}

	dirs := []string{"categories", filepath.Dir(mappings.FilePath), decisions.Dir, budgets.Dir, uploads.Dir}
	for _, d := range dirs {
		if err := os.MkdirAll(filepath.Join(dir, d), 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", d, err)
		}
	}

	if err := config.Save(config.Path(dir), cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	schema := categories.DefaultSchema()
	if err := categories.NewService(schema).Save(dir); err != nil {
		return fmt.Errorf("writing category schema: %w", err)
	}

	if err := budgets.Save(filepath.Join(dir, budgets.Dir), zeroBudget(start, schema)); err != nil {
		return err
	}

	// Parked uploads and sqlite journals are transient.
	gitignore := uploads.Dir + "/\n*.db-journal\n*.db-wal\n*.db-shm\n"
	if err := os.WriteFile(filepath.Join(dir, ".gitignore"), []byte(gitignore), 0o644); err != nil {
		return fmt.Errorf("writing .gitignore: %w", err)
	}

	if !opts.git {
		fmt.Fprintf(out, "Initialized budgetbook data directory at %s\n", dir)
		return nil
	}

	if err := gitops.Init(ctx, dir); err != nil {
		return err
	}
	hash, err := gitops.NewCommitter(dir, cfg.Git.AuthorName, cfg.Git.AuthorEmail).Commit(ctx, "init: budgetbook data directory")
	if err != nil {
		return fmt.Errorf("initial commit: %w", err)
	}

	fmt.Fprintf(out, "Initialized budgetbook data directory at %s (%s)\n", dir, hash)
	return nil
}

// zeroBudget budgets every subcategory at zero so reports work
// before real numbers are filled in.
func zeroBudget(start time.Time, schema []model.Category) model.AnnualBudget {
	b := model.AnnualBudget{StartInclusive: start, Monthly: make(map[model.SubCategoryKey]decimal.Decimal)}
	for _, c := range schema {
		for _, sub := range c.SubCategories {
			b.Order = append(b.Order, sub.Key())
			b.Monthly[sub.Key()] = decimal.Zero
		}
	}
	return b
}
