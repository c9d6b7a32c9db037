package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/budgetbook/internal/model"
	"github.com/cleared-dev/budgetbook/internal/resolver"
)

type importOptions struct {
	year        int
	month       int
	user        string
	statement   string
	bank        string
	interactive bool
}

func newImportCommand(dataDir *string) *cobra.Command {
	var opts importOptions

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Categorize and store a bank statement",
		Long: "Normalizes the statement with the bank's format and categorizes every line with the\n" +
			"learned mappings. Without --interactive the import fails when merchants are unknown\n" +
			"and lists them; with it, a mapping is asked for on stdin for each unknown merchant\n" +
			"as \"fragment,category,subcategory\".",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), *dataDir, cmd.ErrOrStderr(), func(ctx context.Context, a *app) error {
				return runImport(ctx, a, cmd.InOrStdin(), cmd.OutOrStdout(), args[0], opts)
			})
		},
	}

	cmd.Flags().IntVar(&opts.year, "year", 0, "statement year (required)")
	cmd.Flags().IntVar(&opts.month, "month", 0, "statement month (required)")
	cmd.Flags().StringVar(&opts.user, "user", "", "participant the statement belongs to (required)")
	cmd.Flags().StringVar(&opts.statement, "statement", "", "statement name (required)")
	cmd.Flags().StringVar(&opts.bank, "bank", "", "bank name from the config (required)")
	cmd.Flags().BoolVarP(&opts.interactive, "interactive", "i", false, "ask for mappings on stdin")
	for _, f := range []string{"year", "month", "user", "statement", "bank"} {
		_ = cmd.MarkFlagRequired(f)
	}
	return cmd
}

func runImport(ctx context.Context, a *app, in io.Reader, out io.Writer, path string, opts importOptions) error {
	if !a.cfg.HasUser(opts.user) {
		return fmt.Errorf("unknown user %q", opts.user)
	}
	bank, ok := a.cfg.Bank(opts.bank)
	if !ok {
		return fmt.Errorf("unknown bank %q", opts.bank)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening statement: %w", err)
	}
	defer f.Close()

	lines, err := a.normalizers.Get(bank.Format).Normalize(f)
	if err != nil {
		return fmt.Errorf("normalizing %s: %w", path, err)
	}

	meta := model.StatementMetadata{Year: opts.year, Month: opts.month, User: opts.user, Statement: opts.statement}
	outcome, err := a.resolver.Start(ctx, meta, lines)
	if err != nil {
		return err
	}

	if opts.interactive {
		outcome, err = resolveInteractively(ctx, a.resolver, bufio.NewScanner(in), out, outcome)
		if err != nil {
			return err
		}
	}

	if outcome.State != resolver.StateAllResolved {
		// Nobody will resume this batch.
		if err := a.uploads.Remove(outcome.Batch.Upload); err != nil {
			a.log.Warn().Err(err).Msg("removing parked upload")
		}
		unknown := append([]string{outcome.Prompt.Merchant}, outcome.Prompt.Remaining...)
		return fmt.Errorf("%d unknown merchants, add mappings first:\n  %s", len(unknown), strings.Join(unknown, "\n  "))
	}

	fmt.Fprintf(out, "Stored %d decisions for %s\n", outcome.Decisions, meta)
	return nil
}

func resolveInteractively(ctx context.Context, r *resolver.Resolver, in *bufio.Scanner, out io.Writer, outcome resolver.Outcome) (resolver.Outcome, error) {
	for outcome.State == resolver.StateAwaitingUserMapping {
		p := outcome.Prompt
		fmt.Fprintf(out, "Unknown merchant %q (%d more). Mapping as fragment,category,subcategory: ", p.Merchant, len(p.Remaining))
		if !in.Scan() {
			if err := in.Err(); err != nil {
				return outcome, err
			}
			return outcome, nil
		}

		parts := strings.SplitN(in.Text(), ",", 3)
		for len(parts) < 3 {
			parts = append(parts, "")
		}
		next, err := r.Submit(ctx, p.Token, resolver.Submission{Fragment: parts[0], Category: parts[1], SubCategory: parts[2]})
		if errors.Is(err, resolver.ErrMalformedSubmission) {
			fmt.Fprintf(out, "rejected: %v\n", err)
			continue
		}
		if err != nil {
			return outcome, err
		}
		outcome = next
	}
	return outcome, nil
}
