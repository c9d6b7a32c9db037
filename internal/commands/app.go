package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/cleared-dev/budgetbook/internal/budgets"
	"github.com/cleared-dev/budgetbook/internal/categories"
	"github.com/cleared-dev/budgetbook/internal/config"
	"github.com/cleared-dev/budgetbook/internal/decisions"
	"github.com/cleared-dev/budgetbook/internal/events"
	"github.com/cleared-dev/budgetbook/internal/gitops"
	"github.com/cleared-dev/budgetbook/internal/importer"
	"github.com/cleared-dev/budgetbook/internal/logger"
	"github.com/cleared-dev/budgetbook/internal/mappings"
	"github.com/cleared-dev/budgetbook/internal/report"
	"github.com/cleared-dev/budgetbook/internal/resolver"
	"github.com/cleared-dev/budgetbook/internal/uploads"
)

// app is everything a command needs, wired from one data directory.
type app struct {
	dataDir     string
	cfg         *config.Config
	log         zerolog.Logger
	categories  *categories.Service
	budgets     *budgets.Budgets
	mappings    mappings.Store
	decisions   *decisions.Store
	uploads     *uploads.Store
	resolver    *resolver.Resolver
	reports     *report.Service
	normalizers *importer.Registry
	closers     []func() error
}

// openApp loads configuration and opens every store under dataDir.
func openApp(dataDir string, logOut io.Writer) (*app, error) {
	cfg, err := config.Load(config.Path(dataDir))
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv(os.Getenv)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log := logger.New(logOut, cfg.Log.Level, cfg.Log.Pretty)

	a := &app{dataDir: dataDir, cfg: cfg, log: log, normalizers: importer.DefaultRegistry()}
	if err := a.open(); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) open() error {
	for _, b := range a.cfg.Banks {
		if a.normalizers.Get(b.Format) == nil {
			return fmt.Errorf("bank %q uses unknown format %q (known: %v)", b.Name, b.Format, a.normalizers.Formats())
		}
	}

	cats, err := categories.Load(a.dataDir)
	if err != nil {
		return err
	}
	a.categories = cats

	a.budgets, err = budgets.Load(filepath.Join(a.dataDir, budgets.Dir), cats)
	if err != nil {
		return fmt.Errorf("loading budgets: %w", err)
	}

	store, closeStore, err := mappings.Open(a.cfg.Mappings.Backend, a.dataDir, a.cfg.SQLitePath(a.dataDir))
	if err != nil {
		return err
	}
	a.mappings = store
	a.closers = append(a.closers, closeStore)

	a.decisions = decisions.NewStore(a.dataDir, cats)
	a.uploads = uploads.NewStore(a.dataDir)

	var publisher events.Publisher = events.Nop{}
	if a.cfg.Events.AMQPURL != "" {
		p, err := events.DialAMQP(a.cfg.Events.AMQPURL, a.cfg.Events.Exchange, a.log)
		if err != nil {
			return err
		}
		publisher = p
		a.closers = append(a.closers, p.Close)
	}

	var committer resolver.Committer
	if a.cfg.Git.AutoCommit && gitops.IsRepo(a.dataDir) {
		committer = gitops.NewCommitter(a.dataDir, a.cfg.Git.AuthorName, a.cfg.Git.AuthorEmail)
	}

	codec, err := resolver.NewCodec(a.cfg.Workflow.TokenSecret)
	if err != nil {
		return err
	}
	a.resolver = resolver.New(resolver.Deps{
		Mappings:   a.mappings,
		Decisions:  a.decisions,
		Uploads:    a.uploads,
		Categories: cats,
		Events:     publisher,
		Committer:  committer,
	}, codec, a.log)
	a.reports = report.NewService(a.decisions, a.budgets, a.log)

	a.log.Debug().
		Str("data_dir", a.dataDir).
		Int("budget_periods", len(a.budgets.Periods())).
		Str("mappings_backend", a.cfg.Mappings.Backend).
		Msg("data directory opened")
	return nil
}

// Close releases stores and connections in reverse order.
func (a *app) Close() error {
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	return first
}

// withApp opens the app for the duration of fn.
func withApp(ctx context.Context, dataDir string, logOut io.Writer, fn func(context.Context, *app) error) error {
	a, err := openApp(dataDir, logOut)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(logger.WithContext(ctx, a.log), a)
}
