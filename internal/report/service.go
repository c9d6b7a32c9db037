package report

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/cleared-dev/budgetbook/internal/id"
	"github.com/cleared-dev/budgetbook/internal/model"
)

// DecisionReader is the read side of the decision store.
type DecisionReader interface {
	Read(ctx context.Context, year, month int) ([]model.Decision, error)
	ReadForYearStarting(ctx context.Context, date time.Time) ([]model.Decision, error)
}

// Service builds report payloads from persisted decisions.
type Service struct {
	reader   DecisionReader
	budgets  BudgetSource
	reporter *Reporter
	log      zerolog.Logger
}

// NewService creates a report Service.
func NewService(reader DecisionReader, budgets BudgetSource, log zerolog.Logger) *Service {
	return &Service{
		reader:   reader,
		budgets:  budgets,
		reporter: NewReporter(budgets),
		log:      log.With().Str("component", "report").Logger(),
	}
}

// Monthly reports one calendar month. The aggregated overview adds the
// actuals of the earlier months of the same budget period.
func (s *Service) Monthly(ctx context.Context, year, month int) (Payload, error) {
	if month < 1 || month > 12 {
		return Payload{}, fmt.Errorf("invalid month %d", month)
	}
	payload := Payload{Year: year, Month: month, Categories: []CategoryReport{}}

	decisions, err := s.reader.Read(ctx, year, month)
	if err != nil {
		return Payload{}, fmt.Errorf("reading decisions for %s: %w", id.MonthDir(year, month), err)
	}
	if len(decisions) == 0 {
		payload.Overview = OverviewFrom(nil)
		return payload, nil
	}

	categories, err := s.reporter.CategoryReportsFrom(decisions, 1)
	if err != nil {
		return Payload{}, err
	}
	payload.Categories = categories
	payload.Overview = OverviewFrom(categories)

	first, last := DateSpan(decisions)
	period, err := s.budgets.BudgetFor(last)
	if err != nil {
		return Payload{}, err
	}
	historical, err := s.historical(ctx, period, year, month)
	if err != nil {
		return Payload{}, err
	}
	aggregated, err := s.reporter.AggregatedOverviewFrom(payload.Overview, first, last, historical)
	if err != nil {
		return Payload{}, err
	}
	payload.AggregateOverview = &aggregated

	s.log.Debug().
		Int("year", year).
		Int("month", month).
		Int("decisions", len(decisions)).
		Int("historical_months", len(historical)).
		Msg("monthly report built")
	return payload, nil
}

// historical returns one actuals-only row per month from the period's start
// month up to, not including, (year, month).
func (s *Service) historical(ctx context.Context, period model.AnnualBudget, year, month int) ([]DataItem, error) {
	type ym struct{ year, month int }
	var months []ym
	y, m := period.StartInclusive.Year(), int(period.StartInclusive.Month())
	for len(months) < monthsPerYear && (y < year || (y == year && m < month)) {
		months = append(months, ym{y, m})
		y, m = id.AddMonths(y, m, 1)
	}

	items := make([]DataItem, len(months))
	g, ctx := errgroup.WithContext(ctx)
	for i, mo := range months {
		g.Go(func() error {
			decisions, err := s.reader.Read(ctx, mo.year, mo.month)
			if err != nil {
				return fmt.Errorf("reading decisions for %s: %w", id.MonthDir(mo.year, mo.month), err)
			}
			groups, err := groupDecisions(period, decisions)
			if err != nil {
				return err
			}
			actual := decimal.Zero
			for _, gr := range groups {
				actual = actual.Add(gr.actual)
			}
			items[i] = DataItem{Name: id.MonthDir(mo.year, mo.month), Actual: actual, Budget: decimal.Zero}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return items, nil
}

// Annual reports the whole budget period containing date. Decisions are read
// for the twelve calendar months starting at the period's start month.
func (s *Service) Annual(ctx context.Context, date time.Time) (AnnualPayload, error) {
	period, err := s.budgets.BudgetFor(date)
	if err != nil {
		return AnnualPayload{}, err
	}
	decisions, err := s.reader.ReadForYearStarting(ctx, period.StartInclusive)
	if err != nil {
		return AnnualPayload{}, fmt.Errorf("reading decisions for period starting %s: %w",
			period.StartInclusive.Format(model.DateFormat), err)
	}

	categories, err := s.reporter.AnnualCategoryReportsFor(period, decisions)
	if err != nil {
		return AnnualPayload{}, err
	}
	if categories == nil {
		categories = []AnnualCategoryReport{}
	}

	payload := AnnualPayload{
		PeriodStart: period.StartInclusive.Format(model.DateFormat),
		PeriodEnd:   period.EndExclusive().AddDate(0, 0, -1).Format(model.DateFormat),
		Overview:    AnnualOverviewFrom(categories),
		Categories:  categories,
	}
	if len(decisions) > 0 {
		_, last := DateSpan(decisions)
		payload.MonthsElapsed = MonthsElapsed(period, last)
	}

	s.log.Debug().
		Str("period_start", payload.PeriodStart).
		Int("decisions", len(decisions)).
		Msg("annual report built")
	return payload, nil
}
