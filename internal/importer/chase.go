package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/budgetbook/internal/model"
)

// ChaseNormalizer normalizes Chase checking CSV exports.
type ChaseNormalizer struct{}

const (
	chaseDateFormat = "01/02/2006"
	chaseNumFields  = 7
	chaseColDate    = 1
	chaseColDesc    = 2
	chaseColAmount  = 3
)

// Format returns the normalizer name.
func (n *ChaseNormalizer) Format() string { return "chase" }

// Normalize reads a Chase CSV. Chase reports debits as negative amounts, so
// the sign is flipped to make expenses positive.
func (n *ChaseNormalizer) Normalize(r io.Reader) ([]model.Line, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = chaseNumFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: reading chase CSV: %v", ErrMalformedLine, err)
	}

	if len(records) <= 1 {
		return nil, nil
	}

	var lines []model.Line
	for i, rec := range records[1:] {
		line, err := normalizeChaseRow(rec)
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", ErrMalformedLine, i+2, err)
		}
		lines = append(lines, line)
	}
	return lines, nil
}

func normalizeChaseRow(rec []string) (model.Line, error) {
	date, err := time.Parse(chaseDateFormat, rec[chaseColDate])
	if err != nil {
		return model.Line{}, fmt.Errorf("parsing date %q: %w", rec[chaseColDate], err)
	}

	amount, err := decimal.NewFromString(rec[chaseColAmount])
	if err != nil {
		return model.Line{}, fmt.Errorf("parsing amount %q: %w", rec[chaseColAmount], err)
	}

	return model.Line{
		Date:     date,
		Merchant: sanitizeMerchant(rec[chaseColDesc]),
		Amount:   amount.Neg(),
	}, nil
}
