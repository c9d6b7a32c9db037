package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/budgetbook/internal/model"
)

const (
	lineFields  = 3
	colDate     = 0
	colMerchant = 1
	colAmount   = 2
)

// LinesNormalizer accepts input that is already in the normalized
// date,merchant,amount form, without a header.
type LinesNormalizer struct{}

// Format returns the normalizer name.
func (n *LinesNormalizer) Format() string { return "lines" }

// Normalize reads normalized lines.
func (n *LinesNormalizer) Normalize(r io.Reader) ([]model.Line, error) {
	return ReadLines(r)
}

// ReadLines parses normalized date,merchant,amount rows. Dates are ISO
// yyyy-MM-dd and amounts use '.' as decimal separator.
func ReadLines(r io.Reader) ([]model.Line, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = lineFields

	var lines []model.Line
	for row := 1; ; row++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", ErrMalformedLine, row, err)
		}
		line, err := UnmarshalLine(rec)
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", ErrMalformedLine, row, err)
		}
		lines = append(lines, line)
	}
	return lines, nil
}

// WriteLines writes normalized rows (no header).
func WriteLines(w io.Writer, lines []model.Line) error {
	cw := csv.NewWriter(w)
	for i, l := range lines {
		if err := cw.Write(MarshalLine(l)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalLine converts a Line to a CSV row.
func MarshalLine(l model.Line) []string {
	row := make([]string, lineFields)
	row[colDate] = l.Date.Format(model.DateFormat)
	row[colMerchant] = l.Merchant
	row[colAmount] = l.Amount.String()
	return row
}

// UnmarshalLine converts a CSV row to a Line.
func UnmarshalLine(record []string) (model.Line, error) {
	if len(record) != lineFields {
		return model.Line{}, fmt.Errorf("expected %d fields, got %d", lineFields, len(record))
	}

	date, err := time.Parse(model.DateFormat, record[colDate])
	if err != nil {
		return model.Line{}, fmt.Errorf("parsing date %q: %w", record[colDate], err)
	}

	merchant := sanitizeMerchant(record[colMerchant])
	if merchant == "" {
		return model.Line{}, fmt.Errorf("empty merchant")
	}

	amount, err := decimal.NewFromString(record[colAmount])
	if err != nil {
		return model.Line{}, fmt.Errorf("parsing amount %q: %w", record[colAmount], err)
	}

	return model.Line{Date: date, Merchant: merchant, Amount: amount}, nil
}
