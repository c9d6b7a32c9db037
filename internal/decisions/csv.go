package decisions

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/budgetbook/internal/model"
)

// Header is the CSV header of a decision partition.
const Header = "date,merchant,amount,category,subcategory"

const (
	numFields      = 5
	colDate        = 0
	colMerchant    = 1
	colAmount      = 2
	colCategory    = 3
	colSubCategory = 4
)

// ReadDecisions reads all decisions from a partition reader.
func ReadDecisions(r io.Reader) ([]model.Decision, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading decisions CSV: %w", err)
	}

	if len(records) == 0 {
		return nil, nil
	}

	// Skip header row.
	var decisions []model.Decision
	for i, rec := range records[1:] {
		d, err := UnmarshalDecision(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		decisions = append(decisions, d)
	}
	return decisions, nil
}

// WriteDecisions writes a full partition (including header).
func WriteDecisions(w io.Writer, decisions []model.Decision) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, d := range decisions {
		if err := cw.Write(MarshalDecision(d)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalDecision converts a Decision to a CSV row. Unresolved decisions
// have empty category columns.
func MarshalDecision(d model.Decision) []string {
	row := make([]string, numFields)
	row[colDate] = d.Line.Date.Format(model.DateFormat)
	row[colMerchant] = d.Line.Merchant
	row[colAmount] = d.Line.Amount.String()
	row[colCategory] = d.Category
	row[colSubCategory] = d.SubCategory
	return row
}

// UnmarshalDecision converts a CSV row to a Decision.
func UnmarshalDecision(record []string) (model.Decision, error) {
	if len(record) != numFields {
		return model.Decision{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	date, err := time.Parse(model.DateFormat, record[colDate])
	if err != nil {
		return model.Decision{}, fmt.Errorf("parsing date %q: %w", record[colDate], err)
	}

	amount, err := decimal.NewFromString(record[colAmount])
	if err != nil {
		return model.Decision{}, fmt.Errorf("parsing amount %q: %w", record[colAmount], err)
	}

	d := model.Decision{
		Line: model.Line{
			Date:     date,
			Merchant: record[colMerchant],
			Amount:   amount,
		},
		Category:    record[colCategory],
		SubCategory: record[colSubCategory],
	}
	if !d.Valid() {
		return model.Decision{}, fmt.Errorf("partial decision %q/%q", d.Category, d.SubCategory)
	}
	return d, nil
}
