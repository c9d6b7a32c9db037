package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateFormat is the ISO date layout used by normalized lines and partitions.
const DateFormat = "2006-01-02"

// Line is one normalized statement transaction.
type Line struct {
	Date     time.Time
	Merchant string
	Amount   decimal.Decimal // positive = expense, negative = credit/refund
}
