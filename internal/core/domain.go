package core

import (
	"bytes"
	"fmt"
	"strconv"
	"time"
)

// DateLayout is the on-disk layout of Expense.Date: ISO-8601, second
// precision, local wall clock without offset.
const DateLayout = "2006-01-02T15:04:05"

type (
	// Timestamp is a wall-clock instant persisted with DateLayout.
	Timestamp struct {
		time.Time
	}

	// Expense is one entry of the record sequence.
	Expense struct {
		ID       int64     `json:"id"`
		Amount   Amount    `json:"amount"`
		Category string    `json:"category"`
		Note     string    `json:"note"`
		Date     Timestamp `json:"date"`
	}
)

// Layouts accepted when reading a date back. Files written by older
// tools may carry an offset or fractional seconds.
var dateLayouts = []string{
	DateLayout,
	"2006-01-02T15:04:05.999999999",
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// NewTimestamp truncates t to second precision.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t.Truncate(time.Second)}
}

// ParseTimestamp parses s using any of the accepted layouts. Layouts
// without an offset are interpreted in the local zone.
func ParseTimestamp(s string) (Timestamp, error) {
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return NewTimestamp(t), nil
		}
	}
	return Timestamp{}, fmt.Errorf("invalid date %q", s)
}

// String formats the timestamp with DateLayout.
func (t Timestamp) String() string {
	return t.Format(DateLayout)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(t.String())), nil
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	s, err := strconv.Unquote(string(data))
	if err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	parsed, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Validate reports whether the expense honours the amount contract.
func (e Expense) Validate() error {
	if !e.Amount.IsPositive() {
		return &InvalidAmountError{Amount: e.Amount}
	}
	return nil
}
