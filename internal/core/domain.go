package core

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

const (
	MinMonthLen = 3
	MaxMonthLen = 50

	// ShortMonthLen is the number of characters kept for chart axis labels.
	ShortMonthLen = 3

	// MaxCount is the largest value a single counter may hold.
	MaxCount int64 = 1_000_000_000_000_000
)

type (
	// Record holds one period's payment-status counters.
	Record struct {
		Month      string `json:"month"`
		Pending    int64  `json:"pending"`
		Processing int64  `json:"processing"`
		Success    int64  `json:"success"`
		Failed     int64  `json:"failed"`
	}

	StatusKey string

	// Status describes how a counter is labelled and colored across views.
	Status struct {
		Key   StatusKey
		Label string
		Color string
	}
)

const (
	StatusPending    StatusKey = "pending"
	StatusProcessing StatusKey = "processing"
	StatusSuccess    StatusKey = "success"
	StatusFailed     StatusKey = "failed"
)

// Statuses is the fixed display order of the four counters.
var Statuses = []Status{
	{Key: StatusPending, Label: "Pending", Color: "var(--chart-1)"},
	{Key: StatusProcessing, Label: "Processing", Color: "var(--chart-2)"},
	{Key: StatusSuccess, Label: "Success", Color: "var(--chart-3)"},
	{Key: StatusFailed, Label: "Failed", Color: "var(--chart-4)"},
}

var (
	ErrInvalidRecord = errors.New("invalid record")
	ErrMonthLength   = fmt.Errorf("month must be between %d and %d characters", MinMonthLen, MaxMonthLen)
	ErrNegativeCount = errors.New("counter cannot be negative")
	ErrCountTooLarge = fmt.Errorf("counter cannot exceed %d", MaxCount)
	ErrUnknownStatus = errors.New("unknown status")
)

// LookupStatus returns the display metadata for key.
func LookupStatus(key StatusKey) (Status, error) {
	for _, s := range Statuses {
		if s.Key == key {
			return s, nil
		}
	}
	return Status{}, fmt.Errorf("%w: %q", ErrUnknownStatus, key)
}

// Count returns the counter stored under key.
func (r Record) Count(key StatusKey) int64 {
	switch key {
	case StatusPending:
		return r.Pending
	case StatusProcessing:
		return r.Processing
	case StatusSuccess:
		return r.Success
	case StatusFailed:
		return r.Failed
	}
	return 0
}

// ShortMonth truncates Month to its first three characters.
func (r Record) ShortMonth() string {
	n := 0
	for i := range r.Month {
		if n == ShortMonthLen {
			return r.Month[:i]
		}
		n++
	}
	return r.Month
}

func (r Record) Validate() error {
	if n := utf8.RuneCountInString(r.Month); n < MinMonthLen || n > MaxMonthLen {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, ErrMonthLength)
	}
	for _, s := range Statuses {
		switch c := r.Count(s.Key); {
		case c < 0:
			return fmt.Errorf("%w: %s: %w", ErrInvalidRecord, s.Key, ErrNegativeCount)
		case c > MaxCount:
			return fmt.Errorf("%w: %s: %w", ErrInvalidRecord, s.Key, ErrCountTooLarge)
		}
	}
	return nil
}

// Seed returns a fresh copy of the sequence every process starts with.
func Seed() []Record {
	return []Record{
		{Month: "january", Pending: 100, Processing: 200, Success: 300, Failed: 400},
		{Month: "february", Pending: 500, Processing: 20, Success: 960, Failed: 12},
	}
}
