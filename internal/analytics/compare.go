package analytics

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Period is the length of a comparison or budget window.
type Period string

const (
	Weekly  Period = "weekly"
	Monthly Period = "monthly"
	Yearly  Period = "yearly"
)

var ErrPeriodInvalid = errors.New("the period must be one of weekly, monthly, yearly")

// ParsePeriod parses a period name. The empty string defaults to Monthly.
func ParsePeriod(s string) (Period, error) {
	switch Period(s) {
	case "":
		return Monthly, nil
	case Weekly, Monthly, Yearly:
		return Period(s), nil
	}
	return "", fmt.Errorf("%w, got '%s'", ErrPeriodInvalid, s)
}

// Valid reports if p is a known period.
func (p Period) Valid() bool {
	return p == Weekly || p == Monthly || p == Yearly
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// ComparisonWindows returns the period-to-date window ending at now and the
// full preceding period. The previous window ends immediately before the
// current one starts.
func ComparisonWindows(p Period, now time.Time) (current, previous Window) {
	var start, prevStart time.Time

	switch p {
	case Weekly:
		// Weeks start on Monday
		offset := (int(now.Weekday()) + 6) % 7
		start = startOfDay(now).AddDate(0, 0, -offset)
		prevStart = start.AddDate(0, 0, -7)
	case Yearly:
		start = time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location())
		prevStart = start.AddDate(-1, 0, 0)
	default:
		start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		prevStart = start.AddDate(0, -1, 0)
	}

	current = Window{Start: start, End: now}
	previous = Window{Start: prevStart, End: start.Add(-time.Nanosecond)}
	return
}

// WindowSpending is the spending of one side of a comparison.
type WindowSpending struct {
	Total      decimal.Decimal  `json:"total" example:"412.50"`
	Categories []CategoryBucket `json:"categories"`
	Window     Window           `json:"window"`
	Period     string           `json:"period" example:"2024-03-01 to 2024-03-31"`
}

// Delta is the change between the previous and the current window.
type Delta struct {
	Amount     decimal.Decimal `json:"total" example:"-23.10"`
	Percentage decimal.Decimal `json:"percentage" example:"-5.3"`
}

// ComparisonResult is the period-over-period comparison.
type ComparisonResult struct {
	Current  WindowSpending `json:"current"`
	Previous WindowSpending `json:"previous"`
	Change   Delta          `json:"change"`
	Insights []Insight      `json:"insights"`
}

// Compare compares spending of the current period to date with the full
// previous period using the built-in tables.
func Compare(txs []Transaction, p Period, now time.Time) ComparisonResult {
	return Resolver{}.Compare(txs, p, now)
}

// Compare compares spending of the current period to date with the full
// previous period.
//
// Both sides list the same categories in the same order. Categories that
// only appear on one side are added to the other with a zero amount.
func (r Resolver) Compare(txs []Transaction, p Period, now time.Time) ComparisonResult {
	currentWindow, previousWindow := ComparisonWindows(p, now)

	current, previous := reconcile(
		r.Aggregate(txs, currentWindow),
		r.Aggregate(txs, previousWindow),
	)

	currentTotal := total(current)
	previousTotal := total(previous)

	delta := Delta{
		Amount:     currentTotal.Sub(previousTotal),
		Percentage: decimal.Zero,
	}
	if previousTotal.IsPositive() {
		delta.Percentage = delta.Amount.Div(previousTotal).Mul(decimal.NewFromInt(100))
	}

	return ComparisonResult{
		Current: WindowSpending{
			Total:      currentTotal,
			Categories: current,
			Window:     currentWindow,
			Period:     currentWindow.String(),
		},
		Previous: WindowSpending{
			Total:      previousTotal,
			Categories: previous,
			Window:     previousWindow,
			Period:     previousWindow.String(),
		},
		Change:   delta,
		Insights: GenerateInsights(current, previous, delta.Amount, delta.Percentage),
	}
}

// reconcile returns both bucket lists over the union of their categories,
// current categories first, then those only present in previous.
func reconcile(current, previous []CategoryBucket) ([]CategoryBucket, []CategoryBucket) {
	order := make([]string, 0, len(current)+len(previous))
	cur := make(map[string]CategoryBucket, len(current))
	prev := make(map[string]CategoryBucket, len(previous))

	for _, b := range current {
		cur[b.Category] = b
		order = append(order, b.Category)
	}

	for _, b := range previous {
		prev[b.Category] = b
		if _, ok := cur[b.Category]; !ok {
			order = append(order, b.Category)
		}
	}

	lookup := func(m map[string]CategoryBucket, category string) CategoryBucket {
		if b, ok := m[category]; ok {
			return b
		}
		return CategoryBucket{Category: category, TotalAmount: decimal.Zero, Color: Color(category)}
	}

	outCurrent := make([]CategoryBucket, 0, len(order))
	outPrevious := make([]CategoryBucket, 0, len(order))
	for _, category := range order {
		outCurrent = append(outCurrent, lookup(cur, category))
		outPrevious = append(outPrevious, lookup(prev, category))
	}

	return outCurrent, outPrevious
}
