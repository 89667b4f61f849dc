package analytics

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
)

// DefaultAlertThreshold is the usage ratio at which a budget is near its limit.
var DefaultAlertThreshold = decimal.NewFromFloat(0.8)

// Budget is the part of a budget the tracker needs.
type Budget struct {
	ID             string
	Category       string
	Amount         decimal.Decimal
	AlertThreshold decimal.Decimal
}

// BudgetStatus is the state of a budget given the spending in its window.
type BudgetStatus struct {
	Spent        decimal.Decimal `json:"spent" example:"160"`
	Remaining    decimal.Decimal `json:"remaining" example:"40"`
	UsageRatio   decimal.Decimal `json:"usageRatio" example:"0.8"`
	IsOverBudget bool            `json:"isOverBudget" example:"false"`
	IsNearLimit  bool            `json:"isNearLimit" example:"true"`
}

// Alert is a notification about a budget that is over or near its limit.
type Alert struct {
	BudgetID string   `json:"budgetId" example:"c0a2a6b1-8b7e-4b55-9f6a-1e4a5b0f7d21"`
	Category string   `json:"category" example:"Food & Dining"`
	Severity Severity `json:"severity" example:"warning"`
	Message  string   `json:"message" example:"You've used 85% of your Food & Dining budget"`
}

// SameCategory compares category labels case-insensitively.
func SameCategory(a, b string) bool {
	// A Caser is stateful and must not be shared between goroutines
	fold := cases.Fold()
	return fold.String(a) == fold.String(b)
}

// Evaluate computes the status of b from the buckets of its window.
func Evaluate(b Budget, buckets []CategoryBucket) BudgetStatus {
	spent := decimal.Zero
	for _, bucket := range buckets {
		if SameCategory(bucket.Category, b.Category) {
			spent = spent.Add(bucket.TotalAmount)
		}
	}

	remaining := b.Amount.Sub(spent)
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}

	ratio := decimal.Zero
	if b.Amount.IsPositive() {
		ratio = spent.Div(b.Amount)
	}

	over := spent.GreaterThan(b.Amount)

	return BudgetStatus{
		Spent:        spent,
		Remaining:    remaining,
		UsageRatio:   ratio,
		IsOverBudget: over,
		IsNearLimit:  ratio.GreaterThanOrEqual(b.AlertThreshold),
	}
}

// AlertFor returns the alert for a budget status, if any.
func AlertFor(b Budget, s BudgetStatus) (Alert, bool) {
	switch {
	case s.IsOverBudget:
		return Alert{
			BudgetID: b.ID,
			Category: b.Category,
			Severity: SeverityError,
			Message:  fmt.Sprintf("You've exceeded your %s budget by $%s", b.Category, s.Spent.Sub(b.Amount).StringFixed(2)),
		}, true
	case s.IsNearLimit:
		return Alert{
			BudgetID: b.ID,
			Category: b.Category,
			Severity: SeverityWarning,
			Message:  fmt.Sprintf("You've used %s%% of your %s budget", s.UsageRatio.Mul(hundred).StringFixed(0), b.Category),
		}, true
	}

	return Alert{}, false
}

// BudgetWindow returns the window a budget created at now covers. The end
// is exclusive.
//
// Weekly budgets cover seven days starting today, monthly and yearly
// budgets cover the calendar month or year containing now.
func BudgetWindow(p Period, now time.Time) Window {
	switch p {
	case Weekly:
		start := startOfDay(now)
		return Window{Start: start, End: start.AddDate(0, 0, 7)}
	case Yearly:
		start := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location())
		return Window{Start: start, End: start.AddDate(1, 0, 0)}
	default:
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		return Window{Start: start, End: start.AddDate(0, 1, 0)}
	}
}

// EvaluationWindow returns the inclusive window over which spending for a
// budget window [start, end) is counted at now.
func EvaluationWindow(start, end, now time.Time) Window {
	if now.Before(end) {
		return Window{Start: start, End: now}
	}
	return Window{Start: start, End: end.Add(-time.Nanosecond)}
}
