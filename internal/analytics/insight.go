package analytics

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

type InsightKind string

const (
	TrendUp       InsightKind = "trend-up"
	TrendDown     InsightKind = "trend-down"
	CategorySpike InsightKind = "category-spike"
	TopCategories InsightKind = "top-categories"
)

type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
)

// Insight is a human readable observation about spending.
type Insight struct {
	Kind     InsightKind `json:"type" example:"trend-up"`
	Severity Severity    `json:"severity" example:"warning"`
	Title    string      `json:"title" example:"Increased Spending"`
	Message  string      `json:"message" example:"Your spending increased by 12.4% compared to last period"`
}

var (
	trendThreshold = decimal.NewFromInt(5)
	spikeThreshold = decimal.NewFromInt(25)
	hundred        = decimal.NewFromInt(100)
)

const topCategoryCount = 3

// GenerateInsights derives insights from a reconciled comparison.
//
// current and previous must list the same categories, as returned by Compare.
func GenerateInsights(current, previous []CategoryBucket, deltaAmount, deltaPercentage decimal.Decimal) []Insight {
	insights := make([]Insight, 0)

	if deltaPercentage.Abs().GreaterThan(trendThreshold) {
		pct := deltaPercentage.Abs().StringFixed(1)
		if deltaAmount.IsPositive() {
			insights = append(insights, Insight{
				Kind:     TrendUp,
				Severity: SeverityWarning,
				Title:    "Increased Spending",
				Message:  fmt.Sprintf("Your spending increased by %s%% compared to last period", pct),
			})
		} else {
			insights = append(insights, Insight{
				Kind:     TrendDown,
				Severity: SeveritySuccess,
				Title:    "Reduced Spending",
				Message:  fmt.Sprintf("Great job! You reduced spending by %s%% compared to last period", pct),
			})
		}
	}

	prev := make(map[string]decimal.Decimal, len(previous))
	for _, b := range previous {
		prev[b.Category] = b.TotalAmount
	}

	// Categories without spending in the previous period have no meaningful
	// growth rate and are skipped.
	for _, b := range current {
		p, ok := prev[b.Category]
		if !ok || p.IsZero() {
			continue
		}

		change := b.TotalAmount.Sub(p).Div(p).Mul(hundred)
		if change.GreaterThan(spikeThreshold) {
			insights = append(insights, Insight{
				Kind:     CategorySpike,
				Severity: SeverityInfo,
				Title:    fmt.Sprintf("%s Spending Up", b.Category),
				Message:  fmt.Sprintf("%s spending increased by %s%% this period", b.Category, change.StringFixed(0)),
			})
		}
	}

	top := make([]CategoryBucket, 0, len(current))
	for _, b := range current {
		if !b.TotalAmount.IsZero() {
			top = append(top, b)
		}
	}

	if len(top) > 0 {
		sortBuckets(top)
		if len(top) > topCategoryCount {
			top = top[:topCategoryCount]
		}

		names := make([]string, 0, len(top))
		for _, b := range top {
			names = append(names, b.Category)
		}

		insights = append(insights, Insight{
			Kind:     TopCategories,
			Severity: SeverityInfo,
			Title:    "Top Spending Categories",
			Message:  fmt.Sprintf("Your top spending categories are: %s", strings.Join(names, ", ")),
		})
	}

	return insights
}
