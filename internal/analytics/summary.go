package analytics

import (
	"github.com/shopspring/decimal"
)

// SpendingSummary is the spending breakdown for a single window.
type SpendingSummary struct {
	CategorySpending   []CategoryBucket `json:"categorySpending"`
	TotalSpending      decimal.Decimal  `json:"totalSpending" example:"80"`
	TransactionCount   int              `json:"transactionCount" example:"2"`
	AverageTransaction decimal.Decimal  `json:"averageTransaction" example:"40"`
	Window             Window           `json:"window"`
}

// SpendingAnalytics summarizes spending within w.
func (r Resolver) SpendingAnalytics(txs []Transaction, w Window) SpendingSummary {
	buckets := r.Aggregate(txs, w)

	count := 0
	for _, b := range buckets {
		count += b.TransactionCount
	}

	sum := total(buckets)
	average := decimal.Zero
	if count > 0 {
		average = sum.Div(decimal.NewFromInt(int64(count))).Round(2)
	}

	return SpendingSummary{
		CategorySpending:   buckets,
		TotalSpending:      sum,
		TransactionCount:   count,
		AverageTransaction: average,
		Window:             w,
	}
}

// SpendingAnalytics summarizes spending within w using the built-in tables.
func SpendingAnalytics(txs []Transaction, w Window) SpendingSummary {
	return Resolver{}.SpendingAnalytics(txs, w)
}

// BudgetEntry is a budget together with the buckets of its evaluation window.
type BudgetEntry struct {
	Budget  Budget
	Buckets []CategoryBucket
}

// BudgetReport is the evaluated state of one budget.
type BudgetReport struct {
	BudgetID string          `json:"budgetId" example:"c0a2a6b1-8b7e-4b55-9f6a-1e4a5b0f7d21"`
	Category string          `json:"category" example:"Food & Dining"`
	Amount   decimal.Decimal `json:"amount" example:"400"`
	BudgetStatus
}

// BudgetSummary aggregates the status of several budgets.
type BudgetSummary struct {
	Budgets      []BudgetReport  `json:"budgets"`
	TotalBudget  decimal.Decimal `json:"totalBudget" example:"900"`
	TotalSpent   decimal.Decimal `json:"totalSpent" example:"652.20"`
	OverallUsage decimal.Decimal `json:"overallUsage" example:"0.7247"`
	Alerts       []Alert         `json:"alerts"`
}

// BudgetAnalysis evaluates every entry and collects the resulting alerts.
func BudgetAnalysis(entries []BudgetEntry) BudgetSummary {
	summary := BudgetSummary{
		Budgets:      make([]BudgetReport, 0, len(entries)),
		TotalBudget:  decimal.Zero,
		TotalSpent:   decimal.Zero,
		OverallUsage: decimal.Zero,
		Alerts:       make([]Alert, 0),
	}

	for _, e := range entries {
		status := Evaluate(e.Budget, e.Buckets)

		summary.Budgets = append(summary.Budgets, BudgetReport{
			BudgetID:     e.Budget.ID,
			Category:     e.Budget.Category,
			Amount:       e.Budget.Amount,
			BudgetStatus: status,
		})

		summary.TotalBudget = summary.TotalBudget.Add(e.Budget.Amount)
		summary.TotalSpent = summary.TotalSpent.Add(status.Spent)

		if alert, ok := AlertFor(e.Budget, status); ok {
			summary.Alerts = append(summary.Alerts, alert)
		}
	}

	if summary.TotalBudget.IsPositive() {
		summary.OverallUsage = summary.TotalSpent.Div(summary.TotalBudget)
	}

	return summary
}
