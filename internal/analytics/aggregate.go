package analytics

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Window is a time range. Both ends are inclusive.
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t lies within the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// String formats the window as "YYYY-MM-DD to YYYY-MM-DD".
func (w Window) String() string {
	return w.Start.Format(time.DateOnly) + " to " + w.End.Format(time.DateOnly)
}

// CategoryBucket is the spending of one category within a window.
type CategoryBucket struct {
	Category         string          `json:"category" example:"Food & Dining"`
	TotalAmount      decimal.Decimal `json:"totalAmount" example:"84.12"`
	TransactionCount int             `json:"transactionCount" example:"3"`
	Color            string          `json:"color" example:"#FF6B6B"`
}

// Aggregate groups the spending transactions within w by category using
// the built-in tables.
func Aggregate(txs []Transaction, w Window) []CategoryBucket {
	return Resolver{}.Aggregate(txs, w)
}

// Aggregate groups the spending transactions within w by resolved category.
//
// The result is ordered by absolute total descending, ties broken by the
// category label. Empty input yields an empty, non-nil slice.
func (r Resolver) Aggregate(txs []Transaction, w Window) []CategoryBucket {
	index := make(map[string]int)
	buckets := make([]CategoryBucket, 0)

	for _, t := range txs {
		if !t.IsSpend() || !w.Contains(t.Date) {
			continue
		}

		category := r.Resolve(t)
		i, ok := index[category]
		if !ok {
			i = len(buckets)
			index[category] = i
			buckets = append(buckets, CategoryBucket{
				Category:    category,
				TotalAmount: decimal.Zero,
				Color:       Color(category),
			})
		}

		buckets[i].TotalAmount = buckets[i].TotalAmount.Add(t.Amount)
		buckets[i].TransactionCount++
	}

	sortBuckets(buckets)
	return buckets
}

func sortBuckets(buckets []CategoryBucket) {
	sort.SliceStable(buckets, func(i, j int) bool {
		a, b := buckets[i].TotalAmount.Abs(), buckets[j].TotalAmount.Abs()
		if !a.Equal(b) {
			return a.GreaterThan(b)
		}
		return buckets[i].Category < buckets[j].Category
	})
}

// total sums the absolute totals of all buckets.
func total(buckets []CategoryBucket) decimal.Decimal {
	sum := decimal.Zero
	for _, b := range buckets {
		sum = sum.Add(b.TotalAmount.Abs())
	}
	return sum
}
