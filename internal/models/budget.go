package models

import (
	"strings"
	"time"

	"github.com/ledgerlens/backend/internal/analytics"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Budget is a spending limit for one category over a fixed window.
type Budget struct {
	DefaultModel
	OwnerID        string `gorm:"index"`
	Category       string
	Amount         decimal.Decimal `gorm:"type:DECIMAL(20,8)"`
	Period         analytics.Period
	WindowStart    time.Time       // Inclusive
	WindowEnd      time.Time       // Exclusive
	AlertThreshold decimal.Decimal `gorm:"type:DECIMAL(20,8)"`
	CurrentSpent   decimal.Decimal `gorm:"type:DECIMAL(20,8)"` // Spending as of the last evaluation
	Active         bool
}

func (b *Budget) AfterFind(tx *gorm.DB) (err error) {
	err = b.DefaultModel.AfterFind(tx)
	if err != nil {
		return err
	}

	b.WindowStart = b.WindowStart.In(time.UTC)
	b.WindowEnd = b.WindowEnd.In(time.UTC)
	return nil
}

// BeforeSave cleans up the user supplied fields and sets the
// window for the budget period if it is not set.
func (b *Budget) BeforeSave(_ *gorm.DB) error {
	b.OwnerID = strings.TrimSpace(b.OwnerID)
	b.Category = sanitize(b.Category)

	if b.Period == "" {
		b.Period = analytics.Monthly
	}

	if b.WindowStart.IsZero() || b.WindowEnd.IsZero() {
		w := analytics.BudgetWindow(b.Period, time.Now().In(time.UTC))
		b.WindowStart, b.WindowEnd = w.Start, w.End
	}

	b.WindowStart = b.WindowStart.In(time.UTC)
	b.WindowEnd = b.WindowEnd.In(time.UTC)

	return nil
}

// BeforeCreate rejects a new active budget that overlaps with another
// active budget of the same owner and category.
func (b *Budget) BeforeCreate(tx *gorm.DB) error {
	_ = b.DefaultModel.BeforeCreate(tx)

	if err := b.validate(); err != nil {
		return err
	}

	return b.checkOverlap(tx)
}

// AfterUpdate repeats the overlap check once updated values are applied,
// so that reactivating a budget cannot bypass it.
func (b *Budget) AfterUpdate(tx *gorm.DB) error {
	return b.checkOverlap(tx)
}

// checkOverlap returns ErrBudgetOverlap if the budget is active and its
// window intersects the window of any other active budget of the same
// owner and category. Windows are half-open, adjacent ones do not overlap.
func (b Budget) checkOverlap(tx *gorm.DB) error {
	if !b.Active {
		return nil
	}

	var count int64
	err := tx.Session(&gorm.Session{NewDB: true}).
		Model(&Budget{}).
		Where("id <> ?", b.ID).
		Where("owner_id = ? AND LOWER(category) = LOWER(?) AND active = ?", b.OwnerID, b.Category, true).
		Where("window_start < ? AND window_end > ?", b.WindowEnd, b.WindowStart).
		Count(&count).Error
	if err != nil {
		return err
	}

	if count > 0 {
		return ErrBudgetOverlap
	}

	return nil
}

// AfterSave validates the values as they are after updates were applied.
func (b *Budget) AfterSave(_ *gorm.DB) error {
	return b.validate()
}

func (b Budget) validate() error {
	if b.OwnerID == "" {
		return ErrOwnerMissing
	}

	if b.Category == "" {
		return ErrBudgetCategoryEmpty
	}

	if !b.Amount.IsPositive() {
		return ErrBudgetAmountNotPositive
	}

	if b.AlertThreshold.IsNegative() || b.AlertThreshold.GreaterThan(decimal.NewFromInt(1)) {
		return ErrBudgetThresholdInvalid
	}

	if !b.Period.Valid() {
		return analytics.ErrPeriodInvalid
	}

	return nil
}

// Limit returns the values the budget tracker evaluates.
func (b Budget) Limit() analytics.Budget {
	return analytics.Budget{
		ID:             b.ID.String(),
		Category:       b.Category,
		Amount:         b.Amount,
		AlertThreshold: b.AlertThreshold,
	}
}

// Contains reports whether the budget window contains t.
func (b Budget) Contains(t time.Time) bool {
	return !t.Before(b.WindowStart) && t.Before(b.WindowEnd)
}

// EvaluationWindow returns the window spending is counted in at now.
func (b Budget) EvaluationWindow(now time.Time) analytics.Window {
	return analytics.EvaluationWindow(b.WindowStart, b.WindowEnd, now)
}

// Entry returns the budget together with the owner's spending buckets of
// its evaluation window at now.
func (b Budget) Entry(db *gorm.DB, now time.Time) (analytics.BudgetEntry, error) {
	w := b.EvaluationWindow(now)

	transactions, err := SpendingTransactions(db, b.OwnerID, w)
	if err != nil {
		return analytics.BudgetEntry{}, err
	}

	resolver, err := OwnerResolver(db, b.OwnerID)
	if err != nil {
		return analytics.BudgetEntry{}, err
	}

	return analytics.BudgetEntry{
		Budget:  b.Limit(),
		Buckets: resolver.Aggregate(transactions, w),
	}, nil
}

// Evaluate computes the current status of the budget from the owner's
// stored transactions and writes the spent amount back.
func (b *Budget) Evaluate(db *gorm.DB, now time.Time) (analytics.BudgetStatus, error) {
	entry, err := b.Entry(db, now)
	if err != nil {
		return analytics.BudgetStatus{}, err
	}

	status := analytics.Evaluate(entry.Budget, entry.Buckets)

	err = b.SetSpent(db, status.Spent)
	if err != nil {
		return analytics.BudgetStatus{}, err
	}

	return status, nil
}

// SetSpent stores the amount spent as of the last evaluation.
func (b *Budget) SetSpent(db *gorm.DB, spent decimal.Decimal) error {
	if !spent.Equal(b.CurrentSpent) {
		err := db.Model(b).UpdateColumn("current_spent", spent).Error
		if err != nil {
			return err
		}
	}
	b.CurrentSpent = spent

	return nil
}

// ActiveBudgets returns the active budgets of the owner whose window
// contains now, ordered by category.
func ActiveBudgets(db *gorm.DB, ownerID string, now time.Time) ([]Budget, error) {
	if ownerID == "" {
		return nil, ErrOwnerMissing
	}

	var budgets []Budget
	err := db.
		Where("owner_id = ? AND active = ?", ownerID, true).
		Where("window_start <= ? AND window_end > ?", now, now).
		Order("category ASC").
		Find(&budgets).Error
	if err != nil {
		return nil, err
	}

	return budgets, nil
}
