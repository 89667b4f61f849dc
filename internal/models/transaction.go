package models

import (
	"strings"

	"github.com/google/uuid"
	"github.com/ledgerlens/backend/internal/analytics"
	"github.com/ledgerlens/backend/internal/types"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Transaction is a raw transaction, either synced from an Item or
// imported manually.
type Transaction struct {
	DefaultModel
	OwnerID      string     `gorm:"index"`
	ItemID       *uuid.UUID `gorm:"uniqueIndex:transaction_item_external"`
	Item         Item       `json:"-"`
	ExternalID   string     `gorm:"uniqueIndex:transaction_item_external"` // ID assigned by the aggregation API
	AccountID    string
	Date         types.Date      `gorm:"index"`
	Amount       decimal.Decimal `gorm:"type:DECIMAL(20,8)"` // Positive amounts are money leaving the account
	MerchantName string
	Name         string
	Categories   []string `gorm:"serializer:json"` // Category hierarchy, broadest first
}

func (t *Transaction) BeforeSave(_ *gorm.DB) error {
	t.OwnerID = strings.TrimSpace(t.OwnerID)
	t.ExternalID = strings.TrimSpace(t.ExternalID)
	t.MerchantName = strings.TrimSpace(t.MerchantName)
	t.Name = strings.TrimSpace(t.Name)

	// Ensure that the Item ID is nil and not a pointer to a nil UUID
	if t.ItemID != nil && *t.ItemID == uuid.Nil {
		t.ItemID = nil
	}

	if t.OwnerID == "" {
		return ErrOwnerMissing
	}

	return nil
}

// Analytics returns the transaction in the form the analytics engine uses.
func (t Transaction) Analytics() analytics.Transaction {
	return analytics.Transaction{
		ID:           t.ID.String(),
		AccountID:    t.AccountID,
		Date:         t.Date.Time(),
		Amount:       t.Amount,
		MerchantName: t.MerchantName,
		Name:         t.Name,
		Categories:   t.Categories,
	}
}

// SpendingTransactions returns the owner's transactions with a date
// within w.
func SpendingTransactions(db *gorm.DB, ownerID string, w analytics.Window) ([]analytics.Transaction, error) {
	if ownerID == "" {
		return nil, ErrOwnerMissing
	}

	var transactions []Transaction
	err := db.
		Where(&Transaction{OwnerID: ownerID}).
		Where("date >= ? AND date <= ?", types.DateOf(w.Start), types.DateOf(w.End)).
		Order("date ASC").
		Find(&transactions).Error
	if err != nil {
		return nil, err
	}

	result := make([]analytics.Transaction, 0, len(transactions))
	for _, t := range transactions {
		result = append(result, t.Analytics())
	}

	return result, nil
}
