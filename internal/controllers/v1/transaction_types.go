package v1

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/ledgerlens/backend/internal/analytics"
	"github.com/ledgerlens/backend/internal/models"
	"github.com/ledgerlens/backend/internal/types"
	ll_uuid "github.com/ledgerlens/backend/internal/uuid"
	"github.com/shopspring/decimal"
)

// TransactionEditable contains the fields of a manually imported transaction.
type TransactionEditable struct {
	OwnerID      string          `json:"ownerId" example:"user-0c8a4b1e"`                        // The owner of the transaction
	ExternalID   string          `json:"externalId" example:"csv-2024-03-0017"`                  // An optional ID from the source of the import
	AccountID    string          `json:"accountId" example:"checking"`                           // The account the transaction was made on
	Date         types.Date      `json:"date" example:"2024-03-15"`                              // The day of the transaction
	Amount       decimal.Decimal `json:"amount" example:"12.50"`                                 // Positive amounts are money leaving the account
	MerchantName string          `json:"merchantName" example:"Starbucks"`                       // Name of the merchant, if known
	Name         string          `json:"name" example:"STARBUCKS STORE 1234"`                    // Raw description of the transaction
	Categories   []string        `json:"categories" example:"Food and Drink,Restaurants,Coffee"` // Category hierarchy from the source, broadest first
}

func (editable TransactionEditable) model() models.Transaction {
	return models.Transaction{
		OwnerID:      editable.OwnerID,
		ExternalID:   editable.ExternalID,
		AccountID:    editable.AccountID,
		Date:         editable.Date,
		Amount:       editable.Amount,
		MerchantName: editable.MerchantName,
		Name:         editable.Name,
		Categories:   editable.Categories,
	}
}

type TransactionLinks struct {
	Self string `json:"self" example:"https://example.com/api/v1/transactions/d430d7c3-d14c-4712-9336-ee56965a6673"` // The transaction itself
}

// Transaction is the API representation of a Transaction together with the
// category it resolves to.
type Transaction struct {
	models.DefaultModel
	OwnerID      string           `json:"ownerId" example:"user-0c8a4b1e"`
	ItemID       *uuid.UUID       `json:"itemId" example:"2e1c2a06-6d4c-49d8-8e1a-14e3df39f0a5"` // The item the transaction was synced from. Empty for imported transactions
	ExternalID   string           `json:"externalId" example:"lPNjeW1nR6CDn5okmGQ6hEpMo4lLNoSrzqDje"`
	AccountID    string           `json:"accountId" example:"BxBXxLj1m4HMXBm9WZZmCWVbPjX16EHwv99vp"`
	Date         types.Date       `json:"date" example:"2024-03-15"`
	Amount       decimal.Decimal  `json:"amount" example:"12.50"`
	MerchantName string           `json:"merchantName" example:"Starbucks"`
	Name         string           `json:"name" example:"STARBUCKS STORE 1234"`
	Categories   []string         `json:"categories" example:"Food and Drink,Restaurants,Coffee"`
	Category     string           `json:"category" example:"Food & Dining"` // The resolved spending category
	Color        string           `json:"color" example:"#FF6B6B"`          // Display color of the resolved category
	Links        TransactionLinks `json:"links"`
}

func newTransaction(c *gin.Context, resolver analytics.Resolver, model models.Transaction) Transaction {
	url := c.GetString(string(models.DBContextURL))
	category := resolver.Resolve(model.Analytics())

	categories := model.Categories
	if categories == nil {
		categories = []string{}
	}

	return Transaction{
		DefaultModel: model.DefaultModel,
		OwnerID:      model.OwnerID,
		ItemID:       model.ItemID,
		ExternalID:   model.ExternalID,
		AccountID:    model.AccountID,
		Date:         model.Date,
		Amount:       model.Amount,
		MerchantName: model.MerchantName,
		Name:         model.Name,
		Categories:   categories,
		Category:     category,
		Color:        analytics.Color(category),
		Links: TransactionLinks{
			Self: fmt.Sprintf("%s/v1/transactions/%s", url, model.ID),
		},
	}
}

type TransactionListResponse struct {
	Data       []Transaction `json:"data"`                                                  // List of transactions
	Error      *string       `json:"error" example:"the owner query parameter must be set"` // The error, if any occurred
	Pagination *Pagination   `json:"pagination"`                                            // Pagination information
}

type TransactionCreateResponse struct {
	Error *string               `json:"error" example:"the body of your request contains invalid or un-parseable data. Please check and try again"` // The error, if any occurred
	Data  []TransactionResponse `json:"data"`                                                                                                       // List of created transactions
}

func (t *TransactionCreateResponse) appendError(err error, currentStatus int) int {
	s := err.Error()
	t.Data = append(t.Data, TransactionResponse{Error: &s})

	// The final status code is the highest HTTP status code number
	newStatus := status(err)
	if newStatus > currentStatus {
		return newStatus
	}

	return currentStatus
}

type TransactionResponse struct {
	Error *string      `json:"error" example:"there is no transaction matching your query"` // The error, if any occurred for this transaction
	Data  *Transaction `json:"data"`                                                        // The transaction data, if creation was successful
}

// TransactionQueryFilter contains the fields that transactions can be filtered with.
type TransactionQueryFilter struct {
	OwnerID   string       `form:"owner" filterField:"false"`     // By owner. Required
	ItemID    ll_uuid.UUID `form:"item" filterField:"false"`      // By the item the transaction was synced from
	AccountID string       `form:"account"`                       // By account
	FromDate  types.Date   `form:"fromDate" filterField:"false"`  // From this date
	UntilDate types.Date   `form:"untilDate" filterField:"false"` // Until this date, inclusive
	Category  string       `form:"category" filterField:"false"`  // By resolved category, case insensitive
	Offset    uint         `form:"offset" filterField:"false"`    // The offset of the first transaction returned. Defaults to 0.
	Limit     int          `form:"limit" filterField:"false"`     // Maximum number of transactions to return. Defaults to 50.
}

func (f TransactionQueryFilter) model() models.Transaction {
	return models.Transaction{
		AccountID: f.AccountID,
	}
}
