package v1

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ledgerlens/backend/internal/analytics"
	"github.com/ledgerlens/backend/internal/models"
	"github.com/shopspring/decimal"
)

// BudgetEditable contains the fields of a budget that can be set on creation.
type BudgetEditable struct {
	OwnerID        string           `json:"ownerId" example:"user-0c8a4b1e"`                        // The owner of the budget
	Category       string           `json:"category" example:"Food & Dining"`                       // The spending category the budget limits
	Amount         decimal.Decimal  `json:"amount" example:"400"`                                   // The spending limit
	Period         analytics.Period `json:"period" example:"monthly" enums:"weekly,monthly,yearly"` // The period of the budget. Defaults to monthly
	AlertThreshold *decimal.Decimal `json:"alertThreshold" example:"0.8"`                           // The usage ratio at which the budget is near its limit. Defaults to 0.8
	Active         *bool            `json:"active" example:"true"`                                  // Only active budgets are evaluated. Defaults to true
}

func (editable BudgetEditable) model() models.Budget {
	threshold := analytics.DefaultAlertThreshold
	if editable.AlertThreshold != nil {
		threshold = *editable.AlertThreshold
	}

	active := true
	if editable.Active != nil {
		active = *editable.Active
	}

	return models.Budget{
		OwnerID:        editable.OwnerID,
		Category:       editable.Category,
		Amount:         editable.Amount,
		Period:         editable.Period,
		AlertThreshold: threshold,
		Active:         active,
	}
}

// BudgetUpdate contains the fields of a budget that can be updated.
//
// Category and period define the budget window and are fixed once
// the budget exists.
type BudgetUpdate struct {
	Amount         decimal.Decimal `json:"amount" example:"450"`
	AlertThreshold decimal.Decimal `json:"alertThreshold" example:"0.9"`
	Active         bool            `json:"active" example:"false"`
}

func (u BudgetUpdate) model() models.Budget {
	return models.Budget{
		Amount:         u.Amount,
		AlertThreshold: u.AlertThreshold,
		Active:         u.Active,
	}
}

type BudgetLinks struct {
	Self string `json:"self" example:"https://example.com/api/v1/budgets/550dc009-cea6-4c12-b2a5-03446eb7b7cf"` // The budget itself
}

// Budget is the API representation of a Budget.
type Budget struct {
	models.DefaultModel
	OwnerID        string                  `json:"ownerId" example:"user-0c8a4b1e"`
	Category       string                  `json:"category" example:"Food & Dining"`
	Amount         decimal.Decimal         `json:"amount" example:"400"`
	Period         analytics.Period        `json:"period" example:"monthly"`
	WindowStart    time.Time               `json:"windowStart" example:"2024-03-01T00:00:00Z"` // First instant of the budget window
	WindowEnd      time.Time               `json:"windowEnd" example:"2024-04-01T00:00:00Z"`   // First instant after the budget window
	AlertThreshold decimal.Decimal         `json:"alertThreshold" example:"0.8"`
	Active         bool                    `json:"active" example:"true"`
	CurrentSpent   decimal.Decimal         `json:"currentSpent" example:"160"` // Spending in the budget window as of the last evaluation
	Status         *analytics.BudgetStatus `json:"status,omitempty"`           // The evaluated status. Only set for active budgets
	Links          BudgetLinks             `json:"links"`
}

func newBudget(c *gin.Context, model models.Budget, status *analytics.BudgetStatus) Budget {
	url := c.GetString(string(models.DBContextURL))

	return Budget{
		DefaultModel:   model.DefaultModel,
		OwnerID:        model.OwnerID,
		Category:       model.Category,
		Amount:         model.Amount,
		Period:         model.Period,
		WindowStart:    model.WindowStart,
		WindowEnd:      model.WindowEnd,
		AlertThreshold: model.AlertThreshold,
		Active:         model.Active,
		CurrentSpent:   model.CurrentSpent,
		Status:         status,
		Links: BudgetLinks{
			Self: fmt.Sprintf("%s/v1/budgets/%s", url, model.ID),
		},
	}
}

type BudgetListResponse struct {
	Data       []Budget    `json:"data"`                                                  // List of budgets
	Error      *string     `json:"error" example:"the owner query parameter must be set"` // The error, if any occurred
	Pagination *Pagination `json:"pagination"`                                            // Pagination information
}

type BudgetCreateResponse struct {
	Error *string          `json:"error" example:"the body of your request contains invalid or un-parseable data. Please check and try again"` // The error, if any occurred
	Data  []BudgetResponse `json:"data"`                                                                                                       // List of created budgets
}

func (b *BudgetCreateResponse) appendError(err error, currentStatus int) int {
	s := err.Error()
	b.Data = append(b.Data, BudgetResponse{Error: &s})

	// The final status code is the highest HTTP status code number
	newStatus := status(err)
	if newStatus > currentStatus {
		return newStatus
	}

	return currentStatus
}

type BudgetResponse struct {
	Error *string `json:"error" example:"there is no budget matching your query"` // The error, if any occurred for this budget
	Data  *Budget `json:"data"`                                                   // The budget data, if creation was successful
}

// BudgetQueryFilter contains the fields that budgets can be filtered with.
type BudgetQueryFilter struct {
	OwnerID  string           `form:"owner" filterField:"false"`    // By owner. Required
	Category string           `form:"category" filterField:"false"` // By category, case insensitive
	Period   analytics.Period `form:"period"`                       // By period
	Active   bool             `form:"active"`                       // By active state
	Offset   uint             `form:"offset" filterField:"false"`   // The offset of the first budget returned. Defaults to 0.
	Limit    int              `form:"limit" filterField:"false"`    // Maximum number of budgets to return. Defaults to 50.
}

func (f BudgetQueryFilter) model() models.Budget {
	return models.Budget{
		OwnerID: f.OwnerID,
		Period:  f.Period,
		Active:  f.Active,
	}
}

// BudgetCategory is a suggested budget category.
type BudgetCategory struct {
	Name          string          `json:"name" example:"Food & Dining"`
	Icon          string          `json:"icon" example:"🍽️"`
	AverageAmount decimal.Decimal `json:"averageAmount" example:"400"` // A typical monthly amount for the category
	Color         string          `json:"color" example:"#FF6B6B"`
}

type BudgetCategoryListResponse struct {
	Data []BudgetCategory `json:"data"` // List of suggested categories
}
