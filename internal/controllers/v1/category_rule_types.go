package v1

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/ledgerlens/backend/internal/analytics"
	"github.com/ledgerlens/backend/internal/models"
)

type CategoryRuleEditable struct {
	OwnerID  string `json:"ownerId" example:"user-0c8a4b1e"`  // The owner of the rule. Cannot be changed after creation
	Priority uint   `json:"priority" example:"3"`             // Rules with lower priority are tried first
	Match    string `json:"match" example:"*farmers market*"` // Glob pattern tested against the merchant and the transaction name. Case insensitive
	Category string `json:"category" example:"Groceries"`     // The category of matching transactions
}

func (editable CategoryRuleEditable) model() models.CategoryRule {
	return models.CategoryRule{
		OwnerID:  editable.OwnerID,
		Priority: editable.Priority,
		Match:    editable.Match,
		Category: editable.Category,
	}
}

type CategoryRuleListResponse struct {
	Data       []CategoryRule `json:"data"`                                                  // List of Category Rules
	Error      *string        `json:"error" example:"the owner query parameter must be set"` // The error, if any occurred
	Pagination *Pagination    `json:"pagination"`                                            // Pagination information
}

type CategoryRuleCreateResponse struct {
	Error *string                `json:"error" example:"the specified resource ID is not a valid UUID"` // The error, if any occurred
	Data  []CategoryRuleResponse `json:"data"`                                                          // List of created Category Rules
}

func (r *CategoryRuleCreateResponse) appendError(err error, currentStatus int) int {
	s := err.Error()
	r.Data = append(r.Data, CategoryRuleResponse{Error: &s})

	// The final status code is the highest HTTP status code number
	newStatus := status(err)
	if newStatus > currentStatus {
		return newStatus
	}

	return currentStatus
}

type CategoryRuleResponse struct {
	Error *string       `json:"error" example:"the specified resource ID is not a valid UUID"` // The error, if any occurred for this Category Rule
	Data  *CategoryRule `json:"data"`                                                          // The Category Rule data, if creation was successful
}

type CategoryRuleLinks struct {
	Self string `json:"self" example:"https://example.com/api/v1/category-rules/95685c82-53c6-455d-b235-f49960b73b21"` // The category rule itself
}

// CategoryRule is the API representation of a Category Rule.
type CategoryRule struct {
	models.DefaultModel
	CategoryRuleEditable
	Color string            `json:"color" example:"#96CEB4"` // Display color of the category
	Links CategoryRuleLinks `json:"links"`
}

func newCategoryRule(c *gin.Context, model models.CategoryRule) CategoryRule {
	url := c.GetString(string(models.DBContextURL))

	return CategoryRule{
		DefaultModel: model.DefaultModel,
		CategoryRuleEditable: CategoryRuleEditable{
			OwnerID:  model.OwnerID,
			Priority: model.Priority,
			Match:    model.Match,
			Category: model.Category,
		},
		Color: analytics.Color(model.Category),
		Links: CategoryRuleLinks{
			Self: fmt.Sprintf("%s/v1/category-rules/%s", url, model.ID),
		},
	}
}

// CategoryRuleQueryFilter contains the fields that Category Rules can be filtered with.
type CategoryRuleQueryFilter struct {
	OwnerID  string `form:"owner" filterField:"false"`    // By owner. Required
	Priority uint   `form:"priority"`                     // By priority
	Match    string `form:"match" filterField:"false"`    // By match
	Category string `form:"category" filterField:"false"` // By category, case insensitive
	Offset   uint   `form:"offset" filterField:"false"`   // The offset of the first Category Rule returned. Defaults to 0.
	Limit    int    `form:"limit" filterField:"false"`    // Maximum number of Category Rules to return. Defaults to 50.
}

func (f CategoryRuleQueryFilter) model() models.CategoryRule {
	return models.CategoryRule{
		Priority: f.Priority,
	}
}
