package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ledgerlens/backend/internal/httputil"
	"github.com/ledgerlens/backend/internal/models"
)

func RegisterRootRoutes(r *gin.RouterGroup) {
	r.GET("", Get)
	r.OPTIONS("", Options)
}

type Response struct {
	Links Links `json:"links"` // Links for the v1 API
}

type Links struct {
	Analytics        string `json:"analytics" example:"https://example.com/api/v1/analytics"`                // URL of the analytics endpoints
	Budgets          string `json:"budgets" example:"https://example.com/api/v1/budgets"`                    // URL of Budget collection endpoint
	BudgetCategories string `json:"budgetCategories" example:"https://example.com/api/v1/budget-categories"` // URL of the suggested budget categories
	CategoryRules    string `json:"categoryRules" example:"https://example.com/api/v1/category-rules"`       // URL of Category Rule collection endpoint
	Items            string `json:"items" example:"https://example.com/api/v1/items"`                        // URL of Item collection endpoint
	Sync             string `json:"sync" example:"https://example.com/api/v1/sync"`                          // URL of the owner sync endpoint
	Transactions     string `json:"transactions" example:"https://example.com/api/v1/transactions"`          // URL of Transaction collection endpoint
}

// Get returns the link list for v1
//
//	@Summary		v1 API
//	@Description	Returns general information about the v1 API
//	@Tags			v1
//	@Success		200	{object}	Response
//	@Router			/v1 [get]
func Get(c *gin.Context) {
	url := c.GetString(string(models.DBContextURL))

	c.JSON(http.StatusOK, Response{
		Links: Links{
			Analytics:        url + "/v1/analytics",
			Budgets:          url + "/v1/budgets",
			BudgetCategories: url + "/v1/budget-categories",
			CategoryRules:    url + "/v1/category-rules",
			Items:            url + "/v1/items",
			Sync:             url + "/v1/sync",
			Transactions:     url + "/v1/transactions",
		},
	})
}

// Options returns the allowed HTTP methods
//
//	@Summary		Allowed HTTP verbs
//	@Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
//	@Tags			v1
//	@Success		204
//	@Router			/v1 [options]
func Options(c *gin.Context) {
	httputil.OptionsGet(c)
}
