package v1

import (
	"net/http"
	"slices"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ledgerlens/backend/internal/analytics"
	"github.com/ledgerlens/backend/internal/httperror"
	"github.com/ledgerlens/backend/internal/httputil"
	"github.com/ledgerlens/backend/internal/models"
	"github.com/shopspring/decimal"
)

// RegisterBudgetRoutes registers the routes for budgets with
// the RouterGroup that is passed.
func RegisterBudgetRoutes(r *gin.RouterGroup) {
	// Root group
	{
		r.OPTIONS("", OptionsBudgetList)
		r.GET("", GetBudgets)
		r.POST("", CreateBudgets)
	}

	// Budget with ID
	{
		r.OPTIONS("/:id", OptionsBudgetDetail)
		r.GET("/:id", GetBudget)
		r.PATCH("/:id", UpdateBudget)
		r.DELETE("/:id", DeleteBudget)
	}
}

// RegisterBudgetCategoryRoutes registers the routes for the suggested
// budget categories.
func RegisterBudgetCategoryRoutes(r *gin.RouterGroup) {
	r.OPTIONS("", OptionsBudgetCategories)
	r.GET("", GetBudgetCategories)
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Budgets
// @Success		204
// @Router			/v1/budgets [options]
func OptionsBudgetList(c *gin.Context) {
	httputil.OptionsGetPost(c)
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Budgets
// @Success		204
// @Failure		400	{object}	httperror.Error
// @Failure		404	{object}	httperror.Error
// @Failure		500	{object}	httperror.Error
// @Param			id	path		URIID	true	"ID of the budget"
// @Router			/v1/budgets/{id} [options]
func OptionsBudgetDetail(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		c.JSON(status(err), httperror.New(err))
		return
	}

	err = models.DB.First(&models.Budget{}, uri.ID).Error
	if err != nil {
		c.JSON(status(err), httperror.New(err))
		return
	}

	httputil.OptionsGetPatchDelete(c)
}

// @Summary		Create budgets
// @Description	Creates budgets from the list of submitted budget data. The window of each budget is the current week, month or year. The response code is the highest response code number that a single budget creation would have caused. If it is not equal to 201, at least one budget has an error.
// @Tags			Budgets
// @Accept			json
// @Produce		json
// @Success		201		{object}	BudgetCreateResponse
// @Failure		400		{object}	BudgetCreateResponse
// @Failure		500		{object}	BudgetCreateResponse
// @Param			budgets	body		[]BudgetEditable	true	"Budgets"
// @Router			/v1/budgets [post]
func CreateBudgets(c *gin.Context) {
	var budgets []BudgetEditable

	err := httputil.BindData(c, &budgets)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), BudgetCreateResponse{Error: &e})
		return
	}

	// The final http status. Will be modified when errors occur
	status := http.StatusCreated
	r := BudgetCreateResponse{}

	for _, editable := range budgets {
		budget := editable.model()

		err := models.DB.Create(&budget).Error
		if err != nil {
			status = r.appendError(err, status)
			continue
		}

		data := newBudget(c, budget, nil)
		r.Data = append(r.Data, BudgetResponse{Data: &data})
	}

	c.JSON(status, r)
}

// @Summary		List budgets
// @Description	Returns the budgets of an owner. Active budgets are evaluated against the stored transactions.
// @Tags			Budgets
// @Produce		json
// @Success		200			{object}	BudgetListResponse
// @Failure		400			{object}	BudgetListResponse
// @Failure		500			{object}	BudgetListResponse
// @Param			owner		query		string	true	"Owner of the budgets"
// @Param			category	query		string	false	"Filter by category"
// @Param			period		query		string	false	"Filter by period"
// @Param			active		query		bool	false	"Filter by active state"
// @Param			at			query		string	false	"Evaluate at this time instead of now, RFC3339"
// @Param			offset		query		uint	false	"The offset of the first budget returned. Defaults to 0."
// @Param			limit		query		int		false	"Maximum number of budgets to return. Defaults to 50."
// @Router			/v1/budgets [get]
func GetBudgets(c *gin.Context) {
	var filter BudgetQueryFilter
	if err := c.ShouldBind(&filter); err != nil {
		s := httputil.ErrInvalidQueryString.Error()
		c.JSON(http.StatusBadRequest, BudgetListResponse{Error: &s})
		return
	}

	if filter.OwnerID == "" {
		s := errOwnerParameter.Error()
		c.JSON(http.StatusBadRequest, BudgetListResponse{Error: &s})
		return
	}

	at, err := now(c)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), BudgetListResponse{Error: &s})
		return
	}

	queryFields, setFields := httputil.GetURLFields(c.Request.URL, filter)

	q := models.DB.
		Order("window_start DESC, category ASC").
		Where("owner_id = ?", filter.OwnerID).
		Where(filter.model(), queryFields...)

	if filter.Category != "" {
		q = q.Where("LOWER(category) = LOWER(?)", filter.Category)
	}

	// Set the offset. Does not need checking since the default is 0
	q = q.Offset(int(filter.Offset))

	limit := 50
	if slices.Contains(setFields, "Limit") {
		limit = filter.Limit
	}
	q = q.Limit(limit)

	var budgets []models.Budget
	err = q.Find(&budgets).Error
	if err != nil {
		s := err.Error()
		c.JSON(status(err), BudgetListResponse{Error: &s})
		return
	}

	var count int64
	err = q.Limit(-1).Offset(-1).Count(&count).Error
	if err != nil {
		s := err.Error()
		c.JSON(status(err), BudgetListResponse{Error: &s})
		return
	}

	data := make([]Budget, 0, len(budgets))
	for _, budget := range budgets {
		apiResource, err := evaluatedBudget(c, &budget, at)
		if err != nil {
			s := err.Error()
			c.JSON(status(err), BudgetListResponse{Error: &s})
			return
		}

		data = append(data, apiResource)
	}

	c.JSON(http.StatusOK, BudgetListResponse{
		Data: data,
		Pagination: &Pagination{
			Count:  len(data),
			Total:  count,
			Offset: filter.Offset,
			Limit:  limit,
		},
	})
}

// @Summary		Get budget
// @Description	Returns a specific budget. Active budgets are evaluated against the stored transactions and their current spending is updated.
// @Tags			Budgets
// @Produce		json
// @Success		200	{object}	BudgetResponse
// @Failure		400	{object}	BudgetResponse
// @Failure		404	{object}	BudgetResponse
// @Failure		500	{object}	BudgetResponse
// @Param			id	path		URIID	true	"ID of the budget"
// @Param			at	query		string	false	"Evaluate at this time instead of now, RFC3339"
// @Router			/v1/budgets/{id} [get]
func GetBudget(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), BudgetResponse{Error: &s})
		return
	}

	at, err := now(c)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), BudgetResponse{Error: &s})
		return
	}

	var budget models.Budget
	err = models.DB.First(&budget, uri.ID).Error
	if err != nil {
		s := err.Error()
		c.JSON(status(err), BudgetResponse{Error: &s})
		return
	}

	data, err := evaluatedBudget(c, &budget, at)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), BudgetResponse{Error: &s})
		return
	}

	c.JSON(http.StatusOK, BudgetResponse{Data: &data})
}

// @Summary		Update budget
// @Description	Updates a budget. Only values to be updated need to be specified.
// @Tags			Budgets
// @Accept			json
// @Produce		json
// @Success		200		{object}	BudgetResponse
// @Failure		400		{object}	BudgetResponse
// @Failure		404		{object}	BudgetResponse
// @Failure		500		{object}	BudgetResponse
// @Param			id		path		URIID			true	"ID of the budget"
// @Param			budget	body		BudgetUpdate	true	"Budget"
// @Router			/v1/budgets/{id} [patch]
func UpdateBudget(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), BudgetResponse{Error: &s})
		return
	}

	var budget models.Budget
	err = models.DB.First(&budget, uri.ID).Error
	if err != nil {
		s := err.Error()
		c.JSON(status(err), BudgetResponse{Error: &s})
		return
	}

	updateFields, err := httputil.GetBodyFields(c, BudgetUpdate{})
	if err != nil {
		s := err.Error()
		c.JSON(status(err), BudgetResponse{Error: &s})
		return
	}

	var data BudgetUpdate
	err = httputil.BindData(c, &data)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), BudgetResponse{Error: &s})
		return
	}

	err = models.DB.Model(&budget).Select("", updateFields...).Updates(data.model()).Error
	if err != nil {
		s := err.Error()
		c.JSON(status(err), BudgetResponse{Error: &s})
		return
	}

	apiResource := newBudget(c, budget, nil)
	c.JSON(http.StatusOK, BudgetResponse{Data: &apiResource})
}

// @Summary		Delete budget
// @Description	Deletes a budget
// @Tags			Budgets
// @Success		204
// @Failure		400	{object}	httperror.Error
// @Failure		404	{object}	httperror.Error
// @Failure		500	{object}	httperror.Error
// @Param			id	path		URIID	true	"ID of the budget"
// @Router			/v1/budgets/{id} [delete]
func DeleteBudget(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		c.JSON(status(err), httperror.New(err))
		return
	}

	var budget models.Budget
	err = models.DB.First(&budget, uri.ID).Error
	if err != nil {
		c.JSON(status(err), httperror.New(err))
		return
	}

	err = models.DB.Delete(&budget).Error
	if err != nil {
		c.JSON(status(err), httperror.New(err))
		return
	}

	c.Status(http.StatusNoContent)
}

// evaluatedBudget returns the API representation of a budget. Active
// budgets are evaluated at the given time.
func evaluatedBudget(c *gin.Context, budget *models.Budget, at time.Time) (Budget, error) {
	if !budget.Active {
		return newBudget(c, *budget, nil), nil
	}

	s, err := budget.Evaluate(models.DB, at)
	if err != nil {
		return Budget{}, err
	}

	return newBudget(c, *budget, &s), nil
}

var budgetCategories = []struct {
	name    string
	icon    string
	average int64
}{
	{analytics.FoodAndDining, "🍽️", 400},
	{analytics.Shopping, "🛍️", 300},
	{analytics.Transportation, "🚗", 200},
	{analytics.Entertainment, "🎬", 150},
	{analytics.Healthcare, "⚕️", 100},
	{analytics.Utilities, "💡", 250},
	{analytics.Services, "🔧", 100},
	{analytics.Travel, "✈️", 200},
	{"Education", "📚", 100},
	{"Personal Care", "💄", 80},
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Budgets
// @Success		204
// @Router			/v1/budget-categories [options]
func OptionsBudgetCategories(c *gin.Context) {
	httputil.OptionsGet(c)
}

// @Summary		Suggested budget categories
// @Description	Returns categories that budgets are commonly created for, with typical monthly amounts
// @Tags			Budgets
// @Produce		json
// @Success		200	{object}	BudgetCategoryListResponse
// @Router			/v1/budget-categories [get]
func GetBudgetCategories(c *gin.Context) {
	data := make([]BudgetCategory, 0, len(budgetCategories))
	for _, category := range budgetCategories {
		data = append(data, BudgetCategory{
			Name:          category.name,
			Icon:          category.icon,
			AverageAmount: decimal.NewFromInt(category.average),
			Color:         analytics.Color(category.name),
		})
	}

	c.JSON(http.StatusOK, BudgetCategoryListResponse{Data: data})
}
