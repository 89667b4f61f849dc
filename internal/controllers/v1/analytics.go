package v1

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ledgerlens/backend/internal/analytics"
	"github.com/ledgerlens/backend/internal/httputil"
	"github.com/ledgerlens/backend/internal/models"
	"github.com/ledgerlens/backend/internal/notify"
	"github.com/ledgerlens/backend/internal/types"
)

// RegisterAnalyticsRoutes registers the routes for spending analytics with
// the RouterGroup that is passed.
func RegisterAnalyticsRoutes(r *gin.RouterGroup) {
	r.OPTIONS("/spending", OptionsAnalytics)
	r.GET("/spending", GetSpendingAnalytics)
	r.OPTIONS("/spending/comparison", OptionsAnalytics)
	r.GET("/spending/comparison", GetSpendingComparison)
	r.OPTIONS("/budgets", OptionsAnalytics)
	r.GET("/budgets", GetBudgetAnalysis)
}

// AnalyticsQueryFilter contains the parameters of the analytics endpoints.
type AnalyticsQueryFilter struct {
	OwnerID   string     `form:"owner"`     // The owner to analyze. Required
	Period    string     `form:"period"`    // weekly, monthly or yearly. Defaults to monthly
	FromDate  types.Date `form:"fromDate"`  // Start of a custom window. Must be set together with untilDate
	UntilDate types.Date `form:"untilDate"` // Last day of a custom window
}

type SpendingResponse struct {
	Data  *analytics.SpendingSummary `json:"data"`                                                  // Spending breakdown
	Error *string                    `json:"error" example:"the owner query parameter must be set"` // The error, if any occurred
}

type ComparisonResponse struct {
	Data  *analytics.ComparisonResult `json:"data"`                                                  // Period over period comparison
	Error *string                     `json:"error" example:"the owner query parameter must be set"` // The error, if any occurred
}

type BudgetAnalysisResponse struct {
	Data  *analytics.BudgetSummary `json:"data"`                                                  // Status of all current budgets
	Error *string                  `json:"error" example:"the owner query parameter must be set"` // The error, if any occurred
}

// analyticsRequest binds the common parameters of the analytics endpoints.
func analyticsRequest(c *gin.Context) (filter AnalyticsQueryFilter, period analytics.Period, at time.Time, err error) {
	if err = c.ShouldBind(&filter); err != nil {
		return filter, period, at, httputil.ErrInvalidQueryString
	}

	if filter.OwnerID == "" {
		return filter, period, at, errOwnerParameter
	}

	period, err = analytics.ParsePeriod(filter.Period)
	if err != nil {
		return filter, period, at, err
	}

	at, err = now(c)
	return filter, period, at, err
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Analytics
// @Success		204
// @Router			/v1/analytics/spending [options]
// @Router			/v1/analytics/spending/comparison [options]
// @Router			/v1/analytics/budgets [options]
func OptionsAnalytics(c *gin.Context) {
	httputil.OptionsGet(c)
}

// @Summary		Spending analytics
// @Description	Returns the spending of an owner by category. The window is the current period to date unless fromDate and untilDate are set.
// @Tags			Analytics
// @Produce		json
// @Success		200			{object}	SpendingResponse
// @Failure		400			{object}	SpendingResponse
// @Failure		500			{object}	SpendingResponse
// @Param			owner		query		string	true	"Owner to analyze"
// @Param			period		query		string	false	"weekly, monthly or yearly. Defaults to monthly"
// @Param			fromDate	query		string	false	"First day of a custom window"
// @Param			untilDate	query		string	false	"Last day of a custom window"
// @Param			at			query		string	false	"Analyze at this time instead of now, RFC3339"
// @Router			/v1/analytics/spending [get]
func GetSpendingAnalytics(c *gin.Context) {
	filter, period, at, err := analyticsRequest(c)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), SpendingResponse{Error: &s})
		return
	}

	w, err := spendingWindow(filter, period, at)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), SpendingResponse{Error: &s})
		return
	}

	transactions, err := models.SpendingTransactions(models.DB, filter.OwnerID, w)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), SpendingResponse{Error: &s})
		return
	}

	resolver, err := models.OwnerResolver(models.DB, filter.OwnerID)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), SpendingResponse{Error: &s})
		return
	}

	summary := resolver.SpendingAnalytics(transactions, w)
	c.JSON(http.StatusOK, SpendingResponse{Data: &summary})
}

// spendingWindow returns the custom window if both dates are set and the
// current period to date otherwise.
func spendingWindow(filter AnalyticsQueryFilter, period analytics.Period, at time.Time) (analytics.Window, error) {
	if filter.FromDate.IsZero() && filter.UntilDate.IsZero() {
		current, _ := analytics.ComparisonWindows(period, at)
		return current, nil
	}

	if filter.FromDate.IsZero() || filter.UntilDate.IsZero() {
		return analytics.Window{}, errDateIncomplete
	}

	if filter.UntilDate.Before(filter.FromDate) {
		return analytics.Window{}, errDateRange
	}

	return analytics.Window{
		Start: filter.FromDate.Time(),
		End:   filter.UntilDate.AddDays(1).Time().Add(-time.Nanosecond),
	}, nil
}

// @Summary		Spending comparison
// @Description	Compares the spending of the current period to date with the full previous period and derives insights
// @Tags			Analytics
// @Produce		json
// @Success		200		{object}	ComparisonResponse
// @Failure		400		{object}	ComparisonResponse
// @Failure		500		{object}	ComparisonResponse
// @Param			owner	query		string	true	"Owner to analyze"
// @Param			period	query		string	false	"weekly, monthly or yearly. Defaults to monthly"
// @Param			at		query		string	false	"Analyze at this time instead of now, RFC3339"
// @Router			/v1/analytics/spending/comparison [get]
func GetSpendingComparison(c *gin.Context) {
	filter, period, at, err := analyticsRequest(c)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), ComparisonResponse{Error: &s})
		return
	}

	current, previous := analytics.ComparisonWindows(period, at)
	transactions, err := models.SpendingTransactions(models.DB, filter.OwnerID, analytics.Window{
		Start: previous.Start,
		End:   current.End,
	})
	if err != nil {
		s := err.Error()
		c.JSON(status(err), ComparisonResponse{Error: &s})
		return
	}

	resolver, err := models.OwnerResolver(models.DB, filter.OwnerID)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), ComparisonResponse{Error: &s})
		return
	}

	result := resolver.Compare(transactions, period, at)
	c.JSON(http.StatusOK, ComparisonResponse{Data: &result})
}

// @Summary		Budget analysis
// @Description	Evaluates all active budgets of an owner whose window contains the current time. Alerts for budgets that are over or near their limit are published.
// @Tags			Analytics
// @Produce		json
// @Success		200		{object}	BudgetAnalysisResponse
// @Failure		400		{object}	BudgetAnalysisResponse
// @Failure		500		{object}	BudgetAnalysisResponse
// @Param			owner	query		string	true	"Owner to analyze"
// @Param			at		query		string	false	"Analyze at this time instead of now, RFC3339"
// @Router			/v1/analytics/budgets [get]
func GetBudgetAnalysis(c *gin.Context) {
	owner := c.Query("owner")
	if owner == "" {
		s := errOwnerParameter.Error()
		c.JSON(http.StatusBadRequest, BudgetAnalysisResponse{Error: &s})
		return
	}

	at, err := now(c)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), BudgetAnalysisResponse{Error: &s})
		return
	}

	budgets, err := models.ActiveBudgets(models.DB, owner, at)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), BudgetAnalysisResponse{Error: &s})
		return
	}

	entries := make([]analytics.BudgetEntry, 0, len(budgets))
	for _, b := range budgets {
		entry, err := b.Entry(models.DB, at)
		if err != nil {
			s := err.Error()
			c.JSON(status(err), BudgetAnalysisResponse{Error: &s})
			return
		}
		entries = append(entries, entry)
	}

	summary := analytics.BudgetAnalysis(entries)

	// Reports are in the order of the entries
	for i, report := range summary.Budgets {
		err := budgets[i].SetSpent(models.DB, report.Spent)
		if err != nil {
			s := err.Error()
			c.JSON(status(err), BudgetAnalysisResponse{Error: &s})
			return
		}
	}

	notify.Send(c.Request.Context(), notify.Default, owner, summary.Alerts)

	c.JSON(http.StatusOK, BudgetAnalysisResponse{Data: &summary})
}
