package v1_test

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/ledgerlens/backend/internal/analytics"
	v1 "github.com/ledgerlens/backend/internal/controllers/v1"
	"github.com/ledgerlens/backend/internal/models"
	"github.com/ledgerlens/backend/internal/types"
	"github.com/ledgerlens/backend/test"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

// today is the date that transactions in the window of a budget created
// now are dated on.
func today() types.Date {
	return types.DateOf(time.Now().In(time.UTC))
}

// TestBudgetsDBClosed verifies that errors are processed correctly when
// the database is closed.
func (suite *TestSuiteStandard) TestBudgetsDBClosed() {
	tests := []struct {
		name string             // Name of the test
		test func(t *testing.T) // Code to run
	}{
		{
			"Creation fails",
			func(t *testing.T) {
				suite.createTestBudget(v1.BudgetEditable{OwnerID: "alice", Category: analytics.Shopping, Amount: decimal.NewFromInt(10)}, http.StatusInternalServerError)
			},
		},
		{
			"GET fails",
			func(t *testing.T) {
				recorder := test.Request(t, http.MethodGet, "http://example.com/v1/budgets?owner=alice", "")
				test.AssertHTTPStatus(t, &recorder, http.StatusInternalServerError)
				assert.Equal(t, models.ErrGeneral.Error(), test.DecodeError(t, recorder.Body.Bytes()))
			},
		},
	}

	for _, tt := range tests {
		suite.T().Run(tt.name, func(t *testing.T) {
			suite.CloseDB()

			tt.test(t)
		})
	}
}

// TestBudgetOptions verifies that OPTIONS requests are handled correctly.
func (suite *TestSuiteStandard) TestBudgetOptions() {
	budget := suite.createTestBudget(v1.BudgetEditable{OwnerID: "alice", Category: analytics.Shopping, Amount: decimal.NewFromInt(10)})

	tests := []struct {
		name   string
		id     string // path at the /v1/budgets endpoint to test
		status int    // Expected HTTP status code
	}{
		{"No budget with this ID", uuid.New().String(), http.StatusNotFound},
		{"Not a valid UUID", "NotParseableAsUUID", http.StatusBadRequest},
		{"Budget exists", budget.Data.ID.String(), http.StatusNoContent},
	}

	for _, tt := range tests {
		suite.T().Run(tt.name, func(t *testing.T) {
			path := fmt.Sprintf("%s/%s", "http://example.com/v1/budgets", tt.id)
			r := test.Request(t, http.MethodOptions, path, "")
			test.AssertHTTPStatus(t, &r, tt.status)

			if tt.status == http.StatusNoContent {
				assert.Equal(t, "OPTIONS, GET, PATCH, DELETE", r.Header().Get("allow"))
			}
		})
	}
}

func (suite *TestSuiteStandard) TestBudgetsCreate() {
	tests := []struct {
		name    string
		budgets []v1.BudgetEditable
		status  int
		errors  []string
	}{
		{
			"Single success",
			[]v1.BudgetEditable{{OwnerID: "alice", Category: analytics.FoodAndDining, Amount: decimal.NewFromInt(400)}},
			http.StatusCreated,
			[]string{""},
		},
		{
			"Amount not positive",
			[]v1.BudgetEditable{{OwnerID: "alice", Category: analytics.FoodAndDining, Amount: decimal.Zero}},
			http.StatusBadRequest,
			[]string{models.ErrBudgetAmountNotPositive.Error()},
		},
		{
			"Partial success",
			[]v1.BudgetEditable{
				{OwnerID: "bob", Category: analytics.Travel, Amount: decimal.NewFromInt(200), Period: analytics.Yearly},
				{OwnerID: "bob", Category: analytics.Travel, Amount: decimal.NewFromInt(300), Period: analytics.Yearly},
				{Category: analytics.Shopping, Amount: decimal.NewFromInt(300)},
			},
			http.StatusBadRequest,
			[]string{"", models.ErrBudgetOverlap.Error(), models.ErrOwnerMissing.Error()},
		},
		{
			"Invalid period",
			[]v1.BudgetEditable{{OwnerID: "carol", Category: analytics.Shopping, Amount: decimal.NewFromInt(10), Period: "daily"}},
			http.StatusBadRequest,
			[]string{analytics.ErrPeriodInvalid.Error()},
		},
	}

	for _, tt := range tests {
		suite.T().Run(tt.name, func(t *testing.T) {
			r := test.Request(t, http.MethodPost, "http://example.com/v1/budgets", tt.budgets)
			test.AssertHTTPStatus(t, &r, tt.status)

			var response v1.BudgetCreateResponse
			test.DecodeResponse(t, &r, &response)

			for i, e := range tt.errors {
				if e == "" {
					assert.Nil(t, response.Data[i].Error)
					continue
				}

				assert.Equal(t, e, *response.Data[i].Error)
			}
		})
	}
}

func (suite *TestSuiteStandard) TestBudgetsCreateBrokenBody() {
	r := test.Request(suite.T(), http.MethodPost, "http://example.com/v1/budgets", `[{ "amount": "lots" `)
	test.AssertHTTPStatus(suite.T(), &r, http.StatusBadRequest)

	r = test.Request(suite.T(), http.MethodPost, "http://example.com/v1/budgets", "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusBadRequest)
}

func (suite *TestSuiteStandard) TestBudgetsCreateDefaults() {
	budget := suite.createTestBudget(v1.BudgetEditable{OwnerID: "alice", Category: analytics.Shopping, Amount: decimal.NewFromInt(300)})

	assert.Equal(suite.T(), analytics.Monthly, budget.Data.Period)
	assert.True(suite.T(), budget.Data.AlertThreshold.Equal(analytics.DefaultAlertThreshold))
	assert.True(suite.T(), budget.Data.Active)
	assert.Equal(suite.T(), 1, budget.Data.WindowStart.Day())
	assert.Equal(suite.T(), fmt.Sprintf("http://example.com/v1/budgets/%s", budget.Data.ID), budget.Data.Links.Self)
}

func (suite *TestSuiteStandard) TestBudgetsGet() {
	suite.createTestBudget(v1.BudgetEditable{OwnerID: "alice", Category: analytics.Shopping, Amount: decimal.NewFromInt(300)})
	suite.createTestBudget(v1.BudgetEditable{OwnerID: "alice", Category: analytics.FoodAndDining, Amount: decimal.NewFromInt(400)})
	inactive := false
	suite.createTestBudget(v1.BudgetEditable{OwnerID: "alice", Category: analytics.Travel, Amount: decimal.NewFromInt(100), Active: &inactive})
	suite.createTestBudget(v1.BudgetEditable{OwnerID: "bob", Category: analytics.Shopping, Amount: decimal.NewFromInt(300)})

	suite.createTestTransaction(v1.TransactionEditable{OwnerID: "alice", Date: today(), Amount: decimal.NewFromInt(120), MerchantName: "Amazon"})

	tests := []struct {
		name  string
		query string
		len   int
	}{
		{"All of alice", "owner=alice", 3},
		{"All of bob", "owner=bob", 1},
		{"Category case insensitive", "owner=alice&category=shopping", 1},
		{"Inactive", "owner=alice&active=false", 1},
		{"Active", "owner=alice&active=true", 2},
		{"Monthly", "owner=alice&period=monthly", 3},
		{"Yearly", "owner=alice&period=yearly", 0},
		{"Limit", "owner=alice&limit=1", 1},
		{"Offset", "owner=alice&offset=2", 1},
		{"Nobody", "owner=nobody", 0},
	}

	for _, tt := range tests {
		suite.T().Run(tt.name, func(t *testing.T) {
			r := test.Request(t, http.MethodGet, fmt.Sprintf("http://example.com/v1/budgets?%s", tt.query), "")
			test.AssertHTTPStatus(t, &r, http.StatusOK)

			var response v1.BudgetListResponse
			test.DecodeResponse(t, &r, &response)
			assert.Len(t, response.Data, tt.len)
		})
	}

	r := test.Request(suite.T(), http.MethodGet, "http://example.com/v1/budgets?owner=alice&category=Shopping", "")
	var response v1.BudgetListResponse
	test.DecodeResponse(suite.T(), &r, &response)

	suite.Require().Len(response.Data, 1)
	shopping := response.Data[0]
	suite.Require().NotNil(shopping.Status)
	assert.True(suite.T(), shopping.Status.Spent.Equal(decimal.NewFromInt(120)), "spent is %s", shopping.Status.Spent)
	assert.True(suite.T(), shopping.CurrentSpent.Equal(decimal.NewFromInt(120)))
	assert.True(suite.T(), shopping.Status.Remaining.Equal(decimal.NewFromInt(180)))
	assert.False(suite.T(), shopping.Status.IsNearLimit)
	assert.Equal(suite.T(), int64(1), response.Pagination.Total)
}

func (suite *TestSuiteStandard) TestBudgetsGetErrors() {
	tests := []struct {
		name  string
		query string
		err   string
	}{
		{"No owner", "", "the owner query parameter must be set"},
		{"Invalid at", "owner=alice&at=yesterday", "the at parameter must be a time in RFC3339 format"},
		{"Invalid limit", "owner=alice&limit=many", "the query string contains unparseable data. Please check the values"},
	}

	for _, tt := range tests {
		suite.T().Run(tt.name, func(t *testing.T) {
			r := test.Request(t, http.MethodGet, fmt.Sprintf("http://example.com/v1/budgets?%s", tt.query), "")
			test.AssertHTTPStatus(t, &r, http.StatusBadRequest)
			assert.Equal(t, tt.err, test.DecodeError(t, r.Body.Bytes()))
		})
	}
}

// TestBudgetsGetSingle verifies that requests for the resource endpoints are
// handled correctly.
func (suite *TestSuiteStandard) TestBudgetsGetSingle() {
	budget := suite.createTestBudget(v1.BudgetEditable{OwnerID: "alice", Category: analytics.FoodAndDining, Amount: decimal.NewFromInt(200)})

	tests := []struct {
		name   string
		id     string
		status int
		method string
	}{
		{"GET Existing budget", budget.Data.ID.String(), http.StatusOK, http.MethodGet},
		{"GET No budget with this ID", uuid.New().String(), http.StatusNotFound, http.MethodGet},
		{"GET Invalid ID (negative number)", "-56", http.StatusBadRequest, http.MethodGet},
		{"GET Invalid ID (string)", "notaUUID", http.StatusBadRequest, http.MethodGet},
		{"PATCH Invalid ID (string)", "notaUUID", http.StatusBadRequest, http.MethodPatch},
		{"PATCH No budget with this ID", uuid.New().String(), http.StatusNotFound, http.MethodPatch},
		{"DELETE Invalid ID (string)", "notaUUID", http.StatusBadRequest, http.MethodDelete},
		{"DELETE No budget with this ID", uuid.New().String(), http.StatusNotFound, http.MethodDelete},
	}

	for _, tt := range tests {
		suite.T().Run(tt.name, func(t *testing.T) {
			r := test.Request(t, tt.method, fmt.Sprintf("http://example.com/v1/budgets/%s", tt.id), "")
			test.AssertHTTPStatus(t, &r, tt.status)
		})
	}
}

func (suite *TestSuiteStandard) TestBudgetsGetSingleEvaluates() {
	budget := suite.createTestBudget(v1.BudgetEditable{OwnerID: "alice", Category: analytics.FoodAndDining, Amount: decimal.NewFromInt(200)})
	suite.createTestTransaction(v1.TransactionEditable{OwnerID: "alice", Date: today(), Amount: decimal.NewFromInt(160), MerchantName: "Starbucks"})

	r := test.Request(suite.T(), http.MethodGet, budget.Data.Links.Self, "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

	var response v1.BudgetResponse
	test.DecodeResponse(suite.T(), &r, &response)

	suite.Require().NotNil(response.Data.Status)
	assert.True(suite.T(), response.Data.Status.IsNearLimit)
	assert.False(suite.T(), response.Data.Status.IsOverBudget)
	assert.True(suite.T(), response.Data.Status.UsageRatio.Equal(decimal.NewFromFloat(0.8)), "ratio is %s", response.Data.Status.UsageRatio)
}

func (suite *TestSuiteStandard) TestBudgetsUpdate() {
	budget := suite.createTestBudget(v1.BudgetEditable{OwnerID: "alice", Category: analytics.FoodAndDining, Amount: decimal.NewFromInt(200)})

	r := test.Request(suite.T(), http.MethodPatch, budget.Data.Links.Self, map[string]any{
		"amount": 450,
		"active": false,
	})
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

	var response v1.BudgetResponse
	test.DecodeResponse(suite.T(), &r, &response)

	assert.True(suite.T(), response.Data.Amount.Equal(decimal.NewFromInt(450)))
	assert.False(suite.T(), response.Data.Active)
	assert.True(suite.T(), response.Data.AlertThreshold.Equal(analytics.DefaultAlertThreshold), "threshold must not be touched")
	assert.Equal(suite.T(), analytics.FoodAndDining, response.Data.Category)
}

func (suite *TestSuiteStandard) TestBudgetsUpdateFails() {
	budget := suite.createTestBudget(v1.BudgetEditable{OwnerID: "alice", Category: analytics.FoodAndDining, Amount: decimal.NewFromInt(200)})

	tests := []struct {
		name string
		body any
		err  string
	}{
		{"Broken body", `{ "amount": 2 `, "the body of your request contains invalid or un-parseable data. Please check and try again"},
		{"Negative amount", map[string]any{"amount": -5}, models.ErrBudgetAmountNotPositive.Error()},
		{"Threshold too high", map[string]any{"alertThreshold": 1.5}, models.ErrBudgetThresholdInvalid.Error()},
	}

	for _, tt := range tests {
		suite.T().Run(tt.name, func(t *testing.T) {
			r := test.Request(t, http.MethodPatch, budget.Data.Links.Self, tt.body)
			test.AssertHTTPStatus(t, &r, http.StatusBadRequest)
			assert.Equal(t, tt.err, test.DecodeError(t, r.Body.Bytes()))
		})
	}
}

func (suite *TestSuiteStandard) TestBudgetsUpdateReactivateOverlapping() {
	suite.createTestBudget(v1.BudgetEditable{OwnerID: "alice", Category: analytics.FoodAndDining, Amount: decimal.NewFromInt(200)})

	inactive := false
	paused := suite.createTestBudget(v1.BudgetEditable{OwnerID: "alice", Category: analytics.FoodAndDining, Amount: decimal.NewFromInt(300), Active: &inactive})

	r := test.Request(suite.T(), http.MethodPatch, paused.Data.Links.Self, map[string]any{"active": true})
	test.AssertHTTPStatus(suite.T(), &r, http.StatusBadRequest)
	assert.Equal(suite.T(), models.ErrBudgetOverlap.Error(), test.DecodeError(suite.T(), r.Body.Bytes()))

	r = test.Request(suite.T(), http.MethodGet, paused.Data.Links.Self, "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

	var response v1.BudgetResponse
	test.DecodeResponse(suite.T(), &r, &response)
	assert.False(suite.T(), response.Data.Active)
}

func (suite *TestSuiteStandard) TestBudgetsDelete() {
	budget := suite.createTestBudget(v1.BudgetEditable{OwnerID: "alice", Category: analytics.FoodAndDining, Amount: decimal.NewFromInt(200)})

	r := test.Request(suite.T(), http.MethodDelete, budget.Data.Links.Self, "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusNoContent)

	r = test.Request(suite.T(), http.MethodGet, budget.Data.Links.Self, "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusNotFound)
	assert.Equal(suite.T(), "there is no budget matching your query", test.DecodeError(suite.T(), r.Body.Bytes()))
}

func (suite *TestSuiteStandard) TestBudgetCategories() {
	r := test.Request(suite.T(), http.MethodGet, "http://example.com/v1/budget-categories", "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

	var response v1.BudgetCategoryListResponse
	test.DecodeResponse(suite.T(), &r, &response)

	suite.Require().Len(response.Data, 10)
	assert.Equal(suite.T(), analytics.FoodAndDining, response.Data[0].Name)
	assert.True(suite.T(), response.Data[0].AverageAmount.Equal(decimal.NewFromInt(400)))
	assert.Equal(suite.T(), analytics.Color(analytics.FoodAndDining), response.Data[0].Color)

	// Categories outside the palette use the color of Other
	assert.Equal(suite.T(), analytics.Color(analytics.Other), response.Data[9].Color)

	r = test.Request(suite.T(), http.MethodOptions, "http://example.com/v1/budget-categories", "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusNoContent)
	assert.Equal(suite.T(), "OPTIONS, GET", r.Header().Get("allow"))
}
