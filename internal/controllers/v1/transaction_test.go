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

func (suite *TestSuiteStandard) TestTransactionsCreate() {
	transaction := suite.createTestTransaction(v1.TransactionEditable{
		OwnerID:      "alice",
		AccountID:    "checking",
		Date:         types.NewDate(2024, time.March, 15),
		Amount:       decimal.NewFromFloat(12.5),
		MerchantName: "  Starbucks ",
		Name:         "STARBUCKS STORE 1234",
	})

	assert.Equal(suite.T(), "Starbucks", transaction.Data.MerchantName)
	assert.Equal(suite.T(), analytics.FoodAndDining, transaction.Data.Category)
	assert.Equal(suite.T(), analytics.Color(analytics.FoodAndDining), transaction.Data.Color)
	assert.Equal(suite.T(), "2024-03-15", transaction.Data.Date.String())
	assert.Nil(suite.T(), transaction.Data.ItemID)
	assert.Equal(suite.T(), []string{}, transaction.Data.Categories)
	assert.Equal(suite.T(), fmt.Sprintf("http://example.com/v1/transactions/%s", transaction.Data.ID), transaction.Data.Links.Self)
}

func (suite *TestSuiteStandard) TestTransactionsCreateFails() {
	tests := []struct {
		name         string
		transactions any
		status       int
		err          string
	}{
		{
			"Broken body",
			`[{ "ownerId": 2 }]`,
			http.StatusBadRequest,
			"json: cannot unmarshal number into Go struct field",
		},
		{
			"Invalid date",
			`[{ "ownerId": "alice", "date": "15.03.2024" }]`,
			http.StatusBadRequest,
			"the body of your request contains invalid or un-parseable data. Please check and try again",
		},
		{
			"Empty body",
			"",
			http.StatusBadRequest,
			"the request body must not be empty",
		},
	}

	for _, tt := range tests {
		suite.T().Run(tt.name, func(t *testing.T) {
			r := test.Request(t, http.MethodPost, "http://example.com/v1/transactions", tt.transactions)
			test.AssertHTTPStatus(t, &r, tt.status)
			assert.Contains(t, test.DecodeError(t, r.Body.Bytes()), tt.err)
		})
	}
}

func (suite *TestSuiteStandard) TestTransactionsCreatePartial() {
	r := test.Request(suite.T(), http.MethodPost, "http://example.com/v1/transactions", []v1.TransactionEditable{
		{OwnerID: "alice", Date: types.NewDate(2024, time.March, 1), Amount: decimal.NewFromInt(5), Name: "Uber Trip"},
		{OwnerID: "alice", Amount: decimal.NewFromInt(5), Name: "No date"},
		{Date: types.NewDate(2024, time.March, 1), Amount: decimal.NewFromInt(5), Name: "No owner"},
	})
	test.AssertHTTPStatus(suite.T(), &r, http.StatusBadRequest)

	var response v1.TransactionCreateResponse
	test.DecodeResponse(suite.T(), &r, &response)
	suite.Require().Len(response.Data, 3)

	assert.Nil(suite.T(), response.Data[0].Error)
	assert.Equal(suite.T(), analytics.Transportation, response.Data[0].Data.Category)
	assert.Equal(suite.T(), "the date of a transaction must be set", *response.Data[1].Error)
	assert.Equal(suite.T(), models.ErrOwnerMissing.Error(), *response.Data[2].Error)
}

func (suite *TestSuiteStandard) TestTransactionsGet() {
	owner := test.Owner()

	suite.createTestTransaction(v1.TransactionEditable{OwnerID: owner, AccountID: "checking", Date: types.NewDate(2024, time.March, 1), Amount: decimal.NewFromInt(50), MerchantName: "Walmart"})
	suite.createTestTransaction(v1.TransactionEditable{OwnerID: owner, AccountID: "checking", Date: types.NewDate(2024, time.March, 10), Amount: decimal.NewFromInt(8), MerchantName: "Starbucks"})
	suite.createTestTransaction(v1.TransactionEditable{OwnerID: owner, AccountID: "credit", Date: types.NewDate(2024, time.March, 20), Amount: decimal.NewFromInt(14), MerchantName: "Chipotle"})
	suite.createTestTransaction(v1.TransactionEditable{OwnerID: owner, AccountID: "credit", Date: types.NewDate(2024, time.April, 2), Amount: decimal.NewFromInt(-2000), Name: "Payroll", Categories: []string{"Transfer", "Deposit"}})
	suite.createTestTransaction(v1.TransactionEditable{OwnerID: "someone-else", Date: types.NewDate(2024, time.March, 10), Amount: decimal.NewFromInt(3), MerchantName: "Starbucks"})

	tests := []struct {
		name  string
		query string
		len   int
		total int64
	}{
		{"All", "", 4, 4},
		{"Account", "account=credit", 2, 2},
		{"From date", "fromDate=2024-03-10", 3, 3},
		{"Until date", "untilDate=2024-03-10", 2, 2},
		{"Date range", "fromDate=2024-03-02&untilDate=2024-03-31", 2, 2},
		{"Same day", "fromDate=2024-03-20&untilDate=2024-03-20", 1, 1},
		{"Category", "category=food%20%26%20dining", 2, 2},
		{"Category with limit", "category=Food%20%26%20Dining&limit=1", 1, 2},
		{"Category with offset", "category=Food%20%26%20Dining&offset=5", 0, 2},
		{"Resolved from hierarchy", "category=Income", 1, 1},
		{"Limit", "limit=3", 3, 4},
		{"Offset", "offset=3", 1, 4},
		{"Unknown item", fmt.Sprintf("item=%s", uuid.New()), 0, 0},
	}

	for _, tt := range tests {
		suite.T().Run(tt.name, func(t *testing.T) {
			r := test.Request(t, http.MethodGet, fmt.Sprintf("http://example.com/v1/transactions?owner=%s&%s", owner, tt.query), "")
			test.AssertHTTPStatus(t, &r, http.StatusOK)

			var response v1.TransactionListResponse
			test.DecodeResponse(t, &r, &response)
			assert.Len(t, response.Data, tt.len)
			assert.Equal(t, tt.total, response.Pagination.Total)
		})
	}

	// Newest first
	r := test.Request(suite.T(), http.MethodGet, fmt.Sprintf("http://example.com/v1/transactions?owner=%s", owner), "")
	var response v1.TransactionListResponse
	test.DecodeResponse(suite.T(), &r, &response)
	suite.Require().Len(response.Data, 4)
	assert.Equal(suite.T(), "2024-04-02", response.Data[0].Date.String())
	assert.Equal(suite.T(), "2024-03-01", response.Data[3].Date.String())
}

func (suite *TestSuiteStandard) TestTransactionsGetFails() {
	tests := []struct {
		name  string
		query string
		err   string
	}{
		{"No owner", "", "the owner query parameter must be set"},
		{"Reversed range", "owner=alice&fromDate=2024-03-10&untilDate=2024-03-01", "fromDate must not be after untilDate"},
		{"Invalid date", "owner=alice&fromDate=yesterday", "the query string contains unparseable data. Please check the values"},
		{"Invalid item", "owner=alice&item=NotAUUID", "the query string contains unparseable data. Please check the values"},
	}

	for _, tt := range tests {
		suite.T().Run(tt.name, func(t *testing.T) {
			r := test.Request(t, http.MethodGet, fmt.Sprintf("http://example.com/v1/transactions?%s", tt.query), "")
			test.AssertHTTPStatus(t, &r, http.StatusBadRequest)
			assert.Equal(t, tt.err, test.DecodeError(t, r.Body.Bytes()))
		})
	}
}

func (suite *TestSuiteStandard) TestTransactionsGetSingle() {
	transaction := suite.createTestTransaction(v1.TransactionEditable{OwnerID: "alice", Date: types.NewDate(2024, time.March, 1), Amount: decimal.NewFromInt(30), MerchantName: "City Pharmacy"})

	tests := []struct {
		name   string
		method string
		id     string
		status int
	}{
		{"GET existing", http.MethodGet, transaction.Data.ID.String(), http.StatusOK},
		{"GET missing", http.MethodGet, uuid.New().String(), http.StatusNotFound},
		{"GET invalid", http.MethodGet, "-1", http.StatusBadRequest},
		{"OPTIONS existing", http.MethodOptions, transaction.Data.ID.String(), http.StatusNoContent},
		{"OPTIONS missing", http.MethodOptions, uuid.New().String(), http.StatusNotFound},
		{"OPTIONS invalid", http.MethodOptions, "NotParseableAsUUID", http.StatusBadRequest},
		{"DELETE missing", http.MethodDelete, uuid.New().String(), http.StatusNotFound},
		{"DELETE invalid", http.MethodDelete, "NotParseableAsUUID", http.StatusBadRequest},
	}

	for _, tt := range tests {
		suite.T().Run(tt.name, func(t *testing.T) {
			r := test.Request(t, tt.method, fmt.Sprintf("http://example.com/v1/transactions/%s", tt.id), "")
			test.AssertHTTPStatus(t, &r, tt.status)
		})
	}

	r := test.Request(suite.T(), http.MethodGet, transaction.Data.Links.Self, "")
	var response v1.TransactionResponse
	test.DecodeResponse(suite.T(), &r, &response)
	assert.Equal(suite.T(), analytics.Healthcare, response.Data.Category)
}

func (suite *TestSuiteStandard) TestTransactionsDelete() {
	transaction := suite.createTestTransaction(v1.TransactionEditable{OwnerID: "alice", Date: types.NewDate(2024, time.March, 1), Amount: decimal.NewFromInt(30), Name: "Lunch"})

	r := test.Request(suite.T(), http.MethodDelete, transaction.Data.Links.Self, "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusNoContent)

	r = test.Request(suite.T(), http.MethodGet, transaction.Data.Links.Self, "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusNotFound)
	assert.Equal(suite.T(), "there is no transaction matching your query", test.DecodeError(suite.T(), r.Body.Bytes()))
}

func (suite *TestSuiteStandard) TestTransactionsDBClosed() {
	suite.CloseDB()

	r := test.Request(suite.T(), http.MethodGet, "http://example.com/v1/transactions?owner=alice", "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusInternalServerError)
	assert.Equal(suite.T(), models.ErrGeneral.Error(), test.DecodeError(suite.T(), r.Body.Bytes()))
}
