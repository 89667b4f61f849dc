package v1_test

import (
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/ledgerlens/backend/internal/aggregation"
	v1 "github.com/ledgerlens/backend/internal/controllers/v1"
	"github.com/ledgerlens/backend/test"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func ptr[T any](v T) *T {
	return &v
}

func (suite *TestSuiteStandard) TestItemsCreate() {
	item := suite.createTestItem(v1.ItemCreate{OwnerID: "alice", PublicToken: "public-x", InstitutionName: "First <b>Platypus</b> Bank"})

	assert.Equal(suite.T(), "alice", item.Data.OwnerID)
	assert.Equal(suite.T(), "item-x", item.Data.ExternalID)
	assert.Equal(suite.T(), "First Platypus Bank", item.Data.InstitutionName)
	assert.Nil(suite.T(), item.Data.LastSyncedAt)
	assert.Equal(suite.T(), fmt.Sprintf("http://example.com/v1/items/%s/sync", item.Data.ID), item.Data.Links.Sync)
	assert.Equal(suite.T(), fmt.Sprintf("http://example.com/v1/transactions?item=%s", item.Data.ID), item.Data.Links.Transactions)
	assert.Equal(suite.T(), 1, suite.aggregation.callCount("/item/public_token/exchange"))
}

func (suite *TestSuiteStandard) TestItemsCreateFails() {
	suite.createTestItem(v1.ItemCreate{OwnerID: "alice", PublicToken: "public-dup"})

	tests := []struct {
		name   string
		item   v1.ItemCreate
		status int
		err    string
	}{
		{"No owner", v1.ItemCreate{PublicToken: "public-y"}, http.StatusBadRequest, "the owner of the resource must be set"},
		{"No public token", v1.ItemCreate{OwnerID: "alice"}, http.StatusBadRequest, "the publicToken must be set"},
		{"Invalid public token", v1.ItemCreate{OwnerID: "alice", PublicToken: "public-invalid"}, http.StatusBadRequest, "INVALID_PUBLIC_TOKEN"},
		{"Already linked", v1.ItemCreate{OwnerID: "alice", PublicToken: "public-dup"}, http.StatusBadRequest, "this item has already been linked"},
	}

	for _, tt := range tests {
		suite.T().Run(tt.name, func(t *testing.T) {
			r := test.Request(t, http.MethodPost, "http://example.com/v1/items", []v1.ItemCreate{tt.item})
			test.AssertHTTPStatus(t, &r, tt.status)

			var response v1.ItemCreateResponse
			test.DecodeResponse(t, &r, &response)

			if assert.Len(t, response.Data, 1) && assert.NotNil(t, response.Data[0].Error) {
				assert.Contains(t, *response.Data[0].Error, tt.err)
			}
		})
	}
}

func (suite *TestSuiteStandard) TestItemsCreateNotConfigured() {
	aggregation.Default = nil

	r := test.Request(suite.T(), http.MethodPost, "http://example.com/v1/items", []v1.ItemCreate{{OwnerID: "alice", PublicToken: "public-x"}})
	test.AssertHTTPStatus(suite.T(), &r, http.StatusServiceUnavailable)
	assert.Equal(suite.T(), aggregation.ErrNotConfigured.Error(), test.DecodeError(suite.T(), r.Body.Bytes()))
}

func (suite *TestSuiteStandard) TestItemsGet() {
	suite.createTestItem(v1.ItemCreate{OwnerID: "alice", PublicToken: "public-a"})
	suite.createTestItem(v1.ItemCreate{OwnerID: "alice", PublicToken: "public-b"})
	suite.createTestItem(v1.ItemCreate{OwnerID: "bob", PublicToken: "public-c"})

	tests := []struct {
		name   string
		query  string
		status int
		len    int
	}{
		{"alice", "owner=alice", http.StatusOK, 2},
		{"bob", "owner=bob", http.StatusOK, 1},
		{"Limited", "owner=alice&limit=1", http.StatusOK, 1},
		{"Offset", "owner=alice&offset=1", http.StatusOK, 1},
		{"No owner", "", http.StatusBadRequest, 0},
	}

	for _, tt := range tests {
		suite.T().Run(tt.name, func(t *testing.T) {
			r := test.Request(t, http.MethodGet, fmt.Sprintf("http://example.com/v1/items?%s", tt.query), "")
			test.AssertHTTPStatus(t, &r, tt.status)

			var response v1.ItemListResponse
			test.DecodeResponse(t, &r, &response)
			assert.Len(t, response.Data, tt.len)
		})
	}
}

func (suite *TestSuiteStandard) TestItemsNoAccessToken() {
	item := suite.createTestItem(v1.ItemCreate{OwnerID: "alice", PublicToken: "public-secret"})

	r := test.Request(suite.T(), http.MethodGet, item.Data.Links.Self, "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)
	assert.NotContains(suite.T(), r.Body.String(), "access-secret")
}

func (suite *TestSuiteStandard) TestItemsGetSingle() {
	item := suite.createTestItem(v1.ItemCreate{OwnerID: "alice", PublicToken: "public-x"})

	tests := []struct {
		name   string
		method string
		path   string
		status int
	}{
		{"GET existing", http.MethodGet, item.Data.Links.Self, http.StatusOK},
		{"GET missing", http.MethodGet, fmt.Sprintf("http://example.com/v1/items/%s", uuid.New()), http.StatusNotFound},
		{"GET invalid ID", http.MethodGet, "http://example.com/v1/items/notaUUID", http.StatusBadRequest},
		{"OPTIONS existing", http.MethodOptions, item.Data.Links.Self, http.StatusNoContent},
		{"OPTIONS missing", http.MethodOptions, fmt.Sprintf("http://example.com/v1/items/%s", uuid.New()), http.StatusNotFound},
		{"OPTIONS sync", http.MethodOptions, item.Data.Links.Sync, http.StatusNoContent},
		{"OPTIONS accounts", http.MethodOptions, item.Data.Links.Accounts, http.StatusNoContent},
		{"DELETE missing", http.MethodDelete, fmt.Sprintf("http://example.com/v1/items/%s", uuid.New()), http.StatusNotFound},
		{"Sync missing", http.MethodPost, fmt.Sprintf("http://example.com/v1/items/%s/sync", uuid.New()), http.StatusNotFound},
		{"PATCH not allowed", http.MethodPatch, item.Data.Links.Self, http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		suite.T().Run(tt.name, func(t *testing.T) {
			r := test.Request(t, tt.method, tt.path, "")
			test.AssertHTTPStatus(t, &r, tt.status)
		})
	}
}

func (suite *TestSuiteStandard) TestItemsSync() {
	item := suite.createTestItem(v1.ItemCreate{OwnerID: "alice", PublicToken: "public-x"})

	date := today().String()
	suite.aggregation.setTransactions("access-x",
		aggregation.Transaction{ID: "t-1", AccountID: "checking", Amount: decimal.NewFromFloat(4.5), Date: date, Name: "STARBUCKS 1234", MerchantName: ptr("Starbucks")},
		aggregation.Transaction{ID: "t-2", AccountID: "checking", Amount: decimal.NewFromInt(60), Date: date, Name: "SHELL OIL 5521", Category: []string{"Travel", "Gas Stations"}},
		aggregation.Transaction{ID: "t-3", AccountID: "checking", Amount: decimal.NewFromInt(10), Date: "not a date", Name: "Broken"},
	)

	r := test.Request(suite.T(), http.MethodPost, item.Data.Links.Sync, "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

	var response v1.SyncResponse
	test.DecodeResponse(suite.T(), &r, &response)

	suite.Require().Len(response.Data, 1)
	assert.Equal(suite.T(), item.Data.ID, response.Data[0].ItemID)
	assert.Equal(suite.T(), 2, response.Data[0].Synced, "transactions with invalid dates are skipped")
	assert.Nil(suite.T(), response.Data[0].Error)

	// The sync time is recorded
	r = test.Request(suite.T(), http.MethodGet, item.Data.Links.Self, "")
	var single v1.ItemResponse
	test.DecodeResponse(suite.T(), &r, &single)
	assert.NotNil(suite.T(), single.Data.LastSyncedAt)

	// Transactions are stored with their resolved category
	r = test.Request(suite.T(), http.MethodGet, item.Data.Links.Transactions+"&owner=alice", "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

	var transactions v1.TransactionListResponse
	test.DecodeResponse(suite.T(), &r, &transactions)
	suite.Require().Len(transactions.Data, 2)

	categories := []string{transactions.Data[0].Category, transactions.Data[1].Category}
	assert.ElementsMatch(suite.T(), []string{"Food & Dining", "Transportation"}, categories)

	// A second sync updates instead of duplicating
	r = test.Request(suite.T(), http.MethodPost, item.Data.Links.Sync, "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

	r = test.Request(suite.T(), http.MethodGet, "http://example.com/v1/transactions?owner=alice", "")
	test.DecodeResponse(suite.T(), &r, &transactions)
	assert.Len(suite.T(), transactions.Data, 2)
}

func (suite *TestSuiteStandard) TestItemsSyncUnavailable() {
	item := suite.createTestItem(v1.ItemCreate{OwnerID: "alice", PublicToken: "public-down"})

	r := test.Request(suite.T(), http.MethodPost, item.Data.Links.Sync, "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusBadGateway)

	var response v1.SyncResponse
	test.DecodeResponse(suite.T(), &r, &response)
	suite.Require().Len(response.Data, 1)
	suite.Require().NotNil(response.Data[0].Error)
	assert.Contains(suite.T(), *response.Data[0].Error, aggregation.ErrUnavailable.Error())

	// A failed sync does not move the sync time
	r = test.Request(suite.T(), http.MethodGet, item.Data.Links.Self, "")
	var single v1.ItemResponse
	test.DecodeResponse(suite.T(), &r, &single)
	assert.Nil(suite.T(), single.Data.LastSyncedAt)
}

func (suite *TestSuiteStandard) TestItemsSyncNotConfigured() {
	item := suite.createTestItem(v1.ItemCreate{OwnerID: "alice", PublicToken: "public-x"})
	aggregation.Default = nil

	r := test.Request(suite.T(), http.MethodPost, item.Data.Links.Sync, "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusServiceUnavailable)

	r = test.Request(suite.T(), http.MethodGet, item.Data.Links.Accounts, "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusServiceUnavailable)

	r = test.Request(suite.T(), http.MethodPost, "http://example.com/v1/sync?owner=alice", "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusServiceUnavailable)
}

func (suite *TestSuiteStandard) TestSyncOwner() {
	suite.createTestItem(v1.ItemCreate{OwnerID: "alice", PublicToken: "public-a"})
	suite.createTestItem(v1.ItemCreate{OwnerID: "alice", PublicToken: "public-down"})
	suite.createTestItem(v1.ItemCreate{OwnerID: "bob", PublicToken: "public-b"})

	date := today().String()
	suite.aggregation.setTransactions("access-a",
		aggregation.Transaction{ID: "a-1", AccountID: "checking", Amount: decimal.NewFromInt(20), Date: date, Name: "Netflix"},
	)
	suite.aggregation.setTransactions("access-b",
		aggregation.Transaction{ID: "b-1", AccountID: "checking", Amount: decimal.NewFromInt(30), Date: date, Name: "Spotify"},
	)

	r := test.Request(suite.T(), http.MethodPost, "http://example.com/v1/sync?owner=alice", "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

	var response v1.SyncResponse
	test.DecodeResponse(suite.T(), &r, &response)
	suite.Require().Len(response.Data, 2)

	var synced, failed int
	for _, result := range response.Data {
		if result.Error != nil {
			failed++
			continue
		}
		synced += result.Synced
	}
	assert.Equal(suite.T(), 1, failed, "the unavailable item is reported")
	assert.Equal(suite.T(), 1, synced)

	// Only alice's items are synced
	assert.Equal(suite.T(), 2, suite.aggregation.callCount("/transactions/get"))
}

func (suite *TestSuiteStandard) TestSyncOwnerFails() {
	tests := []struct {
		name  string
		query string
		err   string
	}{
		{"No owner", "", "the owner query parameter must be set"},
		{"No items", "owner=nobody", "there are no linked items for this owner"},
		{"Invalid at", "owner=nobody&at=now", "the at parameter must be a time in RFC3339 format"},
	}

	for _, tt := range tests {
		suite.T().Run(tt.name, func(t *testing.T) {
			r := test.Request(t, http.MethodPost, fmt.Sprintf("http://example.com/v1/sync?%s", tt.query), "")
			test.AssertHTTPStatus(t, &r, http.StatusBadRequest)
			assert.Equal(t, tt.err, test.DecodeError(t, r.Body.Bytes()))
		})
	}

	r := test.Request(suite.T(), http.MethodOptions, "http://example.com/v1/sync", "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusNoContent)
	assert.Equal(suite.T(), "OPTIONS, POST", r.Header().Get("allow"))
}

func (suite *TestSuiteStandard) TestItemsAccounts() {
	item := suite.createTestItem(v1.ItemCreate{OwnerID: "alice", PublicToken: "public-x"})
	suite.aggregation.setAccounts("access-x", aggregation.Account{
		ID:      "checking",
		Name:    "Everyday Checking",
		Type:    "depository",
		Subtype: "checking",
		Balances: aggregation.Balances{
			Current:  ptr(decimal.NewFromInt(1200)),
			Currency: "USD",
		},
	})

	for range 2 {
		r := test.Request(suite.T(), http.MethodGet, item.Data.Links.Accounts, "")
		test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

		var response v1.AccountListResponse
		test.DecodeResponse(suite.T(), &r, &response)
		suite.Require().Len(response.Data, 1)
		assert.Equal(suite.T(), "Everyday Checking", response.Data[0].Name)
		assert.True(suite.T(), response.Data[0].Balances.Current.Equal(decimal.NewFromInt(1200)))
		assert.Nil(suite.T(), response.Data[0].Balances.Available)
	}

	assert.Equal(suite.T(), 1, suite.aggregation.callCount("/accounts/balance/get"), "balances are cached")
}

func (suite *TestSuiteStandard) TestItemsDelete() {
	item := suite.createTestItem(v1.ItemCreate{OwnerID: "alice", PublicToken: "public-x"})
	suite.aggregation.setTransactions("access-x",
		aggregation.Transaction{ID: "t-1", AccountID: "checking", Amount: decimal.NewFromInt(5), Date: today().String(), Name: "Starbucks"},
	)
	manual := suite.createTestTransaction(v1.TransactionEditable{OwnerID: "alice", Date: today(), Amount: decimal.NewFromInt(7), Name: "Corner Shop"})

	r := test.Request(suite.T(), http.MethodPost, item.Data.Links.Sync, "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

	r = test.Request(suite.T(), http.MethodDelete, item.Data.Links.Self, "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusNoContent)

	r = test.Request(suite.T(), http.MethodGet, item.Data.Links.Self, "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusNotFound)
	assert.True(suite.T(), strings.HasPrefix(test.DecodeError(suite.T(), r.Body.Bytes()), "there is no item"))

	// Synced transactions are removed, imported ones stay
	r = test.Request(suite.T(), http.MethodGet, "http://example.com/v1/transactions?owner=alice", "")
	var transactions v1.TransactionListResponse
	test.DecodeResponse(suite.T(), &r, &transactions)
	suite.Require().Len(transactions.Data, 1)
	assert.Equal(suite.T(), manual.Data.ID, transactions.Data[0].ID)
}
