package v1

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ledgerlens/backend/internal/aggregation"
	"github.com/ledgerlens/backend/internal/models"
	"github.com/ledgerlens/backend/internal/syncer"
)

// ItemCreate links a new item.
type ItemCreate struct {
	OwnerID         string `json:"ownerId" example:"user-0c8a4b1e"`                              // The owner of the item
	PublicToken     string `json:"publicToken" example:"public-sandbox-b0e2c4ee-a763-4df5-bfe9"` // The public token from the account linking flow
	InstitutionName string `json:"institutionName" example:"First Platypus Bank"`                // Display name of the institution
}

type ItemLinks struct {
	Self         string `json:"self" example:"https://example.com/api/v1/items/2e1c2a06-6d4c-49d8-8e1a-14e3df39f0a5"`                     // The item itself
	Accounts     string `json:"accounts" example:"https://example.com/api/v1/items/2e1c2a06-6d4c-49d8-8e1a-14e3df39f0a5/accounts"`        // Accounts of the item with balances
	Sync         string `json:"sync" example:"https://example.com/api/v1/items/2e1c2a06-6d4c-49d8-8e1a-14e3df39f0a5/sync"`                // Sync transactions of the item
	Transactions string `json:"transactions" example:"https://example.com/api/v1/transactions?item=2e1c2a06-6d4c-49d8-8e1a-14e3df39f0a5"` // Transactions synced from the item
}

// Item is the API representation of an Item. The access token is never
// returned.
type Item struct {
	models.DefaultModel
	OwnerID         string     `json:"ownerId" example:"user-0c8a4b1e"`
	ExternalID      string     `json:"externalId" example:"eVBnVMp7zdTJLkRNr33Rs6zr7KNJqBFL9DrE6"` // ID of the item at the aggregation API
	InstitutionName string     `json:"institutionName" example:"First Platypus Bank"`
	LastSyncedAt    *time.Time `json:"lastSyncedAt" example:"2024-03-20T10:00:00Z"` // Time of the last successful sync
	Links           ItemLinks  `json:"links"`
}

func newItem(c *gin.Context, model models.Item) Item {
	url := c.GetString(string(models.DBContextURL))
	self := fmt.Sprintf("%s/v1/items/%s", url, model.ID)

	return Item{
		DefaultModel:    model.DefaultModel,
		OwnerID:         model.OwnerID,
		ExternalID:      model.ExternalID,
		InstitutionName: model.InstitutionName,
		LastSyncedAt:    model.LastSyncedAt,
		Links: ItemLinks{
			Self:         self,
			Accounts:     self + "/accounts",
			Sync:         self + "/sync",
			Transactions: fmt.Sprintf("%s/v1/transactions?item=%s", url, model.ID),
		},
	}
}

type ItemListResponse struct {
	Data       []Item      `json:"data"`                                                  // List of items
	Error      *string     `json:"error" example:"the owner query parameter must be set"` // The error, if any occurred
	Pagination *Pagination `json:"pagination"`                                            // Pagination information
}

type ItemCreateResponse struct {
	Error *string        `json:"error" example:"the body of your request contains invalid or un-parseable data. Please check and try again"` // The error, if any occurred
	Data  []ItemResponse `json:"data"`                                                                                                       // List of created items
}

func (i *ItemCreateResponse) appendError(err error, currentStatus int) int {
	s := err.Error()
	i.Data = append(i.Data, ItemResponse{Error: &s})

	// The final status code is the highest HTTP status code number
	newStatus := status(err)
	if newStatus > currentStatus {
		return newStatus
	}

	return currentStatus
}

type ItemResponse struct {
	Error *string `json:"error" example:"there is no item matching your query"` // The error, if any occurred for this item
	Data  *Item   `json:"data"`                                                 // The item data, if creation was successful
}

// ItemQueryFilter contains the fields that items can be filtered with.
type ItemQueryFilter struct {
	OwnerID string `form:"owner"`                      // By owner. Required
	Offset  uint   `form:"offset" filterField:"false"` // The offset of the first item returned. Defaults to 0.
	Limit   int    `form:"limit" filterField:"false"`  // Maximum number of items to return. Defaults to 50.
}

type AccountListResponse struct {
	Data  []aggregation.Account `json:"data"`                                                     // Accounts with their balances
	Error *string               `json:"error" example:"the aggregation API could not be reached"` // The error, if any occurred
}

type SyncResponse struct {
	Data  []syncer.Result `json:"data"`                                                     // Result for each synced item
	Error *string         `json:"error" example:"there are no linked items for this owner"` // The error, if any occurred
}
