package v1

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ledgerlens/backend/internal/uuid"
)

type URIID struct {
	ID uuid.UUID `uri:"id" binding:"required" format:"UUID"` // ID of the resource
}

// Pagination contains information about the pagination for collection endpoint responses.
type Pagination struct {
	Count  int   `json:"count" example:"25"`  // The amount of records returned in this response
	Offset uint  `json:"offset" example:"50"` // The offset for the first record returned
	Limit  int   `json:"limit" example:"25"`  // The maximum amount of resources to return for this request
	Total  int64 `json:"total" example:"827"` // The total number of resources matching the query
}

// now returns the time the request is evaluated at. The "at" query
// parameter overrides the current time.
func now(c *gin.Context) (time.Time, error) {
	at := c.Query("at")
	if at == "" {
		return time.Now().In(time.UTC), nil
	}

	t, err := time.Parse(time.RFC3339, at)
	if err != nil {
		return time.Time{}, errAtInvalid
	}

	return t.In(time.UTC), nil
}
