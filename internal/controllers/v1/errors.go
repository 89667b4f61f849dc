package v1

import (
	"errors"
	"net/http"

	"github.com/ledgerlens/backend/internal/aggregation"
	"github.com/ledgerlens/backend/internal/models"
)

// status returns the appropriate status for an error
func status(err error) int {
	if errors.Is(err, models.ErrGeneral) {
		return http.StatusInternalServerError
	}

	if errors.Is(err, models.ErrResourceNotFound) {
		return http.StatusNotFound
	}

	if errors.Is(err, aggregation.ErrUnavailable) {
		return http.StatusBadGateway
	}

	if errors.Is(err, aggregation.ErrNotConfigured) {
		return http.StatusServiceUnavailable
	}

	return http.StatusBadRequest
}

var (
	errOwnerParameter = errors.New("the owner query parameter must be set")
	errAtInvalid      = errors.New("the at parameter must be a time in RFC3339 format")
	errDateRange      = errors.New("fromDate must not be after untilDate")
	errDateIncomplete = errors.New("fromDate and untilDate must be set together")
	errOwnerImmutable = errors.New("the owner of a resource cannot be changed")
)

var errTransactionDateMissing = errors.New("the date of a transaction must be set")

// Item errors
var (
	errPublicTokenMissing = errors.New("the publicToken must be set")
)
