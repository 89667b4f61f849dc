package v1

import (
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/ledgerlens/backend/internal/analytics"
	"github.com/ledgerlens/backend/internal/httperror"
	"github.com/ledgerlens/backend/internal/httputil"
	"github.com/ledgerlens/backend/internal/models"
	ll_uuid "github.com/ledgerlens/backend/internal/uuid"
)

// RegisterTransactionRoutes registers the routes for transactions with
// the RouterGroup that is passed.
func RegisterTransactionRoutes(r *gin.RouterGroup) {
	// Root group
	{
		r.OPTIONS("", OptionsTransactionList)
		r.GET("", GetTransactions)
		r.POST("", CreateTransactions)
	}

	// Transaction with ID
	{
		r.OPTIONS("/:id", OptionsTransactionDetail)
		r.GET("/:id", GetTransaction)
		r.DELETE("/:id", DeleteTransaction)
	}
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Transactions
// @Success		204
// @Router			/v1/transactions [options]
func OptionsTransactionList(c *gin.Context) {
	httputil.OptionsGetPost(c)
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Transactions
// @Success		204
// @Failure		400	{object}	httperror.Error
// @Failure		404	{object}	httperror.Error
// @Failure		500	{object}	httperror.Error
// @Param			id	path		URIID	true	"ID of the transaction"
// @Router			/v1/transactions/{id} [options]
func OptionsTransactionDetail(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		c.JSON(status(err), httperror.New(err))
		return
	}

	err = models.DB.First(&models.Transaction{}, uri.ID).Error
	if err != nil {
		c.JSON(status(err), httperror.New(err))
		return
	}

	httputil.OptionsGetDelete(c)
}

// @Summary		Import transactions
// @Description	Stores manually imported transactions. The response code is the highest response code number that a single transaction creation would have caused. If it is not equal to 201, at least one transaction has an error.
// @Tags			Transactions
// @Accept			json
// @Produce		json
// @Success		201				{object}	TransactionCreateResponse
// @Failure		400				{object}	TransactionCreateResponse
// @Failure		500				{object}	TransactionCreateResponse
// @Param			transactions	body		[]TransactionEditable	true	"Transactions"
// @Router			/v1/transactions [post]
func CreateTransactions(c *gin.Context) {
	var transactions []TransactionEditable

	err := httputil.BindData(c, &transactions)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), TransactionCreateResponse{Error: &e})
		return
	}

	// Rules are loaded once per owner
	resolvers := make(map[string]analytics.Resolver)

	// The final http status. Will be modified when errors occur
	status := http.StatusCreated
	r := TransactionCreateResponse{}

	for _, editable := range transactions {
		transaction := editable.model()

		if transaction.Date.IsZero() {
			status = r.appendError(errTransactionDateMissing, status)
			continue
		}

		err := models.DB.Create(&transaction).Error
		if err != nil {
			status = r.appendError(err, status)
			continue
		}

		resolver, ok := resolvers[transaction.OwnerID]
		if !ok {
			resolver, err = models.OwnerResolver(models.DB, transaction.OwnerID)
			if err != nil {
				status = r.appendError(err, status)
				continue
			}
			resolvers[transaction.OwnerID] = resolver
		}

		data := newTransaction(c, resolver, transaction)
		r.Data = append(r.Data, TransactionResponse{Data: &data})
	}

	c.JSON(status, r)
}

// @Summary		List transactions
// @Description	Returns the transactions of an owner, newest first, with their resolved category
// @Tags			Transactions
// @Produce		json
// @Success		200			{object}	TransactionListResponse
// @Failure		400			{object}	TransactionListResponse
// @Failure		500			{object}	TransactionListResponse
// @Param			owner		query		string	true	"Owner of the transactions"
// @Param			item		query		string	false	"Filter by item ID"
// @Param			account		query		string	false	"Filter by account"
// @Param			fromDate	query		string	false	"Transactions at and after this date"
// @Param			untilDate	query		string	false	"Transactions before and at this date"
// @Param			category	query		string	false	"Filter by resolved category"
// @Param			offset		query		uint	false	"The offset of the first transaction returned. Defaults to 0."
// @Param			limit		query		int		false	"Maximum number of transactions to return. Defaults to 50."
// @Router			/v1/transactions [get]
func GetTransactions(c *gin.Context) {
	var filter TransactionQueryFilter
	if err := c.ShouldBind(&filter); err != nil {
		s := httputil.ErrInvalidQueryString.Error()
		c.JSON(http.StatusBadRequest, TransactionListResponse{Error: &s})
		return
	}

	if filter.OwnerID == "" {
		s := errOwnerParameter.Error()
		c.JSON(http.StatusBadRequest, TransactionListResponse{Error: &s})
		return
	}

	if !filter.FromDate.IsZero() && !filter.UntilDate.IsZero() && filter.UntilDate.Before(filter.FromDate) {
		s := errDateRange.Error()
		c.JSON(http.StatusBadRequest, TransactionListResponse{Error: &s})
		return
	}

	resolver, err := models.OwnerResolver(models.DB, filter.OwnerID)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), TransactionListResponse{Error: &s})
		return
	}

	queryFields, setFields := httputil.GetURLFields(c.Request.URL, filter)

	q := models.DB.
		Order("date DESC, created_at DESC").
		Where("owner_id = ?", filter.OwnerID).
		Where(filter.model(), queryFields...)

	if filter.ItemID != ll_uuid.Nil {
		q = q.Where("item_id = ?", filter.ItemID.UUID)
	}

	if !filter.FromDate.IsZero() {
		q = q.Where("date >= ?", filter.FromDate)
	}

	if !filter.UntilDate.IsZero() {
		q = q.Where("date <= ?", filter.UntilDate)
	}

	limit := 50
	if slices.Contains(setFields, "Limit") {
		limit = filter.Limit
	}

	var (
		transactions []models.Transaction
		count        int64
	)

	// The resolved category is not stored, so this filter pages in memory
	if filter.Category != "" {
		err = q.Find(&transactions).Error
		if err != nil {
			s := err.Error()
			c.JSON(status(err), TransactionListResponse{Error: &s})
			return
		}

		transactions = slices.DeleteFunc(transactions, func(t models.Transaction) bool {
			return !analytics.SameCategory(resolver.Resolve(t.Analytics()), filter.Category)
		})
		count = int64(len(transactions))
		transactions = page(transactions, filter.Offset, limit)
	} else {
		err = q.Offset(int(filter.Offset)).Limit(limit).Find(&transactions).Error
		if err != nil {
			s := err.Error()
			c.JSON(status(err), TransactionListResponse{Error: &s})
			return
		}

		err = q.Limit(-1).Offset(-1).Model(&models.Transaction{}).Count(&count).Error
		if err != nil {
			s := err.Error()
			c.JSON(status(err), TransactionListResponse{Error: &s})
			return
		}
	}

	data := make([]Transaction, 0, len(transactions))
	for _, transaction := range transactions {
		data = append(data, newTransaction(c, resolver, transaction))
	}

	c.JSON(http.StatusOK, TransactionListResponse{
		Data: data,
		Pagination: &Pagination{
			Count:  len(data),
			Total:  count,
			Offset: filter.Offset,
			Limit:  limit,
		},
	})
}

// page returns the slice of s selected by offset and limit. A negative
// limit returns everything after offset.
func page[T any](s []T, offset uint, limit int) []T {
	if int(offset) >= len(s) {
		return s[:0]
	}
	s = s[offset:]

	if limit >= 0 && limit < len(s) {
		s = s[:limit]
	}

	return s
}

// @Summary		Get transaction
// @Description	Returns a specific transaction with its resolved category
// @Tags			Transactions
// @Produce		json
// @Success		200	{object}	TransactionResponse
// @Failure		400	{object}	TransactionResponse
// @Failure		404	{object}	TransactionResponse
// @Failure		500	{object}	TransactionResponse
// @Param			id	path		URIID	true	"ID of the transaction"
// @Router			/v1/transactions/{id} [get]
func GetTransaction(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), TransactionResponse{Error: &s})
		return
	}

	var transaction models.Transaction
	err = models.DB.First(&transaction, uri.ID).Error
	if err != nil {
		s := err.Error()
		c.JSON(status(err), TransactionResponse{Error: &s})
		return
	}

	resolver, err := models.OwnerResolver(models.DB, transaction.OwnerID)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), TransactionResponse{Error: &s})
		return
	}

	data := newTransaction(c, resolver, transaction)
	c.JSON(http.StatusOK, TransactionResponse{Data: &data})
}

// @Summary		Delete transaction
// @Description	Deletes a transaction
// @Tags			Transactions
// @Success		204
// @Failure		400	{object}	httperror.Error
// @Failure		404	{object}	httperror.Error
// @Failure		500	{object}	httperror.Error
// @Param			id	path		URIID	true	"ID of the transaction"
// @Router			/v1/transactions/{id} [delete]
func DeleteTransaction(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		c.JSON(status(err), httperror.New(err))
		return
	}

	var transaction models.Transaction
	err = models.DB.First(&transaction, uri.ID).Error
	if err != nil {
		c.JSON(status(err), httperror.New(err))
		return
	}

	err = models.DB.Delete(&transaction).Error
	if err != nil {
		c.JSON(status(err), httperror.New(err))
		return
	}

	c.Status(http.StatusNoContent)
}
