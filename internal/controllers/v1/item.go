package v1

import (
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/ledgerlens/backend/internal/aggregation"
	"github.com/ledgerlens/backend/internal/httperror"
	"github.com/ledgerlens/backend/internal/httputil"
	"github.com/ledgerlens/backend/internal/models"
	"github.com/ledgerlens/backend/internal/syncer"
)

// SyncLookbackDays is the number of days fetched on the first sync
// of an item. Zero uses the syncer default.
var SyncLookbackDays int

func newSyncer() (syncer.Syncer, error) {
	if aggregation.Default == nil {
		return syncer.Syncer{}, aggregation.ErrNotConfigured
	}

	return syncer.Syncer{
		DB:       models.DB,
		Source:   aggregation.Default,
		Lookback: SyncLookbackDays,
	}, nil
}

// RegisterItemRoutes registers the routes for items with
// the RouterGroup that is passed.
func RegisterItemRoutes(r *gin.RouterGroup) {
	// Root group
	{
		r.OPTIONS("", OptionsItemList)
		r.GET("", GetItems)
		r.POST("", CreateItems)
	}

	// Item with ID
	{
		r.OPTIONS("/:id", OptionsItemDetail)
		r.GET("/:id", GetItem)
		r.DELETE("/:id", DeleteItem)
		r.OPTIONS("/:id/sync", OptionsItemSync)
		r.POST("/:id/sync", SyncItem)
		r.OPTIONS("/:id/accounts", OptionsItemAccounts)
		r.GET("/:id/accounts", GetItemAccounts)
	}
}

// RegisterSyncRoutes registers the route to sync all items of an owner.
func RegisterSyncRoutes(r *gin.RouterGroup) {
	r.OPTIONS("", OptionsSync)
	r.POST("", SyncOwner)
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Items
// @Success		204
// @Router			/v1/items [options]
func OptionsItemList(c *gin.Context) {
	httputil.OptionsGetPost(c)
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Items
// @Success		204
// @Failure		400	{object}	httperror.Error
// @Failure		404	{object}	httperror.Error
// @Failure		500	{object}	httperror.Error
// @Param			id	path		URIID	true	"ID of the item"
// @Router			/v1/items/{id} [options]
func OptionsItemDetail(c *gin.Context) {
	if _, ok := itemFromURI(c); !ok {
		return
	}

	httputil.OptionsGetDelete(c)
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Items
// @Success		204
// @Param			id	path	URIID	true	"ID of the item"
// @Router			/v1/items/{id}/sync [options]
func OptionsItemSync(c *gin.Context) {
	if _, ok := itemFromURI(c); !ok {
		return
	}

	httputil.OptionsPost(c)
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Items
// @Success		204
// @Param			id	path	URIID	true	"ID of the item"
// @Router			/v1/items/{id}/accounts [options]
func OptionsItemAccounts(c *gin.Context) {
	if _, ok := itemFromURI(c); !ok {
		return
	}

	httputil.OptionsGet(c)
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Items
// @Success		204
// @Router			/v1/sync [options]
func OptionsSync(c *gin.Context) {
	httputil.OptionsPost(c)
}

// itemFromURI loads the item identified by the URI. If that fails, the
// error response is written and ok is false.
func itemFromURI(c *gin.Context) (item models.Item, ok bool) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		c.JSON(status(err), httperror.New(err))
		return
	}

	err = models.DB.First(&item, uri.ID).Error
	if err != nil {
		c.JSON(status(err), httperror.New(err))
		return
	}

	return item, true
}

// @Summary		Link items
// @Description	Exchanges public tokens from the account linking flow and stores the resulting items. The response code is the highest response code number that a single item creation would have caused. If it is not equal to 201, at least one item has an error.
// @Tags			Items
// @Accept			json
// @Produce		json
// @Success		201		{object}	ItemCreateResponse
// @Failure		400		{object}	ItemCreateResponse
// @Failure		502		{object}	ItemCreateResponse
// @Failure		503		{object}	ItemCreateResponse
// @Param			items	body		[]ItemCreate	true	"Items"
// @Router			/v1/items [post]
func CreateItems(c *gin.Context) {
	var items []ItemCreate

	err := httputil.BindData(c, &items)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), ItemCreateResponse{Error: &e})
		return
	}

	if aggregation.Default == nil {
		e := aggregation.ErrNotConfigured.Error()
		c.JSON(status(aggregation.ErrNotConfigured), ItemCreateResponse{Error: &e})
		return
	}

	// The final http status. Will be modified when errors occur
	status := http.StatusCreated
	r := ItemCreateResponse{}

	for _, create := range items {
		item, err := createItem(c, create)
		if err != nil {
			status = r.appendError(err, status)
			continue
		}

		data := newItem(c, item)
		r.Data = append(r.Data, ItemResponse{Data: &data})
	}

	c.JSON(status, r)
}

func createItem(c *gin.Context, create ItemCreate) (models.Item, error) {
	if strings.TrimSpace(create.OwnerID) == "" {
		return models.Item{}, models.ErrOwnerMissing
	}

	if strings.TrimSpace(create.PublicToken) == "" {
		return models.Item{}, errPublicTokenMissing
	}

	link, err := aggregation.Default.ExchangePublicToken(c.Request.Context(), create.PublicToken)
	if err != nil {
		return models.Item{}, err
	}

	item := models.Item{
		OwnerID:         create.OwnerID,
		ExternalID:      link.ItemID,
		AccessToken:     link.AccessToken,
		InstitutionName: create.InstitutionName,
	}

	err = models.DB.Create(&item).Error
	if err != nil {
		return models.Item{}, err
	}

	return item, nil
}

// @Summary		List items
// @Description	Returns the linked items of an owner
// @Tags			Items
// @Produce		json
// @Success		200		{object}	ItemListResponse
// @Failure		400		{object}	ItemListResponse
// @Failure		500		{object}	ItemListResponse
// @Param			owner	query		string	true	"Owner of the items"
// @Param			offset	query		uint	false	"The offset of the first item returned. Defaults to 0."
// @Param			limit	query		int		false	"Maximum number of items to return. Defaults to 50."
// @Router			/v1/items [get]
func GetItems(c *gin.Context) {
	var filter ItemQueryFilter
	if err := c.ShouldBind(&filter); err != nil {
		s := httputil.ErrInvalidQueryString.Error()
		c.JSON(http.StatusBadRequest, ItemListResponse{Error: &s})
		return
	}

	if filter.OwnerID == "" {
		s := errOwnerParameter.Error()
		c.JSON(http.StatusBadRequest, ItemListResponse{Error: &s})
		return
	}

	_, setFields := httputil.GetURLFields(c.Request.URL, filter)

	q := models.DB.
		Order("created_at ASC").
		Where(&models.Item{OwnerID: filter.OwnerID}).
		Offset(int(filter.Offset))

	limit := 50
	if slices.Contains(setFields, "Limit") {
		limit = filter.Limit
	}
	q = q.Limit(limit)

	var items []models.Item
	err := q.Find(&items).Error
	if err != nil {
		s := err.Error()
		c.JSON(status(err), ItemListResponse{Error: &s})
		return
	}

	var count int64
	err = q.Limit(-1).Offset(-1).Count(&count).Error
	if err != nil {
		s := err.Error()
		c.JSON(status(err), ItemListResponse{Error: &s})
		return
	}

	data := make([]Item, 0, len(items))
	for _, item := range items {
		data = append(data, newItem(c, item))
	}

	c.JSON(http.StatusOK, ItemListResponse{
		Data: data,
		Pagination: &Pagination{
			Count:  len(data),
			Total:  count,
			Offset: filter.Offset,
			Limit:  limit,
		},
	})
}

// @Summary		Get item
// @Description	Returns a specific item
// @Tags			Items
// @Produce		json
// @Success		200	{object}	ItemResponse
// @Failure		400	{object}	httperror.Error
// @Failure		404	{object}	httperror.Error
// @Failure		500	{object}	httperror.Error
// @Param			id	path		URIID	true	"ID of the item"
// @Router			/v1/items/{id} [get]
func GetItem(c *gin.Context) {
	item, ok := itemFromURI(c)
	if !ok {
		return
	}

	data := newItem(c, item)
	c.JSON(http.StatusOK, ItemResponse{Data: &data})
}

// @Summary		Delete item
// @Description	Deletes an item and all transactions synced from it
// @Tags			Items
// @Success		204
// @Failure		400	{object}	httperror.Error
// @Failure		404	{object}	httperror.Error
// @Failure		500	{object}	httperror.Error
// @Param			id	path		URIID	true	"ID of the item"
// @Router			/v1/items/{id} [delete]
func DeleteItem(c *gin.Context) {
	item, ok := itemFromURI(c)
	if !ok {
		return
	}

	err := models.DB.Delete(&item).Error
	if err != nil {
		c.JSON(status(err), httperror.New(err))
		return
	}

	if aggregation.Default != nil {
		aggregation.Default.Forget(item.AccessToken)
	}

	c.Status(http.StatusNoContent)
}

// @Summary		Sync item
// @Description	Fetches the transactions of an item from the aggregation API and stores them
// @Tags			Items
// @Produce		json
// @Success		200	{object}	SyncResponse
// @Failure		400	{object}	SyncResponse
// @Failure		404	{object}	httperror.Error
// @Failure		502	{object}	SyncResponse
// @Failure		503	{object}	SyncResponse
// @Param			id	path		URIID	true	"ID of the item"
// @Param			at	query		string	false	"Sync up to this time instead of now, RFC3339"
// @Router			/v1/items/{id}/sync [post]
func SyncItem(c *gin.Context) {
	item, ok := itemFromURI(c)
	if !ok {
		return
	}

	at, err := now(c)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), SyncResponse{Error: &s})
		return
	}

	s, err := newSyncer()
	if err != nil {
		e := err.Error()
		c.JSON(status(err), SyncResponse{Error: &e})
		return
	}

	n, err := s.SyncItem(c.Request.Context(), item, at)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), SyncResponse{
			Data:  []syncer.Result{{ItemID: item.ID, Error: &e}},
			Error: &e,
		})
		return
	}

	c.JSON(http.StatusOK, SyncResponse{
		Data: []syncer.Result{{ItemID: item.ID, Synced: n}},
	})
}

// @Summary		Sync owner
// @Description	Syncs all items of an owner in parallel. Items that fail to sync are reported in the result, the others are stored regardless.
// @Tags			Items
// @Produce		json
// @Success		200		{object}	SyncResponse
// @Failure		400		{object}	SyncResponse
// @Failure		503		{object}	SyncResponse
// @Param			owner	query		string	true	"Owner of the items"
// @Param			at		query		string	false	"Sync up to this time instead of now, RFC3339"
// @Router			/v1/sync [post]
func SyncOwner(c *gin.Context) {
	owner := c.Query("owner")
	if owner == "" {
		s := errOwnerParameter.Error()
		c.JSON(http.StatusBadRequest, SyncResponse{Error: &s})
		return
	}

	at, err := now(c)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), SyncResponse{Error: &s})
		return
	}

	s, err := newSyncer()
	if err != nil {
		e := err.Error()
		c.JSON(status(err), SyncResponse{Error: &e})
		return
	}

	results, err := s.SyncOwner(c.Request.Context(), owner, at)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), SyncResponse{Error: &e})
		return
	}

	c.JSON(http.StatusOK, SyncResponse{Data: results})
}

// @Summary		Get item accounts
// @Description	Returns the accounts of an item with their current balances. Balances are cached for a short time.
// @Tags			Items
// @Produce		json
// @Success		200	{object}	AccountListResponse
// @Failure		400	{object}	AccountListResponse
// @Failure		404	{object}	httperror.Error
// @Failure		502	{object}	AccountListResponse
// @Failure		503	{object}	AccountListResponse
// @Param			id	path		URIID	true	"ID of the item"
// @Router			/v1/items/{id}/accounts [get]
func GetItemAccounts(c *gin.Context) {
	item, ok := itemFromURI(c)
	if !ok {
		return
	}

	if aggregation.Default == nil {
		e := aggregation.ErrNotConfigured.Error()
		c.JSON(status(aggregation.ErrNotConfigured), AccountListResponse{Error: &e})
		return
	}

	accounts, err := aggregation.Default.Balances(c.Request.Context(), item.AccessToken)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), AccountListResponse{Error: &e})
		return
	}

	c.JSON(http.StatusOK, AccountListResponse{Data: accounts})
}
