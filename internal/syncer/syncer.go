// Package syncer pulls transactions of linked items from the aggregation API
// into the database.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ledgerlens/backend/internal/aggregation"
	"github.com/ledgerlens/backend/internal/models"
	"github.com/ledgerlens/backend/internal/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrNoItems = errors.New("there are no linked items for this owner")

// Source is the part of the aggregation client the syncer needs.
type Source interface {
	Transactions(ctx context.Context, accessToken string, from, to time.Time) ([]aggregation.Transaction, error)
}

// Syncer syncs items with a Source.
type Syncer struct {
	DB     *gorm.DB
	Source Source

	// Days fetched on the first sync of an item
	Lookback int

	// Days before the last sync that are fetched again, pending
	// transactions change until they are posted
	Overlap int

	// Items synced in parallel by SyncOwner
	Concurrency int
}

var itemsSynced = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "ledgerlens_items_synced_total",
		Help: "Number of item syncs, partitioned by result.",
	},
	[]string{"result"},
)

// Collector returns the sync metrics for registration.
func Collector() prometheus.Collector {
	return itemsSynced
}

// Result is the outcome of syncing one item.
type Result struct {
	ItemID uuid.UUID `json:"itemId" example:"1e777d24-3f5b-4c43-8000-04f65f895578"`
	Synced int       `json:"synced" example:"42"`                                      // Number of transactions added or updated
	Error  *string   `json:"error" example:"the aggregation API could not be reached"` // Error that occurred while syncing, if any
	err    error
}

func (r Result) Err() error {
	return r.err
}

func (s Syncer) lookback() int {
	if s.Lookback <= 0 {
		return 730
	}
	return s.Lookback
}

func (s Syncer) overlap() int {
	if s.Overlap <= 0 {
		return 7
	}
	return s.Overlap
}

func (s Syncer) concurrency() int {
	if s.Concurrency <= 0 {
		return 4
	}
	return s.Concurrency
}

// Window returns the date range fetched for an item at now.
func (s Syncer) Window(item models.Item, now time.Time) (from, to time.Time) {
	to = now.In(time.UTC)

	if item.LastSyncedAt == nil {
		return to.AddDate(0, 0, -s.lookback()), to
	}

	return item.LastSyncedAt.In(time.UTC).AddDate(0, 0, -s.overlap()), to
}

// SyncItem fetches the transactions of an item and upserts them.
// It returns the number of transactions written.
func (s Syncer) SyncItem(ctx context.Context, item models.Item, now time.Time) (int, error) {
	from, to := s.Window(item, now)

	fetched, err := s.Source.Transactions(ctx, item.AccessToken, from, to)
	if err != nil {
		return 0, err
	}

	transactions := make([]models.Transaction, 0, len(fetched))
	for _, f := range fetched {
		t, err := convert(item, f)
		if err != nil {
			log.Warn().Str("item", item.ID.String()).Str("transaction", f.ID).Err(err).Msg("skipping transaction")
			continue
		}
		transactions = append(transactions, t)
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if len(transactions) > 0 {
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "item_id"}, {Name: "external_id"}},
				DoUpdates: clause.AssignmentColumns([]string{"account_id", "date", "amount", "merchant_name", "name", "categories", "updated_at", "deleted_at"}),
			}).CreateInBatches(&transactions, 100).Error
			if err != nil {
				return err
			}
		}

		synced := to
		return tx.Model(&item).UpdateColumn("last_synced_at", synced).Error
	})
	if err != nil {
		return 0, err
	}

	log.Info().Str("item", item.ID.String()).Int("transactions", len(transactions)).Msg("synced item")
	return len(transactions), nil
}

func convert(item models.Item, f aggregation.Transaction) (models.Transaction, error) {
	date, err := types.ParseDate(f.Date)
	if err != nil {
		return models.Transaction{}, fmt.Errorf("invalid date %q: %w", f.Date, err)
	}

	merchant := ""
	if f.MerchantName != nil {
		merchant = *f.MerchantName
	}

	return models.Transaction{
		OwnerID:      item.OwnerID,
		ItemID:       &item.ID,
		ExternalID:   f.ID,
		AccountID:    f.AccountID,
		Date:         date,
		Amount:       f.Amount,
		MerchantName: merchant,
		Name:         f.Name,
		Categories:   f.Category,
	}, nil
}

// SyncOwner syncs all items of an owner in parallel. A failing item is
// reported in its Result and does not stop the others.
func (s Syncer) SyncOwner(ctx context.Context, ownerID string, now time.Time) ([]Result, error) {
	if ownerID == "" {
		return nil, models.ErrOwnerMissing
	}

	var items []models.Item
	err := s.DB.Where(&models.Item{OwnerID: ownerID}).Order("created_at ASC").Find(&items).Error
	if err != nil {
		return nil, err
	}

	if len(items) == 0 {
		return nil, ErrNoItems
	}

	results := make([]Result, len(items))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency())

	for i, item := range items {
		g.Go(func() error {
			n, err := s.SyncItem(ctx, item, now)
			results[i] = Result{ItemID: item.ID, Synced: n, err: err}

			if err != nil {
				itemsSynced.WithLabelValues("error").Inc()
				msg := err.Error()
				results[i].Error = &msg
				log.Error().Str("item", item.ID.String()).Err(err).Msg("item sync failed")
				return nil
			}

			itemsSynced.WithLabelValues("success").Inc()
			return nil
		})
	}

	// Workers never return errors, failures are part of the results
	_ = g.Wait()

	return results, nil
}
