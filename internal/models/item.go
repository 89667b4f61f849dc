package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Item is a set of accounts at one institution, linked through the
// aggregation API.
type Item struct {
	DefaultModel
	OwnerID         string `gorm:"index"`
	ExternalID      string `gorm:"uniqueIndex"` // ID assigned by the aggregation API
	AccessToken     string `json:"-"`
	InstitutionName string
	LastSyncedAt    *time.Time
}

func (i *Item) BeforeSave(_ *gorm.DB) error {
	i.OwnerID = strings.TrimSpace(i.OwnerID)
	i.InstitutionName = sanitize(i.InstitutionName)

	if i.LastSyncedAt != nil {
		t := i.LastSyncedAt.In(time.UTC)
		i.LastSyncedAt = &t
	}

	if i.OwnerID == "" {
		return ErrOwnerMissing
	}

	return nil
}

// AfterDelete removes the transactions synced from the item.
func (i *Item) AfterDelete(tx *gorm.DB) error {
	return tx.Session(&gorm.Session{NewDB: true}).
		Where("item_id = ?", i.ID).
		Delete(&Transaction{}).Error
}
