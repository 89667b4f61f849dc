package models

import (
	"strings"

	"github.com/ledgerlens/backend/internal/analytics"
	"gorm.io/gorm"
)

// CategoryRule assigns a category to all transactions of an owner whose
// merchant or transaction name matches a glob pattern.
type CategoryRule struct {
	DefaultModel
	OwnerID  string `gorm:"uniqueIndex:category_rule_owner_match"`
	Priority uint
	Match    string `gorm:"uniqueIndex:category_rule_owner_match"`
	Category string
}

func (r *CategoryRule) BeforeSave(_ *gorm.DB) error {
	r.OwnerID = strings.TrimSpace(r.OwnerID)
	r.Match = strings.TrimSpace(r.Match)
	r.Category = sanitize(r.Category)

	return nil
}

func (r *CategoryRule) AfterSave(_ *gorm.DB) error {
	if r.OwnerID == "" {
		return ErrOwnerMissing
	}

	if r.Match == "" || r.Category == "" {
		return ErrCategoryRuleIncomplete
	}

	return nil
}

// OwnerResolver returns a resolver that applies the owner's category rules.
func OwnerResolver(db *gorm.DB, ownerID string) (analytics.Resolver, error) {
	var rules []CategoryRule
	err := db.Where(&CategoryRule{OwnerID: ownerID}).Find(&rules).Error
	if err != nil {
		return analytics.Resolver{}, err
	}

	converted := make([]analytics.Rule, 0, len(rules))
	for _, r := range rules {
		converted = append(converted, analytics.Rule{
			Priority: r.Priority,
			Match:    r.Match,
			Category: r.Category,
		})
	}

	return analytics.NewResolver(converted...), nil
}
