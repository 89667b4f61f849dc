package models

import (
	"errors"
)

var (
	ErrGeneral          = errors.New("an error occurred on the server during your request")
	ErrResourceNotFound = errors.New("there is no")
	ErrOwnerMissing     = errors.New("the owner of the resource must be set")
)

// Budget errors
var (
	ErrBudgetAmountNotPositive = errors.New("budget amounts must be larger than zero")
	ErrBudgetThresholdInvalid  = errors.New("the alert threshold must be between 0 and 1")
	ErrBudgetCategoryEmpty     = errors.New("the category of a budget must not be empty")
	ErrBudgetOverlap           = errors.New("there already is an active budget for this category that overlaps with the requested period")
)

// Uniqueness errors
var (
	ErrItemNotUnique         = errors.New("this item has already been linked")
	ErrTransactionNotUnique  = errors.New("a transaction with this external ID already exists for the item")
	ErrCategoryRuleNotUnique = errors.New("a category rule with this match already exists")
)

var ErrCategoryRuleIncomplete = errors.New("category rules need both a match and a category")
