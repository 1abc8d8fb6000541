// Package usecase implements the business logic for the groups feature.
package usecase

import "errors"

var (
	// ErrGroupNotFound is returned when a group does not exist or is not owned by the user.
	ErrGroupNotFound = errors.New("group not found or not owned by user")

	// ErrItemNotFound is returned when an item does not exist in the group.
	ErrItemNotFound = errors.New("item not found in group")

	// ErrTitleRequired is returned when a group is created or renamed without a title.
	ErrTitleRequired = errors.New("title is required")

	// ErrInvalidPriceHistory is returned when an item's price history fails validation.
	ErrInvalidPriceHistory = errors.New("invalid price history")
)
