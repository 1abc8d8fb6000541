// Package entity defines the domain models for the groups feature.
package entity

import "time"

// Group is a user-owned collection of market items that is trained as a unit.
// HasModel guards against retraining: a group whose models exist must have
// them deleted before a new training is accepted.
type Group struct {
	ID        uint
	UserID    uint
	GroupName string
	HasModel  bool
	CreatedAt time.Time
}

// Item is one market item inside a group. PriceHistory holds the raw
// {"prices": [[date, price, quantity], ...]} envelope as submitted.
type Item struct {
	ID           uint
	GroupID      uint
	ItemName     string
	PriceHistory []byte
	CreatedAt    time.Time
}
