// Package usecase implements the price-model training and prediction engine.
package usecase

import "errors"

var (
	// ErrServerBusy is returned when all training slots are taken.
	// The caller may retry later; the engine never retries on its own.
	ErrServerBusy = errors.New("server is busy, please try again later")

	// ErrQueueFull is returned when the training backlog queue is full.
	ErrQueueFull = errors.New("training queue is full, please try again later")

	// ErrGroupNotFound is returned when a group does not exist or is not owned by the user.
	ErrGroupNotFound = errors.New("group not found")

	// ErrItemNotFound is returned when an item does not exist in the group.
	ErrItemNotFound = errors.New("item not found in group")

	// ErrModelsExist is returned when training is requested for a group that
	// already has trained models. Models must be deleted before retraining.
	ErrModelsExist = errors.New("models already exist for this group")

	// ErrModelNotFound is returned when no model index entry exists for an item.
	ErrModelNotFound = errors.New("model not found for user/item")

	// ErrArtifactNotFound is returned when the persisted artifacts of a
	// fingerprint are missing or unreadable.
	ErrArtifactNotFound = errors.New("model artifacts not found or unreadable")
)
