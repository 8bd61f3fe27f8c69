// Package store persists chat records behind a small driver interface.
// Two drivers ship: an in-memory map with an optional JSON snapshot, and
// Redis. Storage is crash-tolerant but not transactional; a snapshot
// failure is reported, never retried.
package store

import (
	"context"
	"errors"

	"github.com/empathyengine/resonance/internal/core/model"
)

var (
	ErrNotFound      = errors.New("chat not found")
	ErrAlreadyExists = errors.New("chat already exists")
	ErrInvalidConfig = errors.New("invalid store configuration")
	ErrInvalidDriver = errors.New("invalid store driver")
)

// Store is the persistence collaborator for chat records. Implementations
// must keep the per-user id list in append order; it backs cursor
// pagination.
type Store interface {
	// Create persists a new record and appends its id to the owner's list.
	Create(ctx context.Context, rec *model.ChatRecord) error

	// Get returns the record or ErrNotFound.
	Get(ctx context.Context, chatID string) (*model.ChatRecord, error)

	// Save overwrites an existing record. Returns ErrNotFound if the
	// record was never created.
	Save(ctx context.Context, rec *model.ChatRecord) error

	// Delete removes the record and its index entry. A missing record and
	// an ownership mismatch both report ErrNotFound, so a non-owner
	// cannot learn whether the chat exists.
	Delete(ctx context.Context, chatID, userID string) error

	// ListIDs returns the owner's chat ids in append order.
	ListIDs(ctx context.Context, userID string) ([]string, error)

	Close() error
}
