// package models defines the data model for the AuraSpace media service
package models

import (
	"time"
)

// Model is a persisted entity with an identity, timestamps and self-validation. [Track] is the only one.
type Model interface {
	ID() string
	CreatedAt() time.Time
	UpdatedAt() time.Time
	Validate() error
}

// Repository is the storage contract for a [Model]. Reads never return soft-deleted rows.
type Repository[T Model] interface {
	Create(model T) error                      // Create assigns an ID when the model has none
	Get(id string) (T, error)                  // Get fails with shared.ErrTrackNotFound for unknown or deleted ids
	Update(model T) error                      // Update rewrites the mutable fields and bumps UpdatedAt
	Delete(id string) error                    // Delete stamps deleted_at
	List(criteria map[string]any) ([]T, error) // List orders by sequence
}

var _ Model = (*Track)(nil)
