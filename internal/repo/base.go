package repo

import (
	"context"

	"gorm.io/gorm"
)

// MaxInParams bounds IN lists so sqlite stays under its bound variable limit.
const MaxInParams = 500

// Base carries the connection shared by the users and items repositories.
type Base struct {
	db *gorm.DB
}

// NewBase constructs a Base repository backed by the provided GORM connection.
func NewBase(db *gorm.DB) Base {
	return Base{db: db}
}

// DB returns the connection bound to ctx. A nil ctx returns the raw handle.
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.db
	}
	return b.db.WithContext(ctx)
}

// Transaction runs fn inside a transaction on the bound connection.
func (b Base) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return b.DB(ctx).Transaction(fn)
}

// Chunked calls fn with consecutive slices of values no longer than size.
// A non-positive size falls back to MaxInParams.
func Chunked[T any](values []T, size int, fn func([]T) error) error {
	if size <= 0 {
		size = MaxInParams
	}
	for start := 0; start < len(values); start += size {
		end := min(start+size, len(values))
		if err := fn(values[start:end]); err != nil {
			return err
		}
	}
	return nil
}
