// Package store provides the relational metadata index for transcript
// versions: one row per (sourceId, version), with latest-version reduction,
// filtering and range pagination handled behind the Index interface.
package store

import (
	"context"
	"errors"

	"transcriptvault/pkg/domain"
)

var (
	// ErrDuplicateVersion indicates an insert raced another uploader onto
	// the same (sourceId, version) pair.
	ErrDuplicateVersion = errors.New("duplicate transcript version")
	// ErrRowNotFound indicates the referenced (sourceId, version) row does
	// not exist.
	ErrRowNotFound = errors.New("transcript row not found")
)

// Index is the metadata index consumed by the storage engine. All date
// values cross this boundary in the canonical database form.
type Index interface {
	// Migrate idempotently ensures the schema (table, unique
	// (source_id, version) index, status check constraint) exists.
	Migrate(ctx context.Context) error

	// Insert adds a new version row. Returns ErrDuplicateVersion when the
	// (sourceId, version) pair already exists.
	Insert(ctx context.Context, m domain.Metadata) error

	// Get returns the exact (sourceId, version) row or ErrRowNotFound.
	Get(ctx context.Context, sourceID string, version int) (domain.Metadata, error)

	// MaxVersion returns the highest version for sourceID, 0 when the
	// lineage has no rows.
	MaxVersion(ctx context.Context, sourceID string) (int, error)

	// ListVersions returns every row of a lineage, newest-first by version
	// (ties broken by upload time, descending). Empty when absent.
	ListVersions(ctx context.Context, sourceID string) ([]domain.Metadata, error)

	// ListLatest reduces rows to the latest version per lineage, applies
	// filters to that reduced set, then returns the inclusive [from, to]
	// window and the total matching lineage count. A to < from window
	// yields no items but still the correct total.
	ListLatest(ctx context.Context, filters []Filter, from, to int) ([]domain.Metadata, int64, error)

	// UpdateStatus sets processingStatus (and, when non-nil, the
	// processingCompletedAt stamp) on an exact row, returning the updated
	// row or ErrRowNotFound.
	UpdateStatus(ctx context.Context, sourceID string, version int, status domain.ProcessingStatus, completedAt *string) (domain.Metadata, error)

	// Delete removes an exact row, ErrRowNotFound when absent.
	Delete(ctx context.Context, sourceID string, version int) error

	// DeleteAll removes every row of a lineage; absent lineages are a no-op.
	DeleteAll(ctx context.Context, sourceID string) error
}
