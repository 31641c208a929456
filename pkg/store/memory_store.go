package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"transcriptvault/pkg/dates"
	"transcriptvault/pkg/domain"
)

// MemoryIndex keeps metadata rows in-process. It honors the same contract
// as GormIndex (including duplicate-version rejection) so engine tests can
// run against it.
type MemoryIndex struct {
	mu   sync.RWMutex
	rows map[string][]domain.Metadata // sourceID -> rows, version ascending
}

// NewMemoryIndex initializes an empty in-memory index.
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{rows: make(map[string][]domain.Metadata)}
}

// Migrate is a no-op for the in-memory index.
func (m *MemoryIndex) Migrate(context.Context) error { return nil }

// Insert adds a row, rejecting duplicate (sourceId, version) pairs.
func (m *MemoryIndex) Insert(_ context.Context, meta domain.Metadata) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, row := range m.rows[meta.SourceID] {
		if row.Version == meta.Version {
			return fmt.Errorf("insert %s v%d: %w", meta.SourceID, meta.Version, ErrDuplicateVersion)
		}
	}
	rows := append(m.rows[meta.SourceID], meta.Clone())
	sort.Slice(rows, func(i, j int) bool { return rows[i].Version < rows[j].Version })
	m.rows[meta.SourceID] = rows
	return nil
}

// Get returns the exact (sourceId, version) row.
func (m *MemoryIndex) Get(_ context.Context, sourceID string, version int) (domain.Metadata, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, row := range m.rows[sourceID] {
		if row.Version == version {
			return row.Clone(), nil
		}
	}
	return domain.Metadata{}, fmt.Errorf("get %s v%d: %w", sourceID, version, ErrRowNotFound)
}

// MaxVersion returns the highest version, 0 when the lineage is absent.
func (m *MemoryIndex) MaxVersion(_ context.Context, sourceID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rows := m.rows[sourceID]
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[len(rows)-1].Version, nil
}

// ListVersions returns a lineage's rows newest-first.
func (m *MemoryIndex) ListVersions(_ context.Context, sourceID string) ([]domain.Metadata, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rows := m.rows[sourceID]
	out := make([]domain.Metadata, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		out = append(out, rows[i].Clone())
	}
	return out, nil
}

// ListLatest reduces to the newest version per lineage, filters, then
// windows the reduced set.
func (m *MemoryIndex) ListLatest(_ context.Context, filters []Filter, from, to int) ([]domain.Metadata, int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var latest []domain.Metadata
	for _, rows := range m.rows {
		if len(rows) == 0 {
			continue
		}
		row := rows[len(rows)-1]
		ok, err := matchFilters(row, filters)
		if err != nil {
			return nil, 0, err
		}
		if ok {
			latest = append(latest, row.Clone())
		}
	}
	sort.Slice(latest, func(i, j int) bool {
		if latest[i].UploadedAt != latest[j].UploadedAt {
			return latest[i].UploadedAt > latest[j].UploadedAt
		}
		return latest[i].SourceID < latest[j].SourceID
	})

	total := int64(len(latest))
	items := []domain.Metadata{}
	if to < from {
		return items, total, nil
	}
	for i := from; i <= to && i < len(latest); i++ {
		items = append(items, latest[i])
	}
	return items, total, nil
}

// UpdateStatus mutates status (and completion stamp when given) on an
// exact row.
func (m *MemoryIndex) UpdateStatus(_ context.Context, sourceID string, version int, status domain.ProcessingStatus, completedAt *string) (domain.Metadata, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rows := m.rows[sourceID]
	for i, row := range rows {
		if row.Version != version {
			continue
		}
		row.ProcessingStatus = status
		if completedAt != nil {
			v := *completedAt
			row.ProcessingCompletedAt = &v
		}
		rows[i] = row
		return row.Clone(), nil
	}
	return domain.Metadata{}, fmt.Errorf("update status for %s v%d: %w", sourceID, version, ErrRowNotFound)
}

// Delete removes an exact row.
func (m *MemoryIndex) Delete(_ context.Context, sourceID string, version int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rows := m.rows[sourceID]
	for i, row := range rows {
		if row.Version == version {
			m.rows[sourceID] = append(rows[:i:i], rows[i+1:]...)
			if len(m.rows[sourceID]) == 0 {
				delete(m.rows, sourceID)
			}
			return nil
		}
	}
	return fmt.Errorf("delete %s v%d: %w", sourceID, version, ErrRowNotFound)
}

// DeleteAll removes every row of a lineage; absent lineages are a no-op.
func (m *MemoryIndex) DeleteAll(_ context.Context, sourceID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rows, sourceID)
	return nil
}

func matchFilters(row domain.Metadata, filters []Filter) (bool, error) {
	for _, f := range filters {
		switch f.Field {
		case FieldTitle:
			if !strings.Contains(strings.ToLower(row.Title), strings.ToLower(f.Value)) {
				return false, nil
			}
		case FieldSpeakers:
			if !containsString(row.Speakers, f.Value) {
				return false, nil
			}
		case FieldTags:
			if !containsString(row.Tags, f.Value) {
				return false, nil
			}
		case FieldDate:
			if f.Op == OpGTE {
				before, err := dates.IsBefore(row.Date, f.Value)
				if err != nil {
					return false, err
				}
				if before {
					return false, nil
				}
			} else {
				after, err := dates.IsAfter(row.Date, f.Value)
				if err != nil {
					return false, err
				}
				if after {
					return false, nil
				}
			}
		case FieldStatus:
			if string(row.ProcessingStatus) != f.Value {
				return false, nil
			}
		default:
			return false, fmt.Errorf("unknown filter field %q", f.Field)
		}
	}
	return true, nil
}

func containsString(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}
