package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"transcriptvault/pkg/dates"
	"transcriptvault/pkg/domain"
)

const migrateLockID int64 = 52610931

// GormIndex implements Index using GORM + Postgres.
type GormIndex struct {
	db *gorm.DB
}

// NewGormIndex opens the database connection. Call Migrate before use.
func NewGormIndex(dsn string) (*GormIndex, error) {
	gormLog := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         gormLog,
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	return &GormIndex{db: db}, nil
}

// Migrate ensures the transcripts schema under an advisory lock so that
// concurrently starting replicas do not race the DDL.
func (g *GormIndex) Migrate(ctx context.Context) error {
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("SELECT pg_advisory_xact_lock(?)", migrateLockID).Error; err != nil {
			return fmt.Errorf("acquire migration lock: %w", err)
		}
		if err := tx.AutoMigrate(&TranscriptModel{}); err != nil {
			return fmt.Errorf("auto migrate: %w", err)
		}
		return nil
	})
}

// Insert adds a version row, surfacing unique-index violations as
// ErrDuplicateVersion.
func (g *GormIndex) Insert(ctx context.Context, m domain.Metadata) error {
	row, err := toModel(m)
	if err != nil {
		return err
	}
	if err := g.db.WithContext(ctx).Create(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("insert %s v%d: %w", m.SourceID, m.Version, ErrDuplicateVersion)
		}
		return fmt.Errorf("insert %s v%d: %w", m.SourceID, m.Version, err)
	}
	return nil
}

// Get returns the exact (sourceId, version) row.
func (g *GormIndex) Get(ctx context.Context, sourceID string, version int) (domain.Metadata, error) {
	var row TranscriptModel
	err := g.db.WithContext(ctx).
		Where("source_id = ? AND version = ?", sourceID, version).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Metadata{}, fmt.Errorf("get %s v%d: %w", sourceID, version, ErrRowNotFound)
		}
		return domain.Metadata{}, fmt.Errorf("get %s v%d: %w", sourceID, version, err)
	}
	return fromModel(row)
}

// MaxVersion returns the highest assigned version for a lineage, 0 when none.
func (g *GormIndex) MaxVersion(ctx context.Context, sourceID string) (int, error) {
	var max int
	err := g.db.WithContext(ctx).
		Model(&TranscriptModel{}).
		Where("source_id = ?", sourceID).
		Select("COALESCE(MAX(version), 0)").
		Scan(&max).Error
	if err != nil {
		return 0, fmt.Errorf("max version for %s: %w", sourceID, err)
	}
	return max, nil
}

// ListVersions returns a lineage's rows newest-first.
func (g *GormIndex) ListVersions(ctx context.Context, sourceID string) ([]domain.Metadata, error) {
	var rows []TranscriptModel
	err := g.db.WithContext(ctx).
		Where("source_id = ?", sourceID).
		Order("version DESC, uploaded_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list versions for %s: %w", sourceID, err)
	}
	out := make([]domain.Metadata, 0, len(rows))
	for _, row := range rows {
		m, err := fromModel(row)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

// ListLatest reduces to the newest version per lineage with DISTINCT ON,
// then filters, counts and windows that reduced set. Filtering before the
// reduction would let stale versions occupy pagination slots.
func (g *GormIndex) ListLatest(ctx context.Context, filters []Filter, from, to int) ([]domain.Metadata, int64, error) {
	counted, err := applyFilters(g.latestQuery(ctx), filters)
	if err != nil {
		return nil, 0, err
	}
	var total int64
	if err := counted.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count latest transcripts: %w", err)
	}

	items := []domain.Metadata{}
	if to < from {
		return items, total, nil
	}
	q, err := applyFilters(g.latestQuery(ctx), filters)
	if err != nil {
		return nil, 0, err
	}
	var rows []TranscriptModel
	err = q.Order("uploaded_at DESC, source_id ASC").
		Offset(from).
		Limit(to - from + 1).
		Find(&rows).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list latest transcripts: %w", err)
	}
	for _, row := range rows {
		m, err := fromModel(row)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, m)
	}
	return items, total, nil
}

// UpdateStatus mutates processingStatus (and completion stamp when given)
// on an exact row and returns the updated row.
func (g *GormIndex) UpdateStatus(ctx context.Context, sourceID string, version int, status domain.ProcessingStatus, completedAt *string) (domain.Metadata, error) {
	changes := map[string]any{"processing_status": string(status)}
	if completedAt != nil {
		t, err := dates.ParseDatabase(*completedAt)
		if err != nil {
			return domain.Metadata{}, fmt.Errorf("update status for %s v%d: %w", sourceID, version, err)
		}
		changes["processing_completed_at"] = t.UTC()
	}
	res := g.db.WithContext(ctx).
		Model(&TranscriptModel{}).
		Where("source_id = ? AND version = ?", sourceID, version).
		Updates(changes)
	if res.Error != nil {
		return domain.Metadata{}, fmt.Errorf("update status for %s v%d: %w", sourceID, version, res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.Metadata{}, fmt.Errorf("update status for %s v%d: %w", sourceID, version, ErrRowNotFound)
	}
	return g.Get(ctx, sourceID, version)
}

// Delete removes an exact row.
func (g *GormIndex) Delete(ctx context.Context, sourceID string, version int) error {
	res := g.db.WithContext(ctx).
		Where("source_id = ? AND version = ?", sourceID, version).
		Delete(&TranscriptModel{})
	if res.Error != nil {
		return fmt.Errorf("delete %s v%d: %w", sourceID, version, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("delete %s v%d: %w", sourceID, version, ErrRowNotFound)
	}
	return nil
}

// DeleteAll removes every row of a lineage.
func (g *GormIndex) DeleteAll(ctx context.Context, sourceID string) error {
	err := g.db.WithContext(ctx).
		Where("source_id = ?", sourceID).
		Delete(&TranscriptModel{}).Error
	if err != nil {
		return fmt.Errorf("delete lineage %s: %w", sourceID, err)
	}
	return nil
}

func (g *GormIndex) latestQuery(ctx context.Context) *gorm.DB {
	sub := g.db.WithContext(ctx).
		Model(&TranscriptModel{}).
		Select("DISTINCT ON (source_id) *").
		Order("source_id, version DESC")
	return g.db.WithContext(ctx).Table("(?) AS latest", sub)
}

func applyFilters(q *gorm.DB, filters []Filter) (*gorm.DB, error) {
	for _, f := range filters {
		switch f.Field {
		case FieldTitle:
			q = q.Where("title ILIKE ?", "%"+f.Value+"%")
		case FieldSpeakers, FieldTags:
			member, err := json.Marshal([]string{f.Value})
			if err != nil {
				return nil, fmt.Errorf("encode %s filter: %w", f.Field, err)
			}
			q = q.Where(f.Field+" @> ?", datatypes.JSON(member))
		case FieldDate:
			t, err := dates.ParseDatabase(f.Value)
			if err != nil {
				return nil, fmt.Errorf("date filter: %w", err)
			}
			if f.Op == OpGTE {
				q = q.Where("date >= ?", t.UTC())
			} else {
				q = q.Where("date <= ?", t.UTC())
			}
		case FieldStatus:
			q = q.Where("processing_status = ?", f.Value)
		default:
			return nil, fmt.Errorf("unknown filter field %q", f.Field)
		}
	}
	return q, nil
}
