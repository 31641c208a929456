package store

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"

	"transcriptvault/pkg/dates"
	"transcriptvault/pkg/domain"
)

// TranscriptModel is the GORM row for one transcript version. The unique
// (source_id, version) index is what rejects racing uploads; the check
// constraint mirrors the closed status enumeration at the database level.
type TranscriptModel struct {
	ID                    int64          `gorm:"primaryKey"`
	SourceID              string         `gorm:"not null;index;uniqueIndex:idx_transcripts_source_version,priority:1"`
	Version               int            `gorm:"not null;uniqueIndex:idx_transcripts_source_version,priority:2"`
	Title                 string         `gorm:"not null"`
	Date                  time.Time      `gorm:"type:timestamptz;not null;index"`
	Speakers              datatypes.JSON `gorm:"type:jsonb;not null"`
	Tags                  datatypes.JSON `gorm:"type:jsonb;not null"`
	Format                string         `gorm:"type:varchar(8);not null"`
	ProcessingStatus      string         `gorm:"type:varchar(16);not null;check:processing_status IN ('pending','processed','failed')"`
	ProcessingCompletedAt *time.Time     `gorm:"type:timestamptz"`
	UploadedAt            time.Time      `gorm:"type:timestamptz;not null"`
	BlobKey               string         `gorm:"not null"`
}

func (TranscriptModel) TableName() string {
	return "transcripts"
}

func toModel(m domain.Metadata) (TranscriptModel, error) {
	date, err := dates.ParseDatabase(m.Date)
	if err != nil {
		return TranscriptModel{}, fmt.Errorf("metadata date: %w", err)
	}
	uploadedAt, err := dates.ParseDatabase(m.UploadedAt)
	if err != nil {
		return TranscriptModel{}, fmt.Errorf("metadata uploadedAt: %w", err)
	}
	speakers, err := json.Marshal(m.Speakers)
	if err != nil {
		return TranscriptModel{}, fmt.Errorf("encode speakers: %w", err)
	}
	tags := m.Tags
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return TranscriptModel{}, fmt.Errorf("encode tags: %w", err)
	}
	row := TranscriptModel{
		SourceID:         m.SourceID,
		Version:          m.Version,
		Title:            m.Title,
		Date:             date.UTC(),
		Speakers:         datatypes.JSON(speakers),
		Tags:             datatypes.JSON(tagsJSON),
		Format:           string(m.Format),
		ProcessingStatus: string(m.ProcessingStatus),
		UploadedAt:       uploadedAt.UTC(),
		BlobKey:          m.BlobKey,
	}
	if m.ProcessingCompletedAt != nil {
		t, err := dates.ParseDatabase(*m.ProcessingCompletedAt)
		if err != nil {
			return TranscriptModel{}, fmt.Errorf("metadata processingCompletedAt: %w", err)
		}
		u := t.UTC()
		row.ProcessingCompletedAt = &u
	}
	return row, nil
}

func fromModel(row TranscriptModel) (domain.Metadata, error) {
	var speakers, tags []string
	if len(row.Speakers) > 0 {
		if err := json.Unmarshal(row.Speakers, &speakers); err != nil {
			return domain.Metadata{}, fmt.Errorf("decode speakers for %s v%d: %w", row.SourceID, row.Version, err)
		}
	}
	if len(row.Tags) > 0 {
		if err := json.Unmarshal(row.Tags, &tags); err != nil {
			return domain.Metadata{}, fmt.Errorf("decode tags for %s v%d: %w", row.SourceID, row.Version, err)
		}
	}
	if speakers == nil {
		speakers = []string{}
	}
	if tags == nil {
		tags = []string{}
	}
	m := domain.Metadata{
		SourceID:         row.SourceID,
		Version:          row.Version,
		Title:            row.Title,
		Date:             dates.FormatDatabase(row.Date),
		Speakers:         speakers,
		Tags:             tags,
		Format:           domain.Format(row.Format),
		ProcessingStatus: domain.ProcessingStatus(row.ProcessingStatus),
		UploadedAt:       dates.FormatDatabase(row.UploadedAt),
		BlobKey:          row.BlobKey,
	}
	if row.ProcessingCompletedAt != nil {
		s := dates.FormatDatabase(*row.ProcessingCompletedAt)
		m.ProcessingCompletedAt = &s
	}
	return m, nil
}
