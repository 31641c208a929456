package domain

// Format identifies the encoding of an uploaded transcript body.
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
	FormatSRT  Format = "srt"
	FormatVTT  Format = "vtt"
)

// ProcessingStatus tracks the downstream processing state of a version.
type ProcessingStatus string

const (
	StatusPending   ProcessingStatus = "pending"
	StatusProcessed ProcessingStatus = "processed"
	StatusFailed    ProcessingStatus = "failed"
)

// Formats lists all accepted transcript formats.
func Formats() []Format {
	return []Format{FormatJSON, FormatText, FormatSRT, FormatVTT}
}

// Statuses lists all accepted processing statuses.
func Statuses() []ProcessingStatus {
	return []ProcessingStatus{StatusPending, StatusProcessed, StatusFailed}
}

// Metadata describes one stored version of a transcript lineage.
// Date, UploadedAt and ProcessingCompletedAt carry the canonical database
// date form (RFC 3339 with explicit offset, see pkg/dates).
type Metadata struct {
	SourceID              string           `json:"sourceId"`
	Version               int              `json:"version"`
	Title                 string           `json:"title"`
	Date                  string           `json:"date"`
	Speakers              []string         `json:"speakers"`
	Tags                  []string         `json:"tags"`
	Format                Format           `json:"format"`
	ProcessingStatus      ProcessingStatus `json:"processingStatus"`
	ProcessingCompletedAt *string          `json:"processingCompletedAt,omitempty"`
	UploadedAt            string           `json:"uploadedAt"`
	BlobKey               string           `json:"-"`
}

// Clone returns a deep copy so callers can normalize without mutating input.
func (m Metadata) Clone() Metadata {
	out := m
	if m.Speakers != nil {
		out.Speakers = append([]string(nil), m.Speakers...)
	}
	if m.Tags != nil {
		out.Tags = append([]string(nil), m.Tags...)
	}
	if m.ProcessingCompletedAt != nil {
		v := *m.ProcessingCompletedAt
		out.ProcessingCompletedAt = &v
	}
	return out
}

// Transcript pairs a version's content with its metadata.
type Transcript struct {
	Content  string   `json:"content"`
	Metadata Metadata `json:"metadata"`
}

// UploadResult reports where an uploaded version was stored.
type UploadResult struct {
	Location   string   `json:"location"`
	StorageKey string   `json:"storageKey"`
	Metadata   Metadata `json:"metadata"`
}

// VersionEntry is one row of a lineage's version history.
type VersionEntry struct {
	Location   string   `json:"location"`
	StorageKey string   `json:"storageKey"`
	Metadata   Metadata `json:"metadata"`
	UploadedAt string   `json:"uploadedAt"`
	Size       int64    `json:"size"`
}

// Page is a window over the latest version of each lineage. Total counts
// distinct lineages regardless of the window.
type Page struct {
	Items []Metadata `json:"items"`
	Total int64      `json:"total"`
}

// SearchQuery filters listing by metadata fields. Zero-valued fields are
// absent; all present criteria combine with AND. Limit and Offset are nil
// when the caller wants the defaults.
type SearchQuery struct {
	Title    string
	Speaker  string
	Tag      string
	DateFrom string
	DateTo   string
	Status   string
	Limit    *int
	Offset   *int
}
