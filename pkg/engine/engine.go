// Package engine implements the versioned transcript storage engine: it
// assigns monotonically increasing version numbers per lineage, keeps blob
// content and metadata rows linked, and serves point-in-time retrieval,
// latest-only listing and filtered search.
package engine

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"golang.org/x/sync/errgroup"

	"transcriptvault/pkg/dates"
	"transcriptvault/pkg/domain"
	"transcriptvault/pkg/paging"
	"transcriptvault/pkg/storage"
	"transcriptvault/pkg/store"
)

const keyTokenLength = 10

// OrphanReporter receives blob keys whose metadata row never materialized,
// so an external sweeper can reclaim them. Reporting is best-effort.
type OrphanReporter interface {
	ReportOrphan(ctx context.Context, key string) error
}

// Config wires the engine's backing stores.
type Config struct {
	Index     store.Index
	Blobs     storage.BlobStore
	KeyPrefix string
	Orphans   OrphanReporter
	Now       func() time.Time
}

// Engine orchestrates the metadata index and the blob store. It holds no
// cross-call state; concurrent operations on different lineages are fully
// independent.
type Engine struct {
	index   store.Index
	blobs   storage.BlobStore
	prefix  string
	orphans OrphanReporter
	now     func() time.Time
}

// New constructs the engine.
func New(cfg Config) (*Engine, error) {
	if cfg.Index == nil {
		return nil, errors.New("engine: metadata index required")
	}
	if cfg.Blobs == nil {
		return nil, errors.New("engine: blob store required")
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Engine{
		index:   cfg.Index,
		blobs:   cfg.Blobs,
		prefix:  strings.Trim(cfg.KeyPrefix, "/"),
		orphans: cfg.Orphans,
		now:     now,
	}, nil
}

// InitSchema idempotently ensures the metadata index schema exists.
func (e *Engine) InitSchema(ctx context.Context) error {
	if err := e.index.Migrate(ctx); err != nil {
		return unavailable("initSchema", "", 0, "metadata index unreachable", err)
	}
	return nil
}

// Upload stores a new version of a transcript: it assigns version
// maxVersion+1, writes the content blob, then inserts the metadata row.
// When the insert loses a race on the unique (sourceId, version) index the
// blob is left behind as reclaimable garbage (reported to the orphan
// sweeper) and a Conflict error is returned.
func (e *Engine) Upload(ctx context.Context, content string, meta domain.Metadata) (domain.UploadResult, error) {
	const op = "upload"
	res := domain.Validate(meta)
	if !res.Valid {
		return domain.UploadResult{}, validation(op, strings.Join(res.Errors, "; "))
	}
	norm := res.Normalized

	maxVersion, err := e.index.MaxVersion(ctx, norm.SourceID)
	if err != nil {
		return domain.UploadResult{}, unavailable(op, norm.SourceID, 0, "metadata index unreachable", err)
	}
	norm.Version = maxVersion + 1
	norm.BlobKey = e.buildBlobKey(norm.SourceID, norm.Version, norm.Format)

	put, err := e.blobs.Put(ctx, norm.BlobKey, []byte(content), contentTypeFor(norm.Format))
	if err != nil {
		return domain.UploadResult{}, unavailable(op, norm.SourceID, norm.Version, "blob store unreachable", err)
	}

	if err := e.index.Insert(ctx, norm); err != nil {
		e.reportOrphan(ctx, norm.BlobKey)
		if errors.Is(err, store.ErrDuplicateVersion) {
			return domain.UploadResult{}, conflict(op, norm.SourceID, norm.Version, err)
		}
		return domain.UploadResult{}, unavailable(op, norm.SourceID, norm.Version, "metadata insert failed", err)
	}

	return domain.UploadResult{Location: put.Location, StorageKey: norm.BlobKey, Metadata: norm}, nil
}

// Get retrieves one exact version with its content.
func (e *Engine) Get(ctx context.Context, sourceID string, version int) (domain.Transcript, error) {
	const op = "get"
	if version < 1 {
		return domain.Transcript{}, validation(op, fmt.Sprintf("version %d must be a positive integer", version))
	}
	meta, err := e.index.Get(ctx, sourceID, version)
	if err != nil {
		if errors.Is(err, store.ErrRowNotFound) {
			return domain.Transcript{}, notFound(op, sourceID, version, err)
		}
		return domain.Transcript{}, unavailable(op, sourceID, version, "metadata index unreachable", err)
	}
	data, err := e.blobs.Get(ctx, meta.BlobKey)
	if err != nil {
		// A row without its blob violates the 1:1 linkage; surface it
		// rather than reporting the version as absent.
		return domain.Transcript{}, unavailable(op, sourceID, version, "content blob unreadable", err)
	}
	return domain.Transcript{Content: string(data), Metadata: meta}, nil
}

// GetLatest retrieves the highest-versioned row of a lineage.
func (e *Engine) GetLatest(ctx context.Context, sourceID string) (domain.Transcript, error) {
	const op = "getLatest"
	maxVersion, err := e.index.MaxVersion(ctx, sourceID)
	if err != nil {
		return domain.Transcript{}, unavailable(op, sourceID, 0, "metadata index unreachable", err)
	}
	if maxVersion == 0 {
		return domain.Transcript{}, notFound(op, sourceID, 0, nil)
	}
	return e.Get(ctx, sourceID, maxVersion)
}

// ListVersions returns a lineage's history, newest-first. An unknown
// sourceId yields an empty slice, not an error.
func (e *Engine) ListVersions(ctx context.Context, sourceID string) ([]domain.VersionEntry, error) {
	const op = "listVersions"
	rows, err := e.index.ListVersions(ctx, sourceID)
	if err != nil {
		return nil, unavailable(op, sourceID, 0, "metadata index unreachable", err)
	}
	entries := make([]domain.VersionEntry, 0, len(rows))
	if len(rows) == 0 {
		return entries, nil
	}
	sizes := e.blobSizes(ctx, sourceID)
	for _, meta := range rows {
		entries = append(entries, domain.VersionEntry{
			Location:   e.blobs.Location(meta.BlobKey),
			StorageKey: meta.BlobKey,
			Metadata:   meta,
			UploadedAt: meta.UploadedAt,
			Size:       sizes[meta.BlobKey],
		})
	}
	return entries, nil
}

// List returns the latest version of each lineage, windowed by limit and
// offset (defaults 10 and 0). Total always counts all distinct lineages.
func (e *Engine) List(ctx context.Context, limit, offset *int) (domain.Page, error) {
	const op = "list"
	if err := paging.Validate(limit, offset); err != nil {
		return domain.Page{}, validation(op, err.Error())
	}
	from, to := paging.Bounds(paging.Normalize(limit, offset))
	items, total, err := e.index.ListLatest(ctx, nil, from, to)
	if err != nil {
		return domain.Page{}, unavailable(op, "", 0, "metadata index unreachable", err)
	}
	return domain.Page{Items: items, Total: total}, nil
}

// Search applies AND-combined filters over the latest version of each
// lineage. Empty results are a valid page, never an error.
func (e *Engine) Search(ctx context.Context, q domain.SearchQuery) (domain.Page, error) {
	const op = "search"
	if err := paging.Validate(q.Limit, q.Offset); err != nil {
		return domain.Page{}, validation(op, err.Error())
	}
	norm, err := normalizeSearchDates(q)
	if err != nil {
		return domain.Page{}, validation(op, err.Error())
	}
	if norm.Status != "" && !domain.ValidStatus(domain.ProcessingStatus(norm.Status)) {
		return domain.Page{}, validation(op, fmt.Sprintf("status %q is not one of %v", norm.Status, domain.Statuses()))
	}
	from, to := paging.Bounds(paging.Normalize(q.Limit, q.Offset))
	items, total, err := e.index.ListLatest(ctx, store.BuildFilters(norm), from, to)
	if err != nil {
		return domain.Page{}, unavailable(op, "", 0, "metadata index unreachable", err)
	}
	return domain.Page{Items: items, Total: total}, nil
}

// UpdateStatus transitions processingStatus on one exact version. The first
// transition to processed stamps processingCompletedAt; later transitions
// leave the stamp untouched.
func (e *Engine) UpdateStatus(ctx context.Context, sourceID string, version int, status domain.ProcessingStatus) (domain.Metadata, error) {
	const op = "updateStatus"
	if !domain.ValidStatus(status) {
		return domain.Metadata{}, validation(op, fmt.Sprintf("status %q is not one of %v", status, domain.Statuses()))
	}
	meta, err := e.index.Get(ctx, sourceID, version)
	if err != nil {
		if errors.Is(err, store.ErrRowNotFound) {
			return domain.Metadata{}, notFound(op, sourceID, version, err)
		}
		return domain.Metadata{}, unavailable(op, sourceID, version, "metadata index unreachable", err)
	}
	var completedAt *string
	if status == domain.StatusProcessed && meta.ProcessingCompletedAt == nil {
		stamp := dates.FormatDatabase(e.now())
		completedAt = &stamp
	}
	updated, err := e.index.UpdateStatus(ctx, sourceID, version, status, completedAt)
	if err != nil {
		if errors.Is(err, store.ErrRowNotFound) {
			return domain.Metadata{}, notFound(op, sourceID, version, err)
		}
		return domain.Metadata{}, unavailable(op, sourceID, version, "metadata update failed", err)
	}
	return updated, nil
}

// DeleteVersion removes one version's metadata row and blob. The row goes
// first so retrieval fails as soon as the deletion is committed; a blob
// that then fails to delete is surfaced but the row stays gone.
func (e *Engine) DeleteVersion(ctx context.Context, sourceID string, version int) error {
	const op = "deleteVersion"
	meta, err := e.index.Get(ctx, sourceID, version)
	if err != nil {
		if errors.Is(err, store.ErrRowNotFound) {
			return notFound(op, sourceID, version, err)
		}
		return unavailable(op, sourceID, version, "metadata index unreachable", err)
	}
	if err := e.index.Delete(ctx, sourceID, version); err != nil {
		if errors.Is(err, store.ErrRowNotFound) {
			return notFound(op, sourceID, version, err)
		}
		return unavailable(op, sourceID, version, "metadata delete failed", err)
	}
	if err := e.blobs.Delete(ctx, meta.BlobKey); err != nil {
		return unavailable(op, sourceID, version, "metadata deleted but blob delete failed, orphaned key "+meta.BlobKey, err)
	}
	return nil
}

// DeleteAll removes every version of a lineage. Deleting a lineage that
// does not exist is a no-op success.
func (e *Engine) DeleteAll(ctx context.Context, sourceID string) error {
	const op = "deleteAll"
	rows, err := e.index.ListVersions(ctx, sourceID)
	if err != nil {
		return unavailable(op, sourceID, 0, "metadata index unreachable", err)
	}
	if len(rows) == 0 {
		return nil
	}
	if err := e.index.DeleteAll(ctx, sourceID); err != nil {
		return unavailable(op, sourceID, 0, "metadata delete failed", err)
	}
	g, gctx := errgroup.WithContext(ctx)
	for _, meta := range rows {
		key := meta.BlobKey
		g.Go(func() error {
			return e.blobs.Delete(gctx, key)
		})
	}
	if err := g.Wait(); err != nil {
		return unavailable(op, sourceID, 0, "metadata deleted but one or more blob deletes failed", err)
	}
	return nil
}

// buildBlobKey derives a collision-free storage path for one version. The
// random token keeps keys unique even when concurrent uploads race onto
// the same (sourceId, version) pair.
func (e *Engine) buildBlobKey(sourceID string, version int, format domain.Format) string {
	token := gonanoid.MustGenerate("0123456789abcdefghijklmnopqrstuvwxyz", keyTokenLength)
	name := fmt.Sprintf("v%d-%s.%s", version, token, format)
	if e.prefix == "" {
		return path.Join(sourceID, name)
	}
	return path.Join(e.prefix, sourceID, name)
}

func (e *Engine) reportOrphan(ctx context.Context, key string) {
	if e.orphans == nil {
		return
	}
	// Best-effort: the orphan is reclaimable garbage either way.
	_ = e.orphans.ReportOrphan(ctx, key)
}

func (e *Engine) blobSizes(ctx context.Context, sourceID string) map[string]int64 {
	prefix := sourceID + "/"
	if e.prefix != "" {
		prefix = e.prefix + "/" + prefix
	}
	sizes := make(map[string]int64)
	infos, err := e.blobs.List(ctx, prefix)
	if err != nil {
		return sizes
	}
	for _, info := range infos {
		sizes[info.Key] = info.Size
	}
	return sizes
}

func normalizeSearchDates(q domain.SearchQuery) (domain.SearchQuery, error) {
	out := q
	var err error
	if q.DateFrom != "" {
		out.DateFrom, err = coerceDatabaseDate(q.DateFrom)
		if err != nil {
			return out, fmt.Errorf("dateFrom: %w", err)
		}
	}
	if q.DateTo != "" {
		out.DateTo, err = coerceDatabaseDate(q.DateTo)
		if err != nil {
			return out, fmt.Errorf("dateTo: %w", err)
		}
	}
	if out.DateFrom != "" && out.DateTo != "" {
		after, err := dates.IsAfter(out.DateFrom, out.DateTo)
		if err != nil {
			return out, err
		}
		if after {
			return out, fmt.Errorf("dateFrom %q must not be after dateTo %q", q.DateFrom, q.DateTo)
		}
	}
	return out, nil
}

func coerceDatabaseDate(s string) (string, error) {
	if dates.IsValidUser(s) {
		return dates.UserToDatabase(s)
	}
	if dates.IsValidDatabase(s) {
		return s, nil
	}
	return "", fmt.Errorf("%q is not a valid YYYY-MM-DD or RFC 3339 date", s)
}

func contentTypeFor(f domain.Format) string {
	switch f {
	case domain.FormatJSON:
		return "application/json"
	case domain.FormatSRT:
		return "application/x-subrip"
	case domain.FormatVTT:
		return "text/vtt"
	default:
		return "text/plain; charset=utf-8"
	}
}
