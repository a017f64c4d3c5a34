package services

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/markdave123-py/docvault/internal/core"
	"github.com/markdave123-py/docvault/internal/core/ingestion_engine"
	"github.com/markdave123-py/docvault/internal/models"
	"github.com/markdave123-py/docvault/internal/observability"
)

// ExtractionEngine turns a stored blob of a known kind into normalized text.
type ExtractionEngine interface {
	Extract(ctx context.Context, r io.Reader, kind core.Kind) (string, error)
}

// Retrieved is the result of a successful Retrieve.
type Retrieved struct {
	StorageName string `json:"filename"`
	Content     string `json:"content"`
}

// Summary is the result of a successful Summarize.
type Summary struct {
	StorageName string `json:"filename"`
	Summary     string `json:"summary"`
}

// DocumentService ingests uploads and serves their text back to the owner.
// It holds no mutable state of its own; concurrent calls only meet in the
// metadata and blob stores.
type DocumentService struct {
	meta       core.MetadataStore
	blobs      core.BlobStore
	engine     ExtractionEngine
	summarizer core.Summarizer
	metrics    *observability.FileMetrics
	log        *slog.Logger
}

type Option func(*DocumentService)

func WithSummarizer(s core.Summarizer) Option {
	return func(ds *DocumentService) { ds.summarizer = s }
}

func WithMetrics(m *observability.FileMetrics) Option {
	return func(ds *DocumentService) { ds.metrics = m }
}

func WithLogger(l *slog.Logger) Option {
	return func(ds *DocumentService) { ds.log = l }
}

func NewDocumentService(meta core.MetadataStore, blobs core.BlobStore, engine ExtractionEngine, opts ...Option) *DocumentService {
	ds := &DocumentService{meta: meta, blobs: blobs, engine: engine, log: slog.Default()}
	for _, opt := range opts {
		opt(ds)
	}
	return ds
}

// Ingest validates, stores and records one upload, in that order. Nothing is
// written for a rejected format, and no record is created unless the blob
// write completed. A failed record insert leaves the blob orphaned and is
// reported as ErrMetadataFailure.
func (s *DocumentService) Ingest(ctx context.Context, ownerID, declaredType string, body io.Reader, originalName string) (f *models.StoredFile, err error) {
	defer func() { s.metrics.RecordIngest(core.Category(err)) }()

	br := bufio.NewReaderSize(body, ingestion_engine.SniffLen)
	head, err := br.Peek(ingestion_engine.SniffLen)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: read upload: %w", core.ErrStorageFailure, err)
	}

	kind, err := ingestion_engine.Validate(declaredType, head)
	if err != nil {
		return nil, err
	}

	name := ingestion_engine.StorageName(originalName, ownerID, kind)
	if err := s.blobs.Put(ctx, name, br, kind.MediaType()); err != nil {
		s.log.ErrorContext(ctx, "blob write failed", "storage_name", name, "owner_id", ownerID, "error", err)
		return nil, fmt.Errorf("%w: write %s: %w", core.ErrStorageFailure, name, err)
	}

	rec := &models.StoredFile{
		OwnerID:      ownerID,
		StorageName:  name,
		OriginalName: originalName,
		ContentType:  kind.MediaType(),
	}
	if err := s.meta.InsertFile(ctx, rec); err != nil {
		s.log.ErrorContext(ctx, "metadata insert failed, blob is orphaned",
			"storage_name", name, "owner_id", ownerID, "error", err)
		return nil, fmt.Errorf("%w: record %s: %w", core.ErrMetadataFailure, name, err)
	}

	s.log.InfoContext(ctx, "file ingested", "file_id", rec.ID, "storage_name", name, "owner_id", ownerID, "kind", kind.String())
	return rec, nil
}

// Retrieve returns the normalized text of fileID if requesterID owns it.
// Absent records, foreign records and records whose blob is gone all yield
// the same ErrNotFound.
func (s *DocumentService) Retrieve(ctx context.Context, requesterID, fileID string) (out *Retrieved, err error) {
	defer func() { s.metrics.RecordRetrieve(core.Category(err)) }()

	if !s.meta.ValidID(fileID) {
		return nil, fmt.Errorf("%w: %q", core.ErrInvalidIdentifier, fileID)
	}

	rec, err := s.meta.GetFileByID(ctx, fileID)
	if err != nil {
		return nil, fmt.Errorf("%w: lookup %s: %w", core.ErrStorageFailure, fileID, err)
	}
	if rec == nil || rec.OwnerID != requesterID {
		return nil, fileNotFound(fileID)
	}

	ok, err := s.blobs.Exists(ctx, rec.StorageName)
	if err != nil {
		return nil, fmt.Errorf("%w: stat %s: %w", core.ErrStorageFailure, rec.StorageName, err)
	}
	if !ok {
		s.log.WarnContext(ctx, "record has no blob", "file_id", fileID, "storage_name", rec.StorageName)
		return nil, fileNotFound(fileID)
	}

	kind := core.KindFromStorageName(rec.StorageName)
	if kind == core.KindUnknown {
		return nil, fmt.Errorf("%w: %s", core.ErrUnsupportedFormat, rec.StorageName)
	}

	rc, err := s.blobs.Open(ctx, rec.StorageName)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, fileNotFound(fileID)
		}
		return nil, fmt.Errorf("%w: open %s: %w", core.ErrStorageFailure, rec.StorageName, err)
	}
	defer rc.Close()

	start := time.Now()
	text, err := s.engine.Extract(ctx, rc, kind)
	s.metrics.ObserveExtraction(kind.String(), time.Since(start))
	if err != nil {
		s.log.ErrorContext(ctx, "extraction failed", "file_id", fileID, "storage_name", rec.StorageName, "error", err)
		return nil, err
	}

	return &Retrieved{StorageName: rec.StorageName, Content: text}, nil
}

// List returns every record owned by ownerID. Order is whatever the store
// yields.
func (s *DocumentService) List(ctx context.Context, ownerID string) ([]models.StoredFile, error) {
	files, err := s.meta.ListFilesByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("%w: list %s: %w", core.ErrStorageFailure, ownerID, err)
	}

	out := make([]models.StoredFile, 0, len(files))
	for _, f := range files {
		if f.OwnerID == ownerID {
			out = append(out, f)
		}
	}
	return out, nil
}

// Summarize retrieves fileID under the usual ownership rules and condenses it.
func (s *DocumentService) Summarize(ctx context.Context, requesterID, fileID string) (*Summary, error) {
	if s.summarizer == nil {
		return nil, fmt.Errorf("%w: no summarizer configured", core.ErrSummaryFailure)
	}

	doc, err := s.Retrieve(ctx, requesterID, fileID)
	if err != nil {
		return nil, err
	}

	sum, err := s.summarizer.Summarize(ctx, doc.Content)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrSummaryFailure, err)
	}
	return &Summary{StorageName: doc.StorageName, Summary: sum}, nil
}

func fileNotFound(fileID string) error {
	return fmt.Errorf("file %s: %w", fileID, core.ErrNotFound)
}
