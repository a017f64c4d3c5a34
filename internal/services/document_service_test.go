package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/markdave123-py/docvault/internal/core"
	"github.com/markdave123-py/docvault/internal/core/ingestion_engine"
	objectclient "github.com/markdave123-py/docvault/internal/core/object-client"
	"github.com/markdave123-py/docvault/internal/models"
	"github.com/markdave123-py/docvault/internal/observability"
	"github.com/markdave123-py/docvault/internal/testutil/pdffixture"
)

type fixture struct {
	svc   *DocumentService
	meta  *memMeta
	blobs *memBlobs
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	meta, blobs := newMemMeta(), newMemBlobs()
	svc := NewDocumentService(meta, blobs, ingestion_engine.NewEngine(t.TempDir()), opts...)
	return &fixture{svc: svc, meta: meta, blobs: blobs}
}

func (f *fixture) ingest(t *testing.T, owner, declared string, body []byte, name string) *models.StoredFile {
	t.Helper()
	rec, err := f.svc.Ingest(context.Background(), owner, declared, bytes.NewReader(body), name)
	require.NoError(t, err)
	return rec
}

func TestIngestThenRetrieveText(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rec := f.ingest(t, "u1", "text/plain", []byte("Hello, this is a text file."), "notes.txt")
	assert.Equal(t, "u1", rec.OwnerID)
	assert.Equal(t, "notes.txt", rec.OriginalName)
	assert.Equal(t, core.MediaTypeText, rec.ContentType)
	assert.True(t, strings.HasPrefix(rec.StorageName, "notes-u1-"))
	assert.True(t, strings.HasSuffix(rec.StorageName, ".txt"))
	assert.NotEmpty(t, rec.ID)

	got, err := f.svc.Retrieve(ctx, "u1", rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.StorageName, got.StorageName)
	assert.Equal(t, "Hello, this is a text file.", got.Content)
}

func TestRetrieveFlattensLines(t *testing.T) {
	f := newFixture(t)
	rec := f.ingest(t, "u1", "text/plain; charset=utf-8", []byte("line one\nline two\n"), "a.txt")

	got, err := f.svc.Retrieve(context.Background(), "u1", rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "line one line two ", got.Content)
}

func TestIngestThenRetrievePDF(t *testing.T) {
	f := newFixture(t)
	rec := f.ingest(t, "u1", "application/pdf", pdffixture.Build("Hello", "World"), "report.pdf")
	assert.True(t, strings.HasSuffix(rec.StorageName, ".pdf"))
	assert.Equal(t, core.MediaTypePDF, rec.ContentType)

	got, err := f.svc.Retrieve(context.Background(), "u1", rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hello World", got.Content)
}

func TestIngestOnFilesystemBlobs(t *testing.T) {
	blobs, err := objectclient.NewFSClient(t.TempDir())
	require.NoError(t, err)
	svc := NewDocumentService(newMemMeta(), blobs, ingestion_engine.NewEngine(t.TempDir()))
	ctx := context.Background()

	rec, err := svc.Ingest(ctx, "u1", "application/pdf", bytes.NewReader(pdffixture.Build("Hello", "World")), "r.pdf")
	require.NoError(t, err)

	got, err := svc.Retrieve(ctx, "u1", rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hello World", got.Content)
}

func TestRetrieveByNonOwnerLooksMissing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rec := f.ingest(t, "u1", "text/plain", []byte("secret"), "s.txt")

	_, foreign := f.svc.Retrieve(ctx, "u2", rec.ID)
	missingID := uuid.NewString()
	_, missing := f.svc.Retrieve(ctx, "u2", missingID)

	require.ErrorIs(t, foreign, core.ErrNotFound)
	require.ErrorIs(t, missing, core.ErrNotFound)
	assert.Equal(t,
		strings.Replace(foreign.Error(), rec.ID, "ID", 1),
		strings.Replace(missing.Error(), missingID, "ID", 1))
	assert.NotContains(t, foreign.Error(), "u1")
}

func TestIngestUnsupportedTypeWritesNothing(t *testing.T) {
	cases := []struct {
		name     string
		declared string
		body     []byte
	}{
		{"image", "image/png", []byte("\x89PNG\r\n\x1a\n")},
		{"pdf declared text body", "application/pdf", []byte("just words")},
		{"text declared pdf body", "text/plain", pdffixture.Build("x")},
		{"empty declared", "", []byte("hi")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.svc.Ingest(context.Background(), "u1", tc.declared, bytes.NewReader(tc.body), "x")
			require.ErrorIs(t, err, core.ErrUnsupportedFormat)
			assert.Zero(t, f.blobs.callCount())
			assert.Zero(t, f.meta.fileCount())
		})
	}
}

func TestIngestMetadataFailureOrphansBlob(t *testing.T) {
	f := newFixture(t)
	f.meta.failInsert = true

	_, err := f.svc.Ingest(context.Background(), "u1", "text/plain", strings.NewReader("hi"), "a.txt")
	require.ErrorIs(t, err, core.ErrMetadataFailure)
	assert.Len(t, f.blobs.names(), 1)
	assert.Zero(t, f.meta.fileCount())
}

func TestIngestStorageFailureWritesNoRecord(t *testing.T) {
	f := newFixture(t)
	f.blobs.failPut = true

	_, err := f.svc.Ingest(context.Background(), "u1", "text/plain", strings.NewReader("hi"), "a.txt")
	require.ErrorIs(t, err, core.ErrStorageFailure)
	assert.Zero(t, f.meta.fileCount())
}

func TestIngestEmptyText(t *testing.T) {
	f := newFixture(t)
	rec := f.ingest(t, "u1", "text/plain", nil, "empty.txt")

	got, err := f.svc.Retrieve(context.Background(), "u1", rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "", got.Content)
}

func TestIngestSameNameTwiceYieldsDistinctNames(t *testing.T) {
	f := newFixture(t)
	a := f.ingest(t, "u1", "text/plain", []byte("a"), "same.txt")
	b := f.ingest(t, "u1", "text/plain", []byte("b"), "same.txt")
	assert.NotEqual(t, a.StorageName, b.StorageName)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestConcurrentIngestsAreIsolated(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owners := []string{"alice", "bob", "carol"}
	const perOwner = 20

	var g errgroup.Group
	for _, owner := range owners {
		for i := 0; i < perOwner; i++ {
			g.Go(func() error {
				_, err := f.svc.Ingest(ctx, owner, "text/plain",
					strings.NewReader(fmt.Sprintf("%s-%d", owner, i)), "doc.txt")
				return err
			})
		}
	}
	require.NoError(t, g.Wait())

	seen := map[string]bool{}
	for _, owner := range owners {
		files, err := f.svc.List(ctx, owner)
		require.NoError(t, err)
		require.Len(t, files, perOwner)
		for _, file := range files {
			assert.Equal(t, owner, file.OwnerID)
			assert.False(t, seen[file.StorageName], "duplicate storage name %s", file.StorageName)
			seen[file.StorageName] = true
		}
	}
	assert.Len(t, f.blobs.names(), len(owners)*perOwner)
}

func TestListEmptyIsNotNil(t *testing.T) {
	f := newFixture(t)
	files, err := f.svc.List(context.Background(), "nobody")
	require.NoError(t, err)
	assert.NotNil(t, files)
	assert.Empty(t, files)
}

func TestRetrieveRecordWithoutBlob(t *testing.T) {
	f := newFixture(t)
	rec := f.ingest(t, "u1", "text/plain", []byte("gone soon"), "a.txt")
	f.blobs.delete(rec.StorageName)

	_, err := f.svc.Retrieve(context.Background(), "u1", rec.ID)
	require.ErrorIs(t, err, core.ErrNotFound)
}

func TestRetrieveInvalidIDTouchesNoStore(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Retrieve(context.Background(), "u1", "not-an-id")
	require.ErrorIs(t, err, core.ErrInvalidIdentifier)
	assert.Zero(t, f.meta.lookupCount())
	assert.Zero(t, f.blobs.callCount())
}

func TestRetrieveLookupFailure(t *testing.T) {
	f := newFixture(t)
	f.meta.failLookup = true
	_, err := f.svc.Retrieve(context.Background(), "u1", uuid.NewString())
	require.ErrorIs(t, err, core.ErrStorageFailure)
	require.ErrorIs(t, err, errInjected)
	assert.NotErrorIs(t, err, core.ErrMetadataFailure)
}

func TestListLookupFailure(t *testing.T) {
	f := newFixture(t)
	f.meta.failList = true
	_, err := f.svc.List(context.Background(), "u1")
	require.ErrorIs(t, err, core.ErrStorageFailure)
	assert.NotErrorIs(t, err, core.ErrMetadataFailure)
}

func TestRetrieveUnknownExtension(t *testing.T) {
	f := newFixture(t)
	rec := &models.StoredFile{OwnerID: "u1", StorageName: "legacy-u1-1-deadbeef.docx"}
	require.NoError(t, f.meta.InsertFile(context.Background(), rec))
	require.NoError(t, f.blobs.Put(context.Background(), rec.StorageName, strings.NewReader("x"), ""))

	_, err := f.svc.Retrieve(context.Background(), "u1", rec.ID)
	require.ErrorIs(t, err, core.ErrUnsupportedFormat)
}

func TestRetrieveCorruptPDF(t *testing.T) {
	f := newFixture(t)
	pdf := pdffixture.Build("Hello")
	rec := &models.StoredFile{OwnerID: "u1", StorageName: "broken-u1-1-deadbeef.pdf"}
	require.NoError(t, f.meta.InsertFile(context.Background(), rec))
	require.NoError(t, f.blobs.Put(context.Background(), rec.StorageName, bytes.NewReader(pdf[:len(pdf)/3]), ""))

	_, err := f.svc.Retrieve(context.Background(), "u1", rec.ID)
	require.ErrorIs(t, err, core.ErrExtractionFailure)
}

func TestSummarize(t *testing.T) {
	sum := &stubSummarizer{out: "short"}
	f := newFixture(t, WithSummarizer(sum))
	rec := f.ingest(t, "u1", "text/plain", []byte("a\nb"), "a.txt")

	got, err := f.svc.Summarize(context.Background(), "u1", rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "short", got.Summary)
	assert.Equal(t, rec.StorageName, got.StorageName)
	assert.Equal(t, "a b", sum.got)

	_, err = f.svc.Summarize(context.Background(), "u2", rec.ID)
	require.ErrorIs(t, err, core.ErrNotFound)
}

func TestSummarizeFailures(t *testing.T) {
	f := newFixture(t)
	rec := f.ingest(t, "u1", "text/plain", []byte("a"), "a.txt")
	_, err := f.svc.Summarize(context.Background(), "u1", rec.ID)
	require.ErrorIs(t, err, core.ErrSummaryFailure)

	f = newFixture(t, WithSummarizer(&stubSummarizer{err: errInjected}))
	rec = f.ingest(t, "u1", "text/plain", []byte("a"), "a.txt")
	_, err = f.svc.Summarize(context.Background(), "u1", rec.ID)
	require.ErrorIs(t, err, core.ErrSummaryFailure)
	require.ErrorIs(t, err, errInjected)
}

func TestMetricsRecordOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := observability.NewFileMetricsWithRegisterer(reg)
	f := newFixture(t, WithMetrics(m))
	ctx := context.Background()

	rec := f.ingest(t, "u1", "text/plain", []byte("hi"), "a.txt")
	_, _ = f.svc.Ingest(ctx, "u1", "image/png", strings.NewReader("x"), "a.png")
	_, _ = f.svc.Retrieve(ctx, "u1", rec.ID)
	_, _ = f.svc.Retrieve(ctx, "u2", rec.ID)

	assert.Equal(t, 4, testutil.CollectAndCount(reg,
		"docvault_files_ingest_total", "docvault_files_retrieve_total"))
	assert.Equal(t, 1, testutil.CollectAndCount(reg, "docvault_files_extraction_seconds"))
}

func TestConcurrentRetrieveSameFile(t *testing.T) {
	f := newFixture(t)
	rec := f.ingest(t, "u1", "application/pdf", pdffixture.Build("Hello", "World"), "r.pdf")

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := f.svc.Retrieve(context.Background(), "u1", rec.ID)
			if err == nil && got.Content != "Hello World" {
				err = fmt.Errorf("unexpected content %q", got.Content)
			}
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}
}
