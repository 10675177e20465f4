package services

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quarrylabs/quarry/internal/adapters/driven/cache/memory"
	"github.com/quarrylabs/quarry/internal/core/chunker"
	"github.com/quarrylabs/quarry/internal/core/domain"
)

// recordingLedger implements driven.DocumentLedger in memory.
type recordingLedger struct {
	mu      sync.Mutex
	records []domain.DocumentRecord
}

func (l *recordingLedger) Record(_ context.Context, rec domain.DocumentRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, rec)
	return nil
}

func (l *recordingLedger) List(_ context.Context, _ int) ([]domain.DocumentRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]domain.DocumentRecord(nil), l.records...), nil
}

func (l *recordingLedger) Close() error { return nil }

func newTestIngest(idx *fakeIndex, ledger *recordingLedger) *IngestService {
	gateway := NewEmbeddingGateway(newFakeEmbedder(4), memory.New())
	if ledger == nil {
		return NewIngestService(&fakeExtractor{}, chunker.New(5, 1), gateway, idx, nil)
	}
	return NewIngestService(&fakeExtractor{}, chunker.New(5, 1), gateway, idx, ledger)
}

func TestIngestDocument(t *testing.T) {
	ctx := context.Background()

	t.Run("unsupported extension is skipped", func(t *testing.T) {
		ledger := &recordingLedger{}
		svc := newTestIngest(&fakeIndex{}, ledger)

		result := svc.IngestDocument(ctx, "notes.txt", strings.NewReader("hello"))
		assert.Equal(t, domain.IngestStatusSkipped, result.Status)
		assert.Equal(t, "not a pdf", result.Reason)
		require.Len(t, ledger.records, 1)
		assert.Equal(t, domain.IngestStatusSkipped, ledger.records[0].Status)
	})

	t.Run("empty document fails with reason", func(t *testing.T) {
		svc := newTestIngest(&fakeIndex{}, &recordingLedger{})
		result := svc.IngestDocument(ctx, "blank.pdf", strings.NewReader("   \n "))
		assert.Equal(t, domain.IngestStatusFailed, result.Status)
		assert.Equal(t, "empty pdf", result.Reason)
	})

	t.Run("document is chunked and indexed", func(t *testing.T) {
		idx := &fakeIndex{}
		svc := newTestIngest(idx, &recordingLedger{})

		text := "one two three four five six seven eight nine ten eleven twelve"
		result := svc.IngestDocument(ctx, "doc.pdf", strings.NewReader(text))

		require.Equal(t, domain.IngestStatusIngested, result.Status)
		assert.Equal(t, 3, result.NumChunks) // 12 words, window 5, overlap 1
		require.Len(t, idx.added, 1)
		assert.Len(t, idx.added[0], 3)
		assert.Equal(t, "doc.pdf", idx.added[0][0].SourceFile)
	})

	t.Run("index failure fails the document only", func(t *testing.T) {
		idx := &fakeIndex{addErr: domain.ErrIndexIO}
		svc := newTestIngest(idx, &recordingLedger{})
		result := svc.IngestDocument(ctx, "doc.pdf", strings.NewReader("some words here"))
		assert.Equal(t, domain.IngestStatusFailed, result.Status)
		assert.Contains(t, result.Reason, "index storage failure")
	})
}

func TestIngestFiles(t *testing.T) {
	ctx := context.Background()

	t.Run("failures are isolated per document", func(t *testing.T) {
		dir := t.TempDir()
		good := filepath.Join(dir, "good.pdf")
		require.NoError(t, os.WriteFile(good, []byte("plenty of words to chunk and index"), 0600))
		skippable := filepath.Join(dir, "readme.md")
		require.NoError(t, os.WriteFile(skippable, []byte("markdown"), 0600))
		missing := filepath.Join(dir, "gone.pdf")

		ledger := &recordingLedger{}
		svc := newTestIngest(&fakeIndex{}, ledger)

		report, err := svc.IngestFiles(ctx, []string{good, skippable, missing})
		require.NoError(t, err)
		assert.Equal(t, 3, report.TotalFiles)
		require.Len(t, report.Results, 3)

		assert.Equal(t, domain.IngestStatusIngested, report.Results[0].Status)
		assert.Equal(t, domain.IngestStatusSkipped, report.Results[1].Status)
		assert.Equal(t, domain.IngestStatusFailed, report.Results[2].Status)

		// Every outcome lands in the ledger.
		assert.Len(t, ledger.records, 3)
	})
}
