package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/quarrylabs/quarry/internal/core/domain"
)

type fakeIngest struct {
	report domain.IngestReport
	err    error
	paths  []string
}

func (f *fakeIngest) IngestFiles(_ context.Context, paths []string) (domain.IngestReport, error) {
	f.paths = paths
	return f.report, f.err
}

func (f *fakeIngest) IngestDocument(_ context.Context, name string, r io.Reader) domain.IngestResult {
	io.Copy(io.Discard, r)
	return domain.IngestResult{File: name, Status: domain.IngestStatusIngested}
}

type fakeQuery struct {
	answer domain.Answer
	err    error
}

func (f *fakeQuery) Answer(_ context.Context, query string) (domain.Answer, error) {
	if f.err != nil {
		return domain.Answer{}, f.err
	}
	answer := f.answer
	answer.Query = query
	return answer, nil
}

type fakeLedger struct {
	records []domain.DocumentRecord
	listErr error
}

func (f *fakeLedger) Record(_ context.Context, rec domain.DocumentRecord) error {
	f.records = append(f.records, rec)
	return nil
}

func (f *fakeLedger) List(_ context.Context, limit int) ([]domain.DocumentRecord, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	if limit > 0 && limit < len(f.records) {
		return f.records[:limit], nil
	}
	return f.records, nil
}

func (f *fakeLedger) Close() error { return nil }

type fakeIndex struct {
	count int
}

func (f *fakeIndex) Add(_ [][]float32, _ []domain.Chunk) error { return nil }

func (f *fakeIndex) Search(_ []float32, _ int) ([]domain.Chunk, error) {
	return nil, fmt.Errorf("not implemented")
}

func (f *fakeIndex) Count() int { return f.count }

func (f *fakeIndex) Close() error { return nil }

// execute runs the root command with args against injected fakes and
// returns the combined output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		SetServices(nil, nil, nil, nil)
	})

	err := rootCmd.Execute()
	return buf.String(), err
}
