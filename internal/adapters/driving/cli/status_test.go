package cli

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quarrylabs/quarry/internal/core/domain"
)

func TestStatusCmd(t *testing.T) {
	ledger := &fakeLedger{records: []domain.DocumentRecord{
		{
			ID:        "a",
			File:      "report.pdf",
			Status:    domain.IngestStatusIngested,
			NumChunks: 7,
			CreatedAt: time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC),
		},
		{
			ID:        "b",
			File:      "notes.txt",
			Status:    domain.IngestStatusSkipped,
			Reason:    "not a pdf",
			CreatedAt: time.Date(2026, 3, 1, 9, 31, 0, 0, time.UTC),
		},
	}}
	SetServices(&fakeIngest{}, &fakeQuery{}, ledger, &fakeIndex{count: 42})

	out, err := execute(t, "status")
	require.NoError(t, err)

	assert.Contains(t, out, "Indexed chunks: 42")
	assert.Contains(t, out, "report.pdf (7 chunks)")
	assert.Contains(t, out, "notes.txt (not a pdf)")
}

func TestStatusCmd_EmptyLedger(t *testing.T) {
	SetServices(&fakeIngest{}, &fakeQuery{}, &fakeLedger{}, &fakeIndex{})

	out, err := execute(t, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "No documents ingested yet.")
}
