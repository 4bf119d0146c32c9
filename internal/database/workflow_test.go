package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"procurement-portal/internal/models"
	"procurement-portal/internal/rfpflow"
)

func TestSnapshotRecordEncoding(t *testing.T) {
	snap := rfpflow.Snapshot{
		State:    rfpflow.StateReviewing,
		Form:     rfpflow.Form{Title: "Laptops", TechnicalRequirements: []string{"16GB RAM"}},
		Draft:    &models.RFP{ID: "rfp-7", Status: models.RFPDraft, LongDescription: "# Laptops"},
		DraftIDs: []string{"rfp-7"},
	}

	rec, err := encodeSnapshot("wf-key", snap)
	require.NoError(t, err)
	assert.Equal(t, "wf-key", rec.Key)
	assert.Equal(t, "reviewing", rec.State)
	assert.Equal(t, "rfp-7", rec.DraftID)

	got, err := decodeSnapshot(rec)
	require.NoError(t, err)
	assert.Equal(t, snap.State, got.State)
	assert.Equal(t, snap.Form, got.Form)
	assert.Equal(t, "rfp-7", got.Draft.ID)
	assert.Equal(t, snap.DraftIDs, got.DraftIDs)
}

func TestDecodeSnapshot_CorruptPayload(t *testing.T) {
	_, err := decodeSnapshot(models.WorkflowRecord{Key: "k", Payload: "{"})
	assert.Error(t, err)
}

func TestDecodeSnapshot_PendingPlaceholderIsNoWorkflow(t *testing.T) {
	_, err := decodeSnapshot(models.WorkflowRecord{Key: "k"})
	assert.ErrorIs(t, err, rfpflow.ErrNoWorkflow)
}

func TestAuditLogWithoutDatabase(t *testing.T) {
	saved := DB
	DB = nil
	t.Cleanup(func() { DB = saved })

	CreateAuditLog(&models.User{ID: "u-1"}, EntitySession, "", "login", "")
	logs, err := ListAuditLogs(AuditFilter{}, 50)
	require.NoError(t, err)
	assert.Empty(t, logs)
}
