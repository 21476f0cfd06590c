package database

import (
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solicitudes/internal/model"
)

func TestNewConnectionClearsStaleLocks(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("Requires test database setup (set TEST_DATABASE_URL)")
	}

	db, err := NewConnection(dsn)
	require.NoError(t, err)

	// Simulate a request orphaned mid-transition by a crashed process.
	req := model.Request{
		Kind:           model.RequestKindProject,
		Year:           2026,
		Description:    "stale lock fixture",
		Category:       model.CategoryMaintenance,
		CampusCode:     "C01",
		AreaCode:       "A01",
		CostCenterCode: "CC-001",
		OwnerUserID:    uuid.New(),
		ApprovalState:  model.StateDraft,
		Locked:         true,
	}
	require.NoError(t, db.Create(&req).Error)
	defer db.Delete(&req)

	_, err = NewConnection(dsn)
	require.NoError(t, err)

	var got model.Request
	require.NoError(t, db.First(&got, "id = ?", req.ID).Error)
	assert.False(t, got.Locked)
}
