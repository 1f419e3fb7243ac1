package audit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/tundeafolabi/indicert-backend/pkg/db/models"
)

func setupAuditTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS audit_logs (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  application_id INTEGER,
  certificate_id INTEGER,
  action TEXT NOT NULL,
  entity_type TEXT NOT NULL,
  description TEXT,
  user_id INTEGER,
  user_role TEXT,
  ip_address TEXT,
  created_at DATETIME
);`
	require.NoError(t, db.Exec(schema).Error)

	return db
}

func TestRepositoryCreateAndList(t *testing.T) {
	db := setupAuditTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	appID := int64(5)
	for i := 0; i < 3; i++ {
		_, err := repo.Create(ctx, &models.AuditLog{
			ApplicationID: &appID,
			Action:        ActionApplicationApproved,
			EntityType:    EntityApplication,
		})
		require.NoError(t, err)
	}
	otherID := int64(6)
	_, err := repo.Create(ctx, &models.AuditLog{
		ApplicationID: &otherID,
		Action:        ActionApplicationRejected,
		EntityType:    EntityApplication,
	})
	require.NoError(t, err)

	rows, err := repo.ListByApplication(ctx, appID, 10)
	require.NoError(t, err)
	assert.Len(t, rows, 3)
	for _, row := range rows {
		assert.Equal(t, ActionApplicationApproved, row.Action)
	}

	rows, err = repo.ListByAction(ctx, ActionApplicationRejected, 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, otherID, *rows[0].ApplicationID)
}

func TestRepositoryListHonorsLimit(t *testing.T) {
	db := setupAuditTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	appID := int64(9)
	for i := 0; i < 5; i++ {
		_, err := repo.Create(ctx, &models.AuditLog{
			ApplicationID: &appID,
			Action:        ActionCertificateGenerated,
			EntityType:    EntityCertificate,
		})
		require.NoError(t, err)
	}

	rows, err := repo.ListByApplication(ctx, appID, 2)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}
