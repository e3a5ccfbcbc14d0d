// Package dbtest opens throwaway in-memory sqlite databases for repository and service tests.
package dbtest

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/handcar/handcar-backend/pkg/db"
	"github.com/handcar/handcar-backend/pkg/db/models"
)

// Open returns a migrated database private to the test. With no models given every
// persisted model is migrated.
func Open(t *testing.T, tables ...any) *gorm.DB {
	t.Helper()
	dsn := "file:handcar_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), db.GormConfig())
	require.NoError(t, err)

	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if len(tables) == 0 {
		tables = models.All()
	}
	require.NoError(t, conn.AutoMigrate(tables...))
	return conn
}

// Client wraps Open in a db.Client for services that need WithTx.
func Client(t *testing.T, tables ...any) *db.Client {
	t.Helper()
	return db.NewFromConn(Open(t, tables...))
}
