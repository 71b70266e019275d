package testutil

import (
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/scrimspace/scrim-server/db"
)

// DB opens a throwaway sqlite database with the full schema, including the
// unique indexes the services rely on.
func DB(t *testing.T) *gorm.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "scrim.db")
	g, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.Migrate(g); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return g
}
