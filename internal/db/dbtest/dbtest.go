// Package dbtest opens migrated in-memory sqlite databases for repository tests.
package dbtest

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"gorm.io/gorm"

	"sharespend/internal/config"
	"sharespend/internal/db"
	"sharespend/pkg/logger"
)

var counter atomic.Int64

func SQLite(t testing.TB) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, counter.Add(1))

	gormDB, err := db.NewSQLite(config.DBConfig{Driver: db.DialectSQLite, DSN: dsn}, logger.Discard())
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close(gormDB)
	})

	if err := db.Migrate(gormDB, db.DialectSQLite); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return gormDB
}
