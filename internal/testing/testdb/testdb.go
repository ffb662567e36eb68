// Package testdb provides test database utilities for e2e testing.
//
// Every TestDB is a migrated SQL document store. By default it is an
// in-memory SQLite database, so tests need no running server. Setting
// TEST_DB_DSN runs the same tests against postgres instead.
//
// Usage:
//
//	func TestSomething(t *testing.T) {
//	    tdb := testdb.New(t)
//	    users := repository.NewUserRepository(tdb.Store)
//	}
package testdb

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/eternal-ai/api/internal/database"
)

// TestDB provides an isolated document store for testing.
type TestDB struct {
	Store  *database.SQLStore
	schema string
	t      *testing.T
}

var (
	counterMu sync.Mutex
	counter   int64
)

// uniqueSchema names a postgres schema no other test uses
func uniqueSchema() string {
	counterMu.Lock()
	defer counterMu.Unlock()
	counter++
	return fmt.Sprintf("test_%d_%d", time.Now().UnixNano(), counter)
}

// withSearchPath points a postgres URL at schema
func withSearchPath(dsn, schema string) string {
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "search_path=" + schema
}

// New creates a new isolated test store with migrations applied. The store
// is closed when the test ends.
func New(t *testing.T) *TestDB {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	dialect, dsn, schema := database.DialectSQLite, ":memory:", ""
	if env := os.Getenv("TEST_DB_DSN"); env != "" {
		schema = uniqueSchema()
		dialect, dsn = database.DialectPostgres, withSearchPath(env, schema)
	}

	store, err := database.OpenSQL(dialect, dsn)
	if err != nil {
		t.Fatalf("testdb: failed to open: %v", err)
	}
	if schema != "" {
		if _, err := store.DB().ExecContext(ctx, "CREATE SCHEMA IF NOT EXISTS "+schema); err != nil {
			store.Close()
			t.Fatalf("testdb: failed to create schema: %v", err)
		}
	}
	if err := store.Migrate(ctx); err != nil {
		store.Close()
		t.Fatalf("testdb: migration failed: %v", err)
	}

	tdb := &TestDB{Store: store, schema: schema, t: t}
	t.Cleanup(tdb.Close)
	return tdb
}

// Close drops the postgres schema if one was created and closes the store.
func (tdb *TestDB) Close() {
	if tdb.Store == nil {
		return
	}
	if tdb.schema != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_, _ = tdb.Store.DB().ExecContext(ctx, "DROP SCHEMA IF EXISTS "+tdb.schema+" CASCADE")
	}
	_ = tdb.Store.Close()
	tdb.Store = nil
}

// Reset removes every document while preserving schema.
func (tdb *TestDB) Reset(t *testing.T) {
	t.Helper()
	if _, err := tdb.Store.DB().ExecContext(tdb.Ctx(), "DELETE FROM documents"); err != nil {
		t.Fatalf("testdb: reset failed: %v", err)
	}
}

// Ctx returns a context with a reasonable timeout for test operations.
func (tdb *TestDB) Ctx() context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	tdb.t.Cleanup(cancel)
	return ctx
}

// MustSet stores a document and fails the test on error.
func (tdb *TestDB) MustSet(collection, id string, doc database.Document) {
	tdb.t.Helper()
	if err := tdb.Store.Set(tdb.Ctx(), collection, id, doc); err != nil {
		tdb.t.Fatalf("testdb: set %s/%s failed: %v", collection, id, err)
	}
}

// MustGet reads a document and fails the test on error.
func (tdb *TestDB) MustGet(collection, id string) database.Document {
	tdb.t.Helper()
	doc, err := tdb.Store.Get(tdb.Ctx(), collection, id)
	if err != nil {
		tdb.t.Fatalf("testdb: get %s/%s failed: %v", collection, id, err)
	}
	return doc
}

// Shared creates a TestDB that can be shared across subtests.
type Shared struct {
	*TestDB
}

// NewShared creates a shared test store for use across multiple subtests.
func NewShared(t *testing.T) *Shared {
	return &Shared{TestDB: New(t)}
}

// SetupSubtest resets the store and returns the TestDB for use in a subtest.
func (s *Shared) SetupSubtest(t *testing.T) *TestDB {
	t.Helper()
	s.TestDB.t = t
	s.TestDB.Reset(t)
	return s.TestDB
}
