// Package testdb provides test database utilities for the Eternal AI API.
//
// # Test Database Setup
//
// Create a test store for each test. It is closed automatically:
//
//	func TestSomething(t *testing.T) {
//	    tdb := testdb.New(t)
//	    repo := repository.NewUserRepository(tdb.Store)
//	}
//
// # Backends
//
// Without configuration every TestDB is a private in-memory SQLite
// database. With TEST_DB_DSN set to a postgres URL each TestDB gets its
// own schema, dropped on cleanup.
//
// # Shared Database
//
// For subtests that start from an empty store:
//
//	shared := testdb.NewShared(t)
//	t.Run("a", func(t *testing.T) { tdb := shared.SetupSubtest(t) })
package testdb
