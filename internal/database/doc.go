// Package database provides the document store abstraction for Eternal AI.
//
// Every piece of persistent state is a schemaless document addressed by a
// collection path and an id, mirroring how the product has always stored
// its data in Firestore. Collection paths may be nested
// ("users/{uid}/numerologyReports").
//
// # Backends
//
//   - FirestoreStore: Cloud Firestore through the Firebase Admin SDK
//   - SurrealStore: SurrealDB, one table per collection path
//   - SQLStore: postgres (pgx) or sqlite (modernc) holding a single
//     documents table created by the embedded goose migrations
//
// # Writes
//
// Set, Merge and Add are last-write-wins. Transact is an atomic
// read-modify-write of a single document and is what balance changes use.
// Batch groups writes that must land together.
//
// # Error Handling
//
// Standard errors are defined for common failure cases:
//   - ErrNotFound: Document does not exist
//   - ErrDuplicate: Document already exists where one was not expected
//   - ErrConflict: Concurrent modification detected, retries exhausted
//   - ErrConnection: Store connection issues
//   - ErrQuery: Query execution failures
//   - ErrInvalidField: Field name is not a plain identifier
//
// Use errors.Is() to check error types:
//
//	if errors.Is(err, database.ErrNotFound) {
//	    // Handle missing document
//	}
package database
