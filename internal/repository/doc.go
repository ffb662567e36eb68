// Package repository implements the data access layer for the Eternal AI API.
//
// Every repository stores model structs as documents in a database.Store,
// so the same code runs on Firestore, SurrealDB and SQL. Documents are keyed
// by user id; the few multi-document writes go through a Batch.
//
// # Repository Pattern
//
// All repositories follow a consistent pattern:
//
//   - Constructor function (NewXxxRepository) accepts a database.Store
//   - Get methods return (nil, nil) when the document does not exist
//   - Read-modify-write methods run inside Store.Transact
//   - Structs are converted with database.Encode and database.Decode
//
// # Example Usage
//
//	repo := NewUserRepository(store)
//	user, err := repo.GetByID(ctx, uid)
//	if err != nil {
//	    return err
//	}
//	if user == nil {
//	    // Handle not found
//	}
package repository
