package database

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FirestoreStore implements Store on Cloud Firestore
type FirestoreStore struct {
	client *firestore.Client
}

// NewFirestoreStore wraps a Firestore client, usually obtained from
// firebase.App.Firestore
func NewFirestoreStore(client *firestore.Client) *FirestoreStore {
	return &FirestoreStore{client: client}
}

func (s *FirestoreStore) doc(collection, id string) *firestore.DocumentRef {
	return s.client.Collection(collection).Doc(id)
}

func isNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}

func wrapFirestoreError(err error) error {
	switch status.Code(err) {
	case codes.NotFound:
		return ErrNotFound
	case codes.AlreadyExists:
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	case codes.Aborted:
		return fmt.Errorf("%w: %v", ErrConflict, err)
	case codes.Unavailable, codes.DeadlineExceeded, codes.Unauthenticated, codes.PermissionDenied:
		return fmt.Errorf("%w: %v", ErrConnection, err)
	default:
		return fmt.Errorf("%w: %v", ErrQuery, err)
	}
}

// Get returns the document or ErrNotFound
func (s *FirestoreStore) Get(ctx context.Context, collection, id string) (Document, error) {
	snap, err := s.doc(collection, id).Get(ctx)
	if err != nil {
		return nil, wrapFirestoreError(err)
	}
	return Document(snap.Data()), nil
}

// Set overwrites the document
func (s *FirestoreStore) Set(ctx context.Context, collection, id string, doc Document) error {
	if _, err := s.doc(collection, id).Set(ctx, map[string]interface{}(doc)); err != nil {
		return wrapFirestoreError(err)
	}
	return nil
}

// Merge deep-merges fields into the document, creating it when absent
func (s *FirestoreStore) Merge(ctx context.Context, collection, id string, fields Document) error {
	if len(fields) == 0 {
		return nil
	}
	if _, err := s.doc(collection, id).Set(ctx, map[string]interface{}(fields), firestore.MergeAll); err != nil {
		return wrapFirestoreError(err)
	}
	return nil
}

// Add stores the document under a generated id
func (s *FirestoreStore) Add(ctx context.Context, collection string, doc Document) (string, error) {
	ref, _, err := s.client.Collection(collection).Add(ctx, map[string]interface{}(doc))
	if err != nil {
		return "", wrapFirestoreError(err)
	}
	return ref.ID, nil
}

// Delete removes the document if present
func (s *FirestoreStore) Delete(ctx context.Context, collection, id string) error {
	if _, err := s.doc(collection, id).Delete(ctx); err != nil && !isNotFound(err) {
		return wrapFirestoreError(err)
	}
	return nil
}

// Find returns documents whose top-level field equals the value
func (s *FirestoreStore) Find(ctx context.Context, collection string, q Query) ([]Record, error) {
	if err := q.validate(); err != nil {
		return nil, err
	}

	query := s.client.Collection(collection).Where(q.Field, "==", q.Value)
	if q.OrderBy != "" {
		dir := firestore.Asc
		if q.Desc {
			dir = firestore.Desc
		}
		query = query.OrderBy(q.OrderBy, dir)
	}
	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	var records []Record
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, wrapFirestoreError(err)
		}
		records = append(records, Record{ID: snap.Ref.ID, Data: Document(snap.Data())})
	}
	return records, nil
}

// Transact runs fn inside a Firestore transaction. Firestore retries the
// function itself when the document changes underneath it.
func (s *FirestoreStore) Transact(ctx context.Context, collection, id string, fn TxFunc) error {
	ref := s.doc(collection, id)
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		var current Document
		exists := true
		snap, err := tx.Get(ref)
		switch {
		case isNotFound(err):
			exists = false
		case err != nil:
			return err
		default:
			current = Document(snap.Data())
		}

		next, err := fn(current, exists)
		if err != nil {
			return err
		}
		if next == nil {
			return nil
		}
		return tx.Set(ref, map[string]interface{}(next))
	})
	if err != nil {
		if status.Code(err) == codes.Unknown {
			// errors returned by fn come back unchanged
			return err
		}
		return wrapFirestoreError(err)
	}
	return nil
}

// Batch starts a write set committed in one transaction
func (s *FirestoreStore) Batch() Batch {
	return &firestoreBatch{store: s}
}

// Ping checks that the project is reachable
func (s *FirestoreStore) Ping(ctx context.Context) error {
	iter := s.client.Collections(ctx)
	_, err := iter.Next()
	if err != nil && !errors.Is(err, iterator.Done) {
		return fmt.Errorf("%w: %v", ErrConnection, err)
	}
	return nil
}

// Close closes the client
func (s *FirestoreStore) Close() error {
	return s.client.Close()
}

type firestoreBatch struct {
	store *FirestoreStore
	set   writeSet
}

func (b *firestoreBatch) Set(collection, id string, doc Document) Batch {
	b.set.add(opSet, collection, id, doc)
	return b
}

func (b *firestoreBatch) Merge(collection, id string, fields Document) Batch {
	b.set.add(opMerge, collection, id, fields)
	return b
}

func (b *firestoreBatch) Delete(collection, id string) Batch {
	b.set.add(opDelete, collection, id, nil)
	return b
}

func (b *firestoreBatch) Len() int {
	return len(b.set.ops)
}

func (b *firestoreBatch) Commit(ctx context.Context) error {
	if len(b.set.ops) == 0 {
		return nil
	}
	err := b.store.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		for _, op := range b.set.ops {
			ref := b.store.doc(op.collection, op.id)
			var err error
			switch op.kind {
			case opSet:
				err = tx.Set(ref, map[string]interface{}(op.doc))
			case opMerge:
				err = tx.Set(ref, map[string]interface{}(op.doc), firestore.MergeAll)
			case opDelete:
				err = tx.Delete(ref)
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return wrapFirestoreError(err)
	}
	return nil
}
