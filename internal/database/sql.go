package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/eternal-ai/api/internal/database/migrations"
)

// Dialect selects the SQL flavour of a SQLStore
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

// SQLStore implements Store on a single documents table
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
}

// OpenSQL opens a postgres (pgx) or sqlite (modernc) database
func OpenSQL(dialect Dialect, dsn string) (*SQLStore, error) {
	driver := "pgx"
	if dialect == DialectSQLite {
		driver = "sqlite"
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnection, err)
	}
	if dialect == DialectSQLite {
		// every connection to :memory: is a separate database
		db.SetMaxOpenConns(1)
	}

	return &SQLStore{db: db, dialect: dialect}, nil
}

// NewSQLStore wraps an already opened database
func NewSQLStore(db *sql.DB, dialect Dialect) *SQLStore {
	return &SQLStore{db: db, dialect: dialect}
}

var gooseMu sync.Mutex

// Migrate applies the embedded goose migrations
func (s *SQLStore) Migrate(ctx context.Context) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(migrations.FS)
	defer goose.SetBaseFS(nil)

	gooseDialect := "postgres"
	if s.dialect == DialectSQLite {
		gooseDialect = "sqlite3"
	}
	if err := goose.SetDialect(gooseDialect); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, s.db, "."); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// Close closes the database
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// Ping checks the database connection
func (s *SQLStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrConnection, err)
	}
	return nil
}

// DB exposes the underlying handle for tooling
func (s *SQLStore) DB() *sql.DB {
	return s.db
}

// queryer is satisfied by both *sql.DB and *sql.Tx
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// rebind rewrites ? placeholders to $n for postgres
func (s *SQLStore) rebind(query string) string {
	if s.dialect != DialectPostgres {
		return query
	}
	var sb strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			sb.WriteString("$" + strconv.Itoa(n))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// Get returns the document or ErrNotFound
func (s *SQLStore) Get(ctx context.Context, collection, id string) (Document, error) {
	doc, _, err := s.get(ctx, s.db, collection, id, false)
	return doc, err
}

func (s *SQLStore) get(ctx context.Context, q queryer, collection, id string, forUpdate bool) (Document, int64, error) {
	query := "SELECT data, rev FROM documents WHERE collection = ? AND id = ?"
	if forUpdate && s.dialect == DialectPostgres {
		query += " FOR UPDATE"
	}

	var raw string
	var rev int64
	err := q.QueryRowContext(ctx, s.rebind(query), collection, id).Scan(&raw, &rev)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, 0, ErrNotFound
	}
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrQuery, err)
	}

	var doc Document
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, 0, fmt.Errorf("%w: corrupt document %s/%s: %v", ErrQuery, collection, id, err)
	}
	return doc, rev, nil
}

func (s *SQLStore) put(ctx context.Context, q queryer, collection, id string, doc Document) error {
	data, err := json.Marshal(normalize(doc))
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	query := `INSERT INTO documents (collection, id, data, rev, created_at, updated_at)
VALUES (?, ?, ?, 1, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
ON CONFLICT (collection, id) DO UPDATE SET
    data = excluded.data,
    rev = documents.rev + 1,
    updated_at = CURRENT_TIMESTAMP`

	if _, err := q.ExecContext(ctx, s.rebind(query), collection, id, string(data)); err != nil {
		return fmt.Errorf("%w: %v", ErrQuery, err)
	}
	return nil
}

func (s *SQLStore) remove(ctx context.Context, q queryer, collection, id string) error {
	_, err := q.ExecContext(ctx, s.rebind("DELETE FROM documents WHERE collection = ? AND id = ?"), collection, id)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrQuery, err)
	}
	return nil
}

// Set overwrites the document
func (s *SQLStore) Set(ctx context.Context, collection, id string, doc Document) error {
	return s.put(ctx, s.db, collection, id, doc)
}

// Merge deep-merges fields into the document, creating it when absent
func (s *SQLStore) Merge(ctx context.Context, collection, id string, fields Document) error {
	return s.Transact(ctx, collection, id, func(current Document, _ bool) (Document, error) {
		return MergeDocuments(current, fields), nil
	})
}

// Add stores the document under a generated id
func (s *SQLStore) Add(ctx context.Context, collection string, doc Document) (string, error) {
	id := uuid.NewString()
	if err := s.put(ctx, s.db, collection, id, doc); err != nil {
		return "", err
	}
	return id, nil
}

// Delete removes the document if present
func (s *SQLStore) Delete(ctx context.Context, collection, id string) error {
	return s.remove(ctx, s.db, collection, id)
}

// Find returns documents whose top-level field equals the value
func (s *SQLStore) Find(ctx context.Context, collection string, q Query) ([]Record, error) {
	if err := q.validate(); err != nil {
		return nil, err
	}

	value, err := json.Marshal(normalize(q.Value))
	if err != nil {
		return nil, fmt.Errorf("encode query value: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("SELECT id, data FROM documents WHERE collection = ? AND ")
	sb.WriteString(s.fieldEquals(q.Field))
	if q.OrderBy != "" {
		sb.WriteString(" ORDER BY ")
		sb.WriteString(s.fieldText(q.OrderBy))
		if q.Desc {
			sb.WriteString(" DESC")
		}
	}
	if q.Limit > 0 {
		sb.WriteString(" LIMIT ")
		sb.WriteString(strconv.Itoa(q.Limit))
	}

	rows, err := s.db.QueryContext(ctx, s.rebind(sb.String()), collection, string(value))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQuery, err)
	}
	defer func() { _ = rows.Close() }()

	var records []Record
	for rows.Next() {
		var id, raw string
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrQuery, err)
		}
		var doc Document
		if err := json.Unmarshal([]byte(raw), &doc); err != nil {
			return nil, fmt.Errorf("%w: corrupt document %s/%s: %v", ErrQuery, collection, id, err)
		}
		records = append(records, Record{ID: id, Data: doc})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQuery, err)
	}
	return records, nil
}

// fieldEquals compares a top-level JSON field against a JSON encoded value.
// field must already be validated.
func (s *SQLStore) fieldEquals(field string) string {
	if s.dialect == DialectPostgres {
		return fmt.Sprintf("(data::jsonb -> '%s') = ?::jsonb", field)
	}
	return fmt.Sprintf("json_extract(data, '$.%s') = json_extract(?, '$')", field)
}

func (s *SQLStore) fieldText(field string) string {
	if s.dialect == DialectPostgres {
		return fmt.Sprintf("(data::jsonb ->> '%s')", field)
	}
	return fmt.Sprintf("json_extract(data, '$.%s')", field)
}

// Transact runs fn inside a SQL transaction holding the row
func (s *SQLStore) Transact(ctx context.Context, collection, id string, fn TxFunc) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", ErrConnection, err)
	}
	defer func() { _ = tx.Rollback() }()

	current, _, err := s.get(ctx, tx, collection, id, true)
	exists := true
	if errors.Is(err, ErrNotFound) {
		exists = false
	} else if err != nil {
		return err
	}

	next, err := fn(current.Clone(), exists)
	if err != nil {
		return err
	}
	if next == nil {
		return nil
	}

	if err := s.put(ctx, tx, collection, id, next); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", ErrQuery, err)
	}
	return nil
}

// Batch starts an atomic write set
func (s *SQLStore) Batch() Batch {
	return &sqlBatch{store: s}
}

type sqlBatch struct {
	store *SQLStore
	set   writeSet
}

func (b *sqlBatch) Set(collection, id string, doc Document) Batch {
	b.set.add(opSet, collection, id, doc)
	return b
}

func (b *sqlBatch) Merge(collection, id string, fields Document) Batch {
	b.set.add(opMerge, collection, id, fields)
	return b
}

func (b *sqlBatch) Delete(collection, id string) Batch {
	b.set.add(opDelete, collection, id, nil)
	return b
}

func (b *sqlBatch) Len() int {
	return len(b.set.ops)
}

func (b *sqlBatch) Commit(ctx context.Context) error {
	if len(b.set.ops) == 0 {
		return nil
	}

	s := b.store
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", ErrConnection, err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, op := range b.set.ops {
		switch op.kind {
		case opSet:
			err = s.put(ctx, tx, op.collection, op.id, op.doc)
		case opMerge:
			var current Document
			current, _, err = s.get(ctx, tx, op.collection, op.id, true)
			if errors.Is(err, ErrNotFound) {
				current, err = nil, nil
			}
			if err == nil {
				err = s.put(ctx, tx, op.collection, op.id, MergeDocuments(current, op.doc))
			}
		case opDelete:
			err = s.remove(ctx, tx, op.collection, op.id)
		}
		if err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", ErrQuery, err)
	}
	return nil
}
