package database

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/surrealdb/surrealdb.go"
)

// Fields the SurrealDB backend keeps next to the document body
const (
	surrealKeyField = "_key"
	surrealRevField = "_rev"
)

// SurrealStore implements Store for SurrealDB. Each collection path maps to
// a table ("users/u1/numerologyReports" becomes users__u1__numerologyReports).
type SurrealStore struct {
	db     *surrealdb.DB
	config Config
}

// NewSurrealDB creates a new SurrealDB store
func NewSurrealDB(cfg Config) *SurrealStore {
	return &SurrealStore{
		config: cfg,
	}
}

// Connect establishes a connection to SurrealDB
func (s *SurrealStore) Connect(ctx context.Context) error {
	endpoint := fmt.Sprintf("ws://%s:%s", s.config.Host, s.config.Port)

	db, err := surrealdb.FromEndpointURLString(ctx, endpoint)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConnection, err)
	}

	// Sign in as root user
	_, err = db.SignIn(ctx, &surrealdb.Auth{
		Username: s.config.User,
		Password: s.config.Password,
	})
	if err != nil {
		_ = db.Close(ctx)
		return fmt.Errorf("%w: signin failed: %v", ErrConnection, err)
	}

	if err := db.Use(ctx, s.config.Namespace, s.config.Database); err != nil {
		_ = db.Close(ctx)
		return fmt.Errorf("%w: use failed: %v", ErrConnection, err)
	}

	s.db = db
	return nil
}

// Close closes the database connection
func (s *SurrealStore) Close() error {
	if s.db != nil {
		return s.db.Close(context.Background())
	}
	return nil
}

// Ping checks the database connection
func (s *SurrealStore) Ping(ctx context.Context) error {
	if s.db == nil {
		return ErrConnection
	}
	_, err := s.db.Version(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConnection, err)
	}
	return nil
}

var tableSanitizer = regexp.MustCompile(`[^A-Za-z0-9_]`)

func surrealTable(collection string) string {
	return tableSanitizer.ReplaceAllString(strings.ReplaceAll(collection, "/", "__"), "_")
}

// query executes SurrealQL and returns the result set of each statement
func (s *SurrealStore) query(ctx context.Context, query string, vars map[string]interface{}) ([][]interface{}, error) {
	if s.db == nil {
		return nil, ErrConnection
	}

	results, err := surrealdb.Query[interface{}](ctx, s.db, query, vars)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQuery, err)
	}
	if results == nil {
		return nil, nil
	}

	output := make([][]interface{}, 0, len(*results))
	for _, r := range *results {
		if r.Status != "OK" {
			if r.Error != nil {
				return nil, classifySurrealError(r.Error.Message)
			}
			return nil, ErrQuery
		}
		switch rows := r.Result.(type) {
		case []interface{}:
			output = append(output, rows)
		case nil:
			output = append(output, nil)
		default:
			output = append(output, []interface{}{rows})
		}
	}
	return output, nil
}

func classifySurrealError(msg string) error {
	if strings.Contains(msg, "already exists") {
		return fmt.Errorf("%w: %s", ErrDuplicate, msg)
	}
	return fmt.Errorf("%w: %s", ErrQuery, msg)
}

// toDocument strips backend fields from a SurrealDB row
func toDocument(row interface{}) (string, int64, Document, bool) {
	m, ok := normalize(row).(map[string]any)
	if !ok {
		return "", 0, nil, false
	}
	key, _ := m[surrealKeyField].(string)
	rev := toInt64(m[surrealRevField])
	delete(m, "id")
	delete(m, surrealKeyField)
	delete(m, surrealRevField)
	return key, rev, Document(m), true
}

func toInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case uint64:
		return int64(n)
	case int:
		return int64(n)
	case float64:
		return int64(n)
	default:
		return 0
	}
}

func (s *SurrealStore) getWithRev(ctx context.Context, collection, id string) (Document, int64, error) {
	results, err := s.query(ctx, "SELECT * FROM type::thing($tb, $id)", map[string]interface{}{
		"tb": surrealTable(collection),
		"id": id,
	})
	if err != nil {
		return nil, 0, err
	}
	if len(results) == 0 || len(results[0]) == 0 {
		return nil, 0, ErrNotFound
	}
	_, rev, doc, ok := toDocument(results[0][0])
	if !ok {
		return nil, 0, fmt.Errorf("%w: unexpected row shape", ErrQuery)
	}
	return doc, rev, nil
}

// Get returns the document or ErrNotFound
func (s *SurrealStore) Get(ctx context.Context, collection, id string) (Document, error) {
	doc, _, err := s.getWithRev(ctx, collection, id)
	return doc, err
}

func withMeta(doc Document, id string, rev int64) map[string]any {
	out, _ := normalize(doc).(map[string]any)
	if out == nil {
		out = map[string]any{}
	}
	out[surrealKeyField] = id
	out[surrealRevField] = rev
	return out
}

// Set overwrites the document
func (s *SurrealStore) Set(ctx context.Context, collection, id string, doc Document) error {
	_, err := s.query(ctx, setStatement, map[string]interface{}{
		"tb":  surrealTable(collection),
		"id":  id,
		"doc": withMeta(doc, id, 0),
	})
	return err
}

const setStatement = "UPSERT type::thing($tb, $id) CONTENT $doc RETURN NONE; UPDATE type::thing($tb, $id) SET _rev = (_rev OR 0) + 1 RETURN NONE"

// Merge deep-merges fields into the document, creating it when absent
func (s *SurrealStore) Merge(ctx context.Context, collection, id string, fields Document) error {
	merge, _ := normalize(fields).(map[string]any)
	merge[surrealKeyField] = id
	_, err := s.query(ctx, "UPSERT type::thing($tb, $id) MERGE $doc RETURN NONE", map[string]interface{}{
		"tb":  surrealTable(collection),
		"id":  id,
		"doc": merge,
	})
	return err
}

// Add stores the document under a generated id
func (s *SurrealStore) Add(ctx context.Context, collection string, doc Document) (string, error) {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	_, err := s.query(ctx, "CREATE type::thing($tb, $id) CONTENT $doc RETURN NONE", map[string]interface{}{
		"tb":  surrealTable(collection),
		"id":  id,
		"doc": withMeta(doc, id, 1),
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// Delete removes the document if present
func (s *SurrealStore) Delete(ctx context.Context, collection, id string) error {
	_, err := s.query(ctx, "DELETE type::thing($tb, $id)", map[string]interface{}{
		"tb": surrealTable(collection),
		"id": id,
	})
	return err
}

// Find returns documents whose top-level field equals the value
func (s *SurrealStore) Find(ctx context.Context, collection string, q Query) ([]Record, error) {
	if err := q.validate(); err != nil {
		return nil, err
	}

	var sb strings.Builder
	sb.WriteString("SELECT * FROM type::table($tb) WHERE ")
	sb.WriteString(q.Field)
	sb.WriteString(" = $value")
	if q.OrderBy != "" {
		sb.WriteString(" ORDER BY ")
		sb.WriteString(q.OrderBy)
		if q.Desc {
			sb.WriteString(" DESC")
		}
	}
	if q.Limit > 0 {
		sb.WriteString(fmt.Sprintf(" LIMIT %d", q.Limit))
	}

	results, err := s.query(ctx, sb.String(), map[string]interface{}{
		"tb":    surrealTable(collection),
		"value": q.Value,
	})
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}

	records := make([]Record, 0, len(results[0]))
	for _, row := range results[0] {
		key, _, doc, ok := toDocument(row)
		if !ok {
			continue
		}
		records = append(records, Record{ID: key, Data: doc})
	}
	return records, nil
}

// Transact reads the document, applies fn and writes back only when the
// revision is unchanged, retrying on conflict.
func (s *SurrealStore) Transact(ctx context.Context, collection, id string, fn TxFunc) error {
	return withRetry(ctx, func() error {
		current, rev, err := s.getWithRev(ctx, collection, id)
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

		vars := map[string]interface{}{
			"tb":  surrealTable(collection),
			"id":  id,
			"doc": withMeta(next, id, rev+1),
		}
		if !exists {
			_, err := s.query(ctx, "CREATE type::thing($tb, $id) CONTENT $doc RETURN NONE", vars)
			if errors.Is(err, ErrDuplicate) {
				return ErrConflict
			}
			return err
		}

		vars["rev"] = rev
		results, err := s.query(ctx, "UPDATE type::thing($tb, $id) CONTENT $doc WHERE _rev = $rev", vars)
		if err != nil {
			return err
		}
		if len(results) == 0 || len(results[0]) == 0 {
			return ErrConflict
		}
		return nil
	})
}

// Batch starts an atomic write set executed in one BEGIN/COMMIT block
func (s *SurrealStore) Batch() Batch {
	return &surrealBatch{store: s}
}

type surrealBatch struct {
	store *SurrealStore
	set   writeSet
}

func (b *surrealBatch) Set(collection, id string, doc Document) Batch {
	b.set.add(opSet, collection, id, doc)
	return b
}

func (b *surrealBatch) Merge(collection, id string, fields Document) Batch {
	b.set.add(opMerge, collection, id, fields)
	return b
}

func (b *surrealBatch) Delete(collection, id string) Batch {
	b.set.add(opDelete, collection, id, nil)
	return b
}

func (b *surrealBatch) Len() int {
	return len(b.set.ops)
}

func (b *surrealBatch) Commit(ctx context.Context) error {
	if len(b.set.ops) == 0 {
		return nil
	}

	tb := NewTxBuilder()
	for _, op := range b.set.ops {
		vars := map[string]interface{}{
			"tb": surrealTable(op.collection),
			"id": op.id,
		}
		switch op.kind {
		case opSet:
			vars["doc"] = withMeta(op.doc, op.id, 0)
			for _, stmt := range strings.Split(setStatement, "; ") {
				tb.Add(stmt, vars)
			}
		case opMerge:
			merge, _ := normalize(op.doc).(map[string]any)
			merge[surrealKeyField] = op.id
			vars["doc"] = merge
			tb.Add("UPSERT type::thing($tb, $id) MERGE $doc RETURN NONE", vars)
		case opDelete:
			tb.Add("DELETE type::thing($tb, $id)", vars)
		}
	}

	query, vars := tb.Build()
	_, err := b.store.query(ctx, query, vars)
	if err != nil {
		return fmt.Errorf("%w: commit failed: %v", ErrQuery, err)
	}
	return nil
}
