package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"time"
)

// Standard errors for database operations.
// Use errors.Is() to check these error types in calling code.
var (
	// ErrNotFound indicates the requested document does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate indicates the document already exists.
	ErrDuplicate = errors.New("duplicate record")

	// ErrConnection indicates a failure to connect to or communicate with the store.
	ErrConnection = errors.New("database connection error")

	// ErrQuery indicates a query execution failure.
	ErrQuery = errors.New("query error")

	// ErrConflict indicates a concurrent write won every retry of a transaction.
	ErrConflict = errors.New("concurrent modification")

	// ErrInvalidField indicates a field name that cannot be used in a query.
	ErrInvalidField = errors.New("invalid field name")
)

// Document is a schemaless stored document
type Document map[string]any

// Record is a document together with its id
type Record struct {
	ID   string
	Data Document
}

// Query selects documents of one collection by top-level field equality
type Query struct {
	Field   string
	Value   any
	OrderBy string
	Desc    bool
	Limit   int
}

// TxFunc receives the current document (nil when absent) and returns the
// document to store. Returning a nil document leaves the store untouched.
type TxFunc func(current Document, exists bool) (Document, error)

// Store defines the interface for document operations
type Store interface {
	Get(ctx context.Context, collection, id string) (Document, error)
	Set(ctx context.Context, collection, id string, doc Document) error
	Merge(ctx context.Context, collection, id string, fields Document) error
	Add(ctx context.Context, collection string, doc Document) (string, error)
	Delete(ctx context.Context, collection, id string) error
	Find(ctx context.Context, collection string, q Query) ([]Record, error)

	// Transact runs an atomic read-modify-write on one document
	Transact(ctx context.Context, collection, id string, fn TxFunc) error

	// Batch starts a set of writes committed together
	Batch() Batch

	Ping(ctx context.Context) error
	Close() error
}

// Batch accumulates writes until Commit. Nothing is written before Commit.
type Batch interface {
	Set(collection, id string, doc Document) Batch
	Merge(collection, id string, fields Document) Batch
	Delete(collection, id string) Batch
	Len() int
	Commit(ctx context.Context) error
}

// Config holds SurrealDB connection settings
type Config struct {
	Host      string
	Port      string
	User      string
	Password  string
	Namespace string
	Database  string
}

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// TimeLayout is RFC 3339 with a fixed nine digit fraction. Stored
// timestamps all use it, so ordering by text is ordering by time.
const TimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// FormatTime renders t in UTC using TimeLayout
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

var timestampPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(\.\d{1,9})?(Z|[+-]\d{2}:\d{2})$`)

// ValidateField rejects field names that are not plain identifiers
func ValidateField(field string) error {
	if !identifierPattern.MatchString(field) {
		return fmt.Errorf("%w: %q", ErrInvalidField, field)
	}
	return nil
}

func (q Query) validate() error {
	if err := ValidateField(q.Field); err != nil {
		return err
	}
	if q.OrderBy != "" {
		if err := ValidateField(q.OrderBy); err != nil {
			return err
		}
	}
	return nil
}

// Encode converts a struct into a Document through its JSON form
func Encode(v any) (Document, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return fixTimestamps(doc).(Document), nil
}

// fixTimestamps rewrites the variable width RFC 3339 strings encoding/json
// produces for time.Time into TimeLayout
func fixTimestamps(v any) any {
	switch val := v.(type) {
	case Document:
		for k, item := range val {
			val[k] = fixTimestamps(item)
		}
		return val
	case map[string]any:
		for k, item := range val {
			val[k] = fixTimestamps(item)
		}
		return val
	case []any:
		for i, item := range val {
			val[i] = fixTimestamps(item)
		}
		return val
	case string:
		if !timestampPattern.MatchString(val) {
			return val
		}
		t, err := time.Parse(time.RFC3339Nano, val)
		if err != nil {
			return val
		}
		return FormatTime(t)
	default:
		return v
	}
}

// Decode fills v from a Document through its JSON form
func Decode(doc Document, v any) error {
	data, err := json.Marshal(normalize(doc))
	if err != nil {
		return fmt.Errorf("decode document: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode document: %w", err)
	}
	return nil
}

// normalize converts values some drivers return (time.Time, nested
// map[any]any) into JSON friendly forms.
func normalize(v any) any {
	switch val := v.(type) {
	case Document:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = normalize(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = normalize(item)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[fmt.Sprint(k)] = normalize(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = normalize(item)
		}
		return out
	case time.Time:
		return FormatTime(val)
	default:
		return v
	}
}

// MergeDocuments deep-merges fields into base, returning a new document.
// Nested maps are merged key by key; every other value replaces.
func MergeDocuments(base, fields Document) Document {
	out := make(Document, len(base)+len(fields))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range fields {
		incoming, isMap := asMap(v)
		existing, wasMap := asMap(out[k])
		if isMap && wasMap {
			out[k] = map[string]any(MergeDocuments(existing, incoming))
			continue
		}
		out[k] = v
	}
	return out
}

func asMap(v any) (Document, bool) {
	switch m := v.(type) {
	case Document:
		return m, true
	case map[string]any:
		return Document(m), true
	default:
		return nil, false
	}
}

// Clone returns a deep copy of the document
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}
	return cloneValue(d).(Document)
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case Document:
		out := make(Document, len(val))
		for k, item := range val {
			out[k] = cloneValue(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = cloneValue(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return v
	}
}
