package database

// Transaction utilities shared by the store backends.
//
// # writeSet
//
// Every backend's Batch records operations in a writeSet and replays them
// at Commit inside whatever atomic unit the backend offers (a Firestore
// transaction, a SQL transaction, a SurrealQL BEGIN/COMMIT block).
//
// # TxBuilder
//
// Combines SurrealQL statements into one BEGIN/COMMIT block with variables
// prefixed per statement ($id -> $s1_id) so they cannot collide:
//
//	tb := NewTxBuilder()
//	tb.Add("UPSERT type::thing($tb, $id) CONTENT $doc", vars1)
//	tb.Add("DELETE type::thing($tb, $id)", vars2)
//	query, vars := tb.Build()
//
// # withRetry
//
// Optimistic read-modify-write loops retry on ErrConflict a bounded number
// of times before giving up.

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"
)

type opKind int

const (
	opSet opKind = iota
	opMerge
	opDelete
)

type writeOp struct {
	kind       opKind
	collection string
	id         string
	doc        Document
}

// writeSet records batch operations in order
type writeSet struct {
	ops []writeOp
}

func (w *writeSet) add(kind opKind, collection, id string, doc Document) {
	w.ops = append(w.ops, writeOp{kind: kind, collection: collection, id: id, doc: doc.Clone()})
}

// TxBuilder joins SurrealQL statements into one transaction. Variables are
// prefixed per statement so two statements may both bind $id.
type TxBuilder struct {
	statements []string
	vars       map[string]any
}

func NewTxBuilder() *TxBuilder {
	return &TxBuilder{vars: make(map[string]any)}
}

var surrealParam = regexp.MustCompile(`\$([A-Za-z_][A-Za-z0-9_]*)`)

// Add appends query, renaming each bound parameter to $s<n>_<name>. It
// returns the renames. Parameters without a binding are left alone.
func (tb *TxBuilder) Add(query string, vars map[string]any) map[string]string {
	prefix := "s" + strconv.Itoa(len(tb.statements)+1) + "_"
	renamed := make(map[string]string, len(vars))
	for name, v := range vars {
		renamed[name] = prefix + name
		tb.vars[prefix+name] = v
	}

	tb.statements = append(tb.statements, surrealParam.ReplaceAllStringFunc(query, func(m string) string {
		if to, ok := renamed[m[1:]]; ok {
			return "$" + to
		}
		return m
	}))
	return renamed
}

func (tb *TxBuilder) Len() int {
	return len(tb.statements)
}

// Build returns the BEGIN/COMMIT block and its bindings, or nothing when no
// statement was added
func (tb *TxBuilder) Build() (string, map[string]any) {
	if len(tb.statements) == 0 {
		return "", nil
	}

	var sb strings.Builder
	sb.WriteString("BEGIN TRANSACTION;\n")
	for _, stmt := range tb.statements {
		sb.WriteString(strings.TrimSuffix(strings.TrimSpace(stmt), ";"))
		sb.WriteString(";\n")
	}
	sb.WriteString("COMMIT TRANSACTION;")
	return sb.String(), tb.vars
}

const maxTxAttempts = 5

// withRetry reruns fn while it reports ErrConflict, backing off 10ms, 20ms,
// 40ms and so on, at most maxTxAttempts times
func withRetry(ctx context.Context, fn func() error) error {
	backoff := 10 * time.Millisecond
	for attempt := 1; ; attempt++ {
		err := fn()
		if !errors.Is(err, ErrConflict) || attempt == maxTxAttempts {
			return err
		}

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		backoff *= 2
	}
}
