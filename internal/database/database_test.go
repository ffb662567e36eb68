package database

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestMergeDocuments(t *testing.T) {
	base := Document{
		"name": "Ana",
		"wellness": map[string]any{
			"score":   70,
			"details": map[string]any{"sleep": "poor", "diet": "ok"},
		},
	}
	fields := Document{
		"wellness": map[string]any{
			"details": map[string]any{"sleep": "good"},
		},
		"tags": []any{"calm"},
	}

	got := MergeDocuments(base, fields)
	want := Document{
		"name": "Ana",
		"wellness": map[string]any{
			"score":   70,
			"details": map[string]any{"sleep": "good", "diet": "ok"},
		},
		"tags": []any{"calm"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("MergeDocuments mismatch (-want +got):\n%s", diff)
	}

	// base untouched
	if base["wellness"].(map[string]any)["details"].(map[string]any)["sleep"] != "poor" {
		t.Error("MergeDocuments mutated its input")
	}
}

func TestMergeDocuments_ScalarReplacesMap(t *testing.T) {
	got := MergeDocuments(Document{"a": map[string]any{"x": 1}}, Document{"a": "flat"})
	if got["a"] != "flat" {
		t.Errorf("expected scalar to replace map, got %v", got["a"])
	}
}

func TestDocumentClone(t *testing.T) {
	doc := Document{"nested": map[string]any{"list": []any{1, 2}}}
	clone := doc.Clone()

	clone["nested"].(map[string]any)["list"].([]any)[0] = 99
	if doc["nested"].(map[string]any)["list"].([]any)[0] != 1 {
		t.Error("Clone shares nested state with the original")
	}

	var empty Document
	if empty.Clone() != nil {
		t.Error("nil document should clone to nil")
	}
}

func TestEncodeDecode(t *testing.T) {
	type report struct {
		Score     int       `json:"score"`
		CreatedAt time.Time `json:"createdAt"`
	}
	created := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	doc, err := Encode(report{Score: 42, CreatedAt: created})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if doc["createdAt"] != "2025-03-01T12:00:00.000000000Z" {
		t.Errorf("createdAt = %v", doc["createdAt"])
	}

	// backends such as Firestore hand back time.Time values
	doc["createdAt"] = created
	var got report
	if err := Decode(doc, &got); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.Score != 42 || !got.CreatedAt.Equal(created) {
		t.Errorf("Decode = %+v", got)
	}
}

func TestEncode_TimestampsSortAsText(t *testing.T) {
	type event struct {
		At   time.Time `json:"at"`
		Note string    `json:"note"`
	}
	whole := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	half := whole.Add(500 * time.Millisecond)

	a, err := Encode(event{At: whole})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	b, err := Encode(event{At: half.In(time.FixedZone("IST", 5*3600+1800)), Note: "2025-03-01"})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	if !(a["at"].(string) < b["at"].(string)) {
		t.Errorf("%v should sort before %v", a["at"], b["at"])
	}
	if b["at"] != "2025-03-01T12:00:00.500000000Z" {
		t.Errorf("at = %v, want UTC with a nine digit fraction", b["at"])
	}
	if b["note"] != "2025-03-01" {
		t.Errorf("note = %v, plain dates must be left alone", b["note"])
	}

	var got event
	if err := Decode(b, &got); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !got.At.Equal(half) {
		t.Errorf("Decode at = %v, want %v", got.At, half)
	}
}

func TestValidateField(t *testing.T) {
	tests := []struct {
		field string
		ok    bool
	}{
		{"email", true},
		{"user_id", true},
		{"_rev", true},
		{"createdAt", true},
		{"", false},
		{"1abc", false},
		{"a.b", false},
		{"a'b", false},
		{"a b", false},
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			err := ValidateField(tt.field)
			if tt.ok && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tt.ok && !errors.Is(err, ErrInvalidField) {
				t.Errorf("expected ErrInvalidField, got %v", err)
			}
		})
	}
}

func TestTxBuilder(t *testing.T) {
	tb := NewTxBuilder()
	if q, vars := tb.Build(); q != "" || vars != nil {
		t.Fatalf("empty builder should build nothing")
	}

	tb.Add("UPSERT type::thing($tb, $id) CONTENT $idx", map[string]interface{}{"tb": "users", "id": "u1", "idx": 1})
	tb.Add("DELETE type::thing($tb, $id)", map[string]interface{}{"tb": "tokens", "id": "t1"})

	if tb.Len() != 2 {
		t.Errorf("Len = %d", tb.Len())
	}

	query, vars := tb.Build()
	if !strings.HasPrefix(query, "BEGIN TRANSACTION;") || !strings.HasSuffix(query, "COMMIT TRANSACTION;") {
		t.Errorf("query not wrapped in a transaction: %s", query)
	}
	if strings.Contains(query, "$id)") {
		t.Errorf("variables were not namespaced: %s", query)
	}
	if !strings.Contains(query, "CONTENT $s1_idx") || !strings.Contains(query, "DELETE type::thing($s2_tb, $s2_id)") {
		t.Errorf("unexpected renames: %s", query)
	}
	if len(vars) != 5 {
		t.Errorf("expected 5 namespaced vars, got %d", len(vars))
	}
	for name := range vars {
		if !strings.Contains(query, "$"+name) {
			t.Errorf("var %s not referenced in %s", name, query)
		}
	}
}

func TestWithRetry(t *testing.T) {
	attempts := 0
	err := withRetry(context.Background(), func() error {
		attempts++
		if attempts < 3 {
			return ErrConflict
		}
		return nil
	})
	if err != nil || attempts != 3 {
		t.Errorf("err = %v, attempts = %d", err, attempts)
	}

	attempts = 0
	err = withRetry(context.Background(), func() error {
		attempts++
		return ErrConflict
	})
	if !errors.Is(err, ErrConflict) || attempts != maxTxAttempts {
		t.Errorf("err = %v, attempts = %d", err, attempts)
	}

	boom := errors.New("boom")
	attempts = 0
	err = withRetry(context.Background(), func() error {
		attempts++
		return boom
	})
	if !errors.Is(err, boom) || attempts != 1 {
		t.Errorf("non-conflict errors must not retry: err = %v, attempts = %d", err, attempts)
	}
}

func TestSurrealTable(t *testing.T) {
	tests := map[string]string{
		"users":                         "users",
		"users/u1/numerologyReports":    "users__u1__numerologyReports",
		"users/a-b.c/numerologyReports": "users__a_b_c__numerologyReports",
	}
	for in, want := range tests {
		if got := surrealTable(in); got != want {
			t.Errorf("surrealTable(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestToDocumentStripsMeta(t *testing.T) {
	key, rev, doc, ok := toDocument(map[string]any{
		"id":    "users:u1",
		"_key":  "u1",
		"_rev":  uint64(3),
		"email": "a@b.c",
	})
	if !ok || key != "u1" || rev != 3 {
		t.Fatalf("toDocument = %q %d %v", key, rev, ok)
	}
	if diff := cmp.Diff(Document{"email": "a@b.c"}, doc); diff != "" {
		t.Errorf("doc mismatch (-want +got):\n%s", diff)
	}
}
