package fixtures

import (
	"context"
	"encoding/json"
	"net/http"
	"slices"
	"sync"

	"github.com/eternal-ai/api/internal/provider"
	"github.com/eternal-ai/api/internal/storage"
)

// ============================================================================
// Language model
// ============================================================================

// FakeLLM answers completions with a fixed reply or a per-call function
type FakeLLM struct {
	mu       sync.Mutex
	Reply    string
	Err      error
	ReplyFn  func(req provider.CompletionRequest) string
	NotReady bool
	requests []provider.CompletionRequest
}

// NewFakeLLM creates a configured fake answering with reply
func NewFakeLLM(reply string) *FakeLLM {
	return &FakeLLM{Reply: reply}
}

func (f *FakeLLM) Configured() bool { return !f.NotReady }

func (f *FakeLLM) Complete(ctx context.Context, req provider.CompletionRequest) (*provider.Completion, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	if f.Err != nil {
		return nil, f.Err
	}
	text := f.Reply
	if f.ReplyFn != nil {
		text = f.ReplyFn(req)
	}
	return &provider.Completion{Text: text, Model: "fake-model", TokensUsed: 10}, nil
}

// Calls returns how many completions were requested
func (f *FakeLLM) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

// Requests returns a copy of every completion request
func (f *FakeLLM) Requests() []provider.CompletionRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]provider.CompletionRequest(nil), f.requests...)
}

// ============================================================================
// Geocoding and astrology
// ============================================================================

// FakeGeocoder resolves every address to Location unless Err is set
type FakeGeocoder struct {
	Location provider.Location
	Err      error
}

func (f *FakeGeocoder) Geocode(ctx context.Context, address string) (provider.Location, error) {
	if f.Err != nil {
		return provider.Location{}, f.Err
	}
	if f.Location == (provider.Location{}) {
		return provider.Location{Lat: 12.97, Lng: 77.59}, nil
	}
	return f.Location, nil
}

// FakeAstrology returns a fixed chart reading
type FakeAstrology struct {
	Err error
}

func (f *FakeAstrology) Fetch(ctx context.Context, b provider.BirthData) (*provider.AstrologyResult, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	return &provider.AstrologyResult{
		Text:   "SUN: Leo\nMOON: Pisces",
		Charts: &provider.ChartImages{RasiD1: "<svg>d1</svg>", NavamshaD9: "<svg>d9</svg>"},
	}, nil
}

// FakeNumerology returns fixed numbers and a small chart
type FakeNumerology struct {
	NotReady bool
	Err      error
}

func (f *FakeNumerology) Configured() bool { return !f.NotReady }

func (f *FakeNumerology) Bundle(ctx context.Context, p provider.Person) (provider.Bundle, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	return provider.Bundle{
		provider.KeyLifePath:  map[string]any{"result": 7},
		provider.KeyDestiny:   map[string]any{"result": 5},
		provider.KeyChallenge: map[string]any{"result": 3},
	}, nil
}

func (f *FakeNumerology) BirthChartSVG(ctx context.Context, req provider.ChartRequest) (string, error) {
	if f.Err != nil {
		return "", f.Err
	}
	return "<svg>chart</svg>", nil
}

// ============================================================================
// Storage and proxy
// ============================================================================

// FakeBlobStore keeps uploads in memory
type FakeBlobStore struct {
	mu      sync.Mutex
	Err     error
	objects []storage.Object
	deleted []string
}

func (f *FakeBlobStore) Upload(ctx context.Context, obj storage.Object) (string, error) {
	if f.Err != nil {
		return "", f.Err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects = append(f.objects, obj)
	return "https://storage.test/" + obj.Path, nil
}

// Delete drops the object and records its path
func (f *FakeBlobStore) Delete(ctx context.Context, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects = slices.DeleteFunc(f.objects, func(o storage.Object) bool { return o.Path == path })
	f.deleted = append(f.deleted, path)
	return nil
}

// Objects returns a copy of every stored object
func (f *FakeBlobStore) Objects() []storage.Object {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]storage.Object(nil), f.objects...)
}

// Deleted returns the paths passed to Delete
func (f *FakeBlobStore) Deleted() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.deleted...)
}

// FakeChatProxy echoes the request body back with Status
type FakeChatProxy struct {
	NotReady bool
	Status   int
	Err      error
	LastBody any
}

func (f *FakeChatProxy) Configured() bool { return !f.NotReady }

func (f *FakeChatProxy) Proxy(ctx context.Context, body any) (int, []byte, error) {
	f.LastBody = body
	if f.Err != nil {
		return 0, nil, f.Err
	}
	status := f.Status
	if status == 0 {
		status = http.StatusOK
	}
	out, err := json.Marshal(map[string]any{"echo": body})
	if err != nil {
		return 0, nil, err
	}
	return status, out, nil
}
