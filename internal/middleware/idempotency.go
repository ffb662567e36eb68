package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/eternal-ai/api/internal/model"
)

// MaxIdempotencyKeyLength bounds the Idempotency-Key header
const MaxIdempotencyKeyLength = 255

// IdempotencyStore remembers the responses of POST and PATCH requests sent
// with an Idempotency-Key header, per caller and key. A retry with the same
// key and the same request gets the stored response; the same key with a
// different request is rejected. Server errors are forgotten so they can
// be retried.
type IdempotencyStore struct {
	mu      sync.Mutex
	entries map[string]*idempotencyEntry
	cfg     IdempotencyConfig
	now     func() time.Time

	stop chan struct{}
	once sync.Once
	done chan struct{}
}

type idempotencyEntry struct {
	fingerprint string
	ready       chan struct{}

	// set when ready closes; status stays 0 when the response was dropped
	status    int
	header    http.Header
	body      []byte
	expiresAt time.Time
}

// IdempotencyConfig holds configuration for idempotency middleware. Zero
// values take the defaults: keep for 24h, sweep hourly, keep response
// bodies up to 1 MiB and read request bodies up to 8 MiB.
type IdempotencyConfig struct {
	TTL            time.Duration
	Cleanup        time.Duration
	MaxBody        int
	MaxRequestBody int64
}

// NewIdempotencyStore creates a store and starts its sweep
func NewIdempotencyStore(cfg IdempotencyConfig) *IdempotencyStore {
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}
	if cfg.Cleanup <= 0 {
		cfg.Cleanup = time.Hour
	}
	if cfg.MaxBody <= 0 {
		cfg.MaxBody = 1 << 20
	}
	if cfg.MaxRequestBody <= 0 {
		cfg.MaxRequestBody = 8 << 20
	}

	s := &IdempotencyStore{
		entries: make(map[string]*idempotencyEntry),
		cfg:     cfg,
		now:     time.Now,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go s.sweep()
	return s
}

// Stop ends the sweep and waits for it
func (s *IdempotencyStore) Stop() {
	s.once.Do(func() { close(s.stop) })
	<-s.done
}

func (s *IdempotencyStore) sweep() {
	defer close(s.done)

	ticker := time.NewTicker(s.cfg.Cleanup)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.stop:
			return
		}
	}
}

func (s *IdempotencyStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for key, e := range s.entries {
		if e.done() && e.expiresAt.Before(now) {
			delete(s.entries, key)
		}
	}
}

func (e *idempotencyEntry) done() bool {
	select {
	case <-e.ready:
		return true
	default:
		return false
	}
}

// claim returns the live entry for key, or registers an in-flight one and
// reports owner
func (s *IdempotencyStore) claim(key, fingerprint string) (e *idempotencyEntry, owner bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[key]; ok && (!e.done() || e.expiresAt.After(s.now())) {
		return e, false
	}
	e = &idempotencyEntry{fingerprint: fingerprint, ready: make(chan struct{})}
	s.entries[key] = e
	return e, true
}

// settle records the captured response, or drops the key when it must not
// be replayed
func (s *IdempotencyStore) settle(key string, e *idempotencyEntry, rec *captureWriter, completed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !completed || rec.status >= http.StatusInternalServerError || rec.overflow {
		delete(s.entries, key)
	} else {
		e.status = rec.status
		e.header = rec.own
		e.body = rec.buf.Bytes()
		e.expiresAt = s.now().Add(s.cfg.TTL)
	}
	close(e.ready)
}

// run serves the request as the owner of key. A panic leaves the key
// unsettled as a failure and keeps unwinding.
func (s *IdempotencyStore) run(key string, e *idempotencyEntry, next http.Handler, w http.ResponseWriter, r *http.Request) {
	rec := &captureWriter{
		ResponseWriter: w,
		status:         http.StatusOK,
		limit:          s.cfg.MaxBody,
		before:         w.Header().Clone(),
	}
	completed := false
	defer func() { s.settle(key, e, rec, completed) }()

	next.ServeHTTP(rec, r)
	completed = true
}

// scopeKey joins the caller and the client key
func scopeKey(caller, idempotencyKey string) string {
	return hashParts([]byte(caller), []byte(idempotencyKey))
}

// requestFingerprint identifies what was asked under a key. Accept is part
// of it because some routes negotiate their representation.
func requestFingerprint(method, path, accept string, body []byte) string {
	return hashParts([]byte(method), []byte(path), []byte(accept), body)
}

func hashParts(parts ...[]byte) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write(p)
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// captureWriter tees the response into a bounded buffer. own holds the
// headers the handler set, taken when the header is committed.
type captureWriter struct {
	http.ResponseWriter
	status    int
	buf       bytes.Buffer
	limit     int
	overflow  bool
	before    http.Header
	own       http.Header
	committed bool
}

// perRequestHeaders belong to the request that produced them and are
// never replayed
var perRequestHeaders = []string{
	"X-Request-Id",
	"Vary",
	"Content-Encoding",
	"Content-Length",
	"Retry-After",
}

func replayable(name string) bool {
	if strings.HasPrefix(name, "X-Ratelimit-") || strings.HasPrefix(name, "Access-Control-") {
		return false
	}
	return !slices.Contains(perRequestHeaders, name)
}

func (w *captureWriter) commit(status int) {
	if w.committed {
		return
	}
	w.committed = true
	w.status = status
	w.own = http.Header{}
	for name, values := range w.Header() {
		if replayable(name) && !slices.Equal(w.before[name], values) {
			w.own[name] = slices.Clone(values)
		}
	}
}

func (w *captureWriter) WriteHeader(status int) {
	w.commit(status)
	w.ResponseWriter.WriteHeader(status)
}

func (w *captureWriter) Write(b []byte) (int, error) {
	w.commit(http.StatusOK)
	if w.buf.Len()+len(b) > w.limit {
		w.overflow = true
	} else {
		w.buf.Write(b)
	}
	return w.ResponseWriter.Write(b)
}

func (w *captureWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

func (e *idempotencyEntry) replay(w http.ResponseWriter) {
	h := w.Header()
	for k, v := range e.header {
		h[k] = append([]string(nil), v...)
	}
	h.Set("X-Idempotency-Replayed", "true")
	w.WriteHeader(e.status)
	_, _ = w.Write(e.body)
}

// Idempotency makes POST and PATCH requests carrying an Idempotency-Key
// safe to retry
func Idempotency(store *IdempotencyStore) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost && r.Method != http.MethodPatch {
				next.ServeHTTP(w, r)
				return
			}
			idemKey := r.Header.Get("Idempotency-Key")
			if idemKey == "" {
				next.ServeHTTP(w, r)
				return
			}
			if len(idemKey) > MaxIdempotencyKeyLength {
				model.NewBadRequestError("Idempotency-Key is longer than 255 characters").WriteJSON(w)
				return
			}

			body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, store.cfg.MaxRequestBody))
			if err != nil {
				var tooLarge *http.MaxBytesError
				if errors.As(err, &tooLarge) {
					model.NewBadRequestError("request body too large").WriteJSON(w)
					return
				}
				model.NewBadRequestError("could not read request body").WriteJSON(w)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			key := scopeKey(callerKey(r, remoteHost(r)), idemKey)
			fingerprint := requestFingerprint(r.Method, r.URL.Path, r.Header.Get("Accept"), body)

			for {
				e, owner := store.claim(key, fingerprint)
				if owner {
					store.run(key, e, next, w, r)
					return
				}
				if e.fingerprint != fingerprint {
					model.NewValidationError([]model.FieldError{{
						Field:   "Idempotency-Key",
						Message: "was already used for a different request",
					}}).WriteJSON(w)
					return
				}

				select {
				case <-e.ready:
				case <-r.Context().Done():
					return
				}
				// the first attempt was dropped; try to own the key
				if e.status == 0 {
					continue
				}
				e.replay(w)
				return
			}
		})
	}
}
