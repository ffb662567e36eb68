package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/eternal-ai/api/internal/middleware"
	"github.com/eternal-ai/api/internal/model"
)

// maxBodyBytes bounds request bodies. Two base64 images fit comfortably.
const maxBodyBytes = 8 << 20

// envelope is the body of every successful response. Links point at
// related resources the client is likely to fetch next.
type envelope struct {
	Data  any               `json:"data"`
	Count *int              `json:"count,omitempty"`
	Links map[string]string `json:"_links,omitempty"`
}

// WriteJSON encodes v with the given status; a nil v sends headers only
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("response encode failed", slog.String("error", err.Error()))
	}
}

func WriteData(w http.ResponseWriter, status int, data any, links map[string]string) {
	WriteJSON(w, status, envelope{Data: data, Links: links})
}

// WriteCollection sends a list along with its length
func WriteCollection(w http.ResponseWriter, status int, data any, count int, links map[string]string) {
	WriteJSON(w, status, envelope{Data: data, Count: &count, Links: links})
}

func WriteError(w http.ResponseWriter, problem *model.ProblemDetails) {
	problem.WriteJSON(w)
}

// DecodeJSON reads a single JSON value, rejecting unknown fields and
// trailing data
func DecodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("unexpected data after JSON body")
	}
	return nil
}

func WriteNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// validator is implemented by request bodies that check themselves
type validator interface {
	Validate() []model.FieldError
}

// decodeRequest decodes the body into v and runs its validation. It writes
// the error response and returns false when either fails.
func decodeRequest(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := DecodeJSON(r, v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			WriteError(w, model.NewBadRequestError("request body too large"))
			return false
		}
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return false
	}
	if val, ok := v.(validator); ok {
		if errs := val.Validate(); len(errs) > 0 {
			WriteError(w, model.NewValidationError(errs))
			return false
		}
	}
	return true
}

// requireUser returns the authenticated user id, writing a 401 when the
// request carries none
func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		WriteError(w, model.NewUnauthorizedError("authentication required"))
		return "", false
	}
	return userID, true
}

// writeServiceError maps err and logs it when the client cannot fix it
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, operation string) {
	problem := MapServiceErrorWithContext(err, operation)
	if problem.Status >= http.StatusInternalServerError {
		slog.Error(operation+" failed",
			slog.String("error", err.Error()),
			slog.String("user_id", middleware.GetUserID(r.Context())),
			slog.String("request_id", middleware.GetRequestID(r.Context())),
		)
	}
	WriteError(w, problem)
}
