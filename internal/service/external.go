package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/eternal-ai/api/internal/provider"
	"github.com/eternal-ai/api/internal/storage"
)

// LLM is a chat completion backend
type LLM interface {
	Configured() bool
	Complete(ctx context.Context, req provider.CompletionRequest) (*provider.Completion, error)
}

// Geocoder resolves a place name to coordinates
type Geocoder interface {
	Geocode(ctx context.Context, address string) (provider.Location, error)
}

// AstrologyClient fetches formatted Vedic astrology data
type AstrologyClient interface {
	Fetch(ctx context.Context, b provider.BirthData) (*provider.AstrologyResult, error)
}

// NumerologyClient fetches numerology numbers and charts
type NumerologyClient interface {
	Configured() bool
	Bundle(ctx context.Context, p provider.Person) (provider.Bundle, error)
	BirthChartSVG(ctx context.Context, req provider.ChartRequest) (string, error)
}

// BlobStore stores uploaded images
type BlobStore interface {
	Upload(ctx context.Context, obj storage.Object) (string, error)
	Delete(ctx context.Context, path string) error
}

// complete runs one completion. A missing backend
// yields ErrLLMNotConfigured, any other failure wraps ErrUpstream.
func complete(ctx context.Context, llm LLM, req provider.CompletionRequest) (*provider.Completion, error) {
	if llm == nil || !llm.Configured() {
		return nil, ErrLLMNotConfigured
	}
	c, err := llm.Complete(ctx, req)
	if err != nil {
		if errors.Is(err, provider.ErrNotConfigured) {
			return nil, ErrLLMNotConfigured
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, upstream("language model", err)
	}
	return c, nil
}

// uploadImage decodes a data URL and stores it under prefix
func uploadImage(ctx context.Context, blobs BlobStore, dataURL, prefix, userID string, maxBytes int, now func() time.Time) (path, url string, err error) {
	if blobs == nil {
		return "", "", ErrStorageNotConfigured
	}
	obj, err := storage.DecodeDataURL(dataURL, maxBytes)
	if err != nil {
		return "", "", err
	}
	obj.Path = storage.ObjectPath(prefix, userID, now())
	url, err = blobs.Upload(ctx, obj)
	if err != nil {
		slog.Error("image upload failed", "path", obj.Path, "error", err)
		return "", "", fmt.Errorf("upload %s: %w", prefix, err)
	}
	return obj.Path, url, nil
}

// discardImages removes uploads whose owning record was never written.
// Cleanup outlives a cancelled request.
func discardImages(ctx context.Context, blobs BlobStore, paths ...string) {
	ctx = context.WithoutCancel(ctx)
	for _, path := range paths {
		if path == "" {
			continue
		}
		if err := blobs.Delete(ctx, path); err != nil {
			slog.ErrorContext(ctx, "orphaned upload not removed", "path", path, "error", err)
		}
	}
}
