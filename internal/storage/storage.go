package storage

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrImageTooLarge is returned when a decoded image exceeds the limit
	ErrImageTooLarge = errors.New("image too large")

	// ErrInvalidImage is returned when the payload is not valid base64
	ErrInvalidImage = errors.New("invalid image data")

	// ErrUpload wraps backend failures
	ErrUpload = errors.New("upload failed")
)

// Object path prefixes
const (
	PrefixProfile = "profile_images"
	PrefixFace    = "face_uploads"
	PrefixPalm    = "palm_uploads"
)

const defaultContentType = "image/jpeg"

// Object is a blob ready to upload
type Object struct {
	Path        string
	ContentType string
	Data        []byte
}

// BlobStore stores objects and hands out download URLs
type BlobStore interface {
	Upload(ctx context.Context, obj Object) (string, error)
	Delete(ctx context.Context, path string) error
}

// ObjectPath returns "{prefix}/{userID}_{unixMillis}"
func ObjectPath(prefix, userID string, at time.Time) string {
	return fmt.Sprintf("%s/%s_%d", prefix, userID, at.UnixMilli())
}

// DecodeDataURL parses "data:<mime>;base64,<payload>". Bare base64 is
// accepted and treated as JPEG. maxBytes <= 0 disables the size check.
func DecodeDataURL(s string, maxBytes int) (Object, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Object{}, fmt.Errorf("%w: empty", ErrInvalidImage)
	}

	contentType := defaultContentType
	payload := s
	if strings.HasPrefix(s, "data:") {
		header, body, ok := strings.Cut(s, ",")
		if !ok {
			return Object{}, fmt.Errorf("%w: missing payload", ErrInvalidImage)
		}
		meta := strings.TrimPrefix(header, "data:")
		if !strings.HasSuffix(meta, ";base64") {
			return Object{}, fmt.Errorf("%w: only base64 data URLs are supported", ErrInvalidImage)
		}
		if mime := strings.TrimSuffix(meta, ";base64"); mime != "" {
			contentType = mime
		}
		payload = body
	}

	// cheap upper bound before decoding
	if maxBytes > 0 && base64.StdEncoding.DecodedLen(len(payload)) > maxBytes+2 {
		return Object{}, ErrImageTooLarge
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
		if err != nil {
			return Object{}, fmt.Errorf("%w: %v", ErrInvalidImage, err)
		}
	}
	if maxBytes > 0 && len(data) > maxBytes {
		return Object{}, ErrImageTooLarge
	}

	return Object{ContentType: contentType, Data: data}, nil
}
