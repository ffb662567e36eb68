package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/eternal-ai/api/internal/database"
	"github.com/eternal-ai/api/internal/model"
	"github.com/eternal-ai/api/internal/service"
)

// CredentialsRepository handles password hashes. Documents are keyed by the
// normalized email so a second registration of the same address conflicts
// inside one transaction.
type CredentialsRepository struct {
	store database.Store
}

// NewCredentialsRepository creates a new credentials repository
func NewCredentialsRepository(store database.Store) *CredentialsRepository {
	return &CredentialsRepository{store: store}
}

func credentialsKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Create stores credentials, failing with ErrEmailAlreadyExists when the
// email is registered
func (r *CredentialsRepository) Create(ctx context.Context, creds *model.Credentials) error {
	key := credentialsKey(creds.Email)
	if key == "" {
		return service.ErrInvalidEmail
	}
	doc, err := database.Encode(creds)
	if err != nil {
		return err
	}
	return r.store.Transact(ctx, CollectionCredentials, key, func(_ database.Document, exists bool) (database.Document, error) {
		if exists {
			return nil, fmt.Errorf("%w: %s", service.ErrEmailAlreadyExists, key)
		}
		return doc, nil
	})
}

// GetByEmail retrieves credentials by email
func (r *CredentialsRepository) GetByEmail(ctx context.Context, email string) (*model.Credentials, error) {
	key := credentialsKey(email)
	if key == "" {
		return nil, nil
	}
	return getDoc[model.Credentials](ctx, r.store, CollectionCredentials, key)
}
