package repository

import (
	"context"
	"time"

	"github.com/eternal-ai/api/internal/database"
	"github.com/eternal-ai/api/internal/model"
)

// TokenRepository keeps refresh tokens in refreshTokens/{hash}
type TokenRepository struct {
	store database.Store
}

// NewTokenRepository creates a new token repository
func NewTokenRepository(store database.Store) *TokenRepository {
	return &TokenRepository{store: store}
}

func (r *TokenRepository) Save(ctx context.Context, token *model.RefreshToken) error {
	if token.IssuedAt.IsZero() {
		token.IssuedAt = time.Now().UTC()
	}
	return setDoc(ctx, r.store, CollectionRefreshTokens, token.Hash, token)
}

// FindByHash returns nil for an unknown hash
func (r *TokenRepository) FindByHash(ctx context.Context, hash string) (*model.RefreshToken, error) {
	token, err := getDoc[model.RefreshToken](ctx, r.store, CollectionRefreshTokens, hash)
	if token != nil {
		token.Hash = hash
	}
	return token, err
}

// Revoke marks a live token revoked and reports whether this call did it.
// An unknown or already revoked token is left as is and reports false, so
// of two concurrent revocations exactly one wins.
func (r *TokenRepository) Revoke(ctx context.Context, hash, replacedBy string, at time.Time) (bool, error) {
	var won bool
	err := r.transact(ctx, hash, func(t *model.RefreshToken) bool {
		won = !t.Revoked
		if won {
			t.Revoked, t.RevokedAt, t.ReplacedBy = true, &at, replacedBy
		}
		return won
	})
	if err != nil {
		return false, err
	}
	return won, nil
}

// RevokeForUser revokes the user's live tokens in one batch and returns
// how many it touched
func (r *TokenRepository) RevokeForUser(ctx context.Context, userID string, at time.Time) (int, error) {
	records, err := r.store.Find(ctx, CollectionRefreshTokens, database.Query{Field: "userId", Value: userID})
	if err != nil {
		return 0, err
	}

	batch := r.store.Batch()
	for _, rec := range records {
		if revoked, _ := rec.Data["revoked"].(bool); revoked {
			continue
		}
		batch.Merge(CollectionRefreshTokens, rec.ID, database.Document{
			"revoked":   true,
			"revokedAt": database.FormatTime(at),
		})
	}
	if batch.Len() == 0 {
		return 0, nil
	}
	return batch.Len(), batch.Commit(ctx)
}

// DeleteExpired removes tokens whose expiry is not after before, revoked
// or not. The store only matches on equality, so both revoked states are
// listed and the expiry compared here.
func (r *TokenRepository) DeleteExpired(ctx context.Context, before time.Time) (int, error) {
	deleted := 0
	for _, revoked := range []bool{false, true} {
		records, err := r.store.Find(ctx, CollectionRefreshTokens, database.Query{Field: "revoked", Value: revoked})
		if err != nil {
			return deleted, err
		}
		tokens, err := decodeRecords(records, func(t *model.RefreshToken, id string) { t.Hash = id })
		if err != nil {
			return deleted, err
		}
		for _, t := range tokens {
			if !t.Expired(before) {
				continue
			}
			if err := r.store.Delete(ctx, CollectionRefreshTokens, t.Hash); err != nil {
				return deleted, err
			}
			deleted++
		}
	}
	return deleted, nil
}

// transact applies fn to a stored token, writing only when fn reports a
// change. fn may run more than once when the store retries.
func (r *TokenRepository) transact(ctx context.Context, hash string, fn func(t *model.RefreshToken) bool) error {
	return r.store.Transact(ctx, CollectionRefreshTokens, hash, func(current database.Document, exists bool) (database.Document, error) {
		if !exists {
			return nil, nil
		}
		var t model.RefreshToken
		if err := database.Decode(current, &t); err != nil {
			return nil, err
		}
		if !fn(&t) {
			return nil, nil
		}
		return database.Encode(&t)
	})
}
