package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/eternal-ai/api/internal/database"
	"github.com/eternal-ai/api/internal/model"
	"github.com/eternal-ai/api/internal/service"
)

// UserRepository handles users/{uid} documents
type UserRepository struct {
	store database.Store
}

// NewUserRepository creates a new user repository
func NewUserRepository(store database.Store) *UserRepository {
	return &UserRepository{store: store}
}

// Create stores a new user. It fails with database.ErrDuplicate when the id
// is taken.
func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	doc, err := database.Encode(withDefaults(user))
	if err != nil {
		return err
	}
	return r.store.Transact(ctx, CollectionUsers, user.ID, func(_ database.Document, exists bool) (database.Document, error) {
		if exists {
			return nil, fmt.Errorf("%w: user %s", database.ErrDuplicate, user.ID)
		}
		return doc, nil
	})
}

// GetByID retrieves a user by id
func (r *UserRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	user, err := getDoc[model.User](ctx, r.store, CollectionUsers, id)
	if err != nil || user == nil {
		return nil, err
	}
	user.ID = id
	return user, nil
}

// GetByEmail retrieves a user by email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	records, err := r.store.Find(ctx, CollectionUsers, database.Query{
		Field: "email",
		Value: strings.ToLower(strings.TrimSpace(email)),
		Limit: 1,
	})
	if err != nil {
		return nil, err
	}
	users, err := decodeRecords(records, func(u *model.User, id string) { u.ID = id })
	if err != nil || len(users) == 0 {
		return nil, err
	}
	return &users[0], nil
}

// Update applies fn to the stored user atomically
func (r *UserRepository) Update(ctx context.Context, id string, fn func(u *model.User) error) (*model.User, error) {
	return transactDoc(ctx, r.store, CollectionUsers, id, func(u *model.User, exists bool) error {
		if !exists {
			return service.ErrUserNotFound
		}
		u.ID = id
		if err := fn(u); err != nil {
			return err
		}
		withDefaults(u)
		return nil
	})
}

// Upsert applies fn to the stored user, or to a fresh user carrying id
func (r *UserRepository) Upsert(ctx context.Context, id string, fn func(u *model.User, exists bool) error) (*model.User, error) {
	return transactDoc(ctx, r.store, CollectionUsers, id, func(u *model.User, exists bool) error {
		u.ID = id
		if err := fn(u, exists); err != nil {
			return err
		}
		withDefaults(u)
		return nil
	})
}

// withDefaults keeps list fields as empty arrays rather than null
func withDefaults(u *model.User) *model.User {
	if u.UnlockedReports == nil {
		u.UnlockedReports = []string{}
	}
	if u.RecentActivity == nil {
		u.RecentActivity = []string{}
	}
	return u
}
