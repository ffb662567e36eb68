package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/eternal-ai/api/internal/database"
)

// Collection names
const (
	CollectionUsers                = "users"
	CollectionCredentials          = "credentials"
	CollectionRefreshTokens        = "refreshTokens"
	CollectionSoulAnswers          = "YourSoulAnswers"
	CollectionUserOnboarding       = "userOnboarding"
	CollectionOnboardingResponses  = "onboardingResponses"
	CollectionLifePredictorInput   = "lifePredictorOnboarding"
	CollectionLifePredictorReports = "lifePredictorReports"
	CollectionVedastroData         = "vedastroData"
	CollectionKarmicReports        = "karmicReports"
	CollectionKarmicChats          = "karmicReportChats"
	CollectionVibrationalAnswers   = "vibrationalAnswers"
	CollectionVibrationalReports   = "vibrationalReports"
	CollectionAuraAnswers          = "auraAnswers"
	CollectionAuraReports          = "auraReports"
	CollectionUserChats            = "userChats"
	CollectionSoulPathAnswers      = "userSoulPathAnswers"
	CollectionUserResults          = "userResults"
	CollectionFaceReadings         = "faceReadings"
)

// numerologyCollection is the per user numerology subcollection
func numerologyCollection(userID string) string {
	return CollectionUsers + "/" + userID + "/numerologyReports"
}

// getDoc loads collection/id into a new T. Absent documents yield nil.
func getDoc[T any](ctx context.Context, store database.Store, collection, id string) (*T, error) {
	doc, err := store.Get(ctx, collection, id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	var v T
	if err := database.Decode(doc, &v); err != nil {
		return nil, fmt.Errorf("%s/%s: %w", collection, id, err)
	}
	return &v, nil
}

// setDoc overwrites collection/id with v
func setDoc(ctx context.Context, store database.Store, collection, id string, v any) error {
	doc, err := database.Encode(v)
	if err != nil {
		return err
	}
	return store.Set(ctx, collection, id, doc)
}

// mergeDoc deep-merges v into collection/id
func mergeDoc(ctx context.Context, store database.Store, collection, id string, v any) error {
	doc, err := database.Encode(v)
	if err != nil {
		return err
	}
	return store.Merge(ctx, collection, id, doc)
}

// decodeRecords decodes every record, handing each id to setID
func decodeRecords[T any](records []database.Record, setID func(v *T, id string)) ([]T, error) {
	out := make([]T, 0, len(records))
	for _, rec := range records {
		var v T
		if err := database.Decode(rec.Data, &v); err != nil {
			return nil, fmt.Errorf("record %s: %w", rec.ID, err)
		}
		if setID != nil {
			setID(&v, rec.ID)
		}
		out = append(out, v)
	}
	return out, nil
}

// transactDoc runs fn on the decoded document inside a store transaction
// and stores what fn leaves behind. The returned value is the stored state.
func transactDoc[T any](ctx context.Context, store database.Store, collection, id string, fn func(v *T, exists bool) error) (*T, error) {
	var result *T
	err := store.Transact(ctx, collection, id, func(current database.Document, exists bool) (database.Document, error) {
		var v T
		if exists {
			if err := database.Decode(current, &v); err != nil {
				return nil, err
			}
		}
		if err := fn(&v, exists); err != nil {
			return nil, err
		}
		doc, err := database.Encode(&v)
		if err != nil {
			return nil, err
		}
		result = &v
		return doc, nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
