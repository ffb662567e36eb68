package repository

import (
	"context"

	"github.com/eternal-ai/api/internal/database"
	"github.com/eternal-ai/api/internal/model"
	"github.com/eternal-ai/api/internal/service"
)

// KarmicRepository handles the karmic pipeline documents
type KarmicRepository struct {
	store database.Store
}

// NewKarmicRepository creates a new karmic repository
func NewKarmicRepository(store database.Store) *KarmicRepository {
	return &KarmicRepository{store: store}
}

// SaveOnboarding writes lifePredictorOnboarding and vedastroData together
func (r *KarmicRepository) SaveOnboarding(ctx context.Context, userID string, onboarding *model.LifePredictorOnboarding, raw *model.VedastroRecord) error {
	onboardingDoc, err := database.Encode(onboarding)
	if err != nil {
		return err
	}
	rawDoc, err := database.Encode(raw)
	if err != nil {
		return err
	}
	return r.store.Batch().
		Set(CollectionLifePredictorInput, userID, onboardingDoc).
		Set(CollectionVedastroData, userID, rawDoc).
		Commit(ctx)
}

// GetOnboarding returns the stored birth details
func (r *KarmicRepository) GetOnboarding(ctx context.Context, userID string) (*model.LifePredictorOnboarding, error) {
	return getDoc[model.LifePredictorOnboarding](ctx, r.store, CollectionLifePredictorInput, userID)
}

// SaveReport writes the report, its summary and the userResults flag in one
// batch
func (r *KarmicRepository) SaveReport(ctx context.Context, userID string, report *model.KarmicReport, summary *model.LifePredictorReport) error {
	reportDoc, err := database.Encode(report)
	if err != nil {
		return err
	}
	summaryDoc, err := database.Encode(summary)
	if err != nil {
		return err
	}
	return r.store.Batch().
		Set(CollectionKarmicReports, userID, reportDoc).
		Set(CollectionLifePredictorReports, userID, summaryDoc).
		Merge(CollectionUserResults, userID, database.Document{"karmic": true}).
		Commit(ctx)
}

// GetReport returns the karmic report of a user
func (r *KarmicRepository) GetReport(ctx context.Context, userID string) (*model.KarmicReport, error) {
	return getDoc[model.KarmicReport](ctx, r.store, CollectionKarmicReports, userID)
}

// ListFailedReports returns up to limit reports whose AI step failed
func (r *KarmicRepository) ListFailedReports(ctx context.Context, limit int) ([]service.FailedKarmicReport, error) {
	records, err := r.store.Find(ctx, CollectionKarmicReports, database.Query{
		Field: "aiReportSuccess",
		Value: false,
		Limit: limit,
	})
	if err != nil {
		return nil, err
	}
	reports, err := decodeRecords[model.KarmicReport](records, nil)
	if err != nil {
		return nil, err
	}
	failed := make([]service.FailedKarmicReport, len(reports))
	for i, report := range reports {
		failed[i] = service.FailedKarmicReport{UserID: records[i].ID, RetryCount: report.RetryCount}
	}
	return failed, nil
}

// CountRetry bumps retryCount on the stored report. A missing report is
// left alone.
func (r *KarmicRepository) CountRetry(ctx context.Context, userID string) error {
	return r.store.Transact(ctx, CollectionKarmicReports, userID, func(current database.Document, exists bool) (database.Document, error) {
		if !exists {
			return nil, nil
		}
		var report model.KarmicReport
		if err := database.Decode(current, &report); err != nil {
			return nil, err
		}
		next := current.Clone()
		next["retryCount"] = report.RetryCount + 1
		return next, nil
	})
}
