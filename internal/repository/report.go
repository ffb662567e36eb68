package repository

import (
	"context"

	"github.com/eternal-ai/api/internal/database"
	"github.com/eternal-ai/api/internal/model"
)

// ReportRepository handles the assessment reports, face readings, the
// userResults summary and numerology reports
type ReportRepository struct {
	store database.Store
}

// NewReportRepository creates a new report repository
func NewReportRepository(store database.Store) *ReportRepository {
	return &ReportRepository{store: store}
}

// saveWithAnswers writes a report together with the answers it came from
func (r *ReportRepository) saveWithAnswers(ctx context.Context, userID, answersColl, reportColl string, answers, report any) error {
	answersDoc, err := database.Encode(answers)
	if err != nil {
		return err
	}
	reportDoc, err := database.Encode(report)
	if err != nil {
		return err
	}
	return r.store.Batch().
		Set(answersColl, userID, answersDoc).
		Set(reportColl, userID, reportDoc).
		Commit(ctx)
}

// SaveAura stores the aura answers and report
func (r *ReportRepository) SaveAura(ctx context.Context, userID string, answers *model.StoredAnswers, report *model.AuraReport) error {
	return r.saveWithAnswers(ctx, userID, CollectionAuraAnswers, CollectionAuraReports, answers, report)
}

// GetAura returns the aura report
func (r *ReportRepository) GetAura(ctx context.Context, userID string) (*model.AuraReport, error) {
	return getDoc[model.AuraReport](ctx, r.store, CollectionAuraReports, userID)
}

// SaveVibrational stores the vibrational answers and report
func (r *ReportRepository) SaveVibrational(ctx context.Context, userID string, answers *model.StoredAnswers, report *model.VibrationalReport) error {
	return r.saveWithAnswers(ctx, userID, CollectionVibrationalAnswers, CollectionVibrationalReports, answers, report)
}

// GetVibrational returns the vibrational report
func (r *ReportRepository) GetVibrational(ctx context.Context, userID string) (*model.VibrationalReport, error) {
	return getDoc[model.VibrationalReport](ctx, r.store, CollectionVibrationalReports, userID)
}

// SaveFaceReading stores the face and palm reading
func (r *ReportRepository) SaveFaceReading(ctx context.Context, userID string, reading *model.FaceReading) error {
	return setDoc(ctx, r.store, CollectionFaceReadings, userID, reading)
}

// GetFaceReading returns the face and palm reading
func (r *ReportRepository) GetFaceReading(ctx context.Context, userID string) (*model.FaceReading, error) {
	return getDoc[model.FaceReading](ctx, r.store, CollectionFaceReadings, userID)
}

// MergeResults merges into userResults. Unset sections are left alone.
func (r *ReportRepository) MergeResults(ctx context.Context, userID string, results *model.UserResults) error {
	return mergeDoc(ctx, r.store, CollectionUserResults, userID, results)
}

// GetResults returns the userResults summary
func (r *ReportRepository) GetResults(ctx context.Context, userID string) (*model.UserResults, error) {
	return getDoc[model.UserResults](ctx, r.store, CollectionUserResults, userID)
}

// AddNumerology stores a numerology report under a generated id
func (r *ReportRepository) AddNumerology(ctx context.Context, userID string, report *model.NumerologyReport) (string, error) {
	doc, err := database.Encode(report)
	if err != nil {
		return "", err
	}
	delete(doc, "id")
	doc["userId"] = userID
	return r.store.Add(ctx, numerologyCollection(userID), doc)
}

// ListNumerology returns the numerology reports of a user, newest first
func (r *ReportRepository) ListNumerology(ctx context.Context, userID string) ([]model.NumerologyReport, error) {
	records, err := r.store.Find(ctx, numerologyCollection(userID), database.Query{
		Field:   "userId",
		Value:   userID,
		OrderBy: "createdAt",
		Desc:    true,
	})
	if err != nil {
		return nil, err
	}
	return decodeRecords(records, func(n *model.NumerologyReport, id string) { n.ID = id })
}
