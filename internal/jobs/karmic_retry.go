package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/eternal-ai/api/internal/model"
	"github.com/eternal-ai/api/internal/service"
)

// MaxKarmicRetries is how many times a failed report is regenerated before
// the job leaves it alone
const MaxKarmicRetries = 3

// KarmicRegenerator finds and rebuilds karmic reports whose AI step failed
type KarmicRegenerator interface {
	FailedReports(ctx context.Context, limit int) ([]service.FailedKarmicReport, error)
	Regenerate(ctx context.Context, userID string) (*model.KarmicReport, error)
}

// KarmicRetry periodically regenerates failed karmic reports from their
// stored inputs
type KarmicRetry struct {
	*loop
	karmic KarmicRegenerator
	batch  int
}

// NewKarmicRetry creates a karmic retry job
func NewKarmicRetry(karmic KarmicRegenerator, interval time.Duration, batch int) *KarmicRetry {
	if interval <= 0 {
		interval = 30 * time.Minute
	}
	if batch <= 0 {
		batch = 10
	}
	j := &KarmicRetry{karmic: karmic, batch: batch}
	j.loop = newLoop("karmic_retry", interval, 30*time.Second, j.RunOnce)
	return j
}

// RunOnce retries up to one batch of failed reports. A failing report does
// not stop the rest of the batch.
func (j *KarmicRetry) RunOnce(ctx context.Context) error {
	// capped reports stay failed forever, so filter before batching
	failed, err := j.karmic.FailedReports(ctx, 0)
	if err != nil {
		return fmt.Errorf("list failed karmic reports: %w", err)
	}

	var errs []error
	retried, recovered := 0, 0
	for _, f := range failed {
		if f.RetryCount >= MaxKarmicRetries {
			continue
		}
		if retried == j.batch {
			break
		}
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		retried++
		report, err := j.karmic.Regenerate(ctx, f.UserID)
		if err != nil {
			slog.Warn("karmic retry failed",
				slog.String("user_id", f.UserID),
				slog.Int("retry_count", f.RetryCount),
				slog.String("error", err.Error()),
			)
			errs = append(errs, fmt.Errorf("user %s: %w", f.UserID, err))
			continue
		}
		if report.AIReportSuccess {
			recovered++
		}
	}

	if retried > 0 {
		slog.Info("karmic retry pass finished",
			slog.Int("retried", retried),
			slog.Int("recovered", recovered),
		)
	}
	return errors.Join(errs...)
}
