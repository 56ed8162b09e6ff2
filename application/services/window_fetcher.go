package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"lorekeeper-backend/application/ports"
	"lorekeeper-backend/domain/core/entities"
)

// windowComponentLimit caps any single window fetch so one prolific user cannot
// stall a scheduled batch.
const windowComponentLimit = 300

// WindowFetcher loads the time windows the detectors scan. Upstream read
// failures are logged and surfaced as empty windows so a flaky datastore
// degrades a run instead of aborting it.
type WindowFetcher struct {
	components ports.ComponentRepository
	entries    ports.EntryRepository
	logger     *zap.Logger
}

// NewWindowFetcher creates a window fetcher.
func NewWindowFetcher(components ports.ComponentRepository, entries ports.EntryRepository, logger *zap.Logger) *WindowFetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WindowFetcher{components: components, entries: entries, logger: logger}
}

// FetchWindow returns the user's components from the last `days` days before
// end. Errors are logged and reported as an empty window.
func (f *WindowFetcher) FetchWindow(ctx context.Context, userID string, days int, end time.Time) []entities.MemoryComponent {
	since := end.AddDate(0, 0, -days)
	components, err := f.components.FindByUserSince(ctx, userID, since, &end, windowComponentLimit)
	if err != nil {
		f.logger.Warn("window fetch failed, treating as empty",
			zap.String("user_id", userID),
			zap.Int("days", days),
			zap.Error(err),
		)
		return nil
	}
	return components
}

// FetchBaseline returns the baseline window for detectors that compare recent
// activity against history: `days` days ending `gapDays` before end, so the
// baseline excludes the recent window.
func (f *WindowFetcher) FetchBaseline(ctx context.Context, userID string, days, gapDays int, end time.Time) []entities.MemoryComponent {
	baselineEnd := end.AddDate(0, 0, -gapDays)
	return f.FetchWindow(ctx, userID, days, baselineEnd)
}

// FetchEntries returns the user's raw entries from the last `days` days.
// Only the goal-progress fallback scan reads these.
func (f *WindowFetcher) FetchEntries(ctx context.Context, userID string, days int, end time.Time) []entities.Entry {
	since := end.AddDate(0, 0, -days)
	entries, err := f.entries.FindByUserSince(ctx, userID, since, windowComponentLimit)
	if err != nil {
		f.logger.Warn("entry fetch failed, treating as empty",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return nil
	}
	return entries
}
