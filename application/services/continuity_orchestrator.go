package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"lorekeeper-backend/application/detectors"
	"lorekeeper-backend/application/ports"
	"lorekeeper-backend/domain/core/entities"
	"lorekeeper-backend/pkg/observability"
)

// insightDescriptionLimit caps how many event descriptions one insight quotes.
const insightDescriptionLimit = 3

// AnalysisResult is the synchronous output of one continuity run: the full
// event list plus the fixed per-category count summary. The summary always
// carries all six categories, including zero counts.
type AnalysisResult struct {
	UserID  string
	Events  []entities.ContinuityEvent
	Summary map[entities.EventType]int
	RanAt   time.Time
}

// detectorOutcome is the tagged result one detector task hands back to the
// fan-in loop. A failed detector carries err and zero events.
type detectorOutcome struct {
	name   string
	events []entities.ContinuityEvent
	err    error
}

// ContinuityOrchestrator runs the six continuity detectors over a user's
// memory windows. Detector failures, persistence failures, and insight store
// failures are all contained per detector or per call; the run itself only
// fails when every input is unreachable.
type ContinuityOrchestrator struct {
	fetcher   *WindowFetcher
	mu        sync.RWMutex
	detectors []detectors.Detector
	events    ports.ContinuityEventRepository
	insights  ports.InsightStore
	bus       ports.NotificationBus
	metrics   *observability.Collector
	tracer    trace.Tracer
	logger    *zap.Logger
	now       func() time.Time
}

// NewContinuityOrchestrator wires the orchestrator. The insight store is
// expected to already be wrapped with its circuit breaker; bus and metrics may
// be nil.
func NewContinuityOrchestrator(
	fetcher *WindowFetcher,
	detectorList []detectors.Detector,
	events ports.ContinuityEventRepository,
	insights ports.InsightStore,
	bus ports.NotificationBus,
	metrics *observability.Collector,
	logger *zap.Logger,
) *ContinuityOrchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContinuityOrchestrator{
		fetcher:   fetcher,
		detectors: detectorList,
		events:    events,
		insights:  insights,
		bus:       bus,
		metrics:   metrics,
		tracer:    otel.Tracer("continuity"),
		logger:    logger,
		now:       time.Now,
	}
}

// WithClock overrides the orchestrator's clock. Tests use this to pin the
// detector windows.
func (o *ContinuityOrchestrator) WithClock(now func() time.Time) *ContinuityOrchestrator {
	o.now = now
	return o
}

// ReplaceDetectors swaps the detector set. The rules watcher calls this after
// a hot reload; runs already in flight keep the set they started with.
func (o *ContinuityOrchestrator) ReplaceDetectors(detectorList []detectors.Detector) {
	o.mu.Lock()
	o.detectors = detectorList
	o.mu.Unlock()
}

// RunAnalysis fans the detectors out over their windows, persists each
// detector's events inside its own task, then synthesizes insights and the
// category summary from the joined results.
func (o *ContinuityOrchestrator) RunAnalysis(ctx context.Context, userID string) (*AnalysisResult, error) {
	ctx, span := o.tracer.Start(ctx, "orchestrator.RunAnalysis",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	now := o.now().UTC()
	started := time.Now()

	o.mu.RLock()
	detectorSet := o.detectors
	o.mu.RUnlock()

	outcomes := make(chan detectorOutcome, len(detectorSet))
	for _, detector := range detectorSet {
		go o.runDetector(ctx, detector, userID, now, outcomes)
	}

	allEvents := make([]entities.ContinuityEvent, 0)
	failures := 0
	for range detectorSet {
		outcome := <-outcomes
		if outcome.err != nil {
			failures++
			o.logger.Error("detector failed, contributing zero events",
				zap.String("user_id", userID),
				zap.String("detector", outcome.name),
				zap.Error(outcome.err),
			)
			if o.metrics != nil {
				o.metrics.DetectorFailures.WithLabelValues(outcome.name).Inc()
			}
			continue
		}
		if o.metrics != nil {
			o.metrics.DetectorEvents.WithLabelValues(outcome.name).Add(float64(len(outcome.events)))
		}
		allEvents = append(allEvents, outcome.events...)
	}

	// Deterministic output order: category, then detection order within it.
	sort.SliceStable(allEvents, func(i, j int) bool {
		return categoryRank(allEvents[i].Type) < categoryRank(allEvents[j].Type)
	})

	summary := make(map[entities.EventType]int, len(entities.AllEventTypes()))
	for _, eventType := range entities.AllEventTypes() {
		summary[eventType] = 0
	}
	for _, event := range allEvents {
		summary[event.Type]++
	}

	o.synthesizeInsights(ctx, userID, allEvents)
	o.notifyCompleted(ctx, userID, summary)

	span.SetAttributes(
		attribute.Int("events.count", len(allEvents)),
		attribute.Int("detectors.failed", failures),
	)
	if o.metrics != nil {
		status := "success"
		if failures > 0 {
			status = "partial"
		}
		o.metrics.AnalysisRuns.WithLabelValues("on_demand", status).Inc()
		o.metrics.AnalysisDuration.WithLabelValues("on_demand").Observe(time.Since(started).Seconds())
	}

	o.logger.Info("continuity analysis complete",
		zap.String("user_id", userID),
		zap.Int("events", len(allEvents)),
		zap.Int("failed_detectors", failures),
	)

	return &AnalysisResult{
		UserID:  userID,
		Events:  allEvents,
		Summary: summary,
		RanAt:   now,
	}, nil
}

// runDetector fetches one detector's windows, runs it, and persists its events
// inside the task so a store failure is contained the same way a detector
// failure is. Panics are recovered into the outcome.
func (o *ContinuityOrchestrator) runDetector(ctx context.Context, detector detectors.Detector, userID string, now time.Time, outcomes chan<- detectorOutcome) {
	defer func() {
		if r := recover(); r != nil {
			outcomes <- detectorOutcome{name: detector.Name(), err: fmt.Errorf("detector panic: %v", r)}
		}
	}()

	ctx, span := o.tracer.Start(ctx, "orchestrator.detector."+detector.Name())
	defer span.End()

	spec := detector.Windows()
	input := detectors.DetectInput{
		UserID: userID,
		Recent: o.fetcher.FetchWindow(ctx, userID, spec.RecentDays, now),
		Now:    now,
	}
	if spec.BaselineDays > 0 {
		input.Baseline = o.fetcher.FetchBaseline(ctx, userID, spec.BaselineDays, spec.BaselineGapDays, now)
	}
	if spec.NeedsEntries {
		input.Entries = o.fetcher.FetchEntries(ctx, userID, spec.RecentDays, now)
	}

	events, err := detector.Detect(ctx, input)
	if err != nil {
		outcomes <- detectorOutcome{name: detector.Name(), err: err}
		return
	}

	if len(events) > 0 {
		if err := o.events.SaveBatch(ctx, events); err != nil {
			outcomes <- detectorOutcome{name: detector.Name(), err: fmt.Errorf("persisting %d events: %w", len(events), err)}
			return
		}
	}

	outcomes <- detectorOutcome{name: detector.Name(), events: events}
}

// synthesizeInsights groups events by type and sends one templated insight per
// non-empty group through the insight store. Store failures are logged and
// never abort the remaining groups.
func (o *ContinuityOrchestrator) synthesizeInsights(ctx context.Context, userID string, events []entities.ContinuityEvent) {
	if o.insights == nil {
		return
	}

	grouped := make(map[entities.EventType][]entities.ContinuityEvent)
	for _, event := range events {
		grouped[event.Type] = append(grouped[event.Type], event)
	}

	for _, eventType := range entities.AllEventTypes() {
		group := grouped[eventType]
		if len(group) == 0 {
			continue
		}

		insight := buildInsight(userID, eventType, group)
		if err := o.insights.StoreInsight(ctx, insight); err != nil {
			o.logger.Warn("insight store rejected insight",
				zap.String("user_id", userID),
				zap.String("insight_type", insight.InsightType),
				zap.Error(err),
			)
			if o.metrics != nil {
				o.metrics.InsightFailures.Inc()
			}
			continue
		}
		if o.metrics != nil {
			o.metrics.InsightsStored.Inc()
		}
	}
}

func (o *ContinuityOrchestrator) notifyCompleted(ctx context.Context, userID string, summary map[entities.EventType]int) {
	if o.bus == nil {
		return
	}
	if err := o.bus.PublishAnalysisCompleted(ctx, userID, summary); err != nil {
		o.logger.Warn("analysis completion notification failed",
			zap.String("user_id", userID),
			zap.Error(err),
		)
	}
}

// buildInsight renders one natural-language insight for a non-empty event
// group: the count, up to three descriptions, and provenance back to every
// source component.
func buildInsight(userID string, eventType entities.EventType, group []entities.ContinuityEvent) entities.Insight {
	descriptions := make([]string, 0, insightDescriptionLimit)
	sourceIDs := make([]string, 0)
	maxSeverity := 0
	for _, event := range group {
		if len(descriptions) < insightDescriptionLimit {
			descriptions = append(descriptions, event.Description)
		}
		sourceIDs = append(sourceIDs, event.SourceComponents...)
		if event.Severity > maxSeverity {
			maxSeverity = event.Severity
		}
	}

	noun := insightNoun(eventType)
	text := fmt.Sprintf("Found %d %s in your recent journal: %s",
		len(group), pluralize(noun, len(group)), strings.Join(descriptions, "; "))

	return entities.Insight{
		UserID:             userID,
		InsightType:        string(eventType),
		Text:               text,
		Confidence:         math.Min(0.95, 0.5+0.05*float64(len(group))),
		SourceComponentIDs: dedupStrings(sourceIDs),
		Tags:               []string{"continuity", string(eventType)},
		Metadata: map[string]interface{}{
			"event_count":  len(group),
			"max_severity": maxSeverity,
		},
	}
}

func insightNoun(eventType entities.EventType) string {
	switch eventType {
	case entities.EventTypeContradiction:
		return "contradiction"
	case entities.EventTypeAbandonedGoal:
		return "stale goal"
	case entities.EventTypeArcShift:
		return "narrative shift"
	case entities.EventTypeIdentityDrift:
		return "identity change"
	case entities.EventTypeEmotionalTransition:
		return "emotional transition"
	case entities.EventTypeThematicDrift:
		return "thematic change"
	}
	return "signal"
}

func pluralize(noun string, count int) string {
	if count == 1 {
		return noun
	}
	return noun + "s"
}

func dedupStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func categoryRank(eventType entities.EventType) int {
	for i, t := range entities.AllEventTypes() {
		if t == eventType {
			return i
		}
	}
	return len(entities.AllEventTypes())
}
