package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"lorekeeper-backend/application/detectors"
	"lorekeeper-backend/application/ports"
	"lorekeeper-backend/domain/core/entities"
	domainservices "lorekeeper-backend/domain/services"
	"lorekeeper-backend/pkg/observability"
)

const (
	// relationshipLookbackDays bounds how far back mentions are collected.
	relationshipLookbackDays = 365
	// relationshipComponentLimit caps the mention scan.
	relationshipComponentLimit = 1000
	// coOccurrenceMinShared is the minimum shared-mention count before an
	// inferred edge is created.
	coOccurrenceMinShared = 2
	// defaultRelationshipCacheTTL is how long a computed payload stays fresh
	// absent a cardinality change, when no TTL is configured.
	defaultRelationshipCacheTTL = 6 * time.Hour
)

// RelationshipPayload is the full analytics output for one user. The shape is
// identical for real and synthetic results so clients never special-case
// empty accounts.
type RelationshipPayload struct {
	UserID         string               `json:"user_id"`
	GeneratedAt    time.Time            `json:"generated_at"`
	Synthetic      bool                 `json:"synthetic"`
	Characters     []CharacterAnalytics `json:"characters"`
	Graph          RelationshipGraph    `json:"graph"`
	ComponentCount int                  `json:"component_count"`
}

// RelationshipGraph is the social graph: one node per character, explicit
// edges plus inferred co-occurrence edges.
type RelationshipGraph struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
}

// GraphNode is one character in the graph with its normalized centrality.
type GraphNode struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Centrality float64 `json:"centrality"`
}

// GraphEdge is a weighted link between two characters.
type GraphEdge struct {
	SourceID string  `json:"source_id"`
	TargetID string  `json:"target_id"`
	Weight   float64 `json:"weight"`
	Type     string  `json:"type"`
}

// CharacterAnalytics is the per-character slice of the payload.
type CharacterAnalytics struct {
	CharacterID       string           `json:"character_id"`
	Name              string           `json:"name"`
	MentionCount      int              `json:"mention_count"`
	Centrality        float64          `json:"centrality"`
	Lifecycle         string           `json:"lifecycle"`
	EmotionalImpact   float64          `json:"emotional_impact"`
	AverageSentiment  float64          `json:"average_sentiment"`
	ConflictScore     int              `json:"conflict_score"`
	SentimentTimeline []SentimentPoint `json:"sentiment_timeline"`
	Archetype         string           `json:"archetype"`
	ArchetypeReason   string           `json:"archetype_reason"`
	AttachmentGravity int              `json:"attachment_gravity"`
	Forecast          Forecast         `json:"forecast"`
	ArcAppearances    map[string]int   `json:"arc_appearances"`
	WeeklyHeatmap     map[string]int   `json:"weekly_heatmap"`
}

// SentimentPoint is one ISO-week bucket of the sentiment timeline.
type SentimentPoint struct {
	Week    string  `json:"week"`
	Average float64 `json:"average"`
	Label   string  `json:"label"`
}

// Forecast is the projected relationship direction with a confidence
// percentage.
type Forecast struct {
	Direction  string `json:"direction"`
	Confidence int    `json:"confidence"`
}

// RelationshipService computes the relationship analytics payload. Run is the
// cache-gated entry point; Compute always recomputes.
type RelationshipService struct {
	characters     ports.CharacterRepository
	relationships  ports.RelationshipRepository
	components     ports.ComponentRepository
	cache          *AnalyticsCache
	cacheTTL       time.Duration
	archetypeRules []ArchetypeRule
	conflictRule   detectors.KeywordRule
	metrics        *observability.Collector
	tracer         trace.Tracer
	logger         *zap.Logger
	now            func() time.Time
}

// NewRelationshipService wires the analytics pipeline. Cache and metrics may
// be nil; a non-positive cacheTTL falls back to the default; rules fall back
// to the compiled-in defaults.
func NewRelationshipService(
	characters ports.CharacterRepository,
	relationships ports.RelationshipRepository,
	components ports.ComponentRepository,
	cache *AnalyticsCache,
	cacheTTL time.Duration,
	rules detectors.Rules,
	metrics *observability.Collector,
	logger *zap.Logger,
) *RelationshipService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = defaultRelationshipCacheTTL
	}
	merged := rules.Merged()
	return &RelationshipService{
		characters:     characters,
		relationships:  relationships,
		components:     components,
		cache:          cache,
		cacheTTL:       cacheTTL,
		archetypeRules: DefaultArchetypeRules(),
		conflictRule:   detectors.KeywordRule{Label: "conflict", Patterns: merged.ConflictTerms, Severity: 5},
		metrics:        metrics,
		tracer:         otel.Tracer("relationships"),
		logger:         logger,
		now:            time.Now,
	}
}

// WithClock overrides the service clock for tests.
func (s *RelationshipService) WithClock(now func() time.Time) *RelationshipService {
	s.now = now
	return s
}

// cachedEnvelope wraps a payload with the component count at computation time
// so the cardinality check can invalidate stale entries before the TTL runs
// out.
type cachedEnvelope struct {
	Payload        RelationshipPayload `json:"payload"`
	ComponentCount int                 `json:"component_count"`
}

func relationshipCacheKey(userID string) string {
	return fmt.Sprintf("%s:relationship_analytics", userID)
}

// Run serves the cached payload when it is fresh and the user's component
// count has not changed, recomputing otherwise. Cache failures are logged and
// treated as misses.
func (s *RelationshipService) Run(ctx context.Context, userID string) (*RelationshipPayload, error) {
	ctx, span := s.tracer.Start(ctx, "relationships.Run",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	currentCount := s.componentCount(ctx, userID)
	key := relationshipCacheKey(userID)

	if s.cache != nil {
		// Drop the entry first when the cardinality changed underneath the
		// TTL, so the Get below only ever serves a consistent payload.
		s.cache.InvalidateIf(ctx, key, func(raw []byte) bool {
			var envelope cachedEnvelope
			if err := json.Unmarshal(raw, &envelope); err != nil {
				return true
			}
			return envelope.ComponentCount != currentCount
		})

		var envelope cachedEnvelope
		if s.cache.Get(ctx, key, &envelope) {
			if s.metrics != nil {
				s.metrics.RelationshipRuns.WithLabelValues("cache").Inc()
			}
			return &envelope.Payload, nil
		}
	}

	payload, err := s.Compute(ctx, userID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.Put(ctx, key, cachedEnvelope{Payload: *payload, ComponentCount: currentCount}, s.cacheTTL)
	}
	if s.metrics != nil {
		s.metrics.RelationshipRuns.WithLabelValues("computed").Inc()
	}
	return payload, nil
}

// Compute runs the full pipeline: graph, centrality, lifecycle, sentiment
// timeline, archetype, attachment gravity, forecast, and arc/heatmap
// aggregation. Empty accounts get a synthetic demo-shaped payload.
func (s *RelationshipService) Compute(ctx context.Context, userID string) (*RelationshipPayload, error) {
	now := s.now().UTC()

	characters, err := s.characters.FindByUser(ctx, userID)
	if err != nil {
		s.logger.Warn("character fetch failed, treating as empty",
			zap.String("user_id", userID), zap.Error(err))
		characters = nil
	}

	since := now.AddDate(0, 0, -relationshipLookbackDays)
	components, err := s.components.FindByUserSince(ctx, userID, since, nil, relationshipComponentLimit)
	if err != nil {
		s.logger.Warn("component fetch failed, treating as empty",
			zap.String("user_id", userID), zap.Error(err))
		components = nil
	}

	if len(characters) == 0 || len(components) == 0 {
		return s.syntheticPayload(userID, now), nil
	}

	stored, err := s.relationships.FindByUser(ctx, userID)
	if err != nil {
		s.logger.Warn("relationship fetch failed, treating as empty",
			zap.String("user_id", userID), zap.Error(err))
		stored = nil
	}

	mentions := collectMentions(characters, components)
	edges := buildEdges(characters, stored, mentions)
	centrality := weightedDegreeCentrality(characters, edges)

	analytics := make([]CharacterAnalytics, 0, len(characters))
	for _, character := range characters {
		records := mentions[character.ID]
		analytics = append(analytics, s.analyzeCharacter(character, records, centrality[character.ID], now))
	}
	sort.Slice(analytics, func(i, j int) bool {
		if analytics[i].AttachmentGravity != analytics[j].AttachmentGravity {
			return analytics[i].AttachmentGravity > analytics[j].AttachmentGravity
		}
		return analytics[i].Name < analytics[j].Name
	})

	nodes := make([]GraphNode, 0, len(characters))
	for _, character := range characters {
		nodes = append(nodes, GraphNode{
			ID:         character.ID,
			Name:       character.Name,
			Centrality: centrality[character.ID],
		})
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].Name < nodes[j].Name })

	return &RelationshipPayload{
		UserID:         userID,
		GeneratedAt:    now,
		Characters:     analytics,
		Graph:          RelationshipGraph{Nodes: nodes, Edges: edges},
		ComponentCount: len(components),
	}, nil
}

func (s *RelationshipService) componentCount(ctx context.Context, userID string) int {
	count, err := s.components.CountByUser(ctx, userID)
	if err != nil {
		s.logger.Warn("component count failed, cardinality check disabled for this run",
			zap.String("user_id", userID), zap.Error(err))
		return -1
	}
	return count
}

// analyzeCharacter computes every per-character metric from its mention
// records, already sorted chronologically by collectMentions.
func (s *RelationshipService) analyzeCharacter(character entities.Character, records []entities.MemoryComponent, centrality float64, now time.Time) CharacterAnalytics {
	sentiments := make([]float64, 0, len(records))
	conflictScore := 0
	arcAppearances := make(map[string]int)
	heatmap := make(map[string]int)
	for _, record := range records {
		sentiments = append(sentiments, record.Sentiment())
		if s.conflictRule.MatchCount(record.Text) > 0 {
			conflictScore++
		}
		if arc := record.ArcLabel(); arc != "" {
			arcAppearances[arc]++
		}
		heatmap[isoWeekKey(record.OccurredAt())]++
	}

	avgSentiment := domainservices.Mean(sentiments)
	impact := emotionalImpact(sentiments)
	timeline := sentimentTimeline(records)
	lifecycle := lifecyclePhase(records, now)

	archetype, reason := ClassifyArchetype(s.archetypeRules, ArchetypeInputs{
		Centrality:      centrality,
		AvgSentiment:    avgSentiment,
		ConflictScore:   conflictScore,
		EmotionalImpact: impact,
	})

	return CharacterAnalytics{
		CharacterID:       character.ID,
		Name:              character.Name,
		MentionCount:      len(records),
		Centrality:        centrality,
		Lifecycle:         lifecycle,
		EmotionalImpact:   impact,
		AverageSentiment:  avgSentiment,
		ConflictScore:     conflictScore,
		SentimentTimeline: timeline,
		Archetype:         archetype,
		ArchetypeReason:   reason,
		AttachmentGravity: attachmentGravity(records, sentiments, arcAppearances, centrality, now),
		Forecast:          forecastRelationship(timeline),
		ArcAppearances:    arcAppearances,
		WeeklyHeatmap:     heatmap,
	}
}

// collectMentions maps each character ID to the components that mention it,
// sorted chronologically.
func collectMentions(characters []entities.Character, components []entities.MemoryComponent) map[string][]entities.MemoryComponent {
	mentions := make(map[string][]entities.MemoryComponent, len(characters))
	for _, character := range characters {
		for _, component := range components {
			if component.Mentions(character.Name) {
				mentions[character.ID] = append(mentions[character.ID], component)
			}
		}
		sort.Slice(mentions[character.ID], func(i, j int) bool {
			return mentions[character.ID][i].OccurredAt().Before(mentions[character.ID][j].OccurredAt())
		})
	}
	return mentions
}

// buildEdges creates explicit edges from stored relationships (weight =
// closeness/10) and adds inferred co-occurrence edges only for pairs without
// an explicit edge.
func buildEdges(characters []entities.Character, stored []entities.StoredRelationship, mentions map[string][]entities.MemoryComponent) []GraphEdge {
	idByName := make(map[string]string, len(characters))
	for _, character := range characters {
		idByName[strings.ToLower(strings.TrimSpace(character.Name))] = character.ID
	}

	edges := make([]GraphEdge, 0, len(stored))
	explicit := make(map[string]bool)
	for _, rel := range stored {
		sourceID, okA := idByName[strings.ToLower(strings.TrimSpace(rel.CharacterA))]
		targetID, okB := idByName[strings.ToLower(strings.TrimSpace(rel.CharacterB))]
		if !okA || !okB || sourceID == targetID {
			continue
		}
		key := pairKey(sourceID, targetID)
		if explicit[key] {
			continue
		}
		explicit[key] = true
		edges = append(edges, GraphEdge{
			SourceID: sourceID,
			TargetID: targetID,
			Weight:   entities.ClampWeight(rel.Closeness / 10),
			Type:     string(entities.EdgeTypeExplicit),
		})
	}

	// Inferred edges from shared mention records.
	ids := make([]string, 0, len(characters))
	for _, character := range characters {
		ids = append(ids, character.ID)
	}
	sort.Strings(ids)

	componentIDs := make(map[string]map[string]bool, len(ids))
	for id, records := range mentions {
		set := make(map[string]bool, len(records))
		for _, record := range records {
			set[record.ID] = true
		}
		componentIDs[id] = set
	}

	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			key := pairKey(ids[i], ids[j])
			if explicit[key] {
				continue
			}
			shared := 0
			for componentID := range componentIDs[ids[i]] {
				if componentIDs[ids[j]][componentID] {
					shared++
				}
			}
			if shared < coOccurrenceMinShared {
				continue
			}
			edges = append(edges, GraphEdge{
				SourceID: ids[i],
				TargetID: ids[j],
				Weight:   math.Min(1, float64(shared)/10),
				Type:     string(entities.EdgeTypeCoOccurrence),
			})
		}
	}

	return edges
}

// weightedDegreeCentrality sums incident edge weights per node and normalizes
// by the graph maximum, so values lie in [0,1] and the most central node is
// exactly 1 (all zeros when every weight is 0).
func weightedDegreeCentrality(characters []entities.Character, edges []GraphEdge) map[string]float64 {
	degree := make(map[string]float64, len(characters))
	for _, character := range characters {
		degree[character.ID] = 0
	}
	for _, edge := range edges {
		degree[edge.SourceID] += edge.Weight
		degree[edge.TargetID] += edge.Weight
	}

	var maxDegree float64
	for _, d := range degree {
		if d > maxDegree {
			maxDegree = d
		}
	}

	centrality := make(map[string]float64, len(degree))
	for id, d := range degree {
		if maxDegree == 0 {
			centrality[id] = 0
			continue
		}
		centrality[id] = d / maxDegree
	}
	return centrality
}

// lifecyclePhase classifies a character's mention trajectory. Characters with
// fewer than three mentions stay unclassified.
func lifecyclePhase(records []entities.MemoryComponent, now time.Time) string {
	if len(records) < 3 {
		return "unclassified"
	}

	series := weeklyMentionCounts(records, now)
	window := maxInt2(3, len(records)/3)
	smoothed := domainservices.RollingAverage(series, window)

	trend := domainservices.HalvesTrend(smoothed)
	current := smoothed[len(smoothed)-1]
	var peak float64
	for _, v := range smoothed {
		if v > peak {
			peak = v
		}
	}

	switch {
	case trend > 0.1 && peak > 0 && current >= 0.8*peak:
		return "peak"
	case trend > 0.1:
		return "rise"
	case trend < -0.1:
		return "decline"
	default:
		return "drift"
	}
}

// weeklyMentionCounts buckets mention records into consecutive weeks from the
// first mention through now, including empty weeks.
func weeklyMentionCounts(records []entities.MemoryComponent, now time.Time) []float64 {
	first := records[0].OccurredAt()
	span := int(now.Sub(first).Hours()/(24*7)) + 1
	if span < 1 {
		span = 1
	}
	counts := make([]float64, span)
	for _, record := range records {
		idx := int(record.OccurredAt().Sub(first).Hours() / (24 * 7))
		if idx < 0 {
			idx = 0
		}
		if idx >= span {
			idx = span - 1
		}
		counts[idx]++
	}
	return counts
}

// emotionalImpact is the mean absolute sentiment scaled by mention count, so
// frequently mentioned emotionally loaded characters rank highest.
func emotionalImpact(sentiments []float64) float64 {
	if len(sentiments) == 0 {
		return 0
	}
	abs := make([]float64, len(sentiments))
	for i, s := range sentiments {
		abs[i] = math.Abs(s)
	}
	return domainservices.Mean(abs) * float64(len(sentiments))
}

// sentimentTimeline buckets mention sentiment by ISO week and labels each
// point against fixed thresholds.
func sentimentTimeline(records []entities.MemoryComponent) []SentimentPoint {
	buckets := make(map[string][]float64)
	for _, record := range records {
		week := isoWeekKey(record.OccurredAt())
		buckets[week] = append(buckets[week], record.Sentiment())
	}

	weeks := make([]string, 0, len(buckets))
	for week := range buckets {
		weeks = append(weeks, week)
	}
	sort.Strings(weeks)

	timeline := make([]SentimentPoint, 0, len(weeks))
	for _, week := range weeks {
		avg := domainservices.Mean(buckets[week])
		timeline = append(timeline, SentimentPoint{
			Week:    week,
			Average: avg,
			Label:   sentimentLabel(avg),
		})
	}
	return timeline
}

func sentimentLabel(avg float64) string {
	switch {
	case avg > 0.3:
		return "positive"
	case avg > 0.1:
		return "neutral-positive"
	case avg >= -0.1:
		return "neutral"
	case avg >= -0.3:
		return "neutral-negative"
	default:
		return "negative"
	}
}

// attachmentGravity is the 0-100 composite significance score: sentiment
// intensity, sentiment volatility, arc frequency, time-decayed recency, and
// centrality, each clamped into [0,1] before weighting.
func attachmentGravity(records []entities.MemoryComponent, sentiments []float64, arcAppearances map[string]int, centrality float64, now time.Time) int {
	if len(records) == 0 {
		return 0
	}

	abs := make([]float64, len(sentiments))
	for i, s := range sentiments {
		abs[i] = math.Abs(s)
	}
	intensity := clampUnit(domainservices.Mean(abs))
	volatility := clampUnit(domainservices.PopulationStdDev(sentiments))

	arcCount := 0
	for _, count := range arcAppearances {
		arcCount += count
	}
	arcFrequency := clampUnit(float64(arcCount) / 10)

	var recencySum float64
	for _, record := range records {
		daysAgo := now.Sub(record.OccurredAt()).Hours() / 24
		recencySum += math.Max(0, 1-daysAgo/365)
	}
	recency := recencySum / float64(len(records))

	score := 0.25*intensity + 0.15*volatility + 0.25*arcFrequency + 0.15*recency + 0.20*clampUnit(centrality)
	gravity := int(math.Round(score * 100))
	if gravity < 0 {
		return 0
	}
	if gravity > 100 {
		return 100
	}
	return gravity
}

// forecastRelationship projects where the sentiment series is heading from
// its half-over-half slope and volatility.
func forecastRelationship(timeline []SentimentPoint) Forecast {
	if len(timeline) < 3 {
		return Forecast{Direction: "stable", Confidence: 50}
	}

	values := make([]float64, len(timeline))
	for i, point := range timeline {
		values[i] = point.Average
	}

	slope := domainservices.HalvesTrend(values)
	volatility := domainservices.PopulationStdDev(values)

	switch {
	case volatility > 0.4:
		return Forecast{Direction: "volatile", Confidence: minInt2(95, int(math.Round(volatility*100)))}
	case slope > 0.15:
		return Forecast{Direction: "warming", Confidence: minInt2(95, int(math.Round(math.Abs(slope)*200)))}
	case slope < -0.15:
		return Forecast{Direction: "cooling", Confidence: minInt2(95, int(math.Round(math.Abs(slope)*200)))}
	default:
		confidence := int(math.Round(100 - math.Abs(slope)*200))
		if confidence < 50 {
			confidence = 50
		}
		return Forecast{Direction: "stable", Confidence: confidence}
	}
}

// syntheticPayload is the demo-shaped result returned when a user has no
// characters or memories yet. Same struct, one placeholder character, empty
// graph.
func (s *RelationshipService) syntheticPayload(userID string, now time.Time) *RelationshipPayload {
	demo := CharacterAnalytics{
		CharacterID:       "demo-character",
		Name:              "Sam",
		MentionCount:      0,
		Centrality:        0,
		Lifecycle:         "unclassified",
		EmotionalImpact:   0,
		AverageSentiment:  0,
		SentimentTimeline: []SentimentPoint{},
		Archetype:         "Supporting",
		ArchetypeReason:   "steady presence without a dominant pattern",
		AttachmentGravity: 0,
		Forecast:          Forecast{Direction: "stable", Confidence: 50},
		ArcAppearances:    map[string]int{},
		WeeklyHeatmap:     map[string]int{},
	}
	return &RelationshipPayload{
		UserID:      userID,
		GeneratedAt: now,
		Synthetic:   true,
		Characters:  []CharacterAnalytics{demo},
		Graph:       RelationshipGraph{Nodes: []GraphNode{}, Edges: []GraphEdge{}},
	}
}

func isoWeekKey(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%04d-W%02d", year, week)
}

func pairKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + "|" + b
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func maxInt2(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt2(a, b int) int {
	if a < b {
		return a
	}
	return b
}
