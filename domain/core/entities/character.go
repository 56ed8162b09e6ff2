package entities

import "time"

// Character is a person referenced across a user's memory corpus.
type Character struct {
	ID               string
	UserID           string
	Name             string
	Embedding        []float64
	InteractionScore float64
	SentimentToward  float64
	CreatedAt        time.Time
}

// EdgeType distinguishes stored relationships from inferred ones.
type EdgeType string

const (
	EdgeTypeExplicit     EdgeType = "explicit"
	EdgeTypeCoOccurrence EdgeType = "co_occurrence"
)

// RelationshipEdge is a weighted link between two characters in the social
// graph. Weight is always within [0,1].
type RelationshipEdge struct {
	SourceID string
	TargetID string
	Weight   float64
	Type     EdgeType
}

// NewRelationshipEdge builds an edge with the weight clamped into [0,1].
func NewRelationshipEdge(sourceID, targetID string, weight float64, edgeType EdgeType) RelationshipEdge {
	return RelationshipEdge{
		SourceID: sourceID,
		TargetID: targetID,
		Weight:   ClampWeight(weight),
		Type:     edgeType,
	}
}

// ClampWeight forces an edge weight into the valid [0,1] range.
func ClampWeight(weight float64) float64 {
	if weight < 0 {
		return 0
	}
	if weight > 1 {
		return 1
	}
	return weight
}

// StoredRelationship is an explicit relationship record kept by the journaling
// product (closeness on a 0-10 scale).
type StoredRelationship struct {
	UserID      string
	CharacterA  string
	CharacterB  string
	Closeness   float64
	Description string
}
