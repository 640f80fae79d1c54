package store

import (
	"context"
	"time"
)

// AIInteractionType is the kind of AI output recorded against a note.
type AIInteractionType string

const (
	AIInteractionExpand    AIInteractionType = "expand"
	AIInteractionAnalyze   AIInteractionType = "analyze"
	AIInteractionRelated   AIInteractionType = "related"
	AIInteractionMindMap   AIInteractionType = "mind_map"
	AIInteractionEnhance   AIInteractionType = "enhance"
	AIInteractionSummarize AIInteractionType = "summarize"
	AIInteractionSuggest   AIInteractionType = "suggest"
)

// AIInteraction is an AI response recorded against a note. ParentID threads
// follow-up responses under the interaction they answer.
type AIInteraction struct {
	Metadata        *AIInteractionMetadata
	ParentID        *int32
	InteractionType AIInteractionType
	Content         string
	ModelUsed       string
	CreatedTs       int64
	ID              int32
	NoteID          int32
}

// AIInteractionMetadata is stored as a JSON document.
type AIInteractionMetadata struct {
	Timestamp     time.Time              `json:"timestamp"`
	ChainID       string                 `json:"chain_id,omitempty"`
	Task          string                 `json:"task,omitempty"`
	ModelsUsed    []string               `json:"models_used,omitempty"`
	ChainInsights []AIInteractionInsight `json:"chain_insights,omitempty"`
	Failures      []AIInteractionFailure `json:"failures,omitempty"`
}

type AIInteractionInsight struct {
	Model string `json:"model"`
	Text  string `json:"text"`
}

type AIInteractionFailure struct {
	Model   string `json:"model"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type CreateAIInteraction struct {
	Metadata        *AIInteractionMetadata
	ParentID        *int32
	InteractionType AIInteractionType
	Content         string
	ModelUsed       string
	NoteID          int32
}

type FindAIInteraction struct {
	ID       *int32
	NoteID   *int32
	ParentID *int32
}

func (s *Store) CreateAIInteraction(ctx context.Context, create *CreateAIInteraction) (*AIInteraction, error) {
	return s.driver.CreateAIInteraction(ctx, create)
}

func (s *Store) ListAIInteractions(ctx context.Context, find *FindAIInteraction) ([]*AIInteraction, error) {
	return s.driver.ListAIInteractions(ctx, find)
}
