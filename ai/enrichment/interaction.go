package enrichment

import (
	"github.com/google/uuid"

	"github.com/hrygo/ideanote/ai/chain"
	"github.com/hrygo/ideanote/ai/prompt"
	"github.com/hrygo/ideanote/ai/tags"
	"github.com/hrygo/ideanote/store"
)

var interactionTypes = map[prompt.Task]store.AIInteractionType{
	prompt.TaskExpansion:       store.AIInteractionExpand,
	prompt.TaskConceptAnalysis: store.AIInteractionAnalyze,
	prompt.TaskRelatedIdeas:    store.AIInteractionRelated,
	prompt.TaskMindMap:         store.AIInteractionMindMap,
	prompt.TaskEnhancement:     store.AIInteractionEnhance,
	prompt.TaskSummarization:   store.AIInteractionSummarize,
	prompt.TaskSuggestion:      store.AIInteractionSuggest,
}

// InteractionType returns the record kind of task. Tasks whose output is not
// kept against a note report false.
func InteractionType(task prompt.Task) (store.AIInteractionType, bool) {
	t, ok := interactionTypes[task]
	return t, ok
}

// NewTaskInteraction builds the record of a single-call task result.
func NewTaskInteraction(noteID int32, parentID *int32, res *TaskResult) *store.CreateAIInteraction {
	kind, _ := InteractionType(res.Task)
	return &store.CreateAIInteraction{
		NoteID:          noteID,
		ParentID:        parentID,
		InteractionType: kind,
		Content:         res.Text,
		ModelUsed:       res.Provider.String(),
		Metadata: &store.AIInteractionMetadata{
			Timestamp:  res.GeneratedAt,
			Task:       string(res.Task),
			ModelsUsed: []string{res.Provider.String()},
		},
	}
}

// NewChainInteraction builds the record of a task run with its insight chain.
// The base output is the content; the chain is kept in the metadata under a
// fresh chain ID.
func NewChainInteraction(noteID int32, parentID *int32, res *chain.WithBaseResult) *store.CreateAIInteraction {
	kind, _ := InteractionType(res.Task)

	meta := &store.AIInteractionMetadata{
		Timestamp: res.GeneratedAt,
		ChainID:   uuid.NewString(),
		Task:      string(res.Task),
	}
	for _, id := range res.ModelsUsed {
		meta.ModelsUsed = append(meta.ModelsUsed, id.String())
	}
	if res.Chain != nil {
		for _, insight := range res.Chain.Insights {
			meta.ChainInsights = append(meta.ChainInsights, store.AIInteractionInsight{
				Model: insight.Provider.String(),
				Text:  insight.Text,
			})
		}
		for _, f := range res.Chain.Failures {
			meta.Failures = append(meta.Failures, store.AIInteractionFailure{
				Model:   f.Provider.String(),
				Code:    string(f.Code),
				Message: f.Message,
			})
		}
	}

	return &store.CreateAIInteraction{
		NoteID:          noteID,
		ParentID:        parentID,
		InteractionType: kind,
		Content:         res.Base,
		ModelUsed:       res.BaseProvider.String(),
		Metadata:        meta,
	}
}

// ExistingTags converts the store's tag usages into the tag engine's vocabulary.
func ExistingTags(usages []*store.TagUsage) []tags.ExistingTag {
	existing := make([]tags.ExistingTag, 0, len(usages))
	for _, u := range usages {
		existing = append(existing, tags.ExistingTag{Name: u.Name, UsageCount: u.UsageCount})
	}
	return existing
}
