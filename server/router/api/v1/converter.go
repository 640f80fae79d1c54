package v1

import (
	"github.com/hrygo/ideanote/store"
)

type noteView struct {
	Title     string   `json:"title"`
	Content   string   `json:"content"`
	Category  string   `json:"category,omitempty"`
	Tags      []string `json:"tags"`
	CreatedTs int64    `json:"created_ts"`
	UpdatedTs int64    `json:"updated_ts"`
	ID        int32    `json:"id"`
}

type interactionView struct {
	Metadata  *store.AIInteractionMetadata `json:"metadata,omitempty"`
	ParentID  *int32                       `json:"parent_id,omitempty"`
	Type      store.AIInteractionType      `json:"type"`
	Content   string                       `json:"content"`
	ModelUsed string                       `json:"model_used"`
	CreatedTs int64                        `json:"created_ts"`
	ID        int32                        `json:"id"`
	NoteID    int32                        `json:"note_id"`
}

func convertNoteFromStore(note *store.Note, tags []*store.Tag) *noteView {
	return &noteView{
		ID:        note.ID,
		Title:     note.Title,
		Content:   note.Content,
		Category:  note.Category,
		Tags:      tagNames(tags),
		CreatedTs: note.CreatedTs,
		UpdatedTs: note.UpdatedTs,
	}
}

func convertInteractionFromStore(interaction *store.AIInteraction) *interactionView {
	return &interactionView{
		ID:        interaction.ID,
		NoteID:    interaction.NoteID,
		ParentID:  interaction.ParentID,
		Type:      interaction.InteractionType,
		Content:   interaction.Content,
		ModelUsed: interaction.ModelUsed,
		CreatedTs: interaction.CreatedTs,
		Metadata:  interaction.Metadata,
	}
}

func tagNames(tags []*store.Tag) []string {
	names := make([]string, 0, len(tags))
	for _, tag := range tags {
		names = append(names, tag.Name)
	}
	return names
}
