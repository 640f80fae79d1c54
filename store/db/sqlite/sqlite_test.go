package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/ideanote/internal/profile"
	"github.com/hrygo/ideanote/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	p := &profile.Profile{Mode: "dev", Driver: "sqlite", DSN: filepath.Join(t.TempDir(), "ideanote_test.db")}

	driver, err := NewDB(p)
	require.NoError(t, err)
	s := store.New(driver, p)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func TestMigrate_Idempotent(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	initialized, err := s.GetDriver().IsInitialized(ctx)
	require.NoError(t, err)
	assert.True(t, initialized)

	require.NoError(t, s.Migrate(ctx))
	current, err := s.GetDriver().CurrentSchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, "0.2.0", current)
}

func TestNotes(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	note, err := s.CreateNote(ctx, &store.CreateNote{UserID: 7, Title: "Budget", Content: "Quarterly budget planning"})
	require.NoError(t, err)
	assert.Positive(t, note.ID)
	assert.Equal(t, int32(7), note.UserID)

	category := "finance"
	require.NoError(t, s.UpdateNote(ctx, &store.UpdateNote{ID: note.ID, UserID: 7, Category: &category}))

	userID := int32(7)
	got, err := s.GetNote(ctx, &store.FindNote{ID: &note.ID, UserID: &userID})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "finance", got.Category)
	assert.Equal(t, "Quarterly budget planning", got.Content)

	otherUser := int32(8)
	missing, err := s.GetNote(ctx, &store.FindNote{ID: &note.ID, UserID: &otherUser})
	require.NoError(t, err)
	assert.Nil(t, missing)

	assert.Error(t, s.UpdateNote(ctx, &store.UpdateNote{ID: 9999, UserID: 7, Category: &category}))
	assert.Error(t, s.UpdateNote(ctx, &store.UpdateNote{ID: note.ID, UserID: otherUser, Category: &category}))
}

func TestNotes_WithTags(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	note, err := s.CreateNote(ctx, &store.CreateNote{UserID: 3, Title: "Trip", Content: "Packing list", Tags: []string{"travel", "todo"}})
	require.NoError(t, err)

	noteTags, err := s.ListTags(ctx, &store.FindTag{NoteID: &note.ID})
	require.NoError(t, err)
	assert.Len(t, noteTags, 2)

	content := "Packing list for Lisbon"
	tags := []string{"travel"}
	require.NoError(t, s.UpdateNote(ctx, &store.UpdateNote{ID: note.ID, UserID: 3, Content: &content, Tags: &tags}))

	noteTags, err = s.ListTags(ctx, &store.FindTag{NoteID: &note.ID})
	require.NoError(t, err)
	require.Len(t, noteTags, 1)
	assert.Equal(t, "travel", noteTags[0].Name)

	usages, err := s.ListTagUsages(ctx, 3)
	require.NoError(t, err)
	counts := map[string]int{}
	for _, u := range usages {
		counts[u.Name] = u.UsageCount
	}
	assert.Equal(t, map[string]int{"travel": 1, "todo": 0}, counts)

	// Leaving Tags nil keeps the current assignment.
	category := "personal"
	require.NoError(t, s.UpdateNote(ctx, &store.UpdateNote{ID: note.ID, UserID: 3, Category: &category}))
	noteTags, err = s.ListTags(ctx, &store.FindTag{NoteID: &note.ID})
	require.NoError(t, err)
	assert.Len(t, noteTags, 1)
}

func TestCreateNote_TaggingFailureRollsBack(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.GetDriver().GetDB().ExecContext(ctx, "DROP TABLE note_tag")
	require.NoError(t, err)

	_, err = s.CreateNote(ctx, &store.CreateNote{UserID: 5, Title: "Draft", Content: "never stored", Tags: []string{"draft"}})
	require.Error(t, err)

	userID := int32(5)
	notes, err := s.ListNotes(ctx, &store.FindNote{UserID: &userID})
	require.NoError(t, err)
	assert.Empty(t, notes)
}

func TestTagUsages(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	first, err := s.CreateNote(ctx, &store.CreateNote{UserID: 1, Title: "a", Content: "first"})
	require.NoError(t, err)
	second, err := s.CreateNote(ctx, &store.CreateNote{UserID: 1, Title: "b", Content: "second"})
	require.NoError(t, err)
	others, err := s.CreateNote(ctx, &store.CreateNote{UserID: 2, Title: "c", Content: "other user"})
	require.NoError(t, err)

	tags, err := s.SetNoteTags(ctx, &store.SetNoteTags{NoteID: first.ID, UserID: 1, Names: []string{"meeting", "finance", "meeting"}})
	require.NoError(t, err)
	assert.Len(t, tags, 2)

	_, err = s.SetNoteTags(ctx, &store.SetNoteTags{NoteID: second.ID, UserID: 1, Names: []string{"meeting", "Meeting"}})
	require.NoError(t, err)
	_, err = s.SetNoteTags(ctx, &store.SetNoteTags{NoteID: others.ID, UserID: 2, Names: []string{"meeting"}})
	require.NoError(t, err)

	usages, err := s.ListTagUsages(ctx, 1)
	require.NoError(t, err)
	counts := map[string]int{}
	for _, u := range usages {
		counts[u.Name] = u.UsageCount
	}
	assert.Equal(t, map[string]int{"meeting": 2, "finance": 1, "Meeting": 1}, counts)

	// Reassigning replaces the note's tags and refreshes the cached vocabulary.
	_, err = s.SetNoteTags(ctx, &store.SetNoteTags{NoteID: first.ID, UserID: 1, Names: []string{"finance"}})
	require.NoError(t, err)
	usages, err = s.ListTagUsages(ctx, 1)
	require.NoError(t, err)
	counts = map[string]int{}
	for _, u := range usages {
		counts[u.Name] = u.UsageCount
	}
	assert.Equal(t, map[string]int{"meeting": 1, "finance": 1, "Meeting": 1}, counts)

	noteTags, err := s.ListTags(ctx, &store.FindTag{NoteID: &second.ID})
	require.NoError(t, err)
	assert.Len(t, noteTags, 2)
}

func TestAIInteractions(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	note, err := s.CreateNote(ctx, &store.CreateNote{UserID: 1, Title: "Drones", Content: "solar drones"})
	require.NoError(t, err)

	ts := time.Date(2026, 10, 18, 10, 0, 0, 0, time.UTC)
	root, err := s.CreateAIInteraction(ctx, &store.CreateAIInteraction{
		NoteID:          note.ID,
		InteractionType: store.AIInteractionExpand,
		Content:         "expanded idea",
		ModelUsed:       "gpt-4o",
		Metadata: &store.AIInteractionMetadata{
			Timestamp:     ts,
			ChainID:       "chain-1",
			ModelsUsed:    []string{"gpt-4o", "mistral-large-latest"},
			ChainInsights: []store.AIInteractionInsight{{Model: "gpt-4o", Text: "insight"}},
		},
	})
	require.NoError(t, err)

	reply, err := s.CreateAIInteraction(ctx, &store.CreateAIInteraction{
		NoteID:          note.ID,
		ParentID:        &root.ID,
		InteractionType: store.AIInteractionAnalyze,
		Content:         "follow-up",
		ModelUsed:       "gpt-4o",
	})
	require.NoError(t, err)

	list, err := s.ListAIInteractions(ctx, &store.FindAIInteraction{NoteID: &note.ID})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, root.ID, list[0].ID)
	assert.Nil(t, list[0].ParentID)
	require.NotNil(t, list[0].Metadata)
	assert.Equal(t, []string{"gpt-4o", "mistral-large-latest"}, list[0].Metadata.ModelsUsed)
	assert.True(t, ts.Equal(list[0].Metadata.Timestamp))
	assert.Equal(t, store.AIInteractionAnalyze, list[1].InteractionType)
	require.NotNil(t, list[1].ParentID)
	assert.Equal(t, root.ID, *list[1].ParentID)
	assert.Nil(t, list[1].Metadata)

	children, err := s.ListAIInteractions(ctx, &store.FindAIInteraction{ParentID: &root.ID})
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, reply.ID, children[0].ID)
}
