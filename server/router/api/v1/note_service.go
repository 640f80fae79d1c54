package v1

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/ideanote/ai/aierr"
	"github.com/hrygo/ideanote/store"
)

// CreateNote stores a note with its tags. Tags missing from the user's
// vocabulary are created.
func (s *APIV1Service) CreateNote(c echo.Context) error {
	ctx := c.Request().Context()

	var req createNoteRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, aierr.Wrap(err, aierr.CodeInvalidArgument, "invalid request body"))
	}
	if err := req.Validate(); err != nil {
		return writeError(c, invalidArgument(err))
	}

	note, err := s.Store.CreateNote(ctx, &store.CreateNote{
		Title:    strings.TrimSpace(req.Title),
		Content:  req.Content,
		Category: strings.TrimSpace(req.Category),
		Tags:     trimNames(req.Tags),
		UserID:   userIDFrom(c),
	})
	if err != nil {
		return writeError(c, aierr.Wrap(err, aierr.CodeStoreError, "Failed to create note"))
	}

	view, err := s.convertNote(ctx, note)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, view)
}

func (s *APIV1Service) GetNote(c echo.Context) error {
	ctx := c.Request().Context()

	noteID, err := parseNoteID(c)
	if err != nil {
		return writeError(c, err)
	}
	note, err := s.findOwnedNote(ctx, userIDFrom(c), noteID)
	if err != nil {
		return writeError(c, err)
	}

	view, err := s.convertNote(ctx, note)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, view)
}

// UpdateNote edits the title, content or category of a note owned by the
// caller. A tags field replaces the note's tags in the same write.
func (s *APIV1Service) UpdateNote(c echo.Context) error {
	ctx := c.Request().Context()
	userID := userIDFrom(c)

	noteID, err := parseNoteID(c)
	if err != nil {
		return writeError(c, err)
	}
	var req updateNoteRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, aierr.Wrap(err, aierr.CodeInvalidArgument, "invalid request body"))
	}
	if err := req.Validate(); err != nil {
		return writeError(c, invalidArgument(err))
	}

	if _, err := s.findOwnedNote(ctx, userID, noteID); err != nil {
		return writeError(c, err)
	}

	update := &store.UpdateNote{
		ID:       noteID,
		UserID:   userID,
		Title:    trimmed(req.Title),
		Content:  req.Content,
		Category: trimmed(req.Category),
	}
	if req.Tags != nil {
		names := trimNames(*req.Tags)
		update.Tags = &names
	}
	if err := s.Store.UpdateNote(ctx, update); err != nil {
		return writeError(c, aierr.Wrap(err, aierr.CodeStoreError, "Failed to update note"))
	}

	note, err := s.findOwnedNote(ctx, userID, noteID)
	if err != nil {
		return writeError(c, err)
	}
	view, err := s.convertNote(ctx, note)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, view)
}

func (s *APIV1Service) convertNote(ctx context.Context, note *store.Note) (*noteView, error) {
	noteTags, err := s.Store.ListTags(ctx, &store.FindTag{NoteID: &note.ID})
	if err != nil {
		return nil, aierr.Wrap(err, aierr.CodeStoreError, "Failed to fetch note tags")
	}
	return convertNoteFromStore(note, noteTags), nil
}

// SetNoteTags replaces the tags of a note owned by the caller.
func (s *APIV1Service) SetNoteTags(c echo.Context) error {
	ctx := c.Request().Context()
	userID := userIDFrom(c)

	noteID, err := parseNoteID(c)
	if err != nil {
		return writeError(c, err)
	}
	var req setNoteTagsRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, aierr.Wrap(err, aierr.CodeInvalidArgument, "invalid request body"))
	}
	if err := req.Validate(); err != nil {
		return writeError(c, invalidArgument(err))
	}

	if _, err := s.findOwnedNote(ctx, userID, noteID); err != nil {
		return writeError(c, err)
	}

	noteTags, err := s.Store.SetNoteTags(ctx, &store.SetNoteTags{
		Names:  trimNames(req.Tags),
		NoteID: noteID,
		UserID: userID,
	})
	if err != nil {
		return writeError(c, aierr.Wrap(err, aierr.CodeStoreError, "Failed to tag note"))
	}
	return c.JSON(http.StatusOK, map[string]any{"tags": tagNames(noteTags)})
}

// ListNoteInteractions returns the AI interactions recorded against a note,
// oldest first.
func (s *APIV1Service) ListNoteInteractions(c echo.Context) error {
	ctx := c.Request().Context()

	noteID, err := parseNoteID(c)
	if err != nil {
		return writeError(c, err)
	}
	if _, err := s.findOwnedNote(ctx, userIDFrom(c), noteID); err != nil {
		return writeError(c, err)
	}

	interactions, err := s.Store.ListAIInteractions(ctx, &store.FindAIInteraction{NoteID: &noteID})
	if err != nil {
		return writeError(c, aierr.Wrap(err, aierr.CodeStoreError, "Failed to list AI interactions"))
	}

	views := make([]*interactionView, 0, len(interactions))
	for _, interaction := range interactions {
		views = append(views, convertInteractionFromStore(interaction))
	}
	return c.JSON(http.StatusOK, map[string]any{"interactions": views})
}

func parseNoteID(c echo.Context) (int32, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 32)
	if err != nil || id <= 0 {
		return 0, aierr.Newf(aierr.CodeInvalidArgument, "invalid note id %q", c.Param("id"))
	}
	return int32(id), nil
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

func trimNames(names []string) []string {
	out := make([]string, 0, len(names))
	for _, name := range names {
		out = append(out, strings.TrimSpace(name))
	}
	return out
}
