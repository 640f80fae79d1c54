package v1

import (
	"context"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/ideanote/ai/aierr"
	"github.com/hrygo/ideanote/ai/chain"
	"github.com/hrygo/ideanote/ai/enrichment"
	"github.com/hrygo/ideanote/ai/prompt"
	"github.com/hrygo/ideanote/ai/tags"
	"github.com/hrygo/ideanote/store"
)

// maxAudioBytes is the upload ceiling of the transcription provider.
const maxAudioBytes = 25 << 20

// allowedAudioTypes is matched by substring so that Safari's
// "audio/mp4;codecs=..." variants pass.
var allowedAudioTypes = []string{
	"audio/wav", "audio/mp4", "audio/x-m4a", "audio/webm",
	"audio/ogg", "audio/aac", "audio/mpeg", "audio/mp3",
}

type taskFunc func(ctx context.Context, content string) (*enrichment.TaskResult, error)

func (s *APIV1Service) SuggestTags(c echo.Context) error {
	ctx := c.Request().Context()
	req, err := parseContentQuery(c)
	if err != nil {
		return writeError(c, err)
	}
	if err := tags.ValidateContent(req.Content); err != nil {
		return writeError(c, err)
	}

	usages, err := s.Store.ListTagUsages(ctx, userIDFrom(c))
	if err != nil {
		slog.Error("Failed to fetch existing tags", "user_id", userIDFrom(c), "error", err)
		return writeError(c, aierr.Wrap(err, aierr.CodeStoreError, "Failed to fetch existing tags"))
	}

	resp, err := s.Enrichment.SuggestTags(ctx, req.Content, enrichment.ExistingTags(usages))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *APIV1Service) SuggestTagsRaw(c echo.Context) error {
	req, err := parseContentQuery(c)
	if err != nil {
		return writeError(c, err)
	}
	names, err := s.Enrichment.SuggestTagsRaw(c.Request().Context(), req.Content)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"tags": names})
}

func (s *APIV1Service) Enhance(c echo.Context) error {
	return s.handleTask(c, "enhanced", s.Enrichment.Enhance)
}

func (s *APIV1Service) Summarize(c echo.Context) error {
	return s.handleTask(c, "summary", s.Enrichment.Summarize)
}

func (s *APIV1Service) Categorize(c echo.Context) error {
	return s.handleTask(c, "category", s.Enrichment.Categorize)
}

func (s *APIV1Service) Suggestions(c echo.Context) error {
	return s.handleTask(c, "suggestions", s.Enrichment.Suggest)
}

func (s *APIV1Service) RelatedIdeas(c echo.Context) error {
	return s.handleTask(c, "result", s.Enrichment.RelatedIdeas)
}

func (s *APIV1Service) MindMap(c echo.Context) error {
	return s.handleTask(c, "result", s.Enrichment.MindMap)
}

func (s *APIV1Service) ExpandIdea(c echo.Context) error {
	return s.handleTask(c, "result", s.Enrichment.Expand)
}

func (s *APIV1Service) AnalyzeConcept(c echo.Context) error {
	return s.handleTask(c, "result", s.Enrichment.Analyze)
}

func (s *APIV1Service) ExpandIdeaChain(c echo.Context) error {
	return s.handleChain(c, prompt.TaskExpansion)
}

func (s *APIV1Service) AnalyzeConceptChain(c echo.Context) error {
	return s.handleChain(c, prompt.TaskConceptAnalysis)
}

// handleTask runs a single-call task and renders its text under field. With a
// note_id the result is recorded against that note.
func (s *APIV1Service) handleTask(c echo.Context, field string, run taskFunc) error {
	ctx := c.Request().Context()
	req, err := parseContentQuery(c)
	if err != nil {
		return writeError(c, err)
	}
	if err := s.checkNoteAccess(ctx, userIDFrom(c), req); err != nil {
		return writeError(c, err)
	}

	res, err := run(ctx, req.Content)
	if err != nil {
		return writeError(c, err)
	}

	body := map[string]any{
		field:          res.Text,
		"task":         res.Task,
		"model":        res.Provider.String(),
		"generated_at": res.GeneratedAt,
	}
	if _, ok := enrichment.InteractionType(res.Task); ok && req.NoteID != nil {
		interaction, err := s.Store.CreateAIInteraction(ctx, enrichment.NewTaskInteraction(*req.NoteID, req.ParentID, res))
		if err != nil {
			return writeError(c, aierr.Wrap(err, aierr.CodeStoreError, "Failed to record AI interaction"))
		}
		body["interaction_id"] = interaction.ID
	}
	return c.JSON(http.StatusOK, body)
}

type chainResponse struct {
	*chain.WithBaseResult
	InteractionID *int32 `json:"interaction_id,omitempty"`
}

func (s *APIV1Service) handleChain(c echo.Context, task prompt.Task) error {
	ctx := c.Request().Context()
	req, err := parseContentQuery(c)
	if err != nil {
		return writeError(c, err)
	}
	if err := s.checkNoteAccess(ctx, userIDFrom(c), req); err != nil {
		return writeError(c, err)
	}

	res, err := s.Enrichment.RunChainWithBase(ctx, task, req.Content)
	if err != nil {
		return writeError(c, err)
	}

	resp := chainResponse{WithBaseResult: res}
	if req.NoteID != nil {
		interaction, err := s.Store.CreateAIInteraction(ctx, enrichment.NewChainInteraction(*req.NoteID, req.ParentID, res))
		if err != nil {
			return writeError(c, aierr.Wrap(err, aierr.CodeStoreError, "Failed to record AI interaction"))
		}
		resp.InteractionID = &interaction.ID
	}
	return c.JSON(http.StatusOK, resp)
}

// checkNoteAccess verifies that the note_id of req, when given, names a note
// of userID, and that its parent_id names an interaction on that note. It runs
// before any provider call so a bad reference costs nothing.
func (s *APIV1Service) checkNoteAccess(ctx context.Context, userID int32, req *contentQuery) error {
	if req.NoteID == nil {
		return nil
	}
	if _, err := s.findOwnedNote(ctx, userID, *req.NoteID); err != nil {
		return err
	}
	if req.ParentID == nil {
		return nil
	}

	parents, err := s.Store.ListAIInteractions(ctx, &store.FindAIInteraction{ID: req.ParentID, NoteID: req.NoteID})
	if err != nil {
		return aierr.Wrap(err, aierr.CodeStoreError, "Failed to fetch parent interaction")
	}
	if len(parents) == 0 {
		return aierr.Newf(codeNotFound, "interaction %d not found on note %d", *req.ParentID, *req.NoteID)
	}
	return nil
}

func (s *APIV1Service) findOwnedNote(ctx context.Context, userID, noteID int32) (*store.Note, error) {
	note, err := s.Store.GetNote(ctx, &store.FindNote{ID: &noteID, UserID: &userID})
	if err != nil {
		return nil, aierr.Wrap(err, aierr.CodeStoreError, "Failed to fetch note")
	}
	if note == nil {
		return nil, aierr.Newf(codeNotFound, "note %d not found", noteID)
	}
	return note, nil
}

func (s *APIV1Service) Transcribe(c echo.Context) error {
	fh, err := c.FormFile("audio")
	if err != nil {
		return writeError(c, aierr.New(aierr.CodeInvalidArgument, "No audio file provided"))
	}
	if fh.Size == 0 {
		return writeError(c, aierr.New(aierr.CodeInvalidArgument, "Empty audio file"))
	}
	if fh.Size > maxAudioBytes {
		return writeError(c, aierr.Newf(codePayloadTooLarge, "audio exceeds %d bytes", maxAudioBytes))
	}
	contentType := fh.Header.Get(echo.HeaderContentType)
	if !isAllowedAudio(contentType) {
		return writeError(c, aierr.Newf(codeUnsupportedAudio, "Unsupported audio format: %s", contentType))
	}

	ctx := c.Request().Context()
	if err := s.transcribeSemaphore.Acquire(ctx, 1); err != nil {
		return writeError(c, aierr.Wrap(err, aierr.CodeProviderUnavailable, "transcription canceled"))
	}
	defer s.transcribeSemaphore.Release(1)

	f, err := fh.Open()
	if err != nil {
		return writeError(c, aierr.Wrap(err, aierr.CodeInvalidArgument, "Failed to read audio file"))
	}
	defer f.Close()

	text := s.Enrichment.TranscribeReader(ctx, f, filepath.Base(fh.Filename))
	if text == "" {
		return writeError(c, aierr.New(codeTranscriptionEmpty, "Failed to transcribe audio"))
	}
	return c.JSON(http.StatusOK, map[string]any{"text": text, "success": true})
}

func isAllowedAudio(contentType string) bool {
	contentType = strings.ToLower(contentType)
	for _, allowed := range allowedAudioTypes {
		if strings.Contains(contentType, allowed) {
			return true
		}
	}
	return false
}

func parseOptionalID(c echo.Context, name string) (*int32, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 32)
	if err != nil || id <= 0 {
		return nil, aierr.Newf(aierr.CodeInvalidArgument, "invalid %s %q", name, raw)
	}
	v := int32(id)
	return &v, nil
}
