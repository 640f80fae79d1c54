package v1

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/labstack/echo/v4"

	"github.com/hrygo/ideanote/ai/aierr"
)

const (
	maxContentLength = 20000
	maxTitleLength   = 200
	maxTagLength     = 50
	maxTagsPerNote   = 20
)

type contentQuery struct {
	NoteID   *int32
	ParentID *int32
	Content  string
}

func (q contentQuery) Validate() error {
	return validation.ValidateStruct(&q,
		validation.Field(&q.Content, validation.RuneLength(0, maxContentLength)),
		validation.Field(&q.ParentID, validation.When(q.NoteID == nil, validation.Nil.Error("requires note_id"))),
	)
}

// parseContentQuery reads content, note_id and parent_id. Blank content is
// left for the enrichment layer to reject with its own code.
func parseContentQuery(c echo.Context) (*contentQuery, error) {
	noteID, err := parseOptionalID(c, "note_id")
	if err != nil {
		return nil, err
	}
	parentID, err := parseOptionalID(c, "parent_id")
	if err != nil {
		return nil, err
	}
	q := &contentQuery{Content: c.QueryParam("content"), NoteID: noteID, ParentID: parentID}
	if err := q.Validate(); err != nil {
		return nil, invalidArgument(err)
	}
	return q, nil
}

type createNoteRequest struct {
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	Category string   `json:"category"`
	Tags     []string `json:"tags"`
}

func (r createNoteRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Required, validation.RuneLength(1, maxTitleLength)),
		validation.Field(&r.Content, validation.RuneLength(0, maxContentLength)),
		validation.Field(&r.Category, validation.RuneLength(0, maxTagLength)),
		validation.Field(&r.Tags, validation.Length(0, maxTagsPerNote), validation.Each(validation.By(validTagName))),
	)
}

// updateNoteRequest holds the fields to change; absent fields stay as they are.
type updateNoteRequest struct {
	Title    *string   `json:"title"`
	Content  *string   `json:"content"`
	Category *string   `json:"category"`
	Tags     *[]string `json:"tags"`
}

func (r updateNoteRequest) Validate() error {
	if r.Title == nil && r.Content == nil && r.Category == nil && r.Tags == nil {
		return validation.NewError("validation_update_empty", "nothing to update")
	}
	if err := validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.NilOrNotEmpty, validation.RuneLength(1, maxTitleLength)),
		validation.Field(&r.Content, validation.RuneLength(0, maxContentLength)),
		validation.Field(&r.Category, validation.RuneLength(0, maxTagLength)),
	); err != nil {
		return err
	}
	if r.Tags == nil {
		return nil
	}
	return setNoteTagsRequest{Tags: *r.Tags}.Validate()
}

type setNoteTagsRequest struct {
	Tags []string `json:"tags"`
}

func (r setNoteTagsRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Tags, validation.Length(0, maxTagsPerNote), validation.Each(validation.By(validTagName))),
	)
}

func validTagName(value any) error {
	name, _ := value.(string)
	name = strings.TrimSpace(name)
	if name == "" {
		return validation.NewError("validation_tag_blank", "must not be blank")
	}
	if strings.Contains(name, ",") {
		return validation.NewError("validation_tag_comma", "must not contain a comma")
	}
	return validation.RuneLength(1, maxTagLength).Validate(name)
}

func invalidArgument(err error) error {
	return aierr.Wrap(err, aierr.CodeInvalidArgument, err.Error())
}
