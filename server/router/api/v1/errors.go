package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/ideanote/ai/aierr"
)

// Codes owned by the HTTP boundary.
const (
	codeUnauthenticated    aierr.Code = "UNAUTHENTICATED"
	codeNotFound           aierr.Code = "NOT_FOUND"
	codeUnsupportedAudio   aierr.Code = "UNSUPPORTED_AUDIO"
	codeTranscriptionEmpty aierr.Code = "TRANSCRIPTION_EMPTY"
	codePayloadTooLarge    aierr.Code = "PAYLOAD_TOO_LARGE"
)

var codeStatus = map[aierr.Code]int{
	aierr.CodeContentMissing:      http.StatusBadRequest,
	aierr.CodeContentTooShort:     http.StatusBadRequest,
	aierr.CodeInvalidArgument:     http.StatusBadRequest,
	aierr.CodeNoTagsGenerated:     http.StatusUnprocessableEntity,
	aierr.CodeNoValidTags:         http.StatusUnprocessableEntity,
	aierr.CodeAIError:             http.StatusInternalServerError,
	aierr.CodeStoreError:          http.StatusInternalServerError,
	aierr.CodeUnknown:             http.StatusInternalServerError,
	aierr.CodeProviderUnavailable: http.StatusServiceUnavailable,
	aierr.CodeProviderError:       http.StatusBadGateway,
	aierr.CodeEmptyResponse:       http.StatusBadGateway,
	aierr.CodeChainFailed:         http.StatusBadGateway,

	codeUnauthenticated:    http.StatusUnauthorized,
	codeNotFound:           http.StatusNotFound,
	codeUnsupportedAudio:   http.StatusBadRequest,
	codeTranscriptionEmpty: http.StatusUnprocessableEntity,
	codePayloadTooLarge:    http.StatusRequestEntityTooLarge,
}

// StatusFor returns the HTTP status of code.
func StatusFor(code aierr.Code) int {
	if status, ok := codeStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

type errorResponse struct {
	Error string     `json:"error"`
	Code  aierr.Code `json:"code"`
}

// writeError renders err as {"error", "code"} with the status of its code.
func writeError(c echo.Context, err error) error {
	code := aierr.CodeOf(err)
	return c.JSON(StatusFor(code), errorResponse{Error: aierr.MessageOf(err), Code: code})
}
