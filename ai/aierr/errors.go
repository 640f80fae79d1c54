// Package aierr defines the tagged failures returned by the enrichment layer.
// Every failure that crosses the layer boundary carries a stable Code so callers
// can branch on it without matching message text.
package aierr

import (
	"errors"
	"fmt"
)

// Code is a machine-readable failure code.
type Code string

const (
	CodeContentMissing      Code = "CONTENT_MISSING"
	CodeContentTooShort     Code = "CONTENT_TOO_SHORT"
	CodeProviderUnavailable Code = "PROVIDER_UNAVAILABLE"
	CodeProviderError       Code = "PROVIDER_ERROR"
	CodeEmptyResponse       Code = "EMPTY_RESPONSE"
	CodeNoTagsGenerated     Code = "NO_TAGS_GENERATED"
	CodeNoValidTags         Code = "NO_VALID_TAGS"
	CodeAIError             Code = "AI_ERROR"
	CodeChainFailed         Code = "CHAIN_FAILED"
	CodeInvalidArgument     Code = "INVALID_ARGUMENT"
	CodeStoreError          Code = "DB_ERROR"
	CodeUnknown             Code = "UNKNOWN_ERROR"
)

// Error is a tagged failure.
type Error struct {
	Err      error
	Code     Code
	Message  string
	Provider string // model name of the provider involved, if any
}

// New creates a tagged failure.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates a tagged failure with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap tags err with code. The upstream error stays reachable through errors.Unwrap.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// WithProvider returns a copy of e attributed to provider.
func (e *Error) WithProvider(provider string) *Error {
	cp := *e
	cp.Provider = provider
	return &cp
}

func (e *Error) Error() string {
	msg := string(e.Code) + ": " + e.Message
	if e.Provider != "" {
		msg += " (provider " + e.Provider + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error with the same code,
// so errors.Is(err, aierr.New(aierr.CodeNoValidTags, "")) works.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// CodeOf returns the code of the first *Error in err's chain.
// Untagged non-nil errors report CodeUnknown; nil reports "".
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeUnknown
}

// MessageOf returns the human-readable message for err.
func MessageOf(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// HasCode reports whether err carries code.
func HasCode(err error, code Code) bool {
	return CodeOf(err) == code
}
