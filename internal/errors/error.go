package errors

import (
	stderrors "errors"
	"fmt"

	"github.com/vango-dev/cveboard/pkg/nav"
	"github.com/vango-dev/cveboard/pkg/router"
	"github.com/vango-dev/cveboard/pkg/routepath"
)

// Category represents the type of error.
type Category string

const (
	CategoryRouting    Category = "routing"
	CategoryNavigation Category = "navigation"
	CategoryView       Category = "view"
	CategoryConfig     Category = "config"
	CategoryServer     Category = "server"
)

// NavError is a coded error with an optional target and fix suggestion.
type NavError struct {
	// Code is a unique error identifier (e.g., "E100").
	Code string

	// Category is the error type.
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of the error.
	Detail string

	// Target is the path or route name involved, if any.
	Target string

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *NavError) Error() string {
	msg := e.Message
	if e.Code != "" {
		msg = e.Code + ": " + msg
	}
	if e.Target != "" {
		msg += " (" + e.Target + ")"
	}
	if e.Wrapped != nil {
		msg += ": " + e.Wrapped.Error()
	}
	return msg
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *NavError) Unwrap() error {
	return e.Wrapped
}

// WithTarget records the path or route name involved.
func (e *NavError) WithTarget(target string) *NavError {
	e.Target = target
	return e
}

// WithSuggestion adds a fix suggestion to the error.
func (e *NavError) WithSuggestion(s string) *NavError {
	e.Suggestion = s
	return e
}

// WithDetail adds a detailed explanation to the error.
func (e *NavError) WithDetail(d string) *NavError {
	e.Detail = d
	return e
}

// Wrap wraps another error.
func (e *NavError) Wrap(err error) *NavError {
	e.Wrapped = err
	return e
}

// New creates a NavError from a registered error code.
func New(code string) *NavError {
	template, ok := registry[code]
	if !ok {
		return &NavError{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &NavError{
		Code:       code,
		Category:   template.Category,
		Message:    template.Message,
		Detail:     template.Detail,
		Suggestion: template.Suggestion,
	}
}

// Newf creates a new NavError with a formatted message (no code).
func Newf(category Category, format string, args ...any) *NavError {
	return &NavError{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps a standard error in a NavError.
func FromError(err error, code string) *NavError {
	if err == nil {
		return nil
	}
	var ne *NavError
	if stderrors.As(err, &ne) {
		return ne
	}
	return New(code).Wrap(err)
}

// sentinels maps library errors to codes, most specific first.
var sentinels = []struct {
	err  error
	code string
}{
	{nav.ErrSuperseded, "E105"},
	{nav.ErrNavigationRejected, "E101"},
	{router.ErrDuplicateName, "E102"},
	{router.ErrInvalidPattern, "E103"},
	{router.ErrInvalidRoute, "E103"},
	{router.ErrUnknownRoute, "E104"},
	{router.ErrMissingParam, "E104"},
	{nav.ErrInvalidTarget, "E106"},
	{routepath.ErrInvalidPath, "E106"},
	{routepath.ErrBackslashInPath, "E106"},
	{routepath.ErrNullByteInPath, "E106"},
	{routepath.ErrInvalidPercentEscape, "E106"},
	{routepath.ErrPathEscapesRoot, "E106"},
	{routepath.ErrEncodedSlashInSegment, "E106"},
	{routepath.ErrOutsideBase, "E100"},
	{router.ErrNotFound, "E100"},
	{nav.ErrClosed, "E107"},
}

// Classify returns a coded error for err, recognising the sentinel errors of
// the router, nav and routepath packages. Errors it cannot classify get
// code E199. A nil error returns nil.
func Classify(err error) *NavError {
	if err == nil {
		return nil
	}
	var ne *NavError
	if stderrors.As(err, &ne) {
		return ne
	}
	for _, s := range sentinels {
		if stderrors.Is(err, s.err) {
			return New(s.code).Wrap(err)
		}
	}
	return New("E199").Wrap(err)
}

// Code returns the code of the first NavError in err's chain, or "".
func Code(err error) string {
	var ne *NavError
	if stderrors.As(err, &ne) {
		return ne.Code
	}
	return ""
}
