package model

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures across the pipeline.
type ErrorKind string

// Error kinds.
const (
	KindSourceUnavailable    ErrorKind = "SourceUnavailable"
	KindFetchNetwork         ErrorKind = "FetchNetwork"
	KindFetchAuth            ErrorKind = "FetchAuth"
	KindFetchNotFound        ErrorKind = "FetchNotFound"
	KindAnalyzerParseFailure ErrorKind = "AnalyzerParseFailure"
	KindAnalyzerTimeout      ErrorKind = "AnalyzerTimeout"
	KindAnalyzerInternal     ErrorKind = "AnalyzerInternal"
	KindConfigInvalid        ErrorKind = "ConfigInvalid"
)

// Sentinel errors.
var (
	ErrConfigInvalid         = errors.New("invalid configuration")
	ErrSourceUnavailable     = errors.New("repository source unavailable")
	ErrEmptyRepositorySet    = errors.New("resolved repository set is empty")
	ErrInvalidRepositoryName = errors.New("repository must have the form owner/name")
)

// Error is a classified error. Op names the failing operation.
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

// NewError builds a classified error.
func NewError(kind ErrorKind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}

	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of the first *Error in err's chain, or def.
func KindOf(err error, def ErrorKind) ErrorKind {
	var classified *Error
	if errors.As(err, &classified) {
		return classified.Kind
	}

	return def
}

// IsFetchKind reports whether kind belongs to the FetchError family.
func IsFetchKind(kind ErrorKind) bool {
	return kind == KindFetchNetwork || kind == KindFetchAuth || kind == KindFetchNotFound
}

// IsRunFatal reports whether err must abort the run before any work starts.
func IsRunFatal(err error) bool {
	if errors.Is(err, ErrEmptyRepositorySet) {
		return true
	}

	kind := KindOf(err, "")

	return kind == KindConfigInvalid || kind == KindSourceUnavailable
}
