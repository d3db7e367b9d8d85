// Package analyze defines the analyzer capability and the boundary that turns
// every analyzer invocation into exactly one outcome.
package analyze

import (
	"context"
	"errors"
	"fmt"

	"github.com/Sumatoshi-tech/repometrics/pkg/fileset"
	"github.com/Sumatoshi-tech/repometrics/pkg/model"
)

// Analyzer computes one metric family over a snapshot.
type Analyzer interface {
	ID() model.AnalyzerID
	Description() string

	// Analyze must treat in as read-only.
	Analyze(ctx context.Context, in Input) (model.Payload, error)
}

// Input is the read-only view an analyzer receives. Files is the shared,
// already filtered file list of the snapshot.
type Input struct {
	Snapshot model.RepositorySnapshot
	Files    []fileset.File
}

// Repository returns the owner/name the input belongs to.
func (in Input) Repository() string {
	return in.Snapshot.Ref.FullName()
}

// ParseError reports content the analyzer could not make sense of.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("parse: %v", e.Err)
	}

	return fmt.Sprintf("parse %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// Sentinel errors.
var (
	ErrDuplicateAnalyzerID = errors.New("duplicate analyzer id")
	ErrUnknownAnalyzerID   = errors.New("unknown analyzer id")
	ErrNoPayload           = errors.New("analyzer returned no payload")
	ErrPayloadMismatch     = errors.New("analyzer returned a payload of another analyzer")
)
