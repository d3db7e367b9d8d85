package report

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/Sumatoshi-tech/repometrics/pkg/model"
	"github.com/Sumatoshi-tech/repometrics/pkg/persist"
)

// Output file names, without their extension where persist adds it.
const (
	resultsBasename = "complexity_results"
	summaryBasename = "complexity_summary"

	ResultsFile = resultsBasename + ".json"
	SummaryFile = summaryBasename + ".json"
)

// ErrInvalidDocument is returned when an exported document does not match
// the results schema.
var ErrInvalidDocument = errors.New("document does not match the results schema")

//go:embed schema.json
var schemaJSON []byte

// Schema returns the JSON schema of complexity_results.json.
func Schema() []byte {
	return bytes.Clone(schemaJSON)
}

// EncodeResults renders run as the indented results document.
func EncodeResults(run model.RunResult) ([]byte, error) {
	var buf bytes.Buffer

	if err := persist.NewJSONCodec().Encode(&buf, run); err != nil {
		return nil, fmt.Errorf("encode results: %w", err)
	}

	return buf.Bytes(), nil
}

// Violations validates a results document and returns one message per
// schema violation. The error is reserved for documents that are not JSON.
func Violations(document []byte) ([]string, error) {
	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schemaJSON),
		gojsonschema.NewBytesLoader(document),
	)
	if err != nil {
		return nil, fmt.Errorf("validate document: %w", err)
	}

	if result.Valid() {
		return nil, nil
	}

	violations := make([]string, 0, len(result.Errors()))
	for _, verr := range result.Errors() {
		violations = append(violations, fmt.Sprintf("%s: %s", verr.Field(), verr.Description()))
	}

	return violations, nil
}

// ValidateResults returns an error wrapping ErrInvalidDocument when
// document violates the schema.
func ValidateResults(document []byte) error {
	violations, err := Violations(document)
	if err != nil {
		return err
	}

	if len(violations) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidDocument, strings.Join(violations, "; "))
	}

	return nil
}

// WriteJSON validates run against the schema and writes the results and
// summary documents to dir.
func WriteJSON(dir string, run model.RunResult) ([]string, error) {
	document, err := EncodeResults(run)
	if err != nil {
		return nil, err
	}

	if err = ValidateResults(document); err != nil {
		return nil, err
	}

	codec := persist.NewJSONCodec()

	if err = persist.SaveState(dir, resultsBasename, codec, run); err != nil {
		return nil, fmt.Errorf("write %s: %w", ResultsFile, err)
	}

	if err = persist.SaveState(dir, summaryBasename, codec, run.Summary); err != nil {
		return nil, fmt.Errorf("write %s: %w", SummaryFile, err)
	}

	return []string{ResultsFile, SummaryFile}, nil
}
