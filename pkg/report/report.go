// Package report renders a run result: the schema-validated JSON export,
// the HTML report, the echarts page and the terminal summary.
package report

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/Sumatoshi-tech/repometrics/pkg/model"
)

const (
	dirPerm  = 0o750
	filePerm = 0o644
)

// ErrOutputDirectory is returned when the output directory cannot be used.
var ErrOutputDirectory = errors.New("output directory is not writable")

// Options selects the report files Write produces.
type Options struct {
	Directory string
	HTML      bool
	JSON      bool
	Charts    bool
}

// PrepareDirectory creates dir if needed and checks that files can be
// written to it.
func PrepareDirectory(dir string) error {
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return fmt.Errorf("%w: %w", ErrOutputDirectory, err)
	}

	check, err := os.CreateTemp(dir, ".repometrics-writable-*")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrOutputDirectory, err)
	}

	name := check.Name()

	if err = check.Close(); err != nil {
		return fmt.Errorf("%w: %w", ErrOutputDirectory, err)
	}

	if err = os.Remove(name); err != nil {
		return fmt.Errorf("%w: %w", ErrOutputDirectory, err)
	}

	return nil
}

// Write renders the selected reports of run into opts.Directory and returns
// the written file paths.
func Write(run model.RunResult, opts Options) ([]string, error) {
	if err := PrepareDirectory(opts.Directory); err != nil {
		return nil, err
	}

	var written []string

	if opts.JSON {
		names, err := WriteJSON(opts.Directory, run)
		if err != nil {
			return written, err
		}

		for _, name := range names {
			written = append(written, filepath.Join(opts.Directory, name))
		}
	}

	if opts.HTML {
		path, err := writeRendered(opts.Directory, HTMLFile, run, RenderHTML)
		if err != nil {
			return written, err
		}

		written = append(written, path)
	}

	if opts.Charts {
		path, err := writeRendered(opts.Directory, ChartsFile, run, RenderCharts)
		if err != nil {
			return written, err
		}

		written = append(written, path)
	}

	return written, nil
}

func writeRendered(dir, name string, run model.RunResult, render func(io.Writer, model.RunResult) error) (string, error) {
	var buf bytes.Buffer

	if err := render(&buf, run); err != nil {
		return "", err
	}

	path := filepath.Join(dir, name)

	if err := os.WriteFile(path, buf.Bytes(), filePerm); err != nil {
		return "", fmt.Errorf("write %s: %w", name, err)
	}

	return path, nil
}
