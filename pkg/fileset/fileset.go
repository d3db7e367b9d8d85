// Package fileset lists the files of a snapshot once per repository, after
// exclusion, so every analyzer sees the same input.
package fileset

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/src-d/enry/v2"

	"github.com/Sumatoshi-tech/repometrics/pkg/exclude"
)

// File is one regular file of a snapshot.
type File struct {
	// Path is slash-separated and relative to the snapshot root.
	Path string
	// AbsPath is the path on disk.
	AbsPath string
	Size    int64
}

// Options controls which files Collect keeps.
type Options struct {
	Exclude *exclude.Matcher
	// MaxFileSize skips larger files. Zero disables the limit.
	MaxFileSize int64
}

// Stats counts what Collect skipped.
type Stats struct {
	Kept     int
	Excluded int
	Vendored int
	Oversize int
}

// Collect walks root and returns its files sorted by Path. The .git
// directory, vendored paths and excluded paths are skipped; symlinks and
// other non-regular files are ignored.
func Collect(ctx context.Context, root string, opts Options) ([]File, Stats, error) {
	var (
		files []File
		stats Stats
	)

	walkErr := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if p == root {
			return nil
		}

		rel, relErr := filepath.Rel(root, p)
		if relErr != nil {
			return fmt.Errorf("relative path of %s: %w", p, relErr)
		}

		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			return skipDir(rel, d.Name(), opts, &stats)
		}

		if !d.Type().IsRegular() {
			return nil
		}

		if enry.IsVendor(rel) {
			stats.Vendored++

			return nil
		}

		if opts.Exclude.Match(rel) {
			stats.Excluded++

			return nil
		}

		info, infoErr := d.Info()
		if infoErr != nil {
			return fmt.Errorf("stat %s: %w", rel, infoErr)
		}

		if opts.MaxFileSize > 0 && info.Size() > opts.MaxFileSize {
			stats.Oversize++

			return nil
		}

		files = append(files, File{Path: rel, AbsPath: p, Size: info.Size()})

		return nil
	})
	if walkErr != nil {
		return nil, stats, fmt.Errorf("collect files under %s: %w", root, walkErr)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	stats.Kept = len(files)

	return files, stats, nil
}

func skipDir(rel, name string, opts Options, stats *Stats) error {
	switch {
	case name == ".git":
		return filepath.SkipDir
	case enry.IsVendor(rel + "/"):
		stats.Vendored++

		return filepath.SkipDir
	case opts.Exclude.MatchDir(rel):
		stats.Excluded++

		return filepath.SkipDir
	default:
		return nil
	}
}

// Read returns the contents of f.
func Read(f File) ([]byte, error) {
	data, err := os.ReadFile(f.AbsPath)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.Path, err)
	}

	return data, nil
}
