package persist

import (
	"fmt"
	"os"
)

// Persister stores values of one type in a directory, one file per key.
type Persister[T any] struct {
	dir   string
	codec Codec
}

// NewPersister creates a persister rooted at dir. The directory is created
// on the first Save.
func NewPersister[T any](dir string, codec Codec) *Persister[T] {
	return &Persister[T]{
		dir:   dir,
		codec: codec,
	}
}

// Dir returns the directory the persister writes to.
func (p *Persister[T]) Dir() string {
	return p.dir
}

// Save writes v under key.
func (p *Persister[T]) Save(key string, v *T) error {
	if err := os.MkdirAll(p.dir, 0o755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}

	return SaveState(p.dir, key, p.codec, v)
}

// Load reads the value stored under key.
func (p *Persister[T]) Load(key string) (*T, error) {
	var v T

	err := LoadState(p.dir, key, p.codec, &v)
	if err != nil {
		return nil, err
	}

	return &v, nil
}
