// Package persist writes and reads encoded values on disk: report
// documents and result cache entries.
package persist

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pierrec/lz4/v4"
)

// File extensions for supported codecs.
const (
	jsonExtension = ".json"
	lz4Extension  = ".lz4"
)

// Default indentation for pretty-printed JSON.
const defaultIndent = "  "

// Codec defines how a value is serialized and deserialized.
type Codec interface {
	// Encode writes v to the writer.
	Encode(w io.Writer, v any) error
	// Decode reads into v from the reader.
	Decode(r io.Reader, v any) error
	// Extension returns the file extension for this codec (e.g. ".json").
	Extension() string
}

// JSONCodec implements Codec using JSON encoding with optional indentation.
type JSONCodec struct {
	// Indent specifies the indentation string. Empty string means compact JSON.
	Indent string
}

// NewJSONCodec creates a JSON codec with pretty-printing (2-space indent).
func NewJSONCodec() *JSONCodec {
	return &JSONCodec{Indent: defaultIndent}
}

// Encode implements Codec.Encode using JSON encoding.
func (c *JSONCodec) Encode(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	if c.Indent != "" {
		encoder.SetIndent("", c.Indent)
	}

	err := encoder.Encode(v)
	if err != nil {
		return fmt.Errorf("json encode: %w", err)
	}

	return nil
}

// Decode implements Codec.Decode using JSON decoding.
func (c *JSONCodec) Decode(r io.Reader, v any) error {
	decoder := json.NewDecoder(r)

	err := decoder.Decode(v)
	if err != nil {
		return fmt.Errorf("json decode: %w", err)
	}

	return nil
}

// Extension implements Codec.Extension for JSON files.
func (c *JSONCodec) Extension() string {
	return jsonExtension
}

// LZ4Codec compresses the output of another codec with an LZ4 frame.
type LZ4Codec struct {
	Inner Codec
}

// NewLZ4Codec wraps inner with LZ4 compression.
func NewLZ4Codec(inner Codec) *LZ4Codec {
	return &LZ4Codec{Inner: inner}
}

// Encode implements Codec.Encode.
func (c *LZ4Codec) Encode(w io.Writer, v any) error {
	zw := lz4.NewWriter(w)

	if err := c.Inner.Encode(zw, v); err != nil {
		return err
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("lz4 encode: %w", err)
	}

	return nil
}

// Decode implements Codec.Decode.
func (c *LZ4Codec) Decode(r io.Reader, v any) error {
	return c.Inner.Decode(lz4.NewReader(r), v)
}

// Extension implements Codec.Extension: the inner extension plus ".lz4".
func (c *LZ4Codec) Extension() string {
	return c.Inner.Extension() + lz4Extension
}

// SaveState writes v to dir/basename+extension. The file is written to a
// temporary name first and renamed, so readers never see a partial file.
func SaveState(dir, basename string, codec Codec, v any) error {
	path := filepath.Join(dir, basename+codec.Extension())

	file, err := os.CreateTemp(dir, "."+basename+".tmp-*")
	if err != nil {
		return fmt.Errorf("create state file: %w", err)
	}

	tmp := file.Name()

	err = codec.Encode(file, v)
	if closeErr := file.Close(); err == nil && closeErr != nil {
		err = closeErr
	}

	if err != nil {
		_ = os.Remove(tmp)

		return fmt.Errorf("encode state: %w", err)
	}

	if err = os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)

		return fmt.Errorf("rename state file: %w", err)
	}

	return nil
}

// LoadState reads dir/basename+extension into v, which must be a pointer.
// A missing file yields an error matching fs.ErrNotExist.
func LoadState(dir, basename string, codec Codec, v any) error {
	path := filepath.Join(dir, basename+codec.Extension())

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open state file: %w", err)
	}
	defer file.Close()

	err = codec.Decode(file, v)
	if err != nil {
		return fmt.Errorf("decode state: %w", err)
	}

	return nil
}
