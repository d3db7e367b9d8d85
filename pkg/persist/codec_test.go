package persist

import (
	"bytes"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testState is a struct for round-trip codec testing.
type testState struct {
	Name   string         `json:"name"`
	Count  int            `json:"count"`
	Values map[string]int `json:"values"`
}

func TestJSONCodec_RoundTrip(t *testing.T) {
	t.Parallel()

	codec := NewJSONCodec()

	original := testState{
		Name:   "test",
		Count:  42,
		Values: map[string]int{"a": 1, "b": 2},
	}

	var buf bytes.Buffer

	require.NoError(t, codec.Encode(&buf, original))

	var decoded testState

	require.NoError(t, codec.Decode(&buf, &decoded))

	assert.Equal(t, original, decoded)
	assert.Equal(t, ".json", codec.Extension())
}

func TestJSONCodec_CompactNoIndent(t *testing.T) {
	t.Parallel()

	codec := &JSONCodec{Indent: ""}

	var buf bytes.Buffer

	require.NoError(t, codec.Encode(&buf, testState{Name: "compact", Count: 1}))

	// Compact JSON has at most one trailing newline (from json.Encoder).
	assert.LessOrEqual(t, strings.Count(buf.String(), "\n"), 1)
}

func TestJSONCodec_Errors(t *testing.T) {
	t.Parallel()

	codec := NewJSONCodec()

	var decoded testState

	err := codec.Decode(strings.NewReader("not valid json{{{"), &decoded)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "json decode")

	// Channels cannot be JSON-encoded.
	err = codec.Encode(&bytes.Buffer{}, make(chan int))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "json encode")
}

func TestLZ4Codec_RoundTrip(t *testing.T) {
	t.Parallel()

	codec := NewLZ4Codec(&JSONCodec{})

	original := testState{
		Name:   strings.Repeat("compressible ", 200),
		Count:  7,
		Values: map[string]int{"x": 10},
	}

	var buf bytes.Buffer

	require.NoError(t, codec.Encode(&buf, original))
	assert.Less(t, buf.Len(), len(original.Name))

	var decoded testState

	require.NoError(t, codec.Decode(&buf, &decoded))

	assert.Equal(t, original, decoded)
	assert.Equal(t, ".json.lz4", codec.Extension())
}

func TestLZ4Codec_DecodeError(t *testing.T) {
	t.Parallel()

	var decoded testState

	err := NewLZ4Codec(NewJSONCodec()).Decode(strings.NewReader("not an lz4 frame"), &decoded)

	require.Error(t, err)
}

func TestSaveLoadState(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	codec := NewJSONCodec()

	original := testState{Name: "load-test", Count: 77, Values: map[string]int{"k": 5}}

	require.NoError(t, SaveState(dir, "test_state", codec, original))

	_, err := os.Stat(filepath.Join(dir, "test_state.json"))
	require.NoError(t, err)

	var loaded testState

	require.NoError(t, LoadState(dir, "test_state", codec, &loaded))
	assert.Equal(t, original, loaded)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temporary files are left behind")
}

func TestLoadState_FileNotFound(t *testing.T) {
	t.Parallel()

	var state testState

	err := LoadState(t.TempDir(), "nonexistent", NewJSONCodec(), &state)

	require.ErrorIs(t, err, fs.ErrNotExist)
}

func TestSaveState_InvalidDirectory(t *testing.T) {
	t.Parallel()

	err := SaveState("/nonexistent/path/that/does/not/exist", "test", NewJSONCodec(), testState{Name: "test"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "create")
}

func TestSaveState_EncodeErrorLeavesNothing(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	// Channels cannot be JSON-encoded.
	err := SaveState(dir, "bad", NewJSONCodec(), make(chan int))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "encode")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestLoadState_DecodeError(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "corrupt.json"), []byte("not json{{{"), 0o600))

	var state testState

	err := LoadState(dir, "corrupt", NewJSONCodec(), &state)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode")
}
