// Package gittest builds throwaway git repositories for tests.
package gittest

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	git2go "github.com/libgit2/git2go/v34"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/repometrics/pkg/gitlib"
)

// Repo is a non-bare repository in a temporary directory.
type Repo struct {
	t    testing.TB
	path string
	repo *git2go.Repository
}

// New initializes an empty repository under t.TempDir().
func New(t testing.TB) *Repo {
	t.Helper()

	dir := t.TempDir()

	repo, err := git2go.InitRepository(dir, false)
	require.NoError(t, err)

	r := &Repo{t: t, path: dir, repo: repo}
	t.Cleanup(r.Close)

	return r
}

// NewAt initializes an empty repository at dir, creating missing parents.
// It serves layouts such as <root>/<owner>/<name>.git.
func NewAt(t testing.TB, dir string) *Repo {
	t.Helper()

	require.NoError(t, os.MkdirAll(dir, 0o750))

	repo, err := git2go.InitRepository(dir, false)
	require.NoError(t, err)

	r := &Repo{t: t, path: dir, repo: repo}
	t.Cleanup(r.Close)

	return r
}

// Open wraps an existing working tree, e.g. a clone made by the code under test.
func Open(t testing.TB, path string) *Repo {
	t.Helper()

	repo, err := git2go.OpenRepository(path)
	require.NoError(t, err)

	r := &Repo{t: t, path: path, repo: repo}
	t.Cleanup(r.Close)

	return r
}

// Close frees the repository.
func (r *Repo) Close() {
	if r.repo != nil {
		r.repo.Free()
		r.repo = nil
	}
}

// Path returns the working directory.
func (r *Repo) Path() string { return r.path }

// WriteFile writes content to name, creating parent directories.
func (r *Repo) WriteFile(name, content string) {
	r.t.Helper()

	p := filepath.Join(r.path, filepath.FromSlash(name))

	require.NoError(r.t, os.MkdirAll(filepath.Dir(p), 0o750))
	require.NoError(r.t, os.WriteFile(p, []byte(content), 0o600))
}

// Commit stages the whole working tree and commits it on HEAD.
func (r *Repo) Commit(message string) gitlib.Hash {
	r.t.Helper()

	index, err := r.repo.Index()
	require.NoError(r.t, err)
	defer index.Free()

	require.NoError(r.t, index.AddAll([]string{"*"}, git2go.IndexAddDefault, nil))
	require.NoError(r.t, index.Write())

	treeID, err := index.WriteTree()
	require.NoError(r.t, err)

	tree, err := r.repo.LookupTree(treeID)
	require.NoError(r.t, err)
	defer tree.Free()

	sig := &git2go.Signature{Name: "Test", Email: "test@example.com", When: time.Now()}

	var parents []*git2go.Commit

	head, err := r.repo.Head()
	if err == nil {
		headCommit, lookupErr := r.repo.LookupCommit(head.Target())
		if lookupErr == nil {
			parents = append(parents, headCommit)
		}

		head.Free()
	}

	oid, err := r.repo.CreateCommit("HEAD", sig, sig, message, tree, parents...)
	require.NoError(r.t, err)

	for _, p := range parents {
		p.Free()
	}

	return gitlib.HashFromOid(oid)
}

// CommitFile writes one file and commits it.
func (r *Repo) CommitFile(name, content, message string) gitlib.Hash {
	r.t.Helper()

	r.WriteFile(name, content)

	return r.Commit(message)
}
