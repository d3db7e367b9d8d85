package gitlib

import (
	"errors"
	"fmt"

	git2go "github.com/libgit2/git2go/v34"
)

// RemoteOrigin is the remote every snapshot tracks.
const RemoteOrigin = "origin"

// ErrDetachedHead is returned when HEAD does not point at a branch.
var ErrDetachedHead = errors.New("HEAD is detached")

// Repository wraps a libgit2 repository.
type Repository struct {
	repo *git2go.Repository
	path string
}

// OpenRepository opens the git repository at path.
func OpenRepository(path string) (*Repository, error) {
	repo, err := git2go.OpenRepository(path)
	if err != nil {
		return nil, fmt.Errorf("open repository: %w", err)
	}

	return &Repository{repo: repo, path: path}, nil
}

// Path returns the repository path.
func (r *Repository) Path() string {
	return r.path
}

// Free releases the repository resources.
func (r *Repository) Free() {
	if r.repo != nil {
		r.repo.Free()
		r.repo = nil
	}
}

// Head returns the commit HEAD points at.
func (r *Repository) Head() (Hash, error) {
	ref, err := r.repo.Head()
	if err != nil {
		return Hash{}, fmt.Errorf("get HEAD: %w", err)
	}
	defer ref.Free()

	return HashFromOid(ref.Target()), nil
}

// HeadBranch returns the short name of the branch HEAD points at.
func (r *Repository) HeadBranch() (string, error) {
	detached, err := r.repo.IsHeadDetached()
	if err != nil {
		return "", fmt.Errorf("inspect HEAD: %w", err)
	}

	if detached {
		return "", ErrDetachedHead
	}

	ref, err := r.repo.Head()
	if err != nil {
		return "", fmt.Errorf("get HEAD: %w", err)
	}
	defer ref.Free()

	return ref.Shorthand(), nil
}

// RemoteURL returns the URL of the origin remote.
func (r *Repository) RemoteURL() (string, error) {
	remote, err := r.repo.Remotes.Lookup(RemoteOrigin)
	if err != nil {
		return "", fmt.Errorf("lookup remote %s: %w", RemoteOrigin, err)
	}
	defer remote.Free()

	return remote.Url(), nil
}
