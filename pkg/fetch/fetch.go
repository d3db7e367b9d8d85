// Package fetch materializes repository snapshots on local disk. A snapshot
// lives at <root>/<host>/<owner>/<name> (<root>/<owner>/<name> for local
// sources) and is refreshed in place by fetch and fast-forward when it
// already exists.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/Sumatoshi-tech/repometrics/pkg/gitlib"
	"github.com/Sumatoshi-tech/repometrics/pkg/model"
	"github.com/Sumatoshi-tech/repometrics/pkg/runctx"
)

const (
	dirPerm       = 0o750
	stagingSuffix = ".partial-*"
)

// Limiter delays remote operations while the hosting API is rate limited.
type Limiter interface {
	Wait(ctx context.Context) error
}

// Fetcher clones or updates repository snapshots.
type Fetcher struct {
	root    string
	remote  gitlib.RemoteOptions
	limiter Limiter
	logger  *slog.Logger
	retain  bool
	locks   keyedMutex
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithToken authenticates clone and fetch with an access token.
func WithToken(token string) Option {
	return func(f *Fetcher) { f.remote.Token = token }
}

// WithRetainSnapshots controls whether Release keeps snapshots on disk.
func WithRetainSnapshots(retain bool) Option {
	return func(f *Fetcher) { f.retain = retain }
}

// New creates a Fetcher rooted at the run's cache root.
func New(rc *runctx.RunContext, opts ...Option) *Fetcher {
	f := &Fetcher{
		root:    rc.CacheRoot,
		limiter: rc.Limiter,
		logger:  rc.Logger,
		retain:  true,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// Path returns the snapshot directory of ref.
func (f *Fetcher) Path(ref model.RepositoryRef) string {
	if host := ref.Host(); host != "" {
		return filepath.Join(f.root, strings.ReplaceAll(host, ":", "_"), ref.Owner, ref.Name)
	}

	return filepath.Join(f.root, ref.Owner, ref.Name)
}

// Fetch returns an up-to-date snapshot of ref. An existing snapshot is
// fast-forwarded; a missing, unusable or diverged one is replaced by a
// fresh clone. A failed update leaves the prior snapshot untouched.
func (f *Fetcher) Fetch(ctx context.Context, ref model.RepositoryRef) (model.RepositorySnapshot, error) {
	path := f.Path(ref)

	unlock := f.locks.Lock(path)
	defer unlock()

	if err := ctx.Err(); err != nil {
		return model.RepositorySnapshot{}, model.NewError(model.KindFetchNetwork, "fetch "+ref.FullName(), err)
	}

	if isRemote(ref.SourceURI) && f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return model.RepositorySnapshot{}, model.NewError(model.KindFetchNetwork, "wait for rate limit", err)
		}
	}

	snapshot, err := f.update(ctx, ref, path)
	if err == nil {
		return snapshot, nil
	}

	if !errors.Is(err, errNeedsClone) {
		return model.RepositorySnapshot{}, err
	}

	return f.clone(ctx, ref, path)
}

// Release deletes the snapshot unless snapshots are retained.
func (f *Fetcher) Release(snapshot model.RepositorySnapshot) error {
	if f.retain || snapshot.LocalRootPath == "" {
		return nil
	}

	unlock := f.locks.Lock(snapshot.LocalRootPath)
	defer unlock()

	err := os.RemoveAll(snapshot.LocalRootPath)
	if err != nil {
		return fmt.Errorf("release snapshot %s: %w", snapshot.Ref.FullName(), err)
	}

	return nil
}

var errNeedsClone = errors.New("snapshot needs a fresh clone")

func (f *Fetcher) update(ctx context.Context, ref model.RepositoryRef, path string) (model.RepositorySnapshot, error) {
	if _, statErr := os.Stat(path); statErr != nil {
		return model.RepositorySnapshot{}, errNeedsClone
	}

	repo, err := gitlib.OpenRepository(path)
	if err != nil {
		f.logger.WarnContext(ctx, "snapshot unusable, recloning", "repository", ref.FullName(), "error", err)

		return model.RepositorySnapshot{}, errNeedsClone
	}
	defer repo.Free()

	origin, err := repo.RemoteURL()
	if err != nil || origin != ref.SourceURI {
		f.logger.WarnContext(ctx, "snapshot origin changed, recloning",
			"repository", ref.FullName(), "origin", origin, "source", ref.SourceURI)

		return model.RepositorySnapshot{}, errNeedsClone
	}

	branch, err := repo.HeadBranch()
	if err != nil {
		f.logger.WarnContext(ctx, "snapshot has no branch, recloning", "repository", ref.FullName(), "error", err)

		return model.RepositorySnapshot{}, errNeedsClone
	}

	err = repo.Fetch(ctx, f.remote)
	if err != nil {
		return model.RepositorySnapshot{}, classify(ctx, "update "+ref.FullName(), err)
	}

	result, err := repo.FastForward(branch)
	if err != nil {
		f.logger.WarnContext(ctx, "fast-forward failed, recloning", "repository", ref.FullName(), "error", err)

		return model.RepositorySnapshot{}, errNeedsClone
	}

	head, err := repo.Head()
	if err != nil {
		return model.RepositorySnapshot{}, errNeedsClone
	}

	f.logger.DebugContext(ctx, "snapshot updated",
		"repository", ref.FullName(), "revision", head.String(), "fast_forwarded", result == gitlib.FastForwarded)

	return model.RepositorySnapshot{
		Ref:           ref,
		LocalRootPath: path,
		RevisionID:    head.String(),
		Updated:       true,
	}, nil
}

func (f *Fetcher) clone(ctx context.Context, ref model.RepositoryRef, path string) (model.RepositorySnapshot, error) {
	parent := filepath.Dir(path)

	err := os.MkdirAll(parent, dirPerm)
	if err != nil {
		return model.RepositorySnapshot{}, model.NewError(model.KindFetchNetwork, "prepare "+parent, err)
	}

	staging, err := os.MkdirTemp(parent, "."+filepath.Base(path)+stagingSuffix)
	if err != nil {
		return model.RepositorySnapshot{}, model.NewError(model.KindFetchNetwork, "create staging directory", err)
	}

	committed := false

	defer func() {
		if !committed {
			if rmErr := os.RemoveAll(staging); rmErr != nil {
				f.logger.WarnContext(ctx, "remove staging directory", "path", staging, "error", rmErr)
			}
		}
	}()

	repo, err := gitlib.Clone(ctx, ref.SourceURI, staging, f.remote)
	if err != nil {
		return model.RepositorySnapshot{}, classify(ctx, "clone "+ref.FullName(), err)
	}

	head, err := repo.Head()
	repo.Free()

	if err != nil {
		return model.RepositorySnapshot{}, model.NewError(model.KindFetchNotFound, "clone "+ref.FullName(), err)
	}

	if err := ctx.Err(); err != nil {
		return model.RepositorySnapshot{}, model.NewError(model.KindFetchNetwork, "clone "+ref.FullName(), err)
	}

	err = os.RemoveAll(path)
	if err != nil {
		return model.RepositorySnapshot{}, model.NewError(model.KindFetchNetwork, "replace snapshot", err)
	}

	err = os.Rename(staging, path)
	if err != nil {
		return model.RepositorySnapshot{}, model.NewError(model.KindFetchNetwork, "install snapshot", err)
	}

	committed = true

	f.logger.DebugContext(ctx, "snapshot cloned", "repository", ref.FullName(), "revision", head.String())

	return model.RepositorySnapshot{
		Ref:           ref,
		LocalRootPath: path,
		RevisionID:    head.String(),
	}, nil
}

func classify(ctx context.Context, op string, err error) error {
	if ctx.Err() != nil {
		return model.NewError(model.KindFetchNetwork, op, err)
	}

	switch gitlib.Classify(err) {
	case gitlib.FailureAuth:
		return model.NewError(model.KindFetchAuth, op, err)
	case gitlib.FailureNotFound:
		return model.NewError(model.KindFetchNotFound, op, err)
	default:
		return model.NewError(model.KindFetchNetwork, op, err)
	}
}

func isRemote(uri string) bool {
	for _, scheme := range []string{"https://", "http://", "ssh://", "git://", "git@"} {
		if strings.HasPrefix(uri, scheme) {
			return true
		}
	}

	return false
}
