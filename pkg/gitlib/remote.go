package gitlib

import (
	"context"
	"errors"
	"fmt"

	git2go "github.com/libgit2/git2go/v34"
)

// tokenUser is the user name GitHub expects alongside an access token.
const tokenUser = "x-access-token"

// ErrDiverged is returned by FastForward when the local branch has commits
// the remote branch does not.
var ErrDiverged = errors.New("local branch diverged from remote")

// RemoteOptions configures network operations.
type RemoteOptions struct {
	// Token is sent as the password of a plaintext credential when the
	// remote asks for one. Empty means anonymous access.
	Token string
}

// MergeResult describes what FastForward did.
type MergeResult int

// Fast-forward results.
const (
	UpToDate MergeResult = iota
	FastForwarded
)

// Clone clones url into path and checks out the default branch.
func Clone(ctx context.Context, url, path string, opts RemoteOptions) (*Repository, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("clone %s: %w", url, err)
	}

	repo, err := git2go.Clone(url, path, &git2go.CloneOptions{
		FetchOptions: fetchOptions(ctx, opts),
	})
	if err != nil {
		return nil, fmt.Errorf("clone %s: %w", url, contextOr(ctx, err))
	}

	return &Repository{repo: repo, path: path}, nil
}

// Fetch downloads the refs of the origin remote.
func (r *Repository) Fetch(ctx context.Context, opts RemoteOptions) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("fetch %s: %w", RemoteOrigin, err)
	}

	remote, err := r.repo.Remotes.Lookup(RemoteOrigin)
	if err != nil {
		return fmt.Errorf("lookup remote %s: %w", RemoteOrigin, err)
	}
	defer remote.Free()

	fetchOpts := fetchOptions(ctx, opts)

	err = remote.Fetch(nil, &fetchOpts, "")
	if err != nil {
		return fmt.Errorf("fetch %s: %w", RemoteOrigin, contextOr(ctx, err))
	}

	return nil
}

// FastForward moves the current branch to its origin counterpart and
// checks out the new tree. It returns ErrDiverged when that is not a
// fast-forward.
func (r *Repository) FastForward(branch string) (MergeResult, error) {
	remoteRef, err := r.repo.References.Lookup("refs/remotes/" + RemoteOrigin + "/" + branch)
	if err != nil {
		return UpToDate, fmt.Errorf("lookup remote branch %s: %w", branch, err)
	}
	defer remoteRef.Free()

	annotated, err := r.repo.AnnotatedCommitFromRef(remoteRef)
	if err != nil {
		return UpToDate, fmt.Errorf("annotate %s: %w", branch, err)
	}
	defer annotated.Free()

	analysis, _, err := r.repo.MergeAnalysis([]*git2go.AnnotatedCommit{annotated})
	if err != nil {
		return UpToDate, fmt.Errorf("merge analysis: %w", err)
	}

	switch {
	case analysis&git2go.MergeAnalysisUpToDate != 0:
		return UpToDate, nil
	case analysis&git2go.MergeAnalysisFastForward == 0:
		return UpToDate, ErrDiverged
	}

	target := remoteRef.Target()

	commit, err := r.repo.LookupCommit(target)
	if err != nil {
		return UpToDate, fmt.Errorf("lookup commit: %w", err)
	}
	defer commit.Free()

	tree, err := commit.Tree()
	if err != nil {
		return UpToDate, fmt.Errorf("lookup tree: %w", err)
	}
	defer tree.Free()

	err = r.repo.CheckoutTree(tree, &git2go.CheckoutOptions{Strategy: git2go.CheckoutForce})
	if err != nil {
		return UpToDate, fmt.Errorf("checkout: %w", err)
	}

	head, err := r.repo.Head()
	if err != nil {
		return UpToDate, fmt.Errorf("get HEAD: %w", err)
	}
	defer head.Free()

	moved, err := head.SetTarget(target, "fast-forward to "+RemoteOrigin+"/"+branch)
	if err != nil {
		return UpToDate, fmt.Errorf("move %s: %w", branch, err)
	}

	moved.Free()

	return FastForwarded, nil
}

func fetchOptions(ctx context.Context, opts RemoteOptions) git2go.FetchOptions {
	callbacks := git2go.RemoteCallbacks{
		TransferProgressCallback: func(git2go.TransferProgress) error {
			return ctx.Err()
		},
	}

	if opts.Token != "" {
		callbacks.CredentialsCallback = func(string, string, git2go.CredentialType) (*git2go.Credential, error) {
			return git2go.NewCredentialUserpassPlaintext(tokenUser, opts.Token)
		}
	}

	return git2go.FetchOptions{RemoteCallbacks: callbacks}
}

// contextOr prefers the context error over the libgit2 error it caused.
func contextOr(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return errors.Join(ctxErr, err)
	}

	return err
}
