package gitlib

import (
	"errors"
	"strings"

	git2go "github.com/libgit2/git2go/v34"
)

// Failure classifies a libgit2 error.
type Failure int

// Failure classes.
const (
	FailureOther Failure = iota
	FailureNetwork
	FailureAuth
	FailureNotFound
)

// Classify maps a libgit2 error to a Failure. HTTP transports report status
// codes only in the message, so those are matched textually.
func Classify(err error) Failure {
	var gitErr *git2go.GitError
	if !errors.As(err, &gitErr) {
		return FailureOther
	}

	msg := strings.ToLower(gitErr.Message)

	switch {
	case gitErr.Code == git2go.ErrorCodeAuth,
		strings.Contains(msg, "401"),
		strings.Contains(msg, "403"),
		strings.Contains(msg, "authentication"):
		return FailureAuth
	case gitErr.Code == git2go.ErrorCodeNotFound,
		strings.Contains(msg, "404"),
		strings.Contains(msg, "not found"),
		strings.Contains(msg, "does not exist"),
		strings.Contains(msg, "no such file"),
		strings.Contains(msg, "could not find repository"):
		return FailureNotFound
	case gitErr.Class == git2go.ErrorClassNet,
		gitErr.Class == git2go.ErrorClassSSL,
		gitErr.Class == git2go.ErrorClassSSH,
		gitErr.Class == git2go.ErrorClassCallback:
		return FailureNetwork
	default:
		return FailureOther
	}
}
