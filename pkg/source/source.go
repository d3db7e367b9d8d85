// Package source resolves the ordered set of repositories a run analyzes,
// either from an explicit list or from an organization listing on GitHub.
package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/google/go-github/v62/github"

	"github.com/Sumatoshi-tech/repometrics/pkg/model"
	"github.com/Sumatoshi-tech/repometrics/pkg/runctx"
)

// Source types.
const (
	TypeList         = "list"
	TypeOrganization = "organization"
)

// Defaults used when Options leaves a field zero.
const (
	DefaultAPIURL         = "https://api.github.com"
	DefaultCloneURL       = "https://github.com"
	DefaultMaxAttempts    = 5
	DefaultInitialBackoff = time.Second
	DefaultMaxBackoff     = time.Minute

	pageSize = 100
)

// Sentinel errors.
var (
	ErrUnknownType         = errors.New("unknown repository source type")
	ErrMissingOrganization = errors.New("organization name is required")
)

var segmentPattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// Spec selects the repository set.
type Spec struct {
	Type         string
	Repos        []string
	Organization string
	// MaxRepos caps an organization listing. Zero means no cap.
	MaxRepos int
}

// Options configures a Resolver.
type Options struct {
	APIURL         string
	CloneURL       string
	Token          string
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	// HTTPClient overrides the transport, mainly for tests.
	HTTPClient *http.Client
}

// Resolver turns a Spec into RepositoryRefs. It never touches local state.
type Resolver struct {
	client   *github.Client
	cloneURL string
	opts     Options
	rc       *runctx.RunContext
	logger   *slog.Logger
}

// New creates a Resolver sharing the run's rate-limit tracker.
func New(rc *runctx.RunContext, opts Options) (*Resolver, error) {
	if opts.APIURL == "" {
		opts.APIURL = DefaultAPIURL
	}

	if opts.CloneURL == "" {
		opts.CloneURL = DefaultCloneURL
	}

	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}

	if opts.InitialBackoff <= 0 {
		opts.InitialBackoff = DefaultInitialBackoff
	}

	if opts.MaxBackoff <= 0 {
		opts.MaxBackoff = DefaultMaxBackoff
	}

	client := github.NewClient(opts.HTTPClient)
	if opts.Token != "" {
		client = client.WithAuthToken(opts.Token)
	}

	baseURL, err := url.Parse(strings.TrimSuffix(opts.APIURL, "/") + "/")
	if err != nil {
		return nil, model.NewError(model.KindConfigInvalid, "parse api url",
			fmt.Errorf("%w: %w", model.ErrConfigInvalid, err))
	}

	client.BaseURL = baseURL

	return &Resolver{
		client:   client,
		cloneURL: strings.TrimSuffix(opts.CloneURL, "/"),
		opts:     opts,
		rc:       rc,
		logger:   rc.Logger,
	}, nil
}

// Resolve returns the repositories named by spec, in order.
func (r *Resolver) Resolve(ctx context.Context, spec Spec) ([]model.RepositoryRef, error) {
	var (
		refs []model.RepositoryRef
		err  error
	)

	switch spec.Type {
	case TypeList, "":
		refs, err = r.resolveList(spec.Repos)
	case TypeOrganization:
		refs, err = r.resolveOrganization(ctx, spec.Organization, spec.MaxRepos)
	default:
		return nil, configInvalid("resolve", fmt.Errorf("%w: %q", ErrUnknownType, spec.Type))
	}

	if err != nil {
		return nil, err
	}

	if len(refs) == 0 {
		return nil, fmt.Errorf("resolve %s: %w", spec.Type, model.ErrEmptyRepositorySet)
	}

	r.logger.InfoContext(ctx, "repositories resolved", "type", spec.Type, "count", len(refs))

	return refs, nil
}

func configInvalid(op string, err error) error {
	return model.NewError(model.KindConfigInvalid, op, fmt.Errorf("%w: %w", model.ErrConfigInvalid, err))
}
