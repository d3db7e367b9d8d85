package source

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/go-github/v62/github"

	"github.com/Sumatoshi-tech/repometrics/pkg/model"
)

// resolveOrganization pages through the organization's repositories and
// stops as soon as maxRepos refs are collected.
func (r *Resolver) resolveOrganization(ctx context.Context, org string, maxRepos int) ([]model.RepositoryRef, error) {
	org = strings.TrimSpace(org)
	if org == "" {
		return nil, configInvalid("resolve organization", ErrMissingOrganization)
	}

	opts := &github.RepositoryListByOrgOptions{
		ListOptions: github.ListOptions{PerPage: pageSize},
	}

	var refs []model.RepositoryRef

	for {
		page, next, err := r.listPage(ctx, org, opts)
		if err != nil {
			return nil, err
		}

		for _, repo := range page {
			refs = append(refs, model.RepositoryRef{
				Owner:     repo.GetOwner().GetLogin(),
				Name:      repo.GetName(),
				SourceURI: repo.GetCloneURL(),
			})

			if maxRepos > 0 && len(refs) >= maxRepos {
				return refs, nil
			}
		}

		if next == 0 {
			return refs, nil
		}

		opts.Page = next
	}
}

type listing struct {
	repos []*github.Repository
	next  int
}

// listPage fetches one page, retrying rate-limit responses with
// exponential backoff up to MaxAttempts.
func (r *Resolver) listPage(
	ctx context.Context, org string, opts *github.RepositoryListByOrgOptions,
) ([]*github.Repository, int, error) {
	attempt := 0

	operation := func() (listing, error) {
		attempt++

		if err := r.rc.Limiter.Wait(ctx); err != nil {
			return listing{}, backoff.Permanent(err)
		}

		repos, resp, err := r.client.Repositories.ListByOrg(ctx, org, opts)
		r.observe(resp)

		if err != nil {
			return listing{}, r.classify(ctx, org, attempt, err)
		}

		return listing{repos: repos, next: resp.NextPage}, nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = r.opts.InitialBackoff
	policy.MaxInterval = r.opts.MaxBackoff

	result, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(uint(r.opts.MaxAttempts)), //nolint:gosec // validated positive.
	)
	if err != nil {
		return nil, 0, sourceUnavailable(org, opts.Page, err)
	}

	return result.repos, result.next, nil
}

func (r *Resolver) observe(resp *github.Response) {
	if resp == nil || resp.Rate.Limit == 0 {
		return
	}

	r.rc.Limiter.Observe(resp.Rate.Remaining, resp.Rate.Reset.Time)
}

// classify marks rate-limit and server-side errors retryable and everything
// else permanent.
func (r *Resolver) classify(ctx context.Context, org string, attempt int, err error) error {
	var (
		rateErr  *github.RateLimitError
		abuseErr *github.AbuseRateLimitError
		respErr  *github.ErrorResponse
	)

	switch {
	case errors.As(err, &rateErr):
		r.rc.Limiter.Exhaust(rateErr.Rate.Reset.Time)
		r.logger.WarnContext(ctx, "rate limited listing organization",
			"organization", org, "attempt", attempt, "reset", rateErr.Rate.Reset.Time)

		return err
	case errors.As(err, &abuseErr):
		var reset time.Time
		if abuseErr.RetryAfter != nil {
			reset = time.Now().Add(*abuseErr.RetryAfter)
		}

		r.rc.Limiter.Exhaust(reset)
		r.logger.WarnContext(ctx, "secondary rate limit listing organization",
			"organization", org, "attempt", attempt)

		return err
	case errors.As(err, &respErr) && respErr.Response != nil &&
		respErr.Response.StatusCode >= http.StatusInternalServerError:
		r.logger.WarnContext(ctx, "server error listing organization",
			"organization", org, "attempt", attempt, "status", respErr.Response.StatusCode)

		return err
	default:
		return backoff.Permanent(err)
	}
}

func sourceUnavailable(org string, page int, err error) error {
	reason := "list repositories"

	var respErr *github.ErrorResponse
	if errors.As(err, &respErr) && respErr.Response != nil {
		switch respErr.Response.StatusCode {
		case http.StatusUnauthorized:
			reason = "authentication failed"
		case http.StatusNotFound:
			reason = "organization not found"
		}
	}

	return model.NewError(model.KindSourceUnavailable,
		fmt.Sprintf("%s %s (page %d)", reason, org, max(page, 1)),
		fmt.Errorf("%w: %w", model.ErrSourceUnavailable, err))
}
