package source_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/repometrics/pkg/model"
	"github.com/Sumatoshi-tech/repometrics/pkg/runctx"
	"github.com/Sumatoshi-tech/repometrics/pkg/source"
)

type apiRepo struct {
	Name     string   `json:"name"`
	CloneURL string   `json:"clone_url"`
	Owner    apiOwner `json:"owner"`
}

type apiOwner struct {
	Login string `json:"login"`
}

func orgRepos(org string, n int) []apiRepo {
	repos := make([]apiRepo, n)
	for i := range repos {
		name := fmt.Sprintf("repo-%02d", i+1)
		repos[i] = apiRepo{
			Name:     name,
			CloneURL: "https://github.com/" + org + "/" + name + ".git",
			Owner:    apiOwner{Login: org},
		}
	}

	return repos
}

func setRateHeaders(w http.ResponseWriter, remaining int, reset time.Time) {
	w.Header().Set("X-RateLimit-Limit", "5000")
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(reset.Unix(), 10))
}

// pagedServer serves repos in pages of pageSize regardless of per_page.
func pagedServer(t *testing.T, org string, repos []apiRepo, pageSize int, calls *atomic.Int32) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)

		if r.URL.Path != "/orgs/"+org+"/repos" {
			http.NotFound(w, r)

			return
		}

		page := 1
		if p := r.URL.Query().Get("page"); p != "" {
			page, _ = strconv.Atoi(p)
		}

		start := (page - 1) * pageSize
		end := min(start+pageSize, len(repos))

		if end < len(repos) {
			next := fmt.Sprintf("http://%s%s?page=%d&per_page=%d", r.Host, r.URL.Path, page+1, pageSize)
			w.Header().Set("Link", "<"+next+`>; rel="next"`)
		}

		setRateHeaders(w, 4999, time.Now().Add(time.Hour))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(repos[start:end])
	}))
	t.Cleanup(srv.Close)

	return srv
}

func newResolver(t *testing.T, apiURL string, attempts int) (*source.Resolver, *runctx.RunContext) {
	t.Helper()

	rc := runctx.New(t.TempDir(), nil, nil)

	r, err := source.New(rc, source.Options{
		APIURL:         apiURL,
		MaxAttempts:    attempts,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
	})
	require.NoError(t, err)

	return r, rc
}

func TestResolve_ListNormalizesAndDedupes(t *testing.T) {
	t.Parallel()

	r, _ := newResolver(t, "", 1)

	refs, err := r.Resolve(context.Background(), source.Spec{
		Type: source.TypeList,
		Repos: []string{
			"acme/api",
			" https://github.com/acme/web.git ",
			"ACME/API",
			"",
			"git@github.com:tools/cli.git",
		},
	})
	require.NoError(t, err)
	require.Len(t, refs, 3)

	assert.Equal(t, model.RepositoryRef{Owner: "acme", Name: "api", SourceURI: "https://github.com/acme/api.git"}, refs[0])
	assert.Equal(t, "acme/web", refs[1].FullName())
	assert.Equal(t, "https://github.com/acme/web.git", refs[1].SourceURI)
	assert.Equal(t, "git@github.com:tools/cli.git", refs[2].SourceURI)
}

func TestResolve_ListKeepsSameNameOnDifferentHosts(t *testing.T) {
	t.Parallel()

	r, _ := newResolver(t, "", 1)

	refs, err := r.Resolve(context.Background(), source.Spec{
		Type: source.TypeList,
		Repos: []string{
			"https://github.com/acme/api",
			"https://gitlab.com/acme/api",
			"git@github.com:ACME/api.git",
			"acme/api",
		},
	})
	require.NoError(t, err)
	require.Len(t, refs, 2)

	assert.Equal(t, "https://github.com/acme/api.git", refs[0].SourceURI)
	assert.Equal(t, "https://gitlab.com/acme/api.git", refs[1].SourceURI)
}

func TestResolve_ListCustomCloneURL(t *testing.T) {
	t.Parallel()

	rc := runctx.New(t.TempDir(), nil, nil)

	r, err := source.New(rc, source.Options{CloneURL: "https://git.example.com/"})
	require.NoError(t, err)

	refs, err := r.Resolve(context.Background(), source.Spec{Type: source.TypeList, Repos: []string{"a/b"}})
	require.NoError(t, err)
	assert.Equal(t, "https://git.example.com/a/b.git", refs[0].SourceURI)
}

func TestResolve_ListInvalidEntry(t *testing.T) {
	t.Parallel()

	r, _ := newResolver(t, "", 1)

	for _, entry := range []string{"justaname", "a/b/c", "/name", "owner/", "https://github.com/onlyowner", "own er/name"} {
		_, err := r.Resolve(context.Background(), source.Spec{Type: source.TypeList, Repos: []string{entry}})
		require.Error(t, err, entry)
		assert.ErrorIs(t, err, model.ErrInvalidRepositoryName, entry)
		assert.Equal(t, model.KindConfigInvalid, model.KindOf(err, ""), entry)
	}
}

func TestResolve_EmptySet(t *testing.T) {
	t.Parallel()

	r, _ := newResolver(t, "", 1)

	_, err := r.Resolve(context.Background(), source.Spec{Type: source.TypeList})
	require.ErrorIs(t, err, model.ErrEmptyRepositorySet)
	assert.True(t, model.IsRunFatal(err))
}

func TestResolve_UnknownTypeAndMissingOrganization(t *testing.T) {
	t.Parallel()

	r, _ := newResolver(t, "", 1)

	_, err := r.Resolve(context.Background(), source.Spec{Type: "gitlab"})
	require.ErrorIs(t, err, source.ErrUnknownType)
	assert.Equal(t, model.KindConfigInvalid, model.KindOf(err, ""))

	_, err = r.Resolve(context.Background(), source.Spec{Type: source.TypeOrganization})
	require.ErrorIs(t, err, source.ErrMissingOrganization)
	assert.Equal(t, model.KindConfigInvalid, model.KindOf(err, ""))
}

func TestResolve_OrganizationCap(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32

	srv := pagedServer(t, "acme", orgRepos("acme", 20), 100, &calls)
	r, _ := newResolver(t, srv.URL, 3)

	refs, err := r.Resolve(context.Background(), source.Spec{
		Type:         source.TypeOrganization,
		Organization: "acme",
		MaxRepos:     5,
	})
	require.NoError(t, err)
	require.Len(t, refs, 5)

	for i, ref := range refs {
		assert.Equal(t, fmt.Sprintf("repo-%02d", i+1), ref.Name)
		assert.Equal(t, "acme", ref.Owner)
		assert.Equal(t, "https://github.com/acme/"+ref.Name+".git", ref.SourceURI)
	}
}

func TestResolve_OrganizationPagination(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32

	srv := pagedServer(t, "acme", orgRepos("acme", 7), 3, &calls)
	r, rc := newResolver(t, srv.URL, 3)

	refs, err := r.Resolve(context.Background(), source.Spec{Type: source.TypeOrganization, Organization: "acme"})
	require.NoError(t, err)
	assert.Len(t, refs, 7)
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, "repo-07", refs[6].Name)

	remaining, known := rc.Limiter.Remaining()
	assert.True(t, known)
	assert.Equal(t, 4999, remaining)
}

func TestResolve_OrganizationCapStopsPaging(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32

	srv := pagedServer(t, "acme", orgRepos("acme", 9), 3, &calls)
	r, _ := newResolver(t, srv.URL, 3)

	refs, err := r.Resolve(context.Background(), source.Spec{
		Type:         source.TypeOrganization,
		Organization: "acme",
		MaxRepos:     3,
	})
	require.NoError(t, err)
	assert.Len(t, refs, 3)
	assert.Equal(t, int32(1), calls.Load())
}

func TestResolve_RateLimitRetried(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			setRateHeaders(w, 0, time.Now().Add(-time.Second))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"message":"API rate limit exceeded"}`))

			return
		}

		setRateHeaders(w, 10, time.Now().Add(time.Hour))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(orgRepos("acme", 2))
	}))
	t.Cleanup(srv.Close)

	r, rc := newResolver(t, srv.URL, 3)

	refs, err := r.Resolve(context.Background(), source.Spec{Type: source.TypeOrganization, Organization: "acme"})
	require.NoError(t, err)
	assert.Len(t, refs, 2)
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, 1, rc.Limiter.Limited())
}

func TestResolve_RateLimitAttemptCeiling(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		setRateHeaders(w, 0, time.Now().Add(-time.Second))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"message":"API rate limit exceeded"}`))
	}))
	t.Cleanup(srv.Close)

	r, _ := newResolver(t, srv.URL, 3)

	_, err := r.Resolve(context.Background(), source.Spec{Type: source.TypeOrganization, Organization: "acme"})
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrSourceUnavailable)
	assert.Equal(t, model.KindSourceUnavailable, model.KindOf(err, ""))
	assert.Equal(t, int32(3), calls.Load())
}

func TestResolve_ServerErrorRetried(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte(`{"message":"Server Error"}`))

			return
		}

		setRateHeaders(w, 10, time.Now().Add(time.Hour))
		_ = json.NewEncoder(w).Encode(orgRepos("acme", 1))
	}))
	t.Cleanup(srv.Close)

	r, rc := newResolver(t, srv.URL, 3)

	refs, err := r.Resolve(context.Background(), source.Spec{Type: source.TypeOrganization, Organization: "acme"})
	require.NoError(t, err)
	assert.Len(t, refs, 1)
	assert.Equal(t, int32(3), calls.Load())
	assert.Zero(t, rc.Limiter.Limited())
}

func TestResolve_PermanentFailures(t *testing.T) {
	t.Parallel()

	for _, status := range []int{http.StatusNotFound, http.StatusUnauthorized} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			t.Parallel()

			var calls atomic.Int32

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				calls.Add(1)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(status)
				_, _ = w.Write([]byte(`{"message":"nope"}`))
			}))
			t.Cleanup(srv.Close)

			r, _ := newResolver(t, srv.URL, 5)

			_, err := r.Resolve(context.Background(), source.Spec{Type: source.TypeOrganization, Organization: "ghost"})
			require.Error(t, err)
			assert.Equal(t, model.KindSourceUnavailable, model.KindOf(err, ""))
			assert.True(t, model.IsRunFatal(err))
			assert.Equal(t, int32(1), calls.Load())
		})
	}
}
