package source

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/Sumatoshi-tech/repometrics/pkg/model"
)

// resolveList validates and normalizes explicit entries. Duplicates share a
// host and a case-insensitive owner/name; the first occurrence wins.
func (r *Resolver) resolveList(entries []string) ([]model.RepositoryRef, error) {
	seen := make(map[string]struct{}, len(entries))
	refs := make([]model.RepositoryRef, 0, len(entries))

	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		ref, err := r.parseEntry(entry)
		if err != nil {
			return nil, configInvalid("parse repository list", err)
		}

		if _, dup := seen[ref.Key()]; dup {
			continue
		}

		seen[ref.Key()] = struct{}{}
		refs = append(refs, ref)
	}

	return refs, nil
}

// parseEntry accepts owner/name, https://host/owner/name(.git) and
// git@host:owner/name(.git).
func (r *Resolver) parseEntry(entry string) (model.RepositoryRef, error) {
	switch {
	case strings.Contains(entry, "://"):
		u, err := url.Parse(entry)
		if err != nil || u.Host == "" {
			return model.RepositoryRef{}, fmt.Errorf("%w: %q", model.ErrInvalidRepositoryName, entry)
		}

		owner, name, err := splitOwnerName(strings.Trim(u.Path, "/"), entry)
		if err != nil {
			return model.RepositoryRef{}, err
		}

		source := u.Scheme + "://" + u.Host + "/" + owner + "/" + name + ".git"

		return model.RepositoryRef{Owner: owner, Name: name, SourceURI: source}, nil
	case strings.HasPrefix(entry, "git@"):
		host, path, ok := strings.Cut(strings.TrimPrefix(entry, "git@"), ":")
		if !ok || host == "" {
			return model.RepositoryRef{}, fmt.Errorf("%w: %q", model.ErrInvalidRepositoryName, entry)
		}

		owner, name, err := splitOwnerName(path, entry)
		if err != nil {
			return model.RepositoryRef{}, err
		}

		return model.RepositoryRef{Owner: owner, Name: name, SourceURI: "git@" + host + ":" + owner + "/" + name + ".git"}, nil
	default:
		owner, name, err := splitOwnerName(entry, entry)
		if err != nil {
			return model.RepositoryRef{}, err
		}

		return model.RepositoryRef{Owner: owner, Name: name, SourceURI: r.cloneURL + "/" + owner + "/" + name + ".git"}, nil
	}
}

func splitOwnerName(path, entry string) (owner, name string, err error) {
	path = strings.TrimSuffix(path, ".git")

	parts := strings.Split(path, "/")
	if len(parts) != 2 || !segmentPattern.MatchString(parts[0]) || !segmentPattern.MatchString(parts[1]) {
		return "", "", fmt.Errorf("%w: %q", model.ErrInvalidRepositoryName, entry)
	}

	return parts[0], parts[1], nil
}
