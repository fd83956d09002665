package git

import (
	"strings"
)

// Remote is a configured remote with its fetch URLs. Hosting-service
// modules use Identity to resolve the owner/repo (or workspace/slug) pair;
// the core never calls outward into hosting APIs itself.
type Remote struct {
	Name string
	URLs []string
}

// RemoteIdentity is the repository identity derived from a remote URL.
type RemoteIdentity struct {
	Host  string
	Owner string
	Repo  string
}

// Remotes returns the repository's configured remotes via go-git.
func (r *Repo) Remotes() ([]Remote, error) {
	repo, err := r.gogitRepo()
	if err != nil {
		return nil, err
	}

	r.ggMu.Lock()
	defer r.ggMu.Unlock()

	ggRemotes, err := repo.Remotes()
	if err != nil {
		return nil, err
	}

	remotes := make([]Remote, 0, len(ggRemotes))
	for _, rem := range ggRemotes {
		cfg := rem.Config()
		remotes = append(remotes, Remote{
			Name: cfg.Name,
			URLs: append([]string{}, cfg.URLs...),
		})
	}
	return remotes, nil
}

// Identity parses the remote's first URL into host/owner/repo. Both scp-like
// (git@host:owner/repo.git) and URL (https://host/owner/repo.git) forms are
// handled; ok is false when the URL does not fit either shape.
func (rm Remote) Identity() (id RemoteIdentity, ok bool) {
	if len(rm.URLs) == 0 {
		return RemoteIdentity{}, false
	}
	url := rm.URLs[0]

	var host, path string
	switch {
	case strings.Contains(url, "://"):
		rest := url[strings.Index(url, "://")+3:]
		if at := strings.IndexByte(rest, '@'); at >= 0 {
			rest = rest[at+1:]
		}
		slash := strings.IndexByte(rest, '/')
		if slash < 0 {
			return RemoteIdentity{}, false
		}
		host, path = rest[:slash], rest[slash+1:]
	case strings.Contains(url, "@") && strings.Contains(url, ":"):
		at := strings.IndexByte(url, '@')
		colon := strings.IndexByte(url, ':')
		if colon < at {
			return RemoteIdentity{}, false
		}
		host, path = url[at+1:colon], url[colon+1:]
	default:
		return RemoteIdentity{}, false
	}

	path = strings.TrimSuffix(strings.Trim(path, "/"), ".git")
	parts := strings.Split(path, "/")
	if len(parts) < 2 {
		return RemoteIdentity{}, false
	}
	// Azure DevOps style URLs have deeper paths; owner is everything up to
	// the final segment.
	return RemoteIdentity{
		Host:  host,
		Owner: strings.Join(parts[:len(parts)-1], "/"),
		Repo:  parts[len(parts)-1],
	}, true
}
