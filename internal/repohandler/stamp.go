// Package repohandler derives source stamp information from the git checkout holding a bundle.
package repohandler

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/src-d/go-git.v4"
)

const defaultRemoteName = "origin"

var ErrNoRemote = errors.New("no remote URL configured for repository")

// StampSource returns the URL under which the checkout containing dir is published, based on its
// 'origin' remote. SSH remotes are rewritten to their HTTPS equivalent and any credentials are
// dropped from the result.
func StampSource(log *zap.Logger, dir string) (string, error) {
	log.Debug("Opening git repository to determine the source stamp.", zap.String("directory", dir))
	r, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		log.Error("Failed to open the git repository containing the bundle.", zap.String("directory", dir), zap.Error(err))
		return "", err
	}
	return RemoteSource(log, r)
}

// RemoteSource returns the normalised URL of the 'origin' remote of the repository.
func RemoteSource(log *zap.Logger, r *git.Repository) (string, error) {
	rem, err := r.Remote(defaultRemoteName)
	if err == git.ErrRemoteNotFound {
		log.Error("The git repository has no remote to derive a source stamp from.", zap.String("remote", defaultRemoteName))
		return "", fmt.Errorf("%w: %q", ErrNoRemote, defaultRemoteName)
	} else if err != nil {
		log.Error("Failed to read the remote of the git repository.", zap.String("remote", defaultRemoteName), zap.Error(err))
		return "", err
	}

	urls := rem.Config().URLs
	if len(urls) == 0 {
		log.Error("The git remote has no URL.", zap.String("remote", defaultRemoteName))
		return "", fmt.Errorf("%w: %q", ErrNoRemote, defaultRemoteName)
	}

	src := normaliseURL(urls[0])
	log.Debug("Derived source stamp from git remote.", zap.String("remote", urls[0]), zap.String("source", src))
	return src, nil
}

// normaliseURL rewrites 'git@host:org/repo.git' and 'ssh://' remotes to 'https://host/org/repo'.
// URLs it can not make sense of are returned as-is.
func normaliseURL(raw string) string {
	if !strings.Contains(raw, "://") {
		if i := strings.Index(raw, ":"); i > 0 {
			host := raw[:i]
			if at := strings.LastIndex(host, "@"); at >= 0 {
				host = host[at+1:]
			}
			raw = "ssh://" + host + "/" + strings.TrimPrefix(raw[i+1:], "/")
		}
	}

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	switch u.Scheme {
	case "ssh", "git", "git+ssh":
		u.Scheme = "https"
		u.Host = u.Hostname()
	}
	u.User = nil
	u.Path = strings.TrimSuffix(u.Path, ".git")
	return u.String()
}
