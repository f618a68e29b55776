// Package gitctx reads repository facts and records onboarding changes as
// commits using go-git.
package gitctx

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/fulmenhq/ocsetup/pkg/safeio"
)

// Author identifies who commits the onboarding changes.
type Author struct {
	Name  string
	Email string
}

// Repo is an opened working tree.
type Repo struct {
	repo *git.Repository
	wt   *git.Worktree
	root string
}

// Open opens the repository containing target, searching parent directories.
func Open(target string) (*Repo, error) {
	repo, err := git.PlainOpenWithOptions(target, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open git repository at %s: %w", target, err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("failed to open worktree: %w", err)
	}
	return &Repo{repo: repo, wt: wt, root: wt.Filesystem.Root()}, nil
}

// Origin returns the org and repository name of the "origin" remote.
func (r *Repo) Origin() (org, name string, err error) {
	remote, err := r.repo.Remote(git.DefaultRemoteName)
	if err != nil {
		return "", "", fmt.Errorf("failed to read origin remote: %w", err)
	}
	for _, u := range remote.Config().URLs {
		if org, name, ok := ParseRemoteURL(u); ok {
			return org, name, nil
		}
	}
	return "", "", fmt.Errorf("origin remote has no org/repo URL")
}

// ParseRemoteURL extracts org and repository from HTTPS, SSH and scp-style
// remote URLs, e.g. git@github.com:acme/widget.git.
func ParseRemoteURL(u string) (org, name string, ok bool) {
	u = strings.TrimSpace(u)
	u = strings.TrimSuffix(strings.TrimRight(u, "/"), ".git")
	if i := strings.Index(u, "://"); i >= 0 {
		u = u[i+3:]
	}
	u = strings.ReplaceAll(u, ":", "/")
	parts := strings.FieldsFunc(u, func(r rune) bool { return r == '/' })
	if len(parts) < 3 {
		return "", "", false
	}
	return parts[len(parts)-2], parts[len(parts)-1], true
}

// Commit stages paths and commits them with message. A commit with nothing
// staged is skipped and reported as committed=false, not as an error.
func (r *Repo) Commit(paths []string, message string, author Author) (committed bool, err error) {
	rels := make([]string, 0, len(paths))
	for _, p := range paths {
		rel, err := r.relative(p)
		if err != nil {
			return false, err
		}
		if _, err := r.wt.Add(rel); err != nil {
			return false, fmt.Errorf("failed to stage %s: %w", rel, err)
		}
		rels = append(rels, rel)
	}

	st, err := r.wt.Status()
	if err != nil {
		return false, fmt.Errorf("failed to read worktree status: %w", err)
	}
	staged := false
	for _, rel := range rels {
		if s, ok := st[rel]; ok && s.Staging != git.Unmodified && s.Staging != git.Untracked {
			staged = true
			break
		}
	}
	if !staged {
		return false, nil
	}

	_, err = r.wt.Commit(message, &git.CommitOptions{
		Author: &object.Signature{Name: author.Name, Email: author.Email, When: time.Now()},
	})
	if err != nil {
		return false, fmt.Errorf("failed to commit: %w", err)
	}
	return true, nil
}

func (r *Repo) relative(p string) (string, error) {
	if !filepath.IsAbs(p) {
		return safeio.CleanUserPath(p)
	}
	rel, err := filepath.Rel(r.root, p)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", errors.New("path outside repository: " + p)
	}
	return filepath.ToSlash(rel), nil
}
