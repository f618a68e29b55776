// Package identity holds the collective identity that every generated URL,
// marker and template placeholder is derived from.
package identity

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

const (
	// PlatformName is the value written to a manifest's collective.type.
	PlatformName = "opencollective"
	// PlatformHost is the sponsorship platform host.
	PlatformHost = "opencollective.com"
)

var slugPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// ErrInvalidSlug is returned when a slug contains characters the platform rejects.
var ErrInvalidSlug = errors.New("invalid collective slug")

// Identity identifies the target collective and the source repository.
// It is immutable once constructed; pass it by value.
type Identity struct {
	Slug string
	Org  string
	Repo string
}

// New builds an identity from a raw slug and an optional "org/repo" reference.
// Dots are stripped from the slug before validation.
func New(slug, orgRepo string) (Identity, error) {
	slug = NormalizeSlug(slug)
	if !slugPattern.MatchString(slug) {
		return Identity{}, fmt.Errorf("%w: %q (e.g. https://%s/webpack)", ErrInvalidSlug, slug, PlatformHost)
	}
	id := Identity{Slug: slug}
	if orgRepo != "" {
		org, repo, err := SplitOrgRepo(orgRepo)
		if err != nil {
			return Identity{}, err
		}
		id.Org, id.Repo = org, repo
	}
	return id, nil
}

// NormalizeSlug trims whitespace and removes dots.
func NormalizeSlug(slug string) string {
	return strings.ReplaceAll(strings.TrimSpace(slug), ".", "")
}

// SplitOrgRepo splits "org/repo" into its parts.
func SplitOrgRepo(ref string) (string, string, error) {
	parts := strings.Split(strings.Trim(strings.TrimSpace(ref), "/"), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid repository reference %q (expected org/repo)", ref)
	}
	return parts[0], parts[1], nil
}

// URL returns the collective page URL.
func (id Identity) URL() string {
	return "https://" + PlatformHost + "/" + id.Slug
}

// BadgeImageURL returns the financial contributors badge image URL.
func (id Identity) BadgeImageURL() string {
	return id.URL() + "/all/badge.svg?label=financial+contributors"
}

// Marker returns the substring whose presence in a document means the
// collective badge has already been added.
func (id Identity) Marker() string {
	return id.URL() + "/all/badge.svg"
}

// Lookup resolves a placeholder name against the identity fields.
func (id Identity) Lookup(name string) (string, bool) {
	switch name {
	case "slug":
		return id.Slug, true
	case "org":
		return id.Org, true
	case "repo":
		return id.Repo, true
	default:
		return "", false
	}
}

// Fields returns the identity as a placeholder context.
func (id Identity) Fields() map[string]string {
	return map[string]string{
		"slug": id.Slug,
		"org":  id.Org,
		"repo": id.Repo,
	}
}
