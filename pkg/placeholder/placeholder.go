// Package placeholder substitutes {{name}} tokens in templates with values
// from a collective identity.
package placeholder

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/aymerick/raymond"
	"github.com/fulmenhq/ocsetup/pkg/identity"
)

// ErrUnknownPlaceholder is returned when a template references a name the
// identity cannot resolve.
var ErrUnknownPlaceholder = errors.New("unknown placeholder")

// ErrMissingPlaceholder is returned when a template references a known name
// whose value is empty. It matches ErrUnknownPlaceholder as well.
var ErrMissingPlaceholder = fmt.Errorf("%w: no value", ErrUnknownPlaceholder)

var tokenPattern = regexp.MustCompile(`\{\{\s*([^{}]*?)\s*\}\}`)

// Names returns the distinct placeholder names in order of first appearance.
func Names(tpl string) []string {
	seen := make(map[string]bool)
	var names []string
	for _, m := range tokenPattern.FindAllStringSubmatch(tpl, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}
	return names
}

// Validate checks that every placeholder in tpl resolves against id to a
// non-empty value.
func Validate(tpl string, id identity.Identity) error {
	var unknown, empty []string
	for _, name := range Names(tpl) {
		v, ok := id.Lookup(name)
		switch {
		case !ok:
			unknown = append(unknown, "{{"+name+"}}")
		case v == "":
			empty = append(empty, "{{"+name+"}}")
		}
	}
	if len(unknown) > 0 {
		return fmt.Errorf("%w: %s", ErrUnknownPlaceholder, strings.Join(unknown, ", "))
	}
	if len(empty) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingPlaceholder, strings.Join(empty, ", "))
	}
	return nil
}

// Render replaces every placeholder in tpl in a single pass. Values are
// inserted verbatim and are never expanded again.
func Render(tpl string, id identity.Identity) (string, error) {
	if err := Validate(tpl, id); err != nil {
		return "", err
	}
	ctx := make(map[string]interface{}, 3)
	for k, v := range id.Fields() {
		ctx[k] = raymond.SafeString(v)
	}
	t, err := raymond.Parse(tpl)
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}
	out, err := t.Exec(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to render template: %w", err)
	}
	return out, nil
}
