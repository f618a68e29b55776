// Package templates creates or refreshes the contributing guide and the
// GitHub issue/pull request templates of a repository.
package templates

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/fulmenhq/ocsetup/internal/assets"
	"github.com/fulmenhq/ocsetup/pkg/identity"
	"github.com/fulmenhq/ocsetup/pkg/logger"
	"github.com/fulmenhq/ocsetup/pkg/placeholder"
	"github.com/fulmenhq/ocsetup/pkg/safeio"
	"github.com/fulmenhq/ocsetup/pkg/textdoc"
)

// Markers delimit the generated section inside an existing file.
const (
	StartMarker = "<!-- ocsetup:start -->"
	EndMarker   = "<!-- ocsetup:end -->"
)

// ErrUnknownKind is returned for target files that have no template.
var ErrUnknownKind = errors.New("no template for target file")

// Options control template lookup and writing.
type Options struct {
	// Templates defaults to the embedded templates.
	Templates fs.FS
	DryRun    bool
}

// Result reports what Reconcile did to the target.
type Result struct {
	Created bool
	Changed bool
	Name    string
}

// Verb is "Added" for new files and "Updated" otherwise.
func (r Result) Verb() string {
	if r.Created {
		return "Added"
	}
	return "Updated"
}

// TemplateFor returns the template path for a target file, chosen by its
// base name.
func TemplateFor(target string) (string, error) {
	base := filepath.Base(target)
	for _, a := range assets.Registry {
		if a.Kind == "readme" {
			continue
		}
		if strings.EqualFold(path.Base(a.Target), base) {
			return a.Path, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownKind, base)
}

// Reconcile creates target from its template when it does not exist.
// Otherwise the generated section is refreshed between the markers, or
// appended when the file has none. Nothing is written until the full content
// is assembled.
func Reconcile(target string, id identity.Identity, opts Options) (Result, error) {
	res := Result{Name: filepath.Base(target)}

	tplPath, err := TemplateFor(target)
	if err != nil {
		return res, err
	}
	tfs := opts.Templates
	if tfs == nil {
		tfs = assets.GetTemplatesFS()
	}
	tpl, err := fs.ReadFile(tfs, tplPath)
	if err != nil {
		return res, fmt.Errorf("failed to read template %s: %w", tplPath, err)
	}
	rendered, err := placeholder.Render(string(tpl), id)
	if err != nil {
		return res, err
	}
	section := StartMarker + "\n" + strings.TrimRight(rendered, "\r\n") + "\n" + EndMarker

	existing, err := os.ReadFile(target) // #nosec G304 -- file inside the target checkout
	var out []byte
	switch {
	case errors.Is(err, fs.ErrNotExist):
		res.Created = true
		out = []byte(section + "\n")
	case err != nil:
		return res, fmt.Errorf("failed to read %s: %w", target, err)
	default:
		doc := textdoc.Parse(existing)
		body := strings.Join(doc.Lines, "\n")
		updated := merge(body, section, strings.TrimSpace(rendered))
		if updated == body {
			logger.Debug("Template section already up to date", logger.String("file", target))
			return res, nil
		}
		doc.Lines = strings.Split(updated, "\n")
		out = doc.Bytes()
	}

	res.Changed = true
	logger.Info(fmt.Sprintf("%s %s", res.Verb(), res.Name), logger.String("file", target))
	if opts.DryRun {
		return res, nil
	}
	if err := safeio.WriteFileAtomic(target, out); err != nil {
		return res, err
	}
	return res, nil
}

// merge places section into body. An existing marked section is replaced;
// a start marker without an end marker runs to the end of the file. A body
// that already carries the rendered content verbatim is kept.
func merge(body, section, rendered string) string {
	if start := strings.Index(body, StartMarker); start >= 0 {
		if rel := strings.Index(body[start:], EndMarker); rel >= 0 {
			end := start + rel + len(EndMarker)
			return body[:start] + section + body[end:]
		}
		logger.Warn("Template section has no end marker; replacing up to the end of the file")
		if strings.HasSuffix(body, "\n") {
			section += "\n"
		}
		return body[:start] + section
	}
	if rendered != "" && strings.Contains(body, rendered) {
		return body
	}

	trailing := strings.HasSuffix(body, "\n")
	trimmed := strings.TrimRight(body, "\n")
	if trimmed == "" {
		return section + "\n"
	}
	out := trimmed + "\n\n" + section
	if trailing {
		out += "\n"
	}
	return out
}
