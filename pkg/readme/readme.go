// Package readme adds the financial contributors badge and the contributor
// sections to a project README in a single pass over its lines.
package readme

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"regexp"
	"strings"

	"github.com/fulmenhq/ocsetup/internal/assets"
	"github.com/fulmenhq/ocsetup/pkg/identity"
	"github.com/fulmenhq/ocsetup/pkg/logger"
	"github.com/fulmenhq/ocsetup/pkg/placeholder"
	"github.com/fulmenhq/ocsetup/pkg/safeio"
	"github.com/fulmenhq/ocsetup/pkg/textdoc"
)

// ErrAlreadyConfigured is returned when the README already carries the
// collective badge. Callers should stop onboarding the repository.
var ErrAlreadyConfigured = errors.New("open collective already added to README")

// ErrWrite is returned when the patched README cannot be written back.
var ErrWrite = errors.New("failed to write README")

var (
	atxHeading   = regexp.MustCompile(`^ {0,3}#{1,6}(?:[ \t]+(.*))?$`)
	fenceOpen    = regexp.MustCompile("^ {0,3}(`{3,}|~{3,})")
	inlineImage  = regexp.MustCompile(`!\[[^\]]*\](?:\([^)]*\)|\[[^\]]*\])`)
	inlineLink   = regexp.MustCompile(`\[([^\]]*)\](?:\([^)]*\)|\[[^\]]*\])`)
	inlineTag    = regexp.MustCompile(`<[^>]*>`)
	licenseTitle = regexp.MustCompile(`(?i)\blicen[cs]e`)
)

const (
	rstAdornmentChars    = "=-~^\"'`#*+<>_:."
	setextUnderlineChars = "=-"
)

// Options control template lookup and writing.
type Options struct {
	// Templates holds readme/README.md and readme/README.rst. Defaults to
	// the embedded templates.
	Templates fs.FS
	DryRun    bool
}

// TemplateName returns the template path used for a README file name.
func TemplateName(readmePath string) string {
	target := "README.md"
	if isRST(readmePath) {
		target = "README.rst"
	}
	a, _ := assets.Lookup(target)
	return a.Path
}

// Patch adds the badge next to the first existing badge and inserts the
// contributor sections above the License heading, or at the end when there
// is none. The patched text is written back to path and returned.
func Patch(readmePath string, id identity.Identity, opts Options) (string, error) {
	content, err := os.ReadFile(readmePath) // #nosec G304 -- README inside the target checkout
	if err != nil {
		logger.Error("Unable to open your README file", logger.String("file", readmePath), logger.Err(err))
		return "", fmt.Errorf("failed to read README: %w", err)
	}

	if strings.Contains(string(content), id.Marker()) {
		logger.Warn("Looks like you already have Open Collective added to your README", logger.String("file", readmePath))
		return "", fmt.Errorf("%w: %s", ErrAlreadyConfigured, readmePath)
	}

	tfs := opts.Templates
	if tfs == nil {
		tfs = assets.GetTemplatesFS()
	}
	tpl, err := fs.ReadFile(tfs, TemplateName(readmePath))
	if err != nil {
		return "", fmt.Errorf("failed to read README template: %w", err)
	}
	block, err := placeholder.Render(string(tpl), id)
	if err != nil {
		return "", err
	}

	doc := textdoc.Parse(content)
	doc.Lines = patchLines(doc.Lines, id, textdoc.SplitBlock(block), isRST(readmePath))
	out := doc.Bytes()

	logger.Info("Adding badges and placeholders for backers and sponsors to your README", logger.String("file", readmePath))
	if !opts.DryRun {
		if err := safeio.WriteFileAtomic(readmePath, out); err != nil {
			logger.Error("Unable to write your README file", logger.String("file", readmePath), logger.Err(err))
			return "", fmt.Errorf("%w: %w", ErrWrite, err)
		}
	}
	return string(out), nil
}

func isRST(readmePath string) bool {
	return strings.EqualFold(path.Ext(strings.ReplaceAll(readmePath, `\`, "/")), ".rst")
}

// patchLines performs the single forward scan. Both insertions are one-shot.
// Headings inside Markdown code fences are ignored.
func patchLines(lines []string, id identity.Identity, block []string, rst bool) []string {
	out := make([]string, 0, len(lines)+len(block)+4)
	badgeAdded, blockPlaced := false, false
	fence := ""

	for i, line := range lines {
		if !rst {
			if fence != "" {
				if m := fenceOpen.FindStringSubmatch(line); m != nil && m[1][0] == fence[0] && len(m[1]) >= len(fence) &&
					strings.TrimSpace(line[len(m[0]):]) == "" {
					fence = ""
				}
				out = append(out, line)
				continue
			}
			if m := fenceOpen.FindStringSubmatch(line); m != nil {
				fence = m[1]
				out = append(out, line)
				continue
			}
		}

		if !badgeAdded {
			if dialect, at := Classify(line); dialect != DialectNone {
				badgeAdded = true
				if dialect == DialectRST {
					out = append(out, strings.Split(dialect.Badge(id, line[:at]), "\n")...)
					out = append(out, "")
				} else {
					line = line[:at] + dialect.Badge(id, "") + " " + line[at:]
				}
			}
		}

		if !blockPlaced {
			next := ""
			if i+1 < len(lines) {
				next = lines[i+1]
			}
			if heading, underlined := isLicenseHeading(line, next, rst); heading {
				blockPlaced = true
				var overline string
				if n := len(out); rst && underlined && n > 0 && isAdornment(out[n-1], rstAdornmentChars) {
					overline, out = out[n-1], out[:n-1]
				}
				if len(block) > 0 {
					out = append(out, block...)
					out = append(out, "")
				}
				if overline != "" {
					out = append(out, overline)
				}
			}
		}

		out = append(out, line)
	}

	if !blockPlaced && len(block) > 0 {
		out = appendBlock(out, block)
	}
	return out
}

// isLicenseHeading matches "# License" style headings and Markdown setext
// headings, or underlined reST section titles when rst is set. Only the
// heading text counts: badges and link targets are stripped first.
func isLicenseHeading(line, next string, rst bool) (heading, underlined bool) {
	if !rst {
		if m := atxHeading.FindStringSubmatch(line); m != nil {
			return mentionsLicense(m[1]), false
		}
	}
	if isBlank(line) || line[0] == ' ' || line[0] == '\t' {
		return false, false
	}
	chars := setextUnderlineChars
	if rst {
		chars = rstAdornmentChars
	}
	if !isAdornment(next, chars) || !mentionsLicense(line) {
		return false, false
	}
	return true, true
}

func mentionsLicense(title string) bool {
	title = inlineImage.ReplaceAllString(title, "")
	title = inlineLink.ReplaceAllString(title, "$1")
	title = inlineTag.ReplaceAllString(title, "")
	return licenseTitle.MatchString(title)
}

// isAdornment reports whether s is a run of at least three identical
// characters from chars, as used for section underlines.
func isAdornment(s, chars string) bool {
	s = strings.TrimRight(s, " \t")
	if len(s) < 3 || !strings.ContainsRune(chars, rune(s[0])) {
		return false
	}
	return strings.Count(s, s[:1]) == len(s)
}

// appendBlock adds block at the end of the document, keeping a trailing
// newline if the document had one.
func appendBlock(lines, block []string) []string {
	trailing := len(lines) > 1 && lines[len(lines)-1] == ""
	if trailing {
		lines = lines[:len(lines)-1]
	}
	if len(lines) == 1 && lines[0] == "" {
		lines = lines[:0]
	}
	if n := len(lines); n > 0 && !isBlank(lines[n-1]) {
		lines = append(lines, "")
	}
	lines = append(lines, block...)
	if trailing {
		lines = append(lines, "")
	}
	return lines
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
