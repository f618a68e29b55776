package readme

import (
	"regexp"
	"strings"

	"github.com/fulmenhq/ocsetup/pkg/identity"
)

// Dialect is the markup syntax of a badge line.
type Dialect int

const (
	DialectNone Dialect = iota
	DialectHTML
	DialectRST
	DialectMarkdown
)

func (d Dialect) String() string {
	switch d {
	case DialectHTML:
		return "html"
	case DialectRST:
		return "rst"
	case DialectMarkdown:
		return "markdown"
	default:
		return "none"
	}
}

const badgeAlt = "Financial Contributors on Open Collective"

var (
	htmlImage     = regexp.MustCompile(`(?i)<img\s[^>]*\bsrc\s*=`)
	htmlOpenLink  = regexp.MustCompile(`(?i)<a\s[^>]*>\s*$`)
	rstImage      = regexp.MustCompile(`(?i)^(\s*)\.\.\s+(\|[^|]+\|\s+)?image::`)
	markdownImage = regexp.MustCompile(`!\[[^\]]*\][(\[]`)
)

// Classify reports which badge syntax a line uses and the byte offset where
// a new badge should be inserted. HTML wins over reST, reST over Markdown.
func Classify(line string) (Dialect, int) {
	if loc := htmlImage.FindStringIndex(line); loc != nil {
		at := loc[0]
		// Keep the new badge outside an anchor wrapping the existing image.
		if a := htmlOpenLink.FindStringIndex(line[:at]); a != nil {
			at = a[0]
		}
		return DialectHTML, at
	}
	if loc := rstImage.FindStringSubmatchIndex(line); loc != nil {
		return DialectRST, loc[3]
	}
	if loc := markdownImage.FindStringIndex(line); loc != nil {
		at := loc[0]
		if at > 0 && line[at-1] == '[' {
			at--
		}
		return DialectMarkdown, at
	}
	return DialectNone, -1
}

// Badge renders the financial contributors badge in the dialect's syntax.
// reST badges span several lines joined with "\n" and are indented by indent.
func (d Dialect) Badge(id identity.Identity, indent string) string {
	switch d {
	case DialectHTML:
		return `<a href="` + id.URL() + `" alt="` + badgeAlt + `"><img src="` + id.BadgeImageURL() + `" /></a>`
	case DialectRST:
		return strings.Join([]string{
			indent + ".. image:: " + id.BadgeImageURL(),
			indent + "    :alt: " + badgeAlt,
			indent + "    :target: " + id.URL(),
		}, "\n")
	case DialectMarkdown:
		return "[![" + badgeAlt + "](" + id.BadgeImageURL() + ")](" + id.URL() + ")"
	default:
		return ""
	}
}
