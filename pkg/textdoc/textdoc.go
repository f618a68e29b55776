// Package textdoc splits text files into lines and joins them back using the
// file's original newline convention.
package textdoc

import (
	"bytes"
	"strings"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Document is a text file held as lines without their terminators.
// A trailing newline in the source shows up as a final empty line.
type Document struct {
	Lines []string
	EOL   string
	BOM   bool
}

// Parse splits content into a Document.
func Parse(content []byte) *Document {
	doc := &Document{}
	if bytes.HasPrefix(content, utf8BOM) {
		doc.BOM = true
		content = content[len(utf8BOM):]
	}
	text := string(content)
	doc.EOL = DetectLineEnding(text)
	doc.Lines = strings.Split(text, doc.EOL)
	return doc
}

// DetectLineEnding returns the dominant line ending, defaulting to LF.
func DetectLineEnding(content string) string {
	crlf := strings.Count(content, "\r\n")
	lf := strings.Count(content, "\n") - crlf
	if crlf > lf {
		return "\r\n"
	}
	return "\n"
}

// String joins the lines with the original line ending.
func (d *Document) String() string {
	return strings.Join(d.Lines, d.EOL)
}

// Bytes returns the joined content, restoring a UTF-8 BOM if one was present.
func (d *Document) Bytes() []byte {
	s := d.String()
	if !d.BOM {
		return []byte(s)
	}
	out := make([]byte, 0, len(utf8BOM)+len(s))
	out = append(out, utf8BOM...)
	return append(out, s...)
}

// SplitBlock converts a multi-line block into lines, normalizing CRLF and
// dropping trailing blank lines.
func SplitBlock(block string) []string {
	block = strings.ReplaceAll(block, "\r\n", "\n")
	block = strings.TrimRight(block, "\n")
	if block == "" {
		return nil
	}
	return strings.Split(block, "\n")
}
