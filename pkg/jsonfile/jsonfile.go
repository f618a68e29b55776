// Package jsonfile reads JSON files into order-preserving values and writes
// them back using the file's existing indentation.
package jsonfile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fulmenhq/ocsetup/pkg/logger"
	"github.com/fulmenhq/ocsetup/pkg/safeio"
	"github.com/fulmenhq/ocsetup/pkg/textdoc"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// DefaultIndent is used when the target file is new or its indentation
// cannot be detected.
const DefaultIndent = "  "

var (
	// ErrParse marks content that is not a single valid JSON value.
	ErrParse = errors.New("invalid JSON")
	// ErrWrite marks a failure to persist a file.
	ErrWrite = errors.New("failed to write JSON file")
)

// Object is a JSON object that keeps its keys in insertion order.
type Object = orderedmap.OrderedMap[string, any]

// NewObject returns an empty ordered object.
func NewObject() *Object {
	return orderedmap.New[string, any]()
}

// Parse decodes data into ordered values: objects become *Object, arrays
// []any, numbers json.Number, plus string, bool and nil.
func Parse(data []byte) (any, error) {
	v, _, err := parse(data)
	return v, err
}

// source is the original text of a decoded value and of its children.
type source struct {
	raw    []byte
	value  any
	fields map[string]*source
	items  []*source
}

func (s *source) field(key string) *source {
	if s == nil {
		return nil
	}
	return s.fields[key]
}

func (s *source) item(i int) *source {
	if s == nil || i >= len(s.items) {
		return nil
	}
	return s.items[i]
}

type parser struct {
	dec  *json.Decoder
	data []byte
}

func parse(data []byte) (any, *source, error) {
	p := &parser{dec: json.NewDecoder(bytes.NewReader(data)), data: data}
	p.dec.UseNumber()
	v, src, err := p.value()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if _, err := p.dec.Token(); err != io.EOF {
		return nil, nil, fmt.Errorf("%w: unexpected data after top-level value", ErrParse)
	}
	return v, src, nil
}

func (p *parser) value() (any, *source, error) {
	begin := p.dec.InputOffset()
	tok, err := p.dec.Token()
	if err != nil {
		return nil, nil, err
	}
	// The decoder offset may still sit before the separators of the previous token.
	for begin < int64(len(p.data)) && strings.IndexByte(" \t\r\n:,", p.data[begin]) >= 0 {
		begin++
	}

	delim, ok := tok.(json.Delim)
	if !ok {
		return tok, &source{raw: p.span(begin), value: tok}, nil
	}
	switch delim {
	case '{':
		obj := NewObject()
		src := &source{fields: make(map[string]*source)}
		for p.dec.More() {
			kt, err := p.dec.Token()
			if err != nil {
				return nil, nil, err
			}
			key, ok := kt.(string)
			if !ok {
				return nil, nil, fmt.Errorf("object key is %T, not string", kt)
			}
			v, child, err := p.value()
			if err != nil {
				return nil, nil, err
			}
			obj.Set(key, v)
			src.fields[key] = child
		}
		if _, err := p.dec.Token(); err != nil {
			return nil, nil, err
		}
		src.raw, src.value = p.span(begin), obj
		return obj, src, nil
	case '[':
		arr := []any{}
		src := &source{}
		for p.dec.More() {
			v, child, err := p.value()
			if err != nil {
				return nil, nil, err
			}
			arr = append(arr, v)
			src.items = append(src.items, child)
		}
		if _, err := p.dec.Token(); err != nil {
			return nil, nil, err
		}
		src.raw, src.value = p.span(begin), arr
		return arr, src, nil
	default:
		return nil, nil, fmt.Errorf("unexpected delimiter %q", delim)
	}
}

// span returns the input from begin to the decoder position with carriage
// returns dropped; line endings are restored when the file is written.
func (p *parser) span(begin int64) []byte {
	return bytes.ReplaceAll(p.data[begin:p.dec.InputOffset()], []byte("\r"), nil)
}

// equal reports whether two decoded values are the same JSON, including
// key order and number spelling.
func equal(a, b any) bool {
	switch x := a.(type) {
	case *Object:
		y, ok := b.(*Object)
		if !ok || x == nil || y == nil {
			return ok && x == y
		}
		if x.Len() != y.Len() {
			return false
		}
		for px, py := x.Oldest(), y.Oldest(); px != nil; px, py = px.Next(), py.Next() {
			if px.Key != py.Key || !equal(px.Value, py.Value) {
				return false
			}
		}
		return true
	case []any:
		y, ok := b.([]any)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if !equal(x[i], y[i]) {
				return false
			}
		}
		return true
	case json.Number:
		y, ok := b.(json.Number)
		return ok && x == y
	case string:
		y, ok := b.(string)
		return ok && x == y
	case bool:
		y, ok := b.(bool)
		return ok && x == y
	case nil:
		return b == nil
	default:
		return false
	}
}

// ReadObject reads path and requires its top-level value to be an object.
// A missing file yields an error wrapping fs.ErrNotExist.
func ReadObject(path string) (*Object, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- caller-selected project file
	if err != nil {
		return nil, err
	}
	v, err := Parse(data)
	if err != nil {
		return nil, err
	}
	obj, ok := v.(*Object)
	if !ok {
		return nil, fmt.Errorf("%w: top-level value is not an object", ErrParse)
	}
	return obj, nil
}

// DetectIndent returns the leading whitespace of the first indented,
// non-blank line, or "" when no line is indented.
func DetectIndent(content string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimRight(line, "\r")
		trimmed := strings.TrimLeft(line, " \t")
		if trimmed == "" || len(trimmed) == len(line) {
			continue
		}
		return line[:len(line)-len(trimmed)]
	}
	return ""
}

// Marshal serializes v with the given indent unit. Key order follows the
// in-memory order and HTML characters are not escaped.
func Marshal(v any, indent string) ([]byte, error) {
	return marshal(v, indent, nil)
}

// marshal serializes v, copying the original text of every value that is
// unchanged from src.
func marshal(v any, indent string, src *source) ([]byte, error) {
	var buf bytes.Buffer
	if err := encodeValue(&buf, v, indent, 0, src); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeValue(buf *bytes.Buffer, v any, indent string, depth int, src *source) error {
	if src != nil && equal(v, src.value) {
		buf.Write(src.raw)
		return nil
	}
	switch val := v.(type) {
	case *Object:
		if val == nil || val.Len() == 0 {
			buf.WriteString("{}")
			return nil
		}
		buf.WriteByte('{')
		first := true
		for pair := val.Oldest(); pair != nil; pair = pair.Next() {
			if !first {
				buf.WriteByte(',')
			}
			first = false
			newline(buf, indent, depth+1)
			key, err := encodeScalar(pair.Key)
			if err != nil {
				return err
			}
			buf.Write(key)
			buf.WriteString(": ")
			if err := encodeValue(buf, pair.Value, indent, depth+1, src.field(pair.Key)); err != nil {
				return err
			}
		}
		newline(buf, indent, depth)
		buf.WriteByte('}')
		return nil
	case []any:
		if len(val) == 0 {
			buf.WriteString("[]")
			return nil
		}
		buf.WriteByte('[')
		for i, item := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			newline(buf, indent, depth+1)
			if err := encodeValue(buf, item, indent, depth+1, src.item(i)); err != nil {
				return err
			}
		}
		newline(buf, indent, depth)
		buf.WriteByte(']')
		return nil
	default:
		raw, err := encodeScalar(v)
		if err != nil {
			return err
		}
		if indent == "" || !bytes.ContainsAny(raw, "{[") {
			buf.Write(raw)
			return nil
		}
		// Plain Go maps and slices set by callers.
		return json.Indent(buf, raw, strings.Repeat(indent, depth), indent)
	}
}

func newline(buf *bytes.Buffer, indent string, depth int) {
	if indent == "" {
		return
	}
	buf.WriteByte('\n')
	buf.WriteString(strings.Repeat(indent, depth))
}

func encodeScalar(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Writer serializes values to files, reusing the indentation and line
// endings of the content it replaces.
type Writer struct {
	DefaultIndent string
}

// Write uses a Writer with DefaultIndent.
func Write(path string, v any) error {
	return Writer{DefaultIndent: DefaultIndent}.Write(path, v)
}

// Write serializes v to path. A leading "~" in path resolves to the home
// directory. Values equal to the previous content keep their original text,
// so an unchanged document is written back byte for byte. Failure to read
// the previous content is not an error; failure to write wraps ErrWrite.
func (w Writer) Write(path string, v any) error {
	file, err := safeio.ExpandHome(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}

	existing, err := os.ReadFile(file) // #nosec G304 -- path chosen by caller
	if err != nil {
		logger.Debug("No previous JSON content", logger.String("file", file), logger.Err(err))
		existing = nil
	}

	var src *source
	if len(existing) > 0 {
		orig, s, err := parse(existing)
		switch {
		case err != nil:
			logger.Debug("Previous JSON content not reused", logger.String("file", file), logger.Err(err))
		case equal(v, orig):
			return persist(file, existing)
		default:
			src = s
		}
	}

	indent := DetectIndent(string(existing))
	if indent == "" {
		indent = w.DefaultIndent
		if indent == "" {
			indent = DefaultIndent
		}
	}

	out, err := marshal(v, indent, src)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}

	eol := "\n"
	trailing := true
	if len(existing) > 0 {
		eol = textdoc.DetectLineEnding(string(existing))
		trailing = bytes.HasSuffix(existing, []byte("\n"))
	}
	text := string(out)
	if eol != "\n" {
		text = strings.ReplaceAll(text, "\n", eol)
	}
	if trailing {
		text += eol
	}

	return persist(file, []byte(text))
}

func persist(file string, data []byte) error {
	if err := safeio.WriteFileAtomic(file, data); err != nil {
		logger.Debug("Unable to write JSON file", logger.String("file", file), logger.Err(err))
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	return nil
}
