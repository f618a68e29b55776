// Package funding maintains the open_collective entry of a GitHub
// FUNDING.yml file.
package funding

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/fulmenhq/ocsetup/pkg/identity"
	"github.com/fulmenhq/ocsetup/pkg/logger"
	"github.com/fulmenhq/ocsetup/pkg/safeio"
	"github.com/fulmenhq/ocsetup/pkg/textdoc"
)

const (
	// RelPath is the location of the funding file inside a repository.
	RelPath = ".github/FUNDING.yml"
	// Key is the platform key GitHub reads for Open Collective.
	Key = "open_collective"
)

// ErrNotMapping is returned when the file's top level is not a YAML mapping.
var ErrNotMapping = errors.New("FUNDING.yml is not a mapping")

// Result reports what Apply did.
type Result struct {
	Created bool
	Changed bool
}

// Apply creates path with the collective slug or sets the open_collective key
// in an existing file. Other keys and comments are kept.
func Apply(path string, id identity.Identity, dryRun bool) (Result, error) {
	var res Result

	existing, err := os.ReadFile(path) // #nosec G304 -- file inside the target checkout
	switch {
	case errors.Is(err, fs.ErrNotExist):
		res.Created = true
	case err != nil:
		return res, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var doc yaml.Node
	if len(bytes.TrimSpace(existing)) > 0 {
		if err := yaml.Unmarshal(existing, &doc); err != nil {
			return res, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	var out []byte
	if isEmpty(&doc) {
		// No data yet: keep the existing text (comments) and add the key below it.
		if out, err = appendKey(existing, Key, id.Slug); err != nil {
			return res, fmt.Errorf("failed to encode %s: %w", path, err)
		}
	} else {
		root := doc.Content[0]
		if root.Kind != yaml.MappingNode {
			return res, fmt.Errorf("%w: %s", ErrNotMapping, path)
		}
		if !setKey(root, Key, id.Slug) {
			logger.Debug("FUNDING.yml already points to the collective", logger.String("file", path))
			return res, nil
		}
		if out, err = encode(&doc); err != nil {
			return res, fmt.Errorf("failed to encode %s: %w", path, err)
		}
	}
	res.Changed = true

	verb := "Updating"
	if res.Created {
		verb = "Adding"
	}
	logger.Info(verb+" "+RelPath, logger.String("file", path), logger.String("slug", id.Slug))
	if dryRun {
		return res, nil
	}
	return res, safeio.WriteFileAtomic(path, out)
}

func isEmpty(doc *yaml.Node) bool {
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return true
	}
	n := doc.Content[0]
	return n.Kind == yaml.ScalarNode && n.Tag == "!!null" && n.Value == ""
}

func encode(doc *yaml.Node) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// appendKey renders a one-key mapping after the existing text, using its
// line ending.
func appendKey(existing []byte, key, value string) ([]byte, error) {
	m := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	setKey(m, key, value)
	entry, err := encode(&yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{m}})
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(existing)) == 0 {
		return entry, nil
	}
	eol := textdoc.DetectLineEnding(string(existing))
	out := append([]byte{}, existing...)
	if !bytes.HasSuffix(out, []byte("\n")) {
		out = append(out, eol...)
	}
	return append(out, bytes.ReplaceAll(entry, []byte("\n"), []byte(eol))...), nil
}

// setKey sets key to a plain string value and reports whether the mapping
// changed.
func setKey(m *yaml.Node, key, value string) bool {
	for i := 0; i+1 < len(m.Content); i += 2 {
		k, v := m.Content[i], m.Content[i+1]
		if k.Value != key {
			continue
		}
		if v.Kind == yaml.ScalarNode && v.Value == value {
			return false
		}
		*v = yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value, LineComment: v.LineComment}
		return true
	}
	m.Content = append(m.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value},
	)
	return true
}
