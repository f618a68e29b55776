package jsonfile

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectIndent(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{name: "two spaces", content: "{\n  \"a\": 1\n}", want: "  "},
		{name: "four spaces", content: "{\n    \"a\": {\n        \"b\": 1\n    }\n}", want: "    "},
		{name: "tab", content: "{\n\t\"a\": 1\n}", want: "\t"},
		{name: "crlf", content: "{\r\n   \"a\": 1\r\n}", want: "   "},
		{name: "compact", content: `{"a":1}`, want: ""},
		{name: "empty", content: "", want: ""},
		{name: "blank lines skipped", content: "{\n   \n  \"a\": 1\n}", want: "  "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectIndent(tt.content))
		})
	}
}

func TestParse_PreservesOrderAndNumbers(t *testing.T) {
	v, err := Parse([]byte(`{"z": 1, "a": {"y": 1.50, "b": [true, null, "x"]}, "m": 10000000000000000001}`))
	require.NoError(t, err)

	obj, ok := v.(*Object)
	require.True(t, ok)

	var keys []string
	for pair := obj.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	assert.Equal(t, []string{"z", "a", "m"}, keys)

	m, _ := obj.Get("m")
	assert.Equal(t, json.Number("10000000000000000001"), m)

	inner, _ := obj.Get("a")
	y, _ := inner.(*Object).Get("y")
	assert.Equal(t, json.Number("1.50"), y)
}

func TestParse_Invalid(t *testing.T) {
	for _, in := range []string{``, `{`, `{"a":1} trailing`, `not json`} {
		_, err := Parse([]byte(in))
		assert.True(t, errors.Is(err, ErrParse), "input %q", in)
	}
}

func TestMarshal_RoundTripStable(t *testing.T) {
	inputs := map[string]string{
		"two spaces": "{\n  \"name\": \"x\",\n  \"scripts\": {\n    \"test\": \"y\"\n  },\n  \"files\": [],\n  \"empty\": {},\n  \"n\": 1.0\n}",
		"tab":        "{\n\t\"name\": \"x\",\n\t\"list\": [\n\t\t1,\n\t\t\"two\"\n\t]\n}",
	}
	for name, in := range inputs {
		t.Run(name, func(t *testing.T) {
			v, err := Parse([]byte(in))
			require.NoError(t, err)
			out, err := Marshal(v, DetectIndent(in))
			require.NoError(t, err)
			assert.Equal(t, in, string(out))
		})
	}
}

func TestMarshal_NoHTMLEscaping(t *testing.T) {
	obj := NewObject()
	obj.Set("postinstall", "a && b <c>")
	out, err := Marshal(obj, "  ")
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"postinstall\": \"a && b <c>\"\n}", string(out))
}

func TestMarshal_PlainGoValues(t *testing.T) {
	obj := NewObject()
	obj.Set("deps", map[string]string{"a": "^1.0.0"})
	out, err := Marshal(obj, "  ")
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"deps\": {\n    \"a\": \"^1.0.0\"\n  }\n}", string(out))
}

func TestWrite_PreservesIndentAndTrailingNewline(t *testing.T) {
	path := filepath.Join(t.TempDir(), "package.json")
	original := "{\n    \"name\": \"x\"\n}"
	require.NoError(t, os.WriteFile(path, []byte(original), 0o644))

	obj, err := ReadObject(path)
	require.NoError(t, err)
	obj.Set("version", "1.0.0")
	require.NoError(t, Write(path, obj))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{\n    \"name\": \"x\",\n    \"version\": \"1.0.0\"\n}", string(got))
}

func TestWrite_CRLF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "package.json")
	original := "{\r\n\t\"name\": \"x\"\r\n}\r\n"
	require.NoError(t, os.WriteFile(path, []byte(original), 0o644))

	obj, err := ReadObject(path)
	require.NoError(t, err)
	require.NoError(t, Write(path, obj))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, original, string(got))
}

const handFormatted = "{\n" +
	"  \"name\": \"caf\\u00e9\",\n" +
	"  \"files\": [\"lib\", \"bin\"],\n" +
	"  \"repository\": {\"type\": \"git\", \"url\": \"https://example.com/x.git\"},\n" +
	"  \"version\": 1.0e2,\n" +
	"  \"scripts\": {\n" +
	"    \"test\": \"tap \\u003c in\"\n" +
	"  }\n" +
	"}\n"

func TestWrite_UnchangedDocumentIsByteStable(t *testing.T) {
	for name, content := range map[string]string{
		"hand formatted": handFormatted,
		"crlf":           strings.ReplaceAll(handFormatted, "\n", "\r\n"),
		"no newline":     strings.TrimSuffix(handFormatted, "\n"),
	} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "package.json")
			require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

			obj, err := ReadObject(path)
			require.NoError(t, err)
			require.NoError(t, Write(path, obj))

			got, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, content, string(got))
		})
	}
}

func TestWrite_KeepsUntouchedValuesVerbatim(t *testing.T) {
	for name, eol := range map[string]string{"lf": "\n", "crlf": "\r\n"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "package.json")
			require.NoError(t, os.WriteFile(path, []byte(strings.ReplaceAll(handFormatted, "\n", eol)), 0o644))

			obj, err := ReadObject(path)
			require.NoError(t, err)
			scriptsV, _ := obj.Get("scripts")
			scriptsV.(*Object).Set("postinstall", "x || true")
			require.NoError(t, Write(path, obj))

			want := "{\n" +
				"  \"name\": \"caf\\u00e9\",\n" +
				"  \"files\": [\"lib\", \"bin\"],\n" +
				"  \"repository\": {\"type\": \"git\", \"url\": \"https://example.com/x.git\"},\n" +
				"  \"version\": 1.0e2,\n" +
				"  \"scripts\": {\n" +
				"    \"test\": \"tap \\u003c in\",\n" +
				"    \"postinstall\": \"x || true\"\n" +
				"  }\n" +
				"}\n"
			got, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, strings.ReplaceAll(want, "\n", eol), string(got))
		})
	}
}

func TestWrite_NewFileUsesDefaultIndent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.json")
	obj := NewObject()
	obj.Set("github_token", "abc")

	require.NoError(t, Writer{DefaultIndent: "\t"}.Write(path, obj))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{\n\t\"github_token\": \"abc\"\n}\n", string(got))
}

func TestWrite_HomeShorthand(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)

	obj := NewObject()
	obj.Set("a", true)
	require.NoError(t, Write("~/.ocsetup.json", obj))

	_, err := os.Stat(filepath.Join(home, ".ocsetup.json"))
	assert.NoError(t, err)
}

func TestWrite_FailureIsReported(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	err := Write(filepath.Join(blocker, "child.json"), NewObject())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrWrite))
}

func TestReadObject_NotObject(t *testing.T) {
	path := filepath.Join(t.TempDir(), "arr.json")
	require.NoError(t, os.WriteFile(path, []byte(`[1,2]`), 0o644))
	_, err := ReadObject(path)
	assert.True(t, errors.Is(err, ErrParse))
}
