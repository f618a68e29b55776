package templates

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/fulmenhq/ocsetup/pkg/identity"
	"github.com/fulmenhq/ocsetup/pkg/placeholder"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testID = identity.Identity{Slug: "testcollective", Org: "acme", Repo: "widget"}

var stub = fstest.MapFS{
	"contributing/CONTRIBUTING.md":    {Data: []byte("Support {{slug}}\n")},
	"github/ISSUE_TEMPLATE.md":        {Data: []byte("<!-- {{repo}} -->\n")},
	"github/PULL_REQUEST_TEMPLATE.md": {Data: []byte("{{unknown}}\n")},
}

func read(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestReconcile_CreatesMissingFile(t *testing.T) {
	target := filepath.Join(t.TempDir(), ".github", "ISSUE_TEMPLATE.md")

	res, err := Reconcile(target, testID, Options{Templates: stub})
	require.NoError(t, err)
	assert.Equal(t, Result{Created: true, Changed: true, Name: "ISSUE_TEMPLATE.md"}, res)
	assert.Equal(t, "Added", res.Verb())
	assert.Equal(t, StartMarker+"\n<!-- widget -->\n"+EndMarker+"\n", read(t, target))
}

func TestReconcile_AppendsToExistingFile(t *testing.T) {
	target := filepath.Join(t.TempDir(), "CONTRIBUTING.md")
	require.NoError(t, os.WriteFile(target, []byte("# Contributing\r\n\r\nBe nice.\r\n"), 0o644))

	res, err := Reconcile(target, testID, Options{Templates: stub})
	require.NoError(t, err)
	assert.False(t, res.Created)
	assert.True(t, res.Changed)
	assert.Equal(t, "Updated", res.Verb())
	assert.Equal(t, "# Contributing\r\n\r\nBe nice.\r\n\r\n"+StartMarker+"\r\nSupport testcollective\r\n"+EndMarker+"\r\n", read(t, target))
}

func TestReconcile_RefreshesMarkedSection(t *testing.T) {
	target := filepath.Join(t.TempDir(), "CONTRIBUTING.md")
	original := "intro\n" + StartMarker + "\nSupport oldslug\n" + EndMarker + "\noutro\n"
	require.NoError(t, os.WriteFile(target, []byte(original), 0o644))

	res, err := Reconcile(target, testID, Options{Templates: stub})
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Equal(t, "intro\n"+StartMarker+"\nSupport testcollective\n"+EndMarker+"\noutro\n", read(t, target))
}

func TestReconcile_UnterminatedSectionRunsToEOF(t *testing.T) {
	for name, original := range map[string]string{
		"trailing newline": "intro\n" + StartMarker + "\nSupport oldslug\nleftover\n",
		"no newline":       "intro\n" + StartMarker + "\nSupport oldslug",
	} {
		t.Run(name, func(t *testing.T) {
			target := filepath.Join(t.TempDir(), "CONTRIBUTING.md")
			require.NoError(t, os.WriteFile(target, []byte(original), 0o644))

			res, err := Reconcile(target, testID, Options{Templates: stub})
			require.NoError(t, err)
			assert.True(t, res.Changed)

			want := "intro\n" + StartMarker + "\nSupport testcollective\n" + EndMarker
			if strings.HasSuffix(original, "\n") {
				want += "\n"
			}
			got := read(t, target)
			assert.Equal(t, want, got)
			assert.Equal(t, 1, strings.Count(got, StartMarker))

			res, err = Reconcile(target, testID, Options{Templates: stub})
			require.NoError(t, err)
			assert.False(t, res.Changed)
		})
	}
}

func TestReconcile_SecondRunIsNoOp(t *testing.T) {
	target := filepath.Join(t.TempDir(), "CONTRIBUTING.md")
	require.NoError(t, os.WriteFile(target, []byte("# Contributing\n"), 0o644))

	_, err := Reconcile(target, testID, Options{Templates: stub})
	require.NoError(t, err)
	first := read(t, target)

	res, err := Reconcile(target, testID, Options{Templates: stub})
	require.NoError(t, err)
	assert.False(t, res.Changed)
	assert.False(t, res.Created)
	assert.Equal(t, first, read(t, target))
	assert.Equal(t, 1, strings.Count(first, StartMarker))
}

func TestReconcile_ExistingContentWithoutMarkers(t *testing.T) {
	target := filepath.Join(t.TempDir(), "CONTRIBUTING.md")
	original := "# Contributing\n\nSupport testcollective\n"
	require.NoError(t, os.WriteFile(target, []byte(original), 0o644))

	res, err := Reconcile(target, testID, Options{Templates: stub})
	require.NoError(t, err)
	assert.False(t, res.Changed)
	assert.Equal(t, original, read(t, target))
}

func TestReconcile_UnknownPlaceholderWritesNothing(t *testing.T) {
	target := filepath.Join(t.TempDir(), "PULL_REQUEST_TEMPLATE.md")

	_, err := Reconcile(target, testID, Options{Templates: stub})
	require.Error(t, err)
	assert.True(t, errors.Is(err, placeholder.ErrUnknownPlaceholder))
	_, statErr := os.Stat(target)
	assert.True(t, os.IsNotExist(statErr))
}

func TestReconcile_UnknownKind(t *testing.T) {
	_, err := Reconcile(filepath.Join(t.TempDir(), "CHANGELOG.md"), testID, Options{Templates: stub})
	assert.True(t, errors.Is(err, ErrUnknownKind))
}

func TestReconcile_EmbeddedTemplates(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"CONTRIBUTING.md", "ISSUE_TEMPLATE.md", "PULL_REQUEST_TEMPLATE.md"} {
		res, err := Reconcile(filepath.Join(dir, name), testID, Options{})
		require.NoError(t, err, name)
		assert.True(t, res.Created)
		assert.Contains(t, read(t, filepath.Join(dir, name)), "opencollective.com/testcollective")
	}
}

func TestReconcile_DryRun(t *testing.T) {
	target := filepath.Join(t.TempDir(), "CONTRIBUTING.md")
	res, err := Reconcile(target, testID, Options{Templates: stub, DryRun: true})
	require.NoError(t, err)
	assert.True(t, res.Created)
	_, statErr := os.Stat(target)
	assert.True(t, os.IsNotExist(statErr))
}
