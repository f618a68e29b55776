package safeio

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCleanUserPath(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
		hasError bool
	}{
		{
			name:     "simple path",
			input:    "file.txt",
			expected: "file.txt",
			hasError: false,
		},
		{
			name:     "relative path",
			input:    "./subdir/file.txt",
			expected: "subdir/file.txt",
			hasError: false,
		},
		{
			name:     "absolute path",
			input:    "/tmp/file.txt",
			expected: "/tmp/file.txt",
			hasError: false,
		},
		{
			name:     "path with traversal",
			input:    "../../../etc/passwd",
			expected: "",
			hasError: true,
		},
		{
			name:     "path with traversal in middle",
			input:    "valid/../../../etc/passwd",
			expected: "",
			hasError: true,
		},
		{
			name:     "path with dots but no traversal",
			input:    "file.with.dots.txt",
			expected: "file.with.dots.txt",
			hasError: false,
		},
		{
			name:     "empty path",
			input:    "",
			expected: ".",
			hasError: false,
		},
		{
			name:     "current directory",
			input:    ".",
			expected: ".",
			hasError: false,
		},
		{
			name:     "parent directory",
			input:    "..",
			expected: "",
			hasError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := CleanUserPath(tt.input)

			if tt.hasError {
				if err == nil {
					t.Errorf("CleanUserPath(%q) expected error but got none", tt.input)
				}
			} else {
				if err != nil {
					t.Errorf("CleanUserPath(%q) unexpected error: %v", tt.input, err)
				}
				if result != tt.expected {
					t.Errorf("CleanUserPath(%q) = %q, expected %q", tt.input, result, tt.expected)
				}
			}
		})
	}
}

func TestExpandHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)

	got, err := ExpandHome("~/.opencollective.json")
	if err != nil {
		t.Fatalf("ExpandHome() unexpected error: %v", err)
	}
	if got != filepath.Join(home, ".opencollective.json") {
		t.Errorf("ExpandHome() = %q, expected path under %q", got, home)
	}

	abs, err := ExpandHome("relative/file.json")
	if err != nil {
		t.Fatalf("ExpandHome() unexpected error: %v", err)
	}
	if !filepath.IsAbs(abs) {
		t.Errorf("ExpandHome() = %q, expected absolute path", abs)
	}
}

func TestWriteFileAtomic_NewFile(t *testing.T) {
	testFile := filepath.Join(t.TempDir(), "nested", "test.txt")
	testData := []byte("test data for safeio")

	if err := WriteFileAtomic(testFile, testData); err != nil {
		t.Fatalf("WriteFileAtomic() failed for new file: %v", err)
	}

	content, err := os.ReadFile(testFile)
	if err != nil {
		t.Fatalf("Failed to read test file: %v", err)
	}
	if string(content) != string(testData) {
		t.Errorf("File content mismatch: got %q, expected %q", string(content), string(testData))
	}

	stat, err := os.Stat(testFile)
	if err != nil {
		t.Fatalf("Failed to stat test file: %v", err)
	}
	if stat.Mode().Perm() != os.FileMode(0o644) {
		t.Errorf("File permissions: got %s, expected %s", stat.Mode().Perm(), os.FileMode(0o644))
	}
}

func TestWriteFileAtomic_PreservesPermsAndLeavesNoTemp(t *testing.T) {
	tempDir := t.TempDir()
	testFile := filepath.Join(tempDir, "test.txt")

	if err := os.WriteFile(testFile, []byte("initial data"), 0o600); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	if err := WriteFileAtomic(testFile, []byte("new data")); err != nil {
		t.Fatalf("WriteFileAtomic() failed for existing file: %v", err)
	}

	content, err := os.ReadFile(testFile)
	if err != nil {
		t.Fatalf("Failed to read test file: %v", err)
	}
	if string(content) != "new data" {
		t.Errorf("File content mismatch: got %q", string(content))
	}

	stat, err := os.Stat(testFile)
	if err != nil {
		t.Fatalf("Failed to stat test file after write: %v", err)
	}
	if stat.Mode().Perm() != os.FileMode(0o600) {
		t.Errorf("File permissions changed: now %s", stat.Mode().Perm())
	}

	entries, err := os.ReadDir(tempDir)
	if err != nil {
		t.Fatalf("Failed to list dir: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("Expected only the target file to remain, found %d entries", len(entries))
	}
}

func TestWriteFileAtomic_TargetIsDirectory(t *testing.T) {
	tempDir := t.TempDir()
	target := filepath.Join(tempDir, "dir")
	if err := os.MkdirAll(filepath.Join(target, "child"), 0o755); err != nil {
		t.Fatalf("Failed to create directory: %v", err)
	}

	if err := WriteFileAtomic(target, []byte("data")); err == nil {
		t.Error("WriteFileAtomic() should fail when the target is a non-empty directory")
	}
}
