package ops

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hpungsan/yougpt/internal/config"
	"github.com/hpungsan/yougpt/internal/errors"
	"github.com/hpungsan/yougpt/internal/export"
)

func TestValidatePath_TraversalRejected(t *testing.T) {
	cfg := config.DefaultConfig()

	tests := []struct {
		name string
		path string
	}{
		{"parent traversal", "../summary.txt"},
		{"deep traversal", "../../etc/summary.txt"},
		{"mid-path traversal", "/tmp/../etc/summary.txt"},
		{"hidden in path", "/tmp/safe/../../../etc/shadow.txt"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidatePath(tc.path, export.KindText, cfg)
			if !errors.Is(err, errors.ErrInvalidRequest) {
				t.Errorf("expected ErrInvalidRequest, got: %v", err)
			}
		})
	}
}

func TestValidatePath_ExtensionMustMatchKind(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.AllowUnsafePaths = true

	tests := []struct {
		name string
		path string
		kind export.Kind
	}{
		{"no extension", "/tmp/summary", export.KindText},
		{"jsonl", "/tmp/summary.jsonl", export.KindText},
		{"pdf for text", "/tmp/summary.pdf", export.KindText},
		{"txt for pdf", "/tmp/summary.txt", export.KindPDF},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidatePath(tc.path, tc.kind, cfg)
			if !errors.Is(err, errors.ErrInvalidRequest) {
				t.Errorf("expected ErrInvalidRequest, got: %v", err)
			}
		})
	}

	if err := ValidatePath(filepath.Join(t.TempDir(), "Summary.PDF"), export.KindPDF, cfg); err != nil {
		t.Errorf("extension match should ignore case, got: %v", err)
	}
}

func TestValidatePath_DirectoryRestriction(t *testing.T) {
	t.Setenv(config.HomeEnv, t.TempDir())
	cfg := config.DefaultConfig()

	err := ValidatePath(filepath.Join(t.TempDir(), "summary.txt"), export.KindText, cfg)
	if !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("expected ErrInvalidRequest for path outside allowed directories, got: %v", err)
	}
}

func TestValidatePath_DefaultExportsDir(t *testing.T) {
	base := t.TempDir()
	t.Setenv(config.HomeEnv, base)
	cfg := config.DefaultConfig()

	dir, err := DefaultExportsDir()
	if err != nil {
		t.Fatalf("DefaultExportsDir failed: %v", err)
	}
	if dir != filepath.Join(base, "exports") {
		t.Errorf("DefaultExportsDir = %q, want %q", dir, filepath.Join(base, "exports"))
	}

	if err := ValidatePath(filepath.Join(dir, "summary_essay.pdf"), export.KindPDF, cfg); err != nil {
		t.Errorf("expected success inside exports dir, got: %v", err)
	}
}

func TestValidatePath_AllowUnsafePaths(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.AllowUnsafePaths = true

	writePath := filepath.Join(t.TempDir(), "nested", "output.txt")
	if err := ValidatePath(writePath, export.KindText, cfg); err != nil {
		t.Errorf("expected success with AllowUnsafePaths=true, got: %v", err)
	}
}

func TestValidatePath_AllowedPaths(t *testing.T) {
	t.Setenv(config.HomeEnv, t.TempDir())
	allowed := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.AllowedPaths = []string{allowed, "relative/ignored"}

	if err := ValidatePath(filepath.Join(allowed, "out.txt"), export.KindText, cfg); err != nil {
		t.Errorf("expected success for path in AllowedPaths, got: %v", err)
	}

	other := filepath.Join(t.TempDir(), "out.txt")
	if err := ValidatePath(other, export.KindText, cfg); err == nil {
		t.Error("expected error for path outside AllowedPaths, got nil")
	}
}

func TestValidatePath_NestedPathRejected(t *testing.T) {
	t.Setenv(config.HomeEnv, t.TempDir())
	allowedDir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.AllowedPaths = []string{allowedDir}

	subDir := filepath.Join(allowedDir, "subdir")
	if err := os.MkdirAll(subDir, 0755); err != nil {
		t.Fatalf("failed to create subdir: %v", err)
	}

	err := ValidatePath(filepath.Join(subDir, "out.txt"), export.KindText, cfg)
	if !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("expected ErrInvalidRequest for nested path, got: %v", err)
	}
}

func TestValidatePath_SymlinkFileRejected(t *testing.T) {
	t.Setenv(config.HomeEnv, t.TempDir())
	allowedDir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.AllowedPaths = []string{allowedDir}

	targetFile := filepath.Join(t.TempDir(), "secret.txt")
	if err := os.WriteFile(targetFile, []byte("secret"), 0600); err != nil {
		t.Fatalf("failed to create target file: %v", err)
	}

	symlink := filepath.Join(allowedDir, "out.txt")
	if err := os.Symlink(targetFile, symlink); err != nil {
		t.Skipf("cannot create symlink: %v", err)
	}

	err := ValidatePath(symlink, export.KindText, cfg)
	if !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("expected ErrInvalidRequest for symlink file, got: %v", err)
	}
}

func TestValidatePath_SymlinkRejected_EvenWithUnsafePaths(t *testing.T) {
	tmpDir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.AllowUnsafePaths = true

	targetFile := filepath.Join(tmpDir, "target.pdf")
	if err := os.WriteFile(targetFile, []byte("%PDF"), 0600); err != nil {
		t.Fatalf("failed to create target file: %v", err)
	}
	symlink := filepath.Join(tmpDir, "link.pdf")
	if err := os.Symlink(targetFile, symlink); err != nil {
		t.Skipf("cannot create symlink: %v", err)
	}

	// AllowUnsafePaths lifts directory restrictions only
	err := ValidatePath(symlink, export.KindPDF, cfg)
	if !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("expected ErrInvalidRequest, got: %v", err)
	}
}

func TestContainsTraversal(t *testing.T) {
	tests := []struct {
		path     string
		contains bool
	}{
		{"/home/user/file.txt", false},
		{"../file.txt", true},
		{"/home/../etc/passwd", true},
		{"./file.txt", false},
		{"/home/user/.hidden/file.txt", false},
		{"file..name.txt", false}, // .. not as path component
		{"/tmp/a/b/../c.pdf", true},
	}

	for _, tc := range tests {
		t.Run(tc.path, func(t *testing.T) {
			if got := containsTraversal(tc.path); got != tc.contains {
				t.Errorf("containsTraversal(%q) = %v, want %v", tc.path, got, tc.contains)
			}
		})
	}
}

func TestSanitizeForFilename(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"simple name", "summary_essay-01ABC", "summary_essay-01ABC"},
		{"forward slash", "path/to/file", "path-to-file"},
		{"backslash", "path\\to\\file", "path-to-file"},
		{"double dots", "foo..bar", "foo-bar"},
		{"traversal attempt", "../../../etc/passwd", "etc-passwd"},
		{"null bytes", "foo\x00bar", "foobar"},
		{"empty after sanitize", "../../..", "unnamed"},
		{"unicode preserved", "summary-中文", "summary-中文"},
		{"multiple dashes collapse", "a---b", "a-b"},
		{"trailing dashes trimmed", "foo---", "foo"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := SanitizeForFilename(tc.input); got != tc.expected {
				t.Errorf("SanitizeForFilename(%q) = %q, want %q", tc.input, got, tc.expected)
			}
		})
	}
}
