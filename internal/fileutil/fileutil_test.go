package fileutil_test

// Notes:
// - TestWriteTempFile_CreateTempError modifies TMPDIR and cannot run in
//   parallel with other tests.

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/alnah/go-photocal/internal/fileutil"
)

// ---------------------------------------------------------------------------
// TestValidateExtension - Extension validation
// ---------------------------------------------------------------------------

func TestValidateExtension(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		extension string
		wantErr   error
	}{
		{name: "valid extension html", extension: "html"},
		{name: "empty extension", extension: "", wantErr: fileutil.ErrExtensionEmpty},
		{name: "forward slash path traversal", extension: "../etc/passwd", wantErr: fileutil.ErrExtensionPathTraversal},
		{name: "backslash path traversal", extension: "..\\windows", wantErr: fileutil.ErrExtensionPathTraversal},
		{name: "null byte injection", extension: "html\x00exe", wantErr: fileutil.ErrExtensionPathTraversal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := fileutil.ValidateExtension(tt.extension)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateExtension(%q) = %v, want %v", tt.extension, err, tt.wantErr)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestValidateFileName - Upload field name validation
// ---------------------------------------------------------------------------

func TestValidateFileName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"month key", "jan", false},
		{"with extension", "cover.jpg", false},
		{"with spaces", "my photo", false},
		{"unicode", "janvier-été", false},
		{"empty", "", true},
		{"dot", ".", true},
		{"dotdot", "..", true},
		{"hidden", ".bashrc", true},
		{"slash", "a/b", true},
		{"traversal", "../../etc/passwd", true},
		{"backslash", "a\\b", true},
		{"null byte", "a\x00b", true},
		{"too long", strings.Repeat("x", fileutil.MaxFileNameLength+1), true},
		{"max length", strings.Repeat("x", fileutil.MaxFileNameLength), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := fileutil.ValidateFileName(tt.input)
			if tt.wantErr && !errors.Is(err, fileutil.ErrInvalidFileName) {
				t.Errorf("ValidateFileName(%q) = %v, want ErrInvalidFileName", tt.input, err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("ValidateFileName(%q) unexpected error: %v", tt.input, err)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestWriteTempFile - Temp file lifecycle
// ---------------------------------------------------------------------------

func TestWriteTempFile(t *testing.T) {
	t.Parallel()

	content := "<html><body>calendar</body></html>"
	path, cleanup, err := fileutil.WriteTempFile(content, "html")
	if err != nil {
		t.Fatalf("WriteTempFile() error = %v", err)
	}

	if !strings.HasSuffix(path, ".html") {
		t.Errorf("path %q should end with .html", path)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(got) != content {
		t.Errorf("content = %q, want %q", got, content)
	}

	cleanup()
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("file should be removed after cleanup, stat err = %v", err)
	}
}

func TestWriteTempFile_InvalidExtension(t *testing.T) {
	t.Parallel()

	if _, _, err := fileutil.WriteTempFile("x", "../x"); !errors.Is(err, fileutil.ErrExtensionPathTraversal) {
		t.Errorf("WriteTempFile() error = %v, want ErrExtensionPathTraversal", err)
	}
}

func TestWriteTempFile_CreateTempError(t *testing.T) {
	t.Setenv("TMPDIR", "/nonexistent/dir/abc123")

	if _, _, err := fileutil.WriteTempFile("x", "html"); err == nil {
		t.Error("WriteTempFile() expected error for invalid TMPDIR")
	}
}

// ---------------------------------------------------------------------------
// TestMakeTempDir - Unique directory with single removal
// ---------------------------------------------------------------------------

func TestMakeTempDir(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	dir, remove, err := fileutil.MakeTempDir(base)
	if err != nil {
		t.Fatalf("MakeTempDir() error = %v", err)
	}
	if filepath.Dir(dir) != base {
		t.Errorf("dir %q should be created under %q", dir, base)
	}
	if err := os.WriteFile(filepath.Join(dir, "jan"), []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}

	if err := remove(); err != nil {
		t.Fatalf("remove() error = %v", err)
	}
	if fileutil.DirExists(dir) {
		t.Error("directory should not exist after remove()")
	}
	if err := remove(); err != nil {
		t.Errorf("second remove() error = %v, want nil", err)
	}
}

func TestMakeTempDir_Unique(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	const n = 32

	var (
		mu   sync.Mutex
		seen = make(map[string]bool, n)
		wg   sync.WaitGroup
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			dir, _, err := fileutil.MakeTempDir(base)
			if err != nil {
				t.Errorf("MakeTempDir() error = %v", err)
				return
			}
			mu.Lock()
			defer mu.Unlock()
			if seen[dir] {
				t.Errorf("duplicate dir %q", dir)
			}
			seen[dir] = true
		}()
	}
	wg.Wait()
}

func TestMakeTempDir_InvalidBase(t *testing.T) {
	t.Parallel()

	if _, _, err := fileutil.MakeTempDir("/nonexistent/abc123"); err == nil {
		t.Error("MakeTempDir() expected error for missing base")
	}
}

// ---------------------------------------------------------------------------
// TestFileExists / TestDirExists
// ---------------------------------------------------------------------------

func TestFileExists(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	file := filepath.Join(dir, "a.txt")
	if err := os.WriteFile(file, []byte("a"), 0o600); err != nil {
		t.Fatal(err)
	}

	if !fileutil.FileExists(file) {
		t.Error("FileExists(file) = false, want true")
	}
	if fileutil.FileExists(dir) {
		t.Error("FileExists(dir) = true, want false")
	}
	if fileutil.FileExists(filepath.Join(dir, "missing")) {
		t.Error("FileExists(missing) = true, want false")
	}
	if !fileutil.DirExists(dir) {
		t.Error("DirExists(dir) = false, want true")
	}
	if fileutil.DirExists(file) {
		t.Error("DirExists(file) = true, want false")
	}
}
