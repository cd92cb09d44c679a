package pathutil

import (
	"path/filepath"
	"runtime"
	"testing"
)

func TestToRelative(t *testing.T) {
	tests := []struct {
		name     string
		absPath  string
		rootDir  string
		expected string
	}{
		{
			name:     "simple relative path",
			absPath:  "/home/user/project/src/main.go",
			rootDir:  "/home/user/project",
			expected: "src/main.go",
		},
		{
			name:     "nested relative path",
			absPath:  "/home/user/project/internal/core/search.go",
			rootDir:  "/home/user/project",
			expected: "internal/core/search.go",
		},
		{
			name:     "root level file",
			absPath:  "/home/user/project/README.md",
			rootDir:  "/home/user/project",
			expected: "README.md",
		},
		{
			name:     "same directory",
			absPath:  "/home/user/project",
			rootDir:  "/home/user/project",
			expected: ".",
		},
		{
			name:     "already relative path",
			absPath:  "src/main.go",
			rootDir:  "/home/user/project",
			expected: "src/main.go",
		},
		{
			name:     "path outside root falls back to absolute",
			absPath:  "/other/location/file.go",
			rootDir:  "/home/user/project",
			expected: "/other/location/file.go",
		},
		{
			name:     "empty root directory",
			absPath:  "/home/user/project/file.go",
			rootDir:  "",
			expected: "/home/user/project/file.go",
		},
		{
			name:     "empty absolute path",
			absPath:  "",
			rootDir:  "/home/user/project",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ToRelative(tt.absPath, tt.rootDir)

			got, want := result, tt.expected
			if runtime.GOOS == "windows" {
				got = filepath.ToSlash(got)
				want = filepath.ToSlash(want)
			}
			if got != want {
				t.Errorf("ToRelative() = %v, want %v", got, want)
			}
		})
	}
}

func TestToAbsolute(t *testing.T) {
	tests := []struct {
		name     string
		relPath  string
		rootDir  string
		expected string
	}{
		{
			name:     "relative path joined to root",
			relPath:  "src/main.go",
			rootDir:  "/home/user/project",
			expected: "/home/user/project/src/main.go",
		},
		{
			name:     "already absolute path unchanged",
			relPath:  "/other/location/file.go",
			rootDir:  "/home/user/project",
			expected: "/other/location/file.go",
		},
		{
			name:     "empty path stays empty",
			relPath:  "",
			rootDir:  "/home/user/project",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToAbsolute(tt.relPath, tt.rootDir)
			want := tt.expected
			if runtime.GOOS == "windows" {
				got = filepath.ToSlash(got)
				want = filepath.ToSlash(want)
			}
			if got != want {
				t.Errorf("ToAbsolute() = %v, want %v", got, want)
			}
		})
	}
}

func TestToRelativeToAbsoluteRoundTrip(t *testing.T) {
	rootDir := "/home/user/project"
	abs := "/home/user/project/internal/core/search.go"

	rel := ToRelative(abs, rootDir)
	back := ToAbsolute(rel, rootDir)

	if back != abs {
		t.Errorf("round trip failed: got %v, want %v", back, abs)
	}
}
