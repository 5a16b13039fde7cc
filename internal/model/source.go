// Package model defines the data structures shared by the move engine.
package model

import (
	"path/filepath"
	"strings"
)

// Path represents a file system path.
type Path string

// String returns the path as a plain string.
func (p Path) String() string { return string(p) }

// Base returns the last element of the path.
func (p Path) Base() string { return filepath.Base(string(p)) }

// Dir returns all but the last element of the path.
func (p Path) Dir() Path { return Path(filepath.Dir(string(p))) }

// Join appends elements to the path.
func (p Path) Join(elem ...string) Path {
	return Path(filepath.Join(append([]string{string(p)}, elem...)...))
}

// WorkingDirectory is the directory every user-supplied path is resolved
// against. It is threaded explicitly through discovery so nothing reads the
// process working directory behind the engine's back.
type WorkingDirectory Path

// Resolve turns a relative or absolute user path into a clean absolute path.
func (wd WorkingDirectory) Resolve(raw string) Path {
	if raw == "" {
		return Path(filepath.Clean(string(wd)))
	}

	if filepath.IsAbs(raw) {
		return Path(filepath.Clean(raw))
	}

	return Path(filepath.Join(string(wd), raw))
}

// Contains reports whether p is wd itself or lies below it.
func (wd WorkingDirectory) Contains(p Path) bool {
	rel, err := filepath.Rel(string(wd), string(p))
	if err != nil {
		return false
	}

	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// Rel renders p relative to wd when p lies below it, absolute otherwise.
func (wd WorkingDirectory) Rel(p Path) string {
	if wd == "" || !wd.Contains(p) {
		return string(p)
	}

	rel, err := filepath.Rel(string(wd), string(p))
	if err != nil {
		return string(p)
	}

	return rel
}

// FileEntry is one candidate discovered from the user's inputs.
//
// Entries produced by a directory sweep carry SourceRoot and, for files,
// RelPathFromRoot. The sweep root itself is emitted as a directory entry so
// the destination directory gets created even when it ends up empty.
type FileEntry struct {
	Path            Path
	IsDirectory     bool
	SourceRoot      Path
	RelPathFromRoot Path
}

// FromSweep reports whether the entry was found by a directory sweep.
func (e FileEntry) FromSweep() bool {
	return e.SourceRoot != ""
}

// CountFiles returns the number of non-directory entries.
func CountFiles(entries []FileEntry) int {
	n := 0

	for _, e := range entries {
		if !e.IsDirectory {
			n++
		}
	}

	return n
}

// NormalizeExtensions parses a comma separated extension list, trimming
// whitespace, dropping empties and forcing a leading dot.
func NormalizeExtensions(raw []string) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0, len(raw))

	for _, item := range raw {
		for _, ext := range strings.Split(item, ",") {
			ext = strings.TrimSpace(ext)
			if ext == "" {
				continue
			}

			if !strings.HasPrefix(ext, ".") {
				ext = "." + ext
			}

			if _, dup := seen[ext]; dup {
				continue
			}

			seen[ext] = struct{}{}
			out = append(out, ext)
		}
	}

	return out
}

// HasExtension reports whether path ends with one of the allowed extensions.
func HasExtension(path Path, extensions []string) bool {
	for _, ext := range extensions {
		if strings.HasSuffix(string(path), ext) {
			return true
		}
	}

	return false
}
