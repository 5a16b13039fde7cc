// Package adapter contains the filesystem and project-model infrastructure
// the move engine relies on.
package adapter

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/afero"

	m "refmove.dev/pkg/refmove/internal/model"
)

// ProjectMarkers are the files that mark a project root, in lookup order.
var ProjectMarkers = []string{"tsconfig.json", "jsconfig.json", "package.json"}

// skippedDirs are never descended into by project-wide scans.
var skippedDirs = map[string]struct{}{
	"node_modules": {},
	".git":         {},
}

// SourceFSAdapter abstracts filesystem-specific operations that the domain layer
// relies on when scanning and rewriting user projects. It hides direct `os`
// access so the engine can be tested against an in-memory filesystem.
//
//nolint:interfacebloat // A richer interface keeps workflow logic decoupled from os/fs.
type SourceFSAdapter interface {
	// Walk traverses root in lexical order. When recursive is false the
	// implementation limits itself to the root directory (no sub-dirs).
	Walk(root m.Path, recursive bool, fn FilepathWalkFunc) error

	// WalkProject visits every regular file below root, skipping dependency
	// and VCS directories. Returning filepath.SkipAll stops the walk.
	WalkProject(root m.Path, fn func(path m.Path) error) error

	// Glob expands a doublestar pattern. With recursive set, patterns without
	// "**" also match at any depth below their base directory.
	Glob(pattern string, recursive bool) ([]m.Path, error)

	// ReadFile loads a file from disk and returns its contents.
	ReadFile(path m.Path) ([]byte, error)

	// WriteFile writes content to a file, creating parent directories.
	WriteFile(path m.Path, content []byte, perm os.FileMode) error

	// FileInfo returns metadata for a path.
	FileInfo(path m.Path) (os.FileInfo, error)

	// Exists reports whether anything exists at path.
	Exists(path m.Path) bool

	// IsDir reports whether path exists and is a directory.
	IsDir(path m.Path) bool

	// MkdirAll creates a directory and all missing parents.
	MkdirAll(path m.Path) error

	// Remove deletes a file or an empty directory.
	Remove(path m.Path) error

	// IsEmptyDir reports whether path is a directory without entries.
	IsEmptyDir(path m.Path) (bool, error)

	// CopyFile copies a single file, preserving its permission bits.
	CopyFile(src, dst m.Path) error

	// FindProjectRoot walks up from startPath looking for a project marker.
	FindProjectRoot(startPath m.Path) (m.Path, error)

	// ReadOnly returns an adapter over the same files that refuses writes.
	ReadOnly() SourceFSAdapter
}

// FilepathWalkFunc mirrors the callback shape used by filepath.Walk. It is
// defined here to avoid leaking the standard-library type directly into the
// domain layer.
type FilepathWalkFunc func(path string, info os.FileInfo, err error) error

// ErrProjectRootNotFound is returned when no marker file exists above a path.
var ErrProjectRootNotFound = errors.New("project root not found")

// LocalSourceFSAdapter implements SourceFSAdapter over an afero filesystem.
type LocalSourceFSAdapter struct {
	fs afero.Fs
}

// NewLocalSourceFSAdapter constructs an adapter backed by the OS filesystem.
func NewLocalSourceFSAdapter() *LocalSourceFSAdapter {
	return NewSourceFSAdapter(afero.NewOsFs())
}

// NewSourceFSAdapter constructs an adapter over any afero filesystem.
func NewSourceFSAdapter(fs afero.Fs) *LocalSourceFSAdapter {
	return &LocalSourceFSAdapter{fs: fs}
}

// Walk iterates over files under root, optionally descending into subdirectories.
func (a *LocalSourceFSAdapter) Walk(root m.Path, recursive bool, fn FilepathWalkFunc) error {
	rootStr := string(root)

	return afero.Walk(a.fs, rootStr, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return fn(path, info, err)
		}

		if info.IsDir() && !recursive && path != rootStr {
			return filepath.SkipDir
		}

		return fn(path, info, nil)
	})
}

// WalkProject visits regular files below root, skipping dependency directories.
func (a *LocalSourceFSAdapter) WalkProject(root m.Path, fn func(path m.Path) error) error {
	err := afero.Walk(a.fs, string(root), func(path string, info os.FileInfo, err error) error {
		if err != nil {
			// Unreadable subtrees are skipped rather than aborting the scan.
			if info != nil && info.IsDir() {
				return filepath.SkipDir
			}

			return nil
		}

		if info.IsDir() {
			if _, skip := skippedDirs[info.Name()]; skip && path != string(root) {
				return filepath.SkipDir
			}

			return nil
		}

		if !info.Mode().IsRegular() {
			return nil
		}

		return fn(m.Path(path))
	})
	if errors.Is(err, filepath.SkipAll) {
		return nil
	}

	return err
}

// Glob expands pattern against the filesystem.
func (a *LocalSourceFSAdapter) Glob(pattern string, recursive bool) ([]m.Path, error) {
	pattern = filepath.ToSlash(pattern)
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid glob pattern %q: %w", pattern, doublestar.ErrBadPattern)
	}

	base, rest := doublestar.SplitPattern(pattern)

	patterns := []string{rest}
	if recursive && !strings.Contains(rest, "**") {
		patterns = append(patterns, "**/"+rest)
	}

	depth := -1
	if len(patterns) == 1 && !strings.Contains(rest, "**") {
		depth = strings.Count(rest, "/")
	}

	baseDir := filepath.FromSlash(base)
	if !a.IsDir(m.Path(baseDir)) {
		return nil, nil
	}

	var matches []m.Path

	err := afero.Walk(a.fs, baseDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if info != nil && info.IsDir() {
				return filepath.SkipDir
			}

			return nil
		}

		rel, relErr := filepath.Rel(baseDir, path)
		if relErr != nil || rel == "." {
			return nil //nolint:nilerr // the base itself never matches
		}

		rel = filepath.ToSlash(rel)
		if matchAny(patterns, rel) {
			matches = append(matches, m.Path(path))
		}

		if info.IsDir() && depth >= 0 && strings.Count(rel, "/") >= depth {
			return filepath.SkipDir
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return matches, nil
}

func matchAny(patterns []string, name string) bool {
	for _, pattern := range patterns {
		if ok, _ := doublestar.Match(pattern, name); ok {
			return true
		}
	}

	return false
}

// ReadFile loads file contents from disk.
func (a *LocalSourceFSAdapter) ReadFile(path m.Path) ([]byte, error) {
	return afero.ReadFile(a.fs, string(path))
}

// WriteFile writes content to a file, creating its parent directory first.
func (a *LocalSourceFSAdapter) WriteFile(path m.Path, content []byte, perm os.FileMode) error {
	if err := a.fs.MkdirAll(filepath.Dir(string(path)), 0o755); err != nil {
		return err
	}

	return afero.WriteFile(a.fs, string(path), content, perm)
}

// FileInfo returns os.FileInfo metadata for the given path.
func (a *LocalSourceFSAdapter) FileInfo(path m.Path) (os.FileInfo, error) {
	return a.fs.Stat(string(path))
}

// Exists reports whether path exists.
func (a *LocalSourceFSAdapter) Exists(path m.Path) bool {
	_, err := a.fs.Stat(string(path))
	return err == nil
}

// IsDir reports whether path is an existing directory.
func (a *LocalSourceFSAdapter) IsDir(path m.Path) bool {
	info, err := a.fs.Stat(string(path))
	return err == nil && info.IsDir()
}

// MkdirAll creates path and any missing parents.
func (a *LocalSourceFSAdapter) MkdirAll(path m.Path) error {
	return a.fs.MkdirAll(string(path), 0o755)
}

// Remove deletes a file or an empty directory.
func (a *LocalSourceFSAdapter) Remove(path m.Path) error {
	return a.fs.Remove(string(path))
}

// IsEmptyDir reports whether path is a directory with no entries.
func (a *LocalSourceFSAdapter) IsEmptyDir(path m.Path) (bool, error) {
	info, err := a.fs.Stat(string(path))
	if err != nil {
		return false, err
	}

	if !info.IsDir() {
		return false, nil
	}

	return afero.IsEmpty(a.fs, string(path))
}

// CopyFile copies a single file.
func (a *LocalSourceFSAdapter) CopyFile(src, dst m.Path) error {
	info, err := a.fs.Stat(string(src))
	if err != nil {
		return err
	}

	sourceFile, err := a.fs.Open(string(src))
	if err != nil {
		return err
	}

	defer func() { _ = sourceFile.Close() }()

	if err := a.fs.MkdirAll(filepath.Dir(string(dst)), 0o755); err != nil {
		return err
	}

	destFile, err := a.fs.OpenFile(string(dst), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}

	if _, err := io.Copy(destFile, sourceFile); err != nil {
		_ = destFile.Close()
		return err
	}

	return destFile.Close()
}

// FindProjectRoot searches for a project marker walking up the directory tree.
func (a *LocalSourceFSAdapter) FindProjectRoot(startPath m.Path) (m.Path, error) {
	dir := string(startPath)
	if !a.IsDir(startPath) {
		dir = filepath.Dir(dir)
	}

	for {
		for _, marker := range ProjectMarkers {
			if a.Exists(m.Path(filepath.Join(dir, marker))) {
				return m.Path(dir), nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("%w above %s", ErrProjectRootNotFound, startPath)
		}

		dir = parent
	}
}

// ReadOnly returns an adapter that rejects every mutation with an error.
func (a *LocalSourceFSAdapter) ReadOnly() SourceFSAdapter {
	return &LocalSourceFSAdapter{fs: afero.NewReadOnlyFs(a.fs)}
}
