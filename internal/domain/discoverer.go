// Package domain holds the move engine: discovery, planning, tier selection,
// scope construction, execution and cleanup.
package domain

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"refmove.dev/pkg/refmove/internal/adapter"
	m "refmove.dev/pkg/refmove/internal/model"
)

// ErrNoFilesMatched is returned when discovery yields no file to move.
var ErrNoFilesMatched = errors.New("no files matched the given sources")

// DiscoverArgs are the inputs of a discovery pass.
type DiscoverArgs struct {
	WorkingDir m.WorkingDirectory
	Sources    []string
	Extensions []string
	Recursive  bool
}

// Discovery is the deduplicated result of expanding every source input.
type Discovery struct {
	Entries  []m.FileEntry
	Warnings []m.Warning
}

// Files returns the number of non-directory entries.
func (d Discovery) Files() int {
	return m.CountFiles(d.Entries)
}

// Discoverer expands user inputs into file entries.
type Discoverer interface {
	Discover(args DiscoverArgs) (Discovery, error)
}

type discoverer struct {
	fs adapter.SourceFSAdapter
}

// NewDiscoverer constructs a Discoverer reading through fs.
func NewDiscoverer(fs adapter.SourceFSAdapter) Discoverer {
	return &discoverer{fs: fs}
}

// Discover treats each input as a directory, a file, or else a glob pattern
// relative to the working directory. Entries are deduplicated by path.
func (d *discoverer) Discover(args DiscoverArgs) (Discovery, error) {
	var (
		result Discovery
		seen   = make(map[m.Path]struct{})
	)

	add := func(entry m.FileEntry) {
		if _, dup := seen[entry.Path]; dup {
			return
		}

		seen[entry.Path] = struct{}{}
		result.Entries = append(result.Entries, entry)
	}

	skip := func(path m.Path, msg string) {
		slog.Warn("Skipping input", "path", path, "reason", msg)
		result.Warnings = append(result.Warnings, m.Warning{Kind: m.WarnSkippedInput, Path: path, Message: msg})
	}

	for _, raw := range args.Sources {
		path := args.WorkingDir.Resolve(raw)

		info, err := d.fs.FileInfo(path)

		switch {
		case err == nil && info.IsDir():
			if err := d.sweep(path, args.Extensions, add); err != nil {
				skip(path, fmt.Sprintf("cannot read directory: %v", err))
			}
		case err == nil:
			if !m.HasExtension(path, args.Extensions) {
				skip(path, fmt.Sprintf("extension not in %v", args.Extensions))
				continue
			}

			add(m.FileEntry{Path: path})
		default:
			d.glob(string(path), args, add, skip)
		}
	}

	if result.Files() == 0 {
		return result, fmt.Errorf("%w: %v", ErrNoFilesMatched, args.Sources)
	}

	slog.Debug("Discovered entries", "entries", len(result.Entries), "files", result.Files())

	return result, nil
}

// sweep records root and every matching file below it, dotfiles included.
func (d *discoverer) sweep(root m.Path, extensions []string, add func(m.FileEntry)) error {
	add(m.FileEntry{Path: root, IsDirectory: true, SourceRoot: root})

	return d.fs.Walk(root, true, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			slog.Warn("Unreadable path during sweep", "root", root, "path", path, "error", err)

			if info != nil && info.IsDir() {
				return filepath.SkipDir
			}

			return nil
		}

		if info.IsDir() || !m.HasExtension(m.Path(path), extensions) {
			return nil
		}

		rel, err := filepath.Rel(string(root), path)
		if err != nil {
			return err
		}

		add(m.FileEntry{Path: m.Path(path), SourceRoot: root, RelPathFromRoot: m.Path(rel)})

		return nil
	})
}

func (d *discoverer) glob(pattern string, args DiscoverArgs, add func(m.FileEntry), skip func(m.Path, string)) {
	matches, err := d.fs.Glob(pattern, args.Recursive)
	if err != nil {
		skip(m.Path(pattern), err.Error())
		return
	}

	if len(matches) == 0 {
		slog.Info("Pattern matched nothing", "pattern", pattern)
	}

	for _, match := range matches {
		if d.fs.IsDir(match) || !m.HasExtension(match, args.Extensions) {
			continue
		}

		add(m.FileEntry{Path: match})
	}
}
