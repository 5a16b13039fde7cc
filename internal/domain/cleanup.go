package domain

import (
	"errors"
	"log/slog"
	"os"
	"sort"

	"refmove.dev/pkg/refmove/internal/adapter"
	m "refmove.dev/pkg/refmove/internal/model"
	"refmove.dev/pkg/refmove/pkg"
)

// SweepResult reports what the cleanup pass removed.
type SweepResult struct {
	Removed  []m.Path
	Warnings []m.Warning
}

// Sweeper removes directories a run left empty.
type Sweeper interface {
	// Sweep considers every sweep root and the parent chain of every moved
	// source. Protected paths and their ancestors are never removed.
	Sweep(roots []m.Path, moved pkg.FileSpill[m.MoveMapping], protected []m.Path) SweepResult
}

type sweeper struct {
	fs adapter.SourceFSAdapter
}

// NewSweeper constructs a Sweeper.
func NewSweeper(fs adapter.SourceFSAdapter) Sweeper {
	return &sweeper{fs: fs}
}

func (s *sweeper) Sweep(roots []m.Path, moved pkg.FileSpill[m.MoveMapping], protected []m.Path) SweepResult {
	var result SweepResult

	candidates := make(map[m.Path]struct{})

	addChain := func(dir m.Path) {
		for {
			parent := dir.Dir()
			if parent == dir {
				return // filesystem root
			}

			if _, seen := candidates[dir]; seen {
				return
			}

			candidates[dir] = struct{}{}
			dir = parent
		}
	}

	for _, root := range roots {
		addChain(root)
	}

	if moved != nil {
		err := moved.Range(func(mapping m.MoveMapping) error {
			addChain(mapping.Source.Dir())
			return nil
		})
		if err != nil {
			slog.Warn("Cannot read move ledger", "error", err)
			result.Warnings = append(result.Warnings, m.Warning{Kind: m.WarnCleanup, Message: err.Error()})
		}
	}

	ordered := make([]m.Path, 0, len(candidates))

	for dir := range candidates {
		if isProtected(dir, protected) {
			continue
		}

		ordered = append(ordered, dir)
	}

	// deepest first
	sort.Slice(ordered, func(i, j int) bool {
		if len(ordered[i]) != len(ordered[j]) {
			return len(ordered[i]) > len(ordered[j])
		}

		return ordered[i] < ordered[j]
	})

	for _, dir := range ordered {
		empty, err := s.fs.IsEmptyDir(dir)
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				slog.Debug("Cannot inspect directory", "path", dir, "error", err)
			}

			continue
		}

		if !empty {
			continue
		}

		if err := s.fs.Remove(dir); err != nil {
			slog.Warn("Cannot remove empty directory", "path", dir, "error", err)
			result.Warnings = append(result.Warnings, m.Warning{Kind: m.WarnCleanup, Path: dir, Message: err.Error()})

			continue
		}

		slog.Debug("Removed empty directory", "path", dir)
		result.Removed = append(result.Removed, dir)
	}

	return result
}

// isProtected reports whether dir is a protected path or one of its ancestors.
func isProtected(dir m.Path, protected []m.Path) bool {
	for _, p := range protected {
		if p != "" && m.WorkingDirectory(dir).Contains(p) {
			return true
		}
	}

	return false
}
