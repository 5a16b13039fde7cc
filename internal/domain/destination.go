package domain

import (
	"os"
	"strings"

	"refmove.dev/pkg/refmove/internal/adapter"
	m "refmove.dev/pkg/refmove/internal/model"
)

// ComputeDestination returns where entry ends up when moved to destination.
//
// Swept entries keep their path relative to the sweep root. When the root's
// basename equals the destination's, the contents merge into destination;
// otherwise the root directory itself is nested under it. Bare files go into
// destination when it is a directory and are renamed to it otherwise.
func ComputeDestination(entry m.FileEntry, destination m.Path, destinationIsDirectory bool) m.Path {
	if entry.FromSweep() {
		target := destination
		if entry.SourceRoot.Base() != destination.Base() {
			target = destination.Join(entry.SourceRoot.Base())
		}

		if entry.RelPathFromRoot == "" {
			return target
		}

		return target.Join(string(entry.RelPathFromRoot))
	}

	if destinationIsDirectory {
		return destination.Join(entry.Path.Base())
	}

	return destination
}

// IsDirectoryDestination decides whether bare files are moved into destination
// or renamed to it: it is a directory when it exists as one, when the user
// spelled it with a trailing separator, or when several files are moved.
func IsDirectoryDestination(fs adapter.SourceFSAdapter, raw string, destination m.Path, files int) bool {
	if fs.IsDir(destination) {
		return true
	}

	if strings.HasSuffix(raw, "/") || strings.HasSuffix(raw, string(os.PathSeparator)) {
		return true
	}

	return files > 1
}

// BuildPlan computes every mapping of a run once. Dry runs and all tiers
// consume the same plan.
func BuildPlan(entries []m.FileEntry, destination m.Path, destinationIsDirectory bool) m.MovePlan {
	plan := m.MovePlan{
		Destination:            destination,
		DestinationIsDirectory: destinationIsDirectory,
	}

	for _, entry := range entries {
		target := ComputeDestination(entry, destination, destinationIsDirectory)

		if entry.IsDirectory {
			if entry.FromSweep() {
				plan.SweepRoots = append(plan.SweepRoots, entry.SourceRoot)
				plan.Directories = append(plan.Directories, m.DirectoryTarget{SourceRoot: entry.SourceRoot, Destination: target})
			}

			continue
		}

		plan.Mappings = append(plan.Mappings, m.MoveMapping{Source: entry.Path, Destination: target})
	}

	return plan
}
