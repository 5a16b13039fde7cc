package adapter

import (
	"context"
	"errors"

	m "refmove.dev/pkg/refmove/internal/model"
)

var (
	// ErrFileNotInProject is returned when an operation names a file that is
	// not loaded in the project.
	ErrFileNotInProject = errors.New("file not loaded in project")
	// ErrDestinationExists is returned by Move when the target path is taken
	// and overwriting was not requested.
	ErrDestinationExists = errors.New("destination already exists")
	// ErrUnparsable is returned when a file cannot be read as source text.
	ErrUnparsable = errors.New("file is not valid source text")
	// ErrProjectClosed is returned by every call made after Close.
	ErrProjectClosed = errors.New("project closed")
)

// ProjectOptions configure a freshly opened project.
type ProjectOptions struct {
	// Root is the directory project-wide scans start from.
	Root m.Path
	// Extensions are the source extensions considered part of the project.
	Extensions []string
	// LoadAll loads every source file below Root.
	LoadAll bool
	// IndexReferences parses every source file below Root into the reference
	// index without loading it, so ReferencingFiles sees the whole tree.
	IndexReferences bool
	// DebugImports logs every resolved and rewritten specifier.
	DebugImports bool
}

// MoveOptions control a single Move call.
type MoveOptions struct {
	Overwrite bool
}

// ImportRewrite records one specifier change.
type ImportRewrite struct {
	File   m.Path
	Line   int
	Before string
	After  string
}

// MoveResult reports what a Move changed in memory.
type MoveResult struct {
	Referencers []m.Path
	Rewrites    []ImportRewrite
}

// SaveResult reports what Save wrote to disk.
type SaveResult struct {
	Changes []m.FileChange
	// ReferencesUpdated counts files whose import specifiers changed.
	ReferencesUpdated int
}

// Project is a bounded, in-memory model of part of a source tree. A move
// only rewrites imports in files currently loaded into the project.
//
//nolint:interfacebloat // Mirrors the operations the engine needs from a project model.
type Project interface {
	// AddFile loads a file into the project. Loading a file twice is a no-op.
	AddFile(ctx context.Context, path m.Path) error
	// ReferencingFiles lists files, loaded or indexed, importing path.
	ReferencingFiles(ctx context.Context, path m.Path) ([]m.Path, error)
	// Imports lists the resolved local imports of a loaded file.
	Imports(ctx context.Context, path m.Path) ([]m.Path, error)
	// Move relocates a loaded file and rewrites every affected specifier in
	// the loaded files, including the moved file's own imports.
	Move(ctx context.Context, path, newPath m.Path, opts MoveOptions) (MoveResult, error)
	// Save persists pending edits.
	Save(ctx context.Context) (SaveResult, error)
	// Files lists loaded files in load order.
	Files() []m.Path
	// Close releases everything the project holds.
	Close() error
}

// ProjectFactory opens independent project instances.
type ProjectFactory interface {
	Open(ctx context.Context, opts ProjectOptions) (Project, error)
}
