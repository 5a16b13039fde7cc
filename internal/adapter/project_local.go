package adapter

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	m "refmove.dev/pkg/refmove/internal/model"
)

// LocalProjectFactory opens projects backed by a SourceFSAdapter and a private
// in-memory reference index.
type LocalProjectFactory struct {
	fs SourceFSAdapter
}

// NewLocalProjectFactory constructs a LocalProjectFactory.
func NewLocalProjectFactory(fs SourceFSAdapter) *LocalProjectFactory {
	return &LocalProjectFactory{fs: fs}
}

// Open creates a new, independent project.
func (f *LocalProjectFactory) Open(ctx context.Context, opts ProjectOptions) (Project, error) {
	db, err := openIndex(ctx)
	if err != nil {
		return nil, err
	}

	p := &localProject{
		fs:      f.fs,
		opts:    opts,
		db:      db,
		files:   make(map[m.Path]*sourceFile),
		removed: make(map[m.Path]struct{}),
	}

	if opts.LoadAll || opts.IndexReferences {
		if err := p.scanRoot(ctx); err != nil {
			_ = p.Close()
			return nil, err
		}
	}

	return p, nil
}

// sourceFile is a file loaded into a project.
type sourceFile struct {
	path     m.Path // current, possibly not yet persisted, location
	origin   m.Path // location on disk
	content  []byte
	original []byte
	perm     os.FileMode
	dirty    bool
}

type localProject struct {
	fs      SourceFSAdapter
	opts    ProjectOptions
	db      *sql.DB
	files   map[m.Path]*sourceFile
	order   []*sourceFile
	removed map[m.Path]struct{}
	nextOrd int
	closed  bool
}

// readResult is the outcome of reading one file during a bulk scan.
type readResult struct {
	path    m.Path
	content []byte
	perm    os.FileMode
	err     error
}

// scanRoot loads or indexes every source file under the project root.
func (p *localProject) scanRoot(ctx context.Context) error {
	var paths []m.Path

	err := p.fs.WalkProject(p.opts.Root, func(path m.Path) error {
		if m.HasExtension(path, p.opts.Extensions) {
			paths = append(paths, path)
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("scan project root %s: %w", p.opts.Root, err)
	}

	results, err := p.readAll(ctx, paths)
	if err != nil {
		return err
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, res := range results {
		if res.err != nil {
			slog.Warn("Skipping unreadable project file", "path", res.path, "error", res.err)
			continue
		}

		if p.opts.LoadAll {
			if err := p.register(ctx, tx, res); err != nil {
				return err
			}

			continue
		}

		if err := upsertIndexedFile(ctx, tx, res.path, false, p.ord(), p.resolveEdges(res.path, res.content)); err != nil {
			return err
		}
	}

	slog.Debug("Scanned project root", "root", p.opts.Root, "files", len(results), "loaded", p.opts.LoadAll)

	return tx.Commit()
}

// readAll reads files concurrently; results keep the order of paths.
func (p *localProject) readAll(ctx context.Context, paths []m.Path) ([]readResult, error) {
	results := make([]readResult, len(paths))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(runtime.NumCPU())

	for i, path := range paths {
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}

			results[i] = p.readSource(path)

			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}

func (p *localProject) readSource(path m.Path) readResult {
	info, err := p.fs.FileInfo(path)
	if err != nil {
		return readResult{path: path, err: err}
	}

	if info.IsDir() {
		return readResult{path: path, err: fmt.Errorf("%s is a directory: %w", path, ErrUnparsable)}
	}

	content, err := p.fs.ReadFile(path)
	if err != nil {
		return readResult{path: path, err: err}
	}

	if !utf8.Valid(content) {
		return readResult{path: path, err: fmt.Errorf("%s: %w", path, ErrUnparsable)}
	}

	return readResult{path: path, content: content, perm: info.Mode().Perm()}
}

func (p *localProject) ord() int {
	p.nextOrd++
	return p.nextOrd
}

// register adds a read file to the loaded set and the index.
func (p *localProject) register(ctx context.Context, tx *sql.Tx, res readResult) error {
	if _, loaded := p.files[res.path]; loaded {
		return nil
	}

	sf := &sourceFile{
		path:     res.path,
		origin:   res.path,
		content:  res.content,
		original: res.content,
		perm:     res.perm,
	}
	p.files[res.path] = sf
	p.order = append(p.order, sf)

	return upsertIndexedFile(ctx, tx, res.path, true, p.ord(), p.resolveEdges(res.path, res.content))
}

// exists reports whether a regular file is at path in the project's view of
// the tree: loaded files at their new locations, moved-away files gone.
func (p *localProject) exists(path m.Path) bool {
	if _, ok := p.files[path]; ok {
		return true
	}

	if _, gone := p.removed[path]; gone {
		return false
	}

	info, err := p.fs.FileInfo(path)

	return err == nil && !info.IsDir()
}

func (p *localProject) resolve(from m.Path, spec string) (m.Path, bool) {
	target, ok := ResolveSpecifier(from.Dir(), spec, p.opts.Extensions, p.exists)
	if p.opts.DebugImports {
		slog.Debug("Resolved import", "file", from, "specifier", spec, "target", target, "found", ok)
	}

	return target, ok
}

func (p *localProject) resolveEdges(path m.Path, content []byte) []indexEdge {
	var edges []indexEdge

	for _, spec := range ParseImports(content) {
		target, ok := p.resolve(path, spec.Specifier)
		if !ok {
			continue
		}

		edges = append(edges, indexEdge{specifier: spec.Specifier, target: target, line: spec.Line})
	}

	return edges
}

// AddFile loads a single file.
func (p *localProject) AddFile(ctx context.Context, path m.Path) error {
	if p.closed {
		return ErrProjectClosed
	}

	if _, loaded := p.files[path]; loaded {
		return nil
	}

	res := p.readSource(path)
	if res.err != nil {
		return fmt.Errorf("load %s: %w", path, res.err)
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := p.register(ctx, tx, res); err != nil {
		return fmt.Errorf("index %s: %w", path, err)
	}

	return tx.Commit()
}

// ReferencingFiles lists files importing path, in load/index order.
func (p *localProject) ReferencingFiles(ctx context.Context, path m.Path) ([]m.Path, error) {
	if p.closed {
		return nil, ErrProjectClosed
	}

	if _, loaded := p.files[path]; !loaded {
		return nil, fmt.Errorf("%s: %w", path, ErrFileNotInProject)
	}

	return queryPaths(ctx, p.db,
		`SELECT f.path FROM files f
		 WHERE f.path != ? AND EXISTS (
		   SELECT 1 FROM imports i WHERE i.source_path = f.path AND i.target_path = ?)
		 ORDER BY f.ord`,
		string(path), string(path))
}

// Imports lists the resolved local imports of a loaded file.
func (p *localProject) Imports(ctx context.Context, path m.Path) ([]m.Path, error) {
	if p.closed {
		return nil, ErrProjectClosed
	}

	if _, loaded := p.files[path]; !loaded {
		return nil, fmt.Errorf("%s: %w", path, ErrFileNotInProject)
	}

	return queryPaths(ctx, p.db,
		"SELECT DISTINCT target_path FROM imports WHERE source_path = ? ORDER BY id", string(path))
}

// Move relocates a loaded file and rewrites the loaded files affected by it.
func (p *localProject) Move(ctx context.Context, path, newPath m.Path, opts MoveOptions) (MoveResult, error) {
	if p.closed {
		return MoveResult{}, ErrProjectClosed
	}

	sf, loaded := p.files[path]
	if !loaded {
		return MoveResult{}, fmt.Errorf("%s: %w", path, ErrFileNotInProject)
	}

	if path == newPath {
		return MoveResult{}, nil
	}

	if p.exists(newPath) && !opts.Overwrite {
		return MoveResult{}, fmt.Errorf("%s: %w", newPath, ErrDestinationExists)
	}

	referencers, err := queryPaths(ctx, p.db,
		"SELECT DISTINCT source_path FROM imports WHERE target_path = ? AND source_path != ?",
		string(path), string(path))
	if err != nil {
		return MoveResult{}, fmt.Errorf("query referencing files of %s: %w", path, err)
	}

	result := MoveResult{}

	for _, ref := range referencers {
		rf, ok := p.files[ref]
		if !ok {
			continue
		}

		content, rewrites := p.rewrite(rf.content, rf.path, rf.path, func(target m.Path) (m.Path, bool) {
			return newPath, target == path
		})
		if len(rewrites) == 0 {
			continue
		}

		rf.content = content
		rf.dirty = true
		result.Referencers = append(result.Referencers, rf.path)
		result.Rewrites = append(result.Rewrites, rewrites...)
	}

	content, rewrites := p.rewrite(sf.content, path, newPath, func(target m.Path) (m.Path, bool) {
		if target == path {
			return newPath, true
		}

		return target, true
	})
	sf.content = content
	result.Rewrites = append(result.Rewrites, rewrites...)

	if replaced, ok := p.files[newPath]; ok {
		p.unload(replaced)
	}

	delete(p.files, path)
	sf.path = newPath
	sf.dirty = true
	p.files[newPath] = sf
	p.removed[path] = struct{}{}
	delete(p.removed, newPath)

	if err := p.reindexMoved(ctx, path, newPath, sf.content); err != nil {
		return result, fmt.Errorf("reindex %s: %w", newPath, err)
	}

	slog.Debug("Moved file in project", "from", path, "to", newPath, "referencers", len(result.Referencers))

	return result, nil
}

func (p *localProject) reindexMoved(ctx context.Context, oldPath, newPath m.Path, content []byte) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := renameIndexedFile(ctx, tx, oldPath, newPath); err != nil {
		return err
	}

	if err := replaceEdges(ctx, tx, newPath, p.resolveEdges(newPath, content)); err != nil {
		return err
	}

	return tx.Commit()
}

// unload drops a loaded file that is about to be overwritten.
func (p *localProject) unload(sf *sourceFile) {
	delete(p.files, sf.path)

	for i, other := range p.order {
		if other == sf {
			p.order = append(p.order[:i], p.order[i+1:]...)
			break
		}
	}
}

// rewrite replaces the relative specifiers of content whose resolved target
// is accepted by mapTarget. Specifiers are resolved from resolveFrom and
// rewritten relative to writeAt.
func (p *localProject) rewrite(content []byte, resolveFrom, writeAt m.Path, mapTarget func(m.Path) (m.Path, bool)) ([]byte, []ImportRewrite) {
	specs := ParseImports(content)

	var (
		out      bytes.Buffer
		rewrites []ImportRewrite
		last     int
	)

	for _, spec := range specs {
		target, ok := p.resolve(resolveFrom, spec.Specifier)
		if !ok {
			continue
		}

		mapped, rewriteIt := mapTarget(target)
		if !rewriteIt {
			continue
		}

		next := RewriteSpecifier(spec.Specifier, writeAt, mapped)
		if next == spec.Specifier {
			continue
		}

		out.Write(content[last:spec.Start])
		out.WriteString(next)
		last = spec.End

		rewrites = append(rewrites, ImportRewrite{File: writeAt, Line: spec.Line, Before: spec.Specifier, After: next})

		if p.opts.DebugImports {
			slog.Debug("Rewrote import", "file", writeAt, "line", spec.Line, "before", spec.Specifier, "after", next)
		}
	}

	if len(rewrites) == 0 {
		return content, nil
	}

	out.Write(content[last:])

	return out.Bytes(), rewrites
}

// Save writes dirty files and removes the originals of moved files.
func (p *localProject) Save(_ context.Context) (SaveResult, error) {
	if p.closed {
		return SaveResult{}, ErrProjectClosed
	}

	var (
		result SaveResult
		errs   []error
	)

	for _, sf := range p.order {
		if !sf.dirty {
			continue
		}

		if err := p.fs.WriteFile(sf.path, sf.content, sf.perm); err != nil {
			errs = append(errs, fmt.Errorf("write %s: %w", sf.path, err))
			continue
		}

		change := m.FileChange{Path: sf.path, Before: sf.original, After: sf.content}

		if sf.origin != sf.path {
			change.MovedFrom = sf.origin

			if _, reused := p.files[sf.origin]; !reused {
				if err := p.fs.Remove(sf.origin); err != nil && !errors.Is(err, os.ErrNotExist) {
					errs = append(errs, fmt.Errorf("remove %s: %w", sf.origin, err))
				}
			}
		}

		if !bytes.Equal(sf.original, sf.content) {
			result.ReferencesUpdated++
		}

		result.Changes = append(result.Changes, change)

		sf.origin = sf.path
		sf.original = sf.content
		sf.dirty = false
	}

	clear(p.removed)

	return result, errors.Join(errs...)
}

// Files lists the loaded files at their current paths.
func (p *localProject) Files() []m.Path {
	paths := make([]m.Path, 0, len(p.order))
	for _, sf := range p.order {
		paths = append(paths, sf.path)
	}

	return paths
}

// Close releases the index and every loaded file.
func (p *localProject) Close() error {
	if p.closed {
		return nil
	}

	p.closed = true
	p.files = nil
	p.order = nil
	p.removed = nil

	return p.db.Close()
}
