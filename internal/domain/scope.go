package domain

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"refmove.dev/pkg/refmove/internal/adapter"
	m "refmove.dev/pkg/refmove/internal/model"
)

// Scope is one project instance loaded for a batch of seeds. It owns the
// project and must be closed once the batch is persisted.
type Scope struct {
	Project     adapter.Project
	Seeds       []m.Path
	Referencers []m.Path
	Warnings    []m.Warning

	loaded map[m.Path]struct{}
}

// Has reports whether path was loaded into the scope.
func (s *Scope) Has(path m.Path) bool {
	_, ok := s.loaded[path]
	return ok
}

// Close tears the project down.
func (s *Scope) Close() error {
	if s.Project == nil {
		return nil
	}

	err := s.Project.Close()
	s.Project = nil
	s.loaded = nil

	return err
}

func (s *Scope) warn(path m.Path, err error) {
	slog.Warn("Excluding file from scope", "path", path, "error", err)
	s.Warnings = append(s.Warnings, m.Warning{Kind: m.WarnScopeLoad, Path: path, Message: err.Error()})
}

// ScopeConfig is fixed for a run.
type ScopeConfig struct {
	Root         m.Path
	Extensions   []string
	DebugImports bool
}

// ScopeBuilder opens the smallest project that still contains every file a
// tier considers a possible referencer of the seeds.
type ScopeBuilder interface {
	Build(ctx context.Context, tier m.Tier, seeds []m.Path) (*Scope, error)
}

type scopeBuilder struct {
	fs      adapter.SourceFSAdapter
	factory adapter.ProjectFactory
	cfg     ScopeConfig
}

// NewScopeBuilder constructs a ScopeBuilder.
func NewScopeBuilder(fs adapter.SourceFSAdapter, factory adapter.ProjectFactory, cfg ScopeConfig) ScopeBuilder {
	return &scopeBuilder{fs: fs, factory: factory, cfg: cfg}
}

// Build opens a fresh project for seeds. Files that fail to load are
// excluded with a warning; only a failure to open the project is an error.
func (b *scopeBuilder) Build(ctx context.Context, tier m.Tier, seeds []m.Path) (*Scope, error) {
	opts := adapter.ProjectOptions{
		Root:         b.cfg.Root,
		Extensions:   b.cfg.Extensions,
		DebugImports: b.cfg.DebugImports,
	}

	switch {
	case tier.LoadsWholeProject():
		opts.LoadAll = true
	case !tier.UsesTextualScan():
		opts.IndexReferences = true
	}

	project, err := b.factory.Open(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("open project for %s scope: %w", tier.Strategy, err)
	}

	scope := &Scope{Project: project, loaded: make(map[m.Path]struct{})}

	for _, seed := range seeds {
		if err := scope.add(ctx, seed); err != nil {
			scope.warn(seed, err)
			continue
		}

		scope.Seeds = append(scope.Seeds, seed)
	}

	var candidates []m.Path

	switch {
	case tier.LoadsWholeProject():
		// the project resolves its own dependencies
	case tier.UsesTextualScan():
		candidates = b.textualCandidates(seeds, tier)
	default:
		candidates = b.referencingCandidates(ctx, scope, seeds, tier)
	}

	for _, path := range candidates {
		if err := scope.add(ctx, path); err != nil {
			scope.warn(path, err)
			continue
		}

		scope.Referencers = append(scope.Referencers, path)
	}

	slog.Debug("Built scope",
		"strategy", tier.Strategy,
		"seeds", len(scope.Seeds),
		"referencers", len(scope.Referencers),
		"loaded", len(project.Files()))

	return scope, nil
}

func (s *Scope) add(ctx context.Context, path m.Path) error {
	if err := s.Project.AddFile(ctx, path); err != nil {
		return err
	}

	s.loaded[path] = struct{}{}

	return nil
}

// referencingCandidates asks the project which files import any seed,
// excluding the seeds themselves, truncated to the tier's cap.
func (b *scopeBuilder) referencingCandidates(ctx context.Context, scope *Scope, seeds []m.Path, tier m.Tier) []m.Path {
	excluded := make(map[m.Path]struct{}, len(seeds))
	for _, seed := range seeds {
		excluded[seed] = struct{}{}
	}

	var candidates []m.Path

	for _, seed := range scope.Seeds {
		refs, err := scope.Project.ReferencingFiles(ctx, seed)
		if err != nil {
			slog.Warn("Cannot list referencing files", "seed", seed, "error", err)
			continue
		}

		for _, ref := range refs {
			if _, skip := excluded[ref]; skip {
				continue
			}

			excluded[ref] = struct{}{}
			candidates = append(candidates, ref)
		}
	}

	if tier.ReferenceCap > 0 && len(candidates) > tier.ReferenceCap {
		slog.Info("Referencing files truncated to cap",
			"strategy", tier.Strategy, "found", len(candidates), "cap", tier.ReferenceCap)

		candidates = candidates[:tier.ReferenceCap]
	}

	return candidates
}

// textualCandidates scans the first ScanLimit source files under the project
// root for the seed's basename and keeps up to MatchLimit hits. It never
// consults the project model.
func (b *scopeBuilder) textualCandidates(seeds []m.Path, tier m.Tier) []m.Path {
	excluded := make(map[m.Path]struct{}, len(seeds))
	needles := make([][]byte, 0, len(seeds))

	for _, seed := range seeds {
		excluded[seed] = struct{}{}
		needles = append(needles, []byte(stem(seed)))
	}

	var (
		candidates []m.Path
		scanned    int
	)

	err := b.fs.WalkProject(b.cfg.Root, func(path m.Path) error {
		if !m.HasExtension(path, b.cfg.Extensions) {
			return nil
		}

		if tier.ScanLimit > 0 && scanned >= tier.ScanLimit {
			return filepath.SkipAll
		}

		scanned++

		if _, skip := excluded[path]; skip {
			return nil
		}

		content, err := b.fs.ReadFile(path)
		if err != nil {
			slog.Debug("Skipping unreadable file in textual scan", "path", path, "error", err)
			return nil
		}

		for _, needle := range needles {
			if bytes.Contains(content, needle) {
				candidates = append(candidates, path)
				break
			}
		}

		if tier.MatchLimit > 0 && len(candidates) >= tier.MatchLimit {
			return filepath.SkipAll
		}

		return nil
	})
	if err != nil && !errors.Is(err, filepath.SkipAll) {
		slog.Warn("Textual scan aborted", "root", b.cfg.Root, "error", err)
	}

	slog.Debug("Textual scan", "scanned", scanned, "matches", len(candidates))

	return candidates
}

// stem is the basename without its final extension.
func stem(path m.Path) string {
	base := path.Base()
	return strings.TrimSuffix(base, filepath.Ext(base))
}
