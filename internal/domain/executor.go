package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"refmove.dev/pkg/refmove/internal/adapter"
	m "refmove.dev/pkg/refmove/internal/model"
)

// ExecuteOptions are fixed for a run.
type ExecuteOptions struct {
	Force bool
	// Fallback moves a file on disk without rewriting references when the
	// project model cannot move it.
	Fallback bool
	// OnSaved receives every batch of persisted changes.
	OnSaved func(adapter.SaveResult)
}

// BatchResult is the outcome of executing one scope.
type BatchResult struct {
	// Moved lists mappings whose file now lives at its destination.
	Moved           []m.MoveMapping
	Skipped         int
	Fallbacks       int
	ReferencesFixed int
	Warnings        []m.Warning
}

func (r *BatchResult) warn(kind m.WarningKind, path m.Path, msg string) {
	slog.Warn("Move warning", "kind", kind, "path", path, "message", msg)
	r.Warnings = append(r.Warnings, m.Warning{Kind: kind, Path: path, Message: msg})
}

// Executor applies a batch of mappings to a scope and persists the result.
type Executor interface {
	Execute(ctx context.Context, scope *Scope, mappings []m.MoveMapping) BatchResult
}

type executor struct {
	fs   adapter.SourceFSAdapter
	opts ExecuteOptions
}

// NewExecutor constructs an Executor.
func NewExecutor(fs adapter.SourceFSAdapter, opts ExecuteOptions) Executor {
	return &executor{fs: fs, opts: opts}
}

// Execute moves each mapping in order, then saves the scope once. A failure
// on one file never stops the others.
func (e *executor) Execute(ctx context.Context, scope *Scope, mappings []m.MoveMapping) BatchResult {
	var (
		result  BatchResult
		pending []m.MoveMapping
	)

	for _, mapping := range mappings {
		if mapping.Source == mapping.Destination {
			slog.Debug("Source already at destination", "path", mapping.Source)
			continue
		}

		if !scope.Has(mapping.Source) {
			result.Skipped++
			result.warn(m.WarnNotInScope, mapping.Source, "file is not loaded in the project, skipped")

			continue
		}

		if err := e.fs.MkdirAll(mapping.Destination.Dir()); err != nil {
			result.Skipped++
			result.warn(m.WarnMoveFailed, mapping.Source,
				fmt.Sprintf("cannot create %s: %v", mapping.Destination.Dir(), err))

			continue
		}

		moved, err := scope.Project.Move(ctx, mapping.Source, mapping.Destination, adapter.MoveOptions{Overwrite: e.opts.Force})
		if err == nil {
			slog.Debug("Moved file", "from", mapping.Source, "to", mapping.Destination, "referencers", len(moved.Referencers))

			pending = append(pending, mapping)

			continue
		}

		switch {
		case errors.Is(err, adapter.ErrFileNotInProject):
			result.Skipped++
			result.warn(m.WarnNotInScope, mapping.Source, err.Error())
		case e.opts.Fallback:
			if e.fallback(mapping, err, &result) {
				pending = append(pending, mapping)
			}
		default:
			result.Skipped++
			result.warn(m.WarnMoveFailed, mapping.Source, err.Error())
		}
	}

	saved, err := scope.Project.Save(ctx)
	if err != nil {
		result.warn(m.WarnPersist, "", err.Error())
	}

	result.ReferencesFixed += saved.ReferencesUpdated
	result.Moved = append(result.Moved, pending...)

	if e.opts.OnSaved != nil && len(saved.Changes) > 0 {
		e.opts.OnSaved(saved)
	}

	return result
}

// fallback copies the file to its destination and deletes the original,
// leaving every reference to it untouched.
func (e *executor) fallback(mapping m.MoveMapping, cause error, result *BatchResult) bool {
	if e.fs.Exists(mapping.Destination) && !e.opts.Force {
		result.Skipped++
		result.warn(m.WarnMoveFailed, mapping.Source,
			fmt.Sprintf("%v; fallback refused, %s exists", cause, mapping.Destination))

		return false
	}

	if err := e.fs.CopyFile(mapping.Source, mapping.Destination); err != nil {
		result.Skipped++
		result.warn(m.WarnMoveFailed, mapping.Source, fmt.Sprintf("%v; fallback copy failed: %v", cause, err))

		return false
	}

	if err := e.fs.Remove(mapping.Source); err != nil {
		result.warn(m.WarnFallback, mapping.Source,
			fmt.Sprintf("copied to %s but original could not be removed: %v", mapping.Destination, err))
	}

	result.Fallbacks++
	result.warn(m.WarnFallback, mapping.Source,
		fmt.Sprintf("moved to %s without updating references: %v", mapping.Destination, cause))

	return true
}
