package model

// WarningKind classifies a non-fatal condition raised during a run.
type WarningKind string

const (
	// WarnSkippedInput is an input that could not be used (bad extension, unreadable).
	WarnSkippedInput WarningKind = "skipped-input"
	// WarnScopeLoad is a file that could not be added to a scope.
	WarnScopeLoad WarningKind = "scope-load"
	// WarnNotInScope is a seed the project model could not locate at move time.
	WarnNotInScope WarningKind = "not-in-scope"
	// WarnMoveFailed is a move the project model rejected.
	WarnMoveFailed WarningKind = "move-failed"
	// WarnFallback is a raw filesystem move performed without reference rewriting.
	WarnFallback WarningKind = "fallback"
	// WarnCycle is an advisory import cycle through a moved file.
	WarnCycle WarningKind = "cycle"
	// WarnCleanup is a directory the sweeper could not inspect or remove.
	WarnCleanup WarningKind = "cleanup"
	// WarnPersist is a failure writing a scope's pending edits.
	WarnPersist WarningKind = "persist"
)

// Warning is a recoverable or advisory condition.
type Warning struct {
	Kind    WarningKind `yaml:"kind"`
	Path    Path        `yaml:"path,omitempty"`
	Message string      `yaml:"message"`
}

// RunReport summarises a run for the console and the optional YAML report.
type RunReport struct {
	RunID            string        `yaml:"run_id"`
	DryRun           bool          `yaml:"dry_run"`
	Strategy         string        `yaml:"strategy,omitempty"`
	FilesDiscovered  int           `yaml:"files_discovered"`
	FilesMoved       int           `yaml:"files_moved"`
	FilesSkipped     int           `yaml:"files_skipped"`
	FallbackMoves    int           `yaml:"fallback_moves"`
	ReferencesFixed  int           `yaml:"files_with_rewritten_references"`
	DirectoriesSwept int           `yaml:"directories_removed"`
	Mappings         []MoveMapping `yaml:"mappings,omitempty"`
	Warnings         []Warning     `yaml:"warnings,omitempty"`
}

// Warn appends a warning to the report.
func (r *RunReport) Warn(kind WarningKind, path Path, message string) Warning {
	w := Warning{Kind: kind, Path: path, Message: message}
	r.Warnings = append(r.Warnings, w)

	return w
}
