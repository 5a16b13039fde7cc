// Package controller renders move runs on the console.
package controller

import (
	"context"
	"os"

	"golang.org/x/term"

	m "refmove.dev/pkg/refmove/internal/model"
)

// StartOption is a functional option for Start method.
type StartOption func(*StartConfig)

// StartConfig holds configuration for starting the UI.
type StartConfig struct {
	total int
}

// WithProgress announces the number of files the run will process so the UI
// can show a progress bar.
func WithProgress(total int) StartOption {
	return func(c *StartConfig) {
		c.total = total
	}
}

// UI displays the stages of a move run. Implementations decide how much to
// show: warnings only surface in verbose mode.
type UI interface {
	Start(ctx context.Context, options ...StartOption) error
	Close(ctx context.Context)
	DisplayPlan(ctx context.Context, plan m.MovePlan) error
	DisplayStrategy(ctx context.Context, strategy m.Strategy, files int)
	DisplayProgress(ctx context.Context, done int)
	DisplayWarning(ctx context.Context, warning m.Warning)
	DisplayChanges(ctx context.Context, changes []m.FileChange)
	DisplaySummary(ctx context.Context, report m.RunReport)
}

// IsTTY reports whether f is attached to a terminal.
func IsTTY(f *os.File) bool {
	return f != nil && term.IsTerminal(int(f.Fd()))
}
