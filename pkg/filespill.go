// Package pkg provides utilities shared by refmove commands.
package pkg

import (
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// DefaultSpillDir is used when NewFileSpill is given no directory.
var DefaultSpillDir = filepath.Join(os.TempDir(), "refmove-spill")

// ErrSpillClosed is returned when appending to a closed or removed spill.
var ErrSpillClosed = errors.New("filespill is closed")

// FileSpill keeps the records of a long run on disk, one gob frame per
// appended batch, so memory stays flat however many batches a run has.
type FileSpill[T any] interface {
	Path() string
	// AppendBatch writes items as one frame. Empty batches are not written.
	AppendBatch(items []T) error
	// Range calls fn for every record in append order and stops at the
	// first error fn returns.
	Range(fn func(item T) error) error
	Close() error
	// Remove closes the spill and deletes its backing file.
	Remove() error
}

type fileSpill[T any] struct {
	mu      sync.Mutex
	path    string
	file    *os.File
	encoder *gob.Encoder
	frames  int
}

// NewFileSpill creates a spill file for records of type T inside dir, or
// DefaultSpillDir when dir is empty.
func NewFileSpill[T any](dir string) (FileSpill[T], error) {
	if dir == "" {
		dir = DefaultSpillDir
	}

	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create spill directory %s: %w", dir, err)
	}

	file, err := os.CreateTemp(dir, "ledger-*.gob")
	if err != nil {
		return nil, fmt.Errorf("create spill file in %s: %w", dir, err)
	}

	slog.Debug("Created filespill", "path", file.Name())

	return &fileSpill[T]{
		path:    file.Name(),
		file:    file,
		encoder: gob.NewEncoder(file),
	}, nil
}

func (s *fileSpill[T]) Path() string {
	return s.path
}

func (s *fileSpill[T]) AppendBatch(items []T) error {
	if len(items) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.encoder == nil {
		return fmt.Errorf("append to %s: %w", s.path, ErrSpillClosed)
	}

	if err := s.encoder.Encode(items); err != nil {
		return fmt.Errorf("encode frame %d: %w", s.frames, err)
	}

	s.frames++
	slog.Debug("Appended frame", "path", s.path, "frame", s.frames, "records", len(items))

	return nil
}

func (s *fileSpill[T]) Range(fn func(item T) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.Open(s.path)
	if err != nil {
		return fmt.Errorf("open spill: %w", err)
	}
	defer file.Close()

	decoder := gob.NewDecoder(file)

	for frame := 0; frame < s.frames; frame++ {
		var items []T
		if err := decoder.Decode(&items); err != nil {
			if errors.Is(err, io.EOF) {
				return fmt.Errorf("spill %s truncated at frame %d", s.path, frame)
			}

			return fmt.Errorf("decode frame %d: %w", frame, err)
		}

		for _, item := range items {
			if err := fn(item); err != nil {
				return err
			}
		}
	}

	return nil
}

func (s *fileSpill[T]) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.closeLocked()
}

func (s *fileSpill[T]) closeLocked() error {
	if s.file == nil {
		return nil
	}

	err := s.file.Close()
	s.file, s.encoder = nil, nil

	if err != nil {
		return fmt.Errorf("close spill: %w", err)
	}

	return nil
}

func (s *fileSpill[T]) Remove() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.closeLocked(); err != nil {
		return err
	}

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove spill: %w", err)
	}

	s.frames = 0

	return nil
}
