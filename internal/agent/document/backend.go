package document

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrNotFound is returned when the input path does not reference an existing regular file.
var ErrNotFound = errors.New("document not found")

// Backend extracts text, per-page text and metadata from a document on disk.
//
// Internal failures are reported through a degraded Result. The returned error is only
// non-nil for a missing input file (ErrNotFound) or a cancelled context.
type Backend interface {
	Name() string
	ExtractText(ctx context.Context, path string) (Result[string], error)
	ExtractPages(ctx context.Context, path string) (Result[[]string], error)
	ExtractMetadata(ctx context.Context, path string) (Result[map[string]any], error)
}

// Status of a backend call.
type Status string

const (
	StatusOK       Status = "ok"
	StatusDegraded Status = "degraded"
)

// Result carries a backend value together with how it was obtained. A degraded result
// holds the zero value of T (empty, never nil for slices and maps) and the swallowed cause.
type Result[T any] struct {
	Value  T
	Status Status
	Err    error
}

func OK[T any](v T) Result[T] {
	return Result[T]{Value: v, Status: StatusOK}
}

func Degraded[T any](empty T, err error) Result[T] {
	return Result[T]{Value: empty, Status: StatusDegraded, Err: err}
}

func (r Result[T]) Degraded() bool {
	return r.Status == StatusDegraded
}

// ErrMessage returns the cause of a degraded result, or "".
func (r Result[T]) ErrMessage() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// CheckPath returns ErrNotFound unless path is an existing regular file.
func CheckPath(path string) error {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	return nil
}

// JoinPages builds the full text of a document: every non-empty page followed by a blank
// line, with the whole result trimmed.
func JoinPages(pages []string) string {
	var sb strings.Builder
	for _, p := range pages {
		if p == "" {
			continue
		}
		sb.WriteString(p)
		sb.WriteString("\n\n")
	}
	return strings.TrimSpace(sb.String())
}

// Recover converts a panic into an error. Use as `defer document.Recover(&err)`.
func Recover(err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("panic: %v", r)
	}
}
