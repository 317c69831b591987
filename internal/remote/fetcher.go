package remote

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/tasksync/internal/task"
)

// Fetcher retrieves the full remote task list.
type Fetcher interface {
	Fetch(ctx context.Context) ([]task.RemoteTask, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context) ([]task.RemoteTask, error)

// Fetch calls f(ctx).
func (f FetcherFunc) Fetch(ctx context.Context) ([]task.RemoteTask, error) {
	return f(ctx)
}

// Kind categorizes fetch failures.
type Kind string

const (
	// KindTransport covers network errors, timeouts and cancellation.
	KindTransport Kind = "transport"

	// KindStatus indicates a non-2xx HTTP response.
	KindStatus Kind = "status"

	// KindDecode indicates a body that is not a valid todo document.
	KindDecode Kind = "decode"
)

// FetchError represents a failed remote fetch. It is never fatal: the local
// store is untouched and the caller may retry or fall back to local data.
type FetchError struct {
	Kind Kind

	// Source identifies what was fetched (URL or file path).
	Source string

	// StatusCode is set for KindStatus.
	StatusCode int

	Err error
}

func (e *FetchError) Error() string {
	switch {
	case e.Kind == KindStatus:
		return fmt.Sprintf("fetch %s: unexpected status %d", e.Source, e.StatusCode)
	case e.Source != "":
		return fmt.Sprintf("fetch %s: %s: %v", e.Source, e.Kind, e.Err)
	default:
		return fmt.Sprintf("fetch: %s: %v", e.Kind, e.Err)
	}
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// IsFetchError reports whether err is or wraps a FetchError.
func IsFetchError(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe)
}

// document is the wire shape of the todo list, shared by both fetchers.
type document struct {
	Todos []task.RemoteTask `json:"todos" yaml:"todos"`
	Total int               `json:"total,omitempty" yaml:"total,omitempty"`
	Skip  int               `json:"skip,omitempty" yaml:"skip,omitempty"`
	Limit int               `json:"limit,omitempty" yaml:"limit,omitempty"`
}

// validate rejects documents without a todos list.
func (d *document) validate() error {
	if d.Todos == nil {
		return errors.New(`missing "todos" list`)
	}
	return nil
}
