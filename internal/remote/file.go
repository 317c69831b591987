package remote

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/tasksync/internal/task"
)

// FileFetcher reads the todo document from a local file. The file may be
// YAML or JSON (JSON is a subset of YAML), with the same shape the HTTP
// endpoint returns:
//
//	todos:
//	  - id: 1
//	    todo: Buy milk
//	    completed: false
//	    userId: 5
type FileFetcher struct {
	path string
}

// NewFileFetcher creates a fetcher reading path on every call.
func NewFileFetcher(path string) *FileFetcher {
	return &FileFetcher{path: path}
}

// Fetch implements Fetcher.
func (f *FileFetcher) Fetch(ctx context.Context) ([]task.RemoteTask, error) {
	if err := ctx.Err(); err != nil {
		return nil, &FetchError{Kind: KindTransport, Source: f.path, Err: err}
	}

	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, &FetchError{Kind: KindTransport, Source: f.path, Err: err}
	}

	todos, err := DecodeDocument(data)
	if err != nil {
		return nil, &FetchError{Kind: KindDecode, Source: f.path, Err: err}
	}
	return todos, nil
}

// DecodeDocument parses a YAML or JSON todo document. Unknown fields are
// rejected so that typos in fixtures surface immediately.
func DecodeDocument(data []byte) ([]task.RemoteTask, error) {
	var doc document
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}
	if err := doc.validate(); err != nil {
		return nil, err
	}
	return doc.Todos, nil
}
