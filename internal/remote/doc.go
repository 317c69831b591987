// Package remote retrieves the authoritative remote task list.
//
// A Fetcher returns the complete list or fails with a *FetchError; there is
// no pagination and no authentication. Two implementations are provided:
//
//   - HTTPFetcher: GET against a dummyjson-style /todos endpoint
//   - FileFetcher: the same document read from a YAML or JSON file
//
// Fetchers never touch local state. A failed fetch leaves it to the caller to
// fall back to whatever the local store already holds.
package remote
