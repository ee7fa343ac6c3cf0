package model

import (
	"path"
	"strings"
)

// UploadPrefix marks targets that point at a stored file artifact
// rather than an external URL.
const UploadPrefix = "/uploads/"

// Entry represents a single code-to-target mapping
type Entry struct {
	Code      string `json:"code"`       // short identifier, primary key
	Target    string `json:"target"`     // redirect URL or /uploads/<name> reference
	CreatedAt int64  `json:"created_at"` // unix seconds, set at creation
	Hits      uint64 `json:"hits"`       // successful lookups since creation
}

// IsFileTarget reports whether the entry points at an uploaded file artifact.
func (e *Entry) IsFileTarget() bool {
	return strings.HasPrefix(e.Target, UploadPrefix)
}

// FileName returns the stored artifact name for a file-backed entry,
// or "" for URL-backed entries.
func (e *Entry) FileName() string {
	if !e.IsFileTarget() {
		return ""
	}
	// path.Base guards against targets smuggling separators.
	return path.Base(strings.TrimPrefix(e.Target, UploadPrefix))
}

// CreateEntryRequest is the input to create a mapping
type CreateEntryRequest struct {
	URL  string `json:"url,omitempty"`  // external target URL
	Code string `json:"code,omitempty"` // optional caller-supplied code
}

// CreateEntryResponse is returned after a successful creation
type CreateEntryResponse struct {
	ShortURL    string `json:"short_url"`  // full shortened URL
	Code        string `json:"code"`       // the code backing it
	Target      string `json:"target"`     // what the code resolves to
	SecondsLeft int64  `json:"expires_in"` // TTL remaining at creation time
}

// Metadata is the JSON shape served by the metadata API
type Metadata struct {
	Target    string `json:"target"`
	CreatedAt int64  `json:"created_at"`
	ExpiresIn int64  `json:"expires_in"`
	Hits      uint64 `json:"hits"`
}
