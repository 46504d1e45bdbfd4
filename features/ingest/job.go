package ingest

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Status is the closed set of lifecycle states an ingestion job moves
// through. Pending and Processing are transient; Completed and Failed are
// terminal until an explicit resubmission resets the job to Pending.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Terminal reports whether the status ends a processing attempt.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Job is the durable record of one submitted URL. Exactly one Job exists per
// normalized URL.
type Job struct {
	URL          string    `json:"url"`
	Status       Status    `json:"status"`
	ErrorMessage string    `json:"error_message,omitempty"`
	ChunkCount   int       `json:"chunk_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

var ErrInvalidURL = errors.New("invalid url")

// NormalizeURL canonicalizes a submitted URL so that equivalent spellings
// map to the same job record: scheme and host are lowercased, the fragment
// is dropped, and an empty path becomes "/". The query string is kept
// because distinct query strings identify distinct documents.
func NormalizeURL(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}

	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", fmt.Errorf("%w: unsupported scheme %q", ErrInvalidURL, u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("%w: missing host", ErrInvalidURL)
	}

	u.Scheme = scheme
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	if u.Path == "" {
		u.Path = "/"
	}

	return u.String(), nil
}
