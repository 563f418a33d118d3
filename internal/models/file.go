package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// EntryType discriminates the two kinds of directory entries the server
// reports. Consumers switch exhaustively on this, never on raw strings.
type EntryType string

const (
	EntryTypeFile      EntryType = "file"
	EntryTypeDirectory EntryType = "directory"
)

// DirectoryEntry represents one file or directory as reported by a remote
// listing. It is a read-only projection of server state: the client never
// constructs or mutates one, and it is stale the moment any mutating call
// succeeds.
type DirectoryEntry struct {
	Name       string    `json:"name"`
	Path       string    `json:"path"`
	Type       EntryType `json:"type"`
	Size       int64     `json:"size,omitempty"` // files only
	ModifiedAt Timestamp `json:"modified"`
}

// Timestamp is a modification time as servers report it. Some backends emit
// RFC 3339, others a naive ISO-8601 string with no offset; naive values are
// taken as UTC.
type Timestamp struct {
	time.Time
}

// The fractional second in the naive layout is optional, so it covers both
// "15:04:05" and "15:04:05.123456".
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("unrecognized timestamp %q", s)
}

// IsDir reports whether the entry is a directory.
func (e DirectoryEntry) IsDir() bool {
	return e.Type == EntryTypeDirectory
}

// DirectoryListing represents the response from the list endpoint.
// Item ordering is whatever the server returned; the client must not re-sort
// (display layers may sort a copy for presentation only).
type DirectoryListing struct {
	Path       string           `json:"path"`
	Items      []DirectoryEntry `json:"items"`
	TotalItems int              `json:"total_items"`
}
