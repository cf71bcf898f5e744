package engine

import (
	"time"
)

// Status is the lifecycle state of a tracked folder. Synced and
// Error are not terminal; the next sync request moves the folder
// back to Syncing.
type Status int

const (
	Pending Status = iota
	Syncing
	Synced
	Error
)

func (s Status) String() string {
	switch s {
	case Syncing:
		return "syncing"
	case Synced:
		return "synced"
	case Error:
		return "error"
	}
	return "pending"
}

// Folder is one tracked local directory and its remote target.
type Folder struct {
	Path    string
	Bucket  string
	Prefix  string
	Enabled bool

	Status        Status
	StatusMessage string
	LastSynced    time.Time
}

// Result is the outcome of one sync invocation. A non-empty Errors
// list alongside non-zero counts means partial failure: callers must
// inspect Errors even on a nil top-level error.
type Result struct {
	Uploaded         int
	Downloaded       int
	Deleted          int
	BytesTransferred int64
	Errors           []string
}
