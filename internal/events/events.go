// Package events keeps the audit trail of device mutations.
//
// Every delete, wipe, upload, reset and package install appends one record
// to events.jsonl in the state directory, whether it succeeded, failed or
// was cancelled at the confirmation prompt. Recording is best-effort:
// errors go to stderr and are never returned to callers.
package events

import (
	"context"
	"encoding/json"
	"time"
)

// Event types.
const (
	FileDeleted      = "device.file_deleted"
	FolderDeleted    = "device.folder_deleted"
	Wiped            = "device.wiped"
	EntryUploaded    = "sync.entry_uploaded"
	SyncCompleted    = "sync.completed"
	SoftReset        = "device.soft_reset"
	HardReset        = "device.reset"
	PackageInstalled = "package.installed"
	ConfirmReset     = "confirm.reset"
)

// Status values carried in [Event.Status].
const (
	StatusDone      = "done"
	StatusFailed    = "failed"
	StatusCancelled = "cancelled"
)

// Event is one recorded mutation.
type Event struct {
	Seq     uint64          `json:"seq"`
	Type    string          `json:"type"`
	Ts      time.Time       `json:"ts"`
	Actor   string          `json:"actor"`
	Subject string          `json:"subject,omitempty"` // device path or package name
	Status  string          `json:"status,omitempty"`
	Message string          `json:"message,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Recorder records events. Safe for concurrent use.
type Recorder interface {
	Record(e Event)
}

// Provider records events and reads them back.
type Provider interface {
	Recorder
	List(filter Filter) ([]Event, error)
	LatestSeq() (uint64, error)
	// Watch streams events with Seq greater than afterSeq until ctx ends.
	Watch(ctx context.Context, afterSeq uint64) (Watcher, error)
}

// Watcher yields events as they are recorded.
type Watcher interface {
	Next() (Event, error)
	Close() error
}

// Discard drops every event.
var Discard Recorder = discardRecorder{}

type discardRecorder struct{}

func (discardRecorder) Record(Event) {}
