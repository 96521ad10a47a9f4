// Package storage defines the recording library: named raw recordings kept
// for later sessions. Only recording bytes are stored, never snapshots.
package storage

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound indicates a requested recording is missing.
	ErrNotFound = errors.New("recording not found")
	// ErrAlreadyExists indicates a recording with the same name is stored.
	ErrAlreadyExists = errors.New("recording already exists")
)

// Recording is one stored recording. Listings leave Data nil.
type Recording struct {
	Name      string
	Data      []byte
	Size      int64
	CreatedAt time.Time
}

// RecordingPage is one page of a listing ordered by name.
type RecordingPage struct {
	Recordings    []Recording
	NextPageToken string
}

// RecordingStore persists recordings by name.
type RecordingStore interface {
	Put(ctx context.Context, rec Recording) error
	Get(ctx context.Context, name string) (Recording, error)
	List(ctx context.Context, pageSize int, pageToken string) (RecordingPage, error)
	Delete(ctx context.Context, name string) error
}
