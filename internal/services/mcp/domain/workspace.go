package domain

import (
	"context"
	"sync"

	apperrors "github.com/louisbranch/demoscope/internal/platform/errors"
	"github.com/louisbranch/demoscope/internal/services/inspector/parser"
	"github.com/louisbranch/demoscope/internal/services/inspector/session"
	"github.com/louisbranch/demoscope/internal/services/inspector/storage"
)

// Workspace holds the single open session shared by every tool call and the
// optional recording library.
type Workspace struct {
	mu       sync.RWMutex
	sess     *session.Session
	source   string
	opener   parser.Opener
	library  storage.RecordingStore
	options  []session.Option
	onChange func(loaded bool)
}

// WorkspaceConfig configures NewWorkspace. Library may be nil.
type WorkspaceConfig struct {
	Opener  parser.Opener
	Library storage.RecordingStore
	// SessionOptions apply to every session the workspace opens.
	SessionOptions []session.Option
	// OnChange is called after a recording is loaded or the workspace closes.
	OnChange func(loaded bool)
}

// NewWorkspace returns an empty workspace.
func NewWorkspace(cfg WorkspaceConfig) *Workspace {
	return &Workspace{
		opener:   cfg.Opener,
		library:  cfg.Library,
		options:  cfg.SessionOptions,
		onChange: cfg.OnChange,
	}
}

// Library returns the recording library, or false when none is configured.
func (w *Workspace) Library() (storage.RecordingStore, bool) {
	return w.library, w.library != nil
}

// Opener returns the parser constructor used for new sessions.
func (w *Workspace) Opener() parser.Opener {
	return w.opener
}

// Load opens data as a new session and replaces the current one. On failure
// the current session stays loaded.
func (w *Workspace) Load(ctx context.Context, source string, data []byte, seekToEnd bool) (*session.Session, error) {
	opts := append([]session.Option(nil), w.options...)
	if seekToEnd {
		opts = append(opts, session.WithSeekToEnd())
	}
	sess, err := session.FromBytes(ctx, data, w.opener, opts...)
	if err != nil {
		return nil, err
	}

	w.mu.Lock()
	previous := w.sess
	w.sess = sess
	w.source = source
	w.mu.Unlock()

	if previous != nil {
		_ = previous.Close()
	}
	if w.onChange != nil {
		w.onChange(true)
	}
	return sess, nil
}

// Current returns the open session and where it came from.
func (w *Workspace) Current() (*session.Session, string, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.sess == nil {
		return nil, "", apperrors.New(apperrors.CodeNoRecordingLoaded, "no recording is loaded")
	}
	return w.sess, w.source, nil
}

// Close releases the open session.
func (w *Workspace) Close() error {
	w.mu.Lock()
	sess := w.sess
	w.sess = nil
	w.source = ""
	w.mu.Unlock()

	if w.onChange != nil {
		w.onChange(false)
	}
	if sess == nil {
		return nil
	}
	return sess.Close()
}
