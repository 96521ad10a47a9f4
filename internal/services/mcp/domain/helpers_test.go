package domain

import (
	"context"
	"os"
	"sort"
	"sync"
	"testing"

	"github.com/louisbranch/demoscope/internal/services/inspector/recording"
	"github.com/louisbranch/demoscope/internal/services/inspector/session"
	"github.com/louisbranch/demoscope/internal/services/inspector/storage"
)

const samplePath = "../../inspector/recording/testdata/sample.json"

// fakeLibrary is an in-memory storage.RecordingStore.
type fakeLibrary struct {
	mu   sync.Mutex
	recs map[string]storage.Recording
}

func newFakeLibrary() *fakeLibrary {
	return &fakeLibrary{recs: map[string]storage.Recording{}}
}

func (f *fakeLibrary) Put(_ context.Context, rec storage.Recording) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.recs[rec.Name]; ok {
		return storage.ErrAlreadyExists
	}
	rec.Size = int64(len(rec.Data))
	f.recs[rec.Name] = rec
	return nil
}

func (f *fakeLibrary) Get(_ context.Context, name string) (storage.Recording, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.recs[name]
	if !ok {
		return storage.Recording{}, storage.ErrNotFound
	}
	return rec, nil
}

func (f *fakeLibrary) List(_ context.Context, pageSize int, _ string) (storage.RecordingPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	page := storage.RecordingPage{}
	for _, rec := range f.recs {
		rec.Data = nil
		page.Recordings = append(page.Recordings, rec)
	}
	sort.Slice(page.Recordings, func(i, j int) bool { return page.Recordings[i].Name < page.Recordings[j].Name })
	if len(page.Recordings) > pageSize {
		page.Recordings = page.Recordings[:pageSize]
	}
	return page, nil
}

func (f *fakeLibrary) Delete(_ context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.recs[name]; !ok {
		return storage.ErrNotFound
	}
	delete(f.recs, name)
	return nil
}

func newTestWorkspace(t *testing.T, library storage.RecordingStore) *Workspace {
	t.Helper()
	ws := NewWorkspace(WorkspaceConfig{Opener: recording.Open, Library: library})
	t.Cleanup(func() { _ = ws.Close() })
	return ws
}

func loadSample(t *testing.T, ws *Workspace, seekToEnd bool) {
	t.Helper()
	data, err := os.ReadFile(samplePath)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if _, err := ws.Load(context.Background(), "sample", data, seekToEnd); err != nil {
		t.Fatalf("load sample: %v", err)
	}
}

type notifications struct {
	mu   sync.Mutex
	uris []string
}

func (n *notifications) notify(_ context.Context, uri string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.uris = append(n.uris, uri)
}

func newRecording(name string, data []byte) storage.Recording {
	return storage.Recording{Name: name, Data: data}
}

func mustSession(t *testing.T, ws *Workspace) *session.Session {
	t.Helper()
	sess, _, err := ws.Current()
	if err != nil {
		t.Fatalf("current session: %v", err)
	}
	return sess
}
