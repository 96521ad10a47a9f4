package domain

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	apperrors "github.com/louisbranch/demoscope/internal/platform/errors"
	"github.com/louisbranch/demoscope/internal/platform/grpc/pagination"
	"github.com/louisbranch/demoscope/internal/services/inspector/session"
	"github.com/louisbranch/demoscope/internal/services/inspector/storage"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Resource URIs refreshed when the session moves.
const (
	SessionResourceURI  = "demoscope://session"
	EntitiesResourceURI = "demoscope://entities"
)

var libraryPageSize = pagination.PageSizeConfig{Default: 50, Max: 200}

// SessionStatusResult describes the workspace session.
type SessionStatusResult struct {
	Loaded     bool   `json:"loaded" jsonschema:"whether a recording is open"`
	Source     string `json:"source,omitempty" jsonschema:"file path or library name of the open recording"`
	Tick       int32  `json:"tick" jsonschema:"current tick, -1 before the first tick"`
	TotalTicks *int32 `json:"total_ticks,omitempty" jsonschema:"last tick of the recording, omitted when unknown"`
}

func statusOf(ctx context.Context, sess *session.Session, source string) SessionStatusResult {
	result := SessionStatusResult{Loaded: true, Source: source, Tick: sess.Tick()}
	if total, err := sess.TotalTicks(ctx); err == nil {
		result.TotalTicks = &total
	}
	return result
}

// OpenRecordingInput selects a recording by file path or library name.
type OpenRecordingInput struct {
	Path      string `json:"path,omitempty" jsonschema:"recording file path"`
	Name      string `json:"name,omitempty" jsonschema:"recording name in the library"`
	SeekToEnd bool   `json:"seek_to_end,omitempty" jsonschema:"position the session at the last tick"`
}

// OpenRecordingTool defines the open_recording tool.
func OpenRecordingTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "open_recording",
		Description: "Opens a recording from a file path or from the library and makes it the current session. Exactly one of path or name is required.",
	}
}

// OpenRecordingHandler loads a recording into the workspace.
func OpenRecordingHandler(ws *Workspace, notify ResourceUpdateNotifier) mcp.ToolHandlerFor[OpenRecordingInput, SessionStatusResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input OpenRecordingInput) (*mcp.CallToolResult, SessionStatusResult, error) {
		path := strings.TrimSpace(input.Path)
		name := strings.TrimSpace(input.Name)
		if (path == "") == (name == "") {
			return nil, SessionStatusResult{}, invalidArgument("path", "exactly one of path or name is required")
		}

		var data []byte
		source := path
		if path != "" {
			raw, err := os.ReadFile(filepath.Clean(path))
			if err != nil {
				return nil, SessionStatusResult{}, notFound(path, err)
			}
			data = raw
		} else {
			library, ok := ws.Library()
			if !ok {
				return nil, SessionStatusResult{}, errors.New("recording library is not configured")
			}
			rec, err := library.Get(ctx, name)
			if err != nil {
				if errors.Is(err, storage.ErrNotFound) {
					return nil, SessionStatusResult{}, notFound(name, err)
				}
				return nil, SessionStatusResult{}, fmt.Errorf("load recording %q: %w", name, err)
			}
			data = rec.Data
			source = "library:" + name
		}

		sess, err := ws.Load(ctx, source, data, input.SeekToEnd)
		if err != nil {
			return nil, SessionStatusResult{}, err
		}
		NotifyResourceUpdates(ctx, notify, SessionResourceURI, EntitiesResourceURI)
		return nil, statusOf(ctx, sess, source), nil
	}
}

func invalidArgument(field, reason string) error {
	return apperrors.WithMetadata(apperrors.CodeInvalidArgument,
		fmt.Sprintf("invalid %s: %s", field, reason),
		map[string]string{"Field": field, "Reason": reason})
}

func notFound(name string, cause error) error {
	return apperrors.WrapWithMetadata(apperrors.CodeNotFound,
		fmt.Sprintf("%s: %v", name, cause),
		map[string]string{"Name": name}, cause)
}

// SessionStatusInput has no fields.
type SessionStatusInput struct{}

// SessionStatusTool defines the session_status tool.
func SessionStatusTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "session_status",
		Description: "Reports whether a recording is open, its current tick and its last tick.",
	}
}

// SessionStatusHandler reports the workspace session.
func SessionStatusHandler(ws *Workspace) mcp.ToolHandlerFor[SessionStatusInput, SessionStatusResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, _ SessionStatusInput) (*mcp.CallToolResult, SessionStatusResult, error) {
		sess, source, err := ws.Current()
		if err != nil {
			return nil, SessionStatusResult{Tick: -1}, nil
		}
		return nil, statusOf(ctx, sess, source), nil
	}
}

// RunToTickInput selects the target tick.
type RunToTickInput struct {
	Tick int32 `json:"tick" jsonschema:"target tick, -1 for the state before the first tick"`
}

// RunToTickTool defines the run_to_tick tool.
func RunToTickTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "run_to_tick",
		Description: "Moves the open session to a tick. Asking for the current tick does nothing; a failed seek leaves the session where it was.",
	}
}

// RunToTickHandler seeks the workspace session.
func RunToTickHandler(ws *Workspace, notify ResourceUpdateNotifier) mcp.ToolHandlerFor[RunToTickInput, SessionStatusResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input RunToTickInput) (*mcp.CallToolResult, SessionStatusResult, error) {
		sess, source, err := ws.Current()
		if err != nil {
			return nil, SessionStatusResult{}, err
		}
		before := sess.Tick()
		if err := sess.RunToTick(ctx, input.Tick); err != nil {
			return nil, SessionStatusResult{}, err
		}
		if before != input.Tick {
			NotifyResourceUpdates(ctx, notify, SessionResourceURI, EntitiesResourceURI)
		}
		return nil, statusOf(ctx, sess, source), nil
	}
}

// LibraryListInput pages through the library.
type LibraryListInput struct {
	PageSize  int32  `json:"page_size,omitempty" jsonschema:"maximum recordings to return (default 50, max 200)"`
	PageToken string `json:"page_token,omitempty" jsonschema:"token from a previous response"`
}

// LibraryEntry describes one stored recording.
type LibraryEntry struct {
	Name      string `json:"name" jsonschema:"recording name"`
	Size      int64  `json:"size" jsonschema:"recording size in bytes"`
	CreatedAt string `json:"created_at" jsonschema:"RFC3339 timestamp when the recording was imported"`
}

// LibraryListResult is one page of the library.
type LibraryListResult struct {
	Recordings    []LibraryEntry `json:"recordings" jsonschema:"stored recordings ordered by name"`
	NextPageToken string         `json:"next_page_token,omitempty" jsonschema:"token for the next page"`
}

// LibraryListTool defines the library_list tool.
func LibraryListTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "library_list",
		Description: "Lists recordings stored in the library, ordered by name.",
	}
}

// LibraryListHandler lists the library.
func LibraryListHandler(ws *Workspace) mcp.ToolHandlerFor[LibraryListInput, LibraryListResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input LibraryListInput) (*mcp.CallToolResult, LibraryListResult, error) {
		library, ok := ws.Library()
		if !ok {
			return nil, LibraryListResult{}, errors.New("recording library is not configured")
		}
		page, err := library.List(ctx, pagination.ClampPageSize(input.PageSize, libraryPageSize), input.PageToken)
		if err != nil {
			return nil, LibraryListResult{}, fmt.Errorf("list library: %w", err)
		}
		result := LibraryListResult{
			Recordings:    make([]LibraryEntry, 0, len(page.Recordings)),
			NextPageToken: page.NextPageToken,
		}
		for _, rec := range page.Recordings {
			result.Recordings = append(result.Recordings, LibraryEntry{
				Name:      rec.Name,
				Size:      rec.Size,
				CreatedAt: rec.CreatedAt.UTC().Format(time.RFC3339),
			})
		}
		return nil, result, nil
	}
}

// LibraryImportInput names a file to copy into the library.
type LibraryImportInput struct {
	Path string `json:"path" jsonschema:"recording file path"`
	Name string `json:"name,omitempty" jsonschema:"library name (defaults to the file name without extension)"`
}

// LibraryImportResult describes the stored recording.
type LibraryImportResult struct {
	Name string `json:"name" jsonschema:"library name"`
	Size int64  `json:"size" jsonschema:"recording size in bytes"`
}

// LibraryImportTool defines the library_import tool.
func LibraryImportTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "library_import",
		Description: "Validates a recording file and stores it in the library under a unique name.",
	}
}

// LibraryImportHandler copies a recording file into the library.
func LibraryImportHandler(ws *Workspace) mcp.ToolHandlerFor[LibraryImportInput, LibraryImportResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input LibraryImportInput) (*mcp.CallToolResult, LibraryImportResult, error) {
		library, ok := ws.Library()
		if !ok {
			return nil, LibraryImportResult{}, errors.New("recording library is not configured")
		}
		path := strings.TrimSpace(input.Path)
		if path == "" {
			return nil, LibraryImportResult{}, invalidArgument("path", "path is required")
		}
		name := strings.TrimSpace(input.Name)
		if name == "" {
			name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		}

		data, err := os.ReadFile(filepath.Clean(path))
		if err != nil {
			return nil, LibraryImportResult{}, notFound(path, err)
		}
		probe, err := session.FromBytes(ctx, data, ws.Opener())
		if err != nil {
			return nil, LibraryImportResult{}, err
		}
		_ = probe.Close()
		if err := library.Put(ctx, storage.Recording{Name: name, Data: data}); err != nil {
			return nil, LibraryImportResult{}, fmt.Errorf("store recording %q: %w", name, err)
		}
		return nil, LibraryImportResult{Name: name, Size: int64(len(data))}, nil
	}
}
