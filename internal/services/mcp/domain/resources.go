package domain

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// SessionResource describes the session status resource.
func SessionResource() *mcp.Resource {
	return &mcp.Resource{
		Name:        "session",
		Title:       "Inspector Session",
		Description: "Readable status of the open recording (loaded, source, tick, total_ticks)",
		MIMEType:    "application/json",
		URI:         SessionResourceURI,
	}
}

// SessionResourceHandler serves SessionResource.
func SessionResourceHandler(ws *Workspace) mcp.ResourceHandler {
	return func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		uri, err := resourceURI(req, SessionResourceURI)
		if err != nil {
			return nil, err
		}
		status := SessionStatusResult{Tick: -1}
		if sess, source, err := ws.Current(); err == nil {
			status = statusOf(ctx, sess, source)
		}
		return jsonResource(uri, status)
	}
}

// EntitiesResource describes the live entity list resource.
func EntitiesResource() *mcp.Resource {
	return &mcp.Resource{
		Name:        "entities",
		Title:       "Live Entities",
		Description: "Readable list of live entities at the current tick",
		MIMEType:    "application/json",
		URI:         EntitiesResourceURI,
	}
}

// EntitiesResourcePayload is the JSON body of EntitiesResource.
type EntitiesResourcePayload struct {
	Found    bool          `json:"found"`
	Tick     int32         `json:"tick"`
	Entities []EntityEntry `json:"entities"`
}

// EntitiesResourceHandler serves EntitiesResource.
func EntitiesResourceHandler(ws *Workspace) mcp.ResourceHandler {
	return func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		uri, err := resourceURI(req, EntitiesResourceURI)
		if err != nil {
			return nil, err
		}
		sess, _, err := ws.Current()
		if err != nil {
			return nil, ToolError(err)
		}
		payload := EntitiesResourcePayload{Tick: sess.Tick(), Entities: []EntityEntry{}}
		items, found := sess.ListEntities(ctx)
		payload.Found = found
		for _, it := range items {
			payload.Entities = append(payload.Entities, EntityEntry{Index: it.Index, Class: it.Name})
		}
		return jsonResource(uri, payload)
	}
}

func resourceURI(req *mcp.ReadResourceRequest, want string) (string, error) {
	uri := want
	if req != nil && req.Params != nil && req.Params.URI != "" {
		uri = req.Params.URI
	}
	if uri != want {
		return "", fmt.Errorf("invalid URI: expected %s, got %q", want, uri)
	}
	return uri, nil
}

func jsonResource(uri string, payload any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", uri, err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{
			{
				URI:      uri,
				MIMEType: "application/json",
				Text:     string(data),
			},
		},
	}, nil
}
