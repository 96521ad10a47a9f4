package service

import (
	"github.com/louisbranch/demoscope/internal/services/mcp/domain"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type mcpRegistrationTarget interface {
	AddTool(*mcp.Tool, any) error
	AddResource(*mcp.Resource, mcp.ResourceHandler)
}

type toolRegistration struct {
	tool    *mcp.Tool
	handler any
}

func registerRecordingTools(registrar mcpRegistrationTarget, ws *domain.Workspace, notify domain.ResourceUpdateNotifier) error {
	return registerTools(registrar, []toolRegistration{
		{tool: domain.OpenRecordingTool(), handler: domain.OpenRecordingHandler(ws, notify)},
		{tool: domain.SessionStatusTool(), handler: domain.SessionStatusHandler(ws)},
		{tool: domain.RunToTickTool(), handler: domain.RunToTickHandler(ws, notify)},
	})
}

// registerLibraryTools is a no-op without a configured library.
func registerLibraryTools(registrar mcpRegistrationTarget, ws *domain.Workspace) error {
	if _, ok := ws.Library(); !ok {
		return nil
	}
	return registerTools(registrar, []toolRegistration{
		{tool: domain.LibraryListTool(), handler: domain.LibraryListHandler(ws)},
		{tool: domain.LibraryImportTool(), handler: domain.LibraryImportHandler(ws)},
	})
}

func registerListingTools(registrar mcpRegistrationTarget, ws *domain.Workspace) error {
	return registerTools(registrar, []toolRegistration{
		{tool: domain.ListEntitiesTool(), handler: domain.ListEntitiesHandler(ws, false)},
		{tool: domain.ListBaselineEntitiesTool(), handler: domain.ListEntitiesHandler(ws, true)},
		{tool: domain.ListEntityFieldsTool(), handler: domain.ListEntityFieldsHandler(ws, false)},
		{tool: domain.ListBaselineEntityFieldsTool(), handler: domain.ListEntityFieldsHandler(ws, true)},
		{tool: domain.ListStringTablesTool(), handler: domain.ListStringTablesHandler(ws)},
		{tool: domain.ListStringTableItemsTool(), handler: domain.ListStringTableItemsHandler(ws)},
	})
}

func registerSessionResources(registrar mcpRegistrationTarget, ws *domain.Workspace) {
	registrar.AddResource(domain.SessionResource(), domain.SessionResourceHandler(ws))
	registrar.AddResource(domain.EntitiesResource(), domain.EntitiesResourceHandler(ws))
}

func registerTools(registrar mcpRegistrationTarget, registrations []toolRegistration) error {
	for _, r := range registrations {
		if err := registerTool(registrar, r.tool, r.handler); err != nil {
			return err
		}
	}
	return nil
}

func registerTool(registrar mcpRegistrationTarget, tool *mcp.Tool, handler any) error {
	return registrar.AddTool(tool, handler)
}
