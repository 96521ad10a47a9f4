package service

import (
	"fmt"

	"github.com/louisbranch/demoscope/internal/services/mcp/domain"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type mcpRegistrationKind int

const (
	mcpRegistrationKindTools mcpRegistrationKind = iota
	mcpRegistrationKindResources
)

type mcpRegistrationModule struct {
	name     string
	kind     mcpRegistrationKind
	register func(mcpRegistrationTarget) error
}

const (
	mcpRecordingToolsModuleName = "recording-tools"
	mcpLibraryToolsModuleName   = "library-tools"
	mcpListingToolsModuleName   = "listing-tools"
	mcpHandleToolsModuleName    = "handle-tools"
	mcpSessionResourceModule    = "session-resources"
)

type mcpServerRegistrationAdapter struct {
	server *mcp.Server
}

func (r mcpServerRegistrationAdapter) AddTool(tool *mcp.Tool, handler any) error {
	return addMCPTool(r.server, tool, handler)
}

func (r mcpServerRegistrationAdapter) AddResource(resource *mcp.Resource, handler mcp.ResourceHandler) {
	r.server.AddResource(resource, handler)
}

type mcpToolRegistrar struct {
	matches func(any) bool
	add     func(*mcp.Server, *mcp.Tool, any)
}

// newMCPToolRegistrar binds one handler signature. Every tool is wrapped in
// domain.Guard on the way in.
func newMCPToolRegistrar[I any, O any]() mcpToolRegistrar {
	return mcpToolRegistrar{
		matches: func(handler any) bool {
			_, ok := handler.(mcp.ToolHandlerFor[I, O])
			return ok
		},
		add: func(server *mcp.Server, tool *mcp.Tool, handler any) {
			mcp.AddTool(server, tool, domain.Guard(tool.Name, handler.(mcp.ToolHandlerFor[I, O])))
		},
	}
}

var mcpToolRegistrars = []mcpToolRegistrar{
	newMCPToolRegistrar[domain.OpenRecordingInput, domain.SessionStatusResult](),
	newMCPToolRegistrar[domain.SessionStatusInput, domain.SessionStatusResult](),
	newMCPToolRegistrar[domain.RunToTickInput, domain.SessionStatusResult](),
	newMCPToolRegistrar[domain.LibraryListInput, domain.LibraryListResult](),
	newMCPToolRegistrar[domain.LibraryImportInput, domain.LibraryImportResult](),
	newMCPToolRegistrar[domain.ListEntitiesInput, domain.ListEntitiesResult](),
	newMCPToolRegistrar[domain.ListEntityFieldsInput, domain.ListEntityFieldsResult](),
	newMCPToolRegistrar[domain.ListStringTablesInput, domain.ListStringTablesResult](),
	newMCPToolRegistrar[domain.ListStringTableItemsInput, domain.ListStringTableItemsResult](),
	newMCPToolRegistrar[domain.DecodeHandleInput, domain.DecodeHandleResult](),
}

func addMCPTool(server *mcp.Server, tool *mcp.Tool, handler any) error {
	if tool == nil {
		return fmt.Errorf("mcp registration requires a tool definition for handler %T", handler)
	}
	for _, registrar := range mcpToolRegistrars {
		if registrar.matches(handler) {
			registrar.add(server, tool, handler)
			return nil
		}
	}
	return fmt.Errorf("mcp registration adapter does not support handler type %T for tool %q", handler, tool.Name)
}

func newMCPRegistrationModules(ws *domain.Workspace, notify domain.ResourceUpdateNotifier) []mcpRegistrationModule {
	return []mcpRegistrationModule{
		{
			name: mcpRecordingToolsModuleName,
			kind: mcpRegistrationKindTools,
			register: func(registrar mcpRegistrationTarget) error {
				return registerRecordingTools(registrar, ws, notify)
			},
		},
		{
			name: mcpLibraryToolsModuleName,
			kind: mcpRegistrationKindTools,
			register: func(registrar mcpRegistrationTarget) error {
				return registerLibraryTools(registrar, ws)
			},
		},
		{
			name: mcpListingToolsModuleName,
			kind: mcpRegistrationKindTools,
			register: func(registrar mcpRegistrationTarget) error {
				return registerListingTools(registrar, ws)
			},
		},
		{
			name: mcpHandleToolsModuleName,
			kind: mcpRegistrationKindTools,
			register: func(registrar mcpRegistrationTarget) error {
				return registerTool(registrar, domain.DecodeHandleTool(), domain.DecodeHandleHandler())
			},
		},
		{
			name: mcpSessionResourceModule,
			kind: mcpRegistrationKindResources,
			register: func(registrar mcpRegistrationTarget) error {
				registerSessionResources(registrar, ws)
				return nil
			},
		},
	}
}
