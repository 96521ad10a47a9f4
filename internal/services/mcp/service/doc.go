// Package service wires the MCP protocol to the inspector workspace.
//
// It knows how to run MCP over stdio or streamable HTTP and delegates tool
// meaning to handlers in the domain package.
package service
