// Package domain maps MCP tools and resources onto the inspector session.
//
// Every tool reads or moves the one session held by a Workspace. Results are
// returned both as structured output and as rendered text, and lookups that
// find nothing answer found=false instead of failing.
package domain
