// Package mcp wraps ephemeral sessions against configured MCP servers.
// A SessionFunc is one operation run against an open session; Apply owns
// the session lifecycle around it.
package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

// Session is the slice of the MCP client surface the session functions
// need. *client.Client satisfies it; tests substitute fakes.
type Session interface {
	ListTools(ctx context.Context, request mcp.ListToolsRequest) (*mcp.ListToolsResult, error)
	ListPrompts(ctx context.Context, request mcp.ListPromptsRequest) (*mcp.ListPromptsResult, error)
	ListResources(ctx context.Context, request mcp.ListResourcesRequest) (*mcp.ListResourcesResult, error)
	CallTool(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)
}

// SessionFunc is one operation against an open server session. The closed
// set of implementations (RoutingDescription, GetTools, RunTool) is the
// extension point: new operations are added as new types, never by
// changing the applicator.
type SessionFunc interface {
	Run(ctx context.Context, serverName string, session Session) (interface{}, error)
}
