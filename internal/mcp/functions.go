package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"waypoint/internal/logging"
	"waypoint/pkg/models"
)

// RoutingDescription fetches a server's capability listings and formats
// them into one natural-language document suitable for embedding.
//
// A failing tools listing aborts the whole description: a server whose
// tools are unknown cannot be routed to. Prompts and resources degrade
// gracefully with a warning since they only enrich the document.
type RoutingDescription struct{}

func (RoutingDescription) Run(ctx context.Context, serverName string, session Session) (interface{}, error) {
	var caps models.Capabilities

	tools, err := session.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		return nil, fmt.Errorf("failed to list tools on server %s: %w", serverName, err)
	}
	for _, tool := range tools.Tools {
		caps.Tools = append(caps.Tools, models.CapabilityItem{Name: tool.Name, Description: tool.Description})
	}

	prompts, err := session.ListPrompts(ctx, mcp.ListPromptsRequest{})
	if err != nil {
		logging.Warn("Failed to fetch prompts from server '%s': %v", serverName, err)
	} else {
		for _, prompt := range prompts.Prompts {
			caps.Prompts = append(caps.Prompts, models.CapabilityItem{Name: prompt.Name, Description: prompt.Description})
		}
	}

	resources, err := session.ListResources(ctx, mcp.ListResourcesRequest{})
	if err != nil {
		logging.Warn("Failed to fetch resources from server '%s': %v", serverName, err)
	} else {
		for _, resource := range resources.Resources {
			caps.Resources = append(caps.Resources, models.CapabilityItem{Name: resource.Name, Description: resource.Description})
		}
	}

	return models.RoutingDocument{ServerName: serverName, Content: routingContent(caps)}, nil
}

// routingContent formats a capability triple into the natural-language
// document the routing index embeds. Empty categories are omitted.
func routingContent(caps models.Capabilities) string {
	var b strings.Builder
	writeCategory(&b, "Provides tools:", caps.Tools)
	writeCategory(&b, "Provides prompts:", caps.Prompts)
	writeCategory(&b, "Provides resources:", caps.Resources)
	return b.String()
}

func writeCategory(b *strings.Builder, header string, items []models.CapabilityItem) {
	if len(items) == 0 {
		return
	}
	b.WriteString(header)
	b.WriteString("\n")
	for _, item := range items {
		fmt.Fprintf(b, "- %s: %s\n", item.Name, item.Description)
	}
	b.WriteString("---\n")
}

// GetTools lists a server's tools and maps them into the assistant's
// native tool-definition shape.
type GetTools struct{}

func (GetTools) Run(ctx context.Context, serverName string, session Session) (interface{}, error) {
	result, err := session.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		return nil, fmt.Errorf("failed to list tools on server %s: %w", serverName, err)
	}

	defs := make([]models.ToolDef, 0, len(result.Tools))
	for _, tool := range result.Tools {
		schema, err := toolSchemaMap(tool)
		if err != nil {
			return nil, fmt.Errorf("invalid input schema for tool %s on server %s: %w", tool.Name, serverName, err)
		}
		defs = append(defs, models.ToolDef{
			Name:        tool.Name,
			Description: tool.Description,
			Parameters:  schema,
		})
	}
	return defs, nil
}

func toolSchemaMap(tool mcp.Tool) (map[string]interface{}, error) {
	raw, err := json.Marshal(tool.InputSchema)
	if err != nil {
		return nil, err
	}
	var schema map[string]interface{}
	if err := json.Unmarshal(raw, &schema); err != nil {
		return nil, err
	}
	return schema, nil
}

// RunTool invokes one named tool with the given arguments and returns the
// decoded result payload.
type RunTool struct {
	Name      string
	Arguments map[string]interface{}
}

func (r RunTool) Run(ctx context.Context, serverName string, session Session) (interface{}, error) {
	request := mcp.CallToolRequest{}
	request.Params.Name = r.Name
	request.Params.Arguments = r.Arguments

	result, err := session.CallTool(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("failed to call tool %s on server %s: %w", r.Name, serverName, err)
	}

	if result.IsError {
		if len(result.Content) > 0 {
			if textContent, ok := mcp.AsTextContent(result.Content[0]); ok {
				return nil, fmt.Errorf("tool %s failed: %s", r.Name, textContent.Text)
			}
		}
		return nil, fmt.Errorf("tool %s failed", r.Name)
	}

	if len(result.Content) == 0 {
		return nil, nil
	}

	// Text results are decoded as JSON when possible, otherwise returned
	// verbatim. Non-text content (images, audio) passes through raw.
	if textContent, ok := mcp.AsTextContent(result.Content[0]); ok {
		var parsed interface{}
		if err := json.Unmarshal([]byte(textContent.Text), &parsed); err != nil {
			return textContent.Text, nil
		}
		return parsed, nil
	}
	return result.Content[0], nil
}
