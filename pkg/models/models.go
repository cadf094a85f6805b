package models

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/google/uuid"
)

// ServerConfig describes how to reach one MCP server. Stdio servers set
// Command (plus optional Args/Env); HTTP/SSE servers set URL. Name is
// assigned from the config map key when the file is loaded.
type ServerConfig struct {
	Name    string            `json:"-"`
	Command string            `json:"command,omitempty"`
	Args    []string          `json:"args,omitempty"`
	URL     string            `json:"url,omitempty"`
	Env     map[string]string `json:"env,omitempty"`
}

// Validate checks that the config is structurally usable before a session
// is opened against it.
func (c ServerConfig) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("server config missing name")
	}
	if c.Command == "" && c.URL == "" {
		return fmt.Errorf("server %q: either 'command' or 'url' is required", c.Name)
	}
	if c.Command != "" && c.URL != "" {
		return fmt.Errorf("server %q: 'command' and 'url' are mutually exclusive", c.Name)
	}
	return nil
}

// ServerMap is the parsed mcpServers config file, in the same shape Claude
// Desktop and most MCP hosts use:
//
//	{"mcpServers": {"github": {"command": "npx", "args": [...]}}}
type ServerMap map[string]ServerConfig

// serverFile matches the on-disk layout.
type serverFile struct {
	MCPServers map[string]ServerConfig `json:"mcpServers"`
}

// LoadServerMap reads and validates an mcpServers config file. JSON object
// keys are unique by construction, so a duplicated server name resolves to
// the last entry at decode time.
func LoadServerMap(path string) (ServerMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read server config: %w", err)
	}
	var file serverFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("invalid server config JSON: %w", err)
	}
	if len(file.MCPServers) == 0 {
		return nil, fmt.Errorf("no mcpServers found in %s", path)
	}

	servers := make(ServerMap, len(file.MCPServers))
	for name, cfg := range file.MCPServers {
		cfg.Name = name
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		servers[name] = cfg
	}
	return servers, nil
}

// Names returns the configured server names in sorted order.
func (m ServerMap) Names() []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Capabilities is the (tools, prompts, resources) triple a server reports
// for a session. Fetched per build cycle, never persisted.
type Capabilities struct {
	Tools     []CapabilityItem `json:"tools"`
	Prompts   []CapabilityItem `json:"prompts"`
	Resources []CapabilityItem `json:"resources"`
}

// CapabilityItem is one named entry in a capability listing.
type CapabilityItem struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// RoutingDocument summarizes one server's capabilities for retrieval.
// Exactly one active document exists per server; rebuilding replaces the
// whole set.
type RoutingDocument struct {
	ServerName string `json:"server_name"`
	Content    string `json:"content"`
}

// ToolDef is the assistant-native shape of one remote tool: name,
// description, and the JSON schema of its arguments.
type ToolDef struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Parameters  map[string]interface{} `json:"parameters"`
}

// ToolCall records one tool invocation against an MCP server.
type ToolCall struct {
	ID         string                 `json:"id"`
	ServerName string                 `json:"server_name"`
	ToolName   string                 `json:"tool_name"`
	Arguments  map[string]interface{} `json:"arguments"`
	Result     interface{}            `json:"result,omitempty"`
	Error      string                 `json:"error,omitempty"`
}

// NewToolCall creates an invocation record with a fresh ID.
func NewToolCall(server, tool string, args map[string]interface{}) ToolCall {
	return ToolCall{
		ID:         uuid.New().String(),
		ServerName: server,
		ToolName:   tool,
		Arguments:  args,
	}
}
