package assistant

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"waypoint/internal/vectorstore"
	"waypoint/pkg/models"
)

// Sentinel responses the routing and orchestration prompts contract on.
const (
	// NothingRelevant is the router model's answer when no indexed server
	// fits the query.
	NothingRelevant = "Nothing relevant found"
	// IDKResponse is the orchestrator model's answer when the selected
	// server has no applicable tool or another candidate server is better
	// suited; the assistant reacts by re-routing across the remaining
	// candidates.
	IDKResponse = "Unable to assist with this query."
	// AmbiguityPrefix marks a clarifying question when several servers
	// look equally relevant.
	AmbiguityPrefix = "Please clarify:"
	// NoServerResponse is the terminal user-facing answer when retrieval
	// finds no usable candidate.
	NoServerResponse = "None of the connected MCP servers can address this request."
)

const routingQueryPrompt = `Generate a query to search the right Model Context Protocol (MCP) server document that may help with the user's message. Previously, we made the following queries:

<previous_queries>
%s
</previous_queries>

Conversation so far:
%s

Respond with the search query only, no quotation marks and no extra text.

System time: %s`

const routingResponsePrompt = `You are a helpful AI assistant responsible for selecting the most relevant Model Context Protocol (MCP) server for the user's query. Use the following retrieved server documents to make your decision:

%s

Objective:
1. Identify the MCP server that is best equipped to address the user's query based on its provided tools and prompts.
2. If no MCP server is sufficiently relevant, return "%s".

Guidelines:
- Carefully analyze the tools, prompts, and resources described in each retrieved document.
- Match the user's query against the capabilities of each server.

IMPORTANT: Your response must match EXACTLY one of the following formats:
- If exactly one document is relevant, respond with its server id (e.g., sqlite, or github, or weather, ...).
- If no server is relevant, respond with "%s".
- If multiple servers appear equally relevant, respond with a clarifying question, starting with "%s".

Do not include quotation marks or any additional text in your answer.
Do not prefix your answer with "Answer: " or anything else.

Conversation so far:
%s

System time: %s`

const orchestratorPrompt = `You are an intelligent assistant with access to the tools of the MCP server "%s".

Available tools:
%s

Objectives:
1. Analyze the conversation to understand the user's intent and context.
2. Select and use the most relevant tool (if any) to fulfill the intent.
3. Also evaluate whether any of the other available servers listed below is better suited to the user's request based on its description.
4. If another server is better suited, or no tool on this server can solve the request, respond with "%s".
5. Combine tool outputs logically to provide a clear and concise response.

To call a tool, respond with ONLY a JSON object of this exact shape and nothing else:
{"tool": "<tool name>", "arguments": {<arguments matching the tool's schema>}}

If you already have everything needed to answer, respond with the final answer as plain text.

Other available servers (you cannot call their tools from here):
%s

Conversation so far:
%s

System time: %s`

func systemTime() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// transcript renders conversation history for prompt embedding.
func transcript(messages []Message) string {
	var b strings.Builder
	for _, m := range messages {
		switch m.Role {
		case RoleUser:
			fmt.Fprintf(&b, "User: %s\n", m.Content)
		case RoleAssistant:
			fmt.Fprintf(&b, "Assistant: %s\n", m.Content)
		case RoleTool:
			fmt.Fprintf(&b, "Tool result (%s): %s\n", m.Name, m.Content)
		}
	}
	return b.String()
}

// formatMatches renders retrieved routing documents the way the routing
// prompt expects, id first so the model can answer with it.
func formatMatches(matches []vectorstore.Match) string {
	var b strings.Builder
	for _, match := range matches {
		fmt.Fprintf(&b, "<document id=%q>\n%s</document>\n", match.Document.ServerName, match.Document.Content)
	}
	return b.String()
}

// formatOtherServers renders the remaining candidate servers for the
// orchestrator prompt, so the model can decline in favor of one of them.
func formatOtherServers(others []vectorstore.Match) string {
	if len(others) == 0 {
		return "(none)\n"
	}
	return formatMatches(others)
}

// formatToolDefs renders tool definitions, schema included, for the
// orchestrator prompt.
func formatToolDefs(defs []models.ToolDef) string {
	var b strings.Builder
	for _, def := range defs {
		schema, err := json.Marshal(def.Parameters)
		if err != nil {
			schema = []byte("{}")
		}
		fmt.Fprintf(&b, "- %s: %s\n  arguments schema: %s\n", def.Name, def.Description, schema)
	}
	if b.Len() == 0 {
		return "- (none)\n"
	}
	return b.String()
}
