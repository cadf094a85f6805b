// Package assistant orchestrates one conversational turn: retrieve
// candidate servers from the routing index, let the model pick one,
// then drive its tools until an answer comes out.
package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"waypoint/internal/llm"
	"waypoint/internal/logging"
	"waypoint/internal/mcp"
	"waypoint/internal/vectorstore"
	"waypoint/pkg/models"
)

// Message roles in the conversation history.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message is one entry of conversation history.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
	// Name is the tool name for RoleTool messages.
	Name string `json:"name,omitempty"`
}

// Answer is the outcome of one assistant turn.
type Answer struct {
	Text string
	// ServerName is set when a server was selected for this turn.
	ServerName string
	// ToolCalls records every invocation made while answering.
	ToolCalls []models.ToolCall
}

// Options tune retrieval and the tool loop.
type Options struct {
	TopK     int
	MinScore float64
	MaxTurns int
}

// Assistant answers user queries by routing them to configured MCP
// servers.
type Assistant struct {
	servers models.ServerMap
	store   vectorstore.Store
	applier mcp.Applier
	model   llm.Generator
	opts    Options
}

// New wires an assistant over an already-built routing index.
func New(servers models.ServerMap, store vectorstore.Store, applier mcp.Applier, model llm.Generator, opts Options) *Assistant {
	if opts.TopK < 1 {
		opts.TopK = 1
	}
	if opts.MaxTurns < 1 {
		opts.MaxTurns = 1
	}
	return &Assistant{
		servers: servers,
		store:   store,
		applier: applier,
		model:   model,
		opts:    opts,
	}
}

// Answer runs one turn over the conversation history, which must end with
// a user message. Tool and model failures inside the turn surface as an
// explanatory answer, never as a panic or silent drop.
func (a *Assistant) Answer(ctx context.Context, messages []Message) (*Answer, error) {
	if len(messages) == 0 || messages[len(messages)-1].Role != RoleUser {
		return nil, fmt.Errorf("conversation must end with a user message")
	}

	query, err := a.generateQuery(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("failed to generate routing query: %w", err)
	}
	logging.Debug("Routing query: %s", query)

	matches, err := a.store.Search(ctx, query, a.opts.TopK)
	if err != nil {
		return nil, fmt.Errorf("similarity search failed: %w", err)
	}
	candidates := a.usable(matches)

	// A server that declines with the IDK sentinel is dropped from the
	// candidate set and routing runs again, so a wrong first pick can
	// recover within the turn. Each server is tried at most once, which
	// bounds the loop by the retrieval size.
	var toolCalls []models.ToolCall
	for len(candidates) > 0 {
		serverName, routed, err := a.route(ctx, messages, candidates)
		if err != nil {
			return nil, fmt.Errorf("routing failed: %w", err)
		}
		if !routed {
			// The router either found nothing relevant or asked the user to
			// clarify; serverName carries the user-facing text in both cases.
			return &Answer{Text: serverName, ToolCalls: toolCalls}, nil
		}

		cfg, ok := a.servers[serverName]
		if !ok {
			// A hallucinated name is not in the candidate set, so retrying
			// the same routing prompt could spin; give up instead.
			logging.Warn("Router selected unknown server '%s'", serverName)
			return &Answer{Text: NoServerResponse, ToolCalls: toolCalls}, nil
		}

		others := dropCandidate(candidates, serverName)
		answer, err := a.orchestrate(ctx, cfg, messages, others)
		if err != nil {
			// A failing turn is reported, not crashed on.
			logging.Error("Assistant turn against server '%s' failed: %v", serverName, err)
			return &Answer{
				Text:       fmt.Sprintf("I selected the %s server but could not complete the request: %v", serverName, err),
				ServerName: serverName,
				ToolCalls:  toolCalls,
			}, nil
		}
		toolCalls = append(toolCalls, answer.ToolCalls...)

		// Re-route only when the candidate set actually shrank, so the loop
		// is bounded by the retrieval size even if the router picks a
		// server outside the offered documents.
		if answer.Text == IDKResponse && len(others) > 0 && len(others) < len(candidates) {
			logging.Debug("Server '%s' could not assist; re-routing across %d remaining candidate(s)", serverName, len(others))
			candidates = others
			continue
		}

		answer.ToolCalls = toolCalls
		return answer, nil
	}
	return &Answer{Text: NoServerResponse, ToolCalls: toolCalls}, nil
}

// dropCandidate removes one server's document from a match list.
func dropCandidate(matches []vectorstore.Match, serverName string) []vectorstore.Match {
	kept := make([]vectorstore.Match, 0, len(matches))
	for _, match := range matches {
		if match.Document.ServerName != serverName {
			kept = append(kept, match)
		}
	}
	return kept
}

// usable drops matches below the configured score cutoff.
func (a *Assistant) usable(matches []vectorstore.Match) []vectorstore.Match {
	kept := matches[:0]
	for _, match := range matches {
		if match.Score >= a.opts.MinScore {
			kept = append(kept, match)
		}
	}
	return kept
}

// generateQuery produces the retrieval query: the user's own words on the
// first turn, a model-refined query on later turns.
func (a *Assistant) generateQuery(ctx context.Context, messages []Message) (string, error) {
	if len(messages) == 1 {
		return messages[0].Content, nil
	}

	var previous []string
	for _, m := range messages[:len(messages)-1] {
		if m.Role == RoleUser {
			previous = append(previous, "- "+m.Content)
		}
	}
	prompt := fmt.Sprintf(routingQueryPrompt,
		strings.Join(previous, "\n"), transcript(messages), systemTime())
	query, err := a.model.Generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(query), nil
}

// route asks the model to pick one server from the retrieved candidates.
// The second return is false when the reply is terminal user-facing text
// (nothing relevant, or a clarifying question) instead of a server name.
func (a *Assistant) route(ctx context.Context, messages []Message, matches []vectorstore.Match) (string, bool, error) {
	prompt := fmt.Sprintf(routingResponsePrompt,
		formatMatches(matches), NothingRelevant, NothingRelevant, AmbiguityPrefix,
		transcript(messages), systemTime())

	reply, err := a.model.Generate(ctx, prompt)
	if err != nil {
		return "", false, err
	}
	reply = strings.TrimSpace(reply)

	if reply == NothingRelevant {
		return NoServerResponse, false, nil
	}
	if strings.HasPrefix(reply, AmbiguityPrefix) {
		return reply, false, nil
	}
	return reply, true, nil
}

// toolDecision is the JSON shape the orchestrator prompt asks for.
type toolDecision struct {
	Tool      string                 `json:"tool"`
	Arguments map[string]interface{} `json:"arguments"`
}

// parseToolDecision extracts a tool call from a model reply, tolerating a
// markdown code fence around the JSON.
func parseToolDecision(reply string) (toolDecision, bool) {
	text := strings.TrimSpace(reply)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
		text = strings.TrimSpace(text)
	}
	if !strings.HasPrefix(text, "{") {
		return toolDecision{}, false
	}
	var decision toolDecision
	if err := json.Unmarshal([]byte(text), &decision); err != nil || decision.Tool == "" {
		return toolDecision{}, false
	}
	return decision, true
}

// orchestrate fetches the server's tools and loops: the model either
// answers directly or picks a tool, whose result is appended to the
// conversation for the next round. others lists the remaining candidate
// servers so the model can decline with the IDK sentinel when one of
// them is better suited.
func (a *Assistant) orchestrate(ctx context.Context, cfg models.ServerConfig, messages []Message, others []vectorstore.Match) (*Answer, error) {
	result, err := a.applier.Apply(ctx, cfg, mcp.GetTools{})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch tools: %w", err)
	}
	defs, ok := result.([]models.ToolDef)
	if !ok {
		return nil, fmt.Errorf("unexpected tool listing type %T", result)
	}

	answer := &Answer{ServerName: cfg.Name}
	conversation := append([]Message(nil), messages...)

	for turn := 0; turn < a.opts.MaxTurns; turn++ {
		prompt := fmt.Sprintf(orchestratorPrompt,
			cfg.Name, formatToolDefs(defs), IDKResponse, formatOtherServers(others),
			transcript(conversation), systemTime())

		reply, err := a.model.Generate(ctx, prompt)
		if err != nil {
			return nil, fmt.Errorf("orchestrator model call failed: %w", err)
		}
		reply = strings.TrimSpace(reply)

		decision, isToolCall := parseToolDecision(reply)
		if !isToolCall {
			answer.Text = reply
			return answer, nil
		}

		call := models.NewToolCall(cfg.Name, decision.Tool, decision.Arguments)
		logging.Debug("Invoking tool %s on server %s", decision.Tool, cfg.Name)
		toolResult, err := a.applier.Apply(ctx, cfg, mcp.RunTool{
			Name:      decision.Tool,
			Arguments: decision.Arguments,
		})

		var observation string
		if err != nil {
			call.Error = err.Error()
			observation = fmt.Sprintf("error: %v", err)
		} else {
			call.Result = toolResult
			observation = renderToolResult(toolResult)
		}
		answer.ToolCalls = append(answer.ToolCalls, call)
		conversation = append(conversation, Message{
			Role:    RoleTool,
			Name:    decision.Tool,
			Content: observation,
		})
	}

	return nil, fmt.Errorf("no final answer after %d tool turns", a.opts.MaxTurns)
}

func renderToolResult(result interface{}) string {
	switch v := result.(type) {
	case nil:
		return "(empty result)"
	case string:
		return v
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(data)
	}
}
