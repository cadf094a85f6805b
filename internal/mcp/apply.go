package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	"github.com/mark3labs/mcp-go/mcp"

	"waypoint/internal/logging"
	"waypoint/pkg/models"
)

const (
	clientName    = "waypoint"
	clientVersion = "1.0.0"
)

// Applier runs one SessionFunc against one configured server.
type Applier interface {
	Apply(ctx context.Context, cfg models.ServerConfig, fn SessionFunc) (interface{}, error)
}

// SessionApplier opens an ephemeral session per call: transport start,
// protocol initialize, run the function, tear the session down. Each call
// owns its subprocess or connection exclusively; nothing is shared or
// cached between calls.
type SessionApplier struct {
	timeout time.Duration

	// open is swapped out by tests to avoid launching real subprocesses.
	open openSessionFunc
}

type openSessionFunc func(ctx context.Context, cfg models.ServerConfig) (Session, func(), error)

// NewSessionApplier creates an applier with a per-call timeout covering
// session open and every request made through it.
func NewSessionApplier(timeout time.Duration) *SessionApplier {
	return &SessionApplier{timeout: timeout, open: openSession}
}

// Apply runs fn against cfg's server. The session is released on every
// exit path, including a failing fn and context cancellation; fn's result
// or error is returned verbatim.
func (a *SessionApplier) Apply(ctx context.Context, cfg models.ServerConfig, fn SessionFunc) (interface{}, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	session, closeSession, err := a.open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open session with server %s: %w", cfg.Name, err)
	}
	defer closeSession()

	return fn.Run(ctx, cfg.Name, session)
}

// openSession builds the transport for cfg, starts the client, and runs
// the MCP initialize handshake.
func openSession(ctx context.Context, cfg models.ServerConfig) (Session, func(), error) {
	mcpTransport, err := newTransport(cfg)
	if err != nil {
		return nil, nil, err
	}

	mcpClient := client.NewClient(mcpTransport)
	if err := mcpClient.Start(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to start client: %w", err)
	}

	initRequest := mcp.InitializeRequest{}
	initRequest.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initRequest.Params.ClientInfo = mcp.Implementation{
		Name:    clientName,
		Version: clientVersion,
	}
	initRequest.Params.Capabilities = mcp.ClientCapabilities{}

	serverInfo, err := mcpClient.Initialize(ctx, initRequest)
	if err != nil {
		mcpClient.Close()
		return nil, nil, fmt.Errorf("failed to initialize: %w", err)
	}
	logging.Debug("Connected to MCP server %s (%s %s)",
		cfg.Name, serverInfo.ServerInfo.Name, serverInfo.ServerInfo.Version)

	closeSession := func() {
		if err := mcpClient.Close(); err != nil {
			logging.Debug("Error closing session with server %s: %v", cfg.Name, err)
		}
	}
	return mcpClient, closeSession, nil
}

// newTransport selects stdio for command-based servers and SSE for
// URL-based ones.
func newTransport(cfg models.ServerConfig) (transport.Interface, error) {
	if cfg.Command != "" {
		var envSlice []string
		for key, value := range cfg.Env {
			envSlice = append(envSlice, fmt.Sprintf("%s=%s", key, value))
		}
		return transport.NewStdio(cfg.Command, envSlice, cfg.Args...), nil
	}
	return transport.NewSSE(cfg.URL)
}
