package models

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServerConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  ServerConfig
		wantErr string
	}{
		{
			name:   "stdio config",
			config: ServerConfig{Name: "github", Command: "npx", Args: []string{"-y", "@modelcontextprotocol/server-github"}},
		},
		{
			name:   "http config",
			config: ServerConfig{Name: "remote", URL: "https://mcp.example.com/sse"},
		},
		{
			name:    "missing name",
			config:  ServerConfig{Command: "npx"},
			wantErr: "missing name",
		},
		{
			name:    "missing transport",
			config:  ServerConfig{Name: "empty"},
			wantErr: "either 'command' or 'url'",
		},
		{
			name:    "both transports",
			config:  ServerConfig{Name: "both", Command: "npx", URL: "https://mcp.example.com"},
			wantErr: "mutually exclusive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestLoadServerMap(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mcp-servers.json")
	content := `{
		"mcpServers": {
			"github": {"command": "npx", "args": ["-y", "@modelcontextprotocol/server-github"]},
			"sqlite": {"command": "uvx", "args": ["mcp-server-sqlite", "--db-path", "test.db"]}
		}
	}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	servers, err := LoadServerMap(path)
	require.NoError(t, err)
	assert.Len(t, servers, 2)
	assert.Equal(t, []string{"github", "sqlite"}, servers.Names())
	assert.Equal(t, "github", servers["github"].Name)
	assert.Equal(t, "npx", servers["github"].Command)
}

func TestLoadServerMap_Invalid(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadServerMap(filepath.Join(dir, "nope.json"))
		assert.Error(t, err)
	})

	t.Run("bad json", func(t *testing.T) {
		path := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))
		_, err := LoadServerMap(path)
		assert.ErrorContains(t, err, "invalid server config JSON")
	})

	t.Run("empty server map", func(t *testing.T) {
		path := filepath.Join(dir, "empty.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"mcpServers": {}}`), 0644))
		_, err := LoadServerMap(path)
		assert.ErrorContains(t, err, "no mcpServers")
	})

	t.Run("server without transport", func(t *testing.T) {
		path := filepath.Join(dir, "notransport.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"mcpServers": {"x": {"env": {"A": "1"}}}}`), 0644))
		_, err := LoadServerMap(path)
		assert.ErrorContains(t, err, "either 'command' or 'url'")
	})
}

func TestNewToolCall(t *testing.T) {
	tc := NewToolCall("github", "list_repos", map[string]interface{}{"org": "acme"})
	assert.NotEmpty(t, tc.ID)
	assert.Equal(t, "github", tc.ServerName)
	assert.Equal(t, "list_repos", tc.ToolName)
	assert.Empty(t, tc.Error)

	other := NewToolCall("github", "list_repos", nil)
	assert.NotEqual(t, tc.ID, other.ID)
}
