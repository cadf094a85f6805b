package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

// Config carries every knob the router builder and assistant need. It is
// constructed once at startup and passed in explicitly; packages below the
// CLI never read the environment themselves.
type Config struct {
	// ServersPath points at the mcpServers JSON file.
	ServersPath string
	// IndexPath is the file backing the routing index.
	IndexPath string

	AIProvider     string
	AIModel        string
	AIAPIKey       string
	AIBaseURL      string
	EmbeddingModel string

	// TopK is the similarity-search candidate count.
	TopK int
	// MinScore is the usability cutoff below which retrieval counts as
	// no-match.
	MinScore float64
	// CallTimeout bounds each MCP session call so an unresponsive
	// subprocess cannot hang a build.
	CallTimeout time.Duration
	// BuildParallelism bounds concurrent server sessions during a build.
	BuildParallelism int
	// MaxTurns bounds the orchestrator's tool-call loop per user turn.
	MaxTurns int

	Debug bool
}

func setDefaults() {
	viper.SetDefault("servers_file", "mcp-servers.json")
	viper.SetDefault("index_path", "waypoint-index.json")
	viper.SetDefault("ai_provider", "openai")
	viper.SetDefault("ai_model", "gpt-4o")
	viper.SetDefault("embedding_model", "text-embedding-3-small")
	viper.SetDefault("top_k", 4)
	viper.SetDefault("min_score", 0.25)
	viper.SetDefault("call_timeout", 30*time.Second)
	viper.SetDefault("build_parallelism", 4)
	viper.SetDefault("max_turns", 8)
}

// Load assembles a Config from viper (config file, WAYPOINT_ environment
// variables, and flag bindings set up by the CLI) and validates it.
func Load() (*Config, error) {
	setDefaults()

	cfg := &Config{
		ServersPath:      viper.GetString("servers_file"),
		IndexPath:        viper.GetString("index_path"),
		AIProvider:       viper.GetString("ai_provider"),
		AIModel:          viper.GetString("ai_model"),
		AIAPIKey:         viper.GetString("ai_api_key"),
		AIBaseURL:        viper.GetString("ai_base_url"),
		EmbeddingModel:   viper.GetString("embedding_model"),
		TopK:             viper.GetInt("top_k"),
		MinScore:         viper.GetFloat64("min_score"),
		CallTimeout:      viper.GetDuration("call_timeout"),
		BuildParallelism: viper.GetInt("build_parallelism"),
		MaxTurns:         viper.GetInt("max_turns"),
		Debug:            viper.GetBool("debug"),
	}

	if cfg.AIAPIKey == "" {
		cfg.AIAPIKey = os.Getenv("OPENAI_API_KEY")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configs that would misbehave at runtime.
func (c *Config) Validate() error {
	if c.ServersPath == "" {
		return fmt.Errorf("servers_file is required")
	}
	if c.IndexPath == "" {
		return fmt.Errorf("index_path is required")
	}
	if c.TopK < 1 {
		return fmt.Errorf("top_k must be at least 1, got %d", c.TopK)
	}
	if c.MinScore < 0 || c.MinScore >= 1 {
		return fmt.Errorf("min_score must be in [0, 1), got %v", c.MinScore)
	}
	if c.CallTimeout <= 0 {
		return fmt.Errorf("call_timeout must be positive, got %v", c.CallTimeout)
	}
	if c.BuildParallelism < 1 {
		return fmt.Errorf("build_parallelism must be at least 1, got %d", c.BuildParallelism)
	}
	if c.MaxTurns < 1 {
		return fmt.Errorf("max_turns must be at least 1, got %d", c.MaxTurns)
	}
	return nil
}
