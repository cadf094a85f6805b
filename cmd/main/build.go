package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"waypoint/internal/config"
	"waypoint/internal/mcp"
	"waypoint/internal/router"
	"waypoint/internal/vectorstore"
	"waypoint/pkg/models"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the routing index from the configured MCP servers",
	Long: `Build connects to every server in the servers file, collects each one's
routing description (tools, prompts, resources), and replaces the routing
index wholesale. Servers that fail to describe themselves are skipped and
reported; they drop out of the index until a later build succeeds.`,
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().String("servers", "", "path to the mcpServers JSON file")
	buildCmd.Flags().String("index", "", "path to the routing index file")
	viper.BindPFlag("servers_file", buildCmd.Flags().Lookup("servers"))
	viper.BindPFlag("index_path", buildCmd.Flags().Lookup("index"))
}

func runBuild(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.AIAPIKey == "" {
		return fmt.Errorf("an API key is required to embed routing documents (set WAYPOINT_AI_API_KEY or OPENAI_API_KEY)")
	}

	servers, err := models.LoadServerMap(cfg.ServersPath)
	if err != nil {
		return err
	}
	if len(servers) == 0 {
		return fmt.Errorf("no MCP servers configured in %s", cfg.ServersPath)
	}

	embedder := vectorstore.NewOpenAIEmbedder(cfg.AIAPIKey, cfg.AIBaseURL, cfg.EmbeddingModel)
	store, err := vectorstore.NewLocalStore(cfg.IndexPath, embedder)
	if err != nil {
		return err
	}

	applier := mcp.NewSessionApplier(cfg.CallTimeout)
	builder := router.NewBuilder(servers, store, applier, cfg.BuildParallelism)

	fmt.Printf("Building routing index for %d server(s)...\n", len(servers))
	result, err := builder.Build(cmd.Context())
	if err != nil {
		return err
	}

	for _, name := range result.Indexed {
		fmt.Printf("  ✓ %s\n", name)
	}
	failed := make([]string, 0, len(result.Failed))
	for name := range result.Failed {
		failed = append(failed, name)
	}
	sort.Strings(failed)
	for _, name := range failed {
		fmt.Printf("  ✗ %s: %v\n", name, result.Failed[name])
	}

	fmt.Printf("Indexed %d/%d server(s) into %s\n", len(result.Indexed), len(servers), cfg.IndexPath)
	if len(result.Failed) > 0 {
		fmt.Printf("Warning: %d server(s) were skipped and are not routable until the next successful build\n", len(result.Failed))
	}
	return nil
}
