package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"waypoint/internal/assistant"
	"waypoint/internal/config"
	"waypoint/internal/llm"
	"waypoint/internal/mcp"
	"waypoint/internal/vectorstore"
	"waypoint/pkg/models"
)

var askCmd = &cobra.Command{
	Use:   "ask <query>",
	Short: "Ask the assistant a question",
	Long: `Ask routes the query against the routing index, selects the most relevant
MCP server, and drives its tools to produce an answer. Run 'waypoint build'
first so the index reflects the configured servers.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().Bool("verbose", false, "print tool invocations alongside the answer")
	viper.BindPFlag("verbose", askCmd.Flags().Lookup("verbose"))
}

func runAsk(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	servers, err := models.LoadServerMap(cfg.ServersPath)
	if err != nil {
		return err
	}

	embedder := vectorstore.NewOpenAIEmbedder(cfg.AIAPIKey, cfg.AIBaseURL, cfg.EmbeddingModel)
	store, err := vectorstore.NewLocalStore(cfg.IndexPath, embedder)
	if err != nil {
		return err
	}
	if store.Len() == 0 {
		return fmt.Errorf("routing index %s is empty; run 'waypoint build' first", cfg.IndexPath)
	}

	model, err := llm.NewClient(cmd.Context(), cfg.AIProvider, cfg.AIModel, cfg.AIAPIKey, cfg.AIBaseURL)
	if err != nil {
		return err
	}

	a := assistant.New(servers, store, mcp.NewSessionApplier(cfg.CallTimeout), model, assistant.Options{
		TopK:     cfg.TopK,
		MinScore: cfg.MinScore,
		MaxTurns: cfg.MaxTurns,
	})

	query := strings.Join(args, " ")
	answer, err := a.Answer(cmd.Context(), []assistant.Message{
		{Role: assistant.RoleUser, Content: query},
	})
	if err != nil {
		return err
	}

	if viper.GetBool("verbose") {
		if answer.ServerName != "" {
			fmt.Printf("Server: %s\n", answer.ServerName)
		}
		for _, call := range answer.ToolCalls {
			status := "ok"
			if call.Error != "" {
				status = "error: " + call.Error
			}
			fmt.Printf("Tool: %s/%s (%s)\n", call.ServerName, call.ToolName, status)
		}
	}

	fmt.Println(answer.Text)
	return nil
}
