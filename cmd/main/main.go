package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"waypoint/internal/logging"
	"waypoint/internal/version"
)

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "waypoint",
		Short: "Waypoint - route user queries to the right MCP server",
		Long: `Waypoint is a universal assistant over Model Context Protocol (MCP) servers.
It indexes the capabilities of every configured server, retrieves the best
candidates for a user query, and lets a model drive the selected server's
tools to answer.`,
		Version: version.GetVersionString(),
	}
)

func init() {
	cobra.OnInitialize(initConfig)
	cobra.OnInitialize(initLogging)

	rootCmd.SetVersionTemplate(version.GetFullVersionString() + "\n")

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./waypoint.yaml)")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))

	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(askCmd)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName("waypoint")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("WAYPOINT")

	if err := viper.ReadInConfig(); err == nil {
		logging.Debug("Using config file: %s", viper.ConfigFileUsed())
	}
}

func initLogging() {
	logging.Initialize(viper.GetBool("debug"))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}
