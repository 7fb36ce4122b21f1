// Command agrimarket answers questions about agricultural commodity markets.
package main

import (
	"fmt"
	"os"

	"github.com/siherrmann/agrimarket"
	"github.com/siherrmann/agrimarket/config"
	"github.com/siherrmann/agrimarket/helper"
	"github.com/spf13/cobra"
)

// Build-time variables (set via -ldflags)
var (
	version = "dev"
	commit  = "unknown"
)

var cfg *config.Config

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "agrimarket",
	Short:         "Commodity market question answering",
	Long:          "Answers questions about corn, wheat, soybean, soybean meal, soybean oil and palm oil markets\nfrom stored prices, sentiment summaries, news and unit calculations.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if level, _ := cmd.Flags().GetString("log-level"); level != "" {
			cfg.Logging.Level = level
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(serveCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("agrimarket %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
	},
}

// open connects to the database and, unless structuredOnly is set, loads the
// embedding pipeline
func open(cmd *cobra.Command, structuredOnly bool) (*agrimarket.Agrimarket, error) {
	dbConfig, err := helper.NewDatabaseConfiguration()
	if err != nil {
		return nil, err
	}

	a, err := agrimarket.NewAgrimarket(dbConfig, cfg)
	if err != nil {
		return nil, err
	}

	if !structuredOnly {
		err = a.UseDefaultPipeline(cmd.Context())
		if err != nil {
			_ = a.Close()
			return nil, err
		}
	}
	return a, nil
}
