package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ledgermap/ledgermap/internal/common"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	version = "dev"
	rootCmd = &cobra.Command{
		Use:   "ledgermap",
		Short: "Financial statement mapper for accounting line items",
		Long: `ledgermap classifies free-text accounting line items into Balance Sheet
or Profit & Loss by running a cascade of matching strategies, from exact
lookup through fuzzy and semantic similarity to an LLM fallback, stopping
at the first confident answer.`,
		PersistentPreRunE: initConfig,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.config/ledgermap/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "console", "log format (console, json)")
	rootCmd.PersistentFlags().String("training", "", "training data CSV file")
	rootCmd.PersistentFlags().String("training-db", "", "training data SQLite database")
	rootCmd.PersistentFlags().Float64("fuzzy-threshold", 0.85, "minimum fuzzy match score")
	rootCmd.PersistentFlags().Float64("semantic-threshold", 0.80, "minimum semantic similarity")
	rootCmd.PersistentFlags().Float64("embedding-threshold", 0.80, "minimum embedding similarity")
	rootCmd.PersistentFlags().Float64("review-threshold", 0.70, "confidence below this flags the result for review")
	rootCmd.PersistentFlags().String("lexicon", "", "word-vector file for the semantic strategy")
	rootCmd.PersistentFlags().String("domain", "", "business domain preset for the LLM strategy")

	_ = viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("logging.format", rootCmd.PersistentFlags().Lookup("log-format"))
	_ = viper.BindPFlag("training.file", rootCmd.PersistentFlags().Lookup("training"))
	_ = viper.BindPFlag("training.database", rootCmd.PersistentFlags().Lookup("training-db"))
	_ = viper.BindPFlag("thresholds.fuzzy", rootCmd.PersistentFlags().Lookup("fuzzy-threshold"))
	_ = viper.BindPFlag("thresholds.semantic", rootCmd.PersistentFlags().Lookup("semantic-threshold"))
	_ = viper.BindPFlag("thresholds.embedding", rootCmd.PersistentFlags().Lookup("embedding-threshold"))
	_ = viper.BindPFlag("thresholds.review", rootCmd.PersistentFlags().Lookup("review-threshold"))
	_ = viper.BindPFlag("semantic.lexicon", rootCmd.PersistentFlags().Lookup("lexicon"))
	_ = viper.BindPFlag("domain", rootCmd.PersistentFlags().Lookup("domain"))

	rootCmd.AddCommand(classifyCmd())
	rootCmd.AddCommand(batchCmd())
	rootCmd.AddCommand(trainCmd())
	rootCmd.AddCommand(versionCmd())
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		slog.Info("Received interrupt signal, shutting down gracefully...")
		cancel()
	}()

	err := rootCmd.ExecuteContext(ctx)
	cancel()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initConfig(_ *cobra.Command, _ []string) error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}

		viper.AddConfigPath(fmt.Sprintf("%s/.config/ledgermap", home))
		viper.AddConfigPath(".")
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("LEDGERMAP")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found is OK, we'll use defaults
	}

	if err := common.SetupLogger(viper.GetString("logging.level"), viper.GetString("logging.format")); err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}

	return nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("ledgermap %s\n", version)
		},
	}
}
