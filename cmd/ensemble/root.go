package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mmichie/ensemble/pkg/ensemble/config"
	"github.com/mmichie/ensemble/pkg/ensemble/intent"
	"github.com/mmichie/ensemble/pkg/ensemble/pipeline"
	"github.com/mmichie/ensemble/pkg/ensemble/provider"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "ensemble",
	Short: "ensemble runs one prompt through multiple AI providers and synthesizes the answers",
	Long: `ensemble classifies each request, generates drafts with two AI providers
in parallel, and synthesizes them into a single response. A provider
failure degrades the run instead of aborting it.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		viper.SetDefault("classifier_provider", "openai")
		viper.SetDefault("classifier_model", "gpt-4o-mini")

		viper.BindEnv("openai_api_key", "OPENAI_API_KEY")
		viper.BindEnv("gemini_api_key", "GEMINI_API_KEY")

		setupLogging()
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.ensemble.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")

	rootCmd.AddCommand(versionCmd)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".ensemble")
	}

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		if verbose {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	}
}

func setupLogging() {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// buildOrchestrator wires the provider registry, pipeline registry and
// classifier from the environment. At least one provider key must be
// set; the reference pipelines need both.
func buildOrchestrator(opts ...pipeline.Option) (*pipeline.Orchestrator, error) {
	source := provider.NewRegistry()

	registered := 0
	if cfg := config.FromEnvironment("OPENAI"); cfg.APIKey != "" {
		if err := source.RegisterFactory(&provider.OpenAIFactory{}, cfg); err != nil {
			return nil, err
		}
		registered++
	}
	if cfg := config.FromEnvironment("GEMINI"); cfg.APIKey != "" {
		if err := source.RegisterFactory(&provider.GeminiFactory{}, cfg); err != nil {
			return nil, err
		}
		registered++
	}
	if registered == 0 {
		return nil, fmt.Errorf("no providers configured; set OPENAI_API_KEY and GEMINI_API_KEY")
	}

	classifierProvider, err := source.Provider(
		viper.GetString("classifier_provider"),
		viper.GetString("classifier_model"))
	if err != nil {
		return nil, fmt.Errorf("classifier provider: %w", err)
	}

	return pipeline.New(
		source,
		pipeline.DefaultRegistry(),
		intent.NewClassifier(classifierProvider),
		opts...), nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of ensemble",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("ensemble v0.1.0")
	},
}
