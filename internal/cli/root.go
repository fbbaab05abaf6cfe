// Package cli implements the reqmaster commands.
package cli

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/reqmaster/reqmaster/internal/ai"
	"github.com/reqmaster/reqmaster/internal/config"
	"github.com/reqmaster/reqmaster/internal/db"
)

var configFile string

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:          "reqmaster",
	Short:        "Requirements management with LLM analysis",
	SilenceUsage: true,
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Config file (default: ./reqmaster.yaml when present)")
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func openDB(cfg config.Config) (*gorm.DB, error) {
	gdb, err := db.Open(cfg.DBDSN)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	return gdb, nil
}

// newRegistry registers every completion backend the config can select.
func newRegistry(cfg config.Config) *ai.Registry {
	reg := ai.NewRegistry()
	reg.Register("openai", func(ctx context.Context, model string) (ai.Completer, error) {
		if model == "" {
			model = cfg.AIModel
		}
		return ai.NewOpenAIProvider(cfg.AIURL, cfg.AIAPIKey, model, cfg.AIMaxTokens, cfg.AITemperature, cfg.AITimeout), nil
	})
	reg.Register("ollama", func(ctx context.Context, model string) (ai.Completer, error) {
		if model == "" {
			model = cfg.OllamaModel
		}
		return ai.NewOllamaProvider(cfg.OllamaBaseURL, model, cfg.AIMaxTokens, cfg.AITemperature, cfg.AITimeout), nil
	})
	return reg
}

func newAnalyzer(ctx context.Context, cfg config.Config) (ai.Analyzer, error) {
	name := cfg.AIProvider
	if name == "" {
		name = "openai"
	}
	c, err := newRegistry(cfg).Get(ctx, name, "")
	if err != nil {
		return nil, err
	}
	if name == "openai" && strings.TrimSpace(cfg.AIAPIKey) == "" {
		log.Printf("warn: ai_api_key is empty, completion calls will fail")
	}
	return ai.NewAnalyzer(name, c), nil
}
