package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hrygo/agentflow/ai/llm"
	"github.com/hrygo/agentflow/internal/profile"
	"github.com/hrygo/agentflow/internal/version"
	"github.com/hrygo/agentflow/store"
)

var rootCmd = &cobra.Command{
	Use:   "agentflow",
	Short: "Agentic workflow patterns against any OpenAI-compatible model server (local Ollama by default).",
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		// Try to load .env file from current directory (ignore error if file doesn't exist)
		_ = godotenv.Load()
		return nil
	},
}

func init() {
	viper.SetDefault("mode", "demo")
	viper.SetDefault("provider", "ollama")
	viper.SetDefault("driver", "jsonfile")
	viper.SetDefault("data", ".")

	rootCmd.PersistentFlags().String("mode", "demo", `mode, can be "prod" or "dev" or "demo"`)
	rootCmd.PersistentFlags().String("provider", "ollama", "LLM provider (ollama, openai, deepseek, siliconflow)")
	rootCmd.PersistentFlags().String("model", "", "model name (defaults per provider)")
	rootCmd.PersistentFlags().String("api-key", "", "LLM API key (unused by ollama)")
	rootCmd.PersistentFlags().String("base-url", "", "LLM base URL (defaults per provider)")
	rootCmd.PersistentFlags().Int("timeout", 120, "LLM request timeout in seconds")
	rootCmd.PersistentFlags().String("driver", "jsonfile", "booking store driver (jsonfile, sqlite)")
	rootCmd.PersistentFlags().String("dsn", "", "sqlite data source name (driver=sqlite only)")
	rootCmd.PersistentFlags().String("data", ".", "data directory for the jsonfile driver")

	for _, name := range []string{"mode", "provider", "model", "api-key", "base-url", "timeout", "driver", "dsn", "data"} {
		if err := viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name)); err != nil {
			panic(err)
		}
	}

	viper.SetEnvPrefix("agentflow")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	rootCmd.AddCommand(newBookCmd())
	rootCmd.AddCommand(newTripCmd())
	rootCmd.AddCommand(newCampaignCmd())
	rootCmd.AddCommand(newRefineCmd())
	rootCmd.AddCommand(newVersionCmd())
}

// loadProfile builds the runtime profile from flags and environment.
func loadProfile() (*profile.Profile, error) {
	p := &profile.Profile{
		Mode:        viper.GetString("mode"),
		LLMProvider: viper.GetString("provider"),
		LLMModel:    viper.GetString("model"),
		LLMAPIKey:   viper.GetString("api-key"),
		LLMBaseURL:  viper.GetString("base-url"),
		LLMTimeout:  viper.GetInt("timeout"),
		Driver:      viper.GetString("driver"),
		DSN:         viper.GetString("dsn"),
		Data:        viper.GetString("data"),
	}
	p.FromEnv()
	p.Version = version.GetCurrentVersion(p.Mode)
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if p.Mode == "dev" {
		logLevel.Set(slog.LevelDebug)
	}
	return p, nil
}

// newLLMService builds the LLM service from the profile.
func newLLMService(p *profile.Profile) (llm.Service, error) {
	svc, err := llm.NewService(&llm.Config{
		Provider: p.LLMProvider,
		Model:    p.LLMModel,
		APIKey:   p.LLMAPIKey,
		BaseURL:  p.LLMBaseURL,
		Timeout:  p.LLMTimeout,
	})
	if err != nil {
		return nil, err
	}

	// Warm the connection in the background while the request text is
	// gathered, so the first workflow call does not pay for it.
	go svc.Warmup(context.Background())

	return svc, nil
}

// openStore opens the booking store from the profile.
func openStore(p *profile.Profile) (store.Store, error) {
	return store.New(p)
}

// stdinAsker reads one line from standard input after printing the prompt.
func stdinAsker(prompt string) (string, error) {
	fmt.Print(prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Println(version.GetCurrentVersion(viper.GetString("mode")))
		},
	}
}

// logLevel is raised to debug when the profile runs in dev mode.
var logLevel = new(slog.LevelVar)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})))

	if err := rootCmd.Execute(); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}
