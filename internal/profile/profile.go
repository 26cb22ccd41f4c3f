package profile

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Profile is configuration to start the workflow CLI.
type Profile struct {
	// Unified LLM configuration (OpenAI-compatible protocol)
	// All providers (ollama, openai, deepseek, siliconflow) use the same config
	LLMProvider string // Provider identifier: ollama, openai, deepseek, siliconflow
	LLMAPIKey   string // API key (unused by ollama)
	LLMBaseURL  string // Base URL (optional, has default per provider)
	LLMModel    string // Model name: llama3.1, phi4, gpt-4o, etc.
	LLMTimeout  int    // LLM request timeout in seconds (default: 120)

	// Booking store configuration
	Driver string // jsonfile (default) or sqlite
	DSN    string // sqlite data source name (driver=sqlite only)
	Data   string // data directory for the jsonfile driver

	Mode    string // demo, dev, prod
	Version string
}

// Provider default configurations for LLM.
// Used when the base URL or model is not explicitly set.
var llmProviderDefaults = map[string]struct {
	BaseURL string
	Model   string
}{
	"ollama": {
		BaseURL: "http://localhost:11434/v1",
		Model:   "llama3.1",
	},
	"openai": {
		BaseURL: "https://api.openai.com/v1",
		Model:   "gpt-4o",
	},
	"deepseek": {
		BaseURL: "https://api.deepseek.com",
		Model:   "deepseek-chat",
	},
	"siliconflow": {
		BaseURL: "https://api.siliconflow.cn/v1",
		Model:   "Qwen/Qwen2.5-72B-Instruct",
	},
}

// getEnvOrDefault returns environment variable value or default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvOrDefaultInt returns environment variable value as int or default value.
func getEnvOrDefaultInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// FromEnv loads configuration from environment variables. Values already set
// (by flags) take precedence over the environment.
func (p *Profile) FromEnv() {
	if p.LLMProvider == "" {
		p.LLMProvider = getEnvOrDefault("AGENTFLOW_LLM_PROVIDER", "ollama")
	}
	if p.LLMAPIKey == "" {
		p.LLMAPIKey = getEnvOrDefault("AGENTFLOW_LLM_API_KEY", "")
	}
	if p.LLMBaseURL == "" {
		p.LLMBaseURL = getEnvOrDefault("AGENTFLOW_LLM_BASE_URL", "")
	}
	if p.LLMModel == "" {
		p.LLMModel = getEnvOrDefault("AGENTFLOW_LLM_MODEL", "")
	}
	if p.LLMTimeout <= 0 {
		p.LLMTimeout = getEnvOrDefaultInt("AGENTFLOW_LLM_TIMEOUT_SECONDS", 120)
	}

	if p.Driver == "" {
		p.Driver = getEnvOrDefault("AGENTFLOW_DRIVER", "jsonfile")
	}
	if p.DSN == "" {
		p.DSN = getEnvOrDefault("AGENTFLOW_DSN", "")
	}
	if p.Data == "" {
		p.Data = getEnvOrDefault("AGENTFLOW_DATA", ".")
	}

	// Apply provider defaults if not explicitly set
	if defaults, ok := llmProviderDefaults[p.LLMProvider]; ok {
		if p.LLMBaseURL == "" {
			p.LLMBaseURL = defaults.BaseURL
		}
		if p.LLMModel == "" {
			p.LLMModel = defaults.Model
		}
	}
}

// Validate checks the profile for usable values, normalizing where a default
// is sensible and failing where silence would hide a misconfiguration.
func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}

	if p.LLMModel == "" {
		return errors.Errorf("no model configured for provider %q", p.LLMProvider)
	}

	switch p.Driver {
	case "jsonfile":
		data, err := checkDataDir(p.Data)
		if err != nil {
			return err
		}
		p.Data = data
	case "sqlite":
		if p.DSN == "" {
			return errors.New("driver sqlite requires a dsn")
		}
	default:
		return errors.Errorf("unknown store driver %q (expected jsonfile or sqlite)", p.Driver)
	}

	return nil
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		absDir, err := filepath.Abs(dataDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	// Trim trailing \ or / in case user supplies
	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}
