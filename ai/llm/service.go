// Package llm provides the chat-completion service every workflow step is
// built on. It speaks the OpenAI-compatible protocol, so any provider that
// exposes it (a local Ollama instance by default) works unchanged.
package llm

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"
)

// Message represents a chat message.
type Message struct {
	Role    string // system, user, assistant
	Content string
}

// CallStats represents statistics for a single LLM call.
type CallStats struct {
	// PromptTokens is the number of tokens in the input prompt.
	PromptTokens int `json:"prompt_tokens"`

	// CompletionTokens is the number of tokens in the generated response.
	CompletionTokens int `json:"completion_tokens"`

	// TotalTokens is the sum of prompt and completion tokens.
	TotalTokens int `json:"total_tokens"`

	// TotalDurationMs is the total wall-clock time for the request.
	TotalDurationMs int64 `json:"total_duration_ms"`
}

// StructuredRequest describes a schema-constrained chat call. The model is
// asked to return JSON conforming to Schema; Temperature overrides the
// service default for this call only (extraction steps run colder than
// generation steps).
type StructuredRequest struct {
	// Name identifies the output shape to the provider (required by the
	// json_schema response format).
	Name string

	// Schema constrains the response body.
	Schema *JSONSchema

	// Temperature for this call. The zero value is a valid temperature,
	// so it is always sent as-is.
	Temperature float32
}

// Service is the LLM service interface. Every workflow step runs through
// ChatStructured; there is no unconstrained chat surface.
type Service interface {
	// ChatStructured performs chat with a schema-constrained response.
	// Returns the raw response text; decoding into a typed contract is the
	// caller's concern (see Decode and Invoke).
	ChatStructured(ctx context.Context, messages []Message, req StructuredRequest) (string, *CallStats, error)

	// Warmup sends a lightweight ping request to establish and warm up the
	// connection to the model server.
	Warmup(ctx context.Context)
}

// Config represents LLM service configuration.
type Config struct {
	Provider  string // ollama, openai, deepseek, siliconflow
	Model     string // llama3.1, phi4, gpt-4o, deepseek-chat
	APIKey    string
	BaseURL   string
	MaxTokens int // default: 2048
	Timeout   int // Request timeout in seconds (default: 120)
}

type service struct {
	client    *openai.Client
	model     string
	provider  string
	maxTokens int
	timeout   int // Request timeout in seconds
}

// NewService creates a new LLM Service.
func NewService(cfg *Config) (Service, error) {
	var clientConfig openai.ClientConfig

	httpClient := newHTTPClient()

	switch cfg.Provider {
	// --- Local Providers ---
	case "ollama":
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434/v1"
		}
		// Ollama ignores the key but the client requires a non-empty one.
		apiKey := cfg.APIKey
		if apiKey == "" {
			apiKey = "ollama"
		}
		clientConfig = openai.DefaultConfig(apiKey)
		clientConfig.BaseURL = baseURL
		clientConfig.HTTPClient = httpClient

	// --- Hosted Providers ---
	case "openai":
		clientConfig = openai.DefaultConfig(cfg.APIKey)
		if cfg.BaseURL != "" {
			clientConfig.BaseURL = cfg.BaseURL
		}
		clientConfig.HTTPClient = httpClient

	case "deepseek":
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = "https://api.deepseek.com"
		}
		clientConfig = openai.DefaultConfig(cfg.APIKey)
		clientConfig.BaseURL = baseURL
		clientConfig.HTTPClient = httpClient

	case "siliconflow":
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = "https://api.siliconflow.cn/v1"
		}
		clientConfig = openai.DefaultConfig(cfg.APIKey)
		clientConfig.BaseURL = baseURL
		clientConfig.HTTPClient = httpClient

	default:
		// Generic fallback for any other OpenAI-compatible provider
		slog.Info("Using generic OpenAI-compatible provider", "provider", cfg.Provider)
		clientConfig = openai.DefaultConfig(cfg.APIKey)
		if cfg.BaseURL != "" {
			clientConfig.BaseURL = cfg.BaseURL
		}
		clientConfig.HTTPClient = httpClient
	}

	client := openai.NewClientWithConfig(clientConfig)

	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 2048
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 120 // Default 120 seconds
	}

	return &service{
		client:    client,
		model:     cfg.Model,
		provider:  cfg.Provider,
		maxTokens: maxTokens,
		timeout:   timeout,
	}, nil
}

func (s *service) ChatStructured(ctx context.Context, messages []Message, sr StructuredRequest) (string, *CallStats, error) {
	if sr.Schema == nil {
		return "", nil, fmt.Errorf("structured request %q has no schema", sr.Name)
	}

	ctx, cancel := context.WithTimeout(ctx, time.Duration(s.timeout)*time.Second)
	defer cancel()

	slog.Debug("LLM: structured request",
		"model", s.model,
		"shape", sr.Name,
		"temperature", sr.Temperature,
		"messages_count", len(messages),
	)

	startTime := time.Now()

	req := openai.ChatCompletionRequest{
		Model:       s.model,
		MaxTokens:   s.maxTokens,
		Temperature: sr.Temperature,
		Messages:    convertMessages(messages),
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   sr.Name,
				Strict: true,
				Schema: sr.Schema,
			},
		},
	}

	resp, err := s.client.CreateChatCompletion(ctx, req)
	if err != nil {
		slog.Error("LLM: structured request failed", "shape", sr.Name, "error", err)
		return "", nil, fmt.Errorf("LLM structured chat %q failed: %w", sr.Name, err)
	}

	if len(resp.Choices) == 0 {
		return "", nil, fmt.Errorf("empty response from LLM for shape %q", sr.Name)
	}

	stats := newCallStats(&resp, time.Since(startTime))

	slog.Debug("LLM: structured response received",
		"shape", sr.Name,
		"content_length", len(resp.Choices[0].Message.Content),
		"total_tokens", stats.TotalTokens,
		"duration_ms", stats.TotalDurationMs,
	)

	return resp.Choices[0].Message.Content, stats, nil
}

func (s *service) Warmup(ctx context.Context) {
	warmupCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	slog.Info("LLM: starting connection warmup",
		"provider", s.provider,
		"model", s.model,
	)

	startTime := time.Now()

	req := openai.ChatCompletionRequest{
		Model:       s.model,
		MaxTokens:   1,
		Temperature: 0,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: "Hi"},
		},
	}

	_, err := s.client.CreateChatCompletion(warmupCtx, req)

	duration := time.Since(startTime)

	if err != nil {
		slog.Warn("LLM: warmup ping failed (service will still work, first request may be slower)",
			"provider", s.provider,
			"model", s.model,
			"error", err,
			"duration_ms", duration.Milliseconds(),
		)
		return
	}

	slog.Info("LLM: connection warmed up successfully",
		"provider", s.provider,
		"model", s.model,
		"duration_ms", duration.Milliseconds(),
	)
}

func newCallStats(resp *openai.ChatCompletionResponse, d time.Duration) *CallStats {
	return &CallStats{
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
		TotalDurationMs:  d.Milliseconds(),
	}
}

func convertMessages(messages []Message) []openai.ChatCompletionMessage {
	llmMessages := make([]openai.ChatCompletionMessage, len(messages))
	for i, m := range messages {
		switch m.Role {
		case "system":
			llmMessages[i] = openai.ChatCompletionMessage{
				Role:    openai.ChatMessageRoleSystem,
				Content: m.Content,
			}
		case "assistant":
			llmMessages[i] = openai.ChatCompletionMessage{
				Role:    openai.ChatMessageRoleAssistant,
				Content: m.Content,
			}
		default:
			llmMessages[i] = openai.ChatCompletionMessage{
				Role:    openai.ChatMessageRoleUser,
				Content: m.Content,
			}
		}
	}
	return llmMessages
}

func newHTTPClient() *http.Client {
	return &http.Client{
		Timeout: 60 * time.Second,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   30 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:          100,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}
}

// Helper for creating system prompts.
func SystemPrompt(content string) Message {
	return Message{Role: "system", Content: content}
}

// Helper for creating user messages.
func UserMessage(content string) Message {
	return Message{Role: "user", Content: content}
}
