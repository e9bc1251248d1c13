package llm

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"google.golang.org/genai"
)

const (
	// DefaultModel is the Gemini model used when none is configured.
	DefaultModel = "gemini-2.5-flash"
	// DefaultTimeout bounds a single generation call.
	DefaultTimeout = 60 * time.Second
	// DefaultMaxTokens is the default output token budget.
	DefaultMaxTokens = int32(4096)
	// DefaultTemperature favours consistent, evaluative output.
	DefaultTemperature = float32(0.2)
)

// ErrNotConfigured is returned by NewClient when no API key can be found.
var ErrNotConfigured = errors.New("gemini API key is not configured")

// Generator is the subset of the client used by callers that only need text
// generation. It lets tests substitute a fake backend.
type Generator interface {
	GenerateText(ctx context.Context, prompt string, options TextGenerationOptions) (string, error)
	ModelName() string
}

// Config configures a Client.
type Config struct {
	APIKey      string
	Model       string
	Timeout     time.Duration
	MaxTokens   int32
	Temperature float32
}

// Client represents a client for the Gemini API.
type Client struct {
	apiKey      string
	modelName   string
	timeout     time.Duration
	maxTokens   int32
	temperature float32
	gClient     *genai.Client
}

// TextGenerationOptions contains options for text generation
type TextGenerationOptions struct {
	MaxTokens         int32         // Maximum number of tokens to generate, client default when 0
	Temperature       float32       // Sampling temperature, client default when 0
	Model             string        // Model to use (optional, defaults to client's model)
	ResponseSchema    *genai.Schema // Optional: schema for structured JSON output
	SystemInstruction string        // Optional: system prompt
}

// NewClient creates a new Gemini client.
// The API key is taken from cfg, then from the environment:
// GEMINI_API_KEY, GOOGLE_GEMINI_API_KEY, GOOGLE_AI_API_KEY.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	apiKey := cfg.APIKey
	if apiKey == "" {
		for _, name := range []string{"GEMINI_API_KEY", "GOOGLE_GEMINI_API_KEY", "GOOGLE_AI_API_KEY"} {
			if apiKey = os.Getenv(name); apiKey != "" {
				break
			}
		}
	}
	if apiKey == "" {
		return nil, fmt.Errorf("%w: set GEMINI_API_KEY or ai.gemini.api_key in the config file", ErrNotConfigured)
	}

	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = DefaultTemperature
	}

	gClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &Client{
		apiKey:      apiKey,
		modelName:   cfg.Model,
		timeout:     cfg.Timeout,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		gClient:     gClient,
	}, nil
}

// ModelName returns the model name used by this client
func (c *Client) ModelName() string {
	return c.modelName
}

// GenerateText generates text using the LLM with specified options. Every
// call is bounded by the client timeout.
func (c *Client) GenerateText(ctx context.Context, prompt string, options TextGenerationOptions) (string, error) {
	if prompt == "" {
		return "", fmt.Errorf("prompt cannot be empty")
	}

	modelName := c.modelName
	if options.Model != "" {
		modelName = options.Model
	}

	contents := []*genai.Content{{
		Parts: []*genai.Part{{Text: prompt}},
		Role:  "user",
	}}

	config := c.buildConfig(options)

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.gClient.Models.GenerateContent(ctx, modelName, contents, config)
	if err != nil {
		return "", fmt.Errorf("failed to generate text: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("empty response from LLM")
	}

	return text, nil
}

func (c *Client) buildConfig(options TextGenerationOptions) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{
		MaxOutputTokens: c.maxTokens,
	}
	if options.MaxTokens > 0 {
		config.MaxOutputTokens = options.MaxTokens
	}

	temp := c.temperature
	if options.Temperature > 0 {
		temp = options.Temperature
	}
	config.Temperature = &temp

	if options.ResponseSchema != nil {
		config.ResponseMIMEType = "application/json"
		config.ResponseSchema = options.ResponseSchema
	}
	if options.SystemInstruction != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: options.SystemInstruction}},
		}
	}
	return config
}
