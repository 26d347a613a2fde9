// Package openai implements the oracle client on top of the OpenAI API.
package openai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/DamirAkzhigitov/offer-parser/pkg/config"
	"github.com/DamirAkzhigitov/offer-parser/pkg/oracle"

	osdk "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
)

type Client struct {
	client         osdk.Client
	requestTimeout time.Duration
}

// New validates oracle configuration and constructs an OpenAI-backed client.
func New(cfg config.OracleConfig) (*Client, error) {
	apiKey := resolveAPIKey(cfg)
	if apiKey == "" {
		return nil, errors.New("oracle.api_key_env is required or OPENAI_API_KEY must be set")
	}

	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL := strings.TrimSpace(cfg.BaseURL); baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if organization := strings.TrimSpace(cfg.Organization); organization != "" {
		opts = append(opts, option.WithOrganization(organization))
	}
	if project := strings.TrimSpace(cfg.Project); project != "" {
		opts = append(opts, option.WithProject(project))
	}

	requestTimeout := time.Duration(cfg.RequestTimeoutSeconds) * time.Second
	if requestTimeout > 0 {
		opts = append(opts, option.WithRequestTimeout(requestTimeout))
	}

	return &Client{
		client:         osdk.NewClient(opts...),
		requestTimeout: requestTimeout,
	}, nil
}

// Health verifies the API is reachable with the configured credentials.
func (c *Client) Health(ctx context.Context) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	log := oracleLogger().With("operation", "health")
	startedAt := time.Now()
	log.Debug("oracle request started")

	if _, err := c.client.Models.List(ctx); err != nil {
		log.Debug("oracle request failed", "duration_ms", time.Since(startedAt).Milliseconds(), "error", err)
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Debug("oracle request completed", "duration_ms", time.Since(startedAt).Milliseconds())

	return nil
}

// Complete issues one chat completion. A request carrying a schema is
// forced into strict JSON-schema response mode.
func (c *Client) Complete(ctx context.Context, req oracle.Request) (string, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	log := oracleLogger().With("operation", "complete")
	startedAt := time.Now()

	model := strings.TrimSpace(req.Model)
	if model == "" {
		return "", errors.New("model is required")
	}

	user := strings.TrimSpace(req.User)
	if user == "" {
		return "", errors.New("user prompt is required")
	}

	messages := make([]osdk.ChatCompletionMessageParamUnion, 0, 2)
	if system := strings.TrimSpace(req.System); system != "" {
		messages = append(messages, osdk.SystemMessage(system))
	}
	messages = append(messages, osdk.UserMessage(user))

	params := osdk.ChatCompletionNewParams{
		Model:       shared.ChatModel(model),
		Messages:    messages,
		Temperature: osdk.Float(req.Temperature),
	}

	structured := req.Schema != nil
	if structured {
		params.ResponseFormat = osdk.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &shared.ResponseFormatJSONSchemaParam{
				JSONSchema: shared.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:   req.Schema.Name,
					Schema: req.Schema.Definition,
					Strict: osdk.Bool(true),
				},
			},
		}
	}

	log.Debug("oracle request started",
		"model", model,
		"temperature", req.Temperature,
		"structured", structured,
		"prompt_length", len(user),
	)

	completion, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		log.Debug("oracle request failed", "duration_ms", time.Since(startedAt).Milliseconds(), "error", err)
		return "", fmt.Errorf("completion failed: %w", err)
	}
	if len(completion.Choices) == 0 {
		log.Debug("oracle request failed", "duration_ms", time.Since(startedAt).Milliseconds(), "error", "no choices")
		return "", errors.New("completion returned no choices")
	}

	text := strings.TrimSpace(completion.Choices[0].Message.Content)
	if text == "" {
		log.Debug("oracle request failed", "duration_ms", time.Since(startedAt).Milliseconds(), "error", "no output text")
		return "", errors.New("completion succeeded but returned no text")
	}
	log.Debug("oracle request completed", "duration_ms", time.Since(startedAt).Milliseconds(), "response_length", len(text))

	return text, nil
}

func oracleLogger() *slog.Logger {
	return slog.Default().With("component", "oracle.openai")
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.requestTimeout <= 0 {
		return ctx, func() {}
	}

	return context.WithTimeout(ctx, c.requestTimeout)
}

func resolveAPIKey(cfg config.OracleConfig) string {
	if apiKeyEnv := strings.TrimSpace(cfg.APIKeyEnv); apiKeyEnv != "" {
		if apiKey := strings.TrimSpace(os.Getenv(apiKeyEnv)); apiKey != "" {
			return apiKey
		}
	}

	return strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
}
