package oracle

import (
	"context"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/gangwaa/NerualAdsV2/internal/core"
)

// OpenAI completes prompts against an OpenAI-compatible chat endpoint.
type OpenAI struct {
	client *openai.LLM
	model  string
}

// NewOpenAI creates an OpenAI oracle. BaseURL may point at any
// OpenAI-compatible server.
func NewOpenAI(cfg Config) (*OpenAI, error) {
	if cfg.APIKey == "" {
		return nil, core.ErrProvider("openai", core.CodeProviderAuth, "api key required")
	}
	opts := []openai.Option{openai.WithToken(cfg.APIKey)}
	if cfg.Model != "" {
		opts = append(opts, openai.WithModel(cfg.Model))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}

	client, err := openai.New(opts...)
	if err != nil {
		return nil, TranslateError("openai", err)
	}
	return &OpenAI{client: client, model: cfg.Model}, nil
}

// Name implements core.Oracle.
func (o *OpenAI) Name() string { return "openai" }

// Complete implements core.Oracle.
func (o *OpenAI) Complete(ctx context.Context, req core.OracleRequest) (string, error) {
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, req.SystemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, req.UserPrompt),
	}
	opts := []llms.CallOption{llms.WithTemperature(req.Temperature)}
	if req.MaxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(req.MaxTokens))
	}
	if req.JSON {
		opts = append(opts, llms.WithJSONMode())
	}

	resp, err := o.client.GenerateContent(ctx, messages, opts...)
	if err != nil {
		return "", TranslateError("openai", err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Content) == "" {
		return "", ErrEmptyResponse("openai")
	}
	return resp.Choices[0].Content, nil
}
