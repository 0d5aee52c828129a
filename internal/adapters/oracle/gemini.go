package oracle

import (
	"context"
	"strings"

	"google.golang.org/genai"

	"github.com/gangwaa/NerualAdsV2/internal/core"
)

// Gemini completes prompts against the Gemini API.
type Gemini struct {
	client *genai.Client
	model  string
}

// NewGemini creates a Gemini oracle.
func NewGemini(ctx context.Context, cfg Config) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, core.ErrProvider("gemini", core.CodeProviderAuth, "api key required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, TranslateError("gemini", err)
	}
	return &Gemini{client: client, model: cfg.Model}, nil
}

// Name implements core.Oracle.
func (g *Gemini) Name() string { return "gemini" }

// Complete implements core.Oracle.
func (g *Gemini) Complete(ctx context.Context, req core.OracleRequest) (string, error) {
	gen := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(req.Temperature)),
	}
	if req.SystemPrompt != "" {
		gen.SystemInstruction = genai.NewContentFromText(req.SystemPrompt, genai.RoleUser)
	}
	if req.MaxTokens > 0 {
		gen.MaxOutputTokens = int32(req.MaxTokens)
	}
	if req.JSON {
		gen.ResponseMIMEType = "application/json"
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(req.UserPrompt), gen)
	if err != nil {
		return "", TranslateError("gemini", err)
	}
	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyResponse("gemini")
	}
	return text, nil
}
