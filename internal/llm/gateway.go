package llm

import (
	"context"
	"fmt"

	"github.com/anishgoyal/promptforge/internal/config"
)

// Gateway routes completion requests to the configured provider and fills in
// model/temperature defaults. Calls are issued exactly once: retry and backoff
// policy belongs to callers, not here.
type Gateway struct {
	providers       map[string]Provider
	defaultProvider string
	defaultModel    string
	temperature     float64
	maxTokens       int
}

func NewGateway(cfg config.LLMConfig) *Gateway {
	g := &Gateway{
		providers:       make(map[string]Provider),
		defaultProvider: cfg.DefaultProvider,
		defaultModel:    cfg.DefaultModel,
		temperature:     cfg.Temperature,
		maxTokens:       cfg.MaxTokens,
	}

	if cfg.OpenAIKey != "" {
		g.providers["openai"] = NewOpenAIProvider(cfg.OpenAIKey, cfg.OpenAIBaseURL)
	}
	if cfg.AnthropicKey != "" {
		g.providers["anthropic"] = NewAnthropicProvider(cfg.AnthropicKey)
	}

	return g
}

func (g *Gateway) Provider(name string) (Provider, error) {
	p, ok := g.providers[name]
	if !ok {
		return nil, fmt.Errorf("provider %q not configured", name)
	}
	return p, nil
}

func (g *Gateway) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	providerName := req.Provider
	if providerName == "" {
		providerName = g.defaultProvider
	}
	if req.Model == "" {
		req.Model = g.defaultModel
	}
	if req.Temperature == 0 {
		req.Temperature = g.temperature
	}
	if req.MaxTokens == 0 {
		req.MaxTokens = g.maxTokens
	}

	p, err := g.Provider(providerName)
	if err != nil {
		return nil, err
	}
	return p.Complete(ctx, req)
}

// Embed routes to the first provider that supports embeddings. Only OpenAI
// does today.
func (g *Gateway) Embed(ctx context.Context, model string, texts []string) ([][]float32, error) {
	p, err := g.Provider("openai")
	if err != nil {
		return nil, fmt.Errorf("embeddings require an openai provider: %w", err)
	}
	return p.Embed(ctx, model, texts)
}
