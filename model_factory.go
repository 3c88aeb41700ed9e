package tripagent

import (
	"context"
	"fmt"

	"github.com/Desarso/tripagent/models/anthropic"
	"github.com/Desarso/tripagent/models/gemini"
	"github.com/Desarso/tripagent/models/openai"
	"github.com/Desarso/tripagent/prefs"
)

// NewModel builds the configured provider, wrapped in retries.
func NewModel(ctx context.Context, cfg *Config) (Model, error) {
	var m Model
	name := cfg.ModelName
	if cfg.ModelProvider != "openai" && name == openai.DefaultModel {
		name = ""
	}
	switch cfg.ModelProvider {
	case "", "openai", "deepseek":
		m = openai.New(cfg.ModelAPIKey, cfg.ModelBaseURL, cfg.ModelName)
	case "gemini":
		g, err := gemini.New(ctx, cfg.GeminiAPIKey, name)
		if err != nil {
			return nil, err
		}
		m = g
	case "anthropic":
		key := cfg.AnthropicAPIKey
		if key == "" {
			key = cfg.ModelAPIKey
		}
		m = anthropic.New(key, "", name)
	default:
		return nil, fmt.Errorf("unsupported model provider: %s", cfg.ModelProvider)
	}
	return NewRetryingModel(m, 3), nil
}

// NewPreferenceCompleter picks the model used for preference inference.
// "agent" reuses the chat model.
func NewPreferenceCompleter(ctx context.Context, cfg *Config, agent *Agent) (prefs.Completer, error) {
	switch cfg.PreferenceProvider {
	case "", "agent":
		return agent, nil
	case "gemini":
		return prefs.NewGeminiCompleter(ctx, cfg.GeminiAPIKey, cfg.PreferenceModel)
	default:
		return nil, fmt.Errorf("unsupported preference provider: %s", cfg.PreferenceProvider)
	}
}
