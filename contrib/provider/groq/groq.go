// Package groq configures the OpenAI-compatible client for Groq's hosted models.
package groq

import (
	"github.com/sweetpotato0/nyaya/contrib/provider/openai"
)

const (
	BaseURL      = "https://api.groq.com/openai/v1"
	DefaultModel = "llama-3.1-8b-instant"
)

func New(apiKey, model string) (*openai.Provider, error) {
	if model == "" {
		model = DefaultModel
	}
	return openai.New(openai.Config{
		Name:    "groq",
		APIKey:  apiKey,
		BaseURL: BaseURL,
		Model:   model,
	})
}
