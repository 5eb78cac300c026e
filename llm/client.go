// Package llm provides the text rewriting backends: an OpenAI-compatible
// chat client and a fixed-prefix stand-in used when no endpoint is set.
package llm

import (
	"net/http"

	openai "github.com/sashabaranov/go-openai"
)

// ClientConfig describes an OpenAI-compatible endpoint.
type ClientConfig struct {
	APIKey string
	// BaseURL overrides the OpenAI API URL, e.g. a local Ollama or vLLM server
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient creates a go-openai client for cfg.
func NewClient(cfg ClientConfig) *openai.Client {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	if cfg.HTTPClient != nil {
		clientConfig.HTTPClient = cfg.HTTPClient
	}
	return openai.NewClientWithConfig(clientConfig)
}
