package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// Prefixes used by PrefixRewriter.
const (
	ParaphrasePrefix = "Paraphrased version of: "
	RewritePrefix    = "Rewritten version of: "
)

const (
	paraphrasePrompt = "Paraphrase the text the user sends. Keep the meaning and roughly the same length, change the wording and sentence structure. Reply with the paraphrased text only."
	rewritePrompt    = "Rewrite the article the user sends so it reads as original content. Keep the facts, headings and paragraph breaks. Reply with the rewritten article only."
)

// ErrEmptyCompletion is returned when the model answers with no text.
var ErrEmptyCompletion = errors.New("llm: empty completion")

// ChatCompleter is the part of *openai.Client used by OpenAIRewriter.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAIRewriter paraphrases and rewrites text with a chat model.
type OpenAIRewriter struct {
	client      ChatCompleter
	model       string
	temperature float32
}

// NewOpenAIRewriter returns a rewriter using model on client.
func NewOpenAIRewriter(client ChatCompleter, model string) *OpenAIRewriter {
	return &OpenAIRewriter{client: client, model: model, temperature: 0.7}
}

// Paraphrase rewords a short passage.
func (r *OpenAIRewriter) Paraphrase(ctx context.Context, text string) (string, error) {
	return r.complete(ctx, paraphrasePrompt, text)
}

// Rewrite rewrites a full article.
func (r *OpenAIRewriter) Rewrite(ctx context.Context, text string) (string, error) {
	return r.complete(ctx, rewritePrompt, text)
}

func (r *OpenAIRewriter) complete(ctx context.Context, system, text string) (string, error) {
	resp, err := r.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       r.model,
		Temperature: r.temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
	})
	if err != nil {
		return "", fmt.Errorf("llm: chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}

	out := strings.TrimSpace(resp.Choices[0].Message.Content)
	if out == "" {
		return "", ErrEmptyCompletion
	}
	return out, nil
}

// PrefixRewriter labels the input instead of rewriting it. It keeps the
// tools answering when no model is configured.
type PrefixRewriter struct{}

// Paraphrase returns ParaphrasePrefix + text.
func (PrefixRewriter) Paraphrase(ctx context.Context, text string) (string, error) {
	return ParaphrasePrefix + text, nil
}

// Rewrite returns RewritePrefix + text.
func (PrefixRewriter) Rewrite(ctx context.Context, text string) (string, error) {
	return RewritePrefix + text, nil
}
