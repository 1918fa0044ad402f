package completion

import (
	"context"
	"errors"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	anthropicoption "github.com/anthropics/anthropic-sdk-go/option"
)

// DefaultAnthropicModel is used when no model is configured.
const DefaultAnthropicModel = "claude-3-5-haiku-latest"

// anthropicMaxTokens caps the answer length; the Messages API requires a limit.
const anthropicMaxTokens = 1024

// Anthropic completes prompts with the Messages API.
type Anthropic struct {
	client anthropic.Client
	model  string
}

// NewAnthropic creates an Anthropic completer. An empty baseURL uses the public API.
func NewAnthropic(model, baseURL string) *Anthropic {
	if model == "" {
		model = DefaultAnthropicModel
	}
	opts := []anthropicoption.RequestOption{anthropicoption.WithMaxRetries(0)}
	if baseURL != "" {
		opts = append(opts, anthropicoption.WithBaseURL(baseURL))
	}
	return &Anthropic{client: anthropic.NewClient(opts...), model: model}
}

// Provider returns "anthropic".
func (a *Anthropic) Provider() string { return ProviderAnthropic }

// Model returns the configured model.
func (a *Anthropic) Model() string { return a.model }

// Complete sends the prompt as a single user message and joins the text blocks
// of the reply.
func (a *Anthropic) Complete(ctx context.Context, req Request) (*Response, error) {
	if req.APIKey == "" {
		return nil, &Error{Provider: ProviderAnthropic, Err: ErrMissingAPIKey}
	}

	resp, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: anthropicMaxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	}, anthropicoption.WithAPIKey(req.APIKey))
	if err != nil {
		cerr := &Error{Provider: ProviderAnthropic, Err: err}
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			cerr.StatusCode = apiErr.StatusCode
		}
		return nil, cerr
	}

	var parts []string
	for _, block := range resp.Content {
		if block.Type == "text" {
			if text := block.AsText().Text; text != "" {
				parts = append(parts, text)
			}
		}
	}
	return &Response{Content: contentOrDefault(strings.Join(parts, "\n")), Model: string(resp.Model)}, nil
}
