package completion

import (
	"context"
	"errors"

	"github.com/openai/openai-go"
	openaioption "github.com/openai/openai-go/option"
)

// DefaultOpenAIModel is used when no model is configured.
const DefaultOpenAIModel = openai.ChatModelGPT4oMini

// OpenAI completes prompts with the Chat Completions API.
type OpenAI struct {
	client openai.Client
	model  string
}

// NewOpenAI creates an OpenAI completer. An empty baseURL uses the public API.
func NewOpenAI(model, baseURL string) *OpenAI {
	if model == "" {
		model = DefaultOpenAIModel
	}
	opts := []openaioption.RequestOption{openaioption.WithMaxRetries(0)}
	if baseURL != "" {
		opts = append(opts, openaioption.WithBaseURL(baseURL))
	}
	return &OpenAI{client: openai.NewClient(opts...), model: model}
}

// Provider returns "openai".
func (o *OpenAI) Provider() string { return ProviderOpenAI }

// Model returns the configured model.
func (o *OpenAI) Model() string { return o.model }

// Complete sends the prompt as a single user message.
func (o *OpenAI) Complete(ctx context.Context, req Request) (*Response, error) {
	if req.APIKey == "" {
		return nil, &Error{Provider: ProviderOpenAI, Err: ErrMissingAPIKey}
	}

	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: o.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(req.Prompt),
		},
	}, openaioption.WithAPIKey(req.APIKey))
	if err != nil {
		cerr := &Error{Provider: ProviderOpenAI, Err: err}
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			cerr.StatusCode = apiErr.StatusCode
		}
		return nil, cerr
	}

	var content string
	if len(resp.Choices) > 0 {
		content = resp.Choices[0].Message.Content
	}
	return &Response{Content: contentOrDefault(content), Model: resp.Model}, nil
}
