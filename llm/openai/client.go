// Package openai adapts llm.Client onto the OpenAI Chat Completions API.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	sdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/haicosystem/episodesim/llm"
)

type (
	// ChatClient captures the subset of the OpenAI SDK used by the adapter.
	ChatClient interface {
		New(ctx context.Context, body sdk.ChatCompletionNewParams, opts ...option.RequestOption) (*sdk.ChatCompletion, error)
	}

	// Options configures the adapter's defaults.
	Options struct {
		// DefaultModel is used when a Request does not set Model.
		DefaultModel string
	}

	// Client implements llm.Client on top of OpenAI Chat Completions.
	Client struct {
		chat         ChatClient
		defaultModel string
	}
)

// New builds an OpenAI-backed llm.Client.
func New(chat ChatClient, opts Options) (*Client, error) {
	if chat == nil {
		return nil, errors.New("openai: chat client is required")
	}
	if opts.DefaultModel == "" {
		return nil, errors.New("openai: default model is required")
	}
	return &Client{chat: chat, defaultModel: opts.DefaultModel}, nil
}

// NewFromAPIKey constructs a client using the default OpenAI HTTP client,
// authenticated with the given apiKey.
func NewFromAPIKey(apiKey, defaultModel string) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("openai: api key is required")
	}
	c := sdk.NewClient(option.WithAPIKey(apiKey))
	return New(&c.Chat.Completions, Options{DefaultModel: defaultModel})
}

// Generate implements llm.Client.
func (c *Client) Generate(ctx context.Context, req llm.Request) (llm.Response, error) {
	prompt, err := llm.Render(req)
	if err != nil {
		return llm.Response{}, err
	}

	model := req.Model
	if model == "" {
		model = c.defaultModel
	}

	params := sdk.ChatCompletionNewParams{
		Model: model,
		Messages: []sdk.ChatCompletionMessageParamUnion{
			sdk.UserMessage(prompt),
		},
	}
	if req.Temperature > 0 {
		params.Temperature = sdk.Float(req.Temperature)
	}
	if req.Structured {
		params.ResponseFormat = sdk.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &sdk.ResponseFormatJSONObjectParam{},
		}
	}

	resp, err := c.chat.New(ctx, params)
	if err != nil {
		return llm.Response{}, fmt.Errorf("openai: chat completions: %w", err)
	}
	if len(resp.Choices) == 0 {
		return llm.Response{}, errors.New("openai: completion returned no choices")
	}
	text := resp.Choices[0].Message.Content

	if !req.Structured {
		return llm.Response{Text: text}, nil
	}
	var v any
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return llm.Response{}, fmt.Errorf("openai: structured completion is not valid JSON: %w", err)
	}
	return llm.Response{JSON: json.RawMessage(text)}, nil
}
