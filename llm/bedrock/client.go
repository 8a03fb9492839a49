// Package bedrock adapts llm.Client onto the AWS Bedrock Converse API.
package bedrock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"

	"github.com/haicosystem/episodesim/llm"
)

type (
	// RuntimeClient mirrors the subset of the AWS Bedrock runtime client
	// required by the adapter, satisfied by *bedrockruntime.Client.
	RuntimeClient interface {
		Converse(ctx context.Context, params *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
	}

	// Options configures the adapter's defaults.
	Options struct {
		// DefaultModel is the Bedrock model identifier used when a Request does
		// not set Model.
		DefaultModel string
		// MaxTokens bounds the completion length. Omitted from the Converse
		// request when zero, letting Bedrock apply its own default.
		MaxTokens int
	}

	// Client implements llm.Client on top of AWS Bedrock Converse.
	Client struct {
		runtime      RuntimeClient
		defaultModel string
		maxTokens    int
	}
)

// New builds a Bedrock-backed llm.Client.
func New(runtime RuntimeClient, opts Options) (*Client, error) {
	if runtime == nil {
		return nil, errors.New("bedrock: runtime client is required")
	}
	if opts.DefaultModel == "" {
		return nil, errors.New("bedrock: default model is required")
	}
	return &Client{runtime: runtime, defaultModel: opts.DefaultModel, maxTokens: opts.MaxTokens}, nil
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

	input := &bedrockruntime.ConverseInput{
		ModelId: aws.String(model),
		Messages: []brtypes.Message{
			{
				Role: brtypes.ConversationRoleUser,
				Content: []brtypes.ContentBlock{
					&brtypes.ContentBlockMemberText{Value: prompt},
				},
			},
		},
	}
	inferenceConfig := &brtypes.InferenceConfiguration{}
	if c.maxTokens > 0 {
		mt := int32(c.maxTokens)
		inferenceConfig.MaxTokens = &mt
	}
	if req.Temperature > 0 {
		temp := float32(req.Temperature)
		inferenceConfig.Temperature = &temp
	}
	input.InferenceConfig = inferenceConfig

	out, err := c.runtime.Converse(ctx, input)
	if err != nil {
		return llm.Response{}, fmt.Errorf("bedrock: converse: %w", err)
	}

	text, err := extractText(out)
	if err != nil {
		return llm.Response{}, err
	}
	if !req.Structured {
		return llm.Response{Text: text}, nil
	}
	var v any
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return llm.Response{}, fmt.Errorf("bedrock: structured completion is not valid JSON: %w", err)
	}
	return llm.Response{JSON: json.RawMessage(text)}, nil
}

func extractText(out *bedrockruntime.ConverseOutput) (string, error) {
	msgOutput, ok := out.Output.(*brtypes.ConverseOutputMemberMessage)
	if !ok {
		return "", errors.New("bedrock: converse output did not contain a message")
	}
	var text string
	for _, block := range msgOutput.Value.Content {
		if tb, ok := block.(*brtypes.ContentBlockMemberText); ok {
			text += tb.Value
		}
	}
	return text, nil
}
