// Package openai adapts the official OpenAI SDK to the llm.Client contract.
package openai

import (
	"context"
	"fmt"
	"iter"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/packages/param"
	"github.com/sweetpotato0/reagent/llm"
	"github.com/sweetpotato0/reagent/message"
)

// Config holds OpenAI provider configuration
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int64
	Temperature float64
}

// WithBaseURL set BaseURL.
func (cfg *Config) WithBaseURL(url string) *Config {
	cfg.BaseURL = url
	return cfg
}

// WithAPIKey set api key.
func (cfg *Config) WithAPIKey(apiKey string) *Config {
	cfg.APIKey = apiKey
	return cfg
}

// WithModel set model.
func (cfg *Config) WithModel(model string) *Config {
	cfg.Model = model
	return cfg
}

// DefaultConfig returns default OpenAI configuration
func DefaultConfig() *Config {
	return &Config{
		APIKey:      "",
		Model:       "gpt-4o-mini",
		MaxTokens:   2000,
		Temperature: 0.7,
	}
}

// Provider implements the llm.Client interface for OpenAI
type Provider struct {
	config *Config
	client openai.Client
}

// New creates a new OpenAI provider using official SDK
func New(config *Config) *Provider {
	if config.Model == "" {
		config.Model = "gpt-4o-mini"
	}

	options := []option.RequestOption{option.WithAPIKey(config.APIKey)}
	if config.BaseURL != "" {
		options = append(options, option.WithBaseURL(config.BaseURL))
	}
	client := openai.NewClient(options...)

	return &Provider{
		config: config,
		client: client,
	}
}

func (p *Provider) buildParams(msgs []*message.Message, opts []llm.CallOption) openai.ChatCompletionNewParams {
	callOpts := llm.ApplyCallOptions(opts)

	openAIMessages := make([]openai.ChatCompletionMessageParamUnion, 0, len(msgs))
	for _, msg := range msgs {
		switch msg.Role {
		case message.RoleSystem:
			openAIMessages = append(openAIMessages, openai.SystemMessage(msg.Content))
		case message.RoleUser:
			openAIMessages = append(openAIMessages, openai.UserMessage(msg.Content))
		case message.RoleAssistant:
			openAIMessages = append(openAIMessages, openai.AssistantMessage(msg.Content))
		}
	}

	params := openai.ChatCompletionNewParams{
		Messages: openAIMessages,
		Model:    openai.ChatModel(p.config.Model),
	}
	if p.config.Temperature > 0 {
		params.Temperature = param.NewOpt(p.config.Temperature)
	}
	if p.config.MaxTokens > 0 {
		params.MaxCompletionTokens = param.NewOpt(p.config.MaxTokens)
	}
	if len(callOpts.Stop) > 0 {
		params.Stop = openai.ChatCompletionNewParamsStopUnion{OfStringArray: callOpts.Stop}
	}
	return params
}

// Call implements llm.Client.
func (p *Provider) Call(ctx context.Context, msgs []*message.Message, opts ...llm.CallOption) (*llm.Completion, error) {
	params := p.buildParams(msgs, opts)

	completion, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("OpenAI API error: %w", err)
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("no choices returned from OpenAI")
	}

	return &llm.Completion{
		Text:             completion.Choices[0].Message.Content,
		PromptTokens:     int(completion.Usage.PromptTokens),
		CompletionTokens: int(completion.Usage.CompletionTokens),
		TotalTokens:      int(completion.Usage.TotalTokens),
	}, nil
}

// Stream implements llm.StreamClient. Usage accounting arrives with the
// final chunk.
func (p *Provider) Stream(ctx context.Context, msgs []*message.Message, opts ...llm.CallOption) iter.Seq2[*llm.Completion, error] {
	return func(yield func(*llm.Completion, error) bool) {
		params := p.buildParams(msgs, opts)
		params.StreamOptions = openai.ChatCompletionStreamOptionsParam{
			IncludeUsage: param.NewOpt(true),
		}

		stream := p.client.Chat.Completions.NewStreaming(ctx, params)
		defer stream.Close()

		for stream.Next() {
			event := stream.Current()
			if event.Usage.TotalTokens > 0 {
				if !yield(&llm.Completion{
					PromptTokens:     int(event.Usage.PromptTokens),
					CompletionTokens: int(event.Usage.CompletionTokens),
					TotalTokens:      int(event.Usage.TotalTokens),
				}, nil) {
					return
				}
				continue
			}
			if len(event.Choices) == 0 || event.Choices[0].Delta.Content == "" {
				continue
			}
			if !yield(&llm.Completion{Text: event.Choices[0].Delta.Content}, nil) {
				return
			}
		}
		if err := stream.Err(); err != nil {
			yield(nil, fmt.Errorf("OpenAI streaming error: %w", err))
		}
	}
}
