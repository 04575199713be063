// Package claude adapts the official Anthropic SDK to the llm.Client contract.
package claude

import (
	"context"
	"fmt"
	"iter"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/param"
	"github.com/sweetpotato0/reagent/llm"
	"github.com/sweetpotato0/reagent/message"
)

// Config holds Claude provider configuration
type Config struct {
	APIKey      string
	Model       string
	BaseURL     string
	MaxTokens   int64
	Temperature float64
}

// DefaultConfig returns default Claude configuration
func DefaultConfig(apiKey, baseURL string) *Config {
	return &Config{
		APIKey:      apiKey,
		BaseURL:     baseURL,
		Model:       "claude-3-5-sonnet-20241022",
		MaxTokens:   4096,
		Temperature: 0.7,
	}
}

// Provider implements the llm.Client interface for Claude
type Provider struct {
	config *Config
	client anthropic.Client
}

// New creates a new Claude provider using official SDK
func New(config *Config) *Provider {
	if config.Model == "" {
		config.Model = "claude-sonnet-4-5-20250929"
	}

	options := []option.RequestOption{
		option.WithAPIKey(config.APIKey),
		option.WithAuthToken(""),
	}
	if config.BaseURL != "" {
		options = append(options, option.WithBaseURL(config.BaseURL))
	}
	client := anthropic.NewClient(options...)

	return &Provider{
		config: config,
		client: client,
	}
}

func (p *Provider) buildParams(msgs []*message.Message, opts []llm.CallOption) anthropic.MessageNewParams {
	callOpts := llm.ApplyCallOptions(opts)

	// System messages go into the dedicated system field.
	var systemPrompts []string
	conversation := make([]anthropic.MessageParam, 0, len(msgs))
	for _, msg := range msgs {
		switch msg.Role {
		case message.RoleSystem:
			systemPrompts = append(systemPrompts, msg.Content)
		case message.RoleUser:
			conversation = append(conversation,
				anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		case message.RoleAssistant:
			conversation = append(conversation,
				anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)))
		}
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.config.Model),
		Messages:  conversation,
		MaxTokens: p.config.MaxTokens,
	}
	if len(systemPrompts) > 0 {
		params.System = []anthropic.TextBlockParam{
			{Text: strings.Join(systemPrompts, "\n")},
		}
	}
	if p.config.Temperature > 0 {
		params.Temperature = param.NewOpt(p.config.Temperature)
	}
	if len(callOpts.Stop) > 0 {
		params.StopSequences = callOpts.Stop
	}
	return params
}

// Call implements llm.Client.
func (p *Provider) Call(ctx context.Context, msgs []*message.Message, opts ...llm.CallOption) (*llm.Completion, error) {
	params := p.buildParams(msgs, opts)

	resp, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("Claude API error: %w", err)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	return &llm.Completion{
		Text:             text.String(),
		PromptTokens:     int(resp.Usage.InputTokens),
		CompletionTokens: int(resp.Usage.OutputTokens),
		TotalTokens:      int(resp.Usage.InputTokens + resp.Usage.OutputTokens),
	}, nil
}

// Stream implements llm.StreamClient. Usage accounting arrives with the
// final chunk.
func (p *Provider) Stream(ctx context.Context, msgs []*message.Message, opts ...llm.CallOption) iter.Seq2[*llm.Completion, error] {
	return func(yield func(*llm.Completion, error) bool) {
		params := p.buildParams(msgs, opts)

		stream := p.client.Messages.NewStreaming(ctx, params)
		acc := anthropic.Message{}
		for stream.Next() {
			event := stream.Current()
			if err := acc.Accumulate(event); err != nil {
				yield(nil, fmt.Errorf("Claude streaming error: %w", err))
				return
			}
			switch ev := event.AsAny().(type) {
			case anthropic.ContentBlockDeltaEvent:
				if ev.Delta.Text != "" {
					if !yield(&llm.Completion{Text: ev.Delta.Text}, nil) {
						return
					}
				}
			}
		}
		if err := stream.Err(); err != nil {
			yield(nil, fmt.Errorf("Claude streaming error: %w", err))
			return
		}
		yield(&llm.Completion{
			PromptTokens:     int(acc.Usage.InputTokens),
			CompletionTokens: int(acc.Usage.OutputTokens),
			TotalTokens:      int(acc.Usage.InputTokens + acc.Usage.OutputTokens),
		}, nil)
	}
}
