// Package gemini adapts the Google generative AI SDK to the llm.Client
// contract.
package gemini

import (
	"context"
	"fmt"
	"iter"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/sweetpotato0/reagent/llm"
	"github.com/sweetpotato0/reagent/message"
)

// Config holds Gemini provider configuration
type Config struct {
	APIKey      string
	Model       string
	MaxTokens   int32
	Temperature float32
}

// DefaultConfig returns default Gemini configuration
func DefaultConfig(apiKey string) *Config {
	return &Config{
		APIKey:      apiKey,
		Model:       "gemini-1.5-flash",
		MaxTokens:   2048,
		Temperature: 0.7,
	}
}

// Provider implements the llm.Client interface for Google Gemini
type Provider struct {
	config *Config
	client *genai.Client
}

// New creates a new Gemini provider
func New(ctx context.Context, config *Config) (*Provider, error) {
	if config == nil {
		config = DefaultConfig("")
	}
	if config.APIKey == "" {
		return nil, fmt.Errorf("Gemini API key not configured")
	}
	if config.Model == "" {
		config.Model = "gemini-1.5-flash"
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(config.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &Provider{
		config: config,
		client: client,
	}, nil
}

// Close releases the underlying API client.
func (p *Provider) Close() error {
	return p.client.Close()
}

func (p *Provider) buildModel(msgs []*message.Message, opts []llm.CallOption) (*genai.GenerativeModel, []genai.Part) {
	callOpts := llm.ApplyCallOptions(opts)

	model := p.client.GenerativeModel(p.config.Model)
	if p.config.Temperature > 0 {
		model.SetTemperature(p.config.Temperature)
	}
	if p.config.MaxTokens > 0 {
		model.SetMaxOutputTokens(p.config.MaxTokens)
	}
	if len(callOpts.Stop) > 0 {
		model.StopSequences = callOpts.Stop
	}

	// Gemini models take system text as a separate instruction and the rest
	// of the conversation as alternating parts.
	var system []string
	var parts []genai.Part
	for _, msg := range msgs {
		if msg.Role == message.RoleSystem {
			system = append(system, msg.Content)
			continue
		}
		parts = append(parts, genai.Text(msg.Content))
	}
	if len(system) > 0 {
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(strings.Join(system, "\n"))},
		}
	}
	return model, parts
}

func completionFrom(resp *genai.GenerateContentResponse) (*llm.Completion, error) {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("no candidates in response")
	}
	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text.WriteString(string(t))
		}
	}
	out := &llm.Completion{Text: text.String()}
	if resp.UsageMetadata != nil {
		out.PromptTokens = int(resp.UsageMetadata.PromptTokenCount)
		out.CompletionTokens = int(resp.UsageMetadata.CandidatesTokenCount)
		out.TotalTokens = int(resp.UsageMetadata.TotalTokenCount)
	}
	return out, nil
}

// Call implements llm.Client.
func (p *Provider) Call(ctx context.Context, msgs []*message.Message, opts ...llm.CallOption) (*llm.Completion, error) {
	model, parts := p.buildModel(msgs, opts)
	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		return nil, fmt.Errorf("Gemini API error: %w", err)
	}
	return completionFrom(resp)
}

// Stream implements llm.StreamClient.
func (p *Provider) Stream(ctx context.Context, msgs []*message.Message, opts ...llm.CallOption) iter.Seq2[*llm.Completion, error] {
	return func(yield func(*llm.Completion, error) bool) {
		model, parts := p.buildModel(msgs, opts)
		it := model.GenerateContentStream(ctx, parts...)
		for {
			resp, err := it.Next()
			if err == iterator.Done {
				return
			}
			if err != nil {
				yield(nil, fmt.Errorf("Gemini streaming error: %w", err))
				return
			}
			chunk, err := completionFrom(resp)
			if err != nil {
				continue
			}
			if !yield(chunk, nil) {
				return
			}
		}
	}
}
