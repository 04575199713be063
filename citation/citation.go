// Package citation extracts cited evidence spans from a context/question
// pair. Extraction is strictly best-effort: any failure degrades to a nil
// citation and must never fail the answer it annotates.
package citation

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/sweetpotato0/reagent/llm"
	"github.com/sweetpotato0/reagent/message"
	"github.com/sweetpotato0/reagent/pkg/logging"
)

// FactWithEvidence is a single statement backed by direct quotes from the
// source context. Quotes are substrings of the original content so a consumer
// can locate and highlight them.
type FactWithEvidence struct {
	Fact           string   `json:"fact"`
	SubstringQuote []string `json:"substring_quote"`
}

// QuestionAnswer is a question and its answer broken into cited facts.
type QuestionAnswer struct {
	Question string             `json:"question"`
	Answer   []FactWithEvidence `json:"answer"`
}

// Spans returns the byte offsets of every quote of the fact found verbatim in
// the context. Quotes that do not occur are skipped.
func (f *FactWithEvidence) Spans(contextText string) [][2]int {
	var spans [][2]int
	for _, quote := range f.SubstringQuote {
		if quote == "" {
			continue
		}
		offset := 0
		for {
			idx := strings.Index(contextText[offset:], quote)
			if idx < 0 {
				break
			}
			start := offset + idx
			spans = append(spans, [2]int{start, start + len(quote)})
			offset = start + len(quote)
		}
	}
	return spans
}

// Extractor is the contract agents consume.
type Extractor interface {
	Extract(ctx context.Context, contextText, question string) (*QuestionAnswer, error)
}

const extractorSystemPrompt = "You are a world class algorithm to answer " +
	"questions with correct and exact citations. Answer the question using the " +
	"provided context. Respond with JSON only, matching this schema: " +
	`{"question": "...", "answer": [{"fact": "...", "substring_quote": ["..."]}]}. ` +
	"Each quote must be an exact substring of the context."

// LLMExtractor asks an LLM to emit the QuestionAnswer structure as JSON.
type LLMExtractor struct {
	client llm.Client
}

// NewLLMExtractor creates an extractor backed by the given client.
func NewLLMExtractor(client llm.Client) *LLMExtractor {
	return &LLMExtractor{client: client}
}

// Extract runs the citation prompt and decodes the JSON reply.
func (e *LLMExtractor) Extract(ctx context.Context, contextText, question string) (*QuestionAnswer, error) {
	msgs := []*message.Message{
		message.System(extractorSystemPrompt),
		message.User("Context:\n" + contextText),
		message.User("Question: " + question),
		message.User("Tips: Make sure to cite your sources, and use the exact words from the context."),
	}
	completion, err := e.client.Call(ctx, msgs)
	if err != nil {
		return nil, err
	}
	return decode(completion.Text)
}

func decode(text string) (*QuestionAnswer, error) {
	text = strings.TrimSpace(text)
	// tolerate fenced replies
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		text = strings.TrimSpace(text)
	}
	var qa QuestionAnswer
	if err := json.Unmarshal([]byte(text), &qa); err != nil {
		return nil, err
	}
	return &qa, nil
}

// ExtractWithTimeout joins the extraction with an explicit deadline. On
// timeout or any extraction error it returns nil; the side computation is
// never allowed to block the primary result indefinitely.
func ExtractWithTimeout(ctx context.Context, ex Extractor, timeout time.Duration, contextText, question string) *QuestionAnswer {
	if ex == nil {
		return nil
	}
	logger := logging.WithComponent("citation")

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		qa  *QuestionAnswer
		err error
	}
	ch := make(chan result, 1)
	go func() {
		qa, err := ex.Extract(ctx, contextText, question)
		ch <- result{qa: qa, err: err}
	}()

	select {
	case res := <-ch:
		if res.err != nil {
			logger.Warn("citation extraction failed", "error", res.err)
			return nil
		}
		return res.qa
	case <-ctx.Done():
		logger.Warn("citation extraction timed out", "timeout", timeout)
		return nil
	}
}
