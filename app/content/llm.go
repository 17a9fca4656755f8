package content

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

const (
	llmTimeout          = 10 * time.Second
	articleMaxChars     = 8000
	newsletterMaxChars  = 5000
	newsletterMaxItems  = 25
	aiGeneratedSuffix   = " (AI generated)"
	newsletterModeMulti = "multi"
)

// LLMClient wraps the OpenAI API for article summarization and newsletter
// structuring. A nil *LLMClient is valid and means the feature is disabled.
type LLMClient struct {
	client *openai.Client
	model  string
}

// NewLLMClient returns nil when no API key is configured.
func NewLLMClient(apiKey, model string) *LLMClient {
	if apiKey == "" {
		return nil
	}

	config := openai.DefaultConfig(apiKey)
	config.HTTPClient = &http.Client{Timeout: llmTimeout}

	return &LLMClient{
		client: openai.NewClientWithConfig(config),
		model:  model,
	}
}

// Enabled reports whether LLM calls can be made.
func (c *LLMClient) Enabled() bool {
	return c != nil
}

// SummarizeArticle produces a 3-6 sentence plain-text summary, marked as AI
// generated. Returns "" when the model produced nothing useful.
func (c *LLMClient) SummarizeArticle(ctx context.Context, articleText string) (string, error) {
	if !c.Enabled() {
		return "", nil
	}

	trimmed := trimTo(StripHTML(articleText), articleMaxChars)
	if strings.TrimSpace(trimmed) == "" {
		return "", nil
	}

	response, err := c.completeJSON(ctx,
		"Summarize the article clearly and concisely. Return 3-6 sentences, no bullets, no headings, plain text only. "+
			`Respond with a JSON object: {"summary": "..."}.`,
		"Article:\n"+trimmed)
	if err != nil {
		return "", fmt.Errorf("LLM article summarization failed: %w", err)
	}

	var parsed struct {
		Summary string `json:"summary"`
	}
	if err := json.Unmarshal([]byte(response), &parsed); err != nil {
		return "", fmt.Errorf("LLM summary response was not valid JSON: %w", err)
	}

	summary := strings.TrimSpace(parsed.Summary)
	if summary == "" {
		return "", nil
	}

	return summary + aiGeneratedSuffix, nil
}

// CheckSummaryQuality asks the model whether a summary stands on its own or
// is just a lead-in.
func (c *LLMClient) CheckSummaryQuality(ctx context.Context, articleText, summary string) (bool, error) {
	if !c.Enabled() {
		return true, nil
	}

	trimmed := trimTo(StripHTML(articleText), articleMaxChars)

	response, err := c.completeJSON(ctx,
		"You are evaluating whether a summary is a good standalone summary of an article. "+
			"Answer with is_good=true if it captures the main points and is not just a lead-in. "+
			`Respond with a JSON object: {"is_good": true/false}.`,
		"Article:\n"+trimmed+"\n\nSummary:\n"+summary)
	if err != nil {
		return false, fmt.Errorf("LLM summary quality check failed: %w", err)
	}

	var parsed struct {
		IsGood bool `json:"is_good"`
	}
	if err := json.Unmarshal([]byte(response), &parsed); err != nil {
		return false, fmt.Errorf("LLM quality response was not valid JSON: %w", err)
	}

	return parsed.IsGood, nil
}

// NewsletterItem is one linked story extracted from a digest email.
type NewsletterItem struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Summary string `json:"summary"`
	Content string `json:"content"`
}

// NewsletterStructure is the model's decision on how to split a newsletter:
// "multi" for digests with distinct linked items, "single" for everything
// else.
type NewsletterStructure struct {
	Mode    string           `json:"mode"`
	Items   []NewsletterItem `json:"items"`
	Content string           `json:"content"`
	Summary string           `json:"summary"`
}

// IsMulti reports whether the email should be split into the contained items.
func (s *NewsletterStructure) IsMulti() bool {
	return s.Mode == newsletterModeMulti && len(s.Items) > 0
}

// StructureNewsletter asks the model to classify and restructure a newsletter
// email. Items without a URL are dropped; at most 25 items are kept.
func (c *LLMClient) StructureNewsletter(ctx context.Context, subject, sender, body string) (*NewsletterStructure, error) {
	if !c.Enabled() {
		return nil, nil
	}

	trimmed := trimTo(body, newsletterMaxChars)

	response, err := c.completeJSON(ctx,
		"You are structuring a newsletter email for an RSS reader. Decide between two modes: "+
			`"multi" when the email is a digest of distinct linked stories, "single" otherwise. `+
			`Respond with a JSON object: {"mode": "multi"|"single", "items": [{"title", "url", "summary", "content"}], `+
			`"content": "...", "summary": "..."}. In multi mode return up to 25 items, each with its own title and URL. `+
			"In single mode return the cleaned content and a short summary for the whole email.",
		"Subject: "+subject+"\nSender: "+sender+"\n\nBody:\n"+trimmed)
	if err != nil {
		return nil, fmt.Errorf("LLM newsletter structuring failed: %w", err)
	}

	var structure NewsletterStructure
	if err := json.Unmarshal([]byte(response), &structure); err != nil {
		return nil, fmt.Errorf("LLM newsletter response was not valid JSON: %w", err)
	}

	items := make([]NewsletterItem, 0, len(structure.Items))
	for _, item := range structure.Items {
		if item.URL == "" {
			continue
		}
		items = append(items, item)
		if len(items) >= newsletterMaxItems {
			break
		}
	}
	structure.Items = items

	return &structure, nil
}

func (c *LLMClient) completeJSON(ctx context.Context, instructions, prompt string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: instructions},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty response from model")
	}

	return resp.Choices[0].Message.Content, nil
}

func trimTo(text string, maxChars int) string {
	runes := []rune(text)
	if len(runes) <= maxChars {
		return text
	}
	return string(runes[:maxChars])
}
