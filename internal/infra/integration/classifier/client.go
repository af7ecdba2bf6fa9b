// Package classifier calls an OpenAI-compatible chat completions endpoint to
// analyze lead inquiries.
package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/xavierca1/lead-marketplace/internal/entity"
)

const (
	DefaultModel   = "gpt-4o-mini"
	DefaultTimeout = 30 * time.Second

	maxResponseBytes = 1 << 20
)

const systemPrompt = `You classify legal inquiries for a lead marketplace.
Answer with a single JSON object and nothing else, using these keys:
"summary": two or three sentences describing the legal problem. Never include names, email addresses, phone numbers or other personal identifiers.
"specialty": the area of law, as a short snake_case label, or "general" if unclear.
"region": the region or state mentioned, if any.
"locality": the city mentioned, if any.
"urgency": one of "low", "medium", "high", "urgent".
"estimated_value": the estimated case value as a non-negative number.
"keywords": a list of up to ten short keywords.
"quality_score": an integer from 1 to 100 describing how actionable the inquiry is.
"detail_level": one of "low", "medium", "high".`

type Client struct {
	HTTPClient *http.Client
	BaseURL    string
	APIKey     string
	Model      string
	Logger     *zap.Logger
}

func NewClient(baseURL, apiKey, model string, timeout time.Duration, logger *zap.Logger) *Client {
	if model == "" {
		model = DefaultModel
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		HTTPClient: &http.Client{Timeout: timeout},
		BaseURL:    strings.TrimRight(baseURL, "/"),
		APIKey:     apiKey,
		Model:      model,
		Logger:     logger.Named("classifier"),
	}
}

// Analyze sends one request per lead. The response is normalized before it
// is returned, so every field is inside its domain.
func (c *Client) Analyze(ctx context.Context, data entity.LeadData) (*entity.LeadAnalysis, error) {
	payload := chatRequest{
		Model: c.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt(data)},
		},
		Temperature:    0.2,
		ResponseFormat: &responseFormat{Type: "json_object"},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("classifier: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("classifier: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("classifier: request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("classifier: read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		c.Logger.Warn("classifier returned an error status",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", truncate(raw, 512)),
		)
		return nil, fmt.Errorf("classifier: status %d", resp.StatusCode)
	}

	var out chatResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("classifier: decode response: %w", err)
	}
	if out.Error != nil {
		return nil, fmt.Errorf("classifier: %s", out.Error.Message)
	}
	if len(out.Choices) == 0 {
		return nil, fmt.Errorf("classifier: response has no choices")
	}

	fields, err := decodeContent(out.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}
	analysis := NormalizeAnalysis(fields, data)
	return &analysis, nil
}

func userPrompt(d entity.LeadData) string {
	var b strings.Builder
	b.WriteString("Inquiry:\n")
	b.WriteString(d.Message)
	if d.SourceTitle != "" {
		b.WriteString("\n\nSubmitted from page: ")
		b.WriteString(d.SourceTitle)
	}
	if d.SourceURL != "" {
		b.WriteString("\nPage URL: ")
		b.WriteString(d.SourceURL)
	}
	return b.String()
}

// decodeContent extracts the JSON object from the model output, tolerating
// markdown code fences around it.
func decodeContent(content string) (map[string]any, error) {
	s := strings.TrimSpace(content)
	if start, end := strings.Index(s, "{"), strings.LastIndex(s, "}"); start >= 0 && end > start {
		s = s[start : end+1]
	}
	var fields map[string]any
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	if err := dec.Decode(&fields); err != nil {
		return nil, fmt.Errorf("classifier: content is not a JSON object: %w", err)
	}
	return fields, nil
}

func truncate(b []byte, n int) []byte {
	if len(b) <= n {
		return b
	}
	return b[:n]
}
