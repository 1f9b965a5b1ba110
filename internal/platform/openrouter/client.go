// Package openrouter is a minimal chat-completions client for the OpenRouter
// API, used by the AI strategy for trade decisions and by train mode for
// style summaries.
package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/clawlabs/arenabot/internal/domain"
	"github.com/clawlabs/arenabot/internal/strategy"
)

// DefaultBaseURL is the hosted OpenRouter endpoint.
const DefaultBaseURL = "https://openrouter.ai/api/v1"

// DefaultModel balances decision quality against per-tick cost.
const DefaultModel = "anthropic/claude-3.5-haiku"

// Client talks to the OpenRouter chat-completions API.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewClient creates a client. Empty baseURL and model select the defaults.
func NewClient(baseURL, apiKey, model string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if model == "" {
		model = DefaultModel
	}
	if timeout <= 0 {
		timeout = 45 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  strings.TrimSpace(apiKey),
		model:   model,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

var _ strategy.DecisionProvider = (*Client)(nil)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	Temperature    float64       `json:"temperature"`
	ResponseFormat *struct {
		Type string `json:"type"`
	} `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// decisionPayload is the JSON document the model is instructed to return.
type decisionPayload struct {
	Action       string  `json:"action"`
	Asset        string  `json:"asset"`
	Reasoning    string  `json:"reasoning"`
	W            float64 `json:"w"`
	R            float64 `json:"r"`
	StyleSummary string  `json:"styleSummary"`
}

// Decide ships the portfolio snapshot to the model and parses the returned
// decision. The caller clamps W and R.
func (c *Client) Decide(ctx context.Context, req strategy.DecisionRequest) (domain.TradeDecision, error) {
	messages, err := decisionMessages(req)
	if err != nil {
		return domain.TradeDecision{}, fmt.Errorf("openrouter: build prompt: %w", err)
	}

	content, err := c.complete(ctx, messages, true)
	if err != nil {
		return domain.TradeDecision{}, err
	}

	var payload decisionPayload
	if err := json.Unmarshal([]byte(extractJSON(content)), &payload); err != nil {
		return domain.TradeDecision{}, fmt.Errorf("openrouter: decode decision: %w", err)
	}

	action := domain.DecisionAction(strings.ToUpper(strings.TrimSpace(payload.Action)))
	switch action {
	case domain.DecisionBuy, domain.DecisionSell:
		if payload.Asset == "" {
			return domain.TradeDecision{}, fmt.Errorf("openrouter: %s decision without asset", action)
		}
	case domain.DecisionHold:
	default:
		return domain.TradeDecision{}, fmt.Errorf("openrouter: invalid action %q", payload.Action)
	}

	return domain.TradeDecision{
		Action:       action,
		Asset:        strings.ToUpper(strings.TrimSpace(payload.Asset)),
		Reasoning:    payload.Reasoning,
		W:            payload.W,
		R:            payload.R,
		StyleSummary: payload.StyleSummary,
	}, nil
}

// SummarizeStyle condenses the custom instructions and recent trades into a
// short style label for the leaderboard.
func (c *Client) SummarizeStyle(ctx context.Context, instructions []string, trades []domain.TradeRecord) (string, error) {
	messages, err := trainMessages(instructions, trades)
	if err != nil {
		return "", fmt.Errorf("openrouter: build train prompt: %w", err)
	}

	content, err := c.complete(ctx, messages, false)
	if err != nil {
		return "", err
	}

	summary := strings.TrimSpace(strings.Trim(content, `"`))
	if summary == "" {
		return "", fmt.Errorf("openrouter: empty style summary")
	}
	return summary, nil
}

func (c *Client) complete(ctx context.Context, messages []chatMessage, jsonMode bool) (string, error) {
	reqBody := chatRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: 0.7,
	}
	if jsonMode {
		reqBody.ResponseFormat = &struct {
			Type string `json:"type"`
		}{Type: "json_object"}
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("openrouter: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("openrouter: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("openrouter: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("openrouter: status %d: %s", resp.StatusCode, string(raw))
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("openrouter: decode response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("openrouter: api error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("openrouter: empty choices")
	}
	return parsed.Choices[0].Message.Content, nil
}

// extractJSON strips markdown fencing some models wrap around JSON output.
func extractJSON(content string) string {
	content = strings.TrimSpace(content)
	if after, ok := strings.CutPrefix(content, "```json"); ok {
		content = after
	} else if after, ok := strings.CutPrefix(content, "```"); ok {
		content = after
	}
	content = strings.TrimSuffix(strings.TrimSpace(content), "```")
	return strings.TrimSpace(content)
}
