// Package openai implements the llm.Client contract over an OpenAI-compatible
// chat completions endpoint. Thinking budgets and web search are Anthropic
// features and are ignored here.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/LoomAI-IT/loom-tg-bot-sub000/llm"
	"github.com/LoomAI-IT/loom-tg-bot-sub000/providers/claude"
)

const (
	defaultBaseURL = "https://api.openai.com"

	defaultUSDToRUB = 95.0
)

type modelPrice struct {
	Input  float64
	Output float64
}

var pricing = map[string]modelPrice{
	"gpt-4o":      {Input: 2.5, Output: 10.0},
	"gpt-4o-mini": {Input: 0.15, Output: 0.6},
}

type Client struct {
	BaseURL  string
	APIKey   string
	HTTP     *http.Client
	USDToRUB float64
}

func New(baseURL, apiKey string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		BaseURL:  strings.TrimRight(baseURL, "/"),
		APIKey:   apiKey,
		HTTP:     &http.Client{Timeout: 180 * time.Second},
		USDToRUB: defaultUSDToRUB,
	}
}

type chatCompletionRequest struct {
	Model          string        `json:"model"`
	Messages       []llm.Message `json:"messages"`
	MaxTokens      int           `json:"max_completion_tokens,omitempty"`
	ResponseFormat any           `json:"response_format,omitempty"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

func (c *Client) GenerateJSON(ctx context.Context, req llm.Request) (llm.Result, error) {
	start := time.Now()

	if req.Model == "" {
		return llm.Result{}, fmt.Errorf("openai: model is required")
	}

	messages := req.Messages
	if req.System != "" {
		messages = append([]llm.Message{{Role: llm.RoleSystem, Content: req.System}}, messages...)
	}
	body := chatCompletionRequest{
		Model:     req.Model,
		Messages:  messages,
		MaxTokens: req.MaxTokens,
	}
	if req.ForceJSON {
		body.ResponseFormat = map[string]string{"type": "json_object"}
	}

	b, err := json.Marshal(body)
	if err != nil {
		return llm.Result{}, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/v1/chat/completions", bytes.NewReader(b))
	if err != nil {
		return llm.Result{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	resp, err := c.HTTP.Do(httpReq)
	if err != nil {
		return llm.Result{}, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return llm.Result{}, err
	}
	var out chatCompletionResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return llm.Result{}, fmt.Errorf("openai: decode response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if out.Error != nil && out.Error.Message != "" {
			return llm.Result{}, fmt.Errorf("openai http %d: %s", resp.StatusCode, out.Error.Message)
		}
		return llm.Result{}, fmt.Errorf("openai http %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	if len(out.Choices) == 0 {
		return llm.Result{}, fmt.Errorf("openai: empty choices")
	}

	result := llm.Result{
		Text: out.Choices[0].Message.Content,
		Usage: llm.Usage{
			InputTokens:  out.Usage.PromptTokens,
			OutputTokens: out.Usage.CompletionTokens,
			TotalTokens:  out.Usage.TotalTokens,
		},
		Cost:     c.cost(req.Model, out.Usage.PromptTokens, out.Usage.CompletionTokens),
		Duration: time.Since(start),
	}

	if req.ForceJSON {
		obj, err := claude.ExtractJSONObject(result.Text)
		if err != nil {
			return result, fmt.Errorf("openai: %w", err)
		}
		result.JSON = obj
	}
	return result, nil
}

func (c *Client) cost(model string, inputTokens, outputTokens int) llm.Cost {
	price, ok := pricing[model]
	if !ok {
		return llm.Cost{InputTokens: inputTokens, OutputTokens: outputTokens}
	}
	rate := c.USDToRUB
	if rate <= 0 {
		rate = defaultUSDToRUB
	}
	usd := price.Input*float64(inputTokens)/1e6 + price.Output*float64(outputTokens)/1e6
	return llm.Cost{
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
		RubAmount:    usd * rate,
	}
}
