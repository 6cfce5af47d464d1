// Package claude implements the llm.Client contract over an Anthropic-style
// messages endpoint.
package claude

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
)

const (
	defaultBaseURL   = "https://api.anthropic.com"
	defaultMaxTokens = 4096
	apiVersion       = "2023-06-01"

	// Rough conversion for cost display; overridden via options in serve.
	defaultUSDToRUB = 95.0
)

// modelPrice is USD per million tokens.
type modelPrice struct {
	Input  float64
	Output float64
}

var pricing = map[string]modelPrice{
	"claude-sonnet-4-20250514": {Input: 3.0, Output: 15.0},
	"claude-3-5-haiku-latest":  {Input: 0.8, Output: 4.0},
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

type messagesRequest struct {
	Model     string        `json:"model"`
	MaxTokens int           `json:"max_tokens"`
	System    string        `json:"system,omitempty"`
	Messages  []llm.Message `json:"messages"`
	Thinking  *thinking     `json:"thinking,omitempty"`
	Tools     []tool        `json:"tools,omitempty"`
}

type thinking struct {
	Type         string `json:"type"`
	BudgetTokens int    `json:"budget_tokens"`
}

type tool struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (c *Client) GenerateJSON(ctx context.Context, req llm.Request) (llm.Result, error) {
	start := time.Now()

	if req.Model == "" {
		return llm.Result{}, fmt.Errorf("claude: model is required")
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	body := messagesRequest{
		Model:     req.Model,
		MaxTokens: maxTokens,
		System:    req.System,
		Messages:  req.Messages,
	}
	if req.ThinkingTokens > 0 {
		body.Thinking = &thinking{Type: "enabled", BudgetTokens: req.ThinkingTokens}
	}
	if req.EnableWebSearch {
		body.Tools = append(body.Tools, tool{Type: "web_search_20250305", Name: "web_search"})
	}

	b, err := json.Marshal(body)
	if err != nil {
		return llm.Result{}, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/v1/messages", bytes.NewReader(b))
	if err != nil {
		return llm.Result{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("anthropic-version", apiVersion)
	if c.APIKey != "" {
		httpReq.Header.Set("x-api-key", c.APIKey)
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
	var out messagesResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return llm.Result{}, fmt.Errorf("claude: decode response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if out.Error != nil && out.Error.Message != "" {
			return llm.Result{}, fmt.Errorf("claude http %d: %s", resp.StatusCode, out.Error.Message)
		}
		return llm.Result{}, fmt.Errorf("claude http %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var text strings.Builder
	for _, block := range out.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	result := llm.Result{
		Text: text.String(),
		Usage: llm.Usage{
			InputTokens:  out.Usage.InputTokens,
			OutputTokens: out.Usage.OutputTokens,
			TotalTokens:  out.Usage.InputTokens + out.Usage.OutputTokens,
		},
		Cost:     c.cost(req.Model, out.Usage.InputTokens, out.Usage.OutputTokens),
		Duration: time.Since(start),
	}

	if req.ForceJSON {
		obj, err := ExtractJSONObject(result.Text)
		if err != nil {
			return result, fmt.Errorf("claude: %w", err)
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

// ExtractJSONObject pulls the outermost JSON object out of a model reply.
// Models occasionally wrap the object in prose or a code fence.
func ExtractJSONObject(text string) (map[string]any, error) {
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end < start {
		return nil, fmt.Errorf("reply contains no json object")
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(text[start:end+1]), &obj); err != nil {
		return nil, fmt.Errorf("invalid json object in reply: %w", err)
	}
	return obj, nil
}
