package llm

import (
	"context"
	"time"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// Cost is the billing breakdown of a single call, converted to rubles by the
// provider's pricing table.
type Cost struct {
	InputTokens  int     `json:"input_tokens"`
	OutputTokens int     `json:"output_tokens"`
	RubAmount    float64 `json:"rub_amount"`
}

func (c *Cost) Add(other Cost) {
	c.InputTokens += other.InputTokens
	c.OutputTokens += other.OutputTokens
	c.RubAmount += other.RubAmount
}

type Result struct {
	Text     string
	JSON     map[string]any
	Usage    Usage
	Cost     Cost
	Duration time.Duration
}

type Request struct {
	Model           string
	System          string
	Messages        []Message
	MaxTokens       int
	ThinkingTokens  int
	EnableWebSearch bool
	ForceJSON       bool
}

// Client produces a single assistant turn. When req.ForceJSON is set the
// reply must be a parseable JSON object and Result.JSON is populated;
// otherwise Result.JSON is nil.
type Client interface {
	GenerateJSON(ctx context.Context, req Request) (Result, error)
}
