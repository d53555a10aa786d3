package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Default timeout for Anthropic API requests
const defaultAnthropicTimeout = 5 * time.Minute

// Anthropic implements Provider using the Claude messages API
type Anthropic struct {
	APIKey    string
	Model     string
	BaseURL   string
	MaxTokens int
	client    *http.Client
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	System      string             `json:"system,omitempty"`
	Messages    []anthropicMessage `json:"messages"`
	Tools       []anthropicTool    `json:"tools,omitempty"`
	ToolChoice  *anthropicChoice   `json:"tool_choice,omitempty"`
	Temperature float64            `json:"temperature"`
}

type anthropicChoice struct {
	Type                   string `json:"type"`
	DisableParallelToolUse bool   `json:"disable_parallel_tool_use,omitempty"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"` // string or []anthropicContentBlock
}

type anthropicContentBlock struct {
	Type      string `json:"type"`                  // "text", "tool_use", "tool_result"
	Text      string `json:"text,omitempty"`        // for text blocks
	ID        string `json:"id,omitempty"`          // for tool_use blocks
	Name      string `json:"name,omitempty"`        // for tool_use blocks
	Input     any    `json:"input,omitempty"`       // for tool_use blocks
	ToolUseID string `json:"tool_use_id,omitempty"` // for tool_result blocks
	Content   string `json:"content,omitempty"`     // for tool_result blocks
	IsError   bool   `json:"is_error,omitempty"`    // for tool_result blocks
}

type anthropicTool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"`
}

type anthropicResponse struct {
	ID         string                  `json:"id"`
	Type       string                  `json:"type"`
	Role       string                  `json:"role"`
	Content    []anthropicContentBlock `json:"content"`
	Model      string                  `json:"model"`
	StopReason string                  `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
	Error *anthropicError `json:"error,omitempty"`
}

type anthropicError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// NewAnthropic creates a new Anthropic provider
func NewAnthropic(apiKey, model, baseURL string) *Anthropic {
	if model == "" {
		model = "claude-sonnet-4-20250514"
	}
	if baseURL == "" {
		baseURL = "https://api.anthropic.com/v1"
	}
	return &Anthropic{
		APIKey:    apiKey,
		Model:     model,
		BaseURL:   strings.TrimRight(baseURL, "/"),
		MaxTokens: 4096,
		client:    &http.Client{Timeout: defaultAnthropicTimeout},
	}
}

// Name returns the provider label
func (a *Anthropic) Name() string {
	return "anthropic"
}

// convertToAnthropicMessages converts internal messages to Anthropic format.
// Consecutive tool results are merged into one user turn, as the API requires.
func convertToAnthropicMessages(messages []Message) (string, []anthropicMessage) {
	var systemPrompt string
	var out []anthropicMessage

	for _, msg := range messages {
		switch {
		case msg.Role == RoleSystem:
			systemPrompt = msg.Content

		case msg.Role == RoleTool:
			block := anthropicContentBlock{
				Type:      "tool_result",
				ToolUseID: msg.ToolCallID,
				Content:   msg.Content,
				IsError:   msg.IsError,
			}
			if n := len(out); n > 0 && out[n-1].Role == RoleUser {
				if blocks, ok := out[n-1].Content.([]anthropicContentBlock); ok && len(blocks) > 0 && blocks[0].Type == "tool_result" {
					out[n-1].Content = append(blocks, block)
					continue
				}
			}
			out = append(out, anthropicMessage{Role: RoleUser, Content: []anthropicContentBlock{block}})

		case msg.Role == RoleAssistant && len(msg.ToolCalls) > 0:
			var blocks []anthropicContentBlock
			if msg.Content != "" {
				blocks = append(blocks, anthropicContentBlock{Type: "text", Text: msg.Content})
			}
			for _, tc := range msg.ToolCalls {
				var input any
				if err := json.Unmarshal([]byte(tc.Arguments), &input); err != nil || input == nil {
					input = map[string]any{}
				}
				blocks = append(blocks, anthropicContentBlock{
					Type:  "tool_use",
					ID:    tc.ID,
					Name:  tc.Name,
					Input: input,
				})
			}
			out = append(out, anthropicMessage{Role: RoleAssistant, Content: blocks})

		default:
			out = append(out, anthropicMessage{Role: msg.Role, Content: msg.Content})
		}
	}

	return systemPrompt, out
}

func convertToolsToAnthropic(defs []ToolDefinition) []anthropicTool {
	result := make([]anthropicTool, 0, len(defs))
	for _, d := range defs {
		result = append(result, anthropicTool{
			Name:        d.Name,
			Description: d.Description,
			InputSchema: d.Parameters,
		})
	}
	return result
}

// Generate calls the Anthropic API with tool definitions
func (a *Anthropic) Generate(ctx context.Context, req Request) (*Response, error) {
	if a.APIKey == "" {
		return nil, fmt.Errorf("anthropic: %w (use 'geochat config set anthropic <key>' or set ANTHROPIC_API_KEY)", ErrMissingAPIKey)
	}

	systemPrompt, msgs := convertToAnthropicMessages(req.Messages)

	reqBody := anthropicRequest{
		Model:       a.Model,
		MaxTokens:   a.MaxTokens,
		System:      systemPrompt,
		Messages:    msgs,
		Temperature: req.Temperature,
	}
	if len(req.Tools) > 0 {
		reqBody.Tools = convertToolsToAnthropic(req.Tools)
		reqBody.ToolChoice = &anthropicChoice{Type: "auto", DisableParallelToolUse: !req.ParallelToolCalls}
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.BaseURL+"/messages", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", a.APIKey)
	httpReq.Header.Set("anthropic-version", "2023-06-01")

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var anthropicResp anthropicResponse
	if err := json.Unmarshal(body, &anthropicResp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	if anthropicResp.Error != nil {
		return nil, fmt.Errorf("anthropic API error: %s", anthropicResp.Error.Message)
	}

	var text strings.Builder
	out := &Response{
		Usage: Usage{
			PromptTokens:     anthropicResp.Usage.InputTokens,
			CompletionTokens: anthropicResp.Usage.OutputTokens,
			TotalTokens:      anthropicResp.Usage.InputTokens + anthropicResp.Usage.OutputTokens,
		},
	}
	for _, block := range anthropicResp.Content {
		switch block.Type {
		case "text":
			text.WriteString(block.Text)
		case "tool_use":
			inputJSON, err := json.Marshal(block.Input)
			if err != nil {
				return nil, fmt.Errorf("%w: tool input: %v", ErrMalformedResponse, err)
			}
			out.ToolCalls = append(out.ToolCalls, ToolCall{
				ID:        block.ID,
				Name:      block.Name,
				Arguments: string(inputJSON),
			})
		}
	}
	out.Content = text.String()

	return out, nil
}
