package llm

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"marquee/internal/services"
)

type chatRequest struct {
	Model          string            `json:"model"`
	Messages       []chatMessage     `json:"messages"`
	Temperature    float64           `json:"temperature"`
	ResponseFormat map[string]string `json:"response_format"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func (c *Client) jsonRequest(system, user string) chatRequest {
	return chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		ResponseFormat: map[string]string{"type": "json_object"},
	}
}

type chatReply struct {
	Choices []chatChoice `json:"choices"`
	Error   *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// chatChoice accepts the regular message, a streaming delta and the legacy
// completion text since providers disagree on which one they fill.
type chatChoice struct {
	Message      replyMessage `json:"message"`
	Delta        replyMessage `json:"delta"`
	Text         string       `json:"text"`
	FinishReason string       `json:"finish_reason"`
}

type replyMessage struct {
	Content      string      `json:"content"`
	Refusal      string      `json:"refusal"`
	FunctionCall *replyCall  `json:"function_call"`
	ToolCalls    []replyTool `json:"tool_calls"`
}

type replyTool struct {
	ID       string    `json:"id"`
	Type     string    `json:"type"`
	Function replyCall `json:"function"`
}

type replyCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// text returns the first usable payload carried by the message.
func (m replyMessage) text() string {
	if s := strings.TrimSpace(m.Content); s != "" {
		return s
	}
	if m.FunctionCall != nil {
		if s := strings.TrimSpace(m.FunctionCall.Arguments); s != "" {
			return s
		}
	}
	for _, tool := range m.ToolCalls {
		if s := strings.TrimSpace(tool.Function.Arguments); s != "" {
			return s
		}
	}
	return ""
}

// payload picks the first non-empty content across choices along with the
// first finish reason and refusal seen.
func (r chatReply) payload() (content, finish, refusal string) {
	for _, choice := range r.Choices {
		if finish == "" {
			finish = strings.TrimSpace(choice.FinishReason)
		}
		if refusal == "" {
			refusal = strings.TrimSpace(choice.Message.Refusal)
			if refusal == "" {
				refusal = strings.TrimSpace(choice.Delta.Refusal)
			}
		}
		for _, candidate := range []string{choice.Message.text(), choice.Delta.text(), strings.TrimSpace(choice.Text)} {
			if candidate != "" {
				return candidate, finish, refusal
			}
		}
	}
	return "", finish, refusal
}

func (c *Client) send(ctx context.Context, body chatRequest) (chatReply, []byte, error) {
	var reply chatReply
	encoded, err := json.Marshal(body)
	if err != nil {
		return reply, nil, fmt.Errorf("llm request: encode body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL, bytes.NewReader(encoded))
	if err != nil {
		return reply, nil, fmt.Errorf("llm request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	if ref := c.cfg.Referer; ref != "" {
		req.Header.Set("HTTP-Referer", ref)
		req.Header.Set("Referer", ref)
	}
	if title := c.cfg.Title; title != "" {
		req.Header.Set("X-Title", title)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return reply, nil, fmt.Errorf("llm request (timeout %s): %w", c.http.Timeout, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return reply, nil, fmt.Errorf("llm request: read body: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return reply, raw, newStatusError(resp, raw)
	}
	if err := json.Unmarshal(raw, &reply); err != nil {
		return reply, raw, fmt.Errorf("llm request: decode response: %w", err)
	}
	if reply.Error != nil {
		return reply, raw, fmt.Errorf("llm request: provider error %q: %w", strings.TrimSpace(reply.Error.Message), services.ErrUpstream)
	}
	return reply, raw, nil
}
