// Package ai turns free-text requests into reminder fields through an
// OpenAI-compatible chat completion endpoint.
package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

type Client struct {
	client *openai.Client
	model  string
	now    func() time.Time
}

func New(apiKey, baseURL, model string) *Client {
	config := openai.DefaultConfig(apiKey)
	config.BaseURL = baseURL

	return &Client{
		client: openai.NewClientWithConfig(config),
		model:  model,
		now:    time.Now,
	}
}

func (c *Client) SetModel(model string) {
	c.model = model
}

// Extraction is what the model read out of a message. When and Repeat are
// expressions for the regular parser, never resolved instants.
type Extraction struct {
	IsReminder  bool   `json:"is_reminder"`
	Message     string `json:"message"`
	When        string `json:"when"`
	Repeat      string `json:"repeat"`
	Reply       string `json:"reply"`
	RawResponse string `json:"-"`
}

const systemPromptTemplate = `You read chat messages sent to a reminder bot and extract reminder requests.

Current time in the user's zone (%s): %s

Return is_reminder = true only when the user asks to be reminded of something.

Fields:
- message: what to remind about, in the user's words, without the time phrase.
- when: the time, rewritten into exactly one of these forms:
  "in <n> <minutes|hours|days|weeks|months|years>", "at <clock>", "today at <clock>",
  "tomorrow at <clock>", "next <weekday> at <clock>", or "YYYY-MM-DD HH:MM".
  <clock> is like 3pm, 9:30am or 15:45.
- repeat: "" when it happens once, otherwise one of daily, weekly, monthly, yearly,
  or "every <weekday>[, <weekday>...]" or "every <n> <minutes|hours|days|weeks>".
- reply: a short friendly answer when is_reminder is false, or a question when the
  time or the message is missing.

Never invent a time the user did not give. Leave when empty instead.`

var extractionSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"is_reminder": {"type": "boolean"},
		"message": {"type": "string"},
		"when": {"type": "string"},
		"repeat": {"type": "string"},
		"reply": {"type": "string"}
	},
	"required": ["is_reminder", "message", "when", "repeat", "reply"],
	"additionalProperties": false
}`)

func (c *Client) systemPrompt(zone *time.Location) string {
	return fmt.Sprintf(systemPromptTemplate, zone.String(), c.now().In(zone).Format("2006-01-02 15:04 (Monday)"))
}

// ExtractReminder asks the model for the reminder fields in text, reading
// relative phrases against the current time in zone.
func (c *Client) ExtractReminder(ctx context.Context, text string, zone *time.Location) (*Extraction, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: c.systemPrompt(zone),
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: text,
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   "reminder",
				Schema: extractionSchema,
				Strict: true,
			},
		},
		Temperature: 0.1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to call AI API: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from AI")
	}

	content := resp.Choices[0].Message.Content
	out := &Extraction{RawResponse: content}
	if err := json.Unmarshal([]byte(content), out); err != nil {
		return nil, fmt.Errorf("failed to parse AI response: %w", err)
	}
	out.Message = strings.TrimSpace(out.Message)
	out.When = strings.TrimSpace(out.When)
	out.Repeat = strings.TrimSpace(out.Repeat)
	return out, nil
}

// Complete reports whether the extraction carries enough to create a reminder.
func (e *Extraction) Complete() bool {
	return e.IsReminder && e.Message != "" && e.When != ""
}
