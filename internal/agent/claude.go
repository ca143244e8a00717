package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// DefaultModel is the Claude model used when none is configured.
const DefaultModel = "claude-sonnet-4-20250514"

const maxTokens = 4096

// ClaudeModel runs conversations on the Anthropic Messages API.
type ClaudeModel struct {
	client anthropic.Client
	model  anthropic.Model
}

var _ Model = (*ClaudeModel)(nil)

// NewClaudeModel returns a model using apiKey. Extra request options, such as
// option.WithBaseURL, are passed to the client.
func NewClaudeModel(apiKey, model string, opts ...option.RequestOption) *ClaudeModel {
	if model == "" {
		model = DefaultModel
	}
	return &ClaudeModel{
		client: anthropic.NewClient(append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)...),
		model:  anthropic.Model(model),
	}
}

func (m *ClaudeModel) Start(system, prompt string, specs []ToolSpec) Session {
	tools := make([]anthropic.ToolUnionParam, len(specs))
	for i, s := range specs {
		tools[i] = anthropic.ToolUnionParam{OfTool: &anthropic.ToolParam{
			Name:        s.Name,
			Description: anthropic.String(s.Description),
			InputSchema: anthropic.ToolInputSchemaParam{
				Properties:  s.Properties,
				ExtraFields: map[string]any{"required": s.Required},
			},
		}}
	}
	return &claudeSession{
		client: m.client,
		params: anthropic.MessageNewParams{
			Model:     m.model,
			MaxTokens: maxTokens,
			System:    []anthropic.TextBlockParam{{Text: system}},
			Tools:     tools,
			Messages:  []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(prompt))},
		},
	}
}

type claudeSession struct {
	client anthropic.Client
	params anthropic.MessageNewParams
}

func (s *claudeSession) Next(ctx context.Context, results []ToolResult) ([]ToolCall, error) {
	if len(results) > 0 {
		blocks := make([]anthropic.ContentBlockParamUnion, len(results))
		for i, r := range results {
			blocks[i] = anthropic.NewToolResultBlock(r.CallID, r.Content, r.IsError)
		}
		s.params.Messages = append(s.params.Messages, anthropic.NewUserMessage(blocks...))
	}

	msg, err := s.client.Messages.New(ctx, s.params)
	if err != nil {
		return nil, fmt.Errorf("agent.claudeSession.Next: %w", err)
	}
	s.params.Messages = append(s.params.Messages, msg.ToParam())

	var calls []ToolCall
	for _, block := range msg.Content {
		if use, ok := block.AsAny().(anthropic.ToolUseBlock); ok {
			calls = append(calls, ToolCall{
				ID:    use.ID,
				Name:  use.Name,
				Input: json.RawMessage(use.JSON.Input.Raw()),
			})
		}
	}
	return calls, nil
}
