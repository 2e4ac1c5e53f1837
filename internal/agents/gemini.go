package agents

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/healthup/dental-assistant/internal/clock"
	"github.com/healthup/dental-assistant/pkg/logging"
)

// maxToolRounds caps the call-respond loop per exchange so a looping model
// cannot hold the worker forever.
const maxToolRounds = 8

// ToolCallObserver counts tool invocations; satisfied by
// metrics.RouterMetrics.
type ToolCallObserver interface {
	ObserveToolCall(tool, status string)
}

// GeminiEngine runs exchanges against Google's Gemini API with function
// calling enabled.
type GeminiEngine struct {
	client  *genai.Client
	modelID string
	clock   *clock.Clock
	logger  *logging.Logger
	toolObs ToolCallObserver
}

// InstrumentTools counts every serviced tool call through obs.
func (e *GeminiEngine) InstrumentTools(obs ToolCallObserver) {
	e.toolObs = obs
}

// NewGeminiEngine dials the Gemini API. modelID falls back to a sensible
// default when empty.
func NewGeminiEngine(ctx context.Context, apiKey, modelID string, clk *clock.Clock, logger *logging.Logger) (*GeminiEngine, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("agents: gemini api key is required")
	}
	if strings.TrimSpace(modelID) == "" {
		modelID = "gemini-2.5-flash"
	}
	if clk == nil {
		panic("agents: clock required")
	}
	if logger == nil {
		panic("agents: logger required")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("agents: create gemini client: %w", err)
	}
	return &GeminiEngine{client: client, modelID: modelID, clock: clk, logger: logger}, nil
}

// Run replays history, sends the user text, and services function calls
// until the model produces plain text or the round cap trips.
func (e *GeminiEngine) Run(ctx context.Context, in RunInput) (*RunResult, error) {
	if strings.TrimSpace(in.UserText) == "" {
		return nil, errors.New("agents: empty user text")
	}

	model := e.client.GenerativeModel(e.modelID)
	model.SystemInstruction = genai.NewUserContent(genai.Text(e.systemText(in.System)))
	if len(in.Tools) > 0 {
		model.Tools = []*genai.Tool{{FunctionDeclarations: declarations(in.Tools)}}
	}

	cs := model.StartChat()
	for _, turn := range in.History {
		content := strings.TrimSpace(turn.Content)
		if content == "" {
			continue
		}
		role := "user"
		if turn.Role == RoleModel {
			role = "model"
		}
		cs.History = append(cs.History, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(content)},
		})
	}

	byName := make(map[string]Tool, len(in.Tools))
	for _, t := range in.Tools {
		byName[t.Name()] = t
	}

	resp, err := cs.SendMessage(ctx, genai.Text(in.UserText))
	if err != nil {
		return nil, fmt.Errorf("agents: gemini send: %w", err)
	}

	for round := 0; round < maxToolRounds; round++ {
		calls := functionCalls(resp)
		if len(calls) == 0 {
			break
		}
		responses := make([]genai.Part, 0, len(calls))
		for _, call := range calls {
			tool, ok := byName[call.Name]
			if !ok {
				e.observeTool(call.Name, "unknown")
				responses = append(responses, genai.FunctionResponse{
					Name:     call.Name,
					Response: map[string]any{"error": "unknown tool"},
				})
				continue
			}
			out, err := tool.Call(ctx, call.Args)
			if err != nil {
				// Surface the failure to the model so it can apologize
				// instead of aborting the whole exchange.
				e.logger.Warn("tool call failed", "tool", call.Name, "error", err)
				e.observeTool(call.Name, "error")
				out = map[string]any{"error": err.Error()}
			} else {
				e.observeTool(call.Name, "ok")
			}
			responses = append(responses, genai.FunctionResponse{Name: call.Name, Response: out})
		}
		resp, err = cs.SendMessage(ctx, responses...)
		if err != nil {
			return nil, fmt.Errorf("agents: gemini tool round: %w", err)
		}
	}

	reply := responseText(resp)
	if reply == "" {
		return nil, errors.New("agents: gemini returned no text")
	}

	now := e.clock.Now()
	return &RunResult{
		Reply: reply,
		Transcript: []Turn{
			{Role: RoleUser, Timestamp: now, Content: in.UserText},
			{Role: RoleModel, Timestamp: now, Content: reply},
		},
	}, nil
}

func (e *GeminiEngine) observeTool(name, status string) {
	if e.toolObs != nil {
		e.toolObs.ObserveToolCall(name, status)
	}
}

// Close releases the underlying API client.
func (e *GeminiEngine) Close() error {
	if e.client != nil {
		return e.client.Close()
	}
	return nil
}

func (e *GeminiEngine) systemText(system []string) string {
	parts := make([]string, 0, len(system)+1)
	parts = append(parts, "Current date and time is: "+e.clock.Now().Format(time.RFC3339))
	parts = append(parts, system...)
	return strings.Join(parts, "\n\n")
}

func declarations(tools []Tool) []*genai.FunctionDeclaration {
	decls := make([]*genai.FunctionDeclaration, 0, len(tools))
	for _, t := range tools {
		decl := &genai.FunctionDeclaration{
			Name:        t.Name(),
			Description: t.Description(),
		}
		params := t.Params()
		if len(params) > 0 {
			schema := &genai.Schema{
				Type:       genai.TypeObject,
				Properties: make(map[string]*genai.Schema, len(params)),
			}
			for _, p := range params {
				schema.Properties[p.Name] = &genai.Schema{
					Type:        genai.TypeString,
					Description: p.Description,
				}
				if p.Required {
					schema.Required = append(schema.Required, p.Name)
				}
			}
			decl.Parameters = schema
		}
		decls = append(decls, decl)
	}
	return decls
}

func functionCalls(resp *genai.GenerateContentResponse) []genai.FunctionCall {
	var calls []genai.FunctionCall
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if call, ok := part.(genai.FunctionCall); ok {
				calls = append(calls, call)
			}
		}
	}
	return calls
}

func responseText(resp *genai.GenerateContentResponse) string {
	var b strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				b.WriteString(string(text))
			}
		}
	}
	return strings.TrimSpace(b.String())
}
