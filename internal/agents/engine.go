package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Turn roles inside a transcript fragment.
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// Turn is one role-tagged utterance.
type Turn struct {
	Role      string    `json:"role"`
	Timestamp time.Time `json:"timestamp"`
	Content   string    `json:"content"`
}

// RunInput is everything the conversational engine needs for one exchange:
// the handler's behavior script, the replayed history, the new user text,
// and the capability set it may call back into.
type RunInput struct {
	System   []string
	History  []Turn
	UserText string
	Tools    []Tool
}

// RunResult carries the reply plus the transcript delta (the user turn and
// the model turn) for persistence.
type RunResult struct {
	Reply      string
	Transcript []Turn
}

// Engine is the external conversational engine. Implementations block on
// network latency; tool calls fire synchronously inside Run, so a failed or
// timed-out Run leaves no side effects beyond tools that already committed.
type Engine interface {
	Run(ctx context.Context, in RunInput) (*RunResult, error)
}

// fragmentEnvelope versions the opaque blob stored per exchange.
type fragmentEnvelope struct {
	Version int    `json:"v"`
	Turns   []Turn `json:"turns"`
}

// EncodeFragment serializes a transcript delta for the conversation store.
func EncodeFragment(turns []Turn) ([]byte, error) {
	data, err := json.Marshal(fragmentEnvelope{Version: 1, Turns: turns})
	if err != nil {
		return nil, fmt.Errorf("agents: encode fragment: %w", err)
	}
	return data, nil
}

// DecodeFragment parses a stored blob back into turns. Unknown versions and
// malformed blobs fail loudly; history replay must not silently drop turns.
func DecodeFragment(data []byte) ([]Turn, error) {
	var env fragmentEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("agents: decode fragment: %w", err)
	}
	if env.Version != 1 {
		return nil, fmt.Errorf("agents: unsupported fragment version %d", env.Version)
	}
	return env.Turns, nil
}
