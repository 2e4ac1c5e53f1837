package agents

import "context"

// Param describes one named argument of a tool. All tool arguments are
// strings at the wire level; tools parse richer types themselves.
type Param struct {
	Name        string
	Description string
	Required    bool
}

// Tool is one callable capability exposed to the conversational engine.
// Input and output are generic maps so the engine-side schema stays flat.
type Tool interface {
	Name() string
	Description() string
	Params() []Param
	Call(ctx context.Context, args map[string]any) (map[string]any, error)
}

// toolFunc adapts a closure into a Tool; every handler builds its catalogue
// from these.
type toolFunc struct {
	name        string
	description string
	params      []Param
	call        func(ctx context.Context, args map[string]any) (map[string]any, error)
}

func (t *toolFunc) Name() string        { return t.name }
func (t *toolFunc) Description() string { return t.description }
func (t *toolFunc) Params() []Param     { return t.params }
func (t *toolFunc) Call(ctx context.Context, args map[string]any) (map[string]any, error) {
	return t.call(ctx, args)
}

func stringArg(args map[string]any, key string) string {
	if args == nil {
		return ""
	}
	if v, ok := args[key].(string); ok {
		return v
	}
	return ""
}
