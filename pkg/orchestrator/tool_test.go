package orchestrator

import (
	"context"
	"testing"
)

type weatherArgs struct {
	City string `json:"city"`
}

func newWeatherTool(t *testing.T) *Tool {
	t.Helper()
	tool, err := NewTool("get_weather", "Looks up the current weather for a city.",
		func(ctx context.Context, reg *ToolRegistry, arg weatherArgs) (any, error) {
			id := reg.Register("get_weather", func() {}, map[string]any{"city": arg.City})
			defer reg.Unregister(id)
			return "sunny in " + arg.City, nil
		})
	if err != nil {
		t.Fatalf("NewTool: %v", err)
	}
	return tool
}

// TestToolInvokeEndToEnd drives NewTool's generated schema and Invoke shim
// through a real ToolRegistry, the only call site this package gives
// Tool/NewTool: the Agent Runner's LLM collaborator resolves tool calls
// internally (collaborators.go), so nothing else in this tree constructs
// one.
func TestToolInvokeEndToEnd(t *testing.T) {
	tool := newWeatherTool(t)

	if tool.Argument == nil {
		t.Fatal("expected a generated argument schema")
	}
	if _, ok := tool.Argument.Properties["city"]; !ok {
		t.Fatalf("expected schema to declare a \"city\" property, got %+v", tool.Argument.Properties)
	}

	reg := NewToolRegistry()
	result, err := tool.Invoke(context.Background(), reg, `{"city":"Austin"}`)
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if result != "sunny in Austin" {
		t.Fatalf("result = %v, want \"sunny in Austin\"", result)
	}
	if reg.Len() != 0 {
		t.Fatalf("expected the tool body's deferred Unregister to leave the registry empty, got %d", reg.Len())
	}
}

// TestToolInvokeRepairsMalformedJSON exercises unmarshalJSON's
// repair-on-*json.SyntaxError retry (jsonutil.go) through the same path an
// LLM's slightly-malformed tool-call arguments would take.
func TestToolInvokeRepairsMalformedJSON(t *testing.T) {
	tool := newWeatherTool(t)
	reg := NewToolRegistry()

	// A trailing comma: invalid JSON that jsonrepair can fix without changing
	// the intended value.
	result, err := tool.Invoke(context.Background(), reg, `{"city":"Austin",}`)
	if err != nil {
		t.Fatalf("Invoke with malformed JSON should repair-and-retry, got error: %v", err)
	}
	if result != "sunny in Austin" {
		t.Fatalf("result = %v, want \"sunny in Austin\"", result)
	}
}

// TestMustNewToolBuildsLikeNewTool confirms the init-time convenience
// constructor (for package-level tool tables, per its doc comment) produces
// the same schema/Invoke shape as NewTool instead of panicking on a valid
// argument type.
func TestMustNewToolBuildsLikeNewTool(t *testing.T) {
	tool := MustNewTool("get_weather", "Looks up the current weather for a city.",
		func(ctx context.Context, reg *ToolRegistry, arg weatherArgs) (any, error) {
			return "sunny in " + arg.City, nil
		})

	reg := NewToolRegistry()
	result, err := tool.Invoke(context.Background(), reg, `{"city":"Boston"}`)
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if result != "sunny in Boston" {
		t.Fatalf("result = %v, want \"sunny in Boston\"", result)
	}
}
