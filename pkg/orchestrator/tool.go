package orchestrator

import (
	"context"

	"github.com/google/jsonschema-go/jsonschema"
)

// InvokeFunc is a typed tool body: it receives the session's ToolRegistry so
// it can register itself before any observable side effect and unregister
// in a guaranteed-release scope (spec.md §4.5, §4.9).
type InvokeFunc[ArgType any] func(ctx context.Context, reg *ToolRegistry, arg ArgType) (any, error)

// Tool pairs a name/description/argument-schema with an untyped invoke
// shim, so a caller can dispatch on a uniform []*Tool regardless of each
// tool's concrete argument type. The Agent Runner itself never handles
// tools: the LLM collaborator resolves tool calls (see collaborators.go).
// Grounded on genx.FuncTool / genx.NewFuncTool (pkg/genx/func_tool.go),
// adapted to pass the ToolRegistry into the body instead of a FuncCall,
// since tool-registry registration is this spec's central cancellation
// mechanism rather than genx's.
type Tool struct {
	Name        string
	Description string
	Argument    *jsonschema.Schema

	Invoke func(ctx context.Context, reg *ToolRegistry, rawArgs string) (any, error)
}

// NewTool builds a Tool whose argument schema is derived from ArgType, and
// whose raw-JSON arguments are parsed (with repair-on-malformed-JSON retry,
// see jsonutil.go) into ArgType before invoke runs.
func NewTool[ArgType any](name, description string, invoke InvokeFunc[ArgType]) (*Tool, error) {
	schema, err := jsonschema.For[ArgType](nil)
	if err != nil {
		return nil, err
	}
	return &Tool{
		Name:        name,
		Description: description,
		Argument:    schema,
		Invoke: func(ctx context.Context, reg *ToolRegistry, rawArgs string) (any, error) {
			var arg ArgType
			if err := unmarshalJSON([]byte(rawArgs), &arg); err != nil {
				return nil, ProtocolViolationErr(err)
			}
			return invoke(ctx, reg, arg)
		},
	}, nil
}

// MustNewTool panics on a schema-generation error; intended for package-
// level tool tables built at init time.
func MustNewTool[ArgType any](name, description string, invoke InvokeFunc[ArgType]) *Tool {
	tool, err := NewTool(name, description, invoke)
	if err != nil {
		panic(err)
	}
	return tool
}
