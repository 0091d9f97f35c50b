package loom

import (
	"context"
	"fmt"
)

// QualifiedNameSeparator joins plugin and function names in the fully
// qualified form advertised to models ("plugin-function"). Templates use the
// dotted form ("plugin.function"); Catalog.Resolve accepts both.
const QualifiedNameSeparator = "-"

// Parameter describes one declared parameter of a Function, in declaration
// order. The first declared parameter is the "primary" parameter: template
// function calls bind their bare positional argument to it.
type Parameter struct {
	Name        string
	Description string

	// Type is a JSON Schema style type tag: "string", "integer", "number",
	// "boolean", "object", "array". Informational unless the function also
	// carries a schema validator.
	Type string

	Required bool

	// Default is applied when the argument bag has no value for this
	// parameter. nil means no default.
	Default any
}

// Handler is the callable behind a Function. It receives the call arguments
// already merged with parameter defaults. Handlers may block; they must
// honor ctx cancellation.
type Handler func(ctx context.Context, args *Arguments) (any, error)

// Invoker is the capability used to execute a resolved Function. The template
// renderer and the executor never call handlers directly; they go through an
// Invoker so callers can wrap invocation (tracing, mocking, nested renders).
//
// The zero Invoker is not usable; DefaultInvoker calls the function directly.
type Invoker func(ctx context.Context, fn *Function, args *Arguments) (any, error)

// DefaultInvoker invokes the function's own handler.
func DefaultInvoker(ctx context.Context, fn *Function, args *Arguments) (any, error) {
	return fn.Invoke(ctx, args)
}

// ArgsValidator validates a raw argument map before dispatch.
// schema.Schema implements this interface.
type ArgsValidator interface {
	Validate(args map[string]any) error
}

// Function is one invokable catalog entry: a (plugin, function) identity,
// human-readable description, ordered parameter metadata, and a handler.
//
// Functions are built once at setup time with NewFunction and the WithX
// chain, registered into a Catalog, and never mutated afterwards.
type Function struct {
	pluginName   string
	functionName string
	description  string
	parameters   []Parameter
	handler      Handler

	// rawSchema is the JSON Schema map advertised in the tool manual.
	// When nil, a schema is synthesized from the declared parameters.
	rawSchema map[string]any

	// validator, when set, is run against model-supplied arguments before
	// dispatch.
	validator ArgsValidator
}

// NewFunction creates a Function with the given plugin and function names.
// Panics if either name is empty - identity is not optional.
func NewFunction(pluginName, functionName string) *Function {
	if pluginName == "" || functionName == "" {
		panic("loom: function plugin and name must be non-empty")
	}
	return &Function{
		pluginName:   pluginName,
		functionName: functionName,
	}
}

// WithDescription sets the description shown to models in the tool manual.
func (f *Function) WithDescription(desc string) *Function {
	f.description = desc
	return f
}

// WithParameter appends one declared parameter. The first parameter added is
// the primary parameter for positional template arguments.
func (f *Function) WithParameter(p Parameter) *Function {
	f.parameters = append(f.parameters, p)
	return f
}

// WithHandler sets the callable executed on invocation.
func (f *Function) WithHandler(h Handler) *Function {
	f.handler = h
	return f
}

// WithSchema sets the raw JSON Schema map advertised in the tool manual.
func (f *Function) WithSchema(raw map[string]any) *Function {
	f.rawSchema = raw
	return f
}

// WithValidator sets the validator run against model-supplied arguments
// before dispatch. Use schema.MustCompile to build one from a schema map.
func (f *Function) WithValidator(v ArgsValidator) *Function {
	f.validator = v
	return f
}

// PluginName returns the plugin identity.
func (f *Function) PluginName() string { return f.pluginName }

// FunctionName returns the function identity within its plugin.
func (f *Function) FunctionName() string { return f.functionName }

// Description returns the human-readable description.
func (f *Function) Description() string { return f.description }

// Parameters returns the declared parameters in declaration order.
func (f *Function) Parameters() []Parameter {
	out := make([]Parameter, len(f.parameters))
	copy(out, f.parameters)
	return out
}

// QualifiedName returns "plugin-function", the form advertised to models.
func (f *Function) QualifiedName() string {
	return f.pluginName + QualifiedNameSeparator + f.functionName
}

// PrimaryParameter returns the name the positional template argument binds
// to: the first declared parameter, or "input" when none are declared.
func (f *Function) PrimaryParameter() string {
	if len(f.parameters) > 0 {
		return f.parameters[0].Name
	}
	return "input"
}

// Schema returns the JSON Schema map for the tool manual. When no schema was
// set explicitly, one is synthesized from the declared parameters.
func (f *Function) Schema() map[string]any {
	if f.rawSchema != nil {
		return f.rawSchema
	}
	return f.synthesizeSchema()
}

// Validator returns the configured argument validator, or nil.
func (f *Function) Validator() ArgsValidator { return f.validator }

// Invoke runs the handler with defaults applied for missing parameters.
// The args bag is cloned before defaults are merged in, so the caller's bag
// is never written to.
func (f *Function) Invoke(ctx context.Context, args *Arguments) (any, error) {
	if f.handler == nil {
		return nil, fmt.Errorf("function %s has no handler", f.QualifiedName())
	}
	merged := args
	if merged == nil {
		merged = NewArguments(nil)
	}
	for _, p := range f.parameters {
		if p.Default == nil {
			continue
		}
		if _, ok := merged.Get(p.Name); !ok {
			if merged == args {
				merged = args.Clone()
			}
			merged.Set(p.Name, p.Default)
		}
	}
	return f.handler(ctx, merged)
}

// synthesizeSchema builds an object schema from declared parameters.
func (f *Function) synthesizeSchema() map[string]any {
	properties := make(map[string]any, len(f.parameters))
	var required []string
	for _, p := range f.parameters {
		prop := map[string]any{}
		if p.Type != "" {
			prop["type"] = p.Type
		}
		if p.Description != "" {
			prop["description"] = p.Description
		}
		if p.Default != nil {
			prop["default"] = p.Default
		}
		properties[p.Name] = prop
		if p.Required {
			required = append(required, p.Name)
		}
	}
	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}
