package template

import (
	"context"
	"fmt"
	"strings"

	"github.com/loom-ai/loom"
)

// Template is a parsed prompt template, reusable across renders.
type Template struct {
	source string
	blocks []Block
}

// Source returns the original template string.
func (t *Template) Source() string { return t.source }

// Blocks returns the parsed top-level blocks in source order.
func (t *Template) Blocks() []Block {
	out := make([]Block, len(t.blocks))
	copy(out, t.blocks)
	return out
}

// Render parses the template and renders it in one call. See
// Template.Render for semantics.
func Render(
	ctx context.Context,
	source string,
	args *loom.Arguments,
	catalog *loom.Catalog,
	invoke loom.Invoker,
) (string, error) {
	tmpl, err := Parse(source)
	if err != nil {
		return "", err
	}
	return tmpl.Render(ctx, args, catalog, invoke)
}

// Render walks the blocks left to right, substituting variables from args
// and invoking catalog functions through invoke, and concatenates the
// results.
//
// Substituted values are opaque text: they are never re-parsed, so a value
// containing {{ does not expand again. Missing variables render as the
// empty string. Any function resolution or invocation error aborts the whole
// render with no partial output.
//
// invoke may be nil, in which case functions are invoked directly via
// loom.DefaultInvoker. The args bag is only read, never written.
func (t *Template) Render(
	ctx context.Context,
	args *loom.Arguments,
	catalog *loom.Catalog,
	invoke loom.Invoker,
) (string, error) {
	if invoke == nil {
		invoke = loom.DefaultInvoker
	}

	var sb strings.Builder
	for _, block := range t.blocks {
		switch b := block.(type) {
		case *TextBlock:
			sb.WriteString(b.Content())
		case *CodeBlock:
			rendered, err := renderCode(ctx, b, args, catalog, invoke)
			if err != nil {
				return "", err
			}
			sb.WriteString(rendered)
		default:
			return "", fmt.Errorf("unexpected top-level block kind %d", block.Kind())
		}
	}
	return sb.String(), nil
}

// renderCode evaluates one {{ }} unit.
func renderCode(
	ctx context.Context,
	code *CodeBlock,
	args *loom.Arguments,
	catalog *loom.Catalog,
	invoke loom.Invoker,
) (string, error) {
	tokens := code.tokens
	if len(tokens) == 0 {
		return "", nil
	}

	switch first := tokens[0].(type) {
	case *VariableBlock:
		return args.GetString(first.Name()), nil

	case *ValueBlock:
		return first.Content(), nil

	case *FunctionIDBlock:
		return renderFunctionCall(ctx, first, tokens[1:], args, catalog, invoke)

	default:
		return "", fmt.Errorf("unexpected code block token kind %d", first.Kind())
	}
}

// renderFunctionCall resolves the referenced function, builds its call
// arguments from the positional and named tokens, and invokes it.
func renderFunctionCall(
	ctx context.Context,
	id *FunctionIDBlock,
	rest []Block,
	args *loom.Arguments,
	catalog *loom.Catalog,
	invoke loom.Invoker,
) (string, error) {
	if catalog == nil {
		return "", &loom.FunctionNotFoundError{Name: id.Content()}
	}
	fn, err := catalog.Resolve(id.Content())
	if err != nil {
		return "", err
	}

	callArgs := loom.NewArguments(nil)
	for _, tok := range rest {
		switch arg := tok.(type) {
		case *VariableBlock:
			value, _ := args.Get(arg.Name())
			callArgs.Set(fn.PrimaryParameter(), value)
		case *ValueBlock:
			callArgs.Set(fn.PrimaryParameter(), arg.Content())
		case *NamedArgBlock:
			if v := arg.Variable(); v != nil {
				value, _ := args.Get(v.Name())
				callArgs.Set(arg.Name(), value)
			} else {
				callArgs.Set(arg.Name(), arg.Value().Content())
			}
		}
	}

	result, err := invoke(ctx, fn, callArgs)
	if err != nil {
		return "", fmt.Errorf("rendering %q: %w", id.Content(), err)
	}
	return loom.Stringify(result), nil
}
