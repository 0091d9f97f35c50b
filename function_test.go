package loom

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFunction_PanicsOnEmptyIdentity(t *testing.T) {
	assert.Panics(t, func() { NewFunction("", "fn") })
	assert.Panics(t, func() { NewFunction("plugin", "") })
}

func TestFunction_QualifiedName(t *testing.T) {
	fn := NewFunction("weather", "lookup")
	assert.Equal(t, "weather-lookup", fn.QualifiedName())
}

func TestFunction_PrimaryParameter(t *testing.T) {
	fn := NewFunction("a", "b")
	assert.Equal(t, "input", fn.PrimaryParameter(), "fallback when no parameters declared")

	fn.WithParameter(Parameter{Name: "city"}).WithParameter(Parameter{Name: "days"})
	assert.Equal(t, "city", fn.PrimaryParameter(), "first declared parameter wins")
}

func TestFunction_Invoke_NoHandler(t *testing.T) {
	fn := NewFunction("a", "b")

	_, err := fn.Invoke(context.Background(), NewArguments(nil))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "a-b")
}

func TestFunction_Invoke_AppliesDefaults(t *testing.T) {
	var seen *Arguments
	fn := NewFunction("weather", "lookup").
		WithParameter(Parameter{Name: "city", Required: true}).
		WithParameter(Parameter{Name: "days", Default: 3}).
		WithParameter(Parameter{Name: "unit", Default: "celsius"}).
		WithHandler(func(_ context.Context, args *Arguments) (any, error) {
			seen = args
			return "ok", nil
		})

	args := NewArguments(map[string]any{"city": "Tokyo", "unit": "fahrenheit"})
	_, err := fn.Invoke(context.Background(), args)

	require.NoError(t, err)
	days, ok := seen.Get("days")
	require.True(t, ok)
	assert.Equal(t, 3, days, "missing parameter gets its default")
	assert.Equal(t, "fahrenheit", seen.GetString("unit"), "supplied value beats the default")

	// The caller's bag is untouched.
	_, ok = args.Get("days")
	assert.False(t, ok)
	assert.Equal(t, 2, args.Len())
}

func TestFunction_Invoke_NilArguments(t *testing.T) {
	fn := NewFunction("a", "b").
		WithParameter(Parameter{Name: "x", Default: "d"}).
		WithHandler(func(_ context.Context, args *Arguments) (any, error) {
			return args.GetString("x"), nil
		})

	result, err := fn.Invoke(context.Background(), nil)

	require.NoError(t, err)
	assert.Equal(t, "d", result)
}

func TestFunction_Schema_Synthesized(t *testing.T) {
	fn := NewFunction("weather", "lookup").
		WithParameter(Parameter{Name: "city", Type: "string", Description: "City name", Required: true}).
		WithParameter(Parameter{Name: "days", Type: "integer", Default: 3})

	schema := fn.Schema()

	assert.Equal(t, "object", schema["type"])
	assert.Equal(t, []string{"city"}, schema["required"])

	props := schema["properties"].(map[string]any)
	city := props["city"].(map[string]any)
	assert.Equal(t, "string", city["type"])
	assert.Equal(t, "City name", city["description"])
	days := props["days"].(map[string]any)
	assert.Equal(t, 3, days["default"])
}

func TestFunction_Schema_ExplicitWins(t *testing.T) {
	explicit := map[string]any{"type": "object", "properties": map[string]any{}}
	fn := NewFunction("a", "b").
		WithParameter(Parameter{Name: "ignored"}).
		WithSchema(explicit)

	assert.Equal(t, explicit, fn.Schema())
}

func TestDefaultInvoker(t *testing.T) {
	fn := NewFunction("a", "b").
		WithHandler(func(_ context.Context, args *Arguments) (any, error) {
			return "via handler", nil
		})

	result, err := DefaultInvoker(context.Background(), fn, NewArguments(nil))

	require.NoError(t, err)
	assert.Equal(t, "via handler", result)
}
