// Package weather provides the demo function catalog used by integration
// tests and the interactive CLI: a small weather service backed by in-memory
// data, plus a couple of utility plugins.
package weather

import (
	"context"
	"fmt"
	"strings"

	"github.com/loom-ai/loom"
	"github.com/loom-ai/loom/schema"
)

// SystemPromptTemplate is rendered with a "city" argument to produce the
// assistant's system prompt.
const SystemPromptTemplate = "You are a helpful weather assistant. " +
	"The user is based in {{$city}}. " +
	"Today's conditions there: {{weather.lookup $city}}. " +
	"Use the available functions to answer questions; do not guess."

// conditions is the canned weather data behind the lookup function.
var conditions = map[string]string{
	"tokyo":  "sunny, 24C",
	"london": "light rain, 14C",
	"oslo":   "snow, -3C",
}

// forecastPattern repeats per day in forecast output.
var forecastPattern = []string{"sunny", "cloudy", "rain"}

// NewCatalog builds the demo catalog.
func NewCatalog() *loom.Catalog {
	lookupSchema := schema.Object(map[string]*schema.Property{
		"city": schema.String("City name"),
	}, "city")

	forecastSchema := schema.Object(map[string]*schema.Property{
		"city": schema.String("City name"),
		"days": schema.Integer("How many days ahead").Min(1).Max(7).Default(3),
	}, "city")

	lookup := loom.NewFunction("weather", "lookup").
		WithDescription("Returns current conditions for a city").
		WithParameter(loom.Parameter{Name: "city", Type: "string", Required: true}).
		WithSchema(lookupSchema).
		WithValidator(schema.MustCompile(lookupSchema)).
		WithHandler(lookupHandler)

	forecast := loom.NewFunction("weather", "forecast").
		WithDescription("Returns a short forecast for a city").
		WithParameter(loom.Parameter{Name: "city", Type: "string", Required: true}).
		WithParameter(loom.Parameter{Name: "days", Type: "integer", Default: 3}).
		WithSchema(forecastSchema).
		WithValidator(schema.MustCompile(forecastSchema)).
		WithHandler(forecastHandler)

	shout := loom.NewFunction("text", "shout").
		WithDescription("Upper-cases the given text").
		WithParameter(loom.Parameter{Name: "input", Type: "string", Required: true}).
		WithHandler(func(_ context.Context, args *loom.Arguments) (any, error) {
			return strings.ToUpper(args.GetString("input")), nil
		})

	return loom.NewCatalog().
		MustRegister(lookup).
		MustRegister(forecast).
		MustRegister(shout)
}

func lookupHandler(_ context.Context, args *loom.Arguments) (any, error) {
	city := strings.ToLower(strings.TrimSpace(args.GetString("city")))
	cond, ok := conditions[city]
	if !ok {
		return nil, fmt.Errorf("no data for city %q", args.GetString("city"))
	}
	return cond, nil
}

func forecastHandler(_ context.Context, args *loom.Arguments) (any, error) {
	city := strings.TrimSpace(args.GetString("city"))
	if city == "" {
		return nil, fmt.Errorf("city is required")
	}

	days := 3
	if v, ok := args.Get("days"); ok {
		switch n := v.(type) {
		case int:
			days = n
		case float64:
			days = int(n)
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s forecast:", city)
	for i := 0; i < days; i++ {
		fmt.Fprintf(&sb, " day%d=%s", i+1, forecastPattern[i%len(forecastPattern)])
	}
	return sb.String(), nil
}
