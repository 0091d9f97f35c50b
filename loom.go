// Package loom is a small orchestration core for LLM applications: a prompt
// template dialect with variable substitution and function calls, a function
// catalog, and an auto function-calling loop over a provider-agnostic model
// boundary.
//
// # Quick Start
//
//	// 1. Declare functions and register them in a catalog
//	sayHi := loom.NewFunction("greet", "say_hi").
//	    WithDescription("Greets someone by name").
//	    WithParameter(loom.Parameter{Name: "name", Type: "string", Required: true}).
//	    WithHandler(func(ctx context.Context, args *loom.Arguments) (any, error) {
//	        return "Hi " + args.GetString("name") + "!", nil
//	    })
//
//	catalog := loom.NewCatalog().MustRegister(sayHi)
//
//	// 2. Render a prompt template against an argument bag
//	args := loom.NewArguments(map[string]any{"name": "Kai"})
//	prompt, err := template.Render(ctx,
//	    "Hello {{$name}}, {{greet.say_hi name=$name}}", args, catalog, nil)
//	// "Hello Kai, Hi Kai!"
//
//	// 3. Run a conversation turn with automatic function calling
//	client := models.NewLCGClient(llm).WithModelName("gpt-4o-mini")
//	history := loom.NewChatHistory().AddSystem(prompt).AddUser("Greet Kai for me")
//	result, err := executor.RunTurn(ctx, history, catalog, client, executor.DefaultPolicy())
//	fmt.Println(result.Final.Text())
//
// # Functions and the Catalog
//
// A Function is one invokable capability: a (plugin, function) identity,
// ordered parameter metadata, and a handler. Functions are declared
// explicitly with the builder - there is no reflection-based discovery - and
// registered once into a Catalog at setup time. The catalog resolves
// qualified references ("plugin-function" from models, "plugin.function"
// from templates) and bare names when unambiguous, and produces the tool
// manual advertised to models.
//
// # Templates
//
// The template package parses and renders the {{ }} dialect: variable
// substitution, quoted literals, and catalog function calls with named
// arguments. See the template package documentation for the dialect rules.
//
// # The Turn Loop
//
// The executor package drives multi-round tool calling: send history, run
// the requested functions, append their results as tool messages, resubmit,
// until the model answers in plain text or the iteration cap is hit.
// Everything the loop needs - catalog, model client, policy - is passed
// explicitly; there is no ambient kernel object.
//
// # Model Boundary
//
// ModelClient is the only contact point with providers. models.LCGClient
// adapts any LangChainGo llms.Model; models.Scripted replays canned replies
// for tests. Streaming clients additionally expose SendStream returning a
// Stream of deltas that consumers may abandon early with Stop.
//
// # Hooks
//
// The hooks package dispatches turn, model-call, and function-call events to
// registered observers, in registration order. Hooks observe; they do not
// alter control flow.
package loom
