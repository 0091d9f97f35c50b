// Package executor drives the auto function-calling loop for one
// conversation turn.
//
// # The loop
//
// RunTurn sends the chat history plus the advertised function manual to the
// model boundary and inspects the reply. A plain answer ends the turn. A
// reply carrying function-call items is dispatched against the catalog: each
// call is resolved, validated, invoked, and its result (or its error, as
// text the model can react to) is appended to history as a tool-role
// message, in request order. The updated history is then resubmitted, up to
// the policy's iteration cap.
//
//	catalog := loom.NewCatalog().MustRegister(weatherFn)
//	exec := executor.New(catalog, client, executor.DefaultPolicy())
//
//	history := loom.NewChatHistory().AddUser("What's the weather in Tokyo?")
//	result, err := exec.RunTurn(ctx, history)
//	fmt.Println(result.Final.Text())
//
// # Policy
//
// Policy controls auto-invocation, the iteration cap, which plugins are
// advertised, parallel dispatch, and whether dispatch errors raise instead
// of becoming tool-result content. See Policy and DefaultPolicy.
//
// # Termination
//
// A turn ends in one of three ways: the model produced a plain answer
// (TurnResult.Final), the iteration cap was hit while the model still
// requested calls (TurnResult.CapReached, not an error), or an error
// occurred - provider failures pass through unchanged, and context
// cancellation stops in-flight dispatches without appending partial tool
// messages.
package executor
