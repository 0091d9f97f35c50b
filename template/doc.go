// Package template implements the {{ }} prompt template dialect: literal
// text interleaved with code blocks holding variable substitutions, quoted
// literals, and catalog function calls.
//
// # Dialect
//
//	Hello {{$name}}, {{greet.say_hi name=$name}}
//
// A code block is one {{ }} pair. Its first token decides what it does:
//
//   - {{$city}} substitutes the "city" argument; unknown variables render
//     as the empty string
//   - {{'literal'}} or {{"literal"}} emits the quoted text; \', \" and \\
//     decode inside quotes, any other escape passes through unchanged
//   - {{plugin.function ...}} invokes a catalog function; one bare $var or
//     quoted value binds to the function's primary parameter, and
//     name=value pairs bind by name (values may be $var references,
//     quoted, or bare literals)
//   - {{}} renders to the empty string
//
// # Rendering
//
//	out, err := template.Render(ctx, source, args, catalog, nil)
//
// Rendering is a single left-to-right pass. Substituted text is opaque: it
// is never re-tokenized, so argument values containing {{ do not expand.
// Malformed templates fail with a *SyntaxError; unknown function references
// fail with the catalog's resolution errors. Either aborts the whole render
// with no partial output.
//
// Parse once and render repeatedly when the same template is used with many
// argument bags:
//
//	tmpl, err := template.Parse(source)
//	out, err := tmpl.Render(ctx, args, catalog, nil)
package template
