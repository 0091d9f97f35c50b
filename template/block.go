package template

import (
	"errors"
	"fmt"
)

// Code block delimiters and the variable sigil for the template dialect.
const (
	codeOpen  = "{{"
	codeClose = "}}"
	varSigil  = '$'
)

// ErrSyntax is wrapped by every SyntaxError. Test with errors.Is when the
// position and message don't matter.
var ErrSyntax = errors.New("template syntax error")

// SyntaxError reports malformed template text: unbalanced braces, bad token
// separation, or a malformed named argument. Always fatal to the render.
type SyntaxError struct {
	// Position is the byte offset into the template source where the
	// problem was detected.
	Position int
	Message  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("template syntax error at offset %d: %s", e.Position, e.Message)
}

func (e *SyntaxError) Unwrap() error { return ErrSyntax }

func syntaxErrf(pos int, format string, args ...any) error {
	return &SyntaxError{Position: pos, Message: fmt.Sprintf(format, args...)}
}

// BlockKind identifies what a parsed block is.
type BlockKind int

const (
	// KindText is literal template text outside {{ }}.
	KindText BlockKind = iota
	// KindCode is one {{ }} unit holding its token blocks.
	KindCode
	// KindVariable is a $name reference.
	KindVariable
	// KindValue is a literal, quoted or bare.
	KindValue
	// KindFunctionID is a function reference, optionally plugin-qualified.
	KindFunctionID
	// KindNamedArg is a name=value pair inside a function call.
	KindNamedArg
)

// Block is the unit produced by parsing. Blocks are immutable after parse.
type Block interface {
	Kind() BlockKind

	// Content returns the decoded text of the block: the raw text for Text
	// blocks, "$name" for variables, the unquoted literal for values.
	Content() string
}

// TextBlock is literal text emitted verbatim.
type TextBlock struct {
	text string
}

func (b *TextBlock) Kind() BlockKind { return KindText }
func (b *TextBlock) Content() string { return b.text }

// VariableBlock is a $name reference resolved against the argument bag.
type VariableBlock struct {
	name string
}

func (b *VariableBlock) Kind() BlockKind { return KindVariable }
func (b *VariableBlock) Content() string { return string(varSigil) + b.name }

// Name returns the variable name with the sigil stripped.
func (b *VariableBlock) Name() string { return b.name }

// ValueBlock is a literal value. Quoted values record the delimiter actually
// used so they round-trip; bare values (unquoted named-arg values) have a
// zero delimiter.
type ValueBlock struct {
	value string
	delim rune // '\'' or '"', 0 for bare literals
}

func (b *ValueBlock) Kind() BlockKind { return KindValue }
func (b *ValueBlock) Content() string { return b.value }

// Delimiter returns the quote character used in the source, or 0 for bare
// literals.
func (b *ValueBlock) Delimiter() rune { return b.delim }

// FunctionIDBlock references a catalog function. Plugin is empty for bare
// references, which must then be unambiguous in the catalog.
type FunctionIDBlock struct {
	raw      string
	plugin   string
	function string
}

func (b *FunctionIDBlock) Kind() BlockKind { return KindFunctionID }
func (b *FunctionIDBlock) Content() string { return b.raw }

// Plugin returns the plugin part of the reference, empty when bare.
func (b *FunctionIDBlock) Plugin() string { return b.plugin }

// Function returns the function part of the reference.
func (b *FunctionIDBlock) Function() string { return b.function }

// NamedArgBlock is a name=value keyword argument in a function call.
// Exactly one of Variable and Value is non-nil.
type NamedArgBlock struct {
	name     string
	variable *VariableBlock
	value    *ValueBlock
}

func (b *NamedArgBlock) Kind() BlockKind { return KindNamedArg }

func (b *NamedArgBlock) Content() string {
	if b.variable != nil {
		return b.name + "=" + b.variable.Content()
	}
	return b.name + "=" + b.value.Content()
}

// Name returns the argument name.
func (b *NamedArgBlock) Name() string { return b.name }

// Variable returns the $var value, or nil when the value is a literal.
func (b *NamedArgBlock) Variable() *VariableBlock { return b.variable }

// Value returns the literal value, or nil when the value is a variable.
func (b *NamedArgBlock) Value() *ValueBlock { return b.value }

// CodeBlock is one {{ ... }} unit. Its first token decides the evaluation
// mode: a Variable or Value child substitutes directly; a FunctionID child
// invokes a function with the remaining tokens as arguments; no children
// renders to the empty string.
type CodeBlock struct {
	tokens []Block
	raw    string
}

func (b *CodeBlock) Kind() BlockKind { return KindCode }
func (b *CodeBlock) Content() string { return b.raw }

// Tokens returns the token blocks inside the code block, in source order.
func (b *CodeBlock) Tokens() []Block {
	out := make([]Block, len(b.tokens))
	copy(out, b.tokens)
	return out
}
