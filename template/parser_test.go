package template

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_TextOnly(t *testing.T) {
	tmpl, err := Parse("Hello world, no code here.")

	require.NoError(t, err)
	blocks := tmpl.Blocks()
	require.Len(t, blocks, 1)
	assert.Equal(t, KindText, blocks[0].Kind())
	assert.Equal(t, "Hello world, no code here.", blocks[0].Content())
}

func TestParse_Empty(t *testing.T) {
	tmpl, err := Parse("")

	require.NoError(t, err)
	assert.Empty(t, tmpl.Blocks())
	assert.Equal(t, "", tmpl.Source())
}

func TestParse_StrayCloserIsText(t *testing.T) {
	// A }} with no opening {{ is ordinary text.
	tmpl, err := Parse("weird }} but fine")

	require.NoError(t, err)
	blocks := tmpl.Blocks()
	require.Len(t, blocks, 1)
	assert.Equal(t, KindText, blocks[0].Kind())
}

func TestParse_MixedTextAndCode(t *testing.T) {
	tmpl, err := Parse("Hello {{$name}}, welcome to {{$place}}!")

	require.NoError(t, err)
	blocks := tmpl.Blocks()
	require.Len(t, blocks, 5)

	assert.Equal(t, KindText, blocks[0].Kind())
	assert.Equal(t, "Hello ", blocks[0].Content())
	assert.Equal(t, KindCode, blocks[1].Kind())
	assert.Equal(t, KindText, blocks[2].Kind())
	assert.Equal(t, ", welcome to ", blocks[2].Content())
	assert.Equal(t, KindCode, blocks[3].Kind())
	assert.Equal(t, KindText, blocks[4].Kind())
	assert.Equal(t, "!", blocks[4].Content())

	code := blocks[1].(*CodeBlock)
	tokens := code.Tokens()
	require.Len(t, tokens, 1)
	assert.Equal(t, "$name", tokens[0].Content())
}

func TestParse_EmptyCodeBlock(t *testing.T) {
	tmpl, err := Parse("a{{  }}b")

	require.NoError(t, err)
	blocks := tmpl.Blocks()
	require.Len(t, blocks, 3)

	code := blocks[1].(*CodeBlock)
	assert.Empty(t, code.Tokens())
}

func TestParse_CloserInsideQuotedValue(t *testing.T) {
	tmpl, err := Parse(`{{'literal }} inside'}} tail`)

	require.NoError(t, err)
	blocks := tmpl.Blocks()
	require.Len(t, blocks, 2)

	code := blocks[0].(*CodeBlock)
	tokens := code.Tokens()
	require.Len(t, tokens, 1)
	assert.Equal(t, "literal }} inside", tokens[0].Content())
	assert.Equal(t, " tail", blocks[1].Content())
}

func TestParse_FunctionCall(t *testing.T) {
	tmpl, err := Parse(`{{ weather.lookup $city days=3 }}`)

	require.NoError(t, err)
	blocks := tmpl.Blocks()
	require.Len(t, blocks, 1)

	code := blocks[0].(*CodeBlock)
	tokens := code.Tokens()
	require.Len(t, tokens, 3)
	assert.Equal(t, KindFunctionID, tokens[0].Kind())
	assert.Equal(t, KindVariable, tokens[1].Kind())
	assert.Equal(t, KindNamedArg, tokens[2].Kind())
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		message string
	}{
		{
			name:    "unclosed code block",
			input:   "Hello {{$name",
			message: "never closed",
		},
		{
			name:    "unclosed block with quote hiding the closer",
			input:   `{{'text }} more`,
			message: "never closed",
		},
		{
			name:    "token after variable",
			input:   "{{$a $b}}",
			message: "unexpected token",
		},
		{
			name:    "token after value",
			input:   "{{'a' 'b'}}",
			message: "unexpected token",
		},
		{
			name:    "two positional arguments",
			input:   "{{fn 'a' 'b'}}",
			message: "more than one positional",
		},
		{
			name:    "two positional variables",
			input:   "{{fn $a $b}}",
			message: "more than one positional",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.input)

			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrSyntax))

			var syntaxErr *SyntaxError
			require.True(t, errors.As(err, &syntaxErr))
			assert.Contains(t, syntaxErr.Message, tt.message)
		})
	}
}

func TestParse_ErrorPositionPointsAtOpener(t *testing.T) {
	_, err := Parse("0123456{{$x")

	var syntaxErr *SyntaxError
	require.ErrorAs(t, err, &syntaxErr)
	assert.Equal(t, 7, syntaxErr.Position)
}
