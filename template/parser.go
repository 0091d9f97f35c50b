package template

import "strings"

// Parse splits a full template string into an ordered list of Text and Code
// blocks, tokenizing and validating each code block's interior.
//
// A {{ without a matching }} fails with a SyntaxError. A }} inside a quoted
// value does not close the code block.
func Parse(source string) (*Template, error) {
	var blocks []Block
	rest := source
	offset := 0

	for {
		open := strings.Index(rest, codeOpen)
		if open < 0 {
			if rest != "" {
				blocks = append(blocks, &TextBlock{text: rest})
			}
			break
		}
		if open > 0 {
			blocks = append(blocks, &TextBlock{text: rest[:open]})
		}

		innerStart := open + len(codeOpen)
		closeRel, ok := findCodeClose(rest[innerStart:])
		if !ok {
			return nil, syntaxErrf(offset+open, "code block is never closed")
		}
		inner := rest[innerStart : innerStart+closeRel]

		code, err := parseCode(inner, offset+innerStart)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, code)

		consumed := innerStart + closeRel + len(codeClose)
		rest = rest[consumed:]
		offset += consumed
	}

	return &Template{source: source, blocks: blocks}, nil
}

// findCodeClose locates the }} that closes a code block, skipping quoted
// spans so a }} inside a value literal does not end the block. Returns the
// offset of the closer relative to s.
func findCodeClose(s string) (int, bool) {
	var (
		inQuote rune
		escaped bool
	)
	for i := 0; i < len(s); i++ {
		c := rune(s[i])
		if inQuote != 0 {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == inQuote:
				inQuote = 0
			}
			continue
		}
		switch {
		case c == '\'' || c == '"':
			inQuote = c
		case c == '}' && strings.HasPrefix(s[i:], codeClose):
			return i, true
		}
	}
	return 0, false
}

// parseCode tokenizes one code block interior and validates its shape.
// base is the source offset of inner; token error positions stay accurate
// across the leading whitespace trim.
func parseCode(inner string, base int) (*CodeBlock, error) {
	trimmed := strings.TrimSpace(inner)
	base += len(inner) - len(strings.TrimLeft(inner, " \t\r\n"))
	tokens, err := tokenize(trimmed, base)
	if err != nil {
		return nil, err
	}

	if len(tokens) == 0 {
		return &CodeBlock{raw: trimmed}, nil
	}

	switch tokens[0].Kind() {
	case KindVariable, KindValue:
		// Simple substitution: a single token only.
		if len(tokens) > 1 {
			return nil, syntaxErrf(base,
				"unexpected token %q after %q", tokens[1].Content(), tokens[0].Content())
		}

	case KindFunctionID:
		// Function call: at most one bare positional argument, every other
		// token a named argument.
		positionals := 0
		for _, tok := range tokens[1:] {
			switch tok.Kind() {
			case KindVariable, KindValue:
				positionals++
				if positionals > 1 {
					return nil, syntaxErrf(base,
						"function call has more than one positional argument")
				}
			case KindNamedArg:
				// fine
			default:
				return nil, syntaxErrf(base,
					"unexpected token %q in function call", tok.Content())
			}
		}

	default:
		return nil, syntaxErrf(base, "code block cannot start with %q", tokens[0].Content())
	}

	return &CodeBlock{raw: trimmed, tokens: tokens}, nil
}
