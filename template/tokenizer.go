package template

import (
	"strings"
	"unicode"
)

// Tokenize scans the interior of one code block into its ordered token
// blocks. The input must already be stripped of the surrounding {{ }} and
// trimmed; empty input yields no tokens.
//
// Token rules:
//   - a run of non-whitespace characters, or a quoted literal delimited by
//     matching ' or " characters
//   - inside quotes, \", \' and \\ decode to the bare character; any other
//     backslash sequence passes through unchanged
//   - a token starting with $ is a variable; with a quote, a value; any
//     other first token is a function reference; any other later token must
//     be a name=value named argument
//   - tokens must be separated by at least one whitespace character
//
// The scan is a single left-to-right pass.
func Tokenize(text string) ([]Block, error) {
	return tokenize(text, 0)
}

// tokenizer token states
type tokenState int

const (
	stNone     tokenState = iota // between tokens
	stVariable                   // $name
	stQuoted                     // standalone quoted value
	stPlain                      // function id or named arg, up to '='
	stArgValue                   // named arg value after '=', unquoted
	stArgQuoted                  // named arg value after '=', quoted
)

// tokenize scans text, reporting error positions relative to base (the
// offset of text within the full template source).
func tokenize(text string, base int) ([]Block, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}

	var (
		blocks   []Block
		state    = stNone
		buf      []rune // variable name, function id, or arg name
		valueBuf []rune // decoded value content
		delim    rune   // active quote delimiter
		escaped  bool   // previous char was an unconsumed backslash
		needSep  bool   // a quote just closed; whitespace must follow
		tokenPos int    // offset of the current token, for errors
	)

	runes := []rune(text)

	// emit completes the current token.
	emit := func() error {
		block, err := finishToken(state, buf, valueBuf, delim, len(blocks) == 0, base+tokenPos)
		if err != nil {
			return err
		}
		blocks = append(blocks, block)
		state = stNone
		buf = buf[:0]
		valueBuf = valueBuf[:0]
		delim = 0
		return nil
	}

	for i := 0; i < len(runes); i++ {
		c := runes[i]

		if state == stNone {
			if unicode.IsSpace(c) {
				needSep = false
				continue
			}
			if needSep {
				return nil, syntaxErrf(base+i, "tokens must be separated by one space at least")
			}
			tokenPos = i
			switch {
			case c == varSigil:
				state = stVariable
			case c == '\'' || c == '"':
				state = stQuoted
				delim = c
			default:
				state = stPlain
				buf = append(buf, c)
			}
			continue
		}

		switch state {
		case stVariable:
			if unicode.IsSpace(c) {
				if err := emit(); err != nil {
					return nil, err
				}
				continue
			}
			buf = append(buf, c)

		case stQuoted, stArgQuoted:
			if escaped {
				if c != '\'' && c != '"' && c != '\\' {
					// Unknown escape: keep the backslash.
					valueBuf = append(valueBuf, '\\')
				}
				valueBuf = append(valueBuf, c)
				escaped = false
				continue
			}
			switch c {
			case '\\':
				escaped = true
			case delim:
				if err := emit(); err != nil {
					return nil, err
				}
				needSep = true
			default:
				valueBuf = append(valueBuf, c)
			}

		case stPlain:
			switch {
			case unicode.IsSpace(c):
				if err := emit(); err != nil {
					return nil, err
				}
			case c == '=':
				state = stArgValue
				// Peek: a quote directly after '=' opens a quoted value.
				if i+1 < len(runes) && (runes[i+1] == '\'' || runes[i+1] == '"') {
					delim = runes[i+1]
					state = stArgQuoted
					i++
				}
			default:
				buf = append(buf, c)
			}

		case stArgValue:
			if unicode.IsSpace(c) {
				if err := emit(); err != nil {
					return nil, err
				}
				continue
			}
			valueBuf = append(valueBuf, c)
		}
	}

	switch state {
	case stQuoted, stArgQuoted:
		return nil, syntaxErrf(base+tokenPos, "missing closing %q quote", delim)
	case stNone:
		// done
	default:
		if err := emit(); err != nil {
			return nil, err
		}
	}

	return blocks, nil
}

// finishToken classifies and validates a completed token.
func finishToken(
	state tokenState,
	buf, valueBuf []rune,
	delim rune,
	first bool,
	pos int,
) (Block, error) {
	switch state {
	case stVariable:
		name := string(buf)
		if err := validateName(name, "variable name", pos); err != nil {
			return nil, err
		}
		return &VariableBlock{name: name}, nil

	case stQuoted:
		return &ValueBlock{value: string(valueBuf), delim: delim}, nil

	case stPlain:
		// No '=' was seen: a function reference if first, malformed
		// named argument otherwise.
		if !first {
			return nil, syntaxErrf(pos,
				"named argument %q must have the form name=value", string(buf))
		}
		return newFunctionID(string(buf), pos)

	case stArgValue, stArgQuoted:
		if first {
			return nil, syntaxErrf(pos,
				"a code block cannot start with the named argument %q", string(buf))
		}
		name := string(buf)
		if err := validateName(name, "named argument name", pos); err != nil {
			return nil, err
		}
		if state == stArgValue {
			value := string(valueBuf)
			if value == "" {
				return nil, syntaxErrf(pos, "named argument %q has no value", name)
			}
			if value[0] == varSigil {
				varName := value[1:]
				if err := validateName(varName, "variable name", pos); err != nil {
					return nil, err
				}
				return &NamedArgBlock{name: name, variable: &VariableBlock{name: varName}}, nil
			}
			return &NamedArgBlock{name: name, value: &ValueBlock{value: value}}, nil
		}
		return &NamedArgBlock{name: name, value: &ValueBlock{value: string(valueBuf), delim: delim}}, nil
	}

	return nil, syntaxErrf(pos, "unterminated token")
}

// newFunctionID parses a function reference: "function", "plugin.function"
// or "plugin-function", split on the first separator.
func newFunctionID(raw string, pos int) (Block, error) {
	if !validFunctionRef(raw) {
		return nil, syntaxErrf(pos, "invalid function reference %q", raw)
	}
	idx := strings.IndexAny(raw, ".-")
	if idx < 0 {
		return &FunctionIDBlock{raw: raw, function: raw}, nil
	}
	plugin, function := raw[:idx], raw[idx+1:]
	if plugin == "" || function == "" {
		return nil, syntaxErrf(pos, "invalid function reference %q", raw)
	}
	return &FunctionIDBlock{raw: raw, plugin: plugin, function: function}, nil
}

// validateName checks a variable or argument name: word characters only.
func validateName(name, what string, pos int) error {
	if name == "" {
		return syntaxErrf(pos, "%s is empty", what)
	}
	for _, c := range name {
		if !isWordChar(c) {
			return syntaxErrf(pos, "%s %q contains invalid character %q", what, name, c)
		}
	}
	return nil
}

func isWordChar(c rune) bool {
	return c == '_' ||
		unicode.IsLetter(c) ||
		unicode.IsDigit(c)
}

// validFunctionRef checks function reference characters: word characters
// plus the two qualification separators.
func validFunctionRef(s string) bool {
	for _, c := range s {
		if !isWordChar(c) && c != '.' && c != '-' {
			return false
		}
	}
	return s != ""
}
