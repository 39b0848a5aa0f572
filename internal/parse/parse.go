// Package parse turns a raw command line into the token groups consumed by
// subprocess spec construction. It understands shell-style quoting, pipes,
// a trailing background marker and the redirection operators; it is a
// command-line front-end, not a full shell grammar.
package parse

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/pvaler/subsh/internal/proc"
)

// token is one scanned word plus whether any part of it was quoted. Quoted
// text never acts as an operator.
type token struct {
	text   string
	quoted bool
}

var redirModes = map[string]proc.RedirMode{
	"<":    proc.RedirIn,
	">":    proc.RedirOut,
	">>":   proc.RedirOutAppend,
	"2>":   proc.RedirErr,
	"2>>":  proc.RedirErrAppend,
	"&>":   proc.RedirAll,
	"&>>":  proc.RedirAllAppend,
	"2>&1": proc.RedirErrToOut,
}

// Line parses a command line into groups: commands separated by pipes with
// an optional trailing background marker. Operators must stand alone as
// words; quoting suppresses their meaning.
func Line(s string) ([]proc.Group, error) {
	tokens, err := scan(s)
	if err != nil {
		return nil, err
	}
	return assemble(tokens, s)
}

// Args parses an already-split argument vector. Each argument is one word;
// an argument that exactly matches an operator acts as that operator, so
// callers forwarding argv after "--" keep embedded spaces intact.
func Args(args []string) ([]proc.Group, error) {
	tokens := make([]token, 0, len(args))
	for _, arg := range args {
		_, op := redirModes[arg]
		quoted := !op && arg != "|" && arg != "&"
		tokens = append(tokens, token{text: arg, quoted: quoted})
	}
	return assemble(tokens, strings.Join(args, " "))
}

func assemble(tokens []token, s string) ([]proc.Group, error) {
	var groups []proc.Group
	var current []proc.Token
	flush := func() error {
		if len(current) == 0 {
			return fmt.Errorf("parse %q: empty command", s)
		}
		groups = append(groups, proc.Group{Tokens: current})
		current = nil
		return nil
	}

	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		if tok.quoted {
			current = append(current, proc.Word(tok.text))
			continue
		}
		switch {
		case tok.text == "|":
			if err := flush(); err != nil {
				return nil, err
			}
			groups = append(groups, proc.PipeGroup())
		case tok.text == "&":
			if i != len(tokens)-1 {
				return nil, fmt.Errorf("parse %q: background marker must end the line", s)
			}
			if err := flush(); err != nil {
				return nil, err
			}
			groups = append(groups, proc.BackgroundGroup())
		case redirModes[tok.text] != "":
			mode := redirModes[tok.text]
			if mode == proc.RedirErrToOut {
				current = append(current, proc.Redirect{Mode: mode})
				continue
			}
			if i+1 >= len(tokens) {
				return nil, fmt.Errorf("parse %q: redirection %s needs a target", s, tok.text)
			}
			target := tokens[i+1]
			if !target.quoted && (target.text == "|" || target.text == "&" || redirModes[target.text] != "") {
				return nil, fmt.Errorf("parse %q: redirection %s needs a target", s, tok.text)
			}
			current = append(current, proc.Redirect{Mode: mode, Target: []string{target.text}})
			i++
		default:
			current = append(current, proc.Word(tok.text))
		}
	}

	if len(current) > 0 {
		if err := flush(); err != nil {
			return nil, err
		}
	}
	if len(groups) == 0 {
		return nil, fmt.Errorf("parse %q: empty command line", s)
	}
	if groups[len(groups)-1].Sep == proc.SepPipe {
		return nil, fmt.Errorf("parse %q: dangling pipe", s)
	}
	return groups, nil
}

// scan splits s into words with shell-style quoting: whitespace separates,
// single and double quotes group, a backslash escapes the next byte.
func scan(s string) ([]token, error) {
	var tokens []token
	var buf []byte
	inWord := false
	quoted := false
	var inSingle, inDouble, escape bool
	flush := func() {
		if inWord {
			tokens = append(tokens, token{text: string(buf), quoted: quoted})
			buf = buf[:0]
			inWord = false
			quoted = false
		}
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if escape {
			buf = append(buf, c)
			inWord = true
			escape = false
			continue
		}
		switch {
		case c == '\\' && !inSingle:
			escape = true
			inWord = true
			quoted = true
		case c == '\'' && !inDouble:
			inSingle = !inSingle
			inWord = true
			quoted = true
		case c == '"' && !inSingle:
			inDouble = !inDouble
			inWord = true
			quoted = true
		case unicode.IsSpace(rune(c)) && !inSingle && !inDouble:
			flush()
		default:
			buf = append(buf, c)
			inWord = true
		}
	}
	if inSingle || inDouble {
		return nil, fmt.Errorf("parse %q: unterminated quote", s)
	}
	if escape {
		return nil, fmt.Errorf("parse %q: trailing escape", s)
	}
	flush()
	return tokens, nil
}
