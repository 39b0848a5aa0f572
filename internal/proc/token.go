package proc

import "unicode"

// Token is one entry of a command token group produced by the language
// front-end. The closed set of variants is Word, WordList and Redirect.
type Token interface {
	subprocToken()
}

// Word is a single literal argv token.
type Word string

// WordList is a nested literal argument list. Build flattens its entries
// into consecutive argv tokens.
type WordList []string

// Redirect attaches a stream redirection to a command. Mode is one of the
// RedirMode constants and Target holds the target-name tokens, which must
// collapse to a single word.
type Redirect struct {
	Mode   RedirMode
	Target []string
}

func (Word) subprocToken()     {}
func (WordList) subprocToken() {}
func (Redirect) subprocToken() {}

// RedirMode identifies a redirection operator.
type RedirMode string

const (
	RedirIn        RedirMode = "<"
	RedirOut       RedirMode = ">"
	RedirOutAppend RedirMode = ">>"
	RedirErr       RedirMode = "2>"
	RedirErrAppend RedirMode = "2>>"
	RedirAll       RedirMode = "&>"
	RedirAllAppend RedirMode = "&>>"
	RedirErrToOut  RedirMode = "2>&1"
)

// Separator is a control marker between command groups.
type Separator int

const (
	// SepNone marks an ordinary command group.
	SepNone Separator = iota
	// SepPipe connects the preceding group's stdout to the next group's stdin.
	SepPipe
	// SepBackground marks the pipeline as a background job. Only valid as
	// the trailing group.
	SepBackground
)

// Group is one element of a parsed subprocess line: either a command's
// token sequence (Sep == SepNone) or a bare control separator.
type Group struct {
	Tokens []Token
	Sep    Separator
}

// CommandGroup wraps plain words into a command group.
func CommandGroup(words ...string) Group {
	tokens := make([]Token, 0, len(words))
	for _, w := range words {
		tokens = append(tokens, Word(w))
	}
	return Group{Tokens: tokens}
}

// PipeGroup returns the pipe separator marker.
func PipeGroup() Group {
	return Group{Sep: SepPipe}
}

// BackgroundGroup returns the background separator marker.
func BackgroundGroup() Group {
	return Group{Sep: SepBackground}
}

// SplitWords tokenizes a command string into words using shell-style rules:
// whitespace separates words, single and double quotes group them, and a
// backslash escapes the following byte. Alias string targets are expanded
// with these rules during resolution.
func SplitWords(s string) []string {
	var words []string
	var buf []byte
	inWord := false
	var inSingle, inDouble, escape bool
	flush := func() {
		if inWord {
			words = append(words, string(buf))
			buf = buf[:0]
			inWord = false
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
		case c == '\'' && !inDouble:
			inSingle = !inSingle
			inWord = true
		case c == '"' && !inSingle:
			inDouble = !inDouble
			inWord = true
		case unicode.IsSpace(rune(c)) && !inSingle && !inDouble:
			flush()
		default:
			buf = append(buf, c)
			inWord = true
		}
	}
	flush()
	return words
}
