// Package query translates the user-facing search syntax into full-text
// MATCH strings and resolves relative date keywords into absolute
// timestamp bounds.
//
// The syntax: bare words AND together; "..." is a phrase; ""...""
// is a strict phrase; OR (word-bounded, any case) or | is disjunction;
// a leading - negates the following word. Ordinary space, tab, the
// full-width space, and parentheses all separate tokens.
package query

import (
	"strings"
	"unicode/utf8"
)

// Empty is the sentinel returned when translation finds no meaningful
// tokens. Callers must treat it as "do not search", never as
// "match everything".
const Empty = ""

// MaxLikeTermLength is the longest a term may be while still forcing
// the substring fallback: the trigram tokenizer needs 3 characters to
// produce a posting, so shorter terms find nothing on the MATCH path.
const MaxLikeTermLength = 2

type tokenKind int

const (
	kindTerm tokenKind = iota
	kindPhrase
	kindStrictPhrase
	kindOr
	kindNot
)

type token struct {
	kind tokenKind
	text string
}

// Translate parses a raw query into the backend MATCH string and the
// raw term texts (quotes stripped) used for the fallback decision.
// An empty or whitespace-only input yields (Empty, nil).
func Translate(raw string) (string, []string) {
	tokens := tokenize(raw)
	if len(tokens) == 0 {
		return Empty, nil
	}

	var parts []string
	var rawTerms []string
	for _, tok := range tokens {
		switch tok.kind {
		case kindTerm, kindPhrase:
			parts = append(parts, `"`+tok.text+`"`)
			rawTerms = append(rawTerms, tok.text)
		case kindStrictPhrase:
			parts = append(parts, `"""`+tok.text+`"""`)
			rawTerms = append(rawTerms, tok.text)
		case kindOr:
			parts = append(parts, "OR")
		case kindNot:
			parts = append(parts, `NOT "`+tok.text+`"`)
			rawTerms = append(rawTerms, tok.text)
		}
	}
	return strings.Join(parts, " "), rawTerms
}

// NeedsFallback reports whether any raw term is too short for the
// trigram tokenizer. Length is counted in runes so multi-byte scripts
// are judged by characters, not bytes.
func NeedsFallback(rawTerms []string) bool {
	for _, term := range rawTerms {
		if utf8.RuneCountInString(term) <= MaxLikeTermLength {
			return true
		}
	}
	return false
}

// tokenize performs one left-to-right scan over the input.
func tokenize(raw string) []token {
	runes := []rune(raw)
	var tokens []token

	i := 0
	for i < len(runes) {
		if isSpace(runes[i]) {
			i++
			continue
		}

		switch {
		case hasDoubleQuotePair(runes, i):
			// ""strict phrase""
			if text, next, ok := readDelimited(runes, i+2, `""`); ok {
				if text != "" {
					tokens = append(tokens, token{kindStrictPhrase, text})
				}
				i = next
				continue
			}
			// No closing pair: fall through to the single-quote case.
			fallthrough

		case runes[i] == '"':
			text, next := readPhrase(runes, i+1)
			if text != "" {
				tokens = append(tokens, token{kindPhrase, text})
			}
			i = next

		case runes[i] == '|':
			tokens = append(tokens, token{kindOr, ""})
			i++

		case runes[i] == '-' && i+1 < len(runes) && !isSpace(runes[i+1]) && runes[i+1] != '-':
			word, next := readWord(runes, i+1)
			if word != "" {
				tokens = append(tokens, token{kindNot, word})
			}
			i = next

		default:
			word, next := readWord(runes, i)
			i = next
			if word == "" {
				i++
				continue
			}
			if strings.EqualFold(word, "OR") {
				tokens = append(tokens, token{kindOr, ""})
			} else {
				tokens = append(tokens, token{kindTerm, word})
			}
		}
	}

	return trimOperators(tokens)
}

// hasDoubleQuotePair reports whether a strict-phrase opener starts at i.
func hasDoubleQuotePair(runes []rune, i int) bool {
	return runes[i] == '"' && i+1 < len(runes) && runes[i+1] == '"' &&
		// An immediate third quote is a strict opener too, but a lone
		// "" pair with nothing after it is just an empty phrase.
		i+2 < len(runes)
}

// readDelimited reads until the closing delimiter, returning the text,
// the index after the delimiter, and whether the delimiter was found.
func readDelimited(runes []rune, start int, delim string) (string, int, bool) {
	s := string(runes[start:])
	idx := strings.Index(s, delim)
	if idx < 0 {
		return "", start, false
	}
	return s[:idx], start + utf8.RuneCountInString(s[:idx]) + len([]rune(delim)), true
}

// readPhrase reads until the closing quote; an unterminated phrase runs
// to the end of input.
func readPhrase(runes []rune, start int) (string, int) {
	for j := start; j < len(runes); j++ {
		if runes[j] == '"' {
			return string(runes[start:j]), j + 1
		}
	}
	return strings.TrimSpace(string(runes[start:])), len(runes)
}

// readWord reads a maximal run of plain-term characters. Parentheses
// are token boundaries, not term characters, so "(report" yields the
// term "report" and "(-draft" still triggers a negation.
func readWord(runes []rune, start int) (string, int) {
	j := start
	for j < len(runes) && !isSpace(runes[j]) && !isBoundary(runes[j]) {
		j++
	}
	return string(runes[start:j]), j
}

// isBoundary matches the characters that end a word without being part
// of one.
func isBoundary(r rune) bool {
	switch r {
	case '|', '"', '(', ')':
		return true
	}
	return false
}

// trimOperators drops leading/trailing OR tokens and collapses runs of
// them, so stray operators cannot produce a MATCH string the engine
// rejects for trivially malformed input like "OR" alone.
func trimOperators(tokens []token) []token {
	var out []token
	for _, tok := range tokens {
		if tok.kind == kindOr {
			if len(out) == 0 || out[len(out)-1].kind == kindOr {
				continue
			}
		}
		out = append(out, tok)
	}
	for len(out) > 0 && out[len(out)-1].kind == kindOr {
		out = out[:len(out)-1]
	}
	return out
}

// isSpace matches the separators the syntax recognizes, including the
// full-width space used in CJK text.
func isSpace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r', '　':
		return true
	}
	return false
}
