package schoolmap

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// suffixVocabulary lists the trailing institution-suffix token sequences that
// are stripped when forming a comparison key. Longer sequences are tried
// first. The list is deliberately closed: generic words like "school" or
// "academy" on their own distinguish institutions ("Trinity Academy" is not
// "Trinity High") and must survive.
var suffixVocabulary = [][]string{
	{"junior", "senior", "high", "school"},
	{"jr", "sr", "high", "school"},
	{"senior", "high", "school"},
	{"junior", "high", "school"},
	{"sr", "high", "school"},
	{"jr", "high", "school"},
	{"high", "school"},
	{"secondary", "school"},
	{"senior", "high"},
	{"h", "s"},
	{"hs"},
	{"shs"},
	{"high"},
}

// leadingExpansions is a fixed table of leading-token spellings expanded to
// their full form. It is not a general abbreviation expander; keeping the
// table tiny bounds the false merges it can cause.
var leadingExpansions = map[string]string{
	"st": "saint",
	"mt": "mount",
	"ft": "fort",
}

var diacriticFolder = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize reduces a raw school name to its comparison key: case-folded,
// parenthetical-stripped, punctuation-stripped, suffix-stripped, with
// whitespace collapsed. It is deterministic, total, and idempotent. Empty or
// whitespace-only input yields the empty key, which callers must treat as
// "missing" and never cluster.
func Normalize(raw string) string {
	s := norm.NFKC.String(raw)
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ""
	}
	if folded, _, err := transform.String(diacriticFolder, s); err == nil {
		s = folded
	}
	s = stripParentheticals(s)
	s = stripPunctuation(s)
	tokens := strings.Fields(s)
	tokens = expandLeadingToken(tokens)
	tokens = stripSuffixTokens(tokens)
	return strings.Join(tokens, " ")
}

// stripParentheticals removes every parenthesized span. The parenthetical
// text itself is preserved on the SchoolRecord via ExtractDisambiguator; only
// the key loses it.
func stripParentheticals(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	depth := 0
	for _, r := range s {
		switch r {
		case '(', '［', '[':
			depth++
		case ')', '］', ']':
			if depth > 0 {
				depth--
			}
		default:
			if depth == 0 {
				b.WriteRune(r)
			}
		}
	}
	return b.String()
}

// stripPunctuation drops periods, commas, apostrophes and quote marks, and
// turns joining punctuation (hyphens, slashes, ampersands) into spaces so the
// surrounding tokens stay separate.
func stripPunctuation(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '.', ',', '\'', '’', '‘', '"', '“', '”', '!', '?', '#', '*':
			return -1
		case '-', '–', '—', '/', '\\', '&', '+', ':', ';':
			return ' '
		}
		return r
	}, s)
}

func expandLeadingToken(tokens []string) []string {
	if len(tokens) < 2 {
		return tokens
	}
	if full, ok := leadingExpansions[tokens[0]]; ok {
		out := make([]string, len(tokens))
		copy(out, tokens)
		out[0] = full
		return out
	}
	return tokens
}

// stripSuffixTokens removes trailing suffix sequences until none remain, so
// "central senior high school" and "central high" both reduce to "central".
func stripSuffixTokens(tokens []string) []string {
	for len(tokens) > 0 {
		stripped := false
		for _, suffix := range suffixVocabulary {
			n := len(suffix)
			if len(tokens) < n {
				continue
			}
			if equalTokens(tokens[len(tokens)-n:], suffix) {
				tokens = tokens[:len(tokens)-n]
				stripped = true
				break
			}
		}
		if !stripped {
			break
		}
	}
	return tokens
}

func equalTokens(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
