package describe

import (
	"regexp"
	"sort"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	// negation clitics split off their host word: "don't" -> "do", "n't".
	negationRe = regexp.MustCompile(`(?i)([\p{L}\p{N}])(n't)\b`)
	// words (optionally hyphenated), clitics, or single punctuation runes.
	tokenRe = regexp.MustCompile(`(?i)n't|'(?:s|m|d|re|ve|ll)\b|[\p{L}\p{N}]+(?:[-.][\p{L}\p{N}]+)*|[^\s\p{L}\p{N}]`)
)

// Tokenize splits review text into word and punctuation tokens, keeping case.
func Tokenize(text string) []string {
	text = negationRe.ReplaceAllString(text, "$1 $2")
	return tokenRe.FindAllString(text, -1)
}

// WordCount is a vocabulary entry.
type WordCount struct {
	Word  string
	Count int
}

// Frequencies lower-cases tokens, drops stop words and counts the rest,
// most frequent first. Ties keep first-occurrence order.
func Frequencies(tokens []string, stop map[string]struct{}) []WordCount {
	lower := cases.Lower(language.Und)
	idx := map[string]int{}
	var out []WordCount
	for _, tok := range tokens {
		w := lower.String(tok)
		if _, skip := stop[w]; skip {
			continue
		}
		if i, ok := idx[w]; ok {
			out[i].Count++
			continue
		}
		idx[w] = len(out)
		out = append(out, WordCount{Word: w, Count: 1})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}
