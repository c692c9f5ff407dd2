package qna

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var wordPattern = regexp.MustCompile(`[\p{L}\p{N}_]+`)

// Interrogative and pronoun words carry no signal for keyword matching.
var stopWords = map[string]struct{}{
	"что": {}, "как": {}, "кто": {}, "где": {}, "когда": {}, "почему": {},
	"зачем": {}, "это": {}, "этот": {}, "эта": {}, "эти": {}, "тот": {},
	"та": {}, "те": {}, "свой": {}, "мои": {}, "твои": {}, "его": {},
	"её": {}, "их": {}, "наш": {}, "ваш": {}, "весь": {}, "все": {},
	"всё": {}, "какой": {}, "какая": {}, "какие": {}, "такой": {}, "такая": {},
}

// ExtractKeywords tokenizes on word boundaries and drops stop words and
// tokens of two runes or fewer.
func ExtractKeywords(text string) []string {
	words := wordPattern.FindAllString(strings.ToLower(text), -1)
	keywords := make([]string, 0, len(words))
	for _, w := range words {
		if _, stop := stopWords[w]; stop {
			continue
		}
		if utf8.RuneCountInString(w) <= 2 {
			continue
		}
		keywords = append(keywords, w)
	}
	return keywords
}

func keywordSet(keywords []string) map[string]struct{} {
	set := make(map[string]struct{}, len(keywords))
	for _, w := range keywords {
		set[w] = struct{}{}
	}
	return set
}

func overlap(a, b map[string]struct{}) int {
	if len(b) < len(a) {
		a, b = b, a
	}
	n := 0
	for w := range a {
		if _, ok := b[w]; ok {
			n++
		}
	}
	return n
}
