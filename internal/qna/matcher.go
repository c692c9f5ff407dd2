package qna

import (
	"sort"
	"strings"
)

// Source supplies the current QnA table. Lookups always see the latest
// learned answers.
type Source interface {
	QnA() map[string]string
}

// Matcher resolves free-text utterances against the stored QnA table:
// exact match, then containment, then keyword overlap. First hit wins.
type Matcher struct {
	source Source
}

func NewMatcher(source Source) *Matcher {
	return &Matcher{source: source}
}

func (m *Matcher) Match(utterance string) (string, bool) {
	lower := strings.ToLower(strings.TrimSpace(utterance))
	if lower == "" {
		return "", false
	}

	pairs := m.source.QnA()

	if answer, ok := pairs[lower]; ok {
		return answer, true
	}

	questions := sortedQuestions(pairs)

	for _, q := range questions {
		if strings.Contains(lower, q) || strings.Contains(q, lower) {
			return pairs[q], true
		}
	}

	keywords := keywordSet(ExtractKeywords(lower))
	if len(keywords) == 0 {
		return "", false
	}
	for _, q := range questions {
		if overlap(keywords, keywordSet(ExtractKeywords(q))) >= 2 {
			return pairs[q], true
		}
	}

	return "", false
}

// Confidence is 0.9 for an exact match, otherwise the best keyword-overlap
// ratio against any stored question, or 0.0 when the utterance yields no
// keywords. It gates the teach-me follow-up, not the match itself.
func (m *Matcher) Confidence(utterance string) float64 {
	pairs := m.source.QnA()
	lower := strings.ToLower(strings.TrimSpace(utterance))

	if _, ok := pairs[lower]; ok {
		return 0.9
	}

	keywords := ExtractKeywords(lower)
	if len(keywords) == 0 {
		return 0.0
	}
	set := keywordSet(keywords)

	best := 0.0
	for q := range pairs {
		qKeywords := ExtractKeywords(q)
		if len(qKeywords) == 0 {
			continue
		}
		common := overlap(set, keywordSet(qKeywords))
		denom := len(keywords)
		if len(qKeywords) > denom {
			denom = len(qKeywords)
		}
		if ratio := float64(common) / float64(denom); ratio > best {
			best = ratio
		}
	}

	return best
}

// Question keys live in a JSON object, so iteration order for the fuzzy
// passes is fixed by sorting: the first qualifying question always wins
// deterministically.
func sortedQuestions(pairs map[string]string) []string {
	questions := make([]string, 0, len(pairs))
	for q := range pairs {
		questions = append(questions, q)
	}
	sort.Strings(questions)
	return questions
}
