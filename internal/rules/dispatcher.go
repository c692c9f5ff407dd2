package rules

import (
	"math/rand"
	"regexp"
	"strings"

	"github.com/nix-ai/backend/internal/storage/models"
)

// Knowledge is the narrow slice of the store the rule handlers need.
type Knowledge interface {
	Facts() map[string]string
	QnA() map[string]string
	Stats() models.Statistics
	RememberFact(fact string, userID int64)
	RandomLearnedFact() (string, bool)
}

type Handler func(utterance string, profile models.UserProfile) string

type rule struct {
	pattern *regexp.Regexp
	handler Handler
}

// Dispatcher holds fixed-intent bindings in registration order; the first
// pattern matching the lower-cased utterance wins.
type Dispatcher struct {
	rules []rule
	kb    Knowledge
}

func NewDispatcher(kb Knowledge) *Dispatcher {
	d := &Dispatcher{kb: kb}

	d.register(`привет|здравствуй|hello|хай`, d.greet)
	d.register(`пока|прощай|до свидания|bye`, d.goodbye)
	d.register(`как дела|как ты|how are you`, d.howAreYou)
	d.register(`спасибо|благодарю|thanks`, d.thankYou)
	d.register(`твое имя|тебя зовут|who are you`, d.aboutMe)
	d.register(`создатель|кто создал|who created`, d.aboutCreator)
	d.register(`помощь|help|что ты умеешь`, d.help)
	d.register(`время|который час|time`, d.currentTime)
	d.register(`дата|число|какое число`, d.currentDate)
	d.register(`запомни|remember that`, d.remember)
	d.register(`что ты знаешь|расскажи о|что знаешь`, d.recall)
	d.register(`очисти память|забудь все`, d.clearMemory)
	d.register(`как учишься|как обучаешься`, d.howILearn)
	d.register(`статистика|stats|моя статистика`, d.stats)
	d.register(`курс валют|курс доллара|курс евро`, d.currency)
	d.register(`новости|news|что нового`, d.news)
	d.register(`анекдот|шутка|расскажи шутку`, d.joke)

	return d
}

func (d *Dispatcher) register(pattern string, handler Handler) {
	d.rules = append(d.rules, rule{
		pattern: regexp.MustCompile(pattern),
		handler: handler,
	})
}

func (d *Dispatcher) Dispatch(utterance string, profile models.UserProfile) (string, bool) {
	lower := strings.ToLower(utterance)
	for _, r := range d.rules {
		if r.pattern.MatchString(lower) {
			return r.handler(utterance, profile), true
		}
	}
	return "", false
}

func pick(variants []string) string {
	return variants[rand.Intn(len(variants))]
}
