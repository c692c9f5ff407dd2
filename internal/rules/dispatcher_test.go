package rules

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nix-ai/backend/internal/storage/models"
)

type fakeKnowledge struct {
	facts        map[string]string
	qna          map[string]string
	stats        models.Statistics
	remembered   []string
	rememberedBy []int64
	learnedFact  string
}

func (f *fakeKnowledge) Facts() map[string]string    { return f.facts }
func (f *fakeKnowledge) QnA() map[string]string      { return f.qna }
func (f *fakeKnowledge) Stats() models.Statistics    { return f.stats }
func (f *fakeKnowledge) RememberFact(fact string, userID int64) {
	f.remembered = append(f.remembered, fact)
	f.rememberedBy = append(f.rememberedBy, userID)
}
func (f *fakeKnowledge) RandomLearnedFact() (string, bool) {
	return f.learnedFact, f.learnedFact != ""
}

func newTestDispatcher() (*Dispatcher, *fakeKnowledge) {
	kb := &fakeKnowledge{
		facts: map[string]string{
			"имя":       "Nix AI",
			"версия":    "2.0",
			"цель":      "Помогать людям",
			"создатель": "Меня создал разработчик.",
		},
		qna: map[string]string{},
	}
	return NewDispatcher(kb), kb
}

func TestDispatchGreeting(t *testing.T) {
	d, _ := newTestDispatcher()

	response, ok := d.Dispatch("Привет!", models.UserProfile{})
	require.True(t, ok)
	assert.Contains(t, greetings, response)
}

func TestDispatchGreetingUsesFirstName(t *testing.T) {
	d, _ := newTestDispatcher()

	response, ok := d.Dispatch("привет", models.UserProfile{FirstName: "Анна"})
	require.True(t, ok)
	assert.Contains(t, response, "Анна")
}

func TestDispatchFarewell(t *testing.T) {
	d, _ := newTestDispatcher()

	response, ok := d.Dispatch("ну все, пока", models.UserProfile{})
	require.True(t, ok)
	assert.Contains(t, farewells, response)
}

func TestDispatchFirstMatchWins(t *testing.T) {
	d, _ := newTestDispatcher()

	// "привет" and "как дела" both match; the greeting rule is registered
	// first.
	response, ok := d.Dispatch("привет, как дела?", models.UserProfile{})
	require.True(t, ok)
	assert.Contains(t, greetings, response)
}

func TestDispatchAboutMe(t *testing.T) {
	d, _ := newTestDispatcher()

	response, ok := d.Dispatch("как тебя зовут?", models.UserProfile{})
	require.True(t, ok)
	assert.Contains(t, response, "Nix AI")
	assert.Contains(t, response, "2.0")
}

func TestDispatchAboutCreator(t *testing.T) {
	d, _ := newTestDispatcher()

	response, ok := d.Dispatch("кто твой создатель?", models.UserProfile{})
	require.True(t, ok)
	assert.Equal(t, "Меня создал разработчик.", response)
}

func TestDispatchTime(t *testing.T) {
	d, _ := newTestDispatcher()

	response, ok := d.Dispatch("который час?", models.UserProfile{})
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(response, "🕐 Сейчас "))
}

func TestDispatchDate(t *testing.T) {
	d, _ := newTestDispatcher()

	response, ok := d.Dispatch("какое сегодня число?", models.UserProfile{})
	require.True(t, ok)
	assert.Contains(t, response, time.Now().Format("02.01.2006"))
}

func TestDispatchRemember(t *testing.T) {
	d, kb := newTestDispatcher()

	response, ok := d.Dispatch("Запомни что Земля круглая", models.UserProfile{UserID: 42})
	require.True(t, ok)
	assert.Contains(t, response, "земля круглая")
	require.Len(t, kb.remembered, 1)
	assert.Equal(t, "земля круглая", kb.remembered[0])
	assert.Equal(t, int64(42), kb.rememberedBy[0])
}

func TestDispatchRecallLearnedFact(t *testing.T) {
	d, kb := newTestDispatcher()
	kb.learnedFact = "Земля круглая"

	response, ok := d.Dispatch("что ты знаешь?", models.UserProfile{})
	require.True(t, ok)
	assert.Contains(t, response, "Земля круглая")
}

func TestDispatchRecallEmpty(t *testing.T) {
	d, _ := newTestDispatcher()

	response, ok := d.Dispatch("что ты знаешь?", models.UserProfile{})
	require.True(t, ok)
	assert.Contains(t, response, "мало что знаю")
}

func TestDispatchStatsIncludesPersonalBlock(t *testing.T) {
	d, kb := newTestDispatcher()
	kb.stats = models.Statistics{TotalMessages: 10, LearnedQnA: 3, TotalUsers: 2}

	anonymous, ok := d.Dispatch("статистика", models.UserProfile{})
	require.True(t, ok)
	assert.NotContains(t, anonymous, "Твоя статистика")

	personal, ok := d.Dispatch("статистика", models.UserProfile{UserID: 42, TotalMessages: 5})
	require.True(t, ok)
	assert.Contains(t, personal, "Твоя статистика")
}

func TestDispatchNoWeatherRule(t *testing.T) {
	// Weather is resolved downstream with city extraction, never by the
	// fixed-intent table.
	d, _ := newTestDispatcher()

	_, ok := d.Dispatch("погода Москва", models.UserProfile{})
	assert.False(t, ok)
}

func TestDispatchNoMatch(t *testing.T) {
	d, _ := newTestDispatcher()

	_, ok := d.Dispatch("расскажи про черные дыры", models.UserProfile{})
	assert.False(t, ok)
}
