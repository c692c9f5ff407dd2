package rules

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/nix-ai/backend/internal/storage/models"
)

// Phrasing variants are equally valid outputs; tests assert membership in the
// set, never exact equality.
var (
	greetings = []string{
		"Привет! Я Nix AI, ваш цифровой помощник! 👋",
		"Здравствуйте! Рад видеть вас здесь!",
		"Приветствую! Готов помочь вам с любыми вопросами.",
		"Привет! Как я могу вам помочь сегодня?",
	}

	namedGreetings = []string{
		"С возвращением, %s! Как ваши дела?",
		"Рад вас снова видеть, %s!",
		"Привет, %s! Чем могу помочь?",
	}

	farewells = []string{
		"До свидания! Буду рад помочь снова.",
		"Пока! Возвращайтесь, если понадобится помощь.",
		"Всего хорошего! 👋",
		"До встречи! Не забывайте меня!",
	}

	howAreYouReplies = []string{
		"У меня все отлично! Спасибо, что спросили. 😊",
		"Работаю в штатном режиме. Как ваши дела?",
		"Прекрасно! Готов помогать вам с любыми вопросами.",
		"Как у цифрового помощника, у меня всегда хорошо!",
	}

	thankYouReplies = []string{
		"Всегда пожалуйста! 😊",
		"Рад был помочь!",
		"Обращайтесь ещё!",
		"Это моя работа!",
	}

	jokes = []string{
		"Шутки пока в разработке, но я стараюсь!",
	}
)

var rememberPattern = regexp.MustCompile(`запомни\s*(?:что|,)?\s*(.+)`)

func (d *Dispatcher) greet(_ string, profile models.UserProfile) string {
	if profile.FirstName != "" {
		return fmt.Sprintf(pick(namedGreetings), profile.FirstName)
	}
	return pick(greetings)
}

func (d *Dispatcher) goodbye(_ string, profile models.UserProfile) string {
	if profile.FirstName != "" {
		return fmt.Sprintf("Пока, %s! %s", profile.FirstName, pick(farewells))
	}
	return pick(farewells)
}

func (d *Dispatcher) howAreYou(_ string, _ models.UserProfile) string {
	return pick(howAreYouReplies)
}

func (d *Dispatcher) thankYou(_ string, _ models.UserProfile) string {
	return pick(thankYouReplies)
}

func (d *Dispatcher) aboutMe(_ string, _ models.UserProfile) string {
	facts := d.kb.Facts()
	return fmt.Sprintf("🤖 Я %s, версия %s.\n🎯 %s\n📚 Я учусь на каждом нашем диалоге.",
		facts["имя"], facts["версия"], facts["цель"])
}

func (d *Dispatcher) aboutCreator(_ string, _ models.UserProfile) string {
	return d.kb.Facts()["создатель"]
}

func (d *Dispatcher) help(_ string, _ models.UserProfile) string {
	return `🤖 Nix AI

📋 Что я умею:

• Приветствоваться и прощаться
• Отвечать на вопросы (и учиться, если не знаю ответа)
• Запоминать информацию
• Рассказывать о себе
• Показывать время и дату

🌤️ Погода:
Напиши "погода" и название города

💾 Обучение:
Если я не знаю ответа — я спрошу у вас и запомню правильный ответ

📊 Статистика:
Узнай, сколько я уже знаю и сколько мы общались

💡 Просто общайтесь со мной — я научусь!`
}

func (d *Dispatcher) currentTime(_ string, _ models.UserProfile) string {
	return fmt.Sprintf("🕐 Сейчас %s", time.Now().Format("15:04:05"))
}

func (d *Dispatcher) currentDate(_ string, _ models.UserProfile) string {
	return fmt.Sprintf("📅 Сегодня %s", time.Now().Format("02.01.2006"))
}

func (d *Dispatcher) remember(utterance string, profile models.UserProfile) string {
	match := rememberPattern.FindStringSubmatch(strings.ToLower(utterance))
	if match == nil {
		return "Пожалуйста, укажи, что именно запомнить. Например: 'запомни, что Земля круглая'"
	}

	fact := strings.TrimSpace(match[1])
	d.kb.RememberFact(fact, profile.UserID)
	return fmt.Sprintf("✅ Запомнил: '%s'. Буду помнить об этом! 🧠", fact)
}

func (d *Dispatcher) recall(utterance string, _ models.UserProfile) string {
	if fact, ok := d.kb.RandomLearnedFact(); ok {
		return fmt.Sprintf("📚 Я помню, что: %s", fact)
	}

	lower := strings.ToLower(utterance)
	for question, answer := range d.kb.QnA() {
		if strings.Contains(lower, question) {
			return answer
		}
	}

	return "Я еще мало что знаю. Расскажи мне что-нибудь интересное!"
}

func (d *Dispatcher) clearMemory(_ string, _ models.UserProfile) string {
	return "Очистка памяти выполняется отдельной командой, чтобы ничего не удалить случайно."
}

func (d *Dispatcher) howILearn(_ string, _ models.UserProfile) string {
	stats := d.kb.Stats()
	return fmt.Sprintf("🧠 Как я учусь:\n"+
		"• Выучено ответов: %d\n"+
		"• Получено исправлений: %d\n"+
		"• Всего сообщений: %d\n"+
		"• Всего пользователей: %d\n\n"+
		"Когда я не знаю ответа, я спрашиваю у вас! 💡",
		stats.LearnedQnA, stats.CorrectionsReceived, stats.TotalMessages, stats.TotalUsers)
}

func (d *Dispatcher) stats(_ string, profile models.UserProfile) string {
	stats := d.kb.Stats()
	response := fmt.Sprintf("📈 Глобальная статистика:\n"+
		"• Всего сообщений: %d\n"+
		"• Выучено ответов: %d\n"+
		"• Всего пользователей: %d",
		stats.TotalMessages, stats.LearnedQnA, stats.TotalUsers)

	if profile.UserID != 0 {
		response += fmt.Sprintf("\n\n📊 Твоя статистика:\n"+
			"• Сообщений: %d\n"+
			"• Внесено знаний: %d\n"+
			"• Диалогов: %d",
			profile.TotalMessages, profile.LearnedContributions, profile.ConversationCount)
	}

	return response
}

func (d *Dispatcher) currency(_ string, _ models.UserProfile) string {
	return "💱 Функция курсов валют в разработке. Скоро будет доступно!"
}

func (d *Dispatcher) news(_ string, _ models.UserProfile) string {
	return "📰 Функция новостей в разработке. Скоро будет доступно!"
}

func (d *Dispatcher) joke(_ string, _ models.UserProfile) string {
	return fmt.Sprintf("😂 %s", pick(jokes))
}
