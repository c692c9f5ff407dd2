package engine

import (
	"context"
	"fmt"
	"math/rand"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nix-ai/backend/internal/metrics"
	"github.com/nix-ai/backend/internal/qna"
	"github.com/nix-ai/backend/internal/rules"
	"github.com/nix-ai/backend/internal/storage/knowledge"
	"github.com/nix-ai/backend/internal/storage/models"
	"github.com/nix-ai/backend/pkg/logger"
)

type FollowupKind string

const (
	FollowupNone       FollowupKind = "none"
	FollowupCorrection FollowupKind = "correction"
	FollowupWeather    FollowupKind = "weather"
)

// Resolution sources, recorded per turn.
const (
	SourceCorrection    = "correction"
	SourceRule          = "rule"
	SourceQnA           = "qna"
	SourceWeather       = "weather"
	SourceWeatherPrompt = "weather_prompt"
	SourceTeach         = "teach"
	SourceFallback      = "fallback"
)

type WeatherService interface {
	GetWeather(ctx context.Context, city string) string
}

type History interface {
	InsertTurn(record *models.TurnRecord) error
}

// CorrectionContext marks the turn as the answer to an earlier teach-me
// prompt; the transport carries it between turns.
type CorrectionContext struct {
	Question string
}

type TurnRequest struct {
	UserID     int64
	Text       string
	Username   string
	FirstName  string
	LastName   string
	Correction *CorrectionContext
}

type TurnOutcome struct {
	Response        string
	NeedsFollowup   bool
	FollowupKind    FollowupKind
	PendingQuestion string
	Source          string
	Confidence      float64
}

type Config struct {
	ConfidenceThreshold float64
	AutoLearn           bool
}

// Engine resolves one turn at a time: corrections, then rules, then QnA,
// then weather intent, then the confidence-gated teach-me prompt, then a
// fallback. It holds no per-conversation state; followup context comes in
// with the request.
type Engine struct {
	store     *knowledge.Store
	rules     *rules.Dispatcher
	matcher   *qna.Matcher
	weather   WeatherService
	history   History
	threshold float64
	autoLearn bool
}

var (
	weatherIntentWords = []string{"погода", "weather", "прогноз"}
	cityPattern        = regexp.MustCompile(`(?:погода|weather|прогноз)\s+(.+)`)
)

var fallbackReplies = []string{
	"Извини, я не совсем понял вопрос: '%s'. Можешь переформулировать?",
	"Интересно... '%s'. Давай поговорим о чем-нибудь другом?",
	"Пока я не готов ответить на этот вопрос. Спроси что-нибудь другое!",
	"Хм, мне нужно подумать над этим. А пока могу ответить на другие вопросы!",
	"Я еще учусь! Спроси меня о чем-то другом, например о погоде или времени.",
}

func New(store *knowledge.Store, dispatcher *rules.Dispatcher, matcher *qna.Matcher,
	weather WeatherService, history History, cfg Config) *Engine {
	threshold := cfg.ConfidenceThreshold
	if threshold == 0 {
		threshold = 0.3
	}

	return &Engine{
		store:     store,
		rules:     dispatcher,
		matcher:   matcher,
		weather:   weather,
		history:   history,
		threshold: threshold,
		autoLearn: cfg.AutoLearn,
	}
}

func (e *Engine) ProcessTurn(ctx context.Context, req TurnRequest) TurnOutcome {
	start := time.Now()

	profile := e.store.GetOrCreateProfile(req.UserID, req.Username, req.FirstName, req.LastName)
	e.store.IncrementMessageStats(req.UserID)

	text := strings.TrimSpace(req.Text)
	outcome := e.resolve(ctx, req, profile, text)

	e.record(req, text, outcome, time.Since(start))
	return outcome
}

func (e *Engine) resolve(ctx context.Context, req TurnRequest, profile models.UserProfile, text string) TurnOutcome {
	lower := strings.ToLower(text)

	if req.Correction != nil && req.Correction.Question != "" {
		question := req.Correction.Question
		e.store.ApplyCorrection(question, text, req.UserID)
		metrics.LearnedQnATotal.Inc()
		return TurnOutcome{
			Response: fmt.Sprintf("✅ Отлично! Запомнил: на вопрос '%s' нужно отвечать: '%s'",
				question, text),
			FollowupKind: FollowupNone,
			Source:       SourceCorrection,
		}
	}

	if response, ok := e.rules.Dispatch(text, profile); ok {
		e.learnFromInteraction(lower, response)
		return TurnOutcome{Response: response, FollowupKind: FollowupNone, Source: SourceRule}
	}

	if answer, ok := e.matcher.Match(text); ok {
		e.learnFromInteraction(lower, answer)
		return TurnOutcome{Response: answer, FollowupKind: FollowupNone, Source: SourceQnA}
	}

	if hasWeatherIntent(lower) {
		if match := cityPattern.FindStringSubmatch(lower); match != nil {
			city := strings.TrimSpace(match[1])
			return TurnOutcome{
				Response:     e.weather.GetWeather(ctx, city),
				FollowupKind: FollowupNone,
				Source:       SourceWeather,
			}
		}
		return TurnOutcome{
			Response:      "🌤️ Напиши название города для получения погоды",
			NeedsFollowup: true,
			FollowupKind:  FollowupWeather,
			Source:        SourceWeatherPrompt,
		}
	}

	confidence := e.matcher.Confidence(text)
	metrics.ConfidenceScore.Observe(confidence)

	if confidence < e.threshold && e.autoLearn {
		return TurnOutcome{
			Response: fmt.Sprintf("🤔 Я не уверен в ответе на вопрос: '%s'. Можешь подсказать правильный ответ?",
				text),
			NeedsFollowup:   true,
			FollowupKind:    FollowupCorrection,
			PendingQuestion: text,
			Source:          SourceTeach,
			Confidence:      confidence,
		}
	}

	return TurnOutcome{
		Response:     fallbackResponse(text),
		FollowupKind: FollowupNone,
		Source:       SourceFallback,
		Confidence:   confidence,
	}
}

// learnFromInteraction records the write-only (keyword-pair -> answer)
// occurrence signal for answered turns.
func (e *Engine) learnFromInteraction(lowerUtterance, answer string) {
	keywords := qna.ExtractKeywords(lowerUtterance)
	if len(keywords) < 2 {
		return
	}
	sort.Strings(keywords)
	e.store.RecordInteraction(keywords[0]+" "+keywords[1], answer)
}

func (e *Engine) record(req TurnRequest, text string, outcome TurnOutcome, elapsed time.Duration) {
	metrics.TurnsTotal.WithLabelValues(outcome.Source).Inc()
	metrics.TurnDuration.Observe(elapsed.Seconds())

	if e.history == nil {
		return
	}

	record := &models.TurnRecord{
		ID:         uuid.New().String(),
		UserID:     req.UserID,
		Message:    text,
		Response:   outcome.Response,
		Source:     outcome.Source,
		Confidence: outcome.Confidence,
		LatencyMS:  int(elapsed.Milliseconds()),
		CreatedAt:  time.Now(),
	}

	if err := e.history.InsertTurn(record); err != nil {
		logger.Warn("Failed to record turn",
			zap.String("turn_id", record.ID),
			zap.Int64("user_id", req.UserID),
			zap.Error(err),
		)
	}
}

func hasWeatherIntent(lower string) bool {
	for _, word := range weatherIntentWords {
		if strings.Contains(lower, word) {
			return true
		}
	}
	return false
}

func fallbackResponse(text string) string {
	reply := fallbackReplies[rand.Intn(len(fallbackReplies))]
	if strings.Contains(reply, "%s") {
		return fmt.Sprintf(reply, text)
	}
	return reply
}
