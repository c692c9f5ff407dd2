package knowledge

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/nix-ai/backend/internal/storage/models"
	"github.com/nix-ai/backend/pkg/logger"
)

var (
	// ErrCorrupt means the persisted document could not be parsed. The store
	// recovers by regenerating the default document; callers never see this
	// during normal turn processing.
	ErrCorrupt = errors.New("knowledge document is corrupt")

	// ErrWrite means persisting the document failed. In-memory state is kept,
	// so a later save may succeed.
	ErrWrite = errors.New("failed to write knowledge document")
)

// Store owns the knowledge document. All mutations go through it and are
// serialized by a single mutex: mutate then persist is one critical section.
type Store struct {
	path string

	mu    sync.Mutex
	doc   *models.KnowledgeDocument
	extra map[string]json.RawMessage
	now   func() time.Time
}

func Open(path string) (*Store, error) {
	s := &Store{
		path: path,
		now:  time.Now,
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create storage directory: %w", err)
		}
	}

	if err := s.load(); err != nil {
		return nil, err
	}

	logger.Info("Knowledge store opened",
		zap.String("path", path),
		zap.Int("qna_pairs", len(s.doc.QnA)),
		zap.Int("users", len(s.doc.UserProfiles)),
	)

	return s, nil
}

func (s *Store) load() error {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.doc = defaultDocument(s.now())
		s.extra = map[string]json.RawMessage{}
		return s.persistLocked()
	}
	if err != nil {
		return fmt.Errorf("failed to read knowledge file: %w", err)
	}

	doc, extra, err := decodeDocument(raw)
	if err != nil {
		logger.Error("Knowledge document unreadable, regenerating defaults",
			zap.String("path", s.path),
			zap.Error(fmt.Errorf("%w: %v", ErrCorrupt, err)),
		)
		s.doc = defaultDocument(s.now())
		s.extra = map[string]json.RawMessage{}
		return s.persistLocked()
	}

	s.doc = doc
	s.extra = extra
	return nil
}

func decodeDocument(raw []byte) (*models.KnowledgeDocument, map[string]json.RawMessage, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		return nil, nil, err
	}

	doc := emptyDocument()
	fields := map[string]any{
		"facts":             &doc.Facts,
		"qna":               &doc.QnA,
		"learned_facts":     &doc.LearnedFacts,
		"interaction_stats": &doc.InteractionStats,
		"statistics":        &doc.Statistics,
		"user_profiles":     &doc.UserProfiles,
	}

	for key, dst := range fields {
		msg, ok := top[key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(msg, dst); err != nil {
			return nil, nil, fmt.Errorf("key %q: %w", key, err)
		}
		delete(top, key)
	}

	ensureMaps(doc)
	return doc, top, nil
}

func (s *Store) persistLocked() error {
	out := make(map[string]json.RawMessage, len(s.extra)+6)
	for k, v := range s.extra {
		out[k] = v
	}

	fields := map[string]any{
		"facts":             s.doc.Facts,
		"qna":               s.doc.QnA,
		"learned_facts":     s.doc.LearnedFacts,
		"interaction_stats": s.doc.InteractionStats,
		"statistics":        s.doc.Statistics,
		"user_profiles":     s.doc.UserProfiles,
	}

	for key, src := range fields {
		msg, err := json.Marshal(src)
		if err != nil {
			return fmt.Errorf("%w: marshal %q: %v", ErrWrite, key, err)
		}
		out[key] = msg
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}

	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}
	return nil
}

// saveLocked persists the document and keeps going on failure: the in-memory
// state stays authoritative and a later save may succeed.
func (s *Store) saveLocked() {
	if err := s.persistLocked(); err != nil {
		logger.Error("Failed to persist knowledge document", zap.Error(err))
	}
}

func (s *Store) GetOrCreateProfile(userID int64, username, firstName, lastName string) models.UserProfile {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strconv.FormatInt(userID, 10)
	profile, ok := s.doc.UserProfiles[key]
	if ok {
		if username != "" && username != profile.Username {
			profile.Username = username
		}
		if firstName != "" && firstName != profile.FirstName {
			profile.FirstName = firstName
		}
		if lastName != "" && lastName != profile.LastName {
			profile.LastName = lastName
		}
	} else {
		profile = &models.UserProfile{
			UserID:            userID,
			Username:          username,
			FirstName:         firstName,
			LastName:          lastName,
			ConversationCount: 1,
			Preferences:       map[string]any{},
		}
		s.doc.UserProfiles[key] = profile
		s.doc.Statistics.TotalUsers++
	}

	profile.LastActive = s.now()
	s.saveLocked()
	return *profile
}

// IncrementMessageStats bumps the per-user and global message counters in one
// critical section.
func (s *Store) IncrementMessageStats(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if profile, ok := s.doc.UserProfiles[strconv.FormatInt(userID, 10)]; ok {
		profile.TotalMessages++
		profile.LastActive = s.now()
	}
	s.doc.Statistics.TotalMessages++
	s.saveLocked()
}

// ApplyCorrection stores the user-taught answer verbatim under the lower-cased
// question and bumps the learning counters.
func (s *Store) ApplyCorrection(question, answer string, userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.doc.QnA[strings.ToLower(question)] = answer
	if profile, ok := s.doc.UserProfiles[strconv.FormatInt(userID, 10)]; ok {
		profile.LearnedContributions++
		profile.LastActive = s.now()
	}
	s.doc.Statistics.LearnedQnA++
	s.doc.Statistics.CorrectionsReceived++
	s.saveLocked()
}

func (s *Store) RememberFact(fact string, userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := fact
	if runes := []rune(fact); len(runes) > 50 {
		key = string(runes[:50])
	}
	s.doc.LearnedFacts[key] = models.LearnedFact{
		Fact:      fact,
		LearnedAt: s.now(),
		LearnedBy: userID,
	}
	s.saveLocked()
}

func (s *Store) RandomLearnedFact() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.doc.LearnedFacts) == 0 {
		return "", false
	}
	facts := make([]string, 0, len(s.doc.LearnedFacts))
	for _, f := range s.doc.LearnedFacts {
		facts = append(facts, f.Fact)
	}
	return facts[rand.Intn(len(facts))], true
}

// RecordInteraction is write-only telemetry: occurrence counts of
// (keyword-pair -> answer). Nothing reads it back yet.
func (s *Store) RecordInteraction(key, answer string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	answers, ok := s.doc.InteractionStats[key]
	if !ok {
		answers = map[string]int{}
		s.doc.InteractionStats[key] = answers
	}
	answers[answer]++
	s.saveLocked()
}

// ClearLearned wipes everything the engine has learned; seed facts and user
// profiles survive.
func (s *Store) ClearLearned() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.doc.QnA = map[string]string{}
	s.doc.LearnedFacts = map[string]models.LearnedFact{}
	s.doc.InteractionStats = map[string]map[string]int{}
	s.saveLocked()
}

func (s *Store) InteractionStats() map[string]map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()

	dst := make(map[string]map[string]int, len(s.doc.InteractionStats))
	for key, answers := range s.doc.InteractionStats {
		inner := make(map[string]int, len(answers))
		for answer, count := range answers {
			inner[answer] = count
		}
		dst[key] = inner
	}
	return dst
}

func (s *Store) Facts() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyStringMap(s.doc.Facts)
}

func (s *Store) QnA() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyStringMap(s.doc.QnA)
}

func (s *Store) Stats() models.Statistics {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Statistics
}

func (s *Store) Profile(userID int64) (models.UserProfile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	profile, ok := s.doc.UserProfiles[strconv.FormatInt(userID, 10)]
	if !ok {
		return models.UserProfile{}, false
	}
	return *profile, true
}

func copyStringMap(src map[string]string) map[string]string {
	dst := make(map[string]string, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func emptyDocument() *models.KnowledgeDocument {
	return &models.KnowledgeDocument{
		Facts:            map[string]string{},
		QnA:              map[string]string{},
		LearnedFacts:     map[string]models.LearnedFact{},
		InteractionStats: map[string]map[string]int{},
		UserProfiles:     map[string]*models.UserProfile{},
	}
}

func ensureMaps(doc *models.KnowledgeDocument) {
	if doc.Facts == nil {
		doc.Facts = map[string]string{}
	}
	if doc.QnA == nil {
		doc.QnA = map[string]string{}
	}
	if doc.LearnedFacts == nil {
		doc.LearnedFacts = map[string]models.LearnedFact{}
	}
	if doc.InteractionStats == nil {
		doc.InteractionStats = map[string]map[string]int{}
	}
	if doc.UserProfiles == nil {
		doc.UserProfiles = map[string]*models.UserProfile{}
	}
}

func defaultDocument(now time.Time) *models.KnowledgeDocument {
	doc := emptyDocument()
	doc.Facts = map[string]string{
		"создатель": "Меня создал Аслан",
		"имя":       "Nix AI",
		"версия":    "0.2",
		"цель":      "Помогать людям и учиться на диалогах",
	}
	doc.QnA = map[string]string{
		"что такое python":                  "Python — это язык программирования",
		"что такое искусственный интеллект": "ИИ — это система, имитирующая человеческий интеллект",
		"как тебя зовут":                    "Меня зовут Nix AI",
		"кто создал тебя":                   "Меня создал разработчик, который хочет сделать полезного ИИ",
	}
	doc.Statistics = models.Statistics{FirstStart: now}
	return doc
}
