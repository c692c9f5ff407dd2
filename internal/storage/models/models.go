package models

import "time"

// KnowledgeDocument is the persisted root aggregate. The JSON layout matches
// the knowledge file on disk; unknown top-level keys are preserved by the
// store on re-save.
type KnowledgeDocument struct {
	Facts            map[string]string         `json:"facts"`
	QnA              map[string]string         `json:"qna"`
	LearnedFacts     map[string]LearnedFact    `json:"learned_facts"`
	InteractionStats map[string]map[string]int `json:"interaction_stats"`
	Statistics       Statistics                `json:"statistics"`
	UserProfiles     map[string]*UserProfile   `json:"user_profiles"`
}

type LearnedFact struct {
	Fact      string    `json:"fact"`
	LearnedAt time.Time `json:"learned_at"`
	LearnedBy int64     `json:"learned_by"`
}

type Statistics struct {
	TotalConversations  int       `json:"total_conversations"`
	TotalMessages       int       `json:"total_messages"`
	LearnedQnA          int       `json:"learned_qna"`
	CorrectionsReceived int       `json:"corrections_received"`
	FirstStart          time.Time `json:"first_start"`
	TotalUsers          int       `json:"total_users"`
}

type UserProfile struct {
	UserID               int64          `json:"user_id"`
	Username             string         `json:"username,omitempty"`
	FirstName            string         `json:"first_name,omitempty"`
	LastName             string         `json:"last_name,omitempty"`
	ConversationCount    int            `json:"conversation_count"`
	TotalMessages        int            `json:"total_messages"`
	LearnedContributions int            `json:"learned_contributions"`
	LastActive           time.Time      `json:"last_active"`
	Preferences          map[string]any `json:"preferences"`
}

// TurnRecord is one processed exchange, logged to the turn history database.
type TurnRecord struct {
	ID         string
	UserID     int64
	Message    string
	Response   string
	Source     string
	Confidence float64
	LatencyMS  int
	CreatedAt  time.Time
}
