package types

import "time"

// MaxHistoryTurns bounds the session transcript ring (spec.md §3, §8).
const MaxHistoryTurns = 10

// Turn is one (user, assistant) exchange in a session transcript.
type Turn struct {
	Timestamp time.Time `bson:"ts" json:"ts"`
	User      string    `bson:"user" json:"user"`
	Assistant string    `bson:"assistant" json:"assistant"`
}

// SessionMemory is the bounded ring of the last MaxHistoryTurns turns plus a
// free-form user-context blob (spec.md §3, glossary "session memory").
type SessionMemory struct {
	SessionID          string                 `bson:"_id" json:"session_id"`
	ConversationHistory []Turn                `bson:"conversation_history" json:"conversation_history"`
	UserContext        map[string]interface{} `bson:"user_context,omitempty" json:"user_context,omitempty"`
	UpdatedAt          time.Time              `bson:"updated_at" json:"updated_at"`
}

// AppendTurn appends a turn and truncates history to the last
// MaxHistoryTurns entries, per spec.md §4.8 "History is truncated to the
// last 10 entries on every save."
func (s *SessionMemory) AppendTurn(t Turn) {
	s.ConversationHistory = append(s.ConversationHistory, t)
	if len(s.ConversationHistory) > MaxHistoryTurns {
		s.ConversationHistory = s.ConversationHistory[len(s.ConversationHistory)-MaxHistoryTurns:]
	}
}

// ConversationContext is the per-session lightweight state tracked
// alongside the transcript (spec.md §3).
type ConversationContext struct {
	SessionID         string    `bson:"_id" json:"session_id"`
	CurrentTopic      string    `bson:"current_topic,omitempty" json:"current_topic,omitempty"`
	DiscussedTopics   []string  `bson:"discussed_topics,omitempty" json:"discussed_topics,omitempty"`
	MentionedEntities []string  `bson:"mentioned_entities,omitempty" json:"mentioned_entities,omitempty"`
	OpenQuestions     []string  `bson:"open_questions,omitempty" json:"open_questions,omitempty"`
	MessageCount      int       `bson:"message_count" json:"message_count"`
	LastUpdated       time.Time `bson:"last_updated" json:"last_updated"`
}
