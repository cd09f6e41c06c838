package models

import "time"

// Role identifies the author of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one message in a session's conversation history. Turns are
// append-only: once stored they are never edited or removed.
type Turn struct {
	Role      Role     `json:"role"`
	Content   string   `json:"content"`
	Citations []string `json:"citations"`
}

// Session holds a debate conversation and its running metric counters.
// AssistantTurns always equals the number of assistant turns in History;
// HallucinationEvents and OppositionDriftTurns never exceed it.
type Session struct {
	ID                   string    `json:"id"`
	Topic                string    `json:"topic"`
	Stance               string    `json:"stance"`
	History              []Turn    `json:"history"`
	AssistantTurns       int       `json:"assistant_turns"`
	HallucinationEvents  int       `json:"hallucination_events"`
	OppositionDriftTurns int       `json:"opposition_drift_turns"`
	CreatedAt            time.Time `json:"created_at"`
}

// AppendTurn adds a turn to the history.
func (s *Session) AppendTurn(t Turn) {
	s.History = append(s.History, t)
}

// Clone returns a deep copy so stored sessions are never aliased by callers.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	cp := *s
	cp.History = make([]Turn, len(s.History))
	for i, t := range s.History {
		cp.History[i] = t
		if t.Citations != nil {
			cp.History[i].Citations = append([]string(nil), t.Citations...)
		}
	}
	return &cp
}

// RubricScore is the derived evaluation result for a session. It is computed
// fresh on every evaluation request and never persisted.
type RubricScore struct {
	SessionID             string  `json:"session_id"`
	Clarity               float64 `json:"clarity"`
	Evidence              float64 `json:"evidence"`
	Logic                 float64 `json:"logic"`
	Rebuttal              float64 `json:"rebuttal"`
	Overall               float64 `json:"aqs_overall"`
	HallucinationRate     float64 `json:"hallucination_rate"`
	OppositionConsistency float64 `json:"opposition_consistency"`
	Label                 string  `json:"label"`
	Notes                 string  `json:"notes"`
}
