package server

// StartDebateRequest opens a new debate session.
type StartDebateRequest struct {
	Topic  string `json:"topic"`
	Stance string `json:"stance"`
}

// DebateRespondRequest carries a user rebuttal for an existing session.
type DebateRespondRequest struct {
	SessionID   string `json:"session_id"`
	UserMessage string `json:"user_message"`
}

// DebateTurnResponse is the assistant reply with its classification
// metadata, returned by both start and respond.
type DebateTurnResponse struct {
	SessionID            string   `json:"session_id"`
	AIMessage            string   `json:"ai_message"`
	Citations            []string `json:"citations"`
	HallucinationFlags   []string `json:"hallucination_flags"`
	OppositionConsistent bool     `json:"opposition_consistent"`
}

// EvaluationRequest asks for rubric feedback on a session.
type EvaluationRequest struct {
	SessionID string `json:"session_id"`
}

// SubtopicsResponse lists suggested debate subtopics for a topic.
type SubtopicsResponse struct {
	Topic     string   `json:"topic"`
	Subtopics []string `json:"subtopics"`
}

// AddDocumentRequest uploads a new corpus document.
type AddDocumentRequest struct {
	Text string `json:"text"`
}

// AuthSignupRequest creates a user account.
type AuthSignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthLoginRequest exchanges credentials for a token.
type AuthLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
