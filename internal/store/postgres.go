package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/counterpointai/counterpoint/models"
)

// Store is the Postgres-backed session and user store.
type Store struct {
	DB *sql.DB
}

// NewWithDSN opens a Postgres connection and verifies it.
func NewWithDSN(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}
	return &Store{DB: db}, nil
}

func (st *Store) Create(ctx context.Context, s *models.Session) error {
	history, err := json.Marshal(s.History)
	if err != nil {
		return fmt.Errorf("marshaling history: %w", err)
	}
	_, err = st.DB.ExecContext(ctx, `
INSERT INTO debate_sessions (id, topic, stance, history, assistant_turns, hallucination_events, opposition_drift_turns, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
`, s.ID, s.Topic, s.Stance, history, s.AssistantTurns, s.HallucinationEvents, s.OppositionDriftTurns, s.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting session: %w", err)
	}
	return nil
}

func (st *Store) Get(ctx context.Context, id string) (*models.Session, error) {
	var (
		s       models.Session
		history []byte
		created time.Time
	)
	err := st.DB.QueryRowContext(ctx, `
SELECT id, topic, stance, history, assistant_turns, hallucination_events, opposition_drift_turns, created_at
FROM debate_sessions WHERE id=$1
`, id).Scan(&s.ID, &s.Topic, &s.Stance, &history, &s.AssistantTurns, &s.HallucinationEvents, &s.OppositionDriftTurns, &created)
	if err == sql.ErrNoRows {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("selecting session: %w", err)
	}
	if len(history) > 0 {
		if err := json.Unmarshal(history, &s.History); err != nil {
			return nil, fmt.Errorf("decoding history: %w", err)
		}
	}
	s.CreatedAt = created
	return &s, nil
}

// Update rewrites history and counters in a single statement, keeping a turn
// append all-or-nothing.
func (st *Store) Update(ctx context.Context, s *models.Session) error {
	history, err := json.Marshal(s.History)
	if err != nil {
		return fmt.Errorf("marshaling history: %w", err)
	}
	res, err := st.DB.ExecContext(ctx, `
UPDATE debate_sessions
SET history=$2, assistant_turns=$3, hallucination_events=$4, opposition_drift_turns=$5
WHERE id=$1
`, s.ID, history, s.AssistantTurns, s.HallucinationEvents, s.OppositionDriftTurns)
	if err != nil {
		return fmt.Errorf("updating session: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// CreateUser inserts a user row for the optional auth layer.
func (st *Store) CreateUser(ctx context.Context, id, email, passwordHash string) error {
	_, err := st.DB.ExecContext(ctx, `
INSERT INTO users (id, email, password_hash, created_at) VALUES ($1,$2,$3,NOW())
`, id, email, passwordHash)
	return err
}

// GetUserByEmail returns the user id and password hash for a login attempt.
func (st *Store) GetUserByEmail(ctx context.Context, email string) (string, string, error) {
	var id, hash string
	err := st.DB.QueryRowContext(ctx, `SELECT id, password_hash FROM users WHERE email=$1`, email).Scan(&id, &hash)
	if err != nil {
		return "", "", err
	}
	return id, hash, nil
}
