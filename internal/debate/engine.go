package debate

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/counterpointai/counterpoint/internal/corpus"
	"github.com/counterpointai/counterpoint/internal/store"
	"github.com/counterpointai/counterpoint/internal/telemetry"
	"github.com/counterpointai/counterpoint/models"
)

// HallucinationFlagUngrounded is raised on every assistant turn generated
// without retrieved evidence.
const HallucinationFlagUngrounded = "No supporting documents found; treat claims as ungrounded."

// TurnResult is what a start/respond call hands back to the transport layer.
type TurnResult struct {
	Reply                string
	Citations            []string
	HallucinationFlags   []string
	OppositionConsistent bool
}

// Engine owns the per-session conversation state: it runs the turn pipeline,
// classifies replies, and keeps the running counters consistent with the
// stored history. Turns on the same session are serialized by a per-id
// mutex; different sessions proceed in parallel.
type Engine struct {
	store   store.SessionStore
	index   *corpus.Index
	gateway *Gateway
	metrics *telemetry.Metrics
	logger  *log.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewEngine(st store.SessionStore, index *corpus.Index, gateway *Gateway, metrics *telemetry.Metrics, logger *log.Logger) *Engine {
	if logger == nil {
		logger = log.New(log.Writer(), "[DEBATE] ", log.LstdFlags)
	}
	if metrics == nil {
		metrics = telemetry.NewNop()
	}
	return &Engine{
		store:   st,
		index:   index,
		gateway: gateway,
		metrics: metrics,
		logger:  logger,
		locks:   make(map[string]*sync.Mutex),
	}
}

// sessionLock returns the mutex for id, creating it on first use. Entries
// for known sessions live for the process lifetime; ids the store does not
// recognize are evicted again so probing unknown ids cannot grow the map.
func (e *Engine) sessionLock(id string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	l, ok := e.locks[id]
	if !ok {
		l = &sync.Mutex{}
		e.locks[id] = l
	}
	return l
}

func (e *Engine) dropSessionLock(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.locks, id)
}

// Start creates a session and generates the opening assistant statement via
// the shared turn pipeline with an empty user message.
func (e *Engine) Start(ctx context.Context, topic, stance string) (*models.Session, *TurnResult, error) {
	sess := &models.Session{
		ID:        uuid.NewString(),
		Topic:     topic,
		Stance:    stance,
		CreatedAt: time.Now().UTC(),
	}
	if err := e.store.Create(ctx, sess); err != nil {
		return nil, nil, fmt.Errorf("creating session: %w", err)
	}
	res, err := e.runTurn(ctx, sess, "")
	if err != nil {
		return nil, nil, err
	}
	e.metrics.SessionsStarted.Inc()
	return sess, res, nil
}

// Respond appends the user's rebuttal and generates the assistant
// counter-argument. Concurrent turns on the same session are excluded.
func (e *Engine) Respond(ctx context.Context, sessionID, userMessage string) (*TurnResult, error) {
	lock := e.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	sess, err := e.store.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, store.ErrSessionNotFound) {
			e.dropSessionLock(sessionID)
		}
		return nil, err
	}
	sess.AppendTurn(models.Turn{Role: models.RoleUser, Content: userMessage, Citations: []string{}})
	return e.runTurn(ctx, sess, userMessage)
}

// Get fetches a stored session by id.
func (e *Engine) Get(ctx context.Context, sessionID string) (*models.Session, error) {
	return e.store.Get(ctx, sessionID)
}

// runTurn is the shared pipeline: rank the corpus against the turn's query,
// format the evidence, generate the reply, classify it, and persist the
// appended turn together with the updated counters in one store write.
func (e *Engine) runTurn(ctx context.Context, sess *models.Session, userMessage string) (*TurnResult, error) {
	query := userMessage
	if query == "" {
		query = sess.Topic + " " + sess.Stance
	}
	chunks := e.index.Rank(query, corpus.DefaultRankLimit)
	bundle, citations := corpus.FormatContext(chunks)
	if citations == nil {
		citations = []string{}
	}

	reply := e.gateway.GenerateReply(ctx, sess.Topic, sess.Stance, userMessage, sess.History, bundle)

	flags := detectHallucinations(chunks)
	consistent := oppositionConsistent(reply, sess.Stance)

	sess.AppendTurn(models.Turn{Role: models.RoleAssistant, Content: reply, Citations: citations})
	sess.AssistantTurns++
	if !consistent {
		sess.OppositionDriftTurns++
	}
	if len(flags) > 0 {
		sess.HallucinationEvents++
	}

	if err := e.store.Update(ctx, sess); err != nil {
		return nil, fmt.Errorf("persisting turn: %w", err)
	}

	e.metrics.AssistantTurns.Inc()
	if !consistent {
		e.metrics.OppositionDrift.Inc()
	}
	if len(flags) > 0 {
		e.metrics.HallucinationEvents.Inc()
	}

	return &TurnResult{
		Reply:                reply,
		Citations:            citations,
		HallucinationFlags:   flags,
		OppositionConsistent: consistent,
	}, nil
}

// detectHallucinations flags a turn as ungrounded when nothing was
// retrieved for it.
func detectHallucinations(chunks []corpus.Chunk) []string {
	if len(chunks) > 0 {
		return []string{}
	}
	return []string{HallucinationFlagUngrounded}
}

// oppositionConsistent reports whether the assistant held the opposing
// position. The reply is flagged as drifted only when it echoes every
// distinct stance token; containment is substring matching, so a stance
// token like "tax" also matches inside "taxonomy".
func oppositionConsistent(reply, stance string) bool {
	lowered := strings.ToLower(reply)
	seen := make(map[string]bool)
	matches := 0
	total := 0
	for _, tok := range strings.Fields(strings.ToLower(stance)) {
		if seen[tok] {
			continue
		}
		seen[tok] = true
		total++
		if strings.Contains(lowered, tok) {
			matches++
		}
	}
	threshold := total
	if threshold < 1 {
		threshold = 1
	}
	return matches < threshold
}

// OppositionRatio is the fraction of assistant turns that held opposition;
// 1.0 when no assistant turn has happened yet.
func OppositionRatio(s *models.Session) float64 {
	if s.AssistantTurns == 0 {
		return 1.0
	}
	return 1 - float64(s.OppositionDriftTurns)/float64(s.AssistantTurns)
}

// HallucinationRate is the fraction of assistant turns flagged as
// ungrounded; 0.0 when no assistant turn has happened yet.
func HallucinationRate(s *models.Session) float64 {
	if s.AssistantTurns == 0 {
		return 0.0
	}
	return float64(s.HallucinationEvents) / float64(s.AssistantTurns)
}
