package evaluation

import (
	"context"
	"math"
	"strings"

	"github.com/counterpointai/counterpoint/internal/debate"
	"github.com/counterpointai/counterpoint/internal/store"
	"github.com/counterpointai/counterpoint/models"
)

// Rubric labels in ascending quality order.
const (
	LabelPoor      = "Poor"
	LabelOkay      = "Okay"
	LabelGood      = "Good"
	LabelExcellent = "Excellent"
)

// notes maps each label to its fixed coaching sentence.
var notes = map[string]string{
	LabelPoor:      "Substantial issues detected — revisit grounding and stance control.",
	LabelOkay:      "Serviceable debate, but evidence and consistency need work.",
	LabelGood:      "Generally strong opposition with minor polish needed.",
	LabelExcellent: "High-quality debate with confident, grounded opposition.",
}

// Service derives rubric scores from stored debate sessions. Scores are
// computed fresh on every call and never persisted.
type Service struct {
	store store.SessionStore
}

func NewService(st store.SessionStore) *Service {
	return &Service{store: st}
}

// Evaluate reduces a session's history and counters into a rubric score.
// A missing session surfaces store.ErrSessionNotFound.
func (s *Service) Evaluate(ctx context.Context, sessionID string) (*models.RubricScore, error) {
	sess, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	var assistant []models.Turn
	userTurns := 0
	for _, turn := range sess.History {
		switch turn.Role {
		case models.RoleAssistant:
			assistant = append(assistant, turn)
		case models.RoleUser:
			userTurns++
		}
	}

	clarity := scoreClarity(assistant)
	evidence := scoreEvidence(assistant)
	logic := scoreLogic(assistant)
	rebuttal := scoreRebuttal(len(assistant), userTurns)

	overall := round2((clarity + evidence + logic + rebuttal) / 4)
	hallucinationRate := round2(debate.HallucinationRate(sess) * 100)
	oppositionConsistency := round2(debate.OppositionRatio(sess) * 100)
	label := labelFor(overall, hallucinationRate, oppositionConsistency)

	return &models.RubricScore{
		SessionID:             sess.ID,
		Clarity:               round2(clarity),
		Evidence:              round2(evidence),
		Logic:                 round2(logic),
		Rebuttal:              round2(rebuttal),
		Overall:               overall,
		HallucinationRate:     hallucinationRate,
		OppositionConsistency: oppositionConsistency,
		Label:                 label,
		Notes:                 notes[label],
	}, nil
}

// scoreClarity uses average assistant word count as a proxy for detail.
func scoreClarity(assistant []models.Turn) float64 {
	if len(assistant) == 0 {
		return clamp(1.0)
	}
	words := 0
	for _, turn := range assistant {
		words += len(strings.Fields(turn.Content))
	}
	avg := float64(words) / float64(len(assistant))
	return clamp(2.0 + avg/60)
}

// scoreEvidence rewards turns that cite retrieval sources.
func scoreEvidence(assistant []models.Turn) float64 {
	citations := 0
	for _, turn := range assistant {
		citations += len(turn.Citations)
	}
	return clamp(1.5 + 0.8*float64(citations))
}

// scoreLogic looks for a simple cohesion marker in assistant turns.
func scoreLogic(assistant []models.Turn) float64 {
	ratio := 0.0
	if len(assistant) > 0 {
		coherent := 0
		for _, turn := range assistant {
			if strings.Contains(strings.ToLower(turn.Content), "therefore") {
				coherent++
			}
		}
		ratio = float64(coherent) / float64(len(assistant))
	}
	return clamp(2.2 + ratio*2.5)
}

// scoreRebuttal counts paired exchanges over the full history.
func scoreRebuttal(assistantTurns, userTurns int) float64 {
	pairings := assistantTurns
	if userTurns < pairings {
		pairings = userTurns
	}
	return clamp(2.0 + 0.5*float64(pairings))
}

// labelFor maps the three metrics onto a tier, first match wins. The
// inclusive ranges overlap and leave a gap between 3.5 and 3.6; the ordering
// resolves both deterministically and is preserved as-is.
func labelFor(overall, hallucinationRate, opposition float64) string {
	switch {
	case overall < 3.0 || hallucinationRate > 25 || opposition < 60:
		return LabelPoor
	case (overall >= 3.0 && overall <= 3.5) || (hallucinationRate > 15 && hallucinationRate <= 25) || (opposition >= 60 && opposition <= 75):
		return LabelOkay
	case (overall >= 3.6 && overall <= 4.2) || (hallucinationRate > 5 && hallucinationRate <= 15) || (opposition >= 76 && opposition <= 90):
		return LabelGood
	case overall > 4.2 && hallucinationRate < 5 && opposition > 90:
		return LabelExcellent
	default:
		return LabelOkay
	}
}

func clamp(v float64) float64 {
	return math.Max(1.0, math.Min(5.0, v))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
