package debate

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/counterpointai/counterpoint/internal/telemetry"
	"github.com/counterpointai/counterpoint/models"
	"github.com/counterpointai/counterpoint/provider"
)

const (
	antisycophancyPromptFile = "system_antisycophancy.txt"
	guardrailsPromptFile     = "system_factuality_guardrails.txt"

	defaultOpener = "Please open the debate by presenting a counter-argument to my stance."
)

// generation result variants. The gateway converts every non-ok variant into
// an in-band diagnostic reply at its own boundary, so callers never see an
// error from GenerateReply.
type resultKind int

const (
	resultOk resultKind = iota
	resultUnconfigured
	resultFailed
)

type generationResult struct {
	kind   resultKind
	text   string
	reason string
}

// Gateway wraps the external text-generation capability. It assembles the
// instruction/context/history envelope, invokes the capability, and degrades
// unavailability or failure into diagnostic reply text.
type Gateway struct {
	provider    provider.Provider
	temperature float64
	guardrails  string
	logger      *log.Logger
	metrics     *telemetry.Metrics
}

// NewGateway loads the static guardrail prompts once from promptDir. Missing
// prompt files contribute an empty block rather than an error. A nil
// provider is valid and means every reply is the unavailability diagnostic.
func NewGateway(p provider.Provider, promptDir string, temperature float64, logger *log.Logger, metrics *telemetry.Metrics) *Gateway {
	if logger == nil {
		logger = log.New(log.Writer(), "[DEBATE] ", log.LstdFlags)
	}
	if metrics == nil {
		metrics = telemetry.NewNop()
	}
	blocks := []string{
		loadPrompt(promptDir, antisycophancyPromptFile),
		loadPrompt(promptDir, guardrailsPromptFile),
	}
	var kept []string
	for _, b := range blocks {
		if b != "" {
			kept = append(kept, b)
		}
	}
	if p == nil {
		logger.Printf("no generation capability configured; replies degrade to diagnostics")
	}
	return &Gateway{
		provider:    p,
		temperature: temperature,
		guardrails:  strings.Join(kept, "\n\n"),
		logger:      logger,
		metrics:     metrics,
	}
}

func loadPrompt(dir, name string) string {
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// GenerateReply produces the assistant counter-argument for the current
// turn. It never returns an error: an unconfigured or failing capability
// yields a diagnostic reply so the session stays consistent and inspectable.
func (g *Gateway) GenerateReply(ctx context.Context, topic, stance, userMessage string, history []models.Turn, contextBundle string) string {
	res := g.complete(ctx, topic, stance, userMessage, history, contextBundle)
	switch res.kind {
	case resultOk:
		return res.text
	case resultUnconfigured:
		return "[generation unavailable] No generation capability is configured; set an API key to receive live counter-arguments."
	default:
		g.metrics.GenerationFailures.Inc()
		g.logger.Printf("generation failed, returning diagnostic reply: %s", res.reason)
		return fmt.Sprintf("[generation failed] The capability reported: %s. Treat this turn as a placeholder and continue the debate.", res.reason)
	}
}

func (g *Gateway) complete(ctx context.Context, topic, stance, userMessage string, history []models.Turn, contextBundle string) generationResult {
	if g.provider == nil {
		return generationResult{kind: resultUnconfigured}
	}

	systemPrompt := g.buildSystemPrompt(topic, stance, contextBundle)
	messages := buildMessages(history, userMessage)

	start := time.Now()
	text, err := g.provider.Complete(ctx, systemPrompt, messages, g.temperature)
	g.metrics.GenerationLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		return generationResult{kind: resultFailed, reason: err.Error()}
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return generationResult{kind: resultFailed, reason: "empty completion content"}
	}
	return generationResult{kind: resultOk, text: text}
}

// buildSystemPrompt composes the static guardrail blocks with the dynamic
// debate instruction and the evidence bundle (or the no-evidence notice).
func (g *Gateway) buildSystemPrompt(topic, stance, contextBundle string) string {
	instructions := []string{g.guardrails}
	instructions = append(instructions, fmt.Sprintf(
		"You are participating in a structured debate. The user supports the stance '%s' on the topic '%s'. "+
			"Adopt the opposite stance and hold it for the entire session: never agree with the user's position. "+
			"Weave retrieved evidence into your argument naturally, without exposing raw source identifiers. "+
			"The full conversation so far is provided; do not repeat arguments you have already made. "+
			"Keep each reply between roughly 25 and 150 words.", stance, topic))
	if contextBundle != "" {
		instructions = append(instructions, "Retrieved evidence you can draw on:\n"+contextBundle)
	} else {
		instructions = append(instructions, "No supporting documents were retrieved. Flag uncertainty when making claims that are not grounded.")
	}
	var kept []string
	for _, block := range instructions {
		if block != "" {
			kept = append(kept, block)
		}
	}
	return strings.TrimSpace(strings.Join(kept, "\n\n"))
}

// buildMessages replays the stored history in order. When the history is
// empty or does not end with a user turn, a synthetic user message is
// appended so the capability always has a user turn to respond to.
func buildMessages(history []models.Turn, userMessage string) []provider.Message {
	messages := make([]provider.Message, 0, len(history)+1)
	for _, turn := range history {
		messages = append(messages, provider.Message{Role: string(turn.Role), Content: turn.Content})
	}
	if len(history) == 0 || history[len(history)-1].Role != models.RoleUser {
		opener := strings.TrimSpace(userMessage)
		if opener == "" {
			opener = defaultOpener
		}
		messages = append(messages, provider.Message{Role: "user", Content: opener})
	}
	return messages
}

// Subtopics asks the capability for five debate subtopics as a numbered
// list. It is best-effort: any failure, including no capability at all,
// returns nil.
func (g *Gateway) Subtopics(ctx context.Context, topic string) []string {
	if g.provider == nil {
		return nil
	}
	prompt := fmt.Sprintf(
		"List five debatable subtopics for the topic '%s'. Respond with a numbered list, one subtopic per line, and nothing else.", topic)
	text, err := g.provider.Complete(ctx, "", []provider.Message{{Role: "user", Content: prompt}}, g.temperature)
	if err != nil {
		g.logger.Printf("subtopic suggestion failed: %v", err)
		return nil
	}
	return parseNumberedList(text)
}

// parseNumberedList strips leading "N." / "N)" numbering from each
// non-empty line.
func parseNumberedList(text string) []string {
	var items []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if i := strings.IndexAny(line, ".)"); i > 0 {
			if _, err := fmt.Sscanf(line[:i], "%d", new(int)); err == nil {
				line = strings.TrimSpace(line[i+1:])
			}
		}
		if line != "" {
			items = append(items, line)
		}
	}
	return items
}
