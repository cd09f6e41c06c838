package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/counterpointai/counterpoint/internal/corpus"
	"github.com/counterpointai/counterpoint/internal/debate"
	"github.com/counterpointai/counterpoint/internal/evaluation"
	"github.com/counterpointai/counterpoint/internal/store"
	"github.com/counterpointai/counterpoint/provider"
)

type fixedProvider struct {
	reply string
}

func (f *fixedProvider) Complete(context.Context, string, []provider.Message, float64) (string, error) {
	return f.reply, nil
}

func newTestHandler(t *testing.T, p provider.Provider) *DebateHandler {
	t.Helper()
	idx, err := corpus.NewIndex(t.TempDir(), 400, 40)
	if err != nil {
		t.Fatalf("NewIndex: %v", err)
	}
	st := store.NewMemoryStore()
	gw := debate.NewGateway(p, t.TempDir(), 0.2, nil, nil)
	return &DebateHandler{
		Engine:  debate.NewEngine(st, idx, gw, nil, nil),
		Eval:    evaluation.NewService(st),
		Gateway: gw,
	}
}

func doJSON(t *testing.T, e *echo.Echo, method, path, body string) (*httptest.ResponseRecorder, echo.Context) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return rec, e.NewContext(req, rec)
}

func TestStartHandler(t *testing.T) {
	e := echo.New()
	h := newTestHandler(t, &fixedProvider{reply: "An opening counter-argument."})

	rec, ctx := doJSON(t, e, http.MethodPost, "/api/debate/start", `{"topic":"Nuclear Energy","stance":"Nuclear power should be banned"}`)
	if err := h.start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp DebateTurnResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.SessionID == "" || resp.AIMessage != "An opening counter-argument." {
		t.Fatalf("unexpected response: %+v", resp)
	}
	// Empty corpus: the opening turn is flagged as ungrounded.
	if len(resp.HallucinationFlags) != 1 {
		t.Fatalf("expected hallucination flag, got %v", resp.HallucinationFlags)
	}
}

func TestStartHandlerValidatesInput(t *testing.T) {
	e := echo.New()
	h := newTestHandler(t, &fixedProvider{reply: "x"})

	_, ctx := doJSON(t, e, http.MethodPost, "/api/debate/start", `{"topic":" ","stance":""}`)
	err := h.start(ctx)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestRespondHandlerRoundTrip(t *testing.T) {
	e := echo.New()
	h := newTestHandler(t, &fixedProvider{reply: "Therefore your point fails."})

	rec, ctx := doJSON(t, e, http.MethodPost, "/api/debate/start", `{"topic":"Taxes","stance":"Lower taxes"}`)
	if err := h.start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	var started DebateTurnResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &started)

	rec, ctx = doJSON(t, e, http.MethodPost, "/api/debate/respond",
		`{"session_id":"`+started.SessionID+`","user_message":"Taxes fund services."}`)
	if err := h.respond(ctx); err != nil {
		t.Fatalf("respond: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp DebateTurnResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.AIMessage != "Therefore your point fails." {
		t.Fatalf("unexpected reply: %q", resp.AIMessage)
	}
}

func TestRespondHandlerUnknownSession(t *testing.T) {
	e := echo.New()
	h := newTestHandler(t, &fixedProvider{reply: "x"})

	_, ctx := doJSON(t, e, http.MethodPost, "/api/debate/respond", `{"session_id":"missing","user_message":"hi"}`)
	err := h.respond(ctx)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %v", err)
	}
}

func TestEvaluateHandler(t *testing.T) {
	e := echo.New()
	h := newTestHandler(t, &fixedProvider{reply: "Therefore the stance is weak for many structural reasons."})

	rec, ctx := doJSON(t, e, http.MethodPost, "/api/debate/start", `{"topic":"Taxes","stance":"Lower taxes"}`)
	if err := h.start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	var started DebateTurnResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &started)

	rec, ctx = doJSON(t, e, http.MethodPost, "/api/evaluate", `{"session_id":"`+started.SessionID+`"}`)
	if err := h.evaluate(ctx); err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	var score map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &score); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if score["label"] == "" {
		t.Fatalf("expected a rubric label, got %v", score)
	}
	// One assistant turn against an empty corpus: rate is 100%.
	if score["hallucination_rate"].(float64) != 100.0 {
		t.Fatalf("expected hallucination_rate 100, got %v", score["hallucination_rate"])
	}
}

func TestEvaluateHandlerNotFound(t *testing.T) {
	e := echo.New()
	h := newTestHandler(t, &fixedProvider{reply: "x"})

	_, ctx := doJSON(t, e, http.MethodPost, "/api/evaluate", `{"session_id":"missing"}`)
	err := h.evaluate(ctx)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %v", err)
	}
}

func TestGetSessionHandler(t *testing.T) {
	e := echo.New()
	h := newTestHandler(t, &fixedProvider{reply: "Opening."})

	rec, ctx := doJSON(t, e, http.MethodPost, "/api/debate/start", `{"topic":"Taxes","stance":"Lower taxes"}`)
	if err := h.start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	var started DebateTurnResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &started)

	req := httptest.NewRequest(http.MethodGet, "/api/debate/sessions/"+started.SessionID, nil)
	rec = httptest.NewRecorder()
	getCtx := e.NewContext(req, rec)
	getCtx.SetParamNames("id")
	getCtx.SetParamValues(started.SessionID)
	if err := h.getSession(getCtx); err != nil {
		t.Fatalf("getSession: %v", err)
	}
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"topic":"Taxes"`) {
		t.Fatalf("unexpected session payload: %s", rec.Body.String())
	}
}

func TestSubtopicsHandlerBestEffort(t *testing.T) {
	e := echo.New()
	h := newTestHandler(t, nil) // no capability configured

	req := httptest.NewRequest(http.MethodGet, "/api/debate/subtopics?topic=Taxes", nil)
	rec := httptest.NewRecorder()
	if err := h.subtopics(e.NewContext(req, rec)); err != nil {
		t.Fatalf("subtopics: %v", err)
	}
	var resp SubtopicsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Topic != "Taxes" || resp.Subtopics == nil || len(resp.Subtopics) != 0 {
		t.Fatalf("expected empty subtopic list, got %+v", resp)
	}
}
