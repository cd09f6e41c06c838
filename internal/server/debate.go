package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/counterpointai/counterpoint/internal/debate"
	"github.com/counterpointai/counterpoint/internal/evaluation"
	"github.com/counterpointai/counterpoint/internal/store"
)

// DebateHandler maps the debate and evaluation operations onto HTTP.
// Validation happens here, before any session state is touched.
type DebateHandler struct {
	Engine  *debate.Engine
	Eval    *evaluation.Service
	Gateway *debate.Gateway
}

func (h *DebateHandler) Register(g *echo.Group) {
	g.POST("/debate/start", h.start)
	g.POST("/debate/respond", h.respond)
	g.GET("/debate/sessions/:id", h.getSession)
	g.GET("/debate/subtopics", h.subtopics)
	g.POST("/evaluate", h.evaluate)
}

func (h *DebateHandler) start(c echo.Context) error {
	var req StartDebateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	req.Topic = strings.TrimSpace(req.Topic)
	req.Stance = strings.TrimSpace(req.Stance)
	if req.Topic == "" || req.Stance == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "topic and stance are required")
	}

	sess, res, err := h.Engine.Start(c.Request().Context(), req.Topic, req.Stance)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, turnResponse(sess.ID, res))
}

func (h *DebateHandler) respond(c echo.Context) error {
	var req DebateRespondRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.SessionID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "session_id is required")
	}

	res, err := h.Engine.Respond(c.Request().Context(), req.SessionID, req.UserMessage)
	if errors.Is(err, store.ErrSessionNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "session not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, turnResponse(req.SessionID, res))
}

func (h *DebateHandler) getSession(c echo.Context) error {
	sess, err := h.Engine.Get(c.Request().Context(), c.Param("id"))
	if errors.Is(err, store.ErrSessionNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "session not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, sess)
}

func (h *DebateHandler) subtopics(c echo.Context) error {
	topic := strings.TrimSpace(c.QueryParam("topic"))
	if topic == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "topic is required")
	}
	subtopics := h.Gateway.Subtopics(c.Request().Context(), topic)
	if subtopics == nil {
		subtopics = []string{}
	}
	return c.JSON(http.StatusOK, SubtopicsResponse{Topic: topic, Subtopics: subtopics})
}

func (h *DebateHandler) evaluate(c echo.Context) error {
	var req EvaluationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.SessionID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "session_id is required")
	}

	score, err := h.Eval.Evaluate(c.Request().Context(), req.SessionID)
	if errors.Is(err, store.ErrSessionNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "session not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, score)
}

func turnResponse(sessionID string, res *debate.TurnResult) DebateTurnResponse {
	return DebateTurnResponse{
		SessionID:            sessionID,
		AIMessage:            res.Reply,
		Citations:            res.Citations,
		HallucinationFlags:   res.HallucinationFlags,
		OppositionConsistent: res.OppositionConsistent,
	}
}
