package server

import (
	"log"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/counterpointai/counterpoint/internal/corpus"
)

// CorpusHandler exposes corpus management: upload, refresh, clear.
type CorpusHandler struct {
	Index  *corpus.Index
	Logger *log.Logger
}

func (h *CorpusHandler) Register(g *echo.Group) {
	g.POST("/documents", h.addDocument)
	g.POST("/refresh", h.refresh)
	g.DELETE("", h.clear)
}

func (h *CorpusHandler) addDocument(c echo.Context) error {
	var req AddDocumentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if strings.TrimSpace(req.Text) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "text is required")
	}
	name, err := h.Index.AddDocument(req.Text)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	h.Logger.Printf("added corpus document %s (%d chunks indexed)", name, h.Index.Size())
	return c.JSON(http.StatusCreated, map[string]string{"filename": name})
}

func (h *CorpusHandler) refresh(c echo.Context) error {
	if err := h.Index.Load(); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]int{"chunks": h.Index.Size()})
}

func (h *CorpusHandler) clear(c echo.Context) error {
	h.Index.Clear()
	h.Logger.Printf("corpus cleared")
	return c.NoContent(http.StatusNoContent)
}
