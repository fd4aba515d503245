package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/HendryAvila/relnotes/internal/aisearch"
)

type handlers struct {
	deps Deps
}

type errorResponse struct {
	Error string `json:"error"`
}

// SearchRequest is the body of POST /api/ai-search. Seq is an optional
// client token echoed back so the client can drop superseded responses.
type SearchRequest struct {
	Query string `json:"query"`
	Seq   uint64 `json:"seq,omitempty"`
}

// SearchResponse is the success body of POST /api/ai-search.
type SearchResponse struct {
	Answer   string `json:"answer"`
	HTML     string `json:"html"`
	Fallback bool   `json:"fallback"`
	Seq      uint64 `json:"seq,omitempty"`
}

const (
	msgQueryRequired = "Query is required"
	msgBadBody       = "Request body must be JSON with a query field"
	msgSearchFailed  = "Failed to get AI-assisted answer"
)

func (h *handlers) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *handlers) listProducts(c *gin.Context) {
	c.JSON(http.StatusOK, h.deps.Catalog.Products())
}

func (h *handlers) aiSearch(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, int64(h.deps.MaxQueryBytes))

	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: msgBadBody})
		return
	}

	ctx := c.Request.Context()
	if h.deps.AITimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.deps.AITimeout)
		defer cancel()
	}

	answer, err := h.deps.AI.Ask(ctx, req.Query, h.deps.Catalog.Products())
	switch {
	case errors.Is(err, aisearch.ErrEmptyQuery):
		c.JSON(http.StatusBadRequest, errorResponse{Error: msgQueryRequired})
		return
	case err != nil:
		h.deps.Log.Error("ai search failed",
			zap.String("request_id", c.GetString(ctxRequestID)), zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse{Error: msgSearchFailed})
		return
	}

	html, err := answer.HTML()
	if err != nil {
		h.deps.Log.Warn("rendering answer failed", zap.Error(err))
	}
	c.JSON(http.StatusOK, SearchResponse{
		Answer:   answer.Text,
		HTML:     html,
		Fallback: answer.Fallback,
		Seq:      req.Seq,
	})
}
