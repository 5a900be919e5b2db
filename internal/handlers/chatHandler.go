package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/akolanti/vellum/internal/adapter"
	"github.com/akolanti/vellum/internal/adapter/utils"
	"github.com/akolanti/vellum/internal/api"
	"github.com/akolanti/vellum/internal/config"
	"github.com/akolanti/vellum/internal/domain/errs"
)

// ChatHandler godoc
// @Summary      Run one chat turn
// @Description  Retrieves context for the message, generates an answer with the selected (or active) model and stores the turn.
// @Tags         Messaging
// @Accept       json
// @Produce      json
// @Param        request  body      api.ChatRequest    true  "Message with optional model id, session id and context window"
// @Success      200      {object}  api.ChatResponse   "Answer, citations and session history"
// @Failure      400      {object}  api.ErrorResponse  "Missing message or invalid body"
// @Failure      404      {object}  api.ErrorResponse  "Unknown model id"
// @Router       /api/v1/chat [post]
func ChatHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	h := instance()
	trace := traceOf(r.Context())

	var req api.ChatRequest
	if err := decodeAndValidate(r, &req, false); err != nil {
		logRH.Warn("Bad chat request", "traceId", trace, "error", err)
		WriteErrorResponse(w, http.StatusBadRequest, trace, err.Error())
		return
	}

	result, err := h.Rag.HandleTurn(r.Context(), adapter.ToTurnRequest(req))
	switch {
	case errors.Is(err, errs.ErrConfigNotFound):
		WriteErrorResponse(w, http.StatusNotFound, trace, err.Error())
		return
	case err != nil:
		logRH.Error("Chat turn failed", "traceId", trace, "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, trace, "chat failed")
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToChatResponse(result, h.CitationMaxChars))
}

// HistoryListHandler godoc
// @Summary      List recent conversations
// @Tags         History
// @Produce      json
// @Param        limit  query     int  false  "Maximum conversations (default 10)"
// @Success      200    {array}   api.ConversationSummaryResponse
// @Failure      400    {object}  api.ErrorResponse  "limit is not a number"
// @Router       /api/v1/history [get]
func HistoryListHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	trace := traceOf(r.Context())
	limit := config.RecentConversationLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			WriteErrorResponse(w, http.StatusBadRequest, trace, "limit must be a number")
			return
		}
		limit = n
	}

	summaries, err := instance().Conversations.ListRecent(r.Context(), "", limit)
	if err != nil {
		logRH.Error("Listing conversations failed", "traceId", trace, "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, trace, "history unavailable")
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToSummaries(summaries))
}

// HistorySessionHandler godoc
// @Summary      Messages of one conversation
// @Tags         History
// @Produce      json
// @Param        session_id  path      string  true  "Session id"
// @Success      200         {array}   api.MessageResponse  "Empty for unknown sessions"
// @Router       /api/v1/history/{session_id} [get]
func HistorySessionHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	h := instance()
	trace := traceOf(r.Context())
	sessionId := utils.GetChiURLParam(r, "session_id")

	messages, err := h.Conversations.GetMessages(r.Context(), sessionId)
	if err != nil {
		logRH.Error("Loading conversation failed", "traceId", trace, "sessionId", sessionId, "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, trace, "history unavailable")
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToMessages(messages, h.CitationMaxChars))
}
