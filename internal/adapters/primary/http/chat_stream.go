package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/vetroai/vetro/internal/core/domain"
)

// chatRequest is the body of POST /api/chat
type chatRequest struct {
	Input     string `json:"input"`
	SessionID string `json:"session_id,omitempty"`
	Mode      string `json:"mode,omitempty"`
	WebMode   string `json:"web_mode,omitempty"` // "auto", "on" or "off"
}

// streamChunk is one SSE data payload
type streamChunk struct {
	Content        string `json:"content"`
	SessionID      string `json:"session_id,omitempty"`
	UsedLiveSearch bool   `json:"used_live_search,omitempty"`
	Error          string `json:"error,omitempty"`
	Done           bool   `json:"done,omitempty"`
}

// Chat handles one user turn and streams the reply as server-sent events:
// data: {"content": ...} chunks, one final chunk carrying the session ID
// and search badge, then the data: [DONE] sentinel.
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if strings.TrimSpace(req.Input) == "" {
		h.respondWithError(w, http.StatusBadRequest, "Input must not be empty")
		return
	}

	// Resolve the session before any SSE bytes go out, so a stale or
	// foreign session ID still gets a real HTTP status
	if req.SessionID != "" {
		if _, err := h.chat.GetSession(r.Context(), userID(r), req.SessionID); err != nil {
			h.respondWithError(w, http.StatusNotFound, "Session not found")
			return
		}
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		h.respondWithError(w, http.StatusInternalServerError, "Streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	writeChunk := func(chunk streamChunk) {
		payload, err := json.Marshal(chunk)
		if err != nil {
			return
		}
		fmt.Fprintf(w, "data: %s\n\n", payload)
		flusher.Flush()
	}

	result, err := h.chat.StreamReply(
		r.Context(),
		userID(r),
		req.SessionID,
		req.Input,
		req.Mode,
		parseWebMode(req.WebMode),
		func(token string) {
			writeChunk(streamChunk{Content: token})
		},
	)
	if err != nil {
		// Closing the tab or pressing stop cancels the request context;
		// that abort is user-initiated and stays silent
		if errors.Is(err, context.Canceled) {
			h.logger.Debug("Generation aborted by client")
			return
		}
		h.logger.Error("Chat turn failed", "error", err)
		writeChunk(streamChunk{
			Error: "Failed to generate a reply. Please try again.",
			Done:  true,
		})
		fmt.Fprint(w, "data: [DONE]\n\n")
		flusher.Flush()
		return
	}

	writeChunk(streamChunk{
		SessionID:      result.Session.ID,
		UsedLiveSearch: result.UsedLiveSearch,
		Done:           true,
	})
	fmt.Fprint(w, "data: [DONE]\n\n")
	flusher.Flush()
}

func parseWebMode(mode string) domain.WebMode {
	switch mode {
	case string(domain.WebModeOn):
		return domain.WebModeOn
	case string(domain.WebModeOff):
		return domain.WebModeOff
	default:
		return domain.WebModeAuto
	}
}
