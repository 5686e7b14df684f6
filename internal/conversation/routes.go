package conversation

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"

	"github.com/purposenavigator/self-analyzation/internal/catalog"
)

// RegisterRoutes mounts the conversation API routes.
func RegisterRoutes(r chi.Router, engine *Engine, cat *catalog.Catalog) {
	r.Route("/api/conversations", func(r chi.Router) {
		r.Post("/turn", handleTurn(engine))
		r.Get("/{id}", handleGetConversation(engine))
		r.Get("/{id}/title", handleGetTitle(engine))
		r.HandleFunc("/ws", handleWS(engine))
	})
	r.Get("/api/topics", handleListTopics(cat))
}

func handleTurn(engine *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req TurnRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.UserID == "" {
			writeJSONError(w, http.StatusBadRequest, "user_id is required")
			return
		}
		if req.Topic == "" {
			writeJSONError(w, http.StatusBadRequest, "topic is required")
			return
		}
		if req.Prompt == "" {
			writeJSONError(w, http.StatusBadRequest, "prompt is required")
			return
		}

		result, err := engine.Turn(r.Context(), req, nil)
		if err != nil {
			writeError(w, engine.logger, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(result)
	}
}

func handleGetConversation(engine *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		conv, err := engine.store.FindByID(r.Context(), id)
		if err != nil {
			writeError(w, engine.logger, err)
			return
		}
		// A conversation belongs to its user; a mismatched owner is
		// indistinguishable from a missing conversation.
		if userID := r.URL.Query().Get("user_id"); userID != "" && conv.UserID != userID {
			writeError(w, engine.logger, ErrNotFound)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(conv)
	}
}

func handleGetTitle(engine *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		conv, err := engine.store.FindByID(r.Context(), id)
		if err != nil {
			writeError(w, engine.logger, err)
			return
		}

		title, err := engine.Title(r.Context(), conv)
		if err != nil {
			writeError(w, engine.logger, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"conversation_id": conv.ID, "title": title})
	}
}

func handleListTopics(cat *catalog.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(cat.Topics())
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

// errorStatus maps domain errors onto HTTP statuses.
func errorStatus(err error) int {
	var invalidTopic *catalog.InvalidTopicError
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrVersionConflict):
		return http.StatusConflict
	case errors.As(err, &invalidTopic):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// writeError reports a handler failure. Domain errors carry their message to
// the caller; internal causes are logged and replaced with a generic body.
func writeError(w http.ResponseWriter, logger *log.Logger, err error) {
	status := errorStatus(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		logger.Error("request failed", "err", err)
		msg = "internal server error"
	}
	writeJSONError(w, status, msg)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse{Error: msg})
}
