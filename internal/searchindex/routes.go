package searchindex

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"

	"github.com/purposenavigator/self-analyzation/internal/conversation"
)

// RegisterRoutes mounts the search index API routes.
func RegisterRoutes(r chi.Router, ix *Index, store conversation.Store, logger *log.Logger) {
	if logger == nil {
		logger = log.Default()
	}
	r.Get("/api/conversations/{id}/related", handleRelated(ix, store, logger))
	r.Get("/api/users/{id}/search", handleSearch(ix, logger))
}

func handleRelated(ix *Index, store conversation.Store, logger *log.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conv, err := store.FindByID(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			if errors.Is(err, conversation.ErrNotFound) {
				writeJSONError(w, http.StatusNotFound, err.Error())
				return
			}
			logger.Error("request failed", "err", err)
			writeJSONError(w, http.StatusInternalServerError, "internal server error")
			return
		}

		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		related, err := ix.Related(r.Context(), conv, limit)
		if err != nil {
			logger.Error("related lookup failed", "err", err)
			writeJSONError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		if related == nil {
			related = []RelatedConversation{}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(related)
	}
}

func handleSearch(ix *Index, logger *log.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query().Get("q")
		if query == "" {
			writeJSONError(w, http.StatusBadRequest, "q is required")
			return
		}

		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		results, err := ix.Search(r.Context(), chi.URLParam(r, "id"), query, limit)
		if err != nil {
			logger.Error("search failed", "err", err)
			writeJSONError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		if results == nil {
			results = []RelatedConversation{}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(results)
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse{Error: msg})
}
