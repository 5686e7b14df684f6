package analysis

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"

	"github.com/purposenavigator/self-analyzation/internal/conversation"
)

// RegisterRoutes mounts the analysis API routes. Paths are registered in
// full so they share the /api/conversations/{id} subtree with the
// conversation routes.
func RegisterRoutes(r chi.Router, svc *Service) {
	r.Get("/api/conversations/{id}/analyze", handleAnalyzeStream(svc))
	r.Get("/api/conversations/{id}/analysis", handleGetAnalysis(svc))
	r.Post("/api/conversations/{id}/keywords", handleRefreshKeywords(svc))
	r.Get("/api/users/{id}/values", handleUserValues(svc))
}

func handleAnalyzeStream(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		msgs, err := svc.AnalyzeStream(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, svc.logger, err)
			return
		}
		if msgs == nil {
			msgs = []conversation.Message{}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(msgs)
	}
}

func handleGetAnalysis(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec, err := svc.GetOrCompute(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, svc.logger, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(rec)
	}
}

func handleRefreshKeywords(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		keywords, err := svc.RefreshKeywords(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, svc.logger, err)
			return
		}
		if keywords == nil {
			keywords = []string{}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string][]string{"keywords": keywords})
	}
}

func handleUserValues(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		profile, err := svc.UserProfile(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, svc.logger, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(profile)
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeError reports a handler failure. Not-found carries its message to the
// caller; internal causes are logged and replaced with a generic body.
func writeError(w http.ResponseWriter, logger *log.Logger, err error) {
	status := http.StatusInternalServerError
	msg := err.Error()
	if errors.Is(err, conversation.ErrNotFound) {
		status = http.StatusNotFound
	} else {
		logger.Error("request failed", "err", err)
		msg = "internal server error"
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse{Error: msg})
}
