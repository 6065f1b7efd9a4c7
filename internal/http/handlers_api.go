package http

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"fintrack/internal/core"
)

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	period := core.ParsePeriod(r.URL.Query().Get("period"))
	ov, err := s.ledger.Overview(r.Context(), period)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toOverviewResponse(ov))
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	t, err := s.ledger.Get(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toTransactionResponse(t))
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	payload, err := decodePayload(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	t, err := payload.toTransaction()
	if err != nil {
		respondError(w, r, err)
		return
	}
	created, err := s.ledger.Create(r.Context(), t)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, toTransactionResponse(created))
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	payload, err := decodePayload(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	t, err := payload.toTransaction()
	if err != nil {
		respondError(w, r, err)
		return
	}
	updated, err := s.ledger.Replace(r.Context(), id, t)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toTransactionResponse(updated))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	if err := s.ledger.Delete(r.Context(), id); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, messageResponse{Message: "Transaction deleted"})
}

// parseID extracts the {id} route parameter. A non-numeric identifier can
// never match a stored transaction, so it is reported as not found.
func parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		respondJSON(w, http.StatusNotFound, errorResponse{Error: "transaction not found"})
		return 0, false
	}
	return id, true
}
