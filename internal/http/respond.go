package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/ledger"
	"fintrack/internal/storage"
)

// errMalformedBody marks requests whose body could not be decoded at all,
// as opposed to well-formed bodies carrying invalid field values.
var errMalformedBody = errors.New("malformed request body")

// transactionPayload is the request body for create and replace. Pointer
// fields distinguish "absent" from zero values so that required-field
// checks do not conflate a missing amount with 0.00.
type transactionPayload struct {
	Type     *string     `json:"type"`
	Amount   *core.Money `json:"amount"`
	Category *string     `json:"category"`
	Note     string      `json:"note"`
	Date     *core.Date  `json:"date"`
}

// transactionResponse mirrors the persisted shape on the wire.
type transactionResponse struct {
	ID        int64      `json:"id"`
	Type      core.Kind  `json:"type"`
	Amount    core.Money `json:"amount"`
	Category  string     `json:"category"`
	Note      string     `json:"note"`
	Date      core.Date  `json:"date"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// overviewResponse is the combined list + aggregates contract.
type overviewResponse struct {
	Data         []transactionResponse `json:"data"`
	TotalIncome  core.Money            `json:"totalIncome"`
	TotalExpense core.Money            `json:"totalExpense"`
	Balance      core.Money            `json:"balance"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func toTransactionResponse(t core.Transaction) transactionResponse {
	return transactionResponse{
		ID:        t.ID,
		Type:      t.Kind,
		Amount:    t.Amount,
		Category:  t.Category,
		Note:      t.Note,
		Date:      t.Date,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

func toOverviewResponse(ov ledger.Overview) overviewResponse {
	resp := overviewResponse{
		Data:         make([]transactionResponse, 0, len(ov.Transactions)),
		TotalIncome:  ov.Summary.TotalIncome,
		TotalExpense: ov.Summary.TotalExpense,
		Balance:      ov.Summary.Balance(),
	}
	for _, t := range ov.Transactions {
		resp.Data = append(resp.Data, toTransactionResponse(t))
	}
	return resp
}

// toTransaction checks required fields and assembles the domain value.
// Field-level validation beyond presence is left to the service.
func (p transactionPayload) toTransaction() (core.Transaction, error) {
	var missing []string
	if p.Type == nil {
		missing = append(missing, "type")
	}
	if p.Amount == nil {
		missing = append(missing, "amount")
	}
	if p.Category == nil {
		missing = append(missing, "category")
	}
	if p.Date == nil {
		missing = append(missing, "date")
	}
	if len(missing) > 0 {
		return core.Transaction{}, fmt.Errorf("%w: missing required fields: %s",
			ledger.ErrValidation, strings.Join(missing, ", "))
	}
	return core.Transaction{
		Kind:     core.Kind(*p.Type),
		Amount:   *p.Amount,
		Category: strings.TrimSpace(*p.Category),
		Note:     strings.TrimSpace(p.Note),
		Date:     *p.Date,
	}, nil
}

// decodePayload reads the JSON body. Invalid amount or date values are
// validation failures; anything else undecodable is a malformed body.
func decodePayload(r *http.Request) (transactionPayload, error) {
	var p transactionPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		if errors.Is(err, core.ErrInvalidAmount) || errors.Is(err, core.ErrInvalidDate) {
			return p, fmt.Errorf("%w: %w", ledger.ErrValidation, err)
		}
		return p, fmt.Errorf("%w: %w", errMalformedBody, err)
	}
	return p, nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// respondError maps the error taxonomy to HTTP statuses: validation 422,
// not-found 404, malformed body 400, everything else 500 with a generic
// message so storage details never leak to the client.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ledger.ErrValidation):
		respondJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
	case errors.Is(err, storage.ErrNotFound):
		respondJSON(w, http.StatusNotFound, errorResponse{Error: "transaction not found"})
	case errors.Is(err, errMalformedBody):
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed request body"})
	default:
		slog.ErrorContext(r.Context(), "Request failed", "error", err, "path", r.URL.Path)
		respondJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	}
}
