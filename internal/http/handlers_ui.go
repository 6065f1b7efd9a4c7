package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/ledger"
	"fintrack/internal/storage"
)

type transactionView struct {
	ID       int64
	Type     string
	IsIncome bool
	Amount   string
	Category string
	Note     string
	Date     string
}

type indexView struct {
	BaseURL      string
	Period       string
	Periods      []string
	TotalIncome  string
	TotalExpense string
	Balance      string
	Transactions []transactionView
}

type formView struct {
	BaseURL string
	Title   string
	Action  string
	Tx      transactionView
	Error   string
}

var periodChoices = []string{
	string(core.PeriodAll),
	string(core.PeriodDaily),
	string(core.PeriodWeekly),
	string(core.PeriodMonthly),
	string(core.PeriodYearly),
}

func toTransactionView(t core.Transaction) transactionView {
	return transactionView{
		ID:       t.ID,
		Type:     string(t.Kind),
		IsIncome: t.Kind == core.Income,
		Amount:   t.Amount.String(),
		Category: t.Category,
		Note:     t.Note,
		Date:     t.Date.String(),
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if s.templates == nil {
		slog.ErrorContext(r.Context(), "Templates not loaded", "url", r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	period := core.ParsePeriod(r.URL.Query().Get("period"))
	ov, err := s.ledger.Overview(r.Context(), period)
	if err != nil {
		slog.ErrorContext(r.Context(), "Overview error", "error", err, "period", string(period))
		http.Error(w, "failed to load transactions", http.StatusInternalServerError)
		return
	}

	data := indexView{
		BaseURL:      s.baseURL,
		Period:       string(period),
		Periods:      periodChoices,
		TotalIncome:  ov.Summary.TotalIncome.String(),
		TotalExpense: ov.Summary.TotalExpense.String(),
		Balance:      ov.Summary.Balance().String(),
	}
	for _, t := range ov.Transactions {
		data.Transactions = append(data.Transactions, toTransactionView(t))
	}

	if err := s.templates.ExecuteTemplate(w, "index.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Index template execution failed", "error", err, "template", "index.html")
		http.Error(w, "template error", http.StatusInternalServerError)
	}
}

func (s *Server) handleNewTransactionForm(w http.ResponseWriter, r *http.Request) {
	data := formView{
		BaseURL: s.baseURL,
		Title:   "New transaction",
		Action:  "/transactions",
		Tx: transactionView{
			Type: string(core.Expense),
			Date: core.DateOf(time.Now()).String(),
		},
	}
	s.renderForm(w, r, data)
}

func (s *Server) handleEditTransactionForm(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	t, err := s.ledger.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		slog.ErrorContext(r.Context(), "Load transaction error", "error", err, "transaction_id", id)
		http.Error(w, "failed to load transaction", http.StatusInternalServerError)
		return
	}
	data := formView{
		BaseURL: s.baseURL,
		Title:   "Edit transaction",
		Action:  "/transactions/" + formatID(t.ID),
		Tx:      toTransactionView(t),
	}
	s.renderForm(w, r, data)
}

func (s *Server) handleFormCreate(w http.ResponseWriter, r *http.Request) {
	t, err := parseTransactionForm(r)
	if err == nil {
		_, err = s.ledger.Create(r.Context(), t)
	}
	if err != nil {
		s.renderFormError(w, r, formView{
			BaseURL: s.baseURL,
			Title:   "New transaction",
			Action:  "/transactions",
			Tx:      toTransactionView(t),
		}, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleFormUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	t, err := parseTransactionForm(r)
	if err == nil {
		_, err = s.ledger.Replace(r.Context(), id, t)
	}
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		t.ID = id
		s.renderFormError(w, r, formView{
			BaseURL: s.baseURL,
			Title:   "Edit transaction",
			Action:  "/transactions/" + formatID(id),
			Tx:      toTransactionView(t),
		}, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleFormDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	if err := s.ledger.Delete(r.Context(), id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		slog.ErrorContext(r.Context(), "Delete transaction error", "error", err, "transaction_id", id)
		http.Error(w, "failed to delete transaction", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) renderForm(w http.ResponseWriter, r *http.Request, data formView) {
	if s.templates == nil {
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}
	if err := s.templates.ExecuteTemplate(w, "transaction_form.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Form template execution failed", "error", err, "template", "transaction_form.html")
		http.Error(w, "template error", http.StatusInternalServerError)
	}
}

// renderFormError re-renders the form with the submitted values and a
// message. Validation problems come back as 422, anything else as 500.
func (s *Server) renderFormError(w http.ResponseWriter, r *http.Request, data formView, err error) {
	if errors.Is(err, ledger.ErrValidation) {
		data.Error = strings.TrimPrefix(err.Error(), ledger.ErrValidation.Error()+": ")
		w.WriteHeader(http.StatusUnprocessableEntity)
	} else {
		slog.ErrorContext(r.Context(), "Save transaction error", "error", err)
		data.Error = "something went wrong, please try again"
		w.WriteHeader(http.StatusInternalServerError)
	}
	s.renderForm(w, r, data)
}

// parseTransactionForm builds a transaction from form values. Parse
// failures on amount and date surface as validation errors so the form
// can show them inline.
func parseTransactionForm(r *http.Request) (core.Transaction, error) {
	if err := r.ParseForm(); err != nil {
		return core.Transaction{}, errMalformedBody
	}

	t := core.Transaction{
		Kind:     core.Kind(strings.TrimSpace(r.Form.Get("type"))),
		Category: sanitizeInput(r.Form.Get("category")),
		Note:     sanitizeInput(r.Form.Get("note")),
	}

	amount, err := core.ParseAmount(strings.TrimSpace(r.Form.Get("amount")))
	if err != nil {
		return t, wrapValidation(err)
	}
	t.Amount = amount

	date, err := core.ParseDate(strings.TrimSpace(r.Form.Get("date")))
	if err != nil {
		return t, wrapValidation(err)
	}
	t.Date = date

	return t, nil
}

func wrapValidation(err error) error {
	return fmt.Errorf("%w: %w", ledger.ErrValidation, err)
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
