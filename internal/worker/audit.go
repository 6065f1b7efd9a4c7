// Package worker consumes transaction events and keeps an audit trail of
// ledger mutations.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"fintrack/internal/core"
	"fintrack/internal/events"
	"fintrack/internal/storage"
)

// AuditWorker records every mutation event with the current state of the
// affected transaction and periodically cross-checks the stored totals.
type AuditWorker struct {
	store *storage.SQLiteRepository
}

func NewAuditWorker(store *storage.SQLiteRepository) *AuditWorker {
	return &AuditWorker{store: store}
}

// HandleEvent processes a single transaction event.
func (w *AuditWorker) HandleEvent(ctx context.Context, event *events.TransactionEvent) error {
	if event.Event == events.TransactionDeleted {
		slog.InfoContext(ctx, "Transaction deleted",
			"transaction_id", event.ID,
			"occurred_at", event.OccurredAt)
		return nil
	}

	t, err := w.store.Get(ctx, event.ID)
	if err != nil {
		// The transaction may already be gone by the time the event is
		// consumed. That is not a processing failure.
		if errors.Is(err, storage.ErrNotFound) {
			slog.WarnContext(ctx, "Transaction no longer exists",
				"event", event.Event,
				"transaction_id", event.ID)
			return nil
		}
		return fmt.Errorf("load transaction %d: %w", event.ID, err)
	}

	slog.InfoContext(ctx, "Transaction mutated",
		"event", event.Event,
		"transaction_id", t.ID,
		"kind", string(t.Kind),
		"amount_cents", t.Amount.Cents,
		"category", t.Category,
		"date", t.Date.String(),
		"occurred_at", event.OccurredAt)

	return nil
}

// VerifyTotals recomputes income and expense sums from the full
// transaction list and compares them against the aggregate queries. A
// mismatch indicates storage corruption and is logged loudly.
func (w *AuditWorker) VerifyTotals(ctx context.Context) error {
	all, err := w.store.List(ctx, nil)
	if err != nil {
		return fmt.Errorf("list transactions: %w", err)
	}

	var income, expense core.Money
	for _, t := range all {
		switch t.Kind {
		case core.Income:
			income = income.Add(t.Amount)
		case core.Expense:
			expense = expense.Add(t.Amount)
		}
	}

	sumIncome, err := w.store.SumByKind(ctx, core.Income, nil)
	if err != nil {
		return fmt.Errorf("sum income: %w", err)
	}
	sumExpense, err := w.store.SumByKind(ctx, core.Expense, nil)
	if err != nil {
		return fmt.Errorf("sum expense: %w", err)
	}

	if income != sumIncome || expense != sumExpense {
		slog.ErrorContext(ctx, "Total mismatch between list and aggregates",
			"listed_income_cents", income.Cents,
			"aggregate_income_cents", sumIncome.Cents,
			"listed_expense_cents", expense.Cents,
			"aggregate_expense_cents", sumExpense.Cents)
		return fmt.Errorf("aggregate totals diverge from listed transactions")
	}

	slog.DebugContext(ctx, "Totals verified",
		"transactions", len(all),
		"income_cents", income.Cents,
		"expense_cents", expense.Cents)

	return nil
}
