// Package ledger implements the query service at the heart of the
// tracker: period-filtered transaction reads with exact aggregate totals,
// plus the four mutation operations.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/events"
)

// ErrValidation wraps domain validation failures so callers can report
// them distinctly from not-found and storage errors.
var ErrValidation = errors.New("validation failed")

// Store is the persistent record store the service reads and mutates.
// Implementations return storage.ErrNotFound for missing ids.
type Store interface {
	Insert(ctx context.Context, t core.Transaction) (core.Transaction, error)
	Get(ctx context.Context, id int64) (core.Transaction, error)
	Update(ctx context.Context, t core.Transaction) (core.Transaction, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, rng *core.Range) ([]core.Transaction, error)
	SumByKind(ctx context.Context, kind core.Kind, rng *core.Range) (core.Money, error)
}

// Publisher emits mutation events. A nil Publisher disables publishing.
type Publisher interface {
	Publish(ctx context.Context, event *events.TransactionEvent) error
}

// Overview is the combined list + aggregates response for one period.
// The aggregates are always computed over exactly the listed population.
type Overview struct {
	Transactions []core.Transaction
	Summary      core.Summary
}

// Service coordinates the store, the event publisher, and a small
// overview cache.
type Service struct {
	store     Store
	publisher Publisher
	overviews *cache.LRUCache[Overview]

	// nowFn is the clock used to resolve period ranges. Tests override it.
	nowFn func() time.Time
}

func NewService(store Store, publisher Publisher, cacheTTL time.Duration) *Service {
	return &Service{
		store:     store,
		publisher: publisher,
		overviews: cache.NewLRUCache[Overview](32, cacheTTL),
		nowFn:     time.Now,
	}
}

// Overview returns the transactions matching the period selector, newest
// first, together with total income, total expense, and balance over that
// same set.
//
// The period is resolved to a range exactly once; the list read and both
// sum reads receive the same value, so the aggregates can never drift
// from the listed population. Any storage failure aborts the whole
// operation with no partial result.
func (s *Service) Overview(ctx context.Context, period core.Period) (Overview, error) {
	rng := core.ResolveRange(period, s.nowFn())

	key := rng.Key()
	if ov, ok := s.overviews.Get(key); ok {
		slog.DebugContext(ctx, "Overview cache hit", "period", period, "range", key)
		return ov, nil
	}

	transactions, err := s.store.List(ctx, rng)
	if err != nil {
		return Overview{}, fmt.Errorf("list transactions: %w", err)
	}
	totalIncome, err := s.store.SumByKind(ctx, core.Income, rng)
	if err != nil {
		return Overview{}, fmt.Errorf("sum income: %w", err)
	}
	totalExpense, err := s.store.SumByKind(ctx, core.Expense, rng)
	if err != nil {
		return Overview{}, fmt.Errorf("sum expense: %w", err)
	}

	ov := Overview{
		Transactions: transactions,
		Summary: core.Summary{
			TotalIncome:  totalIncome,
			TotalExpense: totalExpense,
		},
	}
	s.overviews.Set(key, ov)
	return ov, nil
}

// Create validates and stores a new transaction. Nothing is persisted
// when validation fails.
func (s *Service) Create(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	t.ID = 0
	if err := t.Validate(); err != nil {
		return core.Transaction{}, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	created, err := s.store.Insert(ctx, t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}

	s.overviews.Purge()
	s.publish(ctx, events.TransactionCreated, created.ID)
	return created, nil
}

// Replace overwrites every mutable field of an existing transaction.
// There is no partial-patch; the caller supplies the full field set.
func (s *Service) Replace(ctx context.Context, id int64, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	t.ID = id
	updated, err := s.store.Update(ctx, t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("replace transaction %d: %w", id, err)
	}

	s.overviews.Purge()
	s.publish(ctx, events.TransactionUpdated, id)
	return updated, nil
}

// Delete removes a transaction permanently.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete transaction %d: %w", id, err)
	}

	s.overviews.Purge()
	s.publish(ctx, events.TransactionDeleted, id)
	return nil
}

// Get returns a single transaction by id.
func (s *Service) Get(ctx context.Context, id int64) (core.Transaction, error) {
	t, err := s.store.Get(ctx, id)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction %d: %w", id, err)
	}
	return t, nil
}

// publish emits a mutation event. Failures are logged and swallowed: the
// mutation already committed and must not be reported as failed.
func (s *Service) publish(ctx context.Context, event string, id int64) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, events.NewTransactionEvent(event, id)); err != nil {
		slog.ErrorContext(ctx, "Failed to publish transaction event",
			"event", event, "id", id, "error", err)
	}
}
