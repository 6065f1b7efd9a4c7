package ledger

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
	"fintrack/internal/events"
	"fintrack/internal/storage"
)

// fakeStore is an in-memory Store that mirrors the repository's ordering
// and range semantics, with per-method error injection.
type fakeStore struct {
	nextID  int64
	items   map[int64]core.Transaction
	listErr error
	sumErr  error

	// captured range arguments, in call order
	seenRanges []*core.Range
}

func newFakeStore() *fakeStore {
	return &fakeStore{nextID: 1, items: make(map[int64]core.Transaction)}
}

func (f *fakeStore) Insert(_ context.Context, t core.Transaction) (core.Transaction, error) {
	t.ID = f.nextID
	f.nextID++
	now := time.Now().UTC()
	t.CreatedAt, t.UpdatedAt = now, now
	f.items[t.ID] = t
	return t, nil
}

func (f *fakeStore) Get(_ context.Context, id int64) (core.Transaction, error) {
	t, ok := f.items[id]
	if !ok {
		return core.Transaction{}, storage.ErrNotFound
	}
	return t, nil
}

func (f *fakeStore) Update(_ context.Context, t core.Transaction) (core.Transaction, error) {
	old, ok := f.items[t.ID]
	if !ok {
		return core.Transaction{}, storage.ErrNotFound
	}
	t.CreatedAt = old.CreatedAt
	t.UpdatedAt = time.Now().UTC()
	f.items[t.ID] = t
	return t, nil
}

func (f *fakeStore) Delete(_ context.Context, id int64) error {
	if _, ok := f.items[id]; !ok {
		return storage.ErrNotFound
	}
	delete(f.items, id)
	return nil
}

func (f *fakeStore) List(_ context.Context, rng *core.Range) ([]core.Transaction, error) {
	f.seenRanges = append(f.seenRanges, rng)
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []core.Transaction
	for _, t := range f.items {
		if rng == nil || rng.Contains(t.Date) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date.Time) {
			return out[i].Date.After(out[j].Date.Time)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (f *fakeStore) SumByKind(_ context.Context, kind core.Kind, rng *core.Range) (core.Money, error) {
	f.seenRanges = append(f.seenRanges, rng)
	if f.sumErr != nil {
		return core.Money{}, f.sumErr
	}
	var cents int64
	for _, t := range f.items {
		if t.Kind == kind && (rng == nil || rng.Contains(t.Date)) {
			cents += t.Amount.Cents
		}
	}
	return core.Money{Cents: cents}, nil
}

type fakePublisher struct {
	published []*events.TransactionEvent
	err       error
}

func (f *fakePublisher) Publish(_ context.Context, e *events.TransactionEvent) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, e)
	return nil
}

func newTestService(store *fakeStore, pub Publisher, now time.Time) *Service {
	s := NewService(store, pub, time.Minute)
	s.nowFn = func() time.Time { return now }
	return s
}

func seed(t *testing.T, store *fakeStore, kind core.Kind, cents int64, date core.Date) core.Transaction {
	t.Helper()
	created, err := store.Insert(context.Background(), core.Transaction{
		Kind:     kind,
		Amount:   core.Money{Cents: cents},
		Category: "General",
		Date:     date,
	})
	require.NoError(t, err)
	return created
}

func TestOverviewDailyScenario(t *testing.T) {
	now := time.Date(2025, 9, 15, 12, 0, 0, 0, time.UTC)
	today := core.DateOf(now)

	store := newFakeStore()
	income := seed(t, store, core.Income, 100000, today)
	expense := seed(t, store, core.Expense, 40000, today)
	seed(t, store, core.Expense, 999, core.NewDate(2025, 9, 1)) // outside daily range

	svc := newTestService(store, nil, now)
	ov, err := svc.Overview(context.Background(), core.PeriodDaily)
	require.NoError(t, err)

	assert.Equal(t, "1000.00", ov.Summary.TotalIncome.String())
	assert.Equal(t, "400.00", ov.Summary.TotalExpense.String())
	assert.Equal(t, "600.00", ov.Summary.Balance().String())

	// Both today's transactions listed; equal dates order by id descending,
	// so the later insert (the expense) comes first.
	require.Len(t, ov.Transactions, 2)
	assert.Equal(t, expense.ID, ov.Transactions[0].ID)
	assert.Equal(t, income.ID, ov.Transactions[1].ID)
}

func TestOverviewSharesOneResolvedRange(t *testing.T) {
	now := time.Date(2025, 9, 15, 12, 0, 0, 0, time.UTC)
	store := newFakeStore()
	seed(t, store, core.Income, 100, core.DateOf(now))

	svc := newTestService(store, nil, now)
	_, err := svc.Overview(context.Background(), core.PeriodMonthly)
	require.NoError(t, err)

	// One list read plus two sum reads, all with the identical range.
	require.Len(t, store.seenRanges, 3)
	want := core.ResolveRange(core.PeriodMonthly, now)
	for _, got := range store.seenRanges {
		require.NotNil(t, got)
		assert.Equal(t, *want, *got)
	}
}

func TestOverviewBalanceInvariantAcrossSelectors(t *testing.T) {
	now := time.Date(2025, 9, 15, 12, 0, 0, 0, time.UTC)
	store := newFakeStore()
	seed(t, store, core.Income, 123456, core.DateOf(now))
	seed(t, store, core.Expense, 654321, core.NewDate(2025, 9, 14))
	seed(t, store, core.Income, 1, core.NewDate(2025, 1, 1))
	seed(t, store, core.Expense, 99, core.NewDate(2024, 12, 31))

	svc := newTestService(store, nil, now)
	selectors := []core.Period{core.PeriodDaily, core.PeriodWeekly, core.PeriodMonthly, core.PeriodYearly, core.PeriodAll}
	for _, p := range selectors {
		ov, err := svc.Overview(context.Background(), p)
		require.NoError(t, err, "period %s", p)

		assert.Equal(t, ov.Summary.TotalIncome.Cents-ov.Summary.TotalExpense.Cents,
			ov.Summary.Balance().Cents, "period %s", p)

		// Aggregates cover exactly the listed population
		var income, expense int64
		for _, tr := range ov.Transactions {
			if tr.Kind == core.Income {
				income += tr.Amount.Cents
			} else {
				expense += tr.Amount.Cents
			}
		}
		assert.Equal(t, income, ov.Summary.TotalIncome.Cents, "period %s", p)
		assert.Equal(t, expense, ov.Summary.TotalExpense.Cents, "period %s", p)

		// Every listed date falls in the resolved range
		if rng := core.ResolveRange(p, now); rng != nil {
			for _, tr := range ov.Transactions {
				assert.True(t, rng.Contains(tr.Date), "period %s date %s", p, tr.Date)
			}
		}
	}
}

func TestOverviewUnknownSelectorIsUnfiltered(t *testing.T) {
	now := time.Date(2025, 9, 15, 12, 0, 0, 0, time.UTC)
	store := newFakeStore()
	seed(t, store, core.Income, 100, core.NewDate(2020, 1, 1))
	seed(t, store, core.Expense, 200, core.DateOf(now))

	svc := newTestService(store, nil, now)
	ov, err := svc.Overview(context.Background(), core.ParsePeriod("fortnightly"))
	require.NoError(t, err)
	assert.Len(t, ov.Transactions, 2)
	assert.Nil(t, store.seenRanges[0])
}

func TestOverviewStorageFailureAbortsWhole(t *testing.T) {
	now := time.Now()
	store := newFakeStore()
	seed(t, store, core.Income, 100, core.DateOf(now))
	store.sumErr = errors.New("disk exploded")

	svc := newTestService(store, nil, now)
	_, err := svc.Overview(context.Background(), core.PeriodAll)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk exploded")
}

func TestCreateValidationFailurePersistsNothing(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, nil, time.Now())

	_, err := svc.Create(context.Background(), core.Transaction{
		Kind:     core.Expense,
		Amount:   core.Money{Cents: -500}, // amount=-5
		Category: "Food",
		Date:     core.NewDate(2025, 9, 15),
	})
	require.ErrorIs(t, err, ErrValidation)
	require.ErrorIs(t, err, core.ErrNegativeAmount)
	assert.Empty(t, store.items)
}

func TestCreatePublishesEventAndInvalidatesCache(t *testing.T) {
	now := time.Date(2025, 9, 15, 12, 0, 0, 0, time.UTC)
	store := newFakeStore()
	pub := &fakePublisher{}
	svc := newTestService(store, pub, now)

	// Prime the cache
	ov, err := svc.Overview(context.Background(), core.PeriodAll)
	require.NoError(t, err)
	assert.Empty(t, ov.Transactions)

	created, err := svc.Create(context.Background(), core.Transaction{
		Kind:     core.Income,
		Amount:   core.Money{Cents: 100000},
		Category: "Salary",
		Date:     core.DateOf(now),
	})
	require.NoError(t, err)
	require.Len(t, pub.published, 1)
	assert.Equal(t, events.TransactionCreated, pub.published[0].Event)
	assert.Equal(t, created.ID, pub.published[0].ID)

	// The cached empty overview must not be served after the mutation
	ov, err = svc.Overview(context.Background(), core.PeriodAll)
	require.NoError(t, err)
	assert.Len(t, ov.Transactions, 1)
}

func TestPublishFailureDoesNotFailMutation(t *testing.T) {
	store := newFakeStore()
	pub := &fakePublisher{err: errors.New("broker down")}
	svc := newTestService(store, pub, time.Now())

	_, err := svc.Create(context.Background(), core.Transaction{
		Kind:     core.Expense,
		Amount:   core.Money{Cents: 100},
		Category: "Food",
		Date:     core.NewDate(2025, 9, 15),
	})
	require.NoError(t, err)
	assert.Len(t, store.items, 1)
}

func TestReplaceNotFound(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, nil, time.Now())

	_, err := svc.Replace(context.Background(), 999, core.Transaction{
		Kind:     core.Income,
		Amount:   core.Money{Cents: 100},
		Category: "Misc",
		Date:     core.NewDate(2025, 9, 15),
	})
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestDeleteNotFound(t *testing.T) {
	store := newFakeStore()
	pub := &fakePublisher{}
	svc := newTestService(store, pub, time.Now())

	err := svc.Delete(context.Background(), 999)
	require.ErrorIs(t, err, storage.ErrNotFound)
	assert.Empty(t, pub.published)
}

func TestGetPassesThroughNotFound(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, nil, time.Now())
	_, err := svc.Get(context.Background(), 7)
	require.ErrorIs(t, err, storage.ErrNotFound)
}
