package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"fintrack/internal/core"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when an operation addresses a transaction id
// that does not exist. Callers distinguish it from other storage failures.
var ErrNotFound = errors.New("transaction not found")

const transactionColumns = "id, kind, amount_cents, category, note, date, created_at, updated_at"

// SQLiteRepository persists transactions in a local SQLite database.
// Single-record create/update/delete are atomic by virtue of SQLite; the
// service layer never needs multi-record transactions.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Insert stores a new transaction and returns it with the assigned id and
// store-side timestamps populated.
func (r *SQLiteRepository) Insert(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (kind, amount_cents, category, note, date, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		string(t.Kind), t.Amount.Cents, t.Category, t.Note, t.Date.String(), now, now)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return core.Transaction{}, fmt.Errorf("last insert id: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved",
		"id", id,
		"kind", t.Kind,
		"amount_cents", t.Amount.Cents,
		"date", t.Date.String())

	return r.Get(ctx, id)
}

// Get returns the transaction with the given id, or ErrNotFound.
func (r *SQLiteRepository) Get(ctx context.Context, id int64) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, id)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return t, nil
}

// Update overwrites all mutable fields of an existing transaction. There
// are no partial-patch semantics. Returns ErrNotFound if the id does not
// exist.
func (r *SQLiteRepository) Update(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := r.db.ExecContext(ctx,
		`UPDATE transactions
		 SET kind = ?, amount_cents = ?, category = ?, note = ?, date = ?, updated_at = ?
		 WHERE id = ?`,
		string(t.Kind), t.Amount.Cents, t.Category, t.Note, t.Date.String(), now, t.ID)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return core.Transaction{}, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return core.Transaction{}, ErrNotFound
	}

	slog.InfoContext(ctx, "Transaction updated", "id", t.ID)
	return r.Get(ctx, t.ID)
}

// Delete removes a transaction permanently. No tombstone is kept. Returns
// ErrNotFound if the id does not exist.
func (r *SQLiteRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	slog.InfoContext(ctx, "Transaction deleted", "id", id)
	return nil
}

// List returns transactions whose date falls within rng, or all of them
// when rng is nil. Order is date descending with id descending as the
// tie-break, so equal dates come back newest-first and the ordering is
// deterministic.
func (r *SQLiteRepository) List(ctx context.Context, rng *core.Range) ([]core.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions`
	var args []any
	if rng != nil {
		// Dates are stored as YYYY-MM-DD text, so BETWEEN compares
		// chronologically and includes both endpoints.
		query += ` WHERE date BETWEEN ? AND ?`
		args = append(args, rng.From.String(), rng.To.String())
	}
	query += ` ORDER BY date DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

// SumByKind returns the exact sum of amounts for transactions of the given
// kind within rng (or all of them when rng is nil). Amounts are summed as
// integer cents, so the total carries no floating-point error. Zero when
// nothing matches.
func (r *SQLiteRepository) SumByKind(ctx context.Context, kind core.Kind, rng *core.Range) (core.Money, error) {
	query := `SELECT COALESCE(SUM(amount_cents), 0) FROM transactions WHERE kind = ?`
	args := []any{string(kind)}
	if rng != nil {
		query += ` AND date BETWEEN ? AND ?`
		args = append(args, rng.From.String(), rng.To.String())
	}

	var cents int64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&cents); err != nil {
		return core.Money{}, fmt.Errorf("sum %s transactions: %w", kind, err)
	}
	return core.Money{Cents: cents}, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var (
		t                    core.Transaction
		kind, date           string
		createdAt, updatedAt string
	)
	err := row.Scan(&t.ID, &kind, &t.Amount.Cents, &t.Category, &t.Note, &date, &createdAt, &updatedAt)
	if err != nil {
		return core.Transaction{}, err
	}

	t.Kind = core.Kind(kind)
	if t.Date, err = core.ParseDate(date); err != nil {
		return core.Transaction{}, fmt.Errorf("parse stored date %q: %w", date, err)
	}
	if t.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return core.Transaction{}, fmt.Errorf("parse created_at %q: %w", createdAt, err)
	}
	if t.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return core.Transaction{}, fmt.Errorf("parse updated_at %q: %w", updatedAt, err)
	}
	return t, nil
}
