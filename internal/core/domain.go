package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Income  Kind = "income"
	Expense Kind = "expense"
)

const (
	// MaxCategoryLen bounds the category label.
	MaxCategoryLen = 255
	// MaxNoteLen bounds the free-text note.
	MaxNoteLen = 500

	// DateLayout is the wire and storage format for calendar dates.
	DateLayout = "2006-01-02"
)

type (
	// Kind discriminates income from expense. The set is closed: there is
	// no third state.
	Kind string

	// Date is a calendar date with no time-of-day component. The zero
	// value is invalid.
	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Transaction is a single recorded income or expense event.
	Transaction struct {
		ID        int64
		Kind      Kind
		Amount    Money
		Category  string
		Note      string
		Date      Date
		CreatedAt time.Time
		UpdatedAt time.Time
	}
)

var (
	ErrInvalidKind     = errors.New("kind must be income or expense")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrNegativeAmount  = errors.New("amount cannot be negative")
	ErrInvalidDate     = errors.New("invalid date")
	ErrEmptyCategory   = errors.New("empty category")
	ErrCategoryTooLong = errors.New("category too long (max 255 characters)")
	ErrNoteTooLong     = errors.New("note too long (max 500 characters)")
)

func (k Kind) Validate() error {
	switch k {
	case Income, Expense:
		return nil
	}
	return ErrInvalidKind
}

// NewDate creates a Date from year, month, day. The time-of-day is pinned
// to midnight UTC so two Dates for the same calendar day compare equal.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// String returns the YYYY-MM-DD representation.
func (d Date) String() string {
	return d.Format(DateLayout)
}

// MarshalJSON encodes the date as a quoted YYYY-MM-DD string.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format(DateLayout) + `"`), nil
}

// UnmarshalJSON decodes a quoted YYYY-MM-DD string.
func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		return ErrInvalidDate
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (m Money) Validate() error {
	if m.Cents < 0 {
		return ErrNegativeAmount
	}
	return nil
}

func (t Transaction) Validate() error {
	if err := t.Kind.Validate(); err != nil {
		return err
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if err := t.Date.Validate(); err != nil {
		return err
	}
	cat := strings.TrimSpace(t.Category)
	if cat == "" {
		return ErrEmptyCategory
	}
	if len(cat) > MaxCategoryLen {
		return ErrCategoryTooLong
	}
	if len(t.Note) > MaxNoteLen {
		return ErrNoteTooLong
	}
	return nil
}
