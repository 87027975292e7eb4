package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// EmptyEmployeeID is the identifier of the "All Employees" filter entry.
const EmptyEmployeeID = ""

type (
	Date struct {
		time.Time
	}

	Employee struct {
		ID        string `json:"id"`
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
	}

	Transaction struct {
		ID       string          `json:"id"`
		Amount   decimal.Decimal `json:"amount"`
		Employee Employee        `json:"employee"`
		Merchant string          `json:"merchant"`
		Date     Date            `json:"date"`
		Approved bool            `json:"approved"`
	}

	// PaginatedResult is one page (or the accumulation of several pages) of a
	// cursor-based listing. A nil NextPage means no more pages exist.
	PaginatedResult[T any] struct {
		Data     []T  `json:"data"`
		NextPage *int `json:"nextPage"`
	}
)

var (
	ErrEmptyID       = errors.New("empty id")
	ErrEmptyName     = errors.New("empty employee name")
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidDate   = errors.New("invalid date")
)

const dateLayout = "2006-01-02"

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a date string in YYYY-MM-DD format.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// FullName is the label shown in the employee filter.
func (e Employee) FullName() string {
	return strings.TrimSpace(e.FirstName + " " + e.LastName)
}

func (e Employee) Validate() error {
	if strings.TrimSpace(e.ID) == "" {
		return ErrEmptyID
	}
	if e.FullName() == "" {
		return ErrEmptyName
	}
	return nil
}

func (t Transaction) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return ErrEmptyID
	}
	if err := t.Employee.Validate(); err != nil {
		return err
	}
	if t.Amount.IsNegative() {
		return ErrInvalidAmount
	}
	if t.Date.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// IsTerminal reports whether this page is the last one.
func (p PaginatedResult[T]) IsTerminal() bool {
	return p.NextPage == nil
}

// PageCursor returns a cursor pointing to page n.
func PageCursor(n int) *int {
	return &n
}
