// Package sqlite is the persistent backend of the mock API.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"txview/internal/core"
	"txview/internal/log"
	"txview/internal/store"
)

type Store struct {
	db     *sql.DB
	logger *log.Logger
}

// Open creates the database directory if needed, opens dbPath and migrates it.
func Open(dbPath string, logger *log.Logger) (*Store, error) {
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

	return &Store{db: db, logger: log.OrDefault(logger, log.ComponentStorage)}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Empty reports whether no transactions have been stored yet.
func (s *Store) Empty(ctx context.Context) (bool, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions`).Scan(&n); err != nil {
		return false, fmt.Errorf("count transactions: %w", err)
	}
	return n == 0, nil
}

// Seed inserts employees and transactions, keeping their order. Rows whose id
// already exists are left untouched.
func (s *Store) Seed(ctx context.Context, employees []core.Employee, txs []core.Transaction) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed: %w", err)
	}
	defer tx.Rollback()

	for i, e := range employees {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO employees (id, first_name, last_name, position) VALUES (?, ?, ?, ?)`,
			e.ID, e.FirstName, e.LastName, i); err != nil {
			return fmt.Errorf("insert employee %s: %w", e.ID, err)
		}
	}

	var next int
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(position) + 1, 0) FROM transactions`).Scan(&next); err != nil {
		return fmt.Errorf("read next position: %w", err)
	}
	inserted := 0
	for _, t := range txs {
		res, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO transactions (id, position, amount, employee_id, merchant, date, approved)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			t.ID, next, t.Amount.StringFixed(2), t.Employee.ID, t.Merchant, t.Date.String(), t.Approved)
		if err != nil {
			return fmt.Errorf("insert transaction %s: %w", t.ID, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			next++
			inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seed: %w", err)
	}

	s.logger.InfoContext(ctx, "Database seeded",
		"employees", len(employees), log.FieldCount, inserted)
	return nil
}

// ListEmployees implements store.EmployeeLister
func (s *Store) ListEmployees(ctx context.Context) ([]core.Employee, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, first_name, last_name FROM employees ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	defer rows.Close()

	out := []core.Employee{}
	for rows.Next() {
		var e core.Employee
		if err := rows.Scan(&e.ID, &e.FirstName, &e.LastName); err != nil {
			return nil, fmt.Errorf("scan employee: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

const transactionColumns = `t.id, t.amount, t.merchant, t.date, t.approved, e.id, e.first_name, e.last_name
	FROM transactions t JOIN employees e ON e.id = t.employee_id`

// TransactionPage implements store.TransactionReader
func (s *Store) TransactionPage(ctx context.Context, offset, limit int) ([]core.Transaction, int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count transactions: %w", err)
	}
	if offset < 0 || limit <= 0 || offset >= total {
		return []core.Transaction{}, total, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+transactionColumns+` ORDER BY t.position LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("query transaction page: %w", err)
	}
	txs, err := scanTransactions(rows)
	if err != nil {
		return nil, 0, err
	}
	return txs, total, nil
}

// TransactionsByEmployee implements store.TransactionReader
func (s *Store) TransactionsByEmployee(ctx context.Context, employeeID string) ([]core.Transaction, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+transactionColumns+` WHERE t.employee_id = ? ORDER BY t.position`, employeeID)
	if err != nil {
		return nil, fmt.Errorf("query transactions of employee %s: %w", employeeID, err)
	}
	return scanTransactions(rows)
}

// SetApproval implements store.ApprovalWriter
func (s *Store) SetApproval(ctx context.Context, transactionID string, approved bool) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE transactions SET approved = ? WHERE id = ?`, approved, transactionID)
	if err != nil {
		return fmt.Errorf("update approval of %s: %w", transactionID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update approval of %s: %w", transactionID, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", store.ErrTransactionNotFound, transactionID)
	}

	s.logger.DebugContext(ctx, "Approval stored",
		log.FieldTransactionID, transactionID, log.FieldApproved, approved)
	return nil
}

// RecordApprovalEvent implements store.ApprovalEventRecorder
func (s *Store) RecordApprovalEvent(ctx context.Context, transactionID string, approved bool, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO approval_events (transaction_id, approved, recorded_at) VALUES (?, ?, ?)`,
		transactionID, approved, at.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("record approval event for %s: %w", transactionID, err)
	}
	return nil
}

// ApprovalEventCount returns how many audit entries exist for transactionID.
func (s *Store) ApprovalEventCount(ctx context.Context, transactionID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM approval_events WHERE transaction_id = ?`, transactionID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count approval events: %w", err)
	}
	return n, nil
}

func scanTransactions(rows *sql.Rows) ([]core.Transaction, error) {
	defer rows.Close()

	out := []core.Transaction{}
	for rows.Next() {
		var (
			t      core.Transaction
			amount string
			date   string
		)
		if err := rows.Scan(&t.ID, &amount, &t.Merchant, &date, &t.Approved,
			&t.Employee.ID, &t.Employee.FirstName, &t.Employee.LastName); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}

		var err error
		if t.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("transaction %s amount %q: %w", t.ID, amount, err)
		}
		if t.Date, err = core.ParseDate(date); err != nil {
			return nil, fmt.Errorf("transaction %s date %q: %w", t.ID, date, err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
