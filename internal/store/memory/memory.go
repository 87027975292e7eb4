package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"txview/internal/core"
	"txview/internal/store"
)

// Store keeps employees and transactions in memory, in insertion order.
type Store struct {
	mu        sync.Mutex
	employees []core.Employee
	txs       []core.Transaction
	index     map[string]int
	events    []ApprovalEvent
}

// ApprovalEvent is one entry of the in-memory audit trail.
type ApprovalEvent struct {
	TransactionID string
	Approved      bool
	At            time.Time
}

func New(employees []core.Employee, txs []core.Transaction) *Store {
	s := &Store{
		employees: dedupeEmployees(employees),
		index:     make(map[string]int, len(txs)),
	}
	for _, t := range txs {
		if _, ok := s.index[t.ID]; ok || t.ID == "" {
			continue
		}
		s.index[t.ID] = len(s.txs)
		s.txs = append(s.txs, t)
	}
	return s
}

// NewFromFiles loads employees.json and transactions.json from base and
// falls back to the built-in fixture for whichever file is missing.
func NewFromFiles(base string) (*Store, error) {
	employees, err := readJSON[[]core.Employee](filepath.Join(base, "employees.json"))
	if err != nil {
		return nil, err
	}
	txs, err := readJSON[[]core.Transaction](filepath.Join(base, "transactions.json"))
	if err != nil {
		return nil, err
	}
	if employees == nil {
		employees = FixtureEmployees()
	}
	if txs == nil {
		txs = FixtureTransactions()
	}
	return New(employees, txs), nil
}

// ListEmployees implements store.EmployeeLister
func (s *Store) ListEmployees(_ context.Context) ([]core.Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Employee{}, s.employees...), nil
}

// TransactionPage implements store.TransactionReader
func (s *Store) TransactionPage(_ context.Context, offset, limit int) ([]core.Transaction, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := len(s.txs)
	if offset < 0 || limit <= 0 || offset >= total {
		return []core.Transaction{}, total, nil
	}
	end := min(offset+limit, total)
	return append([]core.Transaction{}, s.txs[offset:end]...), total, nil
}

// TransactionsByEmployee implements store.TransactionReader
func (s *Store) TransactionsByEmployee(_ context.Context, employeeID string) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []core.Transaction{}
	for _, t := range s.txs {
		if t.Employee.ID == employeeID {
			out = append(out, t)
		}
	}
	return out, nil
}

// SetApproval implements store.ApprovalWriter
func (s *Store) SetApproval(_ context.Context, transactionID string, approved bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[transactionID]
	if !ok {
		return fmt.Errorf("%w: %s", store.ErrTransactionNotFound, transactionID)
	}
	s.txs[i].Approved = approved
	return nil
}

// RecordApprovalEvent implements store.ApprovalEventRecorder
func (s *Store) RecordApprovalEvent(_ context.Context, transactionID string, approved bool, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ApprovalEvent{TransactionID: transactionID, Approved: approved, At: at})
	return nil
}

// ApprovalEvents returns the recorded audit trail.
func (s *Store) ApprovalEvents() []ApprovalEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ApprovalEvent{}, s.events...)
}

// Snapshot returns every employee and transaction, used to seed other backends.
func (s *Store) Snapshot() ([]core.Employee, []core.Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Employee{}, s.employees...), append([]core.Transaction{}, s.txs...)
}

func readJSON[T any](path string) (T, error) {
	var out T
	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return out, nil
	}
	if err != nil {
		return out, fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return out, fmt.Errorf("parse %s: %w", path, err)
	}
	return out, nil
}

func dedupeEmployees(in []core.Employee) []core.Employee {
	seen := map[string]struct{}{}
	out := make([]core.Employee, 0, len(in))
	for _, e := range in {
		if e.ID == "" {
			continue
		}
		if _, ok := seen[e.ID]; ok {
			continue
		}
		seen[e.ID] = struct{}{}
		out = append(out, e)
	}
	return out
}
