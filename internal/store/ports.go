package store

import (
	"context"
	"errors"
	"time"

	"txview/internal/core"
)

// ErrTransactionNotFound is returned when a mutation targets an unknown transaction.
var ErrTransactionNotFound = errors.New("transaction not found")

// Ports for the data behind the transport.
type (
	EmployeeLister interface {
		ListEmployees(ctx context.Context) ([]core.Employee, error)
	}

	TransactionReader interface {
		// TransactionPage returns up to limit transactions starting at offset,
		// in feed order, plus the total number of transactions.
		TransactionPage(ctx context.Context, offset, limit int) (txs []core.Transaction, total int, err error)

		// TransactionsByEmployee returns every transaction of one employee in feed order.
		TransactionsByEmployee(ctx context.Context, employeeID string) ([]core.Transaction, error)
	}

	ApprovalWriter interface {
		SetApproval(ctx context.Context, transactionID string, approved bool) error
	}

	// ApprovalEventRecorder keeps the audit trail written by the approval worker.
	ApprovalEventRecorder interface {
		RecordApprovalEvent(ctx context.Context, transactionID string, approved bool, at time.Time) error
	}

	// Store is everything the API needs from a backend.
	Store interface {
		EmployeeLister
		TransactionReader
		ApprovalWriter
	}
)
