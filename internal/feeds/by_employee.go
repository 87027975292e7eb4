package feeds

import (
	"context"
	"sync"

	"txview/internal/core"
	"txview/internal/fetch"
	"txview/internal/log"
)

// EmployeeFeed holds every transaction of the selected employee.
// Each FetchByID replaces the previous result wholesale; when requests
// overlap only the most recent one is applied.
type EmployeeFeed struct {
	client *fetch.Client
	logger *log.Logger

	mu         sync.Mutex
	employeeID string
	data       []core.Transaction
	seq        uint64
}

func NewEmployeeFeed(client *fetch.Client, logger *log.Logger) *EmployeeFeed {
	return &EmployeeFeed{
		client: client,
		logger: log.OrDefault(logger, log.ComponentFeed).With("feed", "by_employee"),
	}
}

// FetchByID loads the transactions of employeeID.
func (f *EmployeeFeed) FetchByID(ctx context.Context, employeeID string) error {
	f.mu.Lock()
	f.seq++
	seq := f.seq
	f.mu.Unlock()

	resp, err := fetch.FetchWithCache[[]core.Transaction](
		ctx, f.client, core.EndpointTransactionsByEmployee, core.RequestByEmployeeParams{EmployeeID: employeeID})

	f.mu.Lock()
	defer f.mu.Unlock()

	if seq != f.seq {
		f.logger.DebugContext(ctx, "Discarding superseded employee transactions", log.FieldEmployeeID, employeeID)
		return ErrSuperseded
	}
	if err != nil {
		return err
	}

	data := []core.Transaction{}
	if resp != nil {
		data = append(data, (*resp)...)
	}
	f.employeeID = employeeID
	f.data = data

	f.logger.DebugContext(ctx, "Employee transactions loaded",
		log.FieldEmployeeID, employeeID, log.FieldCount, len(data))
	return nil
}

// InvalidateData clears the local result and every cached employee result.
func (f *EmployeeFeed) InvalidateData() {
	f.mu.Lock()
	f.employeeID = ""
	f.data = nil
	f.seq++
	f.mu.Unlock()
	f.client.Cache().InvalidateEndpoint(core.EndpointTransactionsByEmployee)
}

// Data returns a copy of the current result, or nil when the feed is inactive.
func (f *EmployeeFeed) Data() []core.Transaction {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.data == nil {
		return nil
	}
	return append([]core.Transaction{}, f.data...)
}

// EmployeeID returns the employee whose transactions are loaded.
func (f *EmployeeFeed) EmployeeID() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.employeeID
}

func (f *EmployeeFeed) Loading() bool {
	return f.client.Loading()
}
