package feeds

import (
	"context"
	"sync"

	"txview/internal/core"
	"txview/internal/fetch"
	"txview/internal/log"
)

// EmployeeDirectory fetches the employee list once per session.
type EmployeeDirectory struct {
	client *fetch.Client
	logger *log.Logger

	mu   sync.Mutex
	data []core.Employee
}

func NewEmployeeDirectory(client *fetch.Client, logger *log.Logger) *EmployeeDirectory {
	return &EmployeeDirectory{
		client: client,
		logger: log.OrDefault(logger, log.ComponentFeed).With("feed", "employees"),
	}
}

// FetchAll loads the directory. Repeat calls are served from the request cache.
func (d *EmployeeDirectory) FetchAll(ctx context.Context) ([]core.Employee, error) {
	resp, err := fetch.FetchWithCache[[]core.Employee](ctx, d.client, core.EndpointEmployees, struct{}{})
	if err != nil {
		return nil, err
	}

	employees := []core.Employee{}
	if resp != nil {
		employees = append(employees, (*resp)...)
	}

	d.mu.Lock()
	d.data = employees
	d.mu.Unlock()

	d.logger.DebugContext(ctx, "Employees loaded", log.FieldCount, len(employees))
	return append([]core.Employee{}, employees...), nil
}

// Data returns the loaded employees, or nil if the directory was never loaded.
// A loaded but empty directory returns an empty, non-nil slice.
func (d *EmployeeDirectory) Data() []core.Employee {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.data == nil {
		return nil
	}
	return append([]core.Employee{}, d.data...)
}

func (d *EmployeeDirectory) Loading() bool {
	return d.client.Loading()
}

// Reset forgets the directory and its cache entry so the next FetchAll hits the transport.
func (d *EmployeeDirectory) Reset() {
	d.mu.Lock()
	d.data = nil
	d.mu.Unlock()
	d.client.Cache().InvalidateEndpoint(core.EndpointEmployees)
}
