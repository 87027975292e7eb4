// Package view coordinates the employee directory, the two transaction feeds
// and the approval overlay behind a single transaction list.
package view

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/singleflight"

	"txview/internal/approval"
	"txview/internal/core"
	"txview/internal/feeds"
	"txview/internal/fetch"
	"txview/internal/log"
)

// Snapshot is a consistent read of everything the list renders.
type Snapshot struct {
	Mode         Mode               `json:"mode"`
	EmployeeID   string             `json:"employeeId,omitempty"`
	Transactions []core.Transaction `json:"transactions"`
	ShowViewMore bool               `json:"showViewMore"`
	Loading      bool               `json:"loading"`
}

// Coordinator switches between the paginated feed and the employee feed.
//
// Transitions invalidate the losing feed before the winning feed is fetched.
// The overlay is only ever seeded under mu, from the feed that matches the
// state at that moment: a filtered transition that completes after a newer
// transition started leaves the overlay alone, and pages are added to it
// whenever All is showing, whichever call fetched them.
type Coordinator struct {
	directory  *feeds.EmployeeDirectory
	paginated  *feeds.PaginatedFeed
	byEmployee *feeds.EmployeeFeed
	overlay    *approval.Overlay
	logger     *log.Logger
	starting   singleflight.Group

	mu               sync.Mutex
	state            ViewState
	gen              uint64
	employeesLoading bool
}

// Deps groups the components a Coordinator drives.
type Deps struct {
	Directory  *feeds.EmployeeDirectory
	Paginated  *feeds.PaginatedFeed
	ByEmployee *feeds.EmployeeFeed
	Overlay    *approval.Overlay
}

func New(deps Deps, logger *log.Logger) *Coordinator {
	return &Coordinator{
		directory:  deps.Directory,
		paginated:  deps.Paginated,
		byEmployee: deps.ByEmployee,
		overlay:    deps.Overlay,
		logger:     log.OrDefault(logger, log.ComponentView),
		state:      All{},
	}
}

// NewSession wires a coordinator whose components share one request cache.
// Each component gets its own client, and therefore its own loading flag.
func NewSession(transport fetch.Transport, cache *fetch.Cache, logger *log.Logger) *Coordinator {
	client := func() *fetch.Client { return fetch.NewClient(transport, cache, logger) }
	return New(Deps{
		Directory:  feeds.NewEmployeeDirectory(client(), logger),
		Paginated:  feeds.NewPaginatedFeed(client(), logger),
		ByEmployee: feeds.NewEmployeeFeed(client(), logger),
		Overlay:    approval.NewOverlay(client(), logger),
	}, logger)
}

// State returns the current view state.
func (c *Coordinator) State() ViewState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Start enters All once, if the directory was never loaded and is not loading.
// Concurrent callers share a single load, which does not stop when the
// caller that started it goes away.
func (c *Coordinator) Start(ctx context.Context) error {
	_, err, _ := c.starting.Do("start", func() (any, error) {
		if c.directory.Data() != nil || c.directory.Loading() {
			return nil, nil
		}
		return nil, c.LoadAll(context.WithoutCancel(ctx))
	})
	return err
}

// SelectEmployee filters by employeeID, or shows every transaction when
// employeeID is core.EmptyEmployeeID.
func (c *Coordinator) SelectEmployee(ctx context.Context, employeeID string) error {
	if employeeID == core.EmptyEmployeeID {
		return c.LoadAll(ctx)
	}

	gen := c.transition(FilteredByEmployee{EmployeeID: employeeID})
	c.paginated.InvalidateData()

	c.logger.InfoContext(ctx, "Filtering by employee",
		log.FieldOperation, log.OpSelect, log.FieldEmployeeID, employeeID)

	err := c.byEmployee.FetchByID(ctx, employeeID)
	if errors.Is(err, feeds.ErrSuperseded) {
		return nil
	}
	if err != nil {
		return err
	}
	c.mu.Lock()
	if c.gen == gen {
		c.overlay.Reset(c.byEmployee.Data())
	}
	c.mu.Unlock()
	return nil
}

// LoadAll shows the paginated feed: the employee feed is invalidated, then
// the directory and the first page are fetched in that order. Re-entering
// All while pages are already loaded keeps them, along with the approvals
// recorded on them.
func (c *Coordinator) LoadAll(ctx context.Context) error {
	c.transition(All{})
	c.byEmployee.InvalidateData()

	c.logger.InfoContext(ctx, "Showing all transactions", log.FieldOperation, log.OpSelect)

	c.setEmployeesLoading(true)
	_, err := c.directory.FetchAll(ctx)
	c.setEmployeesLoading(false)
	if err != nil {
		return err
	}

	if c.paginated.Data() == nil {
		err := c.paginated.FetchAll(ctx)
		// The call that owns the in-flight page seeds the overlay when it lands.
		if errors.Is(err, feeds.ErrSuperseded) || errors.Is(err, feeds.ErrFetchInFlight) {
			return nil
		}
		if err != nil {
			return err
		}
	}
	c.seedPages()
	return nil
}

// LoadMore appends the next page. It is a no-op outside All, after the last
// page, or while a page is already loading.
func (c *Coordinator) LoadMore(ctx context.Context) error {
	if _, all := c.State().(All); !all || c.paginated.NextPage() == nil || c.paginated.Loading() {
		return nil
	}

	err := c.paginated.FetchAll(ctx)
	if errors.Is(err, feeds.ErrSuperseded) || errors.Is(err, feeds.ErrFetchInFlight) {
		return nil
	}
	if err != nil {
		return err
	}
	c.seedPages()
	c.logger.DebugContext(ctx, "Loaded more transactions",
		log.FieldOperation, log.OpLoadMore, log.FieldCount, len(c.pageData()))
	return nil
}

// SetApproval toggles the approval of a visible transaction.
func (c *Coordinator) SetApproval(ctx context.Context, transactionID string, value bool) error {
	return c.overlay.SetApproval(ctx, transactionID, value)
}

// Transactions returns the visible list with approval overrides applied, or
// nil while the active feed holds no data.
func (c *Coordinator) Transactions() []core.Transaction {
	return c.transactions(c.State())
}

// ShowViewMore reports whether the "View More" control should be offered.
func (c *Coordinator) ShowViewMore() bool {
	state := c.State()
	return c.showViewMore(state, c.transactions(state))
}

// Snapshot returns the visible list and its controls from a single state read.
func (c *Coordinator) Snapshot() Snapshot {
	state := c.State()
	txs := c.transactions(state)
	snap := Snapshot{
		Mode:         state.Mode(),
		Transactions: txs,
		ShowViewMore: c.showViewMore(state, txs),
		Loading:      c.Loading(),
	}
	if f, ok := state.(FilteredByEmployee); ok {
		snap.EmployeeID = f.EmployeeID
	}
	return snap
}

// FilterOptions lists the employee filter entries: "All Employees" first,
// then every employee. Empty while the directory is not loaded.
func (c *Coordinator) FilterOptions() []Option {
	employees := c.directory.Data()
	if employees == nil {
		return []Option{}
	}
	out := make([]Option, 0, len(employees)+1)
	out = append(out, Option{Value: core.EmptyEmployeeID, Label: AllEmployeesLabel})
	for _, e := range employees {
		out = append(out, Option{Value: e.ID, Label: e.FullName()})
	}
	return out
}

// EmployeesLoading reports whether the filter is waiting for the directory.
func (c *Coordinator) EmployeesLoading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.employeesLoading
}

// Loading reports whether any feed or the overlay has a request in flight.
func (c *Coordinator) Loading() bool {
	return c.directory.Loading() || c.paginated.Loading() || c.byEmployee.Loading() || c.overlay.Loading()
}

func (c *Coordinator) transactions(state ViewState) []core.Transaction {
	switch s := state.(type) {
	case FilteredByEmployee:
		if c.byEmployee.EmployeeID() != s.EmployeeID {
			return nil
		}
		return c.overlay.Apply(c.byEmployee.Data())
	default:
		return c.overlay.Apply(c.pageData())
	}
}

func (c *Coordinator) showViewMore(state ViewState, txs []core.Transaction) bool {
	_, all := state.(All)
	return txs != nil && all && c.paginated.NextPage() != nil
}

func (c *Coordinator) pageData() []core.Transaction {
	if p := c.paginated.Data(); p != nil {
		return p.Data
	}
	return nil
}

// transition switches the state. Leaving All, or filtering anew, empties the
// overlay; staying in All keeps it.
func (c *Coordinator) transition(to ViewState) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, wasAll := c.state.(All)
	if _, toAll := to.(All); !toAll || !wasAll {
		c.overlay.Reset(nil)
	}
	c.state = to
	c.gen++
	return c.gen
}

// seedPages adds the loaded pages to the overlay if All is still showing.
// Rows already in the overlay keep their approval state.
func (c *Coordinator) seedPages() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, all := c.state.(All); !all {
		return
	}
	data := c.pageData()
	if data == nil {
		c.overlay.Reset(nil)
		return
	}
	c.overlay.Extend(data)
}

func (c *Coordinator) setEmployeesLoading(v bool) {
	c.mu.Lock()
	c.employeesLoading = v
	c.mu.Unlock()
}
