package view

import (
	"context"
	"errors"
	"sync"
	"testing"

	"txview/internal/api"
	"txview/internal/approval"
	"txview/internal/core"
	"txview/internal/fetch"
	"txview/internal/log"
	"txview/internal/store/memory"
)

// countingTransport wraps the mock API, counting requests per cache key and
// optionally holding requests for one endpoint until released.
type countingTransport struct {
	next fetch.Transport

	mu       sync.Mutex
	calls    map[string]int
	holdFor  string
	held     chan string
	released chan struct{}
}

func newCountingTransport(next fetch.Transport) *countingTransport {
	return &countingTransport{next: next, calls: map[string]int{}}
}

func (c *countingTransport) Request(ctx context.Context, endpoint string, params any) ([]byte, error) {
	key, _ := fetch.Key(endpoint, params)
	c.mu.Lock()
	c.calls[key]++
	hold := c.holdFor == endpoint
	released := c.released
	c.mu.Unlock()

	if hold {
		c.held <- key
		<-released
	}
	return c.next.Request(ctx, endpoint, params)
}

func (c *countingTransport) count(endpoint string, params any) int {
	key, _ := fetch.Key(endpoint, params)
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[key]
}

func (c *countingTransport) hold(endpoint string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.holdFor = endpoint
	c.held = make(chan string, 4)
	c.released = make(chan struct{})
}

func (c *countingTransport) release() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.holdFor = ""
	close(c.released)
}

func newTestSession(t *testing.T, s *memory.Store) (*Coordinator, *countingTransport) {
	t.Helper()
	tr := newCountingTransport(api.NewServer(s, nil, api.Options{PageSize: 5}, log.Discard()))
	return NewSession(tr, fetch.NewCache(0), log.Discard()), tr
}

func fixtureSession(t *testing.T) (*Coordinator, *countingTransport) {
	return newTestSession(t, memory.New(memory.FixtureEmployees(), memory.FixtureTransactions()))
}

func activeFeeds(c *Coordinator) int {
	n := 0
	if c.paginated.Data() != nil {
		n++
	}
	if c.byEmployee.Data() != nil {
		n++
	}
	return n
}

func TestStartLoadsDirectoryAndFirstPage(t *testing.T) {
	c, tr := fixtureSession(t)
	ctx := context.Background()

	if c.Transactions() != nil || len(c.FilterOptions()) != 0 {
		t.Fatalf("nothing should be visible before start")
	}
	if err := c.Start(ctx); err != nil {
		t.Fatal(err)
	}

	if _, ok := c.State().(All); !ok {
		t.Fatalf("expected All after start, got %#v", c.State())
	}
	if got := len(c.Transactions()); got != 5 {
		t.Fatalf("expected first page of 5, got %d", got)
	}
	if !c.ShowViewMore() {
		t.Fatalf("view more should be offered with pages remaining")
	}

	opts := c.FilterOptions()
	if len(opts) != 5 || opts[0].Value != core.EmptyEmployeeID || opts[0].Label != AllEmployeesLabel {
		t.Fatalf("unexpected filter options %+v", opts)
	}
	if opts[1].Label != "James Smith" || opts[1].Value != "9" {
		t.Fatalf("unexpected employee option %+v", opts[1])
	}

	// Start is a no-op once the directory is loaded.
	if err := c.Start(ctx); err != nil {
		t.Fatal(err)
	}
	if n := tr.count(core.EndpointPaginatedTransactions, core.PaginatedRequestParams{Page: 0}); n != 1 {
		t.Fatalf("second start must not refetch, got %d requests", n)
	}
}

func TestLoadMoreUntilExhausted(t *testing.T) {
	c, tr := fixtureSession(t)
	ctx := context.Background()
	if err := c.Start(ctx); err != nil {
		t.Fatal(err)
	}

	for c.ShowViewMore() {
		if err := c.LoadMore(ctx); err != nil {
			t.Fatal(err)
		}
	}
	txs := c.Transactions()
	if len(txs) != 18 {
		t.Fatalf("expected all 18 transactions, got %d", len(txs))
	}
	for i, tx := range txs {
		if want := memory.FixtureTransactions()[i].ID; tx.ID != want {
			t.Fatalf("position %d: got %s want %s", i, tx.ID, want)
		}
	}

	// Terminal: further LoadMore is a no-op.
	if err := c.LoadMore(ctx); err != nil {
		t.Fatal(err)
	}
	if n := tr.count(core.EndpointPaginatedTransactions, core.PaginatedRequestParams{Page: 4}); n != 0 {
		t.Fatalf("no request may be issued past the last page")
	}
}

func TestSelectEmployeeWhilePaginated(t *testing.T) {
	c, _ := fixtureSession(t)
	ctx := context.Background()
	if err := c.Start(ctx); err != nil {
		t.Fatal(err)
	}

	if err := c.SelectEmployee(ctx, "12"); err != nil {
		t.Fatal(err)
	}

	if c.paginated.Data() != nil {
		t.Fatalf("paginated feed must be invalidated")
	}
	state, ok := c.State().(FilteredByEmployee)
	if !ok || state.EmployeeID != "12" {
		t.Fatalf("unexpected state %#v", c.State())
	}
	txs := c.Transactions()
	if len(txs) != 4 {
		t.Fatalf("expected 4 transactions of employee 12, got %d", len(txs))
	}
	for _, tx := range txs {
		if tx.Employee.ID != "12" {
			t.Fatalf("foreign transaction %s in filtered view", tx.ID)
		}
	}
	if c.ShowViewMore() {
		t.Fatalf("view more must be hidden while filtered")
	}

	// LoadMore is invalid while filtered.
	if err := c.LoadMore(ctx); err != nil {
		t.Fatal(err)
	}
	if c.paginated.Data() != nil {
		t.Fatalf("load more must not touch the paginated feed while filtered")
	}
}

func TestReturnToAllRefetchesFirstPageOnly(t *testing.T) {
	c, tr := fixtureSession(t)
	ctx := context.Background()
	if err := c.Start(ctx); err != nil {
		t.Fatal(err)
	}
	if err := c.LoadMore(ctx); err != nil {
		t.Fatal(err)
	}
	if err := c.SelectEmployee(ctx, "12"); err != nil {
		t.Fatal(err)
	}
	if err := c.SelectEmployee(ctx, core.EmptyEmployeeID); err != nil {
		t.Fatal(err)
	}

	if n := tr.count(core.EndpointEmployees, struct{}{}); n != 1 {
		t.Fatalf("employees must come from the cache, got %d requests", n)
	}
	if n := tr.count(core.EndpointPaginatedTransactions, core.PaginatedRequestParams{Page: 0}); n != 2 {
		t.Fatalf("page 0 must be fetched fresh after invalidation, got %d requests", n)
	}
	if got := len(c.Transactions()); got != 5 {
		t.Fatalf("expected only the first page after returning to All, got %d", got)
	}
	if c.byEmployee.Data() != nil {
		t.Fatalf("employee feed must be invalidated")
	}
	if !c.ShowViewMore() {
		t.Fatalf("view more should be offered again")
	}
}

func TestAtMostOneFeedActive(t *testing.T) {
	c, _ := fixtureSession(t)
	ctx := context.Background()
	if err := c.Start(ctx); err != nil {
		t.Fatal(err)
	}

	for _, id := range []string{"9", "10", "", "12", "", "", "11", "404", ""} {
		if err := c.SelectEmployee(ctx, id); err != nil {
			t.Fatalf("select %q: %v", id, err)
		}
		if n := activeFeeds(c); n > 1 {
			t.Fatalf("after selecting %q both feeds hold data", id)
		}
		snap := c.Snapshot()
		if id == "" && snap.Mode != ModeAll {
			t.Fatalf("expected All after selecting the empty entry")
		}
		if id != "" && (snap.Mode != ModeFilteredByEmployee || snap.EmployeeID != id) {
			t.Fatalf("unexpected snapshot %+v", snap)
		}
	}
}

func TestUnknownEmployeeShowsEmptyList(t *testing.T) {
	c, _ := fixtureSession(t)
	ctx := context.Background()
	if err := c.Start(ctx); err != nil {
		t.Fatal(err)
	}
	if err := c.SelectEmployee(ctx, "404"); err != nil {
		t.Fatal(err)
	}
	txs := c.Transactions()
	if txs == nil || len(txs) != 0 {
		t.Fatalf("expected empty non-nil list, got %#v", txs)
	}
}

func TestEmptyStore(t *testing.T) {
	c, _ := newTestSession(t, memory.New(memory.FixtureEmployees(), nil))
	if err := c.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	if c.paginated.Data() != nil || c.Transactions() != nil {
		t.Fatalf("empty store must collapse the feed to nil")
	}
	if c.ShowViewMore() {
		t.Fatalf("view more requires a transaction list")
	}
}

func TestApprovalOverlayFollowsTheView(t *testing.T) {
	c, _ := fixtureSession(t)
	ctx := context.Background()
	if err := c.Start(ctx); err != nil {
		t.Fatal(err)
	}

	// tx-002 starts unapproved in the fixture.
	if err := c.SetApproval(ctx, "tx-002", true); err != nil {
		t.Fatal(err)
	}
	if !find(t, c.Transactions(), "tx-002").Approved {
		t.Fatalf("approval not shown")
	}

	// Appending a page keeps the override and seeds the new ids.
	if err := c.LoadMore(ctx); err != nil {
		t.Fatal(err)
	}
	if !find(t, c.Transactions(), "tx-002").Approved {
		t.Fatalf("override lost after appending a page")
	}
	if err := c.SetApproval(ctx, "tx-007", true); err != nil {
		t.Fatalf("approving a transaction from the appended page: %v", err)
	}

	// Switching feeds reseeds from server state, which now includes both approvals.
	if err := c.SelectEmployee(ctx, "10"); err != nil {
		t.Fatal(err)
	}
	if !find(t, c.Transactions(), "tx-002").Approved {
		t.Fatalf("server-side approval not reflected after feed switch")
	}
	if err := c.SetApproval(ctx, "tx-001", true); err == nil {
		t.Fatalf("transaction of another employee must not be approvable while filtered")
	}
}

func TestApprovalSurvivesReturnToAll(t *testing.T) {
	c, tr := fixtureSession(t)
	ctx := context.Background()
	if err := c.Start(ctx); err != nil {
		t.Fatal(err)
	}

	// tx-001 starts approved in the fixture.
	if err := c.SetApproval(ctx, "tx-001", false); err != nil {
		t.Fatal(err)
	}

	// Re-selecting All with the pages still loaded keeps the acknowledged value.
	if err := c.SelectEmployee(ctx, core.EmptyEmployeeID); err != nil {
		t.Fatal(err)
	}
	if find(t, c.Transactions(), "tx-001").Approved {
		t.Fatalf("re-selecting All showed the value from before the approval")
	}
	if n := tr.count(core.EndpointPaginatedTransactions, core.PaginatedRequestParams{Page: 0}); n != 1 {
		t.Fatalf("pages already loaded must be kept, got %d requests for page 0", n)
	}

	// Through a filter and back, the refetched pages carry the server state.
	if err := c.SelectEmployee(ctx, "9"); err != nil {
		t.Fatal(err)
	}
	if find(t, c.Transactions(), "tx-001").Approved {
		t.Fatalf("filtered view does not reflect the approval")
	}
	if err := c.SelectEmployee(ctx, core.EmptyEmployeeID); err != nil {
		t.Fatal(err)
	}
	if find(t, c.Transactions(), "tx-001").Approved {
		t.Fatalf("refetched first page does not reflect the approval")
	}
}

func TestOverlappingLoadAllSeedsOverlay(t *testing.T) {
	tests := []struct {
		name  string
		setup func(ctx context.Context, c *Coordinator) error
	}{
		{
			name:  "initial load",
			setup: func(context.Context, *Coordinator) error { return nil },
		},
		{
			name: "back from a filter",
			setup: func(ctx context.Context, c *Coordinator) error {
				if err := c.Start(ctx); err != nil {
					return err
				}
				return c.SelectEmployee(ctx, "9")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, tr := fixtureSession(t)
			ctx := context.Background()
			if err := tt.setup(ctx, c); err != nil {
				t.Fatal(err)
			}

			tr.hold(core.EndpointPaginatedTransactions)
			done := make(chan error, 2)
			go func() { done <- c.LoadAll(ctx) }()
			<-tr.held

			// The second load finds the first page in flight and returns.
			go func() { done <- c.LoadAll(ctx) }()
			if err := <-done; err != nil {
				t.Fatal(err)
			}
			tr.release()
			if err := <-done; err != nil {
				t.Fatal(err)
			}

			if got := len(c.Transactions()); got != 5 {
				t.Fatalf("expected the first page, got %d rows", got)
			}
			for _, tx := range c.Transactions() {
				if _, ok := c.overlay.Approved(tx.ID); !ok {
					t.Fatalf("visible %s missing from the overlay", tx.ID)
				}
			}
			if err := c.SetApproval(ctx, "tx-002", true); err != nil {
				t.Fatalf("approving a visible transaction: %v", err)
			}
			// tx-009 belongs to employee 9 but is not on the first page.
			if err := c.SetApproval(ctx, "tx-009", true); !errors.Is(err, approval.ErrNotInView) {
				t.Fatalf("hidden transaction: got %v, want ErrNotInView", err)
			}
		})
	}
}

func TestConcurrentStartLoadsOnce(t *testing.T) {
	c, tr := fixtureSession(t)
	ctx := context.Background()

	tr.hold(core.EndpointPaginatedTransactions)
	done := make(chan error, 2)
	go func() { done <- c.Start(ctx) }()
	<-tr.held
	go func() { done <- c.Start(ctx) }()
	tr.release()
	for i := 0; i < 2; i++ {
		if err := <-done; err != nil {
			t.Fatal(err)
		}
	}

	if n := tr.count(core.EndpointPaginatedTransactions, core.PaginatedRequestParams{Page: 0}); n != 1 {
		t.Fatalf("expected one first-page request, got %d", n)
	}
	if err := c.SetApproval(ctx, "tx-003", true); err != nil {
		t.Fatalf("approving after concurrent starts: %v", err)
	}
}

func TestLatePageAfterSwitchIsDiscarded(t *testing.T) {
	c, tr := fixtureSession(t)
	ctx := context.Background()
	if err := c.Start(ctx); err != nil {
		t.Fatal(err)
	}

	tr.hold(core.EndpointPaginatedTransactions)
	done := make(chan error, 1)
	go func() { done <- c.LoadMore(ctx) }()
	<-tr.held

	if err := c.SelectEmployee(ctx, "12"); err != nil {
		t.Fatal(err)
	}
	tr.release()
	if err := <-done; err != nil {
		t.Fatal(err)
	}

	if c.paginated.Data() != nil {
		t.Fatalf("late page repopulated the invalidated paginated feed")
	}
	if n := activeFeeds(c); n != 1 {
		t.Fatalf("expected exactly the employee feed active, got %d", n)
	}
	if len(c.Transactions()) != 4 {
		t.Fatalf("filtered view polluted by late page")
	}
}

func TestStaleEmployeeResultNeverShown(t *testing.T) {
	c, tr := fixtureSession(t)
	ctx := context.Background()
	if err := c.Start(ctx); err != nil {
		t.Fatal(err)
	}
	if err := c.SelectEmployee(ctx, "9"); err != nil {
		t.Fatal(err)
	}

	tr.hold(core.EndpointTransactionsByEmployee)
	done := make(chan error, 1)
	go func() { done <- c.SelectEmployee(ctx, "10") }()
	<-tr.held

	// While employee 10 is loading, employee 9's rows must not be shown under 10.
	if txs := c.Transactions(); txs != nil {
		t.Fatalf("stale rows shown while switching employees: %d", len(txs))
	}
	tr.release()
	if err := <-done; err != nil {
		t.Fatal(err)
	}
	for _, tx := range c.Transactions() {
		if tx.Employee.ID != "10" {
			t.Fatalf("foreign transaction %s", tx.ID)
		}
	}
}

func find(t *testing.T, txs []core.Transaction, id string) core.Transaction {
	t.Helper()
	for _, tx := range txs {
		if tx.ID == id {
			return tx
		}
	}
	t.Fatalf("transaction %s not visible", id)
	return core.Transaction{}
}
