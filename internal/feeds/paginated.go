package feeds

import (
	"context"
	"sync"

	"txview/internal/core"
	"txview/internal/fetch"
	"txview/internal/log"
)

// PaginatedFeed accumulates pages of the global transaction feed.
//
// The accumulated data is the concatenation of every page fetched since the
// last invalidation, in page order, and NextPage is the cursor of the most
// recent page. A nil response collapses the feed to nil, as does an empty
// terminal first page.
type PaginatedFeed struct {
	client *fetch.Client
	logger *log.Logger

	mu       sync.Mutex
	data     *core.PaginatedResult[core.Transaction]
	epoch    uint64
	fetching bool
}

func NewPaginatedFeed(client *fetch.Client, logger *log.Logger) *PaginatedFeed {
	return &PaginatedFeed{
		client: client,
		logger: log.OrDefault(logger, log.ComponentFeed).With("feed", "paginated"),
	}
}

// FetchAll requests the next page and merges it into the accumulated result.
// It is a no-op once the terminal page was merged.
func (f *PaginatedFeed) FetchAll(ctx context.Context) error {
	f.mu.Lock()
	if f.fetching {
		f.mu.Unlock()
		return ErrFetchInFlight
	}
	page := 0
	if f.data != nil {
		if f.data.NextPage == nil {
			f.mu.Unlock()
			return nil
		}
		page = *f.data.NextPage
	}
	epoch := f.epoch
	f.fetching = true
	f.mu.Unlock()

	resp, err := fetch.FetchWithCache[core.PaginatedResult[core.Transaction]](
		ctx, f.client, core.EndpointPaginatedTransactions, core.PaginatedRequestParams{Page: page})

	f.mu.Lock()
	defer f.mu.Unlock()

	if epoch != f.epoch {
		f.logger.DebugContext(ctx, "Discarding page fetched before invalidation",
			log.FieldPage, page, log.FieldEpoch, epoch)
		return ErrSuperseded
	}
	f.fetching = false
	if err != nil {
		return err
	}

	f.data = merge(f.data, resp)

	fields := log.NewFields()
	fields[log.FieldPage] = page
	if f.data != nil {
		fields[log.FieldCount] = len(f.data.Data)
		if f.data.NextPage != nil {
			fields[log.FieldNextPage] = *f.data.NextPage
		}
	}
	f.logger.DebugContext(ctx, "Page merged", fields.ToSlice()...)
	return nil
}

func merge(prev, page *core.PaginatedResult[core.Transaction]) *core.PaginatedResult[core.Transaction] {
	if page == nil {
		return nil
	}
	if prev == nil {
		if len(page.Data) == 0 && page.IsTerminal() {
			return nil
		}
		return &core.PaginatedResult[core.Transaction]{
			Data:     append([]core.Transaction{}, page.Data...),
			NextPage: page.NextPage,
		}
	}

	data := make([]core.Transaction, 0, len(prev.Data)+len(page.Data))
	data = append(data, prev.Data...)
	data = append(data, page.Data...)
	return &core.PaginatedResult[core.Transaction]{Data: data, NextPage: page.NextPage}
}

// InvalidateData discards every accumulated page and the feed's cache entries.
// A fetch still in flight is discarded when it completes.
func (f *PaginatedFeed) InvalidateData() {
	f.mu.Lock()
	f.data = nil
	f.epoch++
	f.fetching = false
	f.mu.Unlock()
	f.client.Cache().InvalidateEndpoint(core.EndpointPaginatedTransactions)
}

// Data returns a copy of the accumulated result, or nil when the feed holds no data.
func (f *PaginatedFeed) Data() *core.PaginatedResult[core.Transaction] {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.data == nil {
		return nil
	}
	out := &core.PaginatedResult[core.Transaction]{Data: append([]core.Transaction{}, f.data.Data...)}
	if f.data.NextPage != nil {
		out.NextPage = core.PageCursor(*f.data.NextPage)
	}
	return out
}

// NextPage returns the continuation cursor, nil when there is no more to load.
func (f *PaginatedFeed) NextPage() *int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.data == nil || f.data.NextPage == nil {
		return nil
	}
	return core.PageCursor(*f.data.NextPage)
}

func (f *PaginatedFeed) Loading() bool {
	return f.client.Loading()
}
