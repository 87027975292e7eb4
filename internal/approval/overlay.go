// Package approval keeps the per-transaction approval overrides shown on top
// of whichever transaction list is visible.
//
// The override map is UI scratch state, not a cache: it is seeded from the
// visible list, extended when pages are appended, and discarded whenever the
// visible list is replaced. An override is only recorded after the server
// acknowledged the mutation.
package approval

import (
	"context"
	"errors"
	"sync"

	"txview/internal/core"
	"txview/internal/fetch"
	"txview/internal/log"
)

// ErrNotInView is returned for transactions that are not part of the visible list.
var ErrNotInView = errors.New("transaction not in view")

// Overlay maps visible transaction ids to their displayed approval state.
type Overlay struct {
	client *fetch.Client
	logger *log.StructuredLogger

	mu     sync.Mutex
	states map[string]bool
	gen    uint64
}

func NewOverlay(client *fetch.Client, logger *log.Logger) *Overlay {
	return &Overlay{
		client: client,
		logger: log.NewStructuredLogger(log.OrDefault(logger, log.ComponentApproval)),
		states: map[string]bool{},
	}
}

// Reset discards every override and seeds the map from txs.
func (o *Overlay) Reset(txs []core.Transaction) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.gen++
	o.states = make(map[string]bool, len(txs))
	for _, t := range txs {
		o.states[t.ID] = t.Approved
	}
}

// Extend seeds ids that are not yet known and keeps existing overrides.
func (o *Overlay) Extend(txs []core.Transaction) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, t := range txs {
		if _, ok := o.states[t.ID]; !ok {
			o.states[t.ID] = t.Approved
		}
	}
}

// Approved returns the displayed approval state of id.
func (o *Overlay) Approved(id string) (approved bool, ok bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	approved, ok = o.states[id]
	return approved, ok
}

// Len returns the number of seeded transactions.
func (o *Overlay) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.states)
}

// Apply returns a copy of txs with the overlay's approval states applied.
func (o *Overlay) Apply(txs []core.Transaction) []core.Transaction {
	if txs == nil {
		return nil
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]core.Transaction, len(txs))
	for i, t := range txs {
		if approved, ok := o.states[t.ID]; ok {
			t.Approved = approved
		}
		out[i] = t
	}
	return out
}

// SetApproval writes the new value through to the server and records it once
// acknowledged. Cached transaction reads are invalidated afterwards so the
// next fetch reflects the new server state.
func (o *Overlay) SetApproval(ctx context.Context, transactionID string, value bool) error {
	o.mu.Lock()
	_, ok := o.states[transactionID]
	gen := o.gen
	o.mu.Unlock()
	if !ok {
		return ErrNotInView
	}

	_, err := fetch.FetchWithoutCache[struct{}](ctx, o.client, core.EndpointSetTransactionApproval,
		core.SetTransactionApprovalParams{TransactionID: transactionID, Value: value})
	if err != nil {
		o.logger.LogError(ctx, "Approval mutation failed", err, log.OpApprove,
			log.NewFields().WithApproval(transactionID, value))
		return err
	}

	o.mu.Lock()
	if _, ok := o.states[transactionID]; ok && o.gen == gen {
		o.states[transactionID] = value
	}
	o.mu.Unlock()

	cache := o.client.Cache()
	cache.InvalidateEndpoint(core.EndpointPaginatedTransactions)
	cache.InvalidateEndpoint(core.EndpointTransactionsByEmployee)

	o.logger.LogApprovalChanged(ctx, transactionID, value)
	return nil
}

// Loading reports whether an approval mutation is in flight.
func (o *Overlay) Loading() bool {
	return o.client.Loading()
}
