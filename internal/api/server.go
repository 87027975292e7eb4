// Package api is the request/response collaborator consumed by the fetch
// layer. It routes the endpoint names onto a store and encodes responses as
// JSON, the way a remote API would.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"txview/internal/core"
	"txview/internal/log"
	"txview/internal/store"
)

// DefaultPageSize is the number of transactions per page of the global feed.
const DefaultPageSize = 5

var (
	ErrUnknownEndpoint = errors.New("unknown endpoint")
	ErrInvalidParams   = errors.New("invalid request params")
)

// Server implements fetch.Transport over a store.
type Server struct {
	employees    store.EmployeeLister
	transactions store.TransactionReader
	approvals    store.ApprovalWriter
	pageSize     int
	latency      time.Duration
	logger       *log.Logger
}

// Options tunes the server. Zero values select the defaults.
type Options struct {
	PageSize int
	// Latency delays every response, like a real network round trip.
	Latency time.Duration
}

// NewServer serves reads from s and routes approval writes to approvals,
// which defaults to s.
func NewServer(s store.Store, approvals store.ApprovalWriter, opts Options, logger *log.Logger) *Server {
	if approvals == nil {
		approvals = s
	}
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	return &Server{
		employees:    s,
		transactions: s,
		approvals:    approvals,
		pageSize:     opts.PageSize,
		latency:      opts.Latency,
		logger:       log.OrDefault(logger, log.ComponentAPI),
	}
}

// Request dispatches one named request.
func (s *Server) Request(ctx context.Context, endpoint string, params any) ([]byte, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}

	var (
		resp any
		err  error
	)
	switch endpoint {
	case core.EndpointEmployees:
		resp, err = s.employees.ListEmployees(ctx)
	case core.EndpointPaginatedTransactions:
		resp, err = s.paginatedTransactions(ctx, params)
	case core.EndpointTransactionsByEmployee:
		resp, err = s.transactionsByEmployee(ctx, params)
	case core.EndpointSetTransactionApproval:
		err = s.setTransactionApproval(ctx, params)
	default:
		err = fmt.Errorf("%w: %s", ErrUnknownEndpoint, endpoint)
	}
	if err != nil {
		s.logger.WarnContext(ctx, "Request failed",
			log.NewFields().WithRequest(endpoint, "").WithError(err).ToSlice()...)
		return nil, err
	}
	if resp == nil {
		return nil, nil
	}
	return json.Marshal(resp)
}

func (s *Server) paginatedTransactions(ctx context.Context, params any) (*core.PaginatedResult[core.Transaction], error) {
	var p struct {
		Page *int `json:"page"`
	}
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	if p.Page == nil || *p.Page < 0 {
		return nil, fmt.Errorf("%w: page is required", ErrInvalidParams)
	}

	start := *p.Page * s.pageSize
	data, total, err := s.transactions.TransactionPage(ctx, start, s.pageSize)
	if err != nil {
		return nil, fmt.Errorf("read page %d: %w", *p.Page, err)
	}

	result := &core.PaginatedResult[core.Transaction]{Data: data}
	if start+s.pageSize < total {
		result.NextPage = core.PageCursor(*p.Page + 1)
	}
	return result, nil
}

func (s *Server) transactionsByEmployee(ctx context.Context, params any) ([]core.Transaction, error) {
	var p core.RequestByEmployeeParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	if strings.TrimSpace(p.EmployeeID) == "" {
		return nil, fmt.Errorf("%w: employeeId is required", ErrInvalidParams)
	}
	txs, err := s.transactions.TransactionsByEmployee(ctx, p.EmployeeID)
	if err != nil {
		return nil, fmt.Errorf("read transactions of %s: %w", p.EmployeeID, err)
	}
	return txs, nil
}

func (s *Server) setTransactionApproval(ctx context.Context, params any) error {
	var p core.SetTransactionApprovalParams
	if err := decodeParams(params, &p); err != nil {
		return err
	}
	if strings.TrimSpace(p.TransactionID) == "" {
		return fmt.Errorf("%w: transactionId is required", ErrInvalidParams)
	}
	return s.approvals.SetApproval(ctx, p.TransactionID, p.Value)
}

func (s *Server) wait(ctx context.Context) error {
	if s.latency <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(s.latency)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// decodeParams accepts typed params structs as well as plain maps.
func decodeParams(params any, out any) error {
	if params == nil {
		return nil
	}
	b, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}
	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}
	return nil
}
