package http

import (
	"context"
	"net/http"
	"time"

	"txview/internal/log"
	"txview/internal/view"
)

const readyTimeout = 10 * time.Second

type filterRequest struct {
	EmployeeID string `json:"employeeId"`
}

type approvalRequest struct {
	TransactionID string `json:"transactionId"`
	Value         *bool  `json:"value"`
}

type employeesResponse struct {
	Options []view.Option `json:"options"`
	Loading bool          `json:"loading"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"uptime": time.Since(s.started).Round(time.Second).String(),
	})
}

// handleReady reports ready once the employee directory and the first page loaded.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	if err := s.view.Start(ctx); err != nil {
		log.FromContext(ctx).WarnContext(ctx, "Readiness check failed", log.FieldError, err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not_ready", "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	if err := s.view.Start(r.Context()); err != nil {
		s.fail(w, r, "Start view", err, log.OpStartup)
		return
	}
	writeJSON(w, http.StatusOK, s.view.Snapshot())
}

func (s *Server) handleEmployees(w http.ResponseWriter, r *http.Request) {
	if err := s.view.Start(r.Context()); err != nil {
		s.fail(w, r, "Start view", err, log.OpStartup)
		return
	}
	writeJSON(w, http.StatusOK, employeesResponse{
		Options: s.view.FilterOptions(),
		Loading: s.view.EmployeesLoading(),
	})
}

func (s *Server) handleFilter(w http.ResponseWriter, r *http.Request) {
	var req filterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.view.SelectEmployee(r.Context(), req.EmployeeID); err != nil {
		s.fail(w, r, "Select employee", err, log.OpSelect)
		return
	}
	writeJSON(w, http.StatusOK, s.view.Snapshot())
}

func (s *Server) handleMore(w http.ResponseWriter, r *http.Request) {
	if err := s.view.LoadMore(r.Context()); err != nil {
		s.fail(w, r, "Load more", err, log.OpLoadMore)
		return
	}
	writeJSON(w, http.StatusOK, s.view.Snapshot())
}

func (s *Server) handleApproval(w http.ResponseWriter, r *http.Request) {
	var req approvalRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.TransactionID == "" || req.Value == nil {
		writeError(w, http.StatusBadRequest, "transactionId and value are required")
		return
	}
	if err := s.view.SetApproval(r.Context(), req.TransactionID, *req.Value); err != nil {
		s.fail(w, r, "Set approval", err, log.OpApprove)
		return
	}
	writeJSON(w, http.StatusOK, s.view.Snapshot())
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, msg string, err error, op string) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		ctx := r.Context()
		log.NewStructuredLogger(log.FromContext(ctx)).LogError(ctx, msg+" failed", err, op, nil)
	}
	writeError(w, status, err.Error())
}
