package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"payboard/internal/core"
	applog "payboard/internal/log"
)

type (
	recordsResponse struct {
		Records []core.Record `json:"records"`
		Count   int           `json:"count"`
	}

	createdResponse struct {
		Record core.Record `json:"record"`
		Count  int         `json:"count"`
	}

	rejectedResponse struct {
		Error  string           `json:"error"`
		Fields core.FieldErrors `json:"fields"`
	}
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.startedAt).Round(time.Second).String(),
	})
}

// handleReady reports whether templates are loaded and the store answers.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]any)

	if s.templates == nil {
		checks["templates"] = "failed: " + errTemplatesNotLoaded.Error()
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	if recs, err := s.svc.Snapshot(ctx); err != nil {
		checks["store"] = "failed: " + err.Error()
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["store"] = map[string]any{"records": len(recs), "status": "ok"}
	}

	checks["rate_limiter"] = map[string]any{
		"active_clients": s.rateLimiter.ActiveClients(),
		"status":         "ok",
	}
	checks["security"] = s.securityMetrics.snapshot()

	writeJSON(w, httpStatus, map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}

// handleAPIRecords reads the sequence on GET and appends through the
// validation gate on POST.
func (s *Server) handleAPIRecords(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	switch r.Method {
	case http.MethodGet:
		recs, err := s.svc.Snapshot(ctx)
		if err != nil {
			applog.FromContext(ctx).ErrorContext(ctx, "Failed to read records",
				applog.FieldError, err, applog.FieldOperation, applog.OpList)
			writeJSONError(w, "unable to read records", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, recordsResponse{Records: recs, Count: len(recs)})

	case http.MethodPost:
		in, err := decodeSubmission(r)
		if err != nil {
			writeJSONError(w, "invalid request body", http.StatusBadRequest)
			return
		}

		res, err := s.svc.Submit(ctx, in)
		var fe core.FieldErrors
		switch {
		case errors.As(err, &fe):
			s.structured.LogSubmissionRejected(ctx, fe.Fields())
			writeJSON(w, http.StatusUnprocessableEntity, rejectedResponse{Error: fe.Error(), Fields: fe})
			return
		case err != nil:
			s.structured.LogError(ctx, "Failed to append record", err,
				applog.ComponentDashboard, applog.OpAppend, applog.NewFields().WithRequestID(requestID(r)))
			writeJSONError(w, "unable to save record", http.StatusInternalServerError)
			return
		}

		s.structured.LogRecordAppended(ctx, res.Record.Month, res.Record.Success, res.Record.Failed, len(res.Records))
		writeJSON(w, http.StatusCreated, createdResponse{Record: res.Record, Count: len(res.Records)})

	default:
		allowMethods(w, r, http.MethodGet, http.MethodPost)
	}
}
