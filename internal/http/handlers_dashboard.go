package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"

	"payboard/internal/core"
	applog "payboard/internal/log"
	"payboard/internal/metrics"
	"payboard/internal/view"
)

var errTemplatesNotLoaded = errors.New("templates not loaded")

// pageData is what every template receives. OOB marks the dashboard for an
// out-of-band swap when it rides along with the form partial.
type pageData struct {
	view.Page
	OOB bool
}

func (s *Server) render(name string, data pageData) ([]byte, error) {
	if s.templates == nil {
		return nil, errTemplatesNotLoaded
	}
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, fmt.Errorf("execute %s: %w", name, err)
	}
	metrics.RecordRender(name)
	return buf.Bytes(), nil
}

// renderPage derives the page from the current sequence and executes name.
func (s *Server) renderPage(ctx context.Context, name string, form view.FormView, oob bool) ([]byte, error) {
	recs, err := s.svc.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return s.render(name, pageData{Page: view.RenderPage(recs, form), OOB: oob})
}

func (s *Server) renderFailed(w http.ResponseWriter, r *http.Request, name string, err error) {
	applog.FromContext(r.Context()).ErrorContext(r.Context(), "Template rendering failed",
		applog.FieldError, err,
		"template", name,
		applog.FieldOperation, applog.OpRender)
	errorPage(http.StatusInternalServerError, "Unable to render the dashboard").write(w)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		errorPage(http.StatusNotFound, "Page not found").write(w)
		return
	}
	if !allowMethods(w, r, http.MethodGet, http.MethodHead) {
		return
	}

	body, err := s.renderPage(r.Context(), "index.html", view.EditingForm(), false)
	if err != nil {
		s.renderFailed(w, r, "index.html", err)
		return
	}
	newHTMXResponse(http.StatusOK).html(body).write(w)
}

// handleDashboardPartial returns charts and table for an in-place refresh.
func (s *Server) handleDashboardPartial(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet) {
		return
	}

	body, err := s.renderPage(r.Context(), "dashboard", view.EditingForm(), false)
	if err != nil {
		s.renderFailed(w, r, "dashboard", err)
		return
	}
	newHTMXResponse(http.StatusOK).html(body).write(w)
}

// handleSubmit runs the entry form through the validation gate. htmx callers
// get partials back; plain form posts follow redirect-after-post.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodPost) {
		return
	}
	ctx := r.Context()
	logger := applog.FromContext(ctx)

	in, err := decodeSubmission(r)
	if err != nil {
		logger.WarnContext(ctx, "Submission body could not be parsed",
			applog.FieldError, err, applog.FieldOperation, applog.OpParse)
		errorPage(http.StatusBadRequest, "Invalid request format").write(w)
		return
	}

	res, err := s.svc.Submit(ctx, in)
	var fe core.FieldErrors
	switch {
	case errors.As(err, &fe):
		s.structured.LogSubmissionRejected(ctx, fe.Fields())
		s.writeRejected(w, r, in, fe)
		return
	case err != nil:
		s.structured.LogError(ctx, "Failed to append record", err,
			applog.ComponentDashboard, applog.OpAppend, applog.NewFields().WithRequestID(requestID(r)))
		resp := errorPage(http.StatusInternalServerError, "Error saving record")
		if isHTMX(r) {
			resp.notify(NotificationError, "Record could not be saved")
		}
		resp.write(w)
		return
	}

	seq := len(res.Records)
	s.structured.LogRecordAppended(ctx, res.Record.Month, res.Record.Success, res.Record.Failed, seq)

	if !isHTMX(r) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	body, err := s.render("submit_result.html", pageData{Page: view.RenderPage(res.Records, view.SubmittedForm()), OOB: true})
	if err != nil {
		s.renderFailed(w, r, "submit_result.html", err)
		return
	}
	newHTMXResponse(http.StatusOK).
		recordCreated(res.Record, seq).
		formReset().
		notify(NotificationSuccess, "Record added").
		html(body).
		write(w)
}

func (s *Server) writeRejected(w http.ResponseWriter, r *http.Request, in core.FormInput, fe core.FieldErrors) {
	form := view.RejectedForm(in, fe)

	if isHTMX(r) {
		body, err := s.render("form", pageData{Page: view.Page{Form: form}})
		if err != nil {
			s.renderFailed(w, r, "form", err)
			return
		}
		newHTMXResponse(http.StatusUnprocessableEntity).
			recordRejected(fe).
			html(body).
			write(w)
		return
	}

	body, err := s.renderPage(r.Context(), "index.html", form, false)
	if err != nil {
		s.renderFailed(w, r, "index.html", err)
		return
	}
	newHTMXResponse(http.StatusUnprocessableEntity).html(body).write(w)
}
