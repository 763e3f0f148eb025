package http

import (
	"encoding/json"
	"html/template"
	"net/http"
	"strings"
	"time"

	"payboard/internal/core"
)

// HX-Trigger events the page listens for.
const (
	eventRecordCreated  = "record:created"
	eventRecordRejected = "record:rejected"
	eventFormReset      = "form:reset"
	eventNotification   = "show-notification"
)

type NotificationType string

const (
	NotificationSuccess NotificationType = "success"
	NotificationError   NotificationType = "error"
)

var notificationTTL = map[NotificationType]time.Duration{
	NotificationSuccess: 3 * time.Second,
	NotificationError:   5 * time.Second,
}

type (
	recordCreatedEvent struct {
		Month    string `json:"month"`
		Sequence int    `json:"sequence"`
	}

	recordRejectedEvent struct {
		Fields []string `json:"fields"`
	}

	notification struct {
		Type     NotificationType `json:"type"`
		Message  string           `json:"message"`
		Duration int64            `json:"duration"`
	}
)

// htmxResponse collects the status, HX-Trigger events and HTML body of a
// single response.
type htmxResponse struct {
	status int
	events map[string]any
	header http.Header
	body   []byte
}

func newHTMXResponse(status int) *htmxResponse {
	return &htmxResponse{status: status, events: map[string]any{}, header: http.Header{}}
}

// recordCreated announces the record that now sits at position seq.
func (h *htmxResponse) recordCreated(r core.Record, seq int) *htmxResponse {
	h.events[eventRecordCreated] = recordCreatedEvent{Month: r.Month, Sequence: seq}
	return h
}

func (h *htmxResponse) recordRejected(fe core.FieldErrors) *htmxResponse {
	h.events[eventRecordRejected] = recordRejectedEvent{Fields: fe.Fields()}
	return h
}

func (h *htmxResponse) formReset() *htmxResponse {
	h.events[eventFormReset] = struct{}{}
	return h
}

func (h *htmxResponse) notify(kind NotificationType, message string) *htmxResponse {
	h.events[eventNotification] = notification{
		Type:     kind,
		Message:  message,
		Duration: notificationTTL[kind].Milliseconds(),
	}
	return h
}

func (h *htmxResponse) html(body []byte) *htmxResponse {
	h.header.Set("Content-Type", "text/html; charset=utf-8")
	h.body = body
	return h
}

func (h *htmxResponse) write(w http.ResponseWriter) {
	for k, v := range h.header {
		w.Header()[k] = v
	}
	if len(h.events) > 0 {
		if b, err := json.Marshal(h.events); err == nil {
			w.Header().Set("HX-Trigger", string(b))
		}
	}
	w.WriteHeader(h.status)
	if len(h.body) > 0 {
		_, _ = w.Write(h.body)
	}
}

// errorPage renders message, HTML-escaped, as an error fragment.
func errorPage(status int, message string) *htmxResponse {
	return newHTMXResponse(status).
		html([]byte(`<div class="error">` + template.HTMLEscapeString(message) + `</div>`))
}

// allowMethods writes a 405 with the Allow header and reports false when
// r.Method is not one of methods.
func allowMethods(w http.ResponseWriter, r *http.Request, methods ...string) bool {
	for _, m := range methods {
		if r.Method == m {
			return true
		}
	}
	resp := newHTMXResponse(http.StatusMethodNotAllowed)
	resp.header.Set("Allow", strings.Join(methods, ", "))
	resp.write(w)
	return false
}
