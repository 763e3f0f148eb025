package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"payboard/internal/core"
	applog "payboard/internal/log"
	"payboard/internal/services"
	"payboard/internal/store/memory"
)

func newTestServer(t *testing.T, records []core.Record, opts Options) (*Server, *memory.Store) {
	t.Helper()
	st := memory.New(records)
	if opts.Logger == nil {
		opts.Logger = applog.New(applog.Config{Output: io.Discard, Component: applog.ComponentHTTP})
	}
	srv := NewServer(":0", services.NewDashboardService(st, nil), opts)
	t.Cleanup(srv.rateLimiter.stop)
	require.NotNil(t, srv.templates, "embedded templates must parse")
	return srv, st
}

func serve(srv *Server, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func formPost(path string, values url.Values, htmx bool) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if htmx {
		req.Header.Set("HX-Request", "true")
	}
	return req
}

func monthInput(value string) string {
	return `<input id="month" name="month" type="text" placeholder="month" minlength="3" maxlength="50" list="month-names" autocomplete="off" value="` + value + `">`
}

var inputValue = regexp.MustCompile(`name="(month|success|failed)" type="(\w+)"[^>]*value="([^"]*)"`)

func TestDefaultFormSubmitsAsRendered(t *testing.T) {
	srv, st := newTestServer(t, core.Seed(), Options{})

	page := serve(srv, httptest.NewRequest(http.MethodGet, "/", nil)).Body.String()
	values := url.Values{}
	for _, m := range inputValue.FindAllStringSubmatch(page, -1) {
		if m[1] == core.FieldMonth {
			assert.Equal(t, "text", m[2], "month must keep free-text values")
		}
		values.Set(m[1], m[3])
	}
	require.Len(t, values, 3)
	assert.Equal(t, "march", values.Get(core.FieldMonth))

	rr := serve(srv, formPost("/records", values, true))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 3, st.Len())
}

func TestIndexRendersSeed(t *testing.T) {
	srv, _ := newTestServer(t, core.Seed(), Options{})

	rr := serve(srv, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	body := rr.Body.String()
	assert.Contains(t, body, "<title>Payments</title>")
	assert.Contains(t, body, `<tr data-month="january"><td>300</td><td>400</td><td>100</td></tr>`)
	assert.Contains(t, body, `<tr data-month="february"><td>960</td><td>12</td><td>500</td></tr>`)
	assert.Contains(t, body, ">jan</text>")
	assert.Contains(t, body, ">feb</text>")
	assert.Contains(t, body, monthInput("march"))
	assert.Contains(t, body, `data-state="editing"`)
	assert.NotContains(t, body, "No results.")
	assert.NotContains(t, body, "hx-swap-oob")

	assert.Contains(t, rr.Header().Get("Content-Security-Policy"), "default-src 'self'")
	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
	assert.True(t, strings.HasPrefix(rr.Header().Get(requestIDHeader), "req_"))
}

func TestIndexEmptySequenceShowsPlaceholderRow(t *testing.T) {
	srv, _ := newTestServer(t, nil, Options{})

	rr := serve(srv, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	body := rr.Body.String()
	assert.Contains(t, body, `<tr class="empty"><td colspan="3">No results.</td></tr>`)
	assert.NotContains(t, body, "data-month=")
}

func TestTableOmitsProcessing(t *testing.T) {
	srv, _ := newTestServer(t, core.Seed(), Options{})

	rr := serve(srv, httptest.NewRequest(http.MethodGet, "/ui/dashboard", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	body := rr.Body.String()
	assert.Contains(t, body, `<th scope="col">Success</th><th scope="col">Failed</th><th scope="col">Pending</th>`)
	assert.NotContains(t, body, `<th scope="col">Processing</th>`)
	// The line chart still plots processing.
	assert.Contains(t, body, "series-processing")
}

func TestUnknownPathNotFound(t *testing.T) {
	srv, _ := newTestServer(t, core.Seed(), Options{})

	rr := serve(srv, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, `<div class="error">Page not found</div>`, rr.Body.String())
}

func TestDashboardPartial(t *testing.T) {
	srv, _ := newTestServer(t, core.Seed(), Options{})

	rr := serve(srv, httptest.NewRequest(http.MethodGet, "/ui/dashboard", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	body := strings.TrimSpace(rr.Body.String())
	assert.True(t, strings.HasPrefix(body, `<div id="dashboard"`), body)
	assert.Contains(t, body, `data-count="2"`)
	assert.NotContains(t, body, "hx-swap-oob")
	assert.NotContains(t, body, "<form")

	rr = serve(srv, httptest.NewRequest(http.MethodPost, "/ui/dashboard", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestSubmitHTMXAppendsAndResetsForm(t *testing.T) {
	srv, st := newTestServer(t, core.Seed(), Options{})

	rr := serve(srv, formPost("/records", url.Values{"month": {"march"}, "success": {"50"}, "failed": {"5"}}, true))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 3, st.Len())

	var trigger map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(rr.Header().Get("HX-Trigger")), &trigger))
	assert.JSONEq(t, `{"month":"march","sequence":3}`, string(trigger["record:created"]))
	assert.Contains(t, trigger, "form:reset")
	assert.Contains(t, trigger, "show-notification")

	body := rr.Body.String()
	assert.Contains(t, body, `data-state="submitted"`)
	assert.Contains(t, body, `hx-swap-oob="true"`)
	assert.Contains(t, body, `data-count="3"`)
	assert.Contains(t, body, `<tr data-month="march"><td>50</td><td>5</td><td>0</td></tr>`)
	assert.Contains(t, body, ">mar</text>")
	// Fields reset to defaults.
	assert.Contains(t, body, monthInput("march"))
	assert.Contains(t, body, `id="success" name="success" type="number" placeholder="#success" value="0"`)
}

func TestSubmitHTMXRejectionKeepsInput(t *testing.T) {
	srv, st := newTestServer(t, core.Seed(), Options{})

	rr := serve(srv, formPost("/records", url.Values{"month": {"ab"}, "success": {"50"}, "failed": {"5"}}, true))
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Equal(t, 2, st.Len())

	body := rr.Body.String()
	assert.Contains(t, body, `data-state="editing"`)
	assert.Contains(t, body, `value="ab"`)
	assert.Contains(t, body, `<p class="field-error">`+core.ErrMonthLength.Error()+`</p>`)
	assert.Contains(t, body, `class="field invalid"`)
	assert.NotContains(t, body, `id="dashboard"`)
	assert.Contains(t, rr.Header().Get("HX-Trigger"), `"record:rejected":{"fields":["month"]}`)
}

func TestSubmitNonNumericSuccess(t *testing.T) {
	srv, st := newTestServer(t, core.Seed(), Options{})

	rr := serve(srv, formPost("/records", url.Values{"month": {"march"}, "success": {"abc"}, "failed": {"5"}}, true))
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Equal(t, 2, st.Len())
	assert.Contains(t, rr.Body.String(), core.ErrNotANumber.Error())
}

func TestSubmitPlainFormRedirects(t *testing.T) {
	srv, st := newTestServer(t, core.Seed(), Options{})

	rr := serve(srv, formPost("/records", url.Values{"month": {"march"}, "success": {"50"}, "failed": {"5"}}, false))
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/", rr.Header().Get("Location"))
	assert.Equal(t, 3, st.Len())
}

func TestSubmitPlainFormRejectedRendersPage(t *testing.T) {
	srv, st := newTestServer(t, core.Seed(), Options{})

	rr := serve(srv, formPost("/records", url.Values{"month": {"x"}, "success": {"1"}, "failed": {"1"}}, false))
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Equal(t, 2, st.Len())

	body := rr.Body.String()
	assert.Contains(t, body, "<!doctype html>")
	assert.Contains(t, body, `value="x"`)
	assert.Contains(t, body, `data-count="2"`)
}

type failingAppendStore struct{ *memory.Store }

func (failingAppendStore) Append(context.Context, core.Record) ([]core.Record, error) {
	return nil, errors.New("disk full")
}

func TestSubmitStoreFailureNotifies(t *testing.T) {
	logger := applog.New(applog.Config{Output: io.Discard})
	svc := services.NewDashboardService(failingAppendStore{memory.NewSeeded()}, nil)
	srv := NewServer(":0", svc, Options{Logger: logger})
	t.Cleanup(srv.rateLimiter.stop)

	values := url.Values{"month": {"march"}, "success": {"1"}, "failed": {"1"}}

	rr := serve(srv, formPost("/records", values, true))
	require.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Contains(t, rr.Body.String(), "Error saving record")
	got := triggers(t, rr)
	assert.JSONEq(t, `{"type":"error","message":"Record could not be saved","duration":5000}`, string(got[eventNotification]))

	rr = serve(srv, formPost("/records", values, false))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Empty(t, rr.Header().Get("HX-Trigger"))
}

func TestSubmitRequiresPOST(t *testing.T) {
	srv, _ := newTestServer(t, core.Seed(), Options{})

	rr := serve(srv, httptest.NewRequest(http.MethodGet, "/records", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
	assert.Equal(t, http.MethodPost, rr.Header().Get("Allow"))
}

func TestAPIRecords(t *testing.T) {
	srv, st := newTestServer(t, core.Seed(), Options{})

	t.Run("list", func(t *testing.T) {
		rr := serve(srv, httptest.NewRequest(http.MethodGet, "/api/records", nil))
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

		var got recordsResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
		assert.Equal(t, 2, got.Count)
		assert.Equal(t, core.Seed(), got.Records)
	})

	t.Run("create", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/records", strings.NewReader(`{"month":"march","success":50,"failed":5}`))
		req.Header.Set("Content-Type", "application/json")
		rr := serve(srv, req)
		require.Equal(t, http.StatusCreated, rr.Code)

		var got createdResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
		assert.Equal(t, core.Record{Month: "march", Success: 50, Failed: 5}, got.Record)
		assert.Equal(t, 3, got.Count)
		assert.Equal(t, 3, st.Len())
	})

	t.Run("rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/records", strings.NewReader(`{"month":"ab","success":"abc","failed":1}`))
		rr := serve(srv, req)
		require.Equal(t, http.StatusUnprocessableEntity, rr.Code)

		var got rejectedResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
		assert.Contains(t, got.Error, "invalid form")
		assert.Contains(t, got.Fields, core.FieldMonth)
		assert.Contains(t, got.Fields, core.FieldSuccess)
		assert.NotContains(t, got.Fields, core.FieldFailed)
		assert.Equal(t, 3, st.Len())
	})

	t.Run("malformed body", func(t *testing.T) {
		rr := serve(srv, httptest.NewRequest(http.MethodPost, "/api/records", strings.NewReader(`{"month":`)))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("method", func(t *testing.T) {
		rr := serve(srv, httptest.NewRequest(http.MethodDelete, "/api/records", nil))
		assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
		assert.Equal(t, "GET, POST", rr.Header().Get("Allow"))
	})
}

func TestHealthAndReady(t *testing.T) {
	srv, _ := newTestServer(t, core.Seed(), Options{})

	rr := serve(srv, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"status":"ok"`)

	rr = serve(srv, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var ready struct {
		Status string         `json:"status"`
		Checks map[string]any `json:"checks"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &ready))
	assert.Equal(t, "ready", ready.Status)
	assert.Equal(t, "ok", ready.Checks["templates"])
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, core.Seed(), Options{})
	serve(srv, httptest.NewRequest(http.MethodGet, "/", nil))

	rr := serve(srv, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "payboard_http_requests_total")
	assert.Contains(t, rr.Body.String(), "payboard_renders_total")
}

func TestStaticAssets(t *testing.T) {
	srv, _ := newTestServer(t, core.Seed(), Options{})

	rr := serve(srv, httptest.NewRequest(http.MethodGet, "/static/app.css", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "text/css")
	assert.Contains(t, rr.Body.String(), "--chart-1")
}

func TestPostRateLimit(t *testing.T) {
	srv, st := newTestServer(t, core.Seed(), Options{RateLimitPerMinute: 2})
	values := url.Values{"month": {"march"}, "success": {"1"}, "failed": {"1"}}

	for i := 0; i < 2; i++ {
		rr := serve(srv, formPost("/records", values, true))
		require.Equal(t, http.StatusOK, rr.Code)
	}
	rr := serve(srv, formPost("/records", values, true))
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "60", rr.Header().Get("Retry-After"))
	assert.Equal(t, 4, st.Len())

	// Reads are never limited.
	rr = serve(srv, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, int64(1), srv.securityMetrics.snapshot()["rate_limit_hits"])
}
