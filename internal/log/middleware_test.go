package log

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"eventbudget/internal/core"
)

func TestRouteParamMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Component: "test", Handler: slog.NewTextHandler(&buf, nil)})
	params := map[string]string{"ownerID": "u1", "eventID": "evt-1"}
	param := func(_ *http.Request, name string) string { return params[name] }

	handler := Middleware(logger)(
		RouteParamMiddleware(param, "ownerID", FieldOwnerID)(
			RouteParamMiddleware(param, "expenseID", FieldExpenseID)(
				RouteParamMiddleware(param, "eventID", FieldEventID)(
					http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
						FromContext(r.Context()).InfoContext(r.Context(), "handled")
					})))))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	out := buf.String()
	for _, want := range []string{"owner_id=u1", "event_id=evt-1"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, FieldExpenseID) {
		t.Errorf("absent route param should not be logged:\n%s", out)
	}
}

func TestLogHTTPEnd(t *testing.T) {
	tests := []struct {
		status    int
		wantLevel string
	}{
		{http.StatusCreated, "level=INFO"},
		{http.StatusNotFound, "level=WARN"},
		{http.StatusInternalServerError, "level=ERROR"},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			var buf bytes.Buffer
			logger := New(Config{Handler: slog.NewTextHandler(&buf, nil)})
			r := httptest.NewRequest(http.MethodPost, "/v1/owners/u1/events/evt-1/recompute", nil)
			ctx := core.WithActor(r.Context(), "alice")

			route := NewFields().WithEvent("u1", "evt-1")
			NewStructuredLogger(logger).LogHTTPEnd(ctx, r, tt.status, 12, "10.0.0.1", route)

			out := buf.String()
			for _, want := range []string{tt.wantLevel, "owner_id=u1", "event_id=evt-1", "actor=alice", "client_ip=10.0.0.1"} {
				if !strings.Contains(out, want) {
					t.Errorf("log output missing %q:\n%s", want, out)
				}
			}
		})
	}
}
