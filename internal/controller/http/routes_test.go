package http

import (
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
)

func passthrough(next http.Handler) http.Handler { return next }

func TestRouteMethods(t *testing.T) {
	r := chi.NewRouter()
	NewSharedHandler(nil, false).RegisterRoutes(r, passthrough)
	NewCalendarHandler(nil, nil).RegisterRoutes(r, passthrough)

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/shared/tok-1"},
		{http.MethodGet, "/shared/tok-1/comments"},
		{http.MethodPost, "/shared/tok-1/comments"},
		{http.MethodPatch, "/shared/tok-1/comments/c-1"},
		{http.MethodPut, "/shared/tok-1/comments/c-1"},
		{http.MethodDelete, "/shared/tok-1/comments/c-1"},
		{http.MethodPut, "/calendars/cal-1/columns/reorder"},
		{http.MethodDelete, "/calendars/cal-1/share-links/link-1"},
		{http.MethodPost, "/calendars/cal-1/share-links/link-1/revoke"},
		{http.MethodPost, "/calendars/cal-1/share-links/link-1/regenerate"},
	}

	for _, tt := range tests {
		if !r.Match(chi.NewRouteContext(), tt.method, tt.path) {
			t.Errorf("%s %s is not routed", tt.method, tt.path)
		}
	}
}
