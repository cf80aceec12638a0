package routes_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/JaimeStill/stager/pkg/routes"
)

func TestRegister(t *testing.T) {
	write := func(body string) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(body))
		}
	}

	mux := http.NewServeMux()
	routes.Register(mux, routes.Group{
		Prefix: "/studio",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "/history", Handler: write("history")},
			{Method: "DELETE", Pattern: "/history", Handler: write("cleared")},
		},
		Children: []routes.Group{
			{Prefix: "/cycles", Routes: []routes.Route{
				{Method: "POST", Pattern: "", Handler: write("trigger")},
			}},
		},
	})

	tests := []struct {
		method, path, want string
	}{
		{http.MethodGet, "/studio/history", "history"},
		{http.MethodDelete, "/studio/history", "cleared"},
		{http.MethodPost, "/studio/cycles", "trigger"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
			if rec.Body.String() != tt.want {
				t.Errorf("body = %q, want %q", rec.Body.String(), tt.want)
			}
		})
	}
}
