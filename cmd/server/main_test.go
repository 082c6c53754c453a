package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/p-n-ai/pai-coursework/internal/ai"
	"github.com/p-n-ai/pai-coursework/internal/api"
	"github.com/p-n-ai/pai-coursework/internal/app"
	"github.com/p-n-ai/pai-coursework/internal/platform/config"
)

func TestServer(t *testing.T) {
	cfg := &config.Config{
		Server:   config.ServerConfig{Host: "127.0.0.1", Port: 9099},
		AI:       config.AIConfig{Provider: "openai", Model: "gpt-4"},
		Submit:   config.SubmitConfig{DryRun: true},
		Pipeline: config.PipelineConfig{MaxAttempts: 1, Concurrency: 1},
	}
	a, err := app.New(t.Context(), cfg, app.WithProvider(ai.NewMockProvider("ok")))
	if err != nil {
		t.Fatalf("app.New() error = %v", err)
	}
	defer a.Close()

	srv := newServer(cfg, api.NewHandler(a.APIDeps()).Routes())
	if srv.Addr != "127.0.0.1:9099" {
		t.Errorf("Addr = %q, want 127.0.0.1:9099", srv.Addr)
	}

	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantBody   string
	}{
		{
			name:       "healthz returns 200",
			path:       "/healthz",
			wantStatus: http.StatusOK,
			wantBody:   "{\"status\":\"ok\"}\n",
		},
		{
			name:       "readyz returns 200",
			path:       "/readyz",
			wantStatus: http.StatusOK,
			wantBody:   "{\"status\":\"ready\"}\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			rec := httptest.NewRecorder()

			srv.Handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if rec.Body.String() != tt.wantBody {
				t.Errorf("body = %q, want %q", rec.Body.String(), tt.wantBody)
			}
		})
	}
}
