package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/inboxai/internal/instrumentation"
)

func newProvider(t *testing.T, cfg instrumentation.Config) *instrumentation.Provider {
	t.Helper()
	cfg.ServiceName = "test-service"
	cfg.ServiceVersion = "1.0.0"
	provider, err := instrumentation.NewProvider(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })
	return provider
}

func TestNewMetricsServer(t *testing.T) {
	prom := instrumentation.Config{Enabled: true, MetricsExporter: instrumentation.ExporterPrometheus, TracingExporter: instrumentation.ExporterNone}
	stdout := instrumentation.Config{Enabled: true, MetricsExporter: instrumentation.ExporterStdout, TracingExporter: instrumentation.ExporterNone}

	tests := []struct {
		name        string
		config      func(t *testing.T) MetricsServerConfig
		wantAddr    string
		errContains string
	}{
		{
			name: "valid config",
			config: func(t *testing.T) MetricsServerConfig {
				return MetricsServerConfig{Addr: ":9091", InstrumentationProvider: newProvider(t, prom)}
			},
			wantAddr: ":9091",
		},
		{
			name: "default addr",
			config: func(t *testing.T) MetricsServerConfig {
				return MetricsServerConfig{InstrumentationProvider: newProvider(t, prom)}
			},
			wantAddr: DefaultMetricsAddr,
		},
		{
			name:        "nil provider",
			config:      func(*testing.T) MetricsServerConfig { return MetricsServerConfig{} },
			errContains: "instrumentation provider is required",
		},
		{
			name: "non-prometheus exporter",
			config: func(t *testing.T) MetricsServerConfig {
				return MetricsServerConfig{InstrumentationProvider: newProvider(t, stdout)}
			},
			errContains: "not prometheus",
		},
		{
			name: "disabled provider",
			config: func(t *testing.T) MetricsServerConfig {
				return MetricsServerConfig{InstrumentationProvider: newProvider(t, instrumentation.Config{})}
			},
			errContains: "not enabled",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, err := NewMetricsServer(tt.config(t))
			if tt.errContains != "" {
				assert.ErrorContains(t, err, tt.errContains)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantAddr, srv.Addr())
		})
	}
}

func TestMetricsServer_Routes(t *testing.T) {
	provider := newProvider(t, instrumentation.Config{
		Enabled:         true,
		MetricsExporter: instrumentation.ExporterPrometheus,
		TracingExporter: instrumentation.ExporterNone,
	})
	provider.Metrics().RecordQuery(context.Background(), instrumentation.StatusSuccess)

	srv, err := NewMetricsServer(MetricsServerConfig{Path: "/custom", InstrumentationProvider: provider})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/custom", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "assistant_queries_total")

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, "ok", rec.Body.String())

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, DefaultMetricsPath, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetricsServer_ShutdownWithoutStart(t *testing.T) {
	provider := newProvider(t, instrumentation.Config{
		Enabled:         true,
		MetricsExporter: instrumentation.ExporterPrometheus,
		TracingExporter: instrumentation.ExporterNone,
	})
	srv, err := NewMetricsServer(MetricsServerConfig{InstrumentationProvider: provider})
	require.NoError(t, err)
	assert.NoError(t, srv.Shutdown(context.Background()))
}
