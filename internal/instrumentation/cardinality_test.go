package instrumentation

import "testing"

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/mcp", "/mcp"},
		{"/api/messages", "/api/messages"},
		{"/healthz", "/healthz"},
		{"/healthz/detailed", "/healthz"},
		{"/readyz", "/readyz"},
		{"/mcpx", "other"},
		{"/", "other"},
		{"", "other"},
		{"/wp-admin/setup.php", "other"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := NormalizePath(tt.path); got != tt.want {
				t.Errorf("NormalizePath(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}
