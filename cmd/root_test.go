package cmd

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRootCommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	for _, want := range []string{"chat", "ask", "configure", "auth", "serve", "version"} {
		assert.True(t, names[want], "missing command %q", want)
	}
}

func TestRunServe_UnsupportedTransport(t *testing.T) {
	err := runServe(context.Background(), "carrier-pigeon", "", MetricsConfig{})
	assert.ErrorContains(t, err, "unsupported transport type: carrier-pigeon")
}

func TestServeFlagsDefaults(t *testing.T) {
	cmd := newServeCmd()

	transport, err := cmd.Flags().GetString("transport")
	assert.NoError(t, err)
	assert.Equal(t, transportStdio, transport)

	metrics, err := cmd.Flags().GetBool("metrics")
	assert.NoError(t, err)
	assert.True(t, metrics)
}
