package cmd

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServeCommand_Flags(t *testing.T) {
	for _, name := range []string{"host", "port", "cors-origin", "max-upload-size", "timeout", "shutdown-timeout", "rate-limit-enabled", "requests-per-minute"} {
		assert.NotNil(t, serveCmd.Flags().Lookup(name), name)
	}
	assert.Contains(t, serveCmd.Long, "/recognize")
}

func TestServeCommand_InvalidConfig(t *testing.T) {
	stubEngine(t, func(image.Image) string { return "" })

	_, err := execute(t, "serve", "--names", "Gazuzu", "--port", "0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid server port")

	_, err = execute(t, "serve", "--port", "8080")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no vocabulary configured")
}
