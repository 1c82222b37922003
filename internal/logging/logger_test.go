package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/storefront/internal/model"
)

func TestInitWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "storefront.log")

	l, err := Init(model.LogConfig{Level: "debug", File: path, Env: "production"})
	require.NoError(t, err)
	t.Cleanup(func() { logger = nil })

	l.Info("hello from test")
	Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello from test")
	assert.Same(t, l, Get())
}

func TestInitRejectsBadLevel(t *testing.T) {
	_, err := Init(model.LogConfig{Level: "loud", File: filepath.Join(t.TempDir(), "x.log")})
	assert.Error(t, err)
}

func TestGetBeforeInit(t *testing.T) {
	logger = nil
	assert.NotNil(t, Get())
}
