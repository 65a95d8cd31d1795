package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"duebook/internal/config"
	"duebook/internal/log"
)

func TestSetupLoggerWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "duebook.log")
	cfg := &config.Config{LogLevel: "debug", LogFile: path}

	logger, closeFn, err := SetupLogger(cfg, log.ComponentTUI, true)
	require.NoError(t, err)
	logger.Debug("hello", log.FieldCount, 2)
	require.NoError(t, closeFn())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "msg=hello")
	assert.Contains(t, string(data), "component=tui")
	assert.Contains(t, string(data), "count=2")
}

func TestSetupLoggerRejectsUnknownLevel(t *testing.T) {
	_, _, err := SetupLogger(&config.Config{LogLevel: "loud"}, log.ComponentApp, false)
	assert.Error(t, err)
}

func TestInitPublisherDisabled(t *testing.T) {
	assert.Nil(t, InitPublisher(log.Discard(), &config.Config{}))
}
