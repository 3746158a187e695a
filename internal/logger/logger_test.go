package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/aleister1102/snapcrawl/internal/config"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_DefaultLogger(t *testing.T) {
	_, err := New(config.NewDefaultLogConfig())
	require.NoError(t, err)
}

func TestBuild_FileAndExtraWriter(t *testing.T) {
	cfg := config.NewDefaultLogConfig()
	cfg.LogFile = filepath.Join(t.TempDir(), "logs", "snapcrawl.log")
	cfg.LogFormat = "json"
	cfg.LogLevel = "debug"

	var buf bytes.Buffer
	log, err := NewLoggerBuilder().WithConfig(cfg).WithConsole(false).WithWriter(&buf).Build()
	require.NoError(t, err)

	log.Debug().Str("component", "Test").Msg("hello")

	assert.Contains(t, buf.String(), `"message":"hello"`)
	data, err := os.ReadFile(cfg.LogFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello")
}

func TestBuild_NoWriters(t *testing.T) {
	_, err := NewLoggerBuilder().WithConsole(false).Build()
	assert.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	level, err := ParseLevel("WARN")
	require.NoError(t, err)
	assert.Equal(t, zerolog.WarnLevel, level)

	level, err = ParseLevel("shout")
	assert.Error(t, err)
	assert.Equal(t, zerolog.InfoLevel, level)
}

func TestParseFormat(t *testing.T) {
	assert.Equal(t, FormatJSON, ParseFormat("json"))
	assert.Equal(t, FormatText, ParseFormat("TEXT"))
	assert.Equal(t, FormatConsole, ParseFormat(""))
	assert.Equal(t, "console", FormatConsole.String())
}
