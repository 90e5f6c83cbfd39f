package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestParseLogLevel(t *testing.T) {
	testCases := []struct {
		name  string
		input string
		want  LogLevel
	}{
		{name: "调试", input: "debug", want: DEBUG},
		{name: "大写", input: "ERROR", want: ERROR},
		{name: "warning别名", input: "warning", want: WARN},
		{name: "未知值默认info", input: "verbose", want: INFO},
		{name: "空值默认info", input: "", want: INFO},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ParseLogLevel(tc.input))
		})
	}
}

func TestNewWithLumberjackConfig(t *testing.T) {
	_, err := NewWithLumberjackConfig(INFO, LumberjackConfig{})
	assert.Error(t, err)

	file := filepath.Join(t.TempDir(), "app.log")
	l, err := NewWithLumberjackConfig(WARN, LumberjackConfig{Filename: file})
	require.NoError(t, err)

	l.Info("dropped %d", 1)
	l.With(zap.String("request_id", "abc")).Warn("project %d rejected", 7)
	l.Sync()

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	content := string(data)
	assert.NotContains(t, content, "dropped 1")
	assert.Contains(t, content, `"message":"project 7 rejected"`)
	assert.Contains(t, content, `"request_id":"abc"`)
	assert.Contains(t, content, `"level":"WARN"`)
}

type fileConfig struct{ path string }

func (c fileConfig) GetLevel() string  { return "debug" }
func (c fileConfig) GetOutput() string { return "file" }
func (c fileConfig) GetFile() string   { return c.path }

func TestInit_FileOutput(t *testing.T) {
	prev := defaultLogger
	t.Cleanup(func() { SetDefaultLogger(prev) })

	file := filepath.Join(t.TempDir(), "escrow.log")
	require.NoError(t, Init(fileConfig{path: file}))
	Debug("contribution %s", "0.5")
	Sync()

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(data), "contribution 0.5")
}
