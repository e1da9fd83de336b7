package logging

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestDisabledByDefault(t *testing.T) {
	require.NoError(t, Initialize(Options{}))
	assert.False(t, IsDebugMode())
	assert.False(t, categoryEnabled(CategoryAPI))

	// Should not panic with a no-op core
	API("request %d", 1)
	StartTimer(CategoryAPI, "noop").Stop()
}

func TestCategoryFiltering(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	InitializeCore(core, Options{Enabled: func(c string) bool { return c != "store" }})
	t.Cleanup(func() { install(nil, Options{}) })

	API("calling %s", "service")
	Store("this is filtered")
	BatchDebug("batch %d", 3)

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "api", entries[0].LoggerName)
	assert.Equal(t, "calling service", entries[0].Message)
	assert.Equal(t, "batch", entries[1].LoggerName)
	assert.Equal(t, zapcore.DebugLevel, entries[1].Level)
}

func TestWithRequestID(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	InitializeCore(core, Options{})
	t.Cleanup(func() { install(nil, Options{}) })

	WithRequestID(CategoryAPI, "abc-123").Info("done")

	entries := logs.FilterField(zapcore.Field{Key: "req", Type: zapcore.StringType, String: "abc-123"}).All()
	require.Len(t, entries, 1)
	assert.Equal(t, "done", entries[0].Message)
}

func TestTimerThreshold(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	InitializeCore(core, Options{})
	t.Cleanup(func() { install(nil, Options{}) })

	StartTimer(CategoryRender, "render").StopWithThreshold(0)
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, zapcore.WarnLevel, logs.All()[0].Level)
}

func TestInitializeFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "logs", "calc.log")

	require.NoError(t, Initialize(Options{DebugMode: true, Level: "debug", Format: "json", File: path}))
	t.Cleanup(func() { install(nil, Options{}) })

	Session("switched to %s", "limit")
	Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "switched to limit"))
	assert.True(t, strings.Contains(string(data), `"logger":"session"`))
}

func TestInitializeRejectsBadOptions(t *testing.T) {
	assert.Error(t, Initialize(Options{DebugMode: true, Level: "loud"}))
	assert.Error(t, Initialize(Options{DebugMode: true, Format: "xml"}))
	install(nil, Options{})
}

func TestConcurrentGet(t *testing.T) {
	core, _ := observer.New(zapcore.InfoLevel)
	InitializeCore(core, Options{})
	t.Cleanup(func() { install(nil, Options{}) })

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			Get(CategoryUI).Info("tick")
		}()
	}
	wg.Wait()
	assert.Same(t, Get(CategoryUI), Get(CategoryUI))
}
