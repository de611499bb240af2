package xlog_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omeyang/xroll/pkg/observability/xlog"
	"github.com/omeyang/xroll/pkg/observability/xrotate"
)

// testCleanup 测试结束时执行 cleanup
func testCleanup(t *testing.T, cleanup func() error) {
	t.Helper()
	t.Cleanup(func() {
		if err := cleanup(); err != nil {
			t.Errorf("cleanup error: %v", err)
		}
	})
}

// =============================================================================
// Logger 接口测试
// =============================================================================

func TestLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	logger, cleanup, err := xlog.New().SetOutput(&buf).SetLevel(xlog.LevelInfo).Build()
	require.NoError(t, err)
	testCleanup(t, cleanup)

	ctx := context.Background()
	logger.Debug(ctx, "debug message")
	logger.Info(ctx, "info message")
	logger.Warn(ctx, "warn message")
	logger.Error(ctx, "error message", xlog.Err(errors.New("boom")))

	out := buf.String()
	assert.NotContains(t, out, "debug message")
	assert.Contains(t, out, "info message")
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "error=boom")
}

func TestLogger_DynamicLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, cleanup, err := xlog.New().SetOutput(&buf).Build()
	require.NoError(t, err)
	testCleanup(t, cleanup)

	child := logger.With(xlog.Component("child"))
	ctx := context.Background()

	assert.False(t, logger.Enabled(ctx, xlog.LevelDebug))
	logger.SetLevel(xlog.LevelDebug)
	assert.Equal(t, xlog.LevelDebug, logger.GetLevel())

	// 派生 logger 共享 LevelVar
	child.Debug(ctx, "now visible")
	assert.Contains(t, buf.String(), "now visible")
	assert.Contains(t, buf.String(), "component=child")
}

func TestLogger_WithGroup(t *testing.T) {
	var buf bytes.Buffer
	logger, cleanup, err := xlog.New().SetOutput(&buf).SetFormat("json").Build()
	require.NoError(t, err)
	testCleanup(t, cleanup)

	logger.WithGroup("req").With(slog.String("id", "r1")).Info(context.Background(), "done")

	var m map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &m))
	req, ok := m["req"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "r1", req["id"])

	assert.Same(t, logger, logger.WithGroup(""))
	assert.Same(t, logger, logger.With())
}

func TestLogger_AddSource(t *testing.T) {
	var buf bytes.Buffer
	logger, cleanup, err := xlog.New().SetOutput(&buf).SetAddSource(true).Build()
	require.NoError(t, err)
	testCleanup(t, cleanup)

	logger.Info(context.Background(), "where")
	assert.Contains(t, buf.String(), "xlog_test.go")
}

func TestLogger_ReplaceAttrAndFixedAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger, cleanup, err := xlog.New().
		SetOutput(&buf).
		SetAttrs(slog.String("svc", "xroll")).
		SetReplaceAttr(func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == "token" {
				return slog.String("token", "***")
			}
			return a
		}).
		Build()
	require.NoError(t, err)
	testCleanup(t, cleanup)

	logger.Info(context.Background(), "login", slog.String("token", "secret"))
	assert.Contains(t, buf.String(), "svc=xroll")
	assert.Contains(t, buf.String(), "token=***")
	assert.NotContains(t, buf.String(), "secret")
}

// =============================================================================
// Builder 错误
// =============================================================================

func TestBuilder_Errors(t *testing.T) {
	tests := []struct {
		name string
		b    *xlog.Builder
	}{
		{"未知格式", xlog.New().SetFormat("xml")},
		{"未知级别", xlog.New().SetLevelString("loud")},
		{"nil 输出", xlog.New().SetOutput(nil)},
		{"nil 轮转器", xlog.New().SetRotation(nil)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, cleanup, err := tt.b.Build()
			assert.Error(t, err)
			assert.Nil(t, logger)
			assert.Nil(t, cleanup)
		})
	}
}

// TestBuilder_FirstErrorWins 保留第一个错误
func TestBuilder_FirstErrorWins(t *testing.T) {
	_, _, err := xlog.New().SetFormat("xml").SetLevelString("loud").Build()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "format")
}

// =============================================================================
// 轮转输出
// =============================================================================

func TestBuilder_SetRotation_RecordWriter(t *testing.T) {
	base := filepath.Join(t.TempDir(), "app.log")
	r, err := xrotate.NewDaily(base, 0, 0, xrotate.WithFormatter(xrotate.NewJSONFormatter(nil)))
	require.NoError(t, err)

	logger, cleanup, err := xlog.New().SetRotation(r).SetFormat("text").Build()
	require.NoError(t, err)

	logger.With(xlog.Component("api")).Info(context.Background(), "rotating", xlog.Count(3))
	require.NoError(t, cleanup())
	assert.NoError(t, cleanup(), "重复 cleanup 返回首次结果")

	data, err := os.ReadFile(r.Filename())
	require.NoError(t, err)
	// 渲染格式来自轮转器的 Formatter
	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	assert.Equal(t, "rotating", m["msg"])
	assert.Equal(t, "api", m["component"])
	assert.EqualValues(t, 3, m["count"])

	// cleanup 已关闭轮转器
	assert.ErrorIs(t, r.Close(), xrotate.ErrClosed)
}

func TestBuilder_SetRotation_PlainWriter(t *testing.T) {
	base := filepath.Join(t.TempDir(), "size.log")
	r, err := xrotate.NewSizeRotator(base)
	require.NoError(t, err)

	logger, cleanup, err := xlog.New().SetRotation(r).SetFormat("json").Build()
	require.NoError(t, err)
	logger.Info(context.Background(), "plain")
	require.NoError(t, cleanup())

	data, err := os.ReadFile(base)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "{"))
}

// =============================================================================
// 内部错误
// =============================================================================

// failingRotator 写入总是失败
type failingRotator struct{}

func (failingRotator) Write([]byte) (int, error) { return 0, errors.New("disk full") }
func (failingRotator) Flush() error              { return nil }
func (failingRotator) Close() error              { return nil }
func (failingRotator) Rotate() error             { return nil }

func TestLogger_OnError(t *testing.T) {
	var mu sync.Mutex
	var got []error
	logger, cleanup, err := xlog.New().
		SetRotation(failingRotator{}).
		SetOnError(func(err error) {
			mu.Lock()
			defer mu.Unlock()
			got = append(got, err)
		}).
		Build()
	require.NoError(t, err)
	testCleanup(t, cleanup)

	logger.Info(context.Background(), "lost")
	require.Len(t, got, 1)
	assert.Contains(t, got[0].Error(), "disk full")

	counter, ok := logger.(xlog.ErrorCounter)
	require.True(t, ok)
	assert.Equal(t, uint64(1), counter.ErrorCount())
}

func TestLogger_OnErrorPanicIsolated(t *testing.T) {
	logger, cleanup, err := xlog.New().
		SetRotation(failingRotator{}).
		SetOnError(func(error) { panic("callback") }).
		Build()
	require.NoError(t, err)
	testCleanup(t, cleanup)

	assert.NotPanics(t, func() { logger.Error(context.Background(), "x") })
	// Handle 失败 + 回调 panic
	assert.Equal(t, uint64(2), logger.(xlog.ErrorCounter).ErrorCount())
}

// TestLogger_OnErrorNoRecursion 回调内再次写日志不会无限递归
func TestLogger_OnErrorNoRecursion(t *testing.T) {
	var logger xlog.LoggerWithLevel
	calls := 0
	logger, cleanup, err := xlog.New().
		SetRotation(failingRotator{}).
		SetOnError(func(error) {
			calls++
			logger.Error(context.Background(), "inside callback")
		}).
		Build()
	require.NoError(t, err)
	testCleanup(t, cleanup)

	logger.Info(context.Background(), "x")
	assert.Equal(t, 1, calls)
}
