package xrotate

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureWriter 记录收到的 Record
type captureWriter struct {
	mu      sync.Mutex
	records []Record
}

func (c *captureWriter) WriteRecord(rec Record) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = append(c.records, rec)
	return nil
}

func (c *captureWriter) last(t *testing.T) Record {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	require.NotEmpty(t, c.records)
	return c.records[len(c.records)-1]
}

func TestSlogHandler_Level(t *testing.T) {
	w := &captureWriter{}
	logger := slog.New(NewSlogHandler(w, &slog.HandlerOptions{Level: slog.LevelWarn}))

	logger.Info("skip")
	logger.Warn("keep")
	require.Len(t, w.records, 1)
	assert.Equal(t, "keep", w.records[0].Message)
	assert.Equal(t, slog.LevelWarn, w.records[0].Level)
	assert.False(t, w.records[0].Time.IsZero())
}

func TestSlogHandler_DefaultLevel(t *testing.T) {
	h := NewSlogHandler(&captureWriter{}, nil)
	assert.False(t, h.Enabled(context.Background(), slog.LevelDebug))
	assert.True(t, h.Enabled(context.Background(), slog.LevelInfo))
}

func TestSlogHandler_AttrsAndGroups(t *testing.T) {
	w := &captureWriter{}
	logger := slog.New(NewSlogHandler(w, nil)).
		With("svc", "api").
		WithGroup("req").
		With("id", "r1")

	logger.Info("done", "status", 200)

	rec := w.last(t)
	out, err := NewTextFormatter(nil).Format(rec)
	require.NoError(t, err)
	assert.Contains(t, string(out), "svc=api req.id=r1 req.status=200")
}

func TestSlogHandler_EmptyGroupAndAttrs(t *testing.T) {
	h := NewSlogHandler(&captureWriter{}, nil)
	assert.Same(t, h, h.WithGroup(""))
	assert.Same(t, h, h.WithAttrs(nil))
}

// TestSlogHandler_SiblingsIsolated 派生 Handler 互不影响
func TestSlogHandler_SiblingsIsolated(t *testing.T) {
	w := &captureWriter{}
	parent := slog.New(NewSlogHandler(w, nil)).With("a", 1)
	left := parent.With("b", 2)
	right := parent.With("c", 3)

	left.Info("l")
	assert.Len(t, w.last(t).Attrs, 2)
	right.Info("r")
	attrs := w.last(t).Attrs
	require.Len(t, attrs, 2)
	assert.Equal(t, "c", attrs[1].Key)
}

// TestSlogHandler_TimeRotator slog 记录按自身时间写入轮转器
func TestSlogHandler_TimeRotator(t *testing.T) {
	base := filepath.Join(t.TempDir(), "app.log")
	r, err := NewDaily(base, 0, 0, WithFormatter(NewJSONFormatter(nil)))
	require.NoError(t, err)
	defer r.Close()

	logger := slog.New(NewSlogHandler(r, nil))
	logger.Info("via slog", "k", "v")

	content := readFile(t, r.Filename())
	assert.True(t, strings.Contains(content, `"msg":"via slog"`))
	assert.True(t, strings.Contains(content, `"k":"v"`))
}
