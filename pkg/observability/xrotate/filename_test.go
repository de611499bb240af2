package xrotate

import (
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// 内置命名策略
// =============================================================================

func TestDailyFilename_CalcFilename(t *testing.T) {
	ts := time.Date(2024, 3, 5, 14, 7, 9, 0, time.UTC)

	tests := []struct {
		name string
		base string
		want string
	}{
		{"带扩展名", "/var/log/app.log", "/var/log/app_2024-03-05.log"},
		{"无扩展名", "/var/log/app", "/var/log/app_2024-03-05"},
		{"多个点", "/var/log/app.v1.txt", "/var/log/app.v1_2024-03-05.txt"},
		{"点号文件", "/var/log/.hidden", "/var/log/.hidden_2024-03-05"},
		{"目录带点", "/var/log.d/app", "/var/log.d/app_2024-03-05"},
		{"相对路径", "app.log", "app_2024-03-05.log"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DailyFilename.CalcFilename(tt.base, ts))
		})
	}
}

func TestMinuteFilename_CalcFilename(t *testing.T) {
	ts := time.Date(2024, 3, 5, 4, 7, 59, 0, time.UTC)
	assert.Equal(t, "/logs/app_2024-03-05-04_07.log", MinuteFilename.CalcFilename("/logs/app.log", ts))
}

func TestLayoutFilename_ExtractSuffix(t *testing.T) {
	base := filepath.Join("logs", "app.log")

	tests := []struct {
		name     string
		calc     FilenameCalculator
		filename string
		want     string
		ok       bool
	}{
		{"daily 匹配", DailyFilename, filepath.Join("logs", "app_2024-03-05.log"), "2024-03-05", true},
		{"minute 匹配", MinuteFilename, filepath.Join("logs", "app_2024-03-05-23_59.log"), "2024-03-05-23_59", true},
		{"基础文件本身", DailyFilename, base, "", false},
		{"其他 stem", DailyFilename, filepath.Join("logs", "other_2024-03-05.log"), "", false},
		{"stem 前缀相同", DailyFilename, filepath.Join("logs", "app2_2024-03-05.log"), "", false},
		{"扩展名不同", DailyFilename, filepath.Join("logs", "app_2024-03-05.txt"), "", false},
		{"压缩备份", DailyFilename, filepath.Join("logs", "app_2024-03-05.log.gz"), "", false},
		{"后缀为空", DailyFilename, filepath.Join("logs", "app_.log"), "", false},
		{"日期非法", DailyFilename, filepath.Join("logs", "app_2024-13-05.log"), "", false},
		{"非零填充", DailyFilename, filepath.Join("logs", "app_2024-3-5.log"), "", false},
		{"布局不符", DailyFilename, filepath.Join("logs", "app_2024-03-05-10_00.log"), "", false},
		{"minute 读 daily", MinuteFilename, filepath.Join("logs", "app_2024-03-05.log"), "", false},
		{"其他目录", DailyFilename, filepath.Join("other", "app_2024-03-05.log"), "", false},
		{"空文件名", DailyFilename, "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.calc.ExtractSuffix(base, tt.filename)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

// TestLayoutFilename_RoundTrip ExtractSuffix 恢复的后缀等于时间按策略精度截断后的格式
func TestLayoutFilename_RoundTrip(t *testing.T) {
	base := "/data/log/svc.log"
	start := time.Date(2023, 12, 31, 23, 58, 0, 0, time.UTC)

	for _, tc := range []struct {
		calc   FilenameCalculator
		layout string
	}{
		{DailyFilename, DailyLayout},
		{MinuteFilename, MinuteLayout},
	} {
		for i := range 200 {
			ts := start.Add(time.Duration(i) * 37 * time.Minute)
			name := tc.calc.CalcFilename(base, ts)
			suffix, ok := tc.calc.ExtractSuffix(base, name)
			require.True(t, ok, name)
			assert.Equal(t, ts.Format(tc.layout), suffix)
		}
	}
}

// TestLayoutFilename_Ordering 生成文件名的字典序等于时间顺序
func TestLayoutFilename_Ordering(t *testing.T) {
	base := "/data/app.log"
	start := time.Date(2009, 9, 9, 9, 9, 0, 0, time.UTC)

	var names []string
	for i := range 100 {
		names = append(names, MinuteFilename.CalcFilename(base, start.Add(time.Duration(i)*53*time.Minute)))
	}
	assert.True(t, sort.StringsAreSorted(names))
}

// =============================================================================
// 自定义布局
// =============================================================================

func TestNewLayoutFilename(t *testing.T) {
	t.Run("有效布局", func(t *testing.T) {
		for _, layout := range []string{"20060102", "2006-01-02T15", "2006.01.02-15.04.05", "200601"} {
			calc, err := NewLayoutFilename(layout)
			require.NoError(t, err, layout)
			ts := time.Date(2024, 7, 8, 9, 10, 11, 0, time.UTC)
			name := calc.CalcFilename("/x/app.log", ts)
			suffix, ok := calc.ExtractSuffix("/x/app.log", name)
			assert.True(t, ok, layout)
			assert.Equal(t, ts.Format(layout), suffix)
		}
	})

	t.Run("无效布局", func(t *testing.T) {
		for _, layout := range []string{"", "2006/01/02", `2006\01`, "January-2006", "Monday", "static"} {
			_, err := NewLayoutFilename(layout)
			assert.ErrorIs(t, err, ErrInvalidConfig, layout)
		}
	})
}

// seqCalculator 自定义策略：点号分隔的紧凑日期后缀
type seqCalculator struct{}

func (seqCalculator) CalcFilename(basePath string, t time.Time) string {
	return basePath + "." + t.Format("20060102")
}

func (seqCalculator) ExtractSuffix(basePath, filename string) (string, bool) {
	prefix := basePath + "."
	if len(filename) != len(prefix)+8 || filename[:len(prefix)] != prefix {
		return "", false
	}
	return filename[len(prefix):], true
}

func TestCustomCalculator_Satisfies(t *testing.T) {
	var calc FilenameCalculator = seqCalculator{}
	ts := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	name := calc.CalcFilename("/x/app.log", ts)
	assert.Equal(t, "/x/app.log.20240102", name)

	suffix, ok := calc.ExtractSuffix("/x/app.log", name)
	assert.True(t, ok)
	assert.Equal(t, "20240102", suffix)
}
