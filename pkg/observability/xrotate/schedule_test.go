package xrotate

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDailySchedule_Validation(t *testing.T) {
	tests := []struct {
		hour, minute int
		ok           bool
	}{
		{0, 0, true},
		{23, 59, true},
		{2, 30, true},
		{-1, 0, false},
		{24, 0, false},
		{0, -1, false},
		{0, 60, false},
	}
	for _, tt := range tests {
		_, err := NewDailySchedule(tt.hour, tt.minute)
		if tt.ok {
			assert.NoError(t, err, "%d:%d", tt.hour, tt.minute)
		} else {
			assert.ErrorIs(t, err, ErrInvalidConfig, "%d:%d", tt.hour, tt.minute)
		}
	}
}

func TestDailySchedule_Next(t *testing.T) {
	s, err := NewDailySchedule(2, 30)
	require.NoError(t, err)

	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{"边界之前", time.Date(2024, 3, 5, 1, 0, 0, 0, time.UTC), time.Date(2024, 3, 5, 2, 30, 0, 0, time.UTC)},
		{"恰好在边界", time.Date(2024, 3, 5, 2, 30, 0, 0, time.UTC), time.Date(2024, 3, 6, 2, 30, 0, 0, time.UTC)},
		{"边界之后", time.Date(2024, 3, 5, 2, 30, 0, 1, time.UTC), time.Date(2024, 3, 6, 2, 30, 0, 0, time.UTC)},
		{"跨月", time.Date(2024, 2, 29, 23, 0, 0, 0, time.UTC), time.Date(2024, 3, 1, 2, 30, 0, 0, time.UTC)},
		{"跨年", time.Date(2024, 12, 31, 12, 0, 0, 0, time.UTC), time.Date(2025, 1, 1, 2, 30, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.Next(tt.now))
		})
	}
}

// TestDailySchedule_DST 夏令时切换日边界仍落在墙钟 hour:minute
func TestDailySchedule_DST(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skip("时区数据不可用")
	}
	s, err := NewDailySchedule(12, 0)
	require.NoError(t, err)

	// 2024-03-10 02:00 开始夏令时，墙钟 23 小时实际只有 22 小时
	now := time.Date(2024, 3, 9, 13, 0, 0, 0, loc)
	next := s.Next(now)
	assert.Equal(t, 10, next.Day())
	assert.Equal(t, 12, next.Hour())
	assert.Equal(t, 22*time.Hour, next.Sub(now))
}

func TestNewMinuteSchedule_Validation(t *testing.T) {
	for _, every := range []int{0, 1, 5, 59} {
		_, err := NewMinuteSchedule(every)
		assert.NoError(t, err, every)
	}
	for _, every := range []int{-1, 60, 1000} {
		_, err := NewMinuteSchedule(every)
		assert.ErrorIs(t, err, ErrInvalidConfig, every)
	}
}

func TestMinuteSchedule_Next(t *testing.T) {
	tests := []struct {
		name  string
		every int
		now   time.Time
		want  time.Time
	}{
		{"每分钟", 1, time.Date(2024, 1, 1, 10, 5, 30, 0, time.UTC), time.Date(2024, 1, 1, 10, 6, 0, 0, time.UTC)},
		{"0 视为每分钟", 0, time.Date(2024, 1, 1, 10, 5, 0, 0, time.UTC), time.Date(2024, 1, 1, 10, 6, 0, 0, time.UTC)},
		{"每 5 分钟对齐", 5, time.Date(2024, 1, 1, 10, 7, 12, 0, time.UTC), time.Date(2024, 1, 1, 10, 10, 0, 0, time.UTC)},
		{"恰好在边界", 5, time.Date(2024, 1, 1, 10, 10, 0, 0, time.UTC), time.Date(2024, 1, 1, 10, 15, 0, 0, time.UTC)},
		{"跨小时", 15, time.Date(2024, 1, 1, 10, 50, 0, 0, time.UTC), time.Date(2024, 1, 1, 11, 0, 0, 0, time.UTC)},
		{"跨天", 30, time.Date(2024, 1, 1, 23, 45, 0, 0, time.UTC), time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewMinuteSchedule(tt.every)
			require.NoError(t, err)
			assert.Equal(t, tt.want, s.Next(tt.now))
		})
	}
}

// TestMinuteSchedule_EvenPeriods 相邻边界总是相差一个周期，包括不整除 60 的情况
func TestMinuteSchedule_EvenPeriods(t *testing.T) {
	shanghai, err := time.LoadLocation("Asia/Shanghai")
	require.NoError(t, err)

	for _, every := range []int{7, 13, 45, 59} {
		for _, loc := range []*time.Location{time.UTC, shanghai} {
			t.Run(fmt.Sprintf("%d_%s", every, loc), func(t *testing.T) {
				s, err := NewMinuteSchedule(every)
				require.NoError(t, err)

				now := time.Date(2024, 1, 1, 10, 58, 0, 0, loc)
				boundary := s.Next(now)
				assert.LessOrEqual(t, boundary.Sub(now), s.Period())
				for range 200 {
					next := s.Next(boundary)
					assert.Equal(t, s.Period(), next.Sub(boundary), "after %s", boundary)
					boundary = next
				}
			})
		}
	}
}

// TestMinuteSchedule_HourAligned 周期整除 60 时边界落在小时内的整数倍分钟
func TestMinuteSchedule_HourAligned(t *testing.T) {
	kathmandu, err := time.LoadLocation("Asia/Kathmandu") // UTC+5:45
	require.NoError(t, err)

	for _, every := range []int{1, 5, 15, 20, 30} {
		s, err := NewMinuteSchedule(every)
		require.NoError(t, err)
		now := time.Date(2024, 3, 5, 6, 7, 8, 0, kathmandu)
		for range 100 {
			now = s.Next(now)
			assert.Zero(t, now.Minute()%every, "every=%d at %s", every, now)
			assert.Zero(t, now.Second())
		}
	}
}

func TestCronSchedule(t *testing.T) {
	t.Run("每小时", func(t *testing.T) {
		s, err := NewCronSchedule("0 * * * *")
		require.NoError(t, err)
		now := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
		assert.Equal(t, time.Date(2024, 1, 1, 11, 0, 0, 0, time.UTC), s.Next(now))
	})

	t.Run("描述符", func(t *testing.T) {
		s, err := NewCronSchedule("@daily")
		require.NoError(t, err)
		now := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
		assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), s.Next(now))
	})

	t.Run("无效表达式", func(t *testing.T) {
		for _, expr := range []string{"", "* * *", "61 * * * *", "0 0 30 2 *"} {
			_, err := NewCronSchedule(expr)
			assert.ErrorIs(t, err, ErrInvalidConfig, expr)
		}
	})
}

// TestScheduler_StrictlyAfter 所有调度器的 Next 严格晚于 now
func TestScheduler_StrictlyAfter(t *testing.T) {
	daily, err := NewDailySchedule(0, 0)
	require.NoError(t, err)
	minute, err := NewMinuteSchedule(13)
	require.NoError(t, err)
	cronS, err := NewCronSchedule("*/10 * * * *")
	require.NoError(t, err)

	start := time.Date(2024, 2, 28, 0, 0, 0, 0, time.UTC)
	for _, s := range []Scheduler{daily, minute, cronS} {
		for i := range 500 {
			now := start.Add(time.Duration(i) * 17 * time.Minute).Add(time.Duration(i) * time.Second)
			assert.True(t, s.Next(now).After(now), "%T at %s", s, now)
		}
	}
}
