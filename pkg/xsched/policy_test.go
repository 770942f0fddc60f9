package xsched

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// ParseWhen / StampLayout
// =============================================================================

func TestParseWhen(t *testing.T) {
	cases := []struct {
		in   string
		want When
	}{
		{"S", Second},
		{"m", Minute},
		{"H", Hour},
		{"d", Day},
		{"MIDNIGHT", Midnight},
		{"midnight", Midnight},
		{"W0", Monday},
		{"w3", Thursday},
		{"W6", Sunday},
	}
	for _, c := range cases {
		got, err := ParseWhen(c.in)
		require.NoError(t, err, c.in)
		assert.Equal(t, c.want, got, c.in)
	}
}

func TestParseWhenUnknown(t *testing.T) {
	for _, in := range []string{"", "X", "W7", "SECONDS"} {
		_, err := ParseWhen(in)
		assert.ErrorIs(t, err, ErrUnknownWhen, in)
	}
}

func TestStampLayoutGranularity(t *testing.T) {
	assert.Equal(t, "2006-01-02_15-04-05", Second.StampLayout())
	assert.Equal(t, "2006-01-02_15-04", Minute.StampLayout())
	assert.Equal(t, "2006-01-02_15", Hour.StampLayout())
	assert.Equal(t, "2006-01-02", Day.StampLayout())
	assert.Equal(t, "2006-01-02", Midnight.StampLayout())
	assert.Equal(t, "2006-01-02", Friday.StampLayout())
}

// =============================================================================
// Policy 校验
// =============================================================================

func TestPolicyValidate(t *testing.T) {
	assert.NoError(t, Policy{When: Second, Interval: 1}.Validate())
	assert.NoError(t, Policy{When: Sunday, Interval: 2, UTC: true}.Validate())

	assert.ErrorIs(t, Policy{When: When(99), Interval: 1}.Validate(), ErrUnknownWhen)
	assert.ErrorIs(t, Policy{When: Hour, Interval: 0}.Validate(), ErrInvalidInterval)
	assert.ErrorIs(t, Policy{When: Hour, Interval: -1}.Validate(), ErrInvalidInterval)
}

// =============================================================================
// Next：对齐、严格递增、幂等
// =============================================================================

func TestNextSecondAligned(t *testing.T) {
	p := Policy{When: Second, Interval: 5, UTC: true}
	last := time.Date(2025, 6, 1, 12, 0, 0, 300_000_000, time.UTC)

	next := p.Next(last)
	assert.Equal(t, time.Date(2025, 6, 1, 12, 0, 5, 0, time.UTC), next)
}

func TestNextMinuteOnBoundary(t *testing.T) {
	// 输入正好在边界上时，结果必须是下一个边界而非原地踏步
	p := Policy{When: Minute, Interval: 1, UTC: true}
	last := time.Date(2025, 6, 1, 12, 30, 0, 0, time.UTC)

	next := p.Next(last)
	assert.Equal(t, time.Date(2025, 6, 1, 12, 31, 0, 0, time.UTC), next)
}

func TestNextDayElapsed(t *testing.T) {
	// D 单位按流逝时间计算，不做午夜对齐
	p := Policy{When: Day, Interval: 2, UTC: true}
	last := time.Date(2025, 6, 1, 15, 30, 0, 0, time.UTC)

	next := p.Next(last)
	assert.Equal(t, time.Date(2025, 6, 3, 15, 30, 0, 0, time.UTC), next)
}

func TestNextMidnightAligned(t *testing.T) {
	p := Policy{When: Midnight, Interval: 1, UTC: true}

	// 进程无论何时启动，边界总落在午夜
	last := time.Date(2025, 6, 1, 17, 45, 12, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC), p.Next(last))

	// 输入正好是午夜时，边界是下一个午夜
	midnight := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC), p.Next(midnight))
}

func TestNextMidnightMultiDay(t *testing.T) {
	p := Policy{When: Midnight, Interval: 3, UTC: true}
	last := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 6, 4, 0, 0, 0, 0, time.UTC), p.Next(last))
}

func TestNextWeekday(t *testing.T) {
	p := Policy{When: Monday, Interval: 1, UTC: true}

	// 2025-06-05 是星期四，下一个星期一是 06-09
	last := time.Date(2025, 6, 5, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC), p.Next(last))

	// 输入正好是星期一午夜，边界是下一个星期一
	monday := time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC), p.Next(monday))
}

func TestNextWeekdaySameDayLater(t *testing.T) {
	// 星期一当天 10 点触发 W0 策略：边界应是下一个星期一（当天午夜已过去）
	p := Policy{When: Monday, Interval: 1, UTC: true}
	last := time.Date(2025, 6, 9, 10, 0, 0, 0, time.UTC) // 星期一
	assert.Equal(t, time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC), p.Next(last))
}

func TestNextStrictlyIncreasingAndIdempotent(t *testing.T) {
	policies := []Policy{
		{When: Second, Interval: 1, UTC: true},
		{When: Second, Interval: 30, UTC: true},
		{When: Minute, Interval: 5, UTC: true},
		{When: Hour, Interval: 12, UTC: true},
		{When: Day, Interval: 1, UTC: true},
		{When: Midnight, Interval: 1, UTC: true},
		{When: Midnight, Interval: 7, UTC: true},
		{When: Wednesday, Interval: 1, UTC: true},
		{When: Sunday, Interval: 2, UTC: true},
	}
	instants := []time.Time{
		time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 6, 1, 23, 59, 59, 999_999_999, time.UTC),
		time.Date(2025, 12, 31, 12, 34, 56, 0, time.UTC),
	}
	for _, p := range policies {
		require.NoError(t, p.Validate())
		for _, last := range instants {
			first := p.Next(last)
			second := p.Next(last)

			// 幂等：相同输入两次调用结果一致
			assert.Equal(t, first, second, "%v from %v", p, last)
			// 严格递增
			assert.True(t, first.After(last), "%v from %v -> %v", p, last, first)
			// 链式调用同样严格递增
			assert.True(t, p.Next(first).After(first), "%v chain from %v", p, first)
		}
	}
}

// =============================================================================
// Due
// =============================================================================

func TestDue(t *testing.T) {
	at := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	assert.False(t, Due(at.Add(-time.Second), at))
	assert.True(t, Due(at, at)) // 边界时刻即到期
	assert.True(t, Due(at.Add(time.Second), at))
	assert.False(t, Due(at, time.Time{})) // 无已知边界
}

// =============================================================================
// CronPolicy
// =============================================================================

func TestNewCronPolicyInvalid(t *testing.T) {
	_, err := NewCronPolicy("not a cron", true)
	assert.ErrorIs(t, err, ErrInvalidCron)

	_, err = NewCronPolicy("61 * * * *", true)
	assert.ErrorIs(t, err, ErrInvalidCron)
}

func TestCronPolicyNext(t *testing.T) {
	// 每月 1 日 03:00
	c, err := NewCronPolicy("0 3 1 * *", true)
	require.NoError(t, err)
	assert.Equal(t, "0 3 1 * *", c.Expr())

	last := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	next := c.Next(last)
	assert.Equal(t, time.Date(2025, 7, 1, 3, 0, 0, 0, time.UTC), next)

	// 严格递增 + 幂等
	assert.Equal(t, next, c.Next(last))
	assert.True(t, c.Next(next).After(next))
}
