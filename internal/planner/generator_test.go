package planner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testToday = time.Date(2026, 3, 10, 9, 15, 0, 0, time.UTC)

func day(n int) string {
	return FormatDate(testToday.AddDate(0, 0, n))
}

func TestGenerate_SimpleShift(t *testing.T) {
	p := New(DefaultPolicy())
	plan, err := p.Generate(GenerateRequest{
		CurrentWakeTime: "08:00",
		TargetWakeTime:  "06:00",
		TargetDate:      day(14),
	}, testToday)
	require.NoError(t, err)

	require.Len(t, plan.Intervals, 15)
	assert.Equal(t, day(0), plan.Intervals[0].Date)
	last := plan.Intervals[len(plan.Intervals)-1]
	assert.Equal(t, day(14), last.Date)
	assert.Equal(t, "06:00", last.WakeTime)

	for i, iv := range plan.Intervals {
		assert.Equal(t, day(i), iv.Date)
		assert.False(t, iv.Completed)
		assert.False(t, iv.IsAdjusted)
		m, err := TimeToMinutes(iv.WakeTime)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, m, 6*60, "overshoot on %s", iv.Date)
		assert.Less(t, m, 8*60, "no shift on %s", iv.Date)
	}

	assert.Equal(t, "07:36", plan.Intervals[0].WakeTime)
	assert.Equal(t, "07:12", plan.Intervals[3].WakeTime)
	assert.Equal(t, "06:24", plan.Intervals[11].WakeTime)
	assert.Equal(t, "08:00", plan.CurrentWakeTime)
	assert.Empty(t, plan.AdjustmentHistory)
}

func TestGenerate_NoShiftNeeded(t *testing.T) {
	p := New(DefaultPolicy())
	plan, err := p.Generate(GenerateRequest{
		CurrentWakeTime: "07:00",
		TargetWakeTime:  "07:00",
		TargetDate:      day(5),
	}, testToday)
	require.NoError(t, err)
	require.Len(t, plan.Intervals, 6)
	for _, iv := range plan.Intervals {
		assert.Equal(t, "07:00", iv.WakeTime)
	}
}

func TestGenerate_WrapsAcrossMidnight(t *testing.T) {
	p := New(DefaultPolicy())
	plan, err := p.Generate(GenerateRequest{
		CurrentWakeTime: "00:30",
		TargetWakeTime:  "23:45",
		TargetDate:      day(6),
	}, testToday)
	require.NoError(t, err)
	require.Len(t, plan.Intervals, 7)
	assert.Equal(t, "00:07", plan.Intervals[0].WakeTime)
	assert.Equal(t, "23:45", plan.Intervals[3].WakeTime)
	assert.Equal(t, "23:45", plan.Intervals[6].WakeTime)
}

func TestGenerate_TargetInPast(t *testing.T) {
	p := New(DefaultPolicy())
	for _, target := range []string{day(0), day(-3)} {
		plan, err := p.Generate(GenerateRequest{
			CurrentWakeTime: "08:00",
			TargetWakeTime:  "06:30",
			TargetDate:      target,
		}, testToday)
		require.NoError(t, err)
		require.Len(t, plan.Intervals, 1)
		assert.Equal(t, Interval{Date: target, WakeTime: "06:30"}, plan.Intervals[0])
	}
}

func TestGenerate_ExplicitStartMarksAdjusted(t *testing.T) {
	p := New(DefaultPolicy())
	plan, err := p.Generate(GenerateRequest{
		CurrentWakeTime: "08:00",
		TargetWakeTime:  "07:00",
		TargetDate:      day(9),
		StartDate:       day(2),
	}, testToday)
	require.NoError(t, err)
	require.Len(t, plan.Intervals, 8)
	assert.Equal(t, day(2), plan.Intervals[0].Date)
	for _, iv := range plan.Intervals {
		assert.True(t, iv.IsAdjusted)
	}
}

func TestGenerate_EndsExactlyOnTarget(t *testing.T) {
	p := New(DefaultPolicy())
	times := []string{"00:00", "05:17", "06:00", "07:45", "12:01", "23:59"}
	for _, cur := range times {
		for _, target := range times {
			for _, span := range []int{-1, 0, 1, 2, 7, 13, 30} {
				plan, err := p.Generate(GenerateRequest{
					CurrentWakeTime: cur,
					TargetWakeTime:  target,
					TargetDate:      day(span),
				}, testToday)
				require.NoError(t, err)
				last := plan.Intervals[len(plan.Intervals)-1]
				require.Equal(t, day(span), last.Date)
				require.Equal(t, target, last.WakeTime)
				for i := 1; i < len(plan.Intervals); i++ {
					require.Less(t, plan.Intervals[i-1].Date, plan.Intervals[i].Date)
				}
			}
		}
	}
}

func TestGenerate_CustomBlockSize(t *testing.T) {
	p := New(Policy{BlockDays: 1})
	plan, err := p.Generate(GenerateRequest{
		CurrentWakeTime: "08:00",
		TargetWakeTime:  "07:00",
		TargetDate:      day(4),
	}, testToday)
	require.NoError(t, err)
	got := make([]string, 0, len(plan.Intervals))
	for _, iv := range plan.Intervals {
		got = append(got, iv.WakeTime)
	}
	assert.Equal(t, []string{"07:45", "07:30", "07:15", "07:00", "07:00"}, got)
}

func TestGenerate_MalformedInput(t *testing.T) {
	p := New(DefaultPolicy())
	_, err := p.Generate(GenerateRequest{CurrentWakeTime: "8am", TargetWakeTime: "06:00", TargetDate: day(3)}, testToday)
	assert.ErrorIs(t, err, ErrInvalidTime)

	_, err = p.Generate(GenerateRequest{CurrentWakeTime: "08:00", TargetWakeTime: "07:+5", TargetDate: day(3)}, testToday)
	assert.ErrorIs(t, err, ErrInvalidTime)

	_, err = p.Generate(GenerateRequest{CurrentWakeTime: "08:00", TargetWakeTime: "06:00", TargetDate: "soon"}, testToday)
	assert.ErrorIs(t, err, ErrInvalidDate)

	_, err = p.Generate(GenerateRequest{CurrentWakeTime: "08:00", TargetWakeTime: "06:00", TargetDate: day(3), StartDate: "x"}, testToday)
	assert.ErrorIs(t, err, ErrInvalidDate)
}
