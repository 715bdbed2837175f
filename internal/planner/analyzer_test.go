package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func planFrom(intervals ...Interval) *Plan {
	return &Plan{CurrentWakeTime: "08:00", TargetWakeTime: "06:00", TargetDate: day(10), Intervals: intervals}
}

func TestAnalyze_MissedCheckIns(t *testing.T) {
	p := New(DefaultPolicy())
	plan := planFrom(
		Interval{Date: day(-4), WakeTime: "07:40", Completed: true},
		Interval{Date: day(-3), WakeTime: "07:40", Completed: true},
		Interval{Date: day(-2), WakeTime: "07:20"},
		Interval{Date: day(-1), WakeTime: "07:20"},
		Interval{Date: day(0), WakeTime: "07:20", Completed: true},
		Interval{Date: day(1), WakeTime: "07:00"},
	)
	got := p.Analyze(plan, testToday)
	assert.True(t, got.NeedsReset)
	assert.Contains(t, got.Reason, "missed")
	assert.Equal(t, "07:20", got.LatestWakeTime)
}

func TestAnalyze_TodayIsExcused(t *testing.T) {
	p := New(DefaultPolicy())
	plan := planFrom(
		Interval{Date: day(-2), WakeTime: "07:40", Completed: true},
		Interval{Date: day(-1), WakeTime: "07:40"},
		Interval{Date: day(0), WakeTime: "07:20"},
	)
	got := p.Analyze(plan, testToday)
	assert.False(t, got.NeedsReset)
	assert.Equal(t, "07:40", got.LatestWakeTime)
}

func TestAnalyze_OnlyRecentWindowCounts(t *testing.T) {
	p := New(DefaultPolicy())
	plan := planFrom(
		Interval{Date: day(-7), WakeTime: "07:50"},
		Interval{Date: day(-6), WakeTime: "07:50"},
		Interval{Date: day(-5), WakeTime: "07:50"},
		Interval{Date: day(-4), WakeTime: "07:40", Completed: true},
		Interval{Date: day(-3), WakeTime: "07:40", Completed: true},
		Interval{Date: day(-2), WakeTime: "07:40", Completed: true},
		Interval{Date: day(-1), WakeTime: "07:30", Completed: true},
		Interval{Date: day(0), WakeTime: "07:30"},
	)
	assert.False(t, p.Analyze(plan, testToday).NeedsReset)
}

func TestAnalyze_InsufficientData(t *testing.T) {
	p := New(DefaultPolicy())
	plan := planFrom(
		Interval{Date: day(0), WakeTime: "07:40"},
		Interval{Date: day(1), WakeTime: "07:40"},
	)
	got := p.Analyze(plan, testToday)
	assert.False(t, got.NeedsReset)
	assert.Empty(t, got.Reason)
	assert.Equal(t, Analysis{}, p.Analyze(nil, testToday))
}

func TestAnalyze_FallsBackToCurrentWakeTime(t *testing.T) {
	p := New(DefaultPolicy())
	plan := planFrom(
		Interval{Date: day(-1), WakeTime: "07:40"},
		Interval{Date: day(0), WakeTime: "07:40"},
	)
	got := p.Analyze(plan, testToday)
	assert.False(t, got.NeedsReset)
	assert.Equal(t, "08:00", got.LatestWakeTime)
}

func TestAnalyze_FrequentAdjustments(t *testing.T) {
	p := New(DefaultPolicy())
	plan := planFrom(
		Interval{Date: day(-1), WakeTime: "07:40", Completed: true},
		Interval{Date: day(0), WakeTime: "07:40"},
	)
	plan.AdjustmentHistory = []AdjustmentRecord{
		{Date: day(-3), Reason: ReasonAutoReplan, PreviousWakeTime: "08:00", NewWakeTime: "07:50"},
		{Date: day(-1), Reason: ReasonAutoReplan, PreviousWakeTime: "07:50", NewWakeTime: "07:45"},
	}
	got := p.Analyze(plan, testToday)
	assert.True(t, got.NeedsReset)
	assert.Equal(t, ReasonFrequentAdjusting, got.Reason)

	plan.AdjustmentHistory[0].Date = day(-9)
	assert.False(t, p.Analyze(plan, testToday).NeedsReset)
}

func TestRecentlyReplanned(t *testing.T) {
	p := New(DefaultPolicy())
	plan := planFrom(Interval{Date: day(0), WakeTime: "07:40"})
	assert.False(t, p.RecentlyReplanned(plan, ReasonMissedCheckIns, testToday))
	assert.False(t, p.RecentlyReplanned(nil, ReasonMissedCheckIns, testToday))

	plan.AdjustmentHistory = []AdjustmentRecord{
		{Date: day(-2), Reason: ReasonMissedCheckIns, PreviousWakeTime: "07:40", NewWakeTime: "08:00"},
	}
	assert.True(t, p.RecentlyReplanned(plan, ReasonMissedCheckIns, testToday))
	assert.False(t, p.RecentlyReplanned(plan, ReasonFrequentAdjusting, testToday))

	plan.AdjustmentHistory[0].Date = day(-6)
	assert.False(t, p.RecentlyReplanned(plan, ReasonMissedCheckIns, testToday))
}
