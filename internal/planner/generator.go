package planner

import (
	"fmt"
	"math"
	"time"
)

// GenerateRequest describes a new schedule. StartDate is optional; when it is
// set the request is treated as a replan and every interval is marked adjusted.
type GenerateRequest struct {
	CurrentWakeTime string
	TargetWakeTime  string
	TargetDate      string
	StartDate       string
}

// Generate builds a schedule that shifts the wake time earlier in blocks of
// Policy.BlockDays days, ending exactly on the target time at TargetDate.
func (p *Planner) Generate(req GenerateRequest, today time.Time) (*Plan, error) {
	currentMinutes, err := TimeToMinutes(req.CurrentWakeTime)
	if err != nil {
		return nil, fmt.Errorf("current wake time: %w", err)
	}
	targetMinutes, err := TimeToMinutes(req.TargetWakeTime)
	if err != nil {
		return nil, fmt.Errorf("target wake time: %w", err)
	}
	targetDate, err := ParseDate(req.TargetDate)
	if err != nil {
		return nil, fmt.Errorf("target date: %w", err)
	}

	adjusted := req.StartDate != ""
	startStr := req.StartDate
	if !adjusted {
		startStr = FormatDate(today)
	}
	startDate, err := ParseDate(startStr)
	if err != nil {
		return nil, fmt.Errorf("start date: %w", err)
	}

	daysUntilTarget := daysBetween(startDate, targetDate)
	if daysUntilTarget < 1 {
		daysUntilTarget = 1
	}

	// The journey always moves earlier; a later target wraps back across midnight.
	diff := targetMinutes - currentMinutes
	if diff > 0 {
		diff -= minutesPerDay
	}
	absDiff := float64(-diff)

	blockDays := p.policy.BlockDays
	blocks := (daysUntilTarget + blockDays - 1) / blockDays
	perBlock := absDiff / float64(blocks)

	intervals := make([]Interval, 0, daysUntilTarget+1)
	for d := 0; d < daysUntilTarget; d++ {
		day := startDate.AddDate(0, 0, d)
		if !day.Before(targetDate) {
			break
		}
		blockIndex := d / blockDays
		shift := int(math.Round(float64(blockIndex+1) * perBlock))
		intervals = append(intervals, Interval{
			Date:       FormatDate(day),
			WakeTime:   MinutesToTime(currentMinutes - shift),
			IsAdjusted: adjusted,
		})
	}
	intervals = append(intervals, Interval{
		Date:       req.TargetDate,
		WakeTime:   MinutesToTime(targetMinutes),
		IsAdjusted: adjusted,
	})

	return &Plan{
		CurrentWakeTime:   MinutesToTime(currentMinutes),
		TargetWakeTime:    MinutesToTime(targetMinutes),
		TargetDate:        req.TargetDate,
		Intervals:         dedupeByDate(intervals),
		AdjustmentHistory: []AdjustmentRecord{},
	}, nil
}

// dedupeByDate keeps the last interval seen for each date, sorted by date.
func dedupeByDate(intervals []Interval) []Interval {
	index := make(map[string]int, len(intervals))
	out := make([]Interval, 0, len(intervals))
	for _, iv := range intervals {
		if i, ok := index[iv.Date]; ok {
			out[i] = iv
			continue
		}
		index[iv.Date] = len(out)
		out = append(out, iv)
	}
	sortIntervals(out)
	return out
}
