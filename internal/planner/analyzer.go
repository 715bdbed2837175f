package planner

import (
	"sort"
	"time"
)

const (
	ReasonMissedCheckIns    = "missed 2+ check-ins recently"
	ReasonFrequentAdjusting = "plan adjusted multiple times recently"
)

// Analysis is the adherence verdict for a plan.
type Analysis struct {
	NeedsReset     bool   `json:"needsReset"`
	Reason         string `json:"reason,omitempty"`
	LatestWakeTime string `json:"latestWakeTime,omitempty"`
}

// Analyze inspects the most recent past-or-today intervals and the adjustment
// history. It favours false negatives over nagging the user.
func (p *Planner) Analyze(plan *Plan, today time.Time) Analysis {
	if plan == nil {
		return Analysis{}
	}
	todayStr := FormatDate(today)

	var recent []Interval
	for _, iv := range plan.Intervals {
		if iv.Date <= todayStr {
			recent = append(recent, iv)
		}
	}
	if len(recent) < 2 {
		return Analysis{}
	}
	sort.SliceStable(recent, func(i, j int) bool { return recent[i].Date > recent[j].Date })
	if len(recent) > p.policy.RecentWindow {
		recent = recent[:p.policy.RecentWindow]
	}

	missed := 0
	latest := ""
	for _, iv := range recent {
		if !iv.Completed && iv.Date != todayStr {
			missed++
		}
		if iv.Completed && latest == "" {
			latest = iv.WakeTime
		}
	}
	if latest == "" {
		latest = plan.CurrentWakeTime
	}

	cutoff := FormatDate(today.AddDate(0, 0, -p.policy.AdjustmentLookbackDays))
	adjustments := 0
	for _, rec := range plan.AdjustmentHistory {
		if rec.Date >= cutoff && rec.Date <= todayStr {
			adjustments++
		}
	}

	switch {
	case missed >= p.policy.MissedThreshold:
		return Analysis{NeedsReset: true, Reason: ReasonMissedCheckIns, LatestWakeTime: latest}
	case adjustments >= p.policy.AdjustmentThreshold:
		return Analysis{NeedsReset: true, Reason: ReasonFrequentAdjusting, LatestWakeTime: latest}
	default:
		return Analysis{LatestWakeTime: latest}
	}
}

// RecentlyReplanned reports whether plan already carries an adjustment with
// reason dated inside the adjustment lookback window ending today.
func (p *Planner) RecentlyReplanned(plan *Plan, reason string, today time.Time) bool {
	if plan == nil {
		return false
	}
	todayStr := FormatDate(today)
	cutoff := FormatDate(today.AddDate(0, 0, -p.policy.AdjustmentLookbackDays))
	for _, rec := range plan.AdjustmentHistory {
		if rec.Reason == reason && rec.Date >= cutoff && rec.Date <= todayStr {
			return true
		}
	}
	return false
}
