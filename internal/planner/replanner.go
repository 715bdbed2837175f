package planner

import (
	"fmt"
	"time"
)

const ReasonAutoReplan = "auto-replan from latest check-in"

// ReplanRequest carries the inputs of a replan. OriginalPlan may be nil, in
// which case Replan is a no-op.
type ReplanRequest struct {
	CurrentDate    string
	LatestWakeTime string
	TargetWakeTime string
	TargetDate     string
	Reason         string
	OriginalPlan   *Plan
}

// Replan recalculates the schedule from CurrentDate onwards. Intervals before
// CurrentDate are kept verbatim and today's interval keeps its completion flag.
func (p *Planner) Replan(req ReplanRequest) (*Plan, error) {
	if req.OriginalPlan == nil {
		return nil, nil
	}
	fresh, err := p.Generate(GenerateRequest{
		CurrentWakeTime: req.LatestWakeTime,
		TargetWakeTime:  req.TargetWakeTime,
		TargetDate:      req.TargetDate,
		StartDate:       req.CurrentDate,
	}, time.Time{})
	if err != nil {
		return nil, fmt.Errorf("replan: %w", err)
	}

	orig := req.OriginalPlan
	intervals := make([]Interval, 0, len(orig.Intervals)+len(fresh.Intervals))
	for _, iv := range orig.Intervals {
		if iv.Date < req.CurrentDate {
			intervals = append(intervals, iv)
		}
	}
	if today, ok := orig.IntervalOn(req.CurrentDate); ok {
		today.IsAdjusted = true
		intervals = append(intervals, today)
	}
	for _, iv := range fresh.Intervals {
		if iv.Date > req.CurrentDate {
			iv.IsAdjusted = true
			intervals = append(intervals, iv)
		}
	}
	sortIntervals(intervals)

	history := make([]AdjustmentRecord, 0, len(orig.AdjustmentHistory)+1)
	history = append(history, orig.AdjustmentHistory...)
	history = append(history, AdjustmentRecord{
		Date:             req.CurrentDate,
		Reason:           req.Reason,
		PreviousWakeTime: orig.CurrentWakeTime,
		NewWakeTime:      fresh.CurrentWakeTime,
	})

	return &Plan{
		CurrentWakeTime:   fresh.CurrentWakeTime,
		TargetWakeTime:    fresh.TargetWakeTime,
		TargetDate:        req.TargetDate,
		Intervals:         intervals,
		AdjustmentHistory: history,
	}, nil
}

// AutoReplan rebases the plan on the most recent check-in with an actual wake
// time. It returns nil when there is no plan or no such check-in.
func (p *Planner) AutoReplan(plan *Plan, history []CheckIn, today time.Time) (*Plan, error) {
	if plan == nil {
		return nil, nil
	}
	latest, ok := latestActual(history)
	if !ok {
		return nil, nil
	}
	return p.Replan(ReplanRequest{
		CurrentDate:    FormatDate(today),
		LatestWakeTime: MinutesToTime(*latest.ActualWakeMinutes),
		TargetWakeTime: plan.TargetWakeTime,
		TargetDate:     plan.TargetDate,
		Reason:         ReasonAutoReplan,
		OriginalPlan:   plan,
	})
}
