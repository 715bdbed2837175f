package model

import (
	"slices"
	"time"

	"wakeup-planner/internal/planner"
)

// WakePlan is the persisted form of a user's wake-up schedule. Intervals and
// the adjustment trail are stored as JSON columns keyed by ISO dates.
type WakePlan struct {
	ID                uint                       `gorm:"primaryKey"`
	UserID            uint                       `gorm:"uniqueIndex"`
	CurrentWakeTime   string                     `gorm:"size:5"`
	TargetWakeTime    string                     `gorm:"size:5"`
	TargetDate        string                     `gorm:"size:10"`
	Intervals         []planner.Interval         `gorm:"serializer:json"`
	AdjustmentHistory []planner.AdjustmentRecord `gorm:"serializer:json"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (p *WakePlan) ToPlan() *planner.Plan {
	return &planner.Plan{
		CurrentWakeTime:   p.CurrentWakeTime,
		TargetWakeTime:    p.TargetWakeTime,
		TargetDate:        p.TargetDate,
		Intervals:         slices.Clone(p.Intervals),
		AdjustmentHistory: slices.Clone(p.AdjustmentHistory),
	}
}

// Apply copies plan into the record, keeping its identity.
func (p *WakePlan) Apply(plan *planner.Plan) {
	p.CurrentWakeTime = plan.CurrentWakeTime
	p.TargetWakeTime = plan.TargetWakeTime
	p.TargetDate = plan.TargetDate
	p.Intervals = slices.Clone(plan.Intervals)
	p.AdjustmentHistory = slices.Clone(plan.AdjustmentHistory)
}
