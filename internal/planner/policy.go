package planner

import "time"

// Policy holds the tunable thresholds used by the engine.
type Policy struct {
	BlockDays              int
	RecentWindow           int
	MissedThreshold        int
	AdjustmentThreshold    int
	AdjustmentLookbackDays int
	MinCheckIns            int
	OffTargetMinutes       int
	VerificationWindow     time.Duration
}

// DefaultPolicy returns the stock thresholds: 3-day blocks and a 5-minute verification window.
func DefaultPolicy() Policy {
	return Policy{
		BlockDays:              3,
		RecentWindow:           5,
		MissedThreshold:        2,
		AdjustmentThreshold:    2,
		AdjustmentLookbackDays: 5,
		MinCheckIns:            3,
		OffTargetMinutes:       30,
		VerificationWindow:     5 * time.Minute,
	}
}

// withDefaults fills zero fields so a partially filled Policy stays usable.
func (p Policy) withDefaults() Policy {
	def := DefaultPolicy()
	if p.BlockDays <= 0 {
		p.BlockDays = def.BlockDays
	}
	if p.RecentWindow <= 0 {
		p.RecentWindow = def.RecentWindow
	}
	if p.MissedThreshold <= 0 {
		p.MissedThreshold = def.MissedThreshold
	}
	if p.AdjustmentThreshold <= 0 {
		p.AdjustmentThreshold = def.AdjustmentThreshold
	}
	if p.AdjustmentLookbackDays <= 0 {
		p.AdjustmentLookbackDays = def.AdjustmentLookbackDays
	}
	if p.MinCheckIns <= 0 {
		p.MinCheckIns = def.MinCheckIns
	}
	if p.OffTargetMinutes <= 0 {
		p.OffTargetMinutes = def.OffTargetMinutes
	}
	if p.VerificationWindow <= 0 {
		p.VerificationWindow = def.VerificationWindow
	}
	return p
}

// Planner runs the schedule algorithms under one Policy.
type Planner struct {
	policy Policy
}

// New returns a Planner for policy, with zero fields set to their defaults.
func New(policy Policy) *Planner {
	return &Planner{policy: policy.withDefaults()}
}

// Policy returns the effective policy after defaults were applied.
func (p *Planner) Policy() Policy {
	return p.policy
}
