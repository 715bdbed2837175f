package planner

import "time"

// WakeUp is the next pending wake-up of a plan.
type WakeUp struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

// At returns the wall-clock instant of the wake-up in loc.
func (w WakeUp) At(loc *time.Location) (time.Time, error) {
	d, err := ParseDate(w.Date)
	if err != nil {
		return time.Time{}, err
	}
	m, err := TimeToMinutes(w.Time)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(d.Year(), d.Month(), d.Day(), m/60, m%60, 0, 0, loc), nil
}

// NextWakeUp returns the first uncompleted interval dated today or later.
func (p *Planner) NextWakeUp(plan *Plan, now time.Time) *WakeUp {
	if plan == nil {
		return nil
	}
	today := FormatDate(now)
	for _, iv := range plan.Intervals {
		if !iv.Completed && iv.Date >= today {
			return &WakeUp{Date: iv.Date, Time: iv.WakeTime}
		}
	}
	return nil
}

// IsWithinVerificationWindow reports whether ts falls within the verification
// window following today's scheduled wake-up.
func (p *Planner) IsWithinVerificationWindow(plan *Plan, now, ts time.Time) bool {
	next := p.NextWakeUp(plan, now)
	if next == nil || next.Date != FormatDate(now) {
		return false
	}
	scheduled, err := next.At(now.Location())
	if err != nil {
		return false
	}
	return !ts.Before(scheduled) && !ts.After(scheduled.Add(p.policy.VerificationWindow))
}
