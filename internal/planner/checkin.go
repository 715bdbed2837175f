package planner

import "sort"

// CheckIn records the scheduled and, when known, actual wake time for a day.
type CheckIn struct {
	Date                 string `json:"date"`
	ScheduledWakeMinutes int    `json:"scheduledWakeMinutes"`
	ActualWakeMinutes    *int   `json:"actualWakeMinutes,omitempty"`
	DeviationMinutes     *int   `json:"deviationMinutes,omitempty"`
}

// Missed reports whether no actual wake time was recorded.
func (c CheckIn) Missed() bool {
	return c.ActualWakeMinutes == nil
}

// LogCheckIn returns a new history with entry replacing any entry for the
// same date, sorted ascending by date. DeviationMinutes is recomputed.
func LogCheckIn(history []CheckIn, entry CheckIn) []CheckIn {
	entry.DeviationMinutes = nil
	if entry.ActualWakeMinutes != nil {
		actual := *entry.ActualWakeMinutes
		entry.ActualWakeMinutes = &actual
		dev := actual - entry.ScheduledWakeMinutes
		if dev < 0 {
			dev = -dev
		}
		entry.DeviationMinutes = &dev
	}

	out := make([]CheckIn, 0, len(history)+1)
	for _, c := range history {
		if c.Date != entry.Date {
			out = append(out, c)
		}
	}
	out = append(out, entry)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// ScheduledCheckIn builds the check-in skeleton for the plan's interval on date.
func ScheduledCheckIn(plan *Plan, date string) (CheckIn, bool, error) {
	iv, ok := plan.IntervalOn(date)
	if !ok {
		return CheckIn{}, false, nil
	}
	scheduled, err := TimeToMinutes(iv.WakeTime)
	if err != nil {
		return CheckIn{}, false, err
	}
	return CheckIn{Date: date, ScheduledWakeMinutes: scheduled}, true, nil
}

// latestActual returns the most recent entry that carries an actual wake time.
func latestActual(history []CheckIn) (CheckIn, bool) {
	var best CheckIn
	found := false
	for _, c := range history {
		if c.ActualWakeMinutes == nil {
			continue
		}
		if !found || c.Date > best.Date {
			best = c
			found = true
		}
	}
	return best, found
}

// ShouldAutoReplan inspects the most recent check-ins and reports whether
// enough of them were missed or off target to justify a replan.
func (p *Planner) ShouldAutoReplan(history []CheckIn) bool {
	if len(history) < p.policy.MinCheckIns {
		return false
	}
	recent := append([]CheckIn(nil), history...)
	sort.SliceStable(recent, func(i, j int) bool { return recent[i].Date > recent[j].Date })
	recent = recent[:p.policy.MinCheckIns]

	missed, offTarget := 0, 0
	for _, c := range recent {
		if c.Missed() {
			missed++
			continue
		}
		if c.DeviationMinutes != nil && *c.DeviationMinutes > p.policy.OffTargetMinutes {
			offTarget++
		}
	}
	return missed >= p.policy.MissedThreshold || offTarget >= p.policy.MissedThreshold
}
