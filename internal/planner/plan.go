package planner

import "sort"

// Interval is one calendar day of a Plan.
type Interval struct {
	Date       string `json:"date"`
	WakeTime   string `json:"wakeTime"`
	Completed  bool   `json:"completed"`
	IsAdjusted bool   `json:"isAdjusted"`
}

// AdjustmentRecord is an audit entry appended on every replan.
type AdjustmentRecord struct {
	Date             string `json:"date"`
	Reason           string `json:"reason"`
	PreviousWakeTime string `json:"previousWakeTime"`
	NewWakeTime      string `json:"newWakeTime"`
}

// Plan is the wake-up schedule from the start date through TargetDate.
type Plan struct {
	CurrentWakeTime   string             `json:"currentWakeTime"`
	TargetWakeTime    string             `json:"targetWakeTime"`
	TargetDate        string             `json:"targetDate"`
	Intervals         []Interval         `json:"intervals"`
	AdjustmentHistory []AdjustmentRecord `json:"adjustmentHistory"`
}

// Clone returns a deep copy of the plan.
func (p *Plan) Clone() *Plan {
	if p == nil {
		return nil
	}
	out := *p
	out.Intervals = append([]Interval(nil), p.Intervals...)
	out.AdjustmentHistory = append([]AdjustmentRecord(nil), p.AdjustmentHistory...)
	return &out
}

// IntervalOn returns the interval scheduled for date, if any.
func (p *Plan) IntervalOn(date string) (Interval, bool) {
	if p == nil {
		return Interval{}, false
	}
	i := sort.Search(len(p.Intervals), func(i int) bool { return p.Intervals[i].Date >= date })
	if i < len(p.Intervals) && p.Intervals[i].Date == date {
		return p.Intervals[i], true
	}
	return Interval{}, false
}

// CompleteInterval returns a copy of plan with the interval on date marked
// completed. The second result is false when no interval exists for date.
func CompleteInterval(plan *Plan, date string) (*Plan, bool) {
	if plan == nil {
		return nil, false
	}
	current, ok := plan.IntervalOn(date)
	if !ok {
		return plan, false
	}
	current.Completed = true
	out := plan.Clone()
	out.Intervals = upsertByDate(out.Intervals, current)
	return out, true
}

// upsertByDate replaces the interval sharing entry's date, or inserts it,
// and returns a new slice sorted by date.
func upsertByDate(intervals []Interval, entry Interval) []Interval {
	out := make([]Interval, 0, len(intervals)+1)
	for _, iv := range intervals {
		if iv.Date != entry.Date {
			out = append(out, iv)
		}
	}
	out = append(out, entry)
	sortIntervals(out)
	return out
}

func sortIntervals(intervals []Interval) {
	sort.SliceStable(intervals, func(i, j int) bool { return intervals[i].Date < intervals[j].Date })
}
