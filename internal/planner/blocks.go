package planner

// Block is a maximal run of consecutive intervals sharing one wake time.
type Block struct {
	WakeTime     string `json:"wakeTime"`
	StartDate    string `json:"startDate"`
	EndDate      string `json:"endDate"`
	DaysCount    int    `json:"daysCount"`
	HasCompleted bool   `json:"hasCompleted"`
	AllCompleted bool   `json:"allCompleted"`
	HasAdjusted  bool   `json:"hasAdjusted"`
}

// GroupByWakeTime collapses date-ordered intervals into blocks. Every interval
// lands in exactly one block.
func GroupByWakeTime(intervals []Interval) []Block {
	var blocks []Block
	var cur *Block
	for _, iv := range intervals {
		if cur == nil || cur.WakeTime != iv.WakeTime {
			if cur != nil {
				blocks = append(blocks, *cur)
			}
			cur = &Block{
				WakeTime:     iv.WakeTime,
				StartDate:    iv.Date,
				AllCompleted: true,
			}
		}
		cur.EndDate = iv.Date
		cur.DaysCount++
		cur.HasCompleted = cur.HasCompleted || iv.Completed
		cur.AllCompleted = cur.AllCompleted && iv.Completed
		cur.HasAdjusted = cur.HasAdjusted || iv.IsAdjusted
	}
	if cur != nil {
		blocks = append(blocks, *cur)
	}
	return blocks
}
