package model

import (
	"time"

	"wakeup-planner/internal/planner"
)

// CheckIn is one day's wake report. Missing ActualWakeMinutes means no report.
type CheckIn struct {
	ID                   uint   `gorm:"primaryKey"`
	UserID               uint   `gorm:"uniqueIndex:idx_user_checkin_date"`
	Date                 string `gorm:"size:10;uniqueIndex:idx_user_checkin_date"`
	ScheduledWakeMinutes int
	ActualWakeMinutes    *int
	DeviationMinutes     *int
	CreatedAt            time.Time
}

func (c CheckIn) ToEntry() planner.CheckIn {
	return planner.CheckIn{
		Date:                 c.Date,
		ScheduledWakeMinutes: c.ScheduledWakeMinutes,
		ActualWakeMinutes:    c.ActualWakeMinutes,
		DeviationMinutes:     c.DeviationMinutes,
	}
}

func CheckInFromEntry(userID uint, e planner.CheckIn) CheckIn {
	return CheckIn{
		UserID:               userID,
		Date:                 e.Date,
		ScheduledWakeMinutes: e.ScheduledWakeMinutes,
		ActualWakeMinutes:    e.ActualWakeMinutes,
		DeviationMinutes:     e.DeviationMinutes,
	}
}
