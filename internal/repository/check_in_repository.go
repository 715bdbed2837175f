package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"wakeup-planner/internal/model"
	"wakeup-planner/internal/planner"
)

// CheckInRepository keeps the per-user check-in log.
type CheckInRepository struct {
	db *gorm.DB
}

func NewCheckInRepository(db *gorm.DB) *CheckInRepository {
	return &CheckInRepository{db: db}
}

// List returns the user's check-ins sorted ascending by date.
func (r *CheckInRepository) List(ctx context.Context, userID uint) ([]planner.CheckIn, error) {
	var rows []model.CheckIn
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("date ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list check-ins: %w", err)
	}
	out := make([]planner.CheckIn, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.ToEntry())
	}
	return out, nil
}

// replaceCheckIns swaps the user's whole log for history inside tx.
func replaceCheckIns(tx *gorm.DB, userID uint, history []planner.CheckIn) error {
	if err := tx.Where("user_id = ?", userID).Delete(&model.CheckIn{}).Error; err != nil {
		return fmt.Errorf("clear check-ins: %w", err)
	}
	if len(history) == 0 {
		return nil
	}
	rows := make([]model.CheckIn, 0, len(history))
	for _, e := range history {
		rows = append(rows, model.CheckInFromEntry(userID, e))
	}
	if err := tx.Create(&rows).Error; err != nil {
		return fmt.Errorf("store check-ins: %w", err)
	}
	return nil
}
