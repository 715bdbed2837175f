package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"wakeup-planner/internal/model"
	"wakeup-planner/internal/planner"
)

// PlanRepository stores one wake plan per user.
type PlanRepository struct {
	db *gorm.DB
}

func NewPlanRepository(db *gorm.DB) *PlanRepository {
	return &PlanRepository{db: db}
}

// Get returns the user's plan, or nil when none exists.
func (r *PlanRepository) Get(ctx context.Context, userID uint) (*planner.Plan, error) {
	var rec model.WakePlan
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&rec).Error
	switch {
	case err == nil:
		return rec.ToPlan(), nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, nil
	default:
		return nil, fmt.Errorf("find plan: %w", err)
	}
}

// Save replaces the user's plan with plan.
func (r *PlanRepository) Save(ctx context.Context, userID uint, plan *planner.Plan) error {
	return savePlan(r.db.WithContext(ctx), userID, plan)
}

// SaveWithHistory stores plan and swaps the user's check-in log for history
// in one transaction. A nil plan leaves the stored plan untouched.
func (r *PlanRepository) SaveWithHistory(ctx context.Context, userID uint, plan *planner.Plan, history []planner.CheckIn) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if plan != nil {
			if err := savePlan(tx, userID, plan); err != nil {
				return err
			}
		}
		return replaceCheckIns(tx, userID, history)
	})
}

// DeleteWithHistory drops the plan and its check-in log together.
func (r *PlanRepository) DeleteWithHistory(ctx context.Context, userID uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := replaceCheckIns(tx, userID, nil); err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", userID).Delete(&model.WakePlan{}).Error; err != nil {
			return fmt.Errorf("delete plan: %w", err)
		}
		return nil
	})
}

func savePlan(db *gorm.DB, userID uint, plan *planner.Plan) error {
	var rec model.WakePlan
	err := db.Where("user_id = ?", userID).First(&rec).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("find plan: %w", err)
	}
	rec.UserID = userID
	rec.Apply(plan)
	if err := db.Save(&rec).Error; err != nil {
		return fmt.Errorf("save plan: %w", err)
	}
	return nil
}
