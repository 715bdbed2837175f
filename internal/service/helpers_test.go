package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"wakeup-planner/internal/model"
	"wakeup-planner/internal/planner"
	"wakeup-planner/internal/repository"
)

type fixture struct {
	users    *repository.UserRepository
	plans    *repository.PlanRepository
	checkIns *repository.CheckInRepository
	planSvc  *PlanService
	evalSvc  *EvaluationService
	user     *model.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := zap.NewNop().Sugar()
	db, err := repository.NewDB(filepath.Join(t.TempDir(), "svc.db"), log)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	f := &fixture{
		users:    repository.NewUserRepository(db),
		plans:    repository.NewPlanRepository(db),
		checkIns: repository.NewCheckInRepository(db),
	}
	p := planner.New(planner.DefaultPolicy())
	locks := NewUserLocks()
	f.planSvc = NewPlanService(f.plans, f.checkIns, p, locks, log)
	f.evalSvc = NewEvaluationService(f.users, f.plans, f.checkIns, p, locks, log)

	f.user, err = f.users.UpsertFromTelegram(context.Background(), 100, 100, "Test", "", "test")
	require.NoError(t, err)
	return f
}

var day0 = time.Date(2026, 3, 10, 21, 0, 0, 0, time.UTC)

// at returns the instant h:m on day0+offset.
func at(offset, h, m int) time.Time {
	d := day0.AddDate(0, 0, offset)
	return time.Date(d.Year(), d.Month(), d.Day(), h, m, 0, 0, time.UTC)
}

func date(offset int) string {
	return planner.FormatDate(day0.AddDate(0, 0, offset))
}

func (f *fixture) createPlan(t *testing.T) *planner.Plan {
	t.Helper()
	plan, err := f.planSvc.CreatePlan(context.Background(), f.user, PlanInput{
		CurrentWakeTime: "08:00",
		TargetWakeTime:  "06:00",
		TargetDate:      date(14),
	}, day0)
	require.NoError(t, err)
	return plan
}
