package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"wakeup-planner/internal/model"
	"wakeup-planner/internal/planner"
	"wakeup-planner/internal/repository"
)

const ReasonManualReplan = "manual replan"

var (
	ErrNoPlan          = errors.New("no active wake plan")
	ErrNoIntervalToday = errors.New("no wake-up scheduled for this day")
)

var validate = validator.New()

// PlanInput represents data required to set up a plan.
type PlanInput struct {
	CurrentWakeTime string `validate:"required,datetime=15:04"`
	TargetWakeTime  string `validate:"required,datetime=15:04"`
	TargetDate      string `validate:"required,datetime=2006-01-02"`
}

// CheckInResult describes a recorded wake report.
type CheckInResult struct {
	Entry    planner.CheckIn
	Verified bool
}

// PlanService wraps wake plan use cases.
type PlanService struct {
	planRepo    *repository.PlanRepository
	checkInRepo *repository.CheckInRepository
	planner     *planner.Planner
	locks       *UserLocks
	log         *zap.SugaredLogger
}

func NewPlanService(planRepo *repository.PlanRepository, checkInRepo *repository.CheckInRepository, p *planner.Planner, locks *UserLocks, log *zap.SugaredLogger) *PlanService {
	return &PlanService{planRepo: planRepo, checkInRepo: checkInRepo, planner: p, locks: locks, log: log}
}

// CreatePlan generates a fresh plan starting today, replacing any previous plan and its check-ins.
func (s *PlanService) CreatePlan(ctx context.Context, user *model.User, input PlanInput, now time.Time) (*planner.Plan, error) {
	if err := validate.Struct(input); err != nil {
		return nil, fmt.Errorf("invalid plan input: %w", err)
	}

	plan, err := s.planner.Generate(planner.GenerateRequest{
		CurrentWakeTime: input.CurrentWakeTime,
		TargetWakeTime:  input.TargetWakeTime,
		TargetDate:      input.TargetDate,
	}, now)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(user.ID)
	defer unlock()
	if err := s.planRepo.SaveWithHistory(ctx, user.ID, plan, nil); err != nil {
		return nil, err
	}

	s.log.Infow("plan created", "user", user.ID, "from", plan.CurrentWakeTime, "to", plan.TargetWakeTime,
		"by", plan.TargetDate, "days", len(plan.Intervals))
	return plan, nil
}

func (s *PlanService) GetPlan(ctx context.Context, user *model.User) (*planner.Plan, error) {
	plan, err := s.planRepo.Get(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, ErrNoPlan
	}
	return plan, nil
}

// ResetPlan drops the plan together with its check-in log.
func (s *PlanService) ResetPlan(ctx context.Context, user *model.User) error {
	unlock := s.locks.Lock(user.ID)
	defer unlock()
	if err := s.planRepo.DeleteWithHistory(ctx, user.ID); err != nil {
		return err
	}
	s.log.Infow("plan reset", "user", user.ID)
	return nil
}

func (s *PlanService) NextWakeUp(ctx context.Context, user *model.User, now time.Time) (*planner.WakeUp, error) {
	plan, err := s.GetPlan(ctx, user)
	if err != nil {
		return nil, err
	}
	return s.planner.NextWakeUp(plan, now), nil
}

func (s *PlanService) Blocks(ctx context.Context, user *model.User) ([]planner.Block, error) {
	plan, err := s.GetPlan(ctx, user)
	if err != nil {
		return nil, err
	}
	return planner.GroupByWakeTime(plan.Intervals), nil
}

func (s *PlanService) Analyze(ctx context.Context, user *model.User, now time.Time) (planner.Analysis, error) {
	plan, err := s.GetPlan(ctx, user)
	if err != nil {
		return planner.Analysis{}, err
	}
	return s.planner.Analyze(plan, now), nil
}

func (s *PlanService) History(ctx context.Context, user *model.User) ([]planner.CheckIn, error) {
	return s.checkInRepo.List(ctx, user.ID)
}

// CheckIn records that the user woke up at `at`, as reported at server time
// now. Only a live report, made within the verification window of `at`, can
// complete the day's interval; backfilled or future-dated reports are logged.
func (s *PlanService) CheckIn(ctx context.Context, user *model.User, at, now time.Time) (CheckInResult, error) {
	unlock := s.locks.Lock(user.ID)
	defer unlock()

	plan, err := s.GetPlan(ctx, user)
	if err != nil {
		return CheckInResult{}, err
	}

	date := planner.FormatDate(at)
	entry, ok, err := planner.ScheduledCheckIn(plan, date)
	if err != nil {
		return CheckInResult{}, err
	}
	if !ok {
		return CheckInResult{}, ErrNoIntervalToday
	}
	actual := at.Hour()*60 + at.Minute()
	entry.ActualWakeMinutes = &actual

	live := !at.After(now) && now.Sub(at) <= s.planner.Policy().VerificationWindow
	verified := live && s.planner.IsWithinVerificationWindow(plan, now, at)
	var updated *planner.Plan
	if verified {
		updated, _ = planner.CompleteInterval(plan, date)
	}

	history, err := s.checkInRepo.List(ctx, user.ID)
	if err != nil {
		return CheckInResult{}, err
	}
	history = planner.LogCheckIn(history, entry)
	if err := s.planRepo.SaveWithHistory(ctx, user.ID, updated, history); err != nil {
		return CheckInResult{}, err
	}

	for _, c := range history {
		if c.Date == date {
			entry = c
		}
	}
	s.log.Infow("check-in logged", "user", user.ID, "date", date, "actual", planner.MinutesToTime(actual),
		"live", live, "verified", verified)
	return CheckInResult{Entry: entry, Verified: verified}, nil
}

// Replan rebases the remaining schedule on latestWakeTime starting today.
func (s *PlanService) Replan(ctx context.Context, user *model.User, latestWakeTime string, now time.Time) (*planner.Plan, error) {
	unlock := s.locks.Lock(user.ID)
	defer unlock()

	plan, err := s.GetPlan(ctx, user)
	if err != nil {
		return nil, err
	}
	next, err := s.planner.Replan(planner.ReplanRequest{
		CurrentDate:    planner.FormatDate(now),
		LatestWakeTime: latestWakeTime,
		TargetWakeTime: plan.TargetWakeTime,
		TargetDate:     plan.TargetDate,
		Reason:         ReasonManualReplan,
		OriginalPlan:   plan,
	})
	if err != nil {
		return nil, err
	}
	if err := s.planRepo.Save(ctx, user.ID, next); err != nil {
		return nil, err
	}
	s.log.Infow("plan replanned", "user", user.ID, "reason", ReasonManualReplan, "from", plan.CurrentWakeTime, "to", next.CurrentWakeTime)
	return next, nil
}
