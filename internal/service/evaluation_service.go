package service

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"go.uber.org/zap"

	"wakeup-planner/internal/model"
	"wakeup-planner/internal/planner"
	"wakeup-planner/internal/repository"
)

// Outcome is the result of one evaluation cycle for a user.
type Outcome struct {
	Analysis   planner.Analysis
	Replanned  bool
	Reason     string
	Plan       *planner.Plan
	NextWakeUp *planner.WakeUp
}

// UserOutcome pairs an outcome with the user it belongs to.
type UserOutcome struct {
	User    model.User
	Outcome Outcome
}

// EvaluationService runs the periodic adherence check and replans drifting plans.
type EvaluationService struct {
	userRepo    *repository.UserRepository
	planRepo    *repository.PlanRepository
	checkInRepo *repository.CheckInRepository
	planner     *planner.Planner
	locks       *UserLocks
	log         *zap.SugaredLogger
}

func NewEvaluationService(userRepo *repository.UserRepository, planRepo *repository.PlanRepository, checkInRepo *repository.CheckInRepository, p *planner.Planner, locks *UserLocks, log *zap.SugaredLogger) *EvaluationService {
	return &EvaluationService{userRepo: userRepo, planRepo: planRepo, checkInRepo: checkInRepo, planner: p, locks: locks, log: log}
}

// Evaluate inspects one user's plan. now is the snapshot of "today" for the
// whole cycle. A user without a plan yields a zero Outcome. An analysis
// replan is not repeated while one with the same reason is still inside the
// adjustment lookback window.
func (s *EvaluationService) Evaluate(ctx context.Context, user model.User, now time.Time) (Outcome, error) {
	unlock := s.locks.Lock(user.ID)
	defer unlock()

	plan, err := s.planRepo.Get(ctx, user.ID)
	if err != nil {
		return Outcome{}, err
	}
	if plan == nil {
		return Outcome{}, nil
	}

	history, err := s.checkInRepo.List(ctx, user.ID)
	if err != nil {
		return Outcome{}, err
	}
	history, logged, err := recordMissedDay(plan, history, now.AddDate(0, 0, -1))
	if err != nil {
		return Outcome{}, err
	}

	out := Outcome{Analysis: s.planner.Analyze(plan, now), Plan: plan}

	var next *planner.Plan
	if s.planner.ShouldAutoReplan(history) {
		next, err = s.planner.AutoReplan(plan, history, now)
		if err != nil {
			return Outcome{}, err
		}
		out.Reason = planner.ReasonAutoReplan
	}
	if next == nil && out.Analysis.NeedsReset && !s.planner.RecentlyReplanned(plan, out.Analysis.Reason, now) {
		next, err = s.planner.Replan(planner.ReplanRequest{
			CurrentDate:    planner.FormatDate(now),
			LatestWakeTime: out.Analysis.LatestWakeTime,
			TargetWakeTime: plan.TargetWakeTime,
			TargetDate:     plan.TargetDate,
			Reason:         out.Analysis.Reason,
			OriginalPlan:   plan,
		})
		if err != nil {
			return Outcome{}, err
		}
		out.Reason = out.Analysis.Reason
	}

	if next != nil || logged {
		if err := s.planRepo.SaveWithHistory(ctx, user.ID, next, history); err != nil {
			return Outcome{}, err
		}
	}
	if next != nil {
		out.Plan = next
		out.Replanned = true
		s.log.Infow("plan replanned", "user", user.ID, "reason", out.Reason, "from", plan.CurrentWakeTime, "to", next.CurrentWakeTime)
	} else {
		out.Reason = ""
	}
	out.NextWakeUp = s.planner.NextWakeUp(out.Plan, now)
	return out, nil
}

// EvaluateAll runs Evaluate for every user with a plan. Per-user failures are
// logged and skipped.
func (s *EvaluationService) EvaluateAll(ctx context.Context, now time.Time) ([]UserOutcome, error) {
	users, err := s.userRepo.ListWithPlans(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	results := make([]UserOutcome, 0, len(users))
	for _, user := range users {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		outcome, err := s.Evaluate(ctx, user, now)
		if err != nil {
			s.log.Warnw("evaluate plan", "user", user.ID, "error", err)
			continue
		}
		results = append(results, UserOutcome{User: user, Outcome: outcome})
	}
	return results, nil
}

// recordMissedDay logs an absent check-in for day when the plan expected a
// wake-up that was neither completed nor reported.
func recordMissedDay(plan *planner.Plan, history []planner.CheckIn, day time.Time) ([]planner.CheckIn, bool, error) {
	date := planner.FormatDate(day)
	for _, c := range history {
		if c.Date == date {
			return history, false, nil
		}
	}
	if iv, ok := plan.IntervalOn(date); !ok || iv.Completed {
		return history, false, nil
	}
	entry, _, err := planner.ScheduledCheckIn(plan, date)
	if err != nil {
		return history, false, err
	}
	return planner.LogCheckIn(history, entry), true, nil
}

// FormatOutcome renders an evaluation result as an HTML Telegram message.
func FormatOutcome(o Outcome) string {
	var b strings.Builder
	b.WriteString("🌅 <b>Проверка плана подъёма</b>\n")

	switch {
	case o.Replanned:
		b.WriteString(fmt.Sprintf("🔄 План пересчитан: %s\n", html.EscapeString(ReasonLabel(o.Reason))))
		b.WriteString(fmt.Sprintf("⏰ Новая точка отсчёта: <b>%s</b>\n", o.Plan.CurrentWakeTime))
	case o.Analysis.NeedsReset:
		b.WriteString(fmt.Sprintf("⚠️ %s\n", html.EscapeString(ReasonLabel(o.Analysis.Reason))))
	default:
		b.WriteString("✅ Всё идёт по плану.\n")
	}

	if o.NextWakeUp != nil {
		b.WriteString(fmt.Sprintf("\n🔔 Следующий подъём: <b>%s</b> в <b>%s</b>", o.NextWakeUp.Date, o.NextWakeUp.Time))
	} else if o.Plan != nil {
		b.WriteString(fmt.Sprintf("\n🏁 Цель %s к %s достигнута.", o.Plan.TargetWakeTime, o.Plan.TargetDate))
	}
	return strings.TrimSpace(b.String())
}

// ReasonLabel translates an adherence or replan reason for chat messages.
func ReasonLabel(reason string) string {
	switch reason {
	case planner.ReasonMissedCheckIns:
		return "пропущены подъёмы по плану"
	case planner.ReasonFrequentAdjusting:
		return "план слишком часто корректировался"
	case planner.ReasonAutoReplan:
		return "подстроились под фактическое время подъёма"
	case ReasonManualReplan:
		return "ручной пересчёт"
	default:
		return reason
	}
}
