package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"wakeup-planner/internal/model"
	"wakeup-planner/internal/planner"
	"wakeup-planner/internal/service"
)

type previewRequest struct {
	CurrentWakeTime string `json:"currentWakeTime" binding:"required"`
	TargetWakeTime  string `json:"targetWakeTime" binding:"required"`
	TargetDate      string `json:"targetDate" binding:"required"`
	StartDate       string `json:"startDate"`
}

type checkInRequest struct {
	// WokeAt defaults to the time the request arrives.
	WokeAt *time.Time `json:"wokeAt"`
}

type planView struct {
	Plan       *planner.Plan    `json:"plan"`
	Blocks     []planner.Block  `json:"blocks"`
	NextWakeUp *planner.WakeUp  `json:"nextWakeUp"`
	Analysis   planner.Analysis `json:"analysis"`
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) preview(c *gin.Context) {
	var body previewRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		handleError(c, s.log, err, http.StatusBadRequest, "invalid JSON")
		return
	}

	plan, err := s.planner.Generate(planner.GenerateRequest{
		CurrentWakeTime: body.CurrentWakeTime,
		TargetWakeTime:  body.TargetWakeTime,
		TargetDate:      body.TargetDate,
		StartDate:       body.StartDate,
	}, s.now())
	if err != nil {
		handleError(c, s.log, err, http.StatusBadRequest, "invalid plan parameters")
		return
	}

	blocks := planner.GroupByWakeTime(plan.Intervals)
	handleSuccess(c, http.StatusOK, plan, map[string]any{"blocks": blocks, "days": len(plan.Intervals)})
}

func (s *Server) getPlan(c *gin.Context) {
	user, ok := s.lookupUser(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	now := s.now()

	plan, err := s.plans.GetPlan(ctx, user)
	if err != nil {
		s.serviceError(c, err)
		return
	}
	handleSuccess(c, http.StatusOK, planView{
		Plan:       plan,
		Blocks:     planner.GroupByWakeTime(plan.Intervals),
		NextWakeUp: s.planner.NextWakeUp(plan, now),
		Analysis:   s.planner.Analyze(plan, now),
	}, nil)
}

func (s *Server) listCheckIns(c *gin.Context) {
	user, ok := s.lookupUser(c)
	if !ok {
		return
	}
	history, err := s.plans.History(c.Request.Context(), user)
	if err != nil {
		s.serviceError(c, err)
		return
	}
	handleSuccess(c, http.StatusOK, history, map[string]any{"count": len(history)})
}

func (s *Server) postCheckIn(c *gin.Context) {
	user, ok := s.lookupUser(c)
	if !ok {
		return
	}
	var body checkInRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			handleError(c, s.log, err, http.StatusBadRequest, "invalid JSON")
			return
		}
	}
	now := s.now()
	at := now
	if body.WokeAt != nil {
		at = body.WokeAt.In(now.Location())
	}

	res, err := s.plans.CheckIn(c.Request.Context(), user, at, now)
	if err != nil {
		s.serviceError(c, err)
		return
	}
	handleSuccess(c, http.StatusCreated, res.Entry, map[string]any{"verified": res.Verified})
}

func (s *Server) lookupUser(c *gin.Context) (*model.User, bool) {
	id, err := strconv.ParseInt(c.Param("telegram_id"), 10, 64)
	if err != nil {
		handleError(c, s.log, err, http.StatusBadRequest, "invalid telegram id")
		return nil, false
	}
	user, err := s.users.FindByTelegramID(c.Request.Context(), id)
	switch {
	case err == nil:
		return user, true
	case errors.Is(err, gorm.ErrRecordNotFound):
		handleError(c, s.log, fmt.Errorf("telegram id %d", id), http.StatusNotFound, "user not found")
	default:
		handleError(c, s.log, err, http.StatusInternalServerError, "lookup user")
	}
	return nil, false
}

func (s *Server) serviceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNoPlan):
		handleError(c, s.log, err, http.StatusNotFound, "plan not found")
	case errors.Is(err, service.ErrNoIntervalToday):
		handleError(c, s.log, err, http.StatusConflict, "check-in rejected")
	default:
		handleError(c, s.log, err, http.StatusInternalServerError, "request failed")
	}
}
