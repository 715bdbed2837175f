// Package api exposes the wake planner over HTTP for collaborators that are
// not the Telegram bot, such as an alarm app reporting real wake timestamps.
package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"wakeup-planner/internal/planner"
	"wakeup-planner/internal/repository"
	"wakeup-planner/internal/service"
)

// Server holds handler dependencies.
type Server struct {
	users   *repository.UserRepository
	plans   *service.PlanService
	planner *planner.Planner
	log     *zap.SugaredLogger
	now     func() time.Time
}

func NewServer(users *repository.UserRepository, plans *service.PlanService, p *planner.Planner, log *zap.SugaredLogger, now func() time.Time) *Server {
	return &Server{users: users, plans: plans, planner: p, log: log, now: now}
}

// Router builds the gin engine. token guards the /api group when non-empty.
func (s *Server) Router(token string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestIDMiddleware(), accessLogMiddleware(s.log))

	r.GET("/healthz", s.health)

	g := r.Group("/api", tokenMiddleware(token, s.log))
	g.POST("/preview", s.preview)
	g.GET("/users/:telegram_id/plan", s.getPlan)
	g.GET("/users/:telegram_id/check-ins", s.listCheckIns)
	g.POST("/users/:telegram_id/check-ins", s.postCheckIn)
	return r
}
