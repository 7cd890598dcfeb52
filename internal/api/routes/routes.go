package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/mockmate/mockmate/internal/api/handlers"
	"github.com/mockmate/mockmate/internal/api/middleware"
)

type Deps struct {
	Interview *handlers.InterviewHandler
	Question  *handlers.QuestionHandler
	Profile   *handlers.ProfileHandler
	CV        *handlers.CVHandler
	WS        *handlers.WSHandler
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	// Health-ish
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	// Protected routes (JWT)
	auth := r.Group("/")
	auth.Use(middleware.JWTAuth())

	auth.POST("/question/next", d.Question.Next)

	auth.POST("/interview/start", d.Interview.Start)
	auth.GET("/interview", d.Interview.List)
	auth.GET("/interview/:interview_id", d.Interview.Get)
	auth.GET("/interview/:interview_id/turns", d.Interview.Turns)
	auth.POST("/interview/:interview_id/answer", d.Interview.Answer)
	auth.POST("/interview/:interview_id/next", d.Interview.Next)
	auth.POST("/interview/:interview_id/tick", d.Interview.Tick)
	auth.POST("/interview/:interview_id/complete", d.Interview.Complete)
	auth.POST("/interview/:interview_id/abort", d.Interview.Abort)
	auth.GET("/interview/:interview_id/report", d.Interview.Report)

	auth.GET("/profile/me", d.Profile.Me)
	auth.PUT("/profile/update", d.Profile.Update)

	auth.POST("/cv/upload", d.CV.Upload)

	// WebSocket
	auth.GET("/ws/interview/:interview_id", d.WS.InterviewWS)
}
