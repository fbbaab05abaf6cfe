package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/reqmaster/reqmaster/internal/common"
	"github.com/reqmaster/reqmaster/internal/config"
	"github.com/reqmaster/reqmaster/internal/httpapi/handlers"
	"github.com/reqmaster/reqmaster/internal/httpapi/middleware"
)

func NewRouter(db *gorm.DB, cfg config.Config, deps handlers.Deps) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Logger())
	r.Use(middleware.Recovery())

	r.NoRoute(func(c *gin.Context) {
		common.Fail(c, http.StatusNotFound, common.CodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		common.Fail(c, http.StatusMethodNotAllowed, common.CodeInvalidRequest, "method not allowed")
	})

	r.Use(middleware.RequestID())
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Accept", middleware.RequestIDHeader},
		ExposeHeaders:   []string{middleware.RequestIDHeader},
		MaxAge:          12 * time.Hour,
	}))
	r.Use(middleware.Metrics())

	h := handlers.NewHandler(db, cfg, deps)

	r.GET("/ping", h.Ping)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")

	projects := api.Group("/projects")
	projects.POST("", h.CreateProject)
	projects.GET("", h.ListProjects)
	projects.GET("/page", h.PageProjects)
	projects.GET("/search", h.SearchProjects)
	projects.GET("/stats", h.ProjectStats)
	projects.GET("/domain/:domain", h.ProjectsByDomain)
	projects.GET("/:id", h.GetProject)
	projects.PUT("/:id", h.UpdateProject)
	projects.DELETE("/:id", h.DeleteProject)

	reqs := api.Group("/requirements")
	reqs.POST("", h.CreateRequirement)
	reqs.GET("", h.ListRequirements)
	reqs.GET("/page", h.PageRequirements)
	reqs.GET("/search", h.SearchRequirements)
	reqs.GET("/type/:type", h.RequirementsByType)
	reqs.GET("/priority/:priority", h.RequirementsByPriority)
	reqs.GET("/project/:projectId", h.RequirementsByProject)
	reqs.GET("/project/:projectId/stats", h.RequirementProjectStats)
	reqs.GET("/:id", h.GetRequirement)
	reqs.PUT("/:id", h.UpdateRequirement)
	reqs.DELETE("/:id", h.DeleteRequirement)
	reqs.PUT("/:id/analyzed", h.MarkRequirementAnalyzed)

	chatGroup := api.Group("/chat")
	chatGroup.POST("/sessions", h.CreateChatSession)
	chatGroup.POST("/sessions/:sessionId/messages", h.SendChatMessage)
	chatGroup.GET("/sessions/:sessionId/messages", h.ListChatMessages)
	chatGroup.PUT("/sessions/:sessionId/title", h.UpdateChatTitle)
	chatGroup.POST("/sessions/:sessionId/summary", h.GenerateChatSummary)
	chatGroup.DELETE("/sessions/:sessionId", h.DeleteChatSession)
	chatGroup.GET("/projects/:projectId/sessions", h.ListProjectChatSessions)

	aiGroup := api.Group("/ai")
	aiGroup.POST("/requirements/parse-document", h.ParseDocument)
	aiGroup.POST("/requirements/parse-document/async", h.ParseDocumentAsync)
	aiGroup.GET("/requirements/:requirementId/user-stories", h.GenerateUserStories)
	aiGroup.GET("/requirements/:requirementId/completeness", h.AnalyzeCompleteness)
	aiGroup.GET("/requirements/project/:projectId/consistency", h.CheckConsistency)
	aiGroup.POST("/requirements/project/:projectId/chat", h.ChatAnalysis)
	aiGroup.GET("/jobs/:jobId", h.GetJob)

	api.GET("/dashboard", h.DashboardOverview)
	api.GET("/dashboard/projects/:projectId", h.DashboardProject)

	return r
}
