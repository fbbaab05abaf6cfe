package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/reqmaster/reqmaster/internal/ai"
	"github.com/reqmaster/reqmaster/internal/analysis"
	"github.com/reqmaster/reqmaster/internal/chat"
	"github.com/reqmaster/reqmaster/internal/common"
	"github.com/reqmaster/reqmaster/internal/config"
	"github.com/reqmaster/reqmaster/internal/dashboard"
	"github.com/reqmaster/reqmaster/internal/project"
	"github.com/reqmaster/reqmaster/internal/requirement"
)

// Deps are the collaborators built by the entry point.
type Deps struct {
	Analyzer ai.Analyzer
	// Locker serializes chat turns; nil means in-process locking.
	Locker chat.Locker
	// Publisher enables async document parsing; nil disables it.
	Publisher analysis.Publisher
	Logger    *slog.Logger
}

type Handler struct {
	Projects     *project.Service
	Requirements *requirement.Service
	ChatSvc      *chat.Service
	Analysis     *analysis.Service
	Dashboard    *dashboard.Service

	UploadMaxBytes int64
}

func NewHandler(db *gorm.DB, cfg config.Config, deps Deps) *Handler {
	projects := project.NewService(project.NewRepo(db))
	reqs := requirement.NewService(requirement.NewRepo(db))

	chatSvc := chat.NewService(chat.NewRepo(db), deps.Analyzer, chat.Options{
		Locker:           deps.Locker,
		Logger:           deps.Logger,
		SummaryThreshold: cfg.ChatSummaryThreshold,
	})
	analysisSvc := analysis.NewService(deps.Analyzer, projects, reqs, analysis.NewJobRepo(db), analysis.Options{
		Publisher: deps.Publisher,
		Logger:    deps.Logger,
	})

	maxBytes := cfg.UploadMaxBytes
	if maxBytes <= 0 {
		maxBytes = config.DefaultUploadMaxBytes
	}
	return &Handler{
		Projects:       projects,
		Requirements:   reqs,
		ChatSvc:        chatSvc,
		Analysis:       analysisSvc,
		Dashboard:      dashboard.NewService(db),
		UploadMaxBytes: maxBytes,
	}
}

func (h *Handler) Ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "pong"})
}

// parseID reads a positive integer path parameter, writing a 400 on failure.
func parseID(c *gin.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		common.Fail(c, http.StatusBadRequest, common.CodeInvalidRequest, "invalid "+name)
		return 0, false
	}
	return id, true
}

func bindFail(c *gin.Context, err error) {
	common.Fail(c, http.StatusBadRequest, common.CodeInvalidRequest, "invalid request: "+err.Error())
}

func pageParams(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "0"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", strconv.Itoa(common.DefaultPageSize)))
	return page, size
}
