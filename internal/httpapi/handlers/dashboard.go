package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/reqmaster/reqmaster/internal/common"
)

func (h *Handler) DashboardOverview(c *gin.Context) {
	ov, err := h.Dashboard.Overview(c.Request.Context())
	if err != nil {
		common.FailErr(c, err)
		return
	}
	common.OK(c, ov)
}

func (h *Handler) DashboardProject(c *gin.Context) {
	id, ok := parseID(c, "projectId")
	if !ok {
		return
	}
	ov, err := h.Dashboard.Project(c.Request.Context(), id)
	if err != nil {
		common.FailErr(c, err)
		return
	}
	common.OK(c, ov)
}
