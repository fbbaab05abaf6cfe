package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/reqmaster/reqmaster/internal/common"
	"github.com/reqmaster/reqmaster/internal/requirement"
)

type requirementReq struct {
	ProjectID   uint64 `json:"project_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Type        string `json:"type"`
	Priority    string `json:"priority"`
	SourceType  string `json:"source_type"`
}

func (r requirementReq) input() requirement.Input {
	return requirement.Input{
		ProjectID:   r.ProjectID,
		Title:       r.Title,
		Description: r.Description,
		Type:        r.Type,
		Priority:    r.Priority,
		SourceType:  r.SourceType,
	}
}

func (h *Handler) CreateRequirement(c *gin.Context) {
	var req requirementReq
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFail(c, err)
		return
	}
	v, err := h.Requirements.Create(c.Request.Context(), req.input())
	if err != nil {
		common.FailErr(c, err)
		return
	}
	common.OKMsg(c, "需求创建成功", v)
}

func (h *Handler) ListRequirements(c *gin.Context) {
	vs, err := h.Requirements.List(c.Request.Context())
	if err != nil {
		common.FailErr(c, err)
		return
	}
	common.OK(c, vs)
}

func (h *Handler) PageRequirements(c *gin.Context) {
	page, size := pageParams(c)
	p, err := h.Requirements.Page(c.Request.Context(), page, size)
	if err != nil {
		common.FailErr(c, err)
		return
	}
	common.OK(c, p)
}

func (h *Handler) GetRequirement(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	v, err := h.Requirements.Get(c.Request.Context(), id)
	if err != nil {
		common.FailErr(c, err)
		return
	}
	common.OK(c, v)
}

func (h *Handler) UpdateRequirement(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req requirementReq
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFail(c, err)
		return
	}
	v, err := h.Requirements.Update(c.Request.Context(), id, req.input())
	if err != nil {
		common.FailErr(c, err)
		return
	}
	common.OKMsg(c, "需求更新成功", v)
}

func (h *Handler) DeleteRequirement(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.Requirements.Delete(c.Request.Context(), id); err != nil {
		common.FailErr(c, err)
		return
	}
	common.OKMsg(c, "需求删除成功", nil)
}

func (h *Handler) RequirementsByProject(c *gin.Context) {
	id, ok := parseID(c, "projectId")
	if !ok {
		return
	}
	vs, err := h.Requirements.ByProjectView(c.Request.Context(), id)
	if err != nil {
		common.FailErr(c, err)
		return
	}
	common.OK(c, vs)
}

func (h *Handler) RequirementsByType(c *gin.Context) {
	vs, err := h.Requirements.ByType(c.Request.Context(), c.Param("type"))
	if err != nil {
		common.FailErr(c, err)
		return
	}
	common.OK(c, vs)
}

func (h *Handler) RequirementsByPriority(c *gin.Context) {
	vs, err := h.Requirements.ByPriority(c.Request.Context(), c.Param("priority"))
	if err != nil {
		common.FailErr(c, err)
		return
	}
	common.OK(c, vs)
}

func (h *Handler) SearchRequirements(c *gin.Context) {
	vs, err := h.Requirements.Search(c.Request.Context(), c.Query("keyword"))
	if err != nil {
		common.FailErr(c, err)
		return
	}
	common.OK(c, vs)
}

func (h *Handler) RequirementProjectStats(c *gin.Context) {
	id, ok := parseID(c, "projectId")
	if !ok {
		return
	}
	st, err := h.Requirements.ProjectStats(c.Request.Context(), id)
	if err != nil {
		common.FailErr(c, err)
		return
	}
	common.OK(c, st)
}

func (h *Handler) MarkRequirementAnalyzed(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	v, err := h.Requirements.MarkAnalyzed(c.Request.Context(), id)
	if err != nil {
		common.FailErr(c, err)
		return
	}
	common.OKMsg(c, "需求标记为已分析", v)
}
