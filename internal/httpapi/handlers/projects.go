package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/reqmaster/reqmaster/internal/common"
	"github.com/reqmaster/reqmaster/internal/project"
)

type projectReq struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Domain      string `json:"domain"`
}

func (r projectReq) input() project.Input {
	return project.Input{Name: r.Name, Description: r.Description, Domain: r.Domain}
}

func (h *Handler) CreateProject(c *gin.Context) {
	var req projectReq
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFail(c, err)
		return
	}
	p, err := h.Projects.Create(c.Request.Context(), req.input())
	if err != nil {
		common.FailErr(c, err)
		return
	}
	common.OKMsg(c, "项目创建成功", p)
}

func (h *Handler) ListProjects(c *gin.Context) {
	ps, err := h.Projects.List(c.Request.Context())
	if err != nil {
		common.FailErr(c, err)
		return
	}
	common.OK(c, ps)
}

func (h *Handler) PageProjects(c *gin.Context) {
	page, size := pageParams(c)
	p, err := h.Projects.Page(c.Request.Context(), page, size)
	if err != nil {
		common.FailErr(c, err)
		return
	}
	common.OK(c, p)
}

func (h *Handler) GetProject(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	p, err := h.Projects.Get(c.Request.Context(), id)
	if err != nil {
		common.FailErr(c, err)
		return
	}
	common.OK(c, p)
}

func (h *Handler) UpdateProject(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req projectReq
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFail(c, err)
		return
	}
	p, err := h.Projects.Update(c.Request.Context(), id, req.input())
	if err != nil {
		common.FailErr(c, err)
		return
	}
	common.OKMsg(c, "项目更新成功", p)
}

func (h *Handler) DeleteProject(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.Projects.Delete(c.Request.Context(), id); err != nil {
		common.FailErr(c, err)
		return
	}
	common.OKMsg(c, "项目删除成功", nil)
}

func (h *Handler) SearchProjects(c *gin.Context) {
	ps, err := h.Projects.Search(c.Request.Context(), c.Query("keyword"))
	if err != nil {
		common.FailErr(c, err)
		return
	}
	common.OK(c, ps)
}

func (h *Handler) ProjectsByDomain(c *gin.Context) {
	ps, err := h.Projects.ByDomain(c.Request.Context(), c.Param("domain"))
	if err != nil {
		common.FailErr(c, err)
		return
	}
	common.OK(c, ps)
}

func (h *Handler) ProjectStats(c *gin.Context) {
	st, err := h.Projects.Stats(c.Request.Context())
	if err != nil {
		common.FailErr(c, err)
		return
	}
	common.OK(c, st)
}
