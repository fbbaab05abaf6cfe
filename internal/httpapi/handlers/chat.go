package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/reqmaster/reqmaster/internal/common"
)

type createSessionReq struct {
	ProjectID   uint64 `json:"project_id" binding:"required"`
	Title       string `json:"title" binding:"required"`
	SessionType string `json:"session_type"`
}

func (h *Handler) CreateChatSession(c *gin.Context) {
	var req createSessionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFail(c, err)
		return
	}
	sess, err := h.ChatSvc.CreateSession(c.Request.Context(), req.ProjectID, req.Title, req.SessionType)
	if err != nil {
		common.FailErr(c, err)
		return
	}
	common.OKMsg(c, "会话创建成功", sess)
}

type sendMessageReq struct {
	Message string `json:"message"`
}

// SendChatMessage returns the assistant message. A failed completion still
// answers 200 with the apology text.
func (h *Handler) SendChatMessage(c *gin.Context) {
	id, ok := parseID(c, "sessionId")
	if !ok {
		return
	}
	var req sendMessageReq
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFail(c, err)
		return
	}
	msg, err := h.ChatSvc.SendMessage(c.Request.Context(), id, req.Message)
	if err != nil {
		common.FailErr(c, err)
		return
	}
	common.OKMsg(c, "消息发送成功", msg)
}

func (h *Handler) ListChatMessages(c *gin.Context) {
	id, ok := parseID(c, "sessionId")
	if !ok {
		return
	}
	msgs, err := h.ChatSvc.ListMessages(c.Request.Context(), id)
	if err != nil {
		common.FailErr(c, err)
		return
	}
	common.OK(c, msgs)
}

func (h *Handler) ListProjectChatSessions(c *gin.Context) {
	id, ok := parseID(c, "projectId")
	if !ok {
		return
	}
	sessions, err := h.ChatSvc.ListProjectSessions(c.Request.Context(), id)
	if err != nil {
		common.FailErr(c, err)
		return
	}
	common.OK(c, sessions)
}

func (h *Handler) DeleteChatSession(c *gin.Context) {
	id, ok := parseID(c, "sessionId")
	if !ok {
		return
	}
	if err := h.ChatSvc.DeleteSession(c.Request.Context(), id); err != nil {
		common.FailErr(c, err)
		return
	}
	common.OKMsg(c, "会话删除成功", nil)
}

type updateTitleReq struct {
	Title string `json:"title" binding:"required"`
}

func (h *Handler) UpdateChatTitle(c *gin.Context) {
	id, ok := parseID(c, "sessionId")
	if !ok {
		return
	}
	var req updateTitleReq
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFail(c, err)
		return
	}
	sess, err := h.ChatSvc.UpdateTitle(c.Request.Context(), id, req.Title)
	if err != nil {
		common.FailErr(c, err)
		return
	}
	common.OKMsg(c, "标题更新成功", sess)
}

func (h *Handler) GenerateChatSummary(c *gin.Context) {
	id, ok := parseID(c, "sessionId")
	if !ok {
		return
	}
	summary, err := h.ChatSvc.GenerateSummary(c.Request.Context(), id)
	if err != nil {
		common.FailErr(c, err)
		return
	}
	common.OKMsg(c, "摘要生成成功", gin.H{"summary": summary})
}
