package handlers

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/reqmaster/reqmaster/internal/common"
)

// upload reads the multipart "file" and "projectId" fields, bounded by
// UploadMaxBytes.
func (h *Handler) upload(c *gin.Context) (*multipart.FileHeader, uint64, bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.UploadMaxBytes)

	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			common.Fail(c, http.StatusRequestEntityTooLarge, common.CodeInvalidRequest, "文件过大")
			return nil, 0, false
		}
		common.Fail(c, http.StatusBadRequest, common.CodeInvalidRequest, "缺少上传文件")
		return nil, 0, false
	}
	projectID, err := strconv.ParseUint(c.PostForm("projectId"), 10, 64)
	if err != nil || projectID == 0 {
		common.Fail(c, http.StatusBadRequest, common.CodeInvalidRequest, "invalid projectId")
		return nil, 0, false
	}
	return fh, projectID, true
}

func (h *Handler) ParseDocument(c *gin.Context) {
	fh, projectID, ok := h.upload(c)
	if !ok {
		return
	}
	f, err := fh.Open()
	if err != nil {
		common.FailErr(c, common.OperationFailed("文档读取失败", err))
		return
	}
	defer f.Close()

	req, err := h.Analysis.ParseDocument(c.Request.Context(), projectID, fh.Filename, f)
	if err != nil {
		common.FailErr(c, err)
		return
	}
	common.OKMsg(c, "文档解析成功", req)
}

// ParseDocumentAsync stores the upload as a job and answers with its id.
func (h *Handler) ParseDocumentAsync(c *gin.Context) {
	fh, projectID, ok := h.upload(c)
	if !ok {
		return
	}
	f, err := fh.Open()
	if err != nil {
		common.FailErr(c, common.OperationFailed("文档读取失败", err))
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		common.FailErr(c, common.OperationFailed("文档读取失败", err))
		return
	}

	job, err := h.Analysis.SubmitParseJob(c.Request.Context(), projectID, fh.Filename, data)
	if err != nil {
		common.FailErr(c, err)
		return
	}
	common.OKMsg(c, "任务已提交", gin.H{"job_id": job.ID, "status": job.Status})
}

func (h *Handler) GetJob(c *gin.Context) {
	job, err := h.Analysis.GetJob(c.Request.Context(), c.Param("jobId"))
	if err != nil {
		common.FailErr(c, err)
		return
	}
	common.OK(c, job)
}

func (h *Handler) GenerateUserStories(c *gin.Context) {
	id, ok := parseID(c, "requirementId")
	if !ok {
		return
	}
	stories, err := h.Analysis.GenerateUserStories(c.Request.Context(), id)
	if err != nil {
		common.FailErr(c, err)
		return
	}
	common.OKMsg(c, "用户故事生成成功", stories)
}

func (h *Handler) AnalyzeCompleteness(c *gin.Context) {
	id, ok := parseID(c, "requirementId")
	if !ok {
		return
	}
	result, err := h.Analysis.AnalyzeCompleteness(c.Request.Context(), id)
	if err != nil {
		common.FailErr(c, err)
		return
	}
	common.OKMsg(c, "完整性分析完成", result)
}

func (h *Handler) CheckConsistency(c *gin.Context) {
	id, ok := parseID(c, "projectId")
	if !ok {
		return
	}
	issues, err := h.Analysis.CheckConsistency(c.Request.Context(), id)
	if err != nil {
		common.FailErr(c, err)
		return
	}
	common.OKMsg(c, "一致性检查完成", issues)
}

func (h *Handler) ChatAnalysis(c *gin.Context) {
	id, ok := parseID(c, "projectId")
	if !ok {
		return
	}
	answer, err := h.Analysis.ChatAnalysis(c.Request.Context(), id, c.Query("question"))
	if err != nil {
		common.FailErr(c, err)
		return
	}
	common.OKMsg(c, "分析完成", answer)
}
