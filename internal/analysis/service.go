// Package analysis runs the AI requirement workflows: document parsing,
// user stories, completeness, consistency and free-form questions.
package analysis

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"unicode/utf8"

	"gorm.io/datatypes"

	"github.com/reqmaster/reqmaster/internal/ai"
	"github.com/reqmaster/reqmaster/internal/common"
	"github.com/reqmaster/reqmaster/internal/document"
	"github.com/reqmaster/reqmaster/internal/models"
	"github.com/reqmaster/reqmaster/internal/project"
	"github.com/reqmaster/reqmaster/internal/prompt"
	"github.com/reqmaster/reqmaster/internal/requirement"
)

// Metadata keys written back onto analyzed requirements.
const (
	MetaUserStories  = "user_stories"
	MetaCompleteness = "completeness"
)

const (
	documentTitlePrefix = "从文档解析的需求集合 - "
	documentDescription = "通过AI解析文档自动生成的需求集合"
	msgUnsupportedType  = "不支持的文件类型，请上传PDF、Word或文本文件"
	msgNoRequirements   = "项目中没有需求可供分析"
)

// ExtractFunc turns an uploaded file into plain text.
type ExtractFunc func(r io.Reader, fileName string) (string, error)

type Options struct {
	Publisher Publisher
	Logger    *slog.Logger
	// Extract defaults to document.Extract.
	Extract ExtractFunc
}

type Service struct {
	analyzer  ai.Analyzer
	projects  *project.Service
	reqs      *requirement.Service
	jobs      *JobRepo
	publisher Publisher
	extract   ExtractFunc
	log       *slog.Logger
}

func NewService(analyzer ai.Analyzer, projects *project.Service, reqs *requirement.Service, jobs *JobRepo, opts Options) *Service {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Extract == nil {
		opts.Extract = document.Extract
	}
	return &Service{
		analyzer:  analyzer,
		projects:  projects,
		reqs:      reqs,
		jobs:      jobs,
		publisher: opts.Publisher,
		extract:   opts.Extract,
		log:       opts.Logger,
	}
}

// ParseDocument extracts the upload, classifies its content and stores the
// result as one analyzed requirement of the project.
func (s *Service) ParseDocument(ctx context.Context, projectID uint64, fileName string, r io.Reader) (*models.Requirement, error) {
	if !document.IsSupported(fileName) {
		return nil, common.Invalid(msgUnsupportedType)
	}
	if _, err := s.projects.Get(ctx, projectID); err != nil {
		return nil, err
	}

	content, err := s.extract(r, fileName)
	if err != nil {
		s.log.Error("document extraction failed", "file", fileName, "err", err)
		return nil, common.OperationFailed("文档解析失败", err)
	}
	s.log.Info("document extracted", "file", fileName, "chars", utf8.RuneCountInString(content))

	result, err := s.analyzer.ParseDocument(ctx, content)
	if err != nil {
		s.log.Error("document analysis failed", "file", fileName, "provider", s.analyzer.Name(), "err", err)
		return nil, common.OperationFailed("智能需求分析失败", err)
	}
	s.log.Info("document analyzed", "file", fileName, "sections", result.Sections())

	meta, err := json.Marshal(result)
	if err != nil {
		return nil, common.OperationFailed("需求元数据序列化失败", err)
	}
	req := &models.Requirement{
		ProjectID:   projectID,
		Title:       documentTitlePrefix + fileName,
		Description: documentDescription,
		Type:        models.TypeUnknown,
		Priority:    models.PriorityMedium,
		SourceType:  models.SourceDocument,
		IsAnalyzed:  true,
		Metadata:    datatypes.JSON(meta),
	}
	if err := s.reqs.Insert(ctx, req); err != nil {
		return nil, common.OperationFailed("保存解析结果失败", err)
	}
	return req, nil
}

func (s *Service) GenerateUserStories(ctx context.Context, requirementID uint64) ([]ai.UserStory, error) {
	req, err := s.reqs.Find(ctx, requirementID)
	if err != nil {
		return nil, err
	}
	stories, err := s.analyzer.GenerateUserStories(ctx, *req)
	if err != nil {
		s.log.Error("user story generation failed", "requirement_id", requirementID, "err", err)
		return nil, common.OperationFailed("生成用户故事失败", err)
	}
	if err := s.reqs.MergeMetadata(ctx, requirementID, MetaUserStories, stories); err != nil {
		return nil, common.OperationFailed("保存用户故事失败", err)
	}
	s.log.Info("user stories generated", "requirement_id", requirementID, "count", len(stories))
	return stories, nil
}

func (s *Service) AnalyzeCompleteness(ctx context.Context, requirementID uint64) (*ai.CompletenessAnalysis, error) {
	req, err := s.reqs.Find(ctx, requirementID)
	if err != nil {
		return nil, err
	}
	result, err := s.analyzer.AnalyzeCompleteness(ctx, *req)
	if err != nil {
		s.log.Error("completeness analysis failed", "requirement_id", requirementID, "err", err)
		return nil, common.OperationFailed("需求完整性分析失败", err)
	}
	if err := s.reqs.MergeMetadata(ctx, requirementID, MetaCompleteness, result); err != nil {
		return nil, common.OperationFailed("保存完整性分析失败", err)
	}
	s.log.Info("completeness analyzed", "requirement_id", requirementID, "score", result.Score)
	return result, nil
}

// CheckConsistency fails with a validation error, without calling the
// model, when the project has no requirements.
func (s *Service) CheckConsistency(ctx context.Context, projectID uint64) ([]ai.Issue, error) {
	reqs, err := s.reqs.ByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if len(reqs) == 0 {
		return nil, common.Invalid(msgNoRequirements)
	}
	issues, err := s.analyzer.CheckConsistency(ctx, reqs)
	if err != nil {
		s.log.Error("consistency check failed", "project_id", projectID, "err", err)
		return nil, common.OperationFailed("需求一致性检查失败", err)
	}
	s.log.Info("consistency checked", "project_id", projectID, "issues", len(issues))
	return issues, nil
}

func (s *Service) ChatAnalysis(ctx context.Context, projectID uint64, question string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", common.Invalid("问题不能为空")
	}
	reqs, err := s.reqs.ByProject(ctx, projectID)
	if err != nil {
		return "", err
	}
	if len(reqs) == 0 {
		return "", common.Invalid(msgNoRequirements)
	}
	answer, err := s.analyzer.Complete(ctx, prompt.ChatAnalysis(reqs, question), ai.Temperature(ai.TempChatAnalysis))
	if err != nil {
		s.log.Error("chat analysis failed", "project_id", projectID, "err", err)
		return "", common.OperationFailed("智能对话分析失败", err)
	}
	return answer, nil
}
