package requirement

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"unicode/utf8"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/reqmaster/reqmaster/internal/common"
	"github.com/reqmaster/reqmaster/internal/models"
)

const entity = "需求"

type Stats struct {
	TotalRequirements    int64 `json:"totalRequirements"`
	AnalyzedRequirements int64 `json:"analyzedRequirements"`
}

// View is a requirement as the API shows it, with its project's name.
type View struct {
	models.Requirement
	ProjectName string `json:"project_name"`
}

func toView(r models.Requirement) View {
	v := View{Requirement: r}
	if r.Project != nil {
		v.ProjectName = r.Project.Name
	}
	return v
}

func toViews(rs []models.Requirement) []View {
	out := make([]View, 0, len(rs))
	for _, r := range rs {
		out = append(out, toView(r))
	}
	return out
}

// Input carries the writable requirement fields. Type and Priority are
// parsed case-insensitively.
type Input struct {
	ProjectID   uint64
	Title       string
	Description string
	Type        string
	Priority    string
	SourceType  string
}

type Service struct {
	repo *Repo
}

func NewService(repo *Repo) *Service {
	return &Service{repo: repo}
}

func (s *Service) validate(ctx context.Context, in Input) (*models.Requirement, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, common.Invalid("需求标题不能为空")
	}
	if utf8.RuneCountInString(title) > 200 {
		return nil, common.Invalid("需求标题长度不能超过200个字符")
	}
	if utf8.RuneCountInString(in.Description) > 5000 {
		return nil, common.Invalid("需求描述长度不能超过5000个字符")
	}
	t, ok := models.ParseRequirementType(in.Type)
	if !ok {
		return nil, common.Invalid("无效的需求类型: %s", in.Type)
	}
	p, ok := models.ParsePriority(in.Priority)
	if !ok {
		return nil, common.Invalid("无效的优先级: %s", in.Priority)
	}
	if in.ProjectID == 0 {
		return nil, common.Invalid("项目ID不能为空")
	}
	exists, err := s.repo.ProjectExists(ctx, in.ProjectID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, common.NotFound("项目", in.ProjectID)
	}

	source := strings.ToUpper(strings.TrimSpace(in.SourceType))
	if source == "" {
		source = models.SourceManual
	}
	return &models.Requirement{
		ProjectID:   in.ProjectID,
		Title:       title,
		Description: in.Description,
		Type:        t,
		Priority:    p,
		SourceType:  source,
	}, nil
}

func (s *Service) Create(ctx context.Context, in Input) (*View, error) {
	req, err := s.validate(ctx, in)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, req); err != nil {
		return nil, err
	}
	return s.Get(ctx, req.ID)
}

// Insert stores a requirement built by another workflow as is.
func (s *Service) Insert(ctx context.Context, req *models.Requirement) error {
	return s.repo.Create(ctx, req)
}

func (s *Service) Find(ctx context.Context, id uint64) (*models.Requirement, error) {
	req, err := s.repo.Get(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, common.NotFound(entity, id)
	}
	return req, err
}

func (s *Service) Get(ctx context.Context, id uint64) (*View, error) {
	req, err := s.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	v := toView(*req)
	return &v, nil
}

func (s *Service) List(ctx context.Context) ([]View, error) {
	rs, err := s.repo.List(ctx)
	return toViews(rs), err
}

func (s *Service) Page(ctx context.Context, page, size int) (common.Page[View], error) {
	page, size, offset := common.PageBounds(page, size)
	rs, total, err := s.repo.Page(ctx, offset, size)
	if err != nil {
		return common.Page[View]{}, err
	}
	return common.NewPage(toViews(rs), page, size, total), nil
}

func (s *Service) Update(ctx context.Context, id uint64, in Input) (*View, error) {
	current, err := s.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	next, err := s.validate(ctx, in)
	if err != nil {
		return nil, err
	}

	current.ProjectID = next.ProjectID
	current.Title = next.Title
	current.Description = next.Description
	current.Type = next.Type
	current.Priority = next.Priority
	current.SourceType = next.SourceType
	current.Project = nil
	if err := s.repo.Save(ctx, current); err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id uint64) error {
	if _, err := s.Find(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// ByProject returns the project's requirements; an unknown project yields an empty list.
func (s *Service) ByProject(ctx context.Context, projectID uint64) ([]models.Requirement, error) {
	return s.repo.ByProject(ctx, projectID)
}

func (s *Service) ByProjectView(ctx context.Context, projectID uint64) ([]View, error) {
	rs, err := s.repo.ByProject(ctx, projectID)
	return toViews(rs), err
}

func (s *Service) ByType(ctx context.Context, raw string) ([]View, error) {
	t, ok := models.ParseRequirementType(raw)
	if !ok {
		return nil, common.Invalid("无效的需求类型: %s", raw)
	}
	rs, err := s.repo.ByType(ctx, t)
	return toViews(rs), err
}

func (s *Service) ByPriority(ctx context.Context, raw string) ([]View, error) {
	p, ok := models.ParsePriority(raw)
	if !ok {
		return nil, common.Invalid("无效的优先级: %s", raw)
	}
	rs, err := s.repo.ByPriority(ctx, p)
	return toViews(rs), err
}

func (s *Service) Search(ctx context.Context, keyword string) ([]View, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return s.List(ctx)
	}
	rs, err := s.repo.SearchByTitle(ctx, keyword)
	return toViews(rs), err
}

func (s *Service) ProjectStats(ctx context.Context, projectID uint64) (Stats, error) {
	return s.repo.ProjectStats(ctx, projectID)
}

func (s *Service) MarkAnalyzed(ctx context.Context, id uint64) (*View, error) {
	n, err := s.repo.MarkAnalyzed(ctx, id)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, common.NotFound(entity, id)
	}
	return s.Get(ctx, id)
}

// MergeMetadata stores value under key in the requirement's metadata object,
// keeping other keys, and marks the requirement analyzed. Metadata that is
// not a JSON object is replaced.
func (s *Service) MergeMetadata(ctx context.Context, id uint64, key string, value any) error {
	encoded, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return s.repo.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var req models.Requirement
		err := tx.First(&req, "id = ?", id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return common.NotFound(entity, id)
		}
		if err != nil {
			return err
		}

		meta := map[string]json.RawMessage{}
		if len(req.Metadata) > 0 {
			if err := json.Unmarshal(req.Metadata, &meta); err != nil || meta == nil {
				meta = map[string]json.RawMessage{}
			}
		}
		meta[key] = encoded
		merged, err := json.Marshal(meta)
		if err != nil {
			return err
		}
		return tx.Model(&models.Requirement{}).Where("id = ?", id).Updates(map[string]any{
			"metadata":    datatypes.JSON(merged),
			"is_analyzed": true,
		}).Error
	})
}
