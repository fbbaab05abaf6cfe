package project

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/reqmaster/reqmaster/internal/common"
	"github.com/reqmaster/reqmaster/internal/models"
)

const entity = "项目"

type Stats struct {
	TotalProjects        int64 `json:"totalProjects"`
	TotalRequirements    int64 `json:"totalRequirements"`
	AnalyzedRequirements int64 `json:"analyzedRequirements"`
}

// Input carries the writable project fields.
type Input struct {
	Name        string
	Description string
	Domain      string
}

type Service struct {
	repo *Repo
}

func NewService(repo *Repo) *Service {
	return &Service{repo: repo}
}

func (in *Input) normalize() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Domain = strings.TrimSpace(in.Domain)
	if in.Name == "" {
		return common.Invalid("项目名称不能为空")
	}
	if utf8.RuneCountInString(in.Name) > 100 {
		return common.Invalid("项目名称不能超过100个字符")
	}
	if utf8.RuneCountInString(in.Domain) > 50 {
		return common.Invalid("项目领域不能超过50个字符")
	}
	return nil
}

func (s *Service) Create(ctx context.Context, in Input) (*models.Project, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	existing, err := s.repo.FindByName(ctx, in.Name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, common.Invalid("项目名称已存在: %s", in.Name)
	}

	p := &models.Project{Name: in.Name, Description: in.Description, Domain: in.Domain}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) Get(ctx context.Context, id uint64) (*models.Project, error) {
	p, err := s.repo.Get(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, common.NotFound(entity, id)
	}
	return p, err
}

func (s *Service) List(ctx context.Context) ([]models.Project, error) {
	return s.repo.List(ctx)
}

func (s *Service) Page(ctx context.Context, page, size int) (common.Page[models.Project], error) {
	page, size, offset := common.PageBounds(page, size)
	items, total, err := s.repo.Page(ctx, offset, size)
	if err != nil {
		return common.Page[models.Project]{}, err
	}
	return common.NewPage(items, page, size, total), nil
}

func (s *Service) Update(ctx context.Context, id uint64, in Input) (*models.Project, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Name != p.Name {
		other, err := s.repo.FindByName(ctx, in.Name)
		if err != nil {
			return nil, err
		}
		if other != nil && other.ID != id {
			return nil, common.Invalid("项目名称已存在: %s", in.Name)
		}
	}

	p.Name = in.Name
	p.Description = in.Description
	p.Domain = in.Domain
	if err := s.repo.Save(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) Delete(ctx context.Context, id uint64) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) Search(ctx context.Context, keyword string) ([]models.Project, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return s.repo.List(ctx)
	}
	return s.repo.SearchByName(ctx, keyword)
}

func (s *Service) ByDomain(ctx context.Context, domain string) ([]models.Project, error) {
	return s.repo.ByDomain(ctx, strings.TrimSpace(domain))
}

func (s *Service) Stats(ctx context.Context) (Stats, error) {
	return s.repo.Stats(ctx)
}
