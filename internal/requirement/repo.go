package requirement

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/reqmaster/reqmaster/internal/models"
)

type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) DB() *gorm.DB { return r.db }

func (r *Repo) Create(ctx context.Context, req *models.Requirement) error {
	return r.db.WithContext(ctx).Create(req).Error
}

func (r *Repo) Save(ctx context.Context, req *models.Requirement) error {
	return r.db.WithContext(ctx).Omit("Project").Save(req).Error
}

func (r *Repo) ProjectExists(ctx context.Context, projectID uint64) (bool, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.Project{}).Where("id = ?", projectID).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// Get returns gorm.ErrRecordNotFound when the id is unknown. Project is preloaded.
func (r *Repo) Get(ctx context.Context, id uint64) (*models.Requirement, error) {
	var req models.Requirement
	if err := r.db.WithContext(ctx).Preload("Project").First(&req, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *Repo) find(ctx context.Context, query any, args ...any) ([]models.Requirement, error) {
	q := r.db.WithContext(ctx).Preload("Project").Order("id ASC")
	if query != nil {
		q = q.Where(query, args...)
	}
	var out []models.Requirement
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repo) List(ctx context.Context) ([]models.Requirement, error) {
	return r.find(ctx, nil)
}

func (r *Repo) ByProject(ctx context.Context, projectID uint64) ([]models.Requirement, error) {
	return r.find(ctx, "project_id = ?", projectID)
}

func (r *Repo) ByType(ctx context.Context, t models.RequirementType) ([]models.Requirement, error) {
	return r.find(ctx, "type = ?", t)
}

func (r *Repo) ByPriority(ctx context.Context, p models.Priority) ([]models.Requirement, error) {
	return r.find(ctx, "priority = ?", p)
}

func (r *Repo) SearchByTitle(ctx context.Context, keyword string) ([]models.Requirement, error) {
	return r.find(ctx, "LOWER(title) LIKE ?", "%"+strings.ToLower(keyword)+"%")
}

func (r *Repo) Page(ctx context.Context, offset, limit int) ([]models.Requirement, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Requirement{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var out []models.Requirement
	if err := r.db.WithContext(ctx).
		Preload("Project").
		Order("id ASC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *Repo) Delete(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Delete(&models.Requirement{}, "id = ?", id).Error
}

func (r *Repo) ProjectStats(ctx context.Context, projectID uint64) (Stats, error) {
	var s Stats
	db := r.db.WithContext(ctx)
	if err := db.Model(&models.Requirement{}).Where("project_id = ?", projectID).Count(&s.TotalRequirements).Error; err != nil {
		return s, err
	}
	if err := db.Model(&models.Requirement{}).
		Where("project_id = ? AND is_analyzed = ?", projectID, true).
		Count(&s.AnalyzedRequirements).Error; err != nil {
		return s, err
	}
	return s, nil
}

func (r *Repo) MarkAnalyzed(ctx context.Context, id uint64) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Requirement{}).
		Where("id = ?", id).
		Update("is_analyzed", true)
	return res.RowsAffected, res.Error
}
