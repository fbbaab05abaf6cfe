package project

import (
	"context"
	"errors"
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

func (r *Repo) Create(ctx context.Context, p *models.Project) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *Repo) Save(ctx context.Context, p *models.Project) error {
	return r.db.WithContext(ctx).Save(p).Error
}

// Get returns gorm.ErrRecordNotFound when the id is unknown.
func (r *Repo) Get(ctx context.Context, id uint64) (*models.Project, error) {
	var p models.Project
	if err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// FindByName returns (nil, nil) when no project has the name.
func (r *Repo) FindByName(ctx context.Context, name string) (*models.Project, error) {
	var p models.Project
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *Repo) List(ctx context.Context) ([]models.Project, error) {
	var out []models.Project
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repo) Page(ctx context.Context, offset, limit int) ([]models.Project, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Project{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var out []models.Project
	if err := r.db.WithContext(ctx).
		Order("id ASC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// SearchByName matches keyword anywhere in the name, ignoring case.
func (r *Repo) SearchByName(ctx context.Context, keyword string) ([]models.Project, error) {
	var out []models.Project
	if err := r.db.WithContext(ctx).
		Where("LOWER(name) LIKE ?", "%"+strings.ToLower(keyword)+"%").
		Order("id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repo) ByDomain(ctx context.Context, domain string) ([]models.Project, error) {
	var out []models.Project
	if err := r.db.WithContext(ctx).
		Where("domain = ?", domain).
		Order("id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes the project with its requirements, chat sessions and messages.
func (r *Repo) Delete(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sessions := tx.Model(&models.ChatSession{}).Select("id").Where("project_id = ?", id)
		if err := tx.Where("session_id IN (?)", sessions).Delete(&models.ChatMessage{}).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", id).Delete(&models.ChatSession{}).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", id).Delete(&models.Requirement{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Project{}, "id = ?", id).Error
	})
}

func (r *Repo) Stats(ctx context.Context) (Stats, error) {
	var s Stats
	db := r.db.WithContext(ctx)
	if err := db.Model(&models.Project{}).Count(&s.TotalProjects).Error; err != nil {
		return s, err
	}
	if err := db.Model(&models.Requirement{}).Count(&s.TotalRequirements).Error; err != nil {
		return s, err
	}
	if err := db.Model(&models.Requirement{}).Where("is_analyzed = ?", true).Count(&s.AnalyzedRequirements).Error; err != nil {
		return s, err
	}
	return s, nil
}
