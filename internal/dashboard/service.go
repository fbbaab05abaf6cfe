// Package dashboard aggregates counts for the overview pages.
package dashboard

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/reqmaster/reqmaster/internal/common"
	"github.com/reqmaster/reqmaster/internal/models"
)

const recentSessionLimit = 5

type Overview struct {
	TotalProjects               int64            `json:"totalProjects"`
	TotalRequirements           int64            `json:"totalRequirements"`
	TotalChatSessions           int64            `json:"totalChatSessions"`
	RequirementTypeDistribution map[string]int64 `json:"requirementTypeDistribution"`
	RecentActivity              Activity         `json:"recentActivity"`
}

type Activity struct {
	// LastUpdated is the newest change to any project, requirement or session.
	LastUpdated *time.Time `json:"lastUpdated"`
}

type ProjectOverview struct {
	ProjectID            uint64               `json:"projectId"`
	TotalRequirements    int64                `json:"totalRequirements"`
	AnalyzedRequirements int64                `json:"analyzedRequirements"`
	TotalChatSessions    int64                `json:"totalChatSessions"`
	RecentSessions       []models.ChatSession `json:"recentSessions"`
}

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

func (s *Service) Overview(ctx context.Context) (*Overview, error) {
	db := s.db.WithContext(ctx)
	out := &Overview{RequirementTypeDistribution: make(map[string]int64)}

	if err := db.Model(&models.Project{}).Count(&out.TotalProjects).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Requirement{}).Count(&out.TotalRequirements).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.ChatSession{}).Count(&out.TotalChatSessions).Error; err != nil {
		return nil, err
	}

	for _, t := range models.RequirementTypes() {
		out.RequirementTypeDistribution[string(t)] = 0
	}
	var rows []struct {
		Type string
		N    int64
	}
	if err := db.Model(&models.Requirement{}).
		Select("type, COUNT(*) AS n").
		Group("type").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, r := range rows {
		out.RequirementTypeDistribution[r.Type] = r.N
	}

	last, err := s.lastUpdated(ctx)
	if err != nil {
		return nil, err
	}
	out.RecentActivity.LastUpdated = last
	return out, nil
}

func (s *Service) lastUpdated(ctx context.Context) (*time.Time, error) {
	var latest *time.Time
	consider := func(model any, get func() time.Time) error {
		err := s.db.WithContext(ctx).Order("updated_at DESC").Limit(1).Take(model).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if t := get(); latest == nil || t.After(*latest) {
			latest = &t
		}
		return nil
	}

	var p models.Project
	if err := consider(&p, func() time.Time { return p.UpdatedAt }); err != nil {
		return nil, err
	}
	var r models.Requirement
	if err := consider(&r, func() time.Time { return r.UpdatedAt }); err != nil {
		return nil, err
	}
	var cs models.ChatSession
	if err := consider(&cs, func() time.Time { return cs.UpdatedAt }); err != nil {
		return nil, err
	}
	return latest, nil
}

func (s *Service) Project(ctx context.Context, projectID uint64) (*ProjectOverview, error) {
	db := s.db.WithContext(ctx)

	var n int64
	if err := db.Model(&models.Project{}).Where("id = ?", projectID).Count(&n).Error; err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, common.NotFound("项目", projectID)
	}

	out := &ProjectOverview{ProjectID: projectID}
	if err := db.Model(&models.Requirement{}).Where("project_id = ?", projectID).Count(&out.TotalRequirements).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Requirement{}).
		Where("project_id = ? AND is_analyzed = ?", projectID, true).
		Count(&out.AnalyzedRequirements).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.ChatSession{}).Where("project_id = ?", projectID).Count(&out.TotalChatSessions).Error; err != nil {
		return nil, err
	}
	if err := db.Where("project_id = ?", projectID).
		Order("updated_at DESC").
		Order("id DESC").
		Limit(recentSessionLimit).
		Find(&out.RecentSessions).Error; err != nil {
		return nil, err
	}
	if out.RecentSessions == nil {
		out.RecentSessions = []models.ChatSession{}
	}
	return out, nil
}
