package chat

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/reqmaster/reqmaster/internal/models"
)

type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) CreateSession(ctx context.Context, s *models.ChatSession) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *Repo) GetSession(ctx context.Context, id uint64) (*models.ChatSession, error) {
	var s models.ChatSession
	if err := r.db.WithContext(ctx).First(&s, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *Repo) GetProject(ctx context.Context, id uint64) (*models.Project, error) {
	var p models.Project
	if err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// ListMessages returns the whole transcript oldest first.
func (r *Repo) ListMessages(ctx context.Context, sessionID uint64) ([]models.ChatMessage, error) {
	var msgs []models.ChatMessage
	if err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("timestamp ASC").
		Order("id ASC").
		Find(&msgs).Error; err != nil {
		return nil, err
	}
	return msgs, nil
}

// ListProjectSessions returns the project's sessions, most recently active first.
func (r *Repo) ListProjectSessions(ctx context.Context, projectID uint64) ([]models.ChatSession, error) {
	var out []models.ChatSession
	if err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("updated_at DESC").
		Order("id DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// AppendTurn stores a user/assistant pair and bumps the session counter in
// one transaction. It returns the new message count.
func (r *Repo) AppendTurn(ctx context.Context, sessionID uint64, user, assistant *models.ChatMessage) (int, error) {
	var count int
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		if err := tx.Create(assistant).Error; err != nil {
			return err
		}
		res := tx.Model(&models.ChatSession{}).
			Where("id = ?", sessionID).
			Updates(map[string]any{
				"message_count": gorm.Expr("message_count + ?", 2),
				"updated_at":    time.Now(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		var counts []int
		if err := tx.Model(&models.ChatSession{}).Where("id = ?", sessionID).Pluck("message_count", &counts).Error; err != nil {
			return err
		}
		if len(counts) > 0 {
			count = counts[0]
		}
		return nil
	})
	return count, err
}

// ClaimSummary marks the automatic summary as attempted. Only the caller
// that flips the flag gets true.
func (r *Repo) ClaimSummary(ctx context.Context, sessionID uint64) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.ChatSession{}).
		Where("id = ? AND summary_attempted = ? AND summary IS NULL", sessionID, false).
		UpdateColumn("summary_attempted", true)
	return res.RowsAffected == 1, res.Error
}

func (r *Repo) SetSummary(ctx context.Context, sessionID uint64, summary string) error {
	return r.db.WithContext(ctx).Model(&models.ChatSession{}).
		Where("id = ?", sessionID).
		UpdateColumns(map[string]any{
			"summary":           summary,
			"summary_attempted": true,
		}).Error
}

func (r *Repo) UpdateTitle(ctx context.Context, sessionID uint64, title string) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.ChatSession{}).
		Where("id = ?", sessionID).
		Updates(map[string]any{
			"title":      title,
			"updated_at": time.Now(),
		})
	return res.RowsAffected, res.Error
}

// DeleteSession removes the messages, then the session.
func (r *Repo) DeleteSession(ctx context.Context, sessionID uint64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("session_id = ?", sessionID).Delete(&models.ChatMessage{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.ChatSession{}, "id = ?", sessionID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
