package chat

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/reqmaster/reqmaster/internal/ai"
	"github.com/reqmaster/reqmaster/internal/common"
	"github.com/reqmaster/reqmaster/internal/metrics"
	"github.com/reqmaster/reqmaster/internal/models"
	"github.com/reqmaster/reqmaster/internal/prompt"
)

// Apology replaces the assistant reply when the completion call fails.
const Apology = "抱歉，我现在无法处理您的请求。请稍后再试。"

const (
	sessionEntity           = "对话会话"
	DefaultSummaryThreshold = 4
)

type Options struct {
	// Locker defaults to an in-process LocalLocker.
	Locker Locker
	Logger *slog.Logger
	// SummaryThreshold is the message count that triggers the automatic summary.
	SummaryThreshold int
}

type Service struct {
	repo             *Repo
	completer        ai.Completer
	locker           Locker
	log              *slog.Logger
	summaryThreshold int
}

func NewService(repo *Repo, completer ai.Completer, opts Options) *Service {
	if opts.Locker == nil {
		opts.Locker = NewLocalLocker()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.SummaryThreshold <= 0 {
		opts.SummaryThreshold = DefaultSummaryThreshold
	}
	return &Service{
		repo:             repo,
		completer:        completer,
		locker:           opts.Locker,
		log:              opts.Logger,
		summaryThreshold: opts.SummaryThreshold,
	}
}

func (s *Service) CreateSession(ctx context.Context, projectID uint64, title, sessionType string) (*models.ChatSession, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, common.Invalid("会话标题不能为空")
	}
	if utf8.RuneCountInString(title) > 200 {
		return nil, common.Invalid("会话标题不能超过200个字符")
	}
	if _, err := s.project(ctx, projectID); err != nil {
		return nil, err
	}
	sessionType = strings.TrimSpace(sessionType)
	if sessionType == "" {
		sessionType = models.DefaultSessionType
	}

	sess := &models.ChatSession{
		ProjectID:   projectID,
		Title:       title,
		SessionType: sessionType,
	}
	if err := s.repo.CreateSession(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *Service) session(ctx context.Context, id uint64) (*models.ChatSession, error) {
	sess, err := s.repo.GetSession(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, common.NotFound(sessionEntity, id)
	}
	return sess, err
}

func (s *Service) project(ctx context.Context, id uint64) (*models.Project, error) {
	p, err := s.repo.GetProject(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, common.NotFound("项目", id)
	}
	return p, err
}

// SendMessage records a user turn and the assistant's reply. A failed
// completion yields Apology as the reply instead of an error. Turns on the
// same session are serialized.
func (s *Service) SendMessage(ctx context.Context, sessionID uint64, text string) (*models.ChatMessage, error) {
	if strings.TrimSpace(text) == "" {
		return nil, common.Invalid("消息内容不能为空")
	}

	unlock, err := s.locker.Lock(ctx, sessionKey(sessionID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	sess, err := s.session(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	proj, err := s.project(ctx, sess.ProjectID)
	if err != nil {
		return nil, err
	}
	history, err := s.repo.ListMessages(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	user := &models.ChatMessage{
		SessionID: sessionID,
		Role:      models.RoleUser,
		Content:   text,
		Timestamp: time.Now(),
	}
	p := prompt.Chat(*proj, append(history, *user), text)

	reply, err := s.completer.Complete(ctx, p, ai.Temperature(ai.TempChat))
	if err != nil {
		s.log.Warn("chat completion failed", "session_id", sessionID, "err", err)
		reply = Apology
	}

	assistant := &models.ChatMessage{
		SessionID: sessionID,
		Role:      models.RoleAssistant,
		Content:   reply,
		Timestamp: time.Now(),
	}
	count, err := s.repo.AppendTurn(ctx, sessionID, user, assistant)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, common.NotFound(sessionEntity, sessionID)
	}
	if err != nil {
		return nil, err
	}
	s.log.Info("chat turn stored", "session_id", sessionID, "message_count", count)

	if count >= s.summaryThreshold && sess.Summary == nil && !sess.SummaryAttempted {
		s.autoSummary(ctx, sessionID)
	}
	return assistant, nil
}

// autoSummary makes the one automatic summary attempt for a session.
// Failures are logged only.
func (s *Service) autoSummary(ctx context.Context, sessionID uint64) {
	claimed, err := s.repo.ClaimSummary(ctx, sessionID)
	if err != nil {
		s.log.Warn("claim summary failed", "session_id", sessionID, "err", err)
		return
	}
	if !claimed {
		return
	}
	if _, err := s.summarize(ctx, sessionID); err != nil {
		metrics.ChatSummaries.WithLabelValues("failed").Inc()
		s.log.Warn("session summary failed", "session_id", sessionID, "err", err)
		return
	}
	metrics.ChatSummaries.WithLabelValues("ok").Inc()
}

func (s *Service) summarize(ctx context.Context, sessionID uint64) (string, error) {
	msgs, err := s.repo.ListMessages(ctx, sessionID)
	if err != nil {
		return "", err
	}
	summary, err := s.completer.Complete(ctx, prompt.Summary(msgs), ai.Temperature(ai.TempSummary))
	if err != nil {
		return "", err
	}
	summary = strings.TrimSpace(summary)
	if err := s.repo.SetSummary(ctx, sessionID, summary); err != nil {
		return "", err
	}
	return summary, nil
}

// GenerateSummary regenerates the summary on request, replacing any existing one.
func (s *Service) GenerateSummary(ctx context.Context, sessionID uint64) (string, error) {
	unlock, err := s.locker.Lock(ctx, sessionKey(sessionID))
	if err != nil {
		return "", err
	}
	defer unlock()

	if _, err := s.session(ctx, sessionID); err != nil {
		return "", err
	}
	summary, err := s.summarize(ctx, sessionID)
	if err != nil {
		metrics.ChatSummaries.WithLabelValues("failed").Inc()
		return "", common.OperationFailed("生成会话摘要失败", err)
	}
	metrics.ChatSummaries.WithLabelValues("manual").Inc()
	return summary, nil
}

func (s *Service) GetSession(ctx context.Context, sessionID uint64) (*models.ChatSession, error) {
	return s.session(ctx, sessionID)
}

func (s *Service) ListMessages(ctx context.Context, sessionID uint64) ([]models.ChatMessage, error) {
	if _, err := s.session(ctx, sessionID); err != nil {
		return nil, err
	}
	return s.repo.ListMessages(ctx, sessionID)
}

func (s *Service) ListProjectSessions(ctx context.Context, projectID uint64) ([]models.ChatSession, error) {
	return s.repo.ListProjectSessions(ctx, projectID)
}

func (s *Service) UpdateTitle(ctx context.Context, sessionID uint64, title string) (*models.ChatSession, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, common.Invalid("会话标题不能为空")
	}
	if utf8.RuneCountInString(title) > 200 {
		return nil, common.Invalid("会话标题不能超过200个字符")
	}
	n, err := s.repo.UpdateTitle(ctx, sessionID, title)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, common.NotFound(sessionEntity, sessionID)
	}
	return s.session(ctx, sessionID)
}

func (s *Service) DeleteSession(ctx context.Context, sessionID uint64) error {
	unlock, err := s.locker.Lock(ctx, sessionKey(sessionID))
	if err != nil {
		return err
	}
	defer unlock()

	err = s.repo.DeleteSession(ctx, sessionID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return common.NotFound(sessionEntity, sessionID)
	}
	return err
}
