package analysis

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/reqmaster/reqmaster/internal/common"
	"github.com/reqmaster/reqmaster/internal/document"
	"github.com/reqmaster/reqmaster/internal/metrics"
	"github.com/reqmaster/reqmaster/internal/models"
	"github.com/reqmaster/reqmaster/internal/store/rabbitmq"
)

// Publisher hands job ids to the worker queue.
type Publisher interface {
	PublishJob(ctx context.Context, msg rabbitmq.JobMessage) error
}

type JobRepo struct {
	db *gorm.DB
}

func NewJobRepo(db *gorm.DB) *JobRepo {
	return &JobRepo{db: db}
}

func (r *JobRepo) Create(ctx context.Context, j *models.Job) error {
	return r.db.WithContext(ctx).Create(j).Error
}

func (r *JobRepo) Get(ctx context.Context, id string) (*models.Job, error) {
	var j models.Job
	if err := r.db.WithContext(ctx).First(&j, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &j, nil
}

// MarkRunning moves a queued job to running. Only one caller wins.
func (r *JobRepo) MarkRunning(ctx context.Context, id string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Job{}).
		Where("id = ? AND status = ?", id, models.JobQueued).
		Update("status", models.JobRunning)
	return res.RowsAffected == 1, res.Error
}

// MarkSucceeded records the result and drops the stored upload.
func (r *JobRepo) MarkSucceeded(ctx context.Context, id string, requirementID uint64) error {
	return r.db.WithContext(ctx).Model(&models.Job{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":                models.JobSucceeded,
			"result_requirement_id": requirementID,
			"error":                 nil,
			"payload":               nil,
		}).Error
}

// Requeue hands a claimed job back so a redelivery can claim it again. A
// requirement already produced is kept so the retry does not parse twice.
func (r *JobRepo) Requeue(ctx context.Context, id string, requirementID *uint64) error {
	updates := map[string]any{"status": models.JobQueued}
	if requirementID != nil {
		updates["result_requirement_id"] = *requirementID
	}
	return r.db.WithContext(ctx).Model(&models.Job{}).
		Where("id = ? AND status = ?", id, models.JobRunning).
		Updates(updates).Error
}

func (r *JobRepo) MarkFailed(ctx context.Context, id string, errMsg string) error {
	return r.db.WithContext(ctx).Model(&models.Job{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":                models.JobFailed,
			"error":                 errMsg,
			"result_requirement_id": nil,
			"payload":               nil,
		}).Error
}

// SubmitParseJob validates the upload like ParseDocument, stores it and
// queues it for the worker.
func (s *Service) SubmitParseJob(ctx context.Context, projectID uint64, fileName string, data []byte) (*models.Job, error) {
	if s.publisher == nil {
		return nil, fmt.Errorf("async document parsing: %w", common.ErrUnavailable)
	}
	if !document.IsSupported(fileName) {
		return nil, common.Invalid(msgUnsupportedType)
	}
	if _, err := s.projects.Get(ctx, projectID); err != nil {
		return nil, err
	}

	id, err := common.NewULID()
	if err != nil {
		return nil, err
	}
	job := &models.Job{
		ID:        id,
		Kind:      models.JobKindParseDocument,
		ProjectID: projectID,
		FileName:  fileName,
		Payload:   data,
		Status:    models.JobQueued,
	}
	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, err
	}

	if err := s.publisher.PublishJob(ctx, rabbitmq.JobMessage{JobID: id, Kind: job.Kind}); err != nil {
		msg := "publish: " + err.Error()
		if merr := s.jobs.MarkFailed(ctx, id, msg); merr != nil {
			s.log.Error("mark unpublished job failed", "job_id", id, "err", merr)
		}
		metrics.Jobs.WithLabelValues(job.Kind, string(models.JobFailed)).Inc()
		return nil, common.OperationFailed("任务投递失败", err)
	}
	metrics.Jobs.WithLabelValues(job.Kind, string(models.JobQueued)).Inc()
	job.Payload = nil
	return job, nil
}

func (s *Service) GetJob(ctx context.Context, id string) (*models.Job, error) {
	j, err := s.jobs.Get(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, common.NotFound("任务", id)
	}
	return j, err
}

// RunJob executes a queued job. Workflow failures are recorded on the job and
// return nil; only storage errors are returned so the delivery can be retried,
// in which case the job is handed back to the queued state first. Jobs already
// claimed by another delivery are skipped.
func (s *Service) RunJob(ctx context.Context, id string) error {
	claimed, err := s.jobs.MarkRunning(ctx, id)
	if err != nil {
		return err
	}
	if !claimed {
		s.log.Warn("job not claimable, skipping", "job_id", id)
		return nil
	}
	job, err := s.jobs.Get(ctx, id)
	if err != nil {
		return s.requeue(ctx, id, nil, err)
	}
	metrics.Jobs.WithLabelValues(job.Kind, string(models.JobRunning)).Inc()

	// an earlier delivery stored the requirement but not the outcome
	if job.ResultRequirementID != nil {
		return s.finish(ctx, job, *job.ResultRequirementID)
	}

	var (
		reqID  uint64
		runErr error
	)
	switch job.Kind {
	case models.JobKindParseDocument:
		var req *models.Requirement
		req, runErr = s.ParseDocument(ctx, job.ProjectID, job.FileName, bytes.NewReader(job.Payload))
		if runErr == nil {
			reqID = req.ID
		}
	default:
		runErr = fmt.Errorf("unknown job kind %q", job.Kind)
	}

	if runErr != nil {
		s.log.Warn("job failed", "job_id", id, "kind", job.Kind, "err", runErr)
		if err := s.jobs.MarkFailed(ctx, id, runErr.Error()); err != nil {
			return s.requeue(ctx, id, nil, err)
		}
		metrics.Jobs.WithLabelValues(job.Kind, string(models.JobFailed)).Inc()
		return nil
	}
	return s.finish(ctx, job, reqID)
}

// AbandonJob settles a job whose deliveries ran out: succeeded when an
// earlier attempt already stored its requirement, failed otherwise.
func (s *Service) AbandonJob(ctx context.Context, id string, cause error) error {
	job, err := s.jobs.Get(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	switch job.Status {
	case models.JobSucceeded, models.JobFailed:
		return nil
	}
	if job.ResultRequirementID != nil {
		return s.jobs.MarkSucceeded(ctx, id, *job.ResultRequirementID)
	}
	metrics.Jobs.WithLabelValues(job.Kind, string(models.JobFailed)).Inc()
	return s.jobs.MarkFailed(ctx, id, "retries exhausted: "+cause.Error())
}

func (s *Service) finish(ctx context.Context, job *models.Job, reqID uint64) error {
	if err := s.jobs.MarkSucceeded(ctx, job.ID, reqID); err != nil {
		return s.requeue(ctx, job.ID, &reqID, err)
	}
	s.log.Info("job succeeded", "job_id", job.ID, "kind", job.Kind, "requirement_id", reqID)
	metrics.Jobs.WithLabelValues(job.Kind, string(models.JobSucceeded)).Inc()
	return nil
}

// requeue returns cause after trying to release the claim. If the release
// fails too, the job stays running and the error is logged.
func (s *Service) requeue(ctx context.Context, id string, reqID *uint64, cause error) error {
	if err := s.jobs.Requeue(context.WithoutCancel(ctx), id, reqID); err != nil {
		s.log.Error("requeue job failed", "job_id", id, "err", err)
	}
	return cause
}
