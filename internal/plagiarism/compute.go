package plagiarism

import (
	"context"
	"fmt"
	"time"

	"github.com/RishiKendai/veritas/internal/metrics"
	"github.com/RishiKendai/veritas/internal/models"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// SubmissionSource supplies the submission batch of an assignment
type SubmissionSource interface {
	GetSubmissionsByAssignmentID(ctx context.Context, assignmentID string) ([]*models.Submission, error)
}

// ReportSink persists detection runs
type ReportSink interface {
	InsertReport(ctx context.Context, report *models.ReportDocument) error
	UpdateReport(ctx context.Context, report *models.ReportDocument) error
	UpdateReportStatus(ctx context.Context, runID, status, errMsg string) error
}

type StatusUpdater interface {
	UpdateStatus(ctx context.Context, assignmentID string, step models.Step) error
}

// ComputeService runs a detection over an assignment's stored submissions and
// records the outcome
type ComputeService struct {
	submissions SubmissionSource
	reports     ReportSink
	status      StatusUpdater
	engine      *Engine
	opts        Options
}

func NewComputeService(
	submissions SubmissionSource,
	reports ReportSink,
	status StatusUpdater,
	engine *Engine,
	opts Options,
) *ComputeService {
	return &ComputeService{
		submissions: submissions,
		reports:     reports,
		status:      status,
		engine:      engine,
		opts:        opts,
	}
}

func (s *ComputeService) Options() Options {
	return s.opts
}

// ComputeReport loads the batch, runs the engine and persists the report.
// The stored document is returned even when the run failed.
func (s *ComputeService) ComputeReport(ctx context.Context, assignmentID string) (*models.ReportDocument, error) {
	start := time.Now()
	now := time.Now().UTC()
	doc := &models.ReportDocument{
		RunID:        uuid.NewString(),
		AssignmentID: assignmentID,
		Status:       models.ReportStatusPending,
		Options:      s.opts.Model(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.reports.InsertReport(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to create pending report: %w", err)
	}

	s.updateStatus(ctx, assignmentID, models.StepStarted)

	submissions, err := s.submissions.GetSubmissionsByAssignmentID(ctx, assignmentID)
	if err != nil {
		return s.fail(ctx, doc, start, fmt.Errorf("failed to load submissions: %w", err))
	}

	batch := make([]models.Submission, 0, len(submissions))
	for _, sub := range submissions {
		if sub != nil {
			batch = append(batch, *sub)
		}
	}

	report, err := s.engine.DetectWithProgress(ctx, batch, s.opts, func(step models.Step) {
		s.updateStatus(ctx, assignmentID, step)
	})
	if err != nil {
		return s.fail(ctx, doc, start, fmt.Errorf("detection failed: %w", err))
	}

	doc.Report = report
	doc.Status = models.ReportStatusCompleted
	doc.UpdatedAt = time.Now().UTC()
	if err := s.reports.UpdateReport(ctx, doc); err != nil {
		return s.fail(ctx, doc, start, fmt.Errorf("failed to store report: %w", err))
	}

	s.updateStatus(ctx, assignmentID, models.StepCompleted)
	metrics.ObserveDetection(models.ReportStatusCompleted, time.Since(start), report.Stats.CandidatePairs, report.Stats.MatchesFound)

	log.Info().
		Str("assignmentId", assignmentID).
		Str("runId", doc.RunID).
		Int("submissions", report.Stats.TotalSubmissions).
		Int("candidates", report.Stats.CandidatePairs).
		Int("matches", report.Stats.MatchesFound).
		Msg("Computation completed successfully")

	return doc, nil
}

func (s *ComputeService) fail(ctx context.Context, doc *models.ReportDocument, start time.Time, cause error) (*models.ReportDocument, error) {
	doc.Status = models.ReportStatusFailed
	doc.Error = cause.Error()
	doc.UpdatedAt = time.Now().UTC()

	// the run context may already be done; record the failure regardless
	storeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	if err := s.reports.UpdateReportStatus(storeCtx, doc.RunID, doc.Status, doc.Error); err != nil {
		log.Error().Err(err).Str("runId", doc.RunID).Msg("Failed to mark report as failed")
	}
	s.updateStatus(storeCtx, doc.AssignmentID, models.StepFailed)
	metrics.ObserveDetection(models.ReportStatusFailed, time.Since(start), 0, 0)

	return doc, cause
}

func (s *ComputeService) updateStatus(ctx context.Context, assignmentID string, step models.Step) {
	if s.status == nil {
		return
	}
	if err := s.status.UpdateStatus(ctx, assignmentID, step); err != nil {
		log.Warn().Err(err).
			Str("assignmentId", assignmentID).
			Str("step", string(step)).
			Msg("Failed to update status")
	}
}
