package api

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/RishiKendai/veritas/internal/models"
	"github.com/RishiKendai/veritas/internal/plagiarism"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type SubmissionCounter interface {
	CountSubmissionsByAssignmentID(ctx context.Context, assignmentID string) (int64, error)
}

type ReportReader interface {
	GetLatestReportByAssignmentID(ctx context.Context, assignmentID string) (*models.ReportDocument, error)
}

type StatusStore interface {
	UpdateStatus(ctx context.Context, assignmentID string, step models.Step) error
	GetStatus(ctx context.Context, assignmentID string) (models.Step, error)
}

type ReportComputer interface {
	ComputeReport(ctx context.Context, assignmentID string) (*models.ReportDocument, error)
}

type Detector interface {
	Detect(ctx context.Context, submissions []models.Submission, opts plagiarism.Options) (*models.DetectionReport, error)
}

// Dependencies groups everything the handlers need
type Dependencies struct {
	Submissions          SubmissionCounter
	Reports              ReportReader
	Status               StatusStore
	Computer             ReportComputer
	Detector             Detector
	DefaultOptions       plagiarism.Options
	MaxConcurrentCompute int
	ComputationTimeout   time.Duration
}

// Handler holds dependencies for handlers
type Handler struct {
	submissions    SubmissionCounter
	reports        ReportReader
	status         StatusStore
	computer       ReportComputer
	detector       Detector
	defaults       plagiarism.Options
	computeSem     chan struct{}
	computeTimeout time.Duration
	inflight       sync.WaitGroup
}

func NewHandler(deps Dependencies) *Handler {
	return &Handler{
		submissions:    deps.Submissions,
		reports:        deps.Reports,
		status:         deps.Status,
		computer:       deps.Computer,
		detector:       deps.Detector,
		defaults:       deps.DefaultOptions,
		computeSem:     make(chan struct{}, max(deps.MaxConcurrentCompute, 1)),
		computeTimeout: deps.ComputationTimeout,
	}
}

// Wait blocks until every background computation has finished
func (h *Handler) Wait() {
	h.inflight.Wait()
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
	})
}

func isRunning(step models.Step) bool {
	switch step {
	case models.StepInitiated, models.StepStarted, models.StepFingerprinting, models.StepFiltering, models.StepScoring:
		return true
	}
	return false
}

func (h *Handler) Compute(c *gin.Context) {
	var req models.ComputeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "assignmentId is required",
			Code:  "INVALID_REQUEST",
		})
		return
	}

	ctx := c.Request.Context()
	count, err := h.submissions.CountSubmissionsByAssignmentID(ctx, req.AssignmentID)
	if err != nil {
		log.Error().Err(err).Str("assignmentId", req.AssignmentID).Msg("Failed to count submissions")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "Failed to check submissions",
			Code:  "INTERNAL_ERROR",
		})
		return
	}
	if count == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "No submissions found for assignmentId",
			Code:  "ASSIGNMENT_NOT_FOUND",
		})
		return
	}

	step, err := h.status.GetStatus(ctx, req.AssignmentID)
	if err != nil {
		log.Warn().Err(err).Str("assignmentId", req.AssignmentID).Msg("Failed to read status, continuing")
	}
	if isRunning(step) {
		c.JSON(http.StatusConflict, ErrorResponse{
			Error: "Computation already in progress",
			Code:  "COMPUTE_IN_PROGRESS",
		})
		return
	}

	select {
	case h.computeSem <- struct{}{}:
	case <-ctx.Done():
		c.JSON(http.StatusRequestTimeout, ErrorResponse{
			Error: "Request cancelled",
			Code:  "REQUEST_TIMEOUT",
		})
		return
	}

	if err := h.status.UpdateStatus(ctx, req.AssignmentID, models.StepInitiated); err != nil {
		log.Warn().Err(err).Str("assignmentId", req.AssignmentID).Msg("Failed to update initiated status")
	}

	c.JSON(http.StatusAccepted, models.ComputeResponse{
		Step:         models.StepInitiated,
		AssignmentID: req.AssignmentID,
	})

	h.inflight.Add(1)
	go h.processComputation(req.AssignmentID)
}

func (h *Handler) processComputation(assignmentID string) {
	defer h.inflight.Done()
	defer func() { <-h.computeSem }()

	ctx, cancel := context.WithTimeout(context.Background(), h.computeTimeout)
	defer cancel()

	doc, err := h.computer.ComputeReport(ctx, assignmentID)
	if err != nil {
		runID := ""
		if doc != nil {
			runID = doc.RunID
		}
		log.Error().Err(err).
			Str("assignmentId", assignmentID).
			Str("runId", runID).
			Msg("Computation failed")
	}
}

func (h *Handler) Status(c *gin.Context) {
	assignmentID := c.Param("assignmentId")

	step, err := h.status.GetStatus(c.Request.Context(), assignmentID)
	if err != nil {
		log.Error().Err(err).Str("assignmentId", assignmentID).Msg("Failed to read status")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "Failed to read status",
			Code:  "INTERNAL_ERROR",
		})
		return
	}

	c.JSON(http.StatusOK, models.StatusResponse{
		AssignmentID: assignmentID,
		Step:         step,
	})
}

func (h *Handler) Report(c *gin.Context) {
	assignmentID := c.Param("assignmentId")

	doc, err := h.reports.GetLatestReportByAssignmentID(c.Request.Context(), assignmentID)
	if err != nil {
		log.Error().Err(err).Str("assignmentId", assignmentID).Msg("Failed to load report")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "Failed to load report",
			Code:  "INTERNAL_ERROR",
		})
		return
	}
	if doc == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error: "No report for assignmentId",
			Code:  "REPORT_NOT_FOUND",
		})
		return
	}

	c.JSON(http.StatusOK, doc)
}

// Detect runs a synchronous detection over the request batch
func (h *Handler) Detect(c *gin.Context) {
	var req models.DetectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "Invalid request body: every submission needs id and authorId",
			Code:  "INVALID_REQUEST",
		})
		return
	}

	seen := make(map[string]struct{}, len(req.Submissions))
	for _, s := range req.Submissions {
		if _, dup := seen[s.ID]; dup {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error: "Duplicate submission id: " + s.ID,
				Code:  "DUPLICATE_SUBMISSION_ID",
			})
			return
		}
		seen[s.ID] = struct{}{}
	}

	opts := plagiarism.OptionsFromModel(req.Options, h.defaults)
	report, err := h.detector.Detect(c.Request.Context(), req.Submissions, opts)
	switch {
	case errors.Is(err, plagiarism.ErrInvalidOptions):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: err.Error(),
			Code:  "INVALID_OPTIONS",
		})
		return
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusRequestTimeout, ErrorResponse{
			Error: "Request cancelled",
			Code:  "REQUEST_TIMEOUT",
		})
		return
	case err != nil:
		log.Error().Err(err).Int("submissions", len(req.Submissions)).Msg("Detection failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "Detection failed",
			Code:  "INTERNAL_ERROR",
		})
		return
	}

	c.JSON(http.StatusOK, report)
}
