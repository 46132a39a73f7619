package ingest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/RishiKendai/veritas/internal/metrics"
	"github.com/RishiKendai/veritas/internal/models"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/mongo"
)

type SubmissionStore interface {
	InsertSubmission(ctx context.Context, submission *models.Submission) error
}

// Service stores submissions arriving from the ingestion stream
type Service struct {
	store SubmissionStore
	now   func() time.Time
}

func NewService(store SubmissionStore) *Service {
	return &Service{
		store: store,
		now:   time.Now,
	}
}

// ProcessSubmission normalizes and stores one submission. A submission that
// was already stored is treated as success so stream redeliveries are harmless.
func (s *Service) ProcessSubmission(ctx context.Context, submission *models.Submission) error {
	submission.Language = strings.ToLower(strings.TrimSpace(submission.Language))
	if submission.SubmittedAt.IsZero() {
		submission.SubmittedAt = s.now().UTC()
	}

	err := s.store.InsertSubmission(ctx, submission)
	if mongo.IsDuplicateKeyError(err) {
		log.Debug().
			Str("submissionId", submission.ID).
			Str("assignmentId", submission.AssignmentID).
			Msg("Submission already stored, skipping")
		metrics.ObserveIngest("duplicate")
		return nil
	}
	if err != nil {
		metrics.ObserveIngest("error")
		return fmt.Errorf("failed to store submission: %w", err)
	}

	metrics.ObserveIngest("stored")
	log.Debug().
		Str("submissionId", submission.ID).
		Str("assignmentId", submission.AssignmentID).
		Str("language", submission.Language).
		Msg("Submission stored")

	return nil
}
