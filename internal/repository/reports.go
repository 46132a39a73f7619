package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/RishiKendai/veritas/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const reportsCollection = "similarity_reports"

var ErrReportNotFound = errors.New("report not found")

type ReportsRepository struct {
	mongoRepo *MongoRepository
}

func NewReportsRepository(mongoRepo *MongoRepository) *ReportsRepository {
	return &ReportsRepository{
		mongoRepo: mongoRepo,
	}
}

func (r *ReportsRepository) InsertReport(ctx context.Context, report *models.ReportDocument) error {
	if report.CreatedAt.IsZero() {
		report.CreatedAt = time.Now().UTC()
	}
	report.UpdatedAt = report.CreatedAt

	err := r.mongoRepo.InsertOne(ctx, reportsCollection, report)
	if err != nil {
		return fmt.Errorf("failed to insert report: %w", err)
	}

	return nil
}

// UpdateReport replaces the stored run with the same runId
func (r *ReportsRepository) UpdateReport(ctx context.Context, report *models.ReportDocument) error {
	filter := bson.M{"runId": report.RunID}

	res, err := r.mongoRepo.ReplaceOne(ctx, reportsCollection, filter, report)
	if err != nil {
		return fmt.Errorf("failed to update report: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%w: runId %s", ErrReportNotFound, report.RunID)
	}

	return nil
}

func (r *ReportsRepository) UpdateReportStatus(ctx context.Context, runID, status, errMsg string) error {
	filter := bson.M{"runId": runID}
	set := bson.M{"status": status, "updatedAt": time.Now().UTC()}
	if errMsg != "" {
		set["error"] = errMsg
	}

	res, err := r.mongoRepo.UpdateOne(ctx, reportsCollection, filter, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("failed to update report status: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%w: runId %s", ErrReportNotFound, runID)
	}

	return nil
}

// GetLatestReportByAssignmentID returns nil when the assignment has no runs
func (r *ReportsRepository) GetLatestReportByAssignmentID(ctx context.Context, assignmentID string) (*models.ReportDocument, error) {
	filter := bson.M{"assignmentId": assignmentID}
	opts := options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	var report models.ReportDocument
	err := r.mongoRepo.FindOne(ctx, reportsCollection, filter, opts).Decode(&report)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find report: %w", err)
	}

	return &report, nil
}
