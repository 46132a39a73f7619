package repository

import (
	"context"
	"fmt"

	"github.com/RishiKendai/veritas/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const submissionsCollection = "submissions"

type SubmissionsRepository struct {
	mongoRepo *MongoRepository
}

func NewSubmissionsRepository(mongoRepo *MongoRepository) *SubmissionsRepository {
	return &SubmissionsRepository{
		mongoRepo: mongoRepo,
	}
}

func (r *SubmissionsRepository) InsertSubmission(ctx context.Context, submission *models.Submission) error {
	err := r.mongoRepo.InsertOne(ctx, submissionsCollection, submission)
	if err != nil {
		return fmt.Errorf("failed to insert submission: %w", err)
	}

	return nil
}

// GetSubmissionsByAssignmentID returns the batch in submission order so that
// repeated runs over the same data see the same sequence
func (r *SubmissionsRepository) GetSubmissionsByAssignmentID(ctx context.Context, assignmentID string) ([]*models.Submission, error) {
	filter := bson.M{"assignmentId": assignmentID}
	opts := options.Find().SetSort(bson.D{
		{Key: "submittedAt", Value: 1},
		{Key: "submissionId", Value: 1},
	})

	cursor, err := r.mongoRepo.FindMany(ctx, submissionsCollection, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find submissions: %w", err)
	}
	defer cursor.Close(ctx)

	var submissions []*models.Submission
	if err := cursor.All(ctx, &submissions); err != nil {
		return nil, fmt.Errorf("failed to decode submissions: %w", err)
	}

	return submissions, nil
}

func (r *SubmissionsRepository) CountSubmissionsByAssignmentID(ctx context.Context, assignmentID string) (int64, error) {
	filter := bson.M{"assignmentId": assignmentID}

	count, err := r.mongoRepo.CountDocuments(ctx, submissionsCollection, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to count submissions: %w", err)
	}

	return count, nil
}
