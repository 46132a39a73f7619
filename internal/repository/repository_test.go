package repository

import (
	"context"
	"testing"

	"github.com/RishiKendai/veritas/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestSubmissionsRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("insert", func(mt *mtest.T) {
		repo := NewSubmissionsRepository(NewMongoRepository(mt.DB))
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		err := repo.InsertSubmission(ctx, &models.Submission{ID: "s1", AuthorID: "u1", AssignmentID: "hw1"})
		assert.NoError(mt, err)
	})

	mt.Run("insert duplicate", func(mt *mtest.T) {
		repo := NewSubmissionsRepository(NewMongoRepository(mt.DB))
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "duplicate key error",
		}))

		err := repo.InsertSubmission(ctx, &models.Submission{ID: "s1"})
		require.Error(mt, err)
		assert.True(mt, mongo.IsDuplicateKeyError(err))
	})

	mt.Run("find by assignment", func(mt *mtest.T) {
		repo := NewSubmissionsRepository(NewMongoRepository(mt.DB))
		ns := mt.DB.Name() + "." + submissionsCollection
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
			bson.D{
				{Key: "submissionId", Value: "s1"},
				{Key: "authorId", Value: "u1"},
				{Key: "assignmentId", Value: "hw1"},
				{Key: "code", Value: "x = 1"},
			},
			bson.D{
				{Key: "submissionId", Value: "s2"},
				{Key: "authorId", Value: "u2"},
				{Key: "assignmentId", Value: "hw1"},
				{Key: "code", Value: "y = 2"},
			},
		))

		subs, err := repo.GetSubmissionsByAssignmentID(ctx, "hw1")
		require.NoError(mt, err)
		require.Len(mt, subs, 2)
		assert.Equal(mt, "s1", subs[0].ID)
		assert.Equal(mt, "u2", subs[1].AuthorID)
		assert.Equal(mt, "y = 2", subs[1].Code)
	})

	mt.Run("find error", func(mt *mtest.T) {
		repo := NewSubmissionsRepository(NewMongoRepository(mt.DB))
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    2,
			Message: "bad query",
		}))

		_, err := repo.GetSubmissionsByAssignmentID(ctx, "hw1")
		assert.ErrorContains(mt, err, "failed to find submissions")
	})

	mt.Run("count", func(mt *mtest.T) {
		repo := NewSubmissionsRepository(NewMongoRepository(mt.DB))
		ns := mt.DB.Name() + "." + submissionsCollection
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
			bson.D{{Key: "n", Value: int32(3)}},
		))

		count, err := repo.CountSubmissionsByAssignmentID(ctx, "hw1")
		require.NoError(mt, err)
		assert.Equal(mt, int64(3), count)
	})
}

func TestReportsRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("insert sets timestamps", func(mt *mtest.T) {
		repo := NewReportsRepository(NewMongoRepository(mt.DB))
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		doc := &models.ReportDocument{RunID: "r1", AssignmentID: "hw1", Status: models.ReportStatusPending}
		require.NoError(mt, repo.InsertReport(ctx, doc))
		assert.False(mt, doc.CreatedAt.IsZero())
		assert.Equal(mt, doc.CreatedAt, doc.UpdatedAt)
	})

	mt.Run("update matched", func(mt *mtest.T) {
		repo := NewReportsRepository(NewMongoRepository(mt.DB))
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 1},
		))

		err := repo.UpdateReport(ctx, &models.ReportDocument{RunID: "r1", Status: models.ReportStatusCompleted})
		assert.NoError(mt, err)
	})

	mt.Run("update missing run", func(mt *mtest.T) {
		repo := NewReportsRepository(NewMongoRepository(mt.DB))
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 0},
			bson.E{Key: "nModified", Value: 0},
		))

		err := repo.UpdateReport(ctx, &models.ReportDocument{RunID: "missing"})
		assert.ErrorIs(mt, err, ErrReportNotFound)
	})

	mt.Run("update status", func(mt *mtest.T) {
		repo := NewReportsRepository(NewMongoRepository(mt.DB))
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 1},
		))

		err := repo.UpdateReportStatus(ctx, "r1", models.ReportStatusFailed, "timeout")
		assert.NoError(mt, err)
	})

	mt.Run("latest report", func(mt *mtest.T) {
		repo := NewReportsRepository(NewMongoRepository(mt.DB))
		ns := mt.DB.Name() + "." + reportsCollection
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
			bson.D{
				{Key: "runId", Value: "r2"},
				{Key: "assignmentId", Value: "hw1"},
				{Key: "status", Value: models.ReportStatusCompleted},
			},
		))

		doc, err := repo.GetLatestReportByAssignmentID(ctx, "hw1")
		require.NoError(mt, err)
		require.NotNil(mt, doc)
		assert.Equal(mt, "r2", doc.RunID)
		assert.Equal(mt, models.ReportStatusCompleted, doc.Status)
	})

	mt.Run("no report", func(mt *mtest.T) {
		repo := NewReportsRepository(NewMongoRepository(mt.DB))
		ns := mt.DB.Name() + "." + reportsCollection
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		doc, err := repo.GetLatestReportByAssignmentID(ctx, "hw1")
		require.NoError(mt, err)
		assert.Nil(mt, doc)
	})
}

func TestEnsureIndexes(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("creates indexes", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(), mtest.CreateSuccessResponse())
		assert.NoError(mt, NewMongoRepository(mt.DB).EnsureIndexes(context.Background()))
	})

	mt.Run("propagates failure", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 13, Message: "unauthorized"}))
		assert.ErrorContains(mt, NewMongoRepository(mt.DB).EnsureIndexes(context.Background()), "failed to create indexes")
	})
}
