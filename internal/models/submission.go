package models

import "time"

// Submission is one student's source code for an assignment.
// It is owned by the submission store; the detection engine only reads it.
type Submission struct {
	ID           string    `bson:"submissionId" json:"id" binding:"required"`
	AuthorID     string    `bson:"authorId" json:"authorId" binding:"required"`
	AssignmentID string    `bson:"assignmentId" json:"assignmentId"`
	Code         string    `bson:"code" json:"code"`
	Language     string    `bson:"language" json:"language"`
	SubmittedAt  time.Time `bson:"submittedAt" json:"submittedAt"`
}
