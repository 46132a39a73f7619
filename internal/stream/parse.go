package stream

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/RishiKendai/veritas/internal/models"
)

var ErrInvalidMessage = errors.New("invalid stream message")

// StreamMessage is a stream entry with its string fields
type StreamMessage struct {
	ID     string
	Fields map[string]string
}

var requiredFields = []string{"id", "authorId", "assignmentId", "code"}

// ParseSubmission builds a submission from a stream entry. submittedAt may be
// RFC 3339 or unix milliseconds; when absent the entry ID's timestamp is used.
func ParseSubmission(msg *StreamMessage) (*models.Submission, error) {
	for _, field := range requiredFields {
		if strings.TrimSpace(msg.Fields[field]) == "" {
			return nil, fmt.Errorf("%w: missing field %q", ErrInvalidMessage, field)
		}
	}

	submission := &models.Submission{
		ID:           msg.Fields["id"],
		AuthorID:     msg.Fields["authorId"],
		AssignmentID: msg.Fields["assignmentId"],
		Code:         msg.Fields["code"],
		Language:     msg.Fields["language"],
	}

	submittedAt, err := parseSubmittedAt(msg.Fields["submittedAt"], msg.ID)
	if err != nil {
		return nil, err
	}
	submission.SubmittedAt = submittedAt

	return submission, nil
}

func parseSubmittedAt(value, entryID string) (time.Time, error) {
	if value == "" {
		return entryTime(entryID), nil
	}
	if ms, err := strconv.ParseInt(value, 10, 64); err == nil {
		return time.UnixMilli(ms).UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: bad submittedAt %q", ErrInvalidMessage, value)
	}
	return t.UTC(), nil
}

// entryTime reads the millisecond prefix of a stream ID ("1700000000000-0")
func entryTime(entryID string) time.Time {
	ms, _, _ := strings.Cut(entryID, "-")
	if v, err := strconv.ParseInt(ms, 10, 64); err == nil {
		return time.UnixMilli(v).UTC()
	}
	return time.Time{}
}
