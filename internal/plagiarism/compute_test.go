package plagiarism

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/RishiKendai/veritas/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	submissions []*models.Submission
	err         error
}

func (f *fakeSource) GetSubmissionsByAssignmentID(ctx context.Context, assignmentID string) ([]*models.Submission, error) {
	return f.submissions, f.err
}

type statusUpdate struct {
	runID, status, errMsg string
}

type fakeSink struct {
	inserted  []models.ReportDocument
	updated   []models.ReportDocument
	failed    []statusUpdate
	insertErr error
	updateErr error
}

func (f *fakeSink) InsertReport(ctx context.Context, report *models.ReportDocument) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.inserted = append(f.inserted, *report)
	return nil
}

func (f *fakeSink) UpdateReport(ctx context.Context, report *models.ReportDocument) error {
	f.updated = append(f.updated, *report)
	return f.updateErr
}

func (f *fakeSink) UpdateReportStatus(ctx context.Context, runID, status, errMsg string) error {
	f.failed = append(f.failed, statusUpdate{runID: runID, status: status, errMsg: errMsg})
	return nil
}

type fakeStatus struct {
	mu    sync.Mutex
	steps []models.Step
}

func (f *fakeStatus) UpdateStatus(ctx context.Context, assignmentID string, step models.Step) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.steps = append(f.steps, step)
	return nil
}

func fixturePointers(t *testing.T) []*models.Submission {
	batch := fixtureBatch(t)
	out := make([]*models.Submission, 0, len(batch)+1)
	for i := range batch {
		out = append(out, &batch[i])
	}
	return append(out, nil)
}

func TestComputeReport_Success(t *testing.T) {
	source := &fakeSource{submissions: fixturePointers(t)}
	sink := &fakeSink{}
	status := &fakeStatus{}
	svc := NewComputeService(source, sink, status, NewEngine(nil), DefaultOptions())

	doc, err := svc.ComputeReport(context.Background(), "hw1")
	require.NoError(t, err)

	assert.NotEmpty(t, doc.RunID)
	assert.Equal(t, "hw1", doc.AssignmentID)
	assert.Equal(t, models.ReportStatusCompleted, doc.Status)
	require.NotNil(t, doc.Report)
	assert.Equal(t, 7, doc.Report.Stats.TotalSubmissions)
	assert.Equal(t, 7, doc.Report.Stats.MatchesFound)
	assert.Equal(t, DefaultOptions().Model(), doc.Options)

	require.Len(t, sink.inserted, 1)
	assert.Equal(t, models.ReportStatusPending, sink.inserted[0].Status)
	assert.Equal(t, doc.RunID, sink.inserted[0].RunID)
	require.Len(t, sink.updated, 1)
	assert.Equal(t, models.ReportStatusCompleted, sink.updated[0].Status)

	assert.Equal(t, []models.Step{
		models.StepStarted,
		models.StepFingerprinting,
		models.StepFiltering,
		models.StepScoring,
		models.StepCompleted,
	}, status.steps)
}

func TestComputeReport_LoadFailure(t *testing.T) {
	boom := errors.New("mongo unavailable")
	sink := &fakeSink{}
	status := &fakeStatus{}
	svc := NewComputeService(&fakeSource{err: boom}, sink, status, NewEngine(nil), DefaultOptions())

	doc, err := svc.ComputeReport(context.Background(), "hw1")

	assert.ErrorIs(t, err, boom)
	require.NotNil(t, doc)
	assert.Equal(t, models.ReportStatusFailed, doc.Status)
	assert.Contains(t, doc.Error, "mongo unavailable")
	assert.Empty(t, sink.updated)
	require.Len(t, sink.failed, 1)
	assert.Equal(t, doc.RunID, sink.failed[0].runID)
	assert.Equal(t, models.ReportStatusFailed, sink.failed[0].status)
	assert.Contains(t, sink.failed[0].errMsg, "mongo unavailable")
	assert.Equal(t, models.StepFailed, status.steps[len(status.steps)-1])
}

func TestComputeReport_InvalidOptions(t *testing.T) {
	opts := DefaultOptions()
	opts.KGramSize = 0
	sink := &fakeSink{}
	svc := NewComputeService(&fakeSource{submissions: fixturePointers(t)}, sink, nil, NewEngine(nil), opts)

	doc, err := svc.ComputeReport(context.Background(), "hw1")

	assert.ErrorIs(t, err, ErrInvalidOptions)
	assert.Equal(t, models.ReportStatusFailed, doc.Status)
}

func TestComputeReport_InsertFailure(t *testing.T) {
	boom := errors.New("duplicate key")
	sink := &fakeSink{insertErr: boom}
	status := &fakeStatus{}
	svc := NewComputeService(&fakeSource{}, sink, status, NewEngine(nil), DefaultOptions())

	doc, err := svc.ComputeReport(context.Background(), "hw1")

	assert.ErrorIs(t, err, boom)
	assert.Nil(t, doc)
	assert.Empty(t, status.steps)
}

func TestComputeReport_StoreFailure(t *testing.T) {
	boom := errors.New("write conflict")
	sink := &fakeSink{updateErr: boom}
	status := &fakeStatus{}
	svc := NewComputeService(&fakeSource{submissions: fixturePointers(t)}, sink, status, NewEngine(nil), DefaultOptions())

	doc, err := svc.ComputeReport(context.Background(), "hw1")

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, models.ReportStatusFailed, doc.Status)
	assert.Len(t, sink.updated, 1)
	assert.Len(t, sink.failed, 1)
	assert.Equal(t, models.StepFailed, status.steps[len(status.steps)-1])
}
