package plagiarism

import (
	"context"
	"fmt"
	"time"

	"github.com/RishiKendai/veritas/internal/models"
	"github.com/rs/zerolog/log"
)

// ProgressFunc is told when a run enters a new pipeline step
type ProgressFunc func(step models.Step)

// Engine runs the detection funnel. With a WorkerPool, candidate pairs are
// scored concurrently; without one, scoring runs on the calling goroutine.
// An Engine holds no per-run state and is safe for concurrent use.
type Engine struct {
	pool *WorkerPool
}

func NewEngine(pool *WorkerPool) *Engine {
	return &Engine{pool: pool}
}

// Detect runs a single-threaded detection over submissions
func Detect(submissions []models.Submission, opts Options) (*models.DetectionReport, error) {
	return NewEngine(nil).Detect(context.Background(), submissions, opts)
}

func (e *Engine) Detect(ctx context.Context, submissions []models.Submission, opts Options) (*models.DetectionReport, error) {
	return e.DetectWithProgress(ctx, submissions, opts, nil)
}

func (e *Engine) DetectWithProgress(
	ctx context.Context,
	submissions []models.Submission,
	opts Options,
	progress ProgressFunc,
) (*models.DetectionReport, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if progress == nil {
		progress = func(models.Step) {}
	}

	start := time.Now()
	report := &models.DetectionReport{
		Matches: []models.Match{},
		Stats: models.DetectionStats{
			TotalSubmissions: len(submissions),
		},
	}

	if len(submissions) < 2 {
		report.Stats.ProcessingTimeMs = time.Since(start).Milliseconds()
		return report, nil
	}

	progress(models.StepFingerprinting)
	docs, fps, authors := prepare(submissions)

	progress(models.StepFiltering)
	pairs, total := FilterCandidates(fps, opts.HammingThreshold, opts.CandidateCap)
	if total > len(pairs) {
		log.Debug().
			Int("candidates", total).
			Int("cap", len(pairs)).
			Msg("Candidate cap reached, truncating")
	}

	progress(models.StepScoring)
	results, err := e.score(ctx, pairs, docs, opts)
	if err != nil {
		return nil, err
	}

	report.Matches = Rank(results, authors, opts.ReportThreshold)
	report.Stats.CandidatePairs = total
	report.Stats.ScoredPairs = len(pairs)
	report.Stats.MatchesFound = len(report.Matches)
	report.Stats.ProcessingTimeMs = time.Since(start).Milliseconds()

	log.Debug().
		Int("submissions", report.Stats.TotalSubmissions).
		Int("candidates", report.Stats.CandidatePairs).
		Int("matches", report.Stats.MatchesFound).
		Int64("ms", report.Stats.ProcessingTimeMs).
		Msg("Detection run finished")

	return report, nil
}

// prepare canonicalizes, tokenizes and fingerprints every submission in batch order
func prepare(submissions []models.Submission) ([]document, []Fingerprint, map[string]string) {
	docs := make([]document, len(submissions))
	fps := make([]Fingerprint, len(submissions))
	authors := make(map[string]string, len(submissions))

	for i, s := range submissions {
		canonical := Canonicalize(s.ID, s.Code, s.Language)
		tokens := Tokenize(canonical.Text)
		docs[i] = document{canonical: canonical, tokens: tokens}
		fps[i] = GenerateFingerprint(s.ID, tokens)
		authors[s.ID] = s.AuthorID
	}

	return docs, fps, authors
}

// ScoringJob scores one candidate pair and reports it on results
type ScoringJob struct {
	Slot    int
	Pair    CandidatePair
	docA    *document
	docB    *document
	opts    Options
	results chan<- scoredSlot
}

type scoredSlot struct {
	slot       int
	similarity float64
}

func (j *ScoringJob) Execute(ctx context.Context) error {
	// results is buffered for every job of the run, so this never blocks
	j.results <- scoredSlot{
		slot:       j.Slot,
		similarity: scoreDocuments(j.docA, j.docB, j.opts),
	}
	return nil
}

// score returns one result per candidate pair, in candidate order
func (e *Engine) score(ctx context.Context, pairs []CandidatePair, docs []document, opts Options) ([]models.SimilarityResult, error) {
	results := make([]models.SimilarityResult, len(pairs))
	for i, p := range pairs {
		results[i] = models.SimilarityResult{IDA: p.IDA, IDB: p.IDB}
	}

	if e.pool == nil {
		for i, p := range pairs {
			results[i].Similarity = scoreDocuments(&docs[p.indexA], &docs[p.indexB], opts)
		}
		return results, nil
	}

	resultChan := make(chan scoredSlot, len(pairs))
	for i, p := range pairs {
		job := &ScoringJob{
			Slot:    i,
			Pair:    p,
			docA:    &docs[p.indexA],
			docB:    &docs[p.indexB],
			opts:    opts,
			results: resultChan,
		}
		if err := e.pool.Submit(ctx, job); err != nil {
			return nil, fmt.Errorf("failed to submit scoring job: %w", err)
		}
	}

	for received := 0; received < len(pairs); received++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-e.pool.Done():
			return nil, ErrPoolClosed
		case r := <-resultChan:
			results[r.slot].Similarity = r.similarity
		}
	}

	return results, nil
}
