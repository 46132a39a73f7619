package models

import (
	"time"
)

type Step string

const (
	StepIdle           Step = "idle"
	StepInitiated      Step = "initiated"
	StepStarted        Step = "started"
	StepFingerprinting Step = "fingerprinting"
	StepFiltering      Step = "filtering"
	StepScoring        Step = "scoring"
	StepCompleted      Step = "completed"
	StepFailed         Step = "failed"
)

// IsValid reports whether s is one of the known pipeline steps
func (s Step) IsValid() bool {
	switch s {
	case StepIdle, StepInitiated, StepStarted, StepFingerprinting,
		StepFiltering, StepScoring, StepCompleted, StepFailed:
		return true
	default:
		return false
	}
}

type RiskLevel string

const (
	RiskLow    RiskLevel = "Low"
	RiskMedium RiskLevel = "Medium"
	RiskHigh   RiskLevel = "High"
)

// SimilarityResult is the exact score of one candidate pair, IDA < IDB
type SimilarityResult struct {
	IDA        string    `bson:"idA" json:"idA"`
	IDB        string    `bson:"idB" json:"idB"`
	Similarity float64   `bson:"similarity" json:"similarity"`
	RiskLevel  RiskLevel `bson:"riskLevel" json:"riskLevel"`
}

// Match is a reported SimilarityResult with the authors of both submissions
type Match struct {
	SimilarityResult `bson:",inline"`
	AuthorA          string `bson:"authorA" json:"authorA"`
	AuthorB          string `bson:"authorB" json:"authorB"`
}

// DetectionStats describes one detection run.
// CandidatePairs counts every pair under the Hamming threshold; ScoredPairs is what
// survived the candidate cap and was actually scored.
type DetectionStats struct {
	TotalSubmissions int   `bson:"totalSubmissions" json:"totalSubmissions"`
	CandidatePairs   int   `bson:"candidatePairs" json:"candidatePairs"`
	ScoredPairs      int   `bson:"scoredPairs" json:"scoredPairs"`
	MatchesFound     int   `bson:"matchesFound" json:"matchesFound"`
	ProcessingTimeMs int64 `bson:"processingTimeMs" json:"processingTimeMs"`
}

type DetectionReport struct {
	Matches []Match        `bson:"matches" json:"matches"`
	Stats   DetectionStats `bson:"stats" json:"stats"`
}

// ReportDocument is a persisted detection run for an assignment
type ReportDocument struct {
	RunID        string           `bson:"runId" json:"runId"`
	AssignmentID string           `bson:"assignmentId" json:"assignmentId"`
	Status       string           `bson:"status" json:"status"` // pending, completed, failed
	Error        string           `bson:"error,omitempty" json:"error,omitempty"`
	Options      DetectionOptions `bson:"options" json:"options"`
	Report       *DetectionReport `bson:"report,omitempty" json:"report,omitempty"`
	CreatedAt    time.Time        `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time        `bson:"updatedAt" json:"updatedAt"`
}

// DetectionOptions is the wire/storage form of the engine options
type DetectionOptions struct {
	HammingThreshold uint8   `bson:"hammingThreshold" json:"hammingThreshold"`
	CandidateCap     uint32  `bson:"candidateCap" json:"candidateCap"`
	KGramSize        uint32  `bson:"kgramSize" json:"kgramSize"`
	WindowSize       uint32  `bson:"windowSize" json:"windowSize"`
	ReportThreshold  float64 `bson:"reportThreshold" json:"reportThreshold"`
}

const (
	ReportStatusPending   = "pending"
	ReportStatusCompleted = "completed"
	ReportStatusFailed    = "failed"
)

// ComputeRequest represents a request to compute similarity for an assignment
type ComputeRequest struct {
	AssignmentID string `json:"assignmentId" binding:"required"`
}

// ComputeResponse represents the response from compute endpoint
type ComputeResponse struct {
	Step         Step   `json:"step"`
	AssignmentID string `json:"assignmentId"`
}

// DetectRequest carries a caller-supplied batch for synchronous detection
type DetectRequest struct {
	Submissions []Submission      `json:"submissions" binding:"dive"`
	Options     *DetectionOptions `json:"options,omitempty"`
}

// StatusResponse reports the current pipeline step of an assignment
type StatusResponse struct {
	AssignmentID string `json:"assignmentId"`
	Step         Step   `json:"step"`
}
