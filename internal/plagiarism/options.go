package plagiarism

import (
	"errors"
	"fmt"

	"github.com/RishiKendai/veritas/internal/models"
)

const (
	DefaultHammingThreshold uint8   = 6
	DefaultCandidateCap     uint32  = 500
	DefaultKGramSize        uint32  = 5
	DefaultWindowSize       uint32  = 4
	DefaultReportThreshold  float64 = 0.4

	// FingerprintBits is the width of the approximate signature
	FingerprintBits = 64
)

var ErrInvalidOptions = errors.New("invalid detection options")

// Options holds every tunable of a detection run.
// Historical deployments used 0.7 as the report threshold; 0.4 is the default here.
type Options struct {
	HammingThreshold uint8
	CandidateCap     uint32
	KGramSize        uint32
	WindowSize       uint32
	ReportThreshold  float64
}

func DefaultOptions() Options {
	return Options{
		HammingThreshold: DefaultHammingThreshold,
		CandidateCap:     DefaultCandidateCap,
		KGramSize:        DefaultKGramSize,
		WindowSize:       DefaultWindowSize,
		ReportThreshold:  DefaultReportThreshold,
	}
}

func (o Options) Validate() error {
	if o.HammingThreshold > FingerprintBits {
		return fmt.Errorf("%w: hammingThreshold %d exceeds %d bits", ErrInvalidOptions, o.HammingThreshold, FingerprintBits)
	}
	if o.CandidateCap == 0 {
		return fmt.Errorf("%w: candidateCap must be greater than 0", ErrInvalidOptions)
	}
	if o.KGramSize == 0 {
		return fmt.Errorf("%w: kgramSize must be greater than 0", ErrInvalidOptions)
	}
	if o.WindowSize == 0 {
		return fmt.Errorf("%w: windowSize must be greater than 0", ErrInvalidOptions)
	}
	if o.ReportThreshold < 0 || o.ReportThreshold > 1 {
		return fmt.Errorf("%w: reportThreshold %.2f outside [0,1]", ErrInvalidOptions, o.ReportThreshold)
	}
	return nil
}

// OptionsFromModel converts the wire form, filling zero fields from base
func OptionsFromModel(m *models.DetectionOptions, base Options) Options {
	if m == nil {
		return base
	}
	opts := base
	if m.HammingThreshold != 0 {
		opts.HammingThreshold = m.HammingThreshold
	}
	if m.CandidateCap != 0 {
		opts.CandidateCap = m.CandidateCap
	}
	if m.KGramSize != 0 {
		opts.KGramSize = m.KGramSize
	}
	if m.WindowSize != 0 {
		opts.WindowSize = m.WindowSize
	}
	if m.ReportThreshold != 0 {
		opts.ReportThreshold = m.ReportThreshold
	}
	return opts
}

func (o Options) Model() models.DetectionOptions {
	return models.DetectionOptions{
		HammingThreshold: o.HammingThreshold,
		CandidateCap:     o.CandidateCap,
		KGramSize:        o.KGramSize,
		WindowSize:       o.WindowSize,
		ReportThreshold:  o.ReportThreshold,
	}
}
