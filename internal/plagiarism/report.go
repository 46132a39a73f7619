package plagiarism

import (
	"sort"

	"github.com/RishiKendai/veritas/internal/models"
)

const (
	highRiskThreshold   = 0.9
	mediumRiskThreshold = 0.7
)

// GetRiskLevel tiers a similarity score
func GetRiskLevel(similarity float64) models.RiskLevel {
	if similarity >= highRiskThreshold {
		return models.RiskHigh
	} else if similarity >= mediumRiskThreshold {
		return models.RiskMedium
	}
	return models.RiskLow
}

// Rank drops results below threshold, tiers the rest, attaches authors and
// sorts by similarity descending. Ties keep their input order.
func Rank(results []models.SimilarityResult, authors map[string]string, threshold float64) []models.Match {
	matches := make([]models.Match, 0)
	for _, r := range results {
		if r.Similarity < threshold {
			continue
		}
		r.RiskLevel = GetRiskLevel(r.Similarity)
		matches = append(matches, models.Match{
			SimilarityResult: r,
			AuthorA:          authors[r.IDA],
			AuthorB:          authors[r.IDB],
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Similarity > matches[j].Similarity
	})

	return matches
}
