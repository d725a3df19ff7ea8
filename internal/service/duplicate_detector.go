package service

import "github.com/DerekWilliams9191/AI-Facilities-Feedback/internal/domain"

// DefaultSimilarityThreshold is the score a candidate must exceed to count
// as a restatement of the same issue.
const DefaultSimilarityThreshold = 0.7

// DuplicateDetector decides which open tickets a new report duplicates.
type DuplicateDetector struct {
	Threshold float64
}

// NewDuplicateDetector builds a detector. A zero (unset) threshold or one
// outside (0,1] falls back to DefaultSimilarityThreshold.
func NewDuplicateDetector(threshold float64) DuplicateDetector {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultSimilarityThreshold
	}
	return DuplicateDetector{Threshold: threshold}
}

// FindDuplicates keeps the candidates at exactly location whose category
// equals category and whose description scores strictly above the
// threshold. Candidate order is preserved.
func (d DuplicateDetector) FindDuplicates(description, location, category string, candidates []domain.Ticket) domain.DuplicateCheckResult {
	matches := make([]domain.Ticket, 0)
	for _, candidate := range candidates {
		if candidate.Location != location {
			continue
		}
		if candidate.Category == nil || *candidate.Category != category {
			continue
		}
		if Similarity(description, candidate.Description) > d.Threshold {
			matches = append(matches, candidate)
		}
	}
	return domain.DuplicateCheckResult{
		IsDuplicate:      len(matches) > 0,
		DuplicateTickets: matches,
	}
}
