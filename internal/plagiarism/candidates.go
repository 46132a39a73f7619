package plagiarism

// CandidatePair is a pair that passed the fingerprint filter, IDA < IDB
type CandidatePair struct {
	IDA             string
	IDB             string
	HammingDistance int

	// batch positions of IDA and IDB
	indexA int
	indexB int
}

func newCandidatePair(fps []Fingerprint, i, j, distance int) CandidatePair {
	a, b := fps[i], fps[j]
	if b.SubmissionID < a.SubmissionID {
		a, b = b, a
		i, j = j, i
	}
	return CandidatePair{
		IDA:             a.SubmissionID,
		IDB:             b.SubmissionID,
		HammingDistance: distance,
		indexA:          i,
		indexB:          j,
	}
}

// FilterCandidates compares every unordered pair of fingerprints and keeps the
// pairs within threshold bits. At most limit pairs are returned, in the order
// they were found; total counts every pair under the threshold.
func FilterCandidates(fps []Fingerprint, threshold uint8, limit uint32) (pairs []CandidatePair, total int) {
	if len(fps) < 2 {
		return nil, 0
	}

	pairs = make([]CandidatePair, 0)
	for i := 0; i < len(fps); i++ {
		for j := i + 1; j < len(fps); j++ {
			distance := HammingDistance(fps[i].Bits, fps[j].Bits)
			if distance > int(threshold) {
				continue
			}
			total++
			if uint32(len(pairs)) < limit {
				pairs = append(pairs, newCandidatePair(fps, i, j, distance))
			}
		}
	}

	return pairs, total
}
