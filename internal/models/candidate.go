// internal/models/candidate.go
package models

// Candidate is one scored hit from the knowledge corpus.
type Candidate struct {
	Question string   `json:"question"`
	Answer   string   `json:"reponse"`
	Tags     []string `json:"tags,omitempty"`
	Score    float64  `json:"score"`
}

// CandidateSet is ordered by descending Score.
type CandidateSet []Candidate

// BestScore returns the score of the first candidate, or 0 when the set is empty.
func (s CandidateSet) BestScore() float64 {
	if len(s) == 0 {
		return 0
	}
	return s[0].Score
}

// Top returns the best candidate.
func (s CandidateSet) Top() (Candidate, bool) {
	if len(s) == 0 {
		return Candidate{}, false
	}
	return s[0], true
}
