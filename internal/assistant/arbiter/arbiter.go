// internal/assistant/arbiter/arbiter.go
package arbiter

import (
	"strings"

	"fiscal-assistant/internal/common/metrics"
	"fiscal-assistant/internal/models"
)

// Decision is the chosen reply and where it came from.
type Decision struct {
	Reply      string
	Provenance models.Provenance
}

// Arbitrate picks the reply for a classified query. Only the rank-1 answer is ever returned.
func Arbitrate(classification models.Classification, candidates models.CandidateSet) Decision {
	d := decide(classification, candidates)
	metrics.ArbiterDecisions.WithLabelValues(string(d.Provenance)).Inc()
	return d
}

func decide(classification models.Classification, candidates models.CandidateSet) Decision {
	switch classification {
	case models.ClassificationGreeting:
		return Decision{Reply: GreetingMessage, Provenance: models.ProvenanceGreeting}
	case models.ClassificationInDomain:
		top, ok := candidates.Top()
		if !ok || strings.TrimSpace(top.Answer) == "" {
			return Decision{Reply: NotFoundMessage, Provenance: models.ProvenanceNotFound}
		}
		return Decision{Reply: top.Answer, Provenance: models.ProvenanceRetrieved}
	default:
		return Decision{Reply: RefusalMessage, Provenance: models.ProvenanceRefused}
	}
}
