// internal/models/classification.go
package models

// Classification is the Domain Gate's verdict on a raw query.
type Classification string

const (
	ClassificationGreeting    Classification = "greeting"
	ClassificationInDomain    Classification = "in_domain"
	ClassificationOutOfDomain Classification = "out_of_domain"
)

func (c Classification) String() string {
	return string(c)
}

// Provenance tags where a reply came from. Used for logs and metrics only.
type Provenance string

const (
	ProvenanceGreeting  Provenance = "greeting"
	ProvenanceRetrieved Provenance = "retrieved"
	ProvenanceNotFound  Provenance = "not_found"
	ProvenanceRefused   Provenance = "refused"
)
