// internal/api/dto.go
package api

const (
	UnauthorizedMessage  = "Accès non autorisé. Clé invalide."
	ShortQuestionMessage = "❌ Veuillez poser une question fiscale plus précise."
)

const (
	HeaderAPIKey    = "X-API-Key"
	HeaderSessionID = "X-Session-ID"
)

// QuestionRequest is the query string of GET /fiscalite.
type QuestionRequest struct {
	Question string `query:"question" validate:"question"`
}

type MessageResponse struct {
	Message   string `json:"message"`
	SessionID string `json:"sessionId,omitempty"`
	Code      string `json:"code,omitempty"`
}

type StatusResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
	Error  string `json:"error,omitempty"`
}
